package supervisor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	contractx "github.com/merchantkit/assistant/agent/contract"
	statex "github.com/merchantkit/assistant/agent/state"
	toolx "github.com/merchantkit/assistant/agent/tool"
)

type fakeRouter struct {
	decisions  []contractx.RoutingDecision
	err        error
	calls      int
	lastAgents []string
}

func (f *fakeRouter) Route(ctx context.Context, history []contractx.Message, lastAgent string) (contractx.RoutingDecision, error) {
	f.calls++
	f.lastAgents = append(f.lastAgents, lastAgent)
	if f.err != nil {
		return contractx.RoutingDecision{}, f.err
	}
	idx := f.calls - 1
	if idx >= len(f.decisions) {
		idx = len(f.decisions) - 1
	}
	if idx < 0 {
		return contractx.RoutingDecision{}, fmt.Errorf("router has no scripted decision")
	}
	return f.decisions[idx], nil
}

type fakeAgent struct {
	name     string
	messages []contractx.Message
	err      error
	calls    int
}

func (f *fakeAgent) Descriptor() contractx.AgentDescriptor {
	return contractx.AgentDescriptor{Name: f.name, Specialized: true}
}

func (f *fakeAgent) Next(ctx context.Context, history []contractx.Message) (contractx.Message, error) {
	f.calls++
	if f.err != nil {
		return contractx.Message{}, f.err
	}
	idx := f.calls - 1
	if idx >= len(f.messages) {
		return contractx.Message{}, fmt.Errorf("agent %s has no scripted message at call=%d", f.name, f.calls)
	}
	msg := f.messages[idx]
	msg.Role = contractx.RoleAI
	msg.AgentName = f.name
	return msg, nil
}

type execCall struct {
	tool string
	args map[string]any
}

type fakeExecutor struct {
	results map[string]contractx.ToolResult
	errs    map[string]error
	calls   []execCall
}

func (f *fakeExecutor) Execute(ctx context.Context, tool string, args map[string]any) (contractx.ToolResult, error) {
	f.calls = append(f.calls, execCall{tool: tool, args: args})
	if err, ok := f.errs[tool]; ok {
		return contractx.ToolResult{}, err
	}
	if res, ok := f.results[tool]; ok {
		return res, nil
	}
	return contractx.ToolResult{Tool: tool, Result: map[string]string{"status": "ok"}}, nil
}

type fakeRegistry struct {
	router contractx.Router
	agents map[string]contractx.Agent
	order  []string
}

func (f *fakeRegistry) Router() contractx.Router {
	return f.router
}

func (f *fakeRegistry) Agent(name string) (contractx.Agent, bool) {
	a, ok := f.agents[name]
	return a, ok
}

func (f *fakeRegistry) Members() []string {
	return f.order
}

type notification struct {
	sessionID string
	token     string
	tool      string
}

type fakeNotifier struct {
	notifications []notification
	err           error
}

func (f *fakeNotifier) NotifyInterrupt(ctx context.Context, sessionID, token, tool, description string) error {
	f.notifications = append(f.notifications, notification{sessionID: sessionID, token: token, tool: tool})
	return f.err
}

func delegate(agent string) contractx.RoutingDecision {
	return contractx.RoutingDecision{Kind: contractx.RouteDelegate, Agent: agent}
}

func terminate(final string) contractx.RoutingDecision {
	return contractx.RoutingDecision{Kind: contractx.RouteTerminate, Final: final}
}

func sequentialTokens() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("tok-%d", n)
	}
}

func mustSensitivity(t *testing.T) toolx.Sensitivity {
	t.Helper()
	sens, err := toolx.NewSensitivity(toolx.DefaultSensitive())
	if err != nil {
		t.Fatalf("sensitivity: %v", err)
	}
	return sens
}

func newTestSupervisor(t *testing.T, store statex.Store, registry Registry, executor contractx.ToolExecutor, opts ...Option) *Supervisor {
	t.Helper()
	opts = append([]Option{WithTokenSource(sequentialTokens())}, opts...)
	s, err := New(store, registry, executor, mustSensitivity(t), Config{}, opts...)
	if err != nil {
		t.Fatalf("new supervisor: %v", err)
	}
	return s
}

func TestChatSingleAgentTurn(t *testing.T) {
	t.Parallel()

	store := statex.NewMemoryStore()
	agent := &fakeAgent{
		name: contractx.AgentProduct,
		messages: []contractx.Message{
			{Content: "The Everyday Mug costs 12.99 USD."},
		},
	}
	router := &fakeRouter{decisions: []contractx.RoutingDecision{
		delegate(contractx.AgentProduct),
		terminate(""),
	}}
	registry := &fakeRegistry{
		router: router,
		agents: map[string]contractx.Agent{contractx.AgentProduct: agent},
	}
	executor := &fakeExecutor{}

	s := newTestSupervisor(t, store, registry, executor)

	res, err := s.Chat(context.Background(), "s1", "How much is the Everyday Mug?")
	if err != nil {
		t.Fatalf("chat: %v", err)
	}
	if res.Interruption != nil {
		t.Fatalf("unexpected interruption: %+v", res.Interruption)
	}
	if res.Response != "The Everyday Mug costs 12.99 USD." {
		t.Fatalf("unexpected response: %q", res.Response)
	}
	if agent.calls != 1 {
		t.Fatalf("expected one agent step, got %d", agent.calls)
	}
	if len(executor.calls) != 0 {
		t.Fatalf("no tools should run, got %d calls", len(executor.calls))
	}

	history, err := s.History(context.Background(), "s1", 10)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("expected human + ai messages, got %d", len(history))
	}
	if history[0].Role != contractx.RoleHuman || history[1].Role != contractx.RoleAI {
		t.Fatalf("unexpected roles: %s, %s", history[0].Role, history[1].Role)
	}
}

func TestChatRunsNonSensitiveTools(t *testing.T) {
	t.Parallel()

	store := statex.NewMemoryStore()
	agent := &fakeAgent{
		name: contractx.AgentProduct,
		messages: []contractx.Message{
			{ToolCalls: []contractx.ToolCallIntent{
				{ID: "c1", Name: toolx.ToolViewProduct, Arguments: map[string]any{"sku": "MUG-01"}},
			}},
			{Content: "MUG-01 is in stock at 12.99 USD."},
		},
	}
	router := &fakeRouter{decisions: []contractx.RoutingDecision{
		delegate(contractx.AgentProduct),
		terminate(""),
	}}
	registry := &fakeRegistry{
		router: router,
		agents: map[string]contractx.Agent{contractx.AgentProduct: agent},
	}
	executor := &fakeExecutor{}

	s := newTestSupervisor(t, store, registry, executor)

	res, err := s.Chat(context.Background(), "s1", "Tell me about MUG-01")
	if err != nil {
		t.Fatalf("chat: %v", err)
	}
	if res.Response != "MUG-01 is in stock at 12.99 USD." {
		t.Fatalf("unexpected response: %q", res.Response)
	}
	if len(executor.calls) != 1 || executor.calls[0].tool != toolx.ToolViewProduct {
		t.Fatalf("unexpected executor calls: %+v", executor.calls)
	}

	history, err := s.History(context.Background(), "s1", 10)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	// human, tool-call message, tool result, final answer
	if len(history) != 4 {
		t.Fatalf("expected 4 messages, got %d", len(history))
	}
	if history[2].Role != contractx.RoleTool || history[2].ToolCallID != "c1" {
		t.Fatalf("expected tool result bound to c1, got %+v", history[2])
	}
}

func TestChatValidationErrorBecomesToolResult(t *testing.T) {
	t.Parallel()

	store := statex.NewMemoryStore()
	agent := &fakeAgent{
		name: contractx.AgentProduct,
		messages: []contractx.Message{
			{ToolCalls: []contractx.ToolCallIntent{
				{ID: "c1", Name: toolx.ToolViewProduct, Arguments: map[string]any{}},
			}},
			{Content: "I need a SKU to look that up."},
		},
	}
	router := &fakeRouter{decisions: []contractx.RoutingDecision{
		delegate(contractx.AgentProduct),
		terminate(""),
	}}
	registry := &fakeRegistry{
		router: router,
		agents: map[string]contractx.Agent{contractx.AgentProduct: agent},
	}
	executor := &fakeExecutor{errs: map[string]error{
		toolx.ToolViewProduct: &contractx.ValidationError{Tool: toolx.ToolViewProduct, Fields: []string{"sku"}},
	}}

	s := newTestSupervisor(t, store, registry, executor)

	res, err := s.Chat(context.Background(), "s1", "Show me the product")
	if err != nil {
		t.Fatalf("model-initiated validation failures must not abort the turn: %v", err)
	}
	if res.Response != "I need a SKU to look that up." {
		t.Fatalf("unexpected response: %q", res.Response)
	}

	history, err := s.History(context.Background(), "s1", 10)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	var toolMsg *contractx.Message
	for i := range history {
		if history[i].Role == contractx.RoleTool {
			toolMsg = &history[i]
		}
	}
	if toolMsg == nil {
		t.Fatal("expected a tool result message carrying the validation error")
	}
	if !strings.Contains(toolMsg.Content, "sku") {
		t.Fatalf("tool result should name the missing field, got %q", toolMsg.Content)
	}
}

func TestChatHandoffCap(t *testing.T) {
	t.Parallel()

	store := statex.NewMemoryStore()
	agent := &fakeAgent{
		name: contractx.AgentProduct,
		messages: []contractx.Message{
			{Content: "a"}, {Content: "b"}, {Content: "c"}, {Content: "d"}, {Content: "e"},
			{Content: "f"}, {Content: "g"}, {Content: "h"}, {Content: "i"}, {Content: "j"},
		},
	}
	router := &fakeRouter{decisions: []contractx.RoutingDecision{
		delegate(contractx.AgentProduct),
	}}
	registry := &fakeRegistry{
		router: router,
		agents: map[string]contractx.Agent{contractx.AgentProduct: agent},
	}

	s := newTestSupervisor(t, store, registry, &fakeExecutor{})

	_, err := s.Chat(context.Background(), "s1", "hello")
	if !errors.Is(err, contractx.ErrRoutingLoop) {
		t.Fatalf("expected ErrRoutingLoop, got %v", err)
	}
}

func TestChatUnknownAgentFromRouter(t *testing.T) {
	t.Parallel()

	store := statex.NewMemoryStore()
	router := &fakeRouter{decisions: []contractx.RoutingDecision{delegate("billing_agent")}}
	registry := &fakeRegistry{router: router, agents: map[string]contractx.Agent{}}

	s := newTestSupervisor(t, store, registry, &fakeExecutor{})

	_, err := s.Chat(context.Background(), "s1", "hello")
	if !errors.Is(err, contractx.ErrSchemaViolation) {
		t.Fatalf("expected ErrSchemaViolation, got %v", err)
	}
}

func TestChatValidatesInput(t *testing.T) {
	t.Parallel()

	store := statex.NewMemoryStore()
	registry := &fakeRegistry{router: &fakeRouter{}, agents: map[string]contractx.Agent{}}
	s := newTestSupervisor(t, store, registry, &fakeExecutor{})

	if _, err := s.Chat(context.Background(), "  ", "hello"); !errors.Is(err, contractx.ErrValidation) {
		t.Fatalf("expected ErrValidation for blank session, got %v", err)
	}
	if _, err := s.Chat(context.Background(), "s1", "   "); !errors.Is(err, contractx.ErrValidation) {
		t.Fatalf("expected ErrValidation for blank message, got %v", err)
	}
}

// suspendedFixture runs a chat that suspends on a sensitive delete so resume
// behavior can be exercised against real persisted state.
func suspendedFixture(t *testing.T, extraCalls []contractx.ToolCallIntent, followUp []contractx.Message) (*Supervisor, *statex.MemoryStore, *fakeExecutor, *fakeNotifier, TurnResult) {
	t.Helper()

	store := statex.NewMemoryStore()
	calls := append([]contractx.ToolCallIntent{
		{ID: "c1", Name: toolx.ToolDeleteProduct, Arguments: map[string]any{"sku": "MUG-01"}},
	}, extraCalls...)

	messages := append([]contractx.Message{{ToolCalls: calls}}, followUp...)
	agent := &fakeAgent{name: contractx.AgentProduct, messages: messages}
	router := &fakeRouter{decisions: []contractx.RoutingDecision{
		delegate(contractx.AgentProduct),
		terminate(""),
	}}
	registry := &fakeRegistry{
		router: router,
		agents: map[string]contractx.Agent{contractx.AgentProduct: agent},
	}
	executor := &fakeExecutor{}
	notifier := &fakeNotifier{}

	s := newTestSupervisor(t, store, registry, executor, WithNotifier(notifier))

	res, err := s.Chat(context.Background(), "s1", "Delete MUG-01")
	if err != nil {
		t.Fatalf("chat: %v", err)
	}
	if res.Interruption == nil {
		t.Fatal("expected suspension on sensitive call")
	}
	return s, store, executor, notifier, res
}

func TestSensitiveCallSuspends(t *testing.T) {
	t.Parallel()

	_, store, executor, notifier, res := suspendedFixture(t, nil, nil)

	if res.Interruption.Type != InterruptionTypeApproval {
		t.Fatalf("unexpected interruption type %q", res.Interruption.Type)
	}
	if res.Interruption.Token != "tok-1" {
		t.Fatalf("unexpected token %q", res.Interruption.Token)
	}
	if !strings.Contains(res.Interruption.Message, toolx.ToolDeleteProduct) {
		t.Fatalf("interruption message should name the tool, got %q", res.Interruption.Message)
	}
	if len(executor.calls) != 0 {
		t.Fatalf("sensitive call must not execute before approval, got %+v", executor.calls)
	}
	if len(notifier.notifications) != 1 || notifier.notifications[0].token != "tok-1" {
		t.Fatalf("expected one notification with tok-1, got %+v", notifier.notifications)
	}

	st, err := store.Load(context.Background(), "s1")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !st.Interrupted() || st.Pending.Token != "tok-1" {
		t.Fatal("suspension must be durable")
	}
}

func TestChatRejectedWhilePending(t *testing.T) {
	t.Parallel()

	s, _, _, _, _ := suspendedFixture(t, nil, nil)

	_, err := s.Chat(context.Background(), "s1", "Also delete MUG-02")
	if !errors.Is(err, contractx.ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState while pending, got %v", err)
	}
}

func TestResumeApproveExactlyOnce(t *testing.T) {
	t.Parallel()

	followUp := []contractx.Message{{Content: "Deleted MUG-01 for you."}}
	s, store, executor, _, _ := suspendedFixture(t, nil, followUp)

	res, err := s.Resume(context.Background(), "s1", contractx.ResumeAction{Decision: contractx.ResumeApprove})
	if err != nil {
		t.Fatalf("resume: %v", err)
	}
	if res.Interruption != nil {
		t.Fatalf("unexpected interruption after approve: %+v", res.Interruption)
	}
	if res.Response != "Deleted MUG-01 for you." {
		t.Fatalf("unexpected response: %q", res.Response)
	}
	if len(executor.calls) != 1 {
		t.Fatalf("expected exactly one execution, got %d", len(executor.calls))
	}
	if executor.calls[0].tool != toolx.ToolDeleteProduct || executor.calls[0].args["sku"] != "MUG-01" {
		t.Fatalf("approve must execute the original action: %+v", executor.calls[0])
	}

	st, err := store.Load(context.Background(), "s1")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if st.Interrupted() {
		t.Fatal("pending interrupt should be cleared")
	}

	// A replayed verdict must not re-run the side effect.
	_, err = s.Resume(context.Background(), "s1", contractx.ResumeAction{Decision: contractx.ResumeApprove})
	if !errors.Is(err, contractx.ErrStaleInterrupt) {
		t.Fatalf("expected ErrStaleInterrupt on replay, got %v", err)
	}
	if len(executor.calls) != 1 {
		t.Fatalf("replay executed the tool again: %d calls", len(executor.calls))
	}
}

func TestResumeEditUsesEditedArgs(t *testing.T) {
	t.Parallel()

	followUp := []contractx.Message{{Content: "Deleted MUG-02 instead."}}
	s, _, executor, _, _ := suspendedFixture(t, nil, followUp)

	res, err := s.Resume(context.Background(), "s1", contractx.ResumeAction{
		Decision: contractx.ResumeEdit,
		Args:     map[string]any{"sku": "MUG-02"},
	})
	if err != nil {
		t.Fatalf("resume edit: %v", err)
	}
	if res.Response != "Deleted MUG-02 instead." {
		t.Fatalf("unexpected response: %q", res.Response)
	}
	if len(executor.calls) != 1 || executor.calls[0].args["sku"] != "MUG-02" {
		t.Fatalf("edit must execute the edited arguments: %+v", executor.calls)
	}
}

func TestResumeEditValidationErrorPropagates(t *testing.T) {
	t.Parallel()

	s, store, executor, _, _ := suspendedFixture(t, nil, nil)
	executor.errs = map[string]error{
		toolx.ToolDeleteProduct: &contractx.ValidationError{Tool: toolx.ToolDeleteProduct, Fields: []string{"sku"}},
	}

	_, err := s.Resume(context.Background(), "s1", contractx.ResumeAction{
		Decision: contractx.ResumeEdit,
		Args:     map[string]any{"sku": ""},
	})
	if !errors.Is(err, contractx.ErrValidation) {
		t.Fatalf("expected ErrValidation for bad edited args, got %v", err)
	}

	// The interrupt was consumed before execution; a retry is stale.
	st, loadErr := store.Load(context.Background(), "s1")
	if loadErr != nil {
		t.Fatalf("load: %v", loadErr)
	}
	if st.Interrupted() {
		t.Fatal("consume must be durable even when the edited call fails")
	}
}

func TestResumeReject(t *testing.T) {
	t.Parallel()

	followUp := []contractx.Message{{Content: "Okay, I will not delete it."}}
	s, store, executor, _, _ := suspendedFixture(t, nil, followUp)

	res, err := s.Resume(context.Background(), "s1", contractx.ResumeAction{Decision: contractx.ResumeReject})
	if err != nil {
		t.Fatalf("resume reject: %v", err)
	}
	if res.Response != "Okay, I will not delete it." {
		t.Fatalf("unexpected response: %q", res.Response)
	}
	if len(executor.calls) != 0 {
		t.Fatalf("reject must not execute the tool: %+v", executor.calls)
	}

	history, err := store.Recent(context.Background(), "s1", 20)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	var declined bool
	for _, msg := range history {
		if msg.Role == contractx.RoleTool && strings.Contains(msg.Content, "declined") {
			declined = true
		}
	}
	if !declined {
		t.Fatal("expected a declined tool result in the transcript")
	}
}

func TestResumeQueuedSensitiveActionPromoted(t *testing.T) {
	t.Parallel()

	second := []contractx.ToolCallIntent{
		{ID: "c2", Name: toolx.ToolDeleteCustomer, Arguments: map[string]any{"customer_id": float64(7)}},
	}
	s, store, executor, notifier, first := suspendedFixture(t, second, nil)

	if first.Interruption.Token != "tok-1" {
		t.Fatalf("unexpected first token %q", first.Interruption.Token)
	}

	res, err := s.Resume(context.Background(), "s1", contractx.ResumeAction{Decision: contractx.ResumeApprove})
	if err != nil {
		t.Fatalf("resume: %v", err)
	}
	if res.Interruption == nil {
		t.Fatal("queued sensitive action should surface as a fresh interruption")
	}
	if res.Interruption.Token == first.Interruption.Token {
		t.Fatal("promoted interrupt must carry a fresh token")
	}
	if !strings.Contains(res.Interruption.Message, toolx.ToolDeleteCustomer) {
		t.Fatalf("promoted interruption should name the queued tool, got %q", res.Interruption.Message)
	}
	if len(executor.calls) != 1 || executor.calls[0].tool != toolx.ToolDeleteProduct {
		t.Fatalf("only the approved head may execute: %+v", executor.calls)
	}
	if len(notifier.notifications) != 2 {
		t.Fatalf("expected notification per interruption, got %d", len(notifier.notifications))
	}

	st, err := store.Load(context.Background(), "s1")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !st.Interrupted() || st.Pending.Action.Tool != toolx.ToolDeleteCustomer {
		t.Fatal("promoted interrupt must be durable")
	}
}

func TestResumeQueuedNonSensitiveRunsWithoutApproval(t *testing.T) {
	t.Parallel()

	queued := []contractx.ToolCallIntent{
		{ID: "c2", Name: toolx.ToolViewProduct, Arguments: map[string]any{"sku": "MUG-01"}},
	}
	followUp := []contractx.Message{{Content: "MUG-01 is gone."}}
	s, _, executor, _, _ := suspendedFixture(t, queued, followUp)

	res, err := s.Resume(context.Background(), "s1", contractx.ResumeAction{Decision: contractx.ResumeApprove})
	if err != nil {
		t.Fatalf("resume: %v", err)
	}
	if res.Interruption != nil {
		t.Fatalf("non-sensitive queued call must not require approval: %+v", res.Interruption)
	}
	if len(executor.calls) != 2 {
		t.Fatalf("expected head + queued execution, got %+v", executor.calls)
	}
	if executor.calls[1].tool != toolx.ToolViewProduct {
		t.Fatalf("queued call should run after the approved head: %+v", executor.calls)
	}
}

func TestResumeTokenMismatch(t *testing.T) {
	t.Parallel()

	s, store, executor, _, _ := suspendedFixture(t, nil, nil)

	_, err := s.Resume(context.Background(), "s1", contractx.ResumeAction{
		Token:    "tok-stale",
		Decision: contractx.ResumeApprove,
	})
	if !errors.Is(err, contractx.ErrStaleInterrupt) {
		t.Fatalf("expected ErrStaleInterrupt, got %v", err)
	}
	if len(executor.calls) != 0 {
		t.Fatal("mismatched token must not execute anything")
	}

	st, loadErr := store.Load(context.Background(), "s1")
	if loadErr != nil {
		t.Fatalf("load: %v", loadErr)
	}
	if !st.Interrupted() || st.Pending.Token != "tok-1" {
		t.Fatal("mismatched resume must leave the interrupt intact")
	}
}

func TestResumeWithoutPending(t *testing.T) {
	t.Parallel()

	store := statex.NewMemoryStore()
	registry := &fakeRegistry{router: &fakeRouter{}, agents: map[string]contractx.Agent{}}
	s := newTestSupervisor(t, store, registry, &fakeExecutor{})

	_, err := s.Resume(context.Background(), "s1", contractx.ResumeAction{Decision: contractx.ResumeApprove})
	if !errors.Is(err, contractx.ErrStaleInterrupt) {
		t.Fatalf("expected ErrStaleInterrupt, got %v", err)
	}

	_, err = s.Resume(context.Background(), "s1", contractx.ResumeAction{Decision: "maybe"})
	if !errors.Is(err, contractx.ErrValidation) {
		t.Fatalf("expected ErrValidation for bad decision, got %v", err)
	}
}

func TestChatStreamDeliversContent(t *testing.T) {
	t.Parallel()

	store := statex.NewMemoryStore()
	agent := &fakeAgent{
		name: contractx.AgentProduct,
		messages: []contractx.Message{
			{ToolCalls: []contractx.ToolCallIntent{
				{ID: "c1", Name: toolx.ToolViewProduct, Arguments: map[string]any{"sku": "MUG-01"}},
			}},
			{Content: "MUG-01 costs 12.99 USD."},
		},
	}
	router := &fakeRouter{decisions: []contractx.RoutingDecision{
		delegate(contractx.AgentProduct),
		terminate(""),
	}}
	registry := &fakeRegistry{
		router: router,
		agents: map[string]contractx.Agent{contractx.AgentProduct: agent},
	}

	s := newTestSupervisor(t, store, registry, &fakeExecutor{})

	var chunks []string
	_, err := s.ChatStream(context.Background(), "s1", "Price of MUG-01?", func(content string) {
		chunks = append(chunks, content)
	})
	if err != nil {
		t.Fatalf("chat stream: %v", err)
	}
	if len(chunks) != 1 || chunks[0] != "MUG-01 costs 12.99 USD." {
		t.Fatalf("unexpected chunks: %+v", chunks)
	}
}

func TestClearSessionIdempotent(t *testing.T) {
	t.Parallel()

	store := statex.NewMemoryStore()
	registry := &fakeRegistry{router: &fakeRouter{}, agents: map[string]contractx.Agent{}}
	s := newTestSupervisor(t, store, registry, &fakeExecutor{})

	if err := store.Append(context.Background(), "s1", contractx.Message{Role: contractx.RoleHuman, Content: "hi", CreatedAt: time.Now()}); err != nil {
		t.Fatalf("append: %v", err)
	}

	if err := s.Clear(context.Background(), "s1"); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if err := s.Clear(context.Background(), "s1"); err != nil {
		t.Fatalf("second clear: %v", err)
	}

	history, err := s.History(context.Background(), "s1", 10)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 0 {
		t.Fatalf("cleared session should have no messages, got %d", len(history))
	}
}
