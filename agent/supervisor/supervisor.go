// Package supervisor drives the multi-agent turn loop: routing, tool
// execution, suspension on sensitive calls, and resumption with a human
// verdict.
package supervisor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	contractx "github.com/merchantkit/assistant/agent/contract"
	statex "github.com/merchantkit/assistant/agent/state"
	toolx "github.com/merchantkit/assistant/agent/tool"
)

// maxAgentSteps caps model/tool iterations inside a single agent activation.
const maxAgentSteps = 8

// InterruptionTypeApproval marks interruptions waiting on a human verdict.
const InterruptionTypeApproval = "approval_required"

type Config struct {
	MaxHandoffs    int      `split_words:"true" default:"10"`
	HistoryLimit   int      `split_words:"true" default:"40"`
	SensitiveTools []string `split_words:"true"`
}

// Registry gives the supervisor routing plus agent lookup.
type Registry interface {
	Router() contractx.Router
	Agent(name string) (contractx.Agent, bool)
	Members() []string
}

// Interruption is the wire-facing description of a suspended turn.
type Interruption struct {
	Type    string         `json:"type"`
	Message string         `json:"message"`
	Args    map[string]any `json:"args,omitempty"`
	Token   string         `json:"token,omitempty"`
}

// TurnResult is the outcome of one chat or resume call. Interruption is set
// when the turn suspended awaiting approval.
type TurnResult struct {
	Response     string
	Interruption *Interruption
}

// Sink receives each persisted assistant utterance during a streamed turn.
// Content is persisted before the sink runs, so an abandoned stream loses
// nothing.
type Sink func(content string)

type Supervisor struct {
	store        statex.Store
	registry     Registry
	executor     contractx.ToolExecutor
	sensitive    toolx.Sensitivity
	notifier     contractx.InterruptNotifier
	maxHandoffs  int
	historyLimit int
	locks        *sessionLocks
	newToken     func() string
	now          func() time.Time
}

type Option func(*Supervisor)

func WithNotifier(n contractx.InterruptNotifier) Option {
	return func(s *Supervisor) {
		s.notifier = n
	}
}

func WithTokenSource(fn func() string) Option {
	return func(s *Supervisor) {
		if fn != nil {
			s.newToken = fn
		}
	}
}

func WithClock(fn func() time.Time) Option {
	return func(s *Supervisor) {
		if fn != nil {
			s.now = fn
		}
	}
}

func New(
	store statex.Store,
	registry Registry,
	executor contractx.ToolExecutor,
	sensitive toolx.Sensitivity,
	cfg Config,
	opts ...Option,
) (*Supervisor, error) {
	if store == nil {
		return nil, errors.New("store is required")
	}
	if registry == nil {
		return nil, errors.New("registry is required")
	}
	if executor == nil {
		return nil, errors.New("executor is required")
	}

	maxHandoffs := cfg.MaxHandoffs
	if maxHandoffs <= 0 {
		maxHandoffs = 10
	}
	historyLimit := cfg.HistoryLimit
	if historyLimit <= 0 {
		historyLimit = 40
	}

	s := &Supervisor{
		store:        store,
		registry:     registry,
		executor:     executor,
		sensitive:    sensitive,
		maxHandoffs:  maxHandoffs,
		historyLimit: historyLimit,
		locks:        newSessionLocks(),
		newToken:     uuid.NewString,
		now:          time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s, nil
}

// Chat runs one user turn to completion or suspension.
func (s *Supervisor) Chat(ctx context.Context, sessionID, message string) (TurnResult, error) {
	return s.chat(ctx, sessionID, message, nil)
}

// ChatStream is Chat with per-message content delivery through sink.
func (s *Supervisor) ChatStream(ctx context.Context, sessionID, message string, sink Sink) (TurnResult, error) {
	return s.chat(ctx, sessionID, message, sink)
}

func (s *Supervisor) chat(ctx context.Context, sessionID, message string, sink Sink) (TurnResult, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return TurnResult{}, fmt.Errorf("%w: session_id is required", contractx.ErrValidation)
	}
	if strings.TrimSpace(message) == "" {
		return TurnResult{}, fmt.Errorf("%w: message is required", contractx.ErrValidation)
	}

	unlock := s.locks.lock(sessionID)
	defer unlock()

	st, err := s.store.Load(ctx, sessionID)
	if err != nil {
		return TurnResult{}, err
	}
	if st.Interrupted() {
		return TurnResult{}, fmt.Errorf("%w: session %s is awaiting approval", contractx.ErrInvalidState, sessionID)
	}

	human := contractx.Message{
		Role:      contractx.RoleHuman,
		Content:   strings.TrimSpace(message),
		CreatedAt: s.now(),
	}
	if err := s.persist(ctx, st, human); err != nil {
		return TurnResult{}, err
	}

	return s.runLoop(ctx, st, "", sink)
}

// Resume supplies the human verdict for the session's pending interrupt and
// continues the suspended turn.
func (s *Supervisor) Resume(ctx context.Context, sessionID string, action contractx.ResumeAction) (TurnResult, error) {
	return s.resume(ctx, sessionID, action, nil)
}

func (s *Supervisor) resume(ctx context.Context, sessionID string, action contractx.ResumeAction, sink Sink) (TurnResult, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return TurnResult{}, fmt.Errorf("%w: session_id is required", contractx.ErrValidation)
	}
	action = action.Normalize()
	if !action.Valid() {
		return TurnResult{}, fmt.Errorf("%w: decision must be approve, edit, or reject", contractx.ErrValidation)
	}

	unlock := s.locks.lock(sessionID)
	defer unlock()

	st, err := s.store.Load(ctx, sessionID)
	if err != nil {
		return TurnResult{}, err
	}
	if !st.Interrupted() {
		return TurnResult{}, fmt.Errorf("%w: session %s has no pending interrupt", contractx.ErrStaleInterrupt, sessionID)
	}
	token := st.Pending.Token
	if action.Token != "" && action.Token != token {
		return TurnResult{}, fmt.Errorf("%w: token does not match the outstanding interrupt", contractx.ErrStaleInterrupt)
	}

	consumed, err := st.ConsumePending(token, s.newToken(), s.now())
	if err != nil {
		if errors.Is(err, statex.ErrTokenMismatch) || errors.Is(err, statex.ErrNoPending) {
			return TurnResult{}, fmt.Errorf("%w: %v", contractx.ErrStaleInterrupt, err)
		}
		return TurnResult{}, err
	}
	// The consume is made durable before any side effect so a replayed
	// resume can never execute the action twice.
	if err := s.store.Save(ctx, st); err != nil {
		return TurnResult{}, err
	}

	switch action.Decision {
	case contractx.ResumeApprove:
		err = s.executeResumed(ctx, st, consumed, consumed.Args, false)
	case contractx.ResumeEdit:
		err = s.executeResumed(ctx, st, consumed, action.Args, true)
	case contractx.ResumeReject:
		declined := contractx.ToolResult{
			Tool:  consumed.Tool,
			Error: fmt.Sprintf("User declined to execute tool %s.", consumed.Tool),
		}
		err = s.persist(ctx, st, toolResultMessage(consumed.CallID, declined, s.now()))
	}
	if err != nil {
		return TurnResult{}, err
	}

	// Queued non-sensitive calls from the same batch run without approval;
	// they only waited for ordering.
	for st.Pending != nil && !s.sensitive.IsSensitive(st.Pending.Action.Tool) {
		next, err := st.ConsumePending(st.Pending.Token, s.newToken(), s.now())
		if err != nil {
			return TurnResult{}, err
		}
		if err := s.store.Save(ctx, st); err != nil {
			return TurnResult{}, err
		}
		if err := s.executeResumed(ctx, st, next, next.Args, false); err != nil {
			return TurnResult{}, err
		}
	}

	if st.Pending != nil {
		s.notify(ctx, st.SessionID, st.Pending)
		return TurnResult{
			Response:     ExtractFinalResponse(st.Messages),
			Interruption: interruptionFrom(st.Pending),
		}, nil
	}

	// Let the suspended agent react to the tool result before the router
	// takes over again.
	if agent, ok := s.registry.Agent(consumed.AgentName); ok {
		res, suspended, err := s.runAgent(ctx, st, agent, sink)
		if err != nil {
			return TurnResult{}, err
		}
		if suspended {
			return res, nil
		}
	}
	return s.runLoop(ctx, st, consumed.AgentName, sink)
}

// Clear deletes the session. Clearing an unknown session is not an error.
func (s *Supervisor) Clear(ctx context.Context, sessionID string) error {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return fmt.Errorf("%w: session_id is required", contractx.ErrValidation)
	}

	unlock := s.locks.lock(sessionID)
	defer unlock()

	return s.store.Clear(ctx, sessionID)
}

// History returns at most limit transcript messages, most recent last.
func (s *Supervisor) History(ctx context.Context, sessionID string, limit int) ([]contractx.Message, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil, fmt.Errorf("%w: session_id is required", contractx.ErrValidation)
	}
	if limit <= 0 {
		limit = 50
	}
	return s.store.Recent(ctx, sessionID, limit)
}

func (s *Supervisor) runLoop(ctx context.Context, st *statex.Session, lastAgent string, sink Sink) (TurnResult, error) {
	router := s.registry.Router()

	for handoffs := 0; ; handoffs++ {
		if handoffs >= s.maxHandoffs {
			return TurnResult{}, fmt.Errorf("%w: %d handoffs in one turn", contractx.ErrRoutingLoop, handoffs)
		}

		decision, err := router.Route(ctx, st.Recent(s.historyLimit), lastAgent)
		if err != nil {
			return TurnResult{}, err
		}

		if decision.Kind == contractx.RouteTerminate {
			if final := strings.TrimSpace(decision.Final); final != "" {
				msg := contractx.Message{
					Role:      contractx.RoleAI,
					Content:   final,
					CreatedAt: s.now(),
				}
				if err := s.persist(ctx, st, msg); err != nil {
					return TurnResult{}, err
				}
				s.emit(sink, final)
			}
			return TurnResult{Response: ExtractFinalResponse(st.Messages)}, nil
		}

		agent, ok := s.registry.Agent(decision.Agent)
		if !ok {
			return TurnResult{}, fmt.Errorf("%w: router chose unknown agent %q", contractx.ErrSchemaViolation, decision.Agent)
		}

		res, suspended, err := s.runAgent(ctx, st, agent, sink)
		if err != nil {
			return TurnResult{}, err
		}
		if suspended {
			return res, nil
		}

		lastAgent = agent.Descriptor().Name
	}
}

// runAgent drives one agent until it replies without tool calls, or until a
// sensitive call suspends the turn.
func (s *Supervisor) runAgent(ctx context.Context, st *statex.Session, agent contractx.Agent, sink Sink) (TurnResult, bool, error) {
	name := agent.Descriptor().Name

	for step := 0; step < maxAgentSteps; step++ {
		msg, err := agent.Next(ctx, st.Recent(s.historyLimit))
		if err != nil {
			return TurnResult{}, false, err
		}
		if err := s.persist(ctx, st, msg); err != nil {
			return TurnResult{}, false, err
		}
		if content := strings.TrimSpace(msg.Content); content != "" && !IsHandoffArtifact(content) {
			s.emit(sink, content)
		}

		if !msg.HasToolCalls() {
			return TurnResult{}, false, nil
		}

		suspendAt := -1
		for i, call := range msg.ToolCalls {
			if s.sensitive.IsSensitive(call.Name) {
				suspendAt = i
				break
			}
			if err := s.runTool(ctx, st, call); err != nil {
				return TurnResult{}, false, err
			}
		}
		if suspendAt >= 0 {
			res, err := s.suspend(ctx, st, name, msg.ToolCalls, suspendAt)
			if err != nil {
				return TurnResult{}, false, err
			}
			return res, true, nil
		}
	}

	return TurnResult{}, false, fmt.Errorf("%w: agent=%s exceeded %d tool steps", contractx.ErrRoutingLoop, name, maxAgentSteps)
}

// runTool executes one non-sensitive call. Invalid arguments from the model
// are recoverable: they become a tool error result the model can react to.
func (s *Supervisor) runTool(ctx context.Context, st *statex.Session, call contractx.ToolCallIntent) error {
	result, err := s.executor.Execute(ctx, call.Name, call.Arguments)
	if err != nil {
		var vErr *contractx.ValidationError
		if !errors.As(err, &vErr) {
			return err
		}
		result = contractx.ToolResult{Tool: call.Name, Error: vErr.Error()}
	}
	return s.persist(ctx, st, toolResultMessage(call.ID, result, s.now()))
}

// executeResumed runs a previously suspended action. With strict set (edited
// arguments), validation failures propagate to the caller; otherwise they
// fold into the tool result like any model-initiated call.
func (s *Supervisor) executeResumed(ctx context.Context, st *statex.Session, action statex.PendingAction, args map[string]any, strict bool) error {
	result, err := s.executor.Execute(ctx, action.Tool, args)
	if err != nil {
		var vErr *contractx.ValidationError
		if strict || !errors.As(err, &vErr) {
			return err
		}
		result = contractx.ToolResult{Tool: action.Tool, Error: vErr.Error()}
	}
	return s.persist(ctx, st, toolResultMessage(action.CallID, result, s.now()))
}

func (s *Supervisor) suspend(ctx context.Context, st *statex.Session, agentName string, calls []contractx.ToolCallIntent, idx int) (TurnResult, error) {
	head := pendingActionFrom(agentName, calls[idx])

	queue := make([]statex.PendingAction, 0, len(calls)-idx-1)
	for _, call := range calls[idx+1:] {
		queue = append(queue, pendingActionFrom(agentName, call))
	}

	p := &statex.PendingInterrupt{
		Token:     s.newToken(),
		Action:    head,
		Queue:     queue,
		CreatedAt: s.now().UTC(),
	}
	if err := st.Suspend(p); err != nil {
		return TurnResult{}, err
	}
	if err := s.store.Save(ctx, st); err != nil {
		return TurnResult{}, err
	}

	s.notify(ctx, st.SessionID, p)

	return TurnResult{
		Response:     ExtractFinalResponse(st.Messages),
		Interruption: interruptionFrom(p),
	}, nil
}

func (s *Supervisor) persist(ctx context.Context, st *statex.Session, msg contractx.Message) error {
	if err := st.Append(msg); err != nil {
		return err
	}
	return s.store.Save(ctx, st)
}

func (s *Supervisor) emit(sink Sink, content string) {
	if sink != nil {
		sink(content)
	}
}

func (s *Supervisor) notify(ctx context.Context, sessionID string, p *statex.PendingInterrupt) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.NotifyInterrupt(ctx, sessionID, p.Token, p.Action.Tool, p.Action.Description); err != nil {
		log.Warn().
			Err(err).
			Str("session_id", sessionID).
			Str("tool", p.Action.Tool).
			Msg("interrupt notification failed")
	}
}

func pendingActionFrom(agentName string, call contractx.ToolCallIntent) statex.PendingAction {
	return statex.PendingAction{
		Tool:        call.Name,
		Args:        call.Arguments,
		Description: toolx.ApprovalDescription(call.Name, call.Arguments),
		AgentName:   agentName,
		CallID:      call.ID,
	}
}

func interruptionFrom(p *statex.PendingInterrupt) *Interruption {
	return &Interruption{
		Type:    InterruptionTypeApproval,
		Message: p.Action.Description,
		Args:    p.Action.Args,
		Token:   p.Token,
	}
}

func toolResultMessage(callID string, result contractx.ToolResult, now time.Time) contractx.Message {
	return contractx.Message{
		Role:       contractx.RoleTool,
		Content:    encodeToolResult(result),
		ToolCallID: callID,
		ToolName:   result.Tool,
		CreatedAt:  now,
	}
}

func encodeToolResult(result contractx.ToolResult) string {
	if result.Error != "" {
		raw, err := json.Marshal(map[string]string{"error": result.Error})
		if err == nil {
			return string(raw)
		}
		return result.Error
	}
	if result.Result == nil {
		return `{"status":"ok"}`
	}
	raw, err := json.Marshal(result.Result)
	if err != nil {
		return fmt.Sprintf("%v", result.Result)
	}
	return string(raw)
}
