package contract

import (
	"strings"
	"time"
)

// Role identifies the author class of a Message.
type Role string

const (
	RoleHuman  Role = "human"
	RoleAI     Role = "ai"
	RoleSystem Role = "system"
	RoleTool   Role = "tool"
)

// ToolCallIntent is the single normalized representation of a requested
// tool call. Both the native tool-call metadata and the legacy function-call
// field of model responses are folded into this shape at the parsing boundary.
type ToolCallIntent struct {
	ID        string         `json:"id,omitempty"`
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments,omitempty"`
}

// Message is one entry of a session transcript. Immutable once appended.
// AgentName is set only for AI messages produced by a named specialized
// agent (convention: names end in "_agent").
type Message struct {
	Role       Role             `json:"role"`
	AgentName  string           `json:"agent_name,omitempty"`
	Content    string           `json:"content"`
	ToolCalls  []ToolCallIntent `json:"tool_calls,omitempty"`
	ToolCallID string           `json:"tool_call_id,omitempty"`
	ToolName   string           `json:"tool_name,omitempty"`
	CreatedAt  time.Time        `json:"created_at"`
}

// HasToolCalls reports whether the message carries a pending tool-call intent.
func (m Message) HasToolCalls() bool {
	return len(m.ToolCalls) > 0
}

// Specialized agent names. The "_agent" suffix is load-bearing: transfer
// acknowledgements and routing targets are matched against these exact names.
const (
	AgentCustomer = "customer_agent"
	AgentProduct  = "product_agent"
	AgentStock    = "stock_agent"
	AgentShipment = "shipment_agent"
	AgentOrder    = "order_agent"
)

// AgentDescriptor is process-wide static agent configuration, loaded at
// startup and never mutated afterwards.
type AgentDescriptor struct {
	Name        string
	Specialized bool
	Tools       []string
	Prompt      string
}

// Owns reports whether the descriptor's capability set contains the tool.
func (d AgentDescriptor) Owns(tool string) bool {
	for _, t := range d.Tools {
		if t == tool {
			return true
		}
	}
	return false
}

// RoutingKind discriminates the supervisor's per-turn decision.
type RoutingKind string

const (
	RouteDelegate  RoutingKind = "delegate"
	RouteContinue  RoutingKind = "continue"
	RouteTerminate RoutingKind = "terminate"
)

// RoutingDecision is the supervisor's output for one iteration of the
// turn loop.
type RoutingDecision struct {
	Kind  RoutingKind
	Agent string // target agent name for delegate/continue
	Final string // final message content for terminate
}

// ResumeDecision is the human verdict supplied to resume a suspended turn.
type ResumeDecision string

const (
	ResumeApprove ResumeDecision = "approve"
	ResumeEdit    ResumeDecision = "edit"
	ResumeReject  ResumeDecision = "reject"
)

// ResumeAction carries the decision plus replacement arguments for edits.
type ResumeAction struct {
	Token    string         `json:"token"`
	Decision ResumeDecision `json:"decision"`
	Args     map[string]any `json:"args,omitempty"`
}

// Normalize lowercases and trims the decision so HTTP callers may send
// any casing.
func (a ResumeAction) Normalize() ResumeAction {
	a.Decision = ResumeDecision(strings.ToLower(strings.TrimSpace(string(a.Decision))))
	a.Token = strings.TrimSpace(a.Token)
	return a
}

// Valid reports whether the decision is one of approve/edit/reject.
func (a ResumeAction) Valid() bool {
	switch a.Decision {
	case ResumeApprove, ResumeEdit, ResumeReject:
		return true
	}
	return false
}

// ToolResult is the outcome of executing one tool call.
type ToolResult struct {
	Tool   string `json:"tool"`
	Result any    `json:"result,omitempty"`
	Error  string `json:"error,omitempty"`
}
