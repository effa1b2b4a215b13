package contract

import "context"

// Agent produces exactly one next message given the conversation so far.
// The returned message either answers directly or carries tool-call intents.
type Agent interface {
	Descriptor() AgentDescriptor
	Next(ctx context.Context, history []Message) (Message, error)
}

// Router selects the next agent for the running conversation, or signals
// that the turn is finished. An LLM-backed classifier in production,
// logically just a function over the history.
type Router interface {
	Route(ctx context.Context, history []Message, lastAgent string) (RoutingDecision, error)
}

// ToolExecutor runs a validated tool call against the commerce backend.
type ToolExecutor interface {
	Execute(ctx context.Context, tool string, args map[string]any) (ToolResult, error)
}

// InterruptNotifier is told when a workflow suspends awaiting approval.
// Implementations must be best-effort: the supervisor logs a returned
// error and continues, so delivery failure never fails the turn.
type InterruptNotifier interface {
	NotifyInterrupt(ctx context.Context, sessionID, token, tool, description string) error
}
