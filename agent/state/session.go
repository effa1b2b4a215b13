package state

import (
	"errors"
	"fmt"
	"time"

	contractx "github.com/merchantkit/assistant/agent/contract"
)

var (
	ErrNilSession       = errors.New("session is nil")
	ErrNoPending        = errors.New("no pending interrupt")
	ErrPendingExists    = errors.New("pending interrupt already outstanding")
	ErrTokenMismatch    = errors.New("continuation token does not match pending interrupt")
	ErrEmptyMessage     = errors.New("message content and tool calls are both empty")
	ErrVersionConflict  = errors.New("session version conflict")
	ErrInvalidSessionID = errors.New("session id is empty")
)

// PendingAction describes one intercepted sensitive tool call.
type PendingAction struct {
	Tool        string         `json:"tool"`
	Args        map[string]any `json:"args,omitempty"`
	Description string         `json:"description"`
	AgentName   string         `json:"agent_name"`
	CallID      string         `json:"call_id,omitempty"`
}

// PendingInterrupt is the suspended execution point of a session.
// Token is the opaque continuation token handed to the external approver;
// Queue holds further sensitive calls from the same turn that must wait
// behind the head action. The struct is serialized with the session, so a
// resume works across process restarts.
type PendingInterrupt struct {
	Token     string          `json:"token"`
	Action    PendingAction   `json:"action"`
	Queue     []PendingAction `json:"queue,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

// Session is the durable unit of conversation state keyed by an external
// identifier. Messages is an append-only log. Version implements optimistic
// concurrency: Save must fail when the stored version moved on.
type Session struct {
	SessionID string              `json:"session_id"`
	Messages  []contractx.Message `json:"messages,omitempty"`
	Pending   *PendingInterrupt   `json:"pending,omitempty"`
	Version   int64               `json:"version"`
	CreatedAt time.Time           `json:"created_at"`
	UpdatedAt time.Time           `json:"updated_at"`
}

func NewSession(sessionID string, now time.Time) *Session {
	return &Session{
		SessionID: sessionID,
		Version:   0,
		CreatedAt: now.UTC(),
		UpdatedAt: now.UTC(),
	}
}

func (s *Session) Touch(now time.Time) {
	s.UpdatedAt = now.UTC()
}

// Append adds a message to the log. Messages are immutable once appended.
func (s *Session) Append(msg contractx.Message) error {
	if s == nil {
		return ErrNilSession
	}
	if msg.Content == "" && len(msg.ToolCalls) == 0 {
		return ErrEmptyMessage
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}
	s.Messages = append(s.Messages, msg)
	return nil
}

// Recent returns at most limit messages, most recent last. The result is
// always a suffix of the full append-ordered log.
func (s *Session) Recent(limit int) []contractx.Message {
	if s == nil || limit <= 0 {
		return nil
	}
	if limit >= len(s.Messages) {
		return append([]contractx.Message(nil), s.Messages...)
	}
	return append([]contractx.Message(nil), s.Messages[len(s.Messages)-limit:]...)
}

// Interrupted reports whether the session is suspended awaiting approval.
// An interrupted session accepts only resume operations.
func (s *Session) Interrupted() bool {
	return s != nil && s.Pending != nil
}

// Suspend records a new pending interrupt. At most one may be outstanding:
// callers must queue follow-up sensitive actions via the interrupt itself.
func (s *Session) Suspend(p *PendingInterrupt) error {
	if s == nil {
		return ErrNilSession
	}
	if s.Pending != nil {
		return ErrPendingExists
	}
	if p == nil || p.Token == "" {
		return fmt.Errorf("%w: interrupt token is empty", contractx.ErrValidation)
	}
	s.Pending = p
	return nil
}

// ConsumePending validates the continuation token and removes the head
// pending action, promoting the next queued action (if any) to a fresh
// interrupt with the supplied token. It returns the consumed action.
// A mismatched token wraps ErrTokenMismatch and leaves the session unchanged.
func (s *Session) ConsumePending(token, nextToken string, now time.Time) (PendingAction, error) {
	if s == nil {
		return PendingAction{}, ErrNilSession
	}
	if s.Pending == nil {
		return PendingAction{}, ErrNoPending
	}
	if token != s.Pending.Token {
		return PendingAction{}, fmt.Errorf("%w: got token=%s", ErrTokenMismatch, token)
	}

	action := s.Pending.Action
	queue := s.Pending.Queue
	if len(queue) > 0 {
		s.Pending = &PendingInterrupt{
			Token:     nextToken,
			Action:    queue[0],
			Queue:     queue[1:],
			CreatedAt: now.UTC(),
		}
	} else {
		s.Pending = nil
	}
	s.Touch(now)
	return action, nil
}

func (s *Session) Validate() error {
	if s == nil {
		return ErrNilSession
	}
	if s.SessionID == "" {
		return ErrInvalidSessionID
	}
	if s.Pending != nil {
		if s.Pending.Token == "" {
			return fmt.Errorf("%w: pending interrupt has empty token", contractx.ErrValidation)
		}
		if s.Pending.Action.Tool == "" {
			return fmt.Errorf("%w: pending interrupt has empty tool", contractx.ErrValidation)
		}
	}
	return nil
}

// Clone returns a deep-enough copy for store implementations that must not
// alias caller-held state.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	cp := *s
	cp.Messages = append([]contractx.Message(nil), s.Messages...)
	if s.Pending != nil {
		p := *s.Pending
		p.Queue = append([]PendingAction(nil), s.Pending.Queue...)
		cp.Pending = &p
	}
	return &cp
}
