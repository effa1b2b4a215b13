package state

import (
	"context"
	"fmt"
	"sync"
	"time"

	contractx "github.com/merchantkit/assistant/agent/contract"
)

// MemoryStore keeps sessions in process memory. Used for development and
// tests; data does not survive restarts.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	ttl      time.Duration
	now      func() time.Time
}

type MemoryOption func(*MemoryStore)

func WithMemoryTTL(ttl time.Duration) MemoryOption {
	return func(s *MemoryStore) {
		s.ttl = ttl
	}
}

func WithMemoryClock(now func() time.Time) MemoryOption {
	return func(s *MemoryStore) {
		if now != nil {
			s.now = now
		}
	}
}

func NewMemoryStore(opts ...MemoryOption) *MemoryStore {
	s := &MemoryStore{
		sessions: make(map[string]*Session),
		now:      time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

func (s *MemoryStore) Load(ctx context.Context, sessionID string) (*Session, error) {
	if sessionID == "" {
		return nil, ErrInvalidSessionID
	}
	s.mu.RLock()
	st, ok := s.sessions[sessionID]
	s.mu.RUnlock()
	if !ok || s.expired(st) {
		return NewSession(sessionID, s.now()), nil
	}
	return st.Clone(), nil
}

func (s *MemoryStore) Save(ctx context.Context, st *Session) error {
	if st == nil {
		return ErrNilSession
	}
	if err := st.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if cur, ok := s.sessions[st.SessionID]; ok && !s.expired(cur) && cur.Version != st.Version {
		return fmt.Errorf("%w: have=%d want=%d", ErrVersionConflict, cur.Version, st.Version)
	}

	cp := st.Clone()
	cp.Version++
	cp.Touch(s.now())
	s.sessions[st.SessionID] = cp
	st.Version = cp.Version
	return nil
}

func (s *MemoryStore) Append(ctx context.Context, sessionID string, msg contractx.Message) error {
	st, err := s.Load(ctx, sessionID)
	if err != nil {
		return err
	}
	if err := st.Append(msg); err != nil {
		return err
	}
	return s.Save(ctx, st)
}

// Clear is idempotent: clearing an unknown session is not an error.
func (s *MemoryStore) Clear(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return ErrInvalidSessionID
	}
	s.mu.Lock()
	delete(s.sessions, sessionID)
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Recent(ctx context.Context, sessionID string, limit int) ([]contractx.Message, error) {
	st, err := s.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return st.Recent(limit), nil
}

// PurgeExpired evicts sessions older than the configured TTL.
// A zero TTL disables expiry.
func (s *MemoryStore) PurgeExpired() int {
	if s.ttl <= 0 {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	purged := 0
	for id, st := range s.sessions {
		if s.expired(st) {
			delete(s.sessions, id)
			purged++
		}
	}
	return purged
}

func (s *MemoryStore) expired(st *Session) bool {
	return s.ttl > 0 && s.now().Sub(st.UpdatedAt) > s.ttl
}
