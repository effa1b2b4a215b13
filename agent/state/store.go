package state

import (
	"context"
	"time"

	contractx "github.com/merchantkit/assistant/agent/contract"
)

// Store is the persistence contract used by the supervisor.
//
// Load creates an empty session when the identifier is unknown
// (at-least-once initialization, not an error). Clear is idempotent.
// Save enforces optimistic versioning: it fails with ErrVersionConflict
// when the stored version differs from the loaded one, then increments the
// version on success. Recent returns at most limit messages, most recent
// last, a suffix of the append-ordered log.
type Store interface {
	Load(ctx context.Context, sessionID string) (*Session, error)
	Save(ctx context.Context, st *Session) error
	Append(ctx context.Context, sessionID string, msg contractx.Message) error
	Clear(ctx context.Context, sessionID string) error
	Recent(ctx context.Context, sessionID string, limit int) ([]contractx.Message, error)
}

// Config selects and tunes the store backend.
type Config struct {
	Backend string        `split_words:"true" default:"memory"`
	TTL     time.Duration `split_words:"true" default:"0"`

	Redis    RedisConfig    `envconfig:"REDIS"`
	Postgres PostgresConfig `envconfig:"POSTGRES"`
}
