package state

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"

	contractx "github.com/merchantkit/assistant/agent/contract"
)

// PostgresConfig targets a Postgres chat history database.
type PostgresConfig struct {
	DSN     string        `split_words:"true"`
	Timeout time.Duration `split_words:"true" default:"10s"`
}

// SessionRecord is the per-conversation row. Messages live in their own
// table so appends stay cheap for long conversations.
type SessionRecord struct {
	bun.BaseModel `bun:"table:assistant_sessions"`

	SessionID string          `bun:"session_id,pk"`
	Pending   json.RawMessage `bun:"pending,type:jsonb,nullzero"`
	Version   int64           `bun:"version,notnull"`
	CreatedAt time.Time       `bun:"created_at,notnull"`
	UpdatedAt time.Time       `bun:"updated_at,notnull"`
}

type MessageRecord struct {
	bun.BaseModel `bun:"table:assistant_messages"`

	ID         int64           `bun:"id,pk,autoincrement"`
	SessionID  string          `bun:"session_id,notnull"`
	Role       string          `bun:"role,notnull"`
	AgentName  string          `bun:"agent_name,nullzero"`
	Content    string          `bun:"content"`
	ToolCalls  json.RawMessage `bun:"tool_calls,type:jsonb,nullzero"`
	ToolCallID string          `bun:"tool_call_id,nullzero"`
	ToolName   string          `bun:"tool_name,nullzero"`
	CreatedAt  time.Time       `bun:"created_at,notnull"`
}

// PostgresStore keeps sessions in two tables with an optimistic version
// column on the session row.
type PostgresStore struct {
	db  *bun.DB
	ttl time.Duration
}

type PostgresOption func(*PostgresStore)

func WithPostgresTTL(ttl time.Duration) PostgresOption {
	return func(s *PostgresStore) {
		s.ttl = ttl
	}
}

func NewPostgresStore(cfg PostgresConfig, opts ...PostgresOption) (*PostgresStore, error) {
	dsn := strings.TrimSpace(cfg.DSN)
	if dsn == "" {
		return nil, errors.New("postgres dsn is required")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	connector := pgdriver.NewConnector(
		pgdriver.WithDSN(dsn),
		pgdriver.WithTimeout(timeout),
	)
	sqldb := sql.OpenDB(connector)
	db := bun.NewDB(sqldb, pgdialect.New())

	store := &PostgresStore{db: db}
	for _, opt := range opts {
		if opt != nil {
			opt(store)
		}
	}
	return store, nil
}

// EnsureSchema creates both tables when absent. Call once at startup.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.NewCreateTable().
		Model((*SessionRecord)(nil)).
		IfNotExists().
		Exec(ctx); err != nil {
		return fmt.Errorf("create sessions table: %w", err)
	}
	if _, err := s.db.NewCreateTable().
		Model((*MessageRecord)(nil)).
		IfNotExists().
		Exec(ctx); err != nil {
		return fmt.Errorf("create messages table: %w", err)
	}
	if _, err := s.db.NewCreateIndex().
		Model((*MessageRecord)(nil)).
		Index("idx_assistant_messages_session").
		Column("session_id").
		IfNotExists().
		Exec(ctx); err != nil {
		return fmt.Errorf("create messages index: %w", err)
	}
	return nil
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}

func (s *PostgresStore) Load(ctx context.Context, sessionID string) (*Session, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, ErrInvalidSessionID
	}

	var rec SessionRecord
	err := s.db.NewSelect().
		Model(&rec).
		Where("session_id = ?", sessionID).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return NewSession(sessionID, time.Now()), nil
	}
	if err != nil {
		return nil, fmt.Errorf("load session row: %w", err)
	}

	var rows []MessageRecord
	if err := s.db.NewSelect().
		Model(&rows).
		Where("session_id = ?", sessionID).
		Order("id ASC").
		Scan(ctx); err != nil {
		return nil, fmt.Errorf("load message rows: %w", err)
	}

	return hydrateSession(&rec, rows)
}

func (s *PostgresStore) Save(ctx context.Context, st *Session) error {
	if st == nil {
		return ErrNilSession
	}
	if err := st.Validate(); err != nil {
		return err
	}

	pending, err := marshalPending(st.Pending)
	if err != nil {
		return err
	}

	now := time.Now()
	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if st.Version == 0 {
			rec := &SessionRecord{
				SessionID: st.SessionID,
				Pending:   pending,
				Version:   1,
				CreatedAt: st.CreatedAt,
				UpdatedAt: now,
			}
			res, err := tx.NewInsert().
				Model(rec).
				On("CONFLICT (session_id) DO NOTHING").
				Exec(ctx)
			if err != nil {
				return fmt.Errorf("insert session row: %w", err)
			}
			if n, _ := res.RowsAffected(); n == 0 {
				return fmt.Errorf("%w: session already exists", ErrVersionConflict)
			}
		} else {
			res, err := tx.NewUpdate().
				Model((*SessionRecord)(nil)).
				Set("pending = ?", pending).
				Set("version = version + 1").
				Set("updated_at = ?", now).
				Where("session_id = ?", st.SessionID).
				Where("version = ?", st.Version).
				Exec(ctx)
			if err != nil {
				return fmt.Errorf("update session row: %w", err)
			}
			if n, _ := res.RowsAffected(); n == 0 {
				return fmt.Errorf("%w: session %s at version %d", ErrVersionConflict, st.SessionID, st.Version)
			}
		}

		if err := syncMessages(ctx, tx, st); err != nil {
			return err
		}

		st.Version++
		st.Touch(now)
		return nil
	})
}

func (s *PostgresStore) Append(ctx context.Context, sessionID string, msg contractx.Message) error {
	st, err := s.Load(ctx, sessionID)
	if err != nil {
		return err
	}
	if err := st.Append(msg); err != nil {
		return err
	}
	return s.Save(ctx, st)
}

func (s *PostgresStore) Clear(ctx context.Context, sessionID string) error {
	if strings.TrimSpace(sessionID) == "" {
		return ErrInvalidSessionID
	}
	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewDelete().
			Model((*MessageRecord)(nil)).
			Where("session_id = ?", sessionID).
			Exec(ctx); err != nil {
			return fmt.Errorf("delete message rows: %w", err)
		}
		if _, err := tx.NewDelete().
			Model((*SessionRecord)(nil)).
			Where("session_id = ?", sessionID).
			Exec(ctx); err != nil {
			return fmt.Errorf("delete session row: %w", err)
		}
		return nil
	})
}

func (s *PostgresStore) Recent(ctx context.Context, sessionID string, limit int) ([]contractx.Message, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, ErrInvalidSessionID
	}
	if limit <= 0 {
		return nil, nil
	}

	var rows []MessageRecord
	if err := s.db.NewSelect().
		Model(&rows).
		Where("session_id = ?", sessionID).
		Order("id DESC").
		Limit(limit).
		Scan(ctx); err != nil {
		return nil, fmt.Errorf("load recent messages: %w", err)
	}

	out := make([]contractx.Message, 0, len(rows))
	for i := len(rows) - 1; i >= 0; i-- {
		msg, err := recordToMessage(&rows[i])
		if err != nil {
			return nil, err
		}
		out = append(out, msg)
	}
	return out, nil
}

// PurgeExpired removes sessions idle past the configured TTL.
func (s *PostgresStore) PurgeExpired(ctx context.Context) (int, error) {
	if s.ttl <= 0 {
		return 0, nil
	}
	cutoff := time.Now().Add(-s.ttl)

	var stale []string
	if err := s.db.NewSelect().
		Model((*SessionRecord)(nil)).
		Column("session_id").
		Where("updated_at < ?", cutoff).
		Scan(ctx, &stale); err != nil {
		return 0, fmt.Errorf("select expired sessions: %w", err)
	}
	if len(stale) == 0 {
		return 0, nil
	}

	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewDelete().
			Model((*MessageRecord)(nil)).
			Where("session_id IN (?)", bun.In(stale)).
			Exec(ctx); err != nil {
			return err
		}
		_, err := tx.NewDelete().
			Model((*SessionRecord)(nil)).
			Where("session_id IN (?)", bun.In(stale)).
			Exec(ctx)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("delete expired sessions: %w", err)
	}
	return len(stale), nil
}

// syncMessages appends rows for messages not yet persisted. Message rows
// are append-only so the delta is everything past the stored count.
func syncMessages(ctx context.Context, tx bun.Tx, st *Session) error {
	count, err := tx.NewSelect().
		Model((*MessageRecord)(nil)).
		Where("session_id = ?", st.SessionID).
		Count(ctx)
	if err != nil {
		return fmt.Errorf("count message rows: %w", err)
	}
	if count >= len(st.Messages) {
		return nil
	}

	rows := make([]MessageRecord, 0, len(st.Messages)-count)
	for _, msg := range st.Messages[count:] {
		rec, err := messageToRecord(st.SessionID, msg)
		if err != nil {
			return err
		}
		rows = append(rows, rec)
	}
	if _, err := tx.NewInsert().Model(&rows).Exec(ctx); err != nil {
		return fmt.Errorf("insert message rows: %w", err)
	}
	return nil
}

func hydrateSession(rec *SessionRecord, rows []MessageRecord) (*Session, error) {
	sess := &Session{
		SessionID: rec.SessionID,
		Version:   rec.Version,
		CreatedAt: rec.CreatedAt,
		UpdatedAt: rec.UpdatedAt,
	}

	if len(rec.Pending) > 0 {
		var pending PendingInterrupt
		if err := json.Unmarshal(rec.Pending, &pending); err != nil {
			return nil, fmt.Errorf("unmarshal pending interrupt: %w", err)
		}
		sess.Pending = &pending
	}

	sess.Messages = make([]contractx.Message, 0, len(rows))
	for i := range rows {
		msg, err := recordToMessage(&rows[i])
		if err != nil {
			return nil, err
		}
		sess.Messages = append(sess.Messages, msg)
	}
	return sess, nil
}

func marshalPending(p *PendingInterrupt) (json.RawMessage, error) {
	if p == nil {
		return nil, nil
	}
	raw, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("marshal pending interrupt: %w", err)
	}
	return raw, nil
}

func messageToRecord(sessionID string, msg contractx.Message) (MessageRecord, error) {
	rec := MessageRecord{
		SessionID:  sessionID,
		Role:       string(msg.Role),
		AgentName:  msg.AgentName,
		Content:    msg.Content,
		ToolCallID: msg.ToolCallID,
		ToolName:   msg.ToolName,
		CreatedAt:  msg.CreatedAt,
	}
	if len(msg.ToolCalls) > 0 {
		raw, err := json.Marshal(msg.ToolCalls)
		if err != nil {
			return MessageRecord{}, fmt.Errorf("marshal tool calls: %w", err)
		}
		rec.ToolCalls = raw
	}
	return rec, nil
}

func recordToMessage(rec *MessageRecord) (contractx.Message, error) {
	msg := contractx.Message{
		Role:       contractx.Role(rec.Role),
		AgentName:  rec.AgentName,
		Content:    rec.Content,
		ToolCallID: rec.ToolCallID,
		ToolName:   rec.ToolName,
		CreatedAt:  rec.CreatedAt,
	}
	if len(rec.ToolCalls) > 0 {
		if err := json.Unmarshal(rec.ToolCalls, &msg.ToolCalls); err != nil {
			return contractx.Message{}, fmt.Errorf("unmarshal tool calls: %w", err)
		}
	}
	return msg, nil
}
