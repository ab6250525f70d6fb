package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/desarrollo032/airtable-mcp/internal/nlp"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS nlp_contexts (
    session_key TEXT PRIMARY KEY,
    user_id TEXT NOT NULL DEFAULT 'anonymous',
    session_id TEXT NOT NULL,
    data JSONB NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// PostgresStore keeps contexts in a shared Postgres database so several
// gateway processes can serve the same sessions.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore connects to databaseURL and ensures the table exists.
func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("create nlp_contexts: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Close() {
	s.pool.Close()
}

func (s *PostgresStore) Get(ctx context.Context, key string) (*nlp.ConversationContext, bool, error) {
	var data []byte
	err := s.pool.QueryRow(ctx, `SELECT data FROM nlp_contexts WHERE session_key = $1`, key).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("query context %s: %w", key, err)
	}
	c, err := decode(data)
	if err != nil {
		return nil, false, err
	}
	return c, true, nil
}

func (s *PostgresStore) Put(ctx context.Context, key string, c *nlp.ConversationContext) error {
	data, err := encode(c)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO nlp_contexts (session_key, user_id, session_id, data, updated_at)
		VALUES ($1, $2, $3, $4, now())
		ON CONFLICT (session_key) DO UPDATE SET
			data = EXCLUDED.data,
			updated_at = EXCLUDED.updated_at`,
		key, c.UserID, c.SessionID, data,
	)
	if err != nil {
		return fmt.Errorf("save context %s: %w", key, err)
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, key string) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM nlp_contexts WHERE session_key = $1`, key); err != nil {
		return fmt.Errorf("delete context %s: %w", key, err)
	}
	return nil
}
