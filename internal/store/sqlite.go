package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/desarrollo032/airtable-mcp/internal/db"
	"github.com/desarrollo032/airtable-mcp/internal/nlp"
)

// SQLiteStore keeps contexts in the nlp_contexts table.
type SQLiteStore struct {
	db *db.DB
}

// NewSQLiteStore returns a store over database.
func NewSQLiteStore(database *db.DB) *SQLiteStore {
	return &SQLiteStore{db: database}
}

func (s *SQLiteStore) Get(ctx context.Context, key string) (*nlp.ConversationContext, bool, error) {
	var data string
	err := s.db.QueryRowContext(ctx, `SELECT data FROM nlp_contexts WHERE session_key = ?`, key).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("querying context %s: %w", key, err)
	}
	c, err := decode([]byte(data))
	if err != nil {
		return nil, false, err
	}
	return c, true, nil
}

func (s *SQLiteStore) Put(ctx context.Context, key string, c *nlp.ConversationContext) error {
	data, err := encode(c)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO nlp_contexts (session_key, user_id, session_id, data, updated_at)
		VALUES (?, ?, ?, ?, datetime('now'))
		ON CONFLICT(session_key) DO UPDATE SET
			data = excluded.data,
			updated_at = excluded.updated_at`,
		key, c.UserID, c.SessionID, string(data),
	)
	if err != nil {
		return fmt.Errorf("saving context %s: %w", key, err)
	}
	return nil
}

func (s *SQLiteStore) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM nlp_contexts WHERE session_key = ?`, key); err != nil {
		return fmt.Errorf("deleting context %s: %w", key, err)
	}
	return nil
}

// Count returns the number of stored sessions.
func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM nlp_contexts`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting contexts: %w", err)
	}
	return n, nil
}
