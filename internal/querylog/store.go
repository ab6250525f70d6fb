package querylog

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/desarrollo032/airtable-mcp/internal/db"
	"github.com/desarrollo032/airtable-mcp/internal/nlp"
)

// Store persists query log entries.
type Store struct {
	db *db.DB
}

// NewStore creates a Store backed by the given database.
func NewStore(database *db.DB) *Store {
	return &Store{db: database}
}

// Log inserts a new entry. If entry.ID is empty a UUID is generated; a zero
// Timestamp means now.
func (s *Store) Log(ctx context.Context, entry Entry) error {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO query_log (
			id, timestamp, session_key, query, intent, confidence,
			success, fallback, clarification, message, duration_ms
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID,
		entry.Timestamp.UTC().Format(time.DateTime),
		entry.SessionKey,
		entry.Query,
		string(entry.Intent),
		entry.Confidence,
		boolInt(entry.Success),
		boolInt(entry.Fallback),
		boolInt(entry.Clarification),
		entry.Message,
		entry.DurationMS,
	)
	if err != nil {
		return fmt.Errorf("inserting query log entry: %w", err)
	}
	return nil
}

// Filter controls which entries are returned by Query.
type Filter struct {
	SessionKey string
	Intent     nlp.IntentType
	Failed     bool // only unsuccessful queries
	Since      *time.Time
	Limit      int
	Offset     int
}

// Query returns entries matching the filter, newest first.
func (s *Store) Query(ctx context.Context, filter Filter) ([]Entry, error) {
	var (
		clauses []string
		args    []any
	)

	if filter.SessionKey != "" {
		clauses = append(clauses, "session_key = ?")
		args = append(args, filter.SessionKey)
	}
	if filter.Intent != "" {
		clauses = append(clauses, "intent = ?")
		args = append(args, string(filter.Intent))
	}
	if filter.Failed {
		clauses = append(clauses, "success = 0")
	}
	if filter.Since != nil {
		clauses = append(clauses, "timestamp >= ?")
		args = append(args, filter.Since.UTC().Format(time.DateTime))
	}

	query := "SELECT id, timestamp, session_key, query, intent, confidence, success, fallback, clarification, message, duration_ms FROM query_log"
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY timestamp DESC, rowid DESC"

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	} else if filter.Offset > 0 {
		query += " LIMIT -1"
	}
	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET %d", filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying query log: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		e, err := scanInto(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *e)
	}
	return entries, rows.Err()
}

// IntentCount is the number of logged queries per intent.
type IntentCount struct {
	Intent nlp.IntentType `json:"intent"`
	Count  int            `json:"count"`
}

// CountByIntent aggregates the log by intent, most frequent first.
func (s *Store) CountByIntent(ctx context.Context) ([]IntentCount, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT intent, COUNT(*) AS n FROM query_log GROUP BY intent ORDER BY n DESC, intent")
	if err != nil {
		return nil, fmt.Errorf("counting intents: %w", err)
	}
	defer rows.Close()

	var out []IntentCount
	for rows.Next() {
		var (
			c      IntentCount
			intent string
		)
		if err := rows.Scan(&intent, &c.Count); err != nil {
			return nil, err
		}
		c.Intent = nlp.IntentType(intent)
		out = append(out, c)
	}
	return out, rows.Err()
}

// DeleteBefore removes all entries older than the given time.
// Returns the number of deleted rows.
func (s *Store) DeleteBefore(ctx context.Context, before time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM query_log WHERE timestamp < ?",
		before.UTC().Format(time.DateTime),
	)
	if err != nil {
		return 0, fmt.Errorf("deleting old query log entries: %w", err)
	}
	return res.RowsAffected()
}

func scanInto(rows *sql.Rows) (*Entry, error) {
	var (
		e                                Entry
		ts, intent                       string
		success, fallback, clarification int
	)

	err := rows.Scan(
		&e.ID, &ts, &e.SessionKey, &e.Query, &intent, &e.Confidence,
		&success, &fallback, &clarification, &e.Message, &e.DurationMS,
	)
	if err != nil {
		return nil, err
	}

	e.Intent = nlp.IntentType(intent)
	e.Success = success != 0
	e.Fallback = fallback != 0
	e.Clarification = clarification != 0

	if t, parseErr := time.Parse(time.DateTime, ts); parseErr == nil {
		e.Timestamp = t
	} else if t, parseErr := time.Parse(time.RFC3339, ts); parseErr == nil {
		e.Timestamp = t
	}

	return &e, nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
