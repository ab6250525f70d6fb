package querylog

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/desarrollo032/airtable-mcp/internal/db"
	"github.com/desarrollo032/airtable-mcp/internal/nlp"
)

func setupStore(t *testing.T) *Store {
	t.Helper()
	database, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	return NewStore(database)
}

var base = time.Date(2024, time.January, 31, 10, 0, 0, 0, time.UTC)

func TestLogAndQuery(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	entry := Entry{
		ID:            "q-1",
		Timestamp:     base,
		SessionKey:    "u1:s1",
		Query:         "listar registros de Tasks",
		Intent:        nlp.IntentListRecords,
		Confidence:    0.8,
		Success:       true,
		Clarification: false,
		Message:       "Encontré 3 registros.",
		DurationMS:    12,
	}
	if err := store.Log(ctx, entry); err != nil {
		t.Fatalf("Log: %v", err)
	}

	got, err := store.Query(ctx, Filter{})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(got))
	}
	e := got[0]
	if e.ID != "q-1" || e.SessionKey != "u1:s1" || e.Intent != nlp.IntentListRecords {
		t.Errorf("unexpected entry %+v", e)
	}
	if !e.Success || e.Fallback || e.Clarification {
		t.Errorf("flags not preserved: %+v", e)
	}
	if e.Confidence != 0.8 {
		t.Errorf("Confidence = %v, want 0.8", e.Confidence)
	}
	if e.DurationMS != 12 {
		t.Errorf("DurationMS = %d, want 12", e.DurationMS)
	}
	if !e.Timestamp.Equal(base) {
		t.Errorf("Timestamp = %v, want %v", e.Timestamp, base)
	}
}

func TestLogGeneratesUUID(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	if err := store.Log(ctx, Entry{SessionKey: "anonymous:s", Query: "hola", Intent: nlp.IntentUnknown}); err != nil {
		t.Fatalf("Log: %v", err)
	}
	got, err := store.Query(ctx, Filter{})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(got) != 1 || len(got[0].ID) != 36 {
		t.Fatalf("expected one entry with a UUID, got %+v", got)
	}
	if got[0].Timestamp.IsZero() {
		t.Error("expected a timestamp to be set")
	}
}

func seed(t *testing.T, store *Store) {
	t.Helper()
	entries := []Entry{
		{SessionKey: "a:1", Intent: nlp.IntentListBases, Success: true, Timestamp: base},
		{SessionKey: "a:1", Intent: nlp.IntentListRecords, Success: true, Timestamp: base.Add(time.Minute)},
		{SessionKey: "b:1", Intent: nlp.IntentListRecords, Success: false, Timestamp: base.Add(2 * time.Minute)},
		{SessionKey: "b:1", Intent: nlp.IntentUnknown, Fallback: true, Timestamp: base.Add(3 * time.Minute)},
	}
	for _, e := range entries {
		e.Query = "q"
		if err := store.Log(context.Background(), e); err != nil {
			t.Fatalf("Log: %v", err)
		}
	}
}

func TestQueryFilters(t *testing.T) {
	store := setupStore(t)
	seed(t, store)
	ctx := context.Background()
	since := base.Add(90 * time.Second)

	tests := []struct {
		name   string
		filter Filter
		want   int
	}{
		{"all", Filter{}, 4},
		{"session", Filter{SessionKey: "a:1"}, 2},
		{"intent", Filter{Intent: nlp.IntentListRecords}, 2},
		{"failed", Filter{Failed: true}, 2},
		{"since", Filter{Since: &since}, 2},
		{"limit", Filter{Limit: 3}, 3},
		{"offset", Filter{Offset: 3}, 1},
	}
	for _, tt := range tests {
		got, err := store.Query(ctx, tt.filter)
		if err != nil {
			t.Fatalf("%s: Query: %v", tt.name, err)
		}
		if len(got) != tt.want {
			t.Errorf("%s: got %d entries, want %d", tt.name, len(got), tt.want)
		}
	}

	newest, _ := store.Query(ctx, Filter{Limit: 1})
	if newest[0].Intent != nlp.IntentUnknown {
		t.Errorf("expected newest first, got %s", newest[0].Intent)
	}
}

func TestCountByIntent(t *testing.T) {
	store := setupStore(t)
	seed(t, store)

	counts, err := store.CountByIntent(context.Background())
	if err != nil {
		t.Fatalf("CountByIntent: %v", err)
	}
	if len(counts) != 3 {
		t.Fatalf("expected 3 intents, got %v", counts)
	}
	if counts[0].Intent != nlp.IntentListRecords || counts[0].Count != 2 {
		t.Errorf("expected list_records first with 2, got %+v", counts[0])
	}
}

func TestDeleteBefore(t *testing.T) {
	store := setupStore(t)
	seed(t, store)
	ctx := context.Background()

	n, err := store.DeleteBefore(ctx, base.Add(2*time.Minute))
	if err != nil {
		t.Fatalf("DeleteBefore: %v", err)
	}
	if n != 2 {
		t.Errorf("deleted %d rows, want 2", n)
	}
	rest, _ := store.Query(ctx, Filter{})
	if len(rest) != 2 {
		t.Errorf("remaining %d rows, want 2", len(rest))
	}
}

func setupRouter(t *testing.T) (chi.Router, *Store) {
	t.Helper()
	store := setupStore(t)
	r := chi.NewRouter()
	RegisterRoutes(r, store)
	return r, store
}

func TestHTTPHistory(t *testing.T) {
	r, store := setupRouter(t)
	seed(t, store)

	req := httptest.NewRequest(http.MethodGet, "/api/nlp/history?session=b:1&limit=10", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	var entries []Entry
	if err := json.NewDecoder(rec.Body).Decode(&entries); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(entries) != 2 {
		t.Errorf("expected 2 entries for b:1, got %d", len(entries))
	}
}

func TestHTTPHistoryEmpty(t *testing.T) {
	r, _ := setupRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/nlp/history", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if body := rec.Body.String(); body != "[]\n" {
		t.Errorf("body = %q, want empty JSON array", body)
	}
}

func TestHTTPIntents(t *testing.T) {
	r, store := setupRouter(t)
	seed(t, store)

	req := httptest.NewRequest(http.MethodGet, "/api/nlp/history/intents", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	var counts []IntentCount
	if err := json.NewDecoder(rec.Body).Decode(&counts); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(counts) != 3 {
		t.Errorf("expected 3 intent counts, got %d", len(counts))
	}
}
