package nlp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func newHandler(max int) (*ContextHandler, *MemoryStore) {
	store := NewMemoryStore()
	return NewContextHandler(store, max, quietLogger()), store
}

func TestSessionKey(t *testing.T) {
	assert.Equal(t, "u1:s1", Session{UserID: "u1", SessionID: "s1"}.Key())
	assert.Equal(t, "anonymous:s1", Session{SessionID: "s1"}.Key())
}

func TestGetContextCreatesLazily(t *testing.T) {
	h, store := newHandler(10)
	ctx := context.Background()
	s := Session{UserID: "u1", SessionID: "s1"}

	c := h.GetContext(ctx, s)
	assert.Equal(t, "s1", c.SessionID)
	assert.Equal(t, "u1", c.UserID)
	assert.Equal(t, "es", c.Preferences.Language)
	assert.Equal(t, 1, store.Len())

	// Returned contexts are copies.
	c.CurrentTable = "Mutated"
	assert.Empty(t, h.GetContext(ctx, s).CurrentTable)
}

func TestReferenceRoundTrip(t *testing.T) {
	h, _ := newHandler(10)
	ctx := context.Background()
	s := Session{SessionID: "s1"}

	h.SetCurrentTable(ctx, s, "Tasks")
	ref := h.ResolveReference(ctx, s, "esa tabla", ReferenceTable)

	assert.True(t, ref.Resolved)
	assert.Equal(t, "Tasks", ref.Reference)
	assert.InDelta(t, 0.9, ref.Confidence, 1e-9)
	assert.Equal(t, []string{"Tasks"}, ref.Alternatives)

	// Case and spacing do not matter.
	ref = h.ResolveReference(ctx, s, "  Esa   Tabla ", ReferenceTable)
	assert.True(t, ref.Resolved)
}

func TestTableReferenceHistoryFallback(t *testing.T) {
	h, _ := newHandler(10)
	ctx := context.Background()
	s := Session{SessionID: "s1"}

	h.SetCurrentTable(ctx, s, "Tasks")
	ref := h.ResolveReference(ctx, s, "ella", ReferenceTable)
	assert.False(t, ref.Resolved, "no history yet")

	h.UpdateContext(ctx, s, ContextUpdate{Query: "listar registros de Tasks", Intent: IntentListRecords})
	ref = h.ResolveReference(ctx, s, "ella", ReferenceTable)
	assert.True(t, ref.Resolved)
	assert.Equal(t, "Tasks", ref.Reference)
	assert.InDelta(t, 0.7, ref.Confidence, 1e-9)
}

func TestRecordAndBaseReferences(t *testing.T) {
	h, _ := newHandler(10)
	ctx := context.Background()
	s := Session{SessionID: "s1"}

	h.SetCurrentRecord(ctx, s, "recABC")
	h.SetCurrentBase(ctx, s, "appXYZ")

	rec := h.ResolveReference(ctx, s, "ese registro", ReferenceRecord)
	assert.True(t, rec.Resolved)
	assert.Equal(t, "recABC", rec.Reference)
	assert.InDelta(t, 0.9, rec.Confidence, 1e-9)

	base := h.ResolveReference(ctx, s, "esta base", ReferenceBase)
	assert.True(t, base.Resolved)
	assert.Equal(t, "appXYZ", base.Reference)

	// Records and bases have no history fallback.
	h.UpdateContext(ctx, s, ContextUpdate{Query: "algo"})
	miss := h.ResolveReference(ctx, s, "aquel", ReferenceRecord)
	assert.False(t, miss.Resolved)
	assert.Zero(t, miss.Confidence)
	assert.Equal(t, []string{"recABC"}, miss.Alternatives)

	miss = h.ResolveReference(ctx, s, "aquella", ReferenceBase)
	assert.Equal(t, []string{"appXYZ"}, miss.Alternatives)
}

func TestUnresolvedReferences(t *testing.T) {
	h, store := newHandler(10)
	ctx := context.Background()
	s := Session{SessionID: "s1"}

	ref := h.ResolveReference(ctx, s, "esa tabla", ReferenceTable)
	assert.False(t, ref.Resolved)
	assert.Equal(t, "esa tabla", ref.Reference)
	assert.Zero(t, ref.Confidence)
	assert.Empty(t, ref.Alternatives)

	c := NewConversationContext("s1", AnonymousUser)
	c.MentionedEntities.Tables = []string{"Tasks", "Projects"}
	c.MentionedEntities.Fields = []string{"Estado"}
	require.NoError(t, store.Put(ctx, s.Key(), c))

	ref = h.ResolveReference(ctx, s, "esa tabla", ReferenceTable)
	assert.False(t, ref.Resolved)
	assert.Equal(t, []string{"Tasks", "Projects"}, ref.Alternatives)

	ref = h.ResolveReference(ctx, s, "ese campo", ReferenceField)
	assert.Equal(t, []string{"Estado"}, ref.Alternatives)
}

func TestUpdateContextBoundsHistory(t *testing.T) {
	h, _ := newHandler(3)
	ctx := context.Background()
	s := Session{SessionID: "s1"}

	for i := 0; i < 5; i++ {
		h.UpdateContext(ctx, s, ContextUpdate{Query: fmt.Sprintf("q%d", i), Intent: IntentListBases})
	}

	hist := h.GetContextHistory(ctx, s)
	require.Len(t, hist, 3)
	assert.Equal(t, "q2", hist[0].Query)
	assert.Equal(t, "q4", hist[2].Query)
	assert.False(t, hist[0].Timestamp.IsZero())
}

func TestMentionsOnlyGrow(t *testing.T) {
	h, _ := newHandler(2)
	ctx := context.Background()
	s := Session{SessionID: "s1"}

	var prev int
	for _, table := range []string{"A", "B", "A", "C", "B", "D"} {
		h.UpdateContext(ctx, s, ContextUpdate{Query: "q", Entities: ExtractedEntities{TableName: table}})
		n := len(h.GetCurrentEntities(ctx, s).MentionedTables)
		assert.GreaterOrEqual(t, n, prev)
		prev = n
	}

	cur := h.GetCurrentEntities(ctx, s)
	assert.Equal(t, []string{"A", "B", "C", "D"}, cur.MentionedTables)
	assert.Equal(t, "D", cur.CurrentTable)

	h.ClearContext(ctx, s)
	assert.Empty(t, h.GetCurrentEntities(ctx, s).MentionedTables)
	assert.Empty(t, h.GetContextHistory(ctx, s))
}

func TestUpdateContextEntitiesAndLanguage(t *testing.T) {
	h, _ := newHandler(10)
	ctx := context.Background()
	s := Session{UserID: "u1", SessionID: "s1"}

	h.UpdateContext(ctx, s, ContextUpdate{
		Query:    "answer in english please",
		Entities: ExtractedEntities{RecordID: "rec1", FieldName: "Estado", BaseID: "app1"},
	})

	c := h.GetContext(ctx, s)
	assert.Equal(t, "en", c.Preferences.Language)
	assert.Equal(t, "rec1", c.CurrentRecordID)
	assert.Equal(t, "app1", c.CurrentBaseID)
	assert.Equal(t, []string{"Estado"}, c.MentionedEntities.Fields)

	h.UpdateContext(ctx, s, ContextUpdate{Query: "ahora en español"})
	assert.Equal(t, "es", h.GetContext(ctx, s).Preferences.Language)
}

func TestCanonicalKeyIsolatesUsers(t *testing.T) {
	h, _ := newHandler(10)
	ctx := context.Background()
	alice := Session{UserID: "alice", SessionID: "s1"}
	anon := Session{SessionID: "s1"}

	h.GetContext(ctx, alice)
	h.UpdateContext(ctx, alice, ContextUpdate{Query: "q", Entities: ExtractedEntities{TableName: "Tasks"}})

	assert.Len(t, h.GetContextHistory(ctx, alice), 1)
	assert.Empty(t, h.GetContextHistory(ctx, anon))

	ref := h.ResolveReference(ctx, alice, "esa tabla", ReferenceTable)
	assert.True(t, ref.Resolved)
	assert.False(t, h.ResolveReference(ctx, anon, "esa tabla", ReferenceTable).Resolved)
}

func TestRecentQueriesKeepsLastThree(t *testing.T) {
	h, _ := newHandler(10)
	ctx := context.Background()
	s := Session{SessionID: "s1"}
	for i := 0; i < 5; i++ {
		h.UpdateContext(ctx, s, ContextUpdate{Query: fmt.Sprintf("q%d", i)})
	}
	recent := h.GetCurrentEntities(ctx, s).RecentQueries
	require.Len(t, recent, 3)
	assert.Equal(t, "q2", recent[0].Query)
}

type failingStore struct{}

var errStoreDown = errors.New("store down")

func (failingStore) Get(context.Context, string) (*ConversationContext, bool, error) {
	return nil, false, errStoreDown
}
func (failingStore) Put(context.Context, string, *ConversationContext) error { return errStoreDown }
func (failingStore) Delete(context.Context, string) error                    { return errStoreDown }

func TestStoreFailuresAreAbsorbed(t *testing.T) {
	h := NewContextHandler(failingStore{}, 10, quietLogger())
	ctx := context.Background()
	s := Session{SessionID: "s1"}

	c := h.GetContext(ctx, s)
	require.NotNil(t, c)
	assert.Equal(t, "s1", c.SessionID)

	h.UpdateContext(ctx, s, ContextUpdate{Query: "q"})
	h.SetCurrentTable(ctx, s, "Tasks")
	h.ClearContext(ctx, s)

	assert.False(t, h.ResolveReference(ctx, s, "esa tabla", ReferenceTable).Resolved)
	assert.Empty(t, h.GetContextHistory(ctx, s))
}

func TestConcurrentUpdatesSameSession(t *testing.T) {
	h, _ := newHandler(100)
	ctx := context.Background()
	s := Session{SessionID: "shared"}

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			h.UpdateContext(ctx, s, ContextUpdate{
				Query:    fmt.Sprintf("q%d", i),
				Entities: ExtractedEntities{TableName: fmt.Sprintf("T%d", i)},
			})
		}(i)
	}
	wg.Wait()

	assert.Len(t, h.GetContextHistory(ctx, s), 50)
	assert.Len(t, h.GetCurrentEntities(ctx, s).MentionedTables, 50)
}

func TestDefaultLanguageAppliesToNewContexts(t *testing.T) {
	h, _ := newHandler(10)
	ctx := context.Background()

	h.GetContext(ctx, Session{SessionID: "before"})
	h.SetDefaultLanguage("en")

	assert.Equal(t, "en", h.GetContext(ctx, Session{SessionID: "after"}).Preferences.Language)
	assert.Equal(t, "es", h.GetContext(ctx, Session{SessionID: "before"}).Preferences.Language)
}

func TestSetLastResult(t *testing.T) {
	h, store := newHandler(10)
	ctx := context.Background()
	s := Session{SessionID: "s1"}

	h.SetLastResult(ctx, s, "ignored")
	assert.Zero(t, store.Len(), "no context is created for a missing session")

	h.UpdateContext(ctx, s, ContextUpdate{Query: "q0"})
	h.UpdateContext(ctx, s, ContextUpdate{Query: "q1"})
	h.SetLastResult(ctx, s, map[string]any{"success": true})

	hist := h.GetContextHistory(ctx, s)
	require.Len(t, hist, 2)
	assert.Nil(t, hist[0].Result)
	assert.Equal(t, map[string]any{"success": true}, hist[1].Result)
}

func TestMentionField(t *testing.T) {
	h, _ := newHandler(10)
	ctx := context.Background()
	s := Session{SessionID: "s1"}

	h.MentionField(ctx, s, "Estado")
	h.MentionField(ctx, s, "Estado")
	h.MentionField(ctx, s, "Prioridad")

	assert.Equal(t, []string{"Estado", "Prioridad"}, h.GetContext(ctx, s).MentionedEntities.Fields)
}
