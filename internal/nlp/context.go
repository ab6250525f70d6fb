package nlp

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// AnonymousUser is the user id applied when a caller supplies none.
const AnonymousUser = "anonymous"

// Session identifies one conversation.
type Session struct {
	UserID    string
	SessionID string
}

// Key is the canonical store key "{user}:{session}".
func (s Session) Key() string {
	user := s.UserID
	if user == "" {
		user = AnonymousUser
	}
	return user + ":" + s.SessionID
}

func (s Session) user() string {
	if s.UserID == "" {
		return AnonymousUser
	}
	return s.UserID
}

// ContextUpdate is what the processor records after each query.
type ContextUpdate struct {
	Query     string
	Intent    IntentType
	Timestamp time.Time
	Result    any
	Entities  ExtractedEntities
}

// CurrentEntities is a read-only summary of a session's focus.
type CurrentEntities struct {
	CurrentTable     string          `json:"current_table,omitempty"`
	CurrentRecordID  string          `json:"current_record_id,omitempty"`
	CurrentBaseID    string          `json:"current_base_id,omitempty"`
	MentionedTables  []string        `json:"mentioned_tables"`
	MentionedFields  []string        `json:"mentioned_fields"`
	MentionedRecords []string        `json:"mentioned_records"`
	RecentQueries    []PreviousQuery `json:"recent_queries"`
}

var (
	tableDeictics  = []string{"esa tabla", "la tabla", "esta tabla", "that table", "this table", "the table"}
	recordDeictics = []string{"ese registro", "el registro", "este registro", "that record", "this record"}
	baseDeictics   = []string{"esta base", "la base", "esa base", "this base", "that base"}
)

// ContextHandler owns conversation state for every session. Store errors are
// logged and treated as a missing context; no method returns an error.
type ContextHandler struct {
	store      ContextStore
	maxQueries int
	log        logrus.FieldLogger
	language   string

	// mu serializes read-modify-write cycles against the store.
	mu sync.Mutex
}

// NewContextHandler returns a handler over store. maxQueries bounds the
// per-session history; values below 1 fall back to 10.
func NewContextHandler(store ContextStore, maxQueries int, log logrus.FieldLogger) *ContextHandler {
	if maxQueries < 1 {
		maxQueries = 10
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &ContextHandler{store: store, maxQueries: maxQueries, log: log}
}

// SetDefaultLanguage sets the language preference of contexts created from
// now on. Existing sessions keep theirs.
func (h *ContextHandler) SetDefaultLanguage(lang string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.language = lang
}

func (h *ContextHandler) newContext(s Session) *ConversationContext {
	c := NewConversationContext(s.SessionID, s.user())
	if h.language != "" {
		c.Preferences.Language = h.language
	}
	return c
}

func (h *ContextHandler) load(ctx context.Context, s Session) (*ConversationContext, bool) {
	c, ok, err := h.store.Get(ctx, s.Key())
	if err != nil {
		h.log.WithError(err).WithField("session", s.Key()).Warn("loading conversation context")
		return nil, false
	}
	return c, ok
}

func (h *ContextHandler) save(ctx context.Context, s Session, c *ConversationContext) {
	if err := h.store.Put(ctx, s.Key(), c); err != nil {
		h.log.WithError(err).WithField("session", s.Key()).Warn("saving conversation context")
	}
}

// loadOrCreate must be called with mu held.
func (h *ContextHandler) loadOrCreate(ctx context.Context, s Session) *ConversationContext {
	if c, ok := h.load(ctx, s); ok {
		return c
	}
	return h.newContext(s)
}

// GetContext returns the session's context, creating and storing an empty
// one on first access.
func (h *ContextHandler) GetContext(ctx context.Context, s Session) *ConversationContext {
	h.mu.Lock()
	defer h.mu.Unlock()
	if c, ok := h.load(ctx, s); ok {
		return c
	}
	c := h.newContext(s)
	h.save(ctx, s, c)
	return c
}

// UpdateContext appends the query to the bounded history and folds the
// extracted entities into the session's focus and mention lists.
func (h *ContextHandler) UpdateContext(ctx context.Context, s Session, u ContextUpdate) {
	h.mu.Lock()
	defer h.mu.Unlock()

	c := h.loadOrCreate(ctx, s)

	ts := u.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	c.PreviousQueries = append(c.PreviousQueries, PreviousQuery{
		Query:     u.Query,
		Intent:    u.Intent,
		Timestamp: ts,
		Result:    u.Result,
	})
	if n := len(c.PreviousQueries); n > h.maxQueries {
		c.PreviousQueries = append([]PreviousQuery(nil), c.PreviousQueries[n-h.maxQueries:]...)
	}

	e := u.Entities
	if e.TableName != "" {
		c.CurrentTable = e.TableName
		c.MentionedEntities.Tables = appendUnique(c.MentionedEntities.Tables, e.TableName)
	}
	if e.RecordID != "" {
		c.CurrentRecordID = e.RecordID
		c.MentionedEntities.Records = appendUnique(c.MentionedEntities.Records, e.RecordID)
	}
	if e.FieldName != "" {
		c.MentionedEntities.Fields = appendUnique(c.MentionedEntities.Fields, e.FieldName)
	}
	if e.BaseID != "" {
		c.CurrentBaseID = e.BaseID
	}

	c.Preferences.Language = requestedLanguage(u.Query, c.Preferences.Language)

	h.save(ctx, s, c)
}

// requestedLanguage returns the language query asks for, or current when it
// asks for none.
func requestedLanguage(query, current string) string {
	lower := strings.ToLower(query)
	switch {
	case strings.Contains(lower, "español"):
		return "es"
	case strings.Contains(lower, "english"), strings.Contains(lower, "en inglés"):
		return "en"
	}
	return current
}

// ResolveReference maps a deictic phrase such as "esa tabla" to the entity
// currently in focus. Unresolved references carry the mentioned entities of
// the same type as alternatives.
func (h *ContextHandler) ResolveReference(ctx context.Context, s Session, reference string, typ ReferenceType) ContextReference {
	c, ok := h.load(ctx, s)
	if !ok {
		return ContextReference{ReferenceType: typ, Reference: reference}
	}

	ref := strings.ToLower(strings.Join(strings.Fields(reference), " "))
	switch typ {
	case ReferenceTable:
		if c.CurrentTable != "" {
			if isOneOf(ref, tableDeictics) {
				return resolved(typ, c.CurrentTable, 0.9, c.MentionedEntities.Tables)
			}
			if len(c.PreviousQueries) > 0 {
				return resolved(typ, c.CurrentTable, 0.7, c.MentionedEntities.Tables)
			}
		}
	case ReferenceRecord:
		if c.CurrentRecordID != "" && isOneOf(ref, recordDeictics) {
			return resolved(typ, c.CurrentRecordID, 0.9, nil)
		}
	case ReferenceBase:
		if c.CurrentBaseID != "" && isOneOf(ref, baseDeictics) {
			return resolved(typ, c.CurrentBaseID, 0.9, nil)
		}
	}

	return ContextReference{
		ReferenceType: typ,
		Reference:     reference,
		Alternatives:  alternatives(typ, c),
	}
}

func resolved(typ ReferenceType, value string, confidence float64, alts []string) ContextReference {
	return ContextReference{
		ReferenceType: typ,
		Reference:     value,
		Resolved:      true,
		Confidence:    confidence,
		Alternatives:  append([]string(nil), alts...),
	}
}

func alternatives(typ ReferenceType, c *ConversationContext) []string {
	switch typ {
	case ReferenceTable:
		return append([]string(nil), c.MentionedEntities.Tables...)
	case ReferenceField:
		return append([]string(nil), c.MentionedEntities.Fields...)
	case ReferenceRecord:
		return append([]string(nil), c.MentionedEntities.Records...)
	case ReferenceBase:
		if c.CurrentBaseID != "" {
			return []string{c.CurrentBaseID}
		}
	}
	return nil
}

func isOneOf(s string, list []string) bool {
	for _, v := range list {
		if s == v {
			return true
		}
	}
	return false
}

// ClearContext forgets the session entirely.
func (h *ContextHandler) ClearContext(ctx context.Context, s Session) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if err := h.store.Delete(ctx, s.Key()); err != nil {
		h.log.WithError(err).WithField("session", s.Key()).Warn("clearing conversation context")
	}
}

// GetContextHistory returns the session's query history, oldest first.
func (h *ContextHandler) GetContextHistory(ctx context.Context, s Session) []PreviousQuery {
	c, ok := h.load(ctx, s)
	if !ok {
		return nil
	}
	return c.PreviousQueries
}

// GetCurrentEntities summarizes the session's focus and its last three
// queries.
func (h *ContextHandler) GetCurrentEntities(ctx context.Context, s Session) CurrentEntities {
	c, ok := h.load(ctx, s)
	if !ok {
		return CurrentEntities{MentionedTables: []string{}, MentionedFields: []string{}, MentionedRecords: []string{}}
	}
	recent := c.PreviousQueries
	if len(recent) > 3 {
		recent = recent[len(recent)-3:]
	}
	return CurrentEntities{
		CurrentTable:     c.CurrentTable,
		CurrentRecordID:  c.CurrentRecordID,
		CurrentBaseID:    c.CurrentBaseID,
		MentionedTables:  c.MentionedEntities.Tables,
		MentionedFields:  c.MentionedEntities.Fields,
		MentionedRecords: c.MentionedEntities.Records,
		RecentQueries:    recent,
	}
}

func (h *ContextHandler) mutate(ctx context.Context, s Session, fn func(*ConversationContext)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	c := h.loadOrCreate(ctx, s)
	fn(c)
	h.save(ctx, s, c)
}

// SetCurrentTable focuses the session on table and records the mention.
func (h *ContextHandler) SetCurrentTable(ctx context.Context, s Session, table string) {
	h.mutate(ctx, s, func(c *ConversationContext) {
		c.CurrentTable = table
		c.MentionedEntities.Tables = appendUnique(c.MentionedEntities.Tables, table)
	})
}

// SetCurrentRecord focuses the session on recordID and records the mention.
func (h *ContextHandler) SetCurrentRecord(ctx context.Context, s Session, recordID string) {
	h.mutate(ctx, s, func(c *ConversationContext) {
		c.CurrentRecordID = recordID
		c.MentionedEntities.Records = appendUnique(c.MentionedEntities.Records, recordID)
	})
}

// SetCurrentBase focuses the session on baseID.
func (h *ContextHandler) SetCurrentBase(ctx context.Context, s Session, baseID string) {
	h.mutate(ctx, s, func(c *ConversationContext) {
		c.CurrentBaseID = baseID
	})
}

// MentionField records a field name mentioned in the session.
func (h *ContextHandler) MentionField(ctx context.Context, s Session, field string) {
	h.mutate(ctx, s, func(c *ConversationContext) {
		c.MentionedEntities.Fields = appendUnique(c.MentionedEntities.Fields, field)
	})
}

// SetLastResult attaches result to the most recent history entry. It is a
// no-op for sessions without history.
func (h *ContextHandler) SetLastResult(ctx context.Context, s Session, result any) {
	h.mu.Lock()
	defer h.mu.Unlock()
	c, ok := h.load(ctx, s)
	if !ok || len(c.PreviousQueries) == 0 {
		return
	}
	c.PreviousQueries[len(c.PreviousQueries)-1].Result = result
	h.save(ctx, s, c)
}
