package querylog

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/desarrollo032/airtable-mcp/internal/nltool"
)

// Recorder writes one Entry per processed query.
type Recorder struct {
	store *Store
	log   logrus.FieldLogger
}

// NewRecorder returns an nltool.Observer logging into store.
func NewRecorder(store *Store, log logrus.FieldLogger) *Recorder {
	return &Recorder{store: store, log: log}
}

// Observe implements nltool.Observer. Insert failures are logged, never
// returned to the caller.
func (r *Recorder) Observe(ctx context.Context, o nltool.Outcome) {
	entry := Entry{
		Timestamp:     o.Started,
		SessionKey:    o.Session.Key(),
		Query:         o.Query,
		Intent:        o.Response.Intent,
		Confidence:    o.Response.Confidence,
		Success:       o.Response.Success,
		Fallback:      o.Response.Metadata.FallbackUsed,
		Clarification: len(o.Response.Clarifications) > 0,
		Message:       o.Response.Message,
		DurationMS:    o.Duration.Milliseconds(),
	}
	// The request context may already be cancelled once the reply is sent.
	if err := r.store.Log(context.WithoutCancel(ctx), entry); err != nil {
		r.log.WithError(err).Warn("querylog: recording query")
	}
}
