// Package querylog records every natural-language query the gateway handled.
package querylog

import (
	"time"

	"github.com/desarrollo032/airtable-mcp/internal/nlp"
)

// Entry is one handled query.
type Entry struct {
	ID            string         `json:"id"`
	Timestamp     time.Time      `json:"timestamp"`
	SessionKey    string         `json:"session_key"`
	Query         string         `json:"query"`
	Intent        nlp.IntentType `json:"intent"`
	Confidence    float64        `json:"confidence"`
	Success       bool           `json:"success"`
	Fallback      bool           `json:"fallback"`
	Clarification bool           `json:"clarification"`
	Message       string         `json:"message,omitempty"`
	DurationMS    int64          `json:"duration_ms"`
}
