// Package events publishes processed-query events to NATS.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/sirupsen/logrus"

	"github.com/desarrollo032/airtable-mcp/internal/nlp"
	"github.com/desarrollo032/airtable-mcp/internal/nltool"
)

// QueryProcessed is the payload published after every query.
type QueryProcessed struct {
	ID            string    `json:"id"`
	Timestamp     time.Time `json:"timestamp"`
	SessionID     string    `json:"session_id"`
	UserID        string    `json:"user_id"`
	Query         string    `json:"query"`
	Intent        string    `json:"intent"`
	Tool          string    `json:"tool"`
	Confidence    float64   `json:"confidence"`
	Success       bool      `json:"success"`
	Fallback      bool      `json:"fallback"`
	Clarification bool      `json:"clarification"`
	Table         string    `json:"table,omitempty"`
	BaseID        string    `json:"base_id,omitempty"`
	DurationMS    int64     `json:"duration_ms"`
	Error         string    `json:"error,omitempty"`
}

// NewQueryProcessed builds the event for o. tool is the tool name mapped
// from the intent.
func NewQueryProcessed(o nltool.Outcome, tool string) QueryProcessed {
	ev := QueryProcessed{
		ID:            uuid.New().String(),
		Timestamp:     o.Started.UTC(),
		SessionID:     o.Session.SessionID,
		UserID:        o.Session.UserID,
		Query:         o.Query,
		Intent:        string(o.Response.Intent),
		Tool:          tool,
		Confidence:    o.Response.Confidence,
		Success:       o.Response.Success,
		Fallback:      o.Response.Metadata.FallbackUsed,
		Clarification: len(o.Response.Clarifications) > 0,
		Table:         o.Result.Parameters.Table,
		BaseID:        o.Result.Parameters.BaseID,
		DurationMS:    o.Duration.Milliseconds(),
	}
	if o.Err != nil {
		ev.Error = o.Err.Error()
	}
	return ev
}

type conn interface {
	Publish(subject string, data []byte) error
	Close()
}

// Publisher sends QueryProcessed events on a single subject.
type Publisher struct {
	conn    conn
	subject string
	mapper  *nlp.IntentMapper
	log     logrus.FieldLogger
}

// Connect dials url and returns a Publisher for subject. The connection
// keeps retrying in the background when the server is not yet reachable.
func Connect(url, subject string, log logrus.FieldLogger) (*Publisher, error) {
	opts := []nats.Option{
		nats.Name("airtable-mcp"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(60),
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				log.WithError(err).Warn("nats disconnected")
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.WithField("url", nc.ConnectedUrl()).Info("nats reconnected")
		}),
	}

	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	return newPublisher(nc, subject, log), nil
}

func newPublisher(c conn, subject string, log logrus.FieldLogger) *Publisher {
	return &Publisher{conn: c, subject: subject, log: log}
}

// WithMapper makes events carry the tool name m maps each intent to.
func (p *Publisher) WithMapper(m *nlp.IntentMapper) *Publisher {
	p.mapper = m
	return p
}

// Publish marshals v and publishes it on the configured subject.
func (p *Publisher) Publish(v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	return p.conn.Publish(p.subject, payload)
}

// Observe implements nltool.Observer.
func (p *Publisher) Observe(_ context.Context, o nltool.Outcome) {
	var tool string
	if p.mapper != nil {
		tool = p.mapper.ToolName(o.Response.Intent)
	}
	if err := p.Publish(NewQueryProcessed(o, tool)); err != nil {
		p.log.WithError(err).WithField("subject", p.subject).Warn("events: publishing query event")
	}
}

// Close closes the connection.
func (p *Publisher) Close() {
	p.conn.Close()
}
