package events

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/desarrollo032/airtable-mcp/internal/nlp"
	"github.com/desarrollo032/airtable-mcp/internal/nltool"
)

type fakeConn struct {
	subjects []string
	payloads [][]byte
	err      error
	closed   bool
}

func (f *fakeConn) Publish(subject string, data []byte) error {
	if f.err != nil {
		return f.err
	}
	f.subjects = append(f.subjects, subject)
	f.payloads = append(f.payloads, data)
	return nil
}

func (f *fakeConn) Close() { f.closed = true }

func quietLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func outcome() nltool.Outcome {
	var res nlp.Result
	res.Intent = nlp.IntentListRecords
	res.Parameters = nlp.QueryParameters{Table: "Tasks", BaseID: "appX"}
	return nltool.Outcome{
		Session: nlp.Session{UserID: "u1", SessionID: "s1"},
		Query:   "listar registros de Tasks",
		Result:  res,
		Response: nltool.Response{
			Success:    true,
			Intent:     nlp.IntentListRecords,
			Confidence: 0.8,
		},
		Started:  time.Date(2024, time.January, 31, 10, 0, 0, 0, time.UTC),
		Duration: 42 * time.Millisecond,
	}
}

func TestNewQueryProcessed(t *testing.T) {
	ev := NewQueryProcessed(outcome(), "list_records")

	assert.NotEmpty(t, ev.ID)
	assert.Equal(t, "s1", ev.SessionID)
	assert.Equal(t, "u1", ev.UserID)
	assert.Equal(t, "list_records", ev.Intent)
	assert.Equal(t, "list_records", ev.Tool)
	assert.Equal(t, "Tasks", ev.Table)
	assert.Equal(t, "appX", ev.BaseID)
	assert.Equal(t, int64(42), ev.DurationMS)
	assert.True(t, ev.Success)
	assert.Empty(t, ev.Error)

	o := outcome()
	o.Err = errors.New("boom")
	assert.Equal(t, "boom", NewQueryProcessed(o, "").Error)
}

func TestPublisherObserve(t *testing.T) {
	fc := &fakeConn{}
	p := newPublisher(fc, "airtable.nlp.query.processed", quietLogger()).WithMapper(nlp.NewIntentMapper())

	p.Observe(context.Background(), outcome())

	require.Len(t, fc.payloads, 1)
	assert.Equal(t, "airtable.nlp.query.processed", fc.subjects[0])

	var got map[string]any
	require.NoError(t, json.Unmarshal(fc.payloads[0], &got))
	assert.Equal(t, "list_records", got["tool"])
	assert.Equal(t, "2024-01-31T10:00:00Z", got["timestamp"])
	assert.NotContains(t, got, "error")

	p.Close()
	assert.True(t, fc.closed)
}

func TestPublisherObserveSwallowsErrors(t *testing.T) {
	fc := &fakeConn{err: errors.New("nats: connection closed")}
	p := newPublisher(fc, "subj", quietLogger())

	assert.NotPanics(t, func() { p.Observe(context.Background(), outcome()) })
	assert.Error(t, p.Publish(map[string]string{"a": "b"}))
}

func TestPublishRejectsUnmarshalable(t *testing.T) {
	p := newPublisher(&fakeConn{}, "subj", quietLogger())
	err := p.Publish(make(chan int))
	assert.ErrorContains(t, err, "marshal payload")
}
