// Package nltool executes natural-language queries: it runs the nlp
// pipeline, dispatches the resolved intent to an Executor and phrases the
// reply.
package nltool

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/desarrollo032/airtable-mcp/internal/nlp"
)

// Metadata describes how a response was produced.
type Metadata struct {
	ProcessingTime int64 `json:"processing_time"` // milliseconds
	ContextUsed    bool  `json:"context_used"`
	FallbackUsed   bool  `json:"fallback_used"`
	LowConfidence  bool  `json:"low_confidence,omitempty"`
}

// Response is the JSON object returned to callers of
// process_natural_language.
type Response struct {
	Success        bool                `json:"success"`
	Data           any                 `json:"data"`
	Message        string              `json:"message"`
	Intent         nlp.IntentType      `json:"intent"`
	Confidence     float64             `json:"confidence"`
	Clarifications []nlp.Clarification `json:"clarifications"`
	Metadata       Metadata            `json:"metadata"`
}

// Outcome is what observers see after every query.
type Outcome struct {
	Session  nlp.Session
	Query    string
	Result   nlp.Result
	Response Response
	Err      error // execution or processing error, if any
	Started  time.Time
	Duration time.Duration
}

// Observer is notified after each query. Observe runs on the request path and
// must not block for long.
type Observer interface {
	Observe(ctx context.Context, o Outcome)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(ctx context.Context, o Outcome)

func (f ObserverFunc) Observe(ctx context.Context, o Outcome) { f(ctx, o) }

// Option configures a Tool.
type Option func(*Tool)

// WithObserver registers o for every processed query.
func WithObserver(o Observer) Option {
	return func(t *Tool) { t.observers = append(t.observers, o) }
}

// WithClock sets the clock used for timings and placeholder timestamps.
func WithClock(now func() time.Time) Option {
	return func(t *Tool) { t.now = now }
}

// Tool is the execution adapter behind process_natural_language.
type Tool struct {
	processor *nlp.Processor
	exec      Executor
	log       logrus.FieldLogger
	observers []Observer
	now       func() time.Time
}

// New returns a Tool driving p and executing through exec.
func New(p *nlp.Processor, exec Executor, log logrus.FieldLogger, opts ...Option) *Tool {
	if log == nil {
		log = logrus.StandardLogger()
	}
	t := &Tool{processor: p, exec: exec, log: log, now: time.Now}
	for _, o := range opts {
		o(t)
	}
	return t
}

// Processor returns the underlying pipeline.
func (t *Tool) Processor() *nlp.Processor { return t.processor }

func session(sessionID, userID string) nlp.Session {
	if sessionID == "" {
		sessionID = "default"
	}
	if userID == "" {
		userID = nlp.AnonymousUser
	}
	return nlp.Session{UserID: userID, SessionID: sessionID}
}

// ProcessNaturalLanguageQuery runs query for the session and executes the
// resulting intent. It never returns an error: every failure is reported in
// the Response with Success false.
func (t *Tool) ProcessNaturalLanguageQuery(ctx context.Context, query, sessionID, userID string) Response {
	start := t.now()
	s := session(sessionID, userID)
	query = strings.TrimSpace(query)
	log := t.log.WithFields(logrus.Fields{"session": s.Key()})

	res := t.processor.Process(ctx, nlp.Query{Text: query, SessionID: s.SessionID, UserID: s.UserID, Timestamp: start})
	language := t.processor.Contexts().GetContext(ctx, s).Preferences.Language
	msgs := messages[lang(language)]

	resp, err := t.respond(ctx, s, res, language)
	resp.Intent = res.Intent
	resp.Confidence = res.Confidence
	if resp.Clarifications == nil {
		resp.Clarifications = []nlp.Clarification{}
	}
	resp.Metadata.ContextUsed = !res.Fallback()
	resp.Metadata.FallbackUsed = res.Fallback()
	resp.Metadata.LowConfidence = !res.Fallback() && res.Confidence < t.processor.Config().ConfidenceThreshold

	switch {
	case res.Fallback():
		resp.Message = fmt.Sprintf(msgs.failed, res.Err)
		err = res.Err
		log.WithError(res.Err).Error("processing natural language query")
	case err != nil:
		log.WithError(err).WithField("intent", res.Intent).Warn("executing natural language query")
	}

	elapsed := t.now().Sub(start)
	resp.Metadata.ProcessingTime = elapsed.Milliseconds()

	for _, o := range t.observers {
		o.Observe(ctx, Outcome{Session: s, Query: query, Result: res, Response: resp, Err: err, Started: start, Duration: elapsed})
	}
	return resp
}

func (t *Tool) respond(ctx context.Context, s nlp.Session, res nlp.Result, language string) (Response, error) {
	msgs := messages[lang(language)]

	switch {
	case res.Fallback():
		return Response{}, nil
	case res.RequiresClarification:
		return Response{
			Message:        msgs.clarify,
			Clarifications: res.Clarifications,
			Data:           clarificationData(res),
		}, nil
	case !res.Validation.IsValid:
		return Response{
			Message: fmt.Sprintf(msgs.invalid, validationMessages(res.Validation)),
			Data:    map[string]any{"errors": res.Validation.Errors, "suggestions": res.Validation.Suggestions},
		}, nil
	case res.Intent == nlp.IntentUnknown:
		return Response{
			Message: replyFor(language, nlp.IntentUnknown, nil),
			Data:    map[string]any{"suggestions": res.Validation.Suggestions},
		}, nil
	}

	data, implemented, err := t.execute(ctx, res.Intent, res.Parameters, language)
	if err != nil {
		var mp *MissingParamError
		if errors.As(err, &mp) {
			return Response{Message: mp.Message, Data: map[string]any{"missing": mp.Params}}, err
		}
		return Response{Message: fmt.Sprintf(msgs.execFailed, errors.Unwrap(err))}, err
	}
	if !implemented {
		return Response{
			Success: true,
			Data:    t.placeholder(res.Intent, res.Parameters),
			Message: fmt.Sprintf(msgs.notImplemented, res.Intent),
		}, nil
	}

	message := replyFor(language, res.Intent, data)
	contexts := t.processor.Contexts()
	contexts.SetLastResult(ctx, s, map[string]any{"success": true, "message": message})
	if id, ok := data["id"].(string); ok && res.Intent == nlp.IntentCreateRecord {
		contexts.SetCurrentRecord(ctx, s, id)
	}

	return Response{
		Success: true,
		Data:    data,
		Message: message,
	}, nil
}

func clarificationData(res nlp.Result) any {
	if len(res.Validation.Warnings) == 0 && len(res.Validation.Suggestions) == 0 {
		return nil
	}
	return map[string]any{"warnings": res.Validation.Warnings, "suggestions": res.Validation.Suggestions}
}

func (t *Tool) placeholder(intent nlp.IntentType, p nlp.QueryParameters) Payload {
	return Payload{
		"intent":     string(intent),
		"tool":       t.processor.Mapper().ToolName(intent),
		"parameters": p,
		"message":    fmt.Sprintf("Operación %s solicitada pero no implementada completamente", intent),
		"timestamp":  t.now().UTC().Format(time.RFC3339),
	}
}

// execute dispatches intent. implemented is false for intents that have no
// executor operation; their data is nil.
func (t *Tool) execute(ctx context.Context, intent nlp.IntentType, p nlp.QueryParameters, language string) (data Payload, implemented bool, err error) {
	m := missingTexts[lang(language)]
	wrap := func(d Payload, err error) (Payload, bool, error) {
		if err != nil {
			return nil, true, &ExecutionError{Intent: intent, Err: err}
		}
		if d == nil {
			d = Payload{}
		}
		return d, true, nil
	}
	needBase := func() error {
		if p.BaseID == "" {
			return missing(intent, m.base, "base_id")
		}
		return nil
	}

	switch intent {
	case nlp.IntentListBases:
		return wrap(t.exec.ListBases(ctx))

	case nlp.IntentListRecords, nlp.IntentSearchRecords:
		if p.Table == "" {
			return nil, true, missing(intent, m.table, "table")
		}
		if err := needBase(); err != nil {
			return nil, true, err
		}
		return wrap(t.exec.ListRecords(ctx, p.BaseID, p.Table, ListOptions{
			FilterByFormula: p.FilterByFormula,
			MaxRecords:      p.MaxRecords,
			View:            p.View,
			Sort:            p.Sort,
		}))

	case nlp.IntentCreateRecord:
		if p.Table == "" || len(p.Fields) == 0 {
			return nil, true, missing(intent, m.tableFields, "table", "fields")
		}
		if err := needBase(); err != nil {
			return nil, true, err
		}
		return wrap(t.exec.CreateRecord(ctx, p.BaseID, p.Table, p.Fields))

	case nlp.IntentUpdateRecord:
		if p.Table == "" || p.RecordID == "" || len(p.Fields) == 0 {
			return nil, true, missing(intent, m.update, "table", "record_id", "fields")
		}
		if err := needBase(); err != nil {
			return nil, true, err
		}
		return wrap(t.exec.UpdateRecord(ctx, p.BaseID, p.Table, p.RecordID, p.Fields))

	case nlp.IntentDeleteRecord:
		if p.Table == "" || p.RecordID == "" {
			return nil, true, missing(intent, m.tableRecord, "table", "record_id")
		}
		if err := needBase(); err != nil {
			return nil, true, err
		}
		return wrap(t.exec.DeleteRecord(ctx, p.BaseID, p.Table, p.RecordID))

	case nlp.IntentListTables:
		if err := needBase(); err != nil {
			return nil, true, err
		}
		return wrap(t.exec.ListTables(ctx, p.BaseID))

	case nlp.IntentCreateWebhook:
		if p.Table == "" || len(p.WebhookConfig) == 0 {
			return nil, true, missing(intent, m.webhook, "table", "webhook_config")
		}
		if err := needBase(); err != nil {
			return nil, true, err
		}
		return wrap(t.exec.CreateWebhook(ctx, p.BaseID, p.Table, p.WebhookConfig))

	case nlp.IntentListWebhooks:
		if err := needBase(); err != nil {
			return nil, true, err
		}
		return wrap(t.exec.ListWebhooks(ctx, p.BaseID))

	case nlp.IntentDeleteWebhook:
		id, _ := p.Extra["webhook_id"].(string)
		if id == "" {
			return nil, true, missing(intent, m.webhookID, "webhook_id")
		}
		if err := needBase(); err != nil {
			return nil, true, err
		}
		return wrap(t.exec.DeleteWebhook(ctx, p.BaseID, id))

	case nlp.IntentGetBaseSchema:
		if err := needBase(); err != nil {
			return nil, true, err
		}
		return wrap(t.exec.GetBaseSchema(ctx, p.BaseID))

	case nlp.IntentDescribeTable:
		if p.Table == "" {
			return nil, true, missing(intent, m.table, "table")
		}
		if err := needBase(); err != nil {
			return nil, true, err
		}
		return wrap(t.exec.DescribeTable(ctx, p.BaseID, p.Table))
	}

	return nil, false, nil
}

// ContextSummary backs get_nlp_context.
func (t *Tool) ContextSummary(ctx context.Context, sessionID, userID string) nlp.CurrentEntities {
	return t.processor.ContextSummary(ctx, session(sessionID, userID))
}

// ClearContext backs clear_nlp_context.
func (t *Tool) ClearContext(ctx context.Context, sessionID, userID string) {
	t.processor.ClearContext(ctx, session(sessionID, userID))
}
