package nlp

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/sirupsen/logrus"
)

// Config tunes the pipeline.
type Config struct {
	ConfidenceThreshold        float64
	MaxContextQueries          int
	EnableDateProcessing       bool
	EnableContextualReferences bool
	DefaultBaseID              string
	DefaultLanguage            string
}

// DefaultConfig returns the settings used when nothing is configured.
func DefaultConfig() Config {
	return Config{
		ConfidenceThreshold:        0.5,
		MaxContextQueries:          10,
		EnableDateProcessing:       true,
		EnableContextualReferences: true,
		DefaultLanguage:            "es",
	}
}

// Result is the outcome of Process. When Err is set the pipeline failed
// and ProcessedQuery holds the unknown-intent fallback.
type Result struct {
	ProcessedQuery
	Err error
}

// Fallback reports whether the fallback result was returned.
func (r Result) Fallback() bool { return r.Err != nil }

// Option configures a Processor.
type Option func(*Processor)

// WithNow sets the clock used for relative dates and default timestamps.
func WithNow(now func() time.Time) Option {
	return func(p *Processor) {
		p.now = now
		p.dates = NewDateProcessor(WithClock(now))
	}
}

// WithMapper replaces the intent mapper.
func WithMapper(m *IntentMapper) Option {
	return func(p *Processor) { p.mapper = m }
}

// Processor runs the full pipeline for one query at a time; it is safe for
// concurrent use.
type Processor struct {
	cfg       Config
	analyzer  *SemanticAnalyzer
	dates     *DateProcessor
	contexts  *ContextHandler
	mapper    *IntentMapper
	validator *ValidationEngine
	log       logrus.FieldLogger
	now       func() time.Time
}

// NewProcessor wires the pipeline over store.
func NewProcessor(cfg Config, store ContextStore, log logrus.FieldLogger, opts ...Option) *Processor {
	if log == nil {
		log = logrus.StandardLogger()
	}
	p := &Processor{
		cfg:       cfg,
		analyzer:  NewSemanticAnalyzer(),
		dates:     NewDateProcessor(),
		contexts:  NewContextHandler(store, cfg.MaxContextQueries, log),
		mapper:    NewIntentMapper(),
		validator: NewValidationEngine(),
		log:       log,
		now:       time.Now,
	}
	if cfg.DefaultLanguage != "" {
		p.contexts.SetDefaultLanguage(cfg.DefaultLanguage)
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Config returns the processor settings.
func (p *Processor) Config() Config { return p.cfg }

// Contexts returns the session context handler.
func (p *Processor) Contexts() *ContextHandler { return p.contexts }

// Mapper returns the intent mapper.
func (p *Processor) Mapper() *IntentMapper { return p.mapper }

// Validator returns the validation engine.
func (p *Processor) Validator() *ValidationEngine { return p.validator }

// Analyzer returns the semantic analyzer.
func (p *Processor) Analyzer() *SemanticAnalyzer { return p.analyzer }

// Dates returns the date processor.
func (p *Processor) Dates() *DateProcessor { return p.dates }

func fallbackQuery() ProcessedQuery {
	return ProcessedQuery{
		Intent:     IntentUnknown,
		Confidence: 0.0,
		Validation: ValidationResult{IsValid: true},
	}
}

// Process turns q into a ProcessedQuery. It never panics: internal
// failures, including a cancelled ctx, yield the fallback with Err set.
// The session context records the query in every case.
func (p *Processor) Process(ctx context.Context, q Query) (res Result) {
	s := Session{UserID: q.UserID, SessionID: q.SessionID}
	if s.SessionID == "" {
		s.SessionID = "default"
	}
	if s.UserID == "" {
		s.UserID = AnonymousUser
	}
	ts := q.Timestamp
	if ts.IsZero() {
		ts = p.now()
	}

	log := p.log.WithFields(logrus.Fields{"session": s.Key()})
	log.WithField("query", q.Text).Debug("processing query")

	defer func() {
		if r := recover(); r != nil {
			log.WithField("stack", string(debug.Stack())).Errorf("panic processing query: %v", r)
			res = Result{ProcessedQuery: fallbackQuery(), Err: fmt.Errorf("nlp: processing query: %v", r)}
		}
		if res.Err != nil {
			log.WithError(res.Err).Warn("falling back to unknown intent")
		}
		p.contexts.UpdateContext(context.WithoutCancel(ctx), s, ContextUpdate{
			Query:     q.Text,
			Intent:    res.Intent,
			Timestamp: ts,
			Entities:  res.Entities,
		})
	}()

	if err := ctx.Err(); err != nil {
		return Result{ProcessedQuery: fallbackQuery(), Err: fmt.Errorf("nlp: %w", err)}
	}

	c := p.contexts.GetContext(ctx, s)

	analysis := p.analyzer.Analyze(q.Text, c)
	intent := p.mapper.MapIntent(q.Text, analysis, c)
	entities := p.extractEntities(ctx, s, q.Text)
	params := p.buildParameters(q.Text, entities, c)

	pq := ProcessedQuery{
		Intent:     intent,
		Entities:   entities,
		Parameters: params,
		Confidence: analysis.Confidence,
	}
	pq.Validation = p.validator.Validate(intent, params, c)
	pq.Clarifications = p.clarifications(q.Text, entities, pq.Validation, c)
	pq.RequiresClarification = len(pq.Clarifications) > 0

	log.WithFields(logrus.Fields{
		"intent":        pq.Intent,
		"confidence":    pq.Confidence,
		"clarification": pq.RequiresClarification,
		"valid":         pq.Validation.IsValid,
	}).Info("query processed")

	return Result{ProcessedQuery: pq}
}

// ContextSummary returns the session's current entities.
func (p *Processor) ContextSummary(ctx context.Context, s Session) CurrentEntities {
	return p.contexts.GetCurrentEntities(ctx, s)
}

// ClearContext forgets the session.
func (p *Processor) ClearContext(ctx context.Context, s Session) {
	p.contexts.ClearContext(ctx, s)
}
