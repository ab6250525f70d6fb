package cmd

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/desarrollo032/airtable-mcp/internal/airtable"
	"github.com/desarrollo032/airtable-mcp/internal/config"
	"github.com/desarrollo032/airtable-mcp/internal/db"
	"github.com/desarrollo032/airtable-mcp/internal/events"
	"github.com/desarrollo032/airtable-mcp/internal/logging"
	"github.com/desarrollo032/airtable-mcp/internal/nlp"
	"github.com/desarrollo032/airtable-mcp/internal/nltool"
	"github.com/desarrollo032/airtable-mcp/internal/querylog"
	"github.com/desarrollo032/airtable-mcp/internal/store"
)

// loadConfig loads and validates the config, providing a user-friendly error.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w\nRun `airtable-mcp init` to create a config file", err)
	}
	if verbose {
		cfg.Log.Level = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", cfgFile, err)
	}
	return cfg, nil
}

// app holds everything a command needs to answer queries.
type app struct {
	cfg     *config.Config
	log     *logrus.Logger
	db      *db.DB
	client  *airtable.Client
	tool    *nltool.Tool
	history *querylog.Store
	closers []func()
}

type appOptions struct {
	// history opens the SQLite database for the query log even when
	// contexts live elsewhere.
	history bool
}

// newApp wires config, logging, storage, events and the Airtable client
// into a Tool.
func newApp(ctx context.Context, opts appOptions) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	if err := cfg.RequireToken(); err != nil {
		return nil, err
	}

	log, err := logging.New(cfg.Log)
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, log: log}

	if cfg.Storage.Backend == config.StorageSQLite || opts.history {
		database, err := db.Open(cfg.Storage.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("opening database: %w", err)
		}
		a.db = database
		a.closers = append(a.closers, func() { database.Close() })
		a.history = querylog.NewStore(database)
	}

	contexts, err := a.contextStore(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}

	processor := nlp.NewProcessor(cfg.Pipeline(), contexts, log.WithField("component", "nlp"))
	a.client = airtable.NewClient(cfg.Airtable, log.WithField("component", "airtable"))

	var toolOpts []nltool.Option
	if a.history != nil {
		toolOpts = append(toolOpts, nltool.WithObserver(querylog.NewRecorder(a.history, log)))
	}
	if cfg.Events.NATSURL != "" {
		pub, err := events.Connect(cfg.Events.NATSURL, cfg.Events.Subject, log.WithField("component", "events"))
		if err != nil {
			a.Close()
			return nil, err
		}
		a.closers = append(a.closers, pub.Close)
		toolOpts = append(toolOpts, nltool.WithObserver(pub.WithMapper(processor.Mapper())))
	}

	a.tool = nltool.New(processor, a.client, log.WithField("component", "nltool"), toolOpts...)

	log.WithFields(logrus.Fields{
		"storage":      cfg.Storage.Backend,
		"default_base": cfg.Airtable.DefaultBaseID,
		"language":     cfg.NLP.DefaultLanguage,
		"events":       cfg.Events.NATSURL != "",
	}).Debug("application ready")
	return a, nil
}

// contextStore returns the conversation store for the configured backend.
func (a *app) contextStore(ctx context.Context) (nlp.ContextStore, error) {
	switch a.cfg.Storage.Backend {
	case config.StorageSQLite:
		return store.NewSQLiteStore(a.db), nil
	case config.StoragePostgres:
		pg, err := store.NewPostgresStore(ctx, a.cfg.Storage.PostgresURL)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, pg.Close)
		return pg, nil
	default:
		return nlp.NewMemoryStore(), nil
	}
}

// Close releases resources in reverse order of acquisition.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
