package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/sirupsen/logrus"
	yamlv3 "gopkg.in/yaml.v3"

	"github.com/desarrollo032/airtable-mcp/internal/nlp"
)

// EnvPrefix prefixes every environment override. Nested keys use a double
// underscore: AIRTABLE_MCP_NLP__CONFIDENCE_THRESHOLD -> nlp.confidence_threshold.
const EnvPrefix = "AIRTABLE_MCP_"

// tokenEnvVars are the conventional variables holding an Airtable token,
// consulted in order when airtable.token is unset.
var tokenEnvVars = []string{
	"AIRTABLE_PERSONAL_ACCESS_TOKEN",
	"AIRTABLE_PAT",
	"AIRTABLE_TOKEN",
}

// Load reads configuration from the given YAML file, then overlays
// environment variable overrides (AIRTABLE_MCP_*). A .env file next to the
// config file is loaded first; variables already set in the environment win.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultConfigFile
	}
	if err := loadDotEnv(dotEnvPath(path)); err != nil {
		return nil, err
	}

	k := koanf.New(".")

	// Start from defaults.
	cfg := DefaultConfig()

	// Load YAML file if it exists.
	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("accessing config %s: %w", path, err)
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("loading env overrides: %w", err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	applyWellKnownEnv(cfg)
	return cfg, nil
}

// envKey maps AIRTABLE_MCP_STORAGE__SQLITE_PATH to storage.sqlite_path.
func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.ReplaceAll(s, "__", ".")
}

func loadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("accessing %s: %w", path, err)
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}

// applyWellKnownEnv fills gaps from the variable names Airtable tooling
// commonly uses.
func applyWellKnownEnv(cfg *Config) {
	if cfg.Airtable.Token == "" {
		for _, name := range tokenEnvVars {
			if v := os.Getenv(name); v != "" {
				cfg.Airtable.Token = v
				break
			}
		}
	}
	if cfg.Airtable.DefaultBaseID == "" {
		cfg.Airtable.DefaultBaseID = os.Getenv("AIRTABLE_BASE_ID")
	}
	if cfg.Storage.PostgresURL == "" {
		cfg.Storage.PostgresURL = os.Getenv("DATABASE_URL")
	}
}

// Save writes the configuration to the given YAML file path. The token is
// never written; keep it in the environment or a .env file.
func (c *Config) Save(path string) error {
	out := *c
	out.Airtable.Token = ""
	data, err := yamlv3.Marshal(&out)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

// validBackends is the set of recognized storage backends.
var validBackends = map[StorageBackend]bool{
	StorageMemory:   true,
	StorageSQLite:   true,
	StoragePostgres: true,
}

// Validate checks that the configuration contains valid values.
func (c *Config) Validate() error {
	if c.Airtable.APIURL == "" {
		return fmt.Errorf("airtable.api_url is required")
	}
	if c.Airtable.RequestsPerSecond <= 0 {
		return fmt.Errorf("airtable.requests_per_second must be positive")
	}
	if c.Airtable.Timeout < 0 {
		return fmt.Errorf("airtable.timeout must be non-negative")
	}

	if c.NLP.ConfidenceThreshold < 0 || c.NLP.ConfidenceThreshold > 1 {
		return fmt.Errorf("nlp.confidence_threshold must be between 0 and 1, got %v", c.NLP.ConfidenceThreshold)
	}
	if c.NLP.MaxContextQueries < 1 {
		return fmt.Errorf("nlp.max_context_queries must be at least 1")
	}
	switch c.NLP.DefaultLanguage {
	case "es", "en":
	default:
		return fmt.Errorf("invalid nlp.default_language %q: must be es or en", c.NLP.DefaultLanguage)
	}

	if !validBackends[c.Storage.Backend] {
		return fmt.Errorf("invalid storage.backend %q: must be one of memory, sqlite, postgres", c.Storage.Backend)
	}
	if c.Storage.Backend == StorageSQLite && c.Storage.SQLitePath == "" {
		return fmt.Errorf("storage.sqlite_path is required for the sqlite backend")
	}
	if c.Storage.Backend == StoragePostgres && c.Storage.PostgresURL == "" {
		return fmt.Errorf("storage.postgres_url (or DATABASE_URL) is required for the postgres backend")
	}

	if _, err := logrus.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("invalid log.level %q: %w", c.Log.Level, err)
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		return fmt.Errorf("invalid log.format %q: must be text or json", c.Log.Format)
	}

	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	if c.Events.NATSURL != "" && c.Events.Subject == "" {
		return fmt.Errorf("events.subject is required when events.nats_url is set")
	}

	return nil
}

// ErrNoToken is returned by RequireToken when no Airtable token is configured.
var ErrNoToken = errors.New("no Airtable token configured: set AIRTABLE_PERSONAL_ACCESS_TOKEN or airtable.token")

// RequireToken reports ErrNoToken when commands that call Airtable cannot run.
func (c *Config) RequireToken() error {
	if c.Airtable.Token == "" {
		return ErrNoToken
	}
	return nil
}

// Pipeline converts the nlp section into the pipeline's settings.
func (c *Config) Pipeline() nlp.Config {
	return nlp.Config{
		ConfidenceThreshold:        c.NLP.ConfidenceThreshold,
		MaxContextQueries:          c.NLP.MaxContextQueries,
		EnableDateProcessing:       c.NLP.EnableDateProcessing,
		EnableContextualReferences: c.NLP.EnableContextualReferences,
		DefaultBaseID:              c.Airtable.DefaultBaseID,
		DefaultLanguage:            c.NLP.DefaultLanguage,
	}
}
