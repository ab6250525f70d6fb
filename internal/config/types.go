package config

import "time"

// StorageBackend selects where conversation contexts are kept.
type StorageBackend string

const (
	StorageMemory   StorageBackend = "memory"
	StorageSQLite   StorageBackend = "sqlite"
	StoragePostgres StorageBackend = "postgres"
)

// Config is the top-level configuration, corresponding to .airtable-mcp.yml.
type Config struct {
	Airtable AirtableConfig `yaml:"airtable" koanf:"airtable"`
	NLP      NLPConfig      `yaml:"nlp" koanf:"nlp"`
	Storage  StorageConfig  `yaml:"storage" koanf:"storage"`
	Log      LogConfig      `yaml:"log" koanf:"log"`
	Server   ServerConfig   `yaml:"server" koanf:"server"`
	Events   EventsConfig   `yaml:"events" koanf:"events"`
}

// AirtableConfig holds the REST API settings.
type AirtableConfig struct {
	APIURL            string        `yaml:"api_url" koanf:"api_url"`
	Token             string        `yaml:"token,omitempty" koanf:"token"`
	DefaultBaseID     string        `yaml:"default_base_id" koanf:"default_base_id"`
	RequestsPerSecond float64       `yaml:"requests_per_second" koanf:"requests_per_second"`
	Timeout           time.Duration `yaml:"timeout" koanf:"timeout"`
}

// NLPConfig tunes the natural-language pipeline.
type NLPConfig struct {
	ConfidenceThreshold        float64 `yaml:"confidence_threshold" koanf:"confidence_threshold"`
	MaxContextQueries          int     `yaml:"max_context_queries" koanf:"max_context_queries"`
	EnableDateProcessing       bool    `yaml:"enable_date_processing" koanf:"enable_date_processing"`
	EnableContextualReferences bool    `yaml:"enable_contextual_references" koanf:"enable_contextual_references"`
	DefaultLanguage            string  `yaml:"default_language" koanf:"default_language"`
}

// StorageConfig selects and configures the context store.
type StorageConfig struct {
	Backend     StorageBackend `yaml:"backend" koanf:"backend"`
	SQLitePath  string         `yaml:"sqlite_path" koanf:"sqlite_path"`
	PostgresURL string         `yaml:"postgres_url,omitempty" koanf:"postgres_url"`
}

// LogConfig controls the logger.
type LogConfig struct {
	Level  string `yaml:"level" koanf:"level"`
	Format string `yaml:"format" koanf:"format"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            int  `yaml:"port" koanf:"port"`
	AllowAllOrigins bool `yaml:"allow_all_origins" koanf:"allow_all_origins"`
}

// EventsConfig enables processed-query events. An empty NATSURL disables them.
type EventsConfig struct {
	NATSURL string `yaml:"nats_url" koanf:"nats_url"`
	Subject string `yaml:"subject" koanf:"subject"`
}
