package config

import "time"

// DefaultConfigFile is the file Load reads when no path is given.
const DefaultConfigFile = ".airtable-mcp.yml"

// DefaultSubject is the NATS subject processed queries are published on.
const DefaultSubject = "airtable.nlp.query.processed"

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Airtable: AirtableConfig{
			APIURL:            "https://api.airtable.com/v0",
			RequestsPerSecond: 5,
			Timeout:           30 * time.Second,
		},
		NLP: NLPConfig{
			ConfidenceThreshold:        0.5,
			MaxContextQueries:          10,
			EnableDateProcessing:       true,
			EnableContextualReferences: true,
			DefaultLanguage:            "es",
		},
		Storage: StorageConfig{
			Backend:    StorageMemory,
			SQLitePath: "airtable-mcp.db",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Server: ServerConfig{
			Port: 8080,
		},
		Events: EventsConfig{
			Subject: DefaultSubject,
		},
	}
}
