// Package logging builds the process logger.
package logging

import (
	"fmt"
	"io"
	"os"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"

	"github.com/desarrollo032/airtable-mcp/internal/config"
)

// RequestIDKey is the field carrying the HTTP request id.
const RequestIDKey = "request_id"

// New returns a logger writing to stderr. Stdout is reserved for the MCP
// stdio transport.
func New(cfg config.LogConfig) (*logrus.Logger, error) {
	return NewWithWriter(cfg, os.Stderr)
}

// NewWithWriter is New with an explicit destination.
func NewWithWriter(cfg config.LogConfig, w io.Writer) (*logrus.Logger, error) {
	level := logrus.InfoLevel
	if cfg.Level != "" {
		l, err := logrus.ParseLevel(cfg.Level)
		if err != nil {
			return nil, fmt.Errorf("parsing log level: %w", err)
		}
		level = l
	}

	log := logrus.New()
	log.SetOutput(w)
	log.SetLevel(level)

	switch cfg.Format {
	case "", "text":
		log.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006/01/02 15:04:05",
			DisableColors:   true,
		})
	case "json":
		log.SetFormatter(&logrus.JSONFormatter{})
	default:
		return nil, fmt.Errorf("unknown log format %q", cfg.Format)
	}

	log.AddHook(requestIDHook{})
	return log, nil
}

// requestIDHook copies the chi request id from entry.Context, when the entry
// was built WithContext on a request context.
type requestIDHook struct{}

func (requestIDHook) Levels() []logrus.Level { return logrus.AllLevels }

func (requestIDHook) Fire(entry *logrus.Entry) error {
	if entry.Context == nil {
		return nil
	}
	if id := middleware.GetReqID(entry.Context); id != "" {
		entry.Data[RequestIDKey] = id
	}
	return nil
}

// Discard returns a logger that drops everything.
func Discard() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}
