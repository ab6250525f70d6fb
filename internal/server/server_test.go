package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/desarrollo032/airtable-mcp/internal/config"
	"github.com/desarrollo032/airtable-mcp/internal/logging"
)

func newTestServer(t *testing.T, cfg config.ServerConfig) (*Server, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	log, err := logging.NewWithWriter(config.LogConfig{Level: "info", Format: "json"}, &buf)
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return New(cfg, log), &buf
}

func TestHealthCheck(t *testing.T) {
	srv, _ := newTestServer(t, config.ServerConfig{Port: 0})

	req := httptest.NewRequest("GET", "/healthz", nil)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("expected status 'ok', got %q", body["status"])
	}
}

func TestCORSHeaders(t *testing.T) {
	srv, _ := newTestServer(t, config.ServerConfig{Port: 0, AllowAllOrigins: true})

	req := httptest.NewRequest("OPTIONS", "/healthz", nil)
	req.Header.Set("Origin", "http://example.com")
	req.Header.Set("Access-Control-Request-Method", "GET")
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	if w.Header().Get("Access-Control-Allow-Origin") == "" {
		t.Error("expected CORS Allow-Origin header")
	}
}

func TestCORSRejectsForeignOriginByDefault(t *testing.T) {
	srv, _ := newTestServer(t, config.ServerConfig{Port: 0})

	req := httptest.NewRequest("GET", "/healthz", nil)
	req.Header.Set("Origin", "http://example.com")
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("unexpected Allow-Origin %q", got)
	}
}

func TestAPIRoutesAndRequestLog(t *testing.T) {
	srv, buf := newTestServer(t, config.ServerConfig{Port: 0})
	srv.Router().Get("/api/ping", func(w http.ResponseWriter, r *http.Request) {
		if _, ok := r.Context().Deadline(); !ok {
			t.Error("API routes should carry a deadline")
		}
		w.Write([]byte("pong"))
	})
	srv.Root().Get("/ws/ping", func(w http.ResponseWriter, r *http.Request) {
		if _, ok := r.Context().Deadline(); ok {
			t.Error("root routes should not carry a deadline")
		}
	})

	for _, path := range []string{"/api/ping", "/ws/ping"} {
		w := httptest.NewRecorder()
		srv.Handler().ServeHTTP(w, httptest.NewRequest("GET", path, nil))
		if w.Code != http.StatusOK {
			t.Errorf("%s: expected 200, got %d", path, w.Code)
		}
	}

	line := strings.SplitN(buf.String(), "\n", 2)[0]
	var entry map[string]any
	if err := json.Unmarshal([]byte(line), &entry); err != nil {
		t.Fatalf("log line %q: %v", line, err)
	}
	if entry["path"] != "/api/ping" || entry["status"] != float64(200) {
		t.Errorf("unexpected log entry %v", entry)
	}
	if entry["request_id"] == nil || entry["request_id"] == "" {
		t.Errorf("request id missing from log entry %v", entry)
	}
}

func TestRequestLogThroughEntry(t *testing.T) {
	var buf bytes.Buffer
	log, err := logging.NewWithWriter(config.LogConfig{Level: "info", Format: "json"}, &buf)
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	srv := New(config.ServerConfig{}, log.WithField("component", "http"))

	req := httptest.NewRequest("GET", "/healthz", nil)
	req.Header.Set("X-Request-Id", "req-42")
	srv.Handler().ServeHTTP(httptest.NewRecorder(), req)

	var entry map[string]any
	if err := json.Unmarshal([]byte(strings.SplitN(buf.String(), "\n", 2)[0]), &entry); err != nil {
		t.Fatalf("log line %q: %v", buf.String(), err)
	}
	if entry["request_id"] != "req-42" || entry["component"] != "http" {
		t.Errorf("unexpected log entry %v", entry)
	}
}
