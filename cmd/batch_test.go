package cmd

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"strings"
	"testing"

	"github.com/desarrollo032/airtable-mcp/internal/logging"
	"github.com/desarrollo032/airtable-mcp/internal/nlp"
	"github.com/desarrollo032/airtable-mcp/internal/nltool"
	"github.com/desarrollo032/airtable-mcp/internal/progress"
)

func TestReadBatch(t *testing.T) {
	input := "# setup\nlistar bases\n\n  qué tablas tengo  \n#skip\nhola\n"
	lines, err := readBatch(strings.NewReader(input))
	if err != nil {
		t.Fatalf("readBatch: %v", err)
	}

	want := []batchLine{{2, "listar bases"}, {4, "qué tablas tengo"}, {6, "hola"}}
	if len(lines) != len(want) {
		t.Fatalf("got %d lines, want %d: %+v", len(lines), len(want), lines)
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Errorf("line %d = %+v, want %+v", i, lines[i], want[i])
		}
	}
}

// noExecutor answers every call with an empty payload.
type noExecutor struct{ nltool.Executor }

func (noExecutor) ListBases(context.Context) (nltool.Payload, error) {
	return nltool.Payload{"bases": []any{}}, nil
}

type countingReporter struct {
	started, updates  int
	succeeded, failed int
}

func (r *countingReporter) Start(total int)    { r.started = total }
func (r *countingReporter) Update(int, string) { r.updates++ }
func (r *countingReporter) Finish(s, f int)    { r.succeeded, r.failed = s, f }

var _ progress.Reporter = (*countingReporter)(nil)

func newBatchTool() *nltool.Tool {
	log := logging.Discard()
	p := nlp.NewProcessor(nlp.DefaultConfig(), nlp.NewMemoryStore(), log)
	return nltool.New(p, noExecutor{}, log)
}

func TestProcessBatch(t *testing.T) {
	lines := []batchLine{{1, "listar bases"}, {2, "hola"}, {3, "listar bases"}}
	var out bytes.Buffer
	rep := &countingReporter{}

	ok, failed, err := processBatch(context.Background(), newBatchTool(), lines, "b", "", false, &out, rep)
	if err != nil {
		t.Fatalf("processBatch: %v", err)
	}
	if ok != 2 || failed != 1 {
		t.Errorf("succeeded=%d failed=%d, want 2 and 1", ok, failed)
	}
	if rep.started != 3 || rep.updates != 3 || rep.succeeded != 2 || rep.failed != 1 {
		t.Errorf("unexpected reporter state %+v", rep)
	}

	var results []batchResult
	scanner := bufio.NewScanner(&out)
	for scanner.Scan() {
		var r batchResult
		if err := json.Unmarshal(scanner.Bytes(), &r); err != nil {
			t.Fatalf("decoding %q: %v", scanner.Text(), err)
		}
		results = append(results, r)
	}
	if len(results) != 3 {
		t.Fatalf("got %d results, want 3", len(results))
	}
	if results[1].Line != 2 || results[1].Response.Intent != nlp.IntentUnknown {
		t.Errorf("unexpected second result %+v", results[1])
	}
}

func TestProcessBatchStopOnError(t *testing.T) {
	lines := []batchLine{{1, "hola"}, {2, "listar bases"}}
	rep := &countingReporter{}

	ok, failed, err := processBatch(context.Background(), newBatchTool(), lines, "b", "", true, io.Discard, rep)
	if err != nil {
		t.Fatalf("processBatch: %v", err)
	}
	if ok != 0 || failed != 1 {
		t.Errorf("succeeded=%d failed=%d, want 0 and 1", ok, failed)
	}
}

func TestPrintResponse(t *testing.T) {
	var buf bytes.Buffer
	printResponse(&buf, nltool.Response{
		Message: "Necesito más información para procesar tu consulta.",
		Intent:  nlp.IntentUpdateRecord,
		Clarifications: []nlp.Clarification{
			{Question: "¿En qué tabla quieres realizar esta operación?", Suggestions: []string{"Tasks"}},
		},
	})

	got := buf.String()
	if !strings.HasPrefix(got, "[failed] Necesito más información") {
		t.Errorf("unexpected header in %q", got)
	}
	if !strings.Contains(got, "? ¿En qué tabla quieres realizar esta operación? [Tasks]") {
		t.Errorf("missing clarification in %q", got)
	}
}
