package nltool

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/desarrollo032/airtable-mcp/internal/nlp"
)

// QueryRequest is the body of POST /api/nlp/query and of WebSocket messages.
type QueryRequest struct {
	Query     string `json:"query"`
	SessionID string `json:"session_id"`
	UserID    string `json:"user_id"`
}

// ruleView is one entry of GET /api/nlp/rules.
type ruleView struct {
	Intent   nlp.IntentType `json:"intent"`
	Tool     string         `json:"tool"`
	Patterns []string       `json:"patterns"`
}

// RegisterRoutes mounts the query and context endpoints under /api/nlp.
func (t *Tool) RegisterRoutes(r chi.Router) {
	r.Route("/api/nlp", func(r chi.Router) {
		r.Post("/query", t.handleQuery)
		r.Get("/context/{session}", t.handleGetContext)
		r.Delete("/context/{session}", t.handleClearContext)
		r.Get("/rules", t.handleRules)
	})
}

// RegisterChat mounts the conversational WebSocket at /ws/nlp. The socket
// outlives request timeouts, so r must not carry a timeout middleware.
func (t *Tool) RegisterChat(r chi.Router) {
	r.Get("/ws/nlp", t.handleWebSocket)
}

func (t *Tool) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req QueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Query == "" {
		http.Error(w, "query is required", http.StatusBadRequest)
		return
	}

	resp := t.ProcessNaturalLanguageQuery(r.Context(), req.Query, req.SessionID, req.UserID)
	writeJSON(w, http.StatusOK, resp)
}

func (t *Tool) handleGetContext(w http.ResponseWriter, r *http.Request) {
	summary := t.ContextSummary(r.Context(), chi.URLParam(r, "session"), r.URL.Query().Get("user"))
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"data":    summary,
		"message": "Contexto obtenido correctamente",
	})
}

func (t *Tool) handleClearContext(w http.ResponseWriter, r *http.Request) {
	t.ClearContext(r.Context(), chi.URLParam(r, "session"), r.URL.Query().Get("user"))
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Contexto limpiado correctamente",
	})
}

func (t *Tool) handleRules(w http.ResponseWriter, r *http.Request) {
	mapper := t.processor.Mapper()
	rules := mapper.Rules()
	out := make([]ruleView, 0, len(rules))
	for _, rule := range rules {
		v := ruleView{Intent: rule.Intent, Tool: mapper.ToolName(rule.Intent)}
		for _, p := range rule.Patterns {
			v.Patterns = append(v.Patterns, p.String())
		}
		out = append(out, v)
	}
	writeJSON(w, http.StatusOK, out)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
