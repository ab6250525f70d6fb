package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

// handleProcessNaturalLanguage runs one query through the natural-language
// tool. Failed queries are a normal answer with success false, not a tool
// error.
func (s *Server) handleProcessNaturalLanguage(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := request.RequireString("query")
	if err != nil || query == "" {
		return mcp.NewToolResultError("missing required parameter: query"), nil
	}

	resp := s.tool.ProcessNaturalLanguageQuery(ctx, query,
		request.GetString("session_id", ""),
		request.GetString("user_id", ""),
	)
	return jsonResult(resp)
}

// handleGetNLPContext returns the context summary of a session.
func (s *Server) handleGetNLPContext(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, err := request.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: session_id"), nil
	}

	summary := s.tool.ContextSummary(ctx, sessionID, request.GetString("user_id", ""))
	return jsonResult(map[string]any{
		"success": true,
		"data":    summary,
		"message": "Contexto obtenido correctamente",
	})
}

// handleClearNLPContext drops the context of a session.
func (s *Server) handleClearNLPContext(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, err := request.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: session_id"), nil
	}

	s.tool.ClearContext(ctx, sessionID, request.GetString("user_id", ""))
	return jsonResult(map[string]any{
		"success": true,
		"message": "Contexto limpiado correctamente",
	})
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to encode result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(b)), nil
}
