package mcp

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/desarrollo032/airtable-mcp/internal/nltool"
)

// registerAirtableTools adds the direct Airtable tools.
func (s *Server) registerAirtableTools() {
	s.mcp.AddTool(listBasesTool, s.handleListBases)
	s.mcp.AddTool(listTablesTool, s.handleListTables)
	s.mcp.AddTool(getBaseSchemaTool, s.handleGetBaseSchema)
	s.mcp.AddTool(listRecordsTool, s.handleListRecords)
}

// baseID returns the base_id argument or the configured default.
func (s *Server) baseID(request mcp.CallToolRequest) (string, *mcp.CallToolResult) {
	id := request.GetString("base_id", "")
	if id == "" {
		id = s.tool.Processor().Config().DefaultBaseID
	}
	if id == "" {
		return "", mcp.NewToolResultError("missing required parameter: base_id (no default base configured)")
	}
	return id, nil
}

func (s *Server) handleListBases(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	out, err := s.exec.ListBases(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("list_bases failed: %v", err)), nil
	}
	return jsonResult(out)
}

func (s *Server) handleListTables(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	baseID, errResult := s.baseID(request)
	if errResult != nil {
		return errResult, nil
	}
	out, err := s.exec.ListTables(ctx, baseID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("list_tables failed: %v", err)), nil
	}
	return jsonResult(out)
}

func (s *Server) handleGetBaseSchema(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	baseID, errResult := s.baseID(request)
	if errResult != nil {
		return errResult, nil
	}
	out, err := s.exec.GetBaseSchema(ctx, baseID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("get_base_schema failed: %v", err)), nil
	}
	return jsonResult(out)
}

func (s *Server) handleListRecords(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	table, err := request.RequireString("table")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: table"), nil
	}
	baseID, errResult := s.baseID(request)
	if errResult != nil {
		return errResult, nil
	}

	out, err := s.exec.ListRecords(ctx, baseID, table, nltool.ListOptions{
		FilterByFormula: request.GetString("filter_by_formula", ""),
		MaxRecords:      request.GetInt("max_records", 0),
		View:            request.GetString("view", ""),
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("list_records failed: %v", err)), nil
	}
	return jsonResult(out)
}
