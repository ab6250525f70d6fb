package mcp

import (
	"github.com/mark3labs/mcp-go/server"

	"github.com/desarrollo032/airtable-mcp/internal/nltool"
)

// Version is set via ldflags at build time.
var Version = "dev"

// Server wraps an MCP server exposing the natural-language tool and direct
// Airtable tools.
type Server struct {
	tool *nltool.Tool
	exec nltool.Executor
	mcp  *server.MCPServer
}

// NewServer creates a new MCP server. When exec is nil only the
// natural-language tools are registered.
func NewServer(tool *nltool.Tool, exec nltool.Executor) *Server {
	s := &Server{
		tool: tool,
		exec: exec,
	}

	s.mcp = server.NewMCPServer(
		"airtable-mcp",
		Version,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
	)

	s.registerTools()
	if exec != nil {
		s.registerAirtableTools()
	}

	return s
}

// registerTools adds the natural-language tool definitions and handlers.
func (s *Server) registerTools() {
	s.mcp.AddTool(processNaturalLanguageTool, s.handleProcessNaturalLanguage)
	s.mcp.AddTool(getNLPContextTool, s.handleGetNLPContext)
	s.mcp.AddTool(clearNLPContextTool, s.handleClearNLPContext)
}

// Serve starts the MCP server on stdio. Stdout is used for MCP protocol
// messages; all logging must go to stderr.
func (s *Server) Serve() error {
	return server.ServeStdio(s.mcp)
}
