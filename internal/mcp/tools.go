package mcp

import "github.com/mark3labs/mcp-go/mcp"

// processNaturalLanguageTool defines the process_natural_language MCP tool.
var processNaturalLanguageTool = mcp.NewTool("process_natural_language",
	mcp.WithDescription("Run a Spanish or English natural-language request against Airtable (list, search, create, update or delete records, inspect tables and webhooks). Follow-up questions may refer to earlier ones, for example \"esa tabla\"."),
	mcp.WithString("query",
		mcp.Required(),
		mcp.Description("The request in natural language, e.g. \"listar registros de Tasks\""),
	),
	mcp.WithString("session_id",
		mcp.Description("Conversation id used to resolve references to earlier queries (default \"default\")"),
	),
	mcp.WithString("user_id",
		mcp.Description("User owning the conversation (default anonymous)"),
	),
)

// getNLPContextTool defines the get_nlp_context MCP tool.
var getNLPContextTool = mcp.NewTool("get_nlp_context",
	mcp.WithDescription("Get the conversation context of a session: current table, record and base, mentioned entities and the last queries."),
	mcp.WithString("session_id",
		mcp.Required(),
		mcp.Description("Conversation id"),
	),
	mcp.WithString("user_id",
		mcp.Description("User owning the conversation (default anonymous)"),
	),
)

// clearNLPContextTool defines the clear_nlp_context MCP tool.
var clearNLPContextTool = mcp.NewTool("clear_nlp_context",
	mcp.WithDescription("Forget the conversation context of a session."),
	mcp.WithString("session_id",
		mcp.Required(),
		mcp.Description("Conversation id"),
	),
	mcp.WithString("user_id",
		mcp.Description("User owning the conversation (default anonymous)"),
	),
)
