package mcp

import "github.com/mark3labs/mcp-go/mcp"

// listBasesTool defines the list_bases MCP tool.
var listBasesTool = mcp.NewTool("list_bases",
	mcp.WithDescription("List the Airtable bases the configured token can access."),
)

// listTablesTool defines the list_tables MCP tool.
var listTablesTool = mcp.NewTool("list_tables",
	mcp.WithDescription("List the tables of an Airtable base."),
	mcp.WithString("base_id",
		mcp.Description("Base id (app...). Defaults to the configured base."),
	),
)

// getBaseSchemaTool defines the get_base_schema MCP tool.
var getBaseSchemaTool = mcp.NewTool("get_base_schema",
	mcp.WithDescription("Get the full schema of an Airtable base: tables, fields and views."),
	mcp.WithString("base_id",
		mcp.Description("Base id (app...). Defaults to the configured base."),
	),
)

// listRecordsTool defines the list_records MCP tool.
var listRecordsTool = mcp.NewTool("list_records",
	mcp.WithDescription("List records of an Airtable table, optionally filtered by a formula."),
	mcp.WithString("table",
		mcp.Required(),
		mcp.Description("Table name or id"),
	),
	mcp.WithString("base_id",
		mcp.Description("Base id (app...). Defaults to the configured base."),
	),
	mcp.WithString("filter_by_formula",
		mcp.Description("Airtable formula, e.g. {Estado} = 'Activo'"),
	),
	mcp.WithNumber("max_records",
		mcp.Description("Maximum number of records to return"),
	),
	mcp.WithString("view",
		mcp.Description("View name or id"),
	),
)
