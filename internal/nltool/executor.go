package nltool

import (
	"context"

	"github.com/desarrollo032/airtable-mcp/internal/nlp"
)

// Payload is the JSON-like result of an Airtable operation.
type Payload = map[string]any

// ListOptions narrows a record listing.
type ListOptions struct {
	FilterByFormula string
	MaxRecords      int
	View            string
	Sort            []nlp.SortSpec
}

// Executor runs resolved intents against Airtable. Implementations return a
// descriptive error when the operation fails.
type Executor interface {
	ListBases(ctx context.Context) (Payload, error)
	ListTables(ctx context.Context, baseID string) (Payload, error)
	GetBaseSchema(ctx context.Context, baseID string) (Payload, error)
	DescribeTable(ctx context.Context, baseID, table string) (Payload, error)
	ListRecords(ctx context.Context, baseID, table string, opts ListOptions) (Payload, error)
	CreateRecord(ctx context.Context, baseID, table string, fields map[string]any) (Payload, error)
	UpdateRecord(ctx context.Context, baseID, table, recordID string, fields map[string]any) (Payload, error)
	DeleteRecord(ctx context.Context, baseID, table, recordID string) (Payload, error)
	CreateWebhook(ctx context.Context, baseID, table string, config map[string]any) (Payload, error)
	ListWebhooks(ctx context.Context, baseID string) (Payload, error)
	DeleteWebhook(ctx context.Context, baseID, webhookID string) (Payload, error)
}
