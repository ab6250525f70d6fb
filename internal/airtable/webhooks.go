package airtable

import (
	"context"
	"net/http"

	"github.com/desarrollo032/airtable-mcp/internal/nltool"
)

// ListWebhooks returns the webhooks registered on a base.
func (c *Client) ListWebhooks(ctx context.Context, baseID string) (nltool.Payload, error) {
	var out struct {
		Webhooks []any `json:"webhooks"`
	}
	if err := c.do(ctx, http.MethodGet, metaPath(baseID, "webhooks"), nil, nil, &out); err != nil {
		return nil, err
	}
	if out.Webhooks == nil {
		out.Webhooks = []any{}
	}
	return nltool.Payload{"webhooks": out.Webhooks}, nil
}

// CreateWebhook registers a webhook on table. A config carrying only a
// notificationUrl gets a specification watching record changes on that
// table; a config with its own specification is sent as is.
func (c *Client) CreateWebhook(ctx context.Context, baseID, table string, cfg map[string]any) (nltool.Payload, error) {
	body := make(map[string]any, len(cfg)+1)
	for k, v := range cfg {
		body[k] = v
	}
	if _, ok := body["specification"]; !ok {
		t, err := c.findTable(ctx, baseID, table)
		if err != nil {
			return nil, err
		}
		body["specification"] = map[string]any{
			"options": map[string]any{
				"filters": map[string]any{
					"dataTypes":         []string{"tableData"},
					"recordChangeScope": t.ID,
				},
			},
		}
	}

	var out nltool.Payload
	if err := c.do(ctx, http.MethodPost, metaPath(baseID, "webhooks"), nil, body, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteWebhook removes a webhook. Airtable answers with an empty body.
func (c *Client) DeleteWebhook(ctx context.Context, baseID, webhookID string) (nltool.Payload, error) {
	if err := c.do(ctx, http.MethodDelete, metaPath(baseID, "webhooks", webhookID), nil, nil, nil); err != nil {
		return nil, err
	}
	return nltool.Payload{"id": webhookID, "deleted": true}, nil
}

var _ nltool.Executor = (*Client)(nil)
