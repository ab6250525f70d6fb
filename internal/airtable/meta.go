package airtable

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/desarrollo032/airtable-mcp/internal/nltool"
)

type basesPage struct {
	Bases  []any  `json:"bases"`
	Offset string `json:"offset"`
}

// ListBases returns every base the token can access.
func (c *Client) ListBases(ctx context.Context) (nltool.Payload, error) {
	bases := []any{}
	q := url.Values{}
	for {
		var page basesPage
		if err := c.do(ctx, http.MethodGet, "/meta/bases", q, nil, &page); err != nil {
			return nil, err
		}
		bases = append(bases, page.Bases...)
		if page.Offset == "" {
			break
		}
		q.Set("offset", page.Offset)
	}
	return nltool.Payload{"bases": bases}, nil
}

type tableSchema struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	PrimaryFieldID string `json:"primaryFieldId"`
	Description    string `json:"description,omitempty"`
	Fields         []any  `json:"fields"`
	Views          []any  `json:"views"`
}

func (c *Client) tables(ctx context.Context, baseID string) ([]tableSchema, error) {
	var out struct {
		Tables []tableSchema `json:"tables"`
	}
	if err := c.do(ctx, http.MethodGet, metaPath(baseID, "tables"), nil, nil, &out); err != nil {
		return nil, err
	}
	return out.Tables, nil
}

// GetBaseSchema returns the full schema: every table with its fields and
// views.
func (c *Client) GetBaseSchema(ctx context.Context, baseID string) (nltool.Payload, error) {
	tables, err := c.tables(ctx, baseID)
	if err != nil {
		return nil, err
	}
	list := make([]any, 0, len(tables))
	for _, t := range tables {
		list = append(list, tableMap(t, true))
	}
	return nltool.Payload{"base_id": baseID, "tables": list}, nil
}

// ListTables returns the tables of a base without their field definitions.
func (c *Client) ListTables(ctx context.Context, baseID string) (nltool.Payload, error) {
	tables, err := c.tables(ctx, baseID)
	if err != nil {
		return nil, err
	}
	list := make([]any, 0, len(tables))
	for _, t := range tables {
		list = append(list, tableMap(t, false))
	}
	return nltool.Payload{"tables": list}, nil
}

// DescribeTable returns one table's schema. table matches an id exactly or
// a name case-insensitively.
func (c *Client) DescribeTable(ctx context.Context, baseID, table string) (nltool.Payload, error) {
	t, err := c.findTable(ctx, baseID, table)
	if err != nil {
		return nil, err
	}
	return tableMap(t, true), nil
}

func (c *Client) findTable(ctx context.Context, baseID, table string) (tableSchema, error) {
	tables, err := c.tables(ctx, baseID)
	if err != nil {
		return tableSchema{}, err
	}
	for _, t := range tables {
		if t.ID == table || strings.EqualFold(t.Name, table) {
			return t, nil
		}
	}
	return tableSchema{}, fmt.Errorf("%w: %q in base %s", ErrTableNotFound, table, baseID)
}

func tableMap(t tableSchema, full bool) map[string]any {
	m := map[string]any{
		"id":             t.ID,
		"name":           t.Name,
		"primaryFieldId": t.PrimaryFieldID,
	}
	if t.Description != "" {
		m["description"] = t.Description
	}
	if full {
		m["fields"] = nonNil(t.Fields)
		m["views"] = nonNil(t.Views)
	}
	return m
}

func nonNil(v []any) []any {
	if v == nil {
		return []any{}
	}
	return v
}
