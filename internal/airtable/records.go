package airtable

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/desarrollo032/airtable-mcp/internal/nltool"
)

// maxPageSize is the largest page Airtable serves.
const maxPageSize = 100

type recordPage struct {
	Records []any  `json:"records"`
	Offset  string `json:"offset"`
}

// ListRecords follows pagination until the table is exhausted or
// opts.MaxRecords records were read.
func (c *Client) ListRecords(ctx context.Context, baseID, table string, opts nltool.ListOptions) (nltool.Payload, error) {
	q := url.Values{}
	if opts.FilterByFormula != "" {
		q.Set("filterByFormula", opts.FilterByFormula)
	}
	if opts.View != "" {
		q.Set("view", opts.View)
	}
	if opts.MaxRecords > 0 {
		q.Set("maxRecords", strconv.Itoa(opts.MaxRecords))
	}
	for i, s := range opts.Sort {
		q.Set(fmt.Sprintf("sort[%d][field]", i), s.Field)
		if s.Direction != "" {
			q.Set(fmt.Sprintf("sort[%d][direction]", i), s.Direction)
		}
	}
	q.Set("pageSize", strconv.Itoa(maxPageSize))

	records := []any{}
	for {
		var page recordPage
		if err := c.do(ctx, http.MethodGet, recordsPath(baseID, table), q, nil, &page); err != nil {
			return nil, err
		}
		records = append(records, page.Records...)
		if page.Offset == "" || (opts.MaxRecords > 0 && len(records) >= opts.MaxRecords) {
			break
		}
		q.Set("offset", page.Offset)
	}
	if opts.MaxRecords > 0 && len(records) > opts.MaxRecords {
		records = records[:opts.MaxRecords]
	}
	return nltool.Payload{"records": records}, nil
}

// GetRecord fetches one record.
func (c *Client) GetRecord(ctx context.Context, baseID, table, recordID string) (nltool.Payload, error) {
	var out nltool.Payload
	err := c.do(ctx, http.MethodGet, recordsPath(baseID, table)+"/"+url.PathEscape(recordID), nil, nil, &out)
	return out, err
}

// CreateRecord creates one record. Values are typecast so select options
// given as plain strings are accepted.
func (c *Client) CreateRecord(ctx context.Context, baseID, table string, fields map[string]any) (nltool.Payload, error) {
	var out nltool.Payload
	body := map[string]any{"fields": fields, "typecast": true}
	if err := c.do(ctx, http.MethodPost, recordsPath(baseID, table), nil, body, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateRecord patches the given fields of one record.
func (c *Client) UpdateRecord(ctx context.Context, baseID, table, recordID string, fields map[string]any) (nltool.Payload, error) {
	var out nltool.Payload
	body := map[string]any{"fields": fields, "typecast": true}
	if err := c.do(ctx, http.MethodPatch, recordsPath(baseID, table)+"/"+url.PathEscape(recordID), nil, body, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteRecord deletes one record.
func (c *Client) DeleteRecord(ctx context.Context, baseID, table, recordID string) (nltool.Payload, error) {
	var out nltool.Payload
	if err := c.do(ctx, http.MethodDelete, recordsPath(baseID, table)+"/"+url.PathEscape(recordID), nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}
