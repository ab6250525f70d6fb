// Package airtable is a REST client for the Airtable Web API. Client
// implements nltool.Executor.
package airtable

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/desarrollo032/airtable-mcp/internal/config"
)

// Client talks to one Airtable API endpoint with a personal access token.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
	limiter *limiter
	log     logrus.FieldLogger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// NewClient builds a client from the airtable config section.
func NewClient(cfg config.AirtableConfig, log logrus.FieldLogger, opts ...Option) *Client {
	if log == nil {
		log = logrus.StandardLogger()
	}
	c := &Client{
		baseURL: strings.TrimRight(cfg.APIURL, "/"),
		token:   cfg.Token,
		http:    &http.Client{Timeout: cfg.Timeout},
		limiter: newLimiter(cfg.RequestsPerSecond),
		log:     log,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// do sends one request. body is JSON-encoded when non-nil and the response
// is decoded into out when non-nil.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	if err := c.limiter.wait(ctx); err != nil {
		return err
	}

	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal %s %s body: %w", method, path, err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("airtable %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read airtable response: %w", err)
	}

	c.log.WithFields(logrus.Fields{
		"method": method,
		"path":   path,
		"status": resp.StatusCode,
	}).Debug("airtable request")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return parseAPIError(resp.StatusCode, data)
	}
	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode airtable response: %w", err)
	}
	return nil
}

func recordsPath(baseID, table string) string {
	return "/" + url.PathEscape(baseID) + "/" + url.PathEscape(table)
}

func metaPath(baseID string, parts ...string) string {
	p := "/meta/bases/" + url.PathEscape(baseID)
	for _, part := range parts {
		p += "/" + url.PathEscape(part)
	}
	return p
}
