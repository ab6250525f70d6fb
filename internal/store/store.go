// Package store holds the persistent nlp.ContextStore backends. Contexts are
// stored as JSON documents keyed by the canonical session key.
package store

import (
	"encoding/json"
	"fmt"

	"github.com/desarrollo032/airtable-mcp/internal/nlp"
)

func encode(c *nlp.ConversationContext) ([]byte, error) {
	data, err := json.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("encoding context: %w", err)
	}
	return data, nil
}

func decode(data []byte) (*nlp.ConversationContext, error) {
	var c nlp.ConversationContext
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("decoding context: %w", err)
	}
	return &c, nil
}
