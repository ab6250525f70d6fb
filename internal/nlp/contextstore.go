package nlp

import (
	"context"
	"sync"
)

// ContextStore persists conversation contexts by session key. Get reports
// found=false for unknown keys; an error means the backend itself failed.
type ContextStore interface {
	Get(ctx context.Context, key string) (*ConversationContext, bool, error)
	Put(ctx context.Context, key string, c *ConversationContext) error
	Delete(ctx context.Context, key string) error
}

// MemoryStore is a process-local ContextStore. It stores and returns deep
// copies so callers never share slices with the map.
type MemoryStore struct {
	mu       sync.RWMutex
	contexts map[string]*ConversationContext
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{contexts: make(map[string]*ConversationContext)}
}

func (m *MemoryStore) Get(_ context.Context, key string) (*ConversationContext, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.contexts[key]
	if !ok {
		return nil, false, nil
	}
	return c.Clone(), true, nil
}

func (m *MemoryStore) Put(_ context.Context, key string, c *ConversationContext) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.contexts[key] = c.Clone()
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.contexts, key)
	return nil
}

// Len returns the number of stored sessions.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.contexts)
}
