package tokenstore

import (
	"context"
	"sync"
)

// MemoryStore keeps the token in process memory. It does not survive a
// restart and is meant for tests and one-shot runs.
type MemoryStore struct {
	mu  sync.RWMutex
	tok *Token
}

// NewMemoryStore creates an empty in-memory token store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Get(_ context.Context) (*Token, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.tok == nil {
		return nil, ErrTokenNotFound
	}
	cp := *m.tok
	return &cp, nil
}

func (m *MemoryStore) Set(_ context.Context, tok *Token) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *tok
	m.tok = &cp
	return nil
}

func (m *MemoryStore) Delete(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tok = nil
	return nil
}

func (m *MemoryStore) Close() error { return nil }
