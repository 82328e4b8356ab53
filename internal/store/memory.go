package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/upmonhq/upmon/internal/common"
)

// Memory is an in-process Store keeping records as marshalled JSON. The
// marshalling round-trip gives callers the same copy semantics as the
// durable backends, so tests exercise identical behavior.
type Memory struct {
	mu   sync.RWMutex
	data map[string]map[string][]byte
}

func NewMemory() *Memory {
	return &Memory{data: make(map[string]map[string][]byte)}
}

func (m *Memory) Create(ctx context.Context, collection, id string, record any) error {
	b, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("%w: marshal: %v", common.ErrStore, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	coll, ok := m.data[collection]
	if !ok {
		coll = make(map[string][]byte)
		m.data[collection] = coll
	}
	if _, exists := coll[id]; exists {
		return common.ErrAlreadyExists
	}
	coll[id] = b
	return nil
}

func (m *Memory) Read(ctx context.Context, collection, id string, out any) error {
	m.mu.RLock()
	b, ok := m.data[collection][id]
	m.mu.RUnlock()
	if !ok {
		return common.ErrNotFound
	}
	if err := json.Unmarshal(b, out); err != nil {
		return fmt.Errorf("%w: unmarshal: %v", common.ErrStore, err)
	}
	return nil
}

func (m *Memory) Update(ctx context.Context, collection, id string, record any) error {
	b, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("%w: marshal: %v", common.ErrStore, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.data[collection][id]; !ok {
		return common.ErrNotFound
	}
	m.data[collection][id] = b
	return nil
}

func (m *Memory) Delete(ctx context.Context, collection, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.data[collection][id]; !ok {
		return common.ErrNotFound
	}
	delete(m.data[collection], id)
	return nil
}
