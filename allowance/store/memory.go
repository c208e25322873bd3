// Package store provides Gateway implementations.
package store

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/warp/allowance-engine/allowance"
)

// =============================================================================
// MEMORY GATEWAY - In-memory implementation (for testing/dev)
// =============================================================================

// Memory keeps each aggregate as serialized JSON. Round-tripping through
// JSON on Load/Save gives the same copy semantics as a real database:
// callers never share pointers with the store, and the persisted field
// layout is exercised in tests.
type Memory struct {
	mu    sync.RWMutex
	blobs map[string][]byte

	// FailSaves makes every Save fail. For persistence-error tests.
	FailSaves error
}

func NewMemory() *Memory {
	return &Memory{blobs: make(map[string][]byte)}
}

func (m *Memory) Load(_ context.Context, userID string) (*allowance.Aggregate, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	blob, ok := m.blobs[userID]
	if !ok {
		return nil, allowance.ErrUserNotFound
	}
	var agg allowance.Aggregate
	if err := json.Unmarshal(blob, &agg); err != nil {
		return nil, &allowance.PersistenceError{Op: "load", Err: err}
	}
	return &agg, nil
}

func (m *Memory) Save(_ context.Context, userID string, agg *allowance.Aggregate) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.FailSaves != nil {
		return &allowance.PersistenceError{Op: "save", Err: m.FailSaves}
	}
	blob, err := json.Marshal(agg)
	if err != nil {
		return &allowance.PersistenceError{Op: "save", Err: err}
	}
	m.blobs[userID] = blob
	return nil
}
