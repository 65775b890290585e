// Package settings is the key/value persistence the default-user store
// writes through. Values are opaque strings.
package settings

import (
	"context"
	"sync"
)

// Backend is a minimal get/set store. Value reports ok=false for an absent key.
type Backend interface {
	Value(ctx context.Context, key string) (value string, ok bool, err error)
	SetValue(ctx context.Context, key, value string) error
}

// MemoryBackend keeps settings in process; used in tests and for the
// "memory" backend.
type MemoryBackend struct {
	mu     sync.RWMutex
	values map[string]string
}

func NewMemoryBackend() *MemoryBackend { return &MemoryBackend{values: map[string]string{}} }

func (m *MemoryBackend) Value(_ context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *MemoryBackend) SetValue(_ context.Context, key, value string) error {
	m.mu.Lock()
	m.values[key] = value
	m.mu.Unlock()
	return nil
}
