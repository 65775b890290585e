package fakts

import (
	"context"
	"encoding/json"
	"os"
	"sync"

	"go.uber.org/zap"

	"herre/pkg/logger"
)

// MemorySource holds fakts in process. Values can be replaced at runtime
// with Set, which is how tests simulate a backend switch.
type MemorySource struct {
	mu     sync.RWMutex
	values map[string]any
}

func NewMemorySource(values map[string]any) *MemorySource {
	m := &MemorySource{values: map[string]any{}}
	for k, v := range values {
		m.values[k] = v
	}
	return m
}

// NewMemorySourceFromEnv seeds a MemorySource from HERRE_FAKTS_SEED_JSON,
// a JSON object such as {"lok": {"userinfo_url": "https://..."}}.
func NewMemorySourceFromEnv(log *zap.SugaredLogger) *MemorySource {
	log = logger.OrNop(log)
	m := NewMemorySource(nil)
	seed := os.Getenv("HERRE_FAKTS_SEED_JSON")
	if seed == "" {
		return m
	}
	var doc map[string]any
	if err := json.Unmarshal([]byte(seed), &doc); err != nil {
		log.Warnw("fakts seed ignored", "err", err)
		return m
	}
	if doc != nil {
		m.values = doc
	}
	return m
}

func (m *MemorySource) Get(_ context.Context, key string) (any, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return lookup(m.values, key)
}

func (m *MemorySource) Set(key string, value any) {
	m.mu.Lock()
	m.values[key] = value
	m.mu.Unlock()
}

func (m *MemorySource) Delete(key string) {
	m.mu.Lock()
	delete(m.values, key)
	m.mu.Unlock()
}
