package grants

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"herre/pkg/metrics"
)

var ErrUnregisteredGrant = errors.New("grants: no grant registered")

// UnregisteredGrantError is returned by Resolve for a type nobody registered.
type UnregisteredGrantError struct {
	Type GrantType
}

func (e *UnregisteredGrantError) Error() string {
	return fmt.Sprintf("grants: no grant registered for type %q", e.Type)
}

func (e *UnregisteredGrantError) Is(target error) bool { return target == ErrUnregisteredGrant }

// Registry maps grant types to builders. The zero value is ready to use.
type Registry struct {
	mu       sync.RWMutex
	builders map[GrantType]Builder
}

func NewRegistry() *Registry { return &Registry{builders: map[GrantType]Builder{}} }

// DefaultRegistry returns a registry with the built-in static and
// client-credentials builders. Authorization-code is left for callers.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(Static, NewStaticGrant)
	r.Register(ClientCredentials, NewClientCredentialsGrant)
	return r
}

// Register inserts or silently replaces the builder for t.
func (r *Registry) Register(t GrantType, b Builder) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.builders == nil {
		r.builders = map[GrantType]Builder{}
	}
	r.builders[t] = b
}

// Resolve returns the builder for t. There is no fallback grant.
func (r *Registry) Resolve(t GrantType) (Builder, error) {
	r.mu.RLock()
	b, ok := r.builders[t]
	r.mu.RUnlock()
	if !ok || b == nil {
		metrics.GrantResolutions.WithLabelValues(string(t), "unregistered").Inc()
		return nil, &UnregisteredGrantError{Type: t}
	}
	metrics.GrantResolutions.WithLabelValues(string(t), "ok").Inc()
	return b, nil
}

// Build resolves t and invokes its builder.
func (r *Registry) Build(t GrantType, cfg Config) (Grant, error) {
	b, err := r.Resolve(t)
	if err != nil {
		return nil, err
	}
	g, err := b(cfg)
	if err != nil {
		return nil, fmt.Errorf("build %s grant: %w", t, err)
	}
	return g, nil
}

// Types lists the registered grant types in sorted order.
func (r *Registry) Types() []GrantType {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]GrantType, 0, len(r.builders))
	for t := range r.builders {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
