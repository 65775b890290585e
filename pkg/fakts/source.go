// Package fakts resolves runtime configuration values ("fakts") from an
// external, mutable source. Callers resolve a key at the moment of use and
// never cache the result across calls: the source stays authoritative.
package fakts

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrKeyNotFound is returned by sources that hold no value for a key.
	ErrKeyNotFound = errors.New("fakts: key not found")
	// ErrConfigResolution marks a failed or ill-typed resolution. It is a
	// configuration error and is never retried.
	ErrConfigResolution = errors.New("fakts: config resolution failed")
)

// Source is an async key/value resolver.
type Source interface {
	Get(ctx context.Context, key string) (any, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context, key string) (any, error)

func (f SourceFunc) Get(ctx context.Context, key string) (any, error) { return f(ctx, key) }

// ResolutionError describes why a key could not be resolved to a usable value.
type ResolutionError struct {
	Key   string
	Value any   // offending value when the type was wrong
	Cause error // source failure, nil for type mismatches
}

func (e *ResolutionError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("fakts: resolve %q: %v", e.Key, e.Cause)
	}
	return fmt.Sprintf("fakts: value for %q is %T, expected string", e.Key, e.Value)
}

func (e *ResolutionError) Unwrap() error { return e.Cause }

func (e *ResolutionError) Is(target error) bool { return target == ErrConfigResolution }

// ResolveString resolves key and requires the value to be a non-empty string.
func ResolveString(ctx context.Context, src Source, key string) (string, error) {
	if src == nil {
		return "", &ResolutionError{Key: key, Cause: errors.New("no fakts source configured")}
	}
	v, err := src.Get(ctx, key)
	if err != nil {
		return "", &ResolutionError{Key: key, Cause: err}
	}
	s, ok := v.(string)
	if !ok || s == "" {
		return "", &ResolutionError{Key: key, Value: v}
	}
	return s, nil
}
