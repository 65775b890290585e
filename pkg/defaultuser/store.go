// Package defaultuser remembers the last identity used against a backend.
//
// Entries are keyed by the value the configured fakts key resolves to at call
// time, so pointing fakts at another backend never offers the old backend's
// user. All entries live in one JSON blob in a settings.Backend and are
// rewritten as a whole on every put. Concurrent puts race; the last write wins.
package defaultuser

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"herre/pkg/fakts"
	"herre/pkg/logger"
	"herre/pkg/metrics"
	"herre/pkg/settings"
	"herre/pkg/token"
)

const DefaultStorageKey = "default_user_fakts"

// ErrPersistedStateCorrupt marks a stored blob that could not be parsed. It is
// logged and recovered from, never returned.
var ErrPersistedStateCorrupt = errors.New("defaultuser: persisted state is corrupt")

// StoredUser is a fetched identity together with the token it was fetched with.
type StoredUser[T any] struct {
	User  T           `json:"user"`
	Token token.Token `json:"token"`
}

type recordSet[T any] struct {
	DefaultUser map[string]*StoredUser[T] `json:"default_user"`
}

type Option func(*options)

type options struct {
	storageKey string
	log        *zap.SugaredLogger
}

// WithStorageKey sets the settings key holding the blob.
func WithStorageKey(key string) Option { return func(o *options) { o.storageKey = key } }

func WithLogger(log *zap.SugaredLogger) Option { return func(o *options) { o.log = log } }

type Store[T any] struct {
	backend    settings.Backend
	source     fakts.Source
	faktsKey   string
	storageKey string
	log        *zap.SugaredLogger
}

func NewStore[T any](backend settings.Backend, source fakts.Source, faktsKey string, opts ...Option) *Store[T] {
	o := options{storageKey: DefaultStorageKey}
	for _, opt := range opts {
		opt(&o)
	}
	return &Store[T]{
		backend:    backend,
		source:     source,
		faktsKey:   faktsKey,
		storageKey: o.storageKey,
		log:        logger.OrNop(o.log),
	}
}

// PutDefaultUser stores user for the current endpoint. A nil user removes
// the entry.
func (s *Store[T]) PutDefaultUser(ctx context.Context, user *StoredUser[T]) (err error) {
	op := "put"
	if user == nil {
		op = "delete"
	}
	defer func() { observe(op, err) }()

	endpoint, err := fakts.ResolveString(ctx, s.source, s.faktsKey)
	if err != nil {
		return err
	}
	records, err := s.load(ctx)
	if errors.Is(err, ErrPersistedStateCorrupt) {
		s.log.Debugw("discarding stored default users", "key", s.storageKey, "err", err)
		records = map[string]*StoredUser[T]{}
	} else if err != nil {
		return err
	}

	if user == nil {
		if _, ok := records[endpoint]; !ok {
			return nil
		}
		delete(records, endpoint)
	} else {
		records[endpoint] = user
	}

	raw, err := json.Marshal(recordSet[T]{DefaultUser: records})
	if err != nil {
		return fmt.Errorf("encode default users: %w", err)
	}
	if err := s.backend.SetValue(ctx, s.storageKey, string(raw)); err != nil {
		return fmt.Errorf("store default users: %w", err)
	}
	return nil
}

// GetDefaultUser returns the stored user for the current endpoint, or nil.
// A corrupt blob reads as no user.
func (s *Store[T]) GetDefaultUser(ctx context.Context) (user *StoredUser[T], err error) {
	defer func() { observe("get", err) }()

	endpoint, err := fakts.ResolveString(ctx, s.source, s.faktsKey)
	if err != nil {
		return nil, err
	}
	records, err := s.load(ctx)
	if errors.Is(err, ErrPersistedStateCorrupt) {
		s.log.Warnw("could not load default user", "key", s.storageKey, "err", err)
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return records[endpoint], nil
}

func (s *Store[T]) load(ctx context.Context) (map[string]*StoredUser[T], error) {
	raw, ok, err := s.backend.Value(ctx, s.storageKey)
	if err != nil {
		return nil, fmt.Errorf("load default users: %w", err)
	}
	if !ok || raw == "" {
		return map[string]*StoredUser[T]{}, nil
	}
	var rs recordSet[T]
	if err := json.Unmarshal([]byte(raw), &rs); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistedStateCorrupt, err)
	}
	if rs.DefaultUser == nil {
		rs.DefaultUser = map[string]*StoredUser[T]{}
	}
	return rs.DefaultUser, nil
}

func observe(op string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	metrics.DefaultUserOps.WithLabelValues(op, result).Inc()
}
