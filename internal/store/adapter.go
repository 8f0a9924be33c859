package store

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
)

// Reporter receives every failure the Adapter absorbs.
type Reporter func(ctx context.Context, err error)

// Adapter wraps a Backend with namespaced keys and JSON encoding.
//
// Reads never fail outward: missing keys, backend errors and malformed
// values all come back as "no data" after being logged and reported.
// Single writes return the error for callers that care, after logging it.
// Apply is the only way to change several keys atomically.
type Adapter struct {
	backend  Backend
	keys     Keys
	logger   *slog.Logger
	reporter Reporter
}

// Option configures an Adapter.
type Option func(*Adapter)

// WithReporter installs a callback for absorbed failures.
func WithReporter(r Reporter) Option {
	return func(a *Adapter) {
		a.reporter = r
	}
}

// NewAdapter creates an Adapter over backend with keys under namespace.
func NewAdapter(backend Backend, namespace string, logger *slog.Logger, opts ...Option) *Adapter {
	if logger == nil {
		logger = slog.Default()
	}
	a := &Adapter{
		backend: backend,
		keys:    NewKeys(namespace),
		logger:  logger.With(slog.String("component", "store")),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Keys returns the key builder for this adapter's namespace.
func (a *Adapter) Keys() Keys {
	return a.keys
}

// Get returns the raw value for key. It reports false when the key is
// missing or the backend failed.
func (a *Adapter) Get(ctx context.Context, key string) ([]byte, bool) {
	data, err := a.backend.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			a.absorb(ctx, NewStoreError(key, "get", "read failed", err))
		}
		return nil, false
	}
	return data, true
}

// Set writes value under key.
func (a *Adapter) Set(ctx context.Context, key string, value []byte) error {
	if err := a.backend.Set(ctx, key, value); err != nil {
		storeErr := NewStoreError(key, "set", "write failed", err)
		a.absorb(ctx, storeErr)
		return storeErr
	}
	return nil
}

// SetJSON encodes v and writes it under key.
func (a *Adapter) SetJSON(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		storeErr := NewStoreError(key, "set", "encode failed", err)
		a.absorb(ctx, storeErr)
		return storeErr
	}
	return a.Set(ctx, key, data)
}

// Remove deletes key. Removing a missing key succeeds.
func (a *Adapter) Remove(ctx context.Context, key string) error {
	if err := a.backend.Delete(ctx, key); err != nil {
		storeErr := NewStoreError(key, "delete", "delete failed", err)
		a.absorb(ctx, storeErr)
		return storeErr
	}
	return nil
}

// List returns every key starting with prefix, or nothing on failure.
func (a *Adapter) List(ctx context.Context, prefix string) []string {
	keys, err := a.backend.Keys(ctx, prefix)
	if err != nil {
		a.absorb(ctx, NewStoreError(prefix, "keys", "list failed", err))
		return nil
	}
	return keys
}

// Apply runs ops as one atomic batch.
func (a *Adapter) Apply(ctx context.Context, ops []Op) error {
	if len(ops) == 0 {
		return nil
	}
	if err := a.backend.Apply(ctx, ops); err != nil {
		storeErr := NewStoreError("", "apply", "batch failed", err)
		a.absorb(ctx, storeErr)
		return storeErr
	}
	a.logger.DebugContext(ctx, "batch applied", slog.Int("ops", len(ops)))
	return nil
}

// Close releases the backend.
func (a *Adapter) Close() error {
	return a.backend.Close()
}

func (a *Adapter) absorb(ctx context.Context, err error) {
	a.logger.WarnContext(ctx, "storage failure absorbed", slog.String("error", err.Error()))
	if a.reporter != nil {
		a.reporter(ctx, err)
	}
}

// GetJSON reads key and decodes it into a T. A malformed value is reported
// and left in place; the caller gets a Result with Err set.
func GetJSON[T any](ctx context.Context, a *Adapter, key string) Result[T] {
	data, ok := a.Get(ctx, key)
	if !ok {
		return Result[T]{}
	}
	res := Decode[T](data)
	if res.Err != nil {
		a.absorb(ctx, NewStoreError(key, "get", "malformed value", res.Err))
	}
	return res
}
