// Package memory provides an in-process key-value backend with a capacity
// ceiling, the same shape as a browser's per-origin storage.
package memory

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"

	"github.com/phrazzld/sciencepath/internal/store"
)

// Backend is a map guarded by a mutex. A quota of zero disables the ceiling.
type Backend struct {
	mu     sync.RWMutex
	data   map[string][]byte
	size   int
	quota  int
	closed bool
}

var _ store.Backend = (*Backend)(nil)

// New creates an empty backend limited to quota bytes of keys plus values.
func New(quota int) *Backend {
	return &Backend{
		data:  make(map[string][]byte),
		quota: quota,
	}
}

// Get implements store.Backend.
func (b *Backend) Get(_ context.Context, key string) ([]byte, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return nil, store.ErrClosed
	}
	v, ok := b.data[key]
	if !ok {
		return nil, store.ErrNotFound
	}
	return slices.Clone(v), nil
}

// Set implements store.Backend.
func (b *Backend) Set(ctx context.Context, key string, value []byte) error {
	return b.Apply(ctx, []store.Op{store.SetOp(key, value)})
}

// Delete implements store.Backend.
func (b *Backend) Delete(ctx context.Context, key string) error {
	return b.Apply(ctx, []store.Op{store.DeleteOp(key)})
}

// Keys implements store.Backend. Keys come back sorted.
func (b *Backend) Keys(_ context.Context, prefix string) ([]string, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return nil, store.ErrClosed
	}
	keys := make([]string, 0)
	for k := range b.data {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	slices.Sort(keys)
	return keys, nil
}

// Apply implements store.Backend. The batch is staged on a copy and swapped
// in only when it fits the quota.
func (b *Backend) Apply(_ context.Context, ops []store.Op) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return store.ErrClosed
	}

	next := maps.Clone(b.data)
	size := b.size
	for _, op := range ops {
		if op.Key == "" {
			return store.ErrInvalidOp
		}
		if old, ok := next[op.Key]; ok {
			size -= len(op.Key) + len(old)
			delete(next, op.Key)
		}
		switch op.Kind {
		case store.OpSet:
			next[op.Key] = slices.Clone(op.Value)
			size += len(op.Key) + len(op.Value)
		case store.OpDelete:
		default:
			return fmt.Errorf("%w: kind %d", store.ErrInvalidOp, op.Kind)
		}
	}

	if b.quota > 0 && size > b.quota {
		return fmt.Errorf("%w: %d of %d bytes", store.ErrQuotaExceeded, size, b.quota)
	}

	b.data = next
	b.size = size
	return nil
}

// Size returns the bytes currently used.
func (b *Backend) Size() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.size
}

// Close implements store.Backend.
func (b *Backend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	return nil
}
