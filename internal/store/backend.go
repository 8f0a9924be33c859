package store

import (
	"context"
	"fmt"
)

// Backend is a durable string key-value store.
//
// Get returns ErrNotFound for a missing key. Apply executes every operation
// or none of them.
type Backend interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Keys(ctx context.Context, prefix string) ([]string, error)
	Apply(ctx context.Context, ops []Op) error
	Close() error
}

// OpKind identifies a batch operation.
type OpKind int

// Batch operation kinds.
const (
	OpSet OpKind = iota + 1
	OpDelete
)

// String returns the operation name used in logs and errors.
func (k OpKind) String() string {
	switch k {
	case OpSet:
		return "set"
	case OpDelete:
		return "delete"
	default:
		return "unknown"
	}
}

// Op is one write inside an atomic batch.
type Op struct {
	Kind  OpKind
	Key   string
	Value []byte
}

// SetOp returns an operation that writes value under key.
func SetOp(key string, value []byte) Op {
	return Op{Kind: OpSet, Key: key, Value: value}
}

// DeleteOp returns an operation that removes key. Deleting a missing key is
// not an error.
func DeleteOp(key string) Op {
	return Op{Kind: OpDelete, Key: key}
}

// ValidateOps checks a batch before any of it is executed.
func ValidateOps(ops []Op) error {
	for i, op := range ops {
		if op.Key == "" {
			return fmt.Errorf("%w: op %d has no key", ErrInvalidOp, i)
		}
		if op.Kind != OpSet && op.Kind != OpDelete {
			return fmt.Errorf("%w: op %d has kind %d", ErrInvalidOp, i, op.Kind)
		}
	}
	return nil
}
