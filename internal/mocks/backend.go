package mocks

import (
	"context"

	"github.com/phrazzld/sciencepath/internal/store"
	"github.com/stretchr/testify/mock"
)

// MockBackend is a testify mock of store.Backend.
type MockBackend struct {
	mock.Mock
}

var _ store.Backend = (*MockBackend)(nil)

// Get is a mock implementation of store.Backend.Get.
func (m *MockBackend) Get(ctx context.Context, key string) ([]byte, error) {
	args := m.Called(ctx, key)
	if data, ok := args.Get(0).([]byte); ok {
		return data, args.Error(1)
	}
	return nil, args.Error(1)
}

// Set is a mock implementation of store.Backend.Set.
func (m *MockBackend) Set(ctx context.Context, key string, value []byte) error {
	args := m.Called(ctx, key, value)
	return args.Error(0)
}

// Delete is a mock implementation of store.Backend.Delete.
func (m *MockBackend) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

// Keys is a mock implementation of store.Backend.Keys.
func (m *MockBackend) Keys(ctx context.Context, prefix string) ([]string, error) {
	args := m.Called(ctx, prefix)
	if keys, ok := args.Get(0).([]string); ok {
		return keys, args.Error(1)
	}
	return nil, args.Error(1)
}

// Apply is a mock implementation of store.Backend.Apply.
func (m *MockBackend) Apply(ctx context.Context, ops []store.Op) error {
	args := m.Called(ctx, ops)
	return args.Error(0)
}

// Close is a mock implementation of store.Backend.Close.
func (m *MockBackend) Close() error {
	args := m.Called()
	return args.Error(0)
}
