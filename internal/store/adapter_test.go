package store_test

import (
	"context"
	"errors"
	"testing"

	"github.com/phrazzld/sciencepath/internal/domain"
	"github.com/phrazzld/sciencepath/internal/mocks"
	"github.com/phrazzld/sciencepath/internal/platform/logger"
	"github.com/phrazzld/sciencepath/internal/platform/memory"
	"github.com/phrazzld/sciencepath/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestKeys(t *testing.T) {
	t.Parallel()
	k := store.NewKeys("science")

	assert.Equal(t, "science:users", k.Users())
	assert.Equal(t, "science:active-user", k.ActiveUser())
	assert.Equal(t, "science:progress:u-1", k.Progress("u-1"))

	id, ok := k.ProgressUserID("science:progress:u-1")
	assert.True(t, ok)
	assert.Equal(t, "u-1", id)

	_, ok = k.ProgressUserID("science:users")
	assert.False(t, ok)
	_, ok = k.ProgressUserID("science:progress:")
	assert.False(t, ok)
}

func TestAdapter_JSONRoundTrip(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	a := store.NewAdapter(memory.New(0), "science", nil)

	ledger := domain.NewLedger()
	ledger.MarkLessonComplete("matter", 2)
	require.NoError(t, a.SetJSON(ctx, a.Keys().Progress("u1"), ledger))

	res := store.GetJSON[domain.Ledger](ctx, a, a.Keys().Progress("u1"))
	require.True(t, res.OK())
	assert.Equal(t, []int{2}, res.Value.CompletedLessons["matter"])
}

func TestAdapter_MissingKey(t *testing.T) {
	t.Parallel()
	reported := 0
	a := store.NewAdapter(memory.New(0), "science", nil,
		store.WithReporter(func(context.Context, error) { reported++ }))

	res := store.GetJSON[domain.Ledger](context.Background(), a, "science:progress:nobody")
	assert.False(t, res.Found)
	assert.NoError(t, res.Err)
	assert.Equal(t, 0, reported, "a missing key is not a failure")
}

func TestAdapter_MalformedValueIsAbsorbedAndKept(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	log, buf := logger.NewTestLogger()

	var reported []error
	backend := memory.New(0)
	a := store.NewAdapter(backend, "science", log,
		store.WithReporter(func(_ context.Context, err error) { reported = append(reported, err) }))

	key := a.Keys().Progress("u1")
	require.NoError(t, backend.Set(ctx, key, []byte("{not json")))

	res := store.GetJSON[domain.Ledger](ctx, a, key)
	assert.True(t, res.Found)
	assert.Error(t, res.Err)
	assert.Equal(t, domain.NewLedger(), res.Or(domain.NewLedger()))

	require.Len(t, reported, 1)
	assert.ErrorIs(t, reported[0], domain.ErrStorage)
	assert.Contains(t, buf.String(), "storage failure absorbed")

	raw, err := backend.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, "{not json", string(raw), "corrupt record must stay on disk")
}

func TestAdapter_BackendFailures(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	boom := errors.New("disk full")

	backend := &mocks.MockBackend{}
	backend.On("Get", mock.Anything, "science:users").Return(nil, boom)
	backend.On("Keys", mock.Anything, "science:").Return(nil, boom)
	backend.On("Set", mock.Anything, "science:users", []byte("[]")).Return(boom)
	backend.On("Delete", mock.Anything, "science:users").Return(boom)
	backend.On("Apply", mock.Anything, []store.Op{store.DeleteOp("x")}).Return(boom)

	reported := 0
	a := store.NewAdapter(backend, "science", nil,
		store.WithReporter(func(context.Context, error) { reported++ }))

	_, ok := a.Get(ctx, "science:users")
	assert.False(t, ok)
	assert.Nil(t, a.List(ctx, "science:"))

	err := a.Set(ctx, "science:users", []byte("[]"))
	assert.ErrorIs(t, err, domain.ErrStorage)
	assert.ErrorIs(t, err, boom)

	var storeErr *store.StoreError
	require.ErrorAs(t, err, &storeErr)
	assert.Equal(t, "science:users", storeErr.Key)
	assert.Equal(t, "set", storeErr.Operation)

	assert.ErrorIs(t, a.Remove(ctx, "science:users"), domain.ErrStorage)
	assert.ErrorIs(t, a.Apply(ctx, []store.Op{store.DeleteOp("x")}), domain.ErrStorage)
	assert.Equal(t, 5, reported)
	backend.AssertExpectations(t)
}

func TestAdapter_ApplyEmptyBatch(t *testing.T) {
	t.Parallel()
	backend := &mocks.MockBackend{}
	a := store.NewAdapter(backend, "science", nil)

	assert.NoError(t, a.Apply(context.Background(), nil))
	backend.AssertNotCalled(t, "Apply", mock.Anything, mock.Anything)
}

func TestDecode(t *testing.T) {
	t.Parallel()

	ok := store.Decode[[]string]([]byte(`["a","b"]`))
	assert.True(t, ok.OK())
	assert.Equal(t, []string{"a", "b"}, ok.Value)

	bad := store.Decode[[]string]([]byte(`{"a":1}`))
	assert.False(t, bad.OK())
	assert.Equal(t, []string{"fallback"}, bad.Or([]string{"fallback"}))
}

func TestStoreError(t *testing.T) {
	t.Parallel()
	cause := errors.New("boom")

	err := store.NewStoreError("k", "get", "read failed", cause)
	assert.Equal(t, "get operation on k failed: read failed: boom", err.Error())
	assert.ErrorIs(t, err, domain.ErrStorage)
	assert.ErrorIs(t, err, cause)

	batch := store.NewStoreError("", "apply", "batch failed", nil)
	assert.Equal(t, "apply operation on batch failed: batch failed", batch.Error())
	assert.ErrorIs(t, batch, domain.ErrStorage)
}

func TestValidateOps(t *testing.T) {
	t.Parallel()
	assert.NoError(t, store.ValidateOps([]store.Op{store.SetOp("a", nil), store.DeleteOp("b")}))
	assert.ErrorIs(t, store.ValidateOps([]store.Op{store.SetOp("", nil)}), store.ErrInvalidOp)
	assert.ErrorIs(t, store.ValidateOps([]store.Op{{Kind: 7, Key: "a"}}), store.ErrInvalidOp)
}
