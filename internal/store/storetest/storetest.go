// Package storetest holds the behaviour every store.Backend must share.
// Backend packages run it against their own constructor.
package storetest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/sciencepath/internal/store"
)

// Factory returns a fresh, empty backend. Cleanup is the factory's job.
type Factory func(t *testing.T) store.Backend

// RunBackendTests exercises the store.Backend contract.
func RunBackendTests(t *testing.T, newBackend Factory) {
	t.Helper()

	t.Run("get missing key", func(t *testing.T) {
		b := newBackend(t)
		_, err := b.Get(context.Background(), "ns:missing")
		assert.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("set get overwrite", func(t *testing.T) {
		ctx := context.Background()
		b := newBackend(t)

		require.NoError(t, b.Set(ctx, "ns:users", []byte(`[]`)))
		v, err := b.Get(ctx, "ns:users")
		require.NoError(t, err)
		assert.Equal(t, `[]`, string(v))

		require.NoError(t, b.Set(ctx, "ns:users", []byte(`[{"id":"1"}]`)))
		v, err = b.Get(ctx, "ns:users")
		require.NoError(t, err)
		assert.Equal(t, `[{"id":"1"}]`, string(v))
	})

	t.Run("delete is idempotent", func(t *testing.T) {
		ctx := context.Background()
		b := newBackend(t)

		require.NoError(t, b.Set(ctx, "ns:active-user", []byte("u1")))
		require.NoError(t, b.Delete(ctx, "ns:active-user"))
		require.NoError(t, b.Delete(ctx, "ns:active-user"))

		_, err := b.Get(ctx, "ns:active-user")
		assert.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("keys by prefix", func(t *testing.T) {
		ctx := context.Background()
		b := newBackend(t)

		require.NoError(t, b.Set(ctx, "ns:progress:a", []byte("{}")))
		require.NoError(t, b.Set(ctx, "ns:progress:b", []byte("{}")))
		require.NoError(t, b.Set(ctx, "ns:users", []byte("[]")))
		require.NoError(t, b.Set(ctx, "other:progress:c", []byte("{}")))

		keys, err := b.Keys(ctx, "ns:progress:")
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"ns:progress:a", "ns:progress:b"}, keys)
	})

	t.Run("apply batch", func(t *testing.T) {
		ctx := context.Background()
		b := newBackend(t)

		require.NoError(t, b.Set(ctx, "ns:progress:a", []byte("{}")))
		require.NoError(t, b.Apply(ctx, []store.Op{
			store.SetOp("ns:users", []byte("[]")),
			store.DeleteOp("ns:progress:a"),
			store.DeleteOp("ns:never-existed"),
		}))

		v, err := b.Get(ctx, "ns:users")
		require.NoError(t, err)
		assert.Equal(t, "[]", string(v))

		_, err = b.Get(ctx, "ns:progress:a")
		assert.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("invalid batch changes nothing", func(t *testing.T) {
		ctx := context.Background()
		b := newBackend(t)

		require.NoError(t, b.Set(ctx, "ns:users", []byte("old")))
		err := b.Apply(ctx, []store.Op{
			store.SetOp("ns:users", []byte("new")),
			{Kind: store.OpKind(99), Key: "ns:bogus"},
		})
		require.ErrorIs(t, err, store.ErrInvalidOp)

		v, err := b.Get(ctx, "ns:users")
		require.NoError(t, err)
		assert.Equal(t, "old", string(v))
	})
}
