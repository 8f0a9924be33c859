// Package rediskv implements store.Backend on Redis strings. Batches run
// inside MULTI/EXEC so a reader never sees half of one.
package rediskv

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/phrazzld/sciencepath/internal/store"
)

const scanBatch = 100

// Backend wraps a go-redis client.
type Backend struct {
	client *redis.Client
	logger *slog.Logger
}

var _ store.Backend = (*Backend)(nil)

// Open parses a redis:// URL, pings the server and returns a backend.
func Open(ctx context.Context, redisURL string, logger *slog.Logger) (*Backend, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client := redis.NewClient(opt)
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping Redis: %w", err)
	}

	return New(client, logger), nil
}

// New wraps an existing client.
func New(client *redis.Client, logger *slog.Logger) *Backend {
	if logger == nil {
		logger = slog.Default()
	}
	return &Backend{
		client: client,
		logger: logger.With(slog.String("component", "rediskv")),
	}
}

// Get implements store.Backend.
func (b *Backend) Get(ctx context.Context, key string) ([]byte, error) {
	v, err := b.client.Get(ctx, key).Bytes()
	if err != nil {
		return nil, mapError(err)
	}
	return v, nil
}

// Set implements store.Backend. Values never expire.
func (b *Backend) Set(ctx context.Context, key string, value []byte) error {
	return mapError(b.client.Set(ctx, key, value, 0).Err())
}

// Delete implements store.Backend.
func (b *Backend) Delete(ctx context.Context, key string) error {
	return mapError(b.client.Del(ctx, key).Err())
}

// Keys implements store.Backend by walking SCAN with a glob on the escaped
// prefix.
func (b *Backend) Keys(ctx context.Context, prefix string) ([]string, error) {
	keys := []string{}
	iter := b.client.Scan(ctx, 0, escapeGlob(prefix)+"*", scanBatch).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, mapError(err)
	}
	return keys, nil
}

// Apply implements store.Backend with a MULTI/EXEC pipeline. Redis does not
// roll back a command that fails inside EXEC, so a partial batch is possible
// on a misbehaving server.
func (b *Backend) Apply(ctx context.Context, ops []store.Op) error {
	if err := store.ValidateOps(ops); err != nil {
		return err
	}

	_, err := b.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, op := range ops {
			switch op.Kind {
			case store.OpSet:
				pipe.Set(ctx, op.Key, op.Value, 0)
			case store.OpDelete:
				pipe.Del(ctx, op.Key)
			}
		}
		return nil
	})
	if err != nil {
		b.logger.ErrorContext(ctx, "transaction failed",
			slog.Int("ops", len(ops)),
			slog.String("error", err.Error()))
		return mapError(err)
	}
	return nil
}

// Close implements store.Backend.
func (b *Backend) Close() error {
	return b.client.Close()
}

func mapError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, redis.Nil):
		return store.ErrNotFound
	case errors.Is(err, redis.ErrClosed):
		return fmt.Errorf("%w: %v", store.ErrClosed, err)
	case strings.HasPrefix(err.Error(), "OOM"):
		return fmt.Errorf("%w: %v", store.ErrQuotaExceeded, err)
	default:
		return err
	}
}

var globReplacer = strings.NewReplacer(`\`, `\\`, `*`, `\*`, `?`, `\?`, `[`, `\[`, `]`, `\]`)

func escapeGlob(s string) string {
	return globReplacer.Replace(s)
}
