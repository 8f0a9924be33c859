package sqlkv

import (
	"context"
	"fmt"
	"log/slog"
	"unicode/utf8"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" driver
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3" // registers the "sqlite3" driver

	"github.com/phrazzld/sciencepath/internal/platform/logger"
	"github.com/phrazzld/sciencepath/internal/store"
)

// Dialect names a supported database.
type Dialect string

// Supported dialects.
const (
	SQLite   Dialect = "sqlite"
	Postgres Dialect = "postgres"
)

func (d Dialect) driverName() (string, error) {
	switch d {
	case SQLite:
		return "sqlite3", nil
	case Postgres:
		return "pgx", nil
	default:
		return "", fmt.Errorf("unsupported sql dialect %q", string(d))
	}
}

func (d Dialect) gooseName() string {
	if d == SQLite {
		return "sqlite3"
	}
	return string(d)
}

const (
	getQuery = `SELECT entry_value FROM kv_entries WHERE entry_key = ?`

	upsertQuery = `INSERT INTO kv_entries (entry_key, entry_value, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT (entry_key) DO UPDATE
		SET entry_value = excluded.entry_value, updated_at = excluded.updated_at`

	deleteQuery = `DELETE FROM kv_entries WHERE entry_key = ?`

	// substr instead of LIKE: SQLite's LIKE ignores ASCII case.
	keysQuery = `SELECT entry_key FROM kv_entries
		WHERE substr(entry_key, 1, ?) = ? ORDER BY entry_key`
)

// Backend implements store.Backend over the kv_entries table.
type Backend struct {
	db      *sqlx.DB
	dialect Dialect
	logger  *slog.Logger
}

var _ store.Backend = (*Backend)(nil)

// Open connects to dsn, applies migrations and returns a ready backend.
func Open(ctx context.Context, dialect Dialect, dsn string, log *slog.Logger) (*Backend, error) {
	driver, err := dialect.driverName()
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = slog.Default()
	}
	log = log.With(slog.String("component", "sqlkv"), slog.String("dialect", string(dialect)))

	db, err := sqlx.ConnectContext(ctx, driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", dialect, err)
	}

	if dialect == SQLite {
		// One writer at a time avoids SQLITE_BUSY between pooled connections.
		db.SetMaxOpenConns(1)
	}

	if err := Migrate(db.DB, dialect, log); err != nil {
		_ = db.Close()
		return nil, err
	}

	log.Info("sql key-value backend ready")
	return New(db, dialect, log), nil
}

// New wraps an already migrated connection.
func New(db *sqlx.DB, dialect Dialect, log *slog.Logger) *Backend {
	if log == nil {
		log = slog.Default()
	}
	return &Backend{db: db, dialect: dialect, logger: log}
}

// Get implements store.Backend.
func (b *Backend) Get(ctx context.Context, key string) ([]byte, error) {
	var value string
	if err := b.db.GetContext(ctx, &value, b.db.Rebind(getQuery), key); err != nil {
		return nil, MapError(err)
	}
	return []byte(value), nil
}

// Set implements store.Backend.
func (b *Backend) Set(ctx context.Context, key string, value []byte) error {
	if _, err := b.db.ExecContext(ctx, b.db.Rebind(upsertQuery), key, string(value)); err != nil {
		return MapError(err)
	}
	return nil
}

// Delete implements store.Backend.
func (b *Backend) Delete(ctx context.Context, key string) error {
	if _, err := b.db.ExecContext(ctx, b.db.Rebind(deleteQuery), key); err != nil {
		return MapError(err)
	}
	return nil
}

// Keys implements store.Backend.
func (b *Backend) Keys(ctx context.Context, prefix string) ([]string, error) {
	keys := []string{}
	err := b.db.SelectContext(ctx, &keys, b.db.Rebind(keysQuery), utf8.RuneCountInString(prefix), prefix)
	if err != nil {
		return nil, MapError(err)
	}
	return keys, nil
}

// Apply implements store.Backend inside a single transaction.
func (b *Backend) Apply(ctx context.Context, ops []store.Op) error {
	if err := store.ValidateOps(ops); err != nil {
		return err
	}

	ctx = logger.WithLogger(ctx, b.logger)
	return store.RunInTransaction(ctx, b.db, func(ctx context.Context, tx *sqlx.Tx) error {
		for _, op := range ops {
			var err error
			switch op.Kind {
			case store.OpSet:
				_, err = tx.ExecContext(ctx, tx.Rebind(upsertQuery), op.Key, string(op.Value))
			case store.OpDelete:
				_, err = tx.ExecContext(ctx, tx.Rebind(deleteQuery), op.Key)
			}
			if err != nil {
				return fmt.Errorf("%s %s: %w", op.Kind, op.Key, MapError(err))
			}
		}
		return nil
	})
}

// Close implements store.Backend.
func (b *Backend) Close() error {
	return b.db.Close()
}
