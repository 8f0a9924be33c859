package store

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"

	"github.com/phrazzld/sciencepath/internal/platform/logger"
)

// TxFn runs inside a SQL transaction.
type TxFn func(ctx context.Context, tx *sqlx.Tx) error

// RunInTransaction commits when fn returns nil and rolls back when it returns
// an error or panics. A panic is re-raised after the rollback.
func RunInTransaction(ctx context.Context, db *sqlx.DB, fn TxFn) (err error) {
	log := logger.FromContext(ctx)

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		log.ErrorContext(ctx, "could not begin batch transaction", slog.String("error", err.Error()))
		return fmt.Errorf("begin transaction: %w", err)
	}

	committed := false
	defer func() {
		if committed {
			return
		}
		p := recover()
		if rbErr := tx.Rollback(); rbErr != nil {
			log.ErrorContext(ctx, "batch rollback failed",
				slog.String("rollback_error", rbErr.Error()),
				slog.Any("panic", p))
			if p == nil {
				err = fmt.Errorf("rollback failed: %v (cause: %w)", rbErr, err)
			}
		} else {
			log.DebugContext(ctx, "batch rolled back", slog.Any("panic", p))
		}
		if p != nil {
			panic(p)
		}
	}()

	if err = fn(ctx, tx); err != nil {
		return err
	}
	// a failed commit has already ended the transaction
	committed = true
	if err = tx.Commit(); err != nil {
		log.ErrorContext(ctx, "could not commit batch transaction", slog.String("error", err.Error()))
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
