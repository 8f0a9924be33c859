package sqlkv

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"

	"github.com/phrazzld/sciencepath/internal/store"
)

// PostgreSQL error codes
const (
	// diskFullCode is the PostgreSQL error code for a full disk
	diskFullCode = "53100"

	// insufficientResourcesCode covers other resource exhaustion
	insufficientResourcesCode = "53000"
)

// MapError maps a database error to the store errors callers check for.
// It wraps the original error to preserve context and provide better
// debugging information.
func MapError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %v", store.ErrNotFound, err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case diskFullCode, insufficientResourcesCode:
			return fmt.Errorf("%w: %v", store.ErrQuotaExceeded, err)
		}
	}

	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) && liteErr.Code == sqlite3.ErrFull {
		return fmt.Errorf("%w: %v", store.ErrQuotaExceeded, err)
	}

	if errors.Is(err, sql.ErrConnDone) {
		return fmt.Errorf("%w: %v", store.ErrClosed, err)
	}

	return err
}
