package database

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"ride-backend/internal/domain"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// DefaultTimeout bounds a transaction when the caller's context has no deadline.
const DefaultTimeout = 10 * time.Second

// RunInTx runs fn in a single transaction. Any error returned by fn rolls the
// whole unit back, so callers never observe partial writes.
// A context that is already done fails before the transaction opens.
// Timeouts, lock conflicts and serialization failures come back wrapped in
// domain.ErrStoreUnavailable and are safe to retry verbatim.
func RunInTx(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, DefaultTimeout)
		defer cancel()
	}
	err := db.WithContext(ctx).Transaction(fn)
	return Classify(ctx, err)
}

// Classify maps driver-level failures onto the domain taxonomy.
func Classify(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	var de *domain.Error
	if errors.As(err, &de) {
		return err
	}
	if IsTransient(err) || ctx.Err() != nil {
		return fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	return err
}

// Postgres SQLSTATEs worth a verbatim retry.
var transientCodes = map[string]bool{
	"40001": true, // serialization_failure
	"40P01": true, // deadlock_detected
	"55P03": true, // lock_not_available
	"57014": true, // query_canceled
}

// IsTransient reports whether err is a timeout or lock conflict.
func IsTransient(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return transientCodes[pgErr.Code]
	}
	msg := err.Error()
	return strings.Contains(msg, "database is locked") || strings.Contains(msg, "SQLITE_BUSY")
}

// IsDuplicate reports a unique constraint violation.
func IsDuplicate(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
