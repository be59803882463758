package db

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"
)

// writeRetryAttempts bounds how often a busy write is retried. WAL keeps
// readers unblocked, so only concurrent writers contend; a few attempts
// with doubling backoff rides out a writer burst.
const writeRetryAttempts = 3

// WriteTx runs fn inside a transaction and retries it when sqlite reports
// the database busy. The initial backoff derives from the configured busy
// timeout and doubles per attempt. Non-busy errors and context
// cancellation return immediately.
func (db *DB) WriteTx(ctx context.Context, fn func(*sql.Tx) error) error {
	backoff := db.retryBackoff
	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := db.Transaction(ctx, fn)
		if err == nil || !isBusyError(err) || attempt >= writeRetryAttempts {
			return err
		}

		if err := sleepWithContext(ctx, backoff); err != nil {
			return err
		}
		backoff *= 2
	}
}

func isBusyError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	message := strings.ToLower(err.Error())
	return strings.Contains(message, "database is locked") ||
		strings.Contains(message, "database is busy") ||
		strings.Contains(message, "sqlite_busy")
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
