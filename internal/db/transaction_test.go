package db

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"
)

func TestWriteTx_RetriesOnBusy(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	db.retryBackoff = time.Millisecond

	ctx := context.Background()
	attempts := 0

	err := db.WriteTx(ctx, func(tx *sql.Tx) error {
		attempts++
		if attempts < 3 {
			return errors.New("database is locked")
		}
		return nil
	})

	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if attempts != 3 {
		t.Fatalf("expected 3 attempts, got %d", attempts)
	}
}

func TestWriteTx_StopsOnNonBusy(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	db.retryBackoff = time.Millisecond

	ctx := context.Background()
	attempts := 0

	err := db.WriteTx(ctx, func(tx *sql.Tx) error {
		attempts++
		return errors.New("boom")
	})

	if err == nil {
		t.Fatal("expected error")
	}
	if attempts != 1 {
		t.Fatalf("expected 1 attempt, got %d", attempts)
	}
}

func TestWriteTx_GivesUpAfterMaxAttempts(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	db.retryBackoff = time.Millisecond

	ctx := context.Background()
	attempts := 0

	err := db.WriteTx(ctx, func(tx *sql.Tx) error {
		attempts++
		return errors.New("database is busy")
	})

	if err == nil {
		t.Fatal("expected error")
	}
	if attempts != writeRetryAttempts {
		t.Fatalf("expected %d attempts, got %d", writeRetryAttempts, attempts)
	}
}

func TestWriteTx_StopsOnCancelledContext(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	db.retryBackoff = time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	attempts := 0
	err := db.WriteTx(ctx, func(tx *sql.Tx) error {
		attempts++
		return nil
	})

	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if attempts != 0 {
		t.Fatalf("expected 0 attempts, got %d", attempts)
	}
}

func TestWriteBackoffDerivesFromBusyTimeout(t *testing.T) {
	if got := writeBackoff(5000); got != 50*time.Millisecond {
		t.Fatalf("expected 50ms, got %v", got)
	}
	if got := writeBackoff(100); got != 10*time.Millisecond {
		t.Fatalf("expected 10ms floor, got %v", got)
	}
}
