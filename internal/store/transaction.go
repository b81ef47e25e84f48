package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/kotoba-learn/kotoba-api/internal/platform/logger"
)

// TxFn runs inside a transaction. Returning an error rolls it back.
type TxFn func(ctx context.Context, tx *sql.Tx) error

// ReadOnlySnapshot gives a read that spans several statements one
// consistent view of the database.
var ReadOnlySnapshot = &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true}

// RunInTransaction runs fn in a transaction with default options.
func RunInTransaction(ctx context.Context, db *sql.DB, fn TxFn) error {
	return RunInTransactionWithOptions(ctx, db, nil, fn)
}

// RunInTransactionWithOptions commits when fn returns nil and rolls back
// otherwise. A panic in fn rolls back and is re-raised.
func RunInTransactionWithOptions(ctx context.Context, db *sql.DB, opts *sql.TxOptions, fn TxFn) error {
	log := logger.FromContext(ctx).With(slog.Bool("read_only", opts != nil && opts.ReadOnly))

	tx, err := db.BeginTx(ctx, opts)
	if err != nil {
		log.Error("begin transaction", slog.Any("error", err))
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		p := recover()
		if p == nil {
			return
		}
		log.Error("transaction aborted by panic", slog.Any("panic", p))
		rollback(log, tx)
		panic(p)
	}()

	if err := fn(ctx, tx); err != nil {
		if rbErr := rollback(log, tx); rbErr != nil {
			return fmt.Errorf("rollback failed: %v (original error: %w)", rbErr, err)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		log.Error("commit transaction", slog.Any("error", err))
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func rollback(log *slog.Logger, tx *sql.Tx) error {
	if err := tx.Rollback(); err != nil {
		log.Error("roll back transaction", slog.Any("error", err))
		return err
	}
	log.Debug("transaction rolled back")
	return nil
}
