package database

import (
	"context"
	"fmt"
)

// TxRunner runs a function inside a single transaction. Services depend on
// this instead of the concrete pool so workflow logic is testable without a
// database.
type TxRunner interface {
	InTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// InTx runs fn inside a single transaction. The transaction is carried in the
// context fn receives, so repository calls made through it share one atomic
// unit: either every write commits or none does. A nested call reuses the
// transaction already in flight.
func (db *DB) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := GetTx(ctx); ok {
		return fn(ctx)
	}

	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := fn(SetTx(ctx, tx)); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}
