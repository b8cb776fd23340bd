package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type contextKey string

// DBConnKey carries a transaction-scoped connection through a request context.
const DBConnKey contextKey = "db_conn"

// ConnFromContext retrieves the transaction started by WithTx from the
// context, or nil when the caller is not running inside a transaction.
func ConnFromContext(ctx context.Context) pgx.Tx {
	tx, _ := ctx.Value(DBConnKey).(pgx.Tx)
	return tx
}

// WithTx runs fn inside a single transaction. The transaction is placed in
// the context so that repositories resolving their connection through
// ConnFromContext participate in it. The transaction is rolled back when fn
// returns an error and committed otherwise.
func WithTx(ctx context.Context, pool *pgxpool.Pool, fn func(ctx context.Context) error) error {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(context.WithValue(ctx, DBConnKey, tx)); err != nil {
		return err
	}
	return tx.Commit(ctx)
}
