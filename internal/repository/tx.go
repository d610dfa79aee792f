package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// TxRunner runs a function inside one database transaction. The booking
// path needs flight, booking and loyalty mutations to commit or abort
// together, so the transaction is owned here rather than inside any single
// repository.
type TxRunner interface {
	InTx(ctx context.Context, fn func(tx pgx.Tx) error) error
}

type PGTxRunner struct {
	pool        *pgxpool.Pool
	lockTimeout time.Duration
}

// NewTxRunner creates a runner. lockTimeout bounds how long a transaction
// may wait on a row lock; zero disables the bound.
func NewTxRunner(pool *pgxpool.Pool, lockTimeout time.Duration) *PGTxRunner {
	return &PGTxRunner{pool: pool, lockTimeout: lockTimeout}
}

func (r *PGTxRunner) InTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if r.lockTimeout > 0 {
		if _, err := tx.Exec(ctx, fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", r.lockTimeout.Milliseconds())); err != nil {
			return fmt.Errorf("set lock timeout: %w", err)
		}
	}

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

var _ TxRunner = (*PGTxRunner)(nil)
