package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// TxRunner ejecuta un callback dentro de una transacción; un error del callback hace rollback.
type TxRunner struct {
	pool *pgxpool.Pool
	opts pgx.TxOptions
}

// NewTxRunner construye el runner con aislamiento READ COMMITTED.
func NewTxRunner(pool *pgxpool.Pool) *TxRunner {
	return &TxRunner{pool: pool, opts: pgx.TxOptions{IsoLevel: pgx.ReadCommitted}}
}

// Run ejecuta fn con la transacción como Querier.
func (r *TxRunner) Run(ctx context.Context, fn func(q Querier) error) error {
	err := pgx.BeginTxFunc(ctx, r.pool, r.opts, func(tx pgx.Tx) error {
		return fn(tx)
	})
	if err != nil {
		return fmt.Errorf("transacción de bitácora: %w", err)
	}
	return nil
}
