package sink

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"liquidationLedger/internal/model"
)

const createRecordsTable = `
CREATE TABLE IF NOT EXISTS liquidation_records (
	tx_hash            TEXT PRIMARY KEY,
	occurred_at        TIMESTAMPTZ NOT NULL,
	amount_in          TEXT NOT NULL,
	amount_in_symbol   TEXT NOT NULL,
	amount_out         TEXT NOT NULL,
	amount_out_symbol  TEXT NOT NULL,
	fee                TEXT NOT NULL,
	fee_symbol         TEXT NOT NULL,
	created_at         TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// PostgresSink persists accounting records to Postgres. Inserts are
// idempotent on the transaction hash, so re-running a window cannot
// duplicate rows. Amounts are stored as exact decimal strings.
type PostgresSink struct {
	pool *pgxpool.Pool
}

// NewPostgresSink connects to the DSN and ensures the records table exists.
func NewPostgresSink(ctx context.Context, dsn string) (*PostgresSink, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	if _, err := pool.Exec(ctx, createRecordsTable); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ensure records table: %w", err)
	}
	return &PostgresSink{pool: pool}, nil
}

// Emit inserts the record, ignoring transactions already stored.
func (s *PostgresSink) Emit(ctx context.Context, record model.AccountingRecord) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO liquidation_records (
			tx_hash, occurred_at, amount_in, amount_in_symbol,
			amount_out, amount_out_symbol, fee, fee_symbol
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (tx_hash) DO NOTHING
	`,
		record.TxHash,
		record.Date.UTC(),
		record.AmountIn,
		record.AmountInSymbol,
		record.AmountOut,
		record.AmountOutSymbol,
		record.Fee,
		record.FeeSymbol,
	)
	if err != nil {
		return &OutputError{Op: "insert record", Err: err}
	}
	return nil
}

// Close releases the connection pool.
func (s *PostgresSink) Close() error {
	if s.pool != nil {
		s.pool.Close()
	}
	return nil
}
