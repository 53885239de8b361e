package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"poolFilter/internal/model"
)

const schema = `
CREATE TABLE IF NOT EXISTS filter_runs (
	id              TEXT PRIMARY KEY,
	chain_id        BIGINT NOT NULL,
	block_number    BIGINT NOT NULL,
	strategy        TEXT NOT NULL,
	reference_asset TEXT NOT NULL,
	stage           TEXT NOT NULL,
	threshold       NUMERIC NOT NULL,
	input_pools     INTEGER NOT NULL,
	kept_pools      INTEGER NOT NULL,
	started_at      TIMESTAMPTZ NOT NULL,
	finished_at     TIMESTAMPTZ NOT NULL
);
CREATE TABLE IF NOT EXISTS filtered_pools (
	run_id          TEXT NOT NULL REFERENCES filter_runs (id) ON DELETE CASCADE,
	pool_address    TEXT NOT NULL,
	variant         TEXT NOT NULL,
	factory         TEXT,
	token0          TEXT NOT NULL,
	token1          TEXT NOT NULL,
	reference_value NUMERIC,
	fiat_value      NUMERIC,
	PRIMARY KEY (run_id, pool_address)
);
ALTER TABLE filtered_pools ADD COLUMN IF NOT EXISTS factory TEXT;`

// Store provides Postgres persistence for filter runs.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// EnsureSchema creates the filter tables when missing.
func (s *Store) EnsureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, schema)
	return err
}

// PutFilterRun upserts the run and its kept pools in one transaction.
func (s *Store) PutFilterRun(ctx context.Context, run model.FilterRun, pools []model.FilteredPool) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO filter_runs (
			id, chain_id, block_number, strategy, reference_asset, stage, threshold,
			input_pools, kept_pools, started_at, finished_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (id)
		DO UPDATE SET
			kept_pools = EXCLUDED.kept_pools,
			finished_at = EXCLUDED.finished_at
	`,
		run.ID,
		int64(run.ChainID),
		int64(run.BlockNumber),
		run.Strategy,
		run.ReferenceAsset,
		run.Stage,
		run.Threshold,
		run.InputPools,
		run.KeptPools,
		run.StartedAt,
		run.FinishedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert filter run: %w", err)
	}

	if len(pools) > 0 {
		batch := &pgx.Batch{}
		for _, p := range pools {
			batch.Queue(`
				INSERT INTO filtered_pools (
					run_id, pool_address, variant, factory, token0, token1, reference_value, fiat_value
				) VALUES ($1, $2, $3, NULLIF($4, ''), $5, $6, NULLIF($7, '')::numeric, NULLIF($8, '')::numeric)
				ON CONFLICT (run_id, pool_address)
				DO UPDATE SET
					reference_value = EXCLUDED.reference_value,
					fiat_value = EXCLUDED.fiat_value
			`,
				run.ID,
				p.Address,
				p.Variant,
				p.Factory,
				p.Token0,
				p.Token1,
				p.ReferenceValue,
				p.FiatValue,
			)
		}

		br := tx.SendBatch(ctx, batch)
		for range pools {
			if _, err := br.Exec(); err != nil {
				br.Close()
				return fmt.Errorf("upsert filtered pool: %w", err)
			}
		}
		if err := br.Close(); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}
