package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"honeyScope/internal/model"
)

// Store provides Postgres persistence for pairs and verdicts.
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

// EnsureSchema creates the tables if they do not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS pairs (
			chain_id BIGINT NOT NULL,
			pair_address TEXT NOT NULL,
			token0 TEXT NOT NULL,
			token1 TEXT NOT NULL,
			first_seen_block BIGINT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			PRIMARY KEY (chain_id, pair_address)
		);
		CREATE TABLE IF NOT EXISTS token_verdicts (
			chain_id BIGINT NOT NULL,
			token TEXT NOT NULL,
			token_symbol TEXT NOT NULL DEFAULT '',
			pair_address TEXT NOT NULL,
			safe_token TEXT NOT NULL,
			kind TEXT NOT NULL,
			buy_tax_bps BIGINT NOT NULL,
			sell_tax_bps BIGINT NOT NULL,
			reason TEXT NOT NULL DEFAULT '',
			block_number BIGINT NOT NULL,
			checked_at TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			PRIMARY KEY (chain_id, token)
		);
	`)
	return err
}

// PutPairBatch inserts or updates pair records.
func (s *Store) PutPairBatch(ctx context.Context, pairs []model.Pair) error {
	if len(pairs) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, pair := range pairs {
		batch.Queue(`
			INSERT INTO pairs (
				chain_id, pair_address, token0, token1, first_seen_block, created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, now(), now())
			ON CONFLICT (chain_id, pair_address)
			DO UPDATE SET
				token0 = EXCLUDED.token0,
				token1 = EXCLUDED.token1,
				first_seen_block = LEAST(pairs.first_seen_block, EXCLUDED.first_seen_block),
				updated_at = now()
		`,
			int64(pair.ChainID),
			pair.Address,
			pair.Token0,
			pair.Token1,
			int64(pair.FirstSeenBlock),
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range pairs {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}

// PutVerdictBatch inserts or updates token verdicts.
func (s *Store) PutVerdictBatch(ctx context.Context, verdicts []model.Verdict) error {
	if len(verdicts) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, v := range verdicts {
		batch.Queue(`
			INSERT INTO token_verdicts (
				chain_id, token, token_symbol, pair_address, safe_token, kind,
				buy_tax_bps, sell_tax_bps, reason, block_number, checked_at, created_at, updated_at
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,now(),now())
			ON CONFLICT (chain_id, token)
			DO UPDATE SET
				token_symbol = EXCLUDED.token_symbol,
				pair_address = EXCLUDED.pair_address,
				safe_token = EXCLUDED.safe_token,
				kind = EXCLUDED.kind,
				buy_tax_bps = EXCLUDED.buy_tax_bps,
				sell_tax_bps = EXCLUDED.sell_tax_bps,
				reason = EXCLUDED.reason,
				block_number = EXCLUDED.block_number,
				checked_at = EXCLUDED.checked_at,
				updated_at = now()
		`,
			int64(v.ChainID),
			v.Token,
			v.TokenSymbol,
			v.Pair,
			v.SafeToken,
			string(v.Kind),
			v.BuyTaxBps,
			v.SellTaxBps,
			v.Reason,
			int64(v.BlockNumber),
			v.CheckedAt,
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range verdicts {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}

// LoadVerdicts returns all stored verdicts for a chain, used to warm caches.
func (s *Store) LoadVerdicts(ctx context.Context, chainID uint64) ([]model.Verdict, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT chain_id, token, token_symbol, pair_address, safe_token, kind,
		       buy_tax_bps, sell_tax_bps, reason, block_number, checked_at
		FROM token_verdicts WHERE chain_id = $1
	`, int64(chainID))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var verdicts []model.Verdict
	for rows.Next() {
		var v model.Verdict
		var chain int64
		var block int64
		var kind string
		if err := rows.Scan(&chain, &v.Token, &v.TokenSymbol, &v.Pair, &v.SafeToken, &kind,
			&v.BuyTaxBps, &v.SellTaxBps, &v.Reason, &block, &v.CheckedAt); err != nil {
			return nil, err
		}
		v.ChainID = uint64(chain)
		v.BlockNumber = uint64(block)
		v.Kind = model.VerdictKind(kind)
		verdicts = append(verdicts, v)
	}
	return verdicts, rows.Err()
}
