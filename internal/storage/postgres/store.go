package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"positionScope/internal/model"
)

// ErrNotFound is returned when no row matches.
var ErrNotFound = errors.New("position view not found")

// Schema creates the tables used by Store.
const Schema = `
CREATE TABLE IF NOT EXISTS position_views (
	chain_id       BIGINT      NOT NULL,
	token_id       TEXT        NOT NULL,
	owner          TEXT        NOT NULL DEFAULT '',
	pool_address   TEXT        NOT NULL DEFAULT '',
	fee_tier       TEXT        NOT NULL,
	base_address   TEXT        NOT NULL,
	base_symbol    TEXT        NOT NULL,
	base_decimals  SMALLINT    NOT NULL,
	quote_address  TEXT        NOT NULL,
	quote_symbol   TEXT        NOT NULL,
	quote_decimals SMALLINT    NOT NULL,
	inverted       BOOLEAN     NOT NULL,
	rule           TEXT        NOT NULL,
	tick_lower     INTEGER     NOT NULL,
	tick_upper     INTEGER     NOT NULL,
	price_lower    TEXT        NOT NULL,
	price_upper    TEXT        NOT NULL,
	lower_at_limit BOOLEAN     NOT NULL,
	upper_at_limit BOOLEAN     NOT NULL,
	current_price  TEXT        NOT NULL DEFAULT '',
	amount_base    TEXT        NOT NULL DEFAULT '',
	amount_quote   TEXT        NOT NULL DEFAULT '',
	base_ratio     INTEGER,
	status         TEXT        NOT NULL,
	liquidity      TEXT        NOT NULL,
	rendered_at    TIMESTAMPTZ NOT NULL,
	created_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (chain_id, token_id)
);
`

// Store provides Postgres persistence for rendered positions.
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

// EnsureSchema creates missing tables.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// UpsertPositionViews inserts or updates rendered positions keyed by chain and token id.
func (s *Store) UpsertPositionViews(ctx context.Context, views []model.PositionView) error {
	if len(views) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, v := range views {
		var ratio *int32
		if v.BaseRatio != nil {
			r := int32(*v.BaseRatio)
			ratio = &r
		}
		batch.Queue(`
			INSERT INTO position_views (
				chain_id, token_id, owner, pool_address, fee_tier,
				base_address, base_symbol, base_decimals, quote_address, quote_symbol, quote_decimals,
				inverted, rule, tick_lower, tick_upper, price_lower, price_upper,
				lower_at_limit, upper_at_limit, current_price, amount_base, amount_quote,
				base_ratio, status, liquidity, rendered_at, created_at, updated_at
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22,$23,$24,$25,$26,now(),now())
			ON CONFLICT (chain_id, token_id)
			DO UPDATE SET
				owner = EXCLUDED.owner,
				pool_address = EXCLUDED.pool_address,
				fee_tier = EXCLUDED.fee_tier,
				base_address = EXCLUDED.base_address,
				base_symbol = EXCLUDED.base_symbol,
				base_decimals = EXCLUDED.base_decimals,
				quote_address = EXCLUDED.quote_address,
				quote_symbol = EXCLUDED.quote_symbol,
				quote_decimals = EXCLUDED.quote_decimals,
				inverted = EXCLUDED.inverted,
				rule = EXCLUDED.rule,
				tick_lower = EXCLUDED.tick_lower,
				tick_upper = EXCLUDED.tick_upper,
				price_lower = EXCLUDED.price_lower,
				price_upper = EXCLUDED.price_upper,
				lower_at_limit = EXCLUDED.lower_at_limit,
				upper_at_limit = EXCLUDED.upper_at_limit,
				current_price = EXCLUDED.current_price,
				amount_base = EXCLUDED.amount_base,
				amount_quote = EXCLUDED.amount_quote,
				base_ratio = EXCLUDED.base_ratio,
				status = EXCLUDED.status,
				liquidity = EXCLUDED.liquidity,
				rendered_at = EXCLUDED.rendered_at,
				updated_at = now()
		`,
			int64(v.ChainID),
			v.TokenID,
			v.Owner,
			v.Pool,
			v.FeeTier,
			v.Base.Address,
			v.Base.Symbol,
			int16(v.Base.Decimals),
			v.Quote.Address,
			v.Quote.Symbol,
			int16(v.Quote.Decimals),
			v.Inverted,
			v.Rule,
			v.TickLower,
			v.TickUpper,
			v.PriceLower,
			v.PriceUpper,
			v.LowerAtLimit,
			v.UpperAtLimit,
			v.CurrentPrice,
			v.AmountBase,
			v.AmountQuote,
			ratio,
			v.Status,
			liquidityOrZero(v.Liquidity),
			v.RenderedAt,
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range views {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}

// LoadPositionView reads one rendered position back.
func (s *Store) LoadPositionView(ctx context.Context, chainID uint64, tokenID string) (model.PositionView, error) {
	if tokenID == "" {
		return model.PositionView{}, fmt.Errorf("token id required")
	}
	var (
		v             model.PositionView
		baseDecimals  int16
		quoteDecimals int16
		ratio         *int32
	)
	row := s.pool.QueryRow(ctx, `
		SELECT chain_id, token_id, owner, pool_address, fee_tier,
			base_address, base_symbol, base_decimals, quote_address, quote_symbol, quote_decimals,
			inverted, rule, tick_lower, tick_upper, price_lower, price_upper,
			lower_at_limit, upper_at_limit, current_price, amount_base, amount_quote,
			base_ratio, status, liquidity, rendered_at
		FROM position_views WHERE chain_id=$1 AND token_id=$2
	`, int64(chainID), tokenID)
	var chain int64
	err := row.Scan(
		&chain, &v.TokenID, &v.Owner, &v.Pool, &v.FeeTier,
		&v.Base.Address, &v.Base.Symbol, &baseDecimals, &v.Quote.Address, &v.Quote.Symbol, &quoteDecimals,
		&v.Inverted, &v.Rule, &v.TickLower, &v.TickUpper, &v.PriceLower, &v.PriceUpper,
		&v.LowerAtLimit, &v.UpperAtLimit, &v.CurrentPrice, &v.AmountBase, &v.AmountQuote,
		&ratio, &v.Status, &v.Liquidity, &v.RenderedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.PositionView{}, fmt.Errorf("chain %d token %s: %w", chainID, tokenID, ErrNotFound)
		}
		return model.PositionView{}, err
	}
	v.ChainID = uint64(chain)
	v.Base.Decimals = uint8(baseDecimals)
	v.Quote.Decimals = uint8(quoteDecimals)
	if ratio != nil {
		r := int(*ratio)
		v.BaseRatio = &r
	}
	return v, nil
}

func liquidityOrZero(value string) string {
	if value == "" {
		return "0"
	}
	return value
}

// PutViews satisfies storage.Storage.
func (s *Store) PutViews(views []model.PositionView) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return s.UpsertPositionViews(ctx, views)
}
