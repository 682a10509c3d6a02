package database

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"cryptuff/internal/config"
	"cryptuff/internal/model"
)

const schema = `
CREATE TABLE IF NOT EXISTS market_trades (
	id SERIAL PRIMARY KEY,
	session_id UUID NOT NULL,
	exchange VARCHAR(50) NOT NULL,
	pair VARCHAR(20) NOT NULL,
	price NUMERIC(20, 8) NOT NULL,
	volume NUMERIC(20, 8) NOT NULL,
	side VARCHAR(4) NOT NULL,
	traded_at TIMESTAMPTZ NOT NULL,
	recorded_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS price_ticks (
	id SERIAL PRIMARY KEY,
	session_id UUID NOT NULL,
	exchange VARCHAR(50) NOT NULL,
	pair VARCHAR(20) NOT NULL,
	bid NUMERIC(20, 8) NOT NULL,
	ask NUMERIC(20, 8) NOT NULL,
	observed_at TIMESTAMPTZ NOT NULL
);`

// PostgresRepository stores recorded market data in PostgreSQL.
type PostgresRepository struct {
	Pool *pgxpool.Pool
}

// NewPostgresRepository opens a connection pool and verifies it.
func NewPostgresRepository(ctx context.Context, cfg config.DatabaseConfig) (*PostgresRepository, error) {
	pool, err := pgxpool.New(ctx, cfg.ConnString())
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &PostgresRepository{Pool: pool}, nil
}

// Close releases the pool.
func (r *PostgresRepository) Close() {
	r.Pool.Close()
}

// Migrate creates the tables if they do not exist.
func (r *PostgresRepository) Migrate(ctx context.Context) error {
	if _, err := r.Pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// LogTrade inserts a single market trade.
func (r *PostgresRepository) LogTrade(ctx context.Context, sessionID uuid.UUID, trade model.MarketTrade) error {
	_, err := r.Pool.Exec(ctx,
		`INSERT INTO market_trades (session_id, exchange, pair, price, volume, side, traded_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		sessionID, string(trade.Exchange), trade.Instrument.Pair(), trade.Price, trade.Volume, string(trade.Side), trade.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("insert trade: %w", err)
	}
	return nil
}

// LogPriceTick inserts a top-of-book observation.
func (r *PostgresRepository) LogPriceTick(ctx context.Context, sessionID uuid.UUID, tick model.PriceTick) error {
	_, err := r.Pool.Exec(ctx,
		`INSERT INTO price_ticks (session_id, exchange, pair, bid, ask, observed_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		sessionID, tick.Exchange, tick.Pair, tick.Bid, tick.Ask, tick.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("insert price tick: %w", err)
	}
	return nil
}
