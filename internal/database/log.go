package database

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"cryptuff/internal/model"
)

// LogRepository writes records to the logger instead of a database. It is used
// when no database is configured.
type LogRepository struct {
	Logger *slog.Logger
}

func (r *LogRepository) Migrate(ctx context.Context) error {
	return nil
}

func (r *LogRepository) LogTrade(ctx context.Context, sessionID uuid.UUID, trade model.MarketTrade) error {
	r.Logger.Info("trade",
		"session", sessionID,
		"exchange", trade.Exchange,
		"pair", trade.Instrument.Pair(),
		"price", trade.Price,
		"volume", trade.Volume,
		"side", trade.Side,
		"time", trade.Timestamp,
	)
	return nil
}

func (r *LogRepository) LogPriceTick(ctx context.Context, sessionID uuid.UUID, tick model.PriceTick) error {
	r.Logger.Info("top of book",
		"session", sessionID,
		"exchange", tick.Exchange,
		"pair", tick.Pair,
		"bid", tick.Bid,
		"ask", tick.Ask,
	)
	return nil
}
