package database

import (
	"context"

	"github.com/google/uuid"

	"cryptuff/internal/model"
)

// Repository defines the standard interface for database operations.
type Repository interface {
	LogTrade(ctx context.Context, sessionID uuid.UUID, trade model.MarketTrade) error
	LogPriceTick(ctx context.Context, sessionID uuid.UUID, tick model.PriceTick) error
	Migrate(ctx context.Context) error
}
