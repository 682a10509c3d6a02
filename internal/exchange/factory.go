package exchange

import (
	"fmt"
	"log/slog"

	"cryptuff/internal/config"
	"cryptuff/internal/metrics"
)

// NewClient creates a new streaming client based on the given name and configuration.
func NewClient(name string, logger *slog.Logger, cfg config.KrakenConfig, m *metrics.Metrics) (StreamingClient, error) {
	switch name {
	case "kraken":
		return NewKrakenClient(logger, cfg, m), nil
	default:
		return nil, fmt.Errorf("unknown exchange: %s", name)
	}
}
