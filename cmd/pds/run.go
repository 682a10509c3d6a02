package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"cryptuff/internal/config"
	"cryptuff/internal/database"
	"cryptuff/internal/exchange"
	"cryptuff/internal/feed"
	"cryptuff/internal/logging"
	"cryptuff/internal/metrics"
)

const shutdownTimeout = 5 * time.Second

func newRunCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Connect to the exchange and record the configured feeds",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(*configPath)
			if err != nil {
				return fmt.Errorf("cannot load config: %w", err)
			}
			return run(cmd.Context(), cfg)
		},
	}
}

func run(ctx context.Context, cfg config.Config) error {
	logger := logging.New(cfg.Log)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	repo, closeRepo, err := openRepository(ctx, logger, cfg.Database)
	if err != nil {
		return err
	}
	defer closeRepo()

	client, err := exchange.NewClient(string(exchangeName), logger, cfg.Kraken, m)
	if err != nil {
		return err
	}

	srv := newServer(cfg.Metrics.Addr, reg, client)
	go func() {
		logger.Info("metrics server listening", "addr", cfg.Metrics.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", "error", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("metrics server shutdown", "error", err)
		}
	}()

	if err := client.Connect(ctx); err != nil {
		return fmt.Errorf("connect to %s: %w", client.GetName(), err)
	}
	defer func() {
		if err := client.Disconnect(); err != nil && !errors.Is(err, exchange.ErrNotConnected) {
			logger.Warn("disconnect", "error", err)
		}
	}()

	recorder := feed.NewRecorder(logger, repo, client, cfg.Feed)
	if err := recorder.Run(ctx); err != nil {
		return fmt.Errorf("recorder: %w", err)
	}
	logger.Info("shutting down", "session", recorder.SessionID(), "dropped", recorder.Dropped())
	return nil
}

// openRepository returns the Postgres repository when a database is enabled,
// otherwise one that writes records to the log.
func openRepository(ctx context.Context, logger *slog.Logger, cfg config.DatabaseConfig) (database.Repository, func(), error) {
	if !cfg.Enabled {
		return &database.LogRepository{Logger: logger}, func() {}, nil
	}

	repo, err := database.NewPostgresRepository(ctx, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("cannot connect to database: %w", err)
	}
	if err := repo.Migrate(ctx); err != nil {
		repo.Close()
		return nil, nil, err
	}
	logger.Info("database ready", "host", cfg.Host, "db", cfg.DBName)
	return repo, repo.Close, nil
}
