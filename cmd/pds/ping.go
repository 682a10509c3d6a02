package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"cryptuff/internal/config"
	"cryptuff/internal/exchange"
	"cryptuff/internal/logging"
)

func newPingCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Connect, send one ping and report the round trip",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(*configPath)
			if err != nil {
				return fmt.Errorf("cannot load config: %w", err)
			}
			logger := logging.New(cfg.Log)

			client := exchange.NewKrakenClient(logger, cfg.Kraken, nil)
			ctx := cmd.Context()
			if err := client.Connect(ctx); err != nil {
				return err
			}
			defer client.Disconnect()

			rtt, err := client.Ping(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "pong from %s in %s\n", client.Endpoint(), rtt)
			return nil
		},
	}
}
