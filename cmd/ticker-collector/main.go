// Command ticker-collector runs the ticker variant of the market data
// collector: it subscribes to Deribit's ticker channel for every enabled
// exchange symbol and fans normalized ticker rows out to Kafka and Redis
// (spec §1).
package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/sawpanic/mdcollector/internal/collector"
	"github.com/sawpanic/mdcollector/internal/logging"
)

const defaultConfigPath = "config/default.toml"

func main() {
	logger := logging.Bootstrap()

	root := &cobra.Command{
		Use:   "ticker-collector",
		Short: "Collect Deribit ticker updates into Kafka and Redis",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := defaultConfigPath
			if envPath := os.Getenv("MDCOLLECTOR_CONFIG_PATH"); envPath != "" {
				path = envPath
			}
			os.Exit(collector.Run(path, collector.TickerVariant, logger))
			return nil
		},
	}

	if err := root.Execute(); err != nil {
		logger.Error().Err(err).Msg("ticker-collector exited with error")
		os.Exit(1)
	}
}
