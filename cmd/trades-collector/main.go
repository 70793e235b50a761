// Command trades-collector runs the trades variant of the market data
// collector: it subscribes to Deribit's trades channel for every enabled
// exchange symbol and fans normalized trade snapshots out to Kafka and
// Redis (spec §1).
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
		Use:   "trades-collector",
		Short: "Collect Deribit trades into Kafka and Redis",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := defaultConfigPath
			if envPath := os.Getenv("MDCOLLECTOR_CONFIG_PATH"); envPath != "" {
				path = envPath
			}
			os.Exit(collector.Run(path, collector.TradeVariant, logger))
			return nil
		},
	}

	if err := root.Execute(); err != nil {
		logger.Error().Err(err).Msg("trades-collector exited with error")
		os.Exit(1)
	}
}
