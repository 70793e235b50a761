// Command orderbook-collector runs the order book variant of the market
// data collector: it subscribes to Deribit's grouped book channel for every
// enabled exchange symbol and fans normalized snapshots out to Kafka and
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
		Use:   "orderbook-collector",
		Short: "Collect Deribit order book snapshots into Kafka and Redis",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := defaultConfigPath
			if envPath := os.Getenv("MDCOLLECTOR_CONFIG_PATH"); envPath != "" {
				path = envPath
			}
			os.Exit(collector.Run(path, collector.OrderBookVariant, logger))
			return nil
		},
	}

	if err := root.Execute(); err != nil {
		logger.Error().Err(err).Msg("orderbook-collector exited with error")
		os.Exit(1)
	}
}
