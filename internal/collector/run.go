package collector

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/sawpanic/mdcollector/internal/config"
	"github.com/sawpanic/mdcollector/internal/health"
	"github.com/sawpanic/mdcollector/internal/logging"
	kafkasink "github.com/sawpanic/mdcollector/internal/sink/kafka"
	redissink "github.com/sawpanic/mdcollector/internal/sink/redis"
	"github.com/sawpanic/mdcollector/internal/shutdown"
	"github.com/sawpanic/mdcollector/internal/telemetry"
	"github.com/sawpanic/mdcollector/internal/venue"
	"github.com/sawpanic/mdcollector/internal/venue/factory"

	"github.com/sawpanic/mdcollector/internal/model"
)

// Variant selects which channel family a collector binary subscribes to;
// the three binaries share every other piece of the pipeline (spec §1).
type Variant struct {
	DataType model.DataType
	Connect  func(venue.Venue, context.Context) (<-chan venue.Result, error)
}

var (
	OrderBookVariant = Variant{DataType: model.DataTypeOrderBook, Connect: func(v venue.Venue, ctx context.Context) (<-chan venue.Result, error) { return v.ConnectOrderBook(ctx) }}
	TradeVariant     = Variant{DataType: model.DataTypeTrade, Connect: func(v venue.Venue, ctx context.Context) (<-chan venue.Result, error) { return v.ConnectTrades(ctx) }}
	TickerVariant    = Variant{DataType: model.DataTypeTicker, Connect: func(v venue.Venue, ctx context.Context) (<-chan venue.Result, error) { return v.ConnectTicker(ctx) }}
)

// Run loads configuration, builds the sinks and the Deribit session for
// every enabled exchange, starts one worker per venue for the given
// variant, serves /health and /metrics, and blocks until SIGINT/SIGTERM
// drives the shutdown coordinator. It returns a process exit code.
func Run(configPath string, variant Variant, logger zerolog.Logger) int {
	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Error().Err(err).Msg("failed to load configuration")
		return 1
	}
	logger = logging.New(cfg.Logging)

	promReg := prometheus.NewRegistry()
	metrics := telemetry.NewRegistry(promReg)

	kafka := kafkasink.New(cfg.Kafka, logger, metrics)
	redis, err := redissink.New(cfg.Redis, logger, metrics)
	if err != nil {
		logger.Error().Err(err).Msg("failed to build redis sink")
		return 1
	}

	mux := http.NewServeMux()
	mux.Handle(cfg.HealthCheck.Endpoint, health.Handler())
	mux.Handle("/metrics", telemetry.Handler(promReg))
	httpServer := &http.Server{Addr: fmt.Sprintf("0.0.0.0:%d", cfg.HealthCheck.Port), Handler: mux}
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("health server failed")
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())

	var sessions []venue.Venue
	var wg waitGroup

	for name, exchange := range cfg.Exchanges {
		if !exchange.Enabled {
			continue
		}
		// config.Validate already rejected unsupported venue names at load
		// time, so an error here is a connection failure, or the factory and
		// the allowlist have drifted apart; either way fail fast rather than
		// silently skip the exchange.
		session, err := factory.Create(ctx, name, exchange.Symbols, logger)
		if err != nil {
			logger.Error().Err(err).Str("exchange", name).Msg("failed to build venue session")
			cancel()
			return 1
		}
		sessions = append(sessions, session)

		stream, err := variant.Connect(session, ctx)
		if err != nil {
			logger.Error().Err(err).Str("exchange", name).Msg("failed to open stream")
			cancel()
			return 1
		}

		worker := NewWorker(session.Name(), variant.DataType, kafka, redis, metrics, logger)
		wg.Add(1)
		go func() {
			defer wg.Done()
			worker.Run(ctx, stream)
		}()
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	logger.Info().Msg("shutdown signal received")

	coordinator := shutdown.New(
		cancel,
		func(deadline time.Duration) bool { return wg.WaitTimeout(deadline) },
		func(deadline time.Duration) { kafka.Flush(deadline) },
		func(deadline time.Duration) { redis.Shutdown(deadline) },
		logger,
	)
	coordinator.Run(shutdown.Deadlines{
		TaskJoin:   cfg.Shutdown.TaskJoinTimeout(),
		KafkaFlush: cfg.Shutdown.KafkaFlushTimeout(),
		RedisDrain: cfg.Shutdown.RedisDrainTimeout(),
	})

	for _, s := range sessions {
		s.Close()
	}
	kafka.Close()
	redis.Close()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), time.Second)
	defer shutdownCancel()
	httpServer.Shutdown(shutdownCtx)

	return 0
}
