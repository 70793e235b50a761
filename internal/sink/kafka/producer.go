// Package kafka implements the durable-log sink (spec §4.4): one producer
// bound to three topics (orderbook, trade, ticker), partitioned by
// "{venue}.{symbol}", with bounded exponential backoff and process-abort
// escalation on exhaustion.
package kafka

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	segmentio "github.com/segmentio/kafka-go"
	"github.com/rs/zerolog"

	"github.com/sawpanic/mdcollector/internal/config"
	"github.com/sawpanic/mdcollector/internal/errs"
	"github.com/sawpanic/mdcollector/internal/model"
	"github.com/sawpanic/mdcollector/internal/retry"
	"github.com/sawpanic/mdcollector/internal/telemetry"
)

// writer is the subset of *kafka.Writer this package depends on, so tests
// can substitute a fake without a live broker.
type writer interface {
	WriteMessages(ctx context.Context, msgs ...segmentio.Message) error
	Close() error
}

// Sink is the Kafka producer sink. One Sink instance serves all three
// collector variants; Send picks the topic by the record's dynamic type.
type Sink struct {
	orderbook writer
	trade     writer
	ticker    writer

	policy  retry.Policy
	timeout time.Duration
	logger  zerolog.Logger
	metrics *telemetry.Registry

	wg sync.WaitGroup
}

// sinkName labels every metric this sink emits.
const sinkName = "kafka"

// New builds a Sink with one segmentio/kafka-go writer per topic, each
// configured per spec §4.4's production profile (LZ4 compression, acks=all,
// batching tuned for low-latency small messages). kafka-go's Writer has no
// equivalent to librdkafka's queue.buffering.max.messages/max.kbytes,
// max.in.flight.requests.per.connection, or enable.idempotence, so the
// idempotent-producer and in-flight-limit guarantees spec §4.4 describes
// are not available through this client; every other knob in the profile
// is configured below.
func New(cfg config.KafkaConfig, logger zerolog.Logger, metrics *telemetry.Registry) *Sink {
	build := func(topic string) writer {
		return &segmentio.Writer{
			Addr:         segmentio.TCP(cfg.BootstrapServers),
			Topic:        topic,
			Balancer:     &segmentio.Hash{},
			BatchTimeout: 10 * time.Millisecond,
			BatchBytes:   65536,
			Compression:  segmentio.Lz4,
			RequiredAcks: segmentio.RequireAll,
			MaxAttempts:  3,
			WriteTimeout: cfg.Producer.Timeout(),
			Async:        false,
		}
	}
	return newWithWriters(
		build(cfg.OrderbookTopic),
		build(cfg.TradeTopic),
		build(cfg.TickerTopic),
		retry.Policy{InitialBackoff: cfg.Producer.InitialBackoff(), MaxAttempts: cfg.Producer.MaxReconnectAttempts},
		cfg.Producer.SendTimeout(),
		logger,
		metrics,
	)
}

func newWithWriters(orderbook, trade, ticker writer, policy retry.Policy, timeout time.Duration, logger zerolog.Logger, metrics *telemetry.Registry) *Sink {
	return &Sink{
		orderbook: orderbook,
		trade:     trade,
		ticker:    ticker,
		policy:    policy,
		timeout:   timeout,
		logger:    logger.With().Str("sink", sinkName).Logger(),
		metrics:   metrics,
	}
}

// Send routes r to its per-type topic keyed by "{venue}.{symbol}", retrying
// with bounded exponential backoff. On exhaustion it terminates the process
// so an external supervisor restarts it (spec §4.4's escalation policy).
func (s *Sink) Send(ctx context.Context, r model.MarketData) error {
	s.wg.Add(1)
	defer s.wg.Done()

	w, err := s.writerFor(r)
	if err != nil {
		return errs.Wrap(errs.ErrConfig, err)
	}

	payload, err := model.EncodeEnvelope(r)
	if err != nil {
		return errs.Wrap(errs.ErrSerialization, err)
	}
	key := fmt.Sprintf("%s.%s", r.GetVenue(), r.GetSymbol())
	dataType := string(r.Type())

	attempt := 0
	sendErr := retry.Do(ctx, s.policy, func() error {
		if attempt > 0 {
			s.metrics.SinkRetries.WithLabelValues(sinkName, dataType).Inc()
		}
		attempt++
		sendCtx, cancel := context.WithTimeout(ctx, s.timeout)
		defer cancel()
		return w.WriteMessages(sendCtx, segmentio.Message{Key: []byte(key), Value: payload})
	})
	if sendErr == nil {
		s.metrics.SinkSends.WithLabelValues(sinkName, dataType, "success").Inc()
		return nil
	}

	s.metrics.SinkSends.WithLabelValues(sinkName, dataType, "failure").Inc()
	s.metrics.SinkEscalations.WithLabelValues(sinkName, dataType).Inc()
	s.logger.Error().Err(sendErr).Str("key", key).Msg("kafka send exhausted retries, escalating")
	s.escalate(sendErr)
	return errs.Wrap(errs.ErrSinkTerminal, sendErr)
}

func (s *Sink) writerFor(r model.MarketData) (writer, error) {
	switch r.Type() {
	case model.DataTypeOrderBook:
		return s.orderbook, nil
	case model.DataTypeTrade:
		return s.trade, nil
	case model.DataTypeTicker:
		return s.ticker, nil
	default:
		return nil, fmt.Errorf("unknown market data type %q", r.Type())
	}
}

// osExit is overridden in tests; in production escalate calls it to abort
// the process so the supervisor restarts it.
var osExit = os.Exit

func (s *Sink) escalate(err error) {
	osExit(1)
}

// Flush blocks until in-flight writes complete or deadline elapses, per
// spec §4.4's shutdown-coordinator contract.
func (s *Sink) Flush(deadline time.Duration) {
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(deadline):
		s.logger.Warn().Dur("deadline", deadline).Msg("kafka flush deadline elapsed")
	}
}

// Close releases the underlying writer connections.
func (s *Sink) Close() error {
	var firstErr error
	for _, w := range []writer{s.orderbook, s.trade, s.ticker} {
		if err := w.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
