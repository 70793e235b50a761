// Package redis implements the last-value cache sink (spec §4.5): a
// per-type key and TTL, last-write-wins SET, with the same bounded
// exponential backoff and process-abort escalation policy as the Kafka
// sink.
package redis

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/sawpanic/mdcollector/internal/config"
	"github.com/sawpanic/mdcollector/internal/errs"
	"github.com/sawpanic/mdcollector/internal/model"
	"github.com/sawpanic/mdcollector/internal/retry"
	"github.com/sawpanic/mdcollector/internal/telemetry"
)

const (
	orderbookTTL = 3 * time.Second
	tradeTTL     = 60 * time.Second
	tickerTTL    = 300 * time.Second
)

// client is the subset of *redis.Client this package depends on, so tests
// can substitute a hand-written fake without a live Redis.
type client interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) *goredis.StatusCmd
	Close() error
}

// Sink is the Redis last-value cache sink.
type Sink struct {
	client  client
	policy  retry.Policy
	logger  zerolog.Logger
	metrics *telemetry.Registry

	mu       sync.Mutex
	draining bool
	inflight sync.WaitGroup
}

// sinkName labels every metric this sink emits.
const sinkName = "redis"

// New builds a Sink from a single Redis URL, with auto-reconnect handled by
// go-redis's own connection pool.
func New(cfg config.RedisConfig, logger zerolog.Logger, metrics *telemetry.Registry) (*Sink, error) {
	opts, err := goredis.ParseURL(cfg.URL)
	if err != nil {
		return nil, errs.Wrap(errs.ErrConfig, fmt.Errorf("parse redis url: %w", err))
	}
	return newWithClient(goredis.NewClient(opts),
		retry.Policy{InitialBackoff: cfg.InitialBackoff(), MaxAttempts: cfg.MaxReconnectAttempts},
		logger, metrics), nil
}

func newWithClient(c client, policy retry.Policy, logger zerolog.Logger, metrics *telemetry.Registry) *Sink {
	return &Sink{client: c, policy: policy, logger: logger.With().Str("sink", sinkName).Logger(), metrics: metrics}
}

// Send writes r's inner (untagged) JSON to its per-type key with the
// matching TTL. No writes are accepted once Shutdown has been entered.
func (s *Sink) Send(ctx context.Context, r model.MarketData) error {
	s.mu.Lock()
	if s.draining {
		s.mu.Unlock()
		return errs.Wrap(errs.ErrSinkTerminal, fmt.Errorf("redis sink is shutting down"))
	}
	s.inflight.Add(1)
	s.mu.Unlock()
	defer s.inflight.Done()

	key, ttl := keyAndTTL(r)

	payload, err := model.EncodeValue(r)
	if err != nil {
		return errs.Wrap(errs.ErrSerialization, err)
	}

	dataType := string(r.Type())
	attempt := 0
	sendErr := retry.Do(ctx, s.policy, func() error {
		if attempt > 0 {
			s.metrics.SinkRetries.WithLabelValues(sinkName, dataType).Inc()
		}
		attempt++
		return s.client.Set(ctx, key, payload, ttl).Err()
	})
	if sendErr == nil {
		s.metrics.SinkSends.WithLabelValues(sinkName, dataType, "success").Inc()
		return nil
	}

	s.metrics.SinkSends.WithLabelValues(sinkName, dataType, "failure").Inc()
	s.metrics.SinkEscalations.WithLabelValues(sinkName, dataType).Inc()
	s.logger.Error().Err(sendErr).Str("key", key).Msg("redis write exhausted retries, escalating")
	s.escalate(sendErr)
	return errs.Wrap(errs.ErrSinkTerminal, sendErr)
}

func keyAndTTL(r model.MarketData) (string, time.Duration) {
	switch r.Type() {
	case model.DataTypeOrderBook:
		return fmt.Sprintf("%s:%s:orderbook", r.GetVenue(), r.GetSymbol()), orderbookTTL
	case model.DataTypeTrade:
		return fmt.Sprintf("%s:%s:last_trade", r.GetVenue(), r.GetSymbol()), tradeTTL
	default:
		return fmt.Sprintf("%s:%s:ticker", r.GetVenue(), r.GetSymbol()), tickerTTL
	}
}

// osExit is overridden in tests; in production escalate calls it to abort
// the process so the supervisor restarts it.
var osExit = os.Exit

func (s *Sink) escalate(err error) {
	osExit(1)
}

// Shutdown stops accepting new writes and waits for outstanding ones up to
// deadline, per spec §4.5.
func (s *Sink) Shutdown(deadline time.Duration) {
	s.mu.Lock()
	s.draining = true
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.inflight.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(deadline):
		s.logger.Warn().Dur("deadline", deadline).Msg("redis drain deadline elapsed")
	}
}

// Close releases the underlying connection pool.
func (s *Sink) Close() error {
	return s.client.Close()
}
