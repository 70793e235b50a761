// Package shutdown implements the four-phase graceful teardown (spec §4.7):
// cancel context, join workers, flush Kafka, drain Redis. Each phase has
// its own deadline; a phase that overruns logs a warning and the
// coordinator proceeds, it never aborts.
package shutdown

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Deadlines is the per-phase timeout budget, sourced from
// config.ShutdownConfig.
type Deadlines struct {
	TaskJoin   time.Duration
	KafkaFlush time.Duration
	RedisDrain time.Duration
}

// Coordinator runs the four shutdown phases in strict sequence.
type Coordinator struct {
	cancel     context.CancelFunc
	joinTasks  func(deadline time.Duration) bool
	flushKafka func(deadline time.Duration)
	drainRedis func(deadline time.Duration)
	logger     zerolog.Logger
}

// New builds a Coordinator. joinTasks should return true if every worker
// joined before the deadline, false if the deadline elapsed first.
func New(cancel context.CancelFunc, joinTasks func(time.Duration) bool, flushKafka, drainRedis func(time.Duration), logger zerolog.Logger) *Coordinator {
	return &Coordinator{
		cancel:     cancel,
		joinTasks:  joinTasks,
		flushKafka: flushKafka,
		drainRedis: drainRedis,
		logger:     logger.With().Str("component", "shutdown").Logger(),
	}
}

// Run executes phase 1 through phase 4 in order and returns total elapsed
// time.
func (c *Coordinator) Run(d Deadlines) time.Duration {
	start := time.Now()

	c.logger.Info().Msg("phase 1: cancelling context")
	c.cancel()

	c.logger.Info().Dur("deadline", d.TaskJoin).Msg("phase 2: joining workers")
	if !c.joinTasks(d.TaskJoin) {
		c.logger.Warn().Dur("deadline", d.TaskJoin).Msg("phase 2 deadline elapsed, proceeding")
	}

	c.logger.Info().Dur("deadline", d.KafkaFlush).Msg("phase 3: flushing kafka")
	c.flushKafka(d.KafkaFlush)

	c.logger.Info().Dur("deadline", d.RedisDrain).Msg("phase 4: draining redis")
	c.drainRedis(d.RedisDrain)

	elapsed := time.Since(start)
	c.logger.Info().Dur("elapsed", elapsed).Msg("shutdown complete")
	return elapsed
}
