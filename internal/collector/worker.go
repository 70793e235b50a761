// Package collector wires a venue stream to both sinks and owns the
// per-binary startup/shutdown sequencing shared by the three collector
// variants (spec §4.6-§4.7).
package collector

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/sawpanic/mdcollector/internal/model"
	"github.com/sawpanic/mdcollector/internal/telemetry"
	"github.com/sawpanic/mdcollector/internal/venue"
)

// Sink is the capability every fan-out target provides: both kafka.Sink
// and redis.Sink satisfy it.
type Sink interface {
	Send(ctx context.Context, r model.MarketData) error
}

// Worker drains one venue stream and fans every record out to both sinks
// concurrently, per spec §4.6.
type Worker struct {
	venueName string
	dataType  model.DataType
	kafka     Sink
	redis     Sink
	metrics   *telemetry.Registry
	logger    zerolog.Logger
}

// NewWorker builds a Worker for one venue/data-type pair.
func NewWorker(venueName string, dataType model.DataType, kafka, redis Sink, metrics *telemetry.Registry, logger zerolog.Logger) *Worker {
	return &Worker{
		venueName: venueName,
		dataType:  dataType,
		kafka:     kafka,
		redis:     redis,
		metrics:   metrics,
		logger:    logger.With().Str("venue", venueName).Str("data_type", string(dataType)).Logger(),
	}
}

// Run drains stream until ctx is cancelled or the stream closes, then
// returns. It never aborts on a sink error; terminal sink failure escalates
// from inside the sink itself.
func (w *Worker) Run(ctx context.Context, stream <-chan venue.Result) {
	for {
		select {
		case <-ctx.Done():
			return
		case res, ok := <-stream:
			if !ok {
				return
			}
			if res.Err != nil {
				w.logger.Warn().Err(res.Err).Msg("stream error, continuing")
				continue
			}
			w.metrics.FramesReceived.WithLabelValues(w.venueName, string(w.dataType)).Inc()
			w.fanOut(ctx, res.Record)
		}
	}
}

func (w *Worker) fanOut(ctx context.Context, record model.MarketData) {
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		if err := w.kafka.Send(ctx, record); err != nil {
			w.logger.Error().Err(err).Str("sink", "kafka").Msg("send failed")
		}
	}()
	go func() {
		defer wg.Done()
		if err := w.redis.Send(ctx, record); err != nil {
			w.logger.Error().Err(err).Str("sink", "redis").Msg("send failed")
		}
	}()

	wg.Wait()
}
