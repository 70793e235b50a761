package collector

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sawpanic/mdcollector/internal/model"
	"github.com/sawpanic/mdcollector/internal/telemetry"
	"github.com/sawpanic/mdcollector/internal/venue"
)

type fakeSink struct {
	mu    sync.Mutex
	sent  []model.MarketData
	err   error
	delay time.Duration
}

func (f *fakeSink) Send(ctx context.Context, r model.MarketData) error {
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, r)
	return f.err
}

func (f *fakeSink) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

func TestWorker_FansOutToBothSinks(t *testing.T) {
	kafka, redis := &fakeSink{}, &fakeSink{}
	metrics := telemetry.NewRegistry(prometheus.NewRegistry())
	w := NewWorker("deribit", model.DataTypeOrderBook, kafka, redis, metrics, zerolog.Nop())

	stream := make(chan venue.Result, 1)
	stream <- venue.Result{Record: model.OrderBookSnapshot{Symbol: "BTC-PERPETUAL", Venue: "deribit"}}
	close(stream)

	ctx := context.Background()
	w.Run(ctx, stream)

	assert.Equal(t, 1, kafka.count())
	assert.Equal(t, 1, redis.count())
}

func TestWorker_ContinuesOnStreamError(t *testing.T) {
	kafka, redis := &fakeSink{}, &fakeSink{}
	metrics := telemetry.NewRegistry(prometheus.NewRegistry())
	w := NewWorker("deribit", model.DataTypeTrade, kafka, redis, metrics, zerolog.Nop())

	stream := make(chan venue.Result, 2)
	stream <- venue.Result{Err: errors.New("decode failure")}
	stream <- venue.Result{Record: model.TradeSnapshot{Symbol: "BTC-PERPETUAL", Venue: "deribit"}}
	close(stream)

	w.Run(context.Background(), stream)

	assert.Equal(t, 1, kafka.count())
	assert.Equal(t, 1, redis.count())
}

func TestWorker_ContinuesOnSinkError(t *testing.T) {
	kafka := &fakeSink{err: errors.New("kafka down")}
	redis := &fakeSink{}
	metrics := telemetry.NewRegistry(prometheus.NewRegistry())
	w := NewWorker("deribit", model.DataTypeTicker, kafka, redis, metrics, zerolog.Nop())

	stream := make(chan venue.Result, 1)
	stream <- venue.Result{Record: model.TickerRow{Symbol: "BTC-PERPETUAL", Venue: "deribit"}}
	close(stream)

	w.Run(context.Background(), stream)

	assert.Equal(t, 1, kafka.count())
	assert.Equal(t, 1, redis.count())
}

func TestWorker_StopsOnContextCancel(t *testing.T) {
	kafka, redis := &fakeSink{}, &fakeSink{}
	metrics := telemetry.NewRegistry(prometheus.NewRegistry())
	w := NewWorker("deribit", model.DataTypeOrderBook, kafka, redis, metrics, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	stream := make(chan venue.Result)
	done := make(chan struct{})
	go func() {
		w.Run(ctx, stream)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop on context cancel")
	}
	require.Equal(t, 0, kafka.count())
}
