package kafka

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	segmentio "github.com/segmentio/kafka-go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sawpanic/mdcollector/internal/model"
	"github.com/sawpanic/mdcollector/internal/retry"
	"github.com/sawpanic/mdcollector/internal/telemetry"
)

type fakeWriter struct {
	mu       sync.Mutex
	fails    int
	attempts int
	messages []segmentio.Message
	closed   bool
}

func (f *fakeWriter) WriteMessages(ctx context.Context, msgs ...segmentio.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.attempts++
	if f.attempts <= f.fails {
		return errors.New("broker unavailable")
	}
	f.messages = append(f.messages, msgs...)
	return nil
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

func newTestSink(orderbook, trade, ticker *fakeWriter, maxAttempts int) *Sink {
	return newWithWriters(
		orderbook, trade, ticker,
		retry.Policy{InitialBackoff: time.Millisecond, MaxAttempts: maxAttempts},
		time.Second,
		zerolog.Nop(),
		telemetry.NewRegistry(prometheus.NewRegistry()),
	)
}

func TestSend_RoutesByDataType(t *testing.T) {
	ob, tr, ti := &fakeWriter{}, &fakeWriter{}, &fakeWriter{}
	s := newTestSink(ob, tr, ti, 3)

	require.NoError(t, s.Send(context.Background(), model.OrderBookSnapshot{Symbol: "BTC-PERPETUAL", Venue: "deribit"}))
	require.NoError(t, s.Send(context.Background(), model.TradeSnapshot{Symbol: "BTC-PERPETUAL", Venue: "deribit"}))
	require.NoError(t, s.Send(context.Background(), model.TickerRow{Symbol: "BTC-PERPETUAL", Venue: "deribit"}))

	assert.Len(t, ob.messages, 1)
	assert.Len(t, tr.messages, 1)
	assert.Len(t, ti.messages, 1)
	assert.Equal(t, "deribit.BTC-PERPETUAL", string(ob.messages[0].Key))
}

func TestSend_SucceedsAfterTransientFailures(t *testing.T) {
	ob := &fakeWriter{fails: 2}
	s := newTestSink(ob, &fakeWriter{}, &fakeWriter{}, 3)

	err := s.Send(context.Background(), model.OrderBookSnapshot{Symbol: "BTC-PERPETUAL", Venue: "deribit"})
	require.NoError(t, err)
	assert.Equal(t, 3, ob.attempts)
	assert.Len(t, ob.messages, 1)
}

func TestSend_EscalatesOnExhaustion(t *testing.T) {
	ob := &fakeWriter{fails: 100}
	s := newTestSink(ob, &fakeWriter{}, &fakeWriter{}, 2)

	var exitCode int
	var exitCalled bool
	origExit := osExit
	osExit = func(code int) { exitCalled = true; exitCode = code }
	defer func() { osExit = origExit }()

	err := s.Send(context.Background(), model.OrderBookSnapshot{Symbol: "BTC-PERPETUAL", Venue: "deribit"})
	require.Error(t, err)
	assert.True(t, exitCalled)
	assert.Equal(t, 1, exitCode)
	assert.Equal(t, 3, ob.attempts) // first attempt + 2 retries
}

func TestFlush_WaitsForInFlightSends(t *testing.T) {
	ob := &fakeWriter{}
	s := newTestSink(ob, &fakeWriter{}, &fakeWriter{}, 3)

	require.NoError(t, s.Send(context.Background(), model.OrderBookSnapshot{Symbol: "BTC-PERPETUAL", Venue: "deribit"}))
	s.Flush(time.Second)
	assert.Len(t, ob.messages, 1)
}
