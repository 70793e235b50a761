package deribit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConvertOrderBook(t *testing.T) {
	w := wireOrderBook{
		InstrumentName: "BTC-PERPETUAL",
		ChangeID:       42,
		Timestamp:      1_700_000_000_000,
		Bids:           [][2]float64{{50000, 1.5}, {49990, 2.0}},
		Asks:           [][2]float64{{50010, 0.5}},
	}

	got := convertOrderBook("deribit", w)

	require.Equal(t, "BTC-PERPETUAL", got.Symbol)
	require.Equal(t, "deribit", got.Venue)
	require.Equal(t, int64(42), got.SeqID)
	require.Len(t, got.Bids, 2)
	require.Len(t, got.Asks, 1)
	assert.Equal(t, 50000.0, got.BestBidPrice())
	assert.Equal(t, 50010.0, got.BestAskPrice())
	assert.Equal(t, time.Unix(0, 1_700_000_000_000*int64(time.Millisecond)).UTC(), got.Timestamp)
	assert.WithinDuration(t, time.Now().UTC(), got.IngestionTimestamp, 2*time.Second)
}

func TestConvertOrderBook_EmptySides(t *testing.T) {
	got := convertOrderBook("deribit", wireOrderBook{InstrumentName: "BTC-PERPETUAL"})
	assert.Equal(t, 0.0, got.BestBidPrice())
	assert.Equal(t, 0.0, got.BestAskPrice())
}

func TestConvertTrades(t *testing.T) {
	wire := []wireTrade{
		{
			InstrumentName: "BTC-PERPETUAL",
			TradeID:        "1234",
			TradeSeq:       99,
			Timestamp:      1_700_000_000_000,
			Price:          50005,
			Amount:         10,
			Direction:      "SELL",
			IndexPrice:     49999,
			MarkPrice:      50001,
			TickDirection:  2,
		},
	}

	got := convertTrades("deribit", wire)
	require.Len(t, got, 1)

	trade := got[0]
	assert.Equal(t, "sell", trade.Side)
	assert.Equal(t, "1234", trade.TradeID)
	require.NotNil(t, trade.SeqID)
	assert.Equal(t, int64(99), *trade.SeqID)
	assert.Equal(t, 10.0, trade.Contracts)
	require.NotNil(t, trade.IndexPrice)
	assert.Equal(t, 49999.0, *trade.IndexPrice)
	require.NotNil(t, trade.MarkPrice)
	assert.Equal(t, 50001.0, *trade.MarkPrice)
	assert.Equal(t, 2, trade.TickDirection)
}

func TestConvertTicker_WithGreeks(t *testing.T) {
	delta := 0.5
	w := wireTicker{
		InstrumentName: "BTC-28JUN26-60000-C",
		Timestamp:      1_700_000_000_123,
		State:          "open",
		Greeks:         &wireGreeks{Delta: delta, Gamma: 0.01, Vega: 0.2, Theta: -0.3, Rho: 0.05},
	}

	got := convertTicker("deribit", w)

	assert.Equal(t, 1, got.State)
	assert.Equal(t, int64(1_700_000_000_123), got.Timestamp)
	require.True(t, got.HasGreeks())
	assert.Equal(t, delta, *got.GreeksDelta)
	assert.Equal(t, 0.05, *got.GreeksRho)
}

func TestConvertTicker_WithoutGreeks(t *testing.T) {
	w := wireTicker{InstrumentName: "BTC-PERPETUAL", State: "closed"}

	got := convertTicker("deribit", w)

	assert.Equal(t, 0, got.State)
	assert.False(t, got.HasGreeks())
	assert.Nil(t, got.GreeksDelta)
}

func TestTickerState(t *testing.T) {
	assert.Equal(t, 1, tickerState("open"))
	assert.Equal(t, 1, tickerState("OPEN"))
	assert.Equal(t, 0, tickerState("closed"))
	assert.Equal(t, 0, tickerState(""))
}
