package deribit

import "testing"

func TestOrderBookChannel(t *testing.T) {
	got := orderBookChannel("BTC-PERPETUAL")
	want := "book.BTC-PERPETUAL.none.10.100ms"
	if got != want {
		t.Fatalf("orderBookChannel() = %q, want %q", got, want)
	}
}

func TestTradesChannel(t *testing.T) {
	got := tradesChannel("BTC-PERPETUAL")
	want := "trades.BTC-PERPETUAL.100ms"
	if got != want {
		t.Fatalf("tradesChannel() = %q, want %q", got, want)
	}
}

func TestTickerChannel(t *testing.T) {
	got := tickerChannel("BTC-PERPETUAL")
	want := "ticker.BTC-PERPETUAL.100ms"
	if got != want {
		t.Fatalf("tickerChannel() = %q, want %q", got, want)
	}
}
