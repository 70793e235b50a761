package deribit

import "fmt"

// Channel-name derivation is bit-exact with Deribit's wire protocol (spec
// §4.1): grouped book at 10 levels / 100ms, trades and ticker both at
// 100ms aggregation.

func orderBookChannel(symbol string) string {
	return fmt.Sprintf("book.%s.none.10.100ms", symbol)
}

func tradesChannel(symbol string) string {
	return fmt.Sprintf("trades.%s.100ms", symbol)
}

func tickerChannel(symbol string) string {
	return fmt.Sprintf("ticker.%s.100ms", symbol)
}
