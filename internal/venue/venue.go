// Package venue defines the capability set every exchange session
// implements, independent of which exchange backs it (spec §4.1). Only
// Deribit is implemented today, but sink and worker code depend on this
// interface, not on the deribit package; internal/venue/factory is the only
// place a new venue's construction logic needs to be added.
package venue

import (
	"context"

	"github.com/sawpanic/mdcollector/internal/model"
)

// Result carries either a normalized record or an error from a venue's
// demultiplexed stream. A non-nil Err marks a transient, per-frame decoding
// failure; the stream itself continues. A failed connection read is not
// reported as a Result: it closes the stream.
type Result struct {
	Record model.MarketData
	Err    error
}

// Venue is the capability set a market-data collector consumes: name,
// subscription management, and the three stream openers.
type Venue interface {
	// Name returns the lowercase venue identifier (e.g. "deribit").
	Name() string

	// Subscribe adds symbols to the subscription set without opening a
	// stream.
	Subscribe(symbols []string)

	// Unsubscribe removes symbols from the subscription set.
	Unsubscribe(symbols []string)

	// ConnectOrderBook opens the order book stream for the current
	// subscription set. Fails immediately if the set is empty.
	ConnectOrderBook(ctx context.Context) (<-chan Result, error)

	// ConnectTrades opens the trades stream for the current subscription
	// set. Fails immediately if the set is empty.
	ConnectTrades(ctx context.Context) (<-chan Result, error)

	// ConnectTicker opens the ticker stream for the current subscription
	// set. Fails immediately if the set is empty.
	ConnectTicker(ctx context.Context) (<-chan Result, error)

	// Close tears down the underlying connection. Safe to call once,
	// after which every open stream channel is closed.
	Close() error
}
