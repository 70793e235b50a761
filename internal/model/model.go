// Package model defines the normalized market-data records that every venue
// session produces and every sink consumes: a tagged union over order book,
// trade, and ticker variants with a wire-visible data_type discriminator.
package model

import "time"

// DataType is the wire discriminator for the MarketData tagged union.
type DataType string

const (
	DataTypeOrderBook DataType = "orderbook"
	DataTypeTrade     DataType = "trade"
	DataTypeTicker    DataType = "ticker"
)

// MarketData is the capability set shared by every normalized record
// variant: enough to route it to a sink topic/key without a type switch
// leaking outside the sink package.
type MarketData interface {
	Type() DataType
	GetVenue() string
	GetSymbol() string
}

// PriceLevel is one (price, amount) entry of an order book side.
type PriceLevel struct {
	Price  float64 `json:"price"`
	Amount float64 `json:"amount"`
}

// OrderBookSnapshot is a grouped order book update. Bids are non-increasing
// by price, asks non-decreasing; index 0 of each side is the best level.
type OrderBookSnapshot struct {
	Symbol             string       `json:"symbol"`
	Venue              string       `json:"venue"`
	Bids               []PriceLevel `json:"bids"`
	Asks               []PriceLevel `json:"asks"`
	SeqID              int64        `json:"seq_id"`
	InstrumentClass    *string      `json:"instrument_class,omitempty"`
	Timestamp          time.Time    `json:"timestamp"`
	IngestionTimestamp time.Time    `json:"ingestion_timestamp"`
}

type orderBookSnapshotWire struct {
	DataType string `json:"data_type"`
	OrderBookSnapshot
}

func (o OrderBookSnapshot) Type() DataType   { return DataTypeOrderBook }
func (o OrderBookSnapshot) GetVenue() string  { return o.Venue }
func (o OrderBookSnapshot) GetSymbol() string { return o.Symbol }

// BestBidPrice returns the best (highest) bid price, or 0 if there are no bids.
func (o OrderBookSnapshot) BestBidPrice() float64 {
	if len(o.Bids) == 0 {
		return 0
	}
	return o.Bids[0].Price
}

// BestAskPrice returns the best (lowest) ask price, or 0 if there are no asks.
func (o OrderBookSnapshot) BestAskPrice() float64 {
	if len(o.Asks) == 0 {
		return 0
	}
	return o.Asks[0].Price
}

// TradeSnapshot is a single executed trade.
type TradeSnapshot struct {
	Symbol             string    `json:"symbol"`
	Venue              string    `json:"venue"`
	TradeID            string    `json:"trade_id"`
	Price              float64   `json:"price"`
	Amount             float64   `json:"amount"`
	Side               string    `json:"side"` // "buy" or "sell"
	SeqID              *int64    `json:"seq_id,omitempty"`
	InstrumentClass    *string   `json:"instrument_class,omitempty"`
	Timestamp          time.Time `json:"timestamp"`
	IngestionTimestamp time.Time `json:"ingestion_timestamp"`
	Contracts          float64   `json:"contracts"`
	IndexPrice         *float64  `json:"index_price,omitempty"`
	MarkPrice          *float64  `json:"mark_price,omitempty"`
	TickDirection      int       `json:"tick_direction"` // 0,1,2,3
}

type tradeSnapshotWire struct {
	DataType string `json:"data_type"`
	TradeSnapshot
}

func (t TradeSnapshot) Type() DataType   { return DataTypeTrade }
func (t TradeSnapshot) GetVenue() string  { return t.Venue }
func (t TradeSnapshot) GetSymbol() string { return t.Symbol }

// TickerRow is a flat, columnar-friendly ticker update. Timestamps are
// integer epoch milliseconds (not RFC3339) to match downstream columnar
// storage.
type TickerRow struct {
	Symbol             string  `json:"symbol"`
	Venue              string  `json:"venue"`
	State              int     `json:"state"` // 1 = open, 0 = closed
	Timestamp          int64   `json:"timestamp"`
	IngestionTimestamp int64   `json:"ingestion_timestamp"`
	IndexPrice         *float64 `json:"index_price,omitempty"`
	SettlementPrice    *float64 `json:"settlement_price,omitempty"`
	OpenInterest       *float64 `json:"open_interest,omitempty"`
	MarkPrice          *float64 `json:"mark_price,omitempty"`
	BestBidPrice       *float64 `json:"best_bid_price,omitempty"`
	BestAskPrice       *float64 `json:"best_ask_price,omitempty"`
	BestBidAmount      *float64 `json:"best_bid_amount,omitempty"`
	BestAskAmount      *float64 `json:"best_ask_amount,omitempty"`
	MarkIV             *float64 `json:"mark_iv,omitempty"`
	BidIV              *float64 `json:"bid_iv,omitempty"`
	AskIV              *float64 `json:"ask_iv,omitempty"`
	UnderlyingPrice    *float64 `json:"underlying_price,omitempty"`
	UnderlyingIndex    *string  `json:"underlying_index,omitempty"`
	InterestRate       *float64 `json:"interest_rate,omitempty"`
	EstimatedDeliveryPrice *float64 `json:"estimated_delivery_price,omitempty"`
	CurrentFunding     *float64 `json:"current_funding,omitempty"`
	DeliveryPrice      *float64 `json:"delivery_price,omitempty"`
	Funding8h          *float64 `json:"funding_8h,omitempty"`
	InterestValue      *float64 `json:"interest_value,omitempty"`
	GreeksDelta        *float64 `json:"greeks_delta,omitempty"`
	GreeksGamma        *float64 `json:"greeks_gamma,omitempty"`
	GreeksVega         *float64 `json:"greeks_vega,omitempty"`
	GreeksTheta        *float64 `json:"greeks_theta,omitempty"`
	GreeksRho          *float64 `json:"greeks_rho,omitempty"`
}

type tickerRowWire struct {
	DataType string `json:"data_type"`
	TickerRow
}

func (t TickerRow) Type() DataType   { return DataTypeTicker }
func (t TickerRow) GetVenue() string  { return t.Venue }
func (t TickerRow) GetSymbol() string { return t.Symbol }

// HasGreeks reports whether all five option Greeks are present (they must
// be jointly present or jointly absent).
func (t TickerRow) HasGreeks() bool {
	return t.GreeksDelta != nil && t.GreeksGamma != nil && t.GreeksVega != nil &&
		t.GreeksTheta != nil && t.GreeksRho != nil
}
