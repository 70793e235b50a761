package deribit

import "encoding/json"

// wireMessage is the envelope shared by every frame on the connection:
// request/response pairs carry a non-zero id; server-pushed notifications
// (subscription data, heartbeats) carry a method and params instead.
type wireMessage struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      int64           `json:"id,omitempty"`
	Method  string          `json:"method,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *wireError      `json:"error,omitempty"`
	Params  *wireParams     `json:"params,omitempty"`
}

type wireError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type wireParams struct {
	Channel string          `json:"channel,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
	Type    string          `json:"type,omitempty"` // heartbeat subtype: "heartbeat" | "test_request"
}

type wireRequest struct {
	JSONRPC string         `json:"jsonrpc"`
	ID      int64          `json:"id"`
	Method  string         `json:"method"`
	Params  map[string]any `json:"params"`
}

// wireOrderBook is the grouped-book payload for a 5-segment channel
// (book.{symbol}.none.{group}.{interval}): levels are plain [price, amount]
// pairs, no per-level action tag.
type wireOrderBook struct {
	InstrumentName string      `json:"instrument_name"`
	ChangeID       int64       `json:"change_id"`
	Timestamp      int64       `json:"timestamp"`
	Bids           [][2]float64 `json:"bids"`
	Asks           [][2]float64 `json:"asks"`
}

type wireTrade struct {
	InstrumentName string  `json:"instrument_name"`
	TradeID        string  `json:"trade_id"`
	TradeSeq       int64   `json:"trade_seq"`
	Timestamp      int64   `json:"timestamp"`
	Price          float64 `json:"price"`
	Amount         float64 `json:"amount"`
	Direction      string  `json:"direction"` // "buy" | "sell"
	IndexPrice     float64 `json:"index_price"`
	MarkPrice      float64 `json:"mark_price"`
	TickDirection  int     `json:"tick_direction"` // 0,1,2,3
}

type wireGreeks struct {
	Delta float64 `json:"delta"`
	Gamma float64 `json:"gamma"`
	Vega  float64 `json:"vega"`
	Theta float64 `json:"theta"`
	Rho   float64 `json:"rho"`
}

type wireTicker struct {
	InstrumentName  string   `json:"instrument_name"`
	Timestamp       int64    `json:"timestamp"`
	State           string   `json:"state"` // "open" | "closed"
	IndexPrice      *float64 `json:"index_price,omitempty"`
	SettlementPrice *float64 `json:"settlement_price,omitempty"`
	OpenInterest    *float64 `json:"open_interest,omitempty"`
	MarkPrice       *float64 `json:"mark_price,omitempty"`
	BestBidPrice    *float64 `json:"best_bid_price,omitempty"`
	BestAskPrice    *float64 `json:"best_ask_price,omitempty"`
	BestBidAmount   *float64 `json:"best_bid_amount,omitempty"`
	BestAskAmount   *float64 `json:"best_ask_amount,omitempty"`
	MarkIv          *float64 `json:"mark_iv,omitempty"`
	BidIv           *float64 `json:"bid_iv,omitempty"`
	AskIv           *float64 `json:"ask_iv,omitempty"`
	UnderlyingPrice *float64 `json:"underlying_price,omitempty"`
	UnderlyingIndex *string  `json:"underlying_index,omitempty"`
	InterestRate    *float64 `json:"interest_rate,omitempty"`
	EstimatedDeliveryPrice *float64 `json:"estimated_delivery_price,omitempty"`
	CurrentFunding  *float64 `json:"current_funding,omitempty"`
	DeliveryPrice   *float64 `json:"delivery_price,omitempty"`
	Funding8h       *float64 `json:"funding_8h,omitempty"`
	InterestValue   *float64 `json:"interest_value,omitempty"`
	Greeks          *wireGreeks `json:"greeks,omitempty"`
}
