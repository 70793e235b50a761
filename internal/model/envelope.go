package model

import (
	"encoding/json"
	"fmt"
)

// EncodeEnvelope serializes a MarketData record with its data_type
// discriminator flattened alongside the record's own fields, matching the
// wire envelope scenario 1 of the specification expects
// (`{"data_type":"orderbook",...}`).
func EncodeEnvelope(r MarketData) ([]byte, error) {
	switch v := r.(type) {
	case OrderBookSnapshot:
		return json.Marshal(orderBookSnapshotWire{DataType: string(DataTypeOrderBook), OrderBookSnapshot: v})
	case TradeSnapshot:
		return json.Marshal(tradeSnapshotWire{DataType: string(DataTypeTrade), TradeSnapshot: v})
	case TickerRow:
		return json.Marshal(tickerRowWire{DataType: string(DataTypeTicker), TickerRow: v})
	default:
		return nil, fmt.Errorf("model: unknown market data variant %T", r)
	}
}

// DecodeEnvelope is the inverse of EncodeEnvelope: it reads the data_type
// discriminator first and then unmarshals into the matching variant.
func DecodeEnvelope(data []byte) (MarketData, error) {
	var disc struct {
		DataType string `json:"data_type"`
	}
	if err := json.Unmarshal(data, &disc); err != nil {
		return nil, fmt.Errorf("model: decode discriminator: %w", err)
	}

	switch DataType(disc.DataType) {
	case DataTypeOrderBook:
		var w orderBookSnapshotWire
		if err := json.Unmarshal(data, &w); err != nil {
			return nil, fmt.Errorf("model: decode orderbook: %w", err)
		}
		return w.OrderBookSnapshot, nil
	case DataTypeTrade:
		var w tradeSnapshotWire
		if err := json.Unmarshal(data, &w); err != nil {
			return nil, fmt.Errorf("model: decode trade: %w", err)
		}
		return w.TradeSnapshot, nil
	case DataTypeTicker:
		var w tickerRowWire
		if err := json.Unmarshal(data, &w); err != nil {
			return nil, fmt.Errorf("model: decode ticker: %w", err)
		}
		return w.TickerRow, nil
	default:
		return nil, fmt.Errorf("model: unknown data_type %q", disc.DataType)
	}
}

// EncodeValue serializes only the inner record, without the tagged
// envelope's data_type field — the format the Redis sink writes, per the
// specification's "value = JSON of the inner record (not the tagged
// envelope)" rule.
func EncodeValue(r MarketData) ([]byte, error) {
	return json.Marshal(r)
}
