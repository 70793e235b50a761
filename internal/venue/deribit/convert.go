package deribit

import (
	"strings"
	"time"

	"github.com/sawpanic/mdcollector/internal/model"
)

// convertOrderBook implements spec §4.3: bids/asks carried verbatim,
// timestamp converted from milliseconds-since-epoch to UTC nanosecond
// precision, seq_id = change_id.
func convertOrderBook(venueName string, w wireOrderBook) model.OrderBookSnapshot {
	return model.OrderBookSnapshot{
		Symbol:             w.InstrumentName,
		Venue:              venueName,
		Bids:               toLevels(w.Bids),
		Asks:               toLevels(w.Asks),
		SeqID:              w.ChangeID,
		Timestamp:          msToTime(w.Timestamp),
		IngestionTimestamp: time.Now().UTC(),
	}
}

func toLevels(raw [][2]float64) []model.PriceLevel {
	if raw == nil {
		return nil
	}
	out := make([]model.PriceLevel, len(raw))
	for i, pair := range raw {
		out[i] = model.PriceLevel{Price: pair[0], Amount: pair[1]}
	}
	return out
}

// convertTrades implements spec §4.3: one TradeSnapshot per wire trade;
// side is the lowercased direction; contracts equals amount (the venue
// reports size in contracts equal to amount).
func convertTrades(venueName string, trades []wireTrade) []model.TradeSnapshot {
	out := make([]model.TradeSnapshot, len(trades))
	ingestion := time.Now().UTC()
	for i, t := range trades {
		indexPrice := t.IndexPrice
		markPrice := t.MarkPrice
		seq := t.TradeSeq
		out[i] = model.TradeSnapshot{
			Symbol:             t.InstrumentName,
			Venue:              venueName,
			TradeID:            t.TradeID,
			Price:              t.Price,
			Amount:             t.Amount,
			Side:               strings.ToLower(t.Direction),
			SeqID:              &seq,
			Timestamp:          msToTime(t.Timestamp),
			IngestionTimestamp: ingestion,
			Contracts:          t.Amount,
			IndexPrice:         &indexPrice,
			MarkPrice:          &markPrice,
			TickDirection:      t.TickDirection,
		}
	}
	return out
}

// convertTicker implements spec §4.3: timestamps stay integer
// milliseconds-since-epoch (columnar layout); state is 1 when the venue
// state string lowercases to "open"; Greeks are copied jointly or left
// jointly nil, which wireTicker.Greeks (a single pointer-to-struct) already
// guarantees.
func convertTicker(venueName string, w wireTicker) model.TickerRow {
	row := model.TickerRow{
		Symbol:                 w.InstrumentName,
		Venue:                  venueName,
		State:                  tickerState(w.State),
		Timestamp:              w.Timestamp,
		IngestionTimestamp:     time.Now().UTC().UnixMilli(),
		IndexPrice:             w.IndexPrice,
		SettlementPrice:        w.SettlementPrice,
		OpenInterest:           w.OpenInterest,
		MarkPrice:              w.MarkPrice,
		BestBidPrice:           w.BestBidPrice,
		BestAskPrice:           w.BestAskPrice,
		BestBidAmount:          w.BestBidAmount,
		BestAskAmount:          w.BestAskAmount,
		MarkIV:                 w.MarkIv,
		BidIV:                  w.BidIv,
		AskIV:                  w.AskIv,
		UnderlyingPrice:        w.UnderlyingPrice,
		UnderlyingIndex:        w.UnderlyingIndex,
		InterestRate:           w.InterestRate,
		EstimatedDeliveryPrice: w.EstimatedDeliveryPrice,
		CurrentFunding:         w.CurrentFunding,
		DeliveryPrice:          w.DeliveryPrice,
		Funding8h:              w.Funding8h,
		InterestValue:          w.InterestValue,
	}
	if w.Greeks != nil {
		row.GreeksDelta = &w.Greeks.Delta
		row.GreeksGamma = &w.Greeks.Gamma
		row.GreeksVega = &w.Greeks.Vega
		row.GreeksTheta = &w.Greeks.Theta
		row.GreeksRho = &w.Greeks.Rho
	}
	return row
}

func tickerState(s string) int {
	if strings.ToLower(s) == "open" {
		return 1
	}
	return 0
}

func msToTime(ms int64) time.Time {
	return time.Unix(0, ms*int64(time.Millisecond)).UTC()
}
