package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// Candle is one OHLCV bar. Bars come from a data store and are never mutated by the engine.
type Candle struct {
	AssetId   int             `json:"id"`
	Ticker    string          `json:"ticker"`
	Open      decimal.Decimal `json:"open"`
	Close     decimal.Decimal `json:"close"`
	High      decimal.Decimal `json:"high"`
	Low       decimal.Decimal `json:"low"`
	Volume    decimal.Decimal `json:"volume"`
	Interval  Interval        `json:"interval"`
	Timestamp time.Time       `json:"timestamp"`
}

// CloseTime is the moment the bar is complete and may be shown to a strategy.
func (c Candle) CloseTime() time.Time {
	return c.Timestamp.Add(c.Interval.Duration())
}
