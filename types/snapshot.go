package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// Snapshot is what every instrument looks like at one simulation step. Candles holds, per
// ticker, the completed bars up to Time, oldest first. The slices are shared with the data
// provider and must be treated as read-only. Decimals is the volume precision per ticker.
type Snapshot struct {
	Time     time.Time
	Candles  map[string][]Candle
	Decimals map[string]int32
}

// Latest returns the most recent completed bar of ticker.
func (s Snapshot) Latest(ticker string) (Candle, bool) {
	cs := s.Candles[ticker]
	if len(cs) == 0 {
		return Candle{}, false
	}
	return cs[len(cs)-1], true
}

// Close is the last traded price of ticker as of this step.
func (s Snapshot) Close(ticker string) (decimal.Decimal, bool) {
	c, ok := s.Latest(ticker)
	if !ok {
		return decimal.Zero, false
	}
	return c.Close, true
}
