// Package donchian trades breakouts of the Donchian channel with an ATR stop.
package donchian

import (
	"fmt"
	"time"

	"tradesim/internal/engine"
	"tradesim/types"

	"github.com/markcheno/go-talib"
	"github.com/shopspring/decimal"
)

const (
	DefaultPeriod        = 20
	defaultATRMultiplier = 2
)

// Strategy buys a break of the highest high of the preceding period bars and sells a break
// of the lowest low, or a close below the ATR stop set at entry. Orders carry no size; the
// risk manager sizes entries.
type Strategy struct {
	ticker        string
	period        int
	atrMultiplier decimal.Decimal

	// last bar acted on, a bar is only evaluated once however fine the time grid is
	lastBar  time.Time
	stopLoss decimal.Decimal
}

func NewStrategy(ticker string, period int) *Strategy {
	if period <= 0 {
		period = DefaultPeriod
	}
	return &Strategy{
		ticker:        ticker,
		period:        period,
		atrMultiplier: decimal.NewFromInt(defaultATRMultiplier),
	}
}

func (s *Strategy) Name() string {
	return fmt.Sprintf("donchian(%d)", s.period)
}

func (s *Strategy) Clone() engine.Strategy {
	return NewStrategy(s.ticker, s.period)
}

func (s *Strategy) OnSnapshot(snap types.Snapshot, view types.AccountView) []types.Order {
	hist := snap.Candles[s.ticker]
	// period completed bars for the channel plus the current one
	if len(hist) < s.period+1 {
		return nil
	}
	candle := hist[len(hist)-1]
	if !candle.Timestamp.After(s.lastBar) {
		return nil
	}
	s.lastBar = candle.Timestamp

	highestHigh, lowestLow := donchianHighLow(hist[len(hist)-s.period-1:len(hist)-1], s.period)
	held := view.Holding(s.ticker).Volume

	if held.IsZero() && candle.High.GreaterThan(highestHigh) {
		s.stopLoss = candle.Close.Sub(calcATR(hist, s.period).Mul(s.atrMultiplier))
		signal := types.NewSignal(
			s.ticker,
			types.SideTypeBuy,
			candle.Close,
			fmt.Sprintf("Break of highest high of preceding %d bars", s.period),
			snap.Time,
		)
		return []types.Order{signal.MarketOrder()}
	}

	if held.IsPositive() {
		reason := ""
		switch {
		case candle.Low.LessThan(lowestLow):
			reason = fmt.Sprintf("Break of lowest low of preceding %d bars", s.period)
		case s.stopLoss.IsPositive() && candle.Close.LessThan(s.stopLoss):
			reason = fmt.Sprintf("ATR(%d) stop-loss", s.period)
		}
		if reason != "" {
			s.stopLoss = decimal.Zero
			signal := types.NewSignal(s.ticker, types.SideTypeSell, candle.Close, reason, snap.Time)
			return []types.Order{signal.MarketOrder().WithVolume(held)}
		}
	}
	return nil
}

// donchianHighLow is the channel over exactly period candles.
func donchianHighLow(candles []types.Candle, period int) (decimal.Decimal, decimal.Decimal) {
	if len(candles) == 0 || period <= 0 {
		return decimal.Zero, decimal.Zero
	}
	highs := make([]float64, len(candles))
	lows := make([]float64, len(candles))
	for i, c := range candles {
		highs[i] = c.High.InexactFloat64()
		lows[i] = c.Low.InexactFloat64()
	}
	maxs := talib.Max(highs, period)
	mins := talib.Min(lows, period)
	return decimal.NewFromFloat(maxs[len(maxs)-1]), decimal.NewFromFloat(mins[len(mins)-1])
}

// calcATR is the Wilder average true range of the last bar, zero without enough history.
func calcATR(candles []types.Candle, period int) decimal.Decimal {
	if len(candles) < period+1 {
		return decimal.Zero
	}
	highs := make([]float64, len(candles))
	lows := make([]float64, len(candles))
	closes := make([]float64, len(candles))
	for i, c := range candles {
		highs[i] = c.High.InexactFloat64()
		lows[i] = c.Low.InexactFloat64()
		closes[i] = c.Close.InexactFloat64()
	}
	atr := talib.Atr(highs, lows, closes, period)
	return decimal.NewFromFloat(atr[len(atr)-1])
}
