package engine

import (
	"time"

	"tradesim/types"
)

// historicalProvider replays the bar history of every registered instrument. A bar becomes
// visible once it has closed, i.e. at Timestamp + interval.
type historicalProvider struct {
	registry *Registry
	lookback int
	// index of the last visible candle per ticker, -1 when none
	feedIndex map[string]int
}

func newHistoricalProvider(registry *Registry, lookback int) *historicalProvider {
	idx := make(map[string]int, registry.Len())
	for _, t := range registry.Tickers() {
		idx[t] = -1
	}
	return &historicalProvider{
		registry:  registry,
		lookback:  lookback,
		feedIndex: idx,
	}
}

func (h *historicalProvider) Snapshot(t time.Time) types.Snapshot {
	snap := types.Snapshot{
		Time:     t,
		Candles:  make(map[string][]types.Candle, h.registry.Len()),
		Decimals: make(map[string]int32, h.registry.Len()),
	}
	for _, inst := range h.registry.Instruments() {
		snap.Decimals[inst.Ticker] = inst.Decimals
		candles := inst.Bars.Candles
		i := advanceFeedIndex(candles, h.feedIndex[inst.Ticker], t, inst.Bars.Interval)
		h.feedIndex[inst.Ticker] = i
		if i < 0 {
			continue
		}
		snap.Candles[inst.Ticker] = window(candles, i, h.lookback)
	}
	return snap
}

// window returns the candles up to and including index, at most lookback of them.
func window(candles []types.Candle, index, lookback int) []types.Candle {
	end := index + 1
	if end > len(candles) {
		end = len(candles)
	}
	start := 0
	if lookback > 0 {
		start = end - lookback
	}
	if start < 0 {
		start = 0
	}
	if start > end {
		start = end
	}
	return candles[start:end:end]
}

// Index only goes one way
func advanceFeedIndex(candles []types.Candle, prevIndex int, curTime time.Time, candleInterval types.Interval) int {
	if prevIndex < -1 {
		prevIndex = -1
	}

	nextIdx := prevIndex + 1
	candleDuration := candleInterval.Duration()

	for nextIdx < len(candles) {
		closeTime := candles[nextIdx].Timestamp.Add(candleDuration)
		if closeTime.After(curTime) {
			break
		}

		prevIndex = nextIdx
		nextIdx++
	}

	return prevIndex
}
