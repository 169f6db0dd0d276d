package engine

import (
	"time"

	"tradesim/types"

	"github.com/shopspring/decimal"
)

type InstrumentConfig struct {
	ticker     string
	interval   types.Interval
	start      time.Time
	end        time.Time
	strategies []Strategy
}

func NewInstrumentConfigs(instruments ...*InstrumentConfig) []*InstrumentConfig {
	return instruments
}

// NewInstrumentConfig describes which bars to load for ticker and which strategies trade it.
func NewInstrumentConfig(ticker string, interval types.Interval, start, end time.Time, strategies ...Strategy) *InstrumentConfig {
	return &InstrumentConfig{
		ticker:     ticker,
		interval:   interval,
		start:      start,
		end:        end,
		strategies: strategies,
	}
}

func (c *InstrumentConfig) Ticker() string { return c.ticker }

func (c *InstrumentConfig) clone() *InstrumentConfig {
	cp := *c
	cp.strategies = make([]Strategy, 0, len(c.strategies))
	for _, s := range c.strategies {
		cp.strategies = append(cp.strategies, cloneStrategy(s))
	}
	return &cp
}

type PortfolioConfig struct {
	initialCash decimal.Decimal
	currency    string
}

func NewPortfolioConfig(initialCash decimal.Decimal, currency string) *PortfolioConfig {
	return &PortfolioConfig{
		initialCash: initialCash,
		currency:    currency,
	}
}

// ExecutionConfig controls the time grid. Zero start or end are derived from the loaded bars.
// lookback caps the number of bars per instrument in a snapshot, zero means all history.
type ExecutionConfig struct {
	granularity types.Interval
	start       time.Time
	end         time.Time
	lookback    int
}

func NewExecutionConfig(granularity types.Interval, start, end time.Time, lookback int) *ExecutionConfig {
	return &ExecutionConfig{
		granularity: granularity,
		start:       start,
		end:         end,
		lookback:    lookback,
	}
}
