package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// Signal is what a strategy wants to trade, before the risk manager sizes it. Price is the
// reference price the signal fired at.
type Signal struct {
	Ticker    string
	Side      Side
	Price     decimal.Decimal
	Reason    string
	CreatedAt time.Time
}

func NewSignal(
	ticker string,
	side Side,
	price decimal.Decimal,
	reason string,
	createdAt time.Time,
) Signal {
	return Signal{
		Ticker:    ticker,
		Side:      side,
		Price:     price,
		Reason:    reason,
		CreatedAt: createdAt,
	}
}

// MarketOrder turns the signal into a market order without size.
func (s Signal) MarketOrder() Order {
	return NewMarketOrder(s.Ticker, s.Side, decimal.Zero, s.Reason, s.CreatedAt)
}
