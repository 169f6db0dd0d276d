package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// Order is a request to trade one instrument. Size is the notional in the quote currency,
// Volume an explicit unit count that takes precedence when positive. MaxVolume bounds sells.
type Order struct {
	Ticker       string
	Price        decimal.Decimal
	Size         decimal.Decimal
	Volume       decimal.Decimal
	MaxVolume    decimal.Decimal
	OrderType    OrderType
	Side         Side
	SignalReason string
	CreatedAt    time.Time
}

func NewMarketOrder(ticker string, side Side, size decimal.Decimal, reason string, createdAt time.Time) Order {
	return Order{
		Ticker:       ticker,
		Size:         size,
		OrderType:    TypeMarket,
		Side:         side,
		SignalReason: reason,
		CreatedAt:    createdAt,
	}
}

func NewLimitOrder(ticker string, side Side, size, price decimal.Decimal, reason string, createdAt time.Time) Order {
	return Order{
		Ticker:       ticker,
		Price:        price,
		Size:         size,
		OrderType:    TypeLimit,
		Side:         side,
		SignalReason: reason,
		CreatedAt:    createdAt,
	}
}

// WithVolume returns a copy of the order sized in units instead of notional.
func (o Order) WithVolume(volume decimal.Decimal) Order {
	o.Volume = volume
	return o
}
