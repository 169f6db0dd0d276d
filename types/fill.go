package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// Fill is the executed outcome of one order. Size is Volume * Price.
type Fill struct {
	Ticker     string
	Side       Side
	Time       time.Time
	Price      decimal.Decimal
	Volume     decimal.Decimal
	Size       decimal.Decimal
	Commission decimal.Decimal
}

func NewFill(ticker string, side Side, time time.Time, price, volume, commission decimal.Decimal) Fill {
	return Fill{
		Ticker:     ticker,
		Side:       side,
		Time:       time,
		Price:      price,
		Volume:     volume,
		Size:       price.Mul(volume),
		Commission: commission,
	}
}
