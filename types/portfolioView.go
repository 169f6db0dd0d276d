package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// AccountView is a read-only copy of the account handed to strategies and risk managers.
type AccountView struct {
	Cash       decimal.Decimal
	TotalValue decimal.Decimal
	Holdings   map[string]HoldingView
	Time       time.Time
}

type HoldingView struct {
	Ticker          string
	Volume          decimal.Decimal
	Value           decimal.Decimal
	ActivePositions int
}

// Holding returns the view of ticker, zero valued when nothing is held.
func (v AccountView) Holding(ticker string) HoldingView {
	h, ok := v.Holdings[ticker]
	if !ok {
		return HoldingView{Ticker: ticker}
	}
	return h
}
