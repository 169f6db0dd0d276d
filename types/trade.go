package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// TradeRecord is one entry of the account trade log, written for every registered fill.
type TradeRecord struct {
	ID         int             `json:"id"`
	Ticker     string          `json:"ticker"`
	Side       Side            `json:"side"`
	Volume     decimal.Decimal `json:"volume"`
	Price      decimal.Decimal `json:"price"`
	Size       decimal.Decimal `json:"size"`
	Commission decimal.Decimal `json:"commission"`
	Time       time.Time       `json:"time"`
}
