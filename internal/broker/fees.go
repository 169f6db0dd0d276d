package broker

import (
	"github.com/shopspring/decimal"
)

// FeeModel computes the commission for one fill from its notional value.
type FeeModel interface {
	Commission(tradeValue decimal.Decimal) decimal.Decimal
}

// FlatFee charges the same amount per order.
type FlatFee struct {
	Amount decimal.Decimal
}

func (f FlatFee) Commission(tradeValue decimal.Decimal) decimal.Decimal {
	if tradeValue.LessThanOrEqual(decimal.Zero) || f.Amount.IsNegative() {
		return decimal.Zero
	}
	return f.Amount
}

// ProportionalFee charges Rate of the trade value.
type ProportionalFee struct {
	Rate decimal.Decimal
}

func (f ProportionalFee) Commission(tradeValue decimal.Decimal) decimal.Decimal {
	if tradeValue.LessThanOrEqual(decimal.Zero) || f.Rate.IsNegative() {
		return decimal.Zero
	}
	return tradeValue.Mul(f.Rate)
}

// TieredFee charges Rate of the trade value bounded by Min and Max per order.
// A zero Max means no upper bound.
type TieredFee struct {
	Rate decimal.Decimal
	Min  decimal.Decimal
	Max  decimal.Decimal
}

func (f TieredFee) Commission(tradeValue decimal.Decimal) decimal.Decimal {
	if tradeValue.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero
	}
	fee := ProportionalFee{Rate: f.Rate}.Commission(tradeValue)
	if fee.LessThan(f.Min) {
		fee = f.Min
	}
	if f.Max.IsPositive() && fee.GreaterThan(f.Max) {
		fee = f.Max
	}
	if fee.IsNegative() {
		return decimal.Zero
	}
	return fee
}

// IBKRNetherlandsFixedUSD is the IBKR "Fixed - IB SmartRouting" schedule for USD-denominated
// Netherlands stocks:
//   - 0.05% of trade value
//   - Minimum per order: USD 1.70
//   - Maximum per order: USD 39.00
func IBKRNetherlandsFixedUSD() TieredFee {
	return TieredFee{
		Rate: decimal.RequireFromString("0.0005"),
		Min:  decimal.RequireFromString("1.70"),
		Max:  decimal.RequireFromString("39"),
	}
}

// IBKRForexTier1 is 0.20 basis points of trade value with a USD 2.00 minimum.
func IBKRForexTier1() TieredFee {
	return TieredFee{
		Rate: decimal.RequireFromString("0.00002"),
		Min:  decimal.RequireFromString("2.00"),
	}
}
