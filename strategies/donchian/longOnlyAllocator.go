package donchian

import (
	"tradesim/types"

	"github.com/shopspring/decimal"
)

// LongOnlyAllocator is a risk manager that never shorts or pyramids. Entries without a size
// get positionPercent of the available cash. Tickers with more than one order in a step are
// skipped as ambiguous.
type LongOnlyAllocator struct {
	positionPercent decimal.Decimal
}

func NewLongOnlyAllocator(positionPercent decimal.Decimal) *LongOnlyAllocator {
	return &LongOnlyAllocator{
		positionPercent: positionPercent,
	}
}

func (a *LongOnlyAllocator) Review(orders []types.Order, view types.AccountView) []types.Order {
	if len(orders) == 0 {
		return nil
	}

	perTicker := make(map[string]int, len(orders))
	for _, o := range orders {
		perTicker[o.Ticker]++
	}

	out := make([]types.Order, 0, len(orders))
	for _, order := range orders {
		// Skip tickers with more than 1 order (double signal, etc.)
		if perTicker[order.Ticker] != 1 {
			continue
		}
		held := view.Holding(order.Ticker).Volume

		switch order.Side {
		case types.SideTypeBuy:
			// same direction -> do nothing (no pyramiding here)
			if held.IsPositive() {
				continue
			}
			if order.Volume.IsZero() && order.Size.IsZero() {
				order.Size = view.Cash.Mul(a.positionPercent)
			}
			if !order.Volume.IsPositive() && !order.Size.IsPositive() {
				continue
			}
			order.SignalReason = "No existing position (long-only): " + order.SignalReason

		case types.SideTypeSell:
			// Long-only: just close the long, do NOT open a short
			if !held.IsPositive() {
				continue
			}
			if !order.Volume.IsPositive() || order.Volume.GreaterThan(held) {
				order.Volume = held
			}
			order.SignalReason = "Closing long (long-only): " + order.SignalReason

		default:
			continue
		}
		out = append(out, order)
	}
	return out
}
