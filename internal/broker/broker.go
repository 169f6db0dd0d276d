// Package broker simulates order execution against the bars of a snapshot.
package broker

import (
	"errors"
	"fmt"

	"tradesim/types"

	"github.com/shopspring/decimal"
)

var (
	ErrNoMarketData         = errors.New("no market data for ticker")
	ErrInvalidVolume        = errors.New("order volume is not positive")
	ErrInsufficientHoldings = errors.New("sell volume exceeds holdings")
	ErrLimitNotCrossed      = errors.New("limit price not crossed")
	ErrUnknownOrderType     = errors.New("unknown order type")
	ErrUnknownSide          = errors.New("unknown order side")
)

// RejectionError is returned for every order the broker does not fill.
type RejectionError struct {
	Order  types.Order
	Reason error
}

func (e *RejectionError) Error() string {
	return fmt.Sprintf("%s %s %s rejected: %v", e.Order.OrderType, e.Order.Side, e.Order.Ticker, e.Reason)
}

func (e *RejectionError) Unwrap() error {
	return e.Reason
}

// Simulated fills orders at the close of the latest completed bar.
//
//   - Market orders fill at close, moved against the trader by SlippageBps.
//   - Limit buys fill when close <= limit, limit sells when close >= limit, at close.
//     Orders fill in full or not at all; there are no partial fills.
//   - Volume is the explicit order volume, or Size / price rounded down to the decimals the
//     snapshot lists for the ticker (whole units when it lists none).
//   - Sells above MaxVolume are rejected, never reduced.
//
// Simulated keeps no portfolio state, only its own parameters, so one value may serve many runs.
type Simulated struct {
	name        string
	fees        FeeModel
	slippageBps decimal.Decimal
}

type Option func(*Simulated)

func WithName(name string) Option {
	return func(s *Simulated) { s.name = name }
}

func WithSlippageBps(bps decimal.Decimal) Option {
	return func(s *Simulated) { s.slippageBps = bps }
}

func NewSimulated(fees FeeModel, opts ...Option) *Simulated {
	if fees == nil {
		fees = FlatFee{}
	}
	s := &Simulated{
		name: "simulated",
		fees: fees,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Simulated) Name() string {
	return s.name
}

func (s *Simulated) Execute(order types.Order, snap types.Snapshot) (types.Fill, error) {
	reject := func(reason error) (types.Fill, error) {
		return types.Fill{}, &RejectionError{Order: order, Reason: reason}
	}

	if !order.Side.Valid() {
		return reject(ErrUnknownSide)
	}
	last, ok := snap.Close(order.Ticker)
	if !ok || !last.IsPositive() {
		return reject(ErrNoMarketData)
	}

	var price decimal.Decimal
	switch order.OrderType {
	case types.TypeMarket:
		price = s.slip(last, order.Side)
	case types.TypeLimit:
		if !crossed(order, last) {
			return reject(ErrLimitNotCrossed)
		}
		price = last
	default:
		return reject(ErrUnknownOrderType)
	}

	volume := order.Volume
	if !volume.IsPositive() {
		volume = order.Size.Div(price)
	}
	// fills never carry more precision than the instrument trades in
	volume = volume.Truncate(snap.Decimals[order.Ticker])
	if !volume.IsPositive() {
		return reject(ErrInvalidVolume)
	}
	if order.Side == types.SideTypeSell && volume.GreaterThan(order.MaxVolume) {
		return reject(fmt.Errorf("%w: %s > %s", ErrInsufficientHoldings, volume, order.MaxVolume))
	}

	fill := types.NewFill(order.Ticker, order.Side, snap.Time, price, volume, decimal.Zero)
	fill.Commission = decimal.Max(decimal.Zero, s.fees.Commission(fill.Size))
	return fill, nil
}

func (s *Simulated) slip(price decimal.Decimal, side types.Side) decimal.Decimal {
	if !s.slippageBps.IsPositive() {
		return price
	}
	adj := price.Mul(s.slippageBps).Div(decimal.NewFromInt(10000))
	if side == types.SideTypeBuy {
		return price.Add(adj)
	}
	return price.Sub(adj)
}

func crossed(order types.Order, last decimal.Decimal) bool {
	if order.Side == types.SideTypeBuy {
		return last.LessThanOrEqual(order.Price)
	}
	return last.GreaterThanOrEqual(order.Price)
}
