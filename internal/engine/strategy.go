package engine

import (
	"tradesim/types"
)

// Strategy is attached to an instrument and asked for orders once per step.
type Strategy interface {
	OnSnapshot(snap types.Snapshot, view types.AccountView) []types.Order
}

// RiskManager sees all orders of a step before they reach the broker and may drop,
// resize or add orders.
type RiskManager interface {
	Review(orders []types.Order, view types.AccountView) []types.Order
}

// Strategies holding per-run state implement Cloner so cloned runs do not share it.
type Cloner interface {
	Clone() Strategy
}

// StrategyFunc adapts a plain function to a Strategy.
type StrategyFunc func(snap types.Snapshot, view types.AccountView) []types.Order

func (f StrategyFunc) OnSnapshot(snap types.Snapshot, view types.AccountView) []types.Order {
	return f(snap, view)
}

// noopRiskManager passes orders through untouched. Used when no risk manager is configured.
type noopRiskManager struct{}

func (noopRiskManager) Review(orders []types.Order, _ types.AccountView) []types.Order {
	return orders
}

func cloneStrategy(s Strategy) Strategy {
	if c, ok := s.(Cloner); ok {
		return c.Clone()
	}
	return s
}
