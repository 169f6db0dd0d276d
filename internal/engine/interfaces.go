package engine

import (
	"context"
	"time"

	"tradesim/types"
)

type dataStore interface {
	GetAssetByTicker(ctx context.Context, ticker string) (*types.Instrument, error)
	GetAggregates(ctx context.Context, assetId int, ticker string, interval types.Interval, start, end time.Time) ([]types.Candle, error)
}

// DataProvider hands out the market state at a simulation time. Calls come in increasing
// time order from a single goroutine.
type DataProvider interface {
	Snapshot(t time.Time) types.Snapshot
}

// Broker turns an order into a fill. Any error is a rejection of that order only.
type Broker interface {
	Name() string
	Execute(order types.Order, snap types.Snapshot) (types.Fill, error)
}
