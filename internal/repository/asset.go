package repository

import (
	"context"
	"errors"
	"fmt"

	"tradesim/types"

	"github.com/jackc/pgx/v5"
)

// GetAssetByTicker retrieves a types.Instrument by its ticker.
func (db *Database) GetAssetByTicker(ctx context.Context, ticker string) (*types.Instrument, error) {
	asset, err := db.assets.GetAssetByTicker(ctx, ticker)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("ticker %s %w", ticker, ErrAssetNotFound)
		}
		return nil, err
	}
	inst := types.NewInstrument(asset.Ticker, asset.Name, types.ParseInstrumentKind(asset.Type), asset.Currency)
	inst.Id = int(asset.ID)
	if asset.CreatedAt != nil {
		inst.CreatedAt = *asset.CreatedAt
	}
	if asset.ModifiedAt != nil {
		inst.ModifiedAt = *asset.ModifiedAt
	}
	return inst, nil
}
