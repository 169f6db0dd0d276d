// Package report persists the outcome of backtest runs.
package report

import (
	"context"
	"errors"

	"tradesim/internal/engine"
)

// Reporter stores the report of one finished run under runID.
type Reporter interface {
	Write(ctx context.Context, runID string, r engine.Report) error
}

type multi []Reporter

// Multi writes to every reporter and joins their errors.
func Multi(reporters ...Reporter) Reporter {
	return multi(reporters)
}

func (m multi) Write(ctx context.Context, runID string, r engine.Report) error {
	var errs []error
	for _, rep := range m {
		if err := rep.Write(ctx, runID, r); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
