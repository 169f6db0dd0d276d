package report

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"time"

	"tradesim/internal/engine"
	"tradesim/types"
)

// TradeLog writes the trades of a run as CSV.
type TradeLog struct {
	path string
}

func NewTradeLog(path string) *TradeLog {
	return &TradeLog{path: path}
}

func (l *TradeLog) Write(_ context.Context, runID string, r engine.Report) error {
	return writeTradesCSVFile(expandPath(l.path, r.Name), runID, r.Account.Trades)
}

// writeTradesCSVFile writes trades to a CSV file at the given path.
func writeTradesCSVFile(path, runID string, trades []types.TradeRecord) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create trades file: %w", err)
	}
	defer f.Close()

	return writeTradesCSV(f, runID, trades)
}

// writeTradesCSV writes trades to any io.Writer as CSV.
func writeTradesCSV(w io.Writer, runID string, trades []types.TradeRecord) error {
	cw := csv.NewWriter(w)

	header := []string{
		"run_id",
		"trade_id",
		"ticker",
		"side",
		"volume",
		"price",
		"size",
		"commission",
		"time", // RFC3339
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for _, t := range trades {
		record := []string{
			runID,
			fmt.Sprintf("%d", t.ID),
			t.Ticker,
			string(t.Side),
			t.Volume.String(),
			t.Price.String(),
			t.Size.String(),
			t.Commission.String(),
			t.Time.Format(time.RFC3339),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write record: %w", err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}
