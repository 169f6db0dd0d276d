package report

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"tradesim/internal/engine"

	_ "github.com/mattn/go-sqlite3"
)

// Prices and volumes are stored as decimal text so nothing is lost to floating point.
const schema = `
CREATE TABLE IF NOT EXISTS runs (
	run_id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	broker TEXT NOT NULL,
	granularity TEXT NOT NULL,
	start_time DATETIME NOT NULL,
	end_time DATETIME NOT NULL,
	steps INTEGER NOT NULL,
	currency TEXT NOT NULL,
	initial_cash TEXT NOT NULL,
	final_cash TEXT NOT NULL,
	final_value TEXT NOT NULL,
	net_profit TEXT NOT NULL,
	total_fees TEXT NOT NULL,
	total_trades INTEGER NOT NULL,
	rejected_orders INTEGER NOT NULL,
	open_positions INTEGER NOT NULL,
	created DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS trades (
	run_id TEXT NOT NULL REFERENCES runs(run_id),
	trade_id INTEGER NOT NULL,
	ticker TEXT NOT NULL,
	side TEXT NOT NULL,
	volume TEXT NOT NULL,
	price TEXT NOT NULL,
	size TEXT NOT NULL,
	commission TEXT NOT NULL,
	time DATETIME NOT NULL,
	PRIMARY KEY (run_id, trade_id)
);

CREATE TABLE IF NOT EXISTS equity (
	run_id TEXT NOT NULL REFERENCES runs(run_id),
	time DATETIME NOT NULL,
	cash TEXT NOT NULL,
	total_value TEXT NOT NULL,
	active_positions INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS positions (
	run_id TEXT NOT NULL REFERENCES runs(run_id),
	position_id INTEGER NOT NULL,
	ticker TEXT NOT NULL,
	opened DATETIME NOT NULL,
	closed DATETIME,
	volume TEXT NOT NULL,
	volume_remaining TEXT NOT NULL,
	entry_price TEXT NOT NULL,
	close_price TEXT,
	PRIMARY KEY (run_id, position_id)
);

CREATE INDEX IF NOT EXISTS idx_equity_run_time ON equity(run_id, time);
`

// SQLiteReporter journals runs into a SQLite database. One database can hold many runs.
type SQLiteReporter struct {
	db *sql.DB
}

func NewSQLiteReporter(path string) (*SQLiteReporter, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	// sweeps write from several goroutines; one connection serializes them
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &SQLiteReporter{db: db}, nil
}

func (s *SQLiteReporter) Write(ctx context.Context, runID string, r engine.Report) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs
		(run_id, name, broker, granularity, start_time, end_time, steps, currency, initial_cash, final_cash,
		 final_value, net_profit, total_fees, total_trades, rejected_orders, open_positions, created)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, r.Name, r.Broker, string(r.Granularity), r.Start, r.End, r.Steps, r.Account.Currency,
		r.Summary.InitialCash.String(), r.Summary.FinalCash.String(), r.Summary.FinalValue.String(),
		r.Summary.NetProfit.String(), r.Summary.TotalFees.String(), r.Summary.TotalTrades,
		r.Summary.RejectedOrders, r.Summary.OpenPositions, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	for _, t := range r.Account.Trades {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO trades (run_id, trade_id, ticker, side, volume, price, size, commission, time)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			runID, t.ID, t.Ticker, string(t.Side), t.Volume.String(), t.Price.String(), t.Size.String(),
			t.Commission.String(), t.Time,
		)
		if err != nil {
			return fmt.Errorf("insert trade %d: %w", t.ID, err)
		}
	}

	for i, ts := range r.Account.Times {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO equity (run_id, time, cash, total_value, active_positions)
			VALUES (?, ?, ?, ?, ?)`,
			runID, ts, r.Account.CashSeries[i].String(), r.Account.TotalValues[i].String(), r.Account.ActivePositions[i],
		)
		if err != nil {
			return fmt.Errorf("insert equity: %w", err)
		}
	}

	for _, p := range r.Account.Positions {
		var closePrice *string
		if p.ClosePrice != nil {
			cp := p.ClosePrice.String()
			closePrice = &cp
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO positions
			(run_id, position_id, ticker, opened, closed, volume, volume_remaining, entry_price, close_price)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			runID, p.ID, p.Ticker, p.Opened, p.Closed, p.Volume.String(), p.VolumeRemaining.String(),
			p.EntryPrice.String(), closePrice,
		)
		if err != nil {
			return fmt.Errorf("insert position %d: %w", p.ID, err)
		}
	}

	return tx.Commit()
}

func (s *SQLiteReporter) Close() error {
	return s.db.Close()
}
