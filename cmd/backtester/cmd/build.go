package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"tradesim/internal/config"
	"tradesim/internal/engine"
	"tradesim/internal/report"
	"tradesim/internal/repository"
	"tradesim/strategies/donchian"
	"tradesim/types"
)

var ErrUnknownStrategy = errors.New("unknown strategy")

type dataSource interface {
	GetAssetByTicker(ctx context.Context, ticker string) (*types.Instrument, error)
	GetAggregates(ctx context.Context, assetId int, ticker string, interval types.Interval, start, end time.Time) ([]types.Candle, error)
}

// openDataSource connects the bar store named in the config. The returned func releases it.
func openDataSource(ctx context.Context, cfg *config.Config) (dataSource, func(), error) {
	switch cfg.Data.Source {
	case "postgres":
		dsn := os.Getenv(cfg.Data.DSNEnv)
		if dsn == "" {
			return nil, nil, fmt.Errorf("environment variable %s is not set", cfg.Data.DSNEnv)
		}
		db, err := repository.NewDatabase(ctx, dsn)
		if err != nil {
			return nil, nil, fmt.Errorf("connect database: %w", err)
		}
		return db, db.Close, nil
	case "csv":
		store, err := repository.NewCSVStore(cfg.Data.Dir)
		if err != nil {
			return nil, nil, err
		}
		return store, func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown data source %q", cfg.Data.Source)
	}
}

func newStrategy(ticker string, sc config.StrategyConfig) (engine.Strategy, error) {
	switch strings.ToLower(sc.Name) {
	case "donchian":
		return donchian.NewStrategy(ticker, sc.Period), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownStrategy, sc.Name)
	}
}

// buildEngine turns a validated config into an engine reading from db.
func buildEngine(cfg *config.Config, db dataSource, logger *slog.Logger, progress io.Writer) (*engine.Engine, error) {
	instruments, err := cfg.InstrumentConfigs(newStrategy)
	if err != nil {
		return nil, err
	}
	execution, err := cfg.ExecutionConfig()
	if err != nil {
		return nil, err
	}
	b, err := cfg.NewBroker()
	if err != nil {
		return nil, err
	}

	opts := []engine.Option{
		engine.WithName(cfg.Name),
		engine.WithLogger(logger),
		engine.WithProgressWriter(progress),
	}
	if cfg.Risk.PositionPercent.IsPositive() {
		opts = append(opts, engine.WithRiskManager(donchian.NewLongOnlyAllocator(cfg.Risk.PositionPercent)))
	}
	return engine.NewEngine(instruments, execution, cfg.PortfolioConfig(), b, db, opts...)
}

// newReporter collects the outputs enabled in the config. The returned func closes them.
func newReporter(cfg *config.Config) (report.Reporter, func() error, error) {
	var reporters []report.Reporter
	closeFn := func() error { return nil }

	if cfg.Report.JSONFile != "" {
		reporters = append(reporters, report.NewJSONReporter(cfg.Report.JSONFile))
	}
	if cfg.Report.TradesFile != "" {
		reporters = append(reporters, report.NewTradeLog(cfg.Report.TradesFile))
	}
	if cfg.Report.DBPath != "" {
		journal, err := report.NewSQLiteReporter(cfg.Report.DBPath)
		if err != nil {
			return nil, nil, fmt.Errorf("open journal: %w", err)
		}
		reporters = append(reporters, journal)
		closeFn = journal.Close
	}
	return report.Multi(reporters...), closeFn, nil
}
