package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"tradesim/types"

	"golang.org/x/sync/errgroup"
)

var (
	ErrNoInstruments      = errors.New("no instruments configured")
	ErrNoBroker           = errors.New("no broker configured")
	ErrNoDataStore        = errors.New("no data store configured")
	ErrMissingConfig      = errors.New("execution and portfolio config are required")
	ErrInvalidTimeRange   = errors.New("end must be after start")
	ErrInvalidInitialCash = errors.New("initial cash must not be negative")
	ErrAlreadyRun         = errors.New("engine already ran, clone it for another run")
)

// Engine wires one backtest run: it loads instruments and bars from the data store, builds
// the time grid and drives the event loop. An Engine runs once; use Clone for another run.
type Engine struct {
	name            string
	db              dataStore
	instruments     []*InstrumentConfig
	executionConfig *ExecutionConfig
	portfolioConfig *PortfolioConfig
	broker          Broker
	risk            RiskManager
	provider        func(*Registry) DataProvider
	logger          *slog.Logger
	progress        io.Writer

	registry   *Registry
	backtester *backtester
}

type Option func(*Engine)

func WithName(name string) Option {
	return func(e *Engine) { e.name = name }
}

// WithRiskManager installs a risk manager. Without one orders go straight to the broker.
func WithRiskManager(rm RiskManager) Option {
	return func(e *Engine) {
		if rm != nil {
			e.risk = rm
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

func WithProgressWriter(w io.Writer) Option {
	return func(e *Engine) {
		if w != nil {
			e.progress = w
		}
	}
}

// WithDataProvider replaces the historical bar replay, e.g. with a streamed feed. The
// factory is called once per run with that run's registry.
func WithDataProvider(factory func(*Registry) DataProvider) Option {
	return func(e *Engine) { e.provider = factory }
}

func NewEngine(
	instruments []*InstrumentConfig,
	executionConfig *ExecutionConfig,
	portfolioConfig *PortfolioConfig,
	broker Broker,
	db dataStore,
	opts ...Option,
) (*Engine, error) {
	if len(instruments) == 0 {
		return nil, ErrNoInstruments
	}
	if broker == nil {
		return nil, ErrNoBroker
	}
	if db == nil {
		return nil, ErrNoDataStore
	}
	if executionConfig == nil || portfolioConfig == nil {
		return nil, ErrMissingConfig
	}
	if portfolioConfig.initialCash.IsNegative() {
		return nil, ErrInvalidInitialCash
	}
	if _, err := types.ParseGranularity(string(executionConfig.granularity)); err != nil {
		return nil, err
	}
	if !executionConfig.start.IsZero() && !executionConfig.end.IsZero() && !executionConfig.end.After(executionConfig.start) {
		return nil, fmt.Errorf("%w: %s - %s", ErrInvalidTimeRange, executionConfig.start, executionConfig.end)
	}

	e := &Engine{
		name:            "backtest",
		db:              db,
		instruments:     instruments,
		executionConfig: executionConfig,
		portfolioConfig: portfolioConfig,
		broker:          broker,
		risk:            noopRiskManager{},
		provider: func(r *Registry) DataProvider {
			return newHistoricalProvider(r, executionConfig.lookback)
		},
		logger:   slog.Default(),
		progress: os.Stderr,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

func (e *Engine) Name() string { return e.name }

// Account is the account of the last run, nil before Run.
func (e *Engine) Account() *Account {
	if e.backtester == nil {
		return nil
	}
	return e.backtester.account
}

// Load fetches instruments and their bars. Run calls it when it has not happened yet.
func (e *Engine) Load(ctx context.Context) error {
	registry := NewRegistry()
	for _, cfg := range e.instruments {
		inst, err := e.db.GetAssetByTicker(ctx, cfg.ticker)
		if err != nil {
			return fmt.Errorf("load instrument %s: %w", cfg.ticker, err)
		}
		candles, err := e.db.GetAggregates(ctx, inst.Id, cfg.ticker, cfg.interval, cfg.start, cfg.end)
		if err != nil {
			return fmt.Errorf("load bars %s: %w", cfg.ticker, err)
		}
		chart, err := types.NewChart(cfg.ticker, cfg.interval, candles)
		if err != nil {
			return fmt.Errorf("load bars %s: %w", cfg.ticker, err)
		}
		chart.ID = inst.Id
		inst.Bars = chart
		if err := registry.Add(inst); err != nil {
			return err
		}
		e.logger.Debug("instrument loaded", "ticker", inst.Ticker, "kind", inst.Kind, "bars", chart.Len())
	}
	e.registry = registry
	return nil
}

// Run executes the backtest. The loop itself has no cancellation; ctx only bounds loading.
func (e *Engine) Run(ctx context.Context) error {
	if e.backtester != nil {
		return ErrAlreadyRun
	}
	if e.registry == nil {
		if err := e.Load(ctx); err != nil {
			return err
		}
	}

	start, end := e.timeRange()
	grid := BuildTimeGrid(start, end, e.executionConfig.granularity)

	strategies := make(map[string][]Strategy, len(e.instruments))
	for _, cfg := range e.instruments {
		strategies[cfg.ticker] = append(strategies[cfg.ticker], cfg.strategies...)
	}

	e.backtester = &backtester{
		registry:   e.registry,
		provider:   e.provider(e.registry),
		strategies: strategies,
		risk:       e.risk,
		broker:     e.broker,
		account:    NewAccount(e.portfolioConfig.initialCash, e.portfolioConfig.currency, e.registry),
		grid:       grid,
		logger:     e.logger.With("run", e.name),
		progress:   e.progress,
	}
	e.logger.Info("backtest started",
		"run", e.name,
		"start", start,
		"end", end,
		"granularity", e.executionConfig.granularity,
		"steps", len(grid),
		"instruments", e.registry.Len(),
	)
	return e.backtester.run()
}

// Clone returns an engine with the same configuration and its own registry, account and
// strategy state. Broker, risk manager and data store are shared and must be safe for that.
func (e *Engine) Clone(name string) *Engine {
	cp := *e
	cp.name = name
	cp.backtester = nil
	cp.instruments = make([]*InstrumentConfig, 0, len(e.instruments))
	for _, cfg := range e.instruments {
		cp.instruments = append(cp.instruments, cfg.clone())
	}
	if e.registry != nil {
		cp.registry = e.registry.Clone()
	}
	return &cp
}

// Sweep runs engines concurrently, at most limit at a time. Each engine still runs its own
// loop sequentially. The first error is returned.
func Sweep(ctx context.Context, engines []*Engine, limit int) error {
	g, ctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}
	for _, e := range engines {
		g.Go(func() error {
			if err := e.Run(ctx); err != nil {
				return fmt.Errorf("run %s: %w", e.name, err)
			}
			return nil
		})
	}
	return g.Wait()
}

func (e *Engine) timeRange() (time.Time, time.Time) {
	start, end := getGlobalTimeRange(e.registry.Instruments())
	if !e.executionConfig.start.IsZero() {
		start = e.executionConfig.start
	}
	if !e.executionConfig.end.IsZero() {
		end = e.executionConfig.end
	}
	return start, end
}

// getGlobalTimeRange spans from the earliest first bar to the latest last bar.
func getGlobalTimeRange(instruments []*types.Instrument) (time.Time, time.Time) {
	var minStart, maxEnd time.Time
	for _, inst := range instruments {
		if inst.Bars.Len() == 0 {
			continue
		}
		if minStart.IsZero() || inst.Bars.Start.Before(minStart) {
			minStart = inst.Bars.Start
		}
		if maxEnd.IsZero() || inst.Bars.End.After(maxEnd) {
			maxEnd = inst.Bars.End
		}
	}
	if minStart.IsZero() {
		return time.UnixMilli(0), time.UnixMilli(0)
	}
	return minStart, maxEnd
}
