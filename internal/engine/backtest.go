package engine

import (
	"fmt"
	"io"
	"log/slog"
	"time"

	"tradesim/types"

	"github.com/schollz/progressbar/v3"
	"github.com/shopspring/decimal"
)

type runState int

const (
	stateIdle runState = iota
	stateStepping
	stateFinished
)

// backtester is the event loop of one run. It steps through the grid strictly in order and
// applies every fill of a step before asking for the next snapshot.
type backtester struct {
	registry   *Registry
	provider   DataProvider
	strategies map[string][]Strategy
	risk       RiskManager
	broker     Broker
	account    *Account
	grid       []time.Time
	logger     *slog.Logger
	progress   io.Writer

	state    runState
	curTime  time.Time
	filled   int
	rejected int
}

func (b *backtester) run() error {
	bar := initProgressBar(len(b.grid), b.progress)
	b.state = stateStepping
	for _, t := range b.grid {
		b.curTime = t
		if err := b.step(t); err != nil {
			return err
		}
		_ = bar.Add(1)
	}
	_ = bar.Finish()
	b.state = stateFinished

	b.logger.Info("backtest finished",
		"steps", len(b.grid),
		"fills", b.filled,
		"rejected", b.rejected,
		"total_value", b.account.TotalValue().String(),
	)
	return nil
}

func (b *backtester) step(t time.Time) error {
	snap := b.provider.Snapshot(t)
	b.registry.Observe(snap)

	view := b.account.View()
	var orders []types.Order
	for _, ticker := range b.registry.Tickers() {
		for _, s := range b.strategies[ticker] {
			orders = append(orders, s.OnSnapshot(snap, view)...)
		}
	}
	orders = b.risk.Review(orders, view)

	for _, order := range orders {
		if order.Side == types.SideTypeSell {
			order.MaxVolume = b.sellLimit(order)
		}
		fill, err := b.broker.Execute(order, snap)
		if err != nil {
			b.rejected++
			b.logger.Warn("order rejected",
				"time", t,
				"ticker", order.Ticker,
				"side", order.Side,
				"type", order.OrderType,
				"reason", order.SignalReason,
				"error", err,
			)
			continue
		}
		if err := b.account.RegisterFill(fill); err != nil {
			return fmt.Errorf("register fill %s %s at %s: %w", fill.Side, fill.Ticker, t.Format(time.RFC3339), err)
		}
		b.filled++
		b.logger.Debug("order filled",
			"time", t,
			"ticker", fill.Ticker,
			"side", fill.Side,
			"volume", fill.Volume.String(),
			"price", fill.Price.String(),
			"commission", fill.Commission.String(),
		)
	}

	b.account.Advance(snap)
	return nil
}

// sellLimit is the most a sell may fill: the current holding, or less if the order asks for it.
func (b *backtester) sellLimit(order types.Order) decimal.Decimal {
	held := decimal.Zero
	if h, ok := b.account.Holding(order.Ticker); ok {
		held = h.Volume
	}
	if order.MaxVolume.IsPositive() && order.MaxVolume.LessThan(held) {
		return order.MaxVolume
	}
	return held
}

func initProgressBar(maxTicks int, w io.Writer) *progressbar.ProgressBar {
	return progressbar.NewOptions(maxTicks,
		progressbar.OptionSetWriter(w),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetElapsedTime(true),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetDescription("Backtesting in progress..."),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}))
}
