package engine

import (
	"errors"
	"fmt"
	"io"
	"time"

	"tradesim/types"

	"github.com/shopspring/decimal"
)

var ErrNotRun = errors.New("backtest has not been run")

// Report is everything a run produced, in a shape that marshals without cycles.
type Report struct {
	Name        string              `json:"name"`
	Broker      string              `json:"broker"`
	Start       time.Time           `json:"start"`
	End         time.Time           `json:"end"`
	Granularity types.Interval      `json:"granularity"`
	Steps       int                 `json:"steps"`
	Instruments []InstrumentSummary `json:"instruments"`
	Summary     Summary             `json:"summary"`
	Account     AccountReport       `json:"account"`
}

type InstrumentSummary struct {
	Ticker     string               `json:"ticker"`
	Name       string               `json:"name"`
	Kind       types.InstrumentKind `json:"kind"`
	Currency   string               `json:"currency"`
	Bars       int                  `json:"bars"`
	Strategies []string             `json:"strategies"`
}

// Summary holds raw run totals. Risk adjusted statistics are left to the consumer.
type Summary struct {
	InitialCash    decimal.Decimal `json:"initialCash"`
	FinalCash      decimal.Decimal `json:"finalCash"`
	FinalValue     decimal.Decimal `json:"finalValue"`
	NetProfit      decimal.Decimal `json:"netProfit"`
	TotalFees      decimal.Decimal `json:"totalFees"`
	TotalTrades    int             `json:"totalTrades"`
	RejectedOrders int             `json:"rejectedOrders"`
	OpenPositions  int             `json:"openPositions"`
}

type AccountReport struct {
	Currency        string              `json:"currency"`
	InitialCash     decimal.Decimal     `json:"initialCash"`
	Cash            decimal.Decimal     `json:"cash"`
	TotalValue      decimal.Decimal     `json:"totalValue"`
	Holdings        []HoldingReport     `json:"holdings"`
	Trades          []types.TradeRecord `json:"trades"`
	Times           []time.Time         `json:"times"`
	TotalValues     []decimal.Decimal   `json:"totalValues"`
	CashSeries      []decimal.Decimal   `json:"cashSeries"`
	ActivePositions []int               `json:"activePositions"`
	Positions       []PositionReport    `json:"positions"`
}

type HoldingReport struct {
	Ticker string          `json:"ticker"`
	Volume decimal.Decimal `json:"volume"`
	Value  decimal.Decimal `json:"value"`
}

type PositionReport struct {
	ID              int              `json:"id"`
	Ticker          string           `json:"ticker"`
	Opened          time.Time        `json:"opened"`
	Closed          *time.Time       `json:"closed"`
	Volume          decimal.Decimal  `json:"volume"`
	VolumeRemaining decimal.Decimal  `json:"volumeRemaining"`
	Size            decimal.Decimal  `json:"size"`
	EntryPrice      decimal.Decimal  `json:"entryPrice"`
	ClosePrice      *decimal.Decimal `json:"closePrice"`
	Transactions    []Transaction    `json:"transactions"`
	Series          []PositionPoint  `json:"series"`
}

func (p *Position) report() PositionReport {
	r := PositionReport{
		ID:              p.id,
		Ticker:          p.ticker,
		Opened:          p.opened,
		Volume:          p.volume,
		VolumeRemaining: p.remaining,
		Size:            p.size,
		EntryPrice:      p.entryPrice,
		Transactions:    p.Transactions(),
		Series:          p.Series(),
	}
	if p.closed != nil {
		closed := *p.closed
		r.Closed = &closed
	}
	if p.closePrice != nil {
		cp := *p.closePrice
		r.ClosePrice = &cp
	}
	return r
}

// Snapshot returns the full account state including all positions.
func (a *Account) Snapshot() AccountReport {
	r := AccountReport{
		Currency:        a.currency,
		InitialCash:     a.initialCash,
		Cash:            a.cash,
		TotalValue:      a.totalValue,
		Trades:          a.Trades(),
		Times:           append([]time.Time(nil), a.times...),
		TotalValues:     append([]decimal.Decimal(nil), a.totalValues...),
		CashSeries:      append([]decimal.Decimal(nil), a.cashes...),
		ActivePositions: append([]int(nil), a.activePositions...),
		Positions:       a.positions.Snapshot(),
	}
	for _, t := range a.tickers {
		h := a.holdings[t]
		r.Holdings = append(r.Holdings, HoldingReport{Ticker: t, Volume: h.Volume, Value: h.Value})
	}
	return r
}

// Report assembles the result of the last Run.
func (e *Engine) Report() (Report, error) {
	if e.backtester == nil || e.backtester.state != stateFinished {
		return Report{}, ErrNotRun
	}
	b := e.backtester
	acct := b.account.Snapshot()

	r := Report{
		Name:        e.name,
		Broker:      e.broker.Name(),
		Granularity: e.executionConfig.granularity,
		Steps:       len(b.grid),
		Account:     acct,
	}
	if len(b.grid) > 0 {
		r.Start = b.grid[0]
		r.End = b.grid[len(b.grid)-1]
	}
	for _, inst := range b.registry.Instruments() {
		var names []string
		for _, s := range b.strategies[inst.Ticker] {
			names = append(names, strategyName(s))
		}
		r.Instruments = append(r.Instruments, InstrumentSummary{
			Ticker:     inst.Ticker,
			Name:       inst.Name,
			Kind:       inst.Kind,
			Currency:   inst.Currency,
			Bars:       inst.Bars.Len(),
			Strategies: names,
		})
	}

	fees := decimal.Zero
	for _, tr := range acct.Trades {
		fees = fees.Add(tr.Commission)
	}
	r.Summary = Summary{
		InitialCash:    acct.InitialCash,
		FinalCash:      acct.Cash,
		FinalValue:     acct.TotalValue,
		NetProfit:      acct.TotalValue.Sub(acct.InitialCash),
		TotalFees:      fees,
		TotalTrades:    len(acct.Trades),
		RejectedOrders: b.rejected,
		OpenPositions:  b.account.Positions().ActiveCount(),
	}
	return r, nil
}

// Print writes a human readable summary of the report.
func (r Report) Print(w io.Writer) {
	fmt.Fprintln(w, "===== Backtest Report =====")
	fmt.Fprintf(w, "Name:                  %s\n", r.Name)
	fmt.Fprintf(w, "Broker:                %s\n", r.Broker)
	fmt.Fprintf(w, "Period:                %s - %s\n", r.Start.Format(time.DateOnly), r.End.Format(time.DateOnly))
	fmt.Fprintf(w, "Steps:                 %d (%s)\n", r.Steps, r.Granularity)

	fmt.Fprintln(w, "\n-- Instruments --")
	for _, inst := range r.Instruments {
		fmt.Fprintf(w, "%-22s %s, %d bars, %v\n", inst.Ticker+":", inst.Kind, inst.Bars, inst.Strategies)
	}

	fmt.Fprintln(w, "\n-- Account --")
	fmt.Fprintf(w, "Initial Cash:          %s %s\n", r.Summary.InitialCash, r.Account.Currency)
	fmt.Fprintf(w, "Final Cash:            %s\n", r.Summary.FinalCash)
	fmt.Fprintf(w, "Final Value:           %s\n", r.Summary.FinalValue)
	fmt.Fprintf(w, "Net Profit:            %s\n", r.Summary.NetProfit)

	fmt.Fprintln(w, "\n-- Trading --")
	fmt.Fprintf(w, "Total Trades:          %d\n", r.Summary.TotalTrades)
	fmt.Fprintf(w, "Rejected Orders:       %d\n", r.Summary.RejectedOrders)
	fmt.Fprintf(w, "Open Positions:        %d\n", r.Summary.OpenPositions)
	fmt.Fprintf(w, "Total Fees:            %s\n", r.Summary.TotalFees)

	fmt.Fprintln(w, "===========================")
}

type named interface {
	Name() string
}

func strategyName(s Strategy) string {
	if n, ok := s.(named); ok {
		return n.Name()
	}
	return fmt.Sprintf("%T", s)
}
