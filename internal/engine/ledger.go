package engine

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"tradesim/types"

	"github.com/shopspring/decimal"
)

var (
	ErrInsufficientInventory = errors.New("close volume exceeds active volume")
	ErrNonPositiveVolume     = errors.New("volume must be positive")
)

// Ledger keeps, per ticker, the active positions oldest first and the exited ones in the
// order they closed. Closes always consume the oldest active position first.
type Ledger struct {
	active  map[string][]*Position
	exited  map[string][]*Position
	tickers []string
	nextID  int
}

func NewLedger() *Ledger {
	return &Ledger{
		active: make(map[string][]*Position),
		exited: make(map[string][]*Position),
	}
}

// Open appends p to its ticker's queue and returns the id assigned to it. Lots without a
// positive volume are refused.
func (l *Ledger) Open(p *Position) (int, error) {
	if !p.volume.IsPositive() {
		return 0, fmt.Errorf("open %s: %w", p.ticker, ErrNonPositiveVolume)
	}
	if _, ok := l.active[p.ticker]; !ok {
		l.tickers = append(l.tickers, p.ticker)
		l.exited[p.ticker] = nil
	}
	p.id = l.nextID
	l.nextID++
	l.active[p.ticker] = append(l.active[p.ticker], p)
	return p.id, nil
}

// Close sells volume units of ticker FIFO at price. The request is checked against the
// total active volume before anything is touched.
func (l *Ledger) Close(ticker string, volume, price decimal.Decimal, ts time.Time) error {
	if !volume.IsPositive() {
		return fmt.Errorf("close %s: %w", ticker, ErrNonPositiveVolume)
	}
	if available := l.ActiveVolume(ticker); volume.GreaterThan(available) {
		return fmt.Errorf("close %s %s of %s: %w", volume, ticker, available, ErrInsufficientInventory)
	}

	left := volume
	for left.IsPositive() {
		head := l.active[ticker][0]
		left = left.Sub(head.sellOff(left, price, ts))
		if !head.IsActive() {
			l.active[ticker] = l.active[ticker][1:]
			l.exited[ticker] = append(l.exited[ticker], head)
		}
	}
	return nil
}

// AdvanceAll records the current valuation of every active position.
func (l *Ledger) AdvanceAll(snap types.Snapshot) {
	for _, t := range l.tickers {
		for _, p := range l.active[t] {
			p.update(snap)
		}
	}
}

func (l *Ledger) ActiveVolume(ticker string) decimal.Decimal {
	total := decimal.Zero
	for _, p := range l.active[ticker] {
		total = total.Add(p.remaining)
	}
	return total
}

func (l *Ledger) ActiveCount() int {
	n := 0
	for _, t := range l.tickers {
		n += len(l.active[t])
	}
	return n
}

func (l *Ledger) ActiveCountFor(ticker string) int {
	return len(l.active[ticker])
}

func (l *Ledger) Active(ticker string) []*Position {
	return append([]*Position(nil), l.active[ticker]...)
}

func (l *Ledger) Exited(ticker string) []*Position {
	return append([]*Position(nil), l.exited[ticker]...)
}

// Snapshot returns every position, active and exited, ordered by id.
func (l *Ledger) Snapshot() []PositionReport {
	out := make([]PositionReport, 0, l.nextID)
	for _, t := range l.tickers {
		for _, p := range l.active[t] {
			out = append(out, p.report())
		}
		for _, p := range l.exited[t] {
			out = append(out, p.report())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
