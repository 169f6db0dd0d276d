package engine

import (
	"errors"
	"fmt"
	"time"

	"tradesim/types"

	"github.com/shopspring/decimal"
)

var (
	ErrUnknownSide       = errors.New("unknown fill side")
	ErrUnknownInstrument = errors.New("fill for unregistered instrument")
)

// Holding is what the account owns of one instrument.
type Holding struct {
	Ticker     string
	Volume     decimal.Decimal
	Value      decimal.Decimal
	Instrument *types.Instrument
}

// Account is the cash and equity book of a single run. Only the simulation loop mutates it.
type Account struct {
	initialCash decimal.Decimal
	currency    string
	cash        decimal.Decimal
	totalValue  decimal.Decimal
	holdings    map[string]*Holding
	tickers     []string
	positions   *Ledger
	trades      []types.TradeRecord

	times           []time.Time
	totalValues     []decimal.Decimal
	cashes          []decimal.Decimal
	activePositions []int
}

func NewAccount(initialCash decimal.Decimal, currency string, registry *Registry) *Account {
	a := &Account{
		initialCash: initialCash,
		currency:    currency,
		cash:        initialCash,
		totalValue:  initialCash,
		holdings:    make(map[string]*Holding, registry.Len()),
		positions:   NewLedger(),
	}
	for _, inst := range registry.Instruments() {
		a.holdings[inst.Ticker] = &Holding{Ticker: inst.Ticker, Instrument: inst}
		a.tickers = append(a.tickers, inst.Ticker)
	}
	return a
}

// Debit adds amount to cash.
func (a *Account) Debit(amount decimal.Decimal) {
	a.cash = a.cash.Add(amount)
}

// Credit takes amount out of cash.
func (a *Account) Credit(amount decimal.Decimal) {
	a.cash = a.cash.Sub(amount)
}

func (a *Account) Cash() decimal.Decimal        { return a.cash }
func (a *Account) InitialCash() decimal.Decimal { return a.initialCash }
func (a *Account) TotalValue() decimal.Decimal  { return a.totalValue }
func (a *Account) Currency() string             { return a.currency }
func (a *Account) Positions() *Ledger           { return a.positions }

func (a *Account) Trades() []types.TradeRecord {
	return append([]types.TradeRecord(nil), a.trades...)
}

func (a *Account) Holding(ticker string) (Holding, bool) {
	h, ok := a.holdings[ticker]
	if !ok {
		return Holding{}, false
	}
	return *h, true
}

// RegisterFill books a fill. A buy opens a new position, a sell closes positions FIFO.
// Commission always leaves the account. The broker is expected to have rejected sells
// above the held volume; if one slips through the ledger error is returned untouched.
func (a *Account) RegisterFill(fill types.Fill) error {
	h, ok := a.holdings[fill.Ticker]
	if !ok {
		return fmt.Errorf("%s: %w", fill.Ticker, ErrUnknownInstrument)
	}

	switch fill.Side {
	case types.SideTypeBuy:
		if _, err := a.positions.Open(NewPosition(fill.Time, fill.Ticker, fill.Volume, fill.Size, fill.Price)); err != nil {
			return err
		}
		h.Volume = h.Volume.Add(fill.Volume)
		a.Credit(fill.Size)
		a.Credit(fill.Commission)

	case types.SideTypeSell:
		if err := a.positions.Close(fill.Ticker, fill.Volume, fill.Price, fill.Time); err != nil {
			return err
		}
		h.Volume = h.Volume.Sub(fill.Volume)
		a.Debit(fill.Size)
		a.Credit(fill.Commission)

	default:
		return fmt.Errorf("%q: %w", fill.Side, ErrUnknownSide)
	}

	a.trades = append(a.trades, types.TradeRecord{
		ID:         len(a.trades),
		Ticker:     fill.Ticker,
		Side:       fill.Side,
		Volume:     fill.Volume,
		Price:      fill.Price,
		Size:       fill.Size,
		Commission: fill.Commission,
		Time:       fill.Time,
	})
	return nil
}

// Advance revalues every holding at the snapshot close, appends one point to each series and
// updates the open positions. A ticker without a close is valued at zero for this step.
func (a *Account) Advance(snap types.Snapshot) {
	total := a.cash
	for _, t := range a.tickers {
		h := a.holdings[t]
		if price, ok := snap.Close(t); ok {
			h.Value = h.Volume.Mul(price)
		} else {
			h.Value = decimal.Zero
		}
		total = total.Add(h.Value)
	}
	a.totalValue = total

	a.times = append(a.times, snap.Time)
	a.totalValues = append(a.totalValues, total)
	a.cashes = append(a.cashes, a.cash)
	a.activePositions = append(a.activePositions, a.positions.ActiveCount())

	a.positions.AdvanceAll(snap)
}

// View returns a copy safe to hand to strategies and risk managers.
func (a *Account) View() types.AccountView {
	view := types.AccountView{
		Cash:       a.cash,
		TotalValue: a.totalValue,
		Holdings:   make(map[string]types.HoldingView, len(a.holdings)),
	}
	if n := len(a.times); n > 0 {
		view.Time = a.times[n-1]
	}
	for _, t := range a.tickers {
		h := a.holdings[t]
		view.Holdings[t] = types.HoldingView{
			Ticker:          t,
			Volume:          h.Volume,
			Value:           h.Value,
			ActivePositions: a.positions.ActiveCountFor(t),
		}
	}
	return view
}
