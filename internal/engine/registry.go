package engine

import (
	"errors"
	"fmt"

	"tradesim/types"
)

var (
	ErrDuplicateInstrument = errors.New("instrument already registered")
	ErrMissingBars         = errors.New("instrument has no price history")
)

// Registry holds the instruments of one run in registration order.
type Registry struct {
	instruments map[string]*types.Instrument
	tickers     []string
}

func NewRegistry() *Registry {
	return &Registry{instruments: make(map[string]*types.Instrument)}
}

func (r *Registry) Add(inst *types.Instrument) error {
	if _, ok := r.instruments[inst.Ticker]; ok {
		return fmt.Errorf("%s: %w", inst.Ticker, ErrDuplicateInstrument)
	}
	if inst.Bars.Len() == 0 {
		return fmt.Errorf("%s: %w", inst.Ticker, ErrMissingBars)
	}
	r.instruments[inst.Ticker] = inst
	r.tickers = append(r.tickers, inst.Ticker)
	return nil
}

func (r *Registry) Get(ticker string) (*types.Instrument, bool) {
	inst, ok := r.instruments[ticker]
	return inst, ok
}

func (r *Registry) Len() int {
	return len(r.tickers)
}

func (r *Registry) Tickers() []string {
	return append([]string(nil), r.tickers...)
}

func (r *Registry) Instruments() []*types.Instrument {
	out := make([]*types.Instrument, 0, len(r.tickers))
	for _, t := range r.tickers {
		out = append(out, r.instruments[t])
	}
	return out
}

// Observe moves every instrument's latest bar to what the snapshot shows. Instruments
// without a bar in the snapshot keep their previous one.
func (r *Registry) Observe(snap types.Snapshot) {
	for _, t := range r.tickers {
		if c, ok := snap.Latest(t); ok {
			c := c
			r.instruments[t].LatestBar = &c
		}
	}
}

// Clone returns a registry with copies of every instrument. Bar history is shared.
func (r *Registry) Clone() *Registry {
	cp := NewRegistry()
	for _, inst := range r.Instruments() {
		c := inst.CopyIdentity()
		cp.instruments[c.Ticker] = c
		cp.tickers = append(cp.tickers, c.Ticker)
	}
	return cp
}
