package types

import (
	"strings"
	"time"
)

type InstrumentKind string

const (
	InstrumentStock  InstrumentKind = "STOCK"
	InstrumentForex  InstrumentKind = "FOREX"
	InstrumentCrypto InstrumentKind = "CRYPTO"
	InstrumentEtf    InstrumentKind = "ETF"
)

// KindDecimals is the number of decimals a traded volume is rounded to per instrument kind.
var KindDecimals = map[InstrumentKind]int32{
	InstrumentStock:  0,
	InstrumentEtf:    0,
	InstrumentForex:  2,
	InstrumentCrypto: 8,
}

// ParseInstrumentKind maps config and database spellings onto an InstrumentKind.
// Anything unknown is treated as a stock.
func ParseInstrumentKind(s string) InstrumentKind {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "FOREX", "FX":
		return InstrumentForex
	case "CRYPTO", "CRYPTOCURRENCY":
		return InstrumentCrypto
	case "ETF":
		return InstrumentEtf
	default:
		return InstrumentStock
	}
}

// Instrument is a tradable asset. Identity fields never change during a run, LatestBar is
// moved forward by the simulation loop once per step.
type Instrument struct {
	Id         int            `json:"id"`
	Ticker     string         `json:"ticker"`
	Name       string         `json:"name"`
	Kind       InstrumentKind `json:"kind"`
	Currency   string         `json:"currency"`
	Decimals   int32          `json:"decimals"`
	CreatedAt  time.Time      `json:"createdAt"`
	ModifiedAt time.Time      `json:"modifiedAt"`

	Bars      *Chart  `json:"-"`
	LatestBar *Candle `json:"-"`
}

func NewInstrument(ticker, name string, kind InstrumentKind, currency string) *Instrument {
	return &Instrument{
		Ticker:   ticker,
		Name:     name,
		Kind:     kind,
		Currency: currency,
		Decimals: KindDecimals[kind],
	}
}

// CopyIdentity returns a fresh instrument sharing the identity and bar history but with no
// observed bar, so a cloned run starts from a clean state.
func (i *Instrument) CopyIdentity() *Instrument {
	cp := *i
	cp.LatestBar = nil
	return &cp
}
