package engine

import (
	"time"

	"tradesim/types"

	"github.com/shopspring/decimal"
)

// Transaction is one partial close of a position.
type Transaction struct {
	Volume decimal.Decimal `json:"volume"`
	Price  decimal.Decimal `json:"price"`
	Size   decimal.Decimal `json:"size"`
	Time   time.Time       `json:"time"`
}

// PositionPoint is the state of a position at one simulation step.
type PositionPoint struct {
	Time            time.Time       `json:"time"`
	Value           decimal.Decimal `json:"value"`
	Return          decimal.Decimal `json:"return"`
	ReturnPercent   decimal.Decimal `json:"returnPercent"`
	VolumeRemaining decimal.Decimal `json:"volumeRemaining"`
	DaysInTrade     int             `json:"daysInTrade"`
}

// Position is one FIFO lot opened by a buy fill. It is closed once its remaining volume
// reaches zero and is never reopened.
type Position struct {
	id         int
	ticker     string
	opened     time.Time
	volume     decimal.Decimal
	remaining  decimal.Decimal
	entryPrice decimal.Decimal
	size       decimal.Decimal

	// proceeds of all partial closes so far
	realized     decimal.Decimal
	transactions []Transaction
	closed       *time.Time
	closePrice   *decimal.Decimal

	// last price the position was marked at
	mark   decimal.Decimal
	series []PositionPoint
}

func NewPosition(opened time.Time, ticker string, volume, size, price decimal.Decimal) *Position {
	return &Position{
		ticker:     ticker,
		opened:     opened,
		volume:     volume,
		remaining:  volume,
		entryPrice: price,
		size:       size,
		mark:       price,
	}
}

func (p *Position) ID() int                     { return p.id }
func (p *Position) Ticker() string              { return p.ticker }
func (p *Position) Opened() time.Time           { return p.opened }
func (p *Position) Volume() decimal.Decimal     { return p.volume }
func (p *Position) Remaining() decimal.Decimal  { return p.remaining }
func (p *Position) EntryPrice() decimal.Decimal { return p.entryPrice }
func (p *Position) Size() decimal.Decimal       { return p.size }
func (p *Position) IsActive() bool              { return p.closed == nil }

func (p *Position) Closed() (time.Time, bool) {
	if p.closed == nil {
		return time.Time{}, false
	}
	return *p.closed, true
}

// ClosePrice is the volume weighted price over all partial closes, set once the position is closed.
func (p *Position) ClosePrice() (decimal.Decimal, bool) {
	if p.closePrice == nil {
		return decimal.Zero, false
	}
	return *p.closePrice, true
}

func (p *Position) Transactions() []Transaction {
	return append([]Transaction(nil), p.transactions...)
}

func (p *Position) Series() []PositionPoint {
	return append([]PositionPoint(nil), p.series...)
}

// sellOff closes up to volume units at price and returns how many were actually closed.
func (p *Position) sellOff(volume, price decimal.Decimal, ts time.Time) decimal.Decimal {
	if !p.IsActive() || !volume.IsPositive() {
		return decimal.Zero
	}
	filled := decimal.Min(volume, p.remaining)
	size := filled.Mul(price)

	p.realized = p.realized.Add(size)
	p.remaining = p.remaining.Sub(filled)
	p.transactions = append(p.transactions, Transaction{Volume: filled, Price: price, Size: size, Time: ts})

	if p.remaining.IsZero() {
		closed := ts
		p.closed = &closed
		vwap := volumeWeightedPrice(p.transactions)
		p.closePrice = &vwap
	}
	return filled
}

// update appends the valuation of the position at the snapshot time. Without a price for the
// ticker the last mark is reused.
func (p *Position) update(snap types.Snapshot) {
	if price, ok := snap.Close(p.ticker); ok {
		p.mark = price
	}
	remainingValue := p.remaining.Mul(p.mark)
	value := remainingValue.Add(p.realized)
	ret := value.Sub(p.volume.Mul(p.entryPrice))

	pct := decimal.Zero
	if !p.size.IsZero() {
		pct = ret.Div(p.size)
	}

	p.series = append(p.series, PositionPoint{
		Time:            snap.Time,
		Value:           value,
		Return:          ret,
		ReturnPercent:   pct,
		VolumeRemaining: p.remaining,
		DaysInTrade:     int(snap.Time.Sub(p.opened) / day),
	})
}

func volumeWeightedPrice(txs []Transaction) decimal.Decimal {
	notional := decimal.Zero
	volume := decimal.Zero
	for _, tx := range txs {
		notional = notional.Add(tx.Volume.Mul(tx.Price))
		volume = volume.Add(tx.Volume)
	}
	if volume.IsZero() {
		return decimal.Zero
	}
	return notional.Div(volume)
}
