package engine

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLedger_OpenAssignsSequentialIDs(t *testing.T) {
	l := NewLedger()
	ts := time.UnixMilli(0)

	for want, p := range []*Position{
		newTestPosition(ts, "AAPL", "5", "10"),
		newTestPosition(ts, "MSFT", "1", "100"),
		newTestPosition(ts, "AAPL", "3", "11"),
	} {
		id, err := l.Open(p)
		require.NoError(t, err)
		assert.Equal(t, want, id)
		assert.Equal(t, want, p.ID())
	}

	assert.Equal(t, 3, l.ActiveCount())
	assert.Equal(t, 2, l.ActiveCountFor("AAPL"))
	assertDecimal(t, "8", l.ActiveVolume("AAPL"))
}

func TestLedger_CloseSpansPositionsFIFO(t *testing.T) {
	l := NewLedger()
	t0 := time.UnixMilli(0)
	first := newTestPosition(t0, "AAPL", "5", "10")
	second := newTestPosition(t0.Add(time.Minute), "AAPL", "10", "12")
	l.Open(first)
	l.Open(second)

	closeAt := t0.Add(time.Hour)
	require.NoError(t, l.Close("AAPL", dec("8"), dec("15"), closeAt))

	active := l.Active("AAPL")
	require.Len(t, active, 1)
	assert.Same(t, second, active[0])
	assertDecimal(t, "7", active[0].Remaining())
	assert.True(t, second.IsActive())

	exited := l.Exited("AAPL")
	require.Len(t, exited, 1)
	assert.Same(t, first, exited[0])
	assert.False(t, first.IsActive())
	closed, ok := first.Closed()
	assert.True(t, ok)
	assert.Equal(t, closeAt, closed)
	cp, ok := first.ClosePrice()
	assert.True(t, ok)
	assertDecimal(t, "15", cp)

	require.Len(t, second.Transactions(), 1)
	assertDecimal(t, "3", second.Transactions()[0].Volume)
	_, ok = second.ClosePrice()
	assert.False(t, ok)
}

func TestLedger_ClosePriceIsVolumeWeighted(t *testing.T) {
	l := NewLedger()
	t0 := time.UnixMilli(0)
	p := newTestPosition(t0, "AAPL", "10", "5")
	l.Open(p)

	require.NoError(t, l.Close("AAPL", dec("4"), dec("10"), t0.Add(time.Minute)))
	_, ok := p.ClosePrice()
	assert.False(t, ok, "close price is only set once the position is fully closed")

	require.NoError(t, l.Close("AAPL", dec("6"), dec("20"), t0.Add(2*time.Minute)))
	cp, ok := p.ClosePrice()
	require.True(t, ok)
	assertDecimal(t, "16", cp)
	assert.Len(t, l.Exited("AAPL"), 1)
	assert.Empty(t, l.Active("AAPL"))
}

func TestLedger_CloseRejectsWithoutMutation(t *testing.T) {
	tests := []struct {
		name    string
		volume  string
		wantErr error
	}{
		{name: "more than held", volume: "6", wantErr: ErrInsufficientInventory},
		{name: "zero volume", volume: "0", wantErr: ErrNonPositiveVolume},
		{name: "negative volume", volume: "-1", wantErr: ErrNonPositiveVolume},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := NewLedger()
			t0 := time.UnixMilli(0)
			a := newTestPosition(t0, "AAPL", "2", "10")
			b := newTestPosition(t0, "AAPL", "3", "10")
			l.Open(a)
			l.Open(b)

			err := l.Close("AAPL", dec(tt.volume), dec("11"), t0.Add(time.Minute))
			assert.ErrorIs(t, err, tt.wantErr)

			assertDecimal(t, "5", l.ActiveVolume("AAPL"))
			assert.Len(t, l.Active("AAPL"), 2)
			assert.Empty(t, l.Exited("AAPL"))
			assert.Empty(t, a.Transactions())
			assert.Empty(t, b.Transactions())
			assertDecimal(t, "2", a.Remaining())
		})
	}
}

func TestLedger_OpenRejectsNonPositiveVolume(t *testing.T) {
	l := NewLedger()
	t0 := time.UnixMilli(0)
	for _, v := range []string{"0", "-2"} {
		_, err := l.Open(newTestPosition(t0, "AAPL", v, "10"))
		assert.ErrorIs(t, err, ErrNonPositiveVolume, v)
	}
	assert.Equal(t, 0, l.ActiveCount())
	assert.Empty(t, l.Snapshot())

	id, err := l.Open(newTestPosition(t0, "AAPL", "1", "10"))
	require.NoError(t, err)
	assert.Equal(t, 0, id, "refused lots do not consume ids")
}

func TestLedger_TruncatedPartialClosesCloseTheLot(t *testing.T) {
	l := NewLedger()
	t0 := time.UnixMilli(0)
	p := newTestPosition(t0, "EUR", "0.99", "1")
	_, err := l.Open(p)
	require.NoError(t, err)

	third := dec("1").Div(dec("3")).Truncate(2)
	for i := 1; i <= 3; i++ {
		require.NoError(t, l.Close("EUR", third, dec("1.1"), t0.Add(time.Duration(i)*time.Minute)))
	}

	assert.True(t, l.ActiveVolume("EUR").IsZero())
	assert.Equal(t, 0, l.ActiveCount())
	assert.False(t, p.IsActive())
	require.Len(t, l.Exited("EUR"), 1)
	cp, ok := p.ClosePrice()
	require.True(t, ok)
	assertDecimal(t, "1.1", cp)
}

func TestLedger_CloseUnknownTicker(t *testing.T) {
	l := NewLedger()
	err := l.Close("NOPE", dec("1"), dec("1"), time.UnixMilli(0))
	assert.ErrorIs(t, err, ErrInsufficientInventory)
}

func TestLedger_VolumeIsConserved(t *testing.T) {
	l := NewLedger()
	t0 := time.UnixMilli(0)
	opened := []string{"3", "7", "2.5", "4"}
	for i, v := range opened {
		l.Open(newTestPosition(t0.Add(time.Duration(i)*time.Minute), "BTC", v, "100"))
	}
	closes := []string{"1", "4", "2.5", "3"}
	for i, v := range closes {
		require.NoError(t, l.Close("BTC", dec(v), dec("101"), t0.Add(time.Duration(10+i)*time.Minute)))
	}

	totalOpened := sumDecimals(opened)
	totalClosed := sumDecimals(closes)

	sold := decimal.Zero
	for _, p := range append(l.Active("BTC"), l.Exited("BTC")...) {
		for _, tx := range p.Transactions() {
			sold = sold.Add(tx.Volume)
		}
	}
	assertDecimal(t, totalClosed.String(), sold)
	assertDecimal(t, totalOpened.Sub(totalClosed).String(), l.ActiveVolume("BTC"))

	for _, p := range l.Exited("BTC") {
		assert.True(t, p.Remaining().IsZero())
	}
	for _, p := range l.Active("BTC") {
		assert.True(t, p.Remaining().IsPositive())
	}
}

func TestLedger_SnapshotOrderedByID(t *testing.T) {
	l := NewLedger()
	t0 := time.UnixMilli(0)
	l.Open(newTestPosition(t0, "AAPL", "1", "10"))
	l.Open(newTestPosition(t0, "MSFT", "1", "10"))
	l.Open(newTestPosition(t0, "AAPL", "1", "10"))
	require.NoError(t, l.Close("AAPL", dec("1"), dec("12"), t0.Add(time.Minute)))

	snap := l.Snapshot()
	require.Len(t, snap, 3)
	for i, p := range snap {
		assert.Equal(t, i, p.ID)
	}
	require.NotNil(t, snap[0].Closed)
	require.NotNil(t, snap[0].ClosePrice)
	assertDecimal(t, "12", *snap[0].ClosePrice)
	assert.Nil(t, snap[2].Closed)
}

func TestPosition_Update(t *testing.T) {
	t0 := time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)
	p := newTestPosition(t0, "AAPL", "10", "10")

	p.update(testSnapshot(t0.AddDate(0, 0, 2), map[string]string{"AAPL": "12"}))
	// no price for AAPL, the last mark is reused
	p.update(testSnapshot(t0.AddDate(0, 0, 3), map[string]string{"MSFT": "1"}))

	series := p.Series()
	require.Len(t, series, 2)
	for _, pt := range series {
		assertDecimal(t, "120", pt.Value)
		assertDecimal(t, "20", pt.Return)
		assertDecimal(t, "0.2", pt.ReturnPercent)
		assertDecimal(t, "10", pt.VolumeRemaining)
	}
	assert.Equal(t, 2, series[0].DaysInTrade)
	assert.Equal(t, 3, series[1].DaysInTrade)
}

func TestPosition_DaysInTradeOnIntradayGrid(t *testing.T) {
	t0 := time.Date(2021, 1, 1, 9, 0, 0, 0, time.UTC)
	p := newTestPosition(t0, "AAPL", "1", "10")
	for h := 1; h <= 26; h++ {
		p.update(testSnapshot(t0.Add(time.Duration(h)*time.Hour), map[string]string{"AAPL": "10"}))
	}

	series := p.Series()
	require.Len(t, series, 26)
	assert.Equal(t, 0, series[0].DaysInTrade)
	assert.Equal(t, 0, series[22].DaysInTrade, "23 hours in")
	assert.Equal(t, 1, series[23].DaysInTrade, "24 hours in")
	assert.Equal(t, 1, series[25].DaysInTrade)
}

func TestPosition_UpdateAfterPartialClose(t *testing.T) {
	t0 := time.UnixMilli(0)
	p := newTestPosition(t0, "AAPL", "10", "10")
	assertDecimal(t, "4", p.sellOff(dec("4"), dec("15"), t0))

	p.update(testSnapshot(t0, map[string]string{"AAPL": "11"}))

	pt := p.Series()[0]
	// 6 * 11 + 4 * 15
	assertDecimal(t, "126", pt.Value)
	assertDecimal(t, "26", pt.Return)
	assertDecimal(t, "6", pt.VolumeRemaining)
}

func TestPosition_SellOffCapsAtRemaining(t *testing.T) {
	p := newTestPosition(time.UnixMilli(0), "AAPL", "3", "10")
	assertDecimal(t, "3", p.sellOff(dec("5"), dec("10"), time.UnixMilli(1)))
	assert.False(t, p.IsActive())
	assertDecimal(t, "0", p.sellOff(dec("1"), dec("10"), time.UnixMilli(2)))
	assert.Len(t, p.Transactions(), 1)
}

func TestVolumeWeightedPrice(t *testing.T) {
	tests := []struct {
		name string
		txs  []Transaction
		want string
	}{
		{name: "empty", txs: nil, want: "0"},
		{name: "single", txs: []Transaction{{Volume: dec("2"), Price: dec("7")}}, want: "7"},
		{
			name: "weighted",
			txs:  []Transaction{{Volume: dec("4"), Price: dec("10")}, {Volume: dec("6"), Price: dec("20")}},
			want: "16",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assertDecimal(t, tt.want, volumeWeightedPrice(tt.txs))
		})
	}
}

func newTestPosition(ts time.Time, ticker, volume, price string) *Position {
	v, p := dec(volume), dec(price)
	return NewPosition(ts, ticker, v, v.Mul(p), p)
}

func sumDecimals(values []string) decimal.Decimal {
	total := decimal.Zero
	for _, v := range values {
		total = total.Add(dec(v))
	}
	return total
}
