package engine

import (
	"testing"
	"time"

	"tradesim/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccount_DebitCredit(t *testing.T) {
	a := NewAccount(dec("100"), "USD", newTestRegistry(t, "AAPL"))
	a.Debit(dec("25.5"))
	assertDecimal(t, "125.5", a.Cash())
	a.Credit(dec("30"))
	assertDecimal(t, "95.5", a.Cash())
	assertDecimal(t, "100", a.InitialCash())
}

func TestAccount_RegisterFill(t *testing.T) {
	t0 := time.UnixMilli(0)

	tests := []struct {
		name        string
		fills       []types.Fill
		wantCash    string
		wantHolding string
		wantActive  int
		wantTrades  int
		wantErr     error
	}{
		{
			name:        "buy opens a position",
			fills:       []types.Fill{types.NewFill("AAPL", types.SideTypeBuy, t0, dec("10"), dec("5"), dec("1"))},
			wantCash:    "949",
			wantHolding: "5",
			wantActive:  1,
			wantTrades:  1,
		},
		{
			name: "buy then full sell",
			fills: []types.Fill{
				types.NewFill("AAPL", types.SideTypeBuy, t0, dec("10"), dec("5"), dec("1")),
				types.NewFill("AAPL", types.SideTypeSell, t0.Add(time.Minute), dec("12"), dec("5"), dec("1")),
			},
			wantCash:    "1008",
			wantHolding: "0",
			wantActive:  0,
			wantTrades:  2,
		},
		{
			name: "partial sell keeps the position open",
			fills: []types.Fill{
				types.NewFill("AAPL", types.SideTypeBuy, t0, dec("10"), dec("5"), dec("0")),
				types.NewFill("AAPL", types.SideTypeSell, t0.Add(time.Minute), dec("10"), dec("2"), dec("0")),
			},
			wantCash:    "970",
			wantHolding: "3",
			wantActive:  1,
			wantTrades:  2,
		},
		{
			name: "sell above holdings is rejected without changes",
			fills: []types.Fill{
				types.NewFill("AAPL", types.SideTypeBuy, t0, dec("10"), dec("5"), dec("0")),
				types.NewFill("AAPL", types.SideTypeSell, t0.Add(time.Minute), dec("10"), dec("6"), dec("1")),
			},
			wantCash:    "950",
			wantHolding: "5",
			wantActive:  1,
			wantTrades:  1,
			wantErr:     ErrInsufficientInventory,
		},
		{
			name:        "zero volume buy is rejected without changes",
			fills:       []types.Fill{types.NewFill("AAPL", types.SideTypeBuy, t0, dec("10"), dec("0"), dec("1"))},
			wantCash:    "1000",
			wantHolding: "0",
			wantErr:     ErrNonPositiveVolume,
		},
		{
			name:        "unknown instrument",
			fills:       []types.Fill{types.NewFill("MSFT", types.SideTypeBuy, t0, dec("10"), dec("1"), dec("0"))},
			wantCash:    "1000",
			wantHolding: "0",
			wantErr:     ErrUnknownInstrument,
		},
		{
			name:        "unknown side",
			fills:       []types.Fill{types.NewFill("AAPL", types.Side("HOLD"), t0, dec("10"), dec("1"), dec("0"))},
			wantCash:    "1000",
			wantHolding: "0",
			wantErr:     ErrUnknownSide,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := NewAccount(dec("1000"), "USD", newTestRegistry(t, "AAPL"))

			var err error
			for _, f := range tt.fills {
				if err = a.RegisterFill(f); err != nil {
					break
				}
			}
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
			}

			assertDecimal(t, tt.wantCash, a.Cash())
			h, _ := a.Holding("AAPL")
			assertDecimal(t, tt.wantHolding, h.Volume)
			assert.Equal(t, tt.wantActive, a.Positions().ActiveCount())
			assert.Len(t, a.Trades(), tt.wantTrades)
		})
	}
}

func TestAccount_HoldingMatchesLedger(t *testing.T) {
	a := NewAccount(dec("10000"), "USD", newTestRegistry(t, "AAPL", "MSFT"))
	t0 := time.UnixMilli(0)
	fills := []types.Fill{
		types.NewFill("AAPL", types.SideTypeBuy, t0, dec("10"), dec("5"), dec("0")),
		types.NewFill("MSFT", types.SideTypeBuy, t0, dec("20"), dec("2"), dec("0")),
		types.NewFill("AAPL", types.SideTypeBuy, t0, dec("11"), dec("10"), dec("0")),
		types.NewFill("AAPL", types.SideTypeSell, t0, dec("12"), dec("8"), dec("0")),
		types.NewFill("MSFT", types.SideTypeSell, t0, dec("21"), dec("2"), dec("0")),
	}
	for _, f := range fills {
		require.NoError(t, a.RegisterFill(f))
	}

	for _, ticker := range []string{"AAPL", "MSFT"} {
		h, ok := a.Holding(ticker)
		require.True(t, ok)
		assertDecimal(t, a.Positions().ActiveVolume(ticker).String(), h.Volume)
	}
	h, _ := a.Holding("AAPL")
	assertDecimal(t, "7", h.Volume)
}

func TestAccount_Advance(t *testing.T) {
	t0 := time.UnixMilli(0)
	a := NewAccount(dec("1000"), "USD", newTestRegistry(t, "AAPL", "MSFT"))
	require.NoError(t, a.RegisterFill(types.NewFill("AAPL", types.SideTypeBuy, t0, dec("10"), dec("5"), dec("0"))))
	require.NoError(t, a.RegisterFill(types.NewFill("MSFT", types.SideTypeBuy, t0, dec("100"), dec("1"), dec("0"))))

	snap := testSnapshot(t0, map[string]string{"AAPL": "12", "MSFT": "90"})
	a.Advance(snap)

	assertDecimal(t, "850", a.Cash())
	// 850 + 5*12 + 1*90
	assertDecimal(t, "1000", a.TotalValue())
	h, _ := a.Holding("AAPL")
	assertDecimal(t, "60", h.Value)

	view := a.View()
	assert.Equal(t, t0, view.Time)
	assert.Equal(t, 1, view.Holding("AAPL").ActivePositions)
	assertDecimal(t, "0", view.Holding("TSLA").Volume)
}

func TestAccount_AdvanceAppendsEveryCall(t *testing.T) {
	t0 := time.UnixMilli(0)
	a := NewAccount(dec("1000"), "USD", newTestRegistry(t, "AAPL"))
	require.NoError(t, a.RegisterFill(types.NewFill("AAPL", types.SideTypeBuy, t0, dec("10"), dec("5"), dec("0"))))

	snap := testSnapshot(t0, map[string]string{"AAPL": "11"})
	a.Advance(snap)
	a.Advance(snap)

	r := a.Snapshot()
	require.Len(t, r.Times, 2)
	require.Len(t, r.TotalValues, 2)
	require.Len(t, r.CashSeries, 2)
	require.Len(t, r.ActivePositions, 2)
	assert.True(t, r.TotalValues[0].Equal(r.TotalValues[1]))
	assertDecimal(t, "1005", r.TotalValues[1])
	require.Len(t, r.Positions, 1)
	assert.Len(t, r.Positions[0].Series, 2)
}

func TestAccount_AdvanceMissingCloseValuesHoldingAtZero(t *testing.T) {
	t0 := time.UnixMilli(0)
	a := NewAccount(dec("1000"), "USD", newTestRegistry(t, "AAPL", "MSFT"))
	require.NoError(t, a.RegisterFill(types.NewFill("AAPL", types.SideTypeBuy, t0, dec("10"), dec("5"), dec("0"))))

	a.Advance(testSnapshot(t0, map[string]string{"MSFT": "300"}))

	h, _ := a.Holding("AAPL")
	assertDecimal(t, "0", h.Value)
	assertDecimal(t, "950", a.TotalValue())
}
