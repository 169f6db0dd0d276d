package broker

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestFeeModels(t *testing.T) {
	tests := []struct {
		name       string
		model      FeeModel
		tradeValue string
		want       string
	}{
		{name: "flat", model: FlatFee{Amount: dec("1.5")}, tradeValue: "1000", want: "1.5"},
		{name: "flat on zero value", model: FlatFee{Amount: dec("1.5")}, tradeValue: "0", want: "0"},
		{name: "flat negative amount", model: FlatFee{Amount: dec("-1")}, tradeValue: "10", want: "0"},
		{name: "proportional", model: ProportionalFee{Rate: dec("0.001")}, tradeValue: "2500", want: "2.5"},
		{name: "proportional negative value", model: ProportionalFee{Rate: dec("0.001")}, tradeValue: "-5", want: "0"},
		{name: "ibkr nl below minimum", model: IBKRNetherlandsFixedUSD(), tradeValue: "1000", want: "1.70"},
		{name: "ibkr nl within band", model: IBKRNetherlandsFixedUSD(), tradeValue: "10000", want: "5"},
		{name: "ibkr nl above maximum", model: IBKRNetherlandsFixedUSD(), tradeValue: "1000000", want: "39"},
		{name: "ibkr fx minimum", model: IBKRForexTier1(), tradeValue: "10000", want: "2"},
		{name: "ibkr fx no cap", model: IBKRForexTier1(), tradeValue: "1000000000", want: "20000"},
		{name: "ibkr zero value", model: IBKRNetherlandsFixedUSD(), tradeValue: "0", want: "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.model.Commission(dec(tt.tradeValue))
			assert.Truef(t, dec(tt.want).Equal(got), "want %s, got %s", tt.want, got)
		})
	}
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}
