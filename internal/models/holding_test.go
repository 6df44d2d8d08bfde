package models

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestHolding_ApplyBuyAveragesCost(t *testing.T) {
	h := &Holding{Quantity: decimal.Zero, AvgCost: decimal.Zero}

	h.ApplyBuy(decimal.NewFromInt(10), decimal.NewFromInt(10), decimal.Zero)
	assert.True(t, h.Quantity.Equal(decimal.NewFromInt(10)))
	assert.True(t, h.AvgCost.Equal(decimal.NewFromInt(10)))

	// 10 @ 10 plus 10 @ 20 averages to 20 @ 15.
	h.ApplyBuy(decimal.NewFromInt(10), decimal.NewFromInt(20), decimal.Zero)
	assert.True(t, h.Quantity.Equal(decimal.NewFromInt(20)))
	assert.True(t, h.AvgCost.Equal(decimal.NewFromInt(15)))
}

func TestHolding_ApplyBuyFoldsFeeIntoCost(t *testing.T) {
	h := &Holding{Quantity: decimal.Zero, AvgCost: decimal.Zero}

	h.ApplyBuy(decimal.NewFromInt(10), decimal.NewFromInt(100), decimal.NewFromInt(10))
	// (10*100 + 10) / 10 = 101
	assert.True(t, h.AvgCost.Equal(decimal.NewFromInt(101)))
}

func TestHolding_ApplySellKeepsAvgCost(t *testing.T) {
	h := &Holding{Quantity: decimal.NewFromInt(20), AvgCost: decimal.NewFromInt(15)}

	h.ApplySell(decimal.NewFromInt(5))
	assert.True(t, h.Quantity.Equal(decimal.NewFromInt(15)))
	assert.True(t, h.AvgCost.Equal(decimal.NewFromInt(15)))
}

func TestHolding_ApplySellToZeroResetsCost(t *testing.T) {
	h := &Holding{Quantity: decimal.NewFromInt(10), AvgCost: decimal.NewFromInt(15)}

	h.ApplySell(decimal.NewFromInt(10))
	assert.True(t, h.Quantity.IsZero())
	assert.True(t, h.AvgCost.IsZero())
}

func TestHolding_ApplySellClampsAtZero(t *testing.T) {
	h := &Holding{Quantity: decimal.NewFromInt(5), AvgCost: decimal.NewFromInt(15)}

	h.ApplySell(decimal.NewFromInt(8))
	assert.True(t, h.Quantity.IsZero())
	assert.True(t, h.AvgCost.IsZero())
}

func TestHolding_Values(t *testing.T) {
	h := &Holding{
		Quantity:  decimal.NewFromInt(10),
		AvgCost:   decimal.NewFromInt(15),
		LastPrice: decimal.NewFromInt(20),
	}

	assert.True(t, h.MarketValue().Equal(decimal.NewFromInt(200)))
	assert.True(t, h.CostValue().Equal(decimal.NewFromInt(150)))
}

func TestCashAccount_Validate(t *testing.T) {
	tests := []struct {
		name    string
		account CashAccount
		wantErr bool
	}{
		{
			name:    "valid",
			account: CashAccount{Account: "brokerage", Name: "settlement", Amount: decimal.NewFromInt(1000), Currency: "USD"},
		},
		{
			name:    "negative amount",
			account: CashAccount{Account: "brokerage", Name: "settlement", Amount: decimal.NewFromInt(-1), Currency: "USD"},
			wantErr: true,
		},
		{
			name:    "missing account",
			account: CashAccount{Name: "settlement", Amount: decimal.NewFromInt(1), Currency: "USD"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.account.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
