package models

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/hahaandwawa/portfolio-app-sub000/internal/errors"
)

func validTransaction() *Transaction {
	return &Transaction{
		Account:   "brokerage",
		Symbol:    "AAPL",
		Side:      SideBuy,
		Price:     decimal.NewFromInt(150),
		Quantity:  decimal.NewFromInt(10),
		Fee:       decimal.NewFromInt(1),
		Currency:  "USD",
		TradeDate: time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC),
	}
}

func TestTransaction_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Transaction)
		wantErr string
	}{
		{"valid buy", func(tx *Transaction) {}, ""},
		{"valid sell", func(tx *Transaction) { tx.Side = SideSell }, ""},
		{"missing account", func(tx *Transaction) { tx.Account = "" }, "account"},
		{"missing symbol", func(tx *Transaction) { tx.Symbol = "" }, "symbol"},
		{"unknown side", func(tx *Transaction) { tx.Side = "short" }, "side"},
		{"zero price", func(tx *Transaction) { tx.Price = decimal.Zero }, "price"},
		{"negative price", func(tx *Transaction) { tx.Price = decimal.NewFromInt(-1) }, "price"},
		{"zero quantity", func(tx *Transaction) { tx.Quantity = decimal.Zero }, "quantity"},
		{"negative fee", func(tx *Transaction) { tx.Fee = decimal.NewFromInt(-1) }, "fee"},
		{"missing trade date", func(tx *Transaction) { tx.TradeDate = time.Time{} }, "trade_date"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx := validTransaction()
			tt.mutate(tx)

			err := tx.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			var verr *apperrors.ErrValidation
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.wantErr, verr.Field)
		})
	}
}

func TestTransaction_Amounts(t *testing.T) {
	tx := validTransaction()

	assert.True(t, tx.GrossAmount().Equal(decimal.NewFromInt(1500)))
	// Buys carry the fee into cost.
	assert.True(t, tx.CostAmount().Equal(decimal.NewFromInt(1501)))

	tx.Side = SideSell
	assert.True(t, tx.CostAmount().Equal(decimal.NewFromInt(1500)))
}
