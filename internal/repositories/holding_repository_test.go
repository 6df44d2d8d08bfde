package repositories

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/hahaandwawa/portfolio-app-sub000/internal/errors"
	"github.com/hahaandwawa/portfolio-app-sub000/internal/models"
)

func TestHoldingRepository_UpsertInsertsThenUpdates(t *testing.T) {
	repo := NewHoldingRepository(openTestDB(t))
	ctx := context.Background()

	holding := &models.Holding{
		Symbol:   "AAPL",
		Account:  "brokerage",
		Quantity: decimal.NewFromInt(10),
		AvgCost:  decimal.NewFromInt(150),
		Currency: "USD",
	}
	require.NoError(t, repo.Upsert(ctx, holding))
	firstID := holding.ID

	// Second upsert for the same pair updates in place.
	updated := &models.Holding{
		Symbol:   "AAPL",
		Account:  "brokerage",
		Quantity: decimal.NewFromInt(20),
		AvgCost:  decimal.NewFromInt(155),
		Currency: "USD",
	}
	require.NoError(t, repo.Upsert(ctx, updated))

	got, err := repo.Get(ctx, "AAPL", "brokerage")
	require.NoError(t, err)
	assert.Equal(t, firstID, got.ID)
	assert.True(t, got.Quantity.Equal(decimal.NewFromInt(20)))

	all, err := repo.List(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestHoldingRepository_SamePairDifferentAccounts(t *testing.T) {
	repo := NewHoldingRepository(openTestDB(t))
	ctx := context.Background()

	for _, account := range []string{"brokerage", "ira"} {
		require.NoError(t, repo.Upsert(ctx, &models.Holding{
			Symbol:   "AAPL",
			Account:  account,
			Quantity: decimal.NewFromInt(10),
			AvgCost:  decimal.NewFromInt(150),
			Currency: "USD",
		}))
	}

	all, err := repo.List(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	filtered, err := repo.List(ctx, []string{"ira"})
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	assert.Equal(t, "ira", filtered[0].Account)
}

func TestHoldingRepository_GetMissing(t *testing.T) {
	repo := NewHoldingRepository(openTestDB(t))

	_, err := repo.Get(context.Background(), "AAPL", "brokerage")
	var nf *apperrors.ErrNotFound
	assert.ErrorAs(t, err, &nf)
}

func TestHoldingRepository_Delete(t *testing.T) {
	repo := NewHoldingRepository(openTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, &models.Holding{
		Symbol:   "AAPL",
		Account:  "brokerage",
		Quantity: decimal.NewFromInt(10),
		AvgCost:  decimal.NewFromInt(150),
		Currency: "USD",
	}))
	require.NoError(t, repo.Delete(ctx, "AAPL", "brokerage"))

	_, err := repo.Get(ctx, "AAPL", "brokerage")
	assert.Error(t, err)

	// Deleting a missing pair is a no-op.
	assert.NoError(t, repo.Delete(ctx, "AAPL", "brokerage"))
}

func TestCashAccountRepository_CRUD(t *testing.T) {
	repo := NewCashAccountRepository(openTestDB(t))
	ctx := context.Background()

	account := &models.CashAccount{
		Account:  "brokerage",
		Name:     "settlement",
		Amount:   decimal.NewFromInt(1000),
		Currency: "USD",
	}
	require.NoError(t, repo.Create(ctx, account))
	require.NotEmpty(t, account.ID)

	got, err := repo.GetByID(ctx, account.ID)
	require.NoError(t, err)
	assert.True(t, got.Amount.Equal(decimal.NewFromInt(1000)))

	got.Amount = decimal.NewFromInt(500)
	require.NoError(t, repo.Update(ctx, got))

	listed, err := repo.List(ctx, []string{"brokerage"})
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.True(t, listed[0].Amount.Equal(decimal.NewFromInt(500)))

	require.NoError(t, repo.Delete(ctx, account.ID))
	_, err = repo.GetByID(ctx, account.ID)
	var nf *apperrors.ErrNotFound
	assert.ErrorAs(t, err, &nf)
}
