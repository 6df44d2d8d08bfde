package services

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/hahaandwawa/portfolio-app-sub000/internal/calendar"
	"github.com/hahaandwawa/portfolio-app-sub000/internal/db"
	apperrors "github.com/hahaandwawa/portfolio-app-sub000/internal/errors"
	"github.com/hahaandwawa/portfolio-app-sub000/internal/marketdata"
	"github.com/hahaandwawa/portfolio-app-sub000/internal/models"
	"github.com/hahaandwawa/portfolio-app-sub000/internal/repositories"
)

// openTestDB opens a fresh in-memory SQLite database with the full schema.
func openTestDB(t *testing.T) *db.DB {
	t.Helper()

	config := &db.Config{
		Driver: "sqlite",
		Path:   fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()),
	}
	database, err := db.Connect(config)
	require.NoError(t, err)
	require.NoError(t, database.Migrate())

	t.Cleanup(func() { database.Close() })
	return database
}

// testRepos bundles the repositories most service tests need.
type testRepos struct {
	tx      repositories.TransactionRepository
	holding repositories.HoldingRepository
	cash    repositories.CashAccountRepository
	snap    repositories.SnapshotRepository
}

func newTestRepos(t *testing.T) testRepos {
	t.Helper()
	database := openTestDB(t)
	return testRepos{
		tx:      repositories.NewTransactionRepository(database),
		holding: repositories.NewHoldingRepository(database),
		cash:    repositories.NewCashAccountRepository(database),
		snap:    repositories.NewSnapshotRepository(database),
	}
}

// fakeMarket is a scriptable market data provider. Quotes come from the
// quotes map; daily bars from bars keyed "SYMBOL:2006-01-02"; range
// lookups return every bar for the symbol inside the window.
type fakeMarket struct {
	quotes   map[string]decimal.Decimal
	bars     map[string]marketdata.Bar
	quoteErr error
}

func newFakeMarket() *fakeMarket {
	return &fakeMarket{
		quotes: make(map[string]decimal.Decimal),
		bars:   make(map[string]marketdata.Bar),
	}
}

func (f *fakeMarket) setBar(symbol string, date time.Time, open, close decimal.Decimal) {
	f.bars[symbol+":"+date.Format("2006-01-02")] = marketdata.Bar{Date: date, Open: open, Close: close}
}

func (f *fakeMarket) Name() string { return "fake" }

func (f *fakeMarket) GetQuote(ctx context.Context, symbol string) (*marketdata.Quote, error) {
	if f.quoteErr != nil {
		return nil, f.quoteErr
	}
	price, ok := f.quotes[symbol]
	if !ok {
		return nil, &apperrors.ErrDataUnavailable{Symbol: symbol, Date: time.Now()}
	}
	return &marketdata.Quote{Symbol: symbol, Price: price, Currency: "USD", Timestamp: time.Now()}, nil
}

func (f *fakeMarket) GetQuotes(ctx context.Context, symbols []string) (map[string]*marketdata.Quote, error) {
	if f.quoteErr != nil {
		return nil, f.quoteErr
	}
	quotes := make(map[string]*marketdata.Quote)
	for _, s := range symbols {
		if price, ok := f.quotes[s]; ok {
			quotes[s] = &marketdata.Quote{Symbol: s, Price: price, Currency: "USD", Timestamp: time.Now()}
		}
	}
	return quotes, nil
}

func (f *fakeMarket) GetHistoricalRange(ctx context.Context, symbol string, from, to time.Time) ([]marketdata.Bar, error) {
	var bars []marketdata.Bar
	for key, bar := range f.bars {
		if !strings.HasPrefix(key, symbol+":") {
			continue
		}
		if bar.Date.Before(from) || bar.Date.After(to) {
			continue
		}
		bars = append(bars, bar)
	}
	return bars, nil
}

func (f *fakeMarket) GetHistoricalOpenClose(ctx context.Context, symbol string, date time.Time) (*marketdata.Bar, error) {
	bar, ok := f.bars[symbol+":"+date.Format("2006-01-02")]
	if !ok {
		return nil, &apperrors.ErrDataUnavailable{Symbol: symbol, Date: date}
	}
	return &bar, nil
}

func mustCreateTx(t *testing.T, repo repositories.TransactionRepository, symbol, account, side string, day time.Time, price, qty, fee int64) *models.Transaction {
	t.Helper()
	tx := &models.Transaction{
		Account:   account,
		Symbol:    symbol,
		Side:      side,
		Price:     decimal.NewFromInt(price),
		Quantity:  decimal.NewFromInt(qty),
		Fee:       decimal.NewFromInt(fee),
		Currency:  "USD",
		TradeDate: day,
	}
	require.NoError(t, repo.Create(context.Background(), tx))
	return tx
}

func newTestCalendar() *calendar.Calendar {
	return calendar.New(calendar.DefaultTimezone)
}
