package marketdata

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Quote is a latest-price response for one symbol.
type Quote struct {
	Symbol    string          `json:"symbol"`
	Price     decimal.Decimal `json:"price"`
	Currency  string          `json:"currency"`
	Timestamp time.Time       `json:"timestamp"`
}

// Bar is one daily open/close record.
type Bar struct {
	Date  time.Time       `json:"date"`
	Open  decimal.Decimal `json:"open"`
	Close decimal.Decimal `json:"close"`
}

// Provider is the capability set every price source implements. The
// gateway composes providers behind the same contract, so callers never
// know which vendor answered.
type Provider interface {
	Name() string
	GetQuote(ctx context.Context, symbol string) (*Quote, error)
	GetQuotes(ctx context.Context, symbols []string) (map[string]*Quote, error)
	GetHistoricalRange(ctx context.Context, symbol string, from, to time.Time) ([]Bar, error)
	GetHistoricalOpenClose(ctx context.Context, symbol string, date time.Time) (*Bar, error)
}
