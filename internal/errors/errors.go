package errors

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// ErrValidation reports a malformed field on an incoming transaction or
// cash account. The mutation is rejected before any row is written.
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return e.Field + ": " + e.Message
}

// ErrInsufficientHoldings reports a sell that would drive the persisted
// holding quantity negative.
type ErrInsufficientHoldings struct {
	Symbol    string
	Account   string
	Held      decimal.Decimal
	Requested decimal.Decimal
}

func (e *ErrInsufficientHoldings) Error() string {
	return fmt.Sprintf("insufficient holdings for %s/%s: held %s, requested %s",
		e.Symbol, e.Account, e.Held.String(), e.Requested.String())
}

// ErrNotFound reports an unknown entity id.
type ErrNotFound struct {
	Entity string
	ID     string
}

func (e *ErrNotFound) Error() string {
	return e.Entity + " not found: " + e.ID
}

// ErrDataUnavailable reports that no usable price could be found for a
// symbol even after the full provider fallback chain, including the case
// where every provider stayed rate limited through its retry budget.
// Valuations absorb this error and substitute a fallback value; it never
// fails a read.
type ErrDataUnavailable struct {
	Symbol string
	Date   time.Time
	Err    error
}

func (e *ErrDataUnavailable) Error() string {
	msg := "no usable price for " + e.Symbol
	if !e.Date.IsZero() {
		msg += " on " + e.Date.Format("2006-01-02")
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ErrDataUnavailable) Unwrap() error {
	return e.Err
}

// ErrRateLimited reports a provider rate-limit response. The gateway
// retries these with backoff before falling back to the next provider.
type ErrRateLimited struct {
	Provider string
}

func (e *ErrRateLimited) Error() string {
	return "rate limited by provider " + e.Provider
}
