package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/hahaandwawa/portfolio-app-sub000/internal/calendar"
	apperrors "github.com/hahaandwawa/portfolio-app-sub000/internal/errors"
	"github.com/hahaandwawa/portfolio-app-sub000/internal/models"
	"github.com/hahaandwawa/portfolio-app-sub000/internal/repositories"
)

// ledgerService implements the LedgerService interface
type ledgerService struct {
	txRepo      repositories.TransactionRepository
	holdingRepo repositories.HoldingRepository
	recalc      RecomputeTrigger
	cal         *calendar.Calendar
	logger      *zap.Logger
	now         func() time.Time
}

// NewLedgerService creates a new ledger service. recalc may be nil when
// no snapshot recompute should be triggered (tests, one-off tools).
func NewLedgerService(
	txRepo repositories.TransactionRepository,
	holdingRepo repositories.HoldingRepository,
	recalc RecomputeTrigger,
	cal *calendar.Calendar,
	logger *zap.Logger,
) LedgerService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ledgerService{
		txRepo:      txRepo,
		holdingRepo: holdingRepo,
		recalc:      recalc,
		cal:         cal,
		logger:      logger,
		now:         time.Now,
	}
}

// CreateTransaction validates and appends a transaction, rebuilds the
// affected holding, and triggers a forward snapshot recompute.
func (s *ledgerService) CreateTransaction(ctx context.Context, tx *models.Transaction) error {
	if err := tx.Validate(); err != nil {
		return err
	}
	if err := s.guardSell(ctx, tx.Symbol, tx.Account, tx.Side, tx.Quantity); err != nil {
		return err
	}

	if err := s.txRepo.Create(ctx, tx); err != nil {
		return fmt.Errorf("failed to create transaction: %w", err)
	}

	if err := s.RecomputeHolding(ctx, tx.Symbol, tx.Account); err != nil {
		return fmt.Errorf("failed to recompute holding: %w", err)
	}

	s.triggerRecalc(tx.TradeDate)
	return nil
}

// GetTransaction retrieves a transaction by ID
func (s *ledgerService) GetTransaction(ctx context.Context, id string) (*models.Transaction, error) {
	return s.txRepo.GetByID(ctx, id)
}

// ListTransactions retrieves transactions based on filter criteria
func (s *ledgerService) ListTransactions(ctx context.Context, filter *models.TransactionFilter) ([]*models.Transaction, error) {
	return s.txRepo.List(ctx, filter)
}

// CountTransactions returns the count of transactions matching the filter
func (s *ledgerService) CountTransactions(ctx context.Context, filter *models.TransactionFilter) (int64, error) {
	return s.txRepo.Count(ctx, filter)
}

// UpdateTransaction applies a partial edit to the stored transaction,
// validates the result, and rewrites holdings for both the new pair and,
// if the edit moved the transaction, the old pair.
func (s *ledgerService) UpdateTransaction(ctx context.Context, id string, update *models.TransactionUpdate) (*models.Transaction, error) {
	if id == "" {
		return nil, &apperrors.ErrNotFound{Entity: "transaction", ID: ""}
	}
	if update == nil {
		update = &models.TransactionUpdate{}
	}
	existing, err := s.txRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	merged := update.Apply(existing)
	if err := merged.Validate(); err != nil {
		return nil, err
	}
	if err := s.guardSell(ctx, merged.Symbol, merged.Account, merged.Side, merged.Quantity); err != nil {
		return nil, err
	}

	merged.UpdatedAt = s.now()
	if err := s.txRepo.Update(ctx, merged); err != nil {
		return nil, err
	}

	if err := s.RecomputeHolding(ctx, merged.Symbol, merged.Account); err != nil {
		return nil, fmt.Errorf("failed to recompute holding: %w", err)
	}
	if existing.Symbol != merged.Symbol || existing.Account != merged.Account {
		if err := s.RecomputeHolding(ctx, existing.Symbol, existing.Account); err != nil {
			return nil, fmt.Errorf("failed to recompute previous holding: %w", err)
		}
	}

	// The cascade has to start at whichever trade date is earlier; an
	// edit that moves a transaction backward invalidates the days in
	// between.
	from := merged.TradeDate
	if existing.TradeDate.Before(from) {
		from = existing.TradeDate
	}
	s.triggerRecalc(from)

	return merged, nil
}

// DeleteTransaction removes a transaction and rebuilds its holding.
func (s *ledgerService) DeleteTransaction(ctx context.Context, id string) error {
	existing, err := s.txRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.txRepo.Delete(ctx, id); err != nil {
		return err
	}

	if err := s.RecomputeHolding(ctx, existing.Symbol, existing.Account); err != nil {
		return fmt.Errorf("failed to recompute holding: %w", err)
	}

	s.triggerRecalc(existing.TradeDate)
	return nil
}

// RecomputeHolding replays the full transaction history for one
// (symbol, account) pair in trade-date order and rewrites the holding
// row. A pair with no remaining transactions loses its row entirely.
func (s *ledgerService) RecomputeHolding(ctx context.Context, symbol, account string) error {
	txs, err := s.txRepo.ListForPosition(ctx, symbol, account, nil)
	if err != nil {
		return err
	}
	if len(txs) == 0 {
		return s.holdingRepo.Delete(ctx, symbol, account)
	}

	holding := &models.Holding{
		Symbol:   symbol,
		Account:  account,
		Quantity: decimal.Zero,
		AvgCost:  decimal.Zero,
		Currency: txs[0].Currency,
	}
	if prev, err := s.holdingRepo.Get(ctx, symbol, account); err == nil {
		// Keep the identity and last seen price across rebuilds.
		holding.ID = prev.ID
		holding.LastPrice = prev.LastPrice
	}

	for _, tx := range txs {
		switch tx.Side {
		case models.SideBuy:
			holding.ApplyBuy(tx.Quantity, tx.Price, tx.Fee)
		case models.SideSell:
			holding.ApplySell(tx.Quantity)
		}
	}
	holding.UpdatedAt = s.now()

	if err := s.holdingRepo.Upsert(ctx, holding); err != nil {
		return err
	}
	return nil
}

// guardSell rejects a sell that exceeds the currently persisted holding
// quantity. The guard runs before any row is written. Note this checks
// the present holding, not the holding as of the trade date; back-dated
// sells are accepted as long as the current position covers them.
func (s *ledgerService) guardSell(ctx context.Context, symbol, account, side string, quantity decimal.Decimal) error {
	if side != models.SideSell {
		return nil
	}
	held := decimal.Zero
	holding, err := s.holdingRepo.Get(ctx, symbol, account)
	if err == nil {
		held = holding.Quantity
	} else {
		var nf *apperrors.ErrNotFound
		if !errors.As(err, &nf) {
			return fmt.Errorf("failed to check holding: %w", err)
		}
	}
	if held.LessThan(quantity) {
		return &apperrors.ErrInsufficientHoldings{
			Symbol:    symbol,
			Account:   account,
			Held:      held,
			Requested: quantity,
		}
	}
	return nil
}

// triggerRecalc kicks off the forward snapshot cascade. Best effort: the
// trigger is asynchronous and can never fail the ledger write.
func (s *ledgerService) triggerRecalc(tradeDate time.Time) {
	if s.recalc == nil {
		return
	}
	today := s.cal.DateOf(s.now())
	if s.cal.DateOf(tradeDate).After(today) {
		return
	}
	s.logger.Debug("triggering snapshot recompute", zap.Time("from", tradeDate))
	s.recalc.RecalculateFrom(tradeDate)
}
