package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/hahaandwawa/portfolio-app-sub000/internal/calendar"
	"github.com/hahaandwawa/portfolio-app-sub000/internal/marketdata"
	"github.com/hahaandwawa/portfolio-app-sub000/internal/models"
	"github.com/hahaandwawa/portfolio-app-sub000/internal/repositories"
)

// Price plausibility window relative to a position's average cost. A
// fetched day price outside [0.1x, 10x] of cost is treated as vendor
// garbage (splits, bad ticks) and sent down the fallback chain.
var (
	plausibleLow  = decimal.RequireFromString("0.1")
	plausibleHigh = decimal.NewFromInt(10)
)

// backfillLookbackDays bounds the walk backwards to the nearest prior
// close when a date has no usable price.
const backfillLookbackDays = 30

// valuationService implements the ValuationService interface
type valuationService struct {
	txRepo      repositories.TransactionRepository
	holdingRepo repositories.HoldingRepository
	cashRepo    repositories.CashAccountRepository
	snapRepo    repositories.SnapshotRepository
	market      marketdata.Provider
	cal         *calendar.Calendar
	logger      *zap.Logger
	currency    string
	now         func() time.Time
}

// NewValuationService creates a new valuation service. The market data
// provider is normally the gateway; tests inject fakes.
func NewValuationService(
	txRepo repositories.TransactionRepository,
	holdingRepo repositories.HoldingRepository,
	cashRepo repositories.CashAccountRepository,
	snapRepo repositories.SnapshotRepository,
	market marketdata.Provider,
	cal *calendar.Calendar,
	logger *zap.Logger,
	currency string,
) ValuationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if currency == "" {
		currency = "USD"
	}
	return &valuationService{
		txRepo:      txRepo,
		holdingRepo: holdingRepo,
		cashRepo:    cashRepo,
		snapRepo:    snapRepo,
		market:      market,
		cal:         cal,
		logger:      logger,
		currency:    currency,
		now:         time.Now,
	}
}

// ComputeLive values the current holdings at fresh quotes. Quote
// failures degrade to the last stored price per position; they never
// fail the valuation.
func (s *valuationService) ComputeLive(ctx context.Context, accounts []string) (*models.Valuation, error) {
	holdings, err := s.holdingRepo.List(ctx, accounts)
	if err != nil {
		return nil, fmt.Errorf("failed to list holdings: %w", err)
	}

	symbolSet := make(map[string]bool)
	for _, h := range holdings {
		if h.Quantity.IsPositive() {
			symbolSet[h.Symbol] = true
		}
	}
	symbols := make([]string, 0, len(symbolSet))
	for sym := range symbolSet {
		symbols = append(symbols, sym)
	}
	sort.Strings(symbols)

	var quotes map[string]*marketdata.Quote
	if len(symbols) > 0 {
		quotes, err = s.market.GetQuotes(ctx, symbols)
		if err != nil {
			s.logger.Warn("quote refresh failed, using stored prices", zap.Error(err))
			quotes = nil
		}
	}

	total := decimal.Zero
	for _, h := range holdings {
		if !h.Quantity.IsPositive() {
			continue
		}
		if q, ok := quotes[h.Symbol]; ok && q.Price.IsPositive() {
			h.LastPrice = q.Price
			if err := s.holdingRepo.Upsert(ctx, h); err != nil {
				s.logger.Warn("failed to persist refreshed price",
					zap.String("symbol", h.Symbol), zap.Error(err))
			}
		}
		total = total.Add(h.MarketValue())
	}

	cutoff := s.now()
	cash, err := s.sumCash(ctx, accounts, cutoff)
	if err != nil {
		return nil, err
	}

	valuation := &models.Valuation{
		Date:             s.cal.DateOf(s.now()),
		TotalMarketValue: total,
		CashBalance:      cash,
		Currency:         s.currency,
		Live:             true,
	}

	// Only whole-portfolio valuations enter the canonical snapshot
	// history; filtered views are read-only.
	if len(accounts) == 0 {
		if err := s.persist(ctx, valuation); err != nil {
			return nil, err
		}
	}
	return valuation, nil
}

// ComputeHistorical reconstructs the portfolio as of the given date by
// replaying the trade log, then prices every open position through the
// gateway with the plausibility check and fallback chain.
func (s *valuationService) ComputeHistorical(ctx context.Context, date time.Time) (*models.Valuation, error) {
	day := s.cal.DateOf(date)
	cutoff := s.cal.EndOfDay(date)

	txs, err := s.txRepo.ListUntil(ctx, cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to load transactions: %w", err)
	}

	positions := replayPositions(txs)

	// Aggregate per symbol so each symbol costs one gateway lookup.
	type symbolPosition struct {
		quantity decimal.Decimal
		cost     decimal.Decimal
	}
	bySymbol := make(map[string]*symbolPosition)
	for _, pos := range positions {
		if !pos.Quantity.IsPositive() {
			continue
		}
		sp, ok := bySymbol[pos.Symbol]
		if !ok {
			sp = &symbolPosition{quantity: decimal.Zero, cost: decimal.Zero}
			bySymbol[pos.Symbol] = sp
		}
		sp.quantity = sp.quantity.Add(pos.Quantity)
		sp.cost = sp.cost.Add(pos.CostValue())
	}

	symbols := make([]string, 0, len(bySymbol))
	for sym := range bySymbol {
		symbols = append(symbols, sym)
	}
	sort.Strings(symbols)

	total := decimal.Zero
	for _, sym := range symbols {
		sp := bySymbol[sym]
		avgCost := decimal.Zero
		if sp.quantity.IsPositive() {
			avgCost = sp.cost.Div(sp.quantity)
		}
		price := s.priceForDate(ctx, sym, day, avgCost)
		total = total.Add(sp.quantity.Mul(price))
	}

	cash, err := s.sumCash(ctx, nil, cutoff)
	if err != nil {
		return nil, err
	}

	valuation := &models.Valuation{
		Date:             day,
		TotalMarketValue: total,
		CashBalance:      cash,
		Currency:         s.currency,
	}
	if err := s.persist(ctx, valuation); err != nil {
		return nil, err
	}
	return valuation, nil
}

// priceForDate resolves the price used for one symbol on one date:
// (open+close)/2 for the date if plausible, else the nearest prior close
// within the lookback window, else the position's average cost. The
// method never fails; unpriceable symbols degrade to cost and are
// logged.
func (s *valuationService) priceForDate(ctx context.Context, symbol string, day time.Time, avgCost decimal.Decimal) decimal.Decimal {
	bar, err := s.market.GetHistoricalOpenClose(ctx, symbol, day)
	if err == nil {
		mid := bar.Close
		if bar.Open.IsPositive() {
			mid = bar.Open.Add(bar.Close).Div(decimal.NewFromInt(2))
		}
		if mid.IsPositive() && plausible(mid, avgCost) {
			return mid
		}
		s.logger.Warn("implausible day price, falling back",
			zap.String("symbol", symbol),
			zap.Time("date", day),
			zap.String("price", mid.String()),
			zap.String("avg_cost", avgCost.String()))
	}

	from := day.AddDate(0, 0, -backfillLookbackDays)
	bars, err := s.market.GetHistoricalRange(ctx, symbol, from, day)
	if err == nil {
		// Nearest strictly-prior close wins; the requested day's own bar
		// was already rejected above and must not re-enter here. Bars may
		// arrive in any order.
		var best *marketdata.Bar
		for i := range bars {
			b := &bars[i]
			if !b.Date.Before(day) || !b.Close.IsPositive() {
				continue
			}
			if best == nil || b.Date.After(best.Date) {
				best = b
			}
		}
		if best != nil {
			return best.Close
		}
	}

	s.logger.Warn("no usable price after fallback chain, using cost basis",
		zap.String("symbol", symbol), zap.Time("date", day))
	return avgCost
}

// sumCash totals cash accounts created on or before the cutoff. Cash has
// no historical ledger, so the current amount stands in for every date
// after the account existed.
func (s *valuationService) sumCash(ctx context.Context, accounts []string, cutoff time.Time) (decimal.Decimal, error) {
	cashAccounts, err := s.cashRepo.List(ctx, accounts)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to list cash accounts: %w", err)
	}
	total := decimal.Zero
	for _, ca := range cashAccounts {
		if ca.CreatedAt.After(cutoff) {
			continue
		}
		total = total.Add(ca.Amount)
	}
	return total, nil
}

// persist writes the valuation into the snapshot store. Live captures
// append and average with other same-day captures; historical
// reconstructions replace the date outright so a recompute converges on
// the corrected value instead of averaging with stale ones.
func (s *valuationService) persist(ctx context.Context, v *models.Valuation) error {
	raw := &models.RawSnapshot{
		Date:             v.Date,
		Timestamp:        s.now(),
		TotalMarketValue: v.TotalMarketValue,
		CashBalance:      v.CashBalance,
		Currency:         v.Currency,
	}
	var err error
	if v.Live {
		_, err = s.snapRepo.SaveValuation(ctx, raw)
	} else {
		_, err = s.snapRepo.ReplaceValuation(ctx, raw)
	}
	if err != nil {
		return fmt.Errorf("failed to persist snapshot: %w", err)
	}
	return nil
}

// replayPositions folds a trade-date ordered transaction list into
// weighted-average-cost positions per (symbol, account) pair.
func replayPositions(txs []*models.Transaction) map[string]*models.Holding {
	positions := make(map[string]*models.Holding)
	for _, tx := range txs {
		key := tx.Symbol + "\x00" + tx.Account
		pos, ok := positions[key]
		if !ok {
			pos = &models.Holding{
				Symbol:   tx.Symbol,
				Account:  tx.Account,
				Quantity: decimal.Zero,
				AvgCost:  decimal.Zero,
				Currency: tx.Currency,
			}
			positions[key] = pos
		}
		switch tx.Side {
		case models.SideBuy:
			pos.ApplyBuy(tx.Quantity, tx.Price, tx.Fee)
		case models.SideSell:
			pos.ApplySell(tx.Quantity)
		}
	}
	return positions
}

func plausible(price, avgCost decimal.Decimal) bool {
	if !avgCost.IsPositive() {
		return true
	}
	ratio := price.Div(avgCost)
	return ratio.GreaterThanOrEqual(plausibleLow) && ratio.LessThanOrEqual(plausibleHigh)
}
