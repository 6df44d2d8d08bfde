package services

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/hahaandwawa/portfolio-app-sub000/internal/calendar"
	"github.com/hahaandwawa/portfolio-app-sub000/internal/models"
	"github.com/hahaandwawa/portfolio-app-sub000/internal/repositories"
)

const (
	// tradingDaysPerYear annualizes daily return statistics.
	tradingDaysPerYear = 252
	// annualRiskFreeRate feeds the Sharpe ratio denominator.
	annualRiskFreeRate = 0.02
)

// maxPlausibleTotal discards corrupted snapshots from read paths.
var maxPlausibleTotal = decimal.New(1, 12) // 1e12

// analyticsService implements the AnalyticsService interface
type analyticsService struct {
	txRepo      repositories.TransactionRepository
	holdingRepo repositories.HoldingRepository
	cashRepo    repositories.CashAccountRepository
	snapRepo    repositories.SnapshotRepository
	valuation   ValuationService
	cal         *calendar.Calendar
	logger      *zap.Logger
	currency    string
	now         func() time.Time
}

// NewAnalyticsService creates a new analytics service
func NewAnalyticsService(
	txRepo repositories.TransactionRepository,
	holdingRepo repositories.HoldingRepository,
	cashRepo repositories.CashAccountRepository,
	snapRepo repositories.SnapshotRepository,
	valuation ValuationService,
	cal *calendar.Calendar,
	logger *zap.Logger,
	currency string,
) AnalyticsService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if currency == "" {
		currency = "USD"
	}
	return &analyticsService{
		txRepo:      txRepo,
		holdingRepo: holdingRepo,
		cashRepo:    cashRepo,
		snapRepo:    snapRepo,
		valuation:   valuation,
		cal:         cal,
		logger:      logger,
		currency:    currency,
		now:         time.Now,
	}
}

// GetOverview returns the live state of the portfolio with per-position
// detail. The embedded live valuation refreshes holding prices and feeds
// the snapshot history as a side effect.
func (s *analyticsService) GetOverview(ctx context.Context, accounts []string) (*models.Overview, error) {
	val, err := s.valuation.ComputeLive(ctx, accounts)
	if err != nil {
		return nil, fmt.Errorf("failed to compute live valuation: %w", err)
	}

	holdings, err := s.holdingRepo.List(ctx, accounts)
	if err != nil {
		return nil, err
	}

	stockCost := decimal.Zero
	for _, h := range holdings {
		stockCost = stockCost.Add(h.CostValue())
	}

	costBasis := stockCost.Add(val.CashBalance)
	pnl := val.TotalMarketValue.Sub(stockCost)
	pnlPct := decimal.Zero
	if stockCost.IsPositive() {
		pnlPct = pnl.Div(stockCost).Mul(decimal.NewFromInt(100))
	}

	return &models.Overview{
		TotalValue:  val.TotalMarketValue.Add(val.CashBalance),
		StockValue:  val.TotalMarketValue,
		CashValue:   val.CashBalance,
		CostBasis:   costBasis,
		PnL:         pnl,
		PnLPct:      pnlPct,
		Currency:    val.Currency,
		Holdings:    holdings,
		LastUpdated: s.now(),
	}, nil
}

// GetNetValueCurve builds the net-value series for [from, to]. Trading
// days only; dates before the first transaction produce zero-valued
// points so long charts render a flat lead-in instead of a gap; today's
// point always comes from a fresh live valuation.
//
// Persisted daily snapshots aggregate the whole portfolio, so an
// account-filtered request has no per-account history to draw on: it
// returns the zero lead-in plus today's live point, with cash and the
// cost-basis walk restricted to the requested accounts. Historical
// points are omitted rather than misreported from portfolio-wide totals.
func (s *analyticsService) GetNetValueCurve(ctx context.Context, from, to time.Time, accounts []string) ([]*models.NetValuePoint, error) {
	fromDay := s.cal.DateOf(from)
	toDay := s.cal.DateOf(to)
	today := s.cal.DateOf(s.now())
	if toDay.After(today) {
		toDay = today
	}
	if fromDay.After(toDay) {
		return nil, nil
	}

	first, err := s.txRepo.FirstTradeDate(ctx)
	if err != nil {
		return nil, err
	}
	if first == nil {
		// Nothing ever invested: the whole range is a flat zero line.
		var points []*models.NetValuePoint
		for _, day := range s.cal.DaysBetween(fromDay, toDay) {
			if s.cal.IsTradingDay(day) {
				points = append(points, s.zeroPoint(day))
			}
		}
		return points, nil
	}
	firstDay := s.cal.DateOf(*first)

	filtered := len(accounts) > 0
	accountSet := make(map[string]bool, len(accounts))
	for _, a := range accounts {
		accountSet[a] = true
	}

	snapByDay := make(map[string]*models.DailySnapshot)
	if !filtered {
		loadFrom := fromDay
		if firstDay.After(loadFrom) {
			loadFrom = firstDay
		}
		snaps, err := s.snapRepo.ListDailyRange(ctx, loadFrom, toDay)
		if err != nil {
			return nil, err
		}
		for _, snap := range snaps {
			snapByDay[s.dayKey(snap.Date)] = snap
		}
	}

	txs, err := s.txRepo.ListUntil(ctx, s.cal.EndOfDay(toDay))
	if err != nil {
		return nil, err
	}
	cashAccounts, err := s.cashRepo.List(ctx, accounts)
	if err != nil {
		return nil, err
	}

	var liveVal *models.Valuation
	if !today.Before(fromDay) && !today.After(toDay) {
		liveVal, err = s.valuation.ComputeLive(ctx, accounts)
		if err != nil {
			s.logger.Warn("live valuation for today's curve point failed", zap.Error(err))
			liveVal = nil
		}
	}

	var points []*models.NetValuePoint
	txIdx := 0
	stockCost := decimal.Zero

	for _, day := range s.cal.DaysBetween(fromDay, toDay) {
		if !s.cal.IsTradingDay(day) {
			continue
		}
		if day.Before(firstDay) {
			points = append(points, s.zeroPoint(day))
			continue
		}

		cutoff := s.cal.EndOfDay(day)
		for txIdx < len(txs) && !txs[txIdx].TradeDate.After(cutoff) {
			tx := txs[txIdx]
			txIdx++
			if filtered && !accountSet[tx.Account] {
				continue
			}
			if tx.Side == models.SideBuy {
				stockCost = stockCost.Add(tx.CostAmount())
			} else {
				stockCost = stockCost.Sub(tx.CostAmount())
			}
		}

		cash := decimal.Zero
		for _, ca := range cashAccounts {
			if !ca.CreatedAt.After(cutoff) {
				cash = cash.Add(ca.Amount)
			}
		}

		var point *models.NetValuePoint
		if day.Equal(today) && liveVal != nil {
			point = &models.NetValuePoint{
				Date:       day,
				StockValue: liveVal.TotalMarketValue,
				CashValue:  liveVal.CashBalance,
				TotalValue: liveVal.TotalMarketValue.Add(liveVal.CashBalance),
				CostBasis:  stockCost.Add(cash),
			}
		} else {
			if filtered {
				continue
			}
			snap, ok := snapByDay[s.dayKey(day)]
			if !ok {
				continue
			}
			total := snap.TotalValue()
			if !total.IsPositive() || total.GreaterThan(maxPlausibleTotal) {
				// Zero or absurd totals are artifacts of failed runs,
				// not data; drop the point rather than plot them.
				continue
			}
			point = &models.NetValuePoint{
				Date:       day,
				StockValue: snap.TotalMarketValue,
				CashValue:  snap.CashBalance,
				TotalValue: total,
				CostBasis:  stockCost.Add(cash),
			}
		}
		points = append(points, point)
	}

	s.applyReturns(points)
	return points, nil
}

// applyReturns fills PnLPct for each point against the stock cost basis
// at the first invested point of the series, so later deposits and
// withdrawals do not distort the displayed equity return.
func (s *analyticsService) applyReturns(points []*models.NetValuePoint) {
	base := decimal.Zero
	for _, p := range points {
		sc := p.CostBasis.Sub(p.CashValue)
		if sc.IsPositive() {
			base = sc
			break
		}
	}
	if !base.IsPositive() {
		return
	}
	hundred := decimal.NewFromInt(100)
	for _, p := range points {
		p.PnLPct = p.TotalValue.Sub(p.CostBasis).Div(base).Mul(hundred)
	}
}

// CalculateStats derives summary statistics for [from, to]. Drawdown and
// return volatility are computed on the stock-value sub-series only, so
// cash parked in the portfolio neither hides nor inflates equity risk.
func (s *analyticsService) CalculateStats(ctx context.Context, from, to time.Time) (*models.PortfolioStats, error) {
	points, err := s.GetNetValueCurve(ctx, from, to, nil)
	if err != nil {
		return nil, err
	}

	stats := &models.PortfolioStats{
		Period: models.Period{StartDate: s.cal.DateOf(from), EndDate: s.cal.DateOf(to)},
	}
	if len(points) == 0 {
		return stats, nil
	}
	stats.TradingDays = len(points)

	base := decimal.Zero
	for _, p := range points {
		sc := p.CostBasis.Sub(p.CashValue)
		if sc.IsPositive() {
			base = sc
			break
		}
	}

	last := points[len(points)-1]
	stats.TotalReturn = last.TotalValue.Sub(last.CostBasis)
	if base.IsPositive() {
		stats.TotalReturnPct = stats.TotalReturn.Div(base).Mul(decimal.NewFromInt(100))
	}

	var stock []float64
	for _, p := range points {
		if p.StockValue.IsPositive() {
			stock = append(stock, p.StockValue.InexactFloat64())
		}
	}

	stats.MaxDrawdown = decimal.NewFromFloat(maxDrawdown(stock))

	returns := dailyReturns(stock)
	if len(returns) > 0 {
		mean, std := meanStddev(returns)
		sqrtAnnual := math.Sqrt(tradingDaysPerYear)
		stats.Volatility = decimal.NewFromFloat(std * sqrtAnnual)
		if std > 0 {
			dailyRiskFree := annualRiskFreeRate / tradingDaysPerYear
			stats.SharpeRatio = decimal.NewFromFloat((mean - dailyRiskFree) / std * sqrtAnnual)
		}
	}

	return stats, nil
}

func (s *analyticsService) zeroPoint(day time.Time) *models.NetValuePoint {
	return &models.NetValuePoint{
		Date:       day,
		TotalValue: decimal.Zero,
		CostBasis:  decimal.Zero,
		StockValue: decimal.Zero,
		CashValue:  decimal.Zero,
		PnLPct:     decimal.Zero,
	}
}

func (s *analyticsService) dayKey(t time.Time) string {
	return s.cal.DateOf(t).Format("2006-01-02")
}

// maxDrawdown returns the largest peak-to-trough decline of the series
// as a fraction of the peak. Monotonically rising series yield zero.
func maxDrawdown(values []float64) float64 {
	peak := 0.0
	worst := 0.0
	for _, v := range values {
		if v > peak {
			peak = v
		}
		if peak > 0 {
			dd := (peak - v) / peak
			if dd > worst {
				worst = dd
			}
		}
	}
	return worst
}

// dailyReturns converts a value series into day-over-day relative deltas.
func dailyReturns(values []float64) []float64 {
	if len(values) < 2 {
		return nil
	}
	returns := make([]float64, 0, len(values)-1)
	for i := 1; i < len(values); i++ {
		if values[i-1] == 0 {
			continue
		}
		returns = append(returns, values[i]/values[i-1]-1)
	}
	return returns
}

func meanStddev(values []float64) (float64, float64) {
	if len(values) == 0 {
		return 0, 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(len(values))

	if len(values) < 2 {
		return mean, 0
	}
	ss := 0.0
	for _, v := range values {
		d := v - mean
		ss += d * d
	}
	return mean, math.Sqrt(ss / float64(len(values)-1))
}
