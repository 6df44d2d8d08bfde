package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/hahaandwawa/portfolio-app-sub000/internal/calendar"
	"github.com/hahaandwawa/portfolio-app-sub000/internal/models"
	"github.com/hahaandwawa/portfolio-app-sub000/internal/repositories"
)

// recomputeService implements the RecomputeService interface. One
// background goroutine at a time walks the calendar forward from the
// trigger date; triggers arriving mid-run coalesce into a follow-up pass
// starting from the earliest requested date.
type recomputeService struct {
	valuation ValuationService
	txRepo    repositories.TransactionRepository
	snapRepo  repositories.SnapshotRepository
	cal       *calendar.Calendar
	logger    *zap.Logger
	now       func() time.Time

	mu      sync.Mutex
	running bool
	pending *time.Time
	cancel  context.CancelFunc
	status  models.RecomputeStatus
	wg      sync.WaitGroup
}

// NewRecomputeService creates a new recompute service
func NewRecomputeService(
	valuation ValuationService,
	txRepo repositories.TransactionRepository,
	snapRepo repositories.SnapshotRepository,
	cal *calendar.Calendar,
	logger *zap.Logger,
) RecomputeService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &recomputeService{
		valuation: valuation,
		txRepo:    txRepo,
		snapRepo:  snapRepo,
		cal:       cal,
		logger:    logger,
		now:       time.Now,
		status:    models.RecomputeStatus{State: models.RecomputeIdle},
	}
}

// RecalculateFrom starts (or queues) a forward recompute beginning at
// the given date. The call returns immediately; the cascade runs in the
// background and can never fail the caller.
func (s *recomputeService) RecalculateFrom(date time.Time) {
	from := s.cal.DateOf(date)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		if s.pending == nil || from.Before(*s.pending) {
			s.pending = &from
		}
		return
	}

	s.running = true
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.wg.Add(1)
	go s.run(ctx, from)
}

// RebuildAll wipes the snapshot store and replays the whole history from
// the earliest transaction date. The wipe is synchronous; the replay
// runs as a normal background cascade.
func (s *recomputeService) RebuildAll(ctx context.Context) error {
	if err := s.snapRepo.DeleteAll(ctx); err != nil {
		return fmt.Errorf("failed to wipe snapshot store: %w", err)
	}
	first, err := s.txRepo.FirstTradeDate(ctx)
	if err != nil {
		return fmt.Errorf("failed to find earliest transaction: %w", err)
	}
	if first == nil {
		s.logger.Info("rebuild requested with empty ledger, nothing to replay")
		return nil
	}
	s.logger.Info("rebuilding snapshot history", zap.Time("from", *first))
	s.RecalculateFrom(*first)
	return nil
}

// Status returns a copy of the current runner state.
func (s *recomputeService) Status() models.RecomputeStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Stop cancels the in-flight run, if any.
func (s *recomputeService) Stop() {
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	s.pending = nil
	s.mu.Unlock()
}

// Wait blocks until the runner goes idle.
func (s *recomputeService) Wait() {
	s.wg.Wait()
}

func (s *recomputeService) run(ctx context.Context, from time.Time) {
	defer s.wg.Done()

	for {
		s.runOnce(ctx, from)

		s.mu.Lock()
		if s.pending != nil && ctx.Err() == nil {
			from = *s.pending
			s.pending = nil
			s.mu.Unlock()
			continue
		}
		s.running = false
		s.cancel = nil
		s.mu.Unlock()
		return
	}
}

// runOnce walks every calendar day from `from` through today, valuing
// each day that is a trading day or carries at least one transaction.
// Individual day failures are logged and skipped; the cascade presses on.
func (s *recomputeService) runOnce(ctx context.Context, from time.Time) {
	today := s.cal.DateOf(s.now())
	days := s.cal.DaysBetween(from, today)

	s.setStatus(func(st *models.RecomputeStatus) {
		*st = models.RecomputeStatus{
			State:     models.RecomputeRunning,
			StartDate: &from,
			TotalDays: len(days),
		}
	})

	processed := 0
	var lastErr error
	for _, day := range days {
		select {
		case <-ctx.Done():
			s.setStatus(func(st *models.RecomputeStatus) {
				st.State = models.RecomputeCancelled
			})
			s.logger.Info("recompute cancelled", zap.Time("at", day))
			return
		default:
		}

		if s.shouldValue(ctx, day) {
			var err error
			if day.Equal(today) {
				_, err = s.valuation.ComputeLive(ctx, nil)
			} else {
				_, err = s.valuation.ComputeHistorical(ctx, day)
			}
			if err != nil {
				lastErr = err
				s.logger.Warn("valuation failed during recompute, continuing",
					zap.Time("date", day), zap.Error(err))
			}
		}

		processed++
		d := day
		s.setStatus(func(st *models.RecomputeStatus) {
			st.ProcessedDays = processed
			st.CurrentDate = &d
		})
	}

	s.setStatus(func(st *models.RecomputeStatus) {
		st.State = models.RecomputeDone
		if lastErr != nil {
			st.State = models.RecomputeFailed
			st.Error = lastErr.Error()
		}
	})
	s.logger.Info("recompute finished",
		zap.Time("from", from), zap.Int("days", processed), zap.Bool("degraded", lastErr != nil))
}

// shouldValue reports whether a day needs a snapshot: every trading day,
// plus any off-calendar day that has a transaction recorded on it so a
// weekend trade still produces a snapshot.
func (s *recomputeService) shouldValue(ctx context.Context, day time.Time) bool {
	if s.cal.IsTradingDay(day) {
		return true
	}
	count, err := s.txRepo.CountOnDay(ctx, day, s.cal.EndOfDay(day))
	if err != nil {
		s.logger.Warn("failed to count transactions for day", zap.Time("date", day), zap.Error(err))
		return false
	}
	return count > 0
}

func (s *recomputeService) setStatus(mutate func(*models.RecomputeStatus)) {
	s.mu.Lock()
	mutate(&s.status)
	s.mu.Unlock()
}
