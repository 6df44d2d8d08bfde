package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/hahaandwawa/portfolio-app-sub000/internal/models"
	"github.com/hahaandwawa/portfolio-app-sub000/internal/services"
)

type PortfolioHandler struct {
	analytics services.AnalyticsService
	recompute services.RecomputeService
}

func NewPortfolioHandler(analytics services.AnalyticsService, recompute services.RecomputeService) *PortfolioHandler {
	return &PortfolioHandler{analytics: analytics, recompute: recompute}
}

// HandleOverview handles GET /api/portfolio/overview
// @Summary Get portfolio overview
// @Description Live portfolio value, cost basis, PnL, and per-position detail
// @Tags portfolio
// @Produce json
// @Param accounts query string false "Comma-separated account names"
// @Success 200 {object} models.Overview
// @Failure 500 {string} string "Internal server error"
// @Router /portfolio/overview [get]
func (h *PortfolioHandler) HandleOverview(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method != "GET" {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	overview, err := h.analytics.GetOverview(r.Context(), parseAccounts(r))
	if err != nil {
		writeError(w, err)
		return
	}

	json.NewEncoder(w).Encode(overview)
}

// HandleCurve handles GET /api/portfolio/curve
// @Summary Get net-value curve
// @Description Daily net-value points over a date range, defaulting to the past year
// @Tags portfolio
// @Produce json
// @Param start_date query string false "Start date (YYYY-MM-DD)"
// @Param end_date query string false "End date (YYYY-MM-DD)"
// @Param accounts query string false "Comma-separated account names"
// @Success 200 {array} models.NetValuePoint
// @Failure 500 {string} string "Internal server error"
// @Router /portfolio/curve [get]
func (h *PortfolioHandler) HandleCurve(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method != "GET" {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	from, to := curveRange(r)
	points, err := h.analytics.GetNetValueCurve(r.Context(), from, to, parseAccounts(r))
	if err != nil {
		writeError(w, err)
		return
	}
	if points == nil {
		// Empty range encodes as [] rather than null.
		points = []*models.NetValuePoint{}
	}

	json.NewEncoder(w).Encode(points)
}

// HandleStats handles GET /api/portfolio/stats
// @Summary Get portfolio statistics
// @Description Return, drawdown, volatility, and Sharpe ratio over a date range
// @Tags portfolio
// @Produce json
// @Param start_date query string false "Start date (YYYY-MM-DD)"
// @Param end_date query string false "End date (YYYY-MM-DD)"
// @Success 200 {object} models.PortfolioStats
// @Failure 500 {string} string "Internal server error"
// @Router /portfolio/stats [get]
func (h *PortfolioHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method != "GET" {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	from, to := curveRange(r)
	stats, err := h.analytics.CalculateStats(r.Context(), from, to)
	if err != nil {
		writeError(w, err)
		return
	}

	json.NewEncoder(w).Encode(stats)
}

// HandleRebuild handles POST /api/portfolio/rebuild
// @Summary Rebuild snapshot history
// @Description Wipe all snapshots and replay the full transaction history
// @Tags portfolio
// @Produce json
// @Success 202 {object} models.RecomputeStatus
// @Failure 500 {string} string "Internal server error"
// @Router /portfolio/rebuild [post]
func (h *PortfolioHandler) HandleRebuild(w http.ResponseWriter, r *http.Request) {
	if r.Method != "POST" {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if err := h.recompute.RebuildAll(r.Context()); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusAccepted, h.recompute.Status())
}

// HandleRebuildStatus handles GET /api/portfolio/rebuild/status
// @Summary Get recompute status
// @Description Progress of the current or most recent snapshot recompute
// @Tags portfolio
// @Produce json
// @Success 200 {object} models.RecomputeStatus
// @Router /portfolio/rebuild/status [get]
func (h *PortfolioHandler) HandleRebuildStatus(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method != "GET" {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	json.NewEncoder(w).Encode(h.recompute.Status())
}

// curveRange resolves the date range for curve and stats queries. The
// default window is the trailing year ending today.
func curveRange(r *http.Request) (time.Time, time.Time) {
	to, ok := parseDate(r, "end_date")
	if !ok {
		to = time.Now()
	}
	from, ok := parseDate(r, "start_date")
	if !ok {
		from = to.AddDate(-1, 0, 0)
	}
	return from, to
}
