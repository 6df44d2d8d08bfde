package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hahaandwawa/portfolio-app-sub000/internal/calendar"
	"github.com/hahaandwawa/portfolio-app-sub000/internal/db"
	"github.com/hahaandwawa/portfolio-app-sub000/internal/marketdata"
	"github.com/hahaandwawa/portfolio-app-sub000/internal/models"
	"github.com/hahaandwawa/portfolio-app-sub000/internal/repositories"
	"github.com/hahaandwawa/portfolio-app-sub000/internal/services"
)

// newTestRouter wires the full HTTP surface over an in-memory database.
// The market gateway has no providers, so live valuations price holdings
// at their stored last price.
func newTestRouter(t *testing.T) *mux.Router {
	t.Helper()

	config := &db.Config{
		Driver: "sqlite",
		Path:   fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()),
	}
	database, err := db.Connect(config)
	require.NoError(t, err)
	require.NoError(t, database.Migrate())
	t.Cleanup(func() { database.Close() })

	txRepo := repositories.NewTransactionRepository(database)
	holdingRepo := repositories.NewHoldingRepository(database)
	cashRepo := repositories.NewCashAccountRepository(database)
	snapRepo := repositories.NewSnapshotRepository(database)

	cal := calendar.New(calendar.DefaultTimezone)
	gateway := marketdata.NewGateway(marketdata.DefaultGatewayConfig(), nil)

	valuationService := services.NewValuationService(txRepo, holdingRepo, cashRepo, snapRepo, gateway, cal, nil, "USD")
	recomputeService := services.NewRecomputeService(valuationService, txRepo, snapRepo, cal, nil)
	t.Cleanup(func() {
		recomputeService.Stop()
		recomputeService.Wait()
	})
	ledgerService := services.NewLedgerService(txRepo, holdingRepo, nil, cal, nil)
	cashService := services.NewCashService(cashRepo)
	analyticsService := services.NewAnalyticsService(txRepo, holdingRepo, cashRepo, snapRepo, valuationService, cal, nil, "USD")

	transactionHandler := NewTransactionHandler(ledgerService)
	cashHandler := NewCashHandler(cashService)
	portfolioHandler := NewPortfolioHandler(analyticsService, recomputeService)

	router := mux.NewRouter()
	api := router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/transactions", transactionHandler.HandleTransactions)
	api.HandleFunc("/transactions/{id}", transactionHandler.HandleTransaction)
	api.HandleFunc("/cash", cashHandler.HandleCashAccounts)
	api.HandleFunc("/cash/{id}", cashHandler.HandleCashAccount)
	api.HandleFunc("/portfolio/overview", portfolioHandler.HandleOverview)
	api.HandleFunc("/portfolio/stats", portfolioHandler.HandleStats)
	api.HandleFunc("/portfolio/rebuild/status", portfolioHandler.HandleRebuildStatus)
	return router
}

func doJSON(t *testing.T, router *mux.Router, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func transactionPayload() map[string]interface{} {
	return map[string]interface{}{
		"account":    "brokerage",
		"symbol":     "AAPL",
		"side":       "buy",
		"price":      "150",
		"quantity":   "10",
		"fee":        "1",
		"currency":   "USD",
		"trade_date": time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC).Format(time.RFC3339),
	}
}

func TestTransactionEndpoints_CreateAndGet(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, "POST", "/api/transactions", transactionPayload())
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created models.Transaction
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	require.NotEmpty(t, created.ID)

	rec = doJSON(t, router, "GET", "/api/transactions/"+created.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var got models.Transaction
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "AAPL", got.Symbol)
	assert.True(t, got.Price.Equal(decimal.NewFromInt(150)))
}

func TestTransactionEndpoints_ValidationError(t *testing.T) {
	router := newTestRouter(t)

	payload := transactionPayload()
	payload["side"] = "short"
	rec := doJSON(t, router, "POST", "/api/transactions", payload)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTransactionEndpoints_OversellReturns422(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, "POST", "/api/transactions", transactionPayload())
	require.Equal(t, http.StatusCreated, rec.Code)

	sell := transactionPayload()
	sell["side"] = "sell"
	sell["quantity"] = "11"
	rec = doJSON(t, router, "POST", "/api/transactions", sell)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestTransactionEndpoints_GetMissingReturns404(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, "GET", "/api/transactions/nope", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestTransactionEndpoints_ListWithFilter(t *testing.T) {
	router := newTestRouter(t)

	require.Equal(t, http.StatusCreated, doJSON(t, router, "POST", "/api/transactions", transactionPayload()).Code)
	msft := transactionPayload()
	msft["symbol"] = "MSFT"
	require.Equal(t, http.StatusCreated, doJSON(t, router, "POST", "/api/transactions", msft).Code)

	rec := doJSON(t, router, "GET", "/api/transactions?symbols=AAPL", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var listed []*models.Transaction
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listed))
	require.Len(t, listed, 1)
	assert.Equal(t, "AAPL", listed[0].Symbol)
}

func TestCashEndpoints_CRUD(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, "POST", "/api/cash", map[string]interface{}{
		"account":  "brokerage",
		"name":     "settlement",
		"amount":   "1000",
		"currency": "USD",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created models.CashAccount
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	require.NotEmpty(t, created.ID)

	rec = doJSON(t, router, "PUT", "/api/cash/"+created.ID, map[string]interface{}{
		"account":  "brokerage",
		"name":     "settlement",
		"amount":   "750",
		"currency": "USD",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, "GET", "/api/cash", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var listed []*models.CashAccount
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listed))
	require.Len(t, listed, 1)
	assert.True(t, listed[0].Amount.Equal(decimal.NewFromInt(750)))

	rec = doJSON(t, router, "DELETE", "/api/cash/"+created.ID, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestPortfolioEndpoints_OverviewIncludesCash(t *testing.T) {
	router := newTestRouter(t)

	require.Equal(t, http.StatusCreated, doJSON(t, router, "POST", "/api/cash", map[string]interface{}{
		"account":  "brokerage",
		"name":     "settlement",
		"amount":   "500",
		"currency": "USD",
	}).Code)

	rec := doJSON(t, router, "GET", "/api/portfolio/overview", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var overview models.Overview
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &overview))
	assert.True(t, overview.CashValue.Equal(decimal.NewFromInt(500)))
	assert.True(t, overview.TotalValue.Equal(decimal.NewFromInt(500)))
}

func TestPortfolioEndpoints_RebuildStatusIdle(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, "GET", "/api/portfolio/rebuild/status", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var status models.RecomputeStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Equal(t, models.RecomputeIdle, status.State)
}

func TestMethodNotAllowed(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, "DELETE", "/api/portfolio/overview", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
