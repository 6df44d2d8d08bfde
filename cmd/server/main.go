package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	httpSwagger "github.com/swaggo/http-swagger"
	"go.uber.org/zap"

	"github.com/hahaandwawa/portfolio-app-sub000/internal/calendar"
	"github.com/hahaandwawa/portfolio-app-sub000/internal/db"
	"github.com/hahaandwawa/portfolio-app-sub000/internal/handlers"
	"github.com/hahaandwawa/portfolio-app-sub000/internal/logger"
	"github.com/hahaandwawa/portfolio-app-sub000/internal/marketdata"
	"github.com/hahaandwawa/portfolio-app-sub000/internal/repositories"
	"github.com/hahaandwawa/portfolio-app-sub000/internal/services"
)

// @title Portfolio API
// @version 1.0
// @description Transaction ledger, valuation, and net-value analytics for a multi-account stock portfolio.
// @BasePath /api
func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	log, err := logger.New()
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	config := db.NewConfig()
	database, err := db.Connect(config)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}
	defer database.Close()

	if err := database.Health(); err != nil {
		log.Fatal("database health check failed", zap.Error(err))
	}
	if err := database.Migrate(); err != nil {
		log.Fatal("database migration failed", zap.Error(err))
	}
	log.Info("database connection established", zap.String("driver", config.Driver))

	cal := calendar.New(os.Getenv("PORTFOLIO_TIMEZONE"))
	currency := os.Getenv("PORTFOLIO_CURRENCY")

	txRepo := repositories.NewTransactionRepository(database)
	holdingRepo := repositories.NewHoldingRepository(database)
	cashRepo := repositories.NewCashAccountRepository(database)
	snapRepo := repositories.NewSnapshotRepository(database)

	// Market data: Stooq primary, Yahoo fallback, behind the caching and
	// throttling gateway.
	gateway := marketdata.NewGateway(marketdata.DefaultGatewayConfig(), log,
		marketdata.NewStooqProvider(),
		marketdata.NewYahooProvider(),
	)

	valuationService := services.NewValuationService(txRepo, holdingRepo, cashRepo, snapRepo, gateway, cal, log, currency)
	recomputeService := services.NewRecomputeService(valuationService, txRepo, snapRepo, cal, log)
	ledgerService := services.NewLedgerService(txRepo, holdingRepo, recomputeService, cal, log)
	cashService := services.NewCashService(cashRepo)
	analyticsService := services.NewAnalyticsService(txRepo, holdingRepo, cashRepo, snapRepo, valuationService, cal, log, currency)

	transactionHandler := handlers.NewTransactionHandler(ledgerService)
	cashHandler := handlers.NewCashHandler(cashService)
	portfolioHandler := handlers.NewPortfolioHandler(analyticsService, recomputeService)

	router := mux.NewRouter()

	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{
			"status":  "healthy",
			"service": "portfolio-backend",
		})
	})

	api := router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/transactions", transactionHandler.HandleTransactions)
	api.HandleFunc("/transactions/{id}", transactionHandler.HandleTransaction)
	api.HandleFunc("/cash", cashHandler.HandleCashAccounts)
	api.HandleFunc("/cash/{id}", cashHandler.HandleCashAccount)
	api.HandleFunc("/portfolio/overview", portfolioHandler.HandleOverview)
	api.HandleFunc("/portfolio/curve", portfolioHandler.HandleCurve)
	api.HandleFunc("/portfolio/stats", portfolioHandler.HandleStats)
	api.HandleFunc("/portfolio/rebuild", portfolioHandler.HandleRebuild)
	api.HandleFunc("/portfolio/rebuild/status", portfolioHandler.HandleRebuildStatus)

	router.PathPrefix("/swagger/").Handler(httpSwagger.WrapHandler)

	port := os.Getenv("SERVER_PORT")
	if port == "" {
		port = "8080"
	}

	server := &http.Server{
		Addr:         ":" + port,
		Handler:      corsMiddleware(router),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
	}

	// Background capture and retention loops.
	loopCtx, stopLoops := context.WithCancel(context.Background())
	go captureLoop(loopCtx, valuationService, cal, log)
	go pruneLoop(loopCtx, snapRepo, log)

	go func() {
		log.Info("server starting", zap.String("port", port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down")

	stopLoops()
	recomputeService.Stop()
	recomputeService.Wait()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Warn("server shutdown was not clean", zap.Error(err))
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// captureLoop takes a live whole-portfolio valuation on an interval so
// every trading day accumulates raw snapshots even without user traffic.
func captureLoop(ctx context.Context, valuation services.ValuationService, cal *calendar.Calendar, log *zap.Logger) {
	interval := time.Hour
	if raw := os.Getenv("CAPTURE_INTERVAL_MINUTES"); raw != "" {
		if mins, err := strconv.Atoi(raw); err == nil && mins > 0 {
			interval = time.Duration(mins) * time.Minute
		}
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !cal.IsTradingDay(cal.DateOf(time.Now())) {
				continue
			}
			if _, err := valuation.ComputeLive(ctx, nil); err != nil {
				log.Warn("scheduled capture failed", zap.Error(err))
			}
		}
	}
}

// pruneLoop drops raw intraday snapshots older than the retention window
// once a day. Daily aggregates are kept forever.
func pruneLoop(ctx context.Context, snapRepo repositories.SnapshotRepository, log *zap.Logger) {
	const retentionDays = 7

	ticker := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			cutoff := time.Now().AddDate(0, 0, -retentionDays)
			pruned, err := snapRepo.PruneRaw(ctx, cutoff)
			if err != nil {
				log.Warn("raw snapshot prune failed", zap.Error(err))
				continue
			}
			if pruned > 0 {
				log.Info("pruned raw snapshots", zap.Int64("rows", pruned))
			}
		}
	}
}
