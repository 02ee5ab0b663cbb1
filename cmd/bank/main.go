package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/telepay/telepay-backend/internal/client"
	"github.com/telepay/telepay-backend/internal/config"
	"github.com/telepay/telepay-backend/internal/handler"
	"github.com/telepay/telepay-backend/internal/middleware"
	"github.com/telepay/telepay-backend/internal/repository/postgres"
	"github.com/telepay/telepay-backend/internal/service"
	"github.com/telepay/telepay-backend/internal/websocket"
)

func main() {
	// Initialize zerolog
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if os.Getenv("ENV") != "production" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	if err := cfg.ValidateBank(); err != nil {
		log.Fatal().Err(err).Msg("Invalid bank configuration")
	}

	// Connect to database
	pool, err := pgxpool.New(context.Background(), cfg.BankDatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer pool.Close()

	if err := pool.Ping(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("Failed to ping database")
	}
	log.Info().Msg("Connected to database")

	// Initialize repositories
	customerRepo := postgres.NewCustomerRepository(pool)
	accountRepo := postgres.NewAccountRepository(pool)
	recordRepo := postgres.NewPaymentRecordRepository(pool)
	pendingRepo := postgres.NewPendingSettlementRepository(pool)

	// Telecom ledger gateway
	telecom := client.NewTelecomClient(cfg.TelecomBaseURL, cfg.TelecomTimeout)

	// WebSocket hub for settlement events
	hub := websocket.NewHub()

	// Initialize services
	debtService := service.NewDebtService(customerRepo, telecom)
	accountService := service.NewAccountService(accountRepo, recordRepo)
	settlementService := service.NewSettlementService(accountRepo, pendingRepo, telecom, service.SettlementConfig{
		MaxAttempts: cfg.SettleMaxAttempts,
		RetryDelay:  cfg.SettleRetryDelay,
	})
	settlementService.SetEventPublisher(hub)

	// Reconciliation worker resolves indeterminate settlements
	worker := service.NewReconciliationWorker(pendingRepo, telecom, log.Logger, cfg.ReconcileInterval)
	worker.SetEventPublisher(hub)
	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()
	worker.Start(workerCtx)

	// Initialize handlers
	debtHandler := handler.NewDebtHandler(debtService)
	settlementHandler := handler.NewSettlementHandler(settlementService, accountService)
	wsHandler := handler.NewWebSocketHandler(hub, cfg.CORSOrigins)

	rateLimiter := middleware.NewRateLimiterWithConfig(cfg.RateLimitPerMinute, cfg.RateLimitBurst)

	// Create Echo instance
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept},
		MaxAge:       86400,
	}))
	e.Use(middleware.RequestLogger())
	e.Use(echomiddleware.Recover())

	// Health check endpoint
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	handler.RegisterBankRoutes(e, rateLimiter, debtHandler, settlementHandler, wsHandler)

	// Start server in goroutine
	go func() {
		log.Info().Str("port", cfg.BankPort).Msg("Starting bank ledger service")
		if err := e.Start(":" + cfg.BankPort); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	worker.Stop()
	rateLimiter.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}
