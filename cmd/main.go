package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"event-tickets/internal/auth"
	"event-tickets/internal/config"
	"event-tickets/internal/database"
	"event-tickets/internal/handlers"
	"event-tickets/internal/ledger"
	"event-tickets/internal/logger"
	"event-tickets/internal/metrics"
	"event-tickets/internal/notify"
	"event-tickets/internal/repository"
	"event-tickets/internal/services"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration", "error", err)
	}

	logger.Init(cfg.Log.Level, cfg.Log.Format)
	gin.SetMode(cfg.Server.GinMode)

	// Initialize JWT
	auth.InitJWT(cfg.Auth.JWTSecret, cfg.Auth.JWTTTL)

	// Connect to database
	dsn := cfg.GetDSN()
	if cfg.Database.Driver == "sqlite" {
		dsn = cfg.Database.SQLitePath
	}
	if err := database.Connect(cfg.Database.Driver, dsn); err != nil {
		logger.Fatal("Failed to connect to database", "error", err)
	}

	// Run migrations
	if err := database.AutoMigrate(); err != nil {
		logger.Fatal("Failed to run migrations", "error", err)
	}

	// Ledger storage
	var (
		store    ledger.Store
		accounts ledger.Accounts
	)
	switch cfg.Ledger.Store {
	case "memory":
		mem := ledger.NewMemoryStore()
		store, accounts = mem, mem
	default:
		db := repository.NewLedgerStore(database.GetDB())
		store, accounts = db, db
	}
	logger.Get().Info("Ledger store selected", "store", cfg.Ledger.Store)

	// Notifications
	broker := notify.NewBroker(16)
	notifiers := notify.Multi{broker}
	if cfg.NATS.URL != "" {
		publisher, err := notify.NewNATSPublisher(cfg.NATS.URL, cfg.NATS.Subject)
		if err != nil {
			logger.Fatal("Failed to connect to NATS", "error", err)
		}
		defer publisher.Close()
		notifiers = append(notifiers, publisher)
	}

	registry := ledger.NewRegistry(store,
		ledger.WithNotifier(notifiers),
		ledger.WithLogger(logger.Get()),
	)

	// Initialize services
	m := metrics.New()
	ticketService := services.NewTicketService(registry, m)
	accountService := services.NewAccountService(accounts, cfg.Ledger.FaucetEnabled)
	authService := services.NewAuthService(database.GetDB(), cfg.Auth.Message, cfg.Auth.ChallengeTTL)

	if cfg.Bootstrap.EventID != "" {
		bootstrapEvent(ticketService, cfg.Bootstrap)
	}

	// Initialize handlers
	currency := handlers.Currency{Decimals: cfg.Ledger.Decimals, Symbol: cfg.Ledger.Symbol}
	router := handlers.NewRouter(handlers.Routes{
		Auth:        handlers.NewAuthHandler(authService),
		Events:      handlers.NewEventHandler(ticketService, currency),
		Accounts:    handlers.NewAccountHandler(accountService, currency),
		Stream:      handlers.NewStreamHandler(broker),
		Metrics:     m.Handler(),
		CORSOrigins: cfg.Server.CORSOrigins,
	})

	// Create HTTP server
	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	// Start server in a goroutine
	go func() {
		logger.Get().Info("Server starting", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", "error", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Get().Info("Shutting down server")

	// Graceful shutdown with 5 second timeout
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Get().Error("Server forced to shutdown", "error", err)
	}

	logger.Get().Info("Server exited")
}

// bootstrapEvent creates the configured event unless it already exists
func bootstrapEvent(tickets *services.TicketService, b config.BootstrapConfig) {
	owner, err := ledger.ParseAddress(b.Owner)
	if err != nil {
		logger.Fatal("Invalid BOOTSTRAP_OWNER", "error", err)
	}
	_, err = tickets.CreateEvent(context.Background(), owner, b.EventID, b.Supply, b.Price)
	switch {
	case errors.Is(err, ledger.ErrDuplicateEvent):
		logger.Get().Info("Bootstrap event already exists", "event_id", b.EventID)
	case err != nil:
		logger.Fatal("Failed to create bootstrap event", "error", err)
	default:
		logger.Get().Info("Bootstrap event created", "event_id", b.EventID, "owner", owner.String())
	}
}
