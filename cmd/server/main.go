package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"

	"github.com/fintrack/loan-engine/internal/config"
	"github.com/fintrack/loan-engine/internal/handler"
	"github.com/fintrack/loan-engine/internal/repository"
	"github.com/fintrack/loan-engine/internal/service"
	"github.com/fintrack/loan-engine/pkg/mailer"
	"github.com/fintrack/loan-engine/pkg/response"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize database
	db, err := initDB(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	// Initialize Redis
	redisClient := initRedis(cfg)
	defer redisClient.Close()

	// Initialize repositories
	loanRepo := repository.NewLoanRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	reminderRepo := repository.NewReminderRepository(db)

	// Initialize services
	mailClient := mailer.NewClient(cfg.Mailer.BaseURL, cfg.Mailer.APIKey, cfg.Mailer.From)
	ledgerService := service.NewLedgerService(loanRepo, paymentRepo)
	reminderService := service.NewReminderService(loanRepo, reminderRepo, mailClient, redisClient, cfg)

	ledgerHandler := handler.NewLedgerHandler(ledgerService)
	reminderHandler := handler.NewReminderHandler(reminderService)
	healthHandler := handler.NewHealthHandler(db, redisClient)

	// Setup routes
	router := setupRoutes(ledgerHandler, reminderHandler, healthHandler)

	// Start server
	server := &http.Server{
		Addr:         cfg.Server.Host + ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.GetReadTimeout(),
		WriteTimeout: cfg.GetWriteTimeout(),
	}

	// Start server in a goroutine
	go func() {
		log.Printf("Server starting on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}

func initDB(cfg *config.Config) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", cfg.Database.URL)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)

	return db, nil
}

func initRedis(cfg *config.Config) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Host + ":" + cfg.Redis.Port,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
}

func setupRoutes(ledgerHandler *handler.LedgerHandler, reminderHandler *handler.ReminderHandler, healthHandler *handler.HealthHandler) *mux.Router {
	router := mux.NewRouter()
	router.Use(response.LoggingMiddleware)

	// Health check
	router.HandleFunc("/health", healthHandler.Health).Methods("GET")
	router.HandleFunc("/health/ready", healthHandler.Ready).Methods("GET")

	// API routes
	api := router.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/loans", ledgerHandler.CreateLoan).Methods("POST")
	api.HandleFunc("/loans/{loanId}/schedule", ledgerHandler.GetSchedule).Methods("GET")
	api.HandleFunc("/loans/{loanId}/payments", ledgerHandler.ListPayments).Methods("GET")
	api.HandleFunc("/installments/{installmentId}/pay", ledgerHandler.PayInstallment).Methods("POST")
	api.HandleFunc("/reminders/dispatch", reminderHandler.Dispatch).Methods("POST")

	return router
}
