package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"

	"github.com/fintrack/loan-engine/internal/config"
	"github.com/fintrack/loan-engine/internal/repository"
	"github.com/fintrack/loan-engine/internal/service"
	"github.com/fintrack/loan-engine/pkg/mailer"
)

func main() {
	log.Println("Starting loan scheduler...")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := sqlx.Connect("postgres", cfg.Database.URL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Host + ":" + cfg.Redis.Port,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()

	loanRepo := repository.NewLoanRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	reminderRepo := repository.NewReminderRepository(db)

	mailClient := mailer.NewClient(cfg.Mailer.BaseURL, cfg.Mailer.APIKey, cfg.Mailer.From)
	ledgerService := service.NewLedgerService(loanRepo, paymentRepo)
	reminderService := service.NewReminderService(loanRepo, reminderRepo, mailClient, redisClient, cfg)

	// Initialize cron scheduler in the reminder timezone so calendar-day
	// boundaries line up with the dedup window
	c := cron.New(cron.WithSeconds(), cron.WithLocation(cfg.GetReminderLocation()))

	setupCronJobs(c, ledgerService, reminderService)

	c.Start()
	log.Println("Scheduler started successfully")

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down scheduler...")
	c.Stop()
	log.Println("Scheduler stopped")
}

func setupCronJobs(c *cron.Cron, ledger *service.LedgerService, reminders *service.ReminderService) {
	// Daily job to sweep overdue installments (runs shortly after midnight)
	_, err := c.AddFunc("0 5 0 * * *", func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()

		updated, err := ledger.MarkOverdueInstallments(ctx)
		if err != nil {
			log.Printf("Overdue sweep failed: %v", err)
			return
		}
		log.Printf("Overdue sweep complete, %d installments marked", updated)
	})
	if err != nil {
		log.Printf("Error scheduling overdue sweep job: %v", err)
	}

	// Daily job to dispatch due-tomorrow payment reminders (runs at 9 AM)
	_, err = c.AddFunc("0 0 9 * * *", func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()

		report, err := reminders.Dispatch(ctx)
		if err != nil {
			log.Printf("Reminder dispatch failed: %v", err)
			return
		}
		log.Printf("Reminder dispatch complete, processed=%d sent=%d", report.Processed, report.Sent)
	})
	if err != nil {
		log.Printf("Error scheduling reminder dispatch job: %v", err)
	}

	log.Println("Cron jobs scheduled successfully")
}
