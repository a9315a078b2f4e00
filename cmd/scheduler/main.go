package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/robfig/cron/v3"

	"github.com/bizpilot/layby-engine/internal/config"
	"github.com/bizpilot/layby-engine/internal/logging"
	"github.com/bizpilot/layby-engine/internal/repository"
	"github.com/bizpilot/layby-engine/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logging.Init("layby-scheduler", cfg.Logging.Level, cfg.Logging.Format)

	db, err := sqlx.Connect("postgres", cfg.Database.DSN())
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	laybyRepo := repository.NewLaybyRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	laybyService := service.NewLaybyService(laybyRepo, paymentRepo, nil, cfg)

	location, err := time.LoadLocation(cfg.Scheduler.Timezone)
	if err != nil {
		slog.Error("invalid scheduler timezone", "timezone", cfg.Scheduler.Timezone, "error", err)
		os.Exit(1)
	}

	c := cron.New(cron.WithSeconds(), cron.WithLocation(location))

	setupCronJobs(c, cfg, laybyService)

	c.Start()
	slog.Info("scheduler started", "timezone", cfg.Scheduler.Timezone)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down scheduler")
	<-c.Stop().Done()
	slog.Info("scheduler stopped")
}

func setupCronJobs(c *cron.Cron, cfg *config.Config, laybyService *service.LaybyService) {
	// Daily sweep that rolls ACTIVE laybys with missed installments into
	// OVERDUE and brings caught-up ones back
	_, err := c.AddFunc(cfg.Scheduler.AgingCron, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()

		changed, err := laybyService.RefreshAging(ctx, time.Now())
		if err != nil {
			slog.Error("aging sweep failed", "error", err)
			return
		}
		slog.Info("aging sweep complete", "orders_updated", changed)
	})
	if err != nil {
		slog.Error("failed to schedule aging sweep", "error", err)
	}

	// Daily reminder listing laybys waiting to be picked up
	_, err = c.AddFunc(cfg.Scheduler.ReminderCron, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()

		orders, err := laybyService.ListReadyForCollection(ctx)
		if err != nil {
			slog.Error("collection reminder sweep failed", "error", err)
			return
		}
		for _, order := range orders {
			slog.Info("layby awaiting collection",
				"layby_id", order.LaybyID,
				"customer_id", order.CustomerID,
				"paid_in_full_since", order.UpdatedAt,
			)
		}
	})
	if err != nil {
		slog.Error("failed to schedule collection reminders", "error", err)
	}

	slog.Info("cron jobs scheduled")
}
