package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"

	"github.com/bizpilot/layby-engine/internal/config"
	"github.com/bizpilot/layby-engine/internal/handler"
	"github.com/bizpilot/layby-engine/internal/logging"
	"github.com/bizpilot/layby-engine/internal/repository"
	"github.com/bizpilot/layby-engine/internal/service"
	"github.com/bizpilot/layby-engine/pkg/response"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logging.Init("layby-engine", cfg.Logging.Level, cfg.Logging.Format)

	db, err := initDB(cfg)
	if err != nil {
		slog.Error("failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	redisClient := initRedis(cfg)
	defer redisClient.Close()

	laybyRepo := repository.NewLaybyRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)

	laybyService := service.NewLaybyService(laybyRepo, paymentRepo, redisClient, cfg)
	laybyHandler := handler.NewLaybyHandler(laybyService)
	healthHandler := handler.NewHealthHandler(db, redisClient)

	router := setupRoutes(laybyHandler, healthHandler)

	server := &http.Server{
		Addr:         cfg.Server.Host + ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		slog.Info("server starting", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("server exited")
}

func initDB(cfg *config.Config) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", cfg.Database.DSN())
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime)

	return db, nil
}

func initRedis(cfg *config.Config) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Host + ":" + cfg.Redis.Port,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
}

func setupRoutes(laybyHandler *handler.LaybyHandler, healthHandler *handler.HealthHandler) *mux.Router {
	router := mux.NewRouter()
	router.Use(response.RecoveryMiddleware)
	router.Use(response.LoggingMiddleware)
	router.Use(response.CORSMiddleware)

	// Health check
	router.HandleFunc("/health", healthHandler.Health).Methods("GET")
	router.HandleFunc("/health/ready", healthHandler.Ready).Methods("GET")

	// API routes
	api := router.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/laybys", laybyHandler.CreateLayby).Methods("POST")
	api.HandleFunc("/laybys/{laybyId}", laybyHandler.GetLayby).Methods("GET")
	api.HandleFunc("/laybys/{laybyId}/schedule", laybyHandler.GetSchedule).Methods("GET")
	api.HandleFunc("/laybys/{laybyId}/balance", laybyHandler.GetBalance).Methods("GET")
	api.HandleFunc("/laybys/{laybyId}/payments", laybyHandler.GetPayments).Methods("GET")
	api.HandleFunc("/laybys/{laybyId}/payments", laybyHandler.RecordPayment).Methods("POST")
	api.HandleFunc("/laybys/{laybyId}/cancel", laybyHandler.Cancel).Methods("POST")
	api.HandleFunc("/laybys/{laybyId}/collect", laybyHandler.Collect).Methods("POST")

	return router
}
