// Package main is the entry point for the millstock API server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"millstock/internal/domain/activity"
	"millstock/internal/domain/batches"
	"millstock/internal/domain/documents/outward"
	"millstock/internal/domain/documents/production"
	"millstock/internal/domain/stockquery"
	"millstock/internal/domain/waste"
	v1 "millstock/internal/infrastructure/http/v1"
	"millstock/internal/infrastructure/numerator"
	"millstock/internal/infrastructure/storage/postgres"
	"millstock/internal/ledger"
	"millstock/pkg/logger"
)

func main() {
	log, err := logger.New(logger.Config{
		Level:       getEnv("LOG_LEVEL", "info"),
		Development: getEnv("APP_ENV", "development") == "development",
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	log.Info("starting millstock server")

	dsn := mustEnv("DATABASE_URL")

	if err := postgres.Migrate(dsn); err != nil {
		log.Fatalw("migrations failed", "error", err)
	}
	log.Info("migrations applied")

	poolCfg := postgres.DefaultPoolConfig(dsn)
	if maxConns := getEnvInt("DB_MAX_CONNS", 0); maxConns > 0 {
		poolCfg.MaxConns = int32(maxConns)
	}
	pool, err := postgres.NewPool(ctx, poolCfg)
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()
	log.Info("database connection established")

	// --- Storage layer ---
	txManager := postgres.NewTxManager(pool)
	ledgerRepo := postgres.NewLedgerRepo(txManager)
	batchRepo := postgres.NewBatchRepo(txManager)
	productionRepo := postgres.NewProductionRepo(txManager)
	outwardRepo := postgres.NewOutwardRepo(txManager)

	activityStore, err := postgres.NewActivityStore(txManager)
	if err != nil {
		log.Fatalw("failed to create activity store", "error", err)
	}

	// --- Domain services ---
	numeratorService := numerator.New(pool)
	activityService := activity.NewService(activityStore)

	ledgerService := ledger.NewService(ledgerRepo)
	batchService := batches.NewService(batchRepo, ledgerService, txManager, activityService)
	productionService := production.NewService(
		productionRepo, batchService, ledgerService, numeratorService, txManager, activityService)
	outwardService := outward.NewService(
		outwardRepo, ledgerService, numeratorService, txManager, activityService)
	wasteService := waste.NewService(ledgerService, txManager, activityService)
	stockService := stockquery.NewService(ledgerService, batchService, productionRepo, txManager)

	// --- Router ---
	router := v1.NewRouter(v1.RouterConfig{
		Pool:       pool,
		Logger:     log,
		Ledger:     ledgerService,
		Batches:    batchService,
		Production: productionService,
		Outward:    outwardService,
		Waste:      wasteService,
		Stock:      stockService,
	})

	// --- HTTP Server ---
	port := getEnv("APP_PORT", "8080")
	server := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Infow("server starting", "port", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalw("server failed", "error", err)
		}
	}()

	// --- Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalw("server forced to shutdown", "error", err)
	}

	log.Info("server stopped")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func mustEnv(key string) string {
	value := os.Getenv(key)
	if value == "" {
		fmt.Printf("required environment variable %s not set\n", key)
		os.Exit(1)
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		var result int
		if _, err := fmt.Sscanf(value, "%d", &result); err == nil {
			return result
		}
	}
	return defaultValue
}
