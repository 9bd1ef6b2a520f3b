// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"

	"millstock/internal/domain/batches"
	"millstock/internal/domain/documents/outward"
	"millstock/internal/domain/documents/production"
	"millstock/internal/domain/stockquery"
	"millstock/internal/domain/waste"
	"millstock/internal/infrastructure/http/v1/handlers"
	"millstock/internal/infrastructure/http/v1/middleware"
	"millstock/internal/infrastructure/storage/postgres"
	"millstock/internal/ledger"
	"millstock/pkg/logger"
)

// RouterConfig holds the services the router exposes.
type RouterConfig struct {
	Pool   *postgres.Pool
	Logger *logger.Logger

	Ledger     *ledger.Service
	Batches    *batches.Service
	Production *production.Service
	Outward    *outward.Service
	Waste      *waste.Service
	Stock      *stockquery.Service
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Global middleware (order matters!)
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())

	healthHandler := handlers.NewHealthHandler(cfg.Pool)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
		health.GET("/info", healthHandler.Info)
	}

	base := handlers.NewBaseHandler()
	batchHandler := handlers.NewBatchHandler(base, cfg.Batches)
	productionHandler := handlers.NewProductionHandler(base, cfg.Production)
	outwardHandler := handlers.NewOutwardHandler(base, cfg.Outward)
	wasteHandler := handlers.NewWasteHandler(base, cfg.Waste)
	stockHandler := handlers.NewStockHandler(base, cfg.Stock, cfg.Ledger)

	api := router.Group("/api/v1")
	{
		batchGroup := api.Group("/batches")
		{
			batchGroup.POST("", batchHandler.Register)
			batchGroup.GET("", batchHandler.List)
			batchGroup.GET("/:id", batchHandler.Get)
			batchGroup.DELETE("/:id", batchHandler.Delete)
		}

		productionGroup := api.Group("/production")
		{
			productionGroup.POST("", productionHandler.Create)
			productionGroup.GET("", productionHandler.List)
			productionGroup.GET("/:id", productionHandler.Get)
			productionGroup.DELETE("/:id", productionHandler.Delete)
		}

		outwardGroup := api.Group("/outward")
		{
			outwardGroup.POST("", outwardHandler.Create)
			outwardGroup.GET("", outwardHandler.List)
			outwardGroup.GET("/:id", outwardHandler.Get)
			outwardGroup.DELETE("/:id", outwardHandler.Delete)
		}

		wasteGroup := api.Group("/waste")
		{
			wasteGroup.POST("/recycle", wasteHandler.Recycle)
			wasteGroup.POST("/export", wasteHandler.Export)
			wasteGroup.DELETE("/movements/:id", wasteHandler.DeleteMovement)
		}

		stockGroup := api.Group("/stock")
		{
			stockGroup.GET("/batches/available", stockHandler.AvailableBatches)
			stockGroup.GET("/turnover", stockHandler.Turnover)
			stockGroup.GET("/history", stockHandler.History)
			stockGroup.GET("/:material", stockHandler.ByMaterial)
		}
	}

	return router
}
