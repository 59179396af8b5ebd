package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/hubfolio/hubfolio-backend/internal/handlers"
)

type RouterConfig struct {
	HealthHandler   *handlers.HealthHandler
	IngestHandler   *handlers.IngestHandler
	ETLHandler      *handlers.ETLHandler
	PredictHandler  *handlers.PredictHandler
	ModelHandler    *handlers.ModelHandler
	FileHandler     *handlers.FileHandler
	SummaryHandler  *handlers.SummaryHandler
	RegistryHandler *handlers.RegistryHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()

	// Cors
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{
			"http://localhost:80",
			"http://localhost:3000",
			"http://localhost:5174",
		},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	}))

	router.GET("/healthcheck", handlers.HealthCheck)
	router.GET("/health", cfg.HealthHandler.Health)

	api := router.Group("/api")
	{
		// Pipeline
		api.POST("/ingest/hubfolio", cfg.IngestHandler.IngestHubfolio)
		api.POST("/etl/run", cfg.ETLHandler.RunETL)

		// Scoring
		api.POST("/predict", cfg.PredictHandler.Predict)
		api.GET("/model/info", cfg.ModelHandler.Info)
		api.POST("/model/upload", cfg.ModelHandler.Upload)

		// Object storage
		api.POST("/files/upload", cfg.FileHandler.Upload)
		api.GET("/files", cfg.FileHandler.List)
		api.GET("/files/download", cfg.FileHandler.Download)

		// Reporting
		api.GET("/postgres/summary", cfg.SummaryHandler.Summary)
		api.GET("/postgres/top-portfolios", cfg.SummaryHandler.TopPortfolios)

		// Registry
		api.POST("/registry/publish", cfg.RegistryHandler.Publish)
		api.POST("/registry/promote", cfg.RegistryHandler.Promote)
		api.POST("/registry/export", cfg.RegistryHandler.Export)
	}

	return router
}
