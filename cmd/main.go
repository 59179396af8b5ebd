package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/hubfolio/hubfolio-backend/internal/db"
	"github.com/hubfolio/hubfolio-backend/internal/handlers"
	"github.com/hubfolio/hubfolio-backend/internal/logger"
	"github.com/hubfolio/hubfolio-backend/internal/repos"
	"github.com/hubfolio/hubfolio-backend/internal/server"
	"github.com/hubfolio/hubfolio-backend/internal/services"
	"github.com/hubfolio/hubfolio-backend/internal/storage"
	"github.com/hubfolio/hubfolio-backend/internal/utils"
)

func main() {
	_ = godotenv.Load()

	// Logger
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// Postgres
	postgresService, err := db.NewPostgresService(log)
	if err != nil {
		log.Error("Postgres init failed", "error", err)
		os.Exit(1)
	}
	if err = postgresService.AutoMigrateAll(); err != nil {
		log.Warn("Postgres auto migration failed", "error", err)
	}
	if err = postgresService.EnsureSchemaObjects(); err != nil {
		log.Warn("Postgres schema objects setup failed", "error", err)
	}
	thePG := postgresService.DB()

	// Object storage
	store, err := storage.NewMinioStore(log)
	if err != nil {
		log.Error("Object storage init failed", "error", err)
		os.Exit(1)
	}
	if err := store.EnsureBucket(context.Background()); err != nil {
		log.Warn("Could not ensure bucket", "error", err)
	}

	// Repos
	log.Info("Setting up Repos from main...")
	userRepo := repos.NewUserRepo(thePG, log)
	portfolioRepo := repos.NewPortfolioRepo(thePG, log)
	predictionRepo := repos.NewPredictionRepo(thePG, log)
	summaryRepo := repos.NewSummaryRepo(thePG, log)

	// Services
	log.Info("Setting up Services from main...")
	predictor := services.NewPredictor(log)
	modelPath := utils.GetEnv("MODEL_PATH", "./models/hubfolio_model.json", log)
	if err := predictor.LoadFromFile(modelPath); err != nil {
		log.Warn("No model loaded at startup, scoring unavailable until upload", "error", err)
	}

	var telemetry services.TelemetryForwarder
	tbCfg := services.ThingsBoardConfigFromEnv(log)
	if tbCfg.Configured() {
		telemetry = services.NewThingsBoardForwarder(log, tbCfg)
	} else {
		log.Info("Telemetry forwarding disabled (no ThingsBoard config)")
	}

	var registry services.RegistryService
	regCfg := services.RegistryConfigFromEnv(log)
	if regCfg.Configured() {
		registry = services.NewMLflowRegistry(log, regCfg, store)
	} else {
		log.Info("Model registry disabled (no MLflow config)")
	}

	etlService := services.NewETLService(log, store, userRepo, portfolioRepo)
	scoringService := services.NewScoringService(log, predictor, userRepo, portfolioRepo, predictionRepo, telemetry)

	// Handlers
	log.Info("Setting up handlers from main...")
	healthHandler := handlers.NewHealthHandler(postgresService, store, predictor)
	datasetPath := utils.GetEnv("DATASET_PATH", "./data/portfolios.json", log)
	ingestHandler := handlers.NewIngestHandler(log, store, datasetPath)
	etlHandler := handlers.NewETLHandler(etlService)
	predictHandler := handlers.NewPredictHandler(scoringService)
	modelHandler := handlers.NewModelHandler(log, predictor, modelPath)
	fileHandler := handlers.NewFileHandler(log, store)
	summaryHandler := handlers.NewSummaryHandler(summaryRepo)
	registryHandler := handlers.NewRegistryHandler(registry)

	// Router
	log.Info("Setting up router from main...")
	router := server.NewRouter(server.RouterConfig{
		HealthHandler:   healthHandler,
		IngestHandler:   ingestHandler,
		ETLHandler:      etlHandler,
		PredictHandler:  predictHandler,
		ModelHandler:    modelHandler,
		FileHandler:     fileHandler,
		SummaryHandler:  summaryHandler,
		RegistryHandler: registryHandler,
	})

	port := utils.GetEnv("PORT", "8080", log)
	fmt.Printf("Server listening on :%s\n", port)
	if err := router.Run(":" + port); err != nil {
		log.Error("Server failed", "error", err)
	}
}
