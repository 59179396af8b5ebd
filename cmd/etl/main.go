package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/hubfolio/hubfolio-backend/internal/db"
	"github.com/hubfolio/hubfolio-backend/internal/logger"
	"github.com/hubfolio/hubfolio-backend/internal/repos"
	"github.com/hubfolio/hubfolio-backend/internal/services"
	"github.com/hubfolio/hubfolio-backend/internal/storage"
)

// One-shot batch run for cron and manual operation. Prints the run report as
// JSON and exits non-zero when the run failed.
func main() {
	_ = godotenv.Load()

	objectKey := flag.String("key", services.DefaultBatchObjectKey, "object key of the batch dataset")
	flag.Parse()

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

	postgresService, err := db.NewPostgresService(log)
	if err != nil {
		log.Error("Postgres init failed", "error", err)
		os.Exit(1)
	}
	if err = postgresService.AutoMigrateAll(); err != nil {
		log.Error("Postgres auto migration failed", "error", err)
		os.Exit(1)
	}
	if err = postgresService.EnsureSchemaObjects(); err != nil {
		log.Error("Postgres schema objects setup failed", "error", err)
		os.Exit(1)
	}
	thePG := postgresService.DB()

	store, err := storage.NewMinioStore(log)
	if err != nil {
		log.Error("Object storage init failed", "error", err)
		os.Exit(1)
	}

	userRepo := repos.NewUserRepo(thePG, log)
	portfolioRepo := repos.NewPortfolioRepo(thePG, log)
	etlService := services.NewETLService(log, store, userRepo, portfolioRepo)

	stats, runErr := etlService.Run(context.Background(), *objectKey)
	report, _ := json.MarshalIndent(stats, "", "  ")
	fmt.Println(string(report))

	if runErr != nil {
		os.Exit(1)
	}
}
