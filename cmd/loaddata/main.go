package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/hubfolio/hubfolio-backend/internal/logger"
	"github.com/hubfolio/hubfolio-backend/internal/services"
	"github.com/hubfolio/hubfolio-backend/internal/storage"
	"github.com/hubfolio/hubfolio-backend/internal/types"
)

// Publishes a local portfolio dataset to object storage so a batch run can
// pick it up. The payload is decoded first, which catches a malformed file
// before it ever reaches the pipeline.
func main() {
	_ = godotenv.Load()

	filePath := flag.String("file", "./data/portfolios.json", "path of the dataset to publish")
	objectKey := flag.String("key", services.DefaultBatchObjectKey, "destination object key")
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

	data, err := os.ReadFile(*filePath)
	if err != nil {
		log.Error("Could not read dataset", "path", *filePath, "error", err)
		os.Exit(1)
	}
	records, err := types.DecodeBatch(data)
	if err != nil {
		log.Error("Dataset is not a valid batch payload", "path", *filePath, "error", err)
		os.Exit(1)
	}

	store, err := storage.NewMinioStore(log)
	if err != nil {
		log.Error("Object storage init failed", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()
	if err := store.EnsureBucket(ctx); err != nil {
		log.Error("Could not ensure bucket", "error", err)
		os.Exit(1)
	}
	if err := store.Put(ctx, *objectKey, data, "application/json"); err != nil {
		log.Error("Upload failed", "key", *objectKey, "error", err)
		os.Exit(1)
	}

	log.Info("Dataset published", "key", *objectKey, "records", len(records), "bytes", len(data))
}
