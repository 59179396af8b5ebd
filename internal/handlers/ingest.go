package handlers

import (
	"net/http"
	"os"

	"github.com/gin-gonic/gin"

	"github.com/hubfolio/hubfolio-backend/internal/apierr"
	"github.com/hubfolio/hubfolio-backend/internal/logger"
	"github.com/hubfolio/hubfolio-backend/internal/services"
	"github.com/hubfolio/hubfolio-backend/internal/storage"
	"github.com/hubfolio/hubfolio-backend/internal/types"
)

type IngestHandler struct {
	log         *logger.Logger
	store       storage.ObjectStore
	datasetPath string
}

func NewIngestHandler(log *logger.Logger, store storage.ObjectStore, datasetPath string) *IngestHandler {
	return &IngestHandler{log: log, store: store, datasetPath: datasetPath}
}

// IngestHubfolio publishes the bundled portfolio dataset to object storage
// under the batch key, so the next batch run picks it up. The payload is
// decoded first: a dataset that cannot even parse never reaches the pipeline.
func (ih *IngestHandler) IngestHubfolio(c *gin.Context) {
	data, err := os.ReadFile(ih.datasetPath)
	if err != nil {
		RespondServiceError(c, apierr.New(http.StatusNotFound, "dataset_not_found", err))
		return
	}
	records, err := types.DecodeBatch(data)
	if err != nil {
		RespondServiceError(c, apierr.New(http.StatusBadRequest, "invalid_dataset", err))
		return
	}

	if err := ih.store.Put(c.Request.Context(), services.DefaultBatchObjectKey, data, "application/json"); err != nil {
		RespondError(c, http.StatusInternalServerError, "storage_error", err)
		return
	}

	ih.log.Info("Dataset ingested", "key", services.DefaultBatchObjectKey, "records", len(records), "bytes", len(data))
	RespondOK(c, gin.H{
		"key":     services.DefaultBatchObjectKey,
		"records": len(records),
		"bytes":   len(data),
	})
}
