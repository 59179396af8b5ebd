package handlers

import (
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"

	"github.com/hubfolio/hubfolio-backend/internal/logger"
	"github.com/hubfolio/hubfolio-backend/internal/services"
)

type ModelHandler struct {
	log       *logger.Logger
	predictor *services.Predictor
	modelPath string
}

func NewModelHandler(log *logger.Logger, predictor *services.Predictor, modelPath string) *ModelHandler {
	return &ModelHandler{log: log, predictor: predictor, modelPath: modelPath}
}

func (mh *ModelHandler) Info(c *gin.Context) {
	info := gin.H{
		"model_loaded": mh.predictor.Loaded(),
		"features":     services.FeatureNames,
	}
	if mh.predictor.Loaded() {
		info["model_name"] = mh.predictor.ModelName()
		info["model_version"] = mh.predictor.ModelVersion()
	}
	RespondOK(c, info)
}

// Upload hot-swaps the scoring model from a JSON artifact in the request
// body. The artifact is validated before the swap, so a bad upload leaves the
// current model in place; a good one is also persisted for the next restart.
func (mh *ModelHandler) Upload(c *gin.Context) {
	data, err := io.ReadAll(c.Request.Body)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}

	model, err := services.LoadLinearModel(data)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_model", err)
		return
	}
	mh.predictor.Swap(model, model.ModelName)

	if mh.modelPath != "" {
		if err := os.MkdirAll(filepath.Dir(mh.modelPath), 0o755); err == nil {
			err = os.WriteFile(mh.modelPath, data, 0o644)
		}
		if err != nil {
			mh.log.Warn("Could not persist uploaded model", "path", mh.modelPath, "error", err)
		}
	}

	mh.log.Info("Model swapped", "model_name", model.ModelName)
	RespondOK(c, gin.H{
		"model_loaded":  true,
		"model_name":    mh.predictor.ModelName(),
		"model_version": mh.predictor.ModelVersion(),
	})
}
