package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hubfolio/hubfolio-backend/internal/services"
)

type RegistryHandler struct {
	registry services.RegistryService
}

// NewRegistryHandler accepts a nil registry; every route then answers 503 so
// the rest of the API keeps working without a tracking server.
func NewRegistryHandler(registry services.RegistryService) *RegistryHandler {
	return &RegistryHandler{registry: registry}
}

func (rh *RegistryHandler) available(c *gin.Context) bool {
	if rh.registry == nil {
		RespondError(c, http.StatusServiceUnavailable, "registry_unavailable", errors.New("model registry is not configured"))
		return false
	}
	return true
}

type publishRequest struct {
	ModelName string             `json:"model_name" binding:"required"`
	Artifact  json.RawMessage    `json:"artifact" binding:"required"`
	Metrics   map[string]float64 `json:"metrics"`
	Params    map[string]string  `json:"params"`
	Tags      map[string]string  `json:"tags"`
}

func (rh *RegistryHandler) Publish(c *gin.Context) {
	if !rh.available(c) {
		return
	}
	var req publishRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}

	result, err := rh.registry.Publish(c.Request.Context(), req.ModelName, req.Artifact, req.Metrics, req.Params, req.Tags)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, result)
}

type promoteRequest struct {
	ModelName   string `json:"model_name" binding:"required"`
	RunID       string `json:"run_id" binding:"required"`
	Stage       string `json:"stage" binding:"required"`
	Description string `json:"description"`
}

func (rh *RegistryHandler) Promote(c *gin.Context) {
	if !rh.available(c) {
		return
	}
	var req promoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}

	version, err := rh.registry.Promote(c.Request.Context(), req.ModelName, req.RunID, req.Stage, req.Description)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"model_name": req.ModelName, "version": version, "stage": req.Stage})
}

type exportRequest struct {
	ModelName string `json:"model_name" binding:"required"`
	Stage     string `json:"stage" binding:"required"`
}

func (rh *RegistryHandler) Export(c *gin.Context) {
	if !rh.available(c) {
		return
	}
	var req exportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}

	key, err := rh.registry.Export(c.Request.Context(), req.ModelName, req.Stage)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"model_name": req.ModelName, "stage": req.Stage, "export_key": key})
}
