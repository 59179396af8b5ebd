package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hubfolio/hubfolio-backend/internal/db"
	"github.com/hubfolio/hubfolio-backend/internal/services"
	"github.com/hubfolio/hubfolio-backend/internal/storage"
)

func HealthCheck(c *gin.Context) {
	c.String(http.StatusOK, "ok")
}

type HealthHandler struct {
	pg        *db.PostgresService
	store     storage.ObjectStore
	predictor *services.Predictor
}

func NewHealthHandler(pg *db.PostgresService, store storage.ObjectStore, predictor *services.Predictor) *HealthHandler {
	return &HealthHandler{pg: pg, store: store, predictor: predictor}
}

// Health reports per-component status; the endpoint itself stays 200 so
// dashboards can read the breakdown even while a dependency is down.
func (hh *HealthHandler) Health(c *gin.Context) {
	ctx := c.Request.Context()

	postgres := "ok"
	if hh.pg == nil {
		postgres = "unavailable"
	} else if !hh.pg.CheckConnection() {
		postgres = "unreachable"
	}

	minio := "ok"
	if hh.store == nil {
		minio = "unavailable"
	} else if !hh.store.Ping(ctx) {
		minio = "unreachable"
	}

	c.JSON(http.StatusOK, gin.H{
		"status":       "ok",
		"postgres":     postgres,
		"minio":        minio,
		"model_loaded": hh.predictor.Loaded(),
	})
}
