package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hubfolio/hubfolio-backend/internal/services"
)

type ETLHandler struct {
	etlService services.ETLService
}

func NewETLHandler(etlService services.ETLService) *ETLHandler {
	return &ETLHandler{etlService: etlService}
}

type runETLRequest struct {
	ObjectKey string `json:"object_key"`
}

// RunETL triggers one batch run. The run report is returned either way; a
// failed run carries status "failed" plus the cause and comes back as 500.
func (eh *ETLHandler) RunETL(c *gin.Context) {
	var req runETLRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			RespondError(c, http.StatusBadRequest, "invalid_request", err)
			return
		}
	}

	stats, err := eh.etlService.Run(c.Request.Context(), req.ObjectKey)
	if err != nil {
		c.JSON(http.StatusInternalServerError, stats)
		return
	}
	RespondOK(c, stats)
}
