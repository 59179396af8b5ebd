package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hubfolio/hubfolio-backend/internal/services"
	"github.com/hubfolio/hubfolio-backend/internal/types"
)

type PredictHandler struct {
	scoringService services.ScoringService
}

func NewPredictHandler(scoringService services.ScoringService) *PredictHandler {
	return &PredictHandler{scoringService: scoringService}
}

func (ph *PredictHandler) Predict(c *gin.Context) {
	var submission types.PortfolioSubmission
	if err := c.ShouldBindJSON(&submission); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}

	result, err := ph.scoringService.Score(c.Request.Context(), &submission)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, result)
}
