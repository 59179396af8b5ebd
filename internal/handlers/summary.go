package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/hubfolio/hubfolio-backend/internal/repos"
)

type SummaryHandler struct {
	summaryRepo repos.SummaryRepo
}

func NewSummaryHandler(summaryRepo repos.SummaryRepo) *SummaryHandler {
	return &SummaryHandler{summaryRepo: summaryRepo}
}

func (sh *SummaryHandler) Summary(c *gin.Context) {
	ctx := c.Request.Context()

	counts, err := sh.summaryRepo.TableCounts(ctx)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "database_error", err)
		return
	}
	stats, err := sh.summaryRepo.PortfolioStats(ctx)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "database_error", err)
		return
	}
	RespondOK(c, gin.H{"tables": counts, "stats": stats})
}

func (sh *SummaryHandler) TopPortfolios(c *gin.Context) {
	limit := 10
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			RespondError(c, http.StatusBadRequest, "invalid_request", errors.New("limit must be a positive integer"))
			return
		}
		limit = parsed
	}

	rows, err := sh.summaryRepo.TopPortfolios(c.Request.Context(), limit)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "database_error", err)
		return
	}
	RespondOK(c, gin.H{"top_portfolios": rows, "count": len(rows)})
}
