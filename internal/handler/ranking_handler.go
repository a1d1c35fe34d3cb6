package handler

import (
	"net/http"
	"strconv"

	"github.com/OlegGarbuzov/JavaOffer-public-sub000/internal/model"
	"github.com/OlegGarbuzov/JavaOffer-public-sub000/internal/response"
	"github.com/OlegGarbuzov/JavaOffer-public-sub000/internal/service"
	"github.com/gin-gonic/gin"
)

const (
	defaultRankingLimit = 10
	maxRankingLimit     = 100
)

// RankingHandler serves the global best-score leaderboard.
type RankingHandler struct {
	ranking *service.RankingService
}

// NewRankingHandler creates a new RankingHandler.
func NewRankingHandler(ranking *service.RankingService) *RankingHandler {
	return &RankingHandler{ranking: ranking}
}

// GetTop godoc
// GET /api/v1/rankings?limit=10
func (h *RankingHandler) GetTop(c *gin.Context) {
	limit := defaultRankingLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			response.Fail(c, http.StatusBadRequest, response.ErrValidation)
			return
		}
		limit = n
	}
	if limit > maxRankingLimit {
		limit = maxRankingLimit
	}

	entries, err := h.ranking.Top(c.Request.Context(), limit)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	if entries == nil {
		entries = []model.RankingEntry{}
	}

	response.Success(c, http.StatusOK, gin.H{"rankings": entries})
}
