package handlers

import (
	"net/http"
	"time"

	"ipscope/internal/domain/models"
	"ipscope/internal/infrastructure/cache"
	"ipscope/internal/infrastructure/database/repository"
	"ipscope/pkg/logger"
)

// StatsHandler handles statistics endpoints
type StatsHandler struct {
	repo   *repository.AnalysisRepository
	cache  *cache.RedisCache
	logger *logger.Logger
}

// NewStatsHandler creates a new StatsHandler
func NewStatsHandler(repo *repository.AnalysisRepository, c *cache.RedisCache, log *logger.Logger) *StatsHandler {
	return &StatsHandler{
		repo:   repo,
		cache:  c,
		logger: log.WithComponent("stats"),
	}
}

// Get handles GET /api/v1/stats
func (h *StatsHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h.repo == nil {
		respondJSON(w, http.StatusOK, emptyStats())
		return
	}

	// Try cache first
	if h.cache != nil {
		var stats models.AnalysisStats
		if err := h.cache.GetJSON(r.Context(), cache.KeyStats, &stats); err == nil {
			w.Header().Set("Cache-Control", "public, max-age=60")
			respondJSON(w, http.StatusOK, &stats)
			return
		}
	}

	stats, err := h.repo.GetStats(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to compute stats")
		respondError(w, http.StatusInternalServerError, "failed to compute stats")
		return
	}

	if h.cache != nil {
		_ = h.cache.SetJSON(r.Context(), cache.KeyStats, stats, time.Minute)
	}

	w.Header().Set("Cache-Control", "public, max-age=60")
	respondJSON(w, http.StatusOK, stats)
}

func emptyStats() *models.AnalysisStats {
	return &models.AnalysisStats{
		ByThreatLevel: map[string]int64{
			"low":      0,
			"medium":   0,
			"high":     0,
			"critical": 0,
		},
	}
}
