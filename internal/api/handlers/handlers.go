package handlers

import (
	"encoding/json"
	"net/http"

	"ipscope/internal/domain/services"
	"ipscope/internal/infrastructure/cache"
	"ipscope/internal/infrastructure/database"
	"ipscope/internal/infrastructure/database/repository"
	"ipscope/pkg/logger"
)

// Handlers holds all API handlers
type Handlers struct {
	Health   *HealthHandler
	Analysis *AnalysisHandler
	Stats    *StatsHandler
}

// Dependencies holds dependencies for handlers. DB and Repo are nil when the
// database is unavailable; Cache is nil when Redis is unavailable.
type Dependencies struct {
	Analyzer *services.Analyzer
	Repo     *repository.AnalysisRepository
	Cache    *cache.RedisCache
	DB       *database.PostgresDB
	Logger   *logger.Logger
}

// NewHandlers creates all handlers
func NewHandlers(deps Dependencies) *Handlers {
	return &Handlers{
		Health:   NewHealthHandler(deps.Cache, deps.DB, deps.Logger),
		Analysis: NewAnalysisHandler(deps.Analyzer, deps.Repo, deps.Logger),
		Stats:    NewStatsHandler(deps.Repo, deps.Cache, deps.Logger),
	}
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
