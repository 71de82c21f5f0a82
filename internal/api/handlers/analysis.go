package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"ipscope/internal/domain/services"
	"ipscope/internal/infrastructure/database/repository"
	"ipscope/pkg/logger"
)

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

// AnalysisHandler handles IP analysis endpoints
type AnalysisHandler struct {
	analyzer *services.Analyzer
	repo     *repository.AnalysisRepository
	logger   *logger.Logger
}

// NewAnalysisHandler creates a new AnalysisHandler
func NewAnalysisHandler(analyzer *services.Analyzer, repo *repository.AnalysisRepository, log *logger.Logger) *AnalysisHandler {
	return &AnalysisHandler{
		analyzer: analyzer,
		repo:     repo,
		logger:   log.WithComponent("analysis"),
	}
}

// AnalyzeRequest is the body of POST /api/v1/analyze
type AnalyzeRequest struct {
	IP string `json:"ip"`
}

// Analyze handles POST /api/v1/analyze
func (h *AnalysisHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	var req AnalyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.IP == "" {
		respondError(w, http.StatusBadRequest, "ip is required")
		return
	}

	result, err := h.analyzer.Analyze(r.Context(), req.IP)
	if err != nil {
		var invalidIP *services.InvalidIPError
		if errors.As(err, &invalidIP) {
			respondError(w, http.StatusBadRequest, invalidIP.Error())
			return
		}
		h.logger.Error().Err(err).Str("ip", req.IP).Msg("analysis failed")
		respondError(w, http.StatusInternalServerError, "analysis failed")
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// List handles GET /api/v1/analyses
func (h *AnalysisHandler) List(w http.ResponseWriter, r *http.Request) {
	if h.repo == nil {
		respondError(w, http.StatusServiceUnavailable, "database unavailable")
		return
	}

	limit := queryInt(r, "limit", defaultListLimit, maxListLimit)
	offset := queryInt(r, "offset", 0, 1<<30)

	analyses, total, err := h.repo.ListRecent(r.Context(), limit, offset)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to list analyses")
		respondError(w, http.StatusInternalServerError, "failed to list analyses")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"analyses": analyses,
		"total":    total,
		"limit":    limit,
		"offset":   offset,
	})
}

// Get handles GET /api/v1/analyses/{id}
func (h *AnalysisHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h.repo == nil {
		respondError(w, http.StatusServiceUnavailable, "database unavailable")
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid analysis id")
		return
	}

	analysis, whois, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		h.logger.Error().Err(err).Str("id", id.String()).Msg("failed to get analysis")
		respondError(w, http.StatusInternalServerError, "failed to get analysis")
		return
	}
	if analysis == nil {
		respondError(w, http.StatusNotFound, "analysis not found")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"analysis": analysis,
		"whois":    whois,
	})
}

// History handles GET /api/v1/ips/{ip}/history
func (h *AnalysisHandler) History(w http.ResponseWriter, r *http.Request) {
	if h.repo == nil {
		respondError(w, http.StatusServiceUnavailable, "database unavailable")
		return
	}

	ip := chi.URLParam(r, "ip")
	limit := queryInt(r, "limit", defaultListLimit, maxListLimit)

	analyses, err := h.repo.ListByIP(r.Context(), ip, limit)
	if err != nil {
		h.logger.Error().Err(err).Str("ip", ip).Msg("failed to load analysis history")
		respondError(w, http.StatusInternalServerError, "failed to load analysis history")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"ip":       ip,
		"analyses": analyses,
		"count":    len(analyses),
	})
}

// Delete handles DELETE /api/v1/analyses/{id}
func (h *AnalysisHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if h.repo == nil {
		respondError(w, http.StatusServiceUnavailable, "database unavailable")
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid analysis id")
		return
	}

	// Fetch first so the cache entry for the IP can be invalidated too.
	analysis, _, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		h.logger.Error().Err(err).Str("id", id.String()).Msg("failed to get analysis")
		respondError(w, http.StatusInternalServerError, "failed to delete analysis")
		return
	}
	if analysis == nil {
		respondError(w, http.StatusNotFound, "analysis not found")
		return
	}

	deleted, err := h.repo.Delete(r.Context(), id)
	if err != nil {
		h.logger.Error().Err(err).Str("id", id.String()).Msg("failed to delete analysis")
		respondError(w, http.StatusInternalServerError, "failed to delete analysis")
		return
	}
	if !deleted {
		respondError(w, http.StatusNotFound, "analysis not found")
		return
	}

	h.analyzer.Invalidate(r.Context(), analysis.IPAddress)

	w.WriteHeader(http.StatusNoContent)
}

func queryInt(r *http.Request, name string, def, max int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return def
	}
	if v > max {
		return max
	}
	return v
}
