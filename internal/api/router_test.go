package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ipscope/internal/api/handlers"
	"ipscope/internal/config"
	"ipscope/internal/domain/services"
	"ipscope/internal/infrastructure/cache"
	"ipscope/internal/providers"
	"ipscope/pkg/logger"
)

func newTestServer(t *testing.T) http.Handler {
	t.Helper()
	log := logger.NewDefault()
	registry := providers.NewRegistry(log)
	classifier := services.NewClassifier(config.ScoringConfig{})
	analyzer := services.NewAnalyzer(
		registry,
		services.NewNormalizer(log),
		classifier,
		services.NewMockGenerator(classifier),
		cache.NewMemory(),
		nil,
		time.Minute,
		log,
	)
	h := handlers.NewHandlers(handlers.Dependencies{Analyzer: analyzer, Logger: log})

	cfg := config.Config{
		CORS: config.CORSConfig{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Content-Type"},
		},
	}
	return NewRouter(cfg, h, nil, log).Setup()
}

func TestRouter_HealthRoute(t *testing.T) {
	srv := newTestServer(t)

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRouter_AnalyzeRoute(t *testing.T) {
	srv := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/analyze", strings.NewReader(`{"ip":"9.9.9.9"}`))
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var result services.AnalyzeResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, "9.9.9.9", result.Analysis.IPAddress)
}

func TestRouter_HistoryRouteExtractsIPParam(t *testing.T) {
	srv := newTestServer(t)

	// No database wired, so the handler reports unavailable, but the route
	// itself must resolve.
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/ips/8.8.8.8/history", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestRouter_UnknownRouteIs404(t *testing.T) {
	srv := newTestServer(t)

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/nope", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRouter_MethodNotAllowed(t *testing.T) {
	srv := newTestServer(t)

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/analyze", nil))

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
