package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ipscope/internal/config"
	"ipscope/internal/domain/services"
	"ipscope/internal/infrastructure/cache"
	"ipscope/internal/providers"
	"ipscope/pkg/logger"
)

// newMockBackedHandlers builds the handler set around an analyzer with no
// providers registered, so every analysis is served by the deterministic
// generator. No database, no Redis.
func newMockBackedHandlers(t *testing.T) *Handlers {
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
	return NewHandlers(Dependencies{Analyzer: analyzer, Logger: log})
}

func postAnalyze(t *testing.T, h *Handlers, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/analyze", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.Analysis.Analyze(rec, req)
	return rec
}

func TestAnalyzeEndpoint_InvalidBody(t *testing.T) {
	h := newMockBackedHandlers(t)

	rec := postAnalyze(t, h, "{not json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAnalyzeEndpoint_MissingIP(t *testing.T) {
	h := newMockBackedHandlers(t)

	rec := postAnalyze(t, h, `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ip is required", body["error"])
}

func TestAnalyzeEndpoint_InvalidIP(t *testing.T) {
	h := newMockBackedHandlers(t)

	rec := postAnalyze(t, h, `{"ip":"not-an-ip"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid IP address")
}

func TestAnalyzeEndpoint_Success(t *testing.T) {
	h := newMockBackedHandlers(t)

	rec := postAnalyze(t, h, `{"ip":"8.8.8.8"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var result services.AnalyzeResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))

	require.NotNil(t, result.Analysis)
	assert.False(t, result.Cached)
	assert.Equal(t, "8.8.8.8", result.Analysis.IPAddress)
	assert.Equal(t, []string{"mock"}, result.Analysis.Sources)
	assert.GreaterOrEqual(t, result.Analysis.Detection.RiskScore, 0)
	assert.LessOrEqual(t, result.Analysis.Detection.RiskScore, 100)
	assert.NotEmpty(t, result.Analysis.Detection.ThreatLevel)
}

func TestAnalyzeEndpoint_SecondCallIsCached(t *testing.T) {
	h := newMockBackedHandlers(t)

	first := postAnalyze(t, h, `{"ip":"1.1.1.1"}`)
	require.Equal(t, http.StatusOK, first.Code)

	second := postAnalyze(t, h, `{"ip":"1.1.1.1"}`)
	require.Equal(t, http.StatusOK, second.Code)

	var a, b services.AnalyzeResult
	require.NoError(t, json.Unmarshal(first.Body.Bytes(), &a))
	require.NoError(t, json.Unmarshal(second.Body.Bytes(), &b))

	assert.False(t, a.Cached)
	assert.True(t, b.Cached)
	assert.Equal(t, a.Analysis.ID, b.Analysis.ID)
}

func TestAnalyzeEndpoint_WhitespaceTolerated(t *testing.T) {
	h := newMockBackedHandlers(t)

	rec := postAnalyze(t, h, `{"ip":"  8.8.8.8  "}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var result services.AnalyzeResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, "8.8.8.8", result.Analysis.IPAddress)
}

func TestHistoryEndpoints_UnavailableWithoutDatabase(t *testing.T) {
	h := newMockBackedHandlers(t)

	cases := []struct {
		name    string
		handler http.HandlerFunc
		method  string
		target  string
	}{
		{"list", h.Analysis.List, http.MethodGet, "/api/v1/analyses"},
		{"get", h.Analysis.Get, http.MethodGet, "/api/v1/analyses/123"},
		{"history", h.Analysis.History, http.MethodGet, "/api/v1/ips/8.8.8.8/history"},
		{"delete", h.Analysis.Delete, http.MethodDelete, "/api/v1/analyses/123"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, tc.target, nil)
			rec := httptest.NewRecorder()
			tc.handler(rec, req)
			assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		})
	}
}

func TestStatsEndpoint_EmptyWithoutDatabase(t *testing.T) {
	h := newMockBackedHandlers(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/stats", nil)
	rec := httptest.NewRecorder()
	h.Stats.Get(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var stats map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.EqualValues(t, 0, stats["total_count"])
}

func TestHealthEndpoint(t *testing.T) {
	h := newMockBackedHandlers(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	h.Health.Check(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var body HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body.Status)
}

func TestReadyEndpoint_NoDependenciesConfigured(t *testing.T) {
	h := newMockBackedHandlers(t)

	req := httptest.NewRequest(http.MethodGet, "/ready", nil)
	rec := httptest.NewRecorder()
	h.Health.Ready(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var body HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ready", body.Status)
	assert.Equal(t, "not configured", body.Checks["redis"])
	assert.Equal(t, "not configured", body.Checks["postgres"])
}
