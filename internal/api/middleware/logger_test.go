package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"ipscope/pkg/logger"
)

func TestLogger_PassesRequestThrough(t *testing.T) {
	handler := Logger(logger.NewDefault())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		w.Write([]byte("short and stout"))
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/stats", nil))

	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.Equal(t, "short and stout", rec.Body.String())
}

func TestIsProbe(t *testing.T) {
	assert.True(t, isProbe("/health"))
	assert.True(t, isProbe("/ready"))
	assert.False(t, isProbe("/api/v1/analyze"))
	assert.False(t, isProbe("/api/v1/ips/8.8.8.8/history"))
}
