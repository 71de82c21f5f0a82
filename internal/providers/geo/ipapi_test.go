package geo

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ipscope/internal/providers"
	"ipscope/pkg/logger"
)

var (
	_ providers.Provider = (*IPAPIProvider)(nil)
	_ providers.Provider = (*IPWhoisProvider)(nil)
)

func newTestIPAPI(t *testing.T, handler http.HandlerFunc) (*IPAPIProvider, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	p := NewIPAPIProvider(logger.NewDefault())
	require.NoError(t, p.Configure(providers.Config{
		Enabled: true,
		APIURL:  srv.URL,
		Timeout: 2 * time.Second,
	}))
	return p, srv
}

func TestIPAPILookup_Success(t *testing.T) {
	p, _ := newTestIPAPI(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/8.8.8.8", r.URL.Path)
		assert.NotEmpty(t, r.URL.Query().Get("fields"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"status": "success",
			"country": "United States",
			"countryCode": "US",
			"regionName": "Virginia",
			"city": "Ashburn",
			"lat": 39.03,
			"lon": -77.5,
			"timezone": "America/New_York",
			"isp": "Google LLC",
			"org": "Google Public DNS",
			"as": "AS15169 Google LLC",
			"proxy": false,
			"hosting": true
		}`))
	})

	report, err := p.Lookup(context.Background(), "8.8.8.8")
	require.NoError(t, err)

	assert.Equal(t, "ipapi", report.ProviderSlug)
	assert.Equal(t, "Google Public DNS", *report.Signal.Organization)
	assert.Equal(t, "Google LLC", *report.Signal.ISP)
	assert.Equal(t, "US", *report.Signal.CountryCode)
	assert.Equal(t, "Virginia", *report.Signal.Region)
	require.NotNil(t, report.Signal.Latitude)
	assert.InDelta(t, 39.03, *report.Signal.Latitude, 0.0001)
	require.NotNil(t, report.Signal.ProxyFlag)
	assert.False(t, *report.Signal.ProxyFlag)
	require.NotNil(t, report.Signal.HostingFlag)
	assert.True(t, *report.Signal.HostingFlag)
}

func TestIPAPILookup_ZeroCoordinatesMeanUnknown(t *testing.T) {
	p, _ := newTestIPAPI(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"success","country":"United States","lat":0,"lon":0}`))
	})

	report, err := p.Lookup(context.Background(), "8.8.8.8")
	require.NoError(t, err)

	assert.Nil(t, report.Signal.Latitude)
	assert.Nil(t, report.Signal.Longitude)
}

func TestIPAPILookup_FailureStatus(t *testing.T) {
	p, _ := newTestIPAPI(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"fail","message":"private range"}`))
	})

	_, err := p.Lookup(context.Background(), "192.168.1.1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "private range")
}

func TestIPAPILookup_HTTPError(t *testing.T) {
	p, _ := newTestIPAPI(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "too many requests", http.StatusTooManyRequests)
	})

	_, err := p.Lookup(context.Background(), "8.8.8.8")
	require.Error(t, err)
}

func TestIPAPILookup_MalformedBody(t *testing.T) {
	p, _ := newTestIPAPI(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html>not json</html>`))
	})

	_, err := p.Lookup(context.Background(), "8.8.8.8")
	require.Error(t, err)
}
