package providers

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ipscope/internal/config"
	"ipscope/internal/domain/models"
	"ipscope/pkg/logger"
)

type fakeProvider struct {
	*BaseProvider
}

func (p *fakeProvider) Lookup(ctx context.Context, ip string) (*models.ProviderReport, error) {
	return &models.ProviderReport{ProviderSlug: p.Slug()}, nil
}

func newFake(slug string) *fakeProvider {
	return &fakeProvider{BaseProvider: NewBaseProvider(slug, slug, models.ProviderCategoryGeo)}
}

func TestRegistry_RegisterAndGet(t *testing.T) {
	r := NewRegistry(logger.NewDefault())

	require.NoError(t, r.Register(newFake("a")))
	require.Error(t, r.Register(newFake("a")), "duplicate slug must be rejected")

	p, ok := r.Get("a")
	require.True(t, ok)
	assert.Equal(t, "a", p.Slug())

	_, ok = r.Get("missing")
	assert.False(t, ok)
}

func TestRegistry_ListPreservesRegistrationOrder(t *testing.T) {
	r := NewRegistry(logger.NewDefault())

	for _, slug := range []string{"z", "a", "m"} {
		require.NoError(t, r.Register(newFake(slug)))
	}

	var got []string
	for _, p := range r.List() {
		got = append(got, p.Slug())
	}
	assert.Equal(t, []string{"z", "a", "m"}, got)
}

func TestRegistry_ListEnabledFiltersDisabled(t *testing.T) {
	r := NewRegistry(logger.NewDefault())

	require.NoError(t, r.Register(newFake("on")))
	require.NoError(t, r.Register(newFake("off")))
	require.NoError(t, r.Configure("off", Config{Enabled: false}))

	enabled := r.ListEnabled()
	require.Len(t, enabled, 1)
	assert.Equal(t, "on", enabled[0].Slug())
	assert.Equal(t, 2, r.Count())
	assert.Equal(t, 1, r.CountEnabled())
}

func TestRegistry_ConfigureUnknownSlug(t *testing.T) {
	r := NewRegistry(logger.NewDefault())
	assert.Error(t, r.Configure("nope", Config{}))
}

func TestRegistry_ConfigureFromProvidersConfig(t *testing.T) {
	r := NewRegistry(logger.NewDefault())
	require.NoError(t, r.Register(newFake("ipapi")))
	require.NoError(t, r.Register(newFake("abuseipdb")))

	r.ConfigureFromProvidersConfig(config.ProvidersConfig{
		IPAPI:     config.ProviderConfig{Enabled: true, Timeout: 3 * time.Second},
		AbuseIPDB: config.ProviderConfig{Enabled: false, APIKey: "secret"},
	})

	ipapi, _ := r.Get("ipapi")
	assert.True(t, ipapi.IsEnabled())
	assert.Equal(t, 3*time.Second, ipapi.(*fakeProvider).Timeout())

	abuse, _ := r.Get("abuseipdb")
	assert.False(t, abuse.IsEnabled())
	assert.Equal(t, "secret", abuse.(*fakeProvider).Config().APIKey)
}

func TestRegistry_Stats(t *testing.T) {
	r := NewRegistry(logger.NewDefault())
	require.NoError(t, r.Register(newFake("a")))
	require.NoError(t, r.Register(newFake("b")))
	require.NoError(t, r.Configure("b", Config{Enabled: false}))

	stats := r.Stats()
	assert.Equal(t, 2, stats.TotalProviders)
	assert.Equal(t, 1, stats.EnabledProviders)
	assert.Equal(t, 2, stats.ByCategory[string(models.ProviderCategoryGeo)])
}
