package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ipscope/internal/domain/models"
	"ipscope/pkg/logger"
)

func report(slug string, signal models.NormalizedSignal) *models.ProviderReport {
	return &models.ProviderReport{
		ProviderSlug: slug,
		Signal:       signal,
	}
}

func TestMerge_FirstProviderWins(t *testing.T) {
	n := NewNormalizer(logger.NewDefault())

	merged, sources := n.Merge(
		report("primary", models.NormalizedSignal{Country: strPtr("Germany")}),
		report("secondary", models.NormalizedSignal{Country: strPtr("France")}),
	)

	require.NotNil(t, merged.Country)
	assert.Equal(t, "Germany", *merged.Country)
	// secondary contributed nothing; its value lost on the only field it had
	assert.Equal(t, []string{"primary"}, sources)
}

func TestMerge_LaterProvidersFillGaps(t *testing.T) {
	n := NewNormalizer(logger.NewDefault())

	merged, sources := n.Merge(
		report("geo", models.NormalizedSignal{Country: strPtr("Germany"), City: strPtr("Frankfurt")}),
		report("rep", models.NormalizedSignal{AbuseScore: intPtr(80), ReportCount: intPtr(5)}),
	)

	assert.Equal(t, "Germany", *merged.Country)
	assert.Equal(t, 80, *merged.AbuseScore)
	assert.Equal(t, 5, *merged.ReportCount)
	assert.Equal(t, []string{"geo", "rep"}, sources)
}

func TestMerge_SentinelsCountAsGaps(t *testing.T) {
	n := NewNormalizer(logger.NewDefault())

	merged, sources := n.Merge(
		report("a", models.NormalizedSignal{
			Country:     strPtr("Unknown"),
			CountryCode: strPtr("XX"),
			City:        strPtr(""),
		}),
		report("b", models.NormalizedSignal{
			Country:     strPtr("Japan"),
			CountryCode: strPtr("JP"),
		}),
	)

	assert.Equal(t, "Japan", *merged.Country)
	assert.Equal(t, "JP", *merged.CountryCode)
	assert.Nil(t, merged.City)
	assert.Equal(t, []string{"b"}, sources)
}

func TestMerge_CoordinatesTravelAsPair(t *testing.T) {
	n := NewNormalizer(logger.NewDefault())
	lat, lon := 35.6762, 139.6503
	lone := 1.0

	merged, _ := n.Merge(
		report("half", models.NormalizedSignal{Latitude: &lone}),
		report("full", models.NormalizedSignal{Latitude: &lat, Longitude: &lon}),
	)

	require.NotNil(t, merged.Latitude)
	require.NotNil(t, merged.Longitude)
	assert.Equal(t, lat, *merged.Latitude)
	assert.Equal(t, lon, *merged.Longitude)
}

func TestMerge_FalseFlagIsAValue(t *testing.T) {
	n := NewNormalizer(logger.NewDefault())

	merged, _ := n.Merge(
		report("a", models.NormalizedSignal{ProxyFlag: boolPtr(false)}),
		report("b", models.NormalizedSignal{ProxyFlag: boolPtr(true)}),
	)

	require.NotNil(t, merged.ProxyFlag)
	assert.False(t, *merged.ProxyFlag, "an explicit false from the priority provider must not be overwritten")
}

func TestMerge_NilAndEmptyReports(t *testing.T) {
	n := NewNormalizer(logger.NewDefault())

	merged, sources := n.Merge(nil, report("empty", models.NormalizedSignal{}))

	assert.True(t, merged.Empty())
	assert.Empty(t, sources)
}
