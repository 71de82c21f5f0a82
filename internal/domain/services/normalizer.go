package services

import (
	"ipscope/internal/domain/models"
	"ipscope/pkg/logger"
)

// Normalizer merges per-provider partial signals into one NormalizedSignal.
// Reports must be passed in fixed priority order: the first provider to
// populate a field wins, later providers only fill gaps. Empty strings and
// the "Unknown"/"XX" display sentinels count as gaps.
type Normalizer struct {
	logger *logger.Logger
}

// NewNormalizer creates a new Normalizer
func NewNormalizer(log *logger.Logger) *Normalizer {
	return &Normalizer{
		logger: log.WithComponent("normalizer"),
	}
}

// Merge combines reports in priority order and returns the merged signal
// together with the slugs of the providers that contributed at least one
// field.
func (n *Normalizer) Merge(reports ...*models.ProviderReport) (models.NormalizedSignal, []string) {
	var merged models.NormalizedSignal
	var sources []string

	for _, report := range reports {
		if report == nil {
			continue
		}
		if n.fill(&merged, report.Signal) {
			sources = append(sources, report.ProviderSlug)
		}
	}

	return merged, sources
}

// fill copies populated fields of src into gaps of dst, reporting whether
// src contributed anything.
func (n *Normalizer) fill(dst *models.NormalizedSignal, src models.NormalizedSignal) bool {
	contributed := false

	fillStr(&dst.Organization, src.Organization, &contributed)
	fillStr(&dst.ISP, src.ISP, &contributed)
	fillStr(&dst.ASN, src.ASN, &contributed)
	fillStr(&dst.Country, src.Country, &contributed)
	fillStr(&dst.CountryCode, src.CountryCode, &contributed)
	fillStr(&dst.City, src.City, &contributed)
	fillStr(&dst.Region, src.Region, &contributed)
	fillStr(&dst.Timezone, src.Timezone, &contributed)
	fillStr(&dst.UsageType, src.UsageType, &contributed)

	// Coordinates travel as a pair; a lone latitude is useless.
	if dst.Latitude == nil && dst.Longitude == nil &&
		src.Latitude != nil && src.Longitude != nil {
		dst.Latitude = src.Latitude
		dst.Longitude = src.Longitude
		contributed = true
	}

	fillBool(&dst.ProxyFlag, src.ProxyFlag, &contributed)
	fillBool(&dst.VPNFlag, src.VPNFlag, &contributed)
	fillBool(&dst.HostingFlag, src.HostingFlag, &contributed)
	fillBool(&dst.TorFlag, src.TorFlag, &contributed)

	fillInt(&dst.AbuseScore, src.AbuseScore, &contributed)
	fillInt(&dst.ReportCount, src.ReportCount, &contributed)

	return contributed
}

func fillStr(dst **string, src *string, contributed *bool) {
	if *dst != nil || src == nil {
		return
	}
	if *src == "" || *src == "Unknown" || *src == "XX" {
		return
	}
	*dst = src
	*contributed = true
}

func fillBool(dst **bool, src *bool, contributed *bool) {
	if *dst != nil || src == nil {
		return
	}
	*dst = src
	*contributed = true
}

func fillInt(dst **int, src *int, contributed *bool) {
	if *dst != nil || src == nil {
		return
	}
	*dst = src
	*contributed = true
}
