package models

import "time"

// ProviderCategory groups external data providers by what they contribute
type ProviderCategory string

const (
	ProviderCategoryGeo        ProviderCategory = "geolocation"
	ProviderCategoryReputation ProviderCategory = "reputation"
	ProviderCategoryProxy      ProviderCategory = "proxy_detection"
	ProviderCategoryWhois      ProviderCategory = "whois"
)

// ProviderReport is one provider's partial view of an IP. Fields the provider
// does not supply stay nil; the normalizer merges reports in priority order.
type ProviderReport struct {
	ProviderSlug string           `json:"provider_slug"`
	ProviderName string           `json:"provider_name"`
	Category     ProviderCategory `json:"category"`

	Signal NormalizedSignal `json:"signal"`
	Whois  *WhoisRecord     `json:"whois,omitempty"`

	FetchedAt time.Time     `json:"fetched_at"`
	Duration  time.Duration `json:"duration"`
}
