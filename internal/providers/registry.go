package providers

import (
	"fmt"
	"sync"
	"time"

	"ipscope/internal/config"
	"ipscope/pkg/logger"
)

// Registry manages all provider adapters. Registration order is the field
// precedence order: when several providers supply the same signal field, the
// earliest registered provider wins and later ones only fill gaps.
type Registry struct {
	order     []string
	providers map[string]Provider
	mu        sync.RWMutex
	logger    *logger.Logger
}

// NewRegistry creates a new provider registry
func NewRegistry(log *logger.Logger) *Registry {
	return &Registry{
		providers: make(map[string]Provider),
		logger:    log.WithComponent("provider-registry"),
	}
}

// Register registers a provider
func (r *Registry) Register(p Provider) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	slug := p.Slug()
	if _, exists := r.providers[slug]; exists {
		return fmt.Errorf("provider already registered: %s", slug)
	}

	r.providers[slug] = p
	r.order = append(r.order, slug)
	r.logger.Info().
		Str("slug", slug).
		Str("name", p.Name()).
		Str("category", string(p.Category())).
		Msg("registered provider")

	return nil
}

// Get returns a provider by slug
func (r *Registry) Get(slug string) (Provider, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.providers[slug]
	return p, ok
}

// List returns all registered providers in precedence order
func (r *Registry) List() []Provider {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Provider, 0, len(r.order))
	for _, slug := range r.order {
		out = append(out, r.providers[slug])
	}
	return out
}

// ListEnabled returns enabled providers in precedence order
func (r *Registry) ListEnabled() []Provider {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Provider, 0, len(r.order))
	for _, slug := range r.order {
		if p := r.providers[slug]; p.IsEnabled() {
			out = append(out, p)
		}
	}
	return out
}

// Count returns the number of registered providers
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.providers)
}

// CountEnabled returns the number of enabled providers
func (r *Registry) CountEnabled() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	count := 0
	for _, p := range r.providers {
		if p.IsEnabled() {
			count++
		}
	}
	return count
}

// Configure configures a provider by slug
func (r *Registry) Configure(slug string, cfg Config) error {
	r.mu.RLock()
	p, ok := r.providers[slug]
	r.mu.RUnlock()

	if !ok {
		return fmt.Errorf("provider not found: %s", slug)
	}

	return p.Configure(cfg)
}

// ConfigureFromProvidersConfig applies configuration from the config file
func (r *Registry) ConfigureFromProvidersConfig(cfg config.ProvidersConfig) {
	configs := map[string]config.ProviderConfig{
		"ipapi":     cfg.IPAPI,
		"ipwhois":   cfg.IPWhois,
		"abuseipdb": cfg.AbuseIPDB,
		"vpnapi":    cfg.VPNAPI,
		"rdap":      cfg.RDAP,
	}

	for slug, pCfg := range configs {
		timeout := pCfg.Timeout
		if timeout <= 0 {
			timeout = 5 * time.Second
		}
		provCfg := Config{
			Enabled: pCfg.Enabled,
			APIURL:  pCfg.APIURL,
			APIKey:  pCfg.APIKey,
			Timeout: timeout,
		}

		if err := r.Configure(slug, provCfg); err != nil {
			r.logger.Debug().Str("slug", slug).Msg("provider not registered, skipping config")
		} else {
			r.logger.Debug().Str("slug", slug).Bool("enabled", pCfg.Enabled).Msg("configured provider")
		}
	}
}

// Stats returns registry statistics
type RegistryStats struct {
	TotalProviders   int            `json:"total_providers"`
	EnabledProviders int            `json:"enabled_providers"`
	ByCategory       map[string]int `json:"by_category"`
}

// Stats returns registry statistics
func (r *Registry) Stats() RegistryStats {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stats := RegistryStats{
		TotalProviders: len(r.providers),
		ByCategory:     make(map[string]int),
	}

	for _, p := range r.providers {
		if p.IsEnabled() {
			stats.EnabledProviders++
		}
		stats.ByCategory[string(p.Category())]++
	}

	return stats
}
