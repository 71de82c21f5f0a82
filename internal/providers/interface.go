package providers

import (
	"context"
	"time"

	"ipscope/internal/domain/models"
)

// Provider is an adapter for one external IP data source. Lookup failures of
// any kind (missing credential, transport error, non-2xx, malformed body)
// are returned as errors and absorbed by the analyzer; a provider never
// takes the whole analysis down.
type Provider interface {
	// Slug returns the unique identifier for this provider
	Slug() string

	// Name returns the human-readable name of this provider
	Name() string

	// Category returns what kind of signal this provider contributes
	Category() models.ProviderCategory

	// Lookup fetches this provider's partial view of the given IP
	Lookup(ctx context.Context, ip string) (*models.ProviderReport, error)

	// IsEnabled returns whether this provider is enabled
	IsEnabled() bool

	// Configure configures the provider with the given config
	Configure(cfg Config) error

	// Timeout returns the per-call timeout for this provider
	Timeout() time.Duration
}

// Config holds configuration for a provider
type Config struct {
	Enabled bool          `json:"enabled"`
	APIURL  string        `json:"api_url,omitempty"`
	APIKey  string        `json:"api_key,omitempty"`
	Timeout time.Duration `json:"timeout,omitempty"`
}

// DefaultConfig returns default provider configuration
func DefaultConfig() Config {
	return Config{
		Enabled: true,
		Timeout: 5 * time.Second,
	}
}

// BaseProvider provides common functionality for providers
type BaseProvider struct {
	slug     string
	name     string
	category models.ProviderCategory
	config   Config
}

// NewBaseProvider creates a new base provider
func NewBaseProvider(slug, name string, category models.ProviderCategory) *BaseProvider {
	return &BaseProvider{
		slug:     slug,
		name:     name,
		category: category,
		config:   DefaultConfig(),
	}
}

// Slug returns the unique identifier for this provider
func (p *BaseProvider) Slug() string {
	return p.slug
}

// Name returns the human-readable name of this provider
func (p *BaseProvider) Name() string {
	return p.name
}

// Category returns what kind of signal this provider contributes
func (p *BaseProvider) Category() models.ProviderCategory {
	return p.category
}

// IsEnabled returns whether this provider is enabled
func (p *BaseProvider) IsEnabled() bool {
	return p.config.Enabled
}

// Configure configures the provider
func (p *BaseProvider) Configure(cfg Config) error {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultConfig().Timeout
	}
	p.config = cfg
	return nil
}

// Config returns the current configuration
func (p *BaseProvider) Config() Config {
	return p.config
}

// Timeout returns the per-call timeout for this provider
func (p *BaseProvider) Timeout() time.Duration {
	return p.config.Timeout
}
