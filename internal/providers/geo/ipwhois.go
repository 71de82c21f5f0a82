package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"ipscope/internal/domain/models"
	"ipscope/internal/providers"
	"ipscope/pkg/logger"
)

const (
	ipWhoisAPIURL = "https://ipwhois.app/json"
	ipWhoisSlug   = "ipwhois"
)

// IPWhoisProvider is the secondary geolocation source (ipwhois.app). It only
// fills fields the primary geo provider left empty.
type IPWhoisProvider struct {
	*providers.BaseProvider
	client *http.Client
	logger *logger.Logger
}

// NewIPWhoisProvider creates a new ipwhois.app provider
func NewIPWhoisProvider(log *logger.Logger) *IPWhoisProvider {
	return &IPWhoisProvider{
		BaseProvider: providers.NewBaseProvider(
			ipWhoisSlug,
			"IPWhois",
			models.ProviderCategoryGeo,
		),
		client: &http.Client{
			Timeout: providers.DefaultConfig().Timeout,
		},
		logger: log.WithComponent("ipwhois"),
	}
}

// Configure configures the provider with the given config
func (p *IPWhoisProvider) Configure(cfg providers.Config) error {
	if err := p.BaseProvider.Configure(cfg); err != nil {
		return err
	}
	p.client.Timeout = p.Timeout()
	return nil
}

type ipWhoisResponse struct {
	Success     bool    `json:"success"`
	Message     string  `json:"message"`
	Country     string  `json:"country"`
	CountryCode string  `json:"country_code"`
	Region      string  `json:"region"`
	City        string  `json:"city"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	Timezone    string  `json:"timezone"`
	ASN         string  `json:"asn"`
	Org         string  `json:"org"`
	ISP         string  `json:"isp"`
}

// Lookup fetches the ipwhois.app view of the given IP
func (p *IPWhoisProvider) Lookup(ctx context.Context, ip string) (*models.ProviderReport, error) {
	start := time.Now()

	baseURL := p.Config().APIURL
	if baseURL == "" {
		baseURL = ipWhoisAPIURL
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/%s", baseURL, ip), nil)
	if err != nil {
		return nil, err
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("ipwhois returned status %d: %s", resp.StatusCode, string(body))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var apiResp ipWhoisResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	if !apiResp.Success {
		return nil, fmt.Errorf("ipwhois lookup failed: %s", apiResp.Message)
	}

	signal := models.NormalizedSignal{}
	setStr(&signal.Organization, apiResp.Org)
	setStr(&signal.ISP, apiResp.ISP)
	setStr(&signal.ASN, apiResp.ASN)
	setStr(&signal.Country, apiResp.Country)
	setStr(&signal.CountryCode, apiResp.CountryCode)
	setStr(&signal.City, apiResp.City)
	setStr(&signal.Region, apiResp.Region)
	setStr(&signal.Timezone, apiResp.Timezone)

	if apiResp.Latitude != 0 || apiResp.Longitude != 0 {
		lat, lon := apiResp.Latitude, apiResp.Longitude
		signal.Latitude = &lat
		signal.Longitude = &lon
	}

	p.logger.Debug().
		Str("ip", ip).
		Str("country", apiResp.CountryCode).
		Dur("duration", time.Since(start)).
		Msg("ipwhois lookup completed")

	return &models.ProviderReport{
		ProviderSlug: p.Slug(),
		ProviderName: p.Name(),
		Category:     p.Category(),
		Signal:       signal,
		FetchedAt:    start,
		Duration:     time.Since(start),
	}, nil
}
