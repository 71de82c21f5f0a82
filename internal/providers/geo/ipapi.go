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
	ipAPIURL  = "http://ip-api.com/json"
	ipAPISlug = "ipapi"

	// Field mask: geo + network identity + proxy/hosting flags
	ipAPIFields = "status,message,country,countryCode,region,regionName,city,lat,lon,timezone,isp,org,as,proxy,hosting"
)

// IPAPIProvider fetches geolocation and network identity from ip-api.com.
// It is the highest-priority provider: its fields win over later providers.
type IPAPIProvider struct {
	*providers.BaseProvider
	client *http.Client
	logger *logger.Logger
}

// NewIPAPIProvider creates a new ip-api.com provider
func NewIPAPIProvider(log *logger.Logger) *IPAPIProvider {
	return &IPAPIProvider{
		BaseProvider: providers.NewBaseProvider(
			ipAPISlug,
			"IP-API",
			models.ProviderCategoryGeo,
		),
		client: &http.Client{
			Timeout: providers.DefaultConfig().Timeout,
		},
		logger: log.WithComponent("ipapi"),
	}
}

// Configure configures the provider with the given config
func (p *IPAPIProvider) Configure(cfg providers.Config) error {
	if err := p.BaseProvider.Configure(cfg); err != nil {
		return err
	}
	p.client.Timeout = p.Timeout()
	return nil
}

// ipAPIResponse represents the API response
type ipAPIResponse struct {
	Status      string  `json:"status"`
	Message     string  `json:"message"`
	Country     string  `json:"country"`
	CountryCode string  `json:"countryCode"`
	Region      string  `json:"region"`
	RegionName  string  `json:"regionName"`
	City        string  `json:"city"`
	Lat         float64 `json:"lat"`
	Lon         float64 `json:"lon"`
	Timezone    string  `json:"timezone"`
	ISP         string  `json:"isp"`
	Org         string  `json:"org"`
	AS          string  `json:"as"`
	Proxy       bool    `json:"proxy"`
	Hosting     bool    `json:"hosting"`
}

// Lookup fetches the ip-api.com view of the given IP
func (p *IPAPIProvider) Lookup(ctx context.Context, ip string) (*models.ProviderReport, error) {
	start := time.Now()

	baseURL := p.Config().APIURL
	if baseURL == "" {
		baseURL = ipAPIURL
	}

	url := fmt.Sprintf("%s/%s?fields=%s", baseURL, ip, ipAPIFields)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
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
		return nil, fmt.Errorf("ip-api returned status %d: %s", resp.StatusCode, string(body))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var apiResp ipAPIResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	if apiResp.Status != "success" {
		return nil, fmt.Errorf("ip-api lookup failed: %s", apiResp.Message)
	}

	signal := models.NormalizedSignal{}
	setStr(&signal.Organization, apiResp.Org)
	setStr(&signal.ISP, apiResp.ISP)
	setStr(&signal.ASN, apiResp.AS)
	setStr(&signal.Country, apiResp.Country)
	setStr(&signal.CountryCode, apiResp.CountryCode)
	setStr(&signal.City, apiResp.City)
	setStr(&signal.Region, apiResp.RegionName)
	setStr(&signal.Timezone, apiResp.Timezone)

	// ip-api reports 0,0 when it has no fix; treat that as location unknown
	if apiResp.Lat != 0 || apiResp.Lon != 0 {
		lat, lon := apiResp.Lat, apiResp.Lon
		signal.Latitude = &lat
		signal.Longitude = &lon
	}

	proxy, hosting := apiResp.Proxy, apiResp.Hosting
	signal.ProxyFlag = &proxy
	signal.HostingFlag = &hosting

	p.logger.Debug().
		Str("ip", ip).
		Str("country", apiResp.CountryCode).
		Bool("proxy", apiResp.Proxy).
		Bool("hosting", apiResp.Hosting).
		Dur("duration", time.Since(start)).
		Msg("ip-api lookup completed")

	return &models.ProviderReport{
		ProviderSlug: p.Slug(),
		ProviderName: p.Name(),
		Category:     p.Category(),
		Signal:       signal,
		FetchedAt:    start,
		Duration:     time.Since(start),
	}, nil
}

// setStr assigns a pointer only for non-empty values
func setStr(dst **string, v string) {
	if v == "" {
		return
	}
	*dst = &v
}
