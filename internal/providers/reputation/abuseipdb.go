package reputation

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
	abuseIPDBAPIURL = "https://api.abuseipdb.com/api/v2/check"
	abuseIPDBSlug   = "abuseipdb"
)

// AbuseIPDBProvider fetches abuse reputation for a single IP from AbuseIPDB.
// Requires an API key; without one every lookup fails and the analysis
// proceeds on the remaining providers.
type AbuseIPDBProvider struct {
	*providers.BaseProvider
	client *http.Client
	logger *logger.Logger
	apiKey string
}

// NewAbuseIPDBProvider creates a new AbuseIPDB provider
func NewAbuseIPDBProvider(log *logger.Logger) *AbuseIPDBProvider {
	return &AbuseIPDBProvider{
		BaseProvider: providers.NewBaseProvider(
			abuseIPDBSlug,
			"AbuseIPDB",
			models.ProviderCategoryReputation,
		),
		client: &http.Client{
			Timeout: providers.DefaultConfig().Timeout,
		},
		logger: log.WithComponent("abuseipdb"),
	}
}

// Configure configures the provider with the given config
func (p *AbuseIPDBProvider) Configure(cfg providers.Config) error {
	if err := p.BaseProvider.Configure(cfg); err != nil {
		return err
	}
	p.apiKey = cfg.APIKey
	p.client.Timeout = p.Timeout()
	return nil
}

// abuseIPDBResponse represents the /check API response
type abuseIPDBResponse struct {
	Data abuseIPDBData `json:"data"`
}

type abuseIPDBData struct {
	IPAddress            string `json:"ipAddress"`
	AbuseConfidenceScore int    `json:"abuseConfidenceScore"`
	CountryCode          string `json:"countryCode"`
	UsageType            string `json:"usageType"`
	ISP                  string `json:"isp"`
	Domain               string `json:"domain"`
	IsTor                bool   `json:"isTor"`
	TotalReports         int    `json:"totalReports"`
	LastReportedAt       string `json:"lastReportedAt"`
}

// Lookup fetches the AbuseIPDB reputation for the given IP
func (p *AbuseIPDBProvider) Lookup(ctx context.Context, ip string) (*models.ProviderReport, error) {
	start := time.Now()

	if p.apiKey == "" {
		return nil, fmt.Errorf("AbuseIPDB API key not configured")
	}

	baseURL := p.Config().APIURL
	if baseURL == "" {
		baseURL = abuseIPDBAPIURL
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL, nil)
	if err != nil {
		return nil, err
	}

	req.Header.Set("Key", p.apiKey)
	req.Header.Set("Accept", "application/json")

	q := req.URL.Query()
	q.Set("ipAddress", ip)
	q.Set("maxAgeInDays", "90")
	req.URL.RawQuery = q.Encode()

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("AbuseIPDB returned status %d: %s", resp.StatusCode, string(body))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var apiResp abuseIPDBResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	data := apiResp.Data

	signal := models.NormalizedSignal{}
	if data.ISP != "" {
		isp := data.ISP
		signal.ISP = &isp
	}
	if data.CountryCode != "" {
		cc := data.CountryCode
		signal.CountryCode = &cc
	}
	if data.UsageType != "" {
		ut := data.UsageType
		signal.UsageType = &ut
	}

	abuse := data.AbuseConfidenceScore
	reports := data.TotalReports
	tor := data.IsTor
	signal.AbuseScore = &abuse
	signal.ReportCount = &reports
	signal.TorFlag = &tor

	p.logger.Debug().
		Str("ip", ip).
		Int("abuse_score", data.AbuseConfidenceScore).
		Int("reports", data.TotalReports).
		Bool("tor", data.IsTor).
		Dur("duration", time.Since(start)).
		Msg("AbuseIPDB lookup completed")

	return &models.ProviderReport{
		ProviderSlug: p.Slug(),
		ProviderName: p.Name(),
		Category:     p.Category(),
		Signal:       signal,
		FetchedAt:    start,
		Duration:     time.Since(start),
	}, nil
}
