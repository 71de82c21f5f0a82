package proxy

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
	vpnAPIURL  = "https://vpnapi.io/api"
	vpnAPISlug = "vpnapi"
)

// VPNAPIProvider fetches explicit VPN/proxy/Tor flags from vpnapi.io.
// Requires an API key.
type VPNAPIProvider struct {
	*providers.BaseProvider
	client *http.Client
	logger *logger.Logger
	apiKey string
}

// NewVPNAPIProvider creates a new vpnapi.io provider
func NewVPNAPIProvider(log *logger.Logger) *VPNAPIProvider {
	return &VPNAPIProvider{
		BaseProvider: providers.NewBaseProvider(
			vpnAPISlug,
			"VPNAPI",
			models.ProviderCategoryProxy,
		),
		client: &http.Client{
			Timeout: providers.DefaultConfig().Timeout,
		},
		logger: log.WithComponent("vpnapi"),
	}
}

// Configure configures the provider with the given config
func (p *VPNAPIProvider) Configure(cfg providers.Config) error {
	if err := p.BaseProvider.Configure(cfg); err != nil {
		return err
	}
	p.apiKey = cfg.APIKey
	p.client.Timeout = p.Timeout()
	return nil
}

type vpnAPIResponse struct {
	Message  string `json:"message"`
	Security struct {
		VPN   bool `json:"vpn"`
		Proxy bool `json:"proxy"`
		Tor   bool `json:"tor"`
		Relay bool `json:"relay"`
	} `json:"security"`
	Network struct {
		AutonomousSystemNumber       string `json:"autonomous_system_number"`
		AutonomousSystemOrganization string `json:"autonomous_system_organization"`
	} `json:"network"`
}

// Lookup fetches the vpnapi.io security flags for the given IP
func (p *VPNAPIProvider) Lookup(ctx context.Context, ip string) (*models.ProviderReport, error) {
	start := time.Now()

	if p.apiKey == "" {
		return nil, fmt.Errorf("vpnapi.io API key not configured")
	}

	baseURL := p.Config().APIURL
	if baseURL == "" {
		baseURL = vpnAPIURL
	}

	url := fmt.Sprintf("%s/%s?key=%s", baseURL, ip, p.apiKey)
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
		return nil, fmt.Errorf("vpnapi.io returned status %d: %s", resp.StatusCode, string(body))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var apiResp vpnAPIResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	vpn := apiResp.Security.VPN
	proxy := apiResp.Security.Proxy || apiResp.Security.Relay
	tor := apiResp.Security.Tor

	signal := models.NormalizedSignal{
		VPNFlag:   &vpn,
		ProxyFlag: &proxy,
		TorFlag:   &tor,
	}
	if org := apiResp.Network.AutonomousSystemOrganization; org != "" {
		signal.Organization = &org
	}
	if asn := apiResp.Network.AutonomousSystemNumber; asn != "" {
		signal.ASN = &asn
	}

	p.logger.Debug().
		Str("ip", ip).
		Bool("vpn", vpn).
		Bool("proxy", proxy).
		Bool("tor", tor).
		Dur("duration", time.Since(start)).
		Msg("vpnapi.io lookup completed")

	return &models.ProviderReport{
		ProviderSlug: p.Slug(),
		ProviderName: p.Name(),
		Category:     p.Category(),
		Signal:       signal,
		FetchedAt:    start,
		Duration:     time.Since(start),
	}, nil
}
