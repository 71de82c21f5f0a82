package whois

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
	rdapAPIURL = "https://rdap.org/ip"
	rdapSlug   = "rdap"
)

// RDAPProvider fetches registration metadata through the RDAP bootstrap
// service. The record is stored alongside the analysis for display; it never
// feeds the classifier.
type RDAPProvider struct {
	*providers.BaseProvider
	client *http.Client
	logger *logger.Logger
}

// NewRDAPProvider creates a new RDAP whois provider
func NewRDAPProvider(log *logger.Logger) *RDAPProvider {
	return &RDAPProvider{
		BaseProvider: providers.NewBaseProvider(
			rdapSlug,
			"RDAP",
			models.ProviderCategoryWhois,
		),
		client: &http.Client{
			Timeout: providers.DefaultConfig().Timeout,
		},
		logger: log.WithComponent("rdap"),
	}
}

// Configure configures the provider with the given config
func (p *RDAPProvider) Configure(cfg providers.Config) error {
	if err := p.BaseProvider.Configure(cfg); err != nil {
		return err
	}
	p.client.Timeout = p.Timeout()
	return nil
}

type rdapResponse struct {
	Name         string `json:"name"`
	Country      string `json:"country"`
	StartAddress string `json:"startAddress"`
	EndAddress   string `json:"endAddress"`
	Entities     []struct {
		Roles      []string `json:"roles"`
		VCardArray []any    `json:"vcardArray"`
	} `json:"entities"`
	Events []struct {
		EventAction string `json:"eventAction"`
		EventDate   string `json:"eventDate"`
	} `json:"events"`
}

// Lookup fetches the RDAP registration record for the given IP
func (p *RDAPProvider) Lookup(ctx context.Context, ip string) (*models.ProviderReport, error) {
	start := time.Now()

	baseURL := p.Config().APIURL
	if baseURL == "" {
		baseURL = rdapAPIURL
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/%s", baseURL, ip), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/rdap+json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("rdap returned status %d: %s", resp.StatusCode, string(body))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var apiResp rdapResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	whois := &models.WhoisRecord{
		Organization: apiResp.Name,
		Country:      apiResp.Country,
	}
	if apiResp.StartAddress != "" && apiResp.EndAddress != "" {
		whois.NetRange = fmt.Sprintf("%s - %s", apiResp.StartAddress, apiResp.EndAddress)
	}
	for _, entity := range apiResp.Entities {
		for _, role := range entity.Roles {
			if role == "registrant" || role == "registrar" {
				if name := vcardName(entity.VCardArray); name != "" {
					whois.Registrar = name
				}
			}
		}
	}
	for _, event := range apiResp.Events {
		t, err := time.Parse(time.RFC3339, event.EventDate)
		if err != nil {
			continue
		}
		switch event.EventAction {
		case "registration":
			whois.CreatedAt = &t
		case "last changed":
			whois.UpdatedAt = &t
		}
	}

	p.logger.Debug().
		Str("ip", ip).
		Str("org", whois.Organization).
		Dur("duration", time.Since(start)).
		Msg("rdap lookup completed")

	return &models.ProviderReport{
		ProviderSlug: p.Slug(),
		ProviderName: p.Name(),
		Category:     p.Category(),
		Whois:        whois,
		FetchedAt:    start,
		Duration:     time.Since(start),
	}, nil
}

// vcardName digs the "fn" value out of a jCard structure. jCards are lists
// of [name, params, type, value] tuples under a top-level ["vcard", [...]].
func vcardName(vcard []any) string {
	if len(vcard) < 2 {
		return ""
	}
	props, ok := vcard[1].([]any)
	if !ok {
		return ""
	}
	for _, raw := range props {
		prop, ok := raw.([]any)
		if !ok || len(prop) < 4 {
			continue
		}
		if name, _ := prop[0].(string); name != "fn" {
			continue
		}
		if value, ok := prop[3].(string); ok {
			return value
		}
	}
	return ""
}
