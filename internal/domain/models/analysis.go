package models

import (
	"time"

	"github.com/google/uuid"
)

// ThreatLevel is a four-tier severity label derived solely from the risk score
type ThreatLevel string

const (
	ThreatLevelLow      ThreatLevel = "low"
	ThreatLevelMedium   ThreatLevel = "medium"
	ThreatLevelHigh     ThreatLevel = "high"
	ThreatLevelCritical ThreatLevel = "critical"
)

// ThreatLevelForScore maps a risk score to its threat level. The level is
// always recomputable from the score; stored pairs are never trusted on read.
func ThreatLevelForScore(score int) ThreatLevel {
	switch {
	case score >= 75:
		return ThreatLevelCritical
	case score >= 50:
		return ThreatLevelHigh
	case score >= 25:
		return ThreatLevelMedium
	default:
		return ThreatLevelLow
	}
}

// NormalizedSignal is the provider-agnostic intermediate representation of
// geolocation and reputation data for one IP. Optional fields are pointers;
// "Unknown"/"XX" are the display sentinels for absent geo strings. Location
// is nil when no provider supplied coordinates (never a 0,0 sentinel).
type NormalizedSignal struct {
	Organization *string `json:"organization,omitempty"`
	ISP          *string `json:"isp,omitempty"`
	ASN          *string `json:"asn,omitempty"`

	Country     *string  `json:"country,omitempty"`
	CountryCode *string  `json:"country_code,omitempty"`
	City        *string  `json:"city,omitempty"`
	Region      *string  `json:"region,omitempty"`
	Timezone    *string  `json:"timezone,omitempty"`
	Latitude    *float64 `json:"latitude,omitempty"`
	Longitude   *float64 `json:"longitude,omitempty"`

	ProxyFlag   *bool `json:"proxy_flag,omitempty"`
	VPNFlag     *bool `json:"vpn_flag,omitempty"`
	HostingFlag *bool `json:"hosting_flag,omitempty"`
	TorFlag     *bool `json:"tor_flag,omitempty"`

	AbuseScore  *int    `json:"abuse_score,omitempty"` // 0-100
	ReportCount *int    `json:"report_count,omitempty"`
	UsageType   *string `json:"usage_type,omitempty"`
}

// Org returns the organization string or "" when absent.
func (s NormalizedSignal) Org() string {
	if s.Organization == nil {
		return ""
	}
	return *s.Organization
}

// ISPName returns the ISP string or "" when absent.
func (s NormalizedSignal) ISPName() string {
	if s.ISP == nil {
		return ""
	}
	return *s.ISP
}

// Empty reports whether no provider populated any signal field.
func (s NormalizedSignal) Empty() bool {
	return s.Organization == nil && s.ISP == nil && s.ASN == nil &&
		s.Country == nil && s.CountryCode == nil && s.City == nil &&
		s.Region == nil && s.Timezone == nil &&
		s.Latitude == nil && s.Longitude == nil &&
		s.ProxyFlag == nil && s.VPNFlag == nil && s.HostingFlag == nil &&
		s.TorFlag == nil && s.AbuseScore == nil && s.ReportCount == nil &&
		s.UsageType == nil
}

// Detection is the classification engine's output for one analysis
type Detection struct {
	IsVPN        bool        `json:"is_vpn" db:"is_vpn"`
	IsProxy      bool        `json:"is_proxy" db:"is_proxy"`
	IsTor        bool        `json:"is_tor" db:"is_tor"`
	IsDatacenter bool        `json:"is_datacenter" db:"is_datacenter"`
	VPNProvider  *string     `json:"vpn_provider" db:"vpn_provider"`
	RiskScore    int         `json:"risk_score" db:"risk_score"`
	ThreatLevel  ThreatLevel `json:"threat_level" db:"threat_level"`
}

// Analysis is the persisted result of one IP analysis. Records are immutable
// after creation and removed only by explicit user action.
type Analysis struct {
	ID        uuid.UUID `json:"id" db:"id"`
	IPAddress string    `json:"ip_address" db:"ip_address"`
	IPVersion int       `json:"ip_version" db:"ip_version"`

	Signal    NormalizedSignal `json:"signal" db:"-"`
	Detection Detection        `json:"detection" db:"-"`

	// Slugs of the providers that contributed, or ["mock"] for synthetic data
	Sources []string `json:"sources" db:"sources"`

	AnalyzedAt time.Time `json:"analyzed_at" db:"analyzed_at"`
}

// WhoisRecord is registration metadata stored alongside an analysis. It is
// display data only and never feeds the classifier.
type WhoisRecord struct {
	Registrar    string     `json:"registrar,omitempty"`
	Organization string     `json:"organization,omitempty"`
	Country      string     `json:"country,omitempty"`
	NetRange     string     `json:"net_range,omitempty"`
	CreatedAt    *time.Time `json:"created_at,omitempty"`
	UpdatedAt    *time.Time `json:"updated_at,omitempty"`
}

// CachedAnalysis is one analysis cache entry, keyed by the exact IP string
type CachedAnalysis struct {
	Analysis *Analysis    `json:"analysis"`
	Whois    *WhoisRecord `json:"whois,omitempty"`
	StoredAt time.Time    `json:"stored_at"`
}

// AnalysisStats holds aggregate dashboard statistics
type AnalysisStats struct {
	TotalCount    int64            `json:"total_count"`
	ByThreatLevel map[string]int64 `json:"by_threat_level"`
	VPNCount      int64            `json:"vpn_count"`
	ProxyCount    int64            `json:"proxy_count"`
	TorCount      int64            `json:"tor_count"`
	DCCount       int64            `json:"datacenter_count"`
	TodayCount    int64            `json:"today_count"`
}
