package services

import (
	"math"
	"strings"

	"ipscope/internal/config"
	"ipscope/internal/domain/models"
)

// Risk score policy. The score is composed with floor/max operations rather
// than additive stacking: several weak signals cannot saturate the score, but
// any single strong signal dominates. Constants chosen from the acceptable
// bands and fixed here as this implementation's policy.
const (
	riskFloorVPN        = 70
	riskFloorProxy      = 65
	riskScoreTor        = 95
	riskFloorDatacenter = 35
	abuseScoreWeight    = 0.9
	reportBoost         = 15
	reportBoostMin      = 3 // boost applies when report count exceeds this
)

// Classifier reduces a normalized signal set to boolean detections, a risk
// score and a threat level. Classify is a pure function: no I/O, no
// randomness, safe for concurrent use.
type Classifier struct {
	vpnProviders     []string
	vpnHostingList   []string
	hostingProviders []string
}

// NewClassifier creates a Classifier. Non-empty list overrides in cfg replace
// the built-in name lists.
func NewClassifier(cfg config.ScoringConfig) *Classifier {
	c := &Classifier{
		vpnProviders:     defaultVPNProviders,
		vpnHostingList:   defaultVPNHostingProviders,
		hostingProviders: defaultHostingProviders,
	}
	if len(cfg.VPNProviders) > 0 {
		c.vpnProviders = cfg.VPNProviders
	}
	if len(cfg.HostingProviders) > 0 {
		c.hostingProviders = cfg.HostingProviders
	}
	return c
}

// Classify computes the detection set for one normalized signal.
func (c *Classifier) Classify(signal models.NormalizedSignal, ip string) models.Detection {
	org := signal.Org()
	isp := signal.ISPName()

	var det models.Detection

	// VPN: brand list first, then VPN-heavy hosting list, then explicit
	// vendor flag, then the literal substring.
	if match := firstMatch(c.vpnProviders, org, isp); match != "" {
		det.IsVPN = true
		det.VPNProvider = &match
	} else if match := firstMatch(c.vpnHostingList, org, isp); match != "" {
		det.IsVPN = true
		det.VPNProvider = &match
	} else if boolVal(signal.VPNFlag) || containsAny("vpn", org, isp) {
		det.IsVPN = true
	}

	// Proxy: explicit flag, name substring, or datacenter usage type with
	// abuse reports on record.
	if boolVal(signal.ProxyFlag) || containsAny("proxy", org, isp) {
		det.IsProxy = true
	} else if usageType(signal) == "Data Center" && intVal(signal.ReportCount) > 0 {
		det.IsProxy = true
	}

	// Tor: explicit provider flag only, no heuristic fallback.
	det.IsTor = boolVal(signal.TorFlag)

	// Datacenter: hosting list, explicit flag, or name substrings.
	if firstMatch(c.hostingProviders, org, isp) != "" ||
		boolVal(signal.HostingFlag) ||
		containsAny("datacenter", org, isp) ||
		containsAny("hosting", org, isp) {
		det.IsDatacenter = true
	}

	det.RiskScore = c.riskScore(det, signal)
	det.ThreatLevel = models.ThreatLevelForScore(det.RiskScore)

	return det
}

// riskScore applies the floor/max composition in rule order.
func (c *Classifier) riskScore(det models.Detection, signal models.NormalizedSignal) int {
	base := 0

	if det.IsVPN {
		base = maxInt(base, riskFloorVPN)
	}
	if det.IsProxy {
		base = maxInt(base, riskFloorProxy)
	}
	if det.IsTor {
		base = riskScoreTor
	}
	if det.IsDatacenter && !det.IsVPN && !det.IsProxy {
		base = maxInt(base, riskFloorDatacenter)
	}
	if signal.AbuseScore != nil {
		base = maxInt(base, int(math.Round(float64(*signal.AbuseScore)*abuseScoreWeight)))
	}
	if intVal(signal.ReportCount) > reportBoostMin {
		base += reportBoost
	}

	return clampScore(base)
}

// firstMatch returns the first list entry contained (case-insensitively) in
// any of the candidate strings, or "".
func firstMatch(list []string, candidates ...string) string {
	for _, entry := range list {
		entryLower := strings.ToLower(entry)
		for _, cand := range candidates {
			if cand == "" {
				continue
			}
			if strings.Contains(strings.ToLower(cand), entryLower) {
				return entry
			}
		}
	}
	return ""
}

// containsAny reports whether needle occurs in any candidate, case-insensitively.
func containsAny(needle string, candidates ...string) bool {
	for _, cand := range candidates {
		if cand == "" {
			continue
		}
		if strings.Contains(strings.ToLower(cand), needle) {
			return true
		}
	}
	return false
}

func usageType(signal models.NormalizedSignal) string {
	if signal.UsageType == nil {
		return ""
	}
	return *signal.UsageType
}

func boolVal(b *bool) bool {
	return b != nil && *b
}

func intVal(i *int) int {
	if i == nil {
		return 0
	}
	return *i
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func clampScore(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
