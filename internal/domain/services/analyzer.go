package services

import (
	"context"
	"fmt"
	"net/netip"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"ipscope/internal/domain/models"
	"ipscope/internal/providers"
	"ipscope/pkg/logger"
)

// AnalysisCache is the analysis-entry cache the analyzer consults before
// fanning out to providers. Keys are exact IP strings.
type AnalysisCache interface {
	GetAnalysis(ctx context.Context, ip string) (*models.CachedAnalysis, bool, error)
	SetAnalysis(ctx context.Context, ip string, entry *models.CachedAnalysis, ttl time.Duration) error
	DeleteAnalysis(ctx context.Context, ip string) error
}

// AnalysisStore persists completed analyses. A nil store disables
// persistence; analysis still works from cache and live lookups.
type AnalysisStore interface {
	Create(ctx context.Context, a *models.Analysis, whois *models.WhoisRecord) error
}

// InvalidIPError reports input that is not a valid IPv4 or IPv6 address
type InvalidIPError struct {
	Input string
}

func (e *InvalidIPError) Error() string {
	return fmt.Sprintf("invalid IP address: %q", e.Input)
}

// AnalyzeResult is one completed analysis plus its display-only whois data
type AnalyzeResult struct {
	Analysis *models.Analysis    `json:"analysis"`
	Whois    *models.WhoisRecord `json:"whois,omitempty"`
	Cached   bool                `json:"cached"`
}

// Analyzer orchestrates one IP analysis end to end: cache check, concurrent
// provider fan-out, signal merge, classification, mock fallback, persistence.
type Analyzer struct {
	registry   *providers.Registry
	normalizer *Normalizer
	classifier *Classifier
	mock       *MockGenerator
	cache      AnalysisCache
	store      AnalysisStore
	cacheTTL   time.Duration
	logger     *logger.Logger

	now func() time.Time
}

// NewAnalyzer creates an analyzer. store may be nil when the database is
// unavailable.
func NewAnalyzer(
	registry *providers.Registry,
	normalizer *Normalizer,
	classifier *Classifier,
	mock *MockGenerator,
	cache AnalysisCache,
	store AnalysisStore,
	cacheTTL time.Duration,
	log *logger.Logger,
) *Analyzer {
	if cacheTTL <= 0 {
		cacheTTL = 5 * time.Minute
	}
	return &Analyzer{
		registry:   registry,
		normalizer: normalizer,
		classifier: classifier,
		mock:       mock,
		cache:      cache,
		store:      store,
		cacheTTL:   cacheTTL,
		logger:     log.WithComponent("analyzer"),
		now:        time.Now,
	}
}

// Analyze runs a full analysis for the given IP. A fresh cache entry short-
// circuits everything and is returned as-is, including its original ID and
// timestamp.
func (a *Analyzer) Analyze(ctx context.Context, rawIP string) (*AnalyzeResult, error) {
	ip := strings.TrimSpace(rawIP)
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return nil, &InvalidIPError{Input: rawIP}
	}

	log := a.logger.WithIP(ip)

	if entry, ok := a.lookupCache(ctx, ip); ok {
		log.Debug().Msg("cache hit")
		return &AnalyzeResult{Analysis: entry.Analysis, Whois: entry.Whois, Cached: true}, nil
	}

	reports := a.fanOut(ctx, ip)

	signal, contributors := a.normalizer.Merge(reports...)
	whois := firstWhois(reports)
	for _, rep := range reports {
		if rep != nil && rep.Whois != nil {
			contributors = appendUnique(contributors, rep.ProviderSlug)
		}
	}

	var analysis *models.Analysis
	if signal.Empty() {
		log.Warn().Msg("no provider data available, falling back to synthetic analysis")
		analysis = a.mock.Generate(ip)
		// A whois-only success still counts as a source: the record is
		// synthetic but the attached registration data is real.
		analysis.Sources = append(analysis.Sources, contributors...)
	} else {
		analysis = &models.Analysis{
			ID:        uuid.New(),
			IPAddress: ip,
			Signal:    signal,
			Detection: a.classifier.Classify(signal, ip),
			Sources:   contributors,
		}
	}

	analysis.IPVersion = 4
	if addr.Is6() && !addr.Is4In6() {
		analysis.IPVersion = 6
	}
	analysis.AnalyzedAt = a.now().UTC()

	log.Info().
		Int("risk_score", analysis.Detection.RiskScore).
		Str("threat_level", string(analysis.Detection.ThreatLevel)).
		Strs("sources", analysis.Sources).
		Msg("analysis complete")

	a.persist(ctx, analysis, whois)
	a.writeCache(ctx, ip, analysis, whois)

	return &AnalyzeResult{Analysis: analysis, Whois: whois, Cached: false}, nil
}

// Invalidate drops the cache entry for an IP, forcing the next analysis to
// hit the providers again.
func (a *Analyzer) Invalidate(ctx context.Context, ip string) {
	if a.cache == nil {
		return
	}
	if err := a.cache.DeleteAnalysis(ctx, ip); err != nil {
		a.logger.Warn().Err(err).Str("ip", ip).Msg("failed to invalidate cache entry")
	}
}

func (a *Analyzer) lookupCache(ctx context.Context, ip string) (*models.CachedAnalysis, bool) {
	if a.cache == nil {
		return nil, false
	}
	entry, ok, err := a.cache.GetAnalysis(ctx, ip)
	if err != nil {
		a.logger.Warn().Err(err).Str("ip", ip).Msg("cache lookup failed")
		return nil, false
	}
	if !ok || entry == nil || entry.Analysis == nil {
		return nil, false
	}
	return entry, true
}

// fanOut queries every enabled provider concurrently and waits for all of
// them to settle. The result slice preserves registry order, which is also
// the merge precedence order. Failed lookups leave a nil slot.
func (a *Analyzer) fanOut(ctx context.Context, ip string) []*models.ProviderReport {
	enabled := a.registry.ListEnabled()
	reports := make([]*models.ProviderReport, len(enabled))

	var wg sync.WaitGroup
	for i, p := range enabled {
		wg.Add(1)
		go func(i int, p providers.Provider) {
			defer wg.Done()

			callCtx, cancel := context.WithTimeout(ctx, p.Timeout())
			defer cancel()

			start := time.Now()
			report, err := p.Lookup(callCtx, ip)
			if err != nil {
				a.logger.Warn().Err(err).
					Str("provider", p.Slug()).
					Str("ip", ip).
					Dur("duration", time.Since(start)).
					Msg("provider lookup failed")
				return
			}
			reports[i] = report
		}(i, p)
	}
	wg.Wait()

	return reports
}

func (a *Analyzer) persist(ctx context.Context, analysis *models.Analysis, whois *models.WhoisRecord) {
	if a.store == nil {
		return
	}
	if err := a.store.Create(ctx, analysis, whois); err != nil {
		a.logger.Error().Err(err).Str("ip", analysis.IPAddress).Msg("failed to persist analysis")
	}
}

func (a *Analyzer) writeCache(ctx context.Context, ip string, analysis *models.Analysis, whois *models.WhoisRecord) {
	if a.cache == nil {
		return
	}
	entry := &models.CachedAnalysis{
		Analysis: analysis,
		Whois:    whois,
		StoredAt: a.now().UTC(),
	}
	if err := a.cache.SetAnalysis(ctx, ip, entry, a.cacheTTL); err != nil {
		a.logger.Warn().Err(err).Str("ip", ip).Msg("failed to cache analysis")
	}
}

func firstWhois(reports []*models.ProviderReport) *models.WhoisRecord {
	for _, rep := range reports {
		if rep != nil && rep.Whois != nil {
			return rep.Whois
		}
	}
	return nil
}

func appendUnique(list []string, s string) []string {
	for _, v := range list {
		if v == s {
			return list
		}
	}
	return append(list, s)
}
