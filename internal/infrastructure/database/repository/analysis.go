package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"ipscope/internal/domain/models"
)

// AnalysisRepository handles analysis persistence
type AnalysisRepository struct {
	pool *pgxpool.Pool
}

// NewAnalysisRepository creates a new analysis repository
func NewAnalysisRepository(pool *pgxpool.Pool) *AnalysisRepository {
	return &AnalysisRepository{pool: pool}
}

// Create inserts a new analysis together with its optional whois record
func (r *AnalysisRepository) Create(ctx context.Context, a *models.Analysis, whois *models.WhoisRecord) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	if a.AnalyzedAt.IsZero() {
		a.AnalyzedAt = time.Now().UTC()
	}

	signalJSON, err := json.Marshal(a.Signal)
	if err != nil {
		return fmt.Errorf("failed to marshal signal: %w", err)
	}

	var whoisJSON []byte
	if whois != nil {
		whoisJSON, err = json.Marshal(whois)
		if err != nil {
			return fmt.Errorf("failed to marshal whois: %w", err)
		}
	}

	query := `
		INSERT INTO analyses (
			id, ip_address, ip_version, signal,
			is_vpn, is_proxy, is_tor, is_datacenter, vpn_provider,
			risk_score, threat_level, sources, whois, analyzed_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14
		)`

	_, err = r.pool.Exec(ctx, query,
		a.ID, a.IPAddress, a.IPVersion, signalJSON,
		a.Detection.IsVPN, a.Detection.IsProxy, a.Detection.IsTor, a.Detection.IsDatacenter,
		a.Detection.VPNProvider,
		a.Detection.RiskScore, a.Detection.ThreatLevel, a.Sources, whoisJSON, a.AnalyzedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create analysis: %w", err)
	}

	return nil
}

// GetByID retrieves a single analysis by its ID. Returns nil when not found.
func (r *AnalysisRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Analysis, *models.WhoisRecord, error) {
	query := selectColumns + ` FROM analyses WHERE id = $1`
	return r.scanAnalysis(r.pool.QueryRow(ctx, query, id))
}

// GetLatestByIP retrieves the most recent analysis for an IP. Returns nil
// when the IP has never been analyzed.
func (r *AnalysisRepository) GetLatestByIP(ctx context.Context, ip string) (*models.Analysis, *models.WhoisRecord, error) {
	query := selectColumns + `
		FROM analyses
		WHERE ip_address = $1
		ORDER BY analyzed_at DESC
		LIMIT 1`
	return r.scanAnalysis(r.pool.QueryRow(ctx, query, ip))
}

// ListRecent retrieves analyses ordered newest first
func (r *AnalysisRepository) ListRecent(ctx context.Context, limit, offset int) ([]*models.Analysis, int64, error) {
	var total int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM analyses`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count analyses: %w", err)
	}

	query := selectColumns + `
		FROM analyses
		ORDER BY analyzed_at DESC
		LIMIT $1 OFFSET $2`

	rows, err := r.pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list analyses: %w", err)
	}
	defer rows.Close()

	analyses, err := r.collectRows(rows)
	if err != nil {
		return nil, 0, err
	}
	return analyses, total, nil
}

// ListByIP retrieves the analysis history of one IP, newest first
func (r *AnalysisRepository) ListByIP(ctx context.Context, ip string, limit int) ([]*models.Analysis, error) {
	query := selectColumns + `
		FROM analyses
		WHERE ip_address = $1
		ORDER BY analyzed_at DESC
		LIMIT $2`

	rows, err := r.pool.Query(ctx, query, ip, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list analyses for ip: %w", err)
	}
	defer rows.Close()

	return r.collectRows(rows)
}

// Delete removes an analysis. Returns false when no row matched.
func (r *AnalysisRepository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM analyses WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete analysis: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// GetStats returns aggregate analysis statistics
func (r *AnalysisRepository) GetStats(ctx context.Context) (*models.AnalysisStats, error) {
	stats := &models.AnalysisStats{}

	err := r.pool.QueryRow(ctx, `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE is_vpn),
			COUNT(*) FILTER (WHERE is_proxy),
			COUNT(*) FILTER (WHERE is_tor),
			COUNT(*) FILTER (WHERE is_datacenter),
			COUNT(*) FILTER (WHERE analyzed_at >= date_trunc('day', NOW()))
		FROM analyses
	`).Scan(&stats.TotalCount, &stats.VPNCount, &stats.ProxyCount, &stats.TorCount,
		&stats.DCCount, &stats.TodayCount)
	if err != nil {
		return nil, fmt.Errorf("failed to get analysis counts: %w", err)
	}

	rows, err := r.pool.Query(ctx, `
		SELECT threat_level, COUNT(*)
		FROM analyses
		GROUP BY threat_level
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to get threat level counts: %w", err)
	}
	defer rows.Close()

	stats.ByThreatLevel = make(map[string]int64)
	for rows.Next() {
		var level string
		var count int64
		if err := rows.Scan(&level, &count); err != nil {
			return nil, err
		}
		stats.ByThreatLevel[level] = count
	}

	return stats, nil
}

// Helper functions

const selectColumns = `
	SELECT id, ip_address, ip_version, signal,
		   is_vpn, is_proxy, is_tor, is_datacenter, vpn_provider,
		   risk_score, sources, whois, analyzed_at`

func (r *AnalysisRepository) scanAnalysis(row pgx.Row) (*models.Analysis, *models.WhoisRecord, error) {
	a := &models.Analysis{}
	var signalJSON, whoisJSON []byte

	err := row.Scan(
		&a.ID, &a.IPAddress, &a.IPVersion, &signalJSON,
		&a.Detection.IsVPN, &a.Detection.IsProxy, &a.Detection.IsTor, &a.Detection.IsDatacenter,
		&a.Detection.VPNProvider,
		&a.Detection.RiskScore, &a.Sources, &whoisJSON, &a.AnalyzedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil, nil
		}
		return nil, nil, fmt.Errorf("failed to scan analysis: %w", err)
	}

	return r.finishAnalysis(a, signalJSON, whoisJSON)
}

func (r *AnalysisRepository) collectRows(rows pgx.Rows) ([]*models.Analysis, error) {
	var analyses []*models.Analysis
	for rows.Next() {
		a := &models.Analysis{}
		var signalJSON, whoisJSON []byte

		err := rows.Scan(
			&a.ID, &a.IPAddress, &a.IPVersion, &signalJSON,
			&a.Detection.IsVPN, &a.Detection.IsProxy, &a.Detection.IsTor, &a.Detection.IsDatacenter,
			&a.Detection.VPNProvider,
			&a.Detection.RiskScore, &a.Sources, &whoisJSON, &a.AnalyzedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan analysis row: %w", err)
		}

		a, _, err = r.finishAnalysis(a, signalJSON, whoisJSON)
		if err != nil {
			return nil, err
		}
		analyses = append(analyses, a)
	}
	return analyses, nil
}

// finishAnalysis unpacks the jsonb columns and recomputes the threat level
// from the stored score, so a policy change takes effect on old rows too.
func (r *AnalysisRepository) finishAnalysis(a *models.Analysis, signalJSON, whoisJSON []byte) (*models.Analysis, *models.WhoisRecord, error) {
	if err := json.Unmarshal(signalJSON, &a.Signal); err != nil {
		return nil, nil, fmt.Errorf("failed to unmarshal signal: %w", err)
	}

	var whois *models.WhoisRecord
	if len(whoisJSON) > 0 {
		whois = &models.WhoisRecord{}
		if err := json.Unmarshal(whoisJSON, whois); err != nil {
			return nil, nil, fmt.Errorf("failed to unmarshal whois: %w", err)
		}
	}

	a.Detection.ThreatLevel = models.ThreatLevelForScore(a.Detection.RiskScore)
	return a, whois, nil
}
