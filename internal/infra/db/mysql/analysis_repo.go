package mysql

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	domain "github.com/oakmontvc/dealdesk/internal/domain/analyses"
)

type AnalysisRepository struct {
	db *sql.DB
}

func NewAnalysisRepository(db *sql.DB) *AnalysisRepository {
	return &AnalysisRepository{db: db}
}

const analysisCols = `id, tenant_id, document_id, investment_id, extracted_metrics,
       health_score, health_status, risk_level, assessment,
       strengths, concerns, opportunities, recommendations,
       investment_value, next_action, confidence_score, created_at`

// insertAnalysis is shared with the transactional committer; analyses are
// append-only so this is a plain insert.
func insertAnalysis(ctx context.Context, db execer, a *domain.Analysis) error {
	const q = `
INSERT INTO analyses
  (id, tenant_id, document_id, investment_id, extracted_metrics,
   health_score, health_status, risk_level, assessment,
   strengths, concerns, opportunities, recommendations,
   investment_value, next_action, confidence_score, created_at)
VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?);
`
	tenant := stringOrDash(a.TenantID)
	metrics, err := json.Marshal(a.Metrics)
	if err != nil {
		return err
	}
	createdAt := a.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	_, err = db.ExecContext(ctx, q,
		a.ID, tenant, a.DocumentID, nullString(a.InvestmentID), string(metrics),
		nullFloat(a.HealthScore), a.HealthStatus, a.RiskLevel, a.Assessment,
		jsonList(a.Strengths), jsonList(a.Concerns), jsonList(a.Opportunities), jsonList(a.Recommendations),
		nullFloat(a.InvestmentValue), a.NextAction, nullFloat(a.ConfidenceScore), createdAt)
	return err
}

func scanAnalysis(scan func(dest ...any) error) (*domain.Analysis, error) {
	var a domain.Analysis
	var invID sql.NullString
	var metrics, strengths, concerns, opportunities, recommendations string
	var score, value, confidence sql.NullFloat64
	if err := scan(
		&a.ID, &a.TenantID, &a.DocumentID, &invID, &metrics,
		&score, &a.HealthStatus, &a.RiskLevel, &a.Assessment,
		&strengths, &concerns, &opportunities, &recommendations,
		&value, &a.NextAction, &confidence, &a.CreatedAt,
	); err != nil {
		return nil, err
	}
	a.InvestmentID = invID.String
	if err := json.Unmarshal([]byte(metrics), &a.Metrics); err != nil {
		a.Metrics = domain.Metrics{}
	}
	a.Strengths = parseList(strengths)
	a.Concerns = parseList(concerns)
	a.Opportunities = parseList(opportunities)
	a.Recommendations = parseList(recommendations)
	if score.Valid {
		a.HealthScore = &score.Float64
	}
	if value.Valid {
		a.InvestmentValue = &value.Float64
	}
	if confidence.Valid {
		a.ConfidenceScore = &confidence.Float64
	}
	return &a, nil
}

// Paginate returns a page of analyses ordered by created_at desc
func (r *AnalysisRepository) Paginate(ctx context.Context, tenant string, page, pageSize int) ([]*domain.Analysis, error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	const q = `
SELECT ` + analysisCols + `
FROM analyses
WHERE tenant_id=?
ORDER BY created_at DESC, id DESC
LIMIT ? OFFSET ?;
`
	rows, err := r.db.QueryContext(ctx, q, tenant, pageSize, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Analysis
	for rows.Next() {
		a, err := scanAnalysis(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// LatestByInvestment returns the newest analysis for a given investment
func (r *AnalysisRepository) LatestByInvestment(ctx context.Context, tenant string, investmentID string) (*domain.Analysis, error) {
	const q = `
SELECT ` + analysisCols + `
FROM analyses
WHERE tenant_id=? AND investment_id=?
ORDER BY created_at DESC, id DESC
LIMIT 1;`
	a, err := scanAnalysis(r.db.QueryRowContext(ctx, q, tenant, investmentID).Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return a, err
}

// LatestByDocument returns the newest analysis for a given document
func (r *AnalysisRepository) LatestByDocument(ctx context.Context, tenant string, documentID string) (*domain.Analysis, error) {
	const q = `
SELECT ` + analysisCols + `
FROM analyses
WHERE tenant_id=? AND document_id=?
ORDER BY created_at DESC, id DESC
LIMIT 1;`
	a, err := scanAnalysis(r.db.QueryRowContext(ctx, q, tenant, documentID).Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return a, err
}
