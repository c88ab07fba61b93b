package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"time"

	domain "github.com/oakmontvc/dealdesk/internal/domain/investments"
)

type InvestmentRepository struct {
	db *sql.DB
}

func NewInvestmentRepository(db *sql.DB) *InvestmentRepository {
	return &InvestmentRepository{db: db}
}

const investmentCols = `id, tenant_id, company_id, round_type, amount, current_value,
       valuation, invested_at, thesis, ai_health_score, status, created_at`

// Save insert/update Investment record
func (r *InvestmentRepository) Save(ctx context.Context, inv *domain.Investment) error {
	const q = `
INSERT INTO investments
  (id, tenant_id, company_id, round_type, amount, current_value,
   valuation, invested_at, thesis, ai_health_score, status, created_at)
VALUES (?,?,?,?,?,?,?,?,?,?,?,?)
ON DUPLICATE KEY UPDATE
  round_type=VALUES(round_type), amount=VALUES(amount),
  current_value=VALUES(current_value), valuation=VALUES(valuation),
  thesis=VALUES(thesis), ai_health_score=VALUES(ai_health_score),
  status=VALUES(status);
`
	tenant := stringOrDash(inv.TenantID)
	status := stringOrDash(string(inv.Status))
	investedAt := inv.InvestedAt
	if investedAt.IsZero() {
		investedAt = time.Now()
	}
	createdAt := inv.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	_, err := r.db.ExecContext(ctx, q,
		inv.ID, tenant, inv.CompanyID, inv.RoundType, inv.Amount, inv.CurrentValue,
		inv.Valuation, investedAt, inv.Thesis, nullFloat(inv.AIHealthScore), status, createdAt)
	return err
}

func scanInvestment(scan func(dest ...any) error) (*domain.Investment, error) {
	var inv domain.Investment
	var score sql.NullFloat64
	if err := scan(
		&inv.ID, &inv.TenantID, &inv.CompanyID, &inv.RoundType, &inv.Amount, &inv.CurrentValue,
		&inv.Valuation, &inv.InvestedAt, &inv.Thesis, &score, &inv.Status, &inv.CreatedAt,
	); err != nil {
		return nil, err
	}
	if score.Valid {
		inv.AIHealthScore = &score.Float64
	}
	return &inv, nil
}

// Get by ID + Tenant
func (r *InvestmentRepository) Get(ctx context.Context, tenant string, id domain.InvestmentID) (*domain.Investment, error) {
	q := fmt.Sprintf(`SELECT %s FROM investments WHERE tenant_id=? AND id=? LIMIT 1;`, investmentCols)
	row := r.db.QueryRowContext(ctx, q, tenant, id)
	return scanInvestment(row.Scan)
}

// Latest investments per tenant
func (r *InvestmentRepository) Latest(ctx context.Context, tenant string, limit int) ([]*domain.Investment, error) {
	if limit <= 0 {
		limit = 20
	}
	q := fmt.Sprintf(`SELECT %s FROM investments WHERE tenant_id=? ORDER BY created_at DESC LIMIT ?;`, investmentCols)
	rows, err := r.db.QueryContext(ctx, q, tenant, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectInvestments(rows)
}

func collectInvestments(rows *sql.Rows) ([]*domain.Investment, error) {
	var out []*domain.Investment
	for rows.Next() {
		inv, err := scanInvestment(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, inv)
	}
	return out, rows.Err()
}

// Summary aggregates the tenant's portfolio for the dashboard
func (r *InvestmentRepository) Summary(ctx context.Context, tenant string, sinceDays int) (domain.Summary, error) {
	if sinceDays <= 0 {
		sinceDays = 30
	}
	const q = `
SELECT COUNT(*),
       COALESCE(SUM(amount),0),
       COALESCE(SUM(current_value),0),
       COALESCE(AVG(ai_health_score),0),
       COALESCE(SUM(status='active'),0),
       COALESCE(SUM(status='monitoring'),0),
       COALESCE(SUM(status='at_risk'),0)
FROM investments
WHERE tenant_id=?;
`
	var s domain.Summary
	if err := r.db.QueryRowContext(ctx, q, tenant).Scan(
		&s.TotalInvestments, &s.TotalInvested, &s.TotalValue, &s.AvgHealthScore,
		&s.Active, &s.Monitoring, &s.AtRisk,
	); err != nil {
		return domain.Summary{}, err
	}
	return s, nil
}

// Paginate with offset + limit (classic pagination)
func (r *InvestmentRepository) Paginate(ctx context.Context, tenant string, page, pageSize int, f domain.ListFilter) (domain.PaginatedResult, error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	where := `WHERE tenant_id=?`
	args := []any{tenant}
	if f.Status != "" {
		where += " AND status=?"
		args = append(args, f.Status)
	}
	if f.CompanyID != "" {
		where += " AND company_id=?"
		args = append(args, f.CompanyID)
	}

	var total int64
	countQ := `SELECT COUNT(*) FROM investments ` + where
	if err := r.db.QueryRowContext(ctx, countQ, args...).Scan(&total); err != nil {
		return domain.PaginatedResult{}, err
	}

	listQ := fmt.Sprintf(`SELECT %s FROM investments %s ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?;`,
		investmentCols, where)
	args = append(args, pageSize, offset)
	rows, err := r.db.QueryContext(ctx, listQ, args...)
	if err != nil {
		return domain.PaginatedResult{}, err
	}
	defer rows.Close()

	data, err := collectInvestments(rows)
	if err != nil {
		return domain.PaginatedResult{}, err
	}
	return domain.PaginatedResult{
		Data:       data,
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: int(math.Ceil(float64(total) / float64(pageSize))),
	}, nil
}

// Cursor keyset pagination on (created_at, id)
func (r *InvestmentRepository) Cursor(ctx context.Context, tenant string, cursorTime time.Time, cursorID string, pageSize int) ([]*domain.Investment, error) {
	if pageSize <= 0 {
		pageSize = 20
	}
	q := fmt.Sprintf(`
SELECT %s FROM investments
WHERE tenant_id=? AND (created_at < ? OR (created_at = ? AND id < ?))
ORDER BY created_at DESC, id DESC LIMIT ?;`, investmentCols)
	rows, err := r.db.QueryContext(ctx, q, tenant, cursorTime, cursorTime, cursorID, pageSize)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectInvestments(rows)
}

// UpdateHealth overwrites the analysis-owned fields on an investment
func (r *InvestmentRepository) UpdateHealth(ctx context.Context, tenant string, u domain.HealthUpdate) error {
	return execHealthUpdate(ctx, r.db, tenant, u)
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// execHealthUpdate is shared with the transactional committer
func execHealthUpdate(ctx context.Context, db execer, tenant string, u domain.HealthUpdate) error {
	const q = `
UPDATE investments SET
  ai_health_score = COALESCE(?, ai_health_score),
  status          = COALESCE(NULLIF(?,''), status),
  current_value   = COALESCE(?, current_value)
WHERE tenant_id=? AND id=?;
`
	_, err := db.ExecContext(ctx, q,
		nullFloat(u.HealthScore), string(u.Status), nullFloat(u.CurrentValue), tenant, u.ID)
	return err
}
