package mysql

import (
	"context"
	"database/sql"
	"time"

	domain "github.com/oakmontvc/dealdesk/internal/domain/companies"
)

type CompanyRepository struct {
	db *sql.DB
}

func NewCompanyRepository(db *sql.DB) *CompanyRepository {
	return &CompanyRepository{db: db}
}

// Save insert/update Company record
func (r *CompanyRepository) Save(ctx context.Context, c *domain.Company) error {
	const q = `
INSERT INTO companies
  (id, tenant_id, name, sector, stage, website, founded_year, created_at)
VALUES (?,?,?,?,?,?,?,?)
ON DUPLICATE KEY UPDATE
  name=VALUES(name), sector=VALUES(sector), stage=VALUES(stage),
  website=VALUES(website), founded_year=VALUES(founded_year);
`
	tenant := stringOrDash(c.TenantID)
	createdAt := c.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	_, err := r.db.ExecContext(ctx, q,
		c.ID, tenant, c.Name, c.Sector, c.Stage, c.Website, c.FoundedYear, createdAt)
	return err
}

// Get by ID + Tenant
func (r *CompanyRepository) Get(ctx context.Context, tenant string, id domain.CompanyID) (*domain.Company, error) {
	const q = `
SELECT id, tenant_id, name, sector, stage, website, founded_year, created_at
FROM companies
WHERE tenant_id=? AND id=? LIMIT 1;
`
	row := r.db.QueryRowContext(ctx, q, tenant, id)
	var c domain.Company
	if err := row.Scan(&c.ID, &c.TenantID, &c.Name, &c.Sector, &c.Stage, &c.Website, &c.FoundedYear, &c.CreatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

// List companies per tenant, newest first
func (r *CompanyRepository) List(ctx context.Context, tenant string, limit int) ([]*domain.Company, error) {
	if limit <= 0 {
		limit = 50
	}
	const q = `
SELECT id, tenant_id, name, sector, stage, website, founded_year, created_at
FROM companies
WHERE tenant_id=? ORDER BY created_at DESC LIMIT ?;
`
	rows, err := r.db.QueryContext(ctx, q, tenant, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Company
	for rows.Next() {
		var c domain.Company
		if err := rows.Scan(&c.ID, &c.TenantID, &c.Name, &c.Sector, &c.Stage, &c.Website, &c.FoundedYear, &c.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &c)
	}
	return out, rows.Err()
}
