package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/oakmontvc/dealdesk/internal/domain/companies"
	domain "github.com/oakmontvc/dealdesk/internal/domain/documents"
	"github.com/oakmontvc/dealdesk/internal/domain/investments"
)

type DocumentRepository struct {
	db *sql.DB
}

func NewDocumentRepository(db *sql.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

const documentCols = `id, tenant_id, investment_id, deal_id, title, file_name, file_type,
       file_size, storage_key, file_url, analysis_status, uploaded_at`

// Save insert/update Document record
func (r *DocumentRepository) Save(ctx context.Context, d *domain.Document) error {
	const q = `
INSERT INTO documents
  (id, tenant_id, investment_id, deal_id, title, file_name, file_type,
   file_size, storage_key, file_url, analysis_status, uploaded_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
ON CONFLICT (id) DO UPDATE SET
  title=EXCLUDED.title, file_url=EXCLUDED.file_url,
  analysis_status=EXCLUDED.analysis_status;
`
	tenant := stringOrDash(d.TenantID)
	status := d.AnalysisStatus
	if status == "" {
		status = domain.StatusPending
	}
	uploadedAt := d.UploadedAt
	if uploadedAt.IsZero() {
		uploadedAt = time.Now()
	}
	_, err := r.db.ExecContext(ctx, q,
		d.ID, tenant, nullString(d.InvestmentID), nullString(d.DealID),
		d.Title, d.FileName, d.FileType, d.FileSize,
		d.StorageKey, d.FileURL, status, uploadedAt)
	return err
}

func scanDocument(scan func(dest ...any) error) (*domain.Document, error) {
	var d domain.Document
	var invID, dealID sql.NullString
	if err := scan(
		&d.ID, &d.TenantID, &invID, &dealID, &d.Title, &d.FileName, &d.FileType,
		&d.FileSize, &d.StorageKey, &d.FileURL, &d.AnalysisStatus, &d.UploadedAt,
	); err != nil {
		return nil, err
	}
	d.InvestmentID = invID.String
	d.DealID = dealID.String
	return &d, nil
}

// Get by ID + Tenant
func (r *DocumentRepository) Get(ctx context.Context, tenant string, id domain.DocumentID) (*domain.Document, error) {
	q := fmt.Sprintf(`SELECT %s FROM documents WHERE tenant_id=$1 AND id=$2 LIMIT 1;`, documentCols)
	doc, err := scanDocument(r.db.QueryRowContext(ctx, q, tenant, id).Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return doc, err
}

// GetForAnalysis loads the document joined with its investment and the
// investment's company in one round trip. Legacy deal documents come back
// with nil Investment/Company.
func (r *DocumentRepository) GetForAnalysis(ctx context.Context, tenant string, id domain.DocumentID) (*domain.AnalysisContext, error) {
	const q = `
SELECT d.id, d.tenant_id, d.investment_id, d.deal_id, d.title, d.file_name, d.file_type,
       d.file_size, d.storage_key, d.file_url, d.analysis_status, d.uploaded_at,
       i.id, i.company_id, i.round_type, i.amount, i.current_value, i.valuation,
       i.invested_at, i.thesis, i.ai_health_score, i.status,
       c.id, c.name, c.sector, c.stage
FROM documents d
LEFT JOIN investments i ON i.id = d.investment_id AND i.tenant_id = d.tenant_id
LEFT JOIN companies  c ON c.id = i.company_id    AND c.tenant_id = d.tenant_id
WHERE d.tenant_id=$1 AND d.id=$2 LIMIT 1;
`
	row := r.db.QueryRowContext(ctx, q, tenant, id)

	var d domain.Document
	var docInvID, dealID sql.NullString
	var invID, invCompanyID, invRound, invThesis, invStatus sql.NullString
	var invAmount, invValue, invValuation, invScore sql.NullFloat64
	var invInvestedAt sql.NullTime
	var compID, compName, compSector, compStage sql.NullString

	err := row.Scan(
		&d.ID, &d.TenantID, &docInvID, &dealID, &d.Title, &d.FileName, &d.FileType,
		&d.FileSize, &d.StorageKey, &d.FileURL, &d.AnalysisStatus, &d.UploadedAt,
		&invID, &invCompanyID, &invRound, &invAmount, &invValue, &invValuation,
		&invInvestedAt, &invThesis, &invScore, &invStatus,
		&compID, &compName, &compSector, &compStage,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	d.InvestmentID = docInvID.String
	d.DealID = dealID.String

	actx := &domain.AnalysisContext{Document: &d}
	if invID.Valid {
		inv := &investments.Investment{
			ID:           investments.InvestmentID(invID.String),
			TenantID:     d.TenantID,
			CompanyID:    invCompanyID.String,
			RoundType:    invRound.String,
			Amount:       invAmount.Float64,
			CurrentValue: invValue.Float64,
			Valuation:    invValuation.Float64,
			InvestedAt:   invInvestedAt.Time,
			Thesis:       invThesis.String,
			Status:       investments.Status(invStatus.String),
		}
		if invScore.Valid {
			inv.AIHealthScore = &invScore.Float64
		}
		actx.Investment = inv
	}
	if compID.Valid {
		actx.Company = &companies.Company{
			ID:       companies.CompanyID(compID.String),
			TenantID: d.TenantID,
			Name:     compName.String,
			Sector:   compSector.String,
			Stage:    compStage.String,
		}
	}
	return actx, nil
}

// Paginate documents, optionally scoped to one investment
func (r *DocumentRepository) Paginate(ctx context.Context, tenant string, investmentID string, page, pageSize int) ([]*domain.Document, error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	where := `WHERE tenant_id=$1`
	args := []any{tenant}
	if investmentID != "" {
		args = append(args, investmentID)
		where += fmt.Sprintf(" AND investment_id=$%d", len(args))
	}
	args = append(args, pageSize, offset)
	q := fmt.Sprintf(`SELECT %s FROM documents %s ORDER BY uploaded_at DESC, id DESC LIMIT $%d OFFSET $%d;`,
		documentCols, where, len(args)-1, len(args))

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Document
	for rows.Next() {
		d, err := scanDocument(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// Claim atomically transitions the document to processing. The WHERE clause
// is the whole idempotency guard: a row already at processing matches
// nothing, so the second concurrent caller sees ErrAnalysisInProgress.
func (r *DocumentRepository) Claim(ctx context.Context, tenant string, id domain.DocumentID) error {
	const q = `
UPDATE documents SET analysis_status='processing'
WHERE tenant_id=$1 AND id=$2 AND analysis_status <> 'processing';
`
	res, err := r.db.ExecContext(ctx, q, tenant, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	// zero rows: either the document is mid-analysis or it doesn't exist
	if _, err := r.Get(ctx, tenant, id); err != nil {
		return err
	}
	return domain.ErrAnalysisInProgress
}

// SetStatus update analysis_status untuk 1 document
func (r *DocumentRepository) SetStatus(ctx context.Context, tenant string, id domain.DocumentID, status domain.AnalysisStatus) error {
	const q = `UPDATE documents SET analysis_status=$3 WHERE tenant_id=$1 AND id=$2;`
	_, err := r.db.ExecContext(ctx, q, tenant, id, status)
	return err
}

// CountAnalyzedSince counts completed documents uploaded in the window
func (r *DocumentRepository) CountAnalyzedSince(ctx context.Context, tenant string, since time.Time) (int, error) {
	const q = `
SELECT COUNT(*) FROM documents
WHERE tenant_id=$1 AND analysis_status='completed' AND uploaded_at >= $2;
`
	var n int
	if err := r.db.QueryRowContext(ctx, q, tenant, since).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}
