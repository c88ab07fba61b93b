package postgres

import (
	"context"
	"database/sql"
	"strings"
	"time"

	domain "github.com/oakmontvc/dealdesk/internal/domain/pipelineerrors"
)

type PipelineErrorRepository struct {
	db *sql.DB
}

func NewPipelineErrorRepository(db *sql.DB) *PipelineErrorRepository {
	return &PipelineErrorRepository{db: db}
}

// Save inserts a pipeline error entry
func (r *PipelineErrorRepository) Save(ctx context.Context, e *domain.PipelineError) error {
	const q = `
INSERT INTO pipeline_errors
  (tenant_id, document_id, phase, message, details_json, created_at)
VALUES ($1,$2,$3,$4,$5,$6);
`
	tenant := stringOrDash(e.TenantID)
	details := e.DetailsJSON
	if strings.TrimSpace(details) == "" {
		details = "{}"
	}
	createdAt := e.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	_, err := r.db.ExecContext(ctx, q, tenant, e.DocumentID, e.Phase, e.Message, details, createdAt)
	return err
}

// ListByDocument returns recent failures for one document
func (r *PipelineErrorRepository) ListByDocument(ctx context.Context, tenant string, documentID string, limit int) ([]*domain.PipelineError, error) {
	if limit <= 0 {
		limit = 20
	}
	const q = `
SELECT id, tenant_id, document_id, phase, message, details_json, created_at
FROM pipeline_errors
WHERE tenant_id=$1 AND document_id=$2
ORDER BY created_at DESC, id DESC
LIMIT $3;
`
	rows, err := r.db.QueryContext(ctx, q, tenant, documentID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.PipelineError
	for rows.Next() {
		var e domain.PipelineError
		if err := rows.Scan(&e.ID, &e.TenantID, &e.DocumentID, &e.Phase, &e.Message, &e.DetailsJSON, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &e)
	}
	return out, rows.Err()
}
