package postgres

import (
	"context"
	"database/sql"
	"fmt"

	domain "github.com/oakmontvc/dealdesk/internal/domain/analyses"
	"github.com/oakmontvc/dealdesk/internal/domain/investments"
)

// Committer lands the outcome of one pipeline run in a single transaction:
// the analysis row, the document's completed flag, and the investment health
// update either all commit or none do. A crash mid-pipeline can't leave the
// three tables disagreeing with each other.
type Committer struct {
	db *sql.DB
}

func NewCommitter(db *sql.DB) *Committer {
	return &Committer{db: db}
}

// Commit implementasi analyses.Committer
func (c *Committer) Commit(ctx context.Context, a *domain.Analysis, inv *investments.HealthUpdate) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := insertAnalysis(ctx, tx, a); err != nil {
		return fmt.Errorf("insert analysis: %w", err)
	}

	const docQ = `UPDATE documents SET analysis_status='completed' WHERE tenant_id=$1 AND id=$2;`
	if _, err := tx.ExecContext(ctx, docQ, a.TenantID, a.DocumentID); err != nil {
		return fmt.Errorf("complete document: %w", err)
	}

	if inv != nil {
		if err := execHealthUpdate(ctx, tx, a.TenantID, *inv); err != nil {
			return fmt.Errorf("update investment health: %w", err)
		}
	}

	return tx.Commit()
}
