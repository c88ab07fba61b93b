package analyses

import (
	"context"

	"github.com/oakmontvc/dealdesk/internal/domain/investments"
)

// Repository port for querying stored analyses
type Repository interface {
	Paginate(ctx context.Context, tenant string, page, pageSize int) ([]*Analysis, error)
	LatestByInvestment(ctx context.Context, tenant string, investmentID string) (*Analysis, error)
	LatestByDocument(ctx context.Context, tenant string, documentID string) (*Analysis, error)
}

// Committer persists the outcome of one pipeline run atomically: the new
// analysis row, the document's completed status, and (when present) the
// investment health update land in a single transaction.
type Committer interface {
	Commit(ctx context.Context, a *Analysis, inv *investments.HealthUpdate) error
}

// TextExtractor turns raw document bytes into prompt-ready text.
type TextExtractor interface {
	Extract(ctx context.Context, data []byte, fileName, contentType string) (string, error)
}
