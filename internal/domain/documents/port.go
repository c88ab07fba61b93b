package documents

import (
	"context"
	"io"
	"time"

	"github.com/oakmontvc/dealdesk/internal/domain/companies"
	"github.com/oakmontvc/dealdesk/internal/domain/investments"
)

// AnalysisContext is the document joined with its investment and the
// investment's company. Investment/Company are nil for legacy deal documents.
type AnalysisContext struct {
	Document   *Document
	Investment *investments.Investment
	Company    *companies.Company
}

// Repository port (interface untuk persistence)
type Repository interface {
	Save(ctx context.Context, d *Document) error
	Get(ctx context.Context, tenant string, id DocumentID) (*Document, error)
	GetForAnalysis(ctx context.Context, tenant string, id DocumentID) (*AnalysisContext, error)
	Paginate(ctx context.Context, tenant string, investmentID string, page, pageSize int) ([]*Document, error)

	// Claim atomically transitions pending|failed|completed -> processing.
	// Returns ErrAnalysisInProgress when the row is already processing and
	// ErrNotFound when it does not exist.
	Claim(ctx context.Context, tenant string, id DocumentID) error
	SetStatus(ctx context.Context, tenant string, id DocumentID, status AnalysisStatus) error
	CountAnalyzedSince(ctx context.Context, tenant string, since time.Time) (int, error)
}

// BlobStore port (interface untuk penyimpanan file)
type BlobStore interface {
	Upload(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error)
	Remove(ctx context.Context, key string) error
}

// FileFetcher retrieves the raw bytes of a stored document by URL.
type FileFetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, string, error)
}
