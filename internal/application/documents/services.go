package documents

import (
	"context"
	"fmt"
	"io"
	"log"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	domain "github.com/oakmontvc/dealdesk/internal/domain/documents"
)

// Service implements use-cases untuk Document intake and lookup.
// Service is designed to be used concurrently and is thread-safe
type Service struct {
	Repo  domain.Repository
	Blobs domain.BlobStore
	Clock Clock
}

// Clock abstraction supaya gampang ditest
type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

//
// ==== USE CASES ====
//

// Command untuk upload document
type UploadCommand struct {
	TenantID     string
	InvestmentID string
	DealID       string // legacy deal-document path
	Title        string
	FileName     string
	ContentType  string
	Size         int64
	Body         io.Reader
}

// Upload stores the bytes under a randomized key, then inserts the metadata
// row with analysis_status=pending. If the insert fails after the blob write
// succeeded, the blob is removed so no orphan is left behind.
func (s *Service) Upload(ctx context.Context, cmd UploadCommand) (*domain.Document, error) {
	if cmd.FileName == "" {
		return nil, fmt.Errorf("file is required")
	}

	now := s.Clock.Now()
	id := uuid.New().String()
	key := fmt.Sprintf("%s/documents/%s/%s", cmd.TenantID, id, filepath.Base(cmd.FileName))

	url, err := s.Blobs.Upload(ctx, key, cmd.Body, cmd.Size, cmd.ContentType)
	if err != nil {
		return nil, err
	}

	title := cmd.Title
	if title == "" {
		title = cmd.FileName
	}

	doc := &domain.Document{
		ID:             domain.DocumentID(id),
		TenantID:       cmd.TenantID,
		InvestmentID:   cmd.InvestmentID,
		DealID:         cmd.DealID,
		Title:          title,
		FileName:       cmd.FileName,
		FileType:       cmd.ContentType,
		FileSize:       cmd.Size,
		StorageKey:     key,
		FileURL:        url,
		AnalysisStatus: domain.StatusPending,
		UploadedAt:     now,
	}
	if err := s.Repo.Save(ctx, doc); err != nil {
		if rmErr := s.Blobs.Remove(context.Background(), key); rmErr != nil {
			log.Printf("orphan blob left at %s after failed insert: %v", key, rmErr)
		}
		return nil, err
	}
	return doc, nil
}

// Get ambil 1 document by id
func (s *Service) Get(ctx context.Context, tenant string, id domain.DocumentID) (*domain.Document, error) {
	return s.Repo.Get(ctx, tenant, id)
}

// List documents, optionally scoped to one investment
func (s *Service) List(ctx context.Context, tenant string, investmentID string, page, pageSize int) ([]*domain.Document, error) {
	return s.Repo.Paginate(ctx, tenant, investmentID, page, pageSize)
}
