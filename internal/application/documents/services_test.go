package documents

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/oakmontvc/dealdesk/internal/domain/documents"
)

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

type fakeRepo struct {
	saved   *domain.Document
	saveErr error
}

func (f *fakeRepo) Save(ctx context.Context, d *domain.Document) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saved = d
	return nil
}

func (f *fakeRepo) Get(ctx context.Context, tenant string, id domain.DocumentID) (*domain.Document, error) {
	if f.saved != nil && f.saved.ID == id {
		return f.saved, nil
	}
	return nil, domain.ErrNotFound
}

func (f *fakeRepo) GetForAnalysis(ctx context.Context, tenant string, id domain.DocumentID) (*domain.AnalysisContext, error) {
	return nil, domain.ErrNotFound
}

func (f *fakeRepo) Paginate(ctx context.Context, tenant string, investmentID string, page, pageSize int) ([]*domain.Document, error) {
	return nil, nil
}

func (f *fakeRepo) Claim(ctx context.Context, tenant string, id domain.DocumentID) error {
	return nil
}

func (f *fakeRepo) SetStatus(ctx context.Context, tenant string, id domain.DocumentID, status domain.AnalysisStatus) error {
	return nil
}

func (f *fakeRepo) CountAnalyzedSince(ctx context.Context, tenant string, since time.Time) (int, error) {
	return 0, nil
}

type fakeBlobs struct {
	uploaded map[string][]byte
	removed  []string
	err      error
}

func (f *fakeBlobs) Upload(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	data, _ := io.ReadAll(r)
	if f.uploaded == nil {
		f.uploaded = make(map[string][]byte)
	}
	f.uploaded[key] = data
	return "http://blobs.local/" + key, nil
}

func (f *fakeBlobs) Remove(ctx context.Context, key string) error {
	f.removed = append(f.removed, key)
	return nil
}

func TestUpload(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	t.Run("stores blob then metadata", func(t *testing.T) {
		repo := &fakeRepo{}
		blobs := &fakeBlobs{}
		svc := &Service{Repo: repo, Blobs: blobs, Clock: fixedClock{t: now}}

		doc, err := svc.Upload(context.Background(), UploadCommand{
			TenantID:     "acme-fund",
			InvestmentID: "inv-1",
			Title:        "Q2 Board Deck",
			FileName:     "deck.pdf",
			ContentType:  "application/pdf",
			Size:         4,
			Body:         bytes.NewReader([]byte("%PDF")),
		})
		require.NoError(t, err)

		assert.Equal(t, domain.StatusPending, doc.AnalysisStatus)
		assert.Equal(t, "inv-1", doc.InvestmentID)
		assert.Equal(t, now, doc.UploadedAt)
		assert.Equal(t, fmt.Sprintf("acme-fund/documents/%s/deck.pdf", doc.ID), doc.StorageKey)
		assert.Equal(t, "http://blobs.local/"+doc.StorageKey, doc.FileURL)

		require.NotNil(t, repo.saved)
		assert.Equal(t, []byte("%PDF"), blobs.uploaded[doc.StorageKey])
	})

	t.Run("title falls back to file name", func(t *testing.T) {
		svc := &Service{Repo: &fakeRepo{}, Blobs: &fakeBlobs{}, Clock: fixedClock{t: now}}

		doc, err := svc.Upload(context.Background(), UploadCommand{
			TenantID: "acme-fund",
			FileName: "memo.txt",
			Body:     bytes.NewReader(nil),
		})
		require.NoError(t, err)
		assert.Equal(t, "memo.txt", doc.Title)
	})

	t.Run("missing file name rejected before any write", func(t *testing.T) {
		blobs := &fakeBlobs{}
		svc := &Service{Repo: &fakeRepo{}, Blobs: blobs, Clock: fixedClock{t: now}}

		_, err := svc.Upload(context.Background(), UploadCommand{TenantID: "acme-fund"})
		require.Error(t, err)
		assert.Empty(t, blobs.uploaded)
	})

	t.Run("blob failure aborts before insert", func(t *testing.T) {
		repo := &fakeRepo{}
		svc := &Service{Repo: repo, Blobs: &fakeBlobs{err: fmt.Errorf("bucket gone")}, Clock: fixedClock{t: now}}

		_, err := svc.Upload(context.Background(), UploadCommand{
			TenantID: "acme-fund",
			FileName: "deck.pdf",
			Body:     bytes.NewReader(nil),
		})
		require.Error(t, err)
		assert.Nil(t, repo.saved)
	})

	t.Run("failed insert removes the orphan blob", func(t *testing.T) {
		blobs := &fakeBlobs{}
		svc := &Service{Repo: &fakeRepo{saveErr: fmt.Errorf("db down")}, Blobs: blobs, Clock: fixedClock{t: now}}

		_, err := svc.Upload(context.Background(), UploadCommand{
			TenantID: "acme-fund",
			FileName: "deck.pdf",
			Body:     bytes.NewReader([]byte("x")),
		})
		require.Error(t, err)
		require.Len(t, blobs.removed, 1)
		assert.Contains(t, blobs.removed[0], "acme-fund/documents/")
	})

	t.Run("path traversal in file name stripped from key", func(t *testing.T) {
		blobs := &fakeBlobs{}
		svc := &Service{Repo: &fakeRepo{}, Blobs: blobs, Clock: fixedClock{t: now}}

		doc, err := svc.Upload(context.Background(), UploadCommand{
			TenantID: "acme-fund",
			FileName: "../../etc/passwd",
			Body:     bytes.NewReader(nil),
		})
		require.NoError(t, err)
		assert.NotContains(t, doc.StorageKey, "..")
	})
}
