package portfolio

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oakmontvc/dealdesk/internal/domain/companies"
	domdocs "github.com/oakmontvc/dealdesk/internal/domain/documents"
	domain "github.com/oakmontvc/dealdesk/internal/domain/investments"
)

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

type fakeInvestmentRepo struct {
	saved      *domain.Investment
	summary    domain.Summary
	summaryErr error
}

func (f *fakeInvestmentRepo) Save(ctx context.Context, inv *domain.Investment) error {
	f.saved = inv
	return nil
}

func (f *fakeInvestmentRepo) Get(ctx context.Context, tenant string, id domain.InvestmentID) (*domain.Investment, error) {
	return f.saved, nil
}

func (f *fakeInvestmentRepo) Latest(ctx context.Context, tenant string, limit int) ([]*domain.Investment, error) {
	return nil, nil
}

func (f *fakeInvestmentRepo) Summary(ctx context.Context, tenant string, sinceDays int) (domain.Summary, error) {
	return f.summary, f.summaryErr
}

func (f *fakeInvestmentRepo) Paginate(ctx context.Context, tenant string, page, pageSize int, lf domain.ListFilter) (domain.PaginatedResult, error) {
	return domain.PaginatedResult{Page: page, PageSize: pageSize}, nil
}

func (f *fakeInvestmentRepo) Cursor(ctx context.Context, tenant string, cursorTime time.Time, cursorID string, pageSize int) ([]*domain.Investment, error) {
	return nil, nil
}

func (f *fakeInvestmentRepo) UpdateHealth(ctx context.Context, tenant string, u domain.HealthUpdate) error {
	return nil
}

type fakeCompanyRepo struct {
	saved *companies.Company
}

func (f *fakeCompanyRepo) Save(ctx context.Context, c *companies.Company) error {
	f.saved = c
	return nil
}

func (f *fakeCompanyRepo) Get(ctx context.Context, tenant string, id companies.CompanyID) (*companies.Company, error) {
	return f.saved, nil
}

func (f *fakeCompanyRepo) List(ctx context.Context, tenant string, limit int) ([]*companies.Company, error) {
	return nil, nil
}

type fakeDocumentRepo struct {
	analyzed int
	since    time.Time
	err      error
}

func (f *fakeDocumentRepo) Save(ctx context.Context, d *domdocs.Document) error { return nil }

func (f *fakeDocumentRepo) Get(ctx context.Context, tenant string, id domdocs.DocumentID) (*domdocs.Document, error) {
	return nil, domdocs.ErrNotFound
}

func (f *fakeDocumentRepo) GetForAnalysis(ctx context.Context, tenant string, id domdocs.DocumentID) (*domdocs.AnalysisContext, error) {
	return nil, domdocs.ErrNotFound
}

func (f *fakeDocumentRepo) Paginate(ctx context.Context, tenant string, investmentID string, page, pageSize int) ([]*domdocs.Document, error) {
	return nil, nil
}

func (f *fakeDocumentRepo) Claim(ctx context.Context, tenant string, id domdocs.DocumentID) error {
	return nil
}

func (f *fakeDocumentRepo) SetStatus(ctx context.Context, tenant string, id domdocs.DocumentID, status domdocs.AnalysisStatus) error {
	return nil
}

func (f *fakeDocumentRepo) CountAnalyzedSince(ctx context.Context, tenant string, since time.Time) (int, error) {
	f.since = since
	return f.analyzed, f.err
}

func newService(inv *fakeInvestmentRepo, co *fakeCompanyRepo, docs *fakeDocumentRepo) *Service {
	return &Service{
		Investments: inv,
		Companies:   co,
		Documents:   docs,
		Clock:       fixedClock{t: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)},
	}
}

func TestCreateInvestment(t *testing.T) {
	t.Run("defaults applied", func(t *testing.T) {
		inv := &fakeInvestmentRepo{}
		svc := newService(inv, &fakeCompanyRepo{}, &fakeDocumentRepo{})

		got, err := svc.CreateInvestment(context.Background(), CreateInvestmentCommand{
			TenantID:  "acme-fund",
			CompanyID: "co-1",
			RoundType: "seed",
			Amount:    500000,
		})
		require.NoError(t, err)

		assert.Equal(t, domain.StatusActive, got.Status)
		assert.Equal(t, 500000.0, got.CurrentValue, "current value defaults to amount")
		assert.Equal(t, svc.Clock.Now(), got.InvestedAt, "invested_at defaults to now")
		assert.NotEmpty(t, got.ID)
		assert.Same(t, got, inv.saved)
	})

	t.Run("explicit values kept", func(t *testing.T) {
		svc := newService(&fakeInvestmentRepo{}, &fakeCompanyRepo{}, &fakeDocumentRepo{})
		investedAt := time.Date(2024, 11, 3, 0, 0, 0, 0, time.UTC)

		got, err := svc.CreateInvestment(context.Background(), CreateInvestmentCommand{
			TenantID:     "acme-fund",
			CompanyID:    "co-1",
			Amount:       500000,
			CurrentValue: 750000,
			InvestedAt:   investedAt,
		})
		require.NoError(t, err)
		assert.Equal(t, 750000.0, got.CurrentValue)
		assert.Equal(t, investedAt, got.InvestedAt)
	})
}

func TestCreateCompany(t *testing.T) {
	co := &fakeCompanyRepo{}
	svc := newService(&fakeInvestmentRepo{}, co, &fakeDocumentRepo{})

	got, err := svc.CreateCompany(context.Background(), CreateCompanyCommand{
		TenantID: "acme-fund",
		Name:     "Acme",
		Sector:   "devtools",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, got.ID)
	assert.Equal(t, "acme-fund", got.TenantID)
	assert.Same(t, got, co.saved)
}

func TestSummary(t *testing.T) {
	t.Run("combines portfolio and document counts", func(t *testing.T) {
		inv := &fakeInvestmentRepo{summary: domain.Summary{
			TotalInvestments: 12,
			TotalInvested:    6000000,
			TotalValue:       9100000,
			AvgHealthScore:   71.5,
			Active:           8,
			Monitoring:       3,
			AtRisk:           1,
		}}
		docs := &fakeDocumentRepo{analyzed: 5}
		svc := newService(inv, &fakeCompanyRepo{}, docs)

		got, err := svc.Summary(context.Background(), "acme-fund", 30)
		require.NoError(t, err)
		assert.Equal(t, 12, got.Portfolio.TotalInvestments)
		assert.Equal(t, 5, got.DocumentsAnalyzed)
		assert.Equal(t, 30, got.SinceDays)
		assert.Equal(t, svc.Clock.Now().AddDate(0, 0, -30), docs.since)
	})

	t.Run("zero days defaults to thirty", func(t *testing.T) {
		svc := newService(&fakeInvestmentRepo{}, &fakeCompanyRepo{}, &fakeDocumentRepo{})
		got, err := svc.Summary(context.Background(), "acme-fund", 0)
		require.NoError(t, err)
		assert.Equal(t, 30, got.SinceDays)
	})

	t.Run("sub-query failure surfaces", func(t *testing.T) {
		inv := &fakeInvestmentRepo{summaryErr: fmt.Errorf("timeout")}
		svc := newService(inv, &fakeCompanyRepo{}, &fakeDocumentRepo{})
		_, err := svc.Summary(context.Background(), "acme-fund", 7)
		assert.Error(t, err)
	})
}
