package portfolio

import (
	"context"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/oakmontvc/dealdesk/internal/domain/companies"
	domain "github.com/oakmontvc/dealdesk/internal/domain/investments"

	docdomain "github.com/oakmontvc/dealdesk/internal/domain/documents"
)

// Service implements use-cases untuk portfolio CRUD and the dashboard summary.
// Service is designed to be used concurrently and is thread-safe
type Service struct {
	Investments domain.Repository
	Companies   companies.Repository
	Documents   docdomain.Repository
	Clock       Clock
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

// Command untuk create company
type CreateCompanyCommand struct {
	TenantID    string
	Name        string
	Sector      string
	Stage       string
	Website     string
	FoundedYear int
}

func (s *Service) CreateCompany(ctx context.Context, cmd CreateCompanyCommand) (*companies.Company, error) {
	c := &companies.Company{
		ID:          companies.CompanyID(uuid.New().String()),
		TenantID:    cmd.TenantID,
		Name:        cmd.Name,
		Sector:      cmd.Sector,
		Stage:       cmd.Stage,
		Website:     cmd.Website,
		FoundedYear: cmd.FoundedYear,
		CreatedAt:   s.Clock.Now(),
	}
	if err := s.Companies.Save(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *Service) GetCompany(ctx context.Context, tenant string, id companies.CompanyID) (*companies.Company, error) {
	return s.Companies.Get(ctx, tenant, id)
}

func (s *Service) ListCompanies(ctx context.Context, tenant string, limit int) ([]*companies.Company, error) {
	return s.Companies.List(ctx, tenant, limit)
}

// Command untuk create investment
type CreateInvestmentCommand struct {
	TenantID     string
	CompanyID    string
	RoundType    string
	Amount       float64
	CurrentValue float64
	Valuation    float64
	InvestedAt   time.Time
	Thesis       string
}

func (s *Service) CreateInvestment(ctx context.Context, cmd CreateInvestmentCommand) (*domain.Investment, error) {
	now := s.Clock.Now()
	investedAt := cmd.InvestedAt
	if investedAt.IsZero() {
		investedAt = now
	}
	currentValue := cmd.CurrentValue
	if currentValue == 0 {
		currentValue = cmd.Amount
	}
	inv := &domain.Investment{
		ID:           domain.InvestmentID(uuid.New().String()),
		TenantID:     cmd.TenantID,
		CompanyID:    cmd.CompanyID,
		RoundType:    cmd.RoundType,
		Amount:       cmd.Amount,
		CurrentValue: currentValue,
		Valuation:    cmd.Valuation,
		InvestedAt:   investedAt,
		Thesis:       cmd.Thesis,
		Status:       domain.StatusActive,
		CreatedAt:    now,
	}
	if err := s.Investments.Save(ctx, inv); err != nil {
		return nil, err
	}
	return inv, nil
}

// Get ambil 1 investment by id
func (s *Service) GetInvestment(ctx context.Context, tenant string, id domain.InvestmentID) (*domain.Investment, error) {
	return s.Investments.Get(ctx, tenant, id)
}

// Paginate investments dengan filter
func (s *Service) PaginateInvestments(ctx context.Context, tenant string, page, pageSize int, f domain.ListFilter) (domain.PaginatedResult, error) {
	return s.Investments.Paginate(ctx, tenant, page, pageSize, f)
}

// Cursor keyset pagination untuk infinite scroll
func (s *Service) CursorInvestments(ctx context.Context, tenant string, cursorTime time.Time, cursorID string, pageSize int) ([]*domain.Investment, error) {
	return s.Investments.Cursor(ctx, tenant, cursorTime, cursorID, pageSize)
}

// DashboardSummary is the roll-up the dashboard landing page renders.
type DashboardSummary struct {
	Portfolio         domain.Summary `json:"portfolio"`
	DocumentsAnalyzed int            `json:"documents_analyzed"`
	SinceDays         int            `json:"since_days"`
}

// Summary rekap portfolio N hari terakhir. The sub-queries are independent
// so they run in parallel.
func (s *Service) Summary(ctx context.Context, tenant string, sinceDays int) (DashboardSummary, error) {
	if sinceDays <= 0 {
		sinceDays = 30
	}
	out := DashboardSummary{SinceDays: sinceDays}
	cut := s.Clock.Now().AddDate(0, 0, -sinceDays)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		sum, err := s.Investments.Summary(gctx, tenant, sinceDays)
		if err != nil {
			return err
		}
		out.Portfolio = sum
		return nil
	})
	g.Go(func() error {
		n, err := s.Documents.CountAnalyzedSince(gctx, tenant, cut)
		if err != nil {
			return err
		}
		out.DocumentsAnalyzed = n
		return nil
	})
	if err := g.Wait(); err != nil {
		return DashboardSummary{}, err
	}
	return out, nil
}
