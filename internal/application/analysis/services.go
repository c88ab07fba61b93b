package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/oakmontvc/dealdesk/internal/domain/ai"
	domain "github.com/oakmontvc/dealdesk/internal/domain/analyses"
	"github.com/oakmontvc/dealdesk/internal/domain/documents"
	"github.com/oakmontvc/dealdesk/internal/domain/investments"
	"github.com/oakmontvc/dealdesk/internal/domain/pipelineerrors"
)

// Service implements the document-analysis pipeline: claim the document,
// fetch and extract its text, call the model, validate the JSON it returns,
// and commit the analysis row + document status + investment health update
// in one transaction.
// Service is designed to be used concurrently and is thread-safe
type Service struct {
	Docs      documents.Repository
	Fetcher   documents.FileFetcher
	Extractor domain.TextExtractor
	AI        ai.Client
	Analyses  domain.Repository
	Committer domain.Committer
	Errors    pipelineerrors.Repository
	Clock     Clock
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

// Analyze runs the whole pipeline for one document. The claim write is the
// idempotency guard: a second request for a document that is already
// processing gets documents.ErrAnalysisInProgress instead of racing the
// first. After a successful claim, every failure resets the document to
// failed before returning.
func (s *Service) Analyze(ctx context.Context, tenant string, id documents.DocumentID) (*domain.Analysis, error) {
	actx, err := s.Docs.GetForAnalysis(ctx, tenant, id)
	if err != nil {
		return nil, err
	}

	if err := s.Docs.Claim(ctx, tenant, id); err != nil {
		return nil, err
	}

	a, err := s.run(ctx, tenant, actx)
	if err != nil {
		s.recordFailure(tenant, string(id), err)
		return nil, err
	}
	return a, nil
}

func (s *Service) run(ctx context.Context, tenant string, actx *documents.AnalysisContext) (*domain.Analysis, error) {
	doc := actx.Document

	data, contentType, err := s.Fetcher.Fetch(ctx, doc.FileURL)
	if err != nil {
		return nil, phaseErr("fetch", err)
	}
	if contentType == "" {
		contentType = doc.FileType
	}

	text, err := s.Extractor.Extract(ctx, data, doc.FileName, contentType)
	if err != nil {
		return nil, phaseErr("extract", err)
	}

	req := ai.Request{
		DocumentTitle: doc.Title,
		DocumentText:  text,
	}
	if actx.Investment != nil {
		req.RoundType = actx.Investment.RoundType
		req.Amount = actx.Investment.Amount
		req.Valuation = actx.Investment.Valuation
		req.InvestedAt = actx.Investment.InvestedAt
		req.Thesis = actx.Investment.Thesis
	}
	if actx.Company != nil {
		req.CompanyName = actx.Company.Name
	}

	raw, err := s.AI.AnalyzeDocument(ctx, req)
	if err != nil {
		return nil, phaseErr("completion", err)
	}

	res, err := domain.ParseResult(raw)
	if err != nil {
		return nil, phaseErr("parse", err)
	}

	a := &domain.Analysis{
		ID:              domain.AnalysisID(uuid.New().String()),
		TenantID:        tenant,
		DocumentID:      string(doc.ID),
		InvestmentID:    doc.InvestmentID,
		Metrics:         res.Metrics,
		HealthScore:     res.HealthScore,
		HealthStatus:    res.HealthStatus,
		RiskLevel:       res.RiskLevel,
		Assessment:      res.Assessment,
		Strengths:       res.Strengths,
		Concerns:        res.Concerns,
		Opportunities:   res.Opportunities,
		Recommendations: res.Recommendations,
		InvestmentValue: res.InvestmentValue,
		NextAction:      res.NextAction,
		ConfidenceScore: res.ConfidenceScore,
		CreatedAt:       s.Clock.Now(),
	}

	var update *investments.HealthUpdate
	if actx.Investment != nil && res.HealthScore != nil {
		update = &investments.HealthUpdate{
			ID:           actx.Investment.ID,
			HealthScore:  res.HealthScore,
			Status:       statusFromHealth(res.HealthStatus),
			CurrentValue: res.InvestmentValue,
		}
	}

	if err := s.Committer.Commit(ctx, a, update); err != nil {
		return nil, phaseErr("commit", err)
	}
	return a, nil
}

// recordFailure resets the document to failed and persists the error entry.
// Both writes are best-effort on a detached context so a canceled request
// can't leave the row stuck at processing.
func (s *Service) recordFailure(tenant, documentID string, cause error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.Docs.SetStatus(ctx, tenant, documents.DocumentID(documentID), documents.StatusFailed); err != nil {
		log.Printf("failed to mark document %s failed: %v", documentID, err)
	}
	if s.Errors == nil {
		return
	}
	phase := "other"
	var pe *phaseError
	if errors.As(cause, &pe) {
		phase = pe.phase
	}
	details, _ := json.Marshal(map[string]string{"error": cause.Error()})
	entry := &pipelineerrors.PipelineError{
		TenantID:    tenant,
		DocumentID:  documentID,
		Phase:       phase,
		Message:     cause.Error(),
		DetailsJSON: string(details),
		CreatedAt:   s.Clock.Now(),
	}
	if err := s.Errors.Save(ctx, entry); err != nil {
		log.Printf("failed to persist pipeline error for document %s: %v", documentID, err)
	}
}

// ListAnalyses page hasil analysis terbaru
func (s *Service) ListAnalyses(ctx context.Context, tenant string, page, pageSize int) ([]*domain.Analysis, error) {
	return s.Analyses.Paginate(ctx, tenant, page, pageSize)
}

// LatestByInvestment ambil analysis terakhir untuk 1 investment
func (s *Service) LatestByInvestment(ctx context.Context, tenant string, investmentID string) (*domain.Analysis, error) {
	return s.Analyses.LatestByInvestment(ctx, tenant, investmentID)
}

// ListErrors ambil failure log per document
func (s *Service) ListErrors(ctx context.Context, tenant string, documentID string, limit int) ([]*pipelineerrors.PipelineError, error) {
	if s.Errors == nil {
		return nil, nil
	}
	return s.Errors.ListByDocument(ctx, tenant, documentID, limit)
}

// statusFromHealth maps the model's health_status field onto the
// investment lifecycle
func statusFromHealth(health string) investments.Status {
	switch health {
	case "healthy":
		return investments.StatusActive
	case "watch", "monitoring":
		return investments.StatusMonitoring
	case "at_risk", "critical":
		return investments.StatusAtRisk
	}
	return ""
}

// phaseError tags a pipeline failure with the phase it happened in so the
// persisted error log stays queryable.
type phaseError struct {
	phase string
	err   error
}

func (e *phaseError) Error() string { return fmt.Sprintf("%s: %v", e.phase, e.err) }
func (e *phaseError) Unwrap() error { return e.err }

func phaseErr(phase string, err error) error {
	return &phaseError{phase: phase, err: err}
}
