package analysis

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oakmontvc/dealdesk/internal/domain/ai"
	"github.com/oakmontvc/dealdesk/internal/domain/analyses"
	"github.com/oakmontvc/dealdesk/internal/domain/companies"
	"github.com/oakmontvc/dealdesk/internal/domain/documents"
	"github.com/oakmontvc/dealdesk/internal/domain/investments"
	"github.com/oakmontvc/dealdesk/internal/domain/pipelineerrors"
)

//
// ==== FAKES ====
//

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

type fakeDocRepo struct {
	ctx        *documents.AnalysisContext
	getErr     error
	claimErr   error
	claimed    []string
	statuses   map[string]documents.AnalysisStatus
	statusErrs error
}

func (f *fakeDocRepo) Save(ctx context.Context, d *documents.Document) error { return nil }

func (f *fakeDocRepo) Get(ctx context.Context, tenant string, id documents.DocumentID) (*documents.Document, error) {
	return nil, documents.ErrNotFound
}

func (f *fakeDocRepo) GetForAnalysis(ctx context.Context, tenant string, id documents.DocumentID) (*documents.AnalysisContext, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.ctx, nil
}

func (f *fakeDocRepo) Paginate(ctx context.Context, tenant string, investmentID string, page, pageSize int) ([]*documents.Document, error) {
	return nil, nil
}

func (f *fakeDocRepo) Claim(ctx context.Context, tenant string, id documents.DocumentID) error {
	if f.claimErr != nil {
		return f.claimErr
	}
	f.claimed = append(f.claimed, string(id))
	return nil
}

func (f *fakeDocRepo) SetStatus(ctx context.Context, tenant string, id documents.DocumentID, status documents.AnalysisStatus) error {
	if f.statusErrs != nil {
		return f.statusErrs
	}
	if f.statuses == nil {
		f.statuses = make(map[string]documents.AnalysisStatus)
	}
	f.statuses[string(id)] = status
	return nil
}

func (f *fakeDocRepo) CountAnalyzedSince(ctx context.Context, tenant string, since time.Time) (int, error) {
	return 0, nil
}

type fakeFetcher struct {
	body []byte
	ct   string
	err  error
	url  string
}

func (f *fakeFetcher) Fetch(ctx context.Context, url string) ([]byte, string, error) {
	f.url = url
	return f.body, f.ct, f.err
}

type fakeExtractor struct {
	text string
	err  error
}

func (f *fakeExtractor) Extract(ctx context.Context, data []byte, fileName, contentType string) (string, error) {
	return f.text, f.err
}

type fakeAI struct {
	raw string
	err error
	req ai.Request
}

func (f *fakeAI) AnalyzeDocument(ctx context.Context, req ai.Request) (string, error) {
	f.req = req
	return f.raw, f.err
}

type fakeAnalysisRepo struct{}

func (fakeAnalysisRepo) Paginate(ctx context.Context, tenant string, page, pageSize int) ([]*analyses.Analysis, error) {
	return nil, nil
}

func (fakeAnalysisRepo) LatestByInvestment(ctx context.Context, tenant, investmentID string) (*analyses.Analysis, error) {
	return nil, nil
}

func (fakeAnalysisRepo) LatestByDocument(ctx context.Context, tenant, documentID string) (*analyses.Analysis, error) {
	return nil, nil
}

type fakeCommitter struct {
	analysis *analyses.Analysis
	update   *investments.HealthUpdate
	err      error
}

func (f *fakeCommitter) Commit(ctx context.Context, a *analyses.Analysis, u *investments.HealthUpdate) error {
	if f.err != nil {
		return f.err
	}
	f.analysis = a
	f.update = u
	return nil
}

type fakeErrRepo struct {
	saved []*pipelineerrors.PipelineError
}

func (f *fakeErrRepo) Save(ctx context.Context, e *pipelineerrors.PipelineError) error {
	f.saved = append(f.saved, e)
	return nil
}

func (f *fakeErrRepo) ListByDocument(ctx context.Context, tenant, documentID string, limit int) ([]*pipelineerrors.PipelineError, error) {
	return f.saved, nil
}

//
// ==== TESTS ====
//

const validResponse = `{
	"extracted_metrics": {"revenue": "$1M ARR"},
	"health_score": 80,
	"health_status": "healthy",
	"risk_level": "Low",
	"ai_assessment": "Performing well.",
	"recommendations": ["double down"]
}`

func analysisContext() *documents.AnalysisContext {
	return &documents.AnalysisContext{
		Document: &documents.Document{
			ID:           "doc-1",
			TenantID:     "acme-fund",
			InvestmentID: "inv-1",
			Title:        "Q2 Board Deck",
			FileName:     "deck.pdf",
			FileType:     "application/pdf",
			FileURL:      "http://blobs.local/acme-fund/documents/doc-1/deck.pdf",
		},
		Investment: &investments.Investment{
			ID:        "inv-1",
			TenantID:  "acme-fund",
			CompanyID: "co-1",
			RoundType: "seed",
			Amount:    500000,
			Valuation: 5000000,
			Thesis:    "dev tools land-and-expand",
		},
		Company: &companies.Company{ID: "co-1", Name: "Acme"},
	}
}

func newService(docs *fakeDocRepo, fetcher *fakeFetcher, ext *fakeExtractor, client *fakeAI, committer *fakeCommitter, errs *fakeErrRepo) *Service {
	return &Service{
		Docs:      docs,
		Fetcher:   fetcher,
		Extractor: ext,
		AI:        client,
		Analyses:  fakeAnalysisRepo{},
		Committer: committer,
		Errors:    errs,
		Clock:     fixedClock{t: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)},
	}
}

func TestAnalyze(t *testing.T) {
	t.Run("success commits analysis and health update", func(t *testing.T) {
		docs := &fakeDocRepo{ctx: analysisContext()}
		fetcher := &fakeFetcher{body: []byte("%PDF"), ct: "application/pdf"}
		ext := &fakeExtractor{text: "revenue grew 30% quarter over quarter"}
		client := &fakeAI{raw: validResponse}
		committer := &fakeCommitter{}
		errs := &fakeErrRepo{}
		svc := newService(docs, fetcher, ext, client, committer, errs)

		a, err := svc.Analyze(context.Background(), "acme-fund", "doc-1")
		require.NoError(t, err)
		require.NotNil(t, a)

		assert.Equal(t, []string{"doc-1"}, docs.claimed)
		assert.Equal(t, "http://blobs.local/acme-fund/documents/doc-1/deck.pdf", fetcher.url)

		// prompt carries the investment context
		assert.Equal(t, "Acme", client.req.CompanyName)
		assert.Equal(t, "seed", client.req.RoundType)
		assert.Equal(t, "Q2 Board Deck", client.req.DocumentTitle)
		assert.Contains(t, client.req.DocumentText, "revenue grew")

		require.NotNil(t, committer.analysis)
		assert.Equal(t, "acme-fund", committer.analysis.TenantID)
		assert.Equal(t, "doc-1", committer.analysis.DocumentID)
		assert.Equal(t, "inv-1", committer.analysis.InvestmentID)
		require.NotNil(t, committer.analysis.HealthScore)
		assert.Equal(t, 80.0, *committer.analysis.HealthScore)

		require.NotNil(t, committer.update)
		assert.Equal(t, investments.InvestmentID("inv-1"), committer.update.ID)
		assert.Equal(t, investments.StatusActive, committer.update.Status)

		assert.Empty(t, errs.saved)
		assert.Empty(t, docs.statuses)
	})

	t.Run("document without investment skips health update", func(t *testing.T) {
		actx := analysisContext()
		actx.Document.InvestmentID = ""
		actx.Document.DealID = "deal-7"
		actx.Investment = nil
		actx.Company = nil
		docs := &fakeDocRepo{ctx: actx}
		committer := &fakeCommitter{}
		svc := newService(docs, &fakeFetcher{body: []byte("x")}, &fakeExtractor{text: "memo"}, &fakeAI{raw: validResponse}, committer, &fakeErrRepo{})

		_, err := svc.Analyze(context.Background(), "acme-fund", "doc-1")
		require.NoError(t, err)
		require.NotNil(t, committer.analysis)
		assert.Nil(t, committer.update)
	})

	t.Run("response without health score skips health update", func(t *testing.T) {
		docs := &fakeDocRepo{ctx: analysisContext()}
		committer := &fakeCommitter{}
		raw := `{"risk_level": "Medium", "ai_assessment": "unclear"}`
		svc := newService(docs, &fakeFetcher{body: []byte("x")}, &fakeExtractor{text: "memo"}, &fakeAI{raw: raw}, committer, &fakeErrRepo{})

		_, err := svc.Analyze(context.Background(), "acme-fund", "doc-1")
		require.NoError(t, err)
		assert.Nil(t, committer.update)
	})

	t.Run("missing document leaves nothing behind", func(t *testing.T) {
		docs := &fakeDocRepo{getErr: documents.ErrNotFound}
		errs := &fakeErrRepo{}
		svc := newService(docs, &fakeFetcher{}, &fakeExtractor{}, &fakeAI{}, &fakeCommitter{}, errs)

		_, err := svc.Analyze(context.Background(), "acme-fund", "doc-1")
		assert.ErrorIs(t, err, documents.ErrNotFound)
		assert.Empty(t, docs.claimed)
		assert.Empty(t, docs.statuses)
		assert.Empty(t, errs.saved)
	})

	t.Run("concurrent claim conflict", func(t *testing.T) {
		docs := &fakeDocRepo{ctx: analysisContext(), claimErr: documents.ErrAnalysisInProgress}
		errs := &fakeErrRepo{}
		svc := newService(docs, &fakeFetcher{}, &fakeExtractor{}, &fakeAI{}, &fakeCommitter{}, errs)

		_, err := svc.Analyze(context.Background(), "acme-fund", "doc-1")
		assert.ErrorIs(t, err, documents.ErrAnalysisInProgress)
		// a lost claim must not flip the winner's row to failed
		assert.Empty(t, docs.statuses)
		assert.Empty(t, errs.saved)
	})

	t.Run("fetch failure marks document failed", func(t *testing.T) {
		docs := &fakeDocRepo{ctx: analysisContext()}
		errs := &fakeErrRepo{}
		svc := newService(docs, &fakeFetcher{err: fmt.Errorf("status 503")}, &fakeExtractor{}, &fakeAI{}, &fakeCommitter{}, errs)

		_, err := svc.Analyze(context.Background(), "acme-fund", "doc-1")
		require.Error(t, err)
		assert.Equal(t, documents.StatusFailed, docs.statuses["doc-1"])
		require.Len(t, errs.saved, 1)
		assert.Equal(t, "fetch", errs.saved[0].Phase)
	})

	t.Run("malformed model response marks document failed", func(t *testing.T) {
		docs := &fakeDocRepo{ctx: analysisContext()}
		committer := &fakeCommitter{}
		errs := &fakeErrRepo{}
		svc := newService(docs, &fakeFetcher{body: []byte("x")}, &fakeExtractor{text: "memo"}, &fakeAI{raw: "I think this company is doing great!"}, committer, errs)

		_, err := svc.Analyze(context.Background(), "acme-fund", "doc-1")
		var fe *analyses.FormatError
		require.True(t, errors.As(err, &fe))
		assert.Nil(t, committer.analysis)
		assert.Equal(t, documents.StatusFailed, docs.statuses["doc-1"])
		require.Len(t, errs.saved, 1)
		assert.Equal(t, "parse", errs.saved[0].Phase)
	})

	t.Run("quota error surfaces unchanged", func(t *testing.T) {
		docs := &fakeDocRepo{ctx: analysisContext()}
		svc := newService(docs, &fakeFetcher{body: []byte("x")}, &fakeExtractor{text: "memo"}, &fakeAI{err: ai.ErrQuotaExceeded}, &fakeCommitter{}, &fakeErrRepo{})

		_, err := svc.Analyze(context.Background(), "acme-fund", "doc-1")
		assert.ErrorIs(t, err, ai.ErrQuotaExceeded)
		assert.Equal(t, documents.StatusFailed, docs.statuses["doc-1"])
	})

	t.Run("commit failure recorded with phase", func(t *testing.T) {
		docs := &fakeDocRepo{ctx: analysisContext()}
		errs := &fakeErrRepo{}
		svc := newService(docs, &fakeFetcher{body: []byte("x")}, &fakeExtractor{text: "memo"}, &fakeAI{raw: validResponse}, &fakeCommitter{err: fmt.Errorf("deadlock")}, errs)

		_, err := svc.Analyze(context.Background(), "acme-fund", "doc-1")
		require.Error(t, err)
		require.Len(t, errs.saved, 1)
		assert.Equal(t, "commit", errs.saved[0].Phase)
	})
}

func TestStatusFromHealth(t *testing.T) {
	cases := map[string]investments.Status{
		"healthy":    investments.StatusActive,
		"watch":      investments.StatusMonitoring,
		"monitoring": investments.StatusMonitoring,
		"at_risk":    investments.StatusAtRisk,
		"critical":   investments.StatusAtRisk,
		"":           "",
		"unknown":    "",
	}
	for in, want := range cases {
		assert.Equal(t, want, statusFromHealth(in), "health_status %q", in)
	}
}
