package httpserver

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	appanalysis "github.com/oakmontvc/dealdesk/internal/application/analysis"
	appdocs "github.com/oakmontvc/dealdesk/internal/application/documents"
	appportfolio "github.com/oakmontvc/dealdesk/internal/application/portfolio"
	domai "github.com/oakmontvc/dealdesk/internal/domain/ai"
	"github.com/oakmontvc/dealdesk/internal/domain/analyses"
	"github.com/oakmontvc/dealdesk/internal/domain/companies"
	domdocs "github.com/oakmontvc/dealdesk/internal/domain/documents"
	"github.com/oakmontvc/dealdesk/internal/domain/investments"
	"github.com/oakmontvc/dealdesk/internal/middleware"
)

// maxUploadBytes caps multipart uploads held in memory before spooling to disk.
const maxUploadBytes = 32 << 20 // 32 MiB

type Router struct {
	docsSvc      *appdocs.Service
	analysisSvc  *appanalysis.Service
	portfolioSvc *appportfolio.Service
}

func NewRouter(docsSvc *appdocs.Service, analysisSvc *appanalysis.Service, portfolioSvc *appportfolio.Service, checkers map[string]middleware.HealthChecker) http.Handler {
	r := &Router{docsSvc: docsSvc, analysisSvc: analysisSvc, portfolioSvc: portfolioSvc}
	mux := chi.NewRouter()

	mux.Get("/health", middleware.HealthHandler(checkers))
	mux.Get("/ready", middleware.ReadinessHandler)
	mux.Get("/live", middleware.LivenessHandler)
	mux.Get("/metrics", middleware.MetricsHandler)

	mux.Route("/v1/{tenant}", func(rt chi.Router) {
		rt.Use(middleware.RequireValidTenant)

		rt.Post("/documents", r.wrap(r.handleUploadDocument))
		rt.Get("/documents/{id}", r.wrap(r.handleGetDocument))
		rt.Get("/documents", r.wrap(r.handleListDocuments))

		rt.Post("/analyses", r.wrap(r.handleAnalyze))
		rt.Get("/analyses", r.wrap(r.handleListAnalyses))
		rt.Get("/analyses/latest", r.wrap(r.handleLatestAnalysis))
		rt.Get("/analyses/errors", r.wrap(r.handleListPipelineErrors))

		rt.Post("/companies", r.wrap(r.handleCreateCompany))
		rt.Get("/companies/{id}", r.wrap(r.handleGetCompany))
		rt.Get("/companies", r.wrap(r.handleListCompanies))

		rt.Post("/investments", r.wrap(r.handleCreateInvestment))
		rt.Get("/investments/cursor", r.wrap(r.handleCursorInvestments))
		rt.Get("/investments/{id}", r.wrap(r.handleGetInvestment))
		rt.Get("/investments", r.wrap(r.handleListInvestments))

		rt.Get("/summary", r.wrap(r.handleSummary))
	})

	return mux
}

type handlerFunc func(http.ResponseWriter, *http.Request) error

// badRequestError marks caller mistakes so wrap can answer 400 instead of 500
type badRequestError struct{ msg string }

func (e *badRequestError) Error() string { return e.msg }

func badRequest(format string, args ...any) error {
	return &badRequestError{msg: fmt.Sprintf(format, args...)}
}

func (r *Router) wrap(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		if err := h(w, req); err != nil {
			var badReq *badRequestError
			var formatErr *analyses.FormatError
			switch {
			case errors.As(err, &badReq):
				writeError(w, http.StatusBadRequest, err)
			case errors.Is(err, domdocs.ErrNotFound), errors.Is(err, sql.ErrNoRows):
				writeError(w, http.StatusNotFound, errors.New("not found"))
			case errors.Is(err, domdocs.ErrAnalysisInProgress):
				writeError(w, http.StatusConflict, err)
			case errors.Is(err, domai.ErrQuotaExceeded):
				writeError(w, http.StatusTooManyRequests, errors.New("ai quota exceeded"))
			case errors.As(err, &formatErr):
				writeError(w, http.StatusBadGateway, err)
			default:
				writeError(w, http.StatusInternalServerError, err)
			}
		}
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, v any) error {
	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(v)
}

// POST /v1/{tenant}/documents (multipart: file, investment_id | deal_id, title)
func (r *Router) handleUploadDocument(w http.ResponseWriter, req *http.Request) error {
	tenant := chi.URLParam(req, "tenant")

	if err := req.ParseMultipartForm(maxUploadBytes); err != nil {
		return badRequest("invalid multipart body: %v", err)
	}
	file, header, err := req.FormFile("file")
	if err != nil {
		return badRequest("file is required")
	}
	defer file.Close()

	doc, err := r.docsSvc.Upload(req.Context(), appdocs.UploadCommand{
		TenantID:     tenant,
		InvestmentID: req.FormValue("investment_id"),
		DealID:       req.FormValue("deal_id"),
		Title:        req.FormValue("title"),
		FileName:     header.Filename,
		ContentType:  header.Header.Get("Content-Type"),
		Size:         header.Size,
		Body:         file,
	})
	if err != nil {
		return err
	}
	w.WriteHeader(http.StatusCreated)
	return writeJSON(w, doc)
}

// GET /v1/{tenant}/documents/{id}
func (r *Router) handleGetDocument(w http.ResponseWriter, req *http.Request) error {
	tenant := chi.URLParam(req, "tenant")
	id := chi.URLParam(req, "id")

	doc, err := r.docsSvc.Get(req.Context(), tenant, domdocs.DocumentID(id))
	if err != nil {
		return err
	}
	return writeJSON(w, doc)
}

// GET /v1/{tenant}/documents?investment_id=&page=&page_size=
func (r *Router) handleListDocuments(w http.ResponseWriter, req *http.Request) error {
	tenant := chi.URLParam(req, "tenant")
	page, _ := strconv.Atoi(req.URL.Query().Get("page"))
	size, _ := strconv.Atoi(req.URL.Query().Get("page_size"))

	list, err := r.docsSvc.List(req.Context(), tenant, req.URL.Query().Get("investment_id"), page, size)
	if err != nil {
		return err
	}
	return writeJSON(w, list)
}

// POST /v1/{tenant}/analyses
// Body: {"document_id": "<id>"}
// Runs the whole pipeline synchronously; the LLM call can take tens of
// seconds, which is why the server's write timeout is generous.
func (r *Router) handleAnalyze(w http.ResponseWriter, req *http.Request) error {
	tenant := chi.URLParam(req, "tenant")
	var body struct {
		DocumentID string `json:"document_id"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		return badRequest("invalid JSON body: %v", err)
	}
	if err := middleware.ValidateDocumentID(body.DocumentID); err != nil {
		return badRequest("%v", err)
	}

	middleware.IncrementAnalyses()
	middleware.IncrementAnalysesRunning()
	defer middleware.DecrementAnalysesRunning()

	a, err := r.analysisSvc.Analyze(req.Context(), tenant, domdocs.DocumentID(body.DocumentID))
	if err != nil {
		middleware.IncrementAnalysesFailed()
		return err
	}
	return writeJSON(w, map[string]any{"success": true, "analysis": a})
}

// GET /v1/{tenant}/analyses?page=&page_size=
func (r *Router) handleListAnalyses(w http.ResponseWriter, req *http.Request) error {
	tenant := chi.URLParam(req, "tenant")
	page, _ := strconv.Atoi(req.URL.Query().Get("page"))
	size, _ := strconv.Atoi(req.URL.Query().Get("page_size"))

	list, err := r.analysisSvc.ListAnalyses(req.Context(), tenant, page, size)
	if err != nil {
		return err
	}
	return writeJSON(w, list)
}

// GET /v1/{tenant}/analyses/latest?investment_id=
func (r *Router) handleLatestAnalysis(w http.ResponseWriter, req *http.Request) error {
	tenant := chi.URLParam(req, "tenant")
	investmentID := req.URL.Query().Get("investment_id")
	if investmentID == "" {
		return badRequest("investment_id is required")
	}

	a, err := r.analysisSvc.LatestByInvestment(req.Context(), tenant, investmentID)
	if err != nil {
		return err
	}
	if a == nil {
		return domdocs.ErrNotFound
	}
	return writeJSON(w, a)
}

// GET /v1/{tenant}/analyses/errors?document_id=&limit=
func (r *Router) handleListPipelineErrors(w http.ResponseWriter, req *http.Request) error {
	tenant := chi.URLParam(req, "tenant")
	documentID := req.URL.Query().Get("document_id")
	if documentID == "" {
		return badRequest("document_id is required")
	}
	limit, _ := strconv.Atoi(req.URL.Query().Get("limit"))
	limit = middleware.ValidateLimit(limit, 50)

	list, err := r.analysisSvc.ListErrors(req.Context(), tenant, documentID, limit)
	if err != nil {
		return err
	}
	return writeJSON(w, list)
}

// POST /v1/{tenant}/companies
func (r *Router) handleCreateCompany(w http.ResponseWriter, req *http.Request) error {
	tenant := chi.URLParam(req, "tenant")
	var body struct {
		Name        string `json:"name"`
		Sector      string `json:"sector"`
		Stage       string `json:"stage"`
		Website     string `json:"website"`
		FoundedYear int    `json:"founded_year"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		return badRequest("invalid JSON body: %v", err)
	}
	if body.Name == "" {
		return badRequest("name is required")
	}

	c, err := r.portfolioSvc.CreateCompany(req.Context(), appportfolio.CreateCompanyCommand{
		TenantID:    tenant,
		Name:        body.Name,
		Sector:      body.Sector,
		Stage:       body.Stage,
		Website:     body.Website,
		FoundedYear: body.FoundedYear,
	})
	if err != nil {
		return err
	}
	w.WriteHeader(http.StatusCreated)
	return writeJSON(w, c)
}

// GET /v1/{tenant}/companies/{id}
func (r *Router) handleGetCompany(w http.ResponseWriter, req *http.Request) error {
	tenant := chi.URLParam(req, "tenant")
	id := chi.URLParam(req, "id")

	c, err := r.portfolioSvc.GetCompany(req.Context(), tenant, companies.CompanyID(id))
	if err != nil {
		return err
	}
	return writeJSON(w, c)
}

// GET /v1/{tenant}/companies?limit=
func (r *Router) handleListCompanies(w http.ResponseWriter, req *http.Request) error {
	tenant := chi.URLParam(req, "tenant")
	limit, _ := strconv.Atoi(req.URL.Query().Get("limit"))
	limit = middleware.ValidateLimit(limit, 100)

	list, err := r.portfolioSvc.ListCompanies(req.Context(), tenant, limit)
	if err != nil {
		return err
	}
	return writeJSON(w, list)
}

// POST /v1/{tenant}/investments
func (r *Router) handleCreateInvestment(w http.ResponseWriter, req *http.Request) error {
	tenant := chi.URLParam(req, "tenant")
	var body struct {
		CompanyID    string    `json:"company_id"`
		RoundType    string    `json:"round_type"`
		Amount       float64   `json:"amount"`
		CurrentValue float64   `json:"current_value"`
		Valuation    float64   `json:"valuation"`
		InvestedAt   time.Time `json:"invested_at"`
		Thesis       string    `json:"thesis"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		return badRequest("invalid JSON body: %v", err)
	}
	if body.CompanyID == "" {
		return badRequest("company_id is required")
	}
	if body.Amount <= 0 {
		return badRequest("amount must be positive")
	}

	inv, err := r.portfolioSvc.CreateInvestment(req.Context(), appportfolio.CreateInvestmentCommand{
		TenantID:     tenant,
		CompanyID:    body.CompanyID,
		RoundType:    body.RoundType,
		Amount:       body.Amount,
		CurrentValue: body.CurrentValue,
		Valuation:    body.Valuation,
		InvestedAt:   body.InvestedAt,
		Thesis:       body.Thesis,
	})
	if err != nil {
		return err
	}
	w.WriteHeader(http.StatusCreated)
	return writeJSON(w, inv)
}

// GET /v1/{tenant}/investments/{id}
func (r *Router) handleGetInvestment(w http.ResponseWriter, req *http.Request) error {
	tenant := chi.URLParam(req, "tenant")
	id := chi.URLParam(req, "id")

	inv, err := r.portfolioSvc.GetInvestment(req.Context(), tenant, investments.InvestmentID(id))
	if err != nil {
		return err
	}
	return writeJSON(w, inv)
}

// GET /v1/{tenant}/investments?page=&page_size=&status=&company_id=
func (r *Router) handleListInvestments(w http.ResponseWriter, req *http.Request) error {
	tenant := chi.URLParam(req, "tenant")
	page, _ := strconv.Atoi(req.URL.Query().Get("page"))
	size, _ := strconv.Atoi(req.URL.Query().Get("page_size"))

	result, err := r.portfolioSvc.PaginateInvestments(req.Context(), tenant, page, size, investments.ListFilter{
		Status:    req.URL.Query().Get("status"),
		CompanyID: req.URL.Query().Get("company_id"),
	})
	if err != nil {
		return err
	}
	return writeJSON(w, result)
}

// GET /v1/{tenant}/investments/cursor?after_time=&after_id=&page_size=
// Keyset variant for infinite scroll; after_time/after_id come from the last
// row of the previous page. Empty cursor starts from the newest row.
func (r *Router) handleCursorInvestments(w http.ResponseWriter, req *http.Request) error {
	tenant := chi.URLParam(req, "tenant")
	size, _ := strconv.Atoi(req.URL.Query().Get("page_size"))

	cursorTime := time.Now()
	if raw := req.URL.Query().Get("after_time"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return badRequest("after_time must be RFC3339: %v", err)
		}
		cursorTime = t
	}

	list, err := r.portfolioSvc.CursorInvestments(req.Context(), tenant, cursorTime, req.URL.Query().Get("after_id"), size)
	if err != nil {
		return err
	}
	return writeJSON(w, map[string]any{"data": list})
}

// GET /v1/{tenant}/summary?days=30
func (r *Router) handleSummary(w http.ResponseWriter, req *http.Request) error {
	tenant := chi.URLParam(req, "tenant")
	days, _ := strconv.Atoi(req.URL.Query().Get("days"))

	summary, err := r.portfolioSvc.Summary(req.Context(), tenant, days)
	if err != nil {
		return err
	}
	return writeJSON(w, summary)
}
