package analyses

import "time"

// AnalysisID identifier type
type AnalysisID string

// Metrics holds the free-form figures the model extracted from the document
type Metrics struct {
	Revenue  string `json:"revenue,omitempty"`
	BurnRate string `json:"burn_rate,omitempty"`
	Runway   string `json:"runway,omitempty"`
}

// Analysis represents one persisted AI analysis run over one document.
// Rows are append-only; re-running a document inserts a new row.
type Analysis struct {
	ID              AnalysisID `json:"id"`
	TenantID        string     `json:"tenant_id"`
	DocumentID      string     `json:"document_id"`
	InvestmentID    string     `json:"investment_id,omitempty"`
	Metrics         Metrics    `json:"extracted_metrics"`
	HealthScore     *float64   `json:"health_score,omitempty"`
	HealthStatus    string     `json:"health_status,omitempty"`
	RiskLevel       string     `json:"risk_level"`
	Assessment      string     `json:"ai_assessment"`
	Strengths       []string   `json:"strengths,omitempty"`
	Concerns        []string   `json:"concerns,omitempty"`
	Opportunities   []string   `json:"opportunities,omitempty"`
	Recommendations []string   `json:"recommendations,omitempty"`
	InvestmentValue *float64   `json:"investment_value,omitempty"`
	NextAction      string     `json:"next_action,omitempty"`
	ConfidenceScore *float64   `json:"confidence_score,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}
