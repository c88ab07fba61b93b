package investments

import (
	"time"
)

// ID tipe untuk Investment
type InvestmentID string

// Status enum (lifecycle of a position)
type Status string

const (
	StatusActive     Status = "active"
	StatusMonitoring Status = "monitoring"
	StatusAtRisk     Status = "at_risk"
	StatusExited     Status = "exited"
)

// Aggregate Root: Investment
type Investment struct {
	ID            InvestmentID `json:"id"`
	TenantID      string       `json:"tenant_id"`
	CompanyID     string       `json:"company_id"`
	RoundType     string       `json:"round_type,omitempty"`
	Amount        float64      `json:"amount"`
	CurrentValue  float64      `json:"current_value"`
	Valuation     float64      `json:"valuation,omitempty"`
	InvestedAt    time.Time    `json:"invested_at"`
	Thesis        string       `json:"thesis,omitempty"`
	AIHealthScore *float64     `json:"ai_health_score,omitempty"`
	Status        Status       `json:"status"`
	CreatedAt     time.Time    `json:"created_at"`
}

// HealthUpdate carries the fields the analysis pipeline is allowed to
// overwrite on an investment. Nil pointers mean "leave as is".
type HealthUpdate struct {
	ID           InvestmentID
	HealthScore  *float64
	Status       Status
	CurrentValue *float64
}
