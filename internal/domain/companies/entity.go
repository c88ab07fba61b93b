package companies

import "time"

// CompanyID tipe untuk Company
type CompanyID string

// Company represents a portfolio company
type Company struct {
	ID          CompanyID `json:"id"`
	TenantID    string    `json:"tenant_id"`
	Name        string    `json:"name"`
	Sector      string    `json:"sector,omitempty"`
	Stage       string    `json:"stage,omitempty"`
	Website     string    `json:"website,omitempty"`
	FoundedYear int       `json:"founded_year,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}
