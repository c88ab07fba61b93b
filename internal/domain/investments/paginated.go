package investments

// PaginatedResult represents a paginated response with data and metadata
type PaginatedResult struct {
	Data       []*Investment `json:"data"`
	Page       int           `json:"page"`
	PageSize   int           `json:"pageSize"`
	Total      int64         `json:"totalItems"`
	TotalPages int           `json:"totalPages"`
}

// Summary is the portfolio roll-up shown on the dashboard
type Summary struct {
	TotalInvestments int     `json:"total_investments"`
	TotalInvested    float64 `json:"total_invested"`
	TotalValue       float64 `json:"total_value"`
	AvgHealthScore   float64 `json:"avg_health_score"`
	Active           int     `json:"active"`
	Monitoring       int     `json:"monitoring"`
	AtRisk           int     `json:"at_risk"`
}
