package pipelineerrors

import "time"

// PipelineError represents a persisted analysis-pipeline failure entry
type PipelineError struct {
	ID          int64     `json:"id"`
	TenantID    string    `json:"tenant_id"`
	DocumentID  string    `json:"document_id"`
	Phase       string    `json:"phase,omitempty"` // fetch | extract | completion | parse | commit
	Message     string    `json:"message"`
	DetailsJSON string    `json:"details_json,omitempty"` // raw JSON string
	CreatedAt   time.Time `json:"created_at"`
}
