package documents

import (
	"time"
)

// ID tipe untuk Document
type DocumentID string

// AnalysisStatus enum
type AnalysisStatus string

const (
	StatusPending    AnalysisStatus = "pending"
	StatusProcessing AnalysisStatus = "processing"
	StatusCompleted  AnalysisStatus = "completed"
	StatusFailed     AnalysisStatus = "failed"
)

// Aggregate Root: Document (an uploaded file tracked through the
// analysis-status lifecycle)
type Document struct {
	ID             DocumentID     `json:"id"`
	TenantID       string         `json:"tenant_id"`
	InvestmentID   string         `json:"investment_id,omitempty"`
	DealID         string         `json:"deal_id,omitempty"` // legacy deal-document path
	Title          string         `json:"title"`
	FileName       string         `json:"file_name"`
	FileType       string         `json:"file_type,omitempty"`
	FileSize       int64          `json:"file_size"`
	StorageKey     string         `json:"storage_key"`
	FileURL        string         `json:"file_url"`
	AnalysisStatus AnalysisStatus `json:"analysis_status"`
	UploadedAt     time.Time      `json:"uploaded_at"`
}
