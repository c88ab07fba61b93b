package ai

import (
	"context"
	"time"
)

// Request carries the investment context and extracted document text the
// prompt is built from.
type Request struct {
	CompanyName   string
	RoundType     string
	Amount        float64
	Valuation     float64
	InvestedAt    time.Time
	Thesis        string
	DocumentTitle string
	DocumentText  string
}

// Client produces one raw JSON analysis payload per request.
type Client interface {
	AnalyzeDocument(ctx context.Context, req Request) (string, error)
}
