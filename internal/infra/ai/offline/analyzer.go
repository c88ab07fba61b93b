package offline

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	domai "github.com/oakmontvc/dealdesk/internal/domain/ai"
)

// Analyzer is a deterministic stand-in for the hosted model, selected with
// ai.provider=offline. It pattern-matches financial figures out of the
// extracted text and emits JSON matching the analysis schema, so the rest of
// the pipeline can run without an API key.
type Analyzer struct{}

func NewAnalyzer() *Analyzer { return &Analyzer{} }

var (
	revenueRe = regexp.MustCompile(`(?i)(?:revenue|arr|mrr)[^\n$€£]{0,40}?([$€£]?\s?[\d.,]+\s?[kmb]?\w*(?:\s?(?:arr|mrr))?)`)
	burnRe    = regexp.MustCompile(`(?i)burn(?:\s?rate)?[^\n$€£]{0,40}?([$€£]?\s?[\d.,]+\s?[kmb]?(?:\s?/\s?mo(?:nth)?)?)`)
	runwayRe  = regexp.MustCompile(`(?i)runway[^\n]{0,40}?(\d+\s?(?:months?|mo|years?|yrs?))`)
)

func (a *Analyzer) AnalyzeDocument(ctx context.Context, req domai.Request) (string, error) {
	text := req.DocumentText
	lower := strings.ToLower(text)

	out := map[string]any{
		"risk_level":       "Medium",
		"health_status":    "monitoring",
		"confidence_score": 0.3,
	}

	metrics := map[string]string{}
	if m := revenueRe.FindStringSubmatch(text); m != nil {
		metrics["revenue"] = strings.TrimSpace(m[1])
	}
	if m := burnRe.FindStringSubmatch(text); m != nil {
		metrics["burn_rate"] = strings.TrimSpace(m[1])
	}
	if m := runwayRe.FindStringSubmatch(text); m != nil {
		metrics["runway"] = strings.TrimSpace(m[1])
	}
	out["extracted_metrics"] = metrics

	// crude signal: growth language vs distress language
	score := 50.0
	for _, w := range []string{"growth", "profitable", "ahead of plan", "oversubscribed"} {
		if strings.Contains(lower, w) {
			score += 10
		}
	}
	for _, w := range []string{"churn", "layoff", "down round", "default", "bridge"} {
		if strings.Contains(lower, w) {
			score -= 10
		}
	}
	if score > 100 {
		score = 100
	}
	if score < 0 {
		score = 0
	}
	out["health_score"] = score

	switch {
	case score >= 70:
		out["health_status"] = "healthy"
		out["risk_level"] = "Low"
	case score >= 40:
		out["health_status"] = "monitoring"
		out["risk_level"] = "Medium"
	default:
		out["health_status"] = "at_risk"
		out["risk_level"] = "High"
	}

	company := req.CompanyName
	if company == "" {
		company = "the company"
	}
	out["ai_assessment"] = fmt.Sprintf(
		"Offline heuristic review of %q for %s. %d metric(s) matched in the document text; treat the score as a placeholder until a hosted model reviews it.",
		req.DocumentTitle, company, len(metrics),
	)
	out["next_action"] = "Re-run with a hosted model for a full analysis"

	b, err := json.Marshal(out)
	if err != nil {
		return "", fmt.Errorf("failed to marshal offline analysis: %w", err)
	}
	return string(b), nil
}
