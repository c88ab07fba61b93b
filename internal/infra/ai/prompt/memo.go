package prompt

import (
	"fmt"
	"strings"

	"github.com/oakmontvc/dealdesk/internal/domain/ai"
	"github.com/oakmontvc/dealdesk/internal/infra/extract"
)

// maxPromptTextChars caps how much extracted document text is embedded in the prompt.
const maxPromptTextChars = 20000

// GetSystemPrompt provides strict directions and schema for JSON output.
func GetSystemPrompt() string {
	return `You are a senior venture capital analyst reviewing a portfolio company document. You must produce one valid JSON object only (no markdown, no commentary) that follows the schema below. Do not include code fences.

Requirements:
- Output must be a single JSON object.
- health_score is a number between 0 and 100 estimating the company's operating condition; omit it if the document gives no basis for one.
- health_status is one of: healthy, watch, monitoring, at_risk, critical.
- risk_level is one of: Low, Medium, High, Critical.
- investment_value, when present, is a conservative estimate of the position's current value in the same currency as the original investment.
- confidence_score is a number between 0 and 1.
- Keep list items concise; omit empty lists rather than inventing content.

Schema (example with empty values):
{
  "extracted_metrics": {"revenue": "<string>", "burn_rate": "<string>", "runway": "<string>"},
  "health_score": 0,
  "health_status": "<healthy|watch|monitoring|at_risk|critical>",
  "risk_level": "<Low|Medium|High|Critical>",
  "ai_assessment": "<string>",
  "strengths": ["<string>"],
  "concerns": ["<string>"],
  "opportunities": ["<string>"],
  "investment_value": 0,
  "next_action": "<string>",
  "recommendations": ["<string>"],
  "confidence_score": 0
}`
}

// GetUserPrompt interpolates the investment context and the extracted text.
func GetUserPrompt(req ai.Request) string {
	var b strings.Builder

	b.WriteString("Analyze the following portfolio company document and respond with the JSON per schema.\n\n")
	if req.CompanyName != "" {
		fmt.Fprintf(&b, "Company: %s\n", req.CompanyName)
	}
	if !req.InvestedAt.IsZero() {
		fmt.Fprintf(&b, "Investment date: %s\n", req.InvestedAt.Format("2006-01-02"))
	}
	if req.Amount > 0 {
		fmt.Fprintf(&b, "Amount invested: %.2f\n", req.Amount)
	}
	if req.RoundType != "" {
		fmt.Fprintf(&b, "Round: %s\n", req.RoundType)
	}
	if req.Valuation > 0 {
		fmt.Fprintf(&b, "Valuation at investment: %.2f\n", req.Valuation)
	}
	if req.Thesis != "" {
		fmt.Fprintf(&b, "Investment thesis: %s\n", req.Thesis)
	}
	if req.DocumentTitle != "" {
		fmt.Fprintf(&b, "Document: %s\n", req.DocumentTitle)
	}

	b.WriteString("\nDocument text:\n")
	b.WriteString(extract.Truncate(req.DocumentText, maxPromptTextChars))
	return b.String()
}
