package analyses

import (
	"encoding/json"
	"fmt"

	"github.com/go-playground/validator/v10"
)

// FormatError classifies a malformed or schema-violating model response.
// Nothing downstream of the parse may run when one of these is returned.
type FormatError struct {
	Reason string
	Err    error
}

func (e *FormatError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("upstream format error: %s: %v", e.Reason, e.Err)
	}
	return "upstream format error: " + e.Reason
}

func (e *FormatError) Unwrap() error { return e.Err }

// Result is the JSON object the model is asked to produce.
type Result struct {
	Metrics         Metrics  `json:"extracted_metrics"`
	HealthScore     *float64 `json:"health_score" validate:"omitempty,gte=0,lte=100"`
	HealthStatus    string   `json:"health_status" validate:"omitempty,oneof=healthy watch monitoring at_risk critical"`
	RiskLevel       string   `json:"risk_level" validate:"required,oneof=Low Medium High Critical"`
	Assessment      string   `json:"ai_assessment" validate:"required"`
	Strengths       []string `json:"strengths"`
	Concerns        []string `json:"concerns"`
	Opportunities   []string `json:"opportunities"`
	InvestmentValue *float64 `json:"investment_value" validate:"omitempty,gte=0"`
	NextAction      string   `json:"next_action"`
	Recommendations []string `json:"recommendations"`
	ConfidenceScore *float64 `json:"confidence_score" validate:"omitempty,gte=0,lte=1"`
}

var validate = validator.New()

// ParseResult decodes and strictly validates a raw model response before any
// field is allowed to touch investment state. Historical responses used the
// singular "recommendation" and "strategic_recommendations" for the same
// field; both are accepted and folded into Recommendations.
func ParseResult(raw string) (*Result, error) {
	var res Result
	if err := json.Unmarshal([]byte(raw), &res); err != nil {
		return nil, &FormatError{Reason: "response is not valid JSON", Err: err}
	}

	if len(res.Recommendations) == 0 {
		var aliases struct {
			Recommendation []string `json:"recommendation"`
			Strategic      []string `json:"strategic_recommendations"`
		}
		// alias decode failures are ignored; the canonical field already parsed
		if err := json.Unmarshal([]byte(raw), &aliases); err == nil {
			if len(aliases.Strategic) > 0 {
				res.Recommendations = aliases.Strategic
			} else if len(aliases.Recommendation) > 0 {
				res.Recommendations = aliases.Recommendation
			}
		}
	}

	if err := validate.Struct(&res); err != nil {
		return nil, &FormatError{Reason: "response violates the analysis schema", Err: err}
	}
	return &res, nil
}
