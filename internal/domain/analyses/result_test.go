package analyses

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseResult(t *testing.T) {
	t.Run("full payload", func(t *testing.T) {
		raw := `{
			"extracted_metrics": {"revenue": "$1.2M ARR", "burn_rate": "$150k/mo", "runway": "14 months"},
			"health_score": 72,
			"health_status": "watch",
			"risk_level": "Medium",
			"ai_assessment": "Solid growth but burn is trending up.",
			"strengths": ["strong founding team"],
			"concerns": ["rising CAC"],
			"opportunities": ["enterprise upsell"],
			"investment_value": 2400000,
			"next_action": "schedule follow-up call",
			"recommendations": ["tighten burn", "raise bridge in Q3"],
			"confidence_score": 0.85
		}`

		res, err := ParseResult(raw)
		require.NoError(t, err)
		require.NotNil(t, res.HealthScore)
		assert.Equal(t, 72.0, *res.HealthScore)
		assert.Equal(t, "watch", res.HealthStatus)
		assert.Equal(t, "Medium", res.RiskLevel)
		assert.Equal(t, "$1.2M ARR", res.Metrics.Revenue)
		assert.Equal(t, []string{"tighten burn", "raise bridge in Q3"}, res.Recommendations)
		require.NotNil(t, res.ConfidenceScore)
		assert.Equal(t, 0.85, *res.ConfidenceScore)
	})

	t.Run("minimal payload", func(t *testing.T) {
		res, err := ParseResult(`{"risk_level": "Low", "ai_assessment": "fine"}`)
		require.NoError(t, err)
		assert.Nil(t, res.HealthScore)
		assert.Empty(t, res.Recommendations)
	})

	t.Run("singular recommendation alias", func(t *testing.T) {
		raw := `{"risk_level": "High", "ai_assessment": "x", "recommendation": ["cut costs"]}`
		res, err := ParseResult(raw)
		require.NoError(t, err)
		assert.Equal(t, []string{"cut costs"}, res.Recommendations)
	})

	t.Run("strategic_recommendations alias", func(t *testing.T) {
		raw := `{"risk_level": "High", "ai_assessment": "x", "strategic_recommendations": ["pivot"]}`
		res, err := ParseResult(raw)
		require.NoError(t, err)
		assert.Equal(t, []string{"pivot"}, res.Recommendations)
	})

	t.Run("canonical field wins over aliases", func(t *testing.T) {
		raw := `{"risk_level": "Low", "ai_assessment": "x",
			"recommendations": ["a"], "recommendation": ["b"], "strategic_recommendations": ["c"]}`
		res, err := ParseResult(raw)
		require.NoError(t, err)
		assert.Equal(t, []string{"a"}, res.Recommendations)
	})

	t.Run("invalid JSON", func(t *testing.T) {
		_, err := ParseResult(`{"risk_level": "Low"`)
		var fe *FormatError
		require.True(t, errors.As(err, &fe))
		assert.Contains(t, fe.Reason, "not valid JSON")
	})

	t.Run("missing risk_level", func(t *testing.T) {
		_, err := ParseResult(`{"ai_assessment": "x"}`)
		var fe *FormatError
		require.True(t, errors.As(err, &fe))
	})

	t.Run("unknown risk_level", func(t *testing.T) {
		_, err := ParseResult(`{"risk_level": "Extreme", "ai_assessment": "x"}`)
		var fe *FormatError
		require.True(t, errors.As(err, &fe))
	})

	t.Run("health_score out of range", func(t *testing.T) {
		_, err := ParseResult(`{"risk_level": "Low", "ai_assessment": "x", "health_score": 140}`)
		var fe *FormatError
		require.True(t, errors.As(err, &fe))
	})

	t.Run("confidence above one", func(t *testing.T) {
		_, err := ParseResult(`{"risk_level": "Low", "ai_assessment": "x", "confidence_score": 1.5}`)
		var fe *FormatError
		require.True(t, errors.As(err, &fe))
	})

	t.Run("unknown health_status", func(t *testing.T) {
		_, err := ParseResult(`{"risk_level": "Low", "ai_assessment": "x", "health_status": "excellent"}`)
		var fe *FormatError
		require.True(t, errors.As(err, &fe))
	})
}
