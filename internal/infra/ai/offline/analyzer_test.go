package offline

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domai "github.com/oakmontvc/dealdesk/internal/domain/ai"
	"github.com/oakmontvc/dealdesk/internal/domain/analyses"
)

func TestAnalyzeDocument(t *testing.T) {
	a := NewAnalyzer()

	t.Run("output always parses against the schema", func(t *testing.T) {
		raw, err := a.AnalyzeDocument(context.Background(), domai.Request{
			CompanyName:   "Acme",
			DocumentTitle: "Q2 Update",
			DocumentText:  "Revenue: $1.2M ARR. Burn rate $150k/mo. Runway 14 months.",
		})
		require.NoError(t, err)

		res, err := analyses.ParseResult(raw)
		require.NoError(t, err)
		require.NotNil(t, res.HealthScore)
		assert.Equal(t, "$1.2M ARR", res.Metrics.Revenue)
		assert.NotEmpty(t, res.Metrics.Runway)
		assert.Contains(t, res.Assessment, "Acme")
	})

	t.Run("growth language raises the score", func(t *testing.T) {
		up, err := a.AnalyzeDocument(context.Background(), domai.Request{
			DocumentText: "Strong growth this quarter, profitable and ahead of plan.",
		})
		require.NoError(t, err)
		resUp, err := analyses.ParseResult(up)
		require.NoError(t, err)
		assert.Equal(t, "healthy", resUp.HealthStatus)
		assert.Equal(t, "Low", resUp.RiskLevel)
	})

	t.Run("distress language lowers the score", func(t *testing.T) {
		down, err := a.AnalyzeDocument(context.Background(), domai.Request{
			DocumentText: "High churn, a layoff round, and a possible down round. Raising a bridge.",
		})
		require.NoError(t, err)
		resDown, err := analyses.ParseResult(down)
		require.NoError(t, err)
		assert.Equal(t, "at_risk", resDown.HealthStatus)
		assert.Equal(t, "High", resDown.RiskLevel)
	})

	t.Run("empty document still valid", func(t *testing.T) {
		raw, err := a.AnalyzeDocument(context.Background(), domai.Request{})
		require.NoError(t, err)
		_, err = analyses.ParseResult(raw)
		require.NoError(t, err)
	})
}
