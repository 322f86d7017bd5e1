package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRiskLevel(t *testing.T) {
	tests := []struct {
		name   string
		counts map[Severity]int
		want   string
	}{
		{"one critical", map[Severity]int{SeverityCritical: 1}, "critical"},
		{"three high", map[Severity]int{SeverityHigh: 3}, "critical"},
		{"one high", map[Severity]int{SeverityHigh: 1}, "high"},
		{"three medium", map[Severity]int{SeverityMedium: 3}, "high"},
		{"one medium", map[Severity]int{SeverityMedium: 1}, "medium"},
		{"only low", map[Severity]int{SeverityLow: 5}, "low"},
		{"nothing", map[Severity]int{}, "low"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, riskLevel(tt.counts))
		})
	}
}

func TestTopRecommendations_DeduplicatesAndCaps(t *testing.T) {
	findings := []Finding{
		{Recommendation: "a"},
		{Recommendation: "a"},
		{Recommendation: "b"},
		{Recommendation: "c"},
		{Recommendation: "d"},
		{Recommendation: "e"},
		{Recommendation: "f"},
	}

	recs := topRecommendations(findings, 5)
	assert.Equal(t, []string{"a", "b", "c", "d", "e"}, recs)
}

func TestBuildInsights_Summary(t *testing.T) {
	t.Run("no findings", func(t *testing.T) {
		ins := buildInsights(nil, FinancialMetrics{TotalRevenue: 500, NetProfit: 100}, 10)

		assert.Equal(t, "low", ins.RiskLevel)
		assert.Empty(t, ins.Recommendations)
		assert.Contains(t, ins.Summary, "no revenue leakage indicators")
	})

	t.Run("with findings", func(t *testing.T) {
		findings := []Finding{
			{Category: CategoryNegativeRevenue, Severity: SeverityCritical, FinancialImpact: 300, Recommendation: "fix it"},
			{Category: CategoryDuplicateRows, Severity: SeverityHigh, FinancialImpact: 100, Recommendation: "dedupe"},
		}
		m := FinancialMetrics{TotalRevenue: 1000, RevenueAtRisk: 400}

		ins := buildInsights(findings, m, 50)

		assert.Equal(t, "critical", ins.RiskLevel)
		assert.Equal(t, []string{"fix it", "dedupe"}, ins.Recommendations)
		assert.Contains(t, ins.Summary, "2 revenue leakage indicators")
		assert.Contains(t, ins.Summary, CategoryNegativeRevenue)
		assert.Contains(t, ins.Summary, "urgent")
	})
}

func TestLargestCategory(t *testing.T) {
	impacts := map[string]float64{"a": 10, "b": 30, "c": 20}
	assert.Equal(t, "b", largestCategory(impacts))

	assert.Empty(t, largestCategory(nil))
}
