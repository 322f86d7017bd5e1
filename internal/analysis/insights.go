package analysis

import (
	"fmt"
	"sort"
	"strings"
)

// Insights is the rule-based narrative layer over the raw findings: an
// overall risk level, the top actions to take, and a one-paragraph summary.
type Insights struct {
	RiskLevel       string   `json:"risk_level"`
	Recommendations []string `json:"recommendations"`
	Summary         string   `json:"summary"`
}

// buildInsights derives the narrative from findings and metrics. It is pure
// string assembly over already-computed data.
func buildInsights(findings []Finding, m FinancialMetrics, rows int) Insights {
	counts := make(map[Severity]int)
	for _, f := range findings {
		counts[f.Severity]++
	}

	return Insights{
		RiskLevel:       riskLevel(counts),
		Recommendations: topRecommendations(findings, 5),
		Summary:         executiveSummary(findings, counts, m, rows),
	}
}

// riskLevel rolls finding counts up to one overall level.
func riskLevel(counts map[Severity]int) string {
	switch {
	case counts[SeverityCritical] >= 1 || counts[SeverityHigh] >= 3:
		return string(SeverityCritical)
	case counts[SeverityHigh] >= 1 || counts[SeverityMedium] >= 3:
		return string(SeverityHigh)
	case counts[SeverityMedium] >= 1:
		return string(SeverityMedium)
	default:
		return string(SeverityLow)
	}
}

// topRecommendations returns the distinct recommendations of the n highest
// ranked findings. Findings arrive already sorted by severity and impact.
func topRecommendations(findings []Finding, n int) []string {
	var recs []string
	seen := make(map[string]bool)
	for _, f := range findings {
		if seen[f.Recommendation] {
			continue
		}
		seen[f.Recommendation] = true
		recs = append(recs, f.Recommendation)
		if len(recs) == n {
			break
		}
	}
	return recs
}

func executiveSummary(findings []Finding, counts map[Severity]int, m FinancialMetrics, rows int) string {
	if len(findings) == 0 {
		return fmt.Sprintf("Analyzed %d transactions and found no revenue leakage indicators. Total revenue %.2f with a net profit of %.2f.",
			rows, m.TotalRevenue, m.NetProfit)
	}

	var parts []string
	parts = append(parts, fmt.Sprintf("Analyzed %d transactions and found %d revenue leakage indicators with an estimated %.2f of revenue at risk.",
		rows, len(findings), m.RevenueAtRisk))

	if urgent := counts[SeverityCritical] + counts[SeverityHigh]; urgent > 0 {
		parts = append(parts, fmt.Sprintf("%d findings require urgent attention.", urgent))
	}

	categories := make(map[string]float64)
	for _, f := range findings {
		categories[f.Category] += f.FinancialImpact
	}
	if top := largestCategory(categories); top != "" {
		parts = append(parts, fmt.Sprintf("The largest exposure is %s at %.2f.", top, categories[top]))
	}

	if m.TotalRevenue > 0 && m.RevenueAtRisk > 0 {
		parts = append(parts, fmt.Sprintf("Recovering the identified leakage would improve revenue by up to %.1f%%.",
			m.RevenueAtRisk/m.TotalRevenue*100))
	}
	return strings.Join(parts, " ")
}

func largestCategory(impacts map[string]float64) string {
	names := make([]string, 0, len(impacts))
	for name := range impacts {
		names = append(names, name)
	}
	sort.Strings(names)

	var best string
	var bestImpact float64
	for _, name := range names {
		if impacts[name] > bestImpact {
			best, bestImpact = name, impacts[name]
		}
	}
	return best
}
