package analysis

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"revlens/internal/dataset"
)

func TestPipeline_SkipsDetectorsWithMissingRoles(t *testing.T) {
	// No product or customer columns: grouping detectors must skip cleanly.
	table := newTestTable(t,
		[]string{"Revenue"},
		[][]string{{"100"}, {"-50"}})
	classes := NewClassifier(DefaultKeywords(), 2, nil).Classify(table)
	profile := BuildProfile(table, classes)

	pl := newPipeline(DefaultConfig(), testLogger())
	findings := pl.run(context.Background(), table, profile)

	for _, f := range findings {
		assert.NotEqual(t, CategoryCustomerConcentration, f.Category)
		assert.NotEqual(t, CategoryPricingInconsistency, f.Category)
	}
	assert.NotEmpty(t, findings)
}

func TestPipeline_ParallelMatchesSequential(t *testing.T) {
	table := newTestTable(t,
		[]string{"Date", "Customer", "Product", "Amount", "Cost", "Discount"},
		[][]string{
			{"2024-01-01", "A", "Widget", "1000", "600", "50"},
			{"2024-01-02", "B", "Widget", "-200", "100", "0"},
			{"2024-01-03", "A", "Gadget", "3", "900", "40"},
			{"2024-01-03", "A", "Gadget", "3", "900", "40"},
			{"2024-01-04", "C", "Widget", "500", "100", "200"},
		})
	classes := NewClassifier(DefaultKeywords(), 2, nil).Classify(table)
	profile := BuildProfile(table, classes)

	seqCfg := DefaultConfig()
	seqCfg.Parallel = false
	parCfg := DefaultConfig()
	parCfg.Parallel = true

	sequential := newPipeline(seqCfg, testLogger()).run(context.Background(), table, profile)
	parallel := newPipeline(parCfg, testLogger()).run(context.Background(), table, profile)

	assert.Equal(t, sequential, parallel)
}

func TestPipeline_PanicIsolation(t *testing.T) {
	table := newTestTable(t, []string{"Revenue"}, [][]string{{"-100"}, {"200"}})
	classes := NewClassifier(DefaultKeywords(), 2, nil).Classify(table)
	profile := BuildProfile(table, classes)

	pl := newPipeline(DefaultConfig(), testLogger())
	pl.detectors = append([]Detector{panickyDetector{}}, pl.detectors...)

	var findings []Finding
	require.NotPanics(t, func() {
		findings = pl.run(context.Background(), table, profile)
	})

	// The other detectors still report.
	categories := make(map[string]bool)
	for _, f := range findings {
		categories[f.Category] = true
	}
	assert.True(t, categories[CategoryNegativeRevenue])
}

func TestPipeline_TogglesDisableDetectors(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Detectors.NegativeRevenue = false

	table := newTestTable(t, []string{"Revenue"}, [][]string{{"-100"}, {"200"}})
	classes := NewClassifier(DefaultKeywords(), 2, nil).Classify(table)
	profile := BuildProfile(table, classes)

	findings := newPipeline(cfg, testLogger()).run(context.Background(), table, profile)
	for _, f := range findings {
		assert.NotEqual(t, CategoryNegativeRevenue, f.Category)
	}
}

func TestSortFindings(t *testing.T) {
	findings := []Finding{
		{Category: "c", Severity: SeverityLow, FinancialImpact: 900},
		{Category: "a", Severity: SeverityHigh, FinancialImpact: 10},
		{Category: "b", Severity: SeverityHigh, FinancialImpact: 500},
		{Category: "d", Severity: SeverityCritical, FinancialImpact: 1},
	}
	sortFindings(findings)

	assert.Equal(t, "d", findings[0].Category)
	assert.Equal(t, "b", findings[1].Category)
	assert.Equal(t, "a", findings[2].Category)
	assert.Equal(t, "c", findings[3].Category)
}

type panickyDetector struct{}

func (panickyDetector) Name() string     { return "panicky" }
func (panickyDetector) Requires() []Role { return nil }
func (panickyDetector) Detect(*dataset.Table, *Profile) []Finding {
	panic("boom")
}
