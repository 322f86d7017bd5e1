package analysis

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func detect(t *testing.T, d Detector, header []string, records [][]string) []Finding {
	t.Helper()
	table := newTestTable(t, header, records)
	classes := NewClassifier(DefaultKeywords(), 2, nil).Classify(table)
	return d.Detect(table, BuildProfile(table, classes))
}

func TestNegativeRevenueDetector(t *testing.T) {
	d := negativeRevenueDetector{cfg: DefaultThresholds()}

	t.Run("no negatives no finding", func(t *testing.T) {
		findings := detect(t, d, []string{"Revenue"}, [][]string{{"100"}, {"200"}})
		assert.Empty(t, findings)
	})

	t.Run("impact includes processing overhead", func(t *testing.T) {
		findings := detect(t, d, []string{"Revenue"},
			[][]string{{"100"}, {"-200"}, {"-100"}, {"400"}})
		require.Len(t, findings, 1)

		f := findings[0]
		assert.Equal(t, CategoryNegativeRevenue, f.Category)
		assert.Equal(t, 2, f.AffectedRows)
		// |−200| + |−100| times the 1.25 overhead.
		assert.InDelta(t, 375.0, f.FinancialImpact, 1e-9)
		// 50% negative is far past the critical share.
		assert.Equal(t, SeverityCritical, f.Severity)
	})

	t.Run("small negative share is medium", func(t *testing.T) {
		records := make([][]string, 100)
		for i := range records {
			records[i] = []string{"100"}
		}
		records[0] = []string{"-10"}
		// 1% negative: below the 2% high share.
		findings := detect(t, d, []string{"Revenue"}, records)
		require.Len(t, findings, 1)
		assert.Equal(t, SeverityMedium, findings[0].Severity)
	})
}

func TestExcessiveDiscountDetector(t *testing.T) {
	d := excessiveDiscountDetector{cfg: DefaultThresholds()}

	t.Run("healthy ratio no finding", func(t *testing.T) {
		findings := detect(t, d,
			[]string{"Revenue", "Discount"},
			[][]string{{"100", "10"}, {"100", "10"}})
		assert.Empty(t, findings)
	})

	t.Run("ratio above ceiling", func(t *testing.T) {
		findings := detect(t, d,
			[]string{"Revenue", "Discount"},
			[][]string{{"100", "20"}, {"100", "20"}})
		require.Len(t, findings, 1)

		f := findings[0]
		// 40 discount on 200 revenue is 20%: above 15%, below the 25% high bar.
		assert.Equal(t, SeverityMedium, f.Severity)
		// Excess over the healthy ratio: 40 - 0.15*200.
		assert.InDelta(t, 10.0, f.FinancialImpact, 1e-9)
	})

	t.Run("high ratio escalates", func(t *testing.T) {
		findings := detect(t, d,
			[]string{"Revenue", "Discount"},
			[][]string{{"100", "30"}, {"100", "30"}})
		require.Len(t, findings, 1)
		assert.Equal(t, SeverityHigh, findings[0].Severity)
	})
}

func TestMissingDataDetector(t *testing.T) {
	d := missingDataDetector{cfg: DefaultThresholds()}

	t.Run("complete data no finding", func(t *testing.T) {
		findings := detect(t, d,
			[]string{"Revenue", "Customer"},
			[][]string{{"100", "Acme"}})
		assert.Empty(t, findings)
	})

	t.Run("nulls in critical columns", func(t *testing.T) {
		findings := detect(t, d,
			[]string{"Revenue", "Customer", "Notes"},
			[][]string{
				{"100", "Acme", ""},
				{"", "Beta", ""},
				{"300", "", ""},
			})
		// Revenue and Customer each get a finding; Notes is not critical.
		require.Len(t, findings, 2)
		for _, f := range findings {
			assert.Equal(t, CategoryMissingData, f.Category)
			assert.Equal(t, 1, f.AffectedRows)
			// 33% nulls is above the 5% medium bar.
			assert.Equal(t, SeverityMedium, f.Severity)
		}
	})
}

func TestDuplicateRowsDetector(t *testing.T) {
	d := duplicateRowsDetector{}

	t.Run("unique rows no finding", func(t *testing.T) {
		findings := detect(t, d,
			[]string{"Revenue", "Customer"},
			[][]string{{"100", "Acme"}, {"200", "Beta"}})
		assert.Empty(t, findings)
	})

	t.Run("duplicates priced at mean revenue", func(t *testing.T) {
		findings := detect(t, d,
			[]string{"Revenue", "Customer"},
			[][]string{
				{"100", "Acme"},
				{"100", "Acme"},
				{"300", "Beta"},
			})
		require.Len(t, findings, 1)

		f := findings[0]
		assert.Equal(t, SeverityHigh, f.Severity)
		assert.Equal(t, 1, f.AffectedRows)
		// One duplicate times the mean revenue of (100+100+300)/3.
		assert.InDelta(t, 500.0/3, f.FinancialImpact, 1e-9)
		assert.Equal(t, []string{"Revenue", "Customer"}, f.EvidenceColumns)
	})
}

func TestPricingInconsistencyDetector(t *testing.T) {
	d := pricingInconsistencyDetector{cfg: DefaultThresholds()}

	t.Run("stable prices no finding", func(t *testing.T) {
		findings := detect(t, d,
			[]string{"Product", "Price"},
			[][]string{{"Widget", "10"}, {"Widget", "11"}})
		assert.Empty(t, findings)
	})

	t.Run("wide spread flagged", func(t *testing.T) {
		findings := detect(t, d,
			[]string{"Product", "Price"},
			[][]string{
				{"Widget", "10"},
				{"Widget", "10"},
				{"Widget", "10"},
				{"Widget", "25"},
			})
		require.Len(t, findings, 1)

		f := findings[0]
		assert.Equal(t, SeverityMedium, f.Severity)
		assert.Equal(t, 4, f.AffectedRows)
		// Mean 13.75, three transactions at the 10 minimum.
		assert.InDelta(t, 3*3.75, f.FinancialImpact, 1e-9)
	})

	t.Run("single transaction products skipped", func(t *testing.T) {
		findings := detect(t, d,
			[]string{"Product", "Price"},
			[][]string{{"Widget", "10"}, {"Gadget", "100"}})
		assert.Empty(t, findings)
	})
}

func TestCustomerConcentrationDetector(t *testing.T) {
	d := customerConcentrationDetector{cfg: DefaultThresholds()}

	t.Run("balanced base no finding", func(t *testing.T) {
		findings := detect(t, d,
			[]string{"Customer", "Revenue"},
			[][]string{
				{"A", "100"}, {"B", "100"}, {"C", "100"}, {"D", "100"},
			})
		assert.Empty(t, findings)
	})

	t.Run("dominant customer high severity", func(t *testing.T) {
		findings := detect(t, d,
			[]string{"Customer", "Revenue"},
			[][]string{
				{"A", "300"}, {"A", "300"}, {"B", "200"}, {"C", "200"},
			})
		require.Len(t, findings, 1)

		f := findings[0]
		// A holds 60% of 1000: above the 50% high bar.
		assert.Equal(t, SeverityHigh, f.Severity)
		assert.Equal(t, 2, f.AffectedRows)
		assert.InDelta(t, 600.0, f.FinancialImpact, 1e-9)
	})

	t.Run("moderate concentration is medium", func(t *testing.T) {
		findings := detect(t, d,
			[]string{"Customer", "Revenue"},
			[][]string{
				{"A", "40"}, {"B", "30"}, {"C", "30"},
			})
		require.Len(t, findings, 1)
		assert.Equal(t, SeverityMedium, findings[0].Severity)
	})

	t.Run("single customer skipped", func(t *testing.T) {
		findings := detect(t, d,
			[]string{"Customer", "Revenue"},
			[][]string{{"A", "100"}, {"A", "200"}})
		assert.Empty(t, findings)
	})
}

func TestUnprofitableProductDetector(t *testing.T) {
	d := unprofitableProductDetector{}

	t.Run("profitable products no finding", func(t *testing.T) {
		findings := detect(t, d,
			[]string{"Product", "Revenue", "Cost"},
			[][]string{{"Widget", "100", "60"}})
		assert.Empty(t, findings)
	})

	t.Run("loss makers aggregated", func(t *testing.T) {
		findings := detect(t, d,
			[]string{"Product", "Revenue", "Cost"},
			[][]string{
				{"Widget", "100", "150"},
				{"Widget", "100", "80"},
				{"Gadget", "50", "100"},
				{"Doohickey", "500", "100"},
			})
		require.Len(t, findings, 1)

		f := findings[0]
		assert.Equal(t, SeverityMedium, f.Severity)
		// Widget loses 30 overall, Gadget loses 50.
		assert.InDelta(t, 80.0, f.FinancialImpact, 1e-9)
		assert.Equal(t, 3, f.AffectedRows)
	})
}

func TestLowValueTransactionDetector(t *testing.T) {
	d := lowValueTransactionDetector{cfg: DefaultThresholds()}

	t.Run("all above threshold", func(t *testing.T) {
		findings := detect(t, d, []string{"Revenue"}, [][]string{{"50"}, {"5"}})
		assert.Empty(t, findings)
	})

	t.Run("below threshold accumulates shortfall", func(t *testing.T) {
		findings := detect(t, d, []string{"Revenue"},
			[][]string{{"1"}, {"3"}, {"50"}, {"-10"}})
		require.Len(t, findings, 1)

		f := findings[0]
		assert.Equal(t, SeverityLow, f.Severity)
		// Negative rows belong to the negative revenue detector.
		assert.Equal(t, 2, f.AffectedRows)
		// (5-1) + (5-3).
		assert.InDelta(t, 6.0, f.FinancialImpact, 1e-9)
	})
}

func TestRefundRateDetector(t *testing.T) {
	d := refundRateDetector{cfg: DefaultThresholds()}

	refundRows := func(refunded, total int) [][]string {
		records := make([][]string, total)
		for i := range records {
			flag := "no"
			if i < refunded {
				flag = "yes"
			}
			records[i] = []string{flag, "100"}
		}
		return records
	}

	t.Run("rate inside band no finding", func(t *testing.T) {
		findings := detect(t, d, []string{"Refunded", "Revenue"}, refundRows(3, 100))
		assert.Empty(t, findings)
	})

	t.Run("rate above band uses revenue of refunded rows", func(t *testing.T) {
		findings := detect(t, d, []string{"Refunded", "Revenue"}, refundRows(8, 100))
		require.Len(t, findings, 1)

		f := findings[0]
		assert.Equal(t, SeverityMedium, f.Severity)
		assert.Equal(t, 8, f.AffectedRows)
		// 8 refunded rows at 100 revenue each, times the 2.5 cost multiplier.
		assert.InDelta(t, 2000.0, f.FinancialImpact, 1e-9)
	})

	t.Run("rate far above band escalates", func(t *testing.T) {
		findings := detect(t, d, []string{"Refunded", "Revenue"}, refundRows(15, 100))
		require.Len(t, findings, 1)
		assert.Equal(t, SeverityHigh, findings[0].Severity)
	})

	t.Run("rate below band flags unrecorded refunds", func(t *testing.T) {
		findings := detect(t, d, []string{"Refunded", "Revenue"}, refundRows(1, 100))
		require.Len(t, findings, 1)

		f := findings[0]
		assert.Equal(t, SeverityMedium, f.Severity)
		assert.Zero(t, f.FinancialImpact)
	})

	t.Run("numeric refund column sums amounts", func(t *testing.T) {
		records := make([][]string, 10)
		for i := range records {
			records[i] = []string{"0", "100"}
		}
		records[0] = []string{"-40", "100"}
		findings := detect(t, d, []string{"Refunds", "Revenue"}, records)
		require.Len(t, findings, 1)
		// One refund of 40 at the 2.5 multiplier; 10% rate exceeds the band.
		assert.InDelta(t, 100.0, findings[0].FinancialImpact, 1e-9)
	})
}

func TestZeroRevenueDetector(t *testing.T) {
	d := zeroRevenueDetector{}

	findings := detect(t, d, []string{"Revenue"}, [][]string{{"0"}, {"100"}, {"0"}})
	require.Len(t, findings, 1)

	f := findings[0]
	assert.Equal(t, CategoryZeroRevenue, f.Category)
	assert.Equal(t, 2, f.AffectedRows)
	assert.Zero(t, f.FinancialImpact)
}

func TestCostOutlierDetector(t *testing.T) {
	d := costOutlierDetector{cfg: DefaultThresholds()}

	t.Run("uniform costs no finding", func(t *testing.T) {
		findings := detect(t, d, []string{"Cost"}, [][]string{{"10"}, {"10"}, {"10"}})
		assert.Empty(t, findings)
	})

	t.Run("extreme cost flagged", func(t *testing.T) {
		records := make([][]string, 50)
		for i := range records {
			records[i] = []string{fmt.Sprintf("%d", 10+i%3)}
		}
		records[49] = []string{"10000"}
		findings := detect(t, d, []string{"Cost"}, records)
		require.Len(t, findings, 1)

		f := findings[0]
		assert.Equal(t, SeverityHigh, f.Severity)
		assert.Equal(t, 1, f.AffectedRows)
		assert.InDelta(t, 10000.0, f.FinancialImpact, 1e-9)
	})
}

func TestNegativeQuantityDetector(t *testing.T) {
	d := negativeQuantityDetector{}

	findings := detect(t, d,
		[]string{"Quantity", "Revenue"},
		[][]string{{"2", "100"}, {"-1", "50"}})
	require.Len(t, findings, 1)
	assert.Equal(t, 1, findings[0].AffectedRows)
}

func TestFindingID_Deterministic(t *testing.T) {
	a := findingID(CategoryNegativeRevenue, []string{"Revenue"})
	b := findingID(CategoryNegativeRevenue, []string{"Revenue"})
	c := findingID(CategoryDuplicateRows, []string{"Revenue"})

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Len(t, a, 8)
}

func TestDetectorsSatisfyInterface(t *testing.T) {
	for _, d := range buildDetectors(DefaultConfig()) {
		assert.NotEmpty(t, d.Name())
	}
	assert.Len(t, buildDetectors(DefaultConfig()), 12)
}
