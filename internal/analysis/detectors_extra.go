package analysis

import (
	"fmt"

	"revlens/internal/dataset"
)

// zeroRevenueDetector flags transactions recorded with exactly zero revenue.
// These are usually giveaways, test records or data-entry mistakes; they carry
// no direct loss amount but distort volume-based metrics.
type zeroRevenueDetector struct{}

func (d zeroRevenueDetector) Name() string     { return "zero_revenue" }
func (d zeroRevenueDetector) Requires() []Role { return []Role{RoleRevenue} }

func (d zeroRevenueDetector) Detect(t *dataset.Table, p *Profile) []Finding {
	rev, ok := p.Primary(RoleRevenue)
	if !ok || rev.ZeroCount == 0 {
		return nil
	}

	return []Finding{newFinding(
		CategoryZeroRevenue,
		SeverityMedium,
		rev.ZeroCount,
		0,
		fmt.Sprintf("Found %d transactions with zero revenue in %q. Free giveaways, test records or entry errors inflate volume metrics without contributing revenue.",
			rev.ZeroCount, rev.Name),
		"Tag legitimate zero-revenue transactions (samples, warranty work) explicitly and reject untagged zero amounts at entry.",
		[]string{rev.Name},
	)}
}

// costOutlierDetector flags costs far above the column mean, which usually
// trace back to entry errors or unreviewed exceptional spend.
type costOutlierDetector struct {
	cfg Thresholds
}

func (d costOutlierDetector) Name() string     { return "cost_outlier" }
func (d costOutlierDetector) Requires() []Role { return []Role{RoleCost} }

func (d costOutlierDetector) Detect(t *dataset.Table, p *Profile) []Finding {
	cost, ok := p.Primary(RoleCost)
	if !ok || !cost.Numeric || cost.StdDev == 0 {
		return nil
	}
	col, _ := t.Column(cost.Name)

	cutoff := cost.Mean + d.cfg.CostOutlierSigmas*cost.StdDev
	var outlierTotal float64
	count := 0
	for i := 0; i < col.Len(); i++ {
		if n, ok := col.Float(i); ok && n > cutoff {
			count++
			outlierTotal += n
		}
	}
	if count == 0 {
		return nil
	}

	return []Finding{newFinding(
		CategoryCostOutlier,
		SeverityHigh,
		count,
		outlierTotal,
		fmt.Sprintf("Found %d cost entries in %q above %.2f (mean plus %.0f standard deviations). Extreme costs often indicate entry errors or unreviewed exceptional spend.",
			count, cost.Name, cutoff, d.cfg.CostOutlierSigmas),
		"Review each outlier against source documents and require approval for costs beyond the usual range.",
		[]string{cost.Name},
	)}
}

// negativeQuantityDetector flags rows with a quantity below zero outside an
// explicit returns process.
type negativeQuantityDetector struct{}

func (d negativeQuantityDetector) Name() string     { return "negative_quantity" }
func (d negativeQuantityDetector) Requires() []Role { return []Role{RoleQuantity} }

func (d negativeQuantityDetector) Detect(t *dataset.Table, p *Profile) []Finding {
	qty, ok := p.Primary(RoleQuantity)
	if !ok || qty.NegativeCount == 0 {
		return nil
	}

	return []Finding{newFinding(
		CategoryNegativeQuantity,
		SeverityMedium,
		qty.NegativeCount,
		0,
		fmt.Sprintf("Found %d rows with negative quantity in %q. Unless these represent recorded returns, they point to data-entry errors that corrupt inventory and sales counts.",
			qty.NegativeCount, qty.Name),
		"Record returns through a dedicated returns flow instead of negative quantities, and validate quantity signs at entry.",
		[]string{qty.Name},
	)}
}
