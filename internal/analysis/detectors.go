package analysis

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/google/uuid"

	"revlens/internal/dataset"
)

// Finding categories, one per detector.
const (
	CategoryNegativeRevenue       = "Negative Revenue"
	CategoryExcessiveDiscount     = "Excessive Discounts"
	CategoryMissingData           = "Missing Data"
	CategoryDuplicateRows         = "Duplicate Transactions"
	CategoryPricingInconsistency  = "Pricing Inconsistency"
	CategoryCustomerConcentration = "Customer Concentration"
	CategoryUnprofitableProduct   = "Unprofitable Products"
	CategoryLowValueTransaction   = "Low Value Transactions"
	CategoryRefundRate            = "Refund Rate"
	CategoryZeroRevenue           = "Zero Revenue"
	CategoryCostOutlier           = "Cost Outliers"
	CategoryNegativeQuantity      = "Negative Quantities"
)

// Detector is one leakage-detection rule: a pure function of the table and
// its profile. Detectors declare the roles they require; the pipeline skips a
// detector cleanly when a requirement is unmet.
type Detector interface {
	Name() string
	Requires() []Role
	Detect(t *dataset.Table, p *Profile) []Finding
}

// findingID derives a short, stable identifier from the finding's category
// and evidence, so re-running the engine on an unchanged table produces an
// identical report.
func findingID(category string, evidence []string) string {
	seed := category + "|" + strings.Join(evidence, ",")
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(seed)).String()[:8]
}

func newFinding(category string, severity Severity, affected int, impact float64, description, recommendation string, evidence []string) Finding {
	return Finding{
		ID:              findingID(category, evidence),
		Category:        category,
		Severity:        severity,
		AffectedRows:    affected,
		FinancialImpact: impact,
		Description:     description,
		Recommendation:  recommendation,
		EvidenceColumns: evidence,
	}
}

// negativeRevenueDetector flags transactions whose revenue is below zero:
// refunds, chargebacks or data errors that directly reduce revenue.
type negativeRevenueDetector struct {
	cfg Thresholds
}

func (d negativeRevenueDetector) Name() string     { return "negative_revenue" }
func (d negativeRevenueDetector) Requires() []Role { return []Role{RoleRevenue} }

func (d negativeRevenueDetector) Detect(t *dataset.Table, p *Profile) []Finding {
	rev, ok := p.Primary(RoleRevenue)
	if !ok || rev.NegativeCount == 0 {
		return nil
	}
	col, _ := t.Column(rev.Name)

	var negativeTotal float64
	for i := 0; i < col.Len(); i++ {
		if n, ok := col.Float(i); ok && n < 0 {
			negativeTotal += -n
		}
	}

	share := float64(rev.NegativeCount) / float64(p.Rows)
	severity := SeverityMedium
	switch {
	case share > d.cfg.NegativeRevenueCriticalShare:
		severity = SeverityCritical
	case share > d.cfg.NegativeRevenueHighShare:
		severity = SeverityHigh
	}

	impact := negativeTotal * d.cfg.NegativeRevenueOverhead
	return []Finding{newFinding(
		CategoryNegativeRevenue,
		severity,
		rev.NegativeCount,
		impact,
		fmt.Sprintf("Found %d transactions with negative revenue in %q (%.1f%% of all rows), indicating refunds, chargebacks or data errors directly reducing revenue.",
			rev.NegativeCount, rev.Name, share*100),
		"Investigate these transactions immediately: analyze refund root causes or correct data errors, and add validation rules to prevent recurrence.",
		[]string{rev.Name},
	)}
}

// excessiveDiscountDetector flags discounting beyond the healthy ratio of
// revenue, or individual discounts far above the column mean.
type excessiveDiscountDetector struct {
	cfg Thresholds
}

func (d excessiveDiscountDetector) Name() string     { return "excessive_discount" }
func (d excessiveDiscountDetector) Requires() []Role { return []Role{RoleDiscount, RoleRevenue} }

func (d excessiveDiscountDetector) Detect(t *dataset.Table, p *Profile) []Finding {
	disc, ok := p.Primary(RoleDiscount)
	if !ok || !disc.Numeric {
		return nil
	}
	rev, ok := p.Primary(RoleRevenue)
	if !ok {
		return nil
	}

	discountTotal := math.Abs(disc.Sum)
	var ratio float64
	if rev.Sum > 0 {
		ratio = discountTotal / rev.Sum
	}

	col, _ := t.Column(disc.Name)
	spikes := 0
	meanAbs := math.Abs(disc.Mean)
	for i := 0; i < col.Len(); i++ {
		if n, ok := col.Float(i); ok && math.Abs(n) > d.cfg.DiscountSpikeMultiplier*meanAbs && meanAbs > 0 {
			spikes++
		}
	}

	if ratio <= d.cfg.DiscountRatio && spikes == 0 {
		return nil
	}

	severity := SeverityMedium
	if ratio > d.cfg.DiscountHighRatio {
		severity = SeverityHigh
	}

	// Only the excess over the healthy ratio counts as leakage.
	impact := math.Max(0, discountTotal-d.cfg.DiscountRatio*rev.Sum)
	affected := disc.Count - disc.NullCount - disc.ZeroCount

	return []Finding{newFinding(
		CategoryExcessiveDiscount,
		severity,
		affected,
		impact,
		fmt.Sprintf("Discounts in %q total %.2f (%.1f%% of revenue) with %d unusually high individual discounts. Excessive discounting erodes margins and trains customers to wait for sales.",
			disc.Name, discountTotal, ratio*100, spikes),
		fmt.Sprintf("Cap discounts at %.0f%% of revenue and require approval above that. Prefer tiered pricing or bundles over blanket discounts.", d.cfg.DiscountRatio*100),
		[]string{disc.Name, rev.Name},
	)}
}

// missingDataDetector reports nulls in revenue, cost and customer columns.
// Missing financial data skews every downstream aggregate.
type missingDataDetector struct {
	cfg Thresholds
}

func (d missingDataDetector) Name() string     { return "missing_data" }
func (d missingDataDetector) Requires() []Role { return nil }

func (d missingDataDetector) Detect(t *dataset.Table, p *Profile) []Finding {
	var findings []Finding
	revenueMean := 0.0
	if rev, ok := p.Primary(RoleRevenue); ok {
		revenueMean = rev.Mean
	}

	for _, role := range []Role{RoleRevenue, RoleCost, RoleCustomer} {
		for _, name := range p.ColumnsWithRole(role) {
			cp, _ := p.Column(name)
			if cp.NullCount == 0 {
				continue
			}
			share := cp.NullShare()
			severity := SeverityLow
			if share > d.cfg.MissingDataMediumShare {
				severity = SeverityMedium
			}
			impact := share * revenueMean * float64(cp.NullCount)
			findings = append(findings, newFinding(
				CategoryMissingData,
				severity,
				cp.NullCount,
				impact,
				fmt.Sprintf("Found %d missing values in %q (%.1f%% of rows). Missing %s data leads to incomplete analysis and unbilled activity.",
					cp.NullCount, name, share*100, role),
				"Make critical fields mandatory at data entry and add real-time completeness validation.",
				[]string{name},
			))
		}
	}
	return findings
}

// duplicateRowsDetector flags exact duplicate rows, which usually mean double
// billing or data-entry errors.
type duplicateRowsDetector struct{}

func (d duplicateRowsDetector) Name() string     { return "duplicate_rows" }
func (d duplicateRowsDetector) Requires() []Role { return nil }

func (d duplicateRowsDetector) Detect(t *dataset.Table, p *Profile) []Finding {
	if p.DuplicateRows == 0 {
		return nil
	}
	revenueMean := 0.0
	if rev, ok := p.Primary(RoleRevenue); ok {
		revenueMean = rev.Mean
	}
	impact := float64(p.DuplicateRows) * revenueMean

	return []Finding{newFinding(
		CategoryDuplicateRows,
		SeverityHigh,
		p.DuplicateRows,
		impact,
		fmt.Sprintf("Found %d exact duplicate rows, which may indicate double billing, data-entry errors or system glitches.", p.DuplicateRows),
		"Introduce unique transaction identifiers and duplicate detection at the point of sale; deduplicate the ledger regularly.",
		p.ColumnNames(),
	)}
}

// pricingInconsistencyDetector flags products sold at widely varying prices.
type pricingInconsistencyDetector struct {
	cfg Thresholds
}

func (d pricingInconsistencyDetector) Name() string { return "pricing_inconsistency" }
func (d pricingInconsistencyDetector) Requires() []Role {
	return []Role{RoleProduct, RoleRevenue}
}

func (d pricingInconsistencyDetector) Detect(t *dataset.Table, p *Profile) []Finding {
	product, ok := p.Primary(RoleProduct)
	if !ok {
		return nil
	}
	rev, ok := p.Primary(RoleRevenue)
	if !ok {
		return nil
	}

	groups := groupValues(t, product.Name, rev.Name)

	var impact float64
	var affected, inconsistent int
	var examples []string
	for _, name := range sortedKeys(groups) {
		prices := groups[name]
		if len(prices) < 2 {
			continue
		}
		mean, min, max := summarize(prices)
		if mean <= 0 || (max-min)/mean <= d.cfg.PriceVariance {
			continue
		}
		inconsistent++
		affected += len(prices)
		atMin := 0
		for _, v := range prices {
			if v == min {
				atMin++
			}
		}
		impact += (mean - min) * float64(atMin)
		if len(examples) < 3 {
			examples = append(examples, name)
		}
	}

	if inconsistent == 0 {
		return nil
	}

	return []Finding{newFinding(
		CategoryPricingInconsistency,
		SeverityMedium,
		affected,
		impact,
		fmt.Sprintf("Found %d products with price variation above %.0f%% (e.g. %s); some transactions are underpriced relative to the product's own average.",
			inconsistent, d.cfg.PriceVariance*100, strings.Join(examples, ", ")),
		"Standardize pricing across channels with a centralized price list, and review transactions at the minimum observed price.",
		[]string{product.Name, rev.Name},
	)}
}

// customerConcentrationDetector flags dependence on a single customer.
type customerConcentrationDetector struct {
	cfg Thresholds
}

func (d customerConcentrationDetector) Name() string { return "customer_concentration" }
func (d customerConcentrationDetector) Requires() []Role {
	return []Role{RoleCustomer, RoleRevenue}
}

func (d customerConcentrationDetector) Detect(t *dataset.Table, p *Profile) []Finding {
	customer, ok := p.Primary(RoleCustomer)
	if !ok {
		return nil
	}
	rev, ok := p.Primary(RoleRevenue)
	if !ok {
		return nil
	}

	groups := groupValues(t, customer.Name, rev.Name)
	if len(groups) < 2 {
		return nil
	}

	var total float64
	var topName string
	var topRevenue float64
	var topRows int
	for name, values := range groups {
		var sum float64
		for _, v := range values {
			sum += v
		}
		total += sum
		if sum > topRevenue || (sum == topRevenue && name < topName) {
			topName, topRevenue, topRows = name, sum, len(values)
		}
	}

	if total <= 0 {
		return nil
	}
	share := topRevenue / total
	if share <= d.cfg.CustomerConcentration {
		return nil
	}

	severity := SeverityMedium
	if share > d.cfg.CustomerConcentrationHigh {
		severity = SeverityHigh
	}

	return []Finding{newFinding(
		CategoryCustomerConcentration,
		severity,
		topRows,
		topRevenue,
		fmt.Sprintf("Customer %q accounts for %.1f%% of total revenue (%.2f). Losing this customer would be a severe revenue shock.",
			topName, share*100, topRevenue),
		fmt.Sprintf("Diversify the customer base; no single customer should exceed %.0f%% of revenue.", d.cfg.CustomerConcentration*100),
		[]string{customer.Name, rev.Name},
	)}
}

// unprofitableProductDetector flags products whose total cost exceeds their
// total revenue.
type unprofitableProductDetector struct{}

func (d unprofitableProductDetector) Name() string { return "unprofitable_product" }
func (d unprofitableProductDetector) Requires() []Role {
	return []Role{RoleProduct, RoleRevenue, RoleCost}
}

func (d unprofitableProductDetector) Detect(t *dataset.Table, p *Profile) []Finding {
	product, ok := p.Primary(RoleProduct)
	if !ok {
		return nil
	}
	rev, revOK := p.Primary(RoleRevenue)
	cost, costOK := p.Primary(RoleCost)
	if !revOK || !costOK {
		return nil
	}

	revenueByProduct := groupSums(t, product.Name, rev.Name)
	costByProduct := groupSums(t, product.Name, cost.Name)

	var totalLoss float64
	var affected, losers int
	var examples []string
	for _, name := range sortedKeys(revenueByProduct) {
		g := revenueByProduct[name]
		c := costByProduct[name]
		profit := g.sum - c.sum
		if profit >= 0 {
			continue
		}
		losers++
		affected += g.count
		totalLoss += -profit
		if len(examples) < 3 {
			examples = append(examples, name)
		}
	}

	if losers == 0 {
		return nil
	}

	return []Finding{newFinding(
		CategoryUnprofitableProduct,
		SeverityMedium,
		affected,
		totalLoss,
		fmt.Sprintf("Found %d products selling below cost (e.g. %s), losing %.2f in total.",
			losers, strings.Join(examples, ", "), totalLoss),
		"Run product profitability analysis; reprice or discontinue products that consistently sell below cost.",
		[]string{product.Name, rev.Name, cost.Name},
	)}
}

// lowValueTransactionDetector flags transactions whose revenue does not cover
// the assumed fixed processing cost.
type lowValueTransactionDetector struct {
	cfg Thresholds
}

func (d lowValueTransactionDetector) Name() string     { return "low_value_transaction" }
func (d lowValueTransactionDetector) Requires() []Role { return []Role{RoleRevenue} }

func (d lowValueTransactionDetector) Detect(t *dataset.Table, p *Profile) []Finding {
	rev, ok := p.Primary(RoleRevenue)
	if !ok {
		return nil
	}
	col, _ := t.Column(rev.Name)

	var impact float64
	count := 0
	for i := 0; i < col.Len(); i++ {
		// Negative revenue is the NegativeRevenue detector's territory.
		if n, ok := col.Float(i); ok && n >= 0 && n < d.cfg.LowValueThreshold {
			count++
			impact += d.cfg.LowValueThreshold - n
		}
	}
	if count == 0 {
		return nil
	}

	return []Finding{newFinding(
		CategoryLowValueTransaction,
		SeverityLow,
		count,
		impact,
		fmt.Sprintf("Found %d transactions below the %.2f processing-cost threshold; each one costs more to process than it earns.",
			count, d.cfg.LowValueThreshold),
		"Introduce a minimum order value, bundle small purchases, or surcharge low-value transactions.",
		[]string{rev.Name},
	)}
}

// refundRateDetector compares the share of refunded rows against the 2-5%
// industry band. Rates above the band burn margin; rates below it often mean
// refunds are going unrecorded.
type refundRateDetector struct {
	cfg Thresholds
}

func (d refundRateDetector) Name() string     { return "refund_rate" }
func (d refundRateDetector) Requires() []Role { return []Role{RoleRefund} }

func (d refundRateDetector) Detect(t *dataset.Table, p *Profile) []Finding {
	refund, ok := p.Primary(RoleRefund)
	if !ok || p.Rows == 0 {
		return nil
	}
	col, _ := t.Column(refund.Name)

	refundRows := 0
	var refundTotal float64
	for i := 0; i < col.Len(); i++ {
		if !col.Truthy(i) {
			continue
		}
		refundRows++
		if n, ok := col.Float(i); ok {
			refundTotal += math.Abs(n)
		}
	}

	// Non-numeric refund flags carry no amount; attribute the revenue of the
	// refunded rows instead.
	if refundTotal == 0 && refundRows > 0 {
		if rev, ok := p.Primary(RoleRevenue); ok {
			revCol, _ := t.Column(rev.Name)
			for i := 0; i < col.Len(); i++ {
				if col.Truthy(i) {
					if n, ok := revCol.Float(i); ok {
						refundTotal += math.Abs(n)
					}
				}
			}
		}
	}

	rate := float64(refundRows) / float64(p.Rows)
	if rate >= d.cfg.RefundRateMin && rate <= d.cfg.RefundRateMax {
		return nil
	}

	if rate < d.cfg.RefundRateMin {
		return []Finding{newFinding(
			CategoryRefundRate,
			SeverityMedium,
			refundRows,
			0,
			fmt.Sprintf("Refund rate %.1f%% is below the %.0f%%-%.0f%% industry band, which often means refunds are processed outside the system and go unrecorded.",
				rate*100, d.cfg.RefundRateMin*100, d.cfg.RefundRateMax*100),
			"Reconcile refunds issued through payment providers against recorded transactions.",
			[]string{refund.Name},
		)}
	}

	severity := SeverityMedium
	if rate > 2*d.cfg.RefundRateMax {
		severity = SeverityHigh
	}
	impact := refundTotal * d.cfg.RefundCostMultiplier

	return []Finding{newFinding(
		CategoryRefundRate,
		severity,
		refundRows,
		impact,
		fmt.Sprintf("Refund rate %.1f%% exceeds the %.0f%%-%.0f%% industry band. Each refund costs a multiple of its face value in processing, restocking and lost customer value.",
			rate*100, d.cfg.RefundRateMin*100, d.cfg.RefundRateMax*100),
		"Analyze refund root causes: product quality, descriptions and customer expectations. Target the upper band as a ceiling.",
		[]string{refund.Name},
	)}
}

// group helpers shared by the grouping detectors.

type groupAgg struct {
	sum   float64
	count int
}

// groupValues collects the non-null numeric values of valueCol keyed by the
// non-null raw value of keyCol.
func groupValues(t *dataset.Table, keyCol, valueCol string) map[string][]float64 {
	key, ok := t.Column(keyCol)
	if !ok {
		return nil
	}
	val, ok := t.Column(valueCol)
	if !ok {
		return nil
	}
	groups := make(map[string][]float64)
	for i := 0; i < t.RowCount(); i++ {
		if key.IsNull(i) {
			continue
		}
		if n, ok := val.Float(i); ok {
			groups[key.Raw(i)] = append(groups[key.Raw(i)], n)
		}
	}
	return groups
}

// groupSums aggregates sum and count of valueCol per distinct keyCol value.
func groupSums(t *dataset.Table, keyCol, valueCol string) map[string]groupAgg {
	groups := make(map[string]groupAgg)
	for name, values := range groupValues(t, keyCol, valueCol) {
		agg := groupAgg{count: len(values)}
		for _, v := range values {
			agg.sum += v
		}
		groups[name] = agg
	}
	return groups
}

func summarize(values []float64) (mean, min, max float64) {
	min = math.Inf(1)
	max = math.Inf(-1)
	var sum float64
	for _, v := range values {
		sum += v
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	return sum / float64(len(values)), min, max
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
