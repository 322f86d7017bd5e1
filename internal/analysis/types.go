package analysis

import (
	"revlens/internal/dataset"
)

// Role is the semantic role assigned to a column by the classifier. The
// declaration order doubles as the resolution priority: when a column name
// matches several keyword sets, the lowest-valued compatible role wins.
type Role int

const (
	RoleRevenue Role = iota
	RoleCost
	RoleDiscount
	RoleRefund
	RoleProfit
	RoleCustomer
	RoleProduct
	RoleQuantity
	RoleDate
	RoleUnknown
)

// allRoles lists classifiable roles in priority order, excluding Unknown.
var allRoles = []Role{
	RoleRevenue, RoleCost, RoleDiscount, RoleRefund, RoleProfit,
	RoleCustomer, RoleProduct, RoleQuantity, RoleDate,
}

// String returns the lowercase role name.
func (r Role) String() string {
	switch r {
	case RoleRevenue:
		return "revenue"
	case RoleCost:
		return "cost"
	case RoleDiscount:
		return "discount"
	case RoleRefund:
		return "refund"
	case RoleProfit:
		return "profit"
	case RoleCustomer:
		return "customer"
	case RoleProduct:
		return "product"
	case RoleQuantity:
		return "quantity"
	case RoleDate:
		return "date"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler so roles serialize as names.
func (r Role) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// numericRoles require a numeric-shaped column: at least 80% of non-null
// values must parse as numbers, which the dataset layer encodes as
// KindNumeric.
var numericRoles = map[Role]bool{
	RoleRevenue:  true,
	RoleCost:     true,
	RoleDiscount: true,
	RoleProfit:   true,
	RoleQuantity: true,
}

// shapeCompatible reports whether a column's inferred kind rules the role out.
func shapeCompatible(role Role, kind dataset.Kind) bool {
	if numericRoles[role] {
		return kind == dataset.KindNumeric
	}
	if role == RoleDate {
		return kind == dataset.KindDate
	}
	return true
}

// Severity grades a finding. Each detector assigns severity per its own rule.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
)

// Rank returns the sort rank of the severity, critical first.
func (s Severity) Rank() int {
	switch s {
	case SeverityCritical:
		return 0
	case SeverityHigh:
		return 1
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 3
	default:
		return 4
	}
}

// Finding is a detected, quantified instance of revenue loss or data-quality
// risk. Findings are not deduplicated across detectors: overlapping evidence
// reflects distinct actionable issues.
type Finding struct {
	ID              string   `json:"id"`
	Category        string   `json:"category"`
	Severity        Severity `json:"severity"`
	AffectedRows    int      `json:"affected_rows"`
	FinancialImpact float64  `json:"financial_impact"`
	Description     string   `json:"description"`
	Recommendation  string   `json:"recommendation"`
	EvidenceColumns []string `json:"evidence_columns"`
}

// FinancialMetrics are the headline figures computed from classified columns.
// All ratios report 0 when their denominator is 0.
type FinancialMetrics struct {
	TotalRevenue            float64 `json:"total_revenue"`
	TotalCost               float64 `json:"total_cost"`
	NetProfit               float64 `json:"net_profit"`
	ProfitMargin            float64 `json:"profit_margin"`
	AverageTransactionValue float64 `json:"average_transaction_value"`
	RevenuePerCustomer      float64 `json:"revenue_per_customer"`
	DiscountRate            float64 `json:"discount_rate"`
	RevenueAtRisk           float64 `json:"revenue_at_risk"`
}

// Report is the immutable result of one analysis run. Ownership passes
// entirely to the caller; the engine keeps no cross-run state.
type Report struct {
	Findings      []Finding                `json:"findings"`
	Metrics       FinancialMetrics         `json:"metrics"`
	Insights      Insights                 `json:"insights"`
	QualityScore  float64                  `json:"quality_score"`
	QualityBand   string                   `json:"quality_band"`
	ColumnProfile map[string]ColumnProfile `json:"column_profile"`
	Rows          int                      `json:"rows"`
	DuplicateRows int                      `json:"duplicate_rows"`
}

// Thresholds are the tunable decision constants of the detectors. The
// defaults preserve the values the detectors were designed around; none of
// them is asserted optimal.
type Thresholds struct {
	// NegativeRevenue severity breakpoints (share of rows negative) and the
	// processing-overhead multiplier applied to the negative total.
	NegativeRevenueCriticalShare float64 `json:"negative_revenue_critical_share"`
	NegativeRevenueHighShare     float64 `json:"negative_revenue_high_share"`
	NegativeRevenueOverhead      float64 `json:"negative_revenue_overhead"`

	// ExcessiveDiscount: healthy discount/revenue ratio ceiling, the ratio
	// above which severity escalates, and the single-discount spike
	// multiplier over the column mean.
	DiscountRatio           float64 `json:"discount_ratio"`
	DiscountHighRatio       float64 `json:"discount_high_ratio"`
	DiscountSpikeMultiplier float64 `json:"discount_spike_multiplier"`

	// MissingData: null share above which severity is Medium instead of Low.
	MissingDataMediumShare float64 `json:"missing_data_medium_share"`

	// PricingInconsistency: (max-min)/mean price variation ceiling per product.
	PriceVariance float64 `json:"price_variance"`

	// CustomerConcentration: revenue share breakpoints for a single customer.
	CustomerConcentration     float64 `json:"customer_concentration"`
	CustomerConcentrationHigh float64 `json:"customer_concentration_high"`

	// LowValueTransaction: assumed fixed processing cost per transaction.
	LowValueThreshold float64 `json:"low_value_threshold"`

	// RefundRateAnalysis: acceptable refund-rate band and the multiplier
	// covering processing, restocking and lost customer value.
	RefundRateMin        float64 `json:"refund_rate_min"`
	RefundRateMax        float64 `json:"refund_rate_max"`
	RefundCostMultiplier float64 `json:"refund_cost_multiplier"`

	// CostOutlier: standard deviations above the mean marking a cost outlier.
	CostOutlierSigmas float64 `json:"cost_outlier_sigmas"`
}

// DefaultThresholds returns the standard detector thresholds.
func DefaultThresholds() Thresholds {
	return Thresholds{
		NegativeRevenueCriticalShare: 0.10,
		NegativeRevenueHighShare:     0.02,
		NegativeRevenueOverhead:      1.25,
		DiscountRatio:                0.15,
		DiscountHighRatio:            0.25,
		DiscountSpikeMultiplier:      2.0,
		MissingDataMediumShare:       0.05,
		PriceVariance:                0.20,
		CustomerConcentration:        0.30,
		CustomerConcentrationHigh:    0.50,
		LowValueThreshold:            5.0,
		RefundRateMin:                0.02,
		RefundRateMax:                0.05,
		RefundCostMultiplier:         2.5,
		CostOutlierSigmas:            3.0,
	}
}

// IsValid checks the thresholds for internal consistency.
func (t Thresholds) IsValid() bool {
	return t.NegativeRevenueCriticalShare > t.NegativeRevenueHighShare &&
		t.NegativeRevenueHighShare >= 0 &&
		t.NegativeRevenueOverhead >= 1 &&
		t.DiscountRatio >= 0 && t.DiscountRatio <= 1 &&
		t.DiscountHighRatio > t.DiscountRatio &&
		t.DiscountSpikeMultiplier > 1 &&
		t.MissingDataMediumShare >= 0 && t.MissingDataMediumShare <= 1 &&
		t.PriceVariance > 0 &&
		t.CustomerConcentration > 0 && t.CustomerConcentration < 1 &&
		t.CustomerConcentrationHigh > t.CustomerConcentration &&
		t.LowValueThreshold >= 0 &&
		t.RefundRateMin >= 0 && t.RefundRateMax > t.RefundRateMin &&
		t.RefundCostMultiplier >= 1 &&
		t.CostOutlierSigmas > 0
}

// DetectorToggles switches individual detectors on and off.
type DetectorToggles struct {
	NegativeRevenue       bool `json:"negative_revenue"`
	ExcessiveDiscount     bool `json:"excessive_discount"`
	MissingData           bool `json:"missing_data"`
	DuplicateRows         bool `json:"duplicate_rows"`
	PricingInconsistency  bool `json:"pricing_inconsistency"`
	CustomerConcentration bool `json:"customer_concentration"`
	UnprofitableProduct   bool `json:"unprofitable_product"`
	LowValueTransaction   bool `json:"low_value_transaction"`
	RefundRate            bool `json:"refund_rate"`
	ZeroRevenue           bool `json:"zero_revenue"`
	CostOutlier           bool `json:"cost_outlier"`
	NegativeQuantity      bool `json:"negative_quantity"`
}

// DefaultDetectorToggles enables every detector.
func DefaultDetectorToggles() DetectorToggles {
	return DetectorToggles{
		NegativeRevenue:       true,
		ExcessiveDiscount:     true,
		MissingData:           true,
		DuplicateRows:         true,
		PricingInconsistency:  true,
		CustomerConcentration: true,
		UnprofitableProduct:   true,
		LowValueTransaction:   true,
		RefundRate:            true,
		ZeroRevenue:           true,
		CostOutlier:           true,
		NegativeQuantity:      true,
	}
}

// Config is the immutable configuration of one Analyzer. Each analysis run
// reads it without modification, so concurrent runs cannot interfere.
type Config struct {
	Thresholds Thresholds
	Keywords   Keywords
	Detectors  DetectorToggles

	// FuzzyDistance is the maximum edit distance for a fuzzy keyword match.
	FuzzyDistance int

	// Parallel runs detectors concurrently. This is purely a performance
	// option: results are merged and sorted only after all detectors finish.
	Parallel       bool
	MaxConcurrency int
}

// DefaultConfig returns a Config with standard thresholds and keywords.
func DefaultConfig() Config {
	return Config{
		Thresholds:     DefaultThresholds(),
		Keywords:       DefaultKeywords(),
		Detectors:      DefaultDetectorToggles(),
		FuzzyDistance:  2,
		Parallel:       true,
		MaxConcurrency: 4,
	}
}

// IsValid checks the configuration.
func (c Config) IsValid() bool {
	return c.Thresholds.IsValid() && len(c.Keywords) > 0 &&
		c.FuzzyDistance >= 0 && c.MaxConcurrency >= 1
}
