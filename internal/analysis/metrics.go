package analysis

// computeMetrics derives the headline financial figures from the profile's
// primary columns. Every ratio guards its denominator: a missing or zero
// denominator yields 0, never NaN or Inf.
func computeMetrics(p *Profile, findings []Finding) FinancialMetrics {
	var m FinancialMetrics

	rev, hasRevenue := p.Primary(RoleRevenue)
	if hasRevenue && rev.Numeric {
		m.TotalRevenue = rev.Sum
		m.AverageTransactionValue = rev.Mean
	}

	if cost, ok := p.Primary(RoleCost); ok && cost.Numeric {
		m.TotalCost = cost.Sum
	}

	// NetProfit is derived from the totals, not summed independently, so the
	// identity NetProfit == TotalRevenue - TotalCost holds exactly.
	m.NetProfit = m.TotalRevenue - m.TotalCost
	if m.TotalRevenue != 0 {
		m.ProfitMargin = m.NetProfit / m.TotalRevenue
	}

	if customer, ok := p.Primary(RoleCustomer); ok && customer.UniqueCount > 0 {
		m.RevenuePerCustomer = m.TotalRevenue / float64(customer.UniqueCount)
	}

	if disc, ok := p.Primary(RoleDiscount); ok && disc.Numeric && m.TotalRevenue != 0 {
		m.DiscountRate = abs(disc.Sum) / m.TotalRevenue
	}

	for _, f := range findings {
		m.RevenueAtRisk += f.FinancialImpact
	}
	return m
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
