package analysis

// Keywords maps each role to the name fragments that suggest it. The sets are
// immutable configuration data injected into the classifier; callers may
// extend them per role but must not share a mutated copy across runs.
type Keywords map[Role][]string

// DefaultKeywords returns the standard keyword sets for column-role
// inference.
func DefaultKeywords() Keywords {
	return Keywords{
		RoleRevenue: {
			"revenue", "sales", "income", "amount", "total", "price", "payment",
			"received", "collection", "receipt", "billing", "invoice", "charge",
			"gross", "net", "proceeds", "earning", "turnover", "value",
		},
		RoleCost: {
			"cost", "expense", "cogs", "spend", "payable", "expenditure",
			"overhead", "outflow", "disbursement", "liability", "purchase",
		},
		RoleDiscount: {
			"discount", "rebate", "reduction", "markdown", "allowance",
			"concession", "promo", "coupon", "voucher", "deal",
		},
		RoleRefund: {
			"refund", "return", "chargeback", "reversal", "cancellation", "void",
		},
		RoleProfit: {
			"profit", "margin", "markup", "net income", "earnings", "gain",
		},
		RoleCustomer: {
			"customer", "client", "buyer", "account", "company",
			"organization", "user", "member", "subscriber",
		},
		RoleProduct: {
			"product", "item", "sku", "service", "description", "category",
			"model", "variant", "article",
		},
		RoleQuantity: {
			"quantity", "qty", "units", "count", "volume", "items",
			"pieces", "orders", "sold",
		},
		RoleDate: {
			"date", "time", "day", "month", "year", "period", "timestamp",
			"created", "modified",
		},
	}
}

// Merge returns a copy of the keyword sets with extra keywords appended per
// role. The receiver is not modified.
func (k Keywords) Merge(extra map[Role][]string) Keywords {
	merged := make(Keywords, len(k))
	for role, words := range k {
		merged[role] = append([]string(nil), words...)
	}
	for role, words := range extra {
		merged[role] = append(merged[role], words...)
	}
	return merged
}
