package analysis

// Quality band labels reported alongside the numeric score.
const (
	QualityExcellent = "Excellent"
	QualityGood      = "Good"
	QualityFair      = "Fair"
	QualityPoor      = "Poor"
)

// scoreQuality rates a dataset from 0 to 100. The score starts at 100 and
// pays penalties for missing values, duplicate rows and the number of
// findings. An empty table scores 0.
func scoreQuality(p *Profile, findings []Finding) float64 {
	if p.Rows == 0 || len(p.Columns()) == 0 {
		return 0
	}

	var nullShareSum float64
	for _, name := range p.ColumnNames() {
		cp, _ := p.Column(name)
		nullShareSum += cp.NullShare()
	}
	avgNullPct := nullShareSum / float64(len(p.Columns())) * 100
	dupPct := float64(p.DuplicateRows) / float64(p.Rows) * 100

	score := 100 - 2*avgNullPct - 3*dupPct - 5*float64(len(findings))
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

// qualityBand maps a score to its label.
func qualityBand(score float64) string {
	switch {
	case score >= 90:
		return QualityExcellent
	case score >= 75:
		return QualityGood
	case score >= 60:
		return QualityFair
	default:
		return QualityPoor
	}
}
