package analysis

import (
	"math"
	"sort"

	"revlens/internal/dataset"
)

// topValueCount bounds the per-column frequency list kept for text columns.
const topValueCount = 5

// ColumnProfile is the derived, read-only summary of one column. Numeric
// statistics are meaningful only when Numeric is true.
type ColumnProfile struct {
	Name        string       `json:"name"`
	Role        Role         `json:"role"`
	Kind        dataset.Kind `json:"type"`
	Confidence  float64      `json:"confidence"`
	Count       int          `json:"count"`
	NullCount   int          `json:"null_count"`
	UniqueCount int          `json:"unique_count"`

	Numeric       bool    `json:"numeric"`
	Sum           float64 `json:"sum,omitempty"`
	Mean          float64 `json:"mean,omitempty"`
	Min           float64 `json:"min,omitempty"`
	Max           float64 `json:"max,omitempty"`
	StdDev        float64 `json:"std_dev,omitempty"`
	NegativeCount int     `json:"negative_count,omitempty"`
	ZeroCount     int     `json:"zero_count,omitempty"`

	TopValues map[string]int `json:"top_values,omitempty"`

	matches int
}

// NullShare returns the fraction of rows in which the column is null.
func (cp ColumnProfile) NullShare() float64 {
	if cp.Count == 0 {
		return 0
	}
	return float64(cp.NullCount) / float64(cp.Count)
}

// Profile is the derived, read-only summary of a classified table. It is
// computed once per analysis run and shared by every detector and the
// aggregator; no component may mutate it after creation.
type Profile struct {
	Rows          int
	DuplicateRows int

	columns   map[string]ColumnProfile
	order     []string
	primaries map[Role]string
}

// BuildProfile computes per-column statistics and designates a primary column
// per role. It is the only place these statistics are computed; detectors
// consume them read-only.
func BuildProfile(t *dataset.Table, classes map[string]Classification) *Profile {
	p := &Profile{
		Rows:      t.RowCount(),
		columns:   make(map[string]ColumnProfile, t.ColumnCount()),
		order:     make([]string, 0, t.ColumnCount()),
		primaries: make(map[Role]string),
	}

	for i := 0; i < t.ColumnCount(); i++ {
		col := t.ColumnAt(i)
		class := classes[col.Name()]
		cp := profileColumn(col, class)
		p.columns[col.Name()] = cp
		p.order = append(p.order, col.Name())
	}

	p.DuplicateRows = countDuplicateRows(t)
	p.designatePrimaries()
	return p
}

// Column returns the profile of the named column.
func (p *Profile) Column(name string) (ColumnProfile, bool) {
	cp, ok := p.columns[name]
	return cp, ok
}

// Columns returns all column profiles keyed by name. The returned map is the
// profile's own; callers must treat it as read-only.
func (p *Profile) Columns() map[string]ColumnProfile { return p.columns }

// ColumnNames returns all column names in table order.
func (p *Profile) ColumnNames() []string {
	return append([]string(nil), p.order...)
}

// ColumnsWithRole returns the names of all columns with the given role, in
// table order.
func (p *Profile) ColumnsWithRole(role Role) []string {
	var names []string
	for _, name := range p.order {
		if p.columns[name].Role == role {
			names = append(names, name)
		}
	}
	return names
}

// Primary returns the primary column for a role: the one with the highest
// aggregate magnitude, then the most keyword matches, then table order.
func (p *Profile) Primary(role Role) (ColumnProfile, bool) {
	name, ok := p.primaries[role]
	if !ok {
		return ColumnProfile{}, false
	}
	return p.columns[name], true
}

// HasRole reports whether any column resolved to the given role.
func (p *Profile) HasRole(role Role) bool {
	_, ok := p.primaries[role]
	return ok
}

func (p *Profile) designatePrimaries() {
	for _, role := range allRoles {
		candidates := p.ColumnsWithRole(role)
		if len(candidates) == 0 {
			continue
		}
		best := candidates[0]
		for _, name := range candidates[1:] {
			if betterPrimary(p.columns[name], p.columns[best]) {
				best = name
			}
		}
		p.primaries[role] = best
	}
}

func betterPrimary(a, b ColumnProfile) bool {
	if a.Numeric && b.Numeric && math.Abs(a.Sum) != math.Abs(b.Sum) {
		return math.Abs(a.Sum) > math.Abs(b.Sum)
	}
	if a.matches != b.matches {
		return a.matches > b.matches
	}
	return a.Confidence > b.Confidence
}

func profileColumn(col *dataset.Column, class Classification) ColumnProfile {
	cp := ColumnProfile{
		Name:       col.Name(),
		Role:       class.Role,
		Kind:       col.Kind(),
		Confidence: class.Confidence,
		Count:      col.Len(),
		matches:    class.Matches,
	}

	unique := make(map[string]int)
	var sum, sumSq float64
	var numCount int
	min := math.Inf(1)
	max := math.Inf(-1)

	for i := 0; i < col.Len(); i++ {
		if col.IsNull(i) {
			cp.NullCount++
			continue
		}
		unique[col.Raw(i)]++

		if n, ok := col.Float(i); ok {
			numCount++
			sum += n
			sumSq += n * n
			if n < min {
				min = n
			}
			if n > max {
				max = n
			}
			if n < 0 {
				cp.NegativeCount++
			}
			if n == 0 {
				cp.ZeroCount++
			}
		}
	}

	cp.UniqueCount = len(unique)

	if col.Kind() == dataset.KindNumeric && numCount > 0 {
		cp.Numeric = true
		cp.Sum = sum
		cp.Mean = sum / float64(numCount)
		cp.Min = min
		cp.Max = max
		variance := sumSq/float64(numCount) - cp.Mean*cp.Mean
		if variance > 0 {
			cp.StdDev = math.Sqrt(variance)
		}
	}

	if col.Kind() == dataset.KindText {
		cp.TopValues = topValues(unique, topValueCount)
	}

	return cp
}

// topValues keeps the n most frequent raw values of a text column.
func topValues(freq map[string]int, n int) map[string]int {
	type vc struct {
		value string
		count int
	}
	all := make([]vc, 0, len(freq))
	for v, c := range freq {
		all = append(all, vc{v, c})
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].count != all[j].count {
			return all[i].count > all[j].count
		}
		return all[i].value < all[j].value
	})
	if len(all) > n {
		all = all[:n]
	}
	top := make(map[string]int, len(all))
	for _, e := range all {
		top[e.value] = e.count
	}
	return top
}

// countDuplicateRows counts rows that are exact copies of an earlier row,
// comparing the raw values of every column.
func countDuplicateRows(t *dataset.Table) int {
	seen := make(map[string]bool, t.RowCount())
	dups := 0
	for i := 0; i < t.RowCount(); i++ {
		key := t.RowKey(i)
		if seen[key] {
			dups++
		} else {
			seen[key] = true
		}
	}
	return dups
}
