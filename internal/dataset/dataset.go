package dataset

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Kind identifies the inferred primitive type of a column.
type Kind int

const (
	KindText Kind = iota
	KindNumeric
	KindDate
	KindBool
)

// String returns the string representation of the kind.
func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindNumeric:
		return "numeric"
	case KindDate:
		return "date"
	case KindBool:
		return "boolean"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler so kinds serialize as names.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// numericShare is the minimum fraction of non-null values that must parse as
// numbers for a column to be inferred numeric. Values that fail to parse in a
// numeric column are treated as nulls.
const numericShare = 0.8

// dateShare is the minimum fraction of non-null values that must parse as
// dates for a column to be inferred as a date column.
const dateShare = 0.6

// dateLayouts are tried in order when inferring date columns.
var dateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"02/01/2006",
	"01/02/2006",
	"02-01-2006",
	"Jan 2, 2006",
	"2 Jan 2006",
	time.RFC3339,
	"2006-01-02 15:04:05",
}

// nullMarkers are raw values treated as missing data.
var nullMarkers = map[string]bool{
	"":     true,
	"na":   true,
	"n/a":  true,
	"null": true,
	"nil":  true,
	"none": true,
	"-":    true,
}

// cell holds one parsed value. Exactly one of the typed fields is meaningful,
// selected by the owning column's kind; Null overrides all of them.
type cell struct {
	raw  string
	null bool
	num  float64
	ts   time.Time
	b    bool
}

// Column is an ordered sequence of values of a single inferred kind.
// Columns are immutable after the table is built.
type Column struct {
	name  string
	kind  Kind
	cells []cell
}

// Name returns the column name as it appeared in the header.
func (c *Column) Name() string { return c.name }

// Kind returns the inferred primitive type of the column.
func (c *Column) Kind() Kind { return c.kind }

// Len returns the number of values in the column.
func (c *Column) Len() int { return len(c.cells) }

// IsNull reports whether the value at row i is missing. Malformed values in
// typed columns count as nulls.
func (c *Column) IsNull(i int) bool { return c.cells[i].null }

// Float returns the numeric value at row i. The second return is false when
// the value is null or the column is not numeric.
func (c *Column) Float(i int) (float64, bool) {
	if c.kind != KindNumeric || c.cells[i].null {
		return 0, false
	}
	return c.cells[i].num, true
}

// Time returns the date value at row i for date columns.
func (c *Column) Time(i int) (time.Time, bool) {
	if c.kind != KindDate || c.cells[i].null {
		return time.Time{}, false
	}
	return c.cells[i].ts, true
}

// Bool returns the boolean value at row i for boolean columns.
func (c *Column) Bool(i int) (bool, bool) {
	if c.kind != KindBool || c.cells[i].null {
		return false, false
	}
	return c.cells[i].b, true
}

// Raw returns the original string value at row i, trimmed.
func (c *Column) Raw(i int) string { return c.cells[i].raw }

// Truthy reports whether the value at row i should count as "set" for
// flag-like semantics: non-zero numbers, true booleans, and non-null text.
func (c *Column) Truthy(i int) bool {
	if c.cells[i].null {
		return false
	}
	switch c.kind {
	case KindNumeric:
		return c.cells[i].num != 0
	case KindBool:
		return c.cells[i].b
	default:
		return c.cells[i].raw != ""
	}
}

// Table is an immutable, in-memory tabular dataset: ordered named columns,
// each holding one value per row. Row and column counts are fixed once built.
type Table struct {
	columns []*Column
	index   map[string]int
	rows    int
}

// NewTable builds a Table from a header row and already-decoded records.
// Records shorter than the header are padded with nulls; longer records are
// truncated. Column kinds are inferred from the values. The caller is
// expected to have normalized currency symbols and thousands separators;
// leftover symbols are stripped best-effort and anything still unparseable
// becomes a null.
func NewTable(header []string, records [][]string) (*Table, error) {
	if len(header) == 0 {
		return nil, fmt.Errorf("dataset: header has no columns")
	}

	index := make(map[string]int, len(header))
	columns := make([]*Column, len(header))
	for i, name := range header {
		name = strings.TrimSpace(strings.TrimPrefix(name, "\uFEFF"))
		if name == "" {
			name = fmt.Sprintf("column_%d", i+1)
		}
		if _, dup := index[name]; dup {
			return nil, fmt.Errorf("dataset: duplicate column name %q", name)
		}
		index[name] = i
		columns[i] = &Column{name: name}
	}

	for i := range columns {
		raws := make([]string, len(records))
		for r, rec := range records {
			if i < len(rec) {
				raws[r] = strings.TrimSpace(rec[i])
			}
		}
		columns[i].kind = inferKind(raws)
		columns[i].cells = parseCells(raws, columns[i].kind)
	}

	return &Table{columns: columns, index: index, rows: len(records)}, nil
}

// RowCount returns the number of data rows.
func (t *Table) RowCount() int {
	if t == nil {
		return 0
	}
	return t.rows
}

// ColumnCount returns the number of columns.
func (t *Table) ColumnCount() int {
	if t == nil {
		return 0
	}
	return len(t.columns)
}

// ColumnNames returns the column names in table order.
func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.columns))
	for i, c := range t.columns {
		names[i] = c.name
	}
	return names
}

// Column returns the named column, or false when absent.
func (t *Table) Column(name string) (*Column, bool) {
	i, ok := t.index[name]
	if !ok {
		return nil, false
	}
	return t.columns[i], true
}

// ColumnAt returns the column at position i in table order.
func (t *Table) ColumnAt(i int) *Column { return t.columns[i] }

// RowKey returns a canonical key for row i built from the raw values of all
// columns. Two rows with equal keys are exact duplicates.
func (t *Table) RowKey(i int) string {
	var b strings.Builder
	for ci, c := range t.columns {
		if ci > 0 {
			b.WriteByte('\x1f')
		}
		b.WriteString(c.cells[i].raw)
	}
	return b.String()
}

// IsEmpty reports whether the table has no usable data.
func (t *Table) IsEmpty() bool {
	return t == nil || t.rows == 0 || len(t.columns) == 0
}

// inferKind picks the primitive type that the majority of non-null values
// parse as, preferring numeric over date over boolean.
func inferKind(raws []string) Kind {
	var nonNull, numeric, date, boolean int
	for _, raw := range raws {
		if isNullMarker(raw) {
			continue
		}
		nonNull++
		if _, ok := ParseNumber(raw); ok {
			numeric++
		}
		if _, ok := parseDate(raw); ok {
			date++
		}
		if _, ok := parseBool(raw); ok {
			boolean++
		}
	}
	if nonNull == 0 {
		return KindText
	}
	switch {
	case float64(numeric)/float64(nonNull) >= numericShare:
		return KindNumeric
	case float64(date)/float64(nonNull) >= dateShare:
		return KindDate
	case boolean == nonNull:
		return KindBool
	default:
		return KindText
	}
}

func parseCells(raws []string, kind Kind) []cell {
	cells := make([]cell, len(raws))
	for i, raw := range raws {
		cells[i].raw = raw
		if isNullMarker(raw) {
			cells[i].null = true
			continue
		}
		switch kind {
		case KindNumeric:
			if n, ok := ParseNumber(raw); ok {
				cells[i].num = n
			} else {
				cells[i].null = true
			}
		case KindDate:
			if ts, ok := parseDate(raw); ok {
				cells[i].ts = ts
			} else {
				cells[i].null = true
			}
		case KindBool:
			if b, ok := parseBool(raw); ok {
				cells[i].b = b
			} else {
				cells[i].null = true
			}
		}
	}
	return cells
}

func isNullMarker(raw string) bool {
	return nullMarkers[strings.ToLower(raw)]
}

// ParseNumber parses a numeric value, stripping common currency symbols,
// thousands separators and accounting-style parentheses. It never panics;
// unparseable input returns ok=false.
func ParseNumber(raw string) (float64, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, false
	}
	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = s[1 : len(s)-1]
	}
	s = strings.Trim(s, "$€£¥ ")
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSuffix(s, "%")
	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	if negative {
		n = -n
	}
	return n, true
}

func parseDate(raw string) (time.Time, bool) {
	for _, layout := range dateLayouts {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}

func parseBool(raw string) (bool, bool) {
	switch strings.ToLower(raw) {
	case "true", "yes", "y":
		return true, true
	case "false", "no", "n":
		return false, true
	default:
		return false, false
	}
}
