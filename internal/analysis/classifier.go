package analysis

import (
	"log/slog"
	"strings"

	"github.com/agext/levenshtein"

	"revlens/internal/dataset"
)

// Classification is the classifier's verdict for one column.
type Classification struct {
	Role       Role    `json:"role"`
	Confidence float64 `json:"confidence"`
	// Matches counts the keywords that matched the winning role's set; the
	// profile uses it to break ties when designating primary columns.
	Matches int `json:"matches"`
}

// Classifier assigns a semantic role to each column using fuzzy name matching
// plus value-shape heuristics. It is a pure function of the table: it never
// errors, and the worst case is every column tagged Unknown.
type Classifier struct {
	keywords      Keywords
	fuzzyDistance int
	logger        *slog.Logger
}

// NewClassifier creates a classifier with the given keyword sets and fuzzy
// edit-distance threshold.
func NewClassifier(keywords Keywords, fuzzyDistance int, logger *slog.Logger) *Classifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Classifier{keywords: keywords, fuzzyDistance: fuzzyDistance, logger: logger}
}

// Classify maps every column name to its resolved role and confidence.
func (c *Classifier) Classify(t *dataset.Table) map[string]Classification {
	classes := make(map[string]Classification, t.ColumnCount())
	for i := 0; i < t.ColumnCount(); i++ {
		col := t.ColumnAt(i)
		classes[col.Name()] = c.classifyColumn(col)
	}
	return classes
}

// classifyColumn resolves one column. Candidate roles are collected from the
// keyword sets, then filtered by value shape; the highest-priority survivor
// wins. A column with no keyword match but date-shaped values still resolves
// to Date.
func (c *Classifier) classifyColumn(col *dataset.Column) Classification {
	name := normalizeName(col.Name())

	best := Classification{Role: RoleUnknown}
	if name == "" {
		if col.Kind() == dataset.KindDate {
			return Classification{Role: RoleDate, Confidence: 0.4}
		}
		return best
	}
	for _, role := range allRoles {
		confidence, matches := c.matchRole(name, c.keywords[role])
		if matches == 0 {
			continue
		}
		if !shapeCompatible(role, col.Kind()) {
			c.logger.Debug("column shape rules out keyword role",
				slog.String("column", col.Name()),
				slog.String("role", role.String()),
				slog.String("kind", col.Kind().String()))
			continue
		}
		// allRoles is in priority order, so the first compatible hit wins.
		best = Classification{Role: role, Confidence: confidence, Matches: matches}
		break
	}

	if best.Role == RoleUnknown && col.Kind() == dataset.KindDate {
		// Shape-only inference: predominantly parseable dates.
		best = Classification{Role: RoleDate, Confidence: 0.4}
	}

	return best
}

// fuzzyMinSimilarity is the minimum normalized similarity a token must reach
// for a fuzzy keyword match. The edit-distance threshold alone lets short,
// unrelated words cross roles (amount/account are distance 2 apart); the
// similarity floor keeps fuzzy matching to genuine misspellings.
const fuzzyMinSimilarity = 0.75

// matchRole scores a normalized column name against one keyword set. A
// keyword matches on containment in either direction, or when a token of the
// name is both within the fuzzy edit distance of the keyword and similar
// enough to it.
func (c *Classifier) matchRole(name string, keywords []string) (float64, int) {
	var confidence float64
	matches := 0
	tokens := strings.Fields(name)

	for _, kw := range keywords {
		score := c.matchKeyword(name, tokens, kw)
		if score == 0 {
			continue
		}
		matches++
		if score > confidence {
			confidence = score
		} else {
			// Extra matching keywords nudge confidence up without letting a
			// pile of weak matches outrank a single exact one.
			confidence = minFloat(1, confidence+0.05)
		}
	}
	return confidence, matches
}

func (c *Classifier) matchKeyword(name string, tokens []string, kw string) float64 {
	if strings.Contains(name, kw) || strings.Contains(kw, name) {
		return 0.9
	}
	// Fuzzy matching is only meaningful on keywords long enough that a small
	// edit distance cannot turn them into a different word.
	if len(kw) <= c.fuzzyDistance+1 {
		return 0
	}
	for _, tok := range tokens {
		if levenshtein.Distance(tok, kw, nil) > c.fuzzyDistance {
			continue
		}
		if sim := levenshtein.Similarity(tok, kw, nil); sim >= fuzzyMinSimilarity {
			return 0.7 * sim
		}
	}
	return 0
}

// normalizeName lowercases a column name, turns separators into spaces and
// strips the remaining punctuation.
func normalizeName(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '_' || r == '-' || r == '.' || r == '/' || r == ' ':
			b.WriteByte(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
