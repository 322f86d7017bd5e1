package analysis

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScoreQuality(t *testing.T) {
	t.Run("clean data scores 100", func(t *testing.T) {
		p := buildTestProfile(t,
			[]string{"Revenue", "Customer"},
			[][]string{{"100", "A"}, {"200", "B"}})

		assert.Equal(t, 100.0, scoreQuality(p, nil))
	})

	t.Run("findings cost five points each", func(t *testing.T) {
		p := buildTestProfile(t,
			[]string{"Revenue"},
			[][]string{{"100"}, {"200"}})

		score := scoreQuality(p, []Finding{{}, {}, {}})
		assert.Equal(t, 85.0, score)
	})

	t.Run("nulls and duplicates penalized", func(t *testing.T) {
		records := make([][]string, 10)
		for i := range records {
			records[i] = []string{"100", fmt.Sprintf("C%d", i)}
		}
		records[2] = []string{"", "C2"}
		records[9] = records[8]
		p := buildTestProfile(t, []string{"Revenue", "Customer"}, records)

		// Null share: revenue 10%, customer 0%, average 5%.
		// Duplicates: 1 of 10 rows.
		want := 100.0 - 2*5 - 3*10
		assert.InDelta(t, want, scoreQuality(p, nil), 1e-9)
	})

	t.Run("unclassified columns count toward the null average", func(t *testing.T) {
		p := buildTestProfile(t,
			[]string{"Revenue", "zzz"},
			[][]string{
				{"100", "x"},
				{"200", ""},
			})

		// Null share: revenue 0%, the unknown column 50%, average 25%.
		assert.InDelta(t, 100.0-2*25, scoreQuality(p, nil), 1e-9)
	})

	t.Run("score clamps at zero", func(t *testing.T) {
		p := buildTestProfile(t,
			[]string{"Revenue"},
			[][]string{{"100"}})

		findings := make([]Finding, 30)
		assert.Equal(t, 0.0, scoreQuality(p, findings))
	})

	t.Run("empty profile scores zero", func(t *testing.T) {
		p := buildTestProfile(t, []string{"Revenue"}, nil)
		assert.Equal(t, 0.0, scoreQuality(p, nil))
	})
}

func TestQualityBand(t *testing.T) {
	tests := []struct {
		score float64
		want  string
	}{
		{100, QualityExcellent},
		{90, QualityExcellent},
		{89.9, QualityGood},
		{75, QualityGood},
		{74.9, QualityFair},
		{60, QualityFair},
		{59.9, QualityPoor},
		{0, QualityPoor},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, qualityBand(tt.score), "score %.1f", tt.score)
	}
}
