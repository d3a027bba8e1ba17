package critic

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mvp-joe/code-critic/internal/chunk"
)

// Test Plan for Thresholds:
// - A clean chunk is not selected
// - Each threshold fires on its own, strictly above the limit
// - Docstring requirement can be switched off
// - Reasons lists every fired check in order

func cleanMetrics() chunk.Metrics {
	return chunk.Metrics{
		LineCount:            10,
		NestingDepth:         1,
		CyclomaticComplexity: 2,
		MagicNumbers:         []chunk.MagicNumber{chunk.Int(42)},
		HasDocstring:         true,
	}
}

func TestThresholds_Select(t *testing.T) {
	t.Parallel()

	th := DefaultThresholds()

	tests := []struct {
		name   string
		mutate func(*chunk.Metrics)
		want   bool
	}{
		{"clean", func(m *chunk.Metrics) {}, false},
		{"complexity at limit", func(m *chunk.Metrics) { m.CyclomaticComplexity = 10 }, false},
		{"complexity over limit", func(m *chunk.Metrics) { m.CyclomaticComplexity = 11 }, true},
		{"nesting at limit", func(m *chunk.Metrics) { m.NestingDepth = 3 }, false},
		{"nesting over limit", func(m *chunk.Metrics) { m.NestingDepth = 4 }, true},
		{"lines at limit", func(m *chunk.Metrics) { m.LineCount = 50 }, false},
		{"lines over limit", func(m *chunk.Metrics) { m.LineCount = 51 }, true},
		{"no docstring", func(m *chunk.Metrics) { m.HasDocstring = false }, true},
		{"three magic numbers", func(m *chunk.Metrics) {
			m.MagicNumbers = []chunk.MagicNumber{chunk.Int(2), chunk.Int(3), chunk.Int(4)}
		}, false},
		{"four magic numbers", func(m *chunk.Metrics) {
			m.MagicNumbers = []chunk.MagicNumber{chunk.Int(2), chunk.Int(3), chunk.Int(4), chunk.Float(0.5)}
		}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := cleanMetrics()
			tt.mutate(&m)
			assert.Equal(t, tt.want, th.Select(m))
		})
	}
}

func TestThresholds_DocstringOptional(t *testing.T) {
	t.Parallel()

	th := DefaultThresholds()
	th.RequireDocstring = false

	m := cleanMetrics()
	m.HasDocstring = false
	assert.False(t, th.Select(m))
}

func TestThresholds_Reasons(t *testing.T) {
	t.Parallel()

	m := chunk.Metrics{
		LineCount:            80,
		NestingDepth:         5,
		CyclomaticComplexity: 12,
		HasDocstring:         false,
	}
	assert.Equal(t, []string{
		"cyclomatic complexity 12 > 10",
		"nesting depth 5 > 3",
		"line count 80 > 50",
		"missing docstring",
	}, DefaultThresholds().Reasons(m))

	assert.Empty(t, DefaultThresholds().Reasons(cleanMetrics()))
}
