package critic

import (
	"fmt"

	"github.com/mvp-joe/code-critic/internal/chunk"
)

// Thresholds decide which chunks are worth sending to the model. A chunk is
// selected when any measurement exceeds its limit.
type Thresholds struct {
	MaxComplexity    int
	MaxNesting       int
	MaxLines         int
	MaxMagicNumbers  int
	RequireDocstring bool
}

// DefaultThresholds returns the stock limits.
func DefaultThresholds() Thresholds {
	return Thresholds{
		MaxComplexity:    10,
		MaxNesting:       3,
		MaxLines:         50,
		MaxMagicNumbers:  3,
		RequireDocstring: true,
	}
}

// Select reports whether the metrics trip any threshold.
func (t Thresholds) Select(m chunk.Metrics) bool {
	return len(t.Reasons(m)) > 0
}

// Reasons lists every threshold the metrics exceed, in a fixed order.
func (t Thresholds) Reasons(m chunk.Metrics) []string {
	var reasons []string
	if m.CyclomaticComplexity > t.MaxComplexity {
		reasons = append(reasons, fmt.Sprintf("cyclomatic complexity %d > %d", m.CyclomaticComplexity, t.MaxComplexity))
	}
	if m.NestingDepth > t.MaxNesting {
		reasons = append(reasons, fmt.Sprintf("nesting depth %d > %d", m.NestingDepth, t.MaxNesting))
	}
	if m.LineCount > t.MaxLines {
		reasons = append(reasons, fmt.Sprintf("line count %d > %d", m.LineCount, t.MaxLines))
	}
	if t.RequireDocstring && !m.HasDocstring {
		reasons = append(reasons, "missing docstring")
	}
	if len(m.MagicNumbers) > t.MaxMagicNumbers {
		reasons = append(reasons, fmt.Sprintf("%d magic numbers > %d", len(m.MagicNumbers), t.MaxMagicNumbers))
	}
	return reasons
}
