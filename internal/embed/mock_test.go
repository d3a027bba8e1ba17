package embed

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test Plan for mock provider:
// - Same text always yields the same vector, different texts differ
// - Vectors have the configured dimensions and unit length
// - Cancelled context is rejected

func TestMockProvider_Deterministic(t *testing.T) {
	t.Parallel()

	p := NewMockProvider(96)
	require.NoError(t, p.Initialize(context.Background()))

	a, err := p.Embed(context.Background(), []string{"def f(): pass", "class A: pass", "def f(): pass"}, EmbedModePassage)
	require.NoError(t, err)
	require.Len(t, a, 3)

	assert.Equal(t, a[0], a[2])
	assert.NotEqual(t, a[0], a[1])

	for _, vec := range a {
		require.Len(t, vec, 96)
		var norm float64
		for _, v := range vec {
			norm += float64(v) * float64(v)
		}
		assert.InDelta(t, 1.0, math.Sqrt(norm), 1e-4)
	}

	// Dimensions beyond one hash block must not simply repeat the first block.
	assert.NotEqual(t, a[0][:8], a[0][8:16])
}

func TestMockProvider_Cancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewMockProvider(8).Embed(ctx, []string{"x"}, EmbedModeQuery)
	require.ErrorIs(t, err, context.Canceled)
}
