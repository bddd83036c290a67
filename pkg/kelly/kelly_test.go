package kelly

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestFraction_Favorable tests the closed-form Kelly fraction
func TestFraction_Favorable(t *testing.T) {
	f, ok := Fraction(2.5, 0.5)

	require.True(t, ok)
	assert.InDelta(t, 0.1667, f, 1e-4)
}

// TestFraction_Unfavorable tests that negative fractions are returned unclamped
func TestFraction_Unfavorable(t *testing.T) {
	f, ok := Fraction(2.0, 0.4)

	require.True(t, ok)
	assert.InDelta(t, -0.2, f, 1e-9)
}

// TestFraction_InvalidOdds tests that degenerate prices are rejected for any probability
func TestFraction_InvalidOdds(t *testing.T) {
	odds := []float64{1, 0.99, 0, -2.5, math.NaN(), math.Inf(1), math.Inf(-1)}
	probs := []float64{0, 0.3, 0.5, 1}

	for _, o := range odds {
		for _, p := range probs {
			_, ok := Fraction(o, p)
			assert.False(t, ok, "odds=%v prob=%v", o, p)
		}
	}
}

// TestFraction_FairPrice tests that a fair price yields a zero stake
func TestFraction_FairPrice(t *testing.T) {
	f, ok := Fraction(2.0, 0.5)

	require.True(t, ok)
	assert.InDelta(t, 0, f, 1e-12)
}

// TestImpliedProbabilities tests 1/odds with zero for non-positive odds
func TestImpliedProbabilities(t *testing.T) {
	implied := ImpliedProbabilities([]float64{2.5, 4, 0, -1})
	assert.Equal(t, []float64{0.4, 0.25, 0, 0}, implied)
}

// TestImpliedProbabilities_Overflow tests that odds too small to invert imply zero
func TestImpliedProbabilities_Overflow(t *testing.T) {
	implied := ImpliedProbabilities([]float64{1e-320, 2})

	assert.Equal(t, []float64{0, 0.5}, implied)
	assert.False(t, math.IsInf(Overround(implied), 0))
}

// TestNormalize_SumsToOne tests margin removal
func TestNormalize_SumsToOne(t *testing.T) {
	implied := []float64{0.4, 0.294, 0.3226}

	norm := Normalize(implied)

	require.Len(t, norm, 3)
	var sum float64
	for _, p := range norm {
		sum += p
	}
	assert.InDelta(t, 1.0, sum, 1e-6)
	assert.InDelta(t, 1.0166, Overround(implied), 1e-9)
	// Order is preserved and proportions kept
	assert.Greater(t, norm[0], norm[2])
	assert.Greater(t, norm[2], norm[1])
}

// TestNormalize_ZeroOverround tests that an empty market yields zeros
func TestNormalize_ZeroOverround(t *testing.T) {
	assert.Equal(t, []float64{0, 0}, Normalize([]float64{0, 0}))
	assert.Empty(t, Normalize(nil))
}
