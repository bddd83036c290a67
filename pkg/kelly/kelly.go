package kelly

import "math"

// Fraction computes the Kelly stake fraction for decimal odds and a win probability.
// f = (b*p - q) / b where b = odds - 1 and q = 1 - p.
//
// It returns false for odds that are not finite or not above 1. The result is
// not floored: f <= 0 means there is no favorable bet and callers must treat it
// that way.
func Fraction(odds, probability float64) (float64, bool) {
	if math.IsNaN(odds) || math.IsInf(odds, 0) || odds <= 1 {
		return 0, false
	}
	b := odds - 1
	q := 1 - probability
	return (b*probability - q) / b, true
}

// ImpliedProbabilities converts decimal odds to implied probabilities (1/odds).
// Non-positive odds, and odds so small that 1/odds overflows, imply zero.
func ImpliedProbabilities(odds []float64) []float64 {
	implied := make([]float64, len(odds))
	for i, o := range odds {
		if o <= 0 {
			continue
		}
		if p := 1 / o; !math.IsInf(p, 0) {
			implied[i] = p
		}
	}
	return implied
}

// Overround is the sum of implied probabilities, above 1 by the bookmaker margin
func Overround(implied []float64) float64 {
	var sum float64
	for _, p := range implied {
		sum += p
	}
	return sum
}

// Normalize removes the margin proportionally so the probabilities sum to 1
func Normalize(implied []float64) []float64 {
	overround := Overround(implied)
	norm := make([]float64, len(implied))
	if overround <= 0 {
		return norm
	}
	for i, p := range implied {
		norm[i] = p / overround
	}
	return norm
}
