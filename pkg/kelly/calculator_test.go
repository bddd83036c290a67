package kelly

import (
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cypherlabdev/kelly-calculator-service/internal/models"
)

// testCalculatorSetup is a helper struct to hold test dependencies
type testCalculatorSetup struct {
	calculator *Calculator
	params     models.KellyParams
}

// setupTestCalculator creates a half-Kelly calculator
func setupTestCalculator() *testCalculatorSetup {
	params := models.KellyParams{FractionalRatio: 0.5}

	return &testCalculatorSetup{
		calculator: NewCalculator(params, zerolog.Nop()),
		params:     params,
	}
}

// TestNewCalculator tests calculator creation
func TestNewCalculator(t *testing.T) {
	setup := setupTestCalculator()
	assert.NotNil(t, setup.calculator)
	assert.Equal(t, setup.params, setup.calculator.params)
}

// TestEvaluate_PreservesOutcomes tests that every odds value yields one outcome, in order
func TestEvaluate_PreservesOutcomes(t *testing.T) {
	setup := setupTestCalculator()
	record := models.MatchRecord{Name: "Team A vs Team B", Odds: []float64{2.5, 3.4, 3.1}}

	ev, err := setup.calculator.Evaluate(record)

	require.NoError(t, err)
	assert.Equal(t, "Team A vs Team B", ev.Match)
	assert.NotEqual(t, uuid.Nil, ev.ID)
	assert.False(t, ev.EvaluatedAt.IsZero())
	require.Len(t, ev.Outcomes, 3)
	for i, o := range ev.Outcomes {
		assert.Equal(t, i, o.Index)
		assert.Equal(t, record.Odds[i], o.Odds)
		assert.InDelta(t, 1/record.Odds[i], o.ImpliedProbability, 1e-12)
	}
	assert.Equal(t, "R1", ev.Outcomes[0].Label)
	assert.Equal(t, "R3", ev.Outcomes[2].Label)
}

// TestEvaluate_NormalizedProbabilities tests that normalized probabilities sum to 1
func TestEvaluate_NormalizedProbabilities(t *testing.T) {
	setup := setupTestCalculator()

	ev, err := setup.calculator.Evaluate(models.MatchRecord{Name: "X", Odds: []float64{2.5, 3.4, 3.1}})
	require.NoError(t, err)

	var sum float64
	for _, o := range ev.Outcomes {
		sum += o.NormalizedProbability
	}
	assert.InDelta(t, 1.0, sum, 1e-9)
	assert.Greater(t, ev.Overround, 1.0)
}

// TestEvaluate_MarginMakesEveryOutcomeUnfavorable tests a bookmaker market with no edge
func TestEvaluate_MarginMakesEveryOutcomeUnfavorable(t *testing.T) {
	setup := setupTestCalculator()

	// Normalized probabilities are fair, so every price is below fair odds
	ev, err := setup.calculator.Evaluate(models.MatchRecord{Name: "X", Odds: []float64{2.5, 3.4, 3.1}})
	require.NoError(t, err)

	for _, o := range ev.Outcomes {
		require.NotNil(t, o.KellyFraction)
		assert.LessOrEqual(t, *o.KellyFraction, 0.0)
		assert.False(t, o.Favorable())
	}
	assert.Equal(t, 0, ev.FavorableCount())
}

// TestEvaluate_FavorableOutcome tests an underround market that produces a stake
func TestEvaluate_FavorableOutcome(t *testing.T) {
	setup := setupTestCalculator()

	// Implied 0.4 + 0.4 = 0.8, normalized 0.5 each
	ev, err := setup.calculator.Evaluate(models.MatchRecord{Name: "X", Odds: []float64{2.5, 2.5}})
	require.NoError(t, err)

	for _, o := range ev.Outcomes {
		require.NotNil(t, o.KellyFraction)
		require.NotNil(t, o.FractionalKelly)
		assert.InDelta(t, 0.1667, *o.KellyFraction, 1e-4)
		assert.InDelta(t, *o.KellyFraction*setup.params.FractionalRatio, *o.FractionalKelly, 1e-12)
		assert.True(t, o.Favorable())
	}
	assert.Equal(t, 2, ev.FavorableCount())
}

// TestEvaluate_DegenerateOdds tests outcomes priced at or below 1
func TestEvaluate_DegenerateOdds(t *testing.T) {
	setup := setupTestCalculator()

	ev, err := setup.calculator.Evaluate(models.MatchRecord{Name: "X", Odds: []float64{1, -2, 3}})
	require.NoError(t, err)

	require.Len(t, ev.Outcomes, 3)
	assert.Nil(t, ev.Outcomes[0].KellyFraction)
	assert.Nil(t, ev.Outcomes[0].FractionalKelly)
	assert.Nil(t, ev.Outcomes[1].KellyFraction)
	assert.Equal(t, 0.0, ev.Outcomes[1].ImpliedProbability)
	assert.NotNil(t, ev.Outcomes[2].KellyFraction)
}

// TestEvaluate_NoOdds tests a record with no odds
func TestEvaluate_NoOdds(t *testing.T) {
	setup := setupTestCalculator()

	ev, err := setup.calculator.Evaluate(models.MatchRecord{Name: "empty"})

	assert.Error(t, err)
	assert.Nil(t, ev)
	assert.Contains(t, err.Error(), "has no odds")
}

// TestEvaluate_TinyOdds tests that odds too small to invert become unusable outcomes
func TestEvaluate_TinyOdds(t *testing.T) {
	setup := setupTestCalculator()

	ev, err := setup.calculator.Evaluate(models.MatchRecord{Name: "X", Odds: []float64{1e-320, 2}})
	require.NoError(t, err)

	require.Len(t, ev.Outcomes, 2)
	assert.Equal(t, 0.0, ev.Outcomes[0].ImpliedProbability)
	assert.Equal(t, 0.0, ev.Outcomes[0].NormalizedProbability)
	assert.Nil(t, ev.Outcomes[0].KellyFraction)
	assert.InDelta(t, 0.5, ev.Overround, 1e-12)
	assert.InDelta(t, 1.0, ev.Outcomes[1].NormalizedProbability, 1e-12)
}

// TestEvaluate_UnboundedOverround tests rejection when implied probabilities overflow their sum
func TestEvaluate_UnboundedOverround(t *testing.T) {
	setup := setupTestCalculator()

	ev, err := setup.calculator.Evaluate(models.MatchRecord{Name: "Y", Odds: []float64{1e-308, 1e-308}})

	assert.Error(t, err)
	assert.Nil(t, ev)
	assert.Contains(t, err.Error(), "unbounded overround")
}

// TestBatchEvaluate tests that failing records are skipped
func TestBatchEvaluate(t *testing.T) {
	setup := setupTestCalculator()

	evs, err := setup.calculator.BatchEvaluate([]models.MatchRecord{
		{Name: "A", Odds: []float64{1.9, 2.0}},
		{Name: "broken"},
		{Name: "B", Odds: []float64{3.0}},
	})

	require.NoError(t, err)
	require.Len(t, evs, 2)
	assert.Equal(t, "A", evs[0].Match)
	assert.Equal(t, "B", evs[1].Match)
}

// TestBatchEvaluate_Empty tests an empty batch
func TestBatchEvaluate_Empty(t *testing.T) {
	setup := setupTestCalculator()

	evs, err := setup.calculator.BatchEvaluate(nil)

	assert.NoError(t, err)
	assert.Empty(t, evs)
}
