package kelly

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/cypherlabdev/kelly-calculator-service/internal/models"
)

// Calculator derives per-outcome probabilities and Kelly stakes for matches
type Calculator struct {
	params models.KellyParams
	logger zerolog.Logger
}

// NewCalculator creates a new Kelly calculator
func NewCalculator(params models.KellyParams, logger zerolog.Logger) *Calculator {
	return &Calculator{
		params: params,
		logger: logger.With().Str("component", "kelly_calculator").Logger(),
	}
}

// Evaluate computes one OutcomeView per odds value of the record, in order
func (c *Calculator) Evaluate(record models.MatchRecord) (*models.Evaluation, error) {
	if len(record.Odds) == 0 {
		return nil, fmt.Errorf("match %q has no odds", record.Name)
	}

	implied := ImpliedProbabilities(record.Odds)
	overround := Overround(implied)
	if math.IsInf(overround, 0) {
		return nil, fmt.Errorf("match %q has an unbounded overround", record.Name)
	}
	norm := Normalize(implied)

	outcomes := make([]models.OutcomeView, len(record.Odds))
	for i, o := range record.Odds {
		view := models.OutcomeView{
			Index:                 i,
			Label:                 fmt.Sprintf("R%d", i+1),
			Odds:                  o,
			ImpliedProbability:    implied[i],
			NormalizedProbability: norm[i],
		}
		if f, ok := Fraction(o, norm[i]); ok {
			fractional := f * c.params.FractionalRatio
			view.KellyFraction = &f
			view.FractionalKelly = &fractional
		}
		outcomes[i] = view
	}

	return &models.Evaluation{
		ID:          uuid.New(),
		Match:       record.Name,
		Outcomes:    outcomes,
		Overround:   overround,
		EvaluatedAt: time.Now().UTC(),
	}, nil
}

// BatchEvaluate evaluates a batch of records, skipping the ones that fail
func (c *Calculator) BatchEvaluate(records []models.MatchRecord) ([]*models.Evaluation, error) {
	evaluations := make([]*models.Evaluation, 0, len(records))

	for _, rec := range records {
		ev, err := c.Evaluate(rec)
		if err != nil {
			c.logger.Warn().
				Err(err).
				Str("match", rec.Name).
				Msg("failed to evaluate match")
			continue
		}
		evaluations = append(evaluations, ev)
	}

	c.logger.Debug().
		Int("input_count", len(records)).
		Int("output_count", len(evaluations)).
		Msg("batch evaluation complete")

	return evaluations, nil
}
