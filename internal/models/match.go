package models

import (
	"time"

	"github.com/google/uuid"
)

// MatchRecord is one parsed input line: a match name and its decimal odds
type MatchRecord struct {
	Name string    `json:"name"`
	Odds []float64 `json:"odds"`
}

// OutcomeView holds the derived probabilities and stake fractions for one outcome
type OutcomeView struct {
	Index                 int      `json:"index"`
	Label                 string   `json:"label"` // R1, R2, ...
	Odds                  float64  `json:"odds"`
	ImpliedProbability    float64  `json:"implied_probability"`
	NormalizedProbability float64  `json:"normalized_probability"`
	KellyFraction         *float64 `json:"kelly_fraction"`    // nil when odds <= 1
	FractionalKelly       *float64 `json:"fractional_kelly"` // KellyFraction scaled by KellyParams.FractionalRatio
}

// Favorable reports whether the outcome is worth a stake
func (o OutcomeView) Favorable() bool {
	return o.KellyFraction != nil && *o.KellyFraction > 0
}

// Evaluation is the full per-outcome breakdown of a MatchRecord
type Evaluation struct {
	ID          uuid.UUID     `json:"id"`
	Match       string        `json:"match"`
	Outcomes    []OutcomeView `json:"outcomes"`
	Overround   float64       `json:"overround"` // Sum of implied probabilities
	EvaluatedAt time.Time     `json:"evaluated_at"`
}

// FavorableCount returns the number of outcomes with a positive Kelly fraction
func (e *Evaluation) FavorableCount() int {
	n := 0
	for _, o := range e.Outcomes {
		if o.Favorable() {
			n++
		}
	}
	return n
}

// KellyParams holds parameters for stake sizing
type KellyParams struct {
	FractionalRatio float64 // Multiplier applied to full Kelly (0.5 = half Kelly)
}

// KafkaOddsLinesMessage represents a batch of raw odds lines published by an uploader
type KafkaOddsLinesMessage struct {
	Lines        []string  `json:"lines"`
	DetectHeader bool      `json:"detect_header"` // Skip the first line if it looks like a CSV header
	Source       string    `json:"source"`
	Timestamp    time.Time `json:"timestamp"`
	BatchID      string    `json:"batch_id"`
}
