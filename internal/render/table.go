// Package render turns evaluations into display rows.
package render

import (
	"math"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/cypherlabdev/kelly-calculator-service/internal/models"
)

const (
	// NoBetMarker replaces the Kelly percentage when no stake is favorable
	NoBetMarker = "NO BET"
	// NoStakeMarker replaces the fractional Kelly percentage and stake amount
	NoStakeMarker = "-"
)

var hundred = decimal.NewFromInt(100)

// Row is one outcome as displayed in the results table
type Row struct {
	Index      int    `json:"index"`
	Match      string `json:"match"`
	Outcome    string `json:"outcome"`
	Odds       string `json:"odds"`
	Implied    string `json:"implied"`
	Normalized string `json:"normalized"`
	Kelly      string `json:"kelly"`
	Fractional string `json:"fractional_kelly"` // Kelly scaled by the configured fractional ratio
	Stake      string `json:"stake,omitempty"` // Only set when the table has a bankroll
}

// Table is the display model: rows plus a one-line summary
type Table struct {
	Rows     []Row           `json:"rows"`
	Summary  string          `json:"summary"`
	Bankroll decimal.Decimal `json:"bankroll"`
}

// Len returns the number of rows
func (t Table) Len() int {
	return len(t.Rows)
}

// AppendEvaluation returns a new table with one row per outcome of ev appended.
// The input table is left untouched.
func AppendEvaluation(t Table, ev *models.Evaluation) Table {
	rows := make([]Row, len(t.Rows), len(t.Rows)+len(ev.Outcomes))
	copy(rows, t.Rows)

	for _, o := range ev.Outcomes {
		rows = append(rows, buildRow(ev.Match, o, t.Bankroll))
	}
	for i := range rows {
		rows[i].Index = i + 1
	}

	return Table{Rows: rows, Summary: t.Summary, Bankroll: t.Bankroll}
}

// WithSummary returns a copy of the table carrying a new summary line
func (t Table) WithSummary(summary string) Table {
	t.Summary = summary
	return t
}

func buildRow(match string, o models.OutcomeView, bankroll decimal.Decimal) Row {
	row := Row{
		Match:      match,
		Outcome:    o.Label,
		Odds:       strconv.FormatFloat(o.Odds, 'f', -1, 64),
		Implied:    Percent(o.ImpliedProbability),
		Normalized: Percent(o.NormalizedProbability),
		Kelly:      NoBetMarker,
		Fractional: NoStakeMarker,
	}

	if o.Favorable() {
		row.Kelly = Percent(*o.KellyFraction)
		row.Fractional = Percent(*o.FractionalKelly)
	}

	if bankroll.IsPositive() {
		row.Stake = NoStakeMarker
		if o.Favorable() && isFinite(*o.FractionalKelly) {
			row.Stake = bankroll.Mul(decimal.NewFromFloat(*o.FractionalKelly)).StringFixed(2)
		}
	}

	return row
}

// Percent formats a fraction as a percentage with two decimals (0.1234 -> "12.34%").
// NaN and infinities are spelled out instead of formatted.
func Percent(fraction float64) string {
	switch {
	case math.IsNaN(fraction):
		return "NaN%"
	case math.IsInf(fraction, 1):
		return "Infinity%"
	case math.IsInf(fraction, -1):
		return "-Infinity%"
	}
	return decimal.NewFromFloat(fraction).Mul(hundred).StringFixed(2) + "%"
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
