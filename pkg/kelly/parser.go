package kelly

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/cypherlabdev/kelly-calculator-service/internal/models"
)

var (
	tabRuns       = regexp.MustCompile(`\t+`)
	semicolonRuns = regexp.MustCompile(`;+`)
	lineBreak     = regexp.MustCompile(`\r?\n`)

	// Leading numeric prefix, the way a browser parseFloat reads "2.50x" as 2.5
	numericPrefix = regexp.MustCompile(`^[+-]?(?:\d+(?:\.\d*)?|\.\d+)(?:[eE][+-]?\d+)?`)
)

// headerKeywords mark the first line of a CSV export as a header row.
// 경기 is "match" in Korean.
var headerKeywords = []string{"경기", "match", "home"}

// ParseLine turns one raw line like "Team A - Team B,2.50,3.40,3.10" into a
// MatchRecord. It returns false when the line has no name or no usable odds.
// Odds are not checked against 1 here; Fraction does that.
func ParseLine(line string) (models.MatchRecord, bool) {
	cleaned := strings.TrimSpace(line)
	cleaned = tabRuns.ReplaceAllString(cleaned, ",")
	cleaned = semicolonRuns.ReplaceAllString(cleaned, ",")
	if cleaned == "" {
		return models.MatchRecord{}, false
	}

	parts := make([]string, 0, 4)
	for _, field := range strings.Split(cleaned, ",") {
		if field = strings.TrimSpace(field); field != "" {
			parts = append(parts, field)
		}
	}
	if len(parts) < 2 {
		return models.MatchRecord{}, false
	}

	odds := make([]float64, 0, len(parts)-1)
	for _, field := range parts[1:] {
		if v, ok := parseOdds(field); ok {
			odds = append(odds, v)
		}
	}
	if len(odds) == 0 {
		return models.MatchRecord{}, false
	}

	return models.MatchRecord{Name: parts[0], Odds: odds}, true
}

// parseOdds reads a decimal price, accepting a comma as the decimal separator
func parseOdds(field string) (float64, bool) {
	field = strings.Replace(field, ",", ".", 1)
	prefix := numericPrefix.FindString(field)
	if prefix == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(prefix, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// SplitLines splits pasted or uploaded text into trimmed, non-blank lines
func SplitLines(text string) []string {
	raw := lineBreak.Split(text, -1)
	lines := make([]string, 0, len(raw))
	for _, l := range raw {
		if l = strings.TrimSpace(l); l != "" {
			lines = append(lines, l)
		}
	}
	return lines
}

// IsHeader reports whether a line looks like a CSV header row
func IsHeader(line string) bool {
	lower := strings.ToLower(line)
	for _, kw := range headerKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// ParseLines parses every line, returning the records in input order and
// the number of lines that were dropped
func ParseLines(lines []string) ([]models.MatchRecord, int) {
	records := make([]models.MatchRecord, 0, len(lines))
	skipped := 0
	for _, line := range lines {
		rec, ok := ParseLine(line)
		if !ok {
			skipped++
			continue
		}
		records = append(records, rec)
	}
	return records, skipped
}
