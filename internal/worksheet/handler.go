// Package worksheet applies user commands to the results table.
package worksheet

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog"

	"github.com/cypherlabdev/kelly-calculator-service/internal/metrics"
	"github.com/cypherlabdev/kelly-calculator-service/internal/models"
	"github.com/cypherlabdev/kelly-calculator-service/internal/render"
	"github.com/cypherlabdev/kelly-calculator-service/pkg/kelly"
)

// DefaultSampleLine is appended by AddSample when no sample is configured
const DefaultSampleLine = "Team A vs Team B,2.50,3.40,3.10"

var (
	// ErrEmptyInput is returned for a blank paste; the message is shown to the user
	ErrEmptyInput = errors.New("paste some odds lines first, e.g. \"Team A vs Team B,2.50,3.40,3.10\"")
	// ErrUnknownCommand is returned for commands the handler does not know
	ErrUnknownCommand = errors.New("unknown command")
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Evaluator computes the per-outcome breakdown of a match
type Evaluator interface {
	Evaluate(record models.MatchRecord) (*models.Evaluation, error)
}

// Config holds worksheet configuration
type Config struct {
	SampleLine string
}

// Result describes what a command did to the table
type Result struct {
	Command       string               `json:"command"`
	Matches       int                  `json:"matches"`
	Skipped       int                  `json:"skipped"`
	HeaderSkipped bool                 `json:"header_skipped"`
	Evaluations   []*models.Evaluation `json:"evaluations"`
}

// Handler processes commands synchronously against a table
type Handler struct {
	evaluator  Evaluator
	sampleLine string
	logger     zerolog.Logger
}

// NewHandler creates a new worksheet handler
func NewHandler(config Config, evaluator Evaluator, logger zerolog.Logger) *Handler {
	sample := config.SampleLine
	if strings.TrimSpace(sample) == "" {
		sample = DefaultSampleLine
	}

	return &Handler{
		evaluator:  evaluator,
		sampleLine: sample,
		logger:     logger.With().Str("component", "worksheet").Logger(),
	}
}

// Handle applies cmd to table and returns the resulting table. On error the
// input table is returned unchanged.
func (h *Handler) Handle(ctx context.Context, table render.Table, cmd Command) (render.Table, *Result, error) {
	if cmd == nil {
		return table, nil, ErrUnknownCommand
	}

	var (
		next   render.Table
		result *Result
		err    error
	)

	switch c := cmd.(type) {
	case ParseText:
		next, result, err = h.parseText(ctx, table, c)
	case AddSample:
		next, result, err = h.addSample(table)
	case Clear:
		next, result = render.Table{Bankroll: table.Bankroll}, &Result{}
	case UploadFile:
		next, result, err = h.uploadFile(ctx, table, c)
	default:
		err = fmt.Errorf("%w: %s", ErrUnknownCommand, cmd.Name())
	}

	metrics.RecordCommand(cmd.Name(), err)
	if err != nil {
		return table, nil, err
	}

	result.Command = cmd.Name()
	h.logger.Debug().
		Str("command", result.Command).
		Int("matches", result.Matches).
		Int("skipped", result.Skipped).
		Int("rows", next.Len()).
		Msg("command applied")

	return next, result, nil
}

func (h *Handler) parseText(ctx context.Context, table render.Table, cmd ParseText) (render.Table, *Result, error) {
	if strings.TrimSpace(cmd.Text) == "" {
		return table, nil, ErrEmptyInput
	}

	next, result, err := h.appendLines(ctx, table, kelly.SplitLines(cmd.Text))
	if err != nil {
		return table, nil, err
	}

	summary := fmt.Sprintf("parse complete: %d matches (added as per-outcome rows)", result.Matches)
	return next.WithSummary(summary), result, nil
}

func (h *Handler) addSample(table render.Table) (render.Table, *Result, error) {
	rec, ok := kelly.ParseLine(h.sampleLine)
	if !ok {
		return table, nil, fmt.Errorf("invalid sample line %q", h.sampleLine)
	}

	ev, err := h.evaluator.Evaluate(rec)
	if err != nil {
		return table, nil, fmt.Errorf("failed to evaluate sample: %w", err)
	}
	metrics.RecordLines(1, 0)
	metrics.RecordEvaluation(ev)

	next := render.AppendEvaluation(table, ev)
	summary := fmt.Sprintf("updated: %d rows total (per outcome)", next.Len())

	return next.WithSummary(summary), &Result{Matches: 1, Evaluations: []*models.Evaluation{ev}}, nil
}

func (h *Handler) uploadFile(ctx context.Context, table render.Table, cmd UploadFile) (render.Table, *Result, error) {
	if cmd.Body == nil {
		return table, nil, fmt.Errorf("upload %q has no body", cmd.Filename)
	}

	data, err := io.ReadAll(cmd.Body)
	if err != nil {
		return table, nil, fmt.Errorf("failed to read upload %q: %w", cmd.Filename, err)
	}
	data = bytes.TrimPrefix(data, utf8BOM)

	lines := kelly.SplitLines(string(data))
	headerSkipped := len(lines) > 0 && kelly.IsHeader(lines[0])
	if headerSkipped {
		lines = lines[1:]
	}

	next, result, err := h.appendLines(ctx, table, lines)
	if err != nil {
		return table, nil, err
	}
	result.HeaderSkipped = headerSkipped

	h.logger.Info().
		Str("file", cmd.Filename).
		Bool("header_skipped", headerSkipped).
		Int("matches", result.Matches).
		Int("skipped", result.Skipped).
		Msg("processed upload")

	summary := fmt.Sprintf("CSV upload complete: %d matches (added as per-outcome rows)", result.Matches)
	return next.WithSummary(summary), result, nil
}

// appendLines parses and evaluates each line, appending the rows of every
// match that survives. Unusable lines are counted, never fatal.
func (h *Handler) appendLines(ctx context.Context, table render.Table, lines []string) (render.Table, *Result, error) {
	result := &Result{Evaluations: make([]*models.Evaluation, 0, len(lines))}

	for _, line := range lines {
		if err := ctx.Err(); err != nil {
			return table, nil, err
		}

		rec, ok := kelly.ParseLine(line)
		if !ok {
			result.Skipped++
			continue
		}

		ev, err := h.evaluator.Evaluate(rec)
		if err != nil {
			h.logger.Warn().Err(err).Str("match", rec.Name).Msg("failed to evaluate match")
			result.Skipped++
			continue
		}

		metrics.RecordEvaluation(ev)
		table = render.AppendEvaluation(table, ev)
		result.Evaluations = append(result.Evaluations, ev)
		result.Matches++
	}

	metrics.RecordLines(result.Matches, result.Skipped)
	return table, result, nil
}
