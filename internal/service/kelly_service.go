package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/cypherlabdev/kelly-calculator-service/internal/metrics"
	"github.com/cypherlabdev/kelly-calculator-service/internal/models"
	"github.com/cypherlabdev/kelly-calculator-service/internal/render"
	"github.com/cypherlabdev/kelly-calculator-service/internal/worksheet"
)

// KellyService runs worksheet commands and caches the evaluations they produce
type KellyService struct {
	sheet  *worksheet.Handler
	cache  Cache
	logger zerolog.Logger
}

// NewKellyService creates a new Kelly service
func NewKellyService(
	sheet *worksheet.Handler,
	cache Cache,
	logger zerolog.Logger,
) *KellyService {
	return &KellyService{
		sheet:  sheet,
		cache:  cache,
		logger: logger.With().Str("component", "kelly_service").Logger(),
	}
}

// Run applies a command to the table and caches every new evaluation
func (s *KellyService) Run(ctx context.Context, table render.Table, cmd worksheet.Command) (render.Table, *worksheet.Result, error) {
	next, result, err := s.sheet.Handle(ctx, table, cmd)
	if err != nil {
		return table, nil, err
	}

	s.cacheEvaluations(ctx, result.Evaluations)

	s.logger.Info().
		Str("command", result.Command).
		Int("matches", result.Matches).
		Int("skipped", result.Skipped).
		Int("rows", next.Len()).
		Msg("worksheet command processed")

	return next, result, nil
}

// cacheEvaluations stores a single evaluation directly and larger sets in one batch.
// Cache errors are logged and never fail the command.
func (s *KellyService) cacheEvaluations(ctx context.Context, evs []*models.Evaluation) {
	var (
		op  string
		err error
	)
	switch len(evs) {
	case 0:
		return
	case 1:
		op, err = "set", s.cache.Set(ctx, evs[0])
	default:
		op, err = "set_batch", s.cache.SetBatch(ctx, evs)
	}

	if err != nil {
		metrics.RecordCacheError(op)
		s.logger.Warn().
			Err(err).
			Int("count", len(evs)).
			Msg("failed to cache evaluations")
	}
}

// GetEvaluation retrieves the latest cached evaluation of a match
func (s *KellyService) GetEvaluation(ctx context.Context, match string) (*models.Evaluation, error) {
	ev, err := s.cache.Get(ctx, match)
	if err != nil {
		s.logger.Debug().
			Err(err).
			Str("match", match).
			Msg("cache miss for evaluation")
		return nil, fmt.Errorf("evaluation for match=%s: %w", match, err)
	}
	return ev, nil
}

// ListEvaluations retrieves every cached evaluation
func (s *KellyService) ListEvaluations(ctx context.Context) ([]*models.Evaluation, error) {
	evs, err := s.cache.List(ctx)
	if err != nil {
		metrics.RecordCacheError("list")
		return nil, fmt.Errorf("failed to list evaluations: %w", err)
	}

	s.logger.Debug().
		Int("count", len(evs)).
		Msg("listed cached evaluations")

	return evs, nil
}

// Ping checks the backing cache
func (s *KellyService) Ping(ctx context.Context) error {
	return s.cache.Ping(ctx)
}
