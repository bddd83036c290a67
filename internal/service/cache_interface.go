package service

import (
	"context"

	"github.com/cypherlabdev/kelly-calculator-service/internal/models"
)

//go:generate mockgen -destination=../mocks/mock_cache.go -package=mocks . Cache

// Cache is an interface that abstracts cache operations
// This allows for easier testing and mocking
type Cache interface {
	Set(ctx context.Context, ev *models.Evaluation) error
	Get(ctx context.Context, match string) (*models.Evaluation, error)
	SetBatch(ctx context.Context, evs []*models.Evaluation) error
	List(ctx context.Context) ([]*models.Evaluation, error)
	Ping(ctx context.Context) error
	Close() error
}
