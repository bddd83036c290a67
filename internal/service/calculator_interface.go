package service

import (
	"github.com/cypherlabdev/kelly-calculator-service/internal/models"
)

//go:generate mockgen -destination=../mocks/mock_calculator.go -package=mocks . Calculator

// Calculator is an interface that abstracts match evaluation
// This allows for easier testing and mocking
type Calculator interface {
	Evaluate(record models.MatchRecord) (*models.Evaluation, error)
	BatchEvaluate(records []models.MatchRecord) ([]*models.Evaluation, error)
}
