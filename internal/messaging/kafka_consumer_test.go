package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/cypherlabdev/kelly-calculator-service/internal/mocks"
	"github.com/cypherlabdev/kelly-calculator-service/internal/models"
)

// testKafkaConsumerSetup is a helper struct to hold test dependencies
type testKafkaConsumerSetup struct {
	consumer       *KafkaConsumer
	mockCalculator *mocks.MockCalculator
	mockCache      *mocks.MockCache
	ctrl           *gomock.Controller
}

// setupTestKafkaConsumer creates a test consumer with mocked dependencies
func setupTestKafkaConsumer(t *testing.T) *testKafkaConsumerSetup {
	ctrl := gomock.NewController(t)

	mockCalculator := mocks.NewMockCalculator(ctrl)
	mockCache := mocks.NewMockCache(ctrl)

	config := KafkaConsumerConfig{
		Brokers: []string{"localhost:9092"},
		Topic:   "odds_lines",
		GroupID: "test-group",
	}

	return &testKafkaConsumerSetup{
		consumer:       NewKafkaConsumer(config, mockCalculator, mockCache, zerolog.Nop()),
		mockCalculator: mockCalculator,
		mockCache:      mockCache,
		ctrl:           ctrl,
	}
}

// cleanup cleans up test resources
func (s *testKafkaConsumerSetup) cleanup() {
	s.consumer.Close()
}

func encodeMessage(t *testing.T, msg models.KafkaOddsLinesMessage) kafka.Message {
	value, err := json.Marshal(msg)
	require.NoError(t, err)
	return kafka.Message{Key: []byte(msg.BatchID), Value: value}
}

// TestNewKafkaConsumer tests consumer creation
func TestNewKafkaConsumer(t *testing.T) {
	setup := setupTestKafkaConsumer(t)
	defer setup.cleanup()

	assert.NotNil(t, setup.consumer.reader)
	assert.NotNil(t, setup.consumer.calculator)
	assert.NotNil(t, setup.consumer.cache)
	assert.Equal(t, "odds_lines", setup.consumer.reader.Config().Topic)
	assert.Equal(t, "test-group", setup.consumer.reader.Config().GroupID)
}

// TestProcessMessage_Success tests that lines are parsed, evaluated and cached
func TestProcessMessage_Success(t *testing.T) {
	setup := setupTestKafkaConsumer(t)
	defer setup.cleanup()

	evaluations := []*models.Evaluation{{Match: "Team A vs Team B"}, {Match: "Team C vs Team D"}}

	setup.mockCalculator.EXPECT().
		BatchEvaluate([]models.MatchRecord{
			{Name: "Team A vs Team B", Odds: []float64{2.5, 3.4, 3.1}},
			{Name: "Team C vs Team D", Odds: []float64{1.8, 2.1}},
		}).
		Return(evaluations, nil)
	setup.mockCache.EXPECT().
		SetBatch(gomock.Any(), evaluations).
		Return(nil)

	msg := encodeMessage(t, models.KafkaOddsLinesMessage{
		Lines:        []string{"match,odds1,odds2,odds3", "Team A vs Team B,2.50,3.40,3.10", "garbage", "Team C vs Team D\t1.80\t2.10"},
		DetectHeader: true,
		Source:       "uploader",
		Timestamp:    time.Now(),
		BatchID:      "batch-123",
	})

	assert.NoError(t, setup.consumer.processMessage(context.Background(), msg))
}

// TestProcessMessage_MultiLineEntries tests entries carrying several lines of pasted text
func TestProcessMessage_MultiLineEntries(t *testing.T) {
	setup := setupTestKafkaConsumer(t)
	defer setup.cleanup()

	setup.mockCalculator.EXPECT().
		BatchEvaluate(gomock.Len(2)).
		Return([]*models.Evaluation{{Match: "A"}, {Match: "B"}}, nil)
	setup.mockCache.EXPECT().SetBatch(gomock.Any(), gomock.Len(2)).Return(nil)

	msg := encodeMessage(t, models.KafkaOddsLinesMessage{
		Lines:   []string{"A,2.0,1.9\r\nB,3.0,1.5"},
		BatchID: "batch-paste",
	})

	assert.NoError(t, setup.consumer.processMessage(context.Background(), msg))
}

// TestProcessMessage_HeaderKeptWithoutDetection tests that header detection is opt-in
func TestProcessMessage_HeaderKeptWithoutDetection(t *testing.T) {
	setup := setupTestKafkaConsumer(t)
	defer setup.cleanup()

	// "home,2.0" parses as a match when detection is off
	setup.mockCalculator.EXPECT().
		BatchEvaluate([]models.MatchRecord{{Name: "home", Odds: []float64{2.0}}}).
		Return([]*models.Evaluation{{Match: "home"}}, nil)
	setup.mockCache.EXPECT().SetBatch(gomock.Any(), gomock.Any()).Return(nil)

	msg := encodeMessage(t, models.KafkaOddsLinesMessage{Lines: []string{"home,2.0"}, BatchID: "b"})

	assert.NoError(t, setup.consumer.processMessage(context.Background(), msg))
}

// TestProcessMessage_InvalidJSON tests processing with invalid JSON
func TestProcessMessage_InvalidJSON(t *testing.T) {
	setup := setupTestKafkaConsumer(t)
	defer setup.cleanup()

	err := setup.consumer.processMessage(context.Background(), kafka.Message{Value: []byte("{not json")})

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to unmarshal message")
}

// TestProcessMessage_EmptyBatch tests that a batch without matches touches nothing
func TestProcessMessage_EmptyBatch(t *testing.T) {
	setup := setupTestKafkaConsumer(t)
	defer setup.cleanup()

	msg := encodeMessage(t, models.KafkaOddsLinesMessage{
		Lines:   []string{"", "no odds here"},
		BatchID: "batch-empty",
	})

	assert.NoError(t, setup.consumer.processMessage(context.Background(), msg))
}

// TestProcessMessage_EvaluationFailure tests handling of calculator failure
func TestProcessMessage_EvaluationFailure(t *testing.T) {
	setup := setupTestKafkaConsumer(t)
	defer setup.cleanup()

	setup.mockCalculator.EXPECT().
		BatchEvaluate(gomock.Any()).
		Return(nil, errors.New("calculator exploded"))

	msg := encodeMessage(t, models.KafkaOddsLinesMessage{Lines: []string{"A,2.0"}, BatchID: "b"})
	err := setup.consumer.processMessage(context.Background(), msg)

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to evaluate matches")
}

// TestProcessMessage_CacheFailure tests that cache failures leave the message uncommitted
func TestProcessMessage_CacheFailure(t *testing.T) {
	setup := setupTestKafkaConsumer(t)
	defer setup.cleanup()

	setup.mockCalculator.EXPECT().
		BatchEvaluate(gomock.Any()).
		Return([]*models.Evaluation{{Match: "A"}}, nil)
	setup.mockCache.EXPECT().
		SetBatch(gomock.Any(), gomock.Any()).
		Return(errors.New("redis down"))

	msg := encodeMessage(t, models.KafkaOddsLinesMessage{Lines: []string{"A,2.0"}, BatchID: "b"})
	err := setup.consumer.processMessage(context.Background(), msg)

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to cache evaluations")
}

// TestStart_CanceledContext tests that the consumer stops on context cancellation
func TestStart_CanceledContext(t *testing.T) {
	setup := setupTestKafkaConsumer(t)
	defer setup.cleanup()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.NoError(t, setup.consumer.Start(ctx))
}
