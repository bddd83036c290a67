package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"

	"github.com/cypherlabdev/kelly-calculator-service/internal/metrics"
	"github.com/cypherlabdev/kelly-calculator-service/internal/models"
	"github.com/cypherlabdev/kelly-calculator-service/internal/service"
	"github.com/cypherlabdev/kelly-calculator-service/pkg/kelly"
)

// KafkaConsumer consumes batches of raw odds lines from Kafka, evaluates and caches them
type KafkaConsumer struct {
	reader     *kafka.Reader
	calculator service.Calculator
	cache      service.Cache
	logger     zerolog.Logger
}

// KafkaConsumerConfig holds Kafka consumer configuration
type KafkaConsumerConfig struct {
	Brokers []string // e.g., ["localhost:9092"]
	Topic   string   // e.g., "odds_lines"
	GroupID string   // e.g., "kelly-calculator"
}

// NewKafkaConsumer creates a new Kafka consumer
func NewKafkaConsumer(
	config KafkaConsumerConfig,
	calc service.Calculator,
	cache service.Cache,
	logger zerolog.Logger,
) *KafkaConsumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        config.Brokers,
		Topic:          config.Topic,
		GroupID:        config.GroupID,
		MinBytes:       1,    // Pasted batches are small
		MaxBytes:       10e6, // 10MB
		CommitInterval: 1000, // Commit every 1 second
	})

	return &KafkaConsumer{
		reader:     reader,
		calculator: calc,
		cache:      cache,
		logger:     logger.With().Str("component", "kafka_consumer").Logger(),
	}
}

// Start begins consuming messages from Kafka
func (c *KafkaConsumer) Start(ctx context.Context) error {
	c.logger.Info().
		Str("topic", c.reader.Config().Topic).
		Str("group_id", c.reader.Config().GroupID).
		Msg("started consuming from Kafka")

	for {
		select {
		case <-ctx.Done():
			c.logger.Info().Msg("stopping Kafka consumer")
			return nil

		default:
			msg, err := c.reader.FetchMessage(ctx)
			if err != nil {
				if errors.Is(err, context.Canceled) {
					return nil
				}
				c.logger.Error().Err(err).Msg("failed to fetch message")
				continue
			}

			err = c.processMessage(ctx, msg)
			metrics.RecordKafkaMessage(err)
			if err != nil {
				c.logger.Error().
					Err(err).
					Int64("offset", msg.Offset).
					Str("key", string(msg.Key)).
					Msg("failed to process message")
				// Don't commit if processing failed
				continue
			}

			if err := c.reader.CommitMessages(ctx, msg); err != nil {
				c.logger.Error().Err(err).Msg("failed to commit message")
			}
		}
	}
}

// processMessage parses, evaluates and caches one batch of lines
func (c *KafkaConsumer) processMessage(ctx context.Context, msg kafka.Message) error {
	var kafkaMsg models.KafkaOddsLinesMessage
	if err := json.Unmarshal(msg.Value, &kafkaMsg); err != nil {
		return fmt.Errorf("failed to unmarshal message: %w", err)
	}

	lines := make([]string, 0, len(kafkaMsg.Lines))
	for _, l := range kafkaMsg.Lines {
		lines = append(lines, kelly.SplitLines(l)...)
	}
	if kafkaMsg.DetectHeader && len(lines) > 0 && kelly.IsHeader(lines[0]) {
		lines = lines[1:]
	}

	records, skipped := kelly.ParseLines(lines)
	metrics.RecordLines(len(records), skipped)

	c.logger.Debug().
		Int("line_count", len(lines)).
		Int("skipped", skipped).
		Str("batch_id", kafkaMsg.BatchID).
		Str("source", kafkaMsg.Source).
		Msg("processing odds lines batch")

	if len(records) == 0 {
		return nil
	}

	evaluations, err := c.calculator.BatchEvaluate(records)
	if err != nil {
		return fmt.Errorf("failed to evaluate matches: %w", err)
	}
	for _, ev := range evaluations {
		metrics.RecordEvaluation(ev)
	}

	if err := c.cache.SetBatch(ctx, evaluations); err != nil {
		metrics.RecordCacheError("set_batch")
		return fmt.Errorf("failed to cache evaluations: %w", err)
	}

	c.logger.Info().
		Int("input_count", len(records)).
		Int("output_count", len(evaluations)).
		Str("batch_id", kafkaMsg.BatchID).
		Msg("processed and cached evaluations")

	return nil
}

// Close closes the Kafka reader
func (c *KafkaConsumer) Close() error {
	return c.reader.Close()
}
