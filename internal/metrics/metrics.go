// Package metrics holds the Prometheus registry and collectors for the service.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/cypherlabdev/kelly-calculator-service/internal/models"
)

const namespace = "kelly_calculator"

var (
	registry *prometheus.Registry
	once     sync.Once
)

// Counter metrics
var (
	CommandsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "commands_total",
		Help:      "Worksheet commands processed, by command and result",
	}, []string{"command", "status"})
	LinesParsedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "lines_parsed_total",
		Help:      "Input lines parsed into a match",
	})
	LinesSkippedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "lines_skipped_total",
		Help:      "Input lines dropped as unparseable",
	})
	OutcomesEvaluatedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "outcomes_evaluated_total",
		Help:      "Outcomes with computed probabilities",
	})
	FavorableOutcomesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "favorable_outcomes_total",
		Help:      "Outcomes with a positive Kelly fraction",
	})
	CacheErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cache_errors_total",
		Help:      "Evaluation cache failures, by operation",
	}, []string{"operation"})
	KafkaMessagesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "kafka_messages_total",
		Help:      "Odds line batches consumed from Kafka, by result",
	}, []string{"status"})
	RateLimitedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "rate_limited_requests_total",
		Help:      "HTTP requests rejected by the rate limiter",
	})
)

// InitRegistry initializes the global Prometheus registry.
func InitRegistry() *prometheus.Registry {
	once.Do(func() {
		registry = prometheus.NewRegistry()
		registry.MustRegister(
			CommandsTotal,
			LinesParsedTotal,
			LinesSkippedTotal,
			OutcomesEvaluatedTotal,
			FavorableOutcomesTotal,
			CacheErrorsTotal,
			KafkaMessagesTotal,
			RateLimitedTotal,
		)
	})
	return registry
}

// Handler returns the Prometheus HTTP handler.
func Handler() http.Handler {
	return promhttp.HandlerFor(InitRegistry(), promhttp.HandlerOpts{})
}

// RecordCommand records a processed worksheet command
func RecordCommand(command string, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	CommandsTotal.WithLabelValues(command, status).Inc()
}

// RecordLines records parsed and skipped input lines
func RecordLines(parsed, skipped int) {
	LinesParsedTotal.Add(float64(parsed))
	LinesSkippedTotal.Add(float64(skipped))
}

// RecordEvaluation records the outcomes of one evaluated match
func RecordEvaluation(ev *models.Evaluation) {
	OutcomesEvaluatedTotal.Add(float64(len(ev.Outcomes)))
	FavorableOutcomesTotal.Add(float64(ev.FavorableCount()))
}

// RecordCacheError records a failed cache operation
func RecordCacheError(operation string) {
	CacheErrorsTotal.WithLabelValues(operation).Inc()
}

// RecordKafkaMessage records a consumed Kafka message
func RecordKafkaMessage(err error) {
	status := "processed"
	if err != nil {
		status = "failed"
	}
	KafkaMessagesTotal.WithLabelValues(status).Inc()
}

// RecordRateLimited records a request rejected by the rate limiter
func RecordRateLimited() {
	RateLimitedTotal.Inc()
}
