package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/cypherlabdev/kelly-calculator-service/internal/cache"
	"github.com/cypherlabdev/kelly-calculator-service/internal/config"
	httpHandler "github.com/cypherlabdev/kelly-calculator-service/internal/handler/http"
	"github.com/cypherlabdev/kelly-calculator-service/internal/messaging"
	"github.com/cypherlabdev/kelly-calculator-service/internal/metrics"
	"github.com/cypherlabdev/kelly-calculator-service/internal/service"
	"github.com/cypherlabdev/kelly-calculator-service/internal/worksheet"
	"github.com/cypherlabdev/kelly-calculator-service/pkg/kelly"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to config file")
	flag.Parse()

	// Load configuration
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	if err := config.Validate(cfg); err != nil {
		log.Fatal().Err(err).Msg("invalid config")
	}

	// Setup logger
	logger := setupLogger(cfg.Logging)
	logger.Info().Msg("starting kelly-calculator-service")

	metrics.InitRegistry()

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Create evaluation cache
	evalCache := newCache(cfg, logger)
	defer evalCache.Close()

	if err := evalCache.Ping(ctx); err != nil {
		logger.Fatal().Err(err).Str("backend", cfg.Cache.Backend).Msg("failed to connect to cache")
	}
	logger.Info().Str("backend", cfg.Cache.Backend).Msg("cache ready")

	// Create calculator
	calc := kelly.NewCalculator(cfg.Kelly.ToKellyParams(), logger)
	logger.Info().Float64("fractional_ratio", cfg.Kelly.FractionalRatio).Msg("calculator initialized")

	// Create service layer
	sheet := worksheet.NewHandler(worksheet.Config{SampleLine: cfg.Kelly.SampleLine}, calc, logger)
	kellyService := service.NewKellyService(sheet, evalCache, logger)
	logger.Info().Msg("kelly service initialized")

	// Start Kafka consumer in goroutine
	if cfg.Kafka.Enabled {
		consumer := messaging.NewKafkaConsumer(
			messaging.KafkaConsumerConfig{
				Brokers: cfg.Kafka.Brokers,
				Topic:   cfg.Kafka.Topic,
				GroupID: cfg.Kafka.GroupID,
			},
			calc,
			evalCache,
			logger,
		)
		defer consumer.Close()

		go func() {
			if err := consumer.Start(ctx); err != nil {
				logger.Error().Err(err).Msg("Kafka consumer failed")
			}
		}()
	}

	// Initialize HTTP handler
	kellyHandler := httpHandler.NewKellyHandler(
		kellyService,
		httpHandler.KellyHandlerConfig{
			MaxUploadBytes:  cfg.Upload.MaxBytes,
			RateLimit:       cfg.Upload.RateLimit,
			RateBurst:       cfg.Upload.RateBurst,
			FractionalRatio: cfg.Kelly.FractionalRatio,
			Bankroll:        cfg.Kelly.BankrollDecimal(),
		},
		logger,
	)

	// Setup HTTP server routes
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	// Health and monitoring endpoints
	r.Get("/health", healthHandler)
	r.Get("/ready", func(w http.ResponseWriter, r *http.Request) {
		readyHandler(w, r, kellyService)
	})
	r.Handle("/metrics", metrics.Handler())

	// Register API routes
	kellyHandler.RegisterRoutes(r)
	logger.Info().Msg("API routes registered")

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start HTTP server in goroutine
	go func() {
		logger.Info().Int("port", cfg.Server.Port).Msg("starting HTTP server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("HTTP server failed")
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info().Msg("shutting down gracefully...")

	// Cancel context to stop consumer
	cancel()

	// Shutdown HTTP server
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("HTTP server shutdown failed")
	}

	logger.Info().Msg("shutdown complete")
}

// newCache builds the configured evaluation cache backend
func newCache(cfg *config.Config, logger zerolog.Logger) service.Cache {
	if cfg.Cache.Backend == "memory" {
		return cache.NewMemoryCache(
			cache.MemoryCacheConfig{
				TTL:             cfg.Redis.TTL,
				CleanupInterval: cfg.Cache.CleanupInterval,
			},
			logger,
		)
	}

	return cache.NewRedisCache(
		cache.RedisCacheConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			TTL:      cfg.Redis.TTL,
		},
		logger,
	)
}

// setupLogger configures the logger based on config
func setupLogger(cfg config.LoggingConfig) zerolog.Logger {
	// Set log level
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	// Set format
	if cfg.Format == "console" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})
	}

	return log.Logger.With().Str("service", "kelly-calculator").Logger()
}

// healthHandler returns 200 if service is running
func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

// readyHandler returns 200 if service is ready to accept traffic
func readyHandler(w http.ResponseWriter, r *http.Request, svc *service.KellyService) {
	if err := svc.Ping(r.Context()); err != nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte("cache unavailable"))
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte("READY"))
}
