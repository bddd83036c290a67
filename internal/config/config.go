package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"

	"github.com/cypherlabdev/kelly-calculator-service/internal/models"
)

// Config holds all configuration for kelly-calculator-service
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Kafka   KafkaConfig   `mapstructure:"kafka"`
	Redis   RedisConfig   `mapstructure:"redis"`
	Cache   CacheConfig   `mapstructure:"cache"`
	Kelly   KellyConfig   `mapstructure:"kelly"`
	Upload  UploadConfig  `mapstructure:"upload"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port         int           `mapstructure:"port" validate:"min=1,max=65535"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout" validate:"gt=0"`
	WriteTimeout time.Duration `mapstructure:"write_timeout" validate:"gt=0"`
}

// KafkaConfig holds Kafka configuration
type KafkaConfig struct {
	Enabled bool     `mapstructure:"enabled"`
	Brokers []string `mapstructure:"brokers" validate:"required_if=Enabled true,dive,hostname_port"`
	Topic   string   `mapstructure:"topic" validate:"required_if=Enabled true"` // Topic to consume from (odds_lines)
	GroupID string   `mapstructure:"group_id" validate:"required_if=Enabled true"`
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db" validate:"min=0"`
	TTL      time.Duration `mapstructure:"ttl" validate:"gt=0"`
}

// CacheConfig selects the evaluation cache backend
type CacheConfig struct {
	Backend         string        `mapstructure:"backend" validate:"oneof=redis memory"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
}

// KellyConfig holds stake sizing parameters
type KellyConfig struct {
	FractionalRatio float64 `mapstructure:"fractional_ratio" validate:"gt=0,lte=1"` // 0.5 = half Kelly
	SampleLine      string  `mapstructure:"sample_line" validate:"required"`
	Bankroll        float64 `mapstructure:"bankroll" validate:"gte=0"` // 0 disables stake amounts
}

// UploadConfig holds limits for the write endpoints
type UploadConfig struct {
	MaxBytes  int64   `mapstructure:"max_bytes" validate:"gt=0"`
	RateLimit float64 `mapstructure:"rate_limit" validate:"gt=0"` // Requests per second
	RateBurst int     `mapstructure:"rate_burst" validate:"gt=0"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level" validate:"oneof=trace debug info warn error"`
	Format string `mapstructure:"format" validate:"oneof=json console"`
}

// LoadConfig loads configuration from file and environment variables.
// A .env file in the working directory is loaded first when present.
func LoadConfig(configPath string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()

	v.SetDefault("server.port", 8082)
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)

	v.SetDefault("kafka.enabled", false)
	v.SetDefault("kafka.brokers", []string{"localhost:9092"})
	v.SetDefault("kafka.topic", "odds_lines")
	v.SetDefault("kafka.group_id", "kelly-calculator")

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.ttl", 15*time.Minute)

	v.SetDefault("cache.backend", "redis")
	v.SetDefault("cache.cleanup_interval", 30*time.Minute)

	v.SetDefault("kelly.fractional_ratio", 0.5)
	v.SetDefault("kelly.sample_line", "Team A vs Team B,2.50,3.40,3.10")
	v.SetDefault("kelly.bankroll", 0.0)

	v.SetDefault("upload.max_bytes", 1<<20)
	v.SetDefault("upload.rate_limit", 5.0)
	v.SetDefault("upload.rate_burst", 10)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Override with environment variables, e.g. KELLY_CALC_REDIS_ADDR
	v.SetEnvPrefix("KELLY_CALC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &config, nil
}

// ToKellyParams converts config to calculator parameters
func (c *KellyConfig) ToKellyParams() models.KellyParams {
	return models.KellyParams{
		FractionalRatio: c.FractionalRatio,
	}
}

// BankrollDecimal returns the bankroll used for stake amounts
func (c *KellyConfig) BankrollDecimal() decimal.Decimal {
	return decimal.NewFromFloat(c.Bankroll)
}
