package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/cypherlabdev/kelly-calculator-service/pkg/kelly"
)

// Validate checks struct constraints and the cross-field rules below
func Validate(cfg *Config) error {
	v := validator.New()

	if err := v.Struct(cfg); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			return formatValidationErrors(validationErrors)
		}
		return fmt.Errorf("validation failed: %w", err)
	}

	if cfg.Cache.Backend == "redis" && cfg.Redis.Addr == "" {
		return errors.New("configuration validation failed: redis.addr is required when cache.backend is redis")
	}
	if _, ok := kelly.ParseLine(cfg.Kelly.SampleLine); !ok {
		return fmt.Errorf("configuration validation failed: kelly.sample_line %q is not a valid odds line", cfg.Kelly.SampleLine)
	}

	return nil
}

func formatValidationErrors(errs validator.ValidationErrors) error {
	msgs := make([]string, 0, len(errs))
	for _, e := range errs {
		msgs = append(msgs, fmt.Sprintf("%s failed on '%s' (value: %v)", e.Namespace(), e.Tag(), e.Value()))
	}
	return fmt.Errorf("configuration validation failed: %s", strings.Join(msgs, "; "))
}
