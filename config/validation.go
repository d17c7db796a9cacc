package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// minGenerationTimeout rejects values that could only have been meant as seconds
const minGenerationTimeout = time.Second

// ConfigRequirements defines required configuration for each environment
type ConfigRequirements struct {
	RequiredEnvVars []string
}

var (
	// Production must not silently fall back to defaults for these.
	requirements = map[Environment]ConfigRequirements{
		Development: {},
		Test:        {},
		CI:          {},
		Production: {
			RequiredEnvVars: []string{
				"PORT",
				"LLM_PROVIDER",
			},
		},
	}
)

// ValidateConfig checks if the configuration meets the requirements for the current environment
func ValidateConfig(cfg *Config) error {
	env := GetEnvironment()
	reqs := requirements[env]

	var errs []ValidationError

	for _, envVar := range reqs.RequiredEnvVars {
		if value := os.Getenv(envVar); value == "" {
			errs = append(errs, ValidationError{Field: envVar, Message: "required environment variable is not set"})
		}
	}

	if port, err := strconv.Atoi(cfg.ServerPort); err != nil || port <= 0 || port > 65535 {
		errs = append(errs, ValidationError{Field: "PORT", Message: fmt.Sprintf("invalid port %q", cfg.ServerPort)})
	}

	envName, known := apiKeyEnv[cfg.LLMProvider]
	if !known {
		errs = append(errs, ValidationError{Field: "LLM_PROVIDER", Message: fmt.Sprintf("unsupported provider %q", cfg.LLMProvider)})
	} else if cfg.LLMAPIKey == "" {
		errs = append(errs, ValidationError{Field: envName, Message: "API key is required"})
	}

	if cfg.GenerationTimeout < minGenerationTimeout {
		errs = append(errs, ValidationError{Field: "GENERATION_TIMEOUT", Message: fmt.Sprintf("must be at least %s, got %s", minGenerationTimeout, cfg.GenerationTimeout)})
	}

	if cfg.AuditS3Bucket != "" && cfg.AuditS3Region == "" {
		errs = append(errs, ValidationError{Field: "AWS_REGION", Message: "required when AUDIT_S3_BUCKET is set"})
	}

	if len(errs) > 0 {
		lines := make([]string, 0, len(errs))
		for _, e := range errs {
			lines = append(lines, e.Error())
		}
		return fmt.Errorf("configuration validation failed:\n%s", strings.Join(lines, "\n"))
	}

	return nil
}
