package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Supported text-generation providers
const (
	ProviderGemini    = "gemini"
	ProviderAnthropic = "anthropic"
	ProviderDeepSeek  = "deepseek"
)

// Config holds all configuration for the application
type Config struct {
	// Server configuration
	ServerPort string
	ServerHost string
	LogLevel   string

	// Text generation configuration
	LLMProvider       string
	LLMModel          string
	LLMAPIKey         string
	LLMBaseURL        string
	GenerationTimeout time.Duration

	// Audit trail configuration. Every sink is optional.
	AuditDatabaseURL string
	AuditRedisURL    string
	AuditRedisStream string
	AuditS3Bucket    string
	AuditS3Region    string
	AuditS3Endpoint  string
	// Static S3 credentials for S3-compatible stores; empty means the default AWS chain.
	AuditS3AccessKey string
	AuditS3SecretKey string
}

// apiKeyEnv maps a provider to the environment variable holding its credential
var apiKeyEnv = map[string]string{
	ProviderGemini:    "GEMINI_API_KEY",
	ProviderAnthropic: "ANTHROPIC_API_KEY",
	ProviderDeepSeek:  "DEEPSEEK_API_KEY",
}

// LoadConfig creates a new Config instance with values from environment variables or secrets
func LoadConfig() (*Config, error) {
	env := GetEnvironment()

	// A .env file is a convenience for local runs only
	if env == Development || env == Test {
		_ = godotenv.Load()
	}

	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	cfg := &Config{
		ServerPort:        v.GetString("PORT"),
		ServerHost:        v.GetString("SERVER_HOST"),
		LogLevel:          v.GetString("LOG_LEVEL"),
		LLMProvider:       strings.ToLower(strings.TrimSpace(v.GetString("LLM_PROVIDER"))),
		LLMModel:          v.GetString("LLM_MODEL"),
		LLMBaseURL:        v.GetString("LLM_BASE_URL"),
		AuditDatabaseURL:  v.GetString("AUDIT_DATABASE_URL"),
		AuditRedisURL:     v.GetString("AUDIT_REDIS_URL"),
		AuditRedisStream:  v.GetString("AUDIT_REDIS_STREAM"),
		AuditS3Bucket:     v.GetString("AUDIT_S3_BUCKET"),
		AuditS3Region:     v.GetString("AWS_REGION"),
		AuditS3Endpoint:   v.GetString("AUDIT_S3_ENDPOINT"),
	}

	timeout, err := parseTimeout(v.GetString("GENERATION_TIMEOUT"))
	if err != nil {
		return nil, fmt.Errorf("invalid GENERATION_TIMEOUT: %w", err)
	}
	cfg.GenerationTimeout = timeout

	if cfg.LLMModel == "" {
		cfg.LLMModel = DefaultModel(cfg.LLMProvider)
	}

	if envName, ok := apiKeyEnv[cfg.LLMProvider]; ok {
		key, err := resolveSecret(v, envName)
		if err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", envName, err)
		}
		cfg.LLMAPIKey = key
	}

	if cfg.AuditS3Bucket != "" {
		if cfg.AuditS3AccessKey, err = resolveSecret(v, "AUDIT_S3_ACCESS_KEY_ID"); err != nil {
			return nil, fmt.Errorf("failed to load AUDIT_S3_ACCESS_KEY_ID: %w", err)
		}
		if cfg.AuditS3SecretKey, err = resolveSecret(v, "AUDIT_S3_SECRET_ACCESS_KEY"); err != nil {
			return nil, fmt.Errorf("failed to load AUDIT_S3_SECRET_ACCESS_KEY: %w", err)
		}
	}

	if err := ValidateConfig(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", "5000")
	v.SetDefault("SERVER_HOST", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LLM_PROVIDER", ProviderGemini)
	v.SetDefault("GENERATION_TIMEOUT", "60s")
	v.SetDefault("AUDIT_REDIS_STREAM", "recipe:generations")
}

// parseTimeout reads a Go duration such as "90s" or "2m". A bare integer is a count of seconds.
func parseTimeout(raw string) (time.Duration, error) {
	raw = strings.TrimSpace(raw)
	if secs, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return time.Duration(secs) * time.Second, nil
	}
	return time.ParseDuration(raw)
}

// DefaultModel returns the model used when LLM_MODEL is not set
func DefaultModel(provider string) string {
	switch provider {
	case ProviderAnthropic:
		return "claude-3-5-haiku-latest"
	case ProviderDeepSeek:
		return "deepseek-chat"
	default:
		return "gemini-2.5-flash"
	}
}

// Addr returns the listen address for the HTTP server
func (c *Config) Addr() string {
	return c.ServerHost + ":" + c.ServerPort
}

// resolveSecret looks up a credential in the environment, then in the file named by
// <NAME>_FILE, then in the Docker secrets directory.
func resolveSecret(v *viper.Viper, name string) (string, error) {
	if value := strings.TrimSpace(v.GetString(name)); value != "" {
		return value, nil
	}

	if path := v.GetString(name + "_FILE"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("failed to read secret file: %w", err)
		}
		value := strings.TrimSpace(string(data))
		if value == "" {
			return "", fmt.Errorf("secret file %s is empty", path)
		}
		return value, nil
	}

	return readSecret(strings.ToLower(name)), nil
}

// readSecret reads a Docker secret from the secrets directory
func readSecret(name string) string {
	secretsDir := os.Getenv("SECRETS_DIR")
	if secretsDir == "" {
		secretsDir = "/run/secrets"
	}
	secretPath := filepath.Join(secretsDir, name)
	if data, err := os.ReadFile(secretPath); err == nil {
		return strings.TrimSpace(string(data))
	}
	return ""
}
