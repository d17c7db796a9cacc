package service

import (
	"context"
	"fmt"

	"github.com/pageza/nutrichef/backend/config"
)

// NewGenerator builds the text generator selected by cfg.LLMProvider
func NewGenerator(ctx context.Context, cfg *config.Config) (Generator, error) {
	switch cfg.LLMProvider {
	case config.ProviderGemini:
		return NewGeminiGenerator(ctx, cfg.LLMAPIKey, cfg.LLMModel, cfg.LLMBaseURL)
	case config.ProviderAnthropic:
		return NewAnthropicGenerator(cfg.LLMAPIKey, cfg.LLMModel, cfg.LLMBaseURL), nil
	case config.ProviderDeepSeek:
		return NewDeepSeekGenerator(cfg.LLMAPIKey, cfg.LLMModel, cfg.LLMBaseURL), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider %q", cfg.LLMProvider)
	}
}
