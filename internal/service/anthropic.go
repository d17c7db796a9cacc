package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const anthropicMaxTokens = 2048

// AnthropicGenerator generates text with the Anthropic Messages API
type AnthropicGenerator struct {
	client anthropic.Client
	model  anthropic.Model
}

// NewAnthropicGenerator creates an Anthropic-backed generator. The SDK's built-in
// retries are disabled; every request is a single round trip.
func NewAnthropicGenerator(apiKey, model, baseURL string, opts ...option.RequestOption) *AnthropicGenerator {
	if model == "" {
		model = "claude-3-5-haiku-latest"
	}

	clientOpts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if baseURL != "" {
		clientOpts = append(clientOpts, option.WithBaseURL(baseURL))
	}
	clientOpts = append(clientOpts, opts...)

	return &AnthropicGenerator{
		client: anthropic.NewClient(clientOpts...),
		model:  anthropic.Model(model),
	}
}

// Generate sends a single user message and returns the text blocks of the reply
func (g *AnthropicGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	message, err := g.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     g.model,
		MaxTokens: anthropicMaxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("anthropic request failed: %w", err)
	}

	var sb strings.Builder
	for _, block := range message.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	if sb.Len() == 0 {
		return "", fmt.Errorf("unexpected response format: no text blocks")
	}
	return sb.String(), nil
}

func (g *AnthropicGenerator) Provider() string { return "anthropic" }

func (g *AnthropicGenerator) Model() string { return string(g.model) }
