// Package llmservice invokes the generative model that produces answers.
package llmservice

import (
	"context"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"
	"github.com/tmc/langchaingo/schema"

	"pdfchat/internal/config"
	"pdfchat/internal/models"
)

// Client wraps a generative model endpoint. Unreachable endpoints and empty
// responses surface as ErrGenerationUnavailable, distinct from a low-quality
// answer.
type Client struct {
	llm llms.Model
}

// NewClient builds the generation client for the configured provider.
func NewClient(cfg *config.LLMConfig) (*Client, error) {
	var (
		llm llms.Model
		err error
	)
	switch cfg.Provider {
	case "ollama":
		llm, err = ollama.New(
			ollama.WithServerURL(cfg.BaseURL),
			ollama.WithModel(cfg.Model),
		)
	case "openai":
		llm, err = openai.New(
			openai.WithBaseURL(cfg.BaseURL),
			openai.WithToken(strings.TrimPrefix(cfg.Key, "Bearer ")),
			openai.WithModel(cfg.Model),
		)
	default:
		err = fmt.Errorf("unsupported inference provider: %q", cfg.Provider)
	}
	if err != nil {
		return nil, err
	}
	return &Client{llm: llm}, nil
}

// Generate runs the model with a system prompt and a user prompt and returns
// the generated text.
func (c *Client) Generate(ctx context.Context, system, prompt string) (string, error) {
	messages := []llms.MessageContent{
		llms.TextParts(schema.ChatMessageTypeSystem, system),
		llms.TextParts(schema.ChatMessageTypeHuman, prompt),
	}
	res, err := c.llm.GenerateContent(ctx, messages)
	if err != nil {
		return "", fmt.Errorf("%w: %v", models.ErrGenerationUnavailable, err)
	}
	if len(res.Choices) == 0 || strings.TrimSpace(res.Choices[0].Content) == "" {
		return "", fmt.Errorf("%w: model returned no output", models.ErrGenerationUnavailable)
	}
	return strings.TrimSpace(res.Choices[0].Content), nil
}
