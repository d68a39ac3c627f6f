package generator

import (
	"context"
	"fmt"

	"github.com/NataTusia/Haah-and-Cash/config"
)

// Prompt is one generation request.
type Prompt struct {
	System string
	User   string
}

// TextGenerator is the external text generation service.
type TextGenerator interface {
	Generate(ctx context.Context, prompt Prompt) (string, error)
	Model() string
}

// NewTextGenerator builds the client selected by llm.provider.
func NewTextGenerator(ctx context.Context, cfg config.AppConfig) (TextGenerator, error) {
	switch cfg.LLM.Provider {
	case "google":
		if cfg.GeminiAPIKey == "" {
			return nil, fmt.Errorf("GEMINI_API_KEY environment variable is not set")
		}
		return NewGeminiClient(ctx, cfg.GeminiAPIKey, cfg.LLM.ModelName)
	case "openai":
		return NewOpenAIClient(cfg.OpenAIAPIKey, cfg.LLM.ModelName, cfg.LLM.BaseURL)
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.LLM.Provider)
	}
}
