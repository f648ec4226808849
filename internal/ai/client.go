package ai

import (
	"context"
	"fmt"
	"strings"
)

// ClientConfig selects and configures a provider
type ClientConfig struct {
	Provider     AIProvider
	GeminiAPIKey string
	GeminiModel  string
	OllamaHost   string
	OllamaModel  string
}

// NewClient builds the StructuredClient for cfg.Provider
func NewClient(ctx context.Context, cfg ClientConfig) (StructuredClient, error) {
	switch AIProvider(strings.ToLower(string(cfg.Provider))) {
	case ProviderGemini, "":
		return NewGeminiClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
	case ProviderOllama:
		return NewOllamaClient(cfg.OllamaHost, cfg.OllamaModel)
	default:
		return nil, fmt.Errorf("unsupported AI provider %q", cfg.Provider)
	}
}
