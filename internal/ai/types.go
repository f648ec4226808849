package ai

import (
	"context"
	"encoding/json"
	"time"

	"ai-forge/internal/schema"
)

// AIProvider represents the available AI providers
type AIProvider string

const (
	ProviderGemini AIProvider = "gemini"
	ProviderOllama AIProvider = "ollama"
)

// StructuredRequest asks a provider for a single JSON value conforming to Schema
type StructuredRequest struct {
	Schema      *schema.Schema
	System      string
	Prompt      string
	Temperature *float32
}

// StructuredResponse is the raw JSON produced by a provider
type StructuredResponse struct {
	Provider AIProvider      `json:"provider"`
	Model    string          `json:"model"`
	Content  json.RawMessage `json:"content"`
	Usage    *Usage          `json:"usage,omitempty"`
	Duration time.Duration   `json:"duration"`
}

// Usage represents token usage for a request
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// StructuredClient is implemented by every provider capable of
// schema-constrained JSON generation
type StructuredClient interface {
	// GenerateJSON returns the provider's raw JSON output for req.
	// Implementations do not validate the output against req.Schema.
	GenerateJSON(ctx context.Context, req *StructuredRequest) (*StructuredResponse, error)

	// GetProvider returns the provider identifier
	GetProvider() AIProvider

	// GetModel returns the model used for requests
	GetModel() string

	// Health checks if the provider is reachable
	Health(ctx context.Context) error

	// GetUsage returns usage statistics
	GetUsage() *ProviderUsage
}

// ProviderUsage tracks usage statistics for a provider
type ProviderUsage struct {
	Provider     AIProvider `json:"provider"`
	RequestCount int64      `json:"request_count"`
	TotalTokens  int64      `json:"total_tokens"`
	AvgLatency   float64    `json:"avg_latency"`
	ErrorCount   int64      `json:"error_count"`
	LastUsed     time.Time  `json:"last_used"`
}
