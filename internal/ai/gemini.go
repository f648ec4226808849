package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"google.golang.org/genai"
)

// DefaultGeminiModel is used when no model is configured
const DefaultGeminiModel = "gemini-2.5-flash"

// geminiModels is the subset of genai.Models used by GeminiClient
type geminiModels interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
	Get(ctx context.Context, model string, config *genai.GetModelConfig) (*genai.Model, error)
}

// GeminiClient implements StructuredClient on the Google Gen AI SDK
type GeminiClient struct {
	models geminiModels
	model  string
	usage  *usageStats
}

// NewGeminiClient creates a new Gemini API client
func NewGeminiClient(ctx context.Context, apiKey, model string) (*GeminiClient, error) {
	key := normalizeAPIKey(apiKey)
	if key == "" {
		return nil, errors.New("gemini API key is required")
	}
	if model == "" {
		model = DefaultGeminiModel
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  key,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	return newGeminiClient(client.Models, model), nil
}

func newGeminiClient(models geminiModels, model string) *GeminiClient {
	return &GeminiClient{
		models: models,
		model:  model,
		usage:  newUsageStats(ProviderGemini),
	}
}

// GenerateJSON implements StructuredClient. The schema is passed as
// responseJsonSchema so free-form maps (additionalProperties) are expressible.
func (g *GeminiClient) GenerateJSON(ctx context.Context, req *StructuredRequest) (*StructuredResponse, error) {
	startTime := time.Now()

	config := &genai.GenerateContentConfig{
		ResponseMIMEType:   "application/json",
		ResponseJsonSchema: req.Schema.JSONSchema(),
	}
	if req.System != "" {
		config.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}
	if req.Temperature != nil {
		config.Temperature = genai.Ptr(*req.Temperature)
	}

	resp, err := g.models.GenerateContent(ctx, g.model, genai.Text(req.Prompt), config)
	if err != nil {
		g.usage.recordError()
		return nil, describeGeminiError(err)
	}

	text := resp.Text()
	if text == "" {
		g.usage.recordError()
		reason := "empty response"
		if len(resp.Candidates) > 0 && resp.Candidates[0].FinishReason != "" {
			reason = fmt.Sprintf("empty response (finish reason %s)", resp.Candidates[0].FinishReason)
		}
		return nil, errors.New(reason)
	}

	usage := &Usage{}
	if md := resp.UsageMetadata; md != nil {
		usage.PromptTokens = int(md.PromptTokenCount)
		usage.CompletionTokens = int(md.CandidatesTokenCount)
		usage.TotalTokens = int(md.TotalTokenCount)
	}

	duration := time.Since(startTime)
	g.usage.record(usage.TotalTokens, duration)

	model := g.model
	if resp.ModelVersion != "" {
		model = resp.ModelVersion
	}

	return &StructuredResponse{
		Provider: ProviderGemini,
		Model:    model,
		Content:  json.RawMessage(text),
		Usage:    usage,
		Duration: duration,
	}, nil
}

// describeGeminiError keeps the SDK error in the chain but labels common statuses
func describeGeminiError(err error) error {
	var apiErr genai.APIError
	if !errors.As(err, &apiErr) {
		return err
	}
	switch apiErr.Code {
	case 429:
		return fmt.Errorf("RATE_LIMIT: Gemini API rate limit exceeded: %w", err)
	case 401, 403:
		return fmt.Errorf("UNAUTHORIZED: Gemini API key rejected: %w", err)
	case 500, 502, 503, 504:
		return fmt.Errorf("SERVICE_ERROR: Gemini service temporarily unavailable: %w", err)
	default:
		return fmt.Errorf("API_ERROR: Gemini request failed: %w", err)
	}
}

// GetProvider returns the provider identifier
func (g *GeminiClient) GetProvider() AIProvider {
	return ProviderGemini
}

// GetModel returns the configured model
func (g *GeminiClient) GetModel() string {
	return g.model
}

// Health checks that the configured model is visible to the API key
func (g *GeminiClient) Health(ctx context.Context) error {
	_, err := g.models.Get(ctx, g.model, nil)
	return err
}

// GetUsage returns current usage statistics (thread-safe copy)
func (g *GeminiClient) GetUsage() *ProviderUsage {
	return g.usage.snapshot()
}
