package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	ollama "github.com/ollama/ollama/api"
)

// DefaultOllamaModel is used when no model is configured
const DefaultOllamaModel = "qwen2.5-coder:7b"

// ollamaAPI is the subset of the Ollama client used by OllamaClient
type ollamaAPI interface {
	Chat(ctx context.Context, req *ollama.ChatRequest, fn ollama.ChatResponseFunc) error
	List(ctx context.Context) (*ollama.ListResponse, error)
}

// OllamaClient implements StructuredClient against a local or remote Ollama
// server, using its native structured output support (format = JSON Schema)
type OllamaClient struct {
	api   ollamaAPI
	model string
	usage *usageStats
}

// NewOllamaClient creates a client. An empty host falls back to OLLAMA_HOST
// and then to the Ollama default.
func NewOllamaClient(host, model string) (*OllamaClient, error) {
	if model == "" {
		model = DefaultOllamaModel
	}

	var (
		client *ollama.Client
		err    error
	)
	if host == "" {
		client, err = ollama.ClientFromEnvironment()
	} else {
		var base *url.URL
		base, err = url.Parse(host)
		if err == nil {
			// local inference on large models can be slow
			client = ollama.NewClient(base, &http.Client{Timeout: 15 * time.Minute})
		}
	}
	if err != nil {
		return nil, fmt.Errorf("could not create ollama client: %w", err)
	}

	return newOllamaClient(client, model), nil
}

func newOllamaClient(api ollamaAPI, model string) *OllamaClient {
	return &OllamaClient{
		api:   api,
		model: model,
		usage: newUsageStats(ProviderOllama),
	}
}

// GenerateJSON implements StructuredClient
func (o *OllamaClient) GenerateJSON(ctx context.Context, req *StructuredRequest) (*StructuredResponse, error) {
	startTime := time.Now()

	format, err := json.Marshal(req.Schema.JSONSchema())
	if err != nil {
		return nil, fmt.Errorf("failed to encode schema: %w", err)
	}

	messages := make([]ollama.Message, 0, 2)
	if req.System != "" {
		messages = append(messages, ollama.Message{Role: "system", Content: req.System})
	}
	messages = append(messages, ollama.Message{Role: "user", Content: req.Prompt})

	options := map[string]any{
		"num_ctx":     16384,
		"num_predict": -1,
	}
	if req.Temperature != nil {
		options["temperature"] = *req.Temperature
	}

	stream := false
	chatReq := &ollama.ChatRequest{
		Model:    o.model,
		Messages: messages,
		Format:   json.RawMessage(format),
		Stream:   &stream,
		Options:  options,
	}

	var (
		content strings.Builder
		final   ollama.ChatResponse
	)
	err = o.api.Chat(ctx, chatReq, func(res ollama.ChatResponse) error {
		content.WriteString(res.Message.Content)
		if res.Done {
			final = res
		}
		return nil
	})
	if err != nil {
		o.usage.recordError()
		return nil, fmt.Errorf("ollama chat failed: %w", err)
	}
	if strings.TrimSpace(content.String()) == "" {
		o.usage.recordError()
		return nil, errors.New("ollama returned an empty response")
	}

	usage := &Usage{
		PromptTokens:     final.PromptEvalCount,
		CompletionTokens: final.EvalCount,
		TotalTokens:      final.PromptEvalCount + final.EvalCount,
	}
	duration := time.Since(startTime)
	o.usage.record(usage.TotalTokens, duration)

	model := o.model
	if final.Model != "" {
		model = final.Model
	}

	return &StructuredResponse{
		Provider: ProviderOllama,
		Model:    model,
		Content:  json.RawMessage(content.String()),
		Usage:    usage,
		Duration: duration,
	}, nil
}

// GetProvider returns the provider identifier
func (o *OllamaClient) GetProvider() AIProvider {
	return ProviderOllama
}

// GetModel returns the configured model
func (o *OllamaClient) GetModel() string {
	return o.model
}

// Health checks the server is up and the model has been pulled
func (o *OllamaClient) Health(ctx context.Context) error {
	list, err := o.api.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to list local models: %w", err)
	}

	available := make([]string, 0, len(list.Models))
	for _, m := range list.Models {
		if m.Name == o.model || m.Model == o.model {
			return nil
		}
		available = append(available, m.Name)
	}
	return fmt.Errorf("model %s not found. Available models: %v", o.model, available)
}

// GetUsage returns current usage statistics (thread-safe copy)
func (o *OllamaClient) GetUsage() *ProviderUsage {
	return o.usage.snapshot()
}
