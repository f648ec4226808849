package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"ai-forge/internal/logging"
	"ai-forge/internal/metrics"
	"ai-forge/internal/schema"

	"go.uber.org/zap"
)

// Generator performs one schema-validated generation call per Generate.
// On success the decoded value strictly satisfies the schema; anything the
// model returns that does not conform is reported as a GenerationError.
// No retries are performed here.
type Generator struct {
	client      StructuredClient
	timeout     time.Duration
	temperature *float32
}

// NewGenerator wraps a provider client. A zero timeout leaves deadlines to ctx.
func NewGenerator(client StructuredClient, timeout time.Duration) *Generator {
	return &Generator{client: client, timeout: timeout}
}

// WithTemperature sets the sampling temperature used for every request
func (g *Generator) WithTemperature(t float32) *Generator {
	g.temperature = &t
	return g
}

// Provider returns the underlying provider identifier
func (g *Generator) Provider() AIProvider {
	return g.client.GetProvider()
}

// Model returns the underlying model name
func (g *Generator) Model() string {
	return g.client.GetModel()
}

// Generate asks the provider for output matching s and decodes it into out
func (g *Generator) Generate(ctx context.Context, s *schema.Schema, system, prompt string, out any) error {
	provider := g.client.GetProvider()
	model := g.client.GetModel()

	fail := func(reason Reason, err error) error {
		return &GenerationError{Provider: provider, Schema: s.Name, Reason: reason, Err: err}
	}

	if strings.TrimSpace(prompt) == "" {
		return fail(ReasonInvalidRequest, errors.New("prompt must not be empty"))
	}

	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	m := metrics.Get()
	m.AIRequestsInFlight.WithLabelValues(string(provider)).Inc()
	defer m.AIRequestsInFlight.WithLabelValues(string(provider)).Dec()

	log := logging.WithContext(
		zap.String("provider", string(provider)),
		zap.String("model", model),
		zap.String("schema", s.Name),
	)

	start := time.Now()
	resp, err := g.client.GenerateJSON(ctx, &StructuredRequest{
		Schema:      s,
		System:      system,
		Prompt:      prompt,
		Temperature: g.temperature,
	})
	duration := time.Since(start)
	if err == nil && resp == nil {
		err = errors.New("provider returned no response")
	}

	if err != nil {
		reason := classifyCallError(ctx, err)
		m.RecordAIRequest(string(provider), model, s.Name, string(reason), duration, 0, 0)
		log.Warn("structured generation failed", zap.String("reason", string(reason)), zap.Duration("duration", duration), zap.Error(err))
		return fail(reason, err)
	}

	var inTokens, outTokens int
	if resp.Usage != nil {
		inTokens, outTokens = resp.Usage.PromptTokens, resp.Usage.CompletionTokens
	}

	content := stripCodeFence(resp.Content)
	if err := s.ValidateJSON(content); err != nil {
		m.RecordAIRequest(string(provider), model, s.Name, string(ReasonSchemaViolation), duration, inTokens, outTokens)
		log.Warn("model output rejected by schema", zap.Int("bytes", len(content)), zap.Error(err))
		return fail(ReasonSchemaViolation, err)
	}

	if err := json.Unmarshal(content, out); err != nil {
		m.RecordAIRequest(string(provider), model, s.Name, string(ReasonSchemaViolation), duration, inTokens, outTokens)
		return fail(ReasonSchemaViolation, err)
	}

	m.RecordAIRequest(string(provider), model, s.Name, "success", duration, inTokens, outTokens)
	log.Debug("structured generation completed",
		zap.Duration("duration", duration),
		zap.Int("prompt_tokens", inTokens),
		zap.Int("completion_tokens", outTokens),
	)
	return nil
}

// GenerateAs is a typed convenience around Generator.Generate
func GenerateAs[T any](ctx context.Context, g *Generator, s *schema.Schema, system, prompt string) (T, error) {
	var out T
	if err := g.Generate(ctx, s, system, prompt, &out); err != nil {
		var zero T
		return zero, err
	}
	return out, nil
}

// stripCodeFence removes a surrounding ```json ... ``` block, which some
// models emit even when asked for raw JSON
func stripCodeFence(raw []byte) []byte {
	trimmed := bytes.TrimSpace(raw)
	if !bytes.HasPrefix(trimmed, []byte("```")) {
		return trimmed
	}
	trimmed = bytes.TrimPrefix(trimmed, []byte("```"))
	if nl := bytes.IndexByte(trimmed, '\n'); nl >= 0 {
		trimmed = trimmed[nl+1:]
	}
	trimmed = bytes.TrimSpace(trimmed)
	trimmed = bytes.TrimSuffix(trimmed, []byte("```"))
	return bytes.TrimSpace(trimmed)
}
