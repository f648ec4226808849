package ai

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	ollama "github.com/ollama/ollama/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

type fakeGeminiModels struct {
	resp   *genai.GenerateContentResponse
	err    error
	model  string
	config *genai.GenerateContentConfig
	prompt string
}

func (f *fakeGeminiModels) GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.model = model
	f.config = config
	if len(contents) > 0 && len(contents[0].Parts) > 0 {
		f.prompt = contents[0].Parts[0].Text
	}
	return f.resp, f.err
}

func (f *fakeGeminiModels) Get(ctx context.Context, model string, config *genai.GetModelConfig) (*genai.Model, error) {
	return &genai.Model{Name: model}, f.err
}

func geminiText(text string) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: genai.NewContentFromText(text, genai.RoleModel),
		}},
		UsageMetadata: &genai.GenerateContentResponseUsageMetadata{
			PromptTokenCount:     12,
			CandidatesTokenCount: 30,
			TotalTokenCount:      42,
		},
	}
}

func TestGeminiClient_GenerateJSON(t *testing.T) {
	fake := &fakeGeminiModels{resp: geminiText(`{"a.txt":"hello"}`)}
	client := newGeminiClient(fake, "gemini-test")

	temp := float32(0.3)
	resp, err := client.GenerateJSON(context.Background(), &StructuredRequest{
		Schema:      testFilesSchema,
		System:      "You are an expert.",
		Prompt:      "Generate files",
		Temperature: &temp,
	})
	require.NoError(t, err)

	assert.Equal(t, ProviderGemini, resp.Provider)
	assert.Equal(t, "gemini-test", resp.Model)
	assert.JSONEq(t, `{"a.txt":"hello"}`, string(resp.Content))
	assert.Equal(t, 42, resp.Usage.TotalTokens)

	assert.Equal(t, "gemini-test", fake.model)
	assert.Equal(t, "Generate files", fake.prompt)
	assert.Equal(t, "application/json", fake.config.ResponseMIMEType)
	assert.Equal(t, testFilesSchema.JSONSchema(), fake.config.ResponseJsonSchema)
	require.NotNil(t, fake.config.SystemInstruction)
	assert.Equal(t, "You are an expert.", fake.config.SystemInstruction.Parts[0].Text)
	require.NotNil(t, fake.config.Temperature)
	assert.InDelta(t, 0.3, *fake.config.Temperature, 1e-6)

	usage := client.GetUsage()
	assert.Equal(t, int64(1), usage.RequestCount)
	assert.Equal(t, int64(42), usage.TotalTokens)
}

func TestGeminiClient_Errors(t *testing.T) {
	client := newGeminiClient(&fakeGeminiModels{err: genai.APIError{Code: 429, Message: "slow down"}}, "m")
	_, err := client.GenerateJSON(context.Background(), &StructuredRequest{Schema: testFilesSchema, Prompt: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "RATE_LIMIT")
	var apiErr genai.APIError
	assert.True(t, errors.As(err, &apiErr))

	empty := newGeminiClient(&fakeGeminiModels{resp: &genai.GenerateContentResponse{}}, "m")
	_, err = empty.GenerateJSON(context.Background(), &StructuredRequest{Schema: testFilesSchema, Prompt: "x"})
	assert.Error(t, err)
	assert.Equal(t, int64(1), empty.GetUsage().ErrorCount)
}

type fakeOllama struct {
	chunks []ollama.ChatResponse
	err    error
	req    *ollama.ChatRequest
	models []ollama.ListModelResponse
}

func (f *fakeOllama) Chat(ctx context.Context, req *ollama.ChatRequest, fn ollama.ChatResponseFunc) error {
	f.req = req
	if f.err != nil {
		return f.err
	}
	for _, c := range f.chunks {
		if err := fn(c); err != nil {
			return err
		}
	}
	return nil
}

func (f *fakeOllama) List(ctx context.Context) (*ollama.ListResponse, error) {
	return &ollama.ListResponse{Models: f.models}, f.err
}

func TestOllamaClient_GenerateJSON(t *testing.T) {
	final := ollama.ChatResponse{Model: "qwen-test", Message: ollama.Message{Content: `"}`}, Done: true}
	final.PromptEvalCount = 5
	final.EvalCount = 7

	fake := &fakeOllama{chunks: []ollama.ChatResponse{
		{Message: ollama.Message{Content: `{"a.txt":`}},
		{Message: ollama.Message{Content: `"hello`}},
		final,
	}}
	client := newOllamaClient(fake, "qwen-test")

	resp, err := client.GenerateJSON(context.Background(), &StructuredRequest{
		Schema: testFilesSchema,
		System: "sys",
		Prompt: "files",
	})
	require.NoError(t, err)
	assert.Equal(t, `{"a.txt":"hello"}`, string(resp.Content))
	assert.Equal(t, 12, resp.Usage.TotalTokens)

	require.NotNil(t, fake.req)
	require.Len(t, fake.req.Messages, 2)
	assert.Equal(t, "system", fake.req.Messages[0].Role)
	assert.Equal(t, "user", fake.req.Messages[1].Role)
	require.NotNil(t, fake.req.Stream)
	assert.False(t, *fake.req.Stream)

	var format map[string]any
	require.NoError(t, json.Unmarshal(fake.req.Format, &format))
	assert.Equal(t, "object", format["type"])
	assert.Contains(t, format, "additionalProperties")
}

func TestOllamaClient_Health(t *testing.T) {
	client := newOllamaClient(&fakeOllama{models: []ollama.ListModelResponse{{Name: "llama3:8b"}}}, "qwen-test")
	err := client.Health(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "llama3:8b")

	client = newOllamaClient(&fakeOllama{models: []ollama.ListModelResponse{{Name: "qwen-test"}}}, "qwen-test")
	assert.NoError(t, client.Health(context.Background()))
}

func TestNewClient_UnknownProvider(t *testing.T) {
	_, err := NewClient(context.Background(), ClientConfig{Provider: "claude"})
	assert.Error(t, err)

	_, err = NewClient(context.Background(), ClientConfig{Provider: ProviderGemini})
	assert.Error(t, err, "gemini requires an API key")
}
