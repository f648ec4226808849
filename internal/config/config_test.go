package config

import (
	"os"
	"testing"
	"time"

	"ai-forge/internal/ai"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv unsets every variable Load reads so host settings do not leak in
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"GO_ENV", "FORGE_ENV", "ENVIRONMENT", "ENV", "PORT", "CORS_ALLOWED_ORIGINS",
		"AI_PROVIDER", "GEMINI_API_KEY", "GOOGLE_AI_API_KEY", "GOOGLE_GEMINI_API_KEY", "GEMINI_MODEL",
		"OLLAMA_HOST", "OLLAMA_BASE_URL", "OLLAMA_MODEL", "GENERATION_TIMEOUT", "GENERATION_TEMPERATURE",
		"WORKSPACE_PROVIDER", "WORKSPACE_TTL", "WORKSPACE_DIR", "WRITE_CONCURRENCY",
		"S3_BUCKET", "S3_REGION", "AWS_REGION", "DATABASE_URL", "DATABASE_PATH", "DISABLE_RUN_HISTORY",
		"RATE_LIMIT_PER_MINUTE", "RATE_LIMIT_BURST",
	} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestGetEnvironment(t *testing.T) {
	tests := []struct {
		name     string
		envVars  map[string]string
		expected string
	}{
		{
			name:     "defaults to development",
			envVars:  map[string]string{},
			expected: "development",
		},
		{
			name:     "GO_ENV takes precedence",
			envVars:  map[string]string{"GO_ENV": "production", "FORGE_ENV": "staging"},
			expected: "production",
		},
		{
			name:     "FORGE_ENV used when GO_ENV not set",
			envVars:  map[string]string{"FORGE_ENV": "staging"},
			expected: "staging",
		},
		{
			name:     "ENVIRONMENT used as fallback",
			envVars:  map[string]string{"ENVIRONMENT": "TEST"},
			expected: "test",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.envVars {
				t.Setenv(k, v)
			}
			assert.Equal(t, tt.expected, GetEnvironment())
		})
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg := Load()
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, EnvDevelopment, cfg.Environment)
	assert.Equal(t, ai.ProviderGemini, cfg.AIProvider)
	assert.Equal(t, ai.DefaultGeminiModel, cfg.GeminiModel)
	assert.Equal(t, WorkspaceLocal, cfg.WorkspaceProvider)
	assert.Equal(t, time.Hour, cfg.WorkspaceTTL)
	assert.Equal(t, 4, cfg.WriteConcurrency)
	assert.Equal(t, "forge.db", cfg.DatabasePath)
	assert.True(t, cfg.RunHistoryEnabled)
	assert.Equal(t, 10, cfg.RateLimitPerMinute)
	assert.Equal(t, 3, cfg.RateLimitBurst)
	assert.Zero(t, cfg.GenerationTimeout)
	assert.Nil(t, cfg.GenerationTemperature)
}

func TestLoadOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("AI_PROVIDER", "Ollama")
	t.Setenv("OLLAMA_BASE_URL", "http://localhost:11434")
	t.Setenv("GOOGLE_AI_API_KEY", `"Bearer AIzaTestKey"`)
	t.Setenv("GENERATION_TIMEOUT", "90")
	t.Setenv("WORKSPACE_TTL", "30m")
	t.Setenv("WORKSPACE_PROVIDER", "S3")
	t.Setenv("S3_BUCKET", "forge")
	t.Setenv("AWS_REGION", "eu-west-1")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, ,https://b.example")
	t.Setenv("DISABLE_RUN_HISTORY", "true")
	t.Setenv("WRITE_CONCURRENCY", "not-a-number")
	t.Setenv("GENERATION_TEMPERATURE", "0.4")

	cfg := Load()
	assert.Equal(t, ai.ProviderOllama, cfg.AIProvider)
	assert.Equal(t, "http://localhost:11434", cfg.OllamaHost)
	assert.Equal(t, "AIzaTestKey", cfg.GeminiAPIKey)
	assert.Equal(t, 90*time.Second, cfg.GenerationTimeout)
	require.NotNil(t, cfg.GenerationTemperature)
	assert.InDelta(t, 0.4, *cfg.GenerationTemperature, 1e-6)
	assert.Equal(t, 30*time.Minute, cfg.WorkspaceTTL)
	assert.Equal(t, WorkspaceS3, cfg.WorkspaceProvider)
	assert.Equal(t, "eu-west-1", cfg.S3Region)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
	assert.False(t, cfg.RunHistoryEnabled)
	assert.Equal(t, 4, cfg.WriteConcurrency)
	assert.NoError(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			AIProvider:         ai.ProviderGemini,
			GeminiAPIKey:       "key",
			WorkspaceProvider:  WorkspaceDocker,
			WorkspaceTTL:       time.Hour,
			WriteConcurrency:   4,
			RateLimitPerMinute: 10,
			RateLimitBurst:     3,
		}
	}

	tests := []struct {
		name        string
		mutate      func(c *Config)
		wantMissing []string
		wantInvalid int
	}{
		{"valid", func(c *Config) {}, nil, 0},
		{"gemini without key", func(c *Config) { c.GeminiAPIKey = "" }, []string{"GEMINI_API_KEY"}, 0},
		{"ollama needs no key", func(c *Config) { c.AIProvider = ai.ProviderOllama; c.GeminiAPIKey = "" }, nil, 0},
		{"unknown ai provider", func(c *Config) { c.AIProvider = "claude" }, nil, 1},
		{"s3 without bucket", func(c *Config) { c.WorkspaceProvider = WorkspaceS3 }, []string{"S3_BUCKET"}, 0},
		{"unknown workspace provider", func(c *Config) { c.WorkspaceProvider = "e2b" }, nil, 1},
		{"temperature out of range", func(c *Config) { temp := float32(3); c.GenerationTemperature = &temp }, nil, 1},
		{"bad numbers", func(c *Config) { c.WriteConcurrency = 0; c.RateLimitBurst = 0 }, nil, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantMissing == nil && tt.wantInvalid == 0 {
				assert.NoError(t, err)
				return
			}

			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.wantMissing, verr.Missing)
			assert.Len(t, verr.Invalid, tt.wantInvalid)
		})
	}
}

func TestValidationErrorMessage(t *testing.T) {
	err := &ValidationError{Missing: []string{"A", "B"}, Invalid: []string{"C: bad"}}
	assert.Equal(t, "missing settings: A, B; invalid settings: C: bad", err.Error())
	assert.True(t, err.HasErrors())
	assert.False(t, (&ValidationError{}).HasErrors())
}
