// Package config loads and validates AI Forge configuration from the
// environment. Missing or inconsistent settings fail fast at startup.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"ai-forge/internal/ai"
	"ai-forge/internal/logging"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// Environment constants
const (
	EnvProduction  = "production"
	EnvStaging     = "staging"
	EnvDevelopment = "development"
	EnvTest        = "test"
)

// Workspace provider names
const (
	WorkspaceDocker = "docker"
	WorkspaceS3     = "s3"
	WorkspaceLocal  = "local"
)

// Config holds all application configuration
type Config struct {
	// Server
	Port            string
	Environment     string
	AllowedOrigins  []string
	ShutdownTimeout time.Duration

	// Structured generation
	AIProvider        ai.AIProvider
	GeminiAPIKey      string
	GeminiModel       string
	OllamaHost        string
	OllamaModel       string
	GenerationTimeout time.Duration
	// nil leaves the provider default
	GenerationTemperature *float32

	// Workspaces
	WorkspaceProvider string
	WorkspaceImage    string
	WorkspaceTTL      time.Duration
	WorkspaceDir      string
	WorkspaceRoot     string
	DockerHost        string
	PullImages        bool
	WriteConcurrency  int

	S3Bucket          string
	S3Region          string
	S3Endpoint        string
	S3AccessKeyID     string
	S3SecretAccessKey string
	S3Prefix          string

	// Run history
	DatabaseURL       string
	DatabasePath      string
	RunHistoryEnabled bool

	// Rate limiting of generation requests, per client IP
	RateLimitPerMinute int
	RateLimitBurst     int
}

// ValidationError lists every configuration problem found by Validate
type ValidationError struct {
	Missing []string
	Invalid []string
}

func (e *ValidationError) Error() string {
	var parts []string
	if len(e.Missing) > 0 {
		parts = append(parts, fmt.Sprintf("missing settings: %s", strings.Join(e.Missing, ", ")))
	}
	if len(e.Invalid) > 0 {
		parts = append(parts, fmt.Sprintf("invalid settings: %s", strings.Join(e.Invalid, "; ")))
	}
	return strings.Join(parts, "; ")
}

// HasErrors reports whether any problem was recorded
func (e *ValidationError) HasErrors() bool {
	return len(e.Missing) > 0 || len(e.Invalid) > 0
}

// LoadDotEnv loads .env from the working directory or its parent.
// A missing file is not an error.
func LoadDotEnv() bool {
	if err := godotenv.Load(); err != nil {
		if err := godotenv.Load("../.env"); err != nil {
			return false
		}
	}
	return true
}

// Load reads the configuration from environment variables
func Load() *Config {
	geminiKey := ai.ResolveAPIKey(
		os.Getenv("GEMINI_API_KEY"),
		os.Getenv("GOOGLE_AI_API_KEY"),
		os.Getenv("GOOGLE_GEMINI_API_KEY"),
	)

	return &Config{
		Port:            getEnv("PORT", "8080"),
		Environment:     GetEnvironment(),
		AllowedOrigins:  getEnvList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000", "http://127.0.0.1:3000"}),
		ShutdownTimeout: getEnvDuration("SHUTDOWN_TIMEOUT", 15*time.Second),

		AIProvider:        ai.AIProvider(strings.ToLower(getEnv("AI_PROVIDER", string(ai.ProviderGemini)))),
		GeminiAPIKey:      geminiKey,
		GeminiModel:       getEnv("GEMINI_MODEL", ai.DefaultGeminiModel),
		OllamaHost:        getEnvAny([]string{"OLLAMA_HOST", "OLLAMA_BASE_URL"}, ""),
		OllamaModel:       getEnv("OLLAMA_MODEL", ai.DefaultOllamaModel),
		GenerationTimeout: getEnvDuration("GENERATION_TIMEOUT", 0),

		GenerationTemperature: getEnvFloat32("GENERATION_TEMPERATURE"),

		WorkspaceProvider: strings.ToLower(getEnv("WORKSPACE_PROVIDER", WorkspaceLocal)),
		WorkspaceImage:    getEnv("WORKSPACE_IMAGE", "node:20-alpine"),
		WorkspaceTTL:      getEnvDuration("WORKSPACE_TTL", time.Hour),
		WorkspaceDir:      getEnv("WORKSPACE_DIR", ""),
		WorkspaceRoot:     getEnv("WORKSPACE_ROOT", "/home/user"),
		DockerHost:        getEnv("DOCKER_HOST", ""),
		PullImages:        getEnvBool("WORKSPACE_PULL_IMAGES", true),
		WriteConcurrency:  getEnvInt("WRITE_CONCURRENCY", 4),

		S3Bucket:          getEnv("S3_BUCKET", ""),
		S3Region:          getEnvAny([]string{"S3_REGION", "AWS_REGION"}, "us-east-1"),
		S3Endpoint:        getEnv("S3_ENDPOINT", ""),
		S3AccessKeyID:     getEnvAny([]string{"S3_ACCESS_KEY_ID", "AWS_ACCESS_KEY_ID"}, ""),
		S3SecretAccessKey: getEnvAny([]string{"S3_SECRET_ACCESS_KEY", "AWS_SECRET_ACCESS_KEY"}, ""),
		S3Prefix:          getEnv("S3_PREFIX", "workspaces"),

		DatabaseURL:       getEnv("DATABASE_URL", ""),
		DatabasePath:      getEnv("DATABASE_PATH", "forge.db"),
		RunHistoryEnabled: !getEnvBool("DISABLE_RUN_HISTORY", false),

		RateLimitPerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", 10),
		RateLimitBurst:     getEnvInt("RATE_LIMIT_BURST", 3),
	}
}

// Validate checks provider selection and the settings each provider needs
func (c *Config) Validate() error {
	verr := &ValidationError{}

	switch c.AIProvider {
	case ai.ProviderGemini:
		if c.GeminiAPIKey == "" {
			verr.Missing = append(verr.Missing, "GEMINI_API_KEY")
		}
	case ai.ProviderOllama:
	default:
		verr.Invalid = append(verr.Invalid, fmt.Sprintf("AI_PROVIDER: unknown provider %q", c.AIProvider))
	}

	switch c.WorkspaceProvider {
	case WorkspaceS3:
		if c.S3Bucket == "" {
			verr.Missing = append(verr.Missing, "S3_BUCKET")
		}
	case WorkspaceDocker, WorkspaceLocal:
	default:
		verr.Invalid = append(verr.Invalid, fmt.Sprintf("WORKSPACE_PROVIDER: unknown provider %q", c.WorkspaceProvider))
	}

	if t := c.GenerationTemperature; t != nil && (*t < 0 || *t > 2) {
		verr.Invalid = append(verr.Invalid, "GENERATION_TEMPERATURE: must be between 0 and 2")
	}
	if c.WriteConcurrency <= 0 {
		verr.Invalid = append(verr.Invalid, "WRITE_CONCURRENCY: must be positive")
	}
	if c.WorkspaceTTL <= 0 {
		verr.Invalid = append(verr.Invalid, "WORKSPACE_TTL: must be positive")
	}
	if c.RateLimitPerMinute <= 0 || c.RateLimitBurst <= 0 {
		verr.Invalid = append(verr.Invalid, "RATE_LIMIT_PER_MINUTE and RATE_LIMIT_BURST: must be positive")
	}

	if verr.HasErrors() {
		return verr
	}
	return nil
}

// IsProduction reports whether the config targets production
func (c *Config) IsProduction() bool {
	return c.Environment == EnvProduction || c.Environment == "prod"
}

// LogSummary logs which integrations are configured (names only, never values)
func (c *Config) LogSummary() {
	logging.L().Info("configuration loaded",
		zap.String("environment", c.Environment),
		zap.String("port", c.Port),
		zap.String("ai_provider", string(c.AIProvider)),
		zap.Bool("gemini_key_configured", c.GeminiAPIKey != ""),
		zap.String("workspace_provider", c.WorkspaceProvider),
		zap.Int("write_concurrency", c.WriteConcurrency),
		zap.Duration("workspace_ttl", c.WorkspaceTTL),
		zap.Bool("run_history", c.RunHistoryEnabled),
		zap.Bool("postgres", c.DatabaseURL != ""),
	)
}

// GetEnvironment returns the current environment
func GetEnvironment() string {
	env := os.Getenv("GO_ENV")
	if env == "" {
		env = os.Getenv("FORGE_ENV")
	}
	if env == "" {
		env = os.Getenv("ENVIRONMENT")
	}
	if env == "" {
		env = os.Getenv("ENV")
	}
	if env == "" {
		env = EnvDevelopment
	}
	return strings.ToLower(env)
}

// IsProductionEnvironment returns true if running in production
func IsProductionEnvironment() bool {
	env := GetEnvironment()
	return env == EnvProduction || env == "prod"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAny(keys []string, defaultValue string) string {
	for _, key := range keys {
		if value := os.Getenv(key); value != "" {
			return value
		}
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// getEnvFloat32 returns nil when key is unset or not a number
func getEnvFloat32(key string) *float32 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return nil
	}
	parsed, err := strconv.ParseFloat(value, 32)
	if err != nil {
		return nil
	}
	f := float32(parsed)
	return &f
}

// getEnvDuration accepts Go durations ("90s") or plain seconds ("90")
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}
	return defaultValue
}

func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
