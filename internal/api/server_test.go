package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"ai-forge/internal/ai"
	"ai-forge/internal/config"
	"ai-forge/internal/workspace"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Environment:        config.EnvTest,
		AllowedOrigins:     []string{"http://localhost:3000"},
		AIProvider:         ai.ProviderOllama,
		OllamaHost:         "http://127.0.0.1:1",
		OllamaModel:        "llama3.1",
		WorkspaceProvider:  config.WorkspaceLocal,
		WorkspaceDir:       t.TempDir(),
		WorkspaceTTL:       time.Hour,
		WriteConcurrency:   2,
		DatabasePath:       "file::memory:",
		RunHistoryEnabled:  true,
		RateLimitPerMinute: 1,
		RateLimitBurst:     1,
	}
}

func newTestServer(t *testing.T, cfg *config.Config) (*Server, *gin.Engine) {
	t.Helper()
	srv, err := NewServer(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(srv.Close)
	return srv, srv.Router()
}

func TestNewServerWiring(t *testing.T) {
	srv, _ := newTestServer(t, testConfig(t))

	assert.Equal(t, ai.ProviderOllama, srv.AIClient.GetProvider())
	assert.Equal(t, "local", srv.Provider.Name())
	assert.NotNil(t, srv.Pipeline)
	require.NotNil(t, srv.Tracker)
	assert.Equal(t, "sqlite", srv.Database.Driver)
}

func TestNewServerWithoutRunHistory(t *testing.T) {
	cfg := testConfig(t)
	cfg.RunHistoryEnabled = false
	srv, router := newTestServer(t, cfg)
	assert.Nil(t, srv.Tracker)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/runs", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestNewWorkspaceProvider(t *testing.T) {
	cfg := testConfig(t)

	p, err := NewWorkspaceProvider(context.Background(), cfg)
	require.NoError(t, err)
	assert.IsType(t, &workspace.LocalProvider{}, p)

	cfg.WorkspaceProvider = "e2b"
	_, err = NewWorkspaceProvider(context.Background(), cfg)
	assert.ErrorContains(t, err, `unsupported workspace provider "e2b"`)

	cfg.WorkspaceProvider = config.WorkspaceS3
	_, err = NewWorkspaceProvider(context.Background(), cfg)
	assert.Error(t, err)
}

func TestRouterRoutes(t *testing.T) {
	srv, router := newTestServer(t, testConfig(t))
	srv.Start(context.Background())

	t.Run("health reports providers", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
		require.Equal(t, http.StatusOK, w.Code)

		var body map[string]interface{}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, "local", body["workspace"].(map[string]interface{})["provider"])
		assert.Equal(t, true, body["workspace"].(map[string]interface{})["ready"])
		assert.Equal(t, "ollama", body["ai"].(map[string]interface{})["provider"])
		assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
	})

	t.Run("metrics endpoint", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "# TYPE")
	})

	t.Run("unknown route", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/nope", nil))
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Contains(t, w.Body.String(), "NOT_FOUND")
	})

	t.Run("download goes through the stack", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/projects/download",
			strings.NewReader(`{"files":{"index.html":"<h1>hi</h1>"},"projectName":"Landing Page"}`))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, `attachment; filename="landing-page.zip"`, w.Header().Get("Content-Disposition"))
		assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	})

	t.Run("runs listing", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/runs", nil))
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("runs summary", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/runs/summary?window=1h", nil))
		require.Equal(t, http.StatusOK, w.Code)

		var body map[string]interface{}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, float64(0), body["data"].(map[string]interface{})["total"])
	})
}

func TestGenerateIsRateLimited(t *testing.T) {
	_, router := newTestServer(t, testConfig(t))

	post := func() int {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/projects/generate", strings.NewReader(`{"prompt":" "}`))
		req.Header.Set("Content-Type", "application/json")
		req.RemoteAddr = "203.0.113.7:5000"
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusBadRequest, post())
	assert.Equal(t, http.StatusTooManyRequests, post())
}
