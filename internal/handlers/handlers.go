// AI Forge API Handlers
// REST and WebSocket handlers for project generation, trees and downloads

package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"ai-forge/internal/ai"
	"ai-forge/internal/generation"
	"ai-forge/internal/usage"
	"ai-forge/internal/workspace"
	"ai-forge/pkg/models"

	"github.com/gin-gonic/gin"
)

// ProjectGenerator runs the prompt-to-workspace pipeline
type ProjectGenerator interface {
	GenerateProject(ctx context.Context, prompt string, opts ...generation.RunOption) (*models.GeneratedProject, error)
}

// RunLister lists and summarizes recorded generation runs
type RunLister interface {
	ListRecent(ctx context.Context, limit int) ([]models.GenerationRun, error)
	GetSummary(ctx context.Context, window time.Duration) (*usage.RunSummary, error)
}

// ProviderHealth is the part of the model client the health check needs
type ProviderHealth interface {
	GetProvider() ai.AIProvider
	GetModel() string
	Health(ctx context.Context) error
	GetUsage() *ai.ProviderUsage
}

// Handler contains all the dependencies for API handlers
type Handler struct {
	Projects  ProjectGenerator
	Runs      RunLister
	AI        ProviderHealth
	Workspace workspace.Provider
}

// NewHandler creates a new handler instance. runs may be nil when run
// history is disabled.
func NewHandler(projects ProjectGenerator, runs RunLister, aiClient ProviderHealth, ws workspace.Provider) *Handler {
	return &Handler{
		Projects:  projects,
		Runs:      runs,
		AI:        aiClient,
		Workspace: ws,
	}
}

// StandardResponse represents a standard API response
type StandardResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
	Code    string      `json:"code,omitempty"`
	Message string      `json:"message,omitempty"`
}

// RegisterRoutes mounts the API under /api/v1
func (h *Handler) RegisterRoutes(api *gin.RouterGroup, generateLimit gin.HandlerFunc) {
	projects := api.Group("/projects")
	{
		projects.POST("/generate", generateLimit, h.GenerateProject)
		projects.GET("/generate/stream", generateLimit, h.StreamGeneration)
		projects.POST("/tree", h.BuildTree)
		projects.POST("/download", h.DownloadProject)
	}

	api.GET("/runs", h.ListRuns)
	api.GET("/runs/summary", h.RunSummary)
}

func badRequest(c *gin.Context, code, msg string) {
	c.JSON(http.StatusBadRequest, StandardResponse{
		Success: false,
		Error:   msg,
		Code:    code,
	})
}

// generationFailure maps a pipeline error to a status and response body
func generationFailure(err error) (int, StandardResponse) {
	resp := StandardResponse{
		Success: false,
		Error:   err.Error(),
		Code:    "GENERATION_FAILED",
	}
	status := http.StatusBadGateway

	details := gin.H{}
	if serr, ok := generation.AsStageError(err); ok {
		details["stage"] = serr.Stage
		details["run_id"] = serr.RunID
	}
	if gerr, ok := ai.AsGenerationError(err); ok {
		details["reason"] = gerr.Reason
		switch gerr.Reason {
		case ai.ReasonInvalidRequest:
			status = http.StatusBadRequest
			resp.Code = "INVALID_REQUEST"
		case ai.ReasonTimeout:
			status = http.StatusGatewayTimeout
		}
	}

	var perr *workspace.ProvisionError
	if errors.As(err, &perr) {
		status = http.StatusServiceUnavailable
		resp.Code = "WORKSPACE_UNAVAILABLE"
	}

	if len(details) > 0 {
		resp.Data = details
	}
	return status, resp
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}
