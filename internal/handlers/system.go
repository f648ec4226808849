// AI Forge System Handlers
// Health check, run history and run summary endpoints

package handlers

import (
	"context"
	"net/http"
	"runtime"
	"strconv"
	"time"

	"ai-forge/internal/metrics"
	"ai-forge/internal/workspace"

	"github.com/gin-gonic/gin"
)

var startTime = time.Now()

const defaultSummaryWindow = 24 * time.Hour

// HealthCheck reports provider names and readiness
// GET /health
func (h *Handler) HealthCheck(c *gin.Context) {
	status := "healthy"
	aiStatus := gin.H{}

	if h.AI != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		err := h.AI.Health(ctx)
		cancel()

		provider := string(h.AI.GetProvider())
		metrics.Get().SetAIProviderHealth(provider, err == nil)

		aiStatus["provider"] = provider
		aiStatus["model"] = h.AI.GetModel()
		aiStatus["ready"] = err == nil
		if err != nil {
			aiStatus["error"] = err.Error()
			status = "degraded"
		}
		if u := h.AI.GetUsage(); u != nil {
			aiStatus["usage"] = u
		}
	}

	wsStatus := gin.H{}
	if h.Workspace != nil {
		wsStatus["provider"] = h.Workspace.Name()
		wsStatus["ready"] = true
		if checker, ok := h.Workspace.(workspace.HealthChecker); ok {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
			err := checker.Health(ctx)
			cancel()
			if err != nil {
				wsStatus["ready"] = false
				wsStatus["error"] = err.Error()
				status = "degraded"
			}
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"status":      status,
		"service":     "ai-forge",
		"uptime":      time.Since(startTime).Round(time.Second).String(),
		"goroutines":  runtime.NumGoroutine(),
		"ai":          aiStatus,
		"workspace":   wsStatus,
		"run_history": h.Runs != nil,
		"timestamp":   time.Now().UTC(),
	})
}

// runHistoryDisabled reports whether run history is off and answers 503 if so
func (h *Handler) runHistoryDisabled(c *gin.Context) bool {
	if h.Runs != nil {
		return false
	}
	c.JSON(http.StatusServiceUnavailable, StandardResponse{
		Success: false,
		Error:   "Run history is disabled",
		Code:    "RUN_HISTORY_DISABLED",
	})
	return true
}

// ListRuns returns the most recent generation runs
// GET /api/v1/runs?limit=N
func (h *Handler) ListRuns(c *gin.Context) {
	if h.runHistoryDisabled(c) {
		return
	}

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			badRequest(c, "INVALID_REQUEST", "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	runs, err := h.Runs.ListRecent(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, StandardResponse{
			Success: false,
			Error:   "Failed to list runs",
			Code:    "INTERNAL_ERROR",
		})
		return
	}

	c.JSON(http.StatusOK, StandardResponse{
		Success: true,
		Data:    runs,
	})
}

// RunSummary aggregates runs recorded within a window (default 24h)
// GET /api/v1/runs/summary?window=24h
func (h *Handler) RunSummary(c *gin.Context) {
	if h.runHistoryDisabled(c) {
		return
	}

	window := defaultSummaryWindow
	if raw := c.Query("window"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil || d <= 0 {
			badRequest(c, "INVALID_REQUEST", "window must be a positive duration such as 24h")
			return
		}
		window = d
	}

	summary, err := h.Runs.GetSummary(c.Request.Context(), window)
	if err != nil {
		c.JSON(http.StatusInternalServerError, StandardResponse{
			Success: false,
			Error:   "Failed to summarize runs",
			Code:    "INTERNAL_ERROR",
		})
		return
	}

	c.JSON(http.StatusOK, StandardResponse{
		Success: true,
		Data:    summary,
	})
}
