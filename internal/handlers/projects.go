// AI Forge Project Handlers
// Generation, file tree and archive download endpoints

package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"ai-forge/internal/archive"
	"ai-forge/internal/filetree"
	"ai-forge/internal/logging"
	"ai-forge/internal/metrics"
	"ai-forge/internal/middleware"
	"ai-forge/pkg/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// GenerateRequest is the body of POST /projects/generate
type GenerateRequest struct {
	Prompt string `json:"prompt" binding:"required"`
}

// FilesRequest is the body of POST /projects/tree and /projects/download
type FilesRequest struct {
	Files       *models.FileSet `json:"files"`
	WorkspaceID string          `json:"workspaceId,omitempty"`
	ProjectName string          `json:"projectName,omitempty"`
}

// GenerateProject runs the full pipeline and returns the GeneratedProject
// POST /api/v1/projects/generate
func (h *Handler) GenerateProject(c *gin.Context) {
	var req GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil || blank(req.Prompt) {
		badRequest(c, "INVALID_REQUEST", "A non-empty prompt is required")
		return
	}

	project, err := h.Projects.GenerateProject(c.Request.Context(), req.Prompt)
	if err != nil {
		status, resp := generationFailure(err)
		logging.L().Warn("project generation failed",
			zap.String("request_id", middleware.GetRequestID(c)),
			zap.Int("status", status),
			zap.Error(err),
		)
		c.JSON(status, resp)
		return
	}

	message := "Project generated"
	if project.FailedWrites > 0 {
		message = fmt.Sprintf("Project generated; %d file(s) could not be written to the workspace", project.FailedWrites)
	}

	c.JSON(http.StatusOK, StandardResponse{
		Success: true,
		Data:    project,
		Message: message,
	})
}

// BuildTree returns the folder/file tree for a FileSet
// POST /api/v1/projects/tree
func (h *Handler) BuildTree(c *gin.Context) {
	var req FilesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "INVALID_REQUEST", "Invalid request format")
		return
	}
	if req.Files == nil {
		req.Files = models.NewFileSet()
	}

	root, err := filetree.Build(req.Files)
	if err != nil {
		var conflict *filetree.PathConflictError
		if errors.As(err, &conflict) {
			badRequest(c, "PATH_CONFLICT", err.Error())
			return
		}
		badRequest(c, "INVALID_REQUEST", err.Error())
		return
	}

	resp := StandardResponse{Success: true, Data: root}
	if skipped := filetree.Unplaceable(req.Files); len(skipped) > 0 {
		paths := make([]string, len(skipped))
		for i, invalid := range skipped {
			paths[i] = fmt.Sprintf("%q", invalid.Path)
		}
		resp.Message = fmt.Sprintf("Skipped %d invalid path(s): %s", len(skipped), strings.Join(paths, ", "))
	}
	c.JSON(http.StatusOK, resp)
}

// DownloadProject streams the FileSet back as a zip archive
// POST /api/v1/projects/download
func (h *Handler) DownloadProject(c *gin.Context) {
	var req FilesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "INVALID_REQUEST", "Invalid request format")
		return
	}
	if req.Files.Len() == 0 {
		badRequest(c, "NO_FILES", "No files to download")
		return
	}

	data, err := archive.Export(req.Files)
	metrics.Get().RecordArchiveExport(len(data), err)
	if err != nil {
		if errors.Is(err, archive.ErrNoFiles) {
			badRequest(c, "NO_FILES", "No files to download")
			return
		}
		if errors.Is(err, archive.ErrInvalidPath) {
			badRequest(c, "INVALID_PATH", err.Error())
			return
		}
		logging.L().Error("archive export failed",
			zap.String("request_id", middleware.GetRequestID(c)),
			zap.String("workspace_id", req.WorkspaceID),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, StandardResponse{
			Success: false,
			Error:   "Failed to create zip archive",
			Code:    "EXPORT_FAILED",
		})
		return
	}

	filename := archive.Filename(req.ProjectName)
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, archive.ContentType, data)
}
