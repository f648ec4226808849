// Package workspace provisions ephemeral workspaces and writes generated
// files into them.
package workspace

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"ai-forge/pkg/models"
)

// Provider is a remote file store that hands out one workspace per run
type Provider interface {
	// Name identifies the provider in logs and metrics
	Name() string
	// CreateWorkspace provisions a new empty workspace and returns its handle
	CreateWorkspace(ctx context.Context) (string, error)
	// WriteFile writes content to the relative path inside workspace id
	WriteFile(ctx context.Context, id, path, content string) error
}

// HealthChecker is implemented by providers that can report readiness
type HealthChecker interface {
	Health(ctx context.Context) error
}

// ErrInvalidPath is wrapped by FileWriteError for paths that can never be written
var ErrInvalidPath = errors.New("invalid workspace path")

// ProvisionError means no workspace could be created. It is fatal to a run.
type ProvisionError struct {
	Provider string
	Err      error
}

func (e *ProvisionError) Error() string {
	return fmt.Sprintf("failed to provision %s workspace: %v", e.Provider, e.Err)
}

func (e *ProvisionError) Unwrap() error {
	return e.Err
}

// FileWriteError is a single failed write. It never aborts materialization.
type FileWriteError struct {
	Path string
	Err  error
}

func (e *FileWriteError) Error() string {
	return fmt.Sprintf("failed to write %q: %v", e.Path, e.Err)
}

func (e *FileWriteError) Unwrap() error {
	return e.Err
}

// Materialization is the outcome of writing a FileSet into a workspace.
// Results follow the FileSet order, one entry per file.
type Materialization struct {
	WorkspaceID string                   `json:"workspaceId"`
	Provider    string                   `json:"provider"`
	Results     []models.FileWriteResult `json:"results"`
}

// FailedCount returns the number of files that were not written
func (m *Materialization) FailedCount() int {
	if m == nil {
		return 0
	}
	n := 0
	for _, r := range m.Results {
		if !r.Written {
			n++
		}
	}
	return n
}

// checkPath rejects paths that would land outside the workspace root
func checkPath(p string) (string, error) {
	if strings.TrimSpace(p) == "" {
		return "", fmt.Errorf("%w: empty path", ErrInvalidPath)
	}
	if strings.HasPrefix(p, "/") || strings.Contains(p, "\\") {
		return "", fmt.Errorf("%w: %q is not a relative slash path", ErrInvalidPath, p)
	}
	clean := path.Clean(p)
	if clean == "." || clean == ".." || strings.HasPrefix(clean, "../") {
		return "", fmt.Errorf("%w: %q escapes the workspace", ErrInvalidPath, p)
	}
	return clean, nil
}
