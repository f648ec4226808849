package workspace

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"ai-forge/internal/logging"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// LocalProvider keeps each workspace in its own directory under a base path
type LocalProvider struct {
	basePath string
}

// NewLocalProvider creates a local directory provider
func NewLocalProvider(basePath string) (*LocalProvider, error) {
	if basePath == "" {
		basePath = filepath.Join(os.TempDir(), "forge-workspaces")
	}

	if err := os.MkdirAll(basePath, 0750); err != nil {
		return nil, fmt.Errorf("failed to create workspace directory: %w", err)
	}

	return &LocalProvider{basePath: basePath}, nil
}

// Name implements Provider
func (p *LocalProvider) Name() string {
	return "local"
}

// CreateWorkspace creates an empty directory named by a fresh handle
func (p *LocalProvider) CreateWorkspace(ctx context.Context) (string, error) {
	id := uuid.New().String()
	if err := os.Mkdir(p.Dir(id), 0750); err != nil {
		return "", fmt.Errorf("failed to create workspace %s: %w", id, err)
	}
	return id, nil
}

// WriteFile writes content under the workspace directory
func (p *LocalProvider) WriteFile(ctx context.Context, id, path, content string) error {
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("unknown workspace %q", id)
	}
	clean, err := checkPath(path)
	if err != nil {
		return err
	}

	fullPath := filepath.Join(p.Dir(id), filepath.FromSlash(clean))
	if err := os.MkdirAll(filepath.Dir(fullPath), 0750); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	if err := os.WriteFile(fullPath, []byte(content), 0640); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	return nil
}

// Health checks that the base directory still exists
func (p *LocalProvider) Health(ctx context.Context) error {
	info, err := os.Stat(p.basePath)
	if err != nil {
		return fmt.Errorf("workspace directory unavailable: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("workspace path %s is not a directory", p.basePath)
	}
	return nil
}

// Dir returns the directory backing workspace id
func (p *LocalProvider) Dir(id string) string {
	return filepath.Join(p.basePath, id)
}

// Sweep removes workspaces older than ttl and returns how many were removed
func (p *LocalProvider) Sweep(ctx context.Context, ttl time.Duration) (int, error) {
	entries, err := os.ReadDir(p.basePath)
	if err != nil {
		return 0, fmt.Errorf("failed to list workspaces: %w", err)
	}

	cutoff := time.Now().Add(-ttl)
	removed := 0
	for _, entry := range entries {
		if ctx.Err() != nil {
			return removed, ctx.Err()
		}
		if !entry.IsDir() {
			continue
		}
		if _, err := uuid.Parse(entry.Name()); err != nil {
			continue
		}
		info, err := entry.Info()
		if err != nil || info.ModTime().After(cutoff) {
			continue
		}
		if err := os.RemoveAll(p.Dir(entry.Name())); err != nil {
			logging.L().Warn("failed to remove expired workspace",
				zap.String("workspace_id", entry.Name()),
				zap.Error(err),
			)
			continue
		}
		removed++
	}
	return removed, nil
}

// RunSweeper calls Sweep every interval until ctx is done
func (p *LocalProvider) RunSweeper(ctx context.Context, ttl, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n, err := p.Sweep(ctx, ttl); err != nil {
				logging.L().Warn("workspace sweep failed", zap.Error(err))
			} else if n > 0 {
				logging.L().Info("expired workspaces removed", zap.Int("count", n))
			}
		}
	}
}
