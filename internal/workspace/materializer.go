package workspace

import (
	"context"
	"time"

	"ai-forge/internal/logging"
	"ai-forge/internal/metrics"
	"ai-forge/pkg/models"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// DefaultWriteConcurrency bounds parallel file writes per workspace
const DefaultWriteConcurrency = 4

// Materializer writes a FileSet into a freshly provisioned workspace.
// Provisioning must succeed; individual file writes are best-effort.
type Materializer struct {
	provider    Provider
	concurrency int
}

// NewMaterializer creates a materializer. concurrency <= 0 uses DefaultWriteConcurrency.
func NewMaterializer(provider Provider, concurrency int) *Materializer {
	if concurrency <= 0 {
		concurrency = DefaultWriteConcurrency
	}
	return &Materializer{provider: provider, concurrency: concurrency}
}

// Provider returns the underlying workspace provider
func (m *Materializer) Provider() Provider {
	return m.provider
}

// Materialize provisions one workspace and writes every file into it.
// It fails only with *ProvisionError; write failures end up in Results.
func (m *Materializer) Materialize(ctx context.Context, files *models.FileSet) (*Materialization, error) {
	name := m.provider.Name()
	met := metrics.Get()

	id, err := m.provider.CreateWorkspace(ctx)
	met.RecordWorkspaceProvision(name, err)
	if err != nil {
		return nil, &ProvisionError{Provider: name, Err: err}
	}

	log := logging.WithContext(zap.String("provider", name), zap.String("workspace_id", id))
	log.Info("workspace provisioned", zap.Int("files", files.Len()))

	paths := files.Paths()
	results := make([]models.FileWriteResult, len(paths))

	// each goroutine owns one slot of results, so no locking is needed
	var g errgroup.Group
	g.SetLimit(m.concurrency)
	for i, p := range paths {
		content, _ := files.Get(p)
		g.Go(func() error {
			results[i] = m.writeOne(ctx, id, p, content, log)
			return nil
		})
	}
	_ = g.Wait()

	mat := &Materialization{WorkspaceID: id, Provider: name, Results: results}
	if failed := mat.FailedCount(); failed > 0 {
		log.Warn("workspace partially materialized",
			zap.Int("failed", failed),
			zap.Int("total", len(results)),
		)
	}
	return mat, nil
}

func (m *Materializer) writeOne(ctx context.Context, id, p, content string, log *zap.Logger) models.FileWriteResult {
	start := time.Now()
	err := m.write(ctx, id, p, content)
	metrics.Get().RecordWorkspaceWrite(m.provider.Name(), time.Since(start), err)

	if err != nil {
		werr := &FileWriteError{Path: p, Err: err}
		log.Error("failed to write file", zap.String("path", p), zap.Error(werr))
		return models.FileWriteResult{Path: p, Written: false, Error: werr.Error()}
	}
	return models.FileWriteResult{Path: p, Written: true}
}

func (m *Materializer) write(ctx context.Context, id, p, content string) error {
	clean, err := checkPath(p)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return m.provider.WriteFile(ctx, id, clean, content)
}
