// AI Forge Run History
// Write-only audit trail of generation runs, persisted with GORM

package usage

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"ai-forge/internal/metrics"
	"ai-forge/pkg/models"

	"gorm.io/gorm"
)

const (
	DefaultListLimit = 20
	MaxListLimit     = 200

	runsTable = "generation_runs"
)

// RunSummary aggregates recorded runs since a point in time
type RunSummary struct {
	Since        time.Time `json:"since"`
	Total        int64     `json:"total"`
	Done         int64     `json:"done"`
	Failed       int64     `json:"failed"`
	FailedWrites int64     `json:"failed_writes"`
	AvgDuration  float64   `json:"avg_duration_ms"`
}

// Tracker records generation runs. Records are never read back to serve
// a generation; listing exists for operators only.
type Tracker struct {
	db *gorm.DB
	mu sync.RWMutex

	summaryCache    *RunSummary
	summaryCachedAt time.Time
	summaryCacheTTL time.Duration
}

// NewTracker creates a new run tracker
func NewTracker(db *gorm.DB) *Tracker {
	return &Tracker{
		db:              db,
		summaryCacheTTL: 30 * time.Second,
	}
}

// Migrate runs database migrations for the run history table
func (t *Tracker) Migrate() error {
	return t.db.AutoMigrate(&models.GenerationRun{})
}

// RecordRun stores one run record
func (t *Tracker) RecordRun(ctx context.Context, run *models.GenerationRun) error {
	if run == nil || run.ID == "" {
		return errors.New("run record requires an id")
	}

	start := time.Now()
	err := t.db.WithContext(ctx).Create(run).Error
	metrics.Get().RecordDBQuery("insert", runsTable, time.Since(start), err)
	if err != nil {
		return fmt.Errorf("failed to record run: %w", err)
	}

	t.invalidateSummary()
	return nil
}

// ListRecent returns the newest runs first. limit is clamped to [1, MaxListLimit].
func (t *Tracker) ListRecent(ctx context.Context, limit int) ([]models.GenerationRun, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}

	var runs []models.GenerationRun
	start := time.Now()
	err := t.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Find(&runs).Error
	metrics.Get().RecordDBQuery("select", runsTable, time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	return runs, nil
}

// GetSummary aggregates runs recorded in the last window, with a short local cache
func (t *Tracker) GetSummary(ctx context.Context, window time.Duration) (*RunSummary, error) {
	t.mu.RLock()
	cached := t.summaryCache
	fresh := cached != nil && time.Since(t.summaryCachedAt) < t.summaryCacheTTL
	t.mu.RUnlock()
	if fresh && cached.Since.Equal(truncateWindow(window)) {
		return cached, nil
	}

	since := truncateWindow(window)
	var row struct {
		Total        int64
		Done         int64
		Failed       int64
		FailedWrites int64
		AvgDuration  float64
	}

	start := time.Now()
	err := t.db.WithContext(ctx).
		Model(&models.GenerationRun{}).
		Select(`COUNT(*) AS total,
			COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0) AS done,
			COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0) AS failed,
			COALESCE(SUM(failed_writes), 0) AS failed_writes,
			COALESCE(AVG(duration_ms), 0) AS avg_duration`,
			models.RunStatusDone, models.RunStatusFailed).
		Where("created_at >= ?", since).
		Scan(&row).Error
	metrics.Get().RecordDBQuery("aggregate", runsTable, time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("failed to summarize runs: %w", err)
	}

	summary := &RunSummary{
		Since:        since,
		Total:        row.Total,
		Done:         row.Done,
		Failed:       row.Failed,
		FailedWrites: row.FailedWrites,
		AvgDuration:  row.AvgDuration,
	}

	t.mu.Lock()
	t.summaryCache = summary
	t.summaryCachedAt = time.Now()
	t.mu.Unlock()

	return summary, nil
}

func (t *Tracker) invalidateSummary() {
	t.mu.Lock()
	t.summaryCache = nil
	t.mu.Unlock()
}

// truncateWindow rounds the window start to the minute so cached summaries line up
func truncateWindow(window time.Duration) time.Time {
	return time.Now().UTC().Add(-window).Truncate(time.Minute)
}
