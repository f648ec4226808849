package metrics

import (
	"context"
	"runtime"
	"time"

	"ai-forge/internal/logging"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// RuntimeCollector periodically samples goroutine and database pool stats
type RuntimeCollector struct {
	db       *gorm.DB
	metrics  *Metrics
	interval time.Duration
	stopCh   chan struct{}
}

// NewRuntimeCollector creates a new collector. db may be nil.
func NewRuntimeCollector(db *gorm.DB, interval time.Duration) *RuntimeCollector {
	return &RuntimeCollector{
		db:       db,
		metrics:  Get(),
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

// Start begins periodic collection
func (rc *RuntimeCollector) Start(ctx context.Context) {
	go func() {
		// Initial collection
		rc.collectAll()

		ticker := time.NewTicker(rc.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				rc.collectAll()
			case <-rc.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop stops the collector
func (rc *RuntimeCollector) Stop() {
	close(rc.stopCh)
}

func (rc *RuntimeCollector) collectAll() {
	rc.metrics.GoroutineNum.Set(float64(runtime.NumGoroutine()))
	rc.collectDatabaseMetrics()
}

// collectDatabaseMetrics collects database connection metrics
func (rc *RuntimeCollector) collectDatabaseMetrics() {
	if rc.db == nil {
		return
	}

	sqlDB, err := rc.db.DB()
	if err != nil {
		logging.L().Warn("failed to get database stats", zap.Error(err))
		return
	}

	stats := sqlDB.Stats()
	rc.metrics.DBConnectionsActive.Set(float64(stats.InUse))
	rc.metrics.DBConnectionsIdle.Set(float64(stats.Idle))
}
