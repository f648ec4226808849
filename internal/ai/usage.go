package ai

import (
	"sync"
	"time"
)

// usageStats is shared by the provider clients to track request statistics
type usageStats struct {
	mu    sync.RWMutex
	usage ProviderUsage
}

func newUsageStats(provider AIProvider) *usageStats {
	return &usageStats{usage: ProviderUsage{Provider: provider, LastUsed: time.Now()}}
}

// record updates statistics after a successful request
func (s *usageStats) record(totalTokens int, duration time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.usage.RequestCount++
	s.usage.TotalTokens += int64(totalTokens)
	s.usage.AvgLatency = (s.usage.AvgLatency*float64(s.usage.RequestCount-1) + duration.Seconds()) / float64(s.usage.RequestCount)
	s.usage.LastUsed = time.Now()
}

// recordError increments the error count
func (s *usageStats) recordError() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.usage.ErrorCount++
	s.usage.LastUsed = time.Now()
}

// snapshot returns a copy safe to hand to callers
func (s *usageStats) snapshot() *ProviderUsage {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u := s.usage
	return &u
}
