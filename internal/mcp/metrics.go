package mcp

import (
	"sync"
	"time"
)

// ReloadMetrics counts index reloads. Safe for concurrent use.
type ReloadMetrics struct {
	mu       sync.RWMutex
	snapshot MetricsSnapshot
}

// MetricsSnapshot is a copy of the reload counters at one point in time.
type MetricsSnapshot struct {
	LastReloadTime     time.Time     `json:"last_reload_time"`
	LastReloadDuration time.Duration `json:"last_reload_duration_ms"`
	LastReloadError    string        `json:"last_reload_error,omitempty"`
	TotalReloads       int64         `json:"total_reloads"`
	SuccessfulReloads  int64         `json:"successful_reloads"`
	FailedReloads      int64         `json:"failed_reloads"`
	CurrentChunkCount  int           `json:"current_chunk_count"`
}

// NewReloadMetrics returns zeroed metrics.
func NewReloadMetrics() *ReloadMetrics {
	return &ReloadMetrics{}
}

// RecordReload records one reload attempt. A failed reload keeps the
// previous chunk count since the old index stays in service.
func (m *ReloadMetrics) RecordReload(duration time.Duration, err error, chunkCount int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := &m.snapshot
	s.LastReloadTime = time.Now()
	s.LastReloadDuration = duration
	s.TotalReloads++

	if err != nil {
		s.FailedReloads++
		s.LastReloadError = err.Error()
		return
	}
	s.SuccessfulReloads++
	s.LastReloadError = ""
	s.CurrentChunkCount = chunkCount
}

// GetMetrics returns a copy of the current counters.
func (m *ReloadMetrics) GetMetrics() MetricsSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snapshot
}
