package build

import (
	"sync"
	"time"
)

// Metrics tracks compile counts and timings
type Metrics struct {
	totalCompiles   int64
	sandboxCompiles int64
	failedPanes     int64
	totalDuration   time.Duration
	lastCompile     time.Time
	mutex           sync.RWMutex
}

// MetricsSnapshot is a point-in-time copy of Metrics.
type MetricsSnapshot struct {
	TotalCompiles   int64         `json:"total_compiles"`
	StaticCompiles  int64         `json:"static_compiles"`
	SandboxCompiles int64         `json:"sandbox_compiles"`
	FailedPanes     int64         `json:"failed_panes"`
	AverageDuration time.Duration `json:"average_duration_ns"`
	LastCompile     time.Time     `json:"last_compile"`
}

func (m *Metrics) record(sandbox bool, failed int, duration time.Duration) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.totalCompiles++
	if sandbox {
		m.sandboxCompiles++
	}
	m.failedPanes += int64(failed)
	m.totalDuration += duration
	m.lastCompile = time.Now()
}

// Snapshot returns the current counters.
func (m *Metrics) Snapshot() MetricsSnapshot {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	s := MetricsSnapshot{
		TotalCompiles:   m.totalCompiles,
		StaticCompiles:  m.totalCompiles - m.sandboxCompiles,
		SandboxCompiles: m.sandboxCompiles,
		FailedPanes:     m.failedPanes,
		LastCompile:     m.lastCompile,
	}
	if m.totalCompiles > 0 {
		s.AverageDuration = m.totalDuration / time.Duration(m.totalCompiles)
	}
	return s
}
