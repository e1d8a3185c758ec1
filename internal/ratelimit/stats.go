package ratelimit

import (
	"context"
	"sync"
	"time"
)

// StatsEvent describes one admission decision of the limiter.
type StatsEvent struct {
	Allowed  bool
	InUse    int
	Capacity int
	At       time.Time
}

// StatsStore persists admission decisions. Implementations may keep them in
// memory, Redis, metrics, etc. Errors are ignored by the limiter.
type StatsStore interface {
	Record(ctx context.Context, ev StatsEvent) error
}

// StatsSnapshot is a point-in-time view of a MemoryStatsStore.
type StatsSnapshot struct {
	Allowed        int64
	Denied         int64
	PeakInUse      int
	LastDecisionAt time.Time
}

// MemoryStatsStore keeps running totals in process memory. Never expires.
type MemoryStatsStore struct {
	mu   sync.Mutex
	snap StatsSnapshot
}

func NewMemoryStatsStore() *MemoryStatsStore {
	return &MemoryStatsStore{}
}

func (s *MemoryStatsStore) Record(_ context.Context, ev StatsEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ev.Allowed {
		s.snap.Allowed++
	} else {
		s.snap.Denied++
	}
	if ev.InUse > s.snap.PeakInUse {
		s.snap.PeakInUse = ev.InUse
	}
	if ev.At.After(s.snap.LastDecisionAt) {
		s.snap.LastDecisionAt = ev.At
	}

	return nil
}

func (s *MemoryStatsStore) Snapshot() StatsSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap
}
