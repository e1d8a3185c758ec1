// Package ratelimit bounds the number of outbound calls in flight.
//
// The limiter is a plain counting semaphore with a non-blocking acquire: when
// every permit is held the call is rejected immediately with
// apperr.ErrRateLimitExceeded. There is no queue and no time window; a permit
// becomes available again the moment the call holding it finishes.
package ratelimit

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"eventFinder/internal/apperr"

	"golang.org/x/sync/semaphore"
)

const (
	statsBuffer         = 256
	defaultStatsTimeout = 2 * time.Second
)

type Limiter struct {
	sem      *semaphore.Weighted
	capacity int
	inUse    atomic.Int64

	stats        []StatsStore
	statsTimeout time.Duration
	events       chan StatsEvent
	dropped      atomic.Int64
	done         chan struct{}

	mu     sync.RWMutex
	closed bool
}

type Option func(*Limiter)

// WithStats records every admission decision into store. Can be repeated.
// Stores are written by a background recorder, never on the admission path.
func WithStats(store StatsStore) Option {
	return func(l *Limiter) {
		if store != nil {
			l.stats = append(l.stats, store)
		}
	}
}

// WithStatsTimeout bounds a single StatsStore.Record call.
func WithStatsTimeout(d time.Duration) Option {
	return func(l *Limiter) {
		if d > 0 {
			l.statsTimeout = d
		}
	}
}

// New creates a limiter with the given number of permits. Capacity below one is raised to one.
func New(capacity int, opts ...Option) *Limiter {
	if capacity < 1 {
		capacity = 1
	}

	l := &Limiter{
		sem:          semaphore.NewWeighted(int64(capacity)),
		capacity:     capacity,
		statsTimeout: defaultStatsTimeout,
	}
	for _, opt := range opts {
		opt(l)
	}

	if len(l.stats) > 0 {
		l.events = make(chan StatsEvent, statsBuffer)
		l.done = make(chan struct{})
		go l.drain()
	}

	return l
}

func (l *Limiter) Capacity() int { return l.capacity }
func (l *Limiter) InUse() int    { return int(l.inUse.Load()) }

// DroppedStats counts decisions not recorded because the recorder queue was full.
func (l *Limiter) DroppedStats() int64 { return l.dropped.Load() }

// TryAcquire claims a permit without waiting. The returned release func must
// be called once the guarded call completes; extra calls are no-ops.
// A done ctx takes no permit and returns ctx.Err().
func (l *Limiter) TryAcquire(ctx context.Context) (func(), error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if !l.sem.TryAcquire(1) {
		l.record(false)
		return nil, apperr.ErrRateLimitExceeded
	}
	l.inUse.Add(1)
	l.record(true)

	var once sync.Once
	release := func() {
		once.Do(func() {
			l.inUse.Add(-1)
			l.sem.Release(1)
		})
	}

	return release, nil
}

// Execute runs fn while holding a permit and releases it however fn returns.
func (l *Limiter) Execute(ctx context.Context, fn func() error) error {
	release, err := l.TryAcquire(ctx)
	if err != nil {
		return err
	}
	defer release()

	return fn()
}

// Close flushes queued stats and stops the recorder. Admission keeps working
// after Close; later decisions are simply not recorded.
func (l *Limiter) Close() {
	if l.events == nil {
		return
	}

	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return
	}
	l.closed = true
	close(l.events)
	l.mu.Unlock()

	<-l.done
}

// record enqueues a decision without blocking; a full queue drops it.
func (l *Limiter) record(allowed bool) {
	if l.events == nil {
		return
	}

	ev := StatsEvent{
		Allowed:  allowed,
		InUse:    l.InUse(),
		Capacity: l.capacity,
		At:       time.Now(),
	}

	l.mu.RLock()
	defer l.mu.RUnlock()

	if l.closed {
		return
	}

	select {
	case l.events <- ev:
	default:
		l.dropped.Add(1)
	}
}

func (l *Limiter) drain() {
	defer close(l.done)

	for ev := range l.events {
		for _, s := range l.stats {
			ctx, cancel := context.WithTimeout(context.Background(), l.statsTimeout)
			// stats are best-effort
			_ = s.Record(ctx, ev)
			cancel()
		}
	}
}
