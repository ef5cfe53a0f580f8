package core

// run_limiter.go implements concurrency control for orchestration runs.
//
// Two levels apply. RunLimiter bounds the number of runs across all sessions
// with a semaphore; a run waits up to maxWait for a slot before failing with
// ErrTooManyRuns. RunGate serializes runs inside one session: while a run is
// in flight, a second trigger is rejected with ErrRunInProgress instead of
// racing the first one for the session's ResultStore.

import (
	"context"
	"sync"
	"time"
)

// DefaultMaxConcurrentRuns is the default limit for parallel runs.
const DefaultMaxConcurrentRuns = 4

// DefaultMaxWaitTime is how long to wait for a slot before rejecting.
const DefaultMaxWaitTime = 30 * time.Second

// RunLimiter controls concurrent runs using a semaphore.
type RunLimiter struct {
	semaphore chan struct{}
	maxWait   time.Duration

	mu     sync.RWMutex
	active int
}

// NewRunLimiter creates a limiter that allows at most maxConcurrent simultaneous runs.
func NewRunLimiter(maxConcurrent int, maxWait time.Duration) *RunLimiter {
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultMaxConcurrentRuns
	}
	if maxWait <= 0 {
		maxWait = DefaultMaxWaitTime
	}

	return &RunLimiter{
		semaphore: make(chan struct{}, maxConcurrent),
		maxWait:   maxWait,
	}
}

// Acquire waits for a run slot.
// Returns ErrTooManyRuns if none frees up within maxWait.
// The caller MUST call Release() when the run completes.
func (l *RunLimiter) Acquire(ctx context.Context) error {
	waitCtx, cancel := context.WithTimeout(ctx, l.maxWait)
	defer cancel()

	select {
	case l.semaphore <- struct{}{}:
		l.mu.Lock()
		l.active++
		l.mu.Unlock()
		return nil

	case <-waitCtx.Done():
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return ErrTooManyRuns
	}
}

// TryAcquire attempts to acquire a slot without blocking.
func (l *RunLimiter) TryAcquire() bool {
	select {
	case l.semaphore <- struct{}{}:
		l.mu.Lock()
		l.active++
		l.mu.Unlock()
		return true
	default:
		return false
	}
}

// Release releases a previously acquired slot.
// Must be called exactly once for each successful Acquire/TryAcquire.
func (l *RunLimiter) Release() {
	l.mu.Lock()
	l.active--
	l.mu.Unlock()

	<-l.semaphore
}

// ActiveCount returns the number of runs holding a slot.
func (l *RunLimiter) ActiveCount() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.active
}

// WaitForDrain blocks until all active runs complete or ctx is cancelled.
// Used for graceful shutdown.
func (l *RunLimiter) WaitForDrain(ctx context.Context) error {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		if l.ActiveCount() == 0 {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// RunLimiterStatus is a snapshot of the limiter.
type RunLimiterStatus struct {
	Active        int `json:"active"`
	Available     int `json:"available"`
	MaxConcurrent int `json:"maxConcurrent"`
}

// Status returns the current limiter state for monitoring.
func (l *RunLimiter) Status() RunLimiterStatus {
	l.mu.RLock()
	active := l.active
	l.mu.RUnlock()

	return RunLimiterStatus{
		Active:        active,
		Available:     cap(l.semaphore) - len(l.semaphore),
		MaxConcurrent: cap(l.semaphore),
	}
}

// RunGate admits at most one run at a time. The zero value is ready to use.
type RunGate struct {
	mu    sync.Mutex
	runID string
}

// Enter marks runID as in flight. Returns ErrRunInProgress if another run
// has not left yet.
func (g *RunGate) Enter(runID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.runID != "" {
		return ErrRunInProgress
	}
	g.runID = runID
	return nil
}

// Leave clears the gate if runID is the run in flight.
func (g *RunGate) Leave(runID string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.runID == runID {
		g.runID = ""
	}
}

// InFlight returns the id of the run in flight, or "".
func (g *RunGate) InFlight() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.runID
}
