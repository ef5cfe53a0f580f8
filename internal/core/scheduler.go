package core

// scheduler.go runs background maintenance for the Service.
//
// The session sweeper drops sessions that have been idle for longer than
// their TTL, releasing the reports they hold. It is long-running and stops
// when its context is cancelled.

import (
	"context"
	"log/slog"
	"time"
)

// DefaultSweepInterval is how often idle sessions are swept.
const DefaultSweepInterval = 5 * time.Minute

// StartSessionSweeper periodically removes expired sessions until ctx is
// cancelled. It blocks; run it in its own goroutine.
func (s *Service) StartSessionSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	slog.Info("session sweeper started", "interval", interval.String())

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("session sweeper stopped")
			return
		case <-ticker.C:
			s.sweepSessions()
		}
	}
}

func (s *Service) sweepSessions() {
	start := time.Now()
	removed := s.sessions.Sweep()
	if removed > 0 {
		slog.Info("expired sessions removed",
			"removed", removed,
			"remaining", s.sessions.Len(),
			"duration_ms", time.Since(start).Milliseconds(),
		)
		return
	}
	slog.Debug("session sweep found nothing to remove", "remaining", s.sessions.Len())
}
