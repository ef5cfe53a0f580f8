package core

import "sync/atomic"

// ResultStore holds the current report of one session. Replace swaps the
// whole report at once, so a reader sees either the previous report or the
// new one, never a mix of both.
type ResultStore struct {
	current atomic.Pointer[Report]
}

// Current returns the latest report, or nil before the first completed run.
func (s *ResultStore) Current() *Report {
	return s.current.Load()
}

// Replace publishes r as the current report and returns the previous one.
func (s *ResultStore) Replace(r *Report) *Report {
	return s.current.Swap(r)
}

// Clear drops the current report.
func (s *ResultStore) Clear() {
	s.current.Store(nil)
}
