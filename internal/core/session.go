package core

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/insights/internal/view"
)

// DefaultSessionTTL is how long an idle session is kept.
const DefaultSessionTTL = 2 * time.Hour

// Session is one operator's report scope. Its report and view states are
// never shared with another session.
type Session struct {
	ID      string
	Created time.Time

	store  ResultStore
	gate   RunGate
	views  *view.StateSet
	facets *view.FacetMemo

	// pub pairs the report with its view states: publish holds it for
	// writing, Snapshot for reading.
	pub sync.RWMutex

	mu       sync.Mutex
	lastSeen time.Time
}

func newSession(id string, now time.Time) *Session {
	return &Session{
		ID:       id,
		Created:  now,
		views:    view.NewStateSet(),
		facets:   view.NewFacetMemo(),
		lastSeen: now,
	}
}

// NewTransientSession returns a session that belongs to no store. It has no
// id and no report; view state set on it is dropped with the request.
func NewTransientSession() *Session {
	return newSession("", time.Now())
}

// Transient reports whether the session is not held by a store.
func (s *Session) Transient() bool { return s.ID == "" }

// Report returns the current report, or nil before the first run.
func (s *Session) Report() *Report { return s.store.Current() }

// Views returns the per-surface view states.
func (s *Session) Views() *view.StateSet { return s.views }

// Facets returns the facet cache of the session's chart surfaces.
func (s *Session) Facets() *view.FacetMemo { return s.facets }

// RunInFlight returns the id of the running orchestration, or "".
func (s *Session) RunInFlight() string { return s.gate.InFlight() }

// Snapshot calls fn with the current report and the view states that
// belong to it. A report published meanwhile waits for fn to return, so
// fn never reads or updates a state left over from another report.
func (s *Session) Snapshot(fn func(r *Report, views *view.StateSet)) {
	s.pub.RLock()
	defer s.pub.RUnlock()
	fn(s.store.Current(), s.views)
}

// publish replaces the report and resets every view surface in one step.
func (s *Session) publish(r *Report) {
	s.pub.Lock()
	defer s.pub.Unlock()
	s.views.Reset()
	s.store.Replace(r)
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

// SessionStore keeps sessions keyed by id.
type SessionStore struct {
	ttl time.Duration
	now func() time.Time

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewSessionStore creates a store whose sessions expire after ttl of
// inactivity.
func NewSessionStore(ttl time.Duration) *SessionStore {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &SessionStore{
		ttl:      ttl,
		now:      time.Now,
		sessions: make(map[string]*Session),
	}
}

// GetOrCreate returns the session for id, creating a fresh one with a new
// id when id is empty or unknown. created reports whether a session was
// created.
func (s *SessionStore) GetOrCreate(id string) (sess *Session, created bool) {
	now := s.now()
	if id != "" {
		s.mu.RLock()
		sess, ok := s.sessions[id]
		s.mu.RUnlock()
		if ok {
			sess.touch(now)
			return sess, false
		}
	}

	sess = newSession(uuid.New().String(), now)
	s.mu.Lock()
	s.sessions[sess.ID] = sess
	s.mu.Unlock()
	return sess, true
}

// Get returns the session for id or ErrSessionNotFound.
func (s *SessionStore) Get(id string) (*Session, error) {
	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrSessionNotFound
	}
	sess.touch(s.now())
	return sess, nil
}

// Len returns the number of live sessions.
func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Sweep removes sessions idle for longer than the TTL. Sessions with a run
// in flight are kept. Returns the number removed.
func (s *SessionStore) Sweep() int {
	cutoff := s.now().Add(-s.ttl)

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, sess := range s.sessions {
		if sess.RunInFlight() != "" {
			continue
		}
		if sess.idleSince().Before(cutoff) {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed
}
