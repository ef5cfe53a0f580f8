package web

import (
	"context"
	"net/http"

	"github.com/JonMunkholm/insights/internal/core"
	"github.com/JonMunkholm/insights/internal/logging"
)

// sessionHeader lets API clients without cookies carry their session.
const sessionHeader = "X-Session-ID"

type sessionKey struct{}

// withSession resolves the caller's session from the X-Session-ID header or
// the session cookie. Requests that name no live session get a transient
// one; a stored session is only created when a run is started (see
// startSession). The session, the client identity and a session-scoped
// logger are added to the request context.
func (s *Server) withSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(sessionHeader)
		if id == "" {
			if c, err := r.Cookie(s.cfg.Session.CookieName); err == nil {
				id = c.Value
			}
		}

		ctx := WithRequestMetadata(r.Context(), r)
		sess := core.NewTransientSession()
		if id != "" {
			if stored, err := s.service.Sessions().Get(id); err == nil {
				sess = stored
				w.Header().Set(sessionHeader, sess.ID)
				ctx = logging.ContextWith(ctx, "session_id", sess.ID)
			}
		}

		ctx = context.WithValue(ctx, sessionKey{}, sess)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// startSession returns the caller's stored session, creating it and
// issuing the cookie when the request carried none. The returned request
// carries the stored session.
func (s *Server) startSession(w http.ResponseWriter, r *http.Request) (*core.Session, *http.Request) {
	if sess := sessionFrom(r.Context()); !sess.Transient() {
		return sess, r
	}

	sess, _ := s.service.Sessions().GetOrCreate("")
	http.SetCookie(w, &http.Cookie{
		Name:     s.cfg.Session.CookieName,
		Value:    sess.ID,
		Path:     "/",
		MaxAge:   int(s.cfg.Session.TTL.Seconds()),
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
	w.Header().Set(sessionHeader, sess.ID)

	ctx := context.WithValue(r.Context(), sessionKey{}, sess)
	return sess, r.WithContext(logging.ContextWith(ctx, "session_id", sess.ID))
}

// sessionFrom returns the session attached by withSession.
func sessionFrom(ctx context.Context) *core.Session {
	sess, _ := ctx.Value(sessionKey{}).(*core.Session)
	return sess
}

// WithRequestMetadata adds IP and User-Agent to context for run history.
func WithRequestMetadata(ctx context.Context, r *http.Request) context.Context {
	return core.ContextWithClient(ctx, core.Client{
		IPAddress: r.RemoteAddr, // Already processed by TrustedRealIP
		UserAgent: r.Header.Get("User-Agent"),
	})
}
