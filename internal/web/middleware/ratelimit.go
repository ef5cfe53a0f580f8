package middleware

import (
	"encoding/json"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/JonMunkholm/insights/internal/config"
)

// clientLimiter is the token bucket of one client and when it was last used.
type clientLimiter struct {
	limiter  *rate.Limiter
	mu       sync.Mutex
	lastSeen time.Time
}

func (c *clientLimiter) touch(now time.Time) {
	c.mu.Lock()
	c.lastSeen = now
	c.mu.Unlock()
}

func (c *clientLimiter) idleSince() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastSeen
}

// RateLimiter holds one token bucket per client IP.
type RateLimiter struct {
	cfg     config.RateLimitConfig
	clients sync.Map // map[string]*clientLimiter
	now     func() time.Time
}

// NewRateLimiter creates a limiter for cfg. Call Sweep periodically to drop
// idle clients.
func NewRateLimiter(cfg config.RateLimitConfig) *RateLimiter {
	return &RateLimiter{cfg: cfg, now: time.Now}
}

func (l *RateLimiter) limiter(ip string) *rate.Limiter {
	now := l.now()
	if v, ok := l.clients.Load(ip); ok {
		cl := v.(*clientLimiter)
		cl.touch(now)
		return cl.limiter
	}
	cl := &clientLimiter{
		limiter:  rate.NewLimiter(rate.Limit(l.cfg.RequestsPerSecond), l.cfg.Burst),
		lastSeen: now,
	}
	v, _ := l.clients.LoadOrStore(ip, cl)
	return v.(*clientLimiter).limiter
}

// Sweep drops clients idle for longer than idle and returns how many.
func (l *RateLimiter) Sweep(idle time.Duration) int {
	cutoff := l.now().Add(-idle)
	n := 0
	l.clients.Range(func(key, value any) bool {
		if value.(*clientLimiter).idleSince().Before(cutoff) {
			l.clients.Delete(key)
			n++
		}
		return true
	})
	return n
}

// Run sweeps idle clients every interval until stop is closed.
func (l *RateLimiter) Run(stop <-chan struct{}, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			l.Sweep(2 * interval)
		}
	}
}

// Handler enforces the per-client rate. Requests over the limit get 429
// with Retry-After; every admitted response carries X-RateLimit headers.
// When the limiter is disabled all requests pass through.
func (l *RateLimiter) Handler(next http.Handler) http.Handler {
	if !l.cfg.Enabled {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		limiter := l.limiter(clientIP(r))

		reservation := limiter.Reserve()
		if !reservation.OK() {
			writeTooManyRequests(w, 0)
			return
		}
		if delay := reservation.Delay(); delay > 0 {
			reservation.Cancel()
			writeTooManyRequests(w, int(delay.Seconds())+1)
			return
		}

		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(l.cfg.Burst))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(int(limiter.Tokens())))
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(l.now().Add(time.Second).Unix(), 10))

		next.ServeHTTP(w, r)
	})
}

// clientIP returns the host part of RemoteAddr. TrustedRealIP has already
// replaced RemoteAddr when the request came through a trusted proxy.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func writeTooManyRequests(w http.ResponseWriter, retryAfterSecs int) {
	if retryAfterSecs > 0 {
		w.Header().Set("Retry-After", strconv.Itoa(retryAfterSecs))
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusTooManyRequests)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error":   "rate limit exceeded",
		"message": "Too many requests",
		"code":    "RATE001",
	})
}
