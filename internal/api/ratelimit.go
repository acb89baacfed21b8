package api

import (
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

// RateLimiter bounds requests per client IP over a fixed window. Used
// on the path-engine endpoints, which rebuild the region graph on every
// query.
type RateLimiter struct {
	mu      sync.Mutex
	windows map[string]*clientWindow

	maxRate int
	window  time.Duration
}

type clientWindow struct {
	remaining int
	openedAt  time.Time
}

// NewRateLimiter allows maxRate requests per window per client. Stale
// client entries are swept in the background.
func NewRateLimiter(maxRate int, window time.Duration) *RateLimiter {
	rl := &RateLimiter{
		windows: make(map[string]*clientWindow),
		maxRate: maxRate,
		window:  window,
	}
	go rl.sweep()
	return rl
}

// Allow consumes one request slot for the client, reporting whether it
// fit in the current window.
func (rl *RateLimiter) Allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	w, ok := rl.windows[ip]
	if !ok || now.Sub(w.openedAt) >= rl.window {
		rl.windows[ip] = &clientWindow{remaining: rl.maxRate - 1, openedAt: now}
		return true
	}
	if w.remaining > 0 {
		w.remaining--
		return true
	}
	return false
}

// RetryAfter returns whole seconds until the client's window resets.
func (rl *RateLimiter) RetryAfter(ip string) int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	w, ok := rl.windows[ip]
	if !ok {
		return 0
	}
	left := rl.window - time.Since(w.openedAt)
	if left <= 0 {
		return 0
	}
	return int(left.Seconds()) + 1
}

func (rl *RateLimiter) sweep() {
	for range time.Tick(time.Hour) {
		rl.mu.Lock()
		now := time.Now()
		for ip, w := range rl.windows {
			if now.Sub(w.openedAt) > 2*rl.window {
				delete(rl.windows, ip)
			}
		}
		rl.mu.Unlock()
	}
}

// clientIP resolves the caller's address, honoring the first entry of
// X-Forwarded-For when a proxy sits in front.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

// RateLimitMiddleware rejects over-limit requests with 429 and a
// Retry-After hint.
func RateLimitMiddleware(rl *RateLimiter, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ip := clientIP(r)
		if !rl.Allow(ip) {
			w.Header().Set("Retry-After", strconv.Itoa(rl.RetryAfter(ip)))
			writeError(w, http.StatusTooManyRequests, "Too Many Requests!")
			return
		}
		next(w, r)
	}
}
