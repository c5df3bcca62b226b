package source

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// RateLimiter caps requests per client in fixed windows.
type RateLimiter struct {
	limit  int
	period time.Duration
	clock  clockwork.Clock

	mu      sync.Mutex
	clients map[string]*quota
}

type quota struct {
	used    int
	resetAt time.Time
}

func NewRateLimiter(limit int, period time.Duration, clock clockwork.Clock) *RateLimiter {
	return &RateLimiter{
		limit:   limit,
		period:  period,
		clock:   clock,
		clients: make(map[string]*quota),
	}
}

// Allow counts one request from client and reports whether it fits in the
// current window.
func (rl *RateLimiter) Allow(client string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.clock.Now()
	q, ok := rl.clients[client]
	if !ok || now.After(q.resetAt) {
		rl.sweep(now)
		q = &quota{resetAt: now.Add(rl.period)}
		rl.clients[client] = q
	}
	if q.used >= rl.limit {
		return false
	}
	q.used++
	return true
}

// sweep forgets clients whose window has ended. Callers hold mu.
func (rl *RateLimiter) sweep(now time.Time) {
	for client, q := range rl.clients {
		if now.After(q.resetAt) {
			delete(rl.clients, client)
		}
	}
}

func (rl *RateLimiter) Middleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !rl.Allow(clientAddr(r)) {
			http.Error(w, "too many requests", http.StatusTooManyRequests)
			return
		}
		next(w, r)
	}
}

// clientAddr prefers the first hop a proxy reports over the peer address.
func clientAddr(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		return strings.TrimSpace(first)
	}
	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return ip
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
