// Package ratelimit keeps one token bucket per client key.
package ratelimit

import (
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Limiter hands out per-key token buckets and forgets keys idle for longer
// than ttl. Idle keys are swept at most once per ttl.
type Limiter struct {
	mu        sync.Mutex
	limit     rate.Limit
	burst     int
	ttl       time.Duration
	now       func() time.Time
	entries   map[string]*bucket
	lastSweep time.Time
}

type bucket struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

func New(limit rate.Limit, burst int, ttl time.Duration) *Limiter {
	return &Limiter{
		limit:   limit,
		burst:   burst,
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]*bucket),
	}
}

// PerMinute builds a limiter refilling perMinute tokens a minute. Idle keys
// are dropped after ten minutes.
func PerMinute(perMinute, burst int) *Limiter {
	return New(rate.Limit(float64(perMinute)/60), burst, 10*time.Minute)
}

// Allow consumes one token for key.
func (l *Limiter) Allow(key string) bool {
	now := l.now()
	l.mu.Lock()
	defer l.mu.Unlock()

	b := l.entries[key]
	if b == nil {
		b = &bucket{lim: rate.NewLimiter(l.limit, l.burst)}
		l.entries[key] = b
	}
	b.lastSeen = now

	if now.Sub(l.lastSweep) >= l.ttl {
		l.sweep(now)
	}
	return b.lim.AllowN(now, 1)
}

// sweep drops idle keys. Callers hold mu.
func (l *Limiter) sweep(now time.Time) {
	for k, v := range l.entries {
		if now.Sub(v.lastSeen) > l.ttl {
			delete(l.entries, k)
		}
	}
	l.lastSweep = now
}

// Len is the number of tracked keys.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// ClientIP is the host part of the connection's remote address. Forwarded
// headers are ignored here; behind a trusted proxy chi's RealIP middleware
// rewrites RemoteAddr first.
func ClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil && host != "" {
		return host
	}
	return r.RemoteAddr
}
