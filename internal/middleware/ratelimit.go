package middleware

import (
	"context"
	"net"
	"net/http"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/time/rate"
)

type visitor struct {
	limiter *rate.Limiter

	mu   sync.Mutex
	last time.Time
}

func (v *visitor) touch(now time.Time) {
	v.mu.Lock()
	v.last = now
	v.mu.Unlock()
}

func (v *visitor) idleSince(now time.Time) time.Duration {
	v.mu.Lock()
	defer v.mu.Unlock()
	return now.Sub(v.last)
}

// RateLimiter applies a token bucket per client IP. Buckets live in an LRU
// so memory stays bounded under many distinct clients.
type RateLimiter struct {
	limit    rate.Limit
	burst    int
	ttl      time.Duration
	visitors *lru.Cache[string, *visitor]
}

// NewRateLimiter allows rps requests per second with the given burst per IP,
// tracking at most cacheSize clients. Clients idle for ttl are forgotten by
// Run.
func NewRateLimiter(rps float64, burst, cacheSize int, ttl time.Duration) (*RateLimiter, error) {
	visitors, err := lru.New[string, *visitor](cacheSize)
	if err != nil {
		return nil, err
	}
	return &RateLimiter{
		limit:    rate.Limit(rps),
		burst:    burst,
		ttl:      ttl,
		visitors: visitors,
	}, nil
}

// Run evicts idle clients every ttl until ctx is done.
func (l *RateLimiter) Run(ctx context.Context) error {
	ticker := time.NewTicker(l.ttl)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-ticker.C:
			l.evictIdle(now)
		}
	}
}

func (l *RateLimiter) evictIdle(now time.Time) {
	for _, key := range l.visitors.Keys() {
		if v, ok := l.visitors.Peek(key); ok && v.idleSince(now) > l.ttl {
			l.visitors.Remove(key)
		}
	}
}

// Allow consumes one token for ip.
func (l *RateLimiter) Allow(ip string) bool {
	v, ok := l.visitors.Get(ip)
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(l.limit, l.burst)}
		// Another request may have raced us; keep whichever got in first.
		if prev, found, _ := l.visitors.PeekOrAdd(ip, v); found {
			v = prev
		}
	}
	v.touch(time.Now())
	return v.limiter.Allow()
}

// Middleware answers 429 once a client exceeds its budget.
func (l *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !l.Allow(clientIP(r)) {
			writeError(w, http.StatusTooManyRequests, "RATE_LIMITED", "Too many requests")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// clientIP strips the port from RemoteAddr. Behind RealIP, RemoteAddr may
// already be a bare address.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
