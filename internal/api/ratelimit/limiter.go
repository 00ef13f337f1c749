// Package ratelimit throttles favourite mutations per client IP so a
// runaway page cannot flood the catalog backend.
package ratelimit

import (
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
)

const (
	DefaultRequestsPerMinute = 60
	DefaultWindow            = time.Minute
)

type ipBucket struct {
	count     int
	resetTime time.Time
}

// Limiter is a fixed-window per-IP request counter.
type Limiter struct {
	mu      sync.Mutex
	buckets map[string]*ipBucket

	limit  int
	window time.Duration
	now    func() time.Time
}

// New creates a limiter allowing limit requests per window. A
// non-positive limit falls back to DefaultRequestsPerMinute.
func New(limit int, window time.Duration) *Limiter {
	if limit <= 0 {
		limit = DefaultRequestsPerMinute
	}
	if window <= 0 {
		window = DefaultWindow
	}
	return &Limiter{
		buckets: make(map[string]*ipBucket),
		limit:   limit,
		window:  window,
		now:     time.Now,
	}
}

func (l *Limiter) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !l.Allow(c.RealIP()) {
				return echo.NewHTTPError(http.StatusTooManyRequests, "too many requests, please try again later")
			}
			return next(c)
		}
	}
}

// Allow counts one request from ip and reports whether it fits the window.
func (l *Limiter) Allow(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()

	bucket, exists := l.buckets[ip]
	if !exists || now.After(bucket.resetTime) {
		l.buckets[ip] = &ipBucket{
			count:     1,
			resetTime: now.Add(l.window),
		}
		return true
	}

	if bucket.count >= l.limit {
		return false
	}

	bucket.count++
	return true
}

// Cleanup drops expired buckets and returns how many were removed.
func (l *Limiter) Cleanup() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	removed := 0
	for ip, bucket := range l.buckets {
		if now.After(bucket.resetTime) {
			delete(l.buckets, ip)
			removed++
		}
	}
	return removed
}
