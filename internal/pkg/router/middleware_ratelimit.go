package router

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/shandysiswandi/ahoum/internal/pkg/clock"
	"golang.org/x/time/rate"
)

// RateLimiter is a per client IP and route token bucket.
type RateLimiter struct {
	limit rate.Limit
	burst int
	clock clock.Clocker

	mu       sync.Mutex
	visitors map[string]*visitor
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiter allows perMinute requests per client and route with the given burst.
func NewRateLimiter(perMinute, burst int, clk clock.Clocker) *RateLimiter {
	if burst < 1 {
		burst = 1
	}
	if clk == nil {
		clk = clock.New()
	}
	return &RateLimiter{
		limit:    rate.Limit(float64(perMinute) / 60),
		burst:    burst,
		clock:    clk,
		visitors: map[string]*visitor{},
	}
}

func (l *RateLimiter) reserve(key string, now time.Time) time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()

	v, ok := l.visitors[key]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.visitors[key] = v
	}
	v.lastSeen = now

	res := v.limiter.ReserveN(now, 1)
	if !res.OK() {
		return time.Minute
	}
	delay := res.DelayFrom(now)
	if delay > 0 {
		res.CancelAt(now)
	}
	return delay
}

// Prune forgets clients not seen for idle and reports how many were removed.
func (l *RateLimiter) Prune(idle time.Duration) int {
	cutoff := l.clock.Now().Add(-idle)

	l.mu.Lock()
	defer l.mu.Unlock()

	n := 0
	for key, v := range l.visitors {
		if v.lastSeen.Before(cutoff) {
			delete(l.visitors, key)
			n++
		}
	}
	return n
}

// Middleware answers 429 with Retry-After once a client drains its bucket.
// A nil limiter lets every request through.
func (l *RateLimiter) Middleware() Middleware {
	if l == nil {
		return nil
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.RemoteAddr + " " + matchedRoutePath(r)
			if delay := l.reserve(key, l.clock.Now()); delay > 0 {
				w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(delay.Seconds()))))
				writeJSON(w, errorResponse{Message: "Too many requests"}, http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
