// ABOUTME: Per-user token bucket rate limiting for the development API
// ABOUTME: One golang.org/x/time/rate limiter per user, evicted after inactivity

package api

import (
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/yopuedo360/yopuedo-chat/internal/auth"
)

type limiterEntry struct {
	l        *rate.Limiter
	lastSeen time.Time
}

// limiterPool hands out one limiter per key. Entries unused for ttl are
// dropped by a background loop until Close.
type limiterPool struct {
	mu    sync.Mutex
	m     map[string]*limiterEntry
	rps   float64
	burst int
	ttl   time.Duration
	now   func() time.Time
	done  chan struct{}
	once  sync.Once
}

func newLimiterPool(rps float64, burst int, ttl time.Duration) *limiterPool {
	return &limiterPool{
		m:     make(map[string]*limiterEntry),
		rps:   rps,
		burst: burst,
		ttl:   ttl,
		now:   time.Now,
		done:  make(chan struct{}),
	}
}

// get returns the limiter for a key, creating one if missing.
func (p *limiterPool) get(key string) *rate.Limiter {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := p.now()
	if e, ok := p.m[key]; ok {
		e.lastSeen = now
		return e.l
	}

	limit := rate.Limit(p.rps)
	if p.rps == 0 {
		limit = rate.Inf
	}
	l := rate.NewLimiter(limit, p.burst)
	p.m[key] = &limiterEntry{l: l, lastSeen: now}
	return l
}

// Allow reports whether a request for key may proceed now.
func (p *limiterPool) Allow(key string) bool {
	return p.get(key).AllowN(p.now(), 1)
}

func (p *limiterPool) cleanupLoop(period time.Duration) {
	ticker := time.NewTicker(period)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			p.evictIdle()
		case <-p.done:
			return
		}
	}
}

func (p *limiterPool) evictIdle() {
	cutoff := p.now().Add(-p.ttl)
	p.mu.Lock()
	defer p.mu.Unlock()
	for k, e := range p.m {
		if e.lastSeen.Before(cutoff) {
			delete(p.m, k)
		}
	}
}

func (p *limiterPool) Close() {
	p.once.Do(func() { close(p.done) })
}

// rateLimit rejects requests of users over their budget with 429.
// Must run after auth.HTTPAuthMiddleware.
func (s *Server) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID := auth.UserFromContext(r.Context())
		if !s.limiter.Allow(userID) {
			s.metrics.RateLimited()
			w.Header().Set("Retry-After", "1")
			s.sendJSONError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}
