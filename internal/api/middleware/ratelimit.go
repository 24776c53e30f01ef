package middleware

import (
	"net"
	"net/http"
	"sync"

	"golang.org/x/time/rate"

	"github.com/kumar-mithlesh/headless-api/internal/api/shared"
	"github.com/kumar-mithlesh/headless-api/internal/config"
)

// RateLimiter throttles requests per client address with a token bucket.
type RateLimiter struct {
	limiters map[string]*rate.Limiter
	mu       sync.RWMutex
	perMin   int
	burst    int
}

// NewRateLimiter builds a limiter from configuration. A zero rate yields a
// limiter whose middleware passes every request through.
func NewRateLimiter(cfg config.RateLimitConfig) *RateLimiter {
	burst := cfg.Burst
	if burst <= 0 {
		burst = cfg.RequestsPerMinute
	}
	return &RateLimiter{
		limiters: make(map[string]*rate.Limiter),
		perMin:   cfg.RequestsPerMinute,
		burst:    burst,
	}
}

func (rl *RateLimiter) limiter(key string) *rate.Limiter {
	rl.mu.RLock()
	l, ok := rl.limiters[key]
	rl.mu.RUnlock()
	if ok {
		return l
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()
	if l, ok = rl.limiters[key]; !ok {
		l = rate.NewLimiter(rate.Limit(rl.perMin)/60, rl.burst)
		rl.limiters[key] = l
	}
	return l
}

// Middleware rejects requests over the limit with 429.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	if rl.perMin <= 0 {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.limiter(clientKey(r)).Allow() {
			w.Header().Set("Retry-After", "60")
			shared.RespondWithError(w, r, http.StatusTooManyRequests, "Rate limit exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
