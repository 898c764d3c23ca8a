package middleware

import (
	"net/http"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/Roony-Pay/roony-mcp/utils"
)

// RateLimiter applies a per-caller token bucket. Callers are keyed by their
// agent header when present, falling back to the remote address.
type RateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	perSec   rate.Limit
	burst    int
	logger   *zap.Logger
}

// NewRateLimiter creates a rate limiter allowing perSec requests per second
// with the given burst per caller
func NewRateLimiter(perSec float64, burst int, logger *zap.Logger) *RateLimiter {
	return &RateLimiter{
		limiters: make(map[string]*rate.Limiter),
		perSec:   rate.Limit(perSec),
		burst:    burst,
		logger:   logger,
	}
}

func (rl *RateLimiter) limiter(key string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if l, ok := rl.limiters[key]; ok {
		return l
	}
	l := rate.NewLimiter(rl.perSec, rl.burst)
	rl.limiters[key] = l
	return l
}

// Handler enforces the rate limit for each inbound request
func (rl *RateLimiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		key := req.Header.Get(AgentHeader)
		if key == "" {
			key = req.RemoteAddr
		}

		if !rl.limiter(key).Allow() {
			rl.logger.Warn("rate limit exceeded", zap.String("caller", key))
			_ = utils.WriteTooManyRequests(w, "")
			return
		}

		next.ServeHTTP(w, req)
	})
}
