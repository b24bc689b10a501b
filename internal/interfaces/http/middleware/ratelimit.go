package middleware

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/catalogo/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
)

// RateLimiter counts requests per client in fixed windows
type RateLimiter struct {
	mu      sync.Mutex
	clients map[string]*bucket
	limit   int
	window  time.Duration
	now     func() time.Time
}

type bucket struct {
	remaining int
	start     time.Time
}

// NewRateLimiter allows limit requests per client in each window.
// Call Run to evict idle clients.
func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		clients: make(map[string]*bucket),
		limit:   limit,
		window:  window,
		now:     time.Now,
	}
}

// Run evicts clients idle for two windows until ctx is done.
func (rl *RateLimiter) Run(ctx context.Context) {
	ticker := time.NewTicker(2 * rl.window)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			rl.sweep()
		}
	}
}

func (rl *RateLimiter) sweep() {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	now := rl.now()
	for key, b := range rl.clients {
		if now.Sub(b.start) > 2*rl.window {
			delete(rl.clients, key)
		}
	}
}

// take spends one request of key's window. It reports whether the request
// is allowed, how many remain and when the window resets.
func (rl *RateLimiter) take(key string) (bool, int, time.Time) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	b, ok := rl.clients[key]
	if !ok || now.Sub(b.start) >= rl.window {
		b = &bucket{remaining: rl.limit, start: now}
		rl.clients[key] = b
	}
	reset := b.start.Add(rl.window)
	if b.remaining == 0 {
		return false, 0, reset
	}
	b.remaining--
	return true, b.remaining, reset
}

// RateLimit rejects clients over their allowance with 429. A nil limiter
// lets every request through.
func RateLimit(rl *RateLimiter) gin.HandlerFunc {
	if rl == nil {
		return passThrough
	}
	limit := strconv.Itoa(rl.limit)
	return func(c *gin.Context) {
		allowed, remaining, reset := rl.take(c.ClientIP())
		c.Header("X-RateLimit-Limit", limit)
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))
		if !allowed {
			wait := math.Ceil(reset.Sub(rl.now()).Seconds())
			c.Header("Retry-After", strconv.Itoa(max(int(wait), 1)))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, dto.NewErrorResponseWithRequestID(
				dto.ErrCodeRateLimited, "Too many requests", c.GetString(RequestIDKey)))
			return
		}
		c.Next()
	}
}
