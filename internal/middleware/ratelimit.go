package middleware

import (
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	appErrors "github.com/noah-isme/face-attendance-api/pkg/errors"
	"github.com/noah-isme/face-attendance-api/pkg/response"
)

// TokenBucket is a per-client in-memory limiter refilled continuously at
// perMinute tokens per minute up to capacity. Buckets idle long enough to be
// full again are dropped, so state is bounded by the clients seen within one
// refill period.
type TokenBucket struct {
	capacity  float64
	perSec    float64
	idle      time.Duration
	mu        sync.Mutex
	state     map[string]*bucket
	lastSweep time.Time
	now       func() time.Time
}

type bucket struct {
	tokens float64
	last   time.Time
}

// NewTokenBucket creates a limiter. A non-positive capacity uses perMinute.
func NewTokenBucket(capacity, perMinute int) *TokenBucket {
	if capacity <= 0 {
		capacity = perMinute
	}
	l := &TokenBucket{
		capacity: float64(capacity),
		perSec:   float64(perMinute) / 60,
		state:    make(map[string]*bucket),
		now:      time.Now,
	}
	if l.perSec > 0 {
		l.idle = time.Duration(l.capacity / l.perSec * float64(time.Second))
	}
	return l
}

// Middleware rejects requests from a client IP that ran out of tokens.
func (l *TokenBucket) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if l == nil || l.perSec <= 0 {
			c.Next()
			return
		}
		key := c.ClientIP()
		if key == "" {
			key = "unknown"
		}
		if !l.Allow(key) {
			response.Error(c, appErrors.Clone(appErrors.ErrTooManyRequests, "rate limit exceeded"))
			c.Abort()
			return
		}
		c.Next()
	}
}

// Allow consumes a token for key if one is available.
func (l *TokenBucket) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	l.sweep(now)
	b, ok := l.state[key]
	if !ok {
		l.state[key] = &bucket{tokens: l.capacity - 1, last: now}
		return true
	}
	b.tokens += now.Sub(b.last).Seconds() * l.perSec
	if b.tokens > l.capacity {
		b.tokens = l.capacity
	}
	b.last = now
	if b.tokens < 1 {
		return false
	}
	b.tokens--
	return true
}

// sweep drops buckets untouched for a full refill period. Runs at most once
// per period.
func (l *TokenBucket) sweep(now time.Time) {
	if l.idle <= 0 {
		return
	}
	if l.lastSweep.IsZero() {
		l.lastSweep = now
		return
	}
	if now.Sub(l.lastSweep) < l.idle {
		return
	}
	for key, b := range l.state {
		if now.Sub(b.last) >= l.idle {
			delete(l.state, key)
		}
	}
	l.lastSweep = now
}
