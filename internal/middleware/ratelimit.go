// ratelimit.go throttles the admin API with per-client token buckets. Every
// route behind it is audit-recorded and touches the database, so a runaway
// dashboard or script is stopped here before it reaches a handler.
package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// idleEviction is how long a client bucket may sit untouched before the
// background sweep removes it.
const idleEviction = 10 * time.Minute

// RateLimitConfig tunes one RateLimiter.
type RateLimitConfig struct {
	// RequestsPerMinute is the sustained refill rate per client.
	RequestsPerMinute int
	// BurstSize caps how many requests a client can issue back to back.
	BurstSize int
	// CleanupInterval is how often idle client buckets are swept.
	CleanupInterval time.Duration
}

// DefaultRateLimitConfig covers the read-mostly admin surface: audit log
// queries, export history listings, and orphan reports. The burst absorbs a
// dashboard page that fans out several requests at once.
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		RequestsPerMinute: 200,
		BurstSize:         50,
		CleanupInterval:   5 * time.Minute,
	}
}

// ExpensiveOpRateLimitConfig covers operations that do real work per request:
// an export run fetches and encodes a full entity graph, and a bulk asset
// delete fans out to the blob store. A handful per minute is plenty for an
// operator; more than that is a runaway script.
func ExpensiveOpRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		RequestsPerMinute: 10,
		BurstSize:         3,
		CleanupInterval:   5 * time.Minute,
	}
}

// clientBucket holds the remaining token balance for one client key.
type clientBucket struct {
	tokens   float64
	lastSeen time.Time
}

// RateLimiter is an in-memory token-bucket limiter keyed per client. State is
// per process; the admin surface is low-traffic enough that no shared store is
// needed.
type RateLimiter struct {
	config  RateLimitConfig
	buckets map[string]*clientBucket
	mu      sync.RWMutex
	stopCh  chan struct{}
}

// NewRateLimiter creates a limiter and starts its idle-bucket sweep. Call Stop
// during shutdown to release the sweep goroutine.
func NewRateLimiter(config RateLimitConfig) *RateLimiter {
	rl := &RateLimiter{
		config:  config,
		buckets: make(map[string]*clientBucket),
		stopCh:  make(chan struct{}),
	}

	go rl.sweep()

	return rl
}

// sweep periodically drops buckets that have been idle past the eviction
// threshold so one-off clients do not accumulate forever.
func (rl *RateLimiter) sweep() {
	ticker := time.NewTicker(rl.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.mu.Lock()
			now := time.Now()
			for key, b := range rl.buckets {
				if now.Sub(b.lastSeen) > idleEviction {
					delete(rl.buckets, key)
				}
			}
			rl.mu.Unlock()
		case <-rl.stopCh:
			return
		}
	}
}

// Stop terminates the sweep goroutine.
func (rl *RateLimiter) Stop() {
	close(rl.stopCh)
}

// Allow reports whether the client identified by key may proceed, consuming
// one token when it does.
func (rl *RateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	b, ok := rl.buckets[key]
	if !ok {
		// First request from this client: start from a full burst allowance.
		rl.buckets[key] = &clientBucket{
			tokens:   float64(rl.config.BurstSize) - 1,
			lastSeen: now,
		}
		return true
	}

	b.tokens = min(float64(rl.config.BurstSize), b.tokens+rl.refill(now.Sub(b.lastSeen)))
	b.lastSeen = now

	if b.tokens >= 1 {
		b.tokens--
		return true
	}
	return false
}

// RemainingTokens returns the client's current token balance without consuming
// anything. Used for the X-RateLimit-Remaining response header.
func (rl *RateLimiter) RemainingTokens(key string) int {
	rl.mu.RLock()
	defer rl.mu.RUnlock()

	b, ok := rl.buckets[key]
	if !ok {
		return rl.config.BurstSize
	}

	tokens := min(float64(rl.config.BurstSize), b.tokens+rl.refill(time.Since(b.lastSeen)))
	return int(tokens)
}

// refill converts elapsed idle time into regained tokens.
func (rl *RateLimiter) refill(elapsed time.Duration) float64 {
	return elapsed.Seconds() * float64(rl.config.RequestsPerMinute) / 60.0
}

// RateLimitMiddleware enforces the limiter on every request it wraps, emitting
// X-RateLimit-Limit and X-RateLimit-Remaining headers on allowed requests and
// a 429 with Retry-After when the client's bucket is empty.
func RateLimitMiddleware(limiter *RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := clientKey(c)

		if !limiter.Allow(key) {
			c.Header("X-RateLimit-Remaining", strconv.Itoa(limiter.RemainingTokens(key)))
			c.Header("Retry-After", "60")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":       "Rate limit exceeded",
				"retry_after": 60,
			})
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(limiter.config.RequestsPerMinute))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(limiter.RemainingTokens(key)))

		c.Next()
	}
}

// clientKey identifies the client being limited. Authenticated traffic is
// keyed by user id so operators behind a shared egress IP do not throttle each
// other; before auth has run the source IP is all there is.
func clientKey(c *gin.Context) string {
	if id := c.GetString(UserIDKey); id != "" {
		return "user:" + id
	}

	ip := c.ClientIP()
	if ip == "" {
		ip = c.Request.RemoteAddr
	}
	return "ip:" + ip
}
