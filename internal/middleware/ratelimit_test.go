package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func newTestLimiter(t *testing.T, cfg RateLimitConfig) *RateLimiter {
	t.Helper()
	rl := NewRateLimiter(cfg)
	t.Cleanup(rl.Stop)
	return rl
}

// ---------------------------------------------------------------------------
// Config presets
// ---------------------------------------------------------------------------

func TestDefaultRateLimitConfig(t *testing.T) {
	cfg := DefaultRateLimitConfig()
	if cfg.RequestsPerMinute != 200 {
		t.Errorf("RequestsPerMinute = %d, want 200", cfg.RequestsPerMinute)
	}
	if cfg.BurstSize != 50 {
		t.Errorf("BurstSize = %d, want 50", cfg.BurstSize)
	}
	if cfg.CleanupInterval != 5*time.Minute {
		t.Errorf("CleanupInterval = %v, want 5m", cfg.CleanupInterval)
	}
}

func TestExpensiveOpRateLimitConfig(t *testing.T) {
	cfg := ExpensiveOpRateLimitConfig()
	def := DefaultRateLimitConfig()

	if cfg.RequestsPerMinute >= def.RequestsPerMinute {
		t.Errorf("expensive-op rate %d should be tighter than the default %d",
			cfg.RequestsPerMinute, def.RequestsPerMinute)
	}
	if cfg.BurstSize >= def.BurstSize {
		t.Errorf("expensive-op burst %d should be tighter than the default %d",
			cfg.BurstSize, def.BurstSize)
	}
}

// ---------------------------------------------------------------------------
// Allow / RemainingTokens
// ---------------------------------------------------------------------------

func TestRateLimiter_FirstRequestStartsFullBurst(t *testing.T) {
	rl := newTestLimiter(t, RateLimitConfig{RequestsPerMinute: 60, BurstSize: 5, CleanupInterval: time.Minute})

	if !rl.Allow("user:op-1") {
		t.Error("first request from a new client must be allowed")
	}
	// One token spent, BurstSize-1 left.
	if got := rl.RemainingTokens("user:op-1"); got != 4 {
		t.Errorf("RemainingTokens = %d, want 4", got)
	}
}

func TestRateLimiter_DeniesBeyondBurst(t *testing.T) {
	rl := newTestLimiter(t, RateLimitConfig{RequestsPerMinute: 1, BurstSize: 3, CleanupInterval: time.Minute})

	for i := 0; i < 3; i++ {
		if !rl.Allow("user:op-1") {
			t.Fatalf("request %d within the burst was denied", i+1)
		}
	}
	if rl.Allow("user:op-1") {
		t.Error("request past the burst must be denied")
	}
}

func TestRateLimiter_RefillsOverTime(t *testing.T) {
	rl := newTestLimiter(t, RateLimitConfig{RequestsPerMinute: 600, BurstSize: 2, CleanupInterval: time.Minute})

	rl.Allow("user:op-1")
	rl.Allow("user:op-1")
	if rl.Allow("user:op-1") {
		t.Fatal("bucket should be empty after the burst")
	}

	// Back-date the bucket instead of sleeping: 600/min refills 10 tokens/s,
	// so one simulated second restores the full burst.
	rl.mu.Lock()
	rl.buckets["user:op-1"].lastSeen = time.Now().Add(-time.Second)
	rl.mu.Unlock()

	if !rl.Allow("user:op-1") {
		t.Error("bucket did not refill after elapsed time")
	}
}

func TestRateLimiter_ClientsAreIndependent(t *testing.T) {
	rl := newTestLimiter(t, RateLimitConfig{RequestsPerMinute: 1, BurstSize: 1, CleanupInterval: time.Minute})

	if !rl.Allow("user:op-1") {
		t.Fatal("first client's request was denied")
	}
	if rl.Allow("user:op-1") {
		t.Error("first client should be exhausted")
	}
	if !rl.Allow("user:op-2") {
		t.Error("second client must have its own bucket")
	}
}

func TestRateLimiter_RemainingTokensForUnknownClient(t *testing.T) {
	rl := newTestLimiter(t, RateLimitConfig{RequestsPerMinute: 60, BurstSize: 7, CleanupInterval: time.Minute})

	if got := rl.RemainingTokens("user:never-seen"); got != 7 {
		t.Errorf("RemainingTokens = %d, want full burst 7", got)
	}
}

func TestRateLimiter_SweepDropsIdleBuckets(t *testing.T) {
	rl := newTestLimiter(t, RateLimitConfig{RequestsPerMinute: 60, BurstSize: 5, CleanupInterval: 10 * time.Millisecond})

	rl.Allow("user:op-1")
	rl.mu.Lock()
	rl.buckets["user:op-1"].lastSeen = time.Now().Add(-idleEviction - time.Minute)
	rl.mu.Unlock()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		rl.mu.RLock()
		_, present := rl.buckets["user:op-1"]
		rl.mu.RUnlock()
		if !present {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Error("idle bucket was not swept")
}

// ---------------------------------------------------------------------------
// Middleware
// ---------------------------------------------------------------------------

func newRateLimitRouter(rl *RateLimiter, userID string) *gin.Engine {
	r := gin.New()
	if userID != "" {
		r.Use(func(c *gin.Context) { c.Set(UserIDKey, userID) })
	}
	r.Use(RateLimitMiddleware(rl))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })
	return r
}

func TestRateLimitMiddleware_AllowedRequestCarriesHeaders(t *testing.T) {
	rl := newTestLimiter(t, RateLimitConfig{RequestsPerMinute: 120, BurstSize: 10, CleanupInterval: time.Minute})
	r := newRateLimitRouter(rl, "op-1")

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if got := w.Header().Get("X-RateLimit-Limit"); got != "120" {
		t.Errorf("X-RateLimit-Limit = %q, want 120", got)
	}
	if w.Header().Get("X-RateLimit-Remaining") == "" {
		t.Error("X-RateLimit-Remaining header missing")
	}
}

func TestRateLimitMiddleware_BlocksWhenExhausted(t *testing.T) {
	rl := newTestLimiter(t, RateLimitConfig{RequestsPerMinute: 1, BurstSize: 1, CleanupInterval: time.Minute})
	r := newRateLimitRouter(rl, "op-1")

	first := httptest.NewRecorder()
	r.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/", nil))
	if first.Code != http.StatusOK {
		t.Fatalf("first request status = %d, want 200", first.Code)
	}

	second := httptest.NewRecorder()
	r.ServeHTTP(second, httptest.NewRequest(http.MethodGet, "/", nil))
	if second.Code != http.StatusTooManyRequests {
		t.Fatalf("second request status = %d, want 429", second.Code)
	}
	if got := second.Header().Get("Retry-After"); got != "60" {
		t.Errorf("Retry-After = %q, want 60", got)
	}

	var body map[string]interface{}
	if err := json.Unmarshal(second.Body.Bytes(), &body); err != nil {
		t.Fatalf("429 body is not JSON: %v", err)
	}
	if body["error"] != "Rate limit exceeded" {
		t.Errorf("error = %v, want 'Rate limit exceeded'", body["error"])
	}
}

// ---------------------------------------------------------------------------
// clientKey
// ---------------------------------------------------------------------------

func TestClientKey_PrefersAuthenticatedUser(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	c.Set(UserIDKey, "op-1")

	if got := clientKey(c); got != "user:op-1" {
		t.Errorf("clientKey = %q, want user:op-1", got)
	}
}

func TestClientKey_FallsBackToIP(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	c.Request.RemoteAddr = "192.0.2.7:51234"

	if got := clientKey(c); got != "ip:192.0.2.7" {
		t.Errorf("clientKey = %q, want ip:192.0.2.7", got)
	}
}

func TestClientKey_EmptyUserIDFallsBackToIP(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	c.Request.RemoteAddr = "192.0.2.7:51234"
	c.Set(UserIDKey, "")

	if got := clientKey(c); got != "ip:192.0.2.7" {
		t.Errorf("clientKey = %q, want ip:192.0.2.7", got)
	}
}
