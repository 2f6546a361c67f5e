package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func TestRateLimiterAllowRefills(t *testing.T) {
	current := time.Unix(1_700_000_000, 0)
	limiter := NewRateLimiter(func() time.Time { return current })
	rule := RateLimitRule{Rate: 1, Burst: 2}

	if ok, _ := limiter.Allow("k", rule); !ok {
		t.Fatalf("first request should pass")
	}
	if ok, _ := limiter.Allow("k", rule); !ok {
		t.Fatalf("second request should pass within burst")
	}
	ok, retry := limiter.Allow("k", rule)
	if ok {
		t.Fatalf("third request should be limited")
	}
	if retry <= 0 {
		t.Fatalf("expected positive retry-after, got %v", retry)
	}

	current = current.Add(2 * time.Second)
	if ok, _ := limiter.Allow("k", rule); !ok {
		t.Fatalf("request should pass after refill")
	}
}

func TestRateLimiterDropsIdleBuckets(t *testing.T) {
	current := time.Unix(1_700_000_000, 0)
	limiter := NewRateLimiter(func() time.Time { return current })
	rule := RateLimitRule{Rate: 1, Burst: 1}

	limiter.Allow("stale", rule)
	current = current.Add(2 * time.Hour)
	limiter.Allow("fresh", rule)

	limiter.mu.Lock()
	_, staleAlive := limiter.buckets["stale"]
	limiter.mu.Unlock()
	if staleAlive {
		t.Fatalf("idle bucket should be dropped after expiry")
	}
}

func TestRateLimitMiddlewareRejects(t *testing.T) {
	gin.SetMode(gin.TestMode)
	current := time.Unix(1_700_000_000, 0)
	limiter := NewRateLimiter(func() time.Time { return current })

	r := gin.New()
	r.Use(RateLimit(RateLimitConfig{
		Rules:   map[string]RateLimitRule{"DEFAULT": {Rate: 1, Burst: 1}},
		Limiter: limiter,
	}))
	r.POST("/run", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodPost, "/run", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/run", nil)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", w.Code)
	}
	if w.Header().Get("Retry-After") == "" {
		t.Fatalf("expected Retry-After header")
	}
}

func TestRateLimitUnknownGroupPasses(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RateLimit(RateLimitConfig{
		Rules:    map[string]RateLimitRule{"RUN": {Rate: 1, Burst: 1}},
		GroupFor: func(c *gin.Context) string { return "OTHER" },
	}))
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	for i := 0; i < 5; i++ {
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Fatalf("expected 200 for unmatched group, got %d", w.Code)
		}
	}
}
