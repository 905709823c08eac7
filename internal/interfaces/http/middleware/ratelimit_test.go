package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hostel/backend/internal/interfaces/http/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ now time.Time }

func (f *fakeClock) Now() time.Time         { return f.now }
func (f *fakeClock) Advance(d time.Duration) { f.now = f.now.Add(d) }

func newTestLimiter(t *testing.T, perSecond float64, burst int) (*RateLimiter, *fakeClock) {
	t.Helper()
	clock := &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	rl := NewRateLimiter(perSecond, burst)
	rl.now = clock.Now
	t.Cleanup(rl.Stop)
	return rl, clock
}

func TestRateLimiter_BurstThenRefill(t *testing.T) {
	rl, clock := newTestLimiter(t, 1, 3)

	for i := 0; i < 3; i++ {
		assert.True(t, rl.Allow("a"), "request %d within burst", i)
	}
	assert.False(t, rl.Allow("a"))
	assert.True(t, rl.Allow("b"), "keys have independent buckets")

	clock.Advance(time.Second)
	assert.True(t, rl.Allow("a"))
	assert.Equal(t, 0, rl.Remaining("a"))

	clock.Advance(2 * time.Second)
	assert.Equal(t, 2, rl.Remaining("a"))
}

func TestRateLimiter_EvictsIdleClients(t *testing.T) {
	rl, clock := newTestLimiter(t, 1, 1)
	rl.Allow("a")

	clock.Advance(rl.idleTTL + time.Second)
	rl.evictIdle()

	rl.mu.Lock()
	defer rl.mu.Unlock()
	assert.Empty(t, rl.clients)
}

func TestRateLimiter_StopIsIdempotent(t *testing.T) {
	rl := NewRateLimiter(1, 1)
	rl.Stop()
	assert.NotPanics(t, rl.Stop)
}

func TestRateLimitMiddleware(t *testing.T) {
	rl, _ := newTestLimiter(t, 0.5, 2)

	router := gin.New()
	router.Use(RequestID(), RateLimit(rl))
	router.GET("/test", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	do := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.RemoteAddr = "10.0.0.7:5000"
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	first := do()
	require.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, "2", first.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "1", first.Header().Get("X-RateLimit-Remaining"))

	assert.Equal(t, http.StatusOK, do().Code)

	limited := do()
	assert.Equal(t, http.StatusTooManyRequests, limited.Code)
	assert.Equal(t, "2", limited.Header().Get("Retry-After"))
	assert.Equal(t, "0", limited.Header().Get("X-RateLimit-Remaining"))
	assert.Contains(t, limited.Body.String(), dto.ErrCodeRateLimited)
}

func TestRateLimitByKey(t *testing.T) {
	rl, _ := newTestLimiter(t, 1, 1)

	router := gin.New()
	router.Use(RateLimitByKey(rl, func(c *gin.Context) string { return c.GetHeader("X-Tenant-ID") }))
	router.GET("/test", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	for _, tenant := range []string{"t1", "t2"} {
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.Header.Set("X-Tenant-ID", tenant)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set("X-Tenant-ID", "t1")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
}
