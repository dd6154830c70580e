package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/cityofhelsinki/benefit-backend/internal/i18n"
)

func TestRateLimiterRejectsOverBurst(t *testing.T) {
	gin.SetMode(gin.TestMode)
	require.NoError(t, i18n.Initialize())

	limiter := NewRateLimiter(rate.Every(time.Hour), 2)
	r := gin.New()
	r.Use(limiter.Middleware())
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	codes := make([]int, 0, 3)
	var last *httptest.ResponseRecorder
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodGet, "/ping", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		r.ServeHTTP(w, req)
		codes = append(codes, w.Code)
		last = w
	}

	assert.Equal(t, []int{http.StatusNoContent, http.StatusNoContent, http.StatusTooManyRequests}, codes)
	assert.NotEmpty(t, last.Header().Get("Retry-After"))

	// another address has its own bucket
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/ping", nil)
	req.RemoteAddr = "10.0.0.2:1234"
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestRateLimiterSweepsIdleClients(t *testing.T) {
	now := time.Date(2021, 1, 1, 12, 0, 0, 0, time.UTC)
	limiter := &RateLimiter{
		clients: make(map[string]*client),
		limit:   rate.Limit(1),
		burst:   1,
		now:     func() time.Time { return now },
	}

	limiter.limiterFor("10.0.0.1")
	now = now.Add(2 * time.Minute)
	limiter.limiterFor("10.0.0.2")
	now = now.Add(2 * time.Minute)

	limiter.sweep()
	assert.NotContains(t, limiter.clients, "10.0.0.1")
	assert.Contains(t, limiter.clients, "10.0.0.2")
}
