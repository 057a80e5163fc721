package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entregaszap/portaria/internal/config"
)

func rateCfg(capacity int) config.RateLimitConfig {
	return config.RateLimitConfig{
		Enabled:        true,
		Capacity:       capacity,
		RefillTokens:   1,
		RefillInterval: time.Hour, // no refill within a test
		TTL:            time.Hour,
		KeyStrategy:    "ip",
		Prefix:         "rl",
	}
}

func TestTokenBucketBlocksAfterCapacity(t *testing.T) {
	rdb := testRedis(t)
	e := echo.New()

	h := NewTokenBucket(rateCfg(2), rdb)(func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})
	e.GET("/things", h)

	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/things", nil))
		require.Equal(t, http.StatusOK, rec.Code, "request %d within capacity", i+1)
	}

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/things", nil))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
}

func TestTokenBucketSetsRateHeaders(t *testing.T) {
	rdb := testRedis(t)
	e := echo.New()

	h := NewTokenBucket(rateCfg(5), rdb)(func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})
	e.GET("/things", h)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/things", nil))
	assert.Equal(t, "5", rec.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "4", rec.Header().Get("X-RateLimit-Remaining"))
}

func TestTokenBucketDisabledPassesThrough(t *testing.T) {
	e := echo.New()

	h := NewTokenBucket(config.RateLimitConfig{Enabled: false}, nil)(func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})
	e.GET("/things", h)

	for i := 0; i < 100; i++ {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/things", nil))
		require.Equal(t, http.StatusOK, rec.Code)
	}
}
