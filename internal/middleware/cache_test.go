package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entregaszap/portaria/internal/config"
)

func testRedis(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	return redis.NewClient(&redis.Options{Addr: mr.Addr()})
}

func cacheCfg() config.CacheConfig {
	return config.CacheConfig{
		Enabled:      true,
		Methods:      map[string]bool{"GET": true},
		TTL:          time.Minute,
		KeyStrategy:  "route_query",
		Prefix:       "cache",
		MaxBodyBytes: 1 << 20,
	}
}

func TestCacheServesSecondRequestFromRedis(t *testing.T) {
	rdb := testRedis(t)
	e := echo.New()

	hits := 0
	h := NewRedisCache(cacheCfg(), rdb)(func(c echo.Context) error {
		hits++
		return c.JSON(http.StatusOK, echo.Map{"hits": hits})
	})
	e.GET("/things", h)

	first := httptest.NewRecorder()
	e.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/things", nil))
	require.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, "MISS", first.Header().Get("X-Cache"))

	second := httptest.NewRecorder()
	e.ServeHTTP(second, httptest.NewRequest(http.MethodGet, "/things", nil))
	require.Equal(t, http.StatusOK, second.Code)
	assert.Equal(t, "HIT", second.Header().Get("X-Cache"))
	assert.Equal(t, first.Body.String(), second.Body.String())
	assert.Equal(t, 1, hits, "handler must not run on a hit")
}

func TestCacheKeysIncludeQuery(t *testing.T) {
	rdb := testRedis(t)
	e := echo.New()

	h := NewRedisCache(cacheCfg(), rdb)(func(c echo.Context) error {
		return c.String(http.StatusOK, c.QueryParam("building_id"))
	})
	e.GET("/things", h)

	a := httptest.NewRecorder()
	e.ServeHTTP(a, httptest.NewRequest(http.MethodGet, "/things?building_id=1", nil))
	b := httptest.NewRecorder()
	e.ServeHTTP(b, httptest.NewRequest(http.MethodGet, "/things?building_id=2", nil))

	assert.Equal(t, "1", a.Body.String())
	assert.Equal(t, "2", b.Body.String())
	assert.Equal(t, "MISS", b.Header().Get("X-Cache"))
}

func TestCacheSkipsNonListedMethods(t *testing.T) {
	rdb := testRedis(t)
	e := echo.New()

	hits := 0
	h := NewRedisCache(cacheCfg(), rdb)(func(c echo.Context) error {
		hits++
		return c.NoContent(http.StatusNoContent)
	})
	e.POST("/things", h)

	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/things", nil))
	}
	assert.Equal(t, 2, hits)
}

func TestCacheDisabledPassesThrough(t *testing.T) {
	e := echo.New()

	hits := 0
	h := NewRedisCache(config.CacheConfig{Enabled: false}, nil)(func(c echo.Context) error {
		hits++
		return c.String(http.StatusOK, "ok")
	})
	e.GET("/things", h)

	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/things", nil))
	}
	assert.Equal(t, 2, hits)
}
