package middleware

import (
	"net/http"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func TestRedisRateLimitMiddlewareBasic(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	// 2 per second window, no burst headroom
	r := newLimitedRouter(RedisRateLimitMiddleware(client, 2, 0, time.Second))

	require.Equal(t, http.StatusOK, doGet(r, "10.3.0.1:1000").Code)
	require.Equal(t, http.StatusOK, doGet(r, "10.3.0.1:1000").Code)

	w := doGet(r, "10.3.0.1:1000")
	require.Equal(t, http.StatusTooManyRequests, w.Code)
	require.Equal(t, "1", w.Header().Get("Retry-After"))

	// separate clients count independently
	require.Equal(t, http.StatusOK, doGet(r, "10.3.0.2:1000").Code)
}

func TestRedisRateLimitMiddlewareWindowReset(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	r := newLimitedRouter(RedisRateLimitMiddleware(client, 1, 0, time.Second))
	require.Equal(t, http.StatusOK, doGet(r, "10.4.0.1:1000").Code)
	require.Equal(t, http.StatusTooManyRequests, doGet(r, "10.4.0.1:1000").Code)

	// counters live in per-window keys that expire shortly after the window
	mr.FastForward(3 * time.Second)
	require.Empty(t, mr.Keys())
}

func TestRedisRateLimitMiddlewareNilClientFallsBack(t *testing.T) {
	r := newLimitedRouter(RedisRateLimitMiddleware(nil, 1, 1, time.Second))
	require.Equal(t, http.StatusOK, doGet(r, "10.5.0.1:1000").Code)
	require.Equal(t, http.StatusTooManyRequests, doGet(r, "10.5.0.1:1000").Code)
}

func TestRedisRateLimitMiddlewareRedisDown(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()
	mr.Close()

	r := newLimitedRouter(RedisRateLimitMiddleware(client, 10, 10, time.Second))
	require.Equal(t, http.StatusInternalServerError, doGet(r, "10.6.0.1:1000").Code)
}
