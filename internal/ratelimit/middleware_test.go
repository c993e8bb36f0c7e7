package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-kasir/internal/common"
)

func limitedHandler(t *testing.T, client *redis.Client, rate string) http.Handler {
	t.Helper()
	store, err := NewStore(client, "kasir:")
	require.NoError(t, err)
	lim, err := New(rate, store)
	require.NoError(t, err)
	return Handler{
		Limiter: lim,
		Key:     func(*http.Request) string { return "static" },
	}.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
}

func TestHandlerEnforcesLimit(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	stores := map[string]*redis.Client{"memory": nil, "redis": client}
	for name, c := range stores {
		t.Run(name, func(t *testing.T) {
			handler := limitedHandler(t, c, "1-M")

			rr1 := httptest.NewRecorder()
			handler.ServeHTTP(rr1, httptest.NewRequest(http.MethodGet, "/api/v1/catalog", nil))
			require.Equal(t, http.StatusOK, rr1.Code)
			require.Equal(t, "1", rr1.Header().Get("X-RateLimit-Limit"))
			require.Equal(t, "0", rr1.Header().Get("X-RateLimit-Remaining"))

			rr2 := httptest.NewRecorder()
			handler.ServeHTTP(rr2, httptest.NewRequest(http.MethodGet, "/api/v1/catalog", nil))
			require.Equal(t, http.StatusTooManyRequests, rr2.Code)
			require.NotEmpty(t, rr2.Header().Get("Retry-After"))
			require.Contains(t, rr2.Body.String(), "RATE_LIMITED")
		})
	}
}

func TestHandlerFailsOpenOnStoreError(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	store, err := NewStore(client, "kasir:")
	require.NoError(t, err)
	lim, err := New("1-M", store)
	require.NoError(t, err)
	mr.Close()

	var seen error
	handler := Handler{Limiter: lim, OnError: func(err error) { seen = err }}.Middleware(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) }))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusNoContent, rr.Code)
	require.Error(t, seen)
}

func TestNewRejectsMalformedRate(t *testing.T) {
	store, err := NewStore(nil, "")
	require.NoError(t, err)
	_, err = New("fast", store)
	require.Error(t, err)
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.5:4321"
	require.Equal(t, "10.0.0.5", ClientIP(req))

	req.Header.Set("X-Real-IP", "192.0.2.7")
	require.Equal(t, "192.0.2.7", ClientIP(req))

	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	require.Equal(t, "203.0.113.9", ClientIP(req))
}

func TestSessionOrIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.5:4321"
	require.Equal(t, "ip:10.0.0.5", SessionOrIP(req))

	req = req.WithContext(common.WithSessionID(req.Context(), "s1"))
	require.Equal(t, "session:s1", SessionOrIP(req))
}
