package config

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var configKeys = []string{
	"APP_ENV", "PORT", "REDIS_URL", "REDIS_KEY_PREFIX", "SESSION_TTL", "SESSION_COOKIE_NAME",
	"COOKIE_DOMAIN", "COOKIE_SECURE", "COOKIE_SAMESITE", "CORS_ALLOWED_ORIGINS",
	"PRICING_TAX_RATE_BPS", "CURRENCY_CODE", "IDEMPOTENCY_TTL", "RATE_LIMIT", "LOCK_TTL",
	"LOCK_RETRY_BACKOFF", "BODY_LIMIT_BYTES", "RECEIPT_QUEUE", "RECEIPT_MAX_RETRY",
	"WORKER_CONCURRENCY", "SECURITY_HEADERS_ENABLED", "CSRF_ENABLED", "STORE_NAME", "STORE_LOCATION",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range configKeys {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, "development", cfg.AppEnv)
	require.Equal(t, ":8080", cfg.HTTPAddr())
	require.False(t, cfg.UsesRedis())
	require.Equal(t, 500, cfg.TaxRateBps)
	require.Equal(t, "INR", cfg.CurrencyCode)
	require.Equal(t, "kasir_session", cfg.SessionCookieName)
	require.Equal(t, 12*time.Hour, cfg.SessionTTL)
	require.Equal(t, http.SameSiteLaxMode, cfg.CookieSameSite)
	require.Equal(t, "120-M", cfg.RateLimit)
	require.Equal(t, int64(1<<20), cfg.BodyLimitBytes)
	require.True(t, cfg.SecurityHeaders)
	require.Equal(t, 5, cfg.WorkerConcurrency)
	require.Equal(t, "Optimus SuperMarket", cfg.StoreName)
	require.Equal(t, "Vijayawada", cfg.StoreLocation)
}

func TestLoadOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("APP_ENV", "production")
	t.Setenv("PORT", ":9000")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("PRICING_TAX_RATE_BPS", "1800")
	t.Setenv("CURRENCY_CODE", "idr")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example ,")
	t.Setenv("COOKIE_SAMESITE", "strict")
	t.Setenv("COOKIE_SECURE", "true")
	t.Setenv("SECURITY_HEADERS_ENABLED", "off")
	t.Setenv("SESSION_TTL", "30m")

	cfg, err := Load()
	require.NoError(t, err)
	require.True(t, cfg.IsProduction())
	require.Equal(t, ":9000", cfg.HTTPAddr())
	require.True(t, cfg.UsesRedis())
	require.Equal(t, 1800, cfg.TaxRateBps)
	require.Equal(t, "IDR", cfg.CurrencyCode)
	require.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSAllowedOrigins)
	require.Equal(t, http.SameSiteStrictMode, cfg.CookieSameSite)
	require.True(t, cfg.CookieSecure)
	require.False(t, cfg.SecurityHeaders)
	require.Equal(t, 30*time.Minute, cfg.SessionTTL)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	clearEnv(t)
	t.Setenv("PRICING_TAX_RATE_BPS", "-5")
	t.Setenv("RATE_LIMIT", "lots")
	t.Setenv("WORKER_CONCURRENCY", "0")

	_, err := Load()
	require.Error(t, err)
	require.Contains(t, err.Error(), "PRICING_TAX_RATE_BPS")
	require.Contains(t, err.Error(), "RATE_LIMIT")
	require.Contains(t, err.Error(), "WORKER_CONCURRENCY")
}

func TestParseDurationFallsBack(t *testing.T) {
	require.Equal(t, 5*time.Second, parseDuration("soon", "5s"))
	require.Equal(t, time.Minute, parseDuration("1m", "5s"))
}

func TestMustLoad(t *testing.T) {
	clearEnv(t)
	require.Equal(t, "INR", MustLoad().CurrencyCode)

	t.Setenv("RATE_LIMIT", "lots")
	require.Panics(t, func() { MustLoad() })
}
