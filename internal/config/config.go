package config

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
	limiter "github.com/ulule/limiter/v3"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	AppEnv             string
	Port               string
	RedisURL           string
	RedisKeyPrefix     string
	SessionTTL         time.Duration
	SessionCookieName  string
	CookieDomain       string
	CookieSecure       bool
	CookieSameSite     http.SameSite
	CORSAllowedOrigins []string
	TaxRateBps         int
	CurrencyCode       string
	IdempotencyTTL     time.Duration
	RateLimit          string
	LockTTL            time.Duration
	LockRetryBackoff   time.Duration
	BodyLimitBytes     int64
	ReceiptQueue       string
	StoreName          string
	StoreLocation      string
	ReceiptMaxRetry    int
	WorkerConcurrency  int
	SecurityHeaders    bool
	CSRFEnabled        bool
}

// Load reads configuration from environment variables and an optional .env file.
func Load() (*Config, error) {
	_ = godotenv.Load()

	k := koanf.New(".")
	if err := k.Load(env.Provider("", ".", func(s string) string { return s }), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	cfg := &Config{
		AppEnv:             valueOrDefault(k.String("APP_ENV"), "development"),
		Port:               valueOrDefault(k.String("PORT"), "8080"),
		RedisURL:           strings.TrimSpace(k.String("REDIS_URL")),
		RedisKeyPrefix:     valueOrDefault(k.String("REDIS_KEY_PREFIX"), "kasir:"),
		SessionTTL:         parseDuration(k.String("SESSION_TTL"), "12h"),
		SessionCookieName:  valueOrDefault(k.String("SESSION_COOKIE_NAME"), "kasir_session"),
		CookieDomain:       strings.TrimSpace(k.String("COOKIE_DOMAIN")),
		CookieSecure:       parseBool(k.String("COOKIE_SECURE"), false),
		CookieSameSite:     parseSameSite(k.String("COOKIE_SAMESITE")),
		CORSAllowedOrigins: splitAndTrim(k.String("CORS_ALLOWED_ORIGINS")),
		CurrencyCode:       strings.ToUpper(valueOrDefault(k.String("CURRENCY_CODE"), "INR")),
		IdempotencyTTL:     parseDuration(k.String("IDEMPOTENCY_TTL"), "24h"),
		RateLimit:          valueOrDefault(k.String("RATE_LIMIT"), "120-M"),
		LockTTL:            parseDuration(k.String("LOCK_TTL"), "5s"),
		LockRetryBackoff:   parseDuration(k.String("LOCK_RETRY_BACKOFF"), "25ms"),
		ReceiptQueue:       valueOrDefault(k.String("RECEIPT_QUEUE"), "receipts"),
		StoreName:          valueOrDefault(k.String("STORE_NAME"), "Optimus SuperMarket"),
		StoreLocation:      valueOrDefault(k.String("STORE_LOCATION"), "Vijayawada"),
		SecurityHeaders:    parseBool(k.String("SECURITY_HEADERS_ENABLED"), true),
		CSRFEnabled:        parseBool(k.String("CSRF_ENABLED"), false),
	}
	if cfg.CookieSameSite == http.SameSiteDefaultMode {
		cfg.CookieSameSite = http.SameSiteLaxMode
	}

	var errs []error
	var err error
	if cfg.TaxRateBps, err = parseInt(k.String("PRICING_TAX_RATE_BPS"), 500); err != nil || cfg.TaxRateBps < 0 || cfg.TaxRateBps > 10000 {
		errs = append(errs, errors.New("PRICING_TAX_RATE_BPS must be between 0 and 10000"))
	}
	var limit int
	if limit, err = parseInt(k.String("BODY_LIMIT_BYTES"), 1<<20); err != nil || limit <= 0 {
		errs = append(errs, errors.New("BODY_LIMIT_BYTES must be a positive integer"))
	}
	cfg.BodyLimitBytes = int64(limit)
	if cfg.ReceiptMaxRetry, err = parseInt(k.String("RECEIPT_MAX_RETRY"), 5); err != nil || cfg.ReceiptMaxRetry < 0 {
		errs = append(errs, errors.New("RECEIPT_MAX_RETRY must be a non-negative integer"))
	}
	if cfg.WorkerConcurrency, err = parseInt(k.String("WORKER_CONCURRENCY"), 5); err != nil || cfg.WorkerConcurrency <= 0 {
		errs = append(errs, errors.New("WORKER_CONCURRENCY must be a positive integer"))
	}
	if _, err := limiter.NewRateFromFormatted(cfg.RateLimit); err != nil {
		errs = append(errs, fmt.Errorf("RATE_LIMIT: %w", err))
	}
	if cfg.SessionTTL <= 0 {
		errs = append(errs, errors.New("SESSION_TTL must be positive"))
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return cfg, nil
}

// HTTPAddr returns the address the HTTP server should bind to.
func (c *Config) HTTPAddr() string {
	port := strings.TrimSpace(c.Port)
	if port == "" {
		port = "8080"
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return ":" + port
}

// UsesRedis reports whether sessions, locks and the receipt queue live in Redis.
func (c *Config) UsesRedis() bool {
	return c.RedisURL != ""
}

// IsProduction reports whether APP_ENV names a production deployment.
func (c *Config) IsProduction() bool {
	switch strings.ToLower(c.AppEnv) {
	case "prod", "production":
		return true
	}
	return false
}

// MustLoad behaves like Load but panics on error.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

func splitAndTrim(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func valueOrDefault(value, fallback string) string {
	if v := strings.TrimSpace(value); v != "" {
		return v
	}
	return fallback
}

func parseDuration(value, fallback string) time.Duration {
	base := strings.TrimSpace(value)
	if base == "" {
		base = fallback
	}
	d, err := time.ParseDuration(base)
	if err != nil {
		d, _ = time.ParseDuration(fallback)
	}
	return d
}

func parseInt(value string, fallback int) (int, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return fallback, nil
	}
	return strconv.Atoi(value)
}

func parseBool(value string, fallback bool) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

func parseSameSite(value string) http.SameSite {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	case "lax":
		return http.SameSiteLaxMode
	default:
		return http.SameSiteDefaultMode
	}
}
