package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-kasir/internal/app"
	"github.com/noah-isme/backend-kasir/internal/cart"
	"github.com/noah-isme/backend-kasir/internal/catalog"
	"github.com/noah-isme/backend-kasir/internal/common"
	"github.com/noah-isme/backend-kasir/internal/health"
	"github.com/noah-isme/backend-kasir/internal/obs"
	"github.com/noah-isme/backend-kasir/internal/ratelimit"
	"github.com/noah-isme/backend-kasir/internal/receipt"
	"github.com/noah-isme/backend-kasir/internal/security"
)

type routerConfig struct {
	Deps           *app.Dependencies
	Catalog        *catalog.Catalog
	Logger         zerolog.Logger
	Tracing        bool
	HTTPMetrics    *obs.HTTPMetrics
	MetricsHandler http.Handler
	Pprof          http.Handler
	NewSessionID   func() string
}

func newRouter(rc routerConfig) http.Handler {
	cfg := rc.Deps.Config
	cartSvc := rc.Deps.CartService(rc.Catalog)
	cartHandler := &cart.Handler{
		Service:        cartSvc,
		CookieName:     cfg.SessionCookieName,
		CookieDomain:   cfg.CookieDomain,
		CookieSecure:   cfg.CookieSecure,
		CookieSameSite: cfg.CookieSameSite,
		CookieTTL:      cfg.SessionTTL,
		NewID:          rc.NewSessionID,
	}
	catalogHandler := catalog.NewHandler(catalog.HandlerConfig{Catalog: rc.Catalog, Currency: cfg.CurrencyCode})
	receiptHandler := receipt.Handler{
		Service:  cartSvc,
		Renderer: receipt.Renderer{StoreName: cfg.StoreName, Location: cfg.StoreLocation},
	}
	healthHandler := health.Handler{
		Checks:  rc.Deps.Checks(),
		Timeout: envDurationMillis("HEALTH_READY_TIMEOUT_MS", 300),
	}
	idem := common.Idem{R: rc.Deps.Redis, TTL: cfg.IdempotencyTTL, Prefix: cfg.RedisKeyPrefix}
	limit := ratelimit.Handler{
		Limiter: rc.Deps.Limiter,
		Key:     ratelimit.SessionOrIP,
		OnError: func(err error) {
			rc.Logger.Warn().Err(err).Msg("rate limit store unavailable")
		},
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(obs.RoutePatternMiddleware)
	if rc.Tracing {
		r.Use(obs.TracingMiddleware("kasir-api"))
	}
	if rc.HTTPMetrics != nil {
		r.Use(obs.HTTPObs{Metrics: rc.HTTPMetrics}.Middleware)
	}
	r.Use(obs.RequestLogger{Logger: rc.Logger}.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins(cfg.CORSAllowedOrigins),
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-CSRF-Token", cart.SessionHeader, common.IdempotencyHeader},
		ExposedHeaders: []string{cart.SessionHeader, "X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset", "Retry-After"},
		// credentials cannot be combined with a wildcard origin
		AllowCredentials: len(cfg.CORSAllowedOrigins) > 0,
		MaxAge:           300,
	}))
	r.Use(security.Headers{
		Enable:              cfg.SecurityHeaders,
		EnableHSTS:          cfg.IsProduction(),
		HSTSMaxAge:          31536000,
		TrustForwardedProto: true,
	}.Middleware)

	if rc.MetricsHandler != nil {
		r.Handle("/metrics", rc.MetricsHandler)
	}
	if rc.Pprof != nil {
		r.Mount("/debug/pprof", rc.Pprof)
	}
	r.Get("/health/live", healthHandler.Live)
	r.Get("/health/ready", healthHandler.Ready)

	r.Route("/api/v1", func(v chi.Router) {
		v.Use(security.BodyLimit{Max: cfg.BodyLimitBytes}.Middleware)
		v.Get("/catalog", catalogHandler.List)
		v.Get("/catalog/{item}", catalogHandler.Item)

		v.Route("/session", func(s chi.Router) {
			s.Use(cartHandler.ResolveSession)
			s.Use(limit.Middleware)
			if cfg.CSRFEnabled {
				s.Use(security.CSRF{
					SessionCookie: cartHandler.CookieName,
					SessionHeader: cart.SessionHeader,
					Secure:        cfg.CookieSecure,
					SameSite:      cfg.CookieSameSite,
				}.Middleware)
			}
			s.Get("/", cartHandler.Get)
			s.Delete("/", cartHandler.Reset)
			s.Delete("/items/{index}", cartHandler.RemoveItem)
			s.Get("/invoice", cartHandler.Invoice)
			s.Get("/invoice/receipt", receiptHandler.Text)

			s.Group(func(g chi.Router) {
				g.Use(idem.Middleware)
				g.Post("/", cartHandler.Start)
				g.Post("/items", cartHandler.AddItem)
				g.Post("/invoice", cartHandler.Finalize)
			})
		})
	})
	return r
}

func allowedOrigins(origins []string) []string {
	if len(origins) == 0 {
		return []string{"*"}
	}
	return origins
}
