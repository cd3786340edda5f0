package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// RouterConfig tunes the relay's HTTP surface. Zero values fall back to
// defaults. TrustProxyHeaders makes X-Forwarded-For and X-Real-IP decide the
// client address; enable it only behind a proxy that overwrites them, since
// the admin rate limit is keyed on that address.
type RouterConfig struct {
	RequestTimeout     time.Duration
	MaxRequestBodySize int64
	AdminRateLimit     int
	AdminBurst         int
	AllowedOrigins     []string
	TrustProxyHeaders  bool
}

// Handlers groups the endpoint handlers mounted by NewRouter.
type Handlers struct {
	Checkout *CheckoutHandler
	Admin    *AdminHandler
	Pages    *PagesHandler
}

// NewRouter builds the relay router with its middleware stack.
func NewRouter(h Handlers, cfg RouterConfig, log *slog.Logger) http.Handler {
	if len(cfg.AllowedOrigins) == 0 {
		cfg.AllowedOrigins = []string{"*"}
	}
	if cfg.AdminBurst == 0 {
		cfg.AdminBurst = 5
	}
	if cfg.RequestTimeout == 0 {
		cfg.RequestTimeout = 30 * time.Second
	}
	if cfg.MaxRequestBodySize == 0 {
		cfg.MaxRequestBodySize = 1 << 20
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	if cfg.TrustProxyHeaders {
		r.Use(middleware.RealIP)
	}
	r.Use(middleware.RequestLogger(&middleware.DefaultLogFormatter{
		Logger:  slog.NewLogLogger(log.Handler(), slog.LevelInfo),
		NoColor: true,
	}))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(cfg.RequestTimeout))
	r.Use(middleware.RequestSize(cfg.MaxRequestBodySize))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		MaxAge:         300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Post("/checkout", h.Checkout.Checkout)
	r.Post("/webhook", h.Checkout.Webhook)
	r.Route("/api", func(r chi.Router) {
		r.Post("/create_preference", h.Checkout.Checkout)
		r.Post("/webhook", h.Checkout.Webhook)
	})

	limiter := NewRateLimiter(cfg.AdminRateLimit, cfg.AdminBurst)
	r.Route("/admin", func(r chi.Router) {
		r.Use(limiter.Middleware)
		r.Get("/messages", h.Admin.Messages)
		r.Post("/resend-message/{id}", h.Admin.Resend)
	})

	r.Get("/success", h.Pages.Success)
	r.Get("/failure", h.Pages.Failure)
	r.Get("/pending", h.Pages.Pending)

	return r
}
