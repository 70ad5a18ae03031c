package http

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/yehuditohana/Supermarket-Price-Comparer/internal/service"
	"github.com/yehuditohana/Supermarket-Price-Comparer/pkg/health"
	"github.com/yehuditohana/Supermarket-Price-Comparer/pkg/httputil"
	"github.com/yehuditohana/Supermarket-Price-Comparer/pkg/middleware"
)

// ServiceName labels metrics and spans emitted by the HTTP layer.
const ServiceName = "price-comparer"

// Services groups the application services the router exposes.
type Services struct {
	Carts       *service.CartService
	Selection   *service.SelectionService
	Comparisons *service.ComparisonService
	Sessions    *service.SessionService
	Auth        *service.AuthService
}

// RouterConfig carries the transport settings of the router.
type RouterConfig struct {
	CORS           middleware.CORSConfig
	PprofCIDRs     []string
	RequestTimeout time.Duration

	// RateLimit applies to every /api/v1 route, LoginRateLimit additionally
	// to login. Zero values disable them.
	RateLimit      middleware.RateLimitConfig
	LoginRateLimit middleware.RateLimitConfig
}

// NewRouter creates a chi router with every route registered.
func NewRouter(svcs Services, healthHandler *health.Handler, cfg RouterConfig, logger *slog.Logger) http.Handler {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 30 * time.Second
	}

	r := chi.NewRouter()

	r.Use(middleware.Recovery(logger))
	r.Use(middleware.CORS(cfg.CORS))
	r.Use(chimw.Compress(5))
	r.Use(chimw.Timeout(cfg.RequestTimeout))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.PrometheusMetrics(ServiceName))
	r.Use(middleware.Tracing(ServiceName))
	r.Use(middleware.RequestLogger(logger))

	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Handle("/metrics", promhttp.Handler())

	middleware.RegisterPprof(r, cfg.PprofCIDRs, logger)

	carts := NewCartHandler(svcs.Carts, logger)
	stores := NewStoreHandler(svcs.Selection, logger)
	comparisons := NewComparisonHandler(svcs.Comparisons, logger)
	sessions := NewSessionHandler(svcs.Sessions, logger)
	auth := NewAuthHandler(svcs.Auth, logger)

	requireAuth := middleware.Auth(ResolveToken(svcs.Auth))

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.RateLimit(cfg.RateLimit, logger))
		r.Use(ContentTypeJSON)

		r.With(middleware.RateLimit(cfg.LoginRateLimit, logger)).Post("/auth/login", auth.Login)
		r.With(requireAuth).Post("/auth/logout", auth.Logout)

		r.Route("/cart", func(r chi.Router) {
			r.Use(requireAuth)

			r.Get("/", carts.GetCart)
			r.Delete("/", carts.Clear)
			r.Get("/id", carts.GetCartID)
			r.Post("/refresh", carts.Refresh)
			r.Post("/items", carts.AddItem)
			r.Delete("/items/{itemId}", carts.RemoveItem)
			r.Post("/archive", carts.Archive)
			r.Delete("/error", carts.DismissError)
		})

		r.Route("/carts", func(r chi.Router) {
			r.Use(requireAuth)

			r.Get("/history", carts.History)
			r.Get("/{cartId}/items", carts.ArchivedItems)
			r.Put("/{cartId}/restore", carts.Restore)
			r.Delete("/{cartId}", carts.DeleteArchived)
		})

		r.Route("/stores", func(r chi.Router) {
			r.Use(middleware.Session)

			r.Get("/", stores.Browse)
			r.Delete("/", stores.ResetBrowse)
			r.Post("/next", stores.NextPage)
			r.Get("/search", stores.Search)
			r.Get("/search/last", stores.LastSearch)
			r.Get("/selection", stores.Selected)
			r.Delete("/selection", stores.ClearSelection)
			r.Put("/selection/{storeId}", stores.Toggle)
		})

		r.Route("/comparisons", func(r chi.Router) {
			r.Use(middleware.Session)

			r.Get("/alternatives", comparisons.Alternatives)

			r.Group(func(r chi.Router) {
				r.Use(requireAuth)

				r.Post("/", comparisons.Compare)
				r.Get("/current", comparisons.Current)
				r.Post("/current/stores/{storeId}/substitutions", comparisons.Substitute)
			})
		})

		r.Route("/session", func(r chi.Router) {
			r.Use(middleware.Session)
			r.Use(requireAuth)
			r.Post("/visibility", sessions.Visibility)
		})
	})

	return r
}

// ContentTypeJSON rejects request bodies that are not declared as JSON.
func ContentTypeJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.ContentLength > 0 {
			ct := r.Header.Get("Content-Type")
			if ct != "" && !strings.HasPrefix(ct, "application/json") {
				httputil.WriteJSON(w, http.StatusUnsupportedMediaType, httputil.Response{
					Error: &httputil.ErrorResponse{Code: "UNSUPPORTED_MEDIA_TYPE", Message: "Content-Type must be application/json"},
				})
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}
