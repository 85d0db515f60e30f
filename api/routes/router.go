package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/inventorypro/inventorypro-backend/api/controllers"
	"github.com/inventorypro/inventorypro-backend/api/middleware"
	"github.com/inventorypro/inventorypro-backend/internal/adjustments"
	"github.com/inventorypro/inventorypro-backend/internal/auth"
	"github.com/inventorypro/inventorypro-backend/internal/dashboard"
	product "github.com/inventorypro/inventorypro-backend/internal/products"
	"github.com/inventorypro/inventorypro-backend/internal/users"
	"github.com/inventorypro/inventorypro-backend/pkg/auth/session"
	"github.com/inventorypro/inventorypro-backend/pkg/config"
	"github.com/inventorypro/inventorypro-backend/pkg/logger"
	"github.com/inventorypro/inventorypro-backend/pkg/metrics"
)

const adjustmentIdempotencyTTL = 24 * time.Hour

// CacheStore is the slice of the redis client the HTTP layer uses.
type CacheStore interface {
	Ping(ctx context.Context) error
	IncrWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error)
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	Del(ctx context.Context, keys ...string) error
	IdempotencyKey(scope, id string) string
}

// Services bundles the domain services mounted on the router.
type Services struct {
	Auth        auth.Service
	Register    auth.RegisterService
	Users       users.Service
	Products    product.Service
	Adjustments adjustments.Service
	Dashboard   dashboard.Service
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP controllers.Pinger,
	cache CacheStore,
	sessions session.AccessSessionChecker,
	httpMetrics *metrics.HTTPMetrics,
	gatherer prometheus.Gatherer,
	svc Services,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.RequestID(logg),
		middleware.Recoverer(logg),
		middleware.Logging(logg),
		middleware.Metrics(httpMetrics),
		middleware.CORS(cfg.CORS),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		"username",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginIdentityLimit,
	)
	signupPolicy := middleware.NewAuthRateLimitPolicy(
		"signup",
		"email",
		cfg.AuthRateLimit.SignupWindow,
		cfg.AuthRateLimit.SignupIPLimit,
		cfg.AuthRateLimit.SignupIdentityLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, dbP, cache, logg))
	})

	if gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(signupPolicy, cache, logg)).Post("/signup", controllers.AuthSignup(svc.Register, svc.Auth, cfg.Cookie, logg))
		r.With(middleware.AuthRateLimit(loginPolicy, cache, logg)).Post("/login", controllers.AuthLogin(svc.Auth, cfg.Cookie, logg))
		r.Post("/logout", controllers.AuthLogout(svc.Auth, cfg.JWT, cfg.Cookie, logg))
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, cfg.Cookie, sessions, logg))

		r.Route("/me", func(r chi.Router) {
			r.Get("/", controllers.MeProfile(svc.Users, logg))
			r.Put("/", controllers.MeUpdateProfile(svc.Users, svc.Auth, cfg.Cookie, logg))
			r.Get("/settings", controllers.MeSettings(svc.Users, logg))
			r.Put("/settings", controllers.MeUpdateSettings(svc.Users, logg))
			r.Put("/password", controllers.MeChangePassword(svc.Users, logg))
			r.Put("/avatar", controllers.MeUploadAvatar(svc.Users, cfg.Avatar, logg))
		})

		r.Route("/products", func(r chi.Router) {
			r.Get("/", controllers.ProductList(svc.Products, logg))
			r.Post("/", controllers.ProductCreate(svc.Products, logg))
			r.Get("/export", controllers.ProductExport(svc.Products, logg))
			r.Get("/{productId}", controllers.ProductDetail(svc.Products, logg))
			r.Put("/{productId}", controllers.ProductUpdate(svc.Products, logg))
			r.Delete("/{productId}", controllers.ProductDelete(svc.Products, logg))
		})

		r.Route("/stock-adjustments", func(r chi.Router) {
			r.Get("/", controllers.AdjustmentList(svc.Adjustments, logg))
			r.With(middleware.Idempotency(cache, adjustmentIdempotencyTTL, logg)).Post("/", controllers.AdjustmentSubmit(svc.Adjustments, logg))
			r.Get("/export", controllers.AdjustmentExport(svc.Adjustments, logg))
		})

		r.Route("/dashboard", func(r chi.Router) {
			r.Get("/", controllers.DashboardSummary(svc.Dashboard, logg))
			r.Get("/chart", controllers.DashboardChart(svc.Dashboard, logg))
		})
	})

	return r
}
