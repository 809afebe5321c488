package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ecocycle/ecocycle-backend/api/controllers"
	"github.com/ecocycle/ecocycle-backend/api/middleware"
	adminsvc "github.com/ecocycle/ecocycle-backend/internal/admin"
	authsvc "github.com/ecocycle/ecocycle-backend/internal/auth"
	pickupsvc "github.com/ecocycle/ecocycle-backend/internal/pickups"
	productsvc "github.com/ecocycle/ecocycle-backend/internal/products"
	"github.com/ecocycle/ecocycle-backend/pkg/auth/session"
	"github.com/ecocycle/ecocycle-backend/pkg/config"
	"github.com/ecocycle/ecocycle-backend/pkg/enums"
	"github.com/ecocycle/ecocycle-backend/pkg/logger"
	"github.com/ecocycle/ecocycle-backend/pkg/metrics"
	"github.com/ecocycle/ecocycle-backend/pkg/redis"
)

// Deps bundles everything the HTTP surface needs.
type Deps struct {
	Config         *config.Config
	Logger         *logger.Logger
	DB             controllers.Pinger
	Redis          *redis.Client
	Sessions       session.AccessSessionChecker
	AuthService    authsvc.Service
	PickupService  pickupsvc.Service
	ProductService productsvc.Service
	AdminService   adminsvc.Service
	HTTPMetrics    *metrics.HTTPMetrics
	Gatherer       prometheus.Gatherer
}

func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(deps.HTTPMetrics),
		middleware.CORS(),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit,
		cfg.AuthRateLimit.RegisterEmailLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, deps.DB, deps.Redis, logg))
	})

	if deps.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(
			middleware.AuthRateLimit(registerPolicy, deps.Redis, logg),
			middleware.Idempotency(deps.Redis, logg),
		).Post("/register", controllers.AuthRegister(deps.AuthService, logg))
		r.With(middleware.AuthRateLimit(loginPolicy, deps.Redis, logg)).Post("/login", controllers.AuthLogin(deps.AuthService, logg))
		r.Post("/refresh", controllers.AuthRefresh(deps.AuthService, logg))
		r.With(middleware.Auth(cfg.JWT, deps.Sessions, logg)).Post("/logout", controllers.AuthLogout(deps.AuthService, logg))
	})

	// Public marketplace browsing; buying and selling live behind auth below.
	r.Route("/api/products", func(r chi.Router) {
		r.Get("/", controllers.ProductList(deps.ProductService, logg))
		r.Get("/categories/list", controllers.ProductCategories(logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, deps.Sessions, logg))
			r.Use(middleware.Idempotency(deps.Redis, logg))

			r.Post("/", controllers.ProductCreate(deps.ProductService, logg))
			r.Get("/my-products", controllers.ProductListMine(deps.ProductService, logg))
			r.Get("/sold", controllers.ProductListSold(deps.ProductService, logg))
			r.Put("/{id}", controllers.ProductUpdate(deps.ProductService, logg))
			r.Delete("/{id}", controllers.ProductDelete(deps.ProductService, logg))
			r.Patch("/{id}/toggle-availability", controllers.ProductToggleAvailability(deps.ProductService, logg))
			r.Post("/{id}/buy", controllers.ProductBuy(deps.ProductService, logg))
		})

		// Keep the wildcard last so the fixed paths above win.
		r.Get("/{id}", controllers.ProductGet(deps.ProductService, logg))
	})

	r.Route("/api/pickup", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, deps.Sessions, logg))
		r.Use(middleware.Idempotency(deps.Redis, logg))

		r.Post("/", controllers.PickupCreate(deps.PickupService, logg))
		r.Get("/my-pickups", controllers.PickupListMine(deps.PickupService, logg))
		r.Get("/track/{code}", controllers.PickupTrack(deps.PickupService, logg))
		r.Post("/scan", controllers.PickupScan(deps.PickupService, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole(logg, string(enums.UserRoleAdmin), string(enums.UserRoleNGO)))
			r.Get("/", controllers.PickupListAll(deps.PickupService, logg))
		})
		r.With(middleware.RequireRole(logg, string(enums.UserRoleAdmin))).
			Get("/recent", controllers.PickupRecent(deps.PickupService, logg))

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", controllers.PickupGet(deps.PickupService, logg))
			r.Get("/qr", controllers.PickupQR(deps.PickupService, logg))
			r.Patch("/status", controllers.PickupUpdateStatus(deps.PickupService, logg))
			r.With(middleware.RequireRole(logg, string(enums.UserRoleAdmin))).
				Patch("/assign", controllers.PickupAssign(deps.PickupService, logg))
		})
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, deps.Sessions, logg))
		r.Use(middleware.RequireRole(logg, string(enums.UserRoleAdmin)))
		r.Get("/stats", controllers.AdminStats(deps.AdminService, logg))
	})

	return r
}
