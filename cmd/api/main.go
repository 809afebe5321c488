package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/ecocycle/ecocycle-backend/api/routes"
	adminsvc "github.com/ecocycle/ecocycle-backend/internal/admin"
	authsvc "github.com/ecocycle/ecocycle-backend/internal/auth"
	pickupsvc "github.com/ecocycle/ecocycle-backend/internal/pickups"
	productsvc "github.com/ecocycle/ecocycle-backend/internal/products"
	"github.com/ecocycle/ecocycle-backend/internal/qr"
	"github.com/ecocycle/ecocycle-backend/internal/users"
	"github.com/ecocycle/ecocycle-backend/pkg/auth/session"
	"github.com/ecocycle/ecocycle-backend/pkg/config"
	"github.com/ecocycle/ecocycle-backend/pkg/db"
	"github.com/ecocycle/ecocycle-backend/pkg/logger"
	"github.com/ecocycle/ecocycle-backend/pkg/metrics"
	"github.com/ecocycle/ecocycle-backend/pkg/migrate"
	"github.com/ecocycle/ecocycle-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, cfg.FeatureFlags.UseSQLite, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		logg.Error(context.Background(), "failed to create session manager", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	httpMetrics := metrics.NewHTTPMetrics(registry)
	scanMetrics := metrics.NewScanMetrics(registry)

	usersRepo := users.NewRepository(dbClient.DB())
	pickupsRepo := pickupsvc.NewRepository(dbClient.DB())
	productsRepo := productsvc.NewRepository(dbClient.DB())

	authService, err := authsvc.NewService(usersRepo, sessionManager, cfg.JWT, cfg.Password)
	if err != nil {
		logg.Error(context.Background(), "failed to create auth service", err)
		os.Exit(1)
	}

	codec := qr.NewCodec(cfg.QR.ImageSize)
	pickupService, err := pickupsvc.NewService(pickupsRepo, usersRepo, codec, scanMetrics)
	if err != nil {
		logg.Error(context.Background(), "failed to create pickup service", err)
		os.Exit(1)
	}

	productService, err := productsvc.NewService(productsRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create product service", err)
		os.Exit(1)
	}

	adminService, err := adminsvc.NewService(usersRepo, pickupsRepo, productsRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create admin service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.Deps{
			Config:         cfg,
			Logger:         logg,
			DB:             dbClient,
			Redis:          redisClient,
			Sessions:       sessionManager,
			AuthService:    authService,
			PickupService:  pickupService,
			ProductService: productService,
			AdminService:   adminService,
			HTTPMetrics:    httpMetrics,
			Gatherer:       registry,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
