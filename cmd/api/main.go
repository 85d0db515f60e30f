package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/inventorypro/inventorypro-backend/api/routes"
	"github.com/inventorypro/inventorypro-backend/internal/adjustments"
	"github.com/inventorypro/inventorypro-backend/internal/auth"
	"github.com/inventorypro/inventorypro-backend/internal/bootstrap"
	"github.com/inventorypro/inventorypro-backend/internal/dashboard"
	product "github.com/inventorypro/inventorypro-backend/internal/products"
	"github.com/inventorypro/inventorypro-backend/internal/users"
	"github.com/inventorypro/inventorypro-backend/pkg/auth/session"
	"github.com/inventorypro/inventorypro-backend/pkg/config"
	"github.com/inventorypro/inventorypro-backend/pkg/db"
	"github.com/inventorypro/inventorypro-backend/pkg/logger"
	"github.com/inventorypro/inventorypro-backend/pkg/metrics"
	"github.com/inventorypro/inventorypro-backend/pkg/outbox"
	"github.com/inventorypro/inventorypro-backend/pkg/storage/gcs"
)

func main() {
	bootstrap.Main("api", run)
}

func run(ctx context.Context, rt *bootstrap.Runtime) error {
	cfg, logg := rt.Config, rt.Logger

	dbClient, err := rt.OpenDB(ctx)
	if err != nil {
		return err
	}
	redisClient, err := rt.OpenRedis(ctx)
	if err != nil {
		return err
	}
	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		return fmt.Errorf("create session manager: %w", err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	httpMetrics := metrics.NewHTTPMetrics(registry)
	inventoryMetrics := metrics.NewInventoryMetrics(registry)

	var avatars *gcs.Client
	if cfg.GCS.AvatarBucket != "" {
		avatars, err = gcs.NewClient(ctx, cfg.GCS, cfg.GCP, logg)
		if err != nil {
			return fmt.Errorf("bootstrap avatar storage: %w", err)
		}
		rt.OnClose("avatar storage", avatars.Close)
	} else {
		logg.Warn(ctx, "avatar bucket not configured; avatar uploads disabled")
	}

	services, err := buildServices(cfg, logg, dbClient, sessionManager, avatars, inventoryMetrics)
	if err != nil {
		return fmt.Errorf("wire services: %w", err)
	}

	server := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      routes.NewRouter(cfg, logg, dbClient, redisClient, sessionManager, httpMetrics, registry, services),
		ReadTimeout:  cfg.App.ReadTimeout,
		WriteTimeout: cfg.App.WriteTimeout,
		BaseContext:  func(net.Listener) context.Context { return ctx },
	}
	return serve(ctx, logg.WithField(ctx, "addr", server.Addr), logg, server, cfg.App.ShutdownTimeout)
}

// serve blocks until the server fails or ctx is canceled, then drains
// in-flight requests for up to shutdownTimeout.
func serve(ctx, logCtx context.Context, logg *logger.Logger, server *http.Server, shutdownTimeout time.Duration) error {
	serverErr := make(chan error, 1)
	go func() {
		logg.Info(logCtx, "starting api server")
		serverErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serverErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		logg.Info(logCtx, "shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	return nil
}

func buildServices(
	cfg *config.Config,
	logg *logger.Logger,
	dbClient *db.Client,
	sessionManager *session.Manager,
	avatars *gcs.Client,
	inventoryMetrics *metrics.InventoryMetrics,
) (routes.Services, error) {
	userRepo := users.NewRepository(dbClient.DB())
	productRepo := product.NewRepository(dbClient.DB())
	adjustmentRepo := adjustments.NewRepository(dbClient.DB())

	authService, err := auth.NewService(auth.ServiceParams{
		UserRepo:       userRepo,
		SessionManager: sessionManager,
		JWTConfig:      cfg.JWT,
		PasswordConfig: cfg.Password,
	})
	if err != nil {
		return routes.Services{}, err
	}

	registerService, err := auth.NewRegisterService(auth.RegisterServiceParams{
		DB:                   dbClient,
		PasswordConfig:       cfg.Password,
		DefaultLowStockLimit: cfg.Inventory.DefaultLowStockLimit,
	})
	if err != nil {
		return routes.Services{}, err
	}

	userParams := users.ServiceParams{
		Repo:           userRepo,
		PasswordConfig: cfg.Password,
		AvatarConfig:   cfg.Avatar,
	}
	if avatars != nil {
		userParams.Avatars = avatars
	}
	userService, err := users.NewService(userParams)
	if err != nil {
		return routes.Services{}, err
	}

	productService, err := product.NewService(productRepo, dbClient)
	if err != nil {
		return routes.Services{}, err
	}

	adjustmentService, err := adjustments.NewService(adjustments.Config{
		DB:          dbClient,
		Repo:        adjustmentRepo,
		Products:    productRepo,
		Outbox:      outbox.NewService(outbox.NewRepository(dbClient.DB()), logg),
		Metrics:     inventoryMetrics,
		Logger:      logg,
		MaxAttempts: cfg.Inventory.AdjustmentMaxRetries,
	})
	if err != nil {
		return routes.Services{}, err
	}

	dashboardService, err := dashboard.NewService(dashboard.NewRepository(dbClient.DB()), adjustmentRepo)
	if err != nil {
		return routes.Services{}, err
	}

	return routes.Services{
		Auth:        authService,
		Register:    registerService,
		Users:       userService,
		Products:    productService,
		Adjustments: adjustmentService,
		Dashboard:   dashboardService,
	}, nil
}
