// Package bootstrap holds the startup and shutdown sequence shared by every
// binary under cmd/.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/multierr"

	"github.com/inventorypro/inventorypro-backend/pkg/config"
	"github.com/inventorypro/inventorypro-backend/pkg/db"
	"github.com/inventorypro/inventorypro-backend/pkg/logger"
	"github.com/inventorypro/inventorypro-backend/pkg/migrate"
	"github.com/inventorypro/inventorypro-backend/pkg/pubsub"
	"github.com/inventorypro/inventorypro-backend/pkg/redis"
)

type closer struct {
	name string
	fn   func() error
}

// Runtime carries the loaded config, the service logger and the resources
// to release on exit.
type Runtime struct {
	Config  *config.Config
	Logger  *logger.Logger
	closers []closer
}

// Init loads .env and the environment, then builds the logger at the
// configured level.
func Init(kind string) (*Runtime, error) {
	boot := logger.New(logger.Options{ServiceName: kind})
	if err := godotenv.Load(); err != nil {
		boot.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		return &Runtime{Logger: boot}, fmt.Errorf("load config: %w", err)
	}
	cfg.Service.Kind = kind

	return &Runtime{
		Config: cfg,
		Logger: logger.New(logger.Options{
			ServiceName: kind,
			Level:       logger.ParseLevel(cfg.App.LogLevel),
			WarnStack:   cfg.App.LogWarnStack,
		}),
	}, nil
}

// OnClose registers fn to run during Close. Closers run in reverse order.
func (r *Runtime) OnClose(name string, fn func() error) {
	r.closers = append(r.closers, closer{name: name, fn: fn})
}

// Close runs every registered closer, even after a failure, and combines
// their errors.
func (r *Runtime) Close() error {
	var err error
	for i := len(r.closers) - 1; i >= 0; i-- {
		c := r.closers[i]
		if cerr := c.fn(); cerr != nil {
			err = multierr.Append(err, fmt.Errorf("close %s: %w", c.name, cerr))
		}
	}
	r.closers = nil
	return err
}

// OpenDB connects to postgres and, in dev with auto-migrate on, applies
// pending migrations.
func (r *Runtime) OpenDB(ctx context.Context) (*db.Client, error) {
	client, err := db.New(ctx, r.Config.DB, r.Logger)
	if err != nil {
		return nil, fmt.Errorf("bootstrap database: %w", err)
	}
	r.OnClose("database", client.Close)
	if err := migrate.MaybeRunDev(ctx, r.Config, r.Logger, client); err != nil {
		return nil, fmt.Errorf("run dev migrations: %w", err)
	}
	return client, nil
}

func (r *Runtime) OpenRedis(ctx context.Context) (*redis.Client, error) {
	client, err := redis.New(ctx, r.Config.Redis, r.Logger)
	if err != nil {
		return nil, fmt.Errorf("bootstrap redis: %w", err)
	}
	r.OnClose("redis", client.Close)
	return client, nil
}

func (r *Runtime) OpenPubSub(ctx context.Context, role pubsub.Role) (*pubsub.Client, error) {
	client, err := pubsub.NewClient(ctx, r.Config.GCP, r.Config.PubSub, role, r.Logger)
	if err != nil {
		return nil, fmt.Errorf("bootstrap pubsub: %w", err)
	}
	r.OnClose("pubsub client", client.Close)
	return client, nil
}

// Main initializes the runtime, runs fn until SIGINT or SIGTERM, releases
// resources and exits non-zero when fn fails. Cancellation is a clean stop.
func Main(kind string, fn func(ctx context.Context, rt *Runtime) error) {
	rt, err := Init(kind)
	if err != nil {
		rt.Logger.Error(context.Background(), "failed to start "+kind, err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	ctx = rt.Logger.WithFields(ctx, map[string]any{
		"env":         rt.Config.App.Env,
		"serviceKind": kind,
	})

	err = fn(ctx, rt)
	stop()
	if cerr := rt.Close(); cerr != nil {
		rt.Logger.Error(ctx, "error releasing resources", cerr)
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		rt.Logger.Error(ctx, kind+" stopped unexpectedly", err)
		os.Exit(1)
	}
	rt.Logger.Info(ctx, kind+" shut down gracefully")
}
