// Package bootstrap wires the pieces every binary shares: configuration,
// logging, telemetry, stores, messaging and the HTTP server.
package bootstrap

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/sandcastle/microservices/internal/infrastructure/cache"
	"github.com/sandcastle/microservices/internal/infrastructure/config"
	"github.com/sandcastle/microservices/internal/infrastructure/logger"
	"github.com/sandcastle/microservices/internal/infrastructure/migration"
	"github.com/sandcastle/microservices/internal/infrastructure/persistence"
	"github.com/sandcastle/microservices/internal/infrastructure/telemetry"
	"github.com/sandcastle/microservices/internal/interfaces/http/middleware"
	"github.com/sandcastle/microservices/internal/interfaces/http/router"
	"github.com/sandcastle/microservices/internal/interfaces/http/server"
	"go.uber.org/zap"
)

// App holds the shared infrastructure of one running binary
type App struct {
	Config  *config.Config
	Logger  *zap.Logger
	Tracer  *telemetry.TracerProvider
	Metrics *telemetry.Metrics

	closers []func() error
}

// New loads the configuration for service and sets up logging, tracing and metrics
func New(ctx context.Context, service string) (*App, error) {
	cfg, err := config.Load(service)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
		Service:    cfg.App.Name,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	return NewWithConfig(ctx, cfg, log)
}

// NewWithConfig builds an App from an already loaded configuration
func NewWithConfig(ctx context.Context, cfg *config.Config, log *zap.Logger) (*App, error) {
	tp, err := telemetry.NewTracerProvider(ctx, cfg.Telemetry, log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize tracing: %w", err)
	}

	app := &App{
		Config: cfg,
		Logger: log,
		Tracer: tp,
	}
	if cfg.Metrics.Enabled {
		app.Metrics = telemetry.NewMetrics(cfg.App.Name)
	}

	log.Info("Starting service",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("transport", cfg.Event.Transport),
	)
	return app, nil
}

// OnClose registers fn to run when the App closes; the last registered runs first
func (a *App) OnClose(fn func() error) {
	a.closers = append(a.closers, fn)
}

// Close releases everything registered with OnClose, then flushes telemetry and logs
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil

	if a.Tracer != nil {
		if err := a.Tracer.Shutdown(context.Background()); err != nil {
			errs = append(errs, err)
		}
	}
	_ = logger.Sync(a.Logger)
	return errors.Join(errs...)
}

// OpenDatabase connects to the store and, when database.auto_migrate is set,
// brings its schema up to date: versioned migrations on postgres, gorm's
// AutoMigrate on sqlite.
func (a *App) OpenDatabase(ctx context.Context) (*persistence.Database, error) {
	db, err := persistence.NewDatabase(&a.Config.Database, a.Logger, a.Config.Log.Level)
	if err != nil {
		return nil, err
	}
	a.OnClose(db.Close)
	a.Logger.Info("Database connected successfully", zap.String("driver", a.Config.Database.Driver))

	if !a.Config.Database.AutoMigrate && a.Config.Database.Driver != "sqlite" {
		return db, nil
	}

	if a.Config.Database.Driver == "sqlite" {
		if err := db.AutoMigrate(); err != nil {
			return nil, fmt.Errorf("failed to migrate database: %w", err)
		}
		return db, nil
	}

	sqlDB, err := db.DB.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	m, err := migration.New(sqlDB, a.Config.App.Name, a.Logger)
	if err != nil {
		return nil, err
	}
	// Closing the migrator would close the shared connection pool
	if err := m.Up(); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return db, nil
}

// RedisClient connects to Redis when the redis transport or the Redis
// idempotency store is configured, and returns nil otherwise.
func (a *App) RedisClient(ctx context.Context) (redis.UniversalClient, error) {
	needed := a.Config.Event.Transport == config.TransportRedis ||
		(a.Config.Idempotency.Enabled && a.Config.Idempotency.UseRedis)
	if !needed {
		return nil, nil
	}

	client, err := cache.NewRedisClient(ctx, a.Config.Redis)
	if err != nil {
		if a.Config.Event.Transport == config.TransportRedis {
			return nil, err
		}
		a.Logger.Warn("Redis unavailable, continuing without it", zap.Error(err))
		return nil, nil
	}
	a.OnClose(client.Close)
	return client, nil
}

// Serve builds the gin engine, mounts the registrars and runs the HTTP server
// until ctx ends or the process is signalled.
func (a *App) Serve(ctx context.Context, rateLimited bool, registrars ...router.RouteRegistrar) error {
	middleware.SetupValidator()

	engineCfg := router.EngineConfig{
		ServiceName:      a.Config.App.Name,
		Tracing:          a.Tracer.IsEnabled(),
		Metrics:          a.Metrics,
		CORSAllowOrigins: a.Config.HTTP.CORSAllowOrigins,
	}
	if rateLimited && a.Config.HTTP.RateLimitEnabled {
		limiter := middleware.NewRateLimiter(a.Config.HTTP.RateLimitRequests, a.Config.HTTP.RateLimitBurst)
		defer limiter.Stop()
		engineCfg.RateLimiter = limiter
	}

	engine := router.NewEngine(engineCfg, a.Logger)

	var opts []router.RouterOption
	if a.Metrics != nil {
		opts = append(opts, router.WithMetrics(a.Metrics, a.Config.Metrics.Path))
	}
	r := router.NewRouter(engine, opts...)
	for _, registrar := range registrars {
		r.Register(registrar)
	}
	r.Setup()

	return server.Run(ctx, server.New(a.Config.App.Port, engine, a.Config.HTTP), a.Logger)
}
