package main

import (
	"context"
	"os"

	compositeapp "github.com/sandcastle/microservices/internal/application/composite"
	"github.com/sandcastle/microservices/internal/bootstrap"
	"github.com/sandcastle/microservices/internal/infrastructure/config"
	"github.com/sandcastle/microservices/internal/infrastructure/integration"
	"github.com/sandcastle/microservices/internal/infrastructure/scheduler"
	"github.com/sandcastle/microservices/internal/interfaces/http/handler"
	"go.uber.org/zap"
)

//	@title			Product Composite API
//	@version		1.0
//	@description	Aggregates products with their recommendations and reviews

//	@host		localhost:7000
//	@BasePath	/

func main() {
	ctx := context.Background()

	app, err := bootstrap.New(ctx, config.ServiceComposite)
	if err != nil {
		panic("Failed to start product-composite: " + err.Error())
	}

	if err := run(ctx, app); err != nil {
		app.Logger.Error("Product composite stopped with error", zap.Error(err))
		_ = app.Close()
		os.Exit(1)
	}
	if err := app.Close(); err != nil {
		app.Logger.Warn("Shutdown completed with errors", zap.Error(err))
	}
}

func run(ctx context.Context, app *bootstrap.App) error {
	cfg := app.Config

	redisClient, err := app.RedisClient(ctx)
	if err != nil {
		return err
	}
	publisher, err := app.Publisher(redisClient)
	if err != nil {
		return err
	}

	pool, err := scheduler.New(scheduler.Config{
		Name:        "publish",
		Workers:     cfg.PublishPool.Workers,
		QueueSize:   cfg.PublishPool.QueueSize,
		TaskTimeout: cfg.PublishPool.TaskTimeout,
	}, app.Logger)
	if err != nil {
		return err
	}
	if err := pool.Start(ctx); err != nil {
		return err
	}
	// Registered after the publisher so queued events drain before it closes
	app.OnClose(func() error { return pool.Stop(context.Background()) })
	app.Metrics.RegisterScheduler(pool)

	gateway := integration.NewGateway(cfg.Integration, publisher, pool, app.Metrics, app.Logger)

	service := compositeapp.NewService(compositeapp.Clients{
		Products:        gateway,
		Recommendations: gateway,
		Reviews:         gateway,
		Health:          gateway,
		HealthTargets: map[string]string{
			config.ServiceProduct:        cfg.Integration.ProductURL,
			config.ServiceRecommendation: cfg.Integration.RecommendationURL,
			config.ServiceReview:         cfg.Integration.ReviewURL,
		},
	}, cfg.ServiceAddress(), app.Logger)

	return app.Serve(ctx, true,
		handler.NewCompositeHandler(service),
		handler.NewCompositeHealthHandler(service),
	)
}
