package main

import (
	"context"
	"os"

	"github.com/sandcastle/microservices/internal/application/event"
	reviewapp "github.com/sandcastle/microservices/internal/application/review"
	"github.com/sandcastle/microservices/internal/bootstrap"
	"github.com/sandcastle/microservices/internal/domain/review"
	"github.com/sandcastle/microservices/internal/infrastructure/config"
	"github.com/sandcastle/microservices/internal/infrastructure/messaging"
	"github.com/sandcastle/microservices/internal/infrastructure/persistence"
	"github.com/sandcastle/microservices/internal/infrastructure/scheduler"
	"github.com/sandcastle/microservices/internal/interfaces/http/handler"
	"go.uber.org/zap"
)

func main() {
	ctx := context.Background()

	app, err := bootstrap.New(ctx, config.ServiceReview)
	if err != nil {
		panic("Failed to start review service: " + err.Error())
	}

	if err := run(ctx, app); err != nil {
		app.Logger.Error("Review service stopped with error", zap.Error(err))
		_ = app.Close()
		os.Exit(1)
	}
	if err := app.Close(); err != nil {
		app.Logger.Warn("Shutdown completed with errors", zap.Error(err))
	}
}

func run(ctx context.Context, app *bootstrap.App) error {
	db, err := app.OpenDatabase(ctx)
	if err != nil {
		return err
	}
	redisClient, err := app.RedisClient(ctx)
	if err != nil {
		return err
	}

	storePool, err := scheduler.New(scheduler.Config{
		Name:        "review-store",
		Workers:     app.Config.StorePool.Workers,
		QueueSize:   app.Config.StorePool.QueueSize,
		TaskTimeout: app.Config.StorePool.TaskTimeout,
	}, app.Logger)
	if err != nil {
		return err
	}
	if err := storePool.Start(ctx); err != nil {
		return err
	}
	app.OnClose(func() error { return storePool.Stop(context.Background()) })
	app.Metrics.RegisterScheduler(storePool)

	service := reviewapp.NewService(persistence.NewGormReviewRepository(db.DB), storePool, app.Config.ServiceAddress(), app.Logger)

	processor := event.NewMessageProcessor[review.Review]("review", service, app.Logger)
	if err := app.Consume(ctx, redisClient, messaging.ChannelReviews, processor); err != nil {
		return err
	}

	return app.Serve(ctx, false,
		handler.NewReviewHandler(service),
		handler.NewHealthHandler(map[string]handler.HealthCheck{"db": db.Ping}),
	)
}
