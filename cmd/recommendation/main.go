package main

import (
	"context"
	"os"

	"github.com/sandcastle/microservices/internal/application/event"
	recommendationapp "github.com/sandcastle/microservices/internal/application/recommendation"
	"github.com/sandcastle/microservices/internal/bootstrap"
	"github.com/sandcastle/microservices/internal/domain/recommendation"
	"github.com/sandcastle/microservices/internal/infrastructure/config"
	"github.com/sandcastle/microservices/internal/infrastructure/messaging"
	"github.com/sandcastle/microservices/internal/infrastructure/persistence"
	"github.com/sandcastle/microservices/internal/interfaces/http/handler"
	"go.uber.org/zap"
)

func main() {
	ctx := context.Background()

	app, err := bootstrap.New(ctx, config.ServiceRecommendation)
	if err != nil {
		panic("Failed to start recommendation service: " + err.Error())
	}

	if err := run(ctx, app); err != nil {
		app.Logger.Error("Recommendation service stopped with error", zap.Error(err))
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

	service := recommendationapp.NewService(persistence.NewGormRecommendationRepository(db.DB), app.Config.ServiceAddress(), app.Logger)

	processor := event.NewMessageProcessor[recommendation.Recommendation]("recommendation", service, app.Logger)
	if err := app.Consume(ctx, redisClient, messaging.ChannelRecommendations, processor); err != nil {
		return err
	}

	return app.Serve(ctx, false,
		handler.NewRecommendationHandler(service),
		handler.NewHealthHandler(map[string]handler.HealthCheck{"db": db.Ping}),
	)
}
