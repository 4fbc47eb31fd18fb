package main

import (
	"context"
	"os"

	"github.com/sandcastle/microservices/internal/application/event"
	productapp "github.com/sandcastle/microservices/internal/application/product"
	"github.com/sandcastle/microservices/internal/bootstrap"
	"github.com/sandcastle/microservices/internal/domain/product"
	"github.com/sandcastle/microservices/internal/infrastructure/config"
	"github.com/sandcastle/microservices/internal/infrastructure/messaging"
	"github.com/sandcastle/microservices/internal/infrastructure/persistence"
	"github.com/sandcastle/microservices/internal/interfaces/http/handler"
	"go.uber.org/zap"
)

func main() {
	ctx := context.Background()

	app, err := bootstrap.New(ctx, config.ServiceProduct)
	if err != nil {
		panic("Failed to start product service: " + err.Error())
	}

	if err := run(ctx, app); err != nil {
		app.Logger.Error("Product service stopped with error", zap.Error(err))
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

	service := productapp.NewService(persistence.NewGormProductRepository(db.DB), app.Config.ServiceAddress(), app.Logger)

	processor := event.NewMessageProcessor[product.Product]("product", service, app.Logger)
	if err := app.Consume(ctx, redisClient, messaging.ChannelProducts, processor); err != nil {
		return err
	}

	return app.Serve(ctx, false,
		handler.NewProductHandler(service),
		handler.NewHealthHandler(map[string]handler.HealthCheck{"db": db.Ping}),
	)
}
