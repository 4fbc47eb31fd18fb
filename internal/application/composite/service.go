// Package composite implements the product-composite aggregation service.
package composite

import (
	"context"
	"fmt"

	"github.com/sandcastle/microservices/internal/domain/composite"
	"github.com/sandcastle/microservices/internal/domain/product"
	"github.com/sandcastle/microservices/internal/domain/recommendation"
	"github.com/sandcastle/microservices/internal/domain/review"
	"github.com/sandcastle/microservices/internal/domain/shared"
	"github.com/sandcastle/microservices/internal/infrastructure/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ProductClient reads products and publishes product events
type ProductClient interface {
	GetProduct(ctx context.Context, productID int) (*product.Product, error)
	CreateProduct(ctx context.Context, body product.Product) error
	DeleteProduct(ctx context.Context, productID int) error
}

// RecommendationClient reads recommendations and publishes recommendation events.
// GetRecommendations never fails; an unreachable service yields an empty slice.
type RecommendationClient interface {
	GetRecommendations(ctx context.Context, productID int) []recommendation.Recommendation
	CreateRecommendation(ctx context.Context, body recommendation.Recommendation) error
	DeleteRecommendations(ctx context.Context, productID int) error
}

// ReviewClient reads reviews and publishes review events.
// GetReviews never fails; an unreachable service yields an empty slice.
type ReviewClient interface {
	GetReviews(ctx context.Context, productID int) []review.Review
	CreateReview(ctx context.Context, body review.Review) error
	DeleteReviews(ctx context.Context, productID int) error
}

// HealthChecker probes a service's health endpoint
type HealthChecker interface {
	Health(ctx context.Context, serviceURL string) HealthStatus
}

// Clients groups the downstream capabilities the service depends on
type Clients struct {
	Products        ProductClient
	Recommendations RecommendationClient
	Reviews         ReviewClient
	Health          HealthChecker
	// HealthTargets maps a component name to the base URL probed for it
	HealthTargets map[string]string
}

// Service aggregates the backing services behind one API
type Service struct {
	clients        Clients
	serviceAddress string
	logger         *zap.Logger
}

// NewService creates the composite service. serviceAddress is reported as the
// composite's own address in every aggregate.
func NewService(clients Clients, serviceAddress string, logger *zap.Logger) *Service {
	return &Service{
		clients:        clients,
		serviceAddress: serviceAddress,
		logger:         logger,
	}
}

// GetProduct reads the product first, then its recommendations and reviews in
// parallel. A failed product read fails the whole request.
func (s *Service) GetProduct(ctx context.Context, productID int) (agg *composite.ProductAggregate, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "product_composite", "get", attribute.Int("product.id", productID))
	defer func() { telemetry.EndSpan(span, err) }()

	if err := shared.ValidateProductID(productID); err != nil {
		return nil, err
	}
	s.logger.Info("Will get composite product info for product.id", zap.Int("product_id", productID))

	p, err := s.clients.Products.GetProduct(ctx, productID)
	if err != nil {
		return nil, err
	}

	var (
		recommendations []recommendation.Recommendation
		reviews         []review.Review
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		recommendations = s.clients.Recommendations.GetRecommendations(gctx, productID)
		return nil
	})
	g.Go(func() error {
		reviews = s.clients.Reviews.GetReviews(gctx, productID)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	s.logger.Debug("getCompositeProduct: aggregate built",
		zap.Int("product_id", productID),
		zap.Int("recommendations", len(recommendations)),
		zap.Int("reviews", len(reviews)),
	)
	return composite.NewProductAggregate(p, recommendations, reviews, s.serviceAddress), nil
}

// CreateProduct publishes a CREATE for the product, then one per recommendation
// and review. The first failure stops the remaining sends; earlier ones stand.
func (s *Service) CreateProduct(ctx context.Context, agg *composite.ProductAggregate) (err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "product_composite", "create", attribute.Int("product.id", agg.ProductID))
	defer func() { telemetry.EndSpan(span, err) }()

	if err := shared.ValidateProductID(agg.ProductID); err != nil {
		return err
	}

	s.logger.Debug("createCompositeProduct: creates a new composite entity", zap.Int("product_id", agg.ProductID))
	if err := s.clients.Products.CreateProduct(ctx, agg.Product()); err != nil {
		return s.publishFailed("product", agg.ProductID, err)
	}

	for _, r := range agg.RecommendationEntities() {
		if err := s.clients.Recommendations.CreateRecommendation(ctx, r); err != nil {
			return s.publishFailed("recommendation", agg.ProductID, err)
		}
	}

	for _, r := range agg.ReviewEntities() {
		if err := s.clients.Reviews.CreateReview(ctx, r); err != nil {
			return s.publishFailed("review", agg.ProductID, err)
		}
	}

	s.logger.Debug("createCompositeProduct: composite entities created", zap.Int("product_id", agg.ProductID))
	return nil
}

// DeleteProduct publishes DELETE events for the product, its recommendations and its reviews
func (s *Service) DeleteProduct(ctx context.Context, productID int) (err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "product_composite", "delete", attribute.Int("product.id", productID))
	defer func() { telemetry.EndSpan(span, err) }()

	if err := shared.ValidateProductID(productID); err != nil {
		return err
	}

	s.logger.Debug("deleteCompositeProduct: deletes a product aggregate", zap.Int("product_id", productID))
	if err := s.clients.Products.DeleteProduct(ctx, productID); err != nil {
		return s.publishFailed("product", productID, err)
	}
	if err := s.clients.Recommendations.DeleteRecommendations(ctx, productID); err != nil {
		return s.publishFailed("recommendation", productID, err)
	}
	if err := s.clients.Reviews.DeleteReviews(ctx, productID); err != nil {
		return s.publishFailed("review", productID, err)
	}

	s.logger.Debug("deleteCompositeProduct: aggregate entities deleted", zap.Int("product_id", productID))
	return nil
}

func (s *Service) publishFailed(entity string, productID int, err error) error {
	s.logger.Warn(fmt.Sprintf("Failed to publish %s event", entity),
		zap.Int("product_id", productID),
		zap.Error(err),
	)
	return err
}
