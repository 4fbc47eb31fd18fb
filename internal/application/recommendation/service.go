// Package recommendation implements the recommendation backing service.
package recommendation

import (
	"context"
	"errors"
	"fmt"

	"github.com/sandcastle/microservices/internal/domain/recommendation"
	"github.com/sandcastle/microservices/internal/domain/shared"
	"go.uber.org/zap"
)

// Service handles recommendation operations
type Service struct {
	repo           recommendation.Repository
	serviceAddress string
	logger         *zap.Logger
}

// NewService creates a new recommendation Service
func NewService(repo recommendation.Repository, serviceAddress string, logger *zap.Logger) *Service {
	return &Service{
		repo:           repo,
		serviceAddress: serviceAddress,
		logger:         logger,
	}
}

// List returns the recommendations of productID, possibly empty
func (s *Service) List(ctx context.Context, productID int) ([]recommendation.Recommendation, error) {
	if err := shared.ValidateProductID(productID); err != nil {
		return nil, err
	}

	recs, err := s.repo.FindByProductID(ctx, productID)
	if err != nil {
		return nil, err
	}
	for i := range recs {
		recs[i].ServiceAddress = s.serviceAddress
	}

	s.logger.Debug("getRecommendations: response size", zap.Int("product_id", productID), zap.Int("size", len(recs)))
	return recs, nil
}

// Create stores a new recommendation
func (s *Service) Create(ctx context.Context, rec *recommendation.Recommendation) (*recommendation.Recommendation, error) {
	if err := rec.Validate(); err != nil {
		return nil, err
	}

	created := *rec
	if err := s.repo.Create(ctx, &created); err != nil {
		if errors.Is(err, shared.ErrAlreadyExists) {
			return nil, shared.WrapDomainError(shared.CodeInvalidInput,
				fmt.Sprintf("Duplicate key, Product Id: %d, Recommendation Id:%d", rec.ProductID, rec.RecommendationID), err)
		}
		return nil, err
	}

	s.logger.Debug("createRecommendation: entity created",
		zap.Int("product_id", created.ProductID),
		zap.Int("recommendation_id", created.RecommendationID),
	)
	created.ServiceAddress = s.serviceAddress
	return &created, nil
}

// Update writes rec if its version is current
func (s *Service) Update(ctx context.Context, rec *recommendation.Recommendation) (*recommendation.Recommendation, error) {
	if err := rec.Validate(); err != nil {
		return nil, err
	}

	updated := *rec
	if err := s.repo.Update(ctx, &updated); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainErrorf(shared.CodeNotFound,
				"No recommendation found for productId: %d, recommendationId: %d", rec.ProductID, rec.RecommendationID)
		}
		return nil, err
	}

	updated.ServiceAddress = s.serviceAddress
	return &updated, nil
}

// Delete removes every recommendation of productID
func (s *Service) Delete(ctx context.Context, productID int) error {
	if err := shared.ValidateProductID(productID); err != nil {
		return err
	}

	s.logger.Debug("deleteRecommendations: tries to delete recommendations", zap.Int("product_id", productID))
	return s.repo.DeleteByProductID(ctx, productID)
}
