// Package product implements the product backing service.
package product

import (
	"context"
	"errors"
	"fmt"

	"github.com/sandcastle/microservices/internal/domain/product"
	"github.com/sandcastle/microservices/internal/domain/shared"
	"go.uber.org/zap"
)

// Service handles product operations for both the HTTP API and the event consumer
type Service struct {
	repo           product.Repository
	serviceAddress string
	logger         *zap.Logger
}

// NewService creates a new product Service. serviceAddress is stamped on every
// product it returns.
func NewService(repo product.Repository, serviceAddress string, logger *zap.Logger) *Service {
	return &Service{
		repo:           repo,
		serviceAddress: serviceAddress,
		logger:         logger,
	}
}

// Get returns the product with productID
func (s *Service) Get(ctx context.Context, productID int) (*product.Product, error) {
	if err := shared.ValidateProductID(productID); err != nil {
		return nil, err
	}

	p, err := s.repo.FindByProductID(ctx, productID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainErrorf(shared.CodeNotFound, "No product found for productId: %d", productID)
		}
		return nil, err
	}

	s.logger.Debug("getProduct: found product", zap.Int("product_id", p.ProductID))
	p.ServiceAddress = s.serviceAddress
	return p, nil
}

// Create stores a new product
func (s *Service) Create(ctx context.Context, p *product.Product) (*product.Product, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	created := *p
	if err := s.repo.Create(ctx, &created); err != nil {
		if errors.Is(err, shared.ErrAlreadyExists) {
			return nil, shared.WrapDomainError(shared.CodeInvalidInput,
				fmt.Sprintf("Duplicate key, Product Id: %d", p.ProductID), err)
		}
		return nil, err
	}

	s.logger.Debug("createProduct: entity created", zap.Int("product_id", created.ProductID))
	created.ServiceAddress = s.serviceAddress
	return &created, nil
}

// Update writes p if its version is current
func (s *Service) Update(ctx context.Context, p *product.Product) (*product.Product, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	updated := *p
	if err := s.repo.Update(ctx, &updated); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainErrorf(shared.CodeNotFound, "No product found for productId: %d", p.ProductID)
		}
		return nil, err
	}

	updated.ServiceAddress = s.serviceAddress
	return &updated, nil
}

// Delete removes the product; deleting a missing product succeeds
func (s *Service) Delete(ctx context.Context, productID int) error {
	if err := shared.ValidateProductID(productID); err != nil {
		return err
	}

	s.logger.Debug("deleteProduct: tries to delete product", zap.Int("product_id", productID))
	return s.repo.DeleteByProductID(ctx, productID)
}
