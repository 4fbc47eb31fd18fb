// Package review implements the review backing service. Its relational store
// calls run on a dedicated bounded scheduler instead of the caller's goroutine.
package review

import (
	"context"
	"errors"
	"fmt"

	"github.com/sandcastle/microservices/internal/domain/review"
	"github.com/sandcastle/microservices/internal/domain/shared"
	"github.com/sandcastle/microservices/internal/infrastructure/scheduler"
	"go.uber.org/zap"
)

// Service handles review operations
type Service struct {
	repo           review.Repository
	store          *scheduler.Scheduler
	serviceAddress string
	logger         *zap.Logger
}

// NewService creates a new review Service. store must be started by the caller.
func NewService(repo review.Repository, store *scheduler.Scheduler, serviceAddress string, logger *zap.Logger) *Service {
	return &Service{
		repo:           repo,
		store:          store,
		serviceAddress: serviceAddress,
		logger:         logger,
	}
}

// List returns the reviews of productID, possibly empty
func (s *Service) List(ctx context.Context, productID int) ([]review.Review, error) {
	if err := shared.ValidateProductID(productID); err != nil {
		return nil, err
	}

	var reviews []review.Review
	err := s.run(ctx, "review.list", func(ctx context.Context) error {
		var err error
		reviews, err = s.repo.FindByProductID(ctx, productID)
		return err
	})
	if err != nil {
		return nil, err
	}
	for i := range reviews {
		reviews[i].ServiceAddress = s.serviceAddress
	}

	s.logger.Debug("getReviews: response size", zap.Int("product_id", productID), zap.Int("size", len(reviews)))
	return reviews, nil
}

// Create stores a new review
func (s *Service) Create(ctx context.Context, rev *review.Review) (*review.Review, error) {
	if err := rev.Validate(); err != nil {
		return nil, err
	}

	created := *rev
	err := s.run(ctx, "review.create", func(ctx context.Context) error {
		return s.repo.Create(ctx, &created)
	})
	if err != nil {
		if errors.Is(err, shared.ErrAlreadyExists) {
			return nil, shared.WrapDomainError(shared.CodeInvalidInput,
				fmt.Sprintf("Duplicate key, Product Id: %d, Review Id:%d", rev.ProductID, rev.ReviewID), err)
		}
		return nil, err
	}

	s.logger.Debug("createReview: entity created",
		zap.Int("product_id", created.ProductID),
		zap.Int("review_id", created.ReviewID),
	)
	created.ServiceAddress = s.serviceAddress
	return &created, nil
}

// Update writes rev if its version is current
func (s *Service) Update(ctx context.Context, rev *review.Review) (*review.Review, error) {
	if err := rev.Validate(); err != nil {
		return nil, err
	}

	updated := *rev
	err := s.run(ctx, "review.update", func(ctx context.Context) error {
		return s.repo.Update(ctx, &updated)
	})
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainErrorf(shared.CodeNotFound,
				"No review found for productId: %d, reviewId: %d", rev.ProductID, rev.ReviewID)
		}
		return nil, err
	}

	updated.ServiceAddress = s.serviceAddress
	return &updated, nil
}

// Delete removes every review of productID
func (s *Service) Delete(ctx context.Context, productID int) error {
	if err := shared.ValidateProductID(productID); err != nil {
		return err
	}

	s.logger.Debug("deleteReviews: tries to delete reviews", zap.Int("product_id", productID))
	return s.run(ctx, "review.delete", func(ctx context.Context) error {
		return s.repo.DeleteByProductID(ctx, productID)
	})
}

// run executes fn on the store scheduler; a saturated pool is reported as unavailable
func (s *Service) run(ctx context.Context, name string, fn scheduler.Task) error {
	err := s.store.Do(ctx, name, fn)
	if errors.Is(err, scheduler.ErrTaskQueueFull) || errors.Is(err, scheduler.ErrSchedulerNotRunning) {
		return shared.WrapDomainError(shared.CodeUnavailable, "Review store is busy, try again later", err)
	}
	return err
}
