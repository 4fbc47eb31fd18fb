// Package review holds the review entity.
package review

import (
	"context"

	"github.com/sandcastle/microservices/internal/domain/shared"
)

// Review is a review of a product. (ProductID, ReviewID) is unique.
type Review struct {
	ProductID      int    `json:"productId"`
	ReviewID       int    `json:"reviewId"`
	Author         string `json:"author"`
	Subject        string `json:"subject"`
	Content        string `json:"content"`
	ServiceAddress string `json:"serviceAddress"`
	Version        int    `json:"version"`
}

// Validate checks the invariants that must hold before any store access
func (r *Review) Validate() error {
	return shared.ValidateProductID(r.ProductID)
}

// Repository is the review store
type Repository interface {
	Create(ctx context.Context, r *Review) error
	// FindByProductID returns the reviews ordered by reviewId; never nil
	FindByProductID(ctx context.Context, productID int) ([]Review, error)
	Update(ctx context.Context, r *Review) error
	// DeleteByProductID removes every review of the product
	DeleteByProductID(ctx context.Context, productID int) error
}
