// Package recommendation holds the recommendation entity.
package recommendation

import (
	"context"

	"github.com/sandcastle/microservices/internal/domain/shared"
)

// Recommendation is a recommendation for a product. (ProductID, RecommendationID) is unique.
type Recommendation struct {
	ProductID        int    `json:"productId"`
	RecommendationID int    `json:"recommendationId"`
	Author           string `json:"author"`
	Rate             int    `json:"rate"`
	Content          string `json:"content"`
	ServiceAddress   string `json:"serviceAddress"`
	Version          int    `json:"version"`
}

// Validate checks the invariants that must hold before any store access
func (r *Recommendation) Validate() error {
	return shared.ValidateProductID(r.ProductID)
}

// Repository is the recommendation store
type Repository interface {
	Create(ctx context.Context, r *Recommendation) error
	// FindByProductID returns the recommendations ordered by recommendationId; never nil
	FindByProductID(ctx context.Context, productID int) ([]Recommendation, error)
	Update(ctx context.Context, r *Recommendation) error
	// DeleteByProductID removes every recommendation of the product
	DeleteByProductID(ctx context.Context, productID int) error
}
