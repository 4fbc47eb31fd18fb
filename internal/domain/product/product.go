// Package product holds the product entity owned by the product service.
package product

import (
	"context"

	"github.com/sandcastle/microservices/internal/domain/shared"
)

// Product is the core product entity
type Product struct {
	ProductID      int    `json:"productId"`
	Name           string `json:"name"`
	Weight         int    `json:"weight"`
	ServiceAddress string `json:"serviceAddress"`
	// Version is the optimistic locking counter; writers send back the value they read
	Version int `json:"version"`
}

// Validate checks the invariants that must hold before any store access
func (p *Product) Validate() error {
	return shared.ValidateProductID(p.ProductID)
}

// Repository is the product store
type Repository interface {
	// Create inserts p; a taken productId yields shared.ErrAlreadyExists
	Create(ctx context.Context, p *Product) error
	// FindByProductID returns shared.ErrNotFound when absent
	FindByProductID(ctx context.Context, productID int) (*Product, error)
	// Update writes p if p.Version matches the stored version and bumps it,
	// otherwise it yields shared.ErrConcurrencyConflict
	Update(ctx context.Context, p *Product) error
	// DeleteByProductID removes the product; a missing product is not an error
	DeleteByProductID(ctx context.Context, productID int) error
}
