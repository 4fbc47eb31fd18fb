package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/sandcastle/microservices/internal/domain/product"
	"github.com/sandcastle/microservices/internal/domain/shared"
	"github.com/sandcastle/microservices/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormProductRepository implements product.Repository using GORM
type GormProductRepository struct {
	db *gorm.DB
}

// NewGormProductRepository creates a new GormProductRepository
func NewGormProductRepository(db *gorm.DB) *GormProductRepository {
	return &GormProductRepository{db: db}
}

// Create inserts a new product with version 0
func (r *GormProductRepository) Create(ctx context.Context, p *product.Product) error {
	model := models.ProductModelFromDomain(p)
	model.Version = 0
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		if isDuplicateKey(err) {
			return shared.WrapDomainError(shared.CodeAlreadyExists, "product already exists", err)
		}
		return err
	}
	p.Version = model.Version
	return nil
}

// FindByProductID finds a product by its business id
func (r *GormProductRepository) FindByProductID(ctx context.Context, productID int) (*product.Product, error) {
	var model models.ProductModel
	if err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Update saves with optimistic locking (checks version)
func (r *GormProductRepository) Update(ctx context.Context, p *product.Product) error {
	result := r.db.WithContext(ctx).
		Model(&models.ProductModel{}).
		Where("product_id = ? AND version = ?", p.ProductID, p.Version).
		Updates(map[string]any{
			"name":       p.Name,
			"weight":     p.Weight,
			"version":    p.Version + 1,
			"updated_at": time.Now(),
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return r.lockFailure(ctx, p.ProductID)
	}
	p.Version++
	return nil
}

func (r *GormProductRepository) lockFailure(ctx context.Context, productID int) error {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.ProductModel{}).
		Where("product_id = ?", productID).
		Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return shared.ErrNotFound
	}
	return shared.ErrConcurrencyConflict
}

// DeleteByProductID deletes the product; deleting a missing product succeeds
func (r *GormProductRepository) DeleteByProductID(ctx context.Context, productID int) error {
	return r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Delete(&models.ProductModel{}).Error
}

var _ product.Repository = (*GormProductRepository)(nil)
