package persistence

import (
	"context"
	"time"

	"github.com/sandcastle/microservices/internal/domain/review"
	"github.com/sandcastle/microservices/internal/domain/shared"
	"github.com/sandcastle/microservices/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormReviewRepository implements review.Repository using GORM
type GormReviewRepository struct {
	db *gorm.DB
}

// NewGormReviewRepository creates a new GormReviewRepository
func NewGormReviewRepository(db *gorm.DB) *GormReviewRepository {
	return &GormReviewRepository{db: db}
}

// Create inserts a new review with version 0
func (r *GormReviewRepository) Create(ctx context.Context, rev *review.Review) error {
	model := models.ReviewModelFromDomain(rev)
	model.Version = 0
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		if isDuplicateKey(err) {
			return shared.WrapDomainError(shared.CodeAlreadyExists, "review already exists", err)
		}
		return err
	}
	rev.Version = model.Version
	return nil
}

// FindByProductID lists the product's reviews ordered by reviewId
func (r *GormReviewRepository) FindByProductID(ctx context.Context, productID int) ([]review.Review, error) {
	var rows []models.ReviewModel
	if err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("review_id ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}

	reviews := make([]review.Review, 0, len(rows))
	for i := range rows {
		reviews = append(reviews, rows[i].ToDomain())
	}
	return reviews, nil
}

// Update saves with optimistic locking (checks version)
func (r *GormReviewRepository) Update(ctx context.Context, rev *review.Review) error {
	result := r.db.WithContext(ctx).
		Model(&models.ReviewModel{}).
		Where("product_id = ? AND review_id = ? AND version = ?", rev.ProductID, rev.ReviewID, rev.Version).
		Updates(map[string]any{
			"author":     rev.Author,
			"subject":    rev.Subject,
			"content":    rev.Content,
			"version":    rev.Version + 1,
			"updated_at": time.Now(),
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		var count int64
		if err := r.db.WithContext(ctx).
			Model(&models.ReviewModel{}).
			Where("product_id = ? AND review_id = ?", rev.ProductID, rev.ReviewID).
			Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return shared.ErrNotFound
		}
		return shared.ErrConcurrencyConflict
	}
	rev.Version++
	return nil
}

// DeleteByProductID deletes all reviews of the product
func (r *GormReviewRepository) DeleteByProductID(ctx context.Context, productID int) error {
	return r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Delete(&models.ReviewModel{}).Error
}

var _ review.Repository = (*GormReviewRepository)(nil)
