package persistence

import (
	"context"
	"time"

	"github.com/sandcastle/microservices/internal/domain/recommendation"
	"github.com/sandcastle/microservices/internal/domain/shared"
	"github.com/sandcastle/microservices/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormRecommendationRepository implements recommendation.Repository using GORM
type GormRecommendationRepository struct {
	db *gorm.DB
}

// NewGormRecommendationRepository creates a new GormRecommendationRepository
func NewGormRecommendationRepository(db *gorm.DB) *GormRecommendationRepository {
	return &GormRecommendationRepository{db: db}
}

// Create inserts a new recommendation with version 0
func (r *GormRecommendationRepository) Create(ctx context.Context, rec *recommendation.Recommendation) error {
	model := models.RecommendationModelFromDomain(rec)
	model.Version = 0
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		if isDuplicateKey(err) {
			return shared.WrapDomainError(shared.CodeAlreadyExists, "recommendation already exists", err)
		}
		return err
	}
	rec.Version = model.Version
	return nil
}

// FindByProductID lists the product's recommendations ordered by recommendationId
func (r *GormRecommendationRepository) FindByProductID(ctx context.Context, productID int) ([]recommendation.Recommendation, error) {
	var rows []models.RecommendationModel
	if err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("recommendation_id ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}

	recs := make([]recommendation.Recommendation, 0, len(rows))
	for i := range rows {
		recs = append(recs, rows[i].ToDomain())
	}
	return recs, nil
}

// Update saves with optimistic locking (checks version)
func (r *GormRecommendationRepository) Update(ctx context.Context, rec *recommendation.Recommendation) error {
	result := r.db.WithContext(ctx).
		Model(&models.RecommendationModel{}).
		Where("product_id = ? AND recommendation_id = ? AND version = ?",
			rec.ProductID, rec.RecommendationID, rec.Version).
		Updates(map[string]any{
			"author":     rec.Author,
			"rate":       rec.Rate,
			"content":    rec.Content,
			"version":    rec.Version + 1,
			"updated_at": time.Now(),
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		var count int64
		if err := r.db.WithContext(ctx).
			Model(&models.RecommendationModel{}).
			Where("product_id = ? AND recommendation_id = ?", rec.ProductID, rec.RecommendationID).
			Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return shared.ErrNotFound
		}
		return shared.ErrConcurrencyConflict
	}
	rec.Version++
	return nil
}

// DeleteByProductID deletes all recommendations of the product
func (r *GormRecommendationRepository) DeleteByProductID(ctx context.Context, productID int) error {
	return r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Delete(&models.RecommendationModel{}).Error
}

var _ recommendation.Repository = (*GormRecommendationRepository)(nil)
