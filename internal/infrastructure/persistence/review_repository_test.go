package persistence

import (
	"context"
	"testing"

	"github.com/sandcastle/microservices/internal/domain/review"
	"github.com/sandcastle/microservices/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormReviewRepository(t *testing.T) {
	ctx := context.Background()

	t.Run("create and list", func(t *testing.T) {
		repo := NewGormReviewRepository(setupTestDB(t))
		require.NoError(t, repo.Create(ctx, &review.Review{ProductID: 1, ReviewID: 2, Author: "a", Subject: "s2"}))
		require.NoError(t, repo.Create(ctx, &review.Review{ProductID: 1, ReviewID: 1, Author: "a", Subject: "s1"}))

		reviews, err := repo.FindByProductID(ctx, 1)
		require.NoError(t, err)
		require.Len(t, reviews, 2)
		assert.Equal(t, "s1", reviews[0].Subject)
		assert.Equal(t, "s2", reviews[1].Subject)
	})

	t.Run("duplicate composite key", func(t *testing.T) {
		repo := NewGormReviewRepository(setupTestDB(t))
		require.NoError(t, repo.Create(ctx, &review.Review{ProductID: 1, ReviewID: 1, Author: "a", Subject: "s"}))

		err := repo.Create(ctx, &review.Review{ProductID: 1, ReviewID: 1, Author: "a", Subject: "s"})
		assert.ErrorIs(t, err, shared.ErrAlreadyExists)
	})

	t.Run("optimistic locking", func(t *testing.T) {
		repo := NewGormReviewRepository(setupTestDB(t))
		require.NoError(t, repo.Create(ctx, &review.Review{ProductID: 1, ReviewID: 1, Author: "a", Subject: "s"}))

		rev := &review.Review{ProductID: 1, ReviewID: 1, Author: "a", Subject: "s2"}
		require.NoError(t, repo.Update(ctx, rev))
		assert.Equal(t, 1, rev.Version)

		assert.ErrorIs(t, repo.Update(ctx, &review.Review{ProductID: 1, ReviewID: 1, Version: 0}), shared.ErrConcurrencyConflict)
		assert.ErrorIs(t, repo.Update(ctx, &review.Review{ProductID: 2, ReviewID: 1}), shared.ErrNotFound)
	})

	t.Run("delete is idempotent", func(t *testing.T) {
		repo := NewGormReviewRepository(setupTestDB(t))
		require.NoError(t, repo.DeleteByProductID(ctx, 213))
	})
}
