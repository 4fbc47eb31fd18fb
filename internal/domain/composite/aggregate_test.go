package composite

import (
	"testing"

	"github.com/sandcastle/microservices/internal/domain/product"
	"github.com/sandcastle/microservices/internal/domain/recommendation"
	"github.com/sandcastle/microservices/internal/domain/review"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProductAggregate(t *testing.T) {
	p := &product.Product{ProductID: 1, Name: "Name 1", Weight: 1, ServiceAddress: "product:7001"}

	t.Run("maps summaries in order and records addresses", func(t *testing.T) {
		recs := []recommendation.Recommendation{
			{ProductID: 1, RecommendationID: 2, Author: "a2", Rate: 2, Content: "c2", ServiceAddress: "rec:7002"},
			{ProductID: 1, RecommendationID: 1, Author: "a1", Rate: 1, Content: "c1", ServiceAddress: "rec:7002"},
		}
		revs := []review.Review{
			{ProductID: 1, ReviewID: 9, Author: "r", Subject: "s", Content: "c", ServiceAddress: "rev:7003"},
		}

		agg := NewProductAggregate(p, recs, revs, "cmp:7000")

		assert.Equal(t, 1, agg.ProductID)
		assert.Equal(t, "Name 1", agg.Name)
		assert.Equal(t, 1, agg.Weight)
		require.Len(t, agg.Recommendations, 2)
		assert.Equal(t, 2, agg.Recommendations[0].RecommendationID)
		assert.Equal(t, 1, agg.Recommendations[1].RecommendationID)
		require.Len(t, agg.Reviews, 1)
		assert.Equal(t, ReviewSummary{ReviewID: 9, Author: "r", Subject: "s", Content: "c"}, agg.Reviews[0])
		assert.Equal(t, &ServiceAddresses{
			Composite:      "cmp:7000",
			Product:        "product:7001",
			Recommendation: "rec:7002",
			Review:         "rev:7003",
		}, agg.ServiceAddresses)
	})

	t.Run("empty collections give empty summaries and empty addresses", func(t *testing.T) {
		agg := NewProductAggregate(p, []recommendation.Recommendation{}, []review.Review{}, "cmp:7000")

		assert.NotNil(t, agg.Recommendations)
		assert.Empty(t, agg.Recommendations)
		assert.NotNil(t, agg.Reviews)
		assert.Empty(t, agg.Reviews)
		assert.Empty(t, agg.ServiceAddresses.Recommendation)
		assert.Empty(t, agg.ServiceAddresses.Review)
	})

	t.Run("absent collections stay absent", func(t *testing.T) {
		agg := NewProductAggregate(p, nil, nil, "cmp:7000")
		assert.Nil(t, agg.Recommendations)
		assert.Nil(t, agg.Reviews)
	})
}

func TestProductAggregate_Entities(t *testing.T) {
	agg := &ProductAggregate{
		ProductID: 4,
		Name:      "four",
		Weight:    40,
		Recommendations: []RecommendationSummary{
			{RecommendationID: 1, Author: "a", Rate: 5, Content: "c"},
		},
		Reviews: []ReviewSummary{
			{ReviewID: 1, Author: "a", Subject: "s", Content: "c"},
			{ReviewID: 2, Author: "b", Subject: "t", Content: "d"},
		},
	}

	assert.Equal(t, product.Product{ProductID: 4, Name: "four", Weight: 40}, agg.Product())

	recs := agg.RecommendationEntities()
	require.Len(t, recs, 1)
	assert.Equal(t, 4, recs[0].ProductID)
	assert.Empty(t, recs[0].ServiceAddress)

	revs := agg.ReviewEntities()
	require.Len(t, revs, 2)
	for _, r := range revs {
		assert.Equal(t, 4, r.ProductID)
	}

	assert.Nil(t, (&ProductAggregate{ProductID: 1}).RecommendationEntities())
	assert.Nil(t, (&ProductAggregate{ProductID: 1}).ReviewEntities())
}
