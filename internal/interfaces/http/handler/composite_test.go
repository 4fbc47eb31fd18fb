package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	compositeapp "github.com/sandcastle/microservices/internal/application/composite"
	"github.com/sandcastle/microservices/internal/domain/composite"
	"github.com/sandcastle/microservices/internal/domain/product"
	"github.com/sandcastle/microservices/internal/domain/recommendation"
	"github.com/sandcastle/microservices/internal/domain/review"
	"github.com/sandcastle/microservices/internal/domain/shared"
	"github.com/sandcastle/microservices/internal/interfaces/http/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const (
	productIDOK                 = 1
	productIDNotFound           = 13
	productIDNoRecommendations  = 113
	productIDNoReviews          = 213
	productIDPublishUnavailable = 503
)

// stubBackends answers like the backing services would for the sentinel product ids
type stubBackends struct {
	mu      sync.Mutex
	created []string
	deleted []string
	health  map[string]compositeapp.HealthStatus
}

func (s *stubBackends) GetProduct(_ context.Context, productID int) (*product.Product, error) {
	if productID == productIDNotFound {
		return nil, shared.NewDomainErrorf(shared.CodeNotFound, "No product found for productId: %d", productID)
	}
	return &product.Product{ProductID: productID, Name: "name", Weight: 1, ServiceAddress: "pro"}, nil
}

func (s *stubBackends) GetRecommendations(_ context.Context, productID int) []recommendation.Recommendation {
	if productID == productIDNoRecommendations {
		return []recommendation.Recommendation{}
	}
	return []recommendation.Recommendation{
		{ProductID: productID, RecommendationID: 1, Author: "author", Rate: 1, Content: "content", ServiceAddress: "rec"},
	}
}

func (s *stubBackends) GetReviews(_ context.Context, productID int) []review.Review {
	if productID == productIDNoReviews {
		return []review.Review{}
	}
	return []review.Review{
		{ProductID: productID, ReviewID: 1, Author: "author", Subject: "subject", Content: "content", ServiceAddress: "rev"},
	}
}

func (s *stubBackends) record(list *[]string, entry string, productID int) error {
	if productID == productIDPublishUnavailable {
		return shared.NewDomainError(shared.CodeUnavailable, "Event publishing is saturated, try again later")
	}
	s.mu.Lock()
	*list = append(*list, entry)
	s.mu.Unlock()
	return nil
}

func (s *stubBackends) CreateProduct(_ context.Context, body product.Product) error {
	return s.record(&s.created, "product", body.ProductID)
}

func (s *stubBackends) CreateRecommendation(_ context.Context, body recommendation.Recommendation) error {
	return s.record(&s.created, "recommendation", body.ProductID)
}

func (s *stubBackends) CreateReview(_ context.Context, body review.Review) error {
	return s.record(&s.created, "review", body.ProductID)
}

func (s *stubBackends) DeleteProduct(_ context.Context, productID int) error {
	return s.record(&s.deleted, "product", productID)
}

func (s *stubBackends) DeleteRecommendations(_ context.Context, productID int) error {
	return s.record(&s.deleted, "recommendation", productID)
}

func (s *stubBackends) DeleteReviews(_ context.Context, productID int) error {
	return s.record(&s.deleted, "review", productID)
}

func (s *stubBackends) Health(_ context.Context, serviceURL string) compositeapp.HealthStatus {
	if status, ok := s.health[serviceURL]; ok {
		return status
	}
	return compositeapp.StatusUp
}

func setupCompositeRouter(backends *stubBackends) *gin.Engine {
	service := compositeapp.NewService(compositeapp.Clients{
		Products:        backends,
		Recommendations: backends,
		Reviews:         backends,
		Health:          backends,
		HealthTargets: map[string]string{
			"product":        "http://product",
			"recommendation": "http://recommendation",
			"review":         "http://review",
		},
	}, "cmp", zap.NewNop())

	router := gin.New()
	NewCompositeHandler(service).RegisterRoutes(&router.RouterGroup)
	NewCompositeHealthHandler(service).RegisterRoutes(&router.RouterGroup)
	return router
}

func serve(router *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) dto.HTTPErrorInfo {
	t.Helper()
	var info dto.HTTPErrorInfo
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &info))
	return info
}

func getAggregate(t *testing.T, router *gin.Engine, productID string) composite.ProductAggregate {
	t.Helper()
	w := serve(router, http.MethodGet, "/product-composite/"+productID, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var agg composite.ProductAggregate
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &agg))
	return agg
}

func TestCompositeHandler_GetProduct(t *testing.T) {
	router := setupCompositeRouter(&stubBackends{})

	agg := getAggregate(t, router, "1")

	assert.Equal(t, productIDOK, agg.ProductID)
	assert.Len(t, agg.Recommendations, 1)
	assert.Len(t, agg.Reviews, 1)
	require.NotNil(t, agg.ServiceAddresses)
	assert.Equal(t, "cmp", agg.ServiceAddresses.Composite)
	assert.Equal(t, "pro", agg.ServiceAddresses.Product)
	assert.Equal(t, "rec", agg.ServiceAddresses.Recommendation)
	assert.Equal(t, "rev", agg.ServiceAddresses.Review)
}

func TestCompositeHandler_GetProduct_NotFound(t *testing.T) {
	router := setupCompositeRouter(&stubBackends{})

	w := serve(router, http.MethodGet, "/product-composite/13", "")

	assert.Equal(t, http.StatusNotFound, w.Code)
	info := decodeError(t, w)
	assert.Equal(t, "/product-composite/13", info.Path)
	assert.Equal(t, "No product found for productId: 13", info.Message)
	assert.Equal(t, http.StatusNotFound, info.HTTPStatus)
}

func TestCompositeHandler_GetProduct_NoRecommendations(t *testing.T) {
	agg := getAggregate(t, setupCompositeRouter(&stubBackends{}), "113")

	assert.Equal(t, productIDNoRecommendations, agg.ProductID)
	assert.Empty(t, agg.Recommendations)
	assert.Len(t, agg.Reviews, 1)
	assert.Empty(t, agg.ServiceAddresses.Recommendation)
}

func TestCompositeHandler_GetProduct_NoReviews(t *testing.T) {
	agg := getAggregate(t, setupCompositeRouter(&stubBackends{}), "213")

	assert.Equal(t, productIDNoReviews, agg.ProductID)
	assert.Len(t, agg.Recommendations, 1)
	assert.Empty(t, agg.Reviews)
	assert.Empty(t, agg.ServiceAddresses.Review)
}

func TestCompositeHandler_GetProduct_InvalidInput(t *testing.T) {
	router := setupCompositeRouter(&stubBackends{})

	t.Run("negative id is rejected as invalid input", func(t *testing.T) {
		w := serve(router, http.MethodGet, "/product-composite/-1", "")

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		info := decodeError(t, w)
		assert.Equal(t, "Invalid productId: -1", info.Message)
		assert.Equal(t, "/product-composite/-1", info.Path)
	})

	t.Run("non numeric id is a bad request", func(t *testing.T) {
		w := serve(router, http.MethodGet, "/product-composite/no-integer", "")

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, http.StatusBadRequest, decodeError(t, w).HTTPStatus)
	})
}

func TestCompositeHandler_CreateProduct(t *testing.T) {
	t.Run("publishes product, recommendations and reviews", func(t *testing.T) {
		backends := &stubBackends{}
		router := setupCompositeRouter(backends)

		body := `{"productId":1,"name":"name","weight":1,
			"recommendations":[{"recommendationId":1,"author":"a","rate":1,"content":"c"}],
			"reviews":[{"reviewId":1,"author":"a","subject":"s","content":"c"}]}`
		w := serve(router, http.MethodPost, "/product-composite", body)

		assert.Equal(t, http.StatusAccepted, w.Code)
		assert.Equal(t, []string{"product", "recommendation", "review"}, backends.created)
	})

	t.Run("product only", func(t *testing.T) {
		backends := &stubBackends{}
		w := serve(setupCompositeRouter(backends), http.MethodPost, "/product-composite", `{"productId":2,"name":"n"}`)

		assert.Equal(t, http.StatusAccepted, w.Code)
		assert.Equal(t, []string{"product"}, backends.created)
	})

	t.Run("invalid id publishes nothing", func(t *testing.T) {
		backends := &stubBackends{}
		w := serve(setupCompositeRouter(backends), http.MethodPost, "/product-composite", `{"productId":0}`)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Equal(t, "Invalid productId: 0", decodeError(t, w).Message)
		assert.Empty(t, backends.created)
	})

	t.Run("malformed body is a bad request", func(t *testing.T) {
		w := serve(setupCompositeRouter(&stubBackends{}), http.MethodPost, "/product-composite", `{"productId":`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("saturated publishing is unavailable", func(t *testing.T) {
		w := serve(setupCompositeRouter(&stubBackends{}), http.MethodPost, "/product-composite", `{"productId":503}`)

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.Equal(t, http.StatusServiceUnavailable, decodeError(t, w).HTTPStatus)
	})
}

func TestCompositeHandler_DeleteProduct(t *testing.T) {
	t.Run("publishes the three deletes", func(t *testing.T) {
		backends := &stubBackends{}
		w := serve(setupCompositeRouter(backends), http.MethodDelete, "/product-composite/1", "")

		assert.Equal(t, http.StatusAccepted, w.Code)
		assert.Equal(t, []string{"product", "recommendation", "review"}, backends.deleted)
	})

	t.Run("deleting twice succeeds both times", func(t *testing.T) {
		router := setupCompositeRouter(&stubBackends{})

		assert.Equal(t, http.StatusAccepted, serve(router, http.MethodDelete, "/product-composite/13", "").Code)
		assert.Equal(t, http.StatusAccepted, serve(router, http.MethodDelete, "/product-composite/13", "").Code)
	})

	t.Run("invalid id", func(t *testing.T) {
		backends := &stubBackends{}
		w := serve(setupCompositeRouter(backends), http.MethodDelete, "/product-composite/0", "")

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Empty(t, backends.deleted)
	})
}

func TestCompositeHealthHandler(t *testing.T) {
	t.Run("all up", func(t *testing.T) {
		w := serve(setupCompositeRouter(&stubBackends{}), http.MethodGet, "/actuator/health", "")

		require.Equal(t, http.StatusOK, w.Code)
		var report compositeapp.HealthReport
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &report))
		assert.Equal(t, compositeapp.StatusUp, report.Status)
		assert.Len(t, report.Components, 3)
	})

	t.Run("one backing service down", func(t *testing.T) {
		backends := &stubBackends{health: map[string]compositeapp.HealthStatus{
			"http://review": compositeapp.StatusDown,
		}}
		w := serve(setupCompositeRouter(backends), http.MethodGet, "/actuator/health", "")

		require.Equal(t, http.StatusServiceUnavailable, w.Code)
		var report compositeapp.HealthReport
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &report))
		assert.Equal(t, compositeapp.StatusDown, report.Status)
		assert.Equal(t, compositeapp.StatusDown, report.Components["review"])
	})
}
