package review

import (
	"context"
	"testing"
	"time"

	"github.com/sandcastle/microservices/internal/domain/review"
	"github.com/sandcastle/microservices/internal/domain/shared"
	"github.com/sandcastle/microservices/internal/infrastructure/scheduler"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// MockReviewRepository is a mock implementation of review.Repository
type MockReviewRepository struct {
	mock.Mock
}

func (m *MockReviewRepository) Create(ctx context.Context, r *review.Review) error {
	return m.Called(ctx, r).Error(0)
}

func (m *MockReviewRepository) FindByProductID(ctx context.Context, productID int) ([]review.Review, error) {
	args := m.Called(ctx, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]review.Review), args.Error(1)
}

func (m *MockReviewRepository) Update(ctx context.Context, r *review.Review) error {
	return m.Called(ctx, r).Error(0)
}

func (m *MockReviewRepository) DeleteByProductID(ctx context.Context, productID int) error {
	return m.Called(ctx, productID).Error(0)
}

func newStoreScheduler(t *testing.T, workers, queue int) *scheduler.Scheduler {
	t.Helper()
	s, err := scheduler.New(scheduler.Config{
		Name:        "review-store",
		Workers:     workers,
		QueueSize:   queue,
		TaskTimeout: time.Second,
	}, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, s.Start(context.Background()))
	t.Cleanup(func() { _ = s.Stop(context.Background()) })
	return s
}

func TestService_RunsStoreCallsOnScheduler(t *testing.T) {
	store := newStoreScheduler(t, 2, 10)
	repo := new(MockReviewRepository)
	repo.On("FindByProductID", mock.Anything, 1).Return([]review.Review{{ProductID: 1, ReviewID: 1}}, nil)
	repo.On("Create", mock.Anything, mock.Anything).Return(nil)
	repo.On("DeleteByProductID", mock.Anything, 1).Return(nil)

	svc := NewService(repo, store, "rev:7003", zap.NewNop())
	ctx := context.Background()

	reviews, err := svc.List(ctx, 1)
	require.NoError(t, err)
	require.Len(t, reviews, 1)
	assert.Equal(t, "rev:7003", reviews[0].ServiceAddress)

	_, err = svc.Create(ctx, &review.Review{ProductID: 1, ReviewID: 2})
	require.NoError(t, err)
	require.NoError(t, svc.Delete(ctx, 1))

	assert.Eventually(t, func() bool { return store.Stats().Completed == 3 }, time.Second, 10*time.Millisecond)
	repo.AssertExpectations(t)
}

func TestService_Create_Duplicate(t *testing.T) {
	repo := new(MockReviewRepository)
	repo.On("Create", mock.Anything, mock.Anything).Return(shared.ErrAlreadyExists)

	svc := NewService(repo, newStoreScheduler(t, 1, 1), "", zap.NewNop())
	_, err := svc.Create(context.Background(), &review.Review{ProductID: 1, ReviewID: 3})

	assert.ErrorIs(t, err, shared.ErrInvalidInput)
	assert.EqualError(t, err, "Duplicate key, Product Id: 1, Review Id:3")
}

func TestService_ValidationBeforeScheduling(t *testing.T) {
	store := newStoreScheduler(t, 1, 1)
	repo := new(MockReviewRepository)
	svc := NewService(repo, store, "", zap.NewNop())
	ctx := context.Background()

	_, err := svc.List(ctx, 0)
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
	assert.ErrorIs(t, svc.Delete(ctx, -1), shared.ErrInvalidInput)
	_, err = svc.Create(ctx, &review.Review{ProductID: 0})
	assert.ErrorIs(t, err, shared.ErrInvalidInput)

	assert.Zero(t, store.Stats().Completed+store.Stats().Failed)
}

func TestService_StoppedSchedulerIsUnavailable(t *testing.T) {
	store, err := scheduler.New(scheduler.DefaultConfig("review-store"), zap.NewNop())
	require.NoError(t, err)

	svc := NewService(new(MockReviewRepository), store, "", zap.NewNop())
	_, err = svc.List(context.Background(), 1)

	assert.ErrorIs(t, err, shared.ErrUnavailable)
	assert.ErrorIs(t, err, scheduler.ErrSchedulerNotRunning)
}

func TestService_Update(t *testing.T) {
	repo := new(MockReviewRepository)
	repo.On("Update", mock.Anything, mock.Anything).Return(shared.ErrNotFound)

	svc := NewService(repo, newStoreScheduler(t, 1, 1), "", zap.NewNop())
	_, err := svc.Update(context.Background(), &review.Review{ProductID: 2, ReviewID: 1})

	assert.ErrorIs(t, err, shared.ErrNotFound)
	assert.EqualError(t, err, "No review found for productId: 2, reviewId: 1")
}
