// Package integration is the composite service's gateway to the backing
// services: HTTP reads with error mapping and event-published writes.
package integration

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sandcastle/microservices/internal/application/composite"
	"github.com/sandcastle/microservices/internal/domain/product"
	"github.com/sandcastle/microservices/internal/domain/recommendation"
	"github.com/sandcastle/microservices/internal/domain/review"
	"github.com/sandcastle/microservices/internal/domain/shared"
	"github.com/sandcastle/microservices/internal/infrastructure/config"
	"github.com/sandcastle/microservices/internal/infrastructure/messaging"
	"github.com/sandcastle/microservices/internal/infrastructure/scheduler"
	"github.com/sandcastle/microservices/internal/infrastructure/telemetry"
	"github.com/sony/gobreaker"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

const (
	maxResponseSize = 1 << 20
	defaultTimeout  = 5 * time.Second
)

// Downstream targets, used in logs and metrics
const (
	targetProduct        = "product"
	targetRecommendation = "recommendation"
	targetReview         = "review"
)

// Gateway implements the composite service's client interfaces
type Gateway struct {
	productURL        string
	recommendationURL string
	reviewURL         string
	timeout           time.Duration

	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker
	publisher  shared.EventPublisher
	pool       *scheduler.Scheduler
	metrics    *telemetry.Metrics
	logger     *zap.Logger
}

// NewGateway creates a gateway. Writes are published through publisher on pool;
// metrics may be nil.
func NewGateway(
	cfg config.IntegrationConfig,
	publisher shared.EventPublisher,
	pool *scheduler.Scheduler,
	metrics *telemetry.Metrics,
	logger *zap.Logger,
) *Gateway {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	g := &Gateway{
		productURL:        strings.TrimRight(cfg.ProductURL, "/"),
		recommendationURL: strings.TrimRight(cfg.RecommendationURL, "/"),
		reviewURL:         strings.TrimRight(cfg.ReviewURL, "/"),
		timeout:           cfg.Timeout,
		httpClient: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		publisher: publisher,
		pool:      pool,
		metrics:   metrics,
		logger:    logger.Named("integration"),
	}
	if cfg.Breaker.Enabled {
		g.breaker = newBreaker(targetProduct, cfg.Breaker, metrics, g.logger)
	}

	g.logger.Info("Integration gateway configured",
		zap.String("product_url", g.productURL),
		zap.String("recommendation_url", g.recommendationURL),
		zap.String("review_url", g.reviewURL),
		zap.Duration("timeout", g.timeout),
		zap.Bool("breaker", g.breaker != nil),
	)
	return g
}

// newBreaker trips on transport failures only; NotFound and InvalidInput are
// answers from a healthy service.
func newBreaker(name string, cfg config.BreakerConfig, metrics *telemetry.Metrics, logger *zap.Logger) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= cfg.FailureRatio
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, shared.ErrNotFound) || errors.Is(err, shared.ErrInvalidInput)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("Circuit breaker state changed",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
			metrics.SetBreakerState(name, breakerStateValue(to))
		},
	})
}

func breakerStateValue(s gobreaker.State) int {
	switch s {
	case gobreaker.StateOpen:
		return telemetry.BreakerOpen
	case gobreaker.StateHalfOpen:
		return telemetry.BreakerHalfOpen
	default:
		return telemetry.BreakerClosed
	}
}

// GetProduct reads one product. 404 maps to NotFound, 422 to InvalidInput and
// every other failure to Unavailable.
func (g *Gateway) GetProduct(ctx context.Context, productID int) (*product.Product, error) {
	url := fmt.Sprintf("%s/product/%d", g.productURL, productID)
	g.logger.Debug("Will call the getProduct API", zap.String("url", url))

	read := func() (any, error) {
		var p product.Product
		if err := g.getJSON(ctx, url, &p); err != nil {
			return nil, err
		}
		return &p, nil
	}

	var (
		result any
		err    error
	)
	if g.breaker != nil {
		result, err = g.breaker.Execute(read)
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			err = shared.WrapDomainError(shared.CodeUnavailable, "Product service is unavailable", err)
		}
	} else {
		result, err = read()
	}
	g.metrics.DownstreamRequest(targetProduct, err)
	if err != nil {
		g.logger.Warn("getProduct failed", zap.Int("product_id", productID), zap.Error(err))
		return nil, err
	}

	p := result.(*product.Product)
	g.logger.Debug("Found a product", zap.Int("product_id", p.ProductID))
	return p, nil
}

// GetRecommendations reads a product's recommendations. Failures are logged
// and yield an empty slice.
func (g *Gateway) GetRecommendations(ctx context.Context, productID int) []recommendation.Recommendation {
	url := fmt.Sprintf("%s/recommendation?productId=%d", g.recommendationURL, productID)
	g.logger.Debug("Will call the getRecommendations API", zap.String("url", url))

	var out []recommendation.Recommendation
	err := g.getJSON(ctx, url, &out)
	g.metrics.DownstreamRequest(targetRecommendation, err)
	if err != nil {
		g.logger.Warn("Got an exception while requesting recommendations, return zero recommendations",
			zap.Int("product_id", productID), zap.Error(err))
		return []recommendation.Recommendation{}
	}
	if out == nil {
		out = []recommendation.Recommendation{}
	}

	g.logger.Debug("Found recommendations", zap.Int("product_id", productID), zap.Int("count", len(out)))
	return out
}

// GetReviews reads a product's reviews. Failures are logged and yield an empty slice.
func (g *Gateway) GetReviews(ctx context.Context, productID int) []review.Review {
	url := fmt.Sprintf("%s/review?productId=%d", g.reviewURL, productID)
	g.logger.Debug("Will call the getReviews API", zap.String("url", url))

	var out []review.Review
	err := g.getJSON(ctx, url, &out)
	g.metrics.DownstreamRequest(targetReview, err)
	if err != nil {
		g.logger.Warn("Got an exception while requesting reviews, return zero reviews",
			zap.Int("product_id", productID), zap.Error(err))
		return []review.Review{}
	}
	if out == nil {
		out = []review.Review{}
	}

	g.logger.Debug("Found reviews", zap.Int("product_id", productID), zap.Int("count", len(out)))
	return out
}

// errorBody is the error payload every service writes
type errorBody struct {
	Message string `json:"message"`
}

// getJSON issues a GET under the gateway timeout and decodes a 2xx body into v
func (g *Gateway) getJSON(ctx context.Context, url string, v any) error {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return shared.WrapDomainError(shared.CodeUnavailable, "Failed to build downstream request", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return shared.WrapDomainError(shared.CodeUnavailable, fmt.Sprintf("Downstream call to %s failed", url), err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return shared.WrapDomainError(shared.CodeUnavailable, "Failed to read downstream response", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return mapHTTPError(resp.StatusCode, body)
	}

	if err := json.Unmarshal(body, v); err != nil {
		return shared.WrapDomainError(shared.CodeUnavailable, "Failed to decode downstream response", err)
	}
	return nil
}

// mapHTTPError converts a downstream error response into the error taxonomy
func mapHTTPError(status int, body []byte) error {
	message := errorMessage(status, body)
	switch status {
	case http.StatusNotFound:
		return shared.NewDomainError(shared.CodeNotFound, message)
	case http.StatusUnprocessableEntity:
		return shared.NewDomainError(shared.CodeInvalidInput, message)
	default:
		return shared.NewDomainError(shared.CodeUnavailable, message)
	}
}

func errorMessage(status int, body []byte) string {
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err == nil && eb.Message != "" {
		return eb.Message
	}
	return fmt.Sprintf("Downstream request failed with HTTP %d", status)
}

// CreateProduct queues a product CREATE event
func (g *Gateway) CreateProduct(_ context.Context, body product.Product) error {
	return g.sendCreate(messaging.ChannelProducts, body.ProductID, body)
}

// CreateRecommendation queues a recommendation CREATE event
func (g *Gateway) CreateRecommendation(_ context.Context, body recommendation.Recommendation) error {
	return g.sendCreate(messaging.ChannelRecommendations, body.ProductID, body)
}

// CreateReview queues a review CREATE event
func (g *Gateway) CreateReview(_ context.Context, body review.Review) error {
	return g.sendCreate(messaging.ChannelReviews, body.ProductID, body)
}

// DeleteProduct queues a product DELETE event
func (g *Gateway) DeleteProduct(_ context.Context, productID int) error {
	return g.send(messaging.ChannelProducts, shared.NewDeleteEvent(productID))
}

// DeleteRecommendations queues a recommendations DELETE event
func (g *Gateway) DeleteRecommendations(_ context.Context, productID int) error {
	return g.send(messaging.ChannelRecommendations, shared.NewDeleteEvent(productID))
}

// DeleteReviews queues a reviews DELETE event
func (g *Gateway) DeleteReviews(_ context.Context, productID int) error {
	return g.send(messaging.ChannelReviews, shared.NewDeleteEvent(productID))
}

func (g *Gateway) sendCreate(channel string, key int, body any) error {
	event, err := shared.NewCreateEvent(key, body)
	if err != nil {
		return shared.WrapDomainError(shared.CodeInvalidInput, "Failed to encode event data", err)
	}
	return g.send(channel, event)
}

// send hands event to the publish pool and returns once it is queued.
// The publish runs under the pool's context, not the request's. Events are
// keyed by product id so a create and a delete for the same product reach
// the broker in the order they were accepted.
func (g *Gateway) send(channel string, event shared.Event) error {
	name := fmt.Sprintf("publish-%s-%s-%d", channel, strings.ToLower(string(event.EventType)), event.Key)
	err := g.pool.SubmitKeyed(event.Key, name, func(ctx context.Context) error {
		return g.publisher.Publish(ctx, channel, event)
	})
	if err != nil {
		if errors.Is(err, scheduler.ErrTaskQueueFull) || errors.Is(err, scheduler.ErrSchedulerNotRunning) {
			return shared.WrapDomainError(shared.CodeUnavailable, "Event publishing is saturated, try again later", err)
		}
		return err
	}

	g.logger.Debug("Queued "+string(event.EventType)+" event",
		zap.String("channel", channel),
		zap.Int("key", event.Key),
	)
	return nil
}

// Health probes {serviceURL}/actuator/health; any failure is DOWN
func (g *Gateway) Health(ctx context.Context, serviceURL string) composite.HealthStatus {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	url := strings.TrimRight(serviceURL, "/") + "/actuator/health"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return composite.StatusDown
	}
	resp, err := g.httpClient.Do(req)
	if err != nil {
		g.logger.Debug("Health check failed", zap.String("url", url), zap.Error(err))
		return composite.StatusDown
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseSize))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return composite.StatusDown
	}
	return composite.StatusUp
}

var (
	_ composite.ProductClient        = (*Gateway)(nil)
	_ composite.RecommendationClient = (*Gateway)(nil)
	_ composite.ReviewClient         = (*Gateway)(nil)
	_ composite.HealthChecker        = (*Gateway)(nil)
)
