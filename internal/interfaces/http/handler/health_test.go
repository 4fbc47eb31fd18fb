package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	compositeapp "github.com/sandcastle/microservices/internal/application/composite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthHandler(t *testing.T) {
	healthy := func(context.Context) error { return nil }
	failing := func(context.Context) error { return errors.New("connection refused") }

	tests := []struct {
		name           string
		checks         map[string]HealthCheck
		expectedStatus int
		expected       compositeapp.HealthReport
	}{
		{
			name:           "no checks is up",
			checks:         nil,
			expectedStatus: http.StatusOK,
			expected:       compositeapp.HealthReport{Status: compositeapp.StatusUp, Components: map[string]compositeapp.HealthStatus{}},
		},
		{
			name:           "all checks pass",
			checks:         map[string]HealthCheck{"db": healthy, "redis": healthy},
			expectedStatus: http.StatusOK,
			expected: compositeapp.HealthReport{Status: compositeapp.StatusUp, Components: map[string]compositeapp.HealthStatus{
				"db": compositeapp.StatusUp, "redis": compositeapp.StatusUp,
			}},
		},
		{
			name:           "one failing check is down",
			checks:         map[string]HealthCheck{"db": failing, "redis": healthy},
			expectedStatus: http.StatusServiceUnavailable,
			expected: compositeapp.HealthReport{Status: compositeapp.StatusDown, Components: map[string]compositeapp.HealthStatus{
				"db": compositeapp.StatusDown, "redis": compositeapp.StatusUp,
			}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := gin.New()
			NewHealthHandler(tt.checks).RegisterRoutes(&router.RouterGroup)

			w := serve(router, http.MethodGet, "/actuator/health", "")

			assert.Equal(t, tt.expectedStatus, w.Code)
			var report compositeapp.HealthReport
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &report))
			assert.Equal(t, tt.expected, report)
		})
	}
}
