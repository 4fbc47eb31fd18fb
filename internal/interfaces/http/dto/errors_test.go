package dto

import (
	"net/http"
	"testing"

	"github.com/sandcastle/microservices/internal/domain/shared"
	"github.com/stretchr/testify/assert"
)

func TestStatusForCode(t *testing.T) {
	tests := []struct {
		code     string
		expected int
	}{
		{shared.CodeInvalidInput, http.StatusUnprocessableEntity},
		{shared.CodeAlreadyExists, http.StatusUnprocessableEntity},
		{shared.CodeNotFound, http.StatusNotFound},
		{shared.CodeConcurrencyConflict, http.StatusConflict},
		{shared.CodeUnavailable, http.StatusServiceUnavailable},
		{shared.CodeEventProcessing, http.StatusInternalServerError},
		{"SOMETHING_ELSE", http.StatusInternalServerError},
		{"", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.expected, StatusForCode(tt.code))
		})
	}
}

func TestNewHTTPErrorInfo(t *testing.T) {
	info := NewHTTPErrorInfo(http.StatusNotFound, "/product/13", "No product found for productId: 13")

	assert.Equal(t, http.StatusNotFound, info.HTTPStatus)
	assert.Equal(t, "/product/13", info.Path)
	assert.Equal(t, "No product found for productId: 13", info.Message)
	assert.False(t, info.Timestamp.IsZero())
}
