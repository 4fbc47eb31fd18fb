// Package dto holds the HTTP request and error payloads shared by every service.
package dto

import (
	"net/http"
	"time"

	"github.com/sandcastle/microservices/internal/domain/shared"
)

// HTTPErrorInfo is the body of every error response
type HTTPErrorInfo struct {
	Timestamp  time.Time `json:"timestamp"`
	Path       string    `json:"path"`
	Message    string    `json:"message"`
	HTTPStatus int       `json:"httpStatus"`
}

// NewHTTPErrorInfo creates an error body stamped with the current time
func NewHTTPErrorInfo(status int, path, message string) HTTPErrorInfo {
	return HTTPErrorInfo{
		Timestamp:  time.Now().UTC(),
		Path:       path,
		Message:    message,
		HTTPStatus: status,
	}
}

// ErrorCodeHTTPStatus maps domain error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	shared.CodeInvalidInput:        http.StatusUnprocessableEntity,
	shared.CodeAlreadyExists:       http.StatusUnprocessableEntity,
	shared.CodeNotFound:            http.StatusNotFound,
	shared.CodeConcurrencyConflict: http.StatusConflict,
	shared.CodeUnavailable:         http.StatusServiceUnavailable,
	shared.CodeEventProcessing:     http.StatusInternalServerError,
}

// StatusForCode returns the HTTP status for a domain error code
// Returns 500 Internal Server Error if the code is unknown
func StatusForCode(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}
