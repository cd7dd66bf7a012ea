// Package response defines the JSON envelope shared by every endpoint.
package response

import (
	"net/http"

	deliverycontext "securelogin/internal/delivery/context"

	"github.com/labstack/echo/v4"
)

// SuccessResponse defines the structure for successful responses.
type SuccessResponse struct {
	Data any       `json:"data"`
	Meta *MetaInfo `json:"meta"`
}

// ErrorResponse defines the structure for error responses.
type ErrorResponse struct {
	Error *ErrorInfo `json:"error"`
	Meta  *MetaInfo  `json:"meta"`
}

// ErrorInfo contains detailed error information.
type ErrorInfo struct {
	Category string `json:"category,omitempty"` // Failure category, e.g. "LoginFailure"
	Code     string `json:"code"`               // Machine-readable error code, e.g. "AccountObsoleteToken"
	Message  string `json:"message"`            // User-friendly error message
}

// MetaInfo represents response metadata.
type MetaInfo struct {
	RequestID string `json:"request_id"`
}

// Success returns a successful response.
func Success(c echo.Context, statusCode int, data any) error {
	return c.JSON(statusCode, SuccessResponse{
		Data: data,
		Meta: &MetaInfo{
			RequestID: deliverycontext.GetRequestID(c),
		},
	})
}

// Error returns an error response.
func Error(c echo.Context, statusCode int, category, errorCode, message string) error {
	if message == "" {
		message = http.StatusText(statusCode)
	}

	return c.JSON(statusCode, ErrorResponse{
		Error: &ErrorInfo{
			Category: category,
			Code:     errorCode,
			Message:  message,
		},
		Meta: &MetaInfo{
			RequestID: deliverycontext.GetRequestID(c),
		},
	})
}

// BindingError returns a 400 for malformed request bodies.
func BindingError(c echo.Context, message string) error {
	return Error(c, http.StatusBadRequest, "", "INVALID_INPUT", message)
}

// Unauthorized returns a 401 error.
func Unauthorized(c echo.Context, errorCode, message string) error {
	return Error(c, http.StatusUnauthorized, "", errorCode, message)
}

// InternalServerError returns a 500 error.
func InternalServerError(c echo.Context, errorCode, message string) error {
	return Error(c, http.StatusInternalServerError, "", errorCode, message)
}
