package handler

import (
	"net/http"

	"securelogin/internal/delivery/http/middleware"
	"securelogin/internal/delivery/http/response"

	"github.com/labstack/echo/v4"
)

// TestHandler exposes probe endpoints used to exercise the token gates from
// integration tests and manual checks. Only registered when test routes are
// enabled in the configuration.
type TestHandler struct{}

// NewTestHandler creates a new TestHandler instance.
func NewTestHandler() *TestHandler {
	return &TestHandler{}
}

// Op reports the identity behind any valid access token.
func (h *TestHandler) Op(c echo.Context) error {
	claims, ok := middleware.GetClaims(c)
	if !ok {
		return response.Unauthorized(c, "CONTEXT_ERROR", "Claims not found in context")
	}

	return response.Success(c, http.StatusOK, map[string]any{
		"message": "protected operation successful",
		"userid":  claims.UserID.String(),
		"fresh":   claims.Fresh,
	})
}

// Op2 is the same probe behind the fresh-access gate: a token obtained via
// refresh is rejected here with FreshTokenRequired.
func (h *TestHandler) Op2(c echo.Context) error {
	claims, ok := middleware.GetClaims(c)
	if !ok {
		return response.Unauthorized(c, "CONTEXT_ERROR", "Claims not found in context")
	}

	return response.Success(c, http.StatusOK, map[string]any{
		"message": "sensitive operation successful",
		"userid":  claims.UserID.String(),
	})
}
