// Package router contains routing and server setup for the HTTP delivery.
package router

import (
	"securelogin/config"
	"securelogin/internal/delivery/http/middleware"
	"securelogin/internal/delivery/http/router/handler"

	"github.com/labstack/echo/v4"
	"go.uber.org/fx"
)

type RouterParams struct {
	fx.In

	AuthHandler    *handler.AuthHandler
	TestHandler    *handler.TestHandler
	AuthMiddleware *middleware.AuthMiddleware
	Config         *config.Config
}

// router holds all the handlers that need to be registered.
type router struct {
	authHandler    *handler.AuthHandler
	testHandler    *handler.TestHandler
	authMiddleware *middleware.AuthMiddleware
	config         *config.Config
}

// NewRouter is the constructor for the Router.
// Fx will inject the required handlers here.
func NewRouter(params RouterParams) *router {
	return &router{
		authHandler:    params.AuthHandler,
		testHandler:    params.TestHandler,
		authMiddleware: params.AuthMiddleware,
		config:         params.Config,
	}
}

// RegisterRoutes sets up all the API routes for the application.
func (r *router) RegisterRoutes(e *echo.Echo) {
	// Health check endpoint
	e.GET("/health", handler.HealthCheck)

	authGroup := e.Group("/auth")
	{
		// Public entry points
		authGroup.POST("/register", r.authHandler.Register)
		authGroup.POST("/login", r.authHandler.Login)
		authGroup.POST("/login_sms", r.authHandler.LoginSMS)
		authGroup.POST("/verify_sms", r.authHandler.VerifySMS)

		// Token-gated operations
		authGroup.POST("/refresh", r.authHandler.Refresh, r.authMiddleware.RequireRefresh())
		authGroup.POST("/logout", r.authHandler.Logout, r.authMiddleware.RequireAccess())
		authGroup.POST("/logout_all_other_sessions", r.authHandler.LogoutAllOtherSessions, r.authMiddleware.RequireFreshAccess())
		authGroup.POST("/password", r.authHandler.ChangePassword, r.authMiddleware.RequireFreshAccess())
	}
}

// RegisterTestRoutes adds the token-gate probe endpoints when enabled.
func (r *router) RegisterTestRoutes(e *echo.Echo) {
	if r.config.TestRoutes == nil || !r.config.TestRoutes.Enabled {
		return
	}

	authGroup := e.Group("/auth")
	authGroup.GET("/op", r.testHandler.Op, r.authMiddleware.RequireAccess())
	authGroup.GET("/op2", r.testHandler.Op2, r.authMiddleware.RequireFreshAccess())
}
