// Package router contains routing and server setup for the HTTP delivery.
package router

import (
	"typeit/internal/delivery/http/middleware"
	"typeit/internal/delivery/http/router/handler"

	"github.com/labstack/echo/v4"
	"go.uber.org/fx"
)

type RouterParams struct {
	fx.In

	AccountHandler *handler.AccountHandler
	AuthMiddleware *middleware.AuthMiddleware
}

// router holds all the handlers that need to be registered.
type router struct {
	accountHandler *handler.AccountHandler
	authMiddleware *middleware.AuthMiddleware
}

// NewRouter is the constructor for the Router.
// Fx will inject the required handlers here.
func NewRouter(params RouterParams) *router {
	return &router{
		accountHandler: params.AccountHandler,
		authMiddleware: params.AuthMiddleware,
	}
}

// RegisterRoutes sets up all the API routes for the application.
func (r *router) RegisterRoutes(e *echo.Echo) {
	e.GET("/health", handler.HealthCheck)

	authGroup := e.Group("/api/auth")
	{
		authGroup.POST("/createuser", r.accountHandler.Register)
		authGroup.POST("/login", r.accountHandler.Login)
		authGroup.POST("/forgotpassword", r.accountHandler.ForgotPassword)
		authGroup.GET("/verifyemail/:token", r.accountHandler.VerifyEmail)
	}

	// Routes acting on the account named by the session token.
	sessionGroup := e.Group("/api/auth", r.authMiddleware.Authenticate)
	{
		sessionGroup.POST("/getuser", r.accountHandler.GetAccount)
		sessionGroup.POST("/updateuser", r.accountHandler.UpdateStats)
		sessionGroup.POST("/updateusernames", r.accountHandler.UpdateProfile)
		sessionGroup.POST("/updatepassword", r.accountHandler.ChangePassword)
		sessionGroup.POST("/deleteuser", r.accountHandler.DeleteAccount)
	}
}
