package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/villa-booking/internal/handler"
	"github.com/iliyamo/villa-booking/internal/middleware"
)

// RegisterRoutes registers routes that carry no authentication and no
// caching. Currently that is only the health check used by load
// balancers and uptime monitors.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers the admin session endpoints. Token issuing
// operations live under /v1/auth and need no session; /v1/me requires
// a valid access token.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	g := e.Group("/v1/auth")
	g.POST("/login", a.Login)
	// Refresh rotates the refresh token; the old one stops working.
	g.POST("/refresh", a.Refresh)
	// Logout takes the refresh token in the body, so no JWT required.
	g.POST("/logout", a.Logout)

	auth := e.Group("/v1", middleware.JWTAuth(jwtSecret))
	auth.GET("/me", a.Me)
}
