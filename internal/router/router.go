package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4" // import the Echo web framework to handle routing

	"github.com/iliyamo/church-manager/internal/handler"    // import the handlers that implement business logic
	"github.com/iliyamo/church-manager/internal/middleware" // import middleware for JWT authentication and church scoping
)

// RegisterRoutes registers routes that do not require authentication on the
// provided Echo instance: the liveness and readiness probes.
func RegisterRoutes(e *echo.Echo, h *handler.HealthHandler) {
	e.GET("/healthz", h.Health)
	e.GET("/readyz", h.Ready)
}

// RegisterAuth registers the authentication routes.  None of them require an
// existing session; logout accepts either a refresh token in the body or a
// bearer token.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler) {
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	g.POST("/refresh", a.Refresh) // rotates the refresh token
	g.POST("/logout", a.Logout)
}

// RegisterChurches registers the session identity routes.  They require a
// valid access token but no active church, since they are how a user picks
// one.  Identity responses are never cached server-side.
func RegisterChurches(e *echo.Echo, h *handler.ChurchHandler, jwtSecret string, limit echo.MiddlewareFunc) {
	g := e.Group("/v1/churches", middleware.JWTAuth(jwtSecret), limit)
	g.GET("/mine", h.Mine)
	g.GET("/active", h.Active)
	g.POST("/active", h.SetActive)
	g.POST("", h.Create)
}
