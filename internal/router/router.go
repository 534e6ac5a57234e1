// Package router registers the HTTP routes of the API.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/exam-seating/internal/handler"
	"github.com/iliyamo/exam-seating/internal/middleware"
	"github.com/iliyamo/exam-seating/internal/model"
)

// RegisterRoutes registers routes that need neither authentication nor
// storage.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers the token endpoints under /v1/auth and the
// protected /v1/me.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	g.POST("/refresh", a.Refresh)               // rotates the refresh token
	g.POST("/refresh-access", a.RefreshAccess) // keeps the refresh token
	// Logout takes a refresh token or a bearer token, so it sits outside JWTAuth.
	g.POST("/logout", a.Logout)

	e.GET("/v1/me", a.Me,
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleOwner, model.RoleViewer),
	)
}

// RegisterPublic registers the unauthenticated room endpoints.  mw (the
// response cache and rate limiter in production) wraps each of them.
func RegisterPublic(e *echo.Echo, p *handler.PublicHandler, mw ...echo.MiddlewareFunc) {
	e.GET("/v1/rooms", p.ListRooms, mw...)
	e.GET("/v1/rooms/:id/layout", p.GetLayout, mw...)
	// Seating is recomputed from the stored room on every miss.
	e.GET("/v1/rooms/:id/seating", p.GetSeating, mw...)
}
