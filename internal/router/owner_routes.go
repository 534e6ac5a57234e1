package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/exam-seating/internal/handler"
	"github.com/iliyamo/exam-seating/internal/middleware"
	"github.com/iliyamo/exam-seating/internal/model"
)

// RegisterOwner registers OWNER-scoped room management endpoints under
// /v1/rooms.  All routes require a valid JWT and the OWNER role.
func RegisterOwner(e *echo.Echo, o *handler.OwnerHandler, jwtSecret string) {
	g := e.Group(
		"/v1/rooms",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleOwner),
	)

	g.POST("", o.CreateRoom)
	g.POST("/import", o.Import) // TOML body
	g.PUT("/:id", o.UpdateRoom)
	g.PATCH("/:id", o.UpdateRoom)
	g.DELETE("/:id", o.DeleteRoom)

	g.PUT("/:id/roster", o.ReplaceRoster)
	g.PUT("/:id/pins", o.ReplacePins)
	g.POST("/:id/seating/publish", o.PublishSeating)
}
