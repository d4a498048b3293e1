package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/event-reservation/internal/handler"
	"github.com/iliyamo/event-reservation/internal/middleware"
	"github.com/iliyamo/event-reservation/internal/utils"
)

// RegisterAdmin registers catalog management under /api/admin.  Routes
// require a valid JWT with the ADMIN role.  Every route changes what the
// public catalog shows, so the cache is purged after each success.
func RegisterAdmin(e *echo.Echo, h *handler.AdminHandler, jwtSecret string, cache *middleware.ResponseCache) {
	g := e.Group(
		"/api/admin",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(utils.RoleAdmin),
		cache.PurgeOnSuccess(),
	)
	g.POST("/venues", h.CreateVenue)
	g.DELETE("/venues/:id", h.DeleteVenue)

	g.POST("/events", h.CreateEvent)
	g.DELETE("/events/:id", h.DeleteEvent)

	g.POST("/showings", h.CreateShowing)
	// Body {"annullato": true|false}.
	g.PATCH("/showings/:id", h.PatchShowing)
	g.DELETE("/showings/:id", h.DeleteShowing)
}
