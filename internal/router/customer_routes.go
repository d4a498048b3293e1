package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/event-reservation/internal/handler"
	"github.com/iliyamo/event-reservation/internal/middleware"
)

// RegisterCustomer registers the reservation endpoints under /api.  All
// routes require a valid JWT; any role may hold reservations.  Mutations
// purge the catalog cache on success because availability changed.
func RegisterCustomer(e *echo.Echo, h *handler.ReservationHandler, jwtSecret string, cache *middleware.ResponseCache) {
	g := e.Group("/api", middleware.JWTAuth(jwtSecret))
	purge := cache.PurgeOnSuccess()

	// The caller's reservation for one showing, if any.
	g.GET("/showings/:id/reservation", h.ForShowing)
	// Reserve seats; body {"quantita": n}.
	g.POST("/showings/:id/reservations", h.Create, purge)

	g.GET("/reservations", h.List)
	g.GET("/reservations/:id", h.Get)
	g.PUT("/reservations/:id", h.Update, purge)
	g.DELETE("/reservations/:id", h.Cancel, purge)
}
