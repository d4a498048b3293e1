package router // package router defines how HTTP routes are registered for the API

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"                             // Echo web framework used for routing
	"github.com/prometheus/client_golang/prometheus/promhttp" // exposes the default Prometheus registry

	"github.com/iliyamo/event-reservation/internal/handler"    // HTTP handlers
	"github.com/iliyamo/event-reservation/internal/middleware" // JWT, role and cache middleware
)

// RegisterRoutes registers the operational endpoints that do not require
// authentication.  /healthz reports liveness, /readyz runs ping (the
// database check in production) and /metrics is mounted only when
// withMetrics is set; otherwise it is served on a separate port.
func RegisterRoutes(e *echo.Echo, ping func(ctx context.Context) error, withMetrics bool) {
	// Liveness for load balancers and monitoring systems.
	e.GET("/healthz", handler.Health)
	e.GET("/readyz", handler.Ready(ping))
	if withMetrics {
		e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	}
}

// MetricsHandler returns the handler used when /metrics is served on its
// own port.
func MetricsHandler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	return mux
}

// RegisterPublic registers the catalog endpoints.  They need no token and
// their 200 responses go through the shared response cache.
func RegisterPublic(e *echo.Echo, h *handler.CatalogHandler, cache *middleware.ResponseCache) {
	g := e.Group("/api", cache.Middleware())
	// Every event with its venue and showings, each with live availability.
	g.GET("/events-with-showings", h.EventsWithShowings)
	// One showing with its remaining seats.
	g.GET("/showings/:id", h.Showing)
	// Start time rendered as "HH:MM Weekday DD/MM/YYYY".
	g.GET("/showings/:id/display-time", h.DisplayTime)
}
