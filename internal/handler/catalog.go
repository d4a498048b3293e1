package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/event-reservation/internal/service"
)

// CatalogHandler serves the public, read-only catalog.
type CatalogHandler struct {
	Catalog *service.CatalogService
}

// NewCatalogHandler constructs a CatalogHandler.
func NewCatalogHandler(catalog *service.CatalogService) *CatalogHandler {
	if catalog == nil {
		panic("nil service passed to NewCatalogHandler")
	}
	return &CatalogHandler{Catalog: catalog}
}

// EventsWithShowings handles GET /api/events-with-showings.
func (h *CatalogHandler) EventsWithShowings(c echo.Context) error {
	events, err := h.Catalog.ListEventsWithShowings(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, events)
}

// Showing handles GET /api/showings/:id.
func (h *CatalogHandler) Showing(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return badRequest(c, err.Error())
	}
	view, err := h.Catalog.GetShowing(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, view)
}

// DisplayTime handles GET /api/showings/:id/display-time and returns
// {"data_formattata": "14:30 Thursday 27/06/2024"}.
func (h *CatalogHandler) DisplayTime(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return badRequest(c, err.Error())
	}
	formatted, err := h.Catalog.ShowingDisplayTime(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"data_formattata": formatted})
}
