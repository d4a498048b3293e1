package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/event-reservation/internal/service"
)

// AdminHandler exposes the administrative operations on venues, events
// and showings.  Routes using it must be restricted to the ADMIN role.
type AdminHandler struct {
	Admin *service.AdminService
}

// NewAdminHandler constructs an AdminHandler.
func NewAdminHandler(admin *service.AdminService) *AdminHandler {
	if admin == nil {
		panic("nil service passed to NewAdminHandler")
	}
	return &AdminHandler{Admin: admin}
}

type venueRequest struct {
	Name     string `json:"nome_locale"`
	Location string `json:"luogo"`
	Capacity int    `json:"posti"`
}

type eventRequest struct {
	VenueID uint64 `json:"locale_id"`
	Name    string `json:"nome_evento"`
	Image   string `json:"immagine"`
}

type showingRequest struct {
	EventID   uint64    `json:"evento_id"`
	StartTime time.Time `json:"data_ora"` // RFC 3339
}

type showingPatch struct {
	Cancelled *bool `json:"annullato"`
}

// CreateVenue handles POST /api/admin/venues.
func (h *AdminHandler) CreateVenue(c echo.Context) error {
	var req venueRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	v, err := h.Admin.CreateVenue(c.Request().Context(), req.Name, req.Location, req.Capacity)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"id": v.ID, "nome_locale": v.Name, "luogo": v.Location, "posti": v.Capacity})
}

// CreateEvent handles POST /api/admin/events.
func (h *AdminHandler) CreateEvent(c echo.Context) error {
	var req eventRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	e, err := h.Admin.CreateEvent(c.Request().Context(), req.VenueID, req.Name, req.Image)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"id": e.ID, "locale_id": e.VenueID, "nome_evento": e.Name, "immagine": e.Image})
}

// CreateShowing handles POST /api/admin/showings.
func (h *AdminHandler) CreateShowing(c echo.Context) error {
	var req showingRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body, data_ora must be RFC 3339")
	}
	s, err := h.Admin.CreateShowing(c.Request().Context(), req.EventID, req.StartTime)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"id": s.ID, "evento_id": s.EventID, "data_ora": s.StartTime, "annullato": s.Cancelled})
}

// PatchShowing handles PATCH /api/admin/showings/:id with {"annullato": bool}.
func (h *AdminHandler) PatchShowing(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return badRequest(c, err.Error())
	}
	var req showingPatch
	if err := c.Bind(&req); err != nil || req.Cancelled == nil {
		return badRequest(c, "annullato is required")
	}
	s, err := h.Admin.SetShowingCancelled(c.Request().Context(), id, *req.Cancelled)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"id": s.ID, "evento_id": s.EventID, "data_ora": s.StartTime, "annullato": s.Cancelled})
}

// DeleteVenue handles DELETE /api/admin/venues/:id.
func (h *AdminHandler) DeleteVenue(c echo.Context) error {
	return h.delete(c, h.Admin.DeleteVenue)
}

// DeleteEvent handles DELETE /api/admin/events/:id.
func (h *AdminHandler) DeleteEvent(c echo.Context) error {
	return h.delete(c, h.Admin.DeleteEvent)
}

// DeleteShowing handles DELETE /api/admin/showings/:id.
func (h *AdminHandler) DeleteShowing(c echo.Context) error {
	return h.delete(c, h.Admin.DeleteShowing)
}

func (h *AdminHandler) delete(c echo.Context, del func(ctx context.Context, id uint64) error) error {
	id, err := parseID(c, "id")
	if err != nil {
		return badRequest(c, err.Error())
	}
	if err := del(c.Request().Context(), id); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
