package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/event-reservation/internal/logging"
	"github.com/iliyamo/event-reservation/internal/model"
	"github.com/iliyamo/event-reservation/internal/service"
)

// ReservationHandler serves the reservation endpoints of a signed-in
// user.  The user id always comes from the verified token and is passed
// explicitly to the ReservationManager; request bodies cannot choose it.
type ReservationHandler struct {
	Reservations *service.ReservationManager
	Catalog      *service.CatalogService
}

// NewReservationHandler constructs a ReservationHandler.  Both
// dependencies must be non-nil.
func NewReservationHandler(reservations *service.ReservationManager, catalog *service.CatalogService) *ReservationHandler {
	if reservations == nil || catalog == nil {
		panic("nil service passed to NewReservationHandler")
	}
	return &ReservationHandler{Reservations: reservations, Catalog: catalog}
}

type quantityRequest struct {
	Quantity flexInt `json:"quantita"`
}

// Create handles POST /api/showings/:id/reservations.  The body is
// {"quantita": n}; n defaults to 1 when omitted.  It returns 201 with
// {"success": true, "message": ..., "reservation": ReservationView}.
func (h *ReservationHandler) Create(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	showingID, err := parseID(c, "id")
	if err != nil {
		return badRequest(c, err.Error())
	}
	var req quantityRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "quantita must be an integer")
	}
	quantity := 1
	if req.Quantity.Set {
		quantity = req.Quantity.Value
	}

	res, err := h.Reservations.Create(c.Request().Context(), userID, showingID, quantity)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"success":     true,
		"message":     "reservation created",
		"reservation": h.committedView(c, res),
	})
}

// List handles GET /api/reservations and returns the caller's
// reservations, newest first.
func (h *ReservationHandler) List(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	ctx := c.Request().Context()
	list, err := h.Reservations.ListForUser(ctx, userID)
	if err != nil {
		return writeError(c, err)
	}
	views, err := h.Catalog.ReservationViews(ctx, list)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, views)
}

// Get handles GET /api/reservations/:id.
func (h *ReservationHandler) Get(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	id, err := parseID(c, "id")
	if err != nil {
		return badRequest(c, err.Error())
	}
	ctx := c.Request().Context()
	res, err := h.Reservations.Get(ctx, id, userID)
	if err != nil {
		return writeError(c, err)
	}
	view, err := h.Catalog.ReservationView(ctx, res)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, view)
}

// ForShowing handles GET /api/showings/:id/reservation: the caller's
// reservation for that showing, or 404.  Clients use it to send a user
// who already booked to the update flow instead of the booking form.
func (h *ReservationHandler) ForShowing(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	showingID, err := parseID(c, "id")
	if err != nil {
		return badRequest(c, err.Error())
	}
	ctx := c.Request().Context()
	res, err := h.Reservations.FindForShowing(ctx, userID, showingID)
	if err != nil {
		return writeError(c, err)
	}
	view, err := h.Catalog.ReservationView(ctx, res)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, view)
}

// Update handles PUT /api/reservations/:id with {"quantita": n} and
// returns the updated ReservationView.  quantita is required.
func (h *ReservationHandler) Update(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	id, err := parseID(c, "id")
	if err != nil {
		return badRequest(c, err.Error())
	}
	var req quantityRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "quantita must be an integer")
	}
	if !req.Quantity.Set {
		return badRequest(c, "quantita is required")
	}

	res, err := h.Reservations.Update(c.Request().Context(), id, userID, req.Quantity.Value)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, h.committedView(c, res))
}

// Cancel handles DELETE /api/reservations/:id.
func (h *ReservationHandler) Cancel(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	id, err := parseID(c, "id")
	if err != nil {
		return badRequest(c, err.Error())
	}
	if err := h.Reservations.Cancel(c.Request().Context(), id, userID); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true})
}

// committedView decorates a reservation that is already committed.  A
// failed catalog lookup must not turn the write into an error response,
// so it degrades to the reservation's own fields.
func (h *ReservationHandler) committedView(c echo.Context, res model.Reservation) service.ReservationView {
	view, err := h.Catalog.ReservationView(c.Request().Context(), res)
	if err == nil {
		return view
	}
	logging.FromContext(c.Request().Context()).WithError(err).
		WithField("reservation_id", res.ID).Warn("reservation committed, showing details unavailable")
	return service.ReservationView{
		ID:        res.ID,
		UserID:    res.UserID,
		ShowingID: res.ShowingID,
		Quantity:  res.Quantity,
		Showing:   service.ReservationShowingView{ID: res.ShowingID},
	}
}
