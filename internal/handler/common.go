package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/event-reservation/internal/logging"
	"github.com/iliyamo/event-reservation/internal/middleware"
	"github.com/iliyamo/event-reservation/internal/service"
)

// getUserID returns the authenticated user id set by middleware.JWTAuth.
func getUserID(c echo.Context) (uint64, error) {
	id, ok := middleware.UserID(c)
	if !ok {
		return 0, errors.New("invalid user_id in context")
	}
	return id, nil
}

// parseID reads a positive numeric path parameter.
func parseID(c echo.Context, name string) (uint64, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid %s", name)
	}
	return id, nil
}

func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, echo.Map{"error": "bad_request", "message": msg})
}

func unauthorized(c echo.Context) error {
	return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized", "message": "authentication required"})
}

// statusFor maps a service error kind to its HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrShowingNotFound),
		errors.Is(err, service.ErrReservationNotFound),
		errors.Is(err, service.ErrEntityNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, service.ErrShowingCancelled),
		errors.Is(err, service.ErrDuplicateReservation),
		errors.Is(err, service.ErrCapacityExceeded),
		errors.Is(err, service.ErrInvalidQuantity),
		errors.Is(err, service.ErrInvalidArgument):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrReferentialConflict):
		return http.StatusConflict
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// writeError renders err as {"error": kind, "message": detail}.  Internal
// errors are logged and their detail is not exposed.
func writeError(c echo.Context, err error) error {
	status := statusFor(err)
	switch status {
	case http.StatusInternalServerError:
		logging.FromContext(c.Request().Context()).WithError(err).Error("request failed")
		return c.JSON(status, echo.Map{"error": "internal", "message": "internal error"})
	case http.StatusServiceUnavailable:
		return c.JSON(status, echo.Map{"error": "timeout", "message": "the showing is busy, please retry"})
	}
	return c.JSON(status, echo.Map{"error": service.Kind(err), "message": err.Error()})
}

// flexInt decodes a JSON number or a numeric string, as sent by HTML
// form based clients.  Set is false when the field is absent or null.
type flexInt struct {
	Value int
	Set   bool
}

func (f *flexInt) UnmarshalJSON(b []byte) error {
	raw := strings.TrimSpace(string(b))
	if raw == "null" {
		return nil
	}
	if strings.HasPrefix(raw, `"`) {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		raw = strings.TrimSpace(s)
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fmt.Errorf("not an integer: %q", raw)
	}
	f.Value, f.Set = n, true
	return nil
}
