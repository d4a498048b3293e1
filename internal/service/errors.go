package service

import (
	"context"
	"errors"
)

// Error kinds reported by the reservation core.  Callers match them with
// errors.Is; the wrapped message carries the detail shown to users.
var (
	ErrShowingNotFound      = errors.New("showing not found")
	ErrReservationNotFound  = errors.New("reservation not found")
	ErrShowingCancelled     = errors.New("showing cancelled")
	ErrDuplicateReservation = errors.New("duplicate reservation")
	ErrCapacityExceeded     = errors.New("capacity exceeded")
	ErrInvalidQuantity      = errors.New("invalid quantity")
	ErrForbidden            = errors.New("forbidden")
	ErrReferentialConflict  = errors.New("referential conflict")

	// ErrEntityNotFound covers venue and event lookups made by the
	// administrative operations.
	ErrEntityNotFound = errors.New("entity not found")
	// ErrInvalidArgument rejects malformed administrative input such as a
	// non-positive venue capacity.
	ErrInvalidArgument = errors.New("invalid argument")
)

// Kind returns a stable snake_case name for the error kind wrapped by
// err.  nil is "ok", context expiry is "timeout" and anything else not
// listed above is "internal".
func Kind(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrShowingNotFound):
		return "showing_not_found"
	case errors.Is(err, ErrReservationNotFound):
		return "reservation_not_found"
	case errors.Is(err, ErrShowingCancelled):
		return "showing_cancelled"
	case errors.Is(err, ErrDuplicateReservation):
		return "duplicate_reservation"
	case errors.Is(err, ErrCapacityExceeded):
		return "capacity_exceeded"
	case errors.Is(err, ErrInvalidQuantity):
		return "invalid_quantity"
	case errors.Is(err, ErrForbidden):
		return "forbidden"
	case errors.Is(err, ErrReferentialConflict):
		return "referential_conflict"
	case errors.Is(err, ErrEntityNotFound):
		return "not_found"
	case errors.Is(err, ErrInvalidArgument):
		return "invalid_argument"
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return "timeout"
	default:
		return "internal"
	}
}
