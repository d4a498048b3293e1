package repository

import (
	"context"

	"github.com/iliyamo/event-reservation/internal/model"
)

// ShowingTx is the handle passed to code running inside a showing's atomic
// region (see MySQLStore.InShowing and MemoryStore.InShowing).  Every read
// made through it reflects all previously committed mutations of the same
// showing, and no other mutation of that showing can commit until the
// region ends.  Writes become visible only if the region's callback
// returns nil; otherwise none of them are applied.
type ShowingTx interface {
	// Showing returns the locked showing row.
	Showing() model.Showing
	// Capacity returns the seat capacity of the venue hosting the showing.
	Capacity() int
	// Reservations returns every reservation currently held for the showing.
	Reservations(ctx context.Context) ([]model.Reservation, error)
	// InsertReservation stores r and assigns its ID and timestamps.  It
	// returns ErrDuplicate if r.UserID already holds a reservation here.
	InsertReservation(ctx context.Context, r *model.Reservation) error
	// UpdateReservationQuantity sets the quantity of one reservation of the
	// showing.  ErrNotFound is returned for unknown ids.
	UpdateReservationQuantity(ctx context.Context, id uint64, quantity int) error
	// DeleteReservation removes one reservation of the showing.
	DeleteReservation(ctx context.Context, id uint64) error
	// SetCancelled flips the cancelled flag of the showing.
	SetCancelled(ctx context.Context, cancelled bool) error
	// DeleteShowing removes the showing itself.  It returns ErrConflict
	// while reservations still reference it.
	DeleteShowing(ctx context.Context) error
}

// ShowingFunc is the callback run inside a showing's atomic region.
type ShowingFunc func(ctx context.Context, tx ShowingTx) error
