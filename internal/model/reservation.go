package model

import "time"

// Reservation is one user's claim on a number of seats for a single
// showing.  A user holds at most one reservation per showing and the
// quantity is always at least one; releasing every seat deletes the
// reservation instead of zeroing it.
//
// Fields:
//	ID        – primary key identifier.
//	UserID    – user who owns the reservation.
//	ShowingID – showing being reserved.
//	Quantity  – number of seats held.
//	CreatedAt – creation timestamp.
//	UpdatedAt – last update timestamp.
type Reservation struct {
	ID        uint64    // reservations.id
	UserID    uint64    // reservations.user_id
	ShowingID uint64    // reservations.showing_id
	Quantity  int       // reservations.quantity
	CreatedAt time.Time // reservations.created_at
	UpdatedAt time.Time // reservations.updated_at
}
