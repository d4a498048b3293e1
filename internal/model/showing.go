package model

import "time"

// Showing is one scheduled occurrence of an event.  A cancelled
// showing stays in the catalog but no longer accepts new
// reservations.
type Showing struct {
	ID        uint64    // showings.id
	EventID   uint64    // showings.event_id
	StartTime time.Time // showings.start_time (UTC)
	Cancelled bool      // showings.cancelled
	CreatedAt time.Time // showings.created_at
}
