package model

import "time"

// Event is a named production hosted at exactly one venue.  The event
// only stores the venue id; the venue itself is fetched with an
// explicit lookup when needed.
type Event struct {
	ID        uint64    // events.id
	VenueID   uint64    // events.venue_id
	Name      string    // events.name
	Image     string    // events.image (file name or URL, may be empty)
	CreatedAt time.Time // events.created_at
}
