package model

import "time"

// Venue is a bookable location with a fixed number of seats.  Every
// showing of every event hosted at the venue draws from the same
// Capacity, which is a positive aggregate count (no seat map).
//
// Fields:
//	ID        – primary key identifier.
//	Name      – display name of the venue.
//	Location  – free-text place label (city, address).
//	Capacity  – seats available to each showing.
//	CreatedAt – creation timestamp.
type Venue struct {
	ID        uint64    // venues.id
	Name      string    // venues.name
	Location  string    // venues.location
	Capacity  int       // venues.capacity
	CreatedAt time.Time // venues.created_at
}
