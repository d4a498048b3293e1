package service

import "github.com/iliyamo/event-reservation/internal/model"

// Reserved sums the quantities of the given reservations.
func Reserved(reservations []model.Reservation) int {
	total := 0
	for _, r := range reservations {
		total += r.Quantity
	}
	return total
}

// Available returns the seats left for a showing given its venue capacity
// and the full set of reservations held against it.  The result may be
// zero or negative (for example after a capacity was lowered by hand in
// the database); callers treat anything below one as sold out.
//
// Available is pure.  Callers that act on the result must pass a
// consistent snapshot, which ReservationManager gets by calling it inside
// the showing's atomic region.
func Available(capacity int, reservations []model.Reservation) int {
	return capacity - Reserved(reservations)
}
