package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/iliyamo/event-reservation/internal/model"
	"github.com/iliyamo/event-reservation/internal/repository"
)

// AdminService holds the operations of the administrative collaborator:
// creating venues, events and showings, cancelling showings and deleting
// entities.  Deletes never cascade; an entity that still has dependents
// is kept and ErrReferentialConflict is returned.
type AdminService struct {
	store AdminStore
}

// NewAdminService returns an AdminService over store.
func NewAdminService(store AdminStore) *AdminService { return &AdminService{store: store} }

// CreateVenue validates and stores a venue.
func (a *AdminService) CreateVenue(ctx context.Context, name, location string, capacity int) (model.Venue, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return model.Venue{}, fmt.Errorf("%w: venue name is required", ErrInvalidArgument)
	}
	if capacity <= 0 {
		return model.Venue{}, fmt.Errorf("%w: capacity must be positive, got %d", ErrInvalidArgument, capacity)
	}
	v := model.Venue{Name: name, Location: strings.TrimSpace(location), Capacity: capacity}
	if err := a.store.CreateVenue(ctx, &v); err != nil {
		return model.Venue{}, err
	}
	return v, nil
}

// CreateEvent stores an event hosted at venueID.
func (a *AdminService) CreateEvent(ctx context.Context, venueID uint64, name, image string) (model.Event, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return model.Event{}, fmt.Errorf("%w: event name is required", ErrInvalidArgument)
	}
	e := model.Event{VenueID: venueID, Name: name, Image: strings.TrimSpace(image)}
	if err := a.store.CreateEvent(ctx, &e); err != nil {
		return model.Event{}, storeErr(err, ErrEntityNotFound, venueID)
	}
	return e, nil
}

// CreateShowing schedules a showing of eventID.
func (a *AdminService) CreateShowing(ctx context.Context, eventID uint64, start time.Time) (model.Showing, error) {
	if start.IsZero() {
		return model.Showing{}, fmt.Errorf("%w: start time is required", ErrInvalidArgument)
	}
	s := model.Showing{EventID: eventID, StartTime: start.UTC()}
	if err := a.store.CreateShowing(ctx, &s); err != nil {
		return model.Showing{}, storeErr(err, ErrEntityNotFound, eventID)
	}
	return s, nil
}

// SetShowingCancelled marks a showing cancelled (or reopens it).  The flag
// is flipped inside the showing's atomic region, so a create racing with
// the cancellation either commits first or sees the showing cancelled.
func (a *AdminService) SetShowingCancelled(ctx context.Context, showingID uint64, cancelled bool) (model.Showing, error) {
	var out model.Showing
	err := a.store.InShowing(ctx, showingID, func(ctx context.Context, tx repository.ShowingTx) error {
		if err := tx.SetCancelled(ctx, cancelled); err != nil {
			return err
		}
		out = tx.Showing()
		return nil
	})
	if err != nil {
		return model.Showing{}, storeErr(err, ErrShowingNotFound, showingID)
	}
	return out, nil
}

// DeleteVenue removes a venue that hosts no events.
func (a *AdminService) DeleteVenue(ctx context.Context, id uint64) error {
	return deleteErr(a.store.DeleteVenue(ctx, id), ErrEntityNotFound, "venue", id)
}

// DeleteEvent removes an event that has no showings.
func (a *AdminService) DeleteEvent(ctx context.Context, id uint64) error {
	return deleteErr(a.store.DeleteEvent(ctx, id), ErrEntityNotFound, "event", id)
}

// DeleteShowing removes a showing that has no reservations.  The check
// and the delete share the showing's atomic region with reservation
// writes, so a reservation cannot slip in between them.
func (a *AdminService) DeleteShowing(ctx context.Context, id uint64) error {
	err := a.store.InShowing(ctx, id, func(ctx context.Context, tx repository.ShowingTx) error {
		current, err := tx.Reservations(ctx)
		if err != nil {
			return err
		}
		if len(current) > 0 {
			return fmt.Errorf("%w: showing %d still has %d reservations", ErrReferentialConflict, id, len(current))
		}
		return tx.DeleteShowing(ctx)
	})
	return deleteErr(err, ErrShowingNotFound, "showing", id)
}

func deleteErr(err, notFound error, what string, id uint64) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrNotFound):
		return fmt.Errorf("%w: %s %d", notFound, what, id)
	case errors.Is(err, repository.ErrConflict):
		return fmt.Errorf("%w: %s %d still has dependents", ErrReferentialConflict, what, id)
	default:
		return err
	}
}
