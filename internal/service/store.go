package service

import (
	"context"

	"github.com/iliyamo/event-reservation/internal/model"
	"github.com/iliyamo/event-reservation/internal/queue"
	"github.com/iliyamo/event-reservation/internal/repository"
)

// ReservationStore is the storage needed by ReservationManager.
// repository.MySQLStore and repository.MemoryStore implement it.
type ReservationStore interface {
	InShowing(ctx context.Context, showingID uint64, fn repository.ShowingFunc) error
	GetReservation(ctx context.Context, id uint64) (model.Reservation, error)
	FindReservation(ctx context.Context, userID, showingID uint64) (model.Reservation, error)
	ListReservationsByUser(ctx context.Context, userID uint64) ([]model.Reservation, error)
}

// CatalogStore is the read-only storage needed by CatalogService.
type CatalogStore interface {
	ListEvents(ctx context.Context) ([]model.Event, error)
	GetEvent(ctx context.Context, id uint64) (model.Event, error)
	GetVenue(ctx context.Context, id uint64) (model.Venue, error)
	GetShowing(ctx context.Context, id uint64) (model.Showing, error)
	ListShowingsByEvent(ctx context.Context, eventID uint64) ([]model.Showing, error)
	ListReservationsByShowing(ctx context.Context, showingID uint64) ([]model.Reservation, error)
}

// AdminStore is the storage needed by AdminService.
type AdminStore interface {
	InShowing(ctx context.Context, showingID uint64, fn repository.ShowingFunc) error
	CreateVenue(ctx context.Context, v *model.Venue) error
	CreateEvent(ctx context.Context, e *model.Event) error
	CreateShowing(ctx context.Context, s *model.Showing) error
	DeleteVenue(ctx context.Context, id uint64) error
	DeleteEvent(ctx context.Context, id uint64) error
}

// Publisher receives reservation lifecycle events after commit.
// *queue.Publisher implements it.
type Publisher interface {
	Publish(ctx context.Context, ev queue.ReservationEvent) error
}
