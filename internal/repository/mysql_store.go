package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/event-reservation/internal/model"
)

// MySQLStore bundles the MySQL repositories behind the store methods used
// by the service layer.  Per-showing atomicity comes from a transaction
// that takes an exclusive row lock on the showing before any
// reservation of that showing is read.
type MySQLStore struct {
	db           *sql.DB
	Venues       *VenueRepo
	Events       *EventRepo
	Showings     *ShowingRepo
	Reservations *ReservationRepo
}

// NewMySQLStore wires the repositories around one connection pool.
func NewMySQLStore(db *sql.DB) *MySQLStore {
	return &MySQLStore{
		db:           db,
		Venues:       NewVenueRepo(db),
		Events:       NewEventRepo(db),
		Showings:     NewShowingRepo(db),
		Reservations: NewReservationRepo(db),
	}
}

// InShowing runs fn inside a transaction holding the showing's row lock.
// Concurrent calls for the same showing queue on that lock; calls for
// other showings are unaffected.  The transaction commits only when fn
// returns nil and the context is still live.
func (s *MySQLStore) InShowing(ctx context.Context, showingID uint64, fn ShowingFunc) error {
	// READ COMMITTED makes every read after the lock see the rows the
	// previous lock holder committed.
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	showing, capacity, err := s.Showings.LockTx(ctx, tx, showingID)
	if err != nil {
		return err
	}
	stx := &mysqlShowingTx{store: s, tx: tx, showing: showing, capacity: capacity}
	if err := fn(ctx, stx); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

type mysqlShowingTx struct {
	store    *MySQLStore
	tx       *sql.Tx
	showing  model.Showing
	capacity int
}

func (t *mysqlShowingTx) Showing() model.Showing { return t.showing }

func (t *mysqlShowingTx) Capacity() int { return t.capacity }

func (t *mysqlShowingTx) Reservations(ctx context.Context) ([]model.Reservation, error) {
	return t.store.Reservations.ListByShowingTx(ctx, t.tx, t.showing.ID)
}

func (t *mysqlShowingTx) InsertReservation(ctx context.Context, r *model.Reservation) error {
	r.ShowingID = t.showing.ID
	return t.store.Reservations.CreateTx(ctx, t.tx, r)
}

func (t *mysqlShowingTx) UpdateReservationQuantity(ctx context.Context, id uint64, quantity int) error {
	return t.store.Reservations.UpdateQuantityTx(ctx, t.tx, t.showing.ID, id, quantity)
}

func (t *mysqlShowingTx) DeleteReservation(ctx context.Context, id uint64) error {
	return t.store.Reservations.DeleteTx(ctx, t.tx, t.showing.ID, id)
}

func (t *mysqlShowingTx) SetCancelled(ctx context.Context, cancelled bool) error {
	if err := t.store.Showings.SetCancelledTx(ctx, t.tx, t.showing.ID, cancelled); err != nil {
		return err
	}
	t.showing.Cancelled = cancelled
	return nil
}

func (t *mysqlShowingTx) DeleteShowing(ctx context.Context) error {
	return t.store.Showings.DeleteTx(ctx, t.tx, t.showing.ID)
}

func (s *MySQLStore) CreateVenue(ctx context.Context, v *model.Venue) error {
	return s.Venues.Create(ctx, v)
}

func (s *MySQLStore) CreateEvent(ctx context.Context, e *model.Event) error {
	return s.Events.Create(ctx, e)
}

func (s *MySQLStore) CreateShowing(ctx context.Context, sh *model.Showing) error {
	return s.Showings.Create(ctx, sh)
}

func (s *MySQLStore) DeleteVenue(ctx context.Context, id uint64) error { return s.Venues.DeleteByID(ctx, id) }

func (s *MySQLStore) DeleteEvent(ctx context.Context, id uint64) error { return s.Events.DeleteByID(ctx, id) }

func (s *MySQLStore) GetVenue(ctx context.Context, id uint64) (model.Venue, error) {
	return s.Venues.GetByID(ctx, id)
}

func (s *MySQLStore) GetEvent(ctx context.Context, id uint64) (model.Event, error) {
	return s.Events.GetByID(ctx, id)
}

func (s *MySQLStore) ListEvents(ctx context.Context) ([]model.Event, error) { return s.Events.List(ctx) }

func (s *MySQLStore) GetShowing(ctx context.Context, id uint64) (model.Showing, error) {
	return s.Showings.GetByID(ctx, id)
}

func (s *MySQLStore) ListShowingsByEvent(ctx context.Context, eventID uint64) ([]model.Showing, error) {
	return s.Showings.ListByEvent(ctx, eventID)
}

func (s *MySQLStore) ListReservationsByShowing(ctx context.Context, showingID uint64) ([]model.Reservation, error) {
	return s.Reservations.ListByShowing(ctx, showingID)
}

func (s *MySQLStore) GetReservation(ctx context.Context, id uint64) (model.Reservation, error) {
	return s.Reservations.GetByID(ctx, id)
}

func (s *MySQLStore) FindReservation(ctx context.Context, userID, showingID uint64) (model.Reservation, error) {
	return s.Reservations.FindByUserAndShowing(ctx, userID, showingID)
}

func (s *MySQLStore) ListReservationsByUser(ctx context.Context, userID uint64) ([]model.Reservation, error) {
	return s.Reservations.ListByUser(ctx, userID)
}
