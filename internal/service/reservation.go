package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/iliyamo/event-reservation/internal/logging"
	"github.com/iliyamo/event-reservation/internal/metrics"
	"github.com/iliyamo/event-reservation/internal/model"
	"github.com/iliyamo/event-reservation/internal/queue"
	"github.com/iliyamo/event-reservation/internal/repository"
)

// publishTimeout bounds the broker round trip made after a commit.
const publishTimeout = 2 * time.Second

// ReservationManager is the only code path that creates, changes or
// deletes reservations.  Every check that guards the capacity and
// uniqueness rules runs inside the showing's atomic region together with
// the write it guards, so two concurrent calls for the same showing can
// never both act on the same stale availability.
//
// The requesting user is always an explicit argument; the manager never
// consults ambient session state.
type ReservationManager struct {
	store     ReservationStore
	publisher Publisher
	timeout   time.Duration
}

// NewReservationManager builds a manager.  publisher may be nil.  A
// positive timeout caps every mutating call; a call that runs out of time
// before commit applies nothing.
func NewReservationManager(store ReservationStore, publisher Publisher, timeout time.Duration) *ReservationManager {
	return &ReservationManager{store: store, publisher: publisher, timeout: timeout}
}

func (m *ReservationManager) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if m.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, m.timeout)
}

// Create reserves quantity seats on a showing for userID.
//
// Checks, in order: quantity >= 1, showing exists, showing not cancelled,
// user holds no reservation for the showing, enough seats are left.
func (m *ReservationManager) Create(ctx context.Context, userID, showingID uint64, quantity int) (res model.Reservation, err error) {
	started := time.Now()
	defer func() { m.observe(ctx, "create", started, err, logrus.Fields{"showing_id": showingID, "quantity": quantity}) }()

	if quantity < 1 {
		return model.Reservation{}, fmt.Errorf("%w: quantity must be at least 1, got %d", ErrInvalidQuantity, quantity)
	}
	ctx, cancel := m.withTimeout(ctx)
	defer cancel()

	err = m.store.InShowing(ctx, showingID, func(ctx context.Context, tx repository.ShowingTx) error {
		if tx.Showing().Cancelled {
			return fmt.Errorf("%w: showing %d no longer accepts reservations", ErrShowingCancelled, showingID)
		}
		current, err := tx.Reservations(ctx)
		if err != nil {
			return err
		}
		for _, r := range current {
			if r.UserID == userID {
				return fmt.Errorf("%w: reservation %d already exists for this showing", ErrDuplicateReservation, r.ID)
			}
		}
		if available := Available(tx.Capacity(), current); available < quantity {
			return fmt.Errorf("%w: %d seats available, %d requested", ErrCapacityExceeded, max(available, 0), quantity)
		}
		res = model.Reservation{UserID: userID, ShowingID: showingID, Quantity: quantity}
		if err := tx.InsertReservation(ctx, &res); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return fmt.Errorf("%w: a reservation already exists for this showing", ErrDuplicateReservation)
			}
			return err
		}
		return nil
	})
	if err != nil {
		return model.Reservation{}, storeErr(err, ErrShowingNotFound, showingID)
	}

	metrics.SeatDelta(quantity)
	m.publish(ctx, queue.ReservationCreated, res, 0)
	return res, nil
}

// Update changes the quantity of a reservation owned by userID.  Growing
// the reservation needs newQuantity - old seats to be free; shrinking it
// always fits.  A cancelled showing only accepts shrinking updates.
func (m *ReservationManager) Update(ctx context.Context, reservationID, userID uint64, newQuantity int) (res model.Reservation, err error) {
	started := time.Now()
	defer func() {
		m.observe(ctx, "update", started, err, logrus.Fields{"reservation_id": reservationID, "quantity": newQuantity})
	}()

	if newQuantity < 1 {
		return model.Reservation{}, fmt.Errorf("%w: quantity must be at least 1, got %d", ErrInvalidQuantity, newQuantity)
	}
	ctx, cancel := m.withTimeout(ctx)
	defer cancel()

	owned, err := m.lookupOwned(ctx, reservationID, userID)
	if err != nil {
		return model.Reservation{}, err
	}

	var previous int
	err = m.store.InShowing(ctx, owned.ShowingID, func(ctx context.Context, tx repository.ShowingTx) error {
		current, err := tx.Reservations(ctx)
		if err != nil {
			return err
		}
		r, err := lockedReservation(current, reservationID, userID)
		if err != nil {
			return err
		}
		if newQuantity > r.Quantity {
			if tx.Showing().Cancelled {
				return fmt.Errorf("%w: seats cannot be added on showing %d", ErrShowingCancelled, r.ShowingID)
			}
			// Seats open to this reservation include the ones it already holds.
			if available := Available(tx.Capacity(), current); available+r.Quantity < newQuantity {
				return fmt.Errorf("%w: at most %d seats possible, %d requested", ErrCapacityExceeded, max(available+r.Quantity, 0), newQuantity)
			}
		}
		if err := tx.UpdateReservationQuantity(ctx, r.ID, newQuantity); err != nil {
			return err
		}
		previous = r.Quantity
		r.Quantity = newQuantity
		r.UpdatedAt = time.Now().UTC()
		res = r
		return nil
	})
	if err != nil {
		return model.Reservation{}, storeErr(err, ErrReservationNotFound, reservationID)
	}

	metrics.SeatDelta(newQuantity - previous)
	m.publish(ctx, queue.ReservationUpdated, res, previous)
	return res, nil
}

// Cancel deletes a reservation owned by userID, releasing its seats.
func (m *ReservationManager) Cancel(ctx context.Context, reservationID, userID uint64) (err error) {
	started := time.Now()
	defer func() { m.observe(ctx, "cancel", started, err, logrus.Fields{"reservation_id": reservationID}) }()

	ctx, cancel := m.withTimeout(ctx)
	defer cancel()

	owned, err := m.lookupOwned(ctx, reservationID, userID)
	if err != nil {
		return err
	}

	var removed model.Reservation
	err = m.store.InShowing(ctx, owned.ShowingID, func(ctx context.Context, tx repository.ShowingTx) error {
		current, err := tx.Reservations(ctx)
		if err != nil {
			return err
		}
		r, err := lockedReservation(current, reservationID, userID)
		if err != nil {
			return err
		}
		if err := tx.DeleteReservation(ctx, r.ID); err != nil {
			return err
		}
		removed = r
		return nil
	})
	if err != nil {
		return storeErr(err, ErrReservationNotFound, reservationID)
	}

	metrics.SeatDelta(-removed.Quantity)
	m.publish(ctx, queue.ReservationCancelled, removed, removed.Quantity)
	return nil
}

// Get returns one reservation if userID owns it.
func (m *ReservationManager) Get(ctx context.Context, reservationID, userID uint64) (model.Reservation, error) {
	return m.lookupOwned(ctx, reservationID, userID)
}

// FindForShowing returns the reservation userID holds for a showing, or
// ErrReservationNotFound.
func (m *ReservationManager) FindForShowing(ctx context.Context, userID, showingID uint64) (model.Reservation, error) {
	r, err := m.store.FindReservation(ctx, userID, showingID)
	if err != nil {
		return model.Reservation{}, storeErr(err, ErrReservationNotFound, showingID)
	}
	return r, nil
}

// ListForUser returns every reservation held by userID, newest first.
func (m *ReservationManager) ListForUser(ctx context.Context, userID uint64) ([]model.Reservation, error) {
	return m.store.ListReservationsByUser(ctx, userID)
}

func (m *ReservationManager) lookupOwned(ctx context.Context, reservationID, userID uint64) (model.Reservation, error) {
	r, err := m.store.GetReservation(ctx, reservationID)
	if err != nil {
		return model.Reservation{}, storeErr(err, ErrReservationNotFound, reservationID)
	}
	if r.UserID != userID {
		return model.Reservation{}, fmt.Errorf("%w: reservation %d belongs to another user", ErrForbidden, reservationID)
	}
	return r, nil
}

// lockedReservation re-reads the reservation from the locked snapshot, so
// a concurrent cancel between lookup and lock is reported as not found.
func lockedReservation(current []model.Reservation, reservationID, userID uint64) (model.Reservation, error) {
	for _, r := range current {
		if r.ID != reservationID {
			continue
		}
		if r.UserID != userID {
			return model.Reservation{}, fmt.Errorf("%w: reservation %d belongs to another user", ErrForbidden, reservationID)
		}
		return r, nil
	}
	return model.Reservation{}, fmt.Errorf("%w: reservation %d", ErrReservationNotFound, reservationID)
}

// storeErr maps repository.ErrNotFound to notFound and leaves other
// errors untouched.
func storeErr(err, notFound error, id uint64) error {
	if errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("%w: id %d", notFound, id)
	}
	return err
}

func (m *ReservationManager) observe(ctx context.Context, op string, started time.Time, err error, fields logrus.Fields) {
	kind := Kind(err)
	metrics.ObserveOp(op, kind, started)

	entry := logging.FromContext(ctx).WithFields(fields).WithField("op", op)
	switch kind {
	case "ok":
		entry.Info("reservation operation committed")
	case "internal", "timeout":
		entry.WithError(err).Error("reservation operation failed")
	default:
		entry.WithField("kind", kind).Debug(err.Error())
	}
}

func (m *ReservationManager) publish(ctx context.Context, typ queue.EventType, r model.Reservation, previous int) {
	if m.publisher == nil {
		return
	}
	ev := queue.NewReservationEvent(typ, r, previous)
	ev.CorrelationID = logging.CorrelationID(ctx)

	// The change is already committed; a cancelled request must not stop
	// the notification.
	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	if err := m.publisher.Publish(pctx, ev); err != nil {
		metrics.EventsPublishFailures.Inc()
		logging.FromContext(ctx).WithError(err).WithField("event", typ).Warn("failed to publish reservation event")
	}
}
