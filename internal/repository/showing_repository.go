package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/event-reservation/internal/model"
)

// ShowingRepo manages persistence for showings.
type ShowingRepo struct {
	db *sql.DB
}

// NewShowingRepo constructs a ShowingRepo with the given DB handle.
func NewShowingRepo(db *sql.DB) *ShowingRepo { return &ShowingRepo{db: db} }

const showingColumns = `id, event_id, start_time, cancelled, created_at`

func scanShowing(row interface{ Scan(...any) error }, s *model.Showing) error {
	return row.Scan(&s.ID, &s.EventID, &s.StartTime, &s.Cancelled, &s.CreatedAt)
}

// Create inserts a showing.  A missing event surfaces as ErrNotFound.
func (r *ShowingRepo) Create(ctx context.Context, s *model.Showing) error {
	const q = `INSERT INTO showings (event_id, start_time, cancelled) VALUES (?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, s.EventID, s.StartTime.UTC(), s.Cancelled)
	if err != nil {
		if isMissingParent(err) {
			return ErrNotFound
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	s.ID = uint64(id)
	return scanShowing(r.db.QueryRowContext(ctx, `SELECT `+showingColumns+` FROM showings WHERE id = ?`, s.ID), s)
}

// GetByID returns the showing with the given id or ErrNotFound.
func (r *ShowingRepo) GetByID(ctx context.Context, id uint64) (model.Showing, error) {
	var s model.Showing
	err := scanShowing(r.db.QueryRowContext(ctx, `SELECT `+showingColumns+` FROM showings WHERE id = ?`, id), &s)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Showing{}, ErrNotFound
	}
	return s, err
}

// ListByEvent returns the showings of an event ordered by start time.
func (r *ShowingRepo) ListByEvent(ctx context.Context, eventID uint64) ([]model.Showing, error) {
	const q = `SELECT ` + showingColumns + ` FROM showings WHERE event_id = ? ORDER BY start_time, id`
	rows, err := r.db.QueryContext(ctx, q, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []model.Showing
	for rows.Next() {
		var s model.Showing
		if err := scanShowing(rows, &s); err != nil {
			return nil, err
		}
		list = append(list, s)
	}
	return list, rows.Err()
}

// LockTx reads the showing with an exclusive row lock held until tx ends,
// together with the capacity of its venue.  Only the showing row is
// locked; the event and venue rows are read without locks so showings
// of the same venue do not serialise against each other.
func (r *ShowingRepo) LockTx(ctx context.Context, tx *sql.Tx, id uint64) (model.Showing, int, error) {
	var s model.Showing
	err := scanShowing(tx.QueryRowContext(ctx, `SELECT `+showingColumns+` FROM showings WHERE id = ? FOR UPDATE`, id), &s)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Showing{}, 0, ErrNotFound
	}
	if err != nil {
		return model.Showing{}, 0, err
	}
	const capQ = `SELECT v.capacity FROM events e JOIN venues v ON v.id = e.venue_id WHERE e.id = ?`
	var capacity int
	if err := tx.QueryRowContext(ctx, capQ, s.EventID).Scan(&capacity); err != nil {
		return model.Showing{}, 0, err
	}
	return s, capacity, nil
}

// SetCancelledTx updates the cancelled flag inside tx.
func (r *ShowingRepo) SetCancelledTx(ctx context.Context, tx *sql.Tx, id uint64, cancelled bool) error {
	_, err := tx.ExecContext(ctx, `UPDATE showings SET cancelled = ? WHERE id = ?`, cancelled, id)
	return err
}

// DeleteTx removes the showing inside tx.  Remaining reservations make
// the reservations FK reject the delete, which maps to ErrConflict.
func (r *ShowingRepo) DeleteTx(ctx context.Context, tx *sql.Tx, id uint64) error {
	res, err := tx.ExecContext(ctx, `DELETE FROM showings WHERE id = ?`, id)
	if err != nil {
		if isRowReferenced(err) {
			return ErrConflict
		}
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
