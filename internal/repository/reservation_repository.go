package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/event-reservation/internal/model"
)

// ReservationRepo provides CRUD operations for reservations.  Methods with
// a Tx suffix run inside a caller-owned transaction and must only be used
// while the owning showing row is locked (see MySQLStore.InShowing).
type ReservationRepo struct {
	db *sql.DB
}

// NewReservationRepo returns a new ReservationRepo bound to the given database.
func NewReservationRepo(db *sql.DB) *ReservationRepo { return &ReservationRepo{db: db} }

const reservationColumns = `id, user_id, showing_id, quantity, created_at, updated_at`

func scanReservation(row interface{ Scan(...any) error }, r *model.Reservation) error {
	return row.Scan(&r.ID, &r.UserID, &r.ShowingID, &r.Quantity, &r.CreatedAt, &r.UpdatedAt)
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func listReservations(ctx context.Context, q queryer, query string, args ...any) ([]model.Reservation, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []model.Reservation
	for rows.Next() {
		var res model.Reservation
		if err := scanReservation(rows, &res); err != nil {
			return nil, err
		}
		list = append(list, res)
	}
	return list, rows.Err()
}

// GetByID returns a reservation or ErrNotFound.
func (r *ReservationRepo) GetByID(ctx context.Context, id uint64) (model.Reservation, error) {
	var res model.Reservation
	err := scanReservation(r.db.QueryRowContext(ctx, `SELECT `+reservationColumns+` FROM reservations WHERE id = ?`, id), &res)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Reservation{}, ErrNotFound
	}
	return res, err
}

// FindByUserAndShowing returns the user's reservation for a showing or ErrNotFound.
func (r *ReservationRepo) FindByUserAndShowing(ctx context.Context, userID, showingID uint64) (model.Reservation, error) {
	const q = `SELECT ` + reservationColumns + ` FROM reservations WHERE user_id = ? AND showing_id = ?`
	var res model.Reservation
	err := scanReservation(r.db.QueryRowContext(ctx, q, userID, showingID), &res)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Reservation{}, ErrNotFound
	}
	return res, err
}

// ListByUser returns all reservations of a user, newest first.
func (r *ReservationRepo) ListByUser(ctx context.Context, userID uint64) ([]model.Reservation, error) {
	const q = `SELECT ` + reservationColumns + ` FROM reservations WHERE user_id = ? ORDER BY created_at DESC, id DESC`
	return listReservations(ctx, r.db, q, userID)
}

// ListByShowing returns the reservations of a showing without locking.
// The result is a best-effort snapshot suitable for display only.
func (r *ReservationRepo) ListByShowing(ctx context.Context, showingID uint64) ([]model.Reservation, error) {
	const q = `SELECT ` + reservationColumns + ` FROM reservations WHERE showing_id = ? ORDER BY id`
	return listReservations(ctx, r.db, q, showingID)
}

// ListByShowingTx is ListByShowing inside tx.
func (r *ReservationRepo) ListByShowingTx(ctx context.Context, tx *sql.Tx, showingID uint64) ([]model.Reservation, error) {
	const q = `SELECT ` + reservationColumns + ` FROM reservations WHERE showing_id = ? ORDER BY id`
	return listReservations(ctx, tx, q, showingID)
}

// CreateTx inserts a reservation within tx and populates its generated
// fields.  The unique (user_id, showing_id) key maps to ErrDuplicate.
func (r *ReservationRepo) CreateTx(ctx context.Context, tx *sql.Tx, res *model.Reservation) error {
	const q = `INSERT INTO reservations (user_id, showing_id, quantity) VALUES (?, ?, ?)`
	out, err := tx.ExecContext(ctx, q, res.UserID, res.ShowingID, res.Quantity)
	if err != nil {
		if isDuplicateKey(err) {
			return ErrDuplicate
		}
		return err
	}
	id, err := out.LastInsertId()
	if err != nil {
		return err
	}
	res.ID = uint64(id)
	return scanReservation(tx.QueryRowContext(ctx, `SELECT `+reservationColumns+` FROM reservations WHERE id = ?`, res.ID), res)
}

// UpdateQuantityTx sets the quantity of reservation id on showingID.
func (r *ReservationRepo) UpdateQuantityTx(ctx context.Context, tx *sql.Tx, showingID, id uint64, quantity int) error {
	const q = `UPDATE reservations SET quantity = ? WHERE id = ? AND showing_id = ?`
	out, err := tx.ExecContext(ctx, q, quantity, id, showingID)
	if err != nil {
		return err
	}
	// RowsAffected is 0 when the quantity is unchanged, so confirm existence.
	if n, _ := out.RowsAffected(); n == 0 {
		var one int
		err := tx.QueryRowContext(ctx, `SELECT 1 FROM reservations WHERE id = ? AND showing_id = ?`, id, showingID).Scan(&one)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

// DeleteTx removes reservation id on showingID.
func (r *ReservationRepo) DeleteTx(ctx context.Context, tx *sql.Tx, showingID, id uint64) error {
	out, err := tx.ExecContext(ctx, `DELETE FROM reservations WHERE id = ? AND showing_id = ?`, id, showingID)
	if err != nil {
		return err
	}
	if n, _ := out.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
