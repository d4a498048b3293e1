package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/event-reservation/internal/model"
)

// VenueRepo manages persistence for venues.
type VenueRepo struct {
	db *sql.DB
}

// NewVenueRepo constructs a VenueRepo with the given DB handle.
func NewVenueRepo(db *sql.DB) *VenueRepo { return &VenueRepo{db: db} }

// Create inserts a venue and populates its generated ID and created_at.
func (r *VenueRepo) Create(ctx context.Context, v *model.Venue) error {
	const q = `INSERT INTO venues (name, location, capacity) VALUES (?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, v.Name, v.Location, v.Capacity)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	v.ID = uint64(id)
	return r.db.QueryRowContext(ctx, `SELECT created_at FROM venues WHERE id = ?`, v.ID).Scan(&v.CreatedAt)
}

// GetByID returns the venue with the given id or ErrNotFound.
func (r *VenueRepo) GetByID(ctx context.Context, id uint64) (model.Venue, error) {
	const q = `SELECT id, name, location, capacity, created_at FROM venues WHERE id = ?`
	var v model.Venue
	err := r.db.QueryRowContext(ctx, q, id).Scan(&v.ID, &v.Name, &v.Location, &v.Capacity, &v.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Venue{}, ErrNotFound
	}
	return v, err
}

// DeleteByID removes a venue that hosts no events.  The venue row is
// locked first so that a concurrent event insert either sees the venue
// gone or blocks the delete; the events FK is the final backstop.
func (r *VenueRepo) DeleteByID(ctx context.Context, id uint64) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		} else {
			err = tx.Commit()
		}
	}()
	var locked uint64
	if err = tx.QueryRowContext(ctx, `SELECT id FROM venues WHERE id = ? FOR UPDATE`, id).Scan(&locked); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}
	var n int
	if err = tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM events WHERE venue_id = ?`, id).Scan(&n); err != nil {
		return err
	}
	if n > 0 {
		return ErrConflict
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM venues WHERE id = ?`, id); err != nil {
		if isRowReferenced(err) {
			return ErrConflict
		}
		return err
	}
	return nil
}
