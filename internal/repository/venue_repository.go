package repository

import (
	"context"
	"database/sql"

	"github.com/minsu-hwang/event-ticket-reservation/internal/model"
)

// VenueRepo manages venues and their physical seats.  Seat identity and
// grading belong to this subsystem; the ticket ledger only references
// venue_seats by id.
type VenueRepo struct {
	db *sql.DB
}

// NewVenueRepo returns a VenueRepo bound to the given database.
func NewVenueRepo(db *sql.DB) *VenueRepo { return &VenueRepo{db: db} }

// CreateVenue inserts a venue and populates its id.
func (r *VenueRepo) CreateVenue(ctx context.Context, v *model.Venue) error {
	const q = `INSERT INTO venues (name, address) VALUES (?, ?)`
	res, err := r.db.ExecContext(ctx, q, v.Name, v.Address)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	v.ID = uint64(id)
	return nil
}

// CreateSeatsBulk inserts multiple venue seats in one statement.
func (r *VenueRepo) CreateSeatsBulk(ctx context.Context, seats []model.VenueSeat) error {
	if len(seats) == 0 {
		return nil
	}
	query := `INSERT INTO venue_seats (venue_id, section, seat_row, seat_number, grade) VALUES `
	args := make([]interface{}, 0, len(seats)*5)
	for i, s := range seats {
		if i > 0 {
			query += ","
		}
		query += "(?, ?, ?, ?, ?)"
		args = append(args, s.VenueID, s.Section, s.SeatRow, s.SeatNumber, s.Grade)
	}
	_, err := r.db.ExecContext(ctx, query, args...)
	return err
}

// ListSeatsByVenueTx returns every seat of a venue ordered by section, row
// and number, inside the caller's transaction.  Ticket generation iterates
// this list to create one ledger row per seat.
func (r *VenueRepo) ListSeatsByVenueTx(ctx context.Context, tx *sql.Tx, venueID uint64) ([]model.VenueSeat, error) {
	const q = `SELECT id, venue_id, section, seat_row, seat_number, grade, created_at, updated_at
	           FROM venue_seats WHERE venue_id = ?
	           ORDER BY section, seat_row, seat_number`
	rows, err := tx.QueryContext(ctx, q, venueID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var seats []model.VenueSeat
	for rows.Next() {
		var s model.VenueSeat
		if err := rows.Scan(&s.ID, &s.VenueID, &s.Section, &s.SeatRow, &s.SeatNumber, &s.Grade, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, err
		}
		seats = append(seats, s)
	}
	return seats, rows.Err()
}
