package repository

import (
	"context"
	"database/sql"

	"github.com/minsu-hwang/event-ticket-reservation/internal/model"
)

// ScheduleRepo manages persistence for events, schedules and their grade
// price lists.  The reservation core consumes these as read-only context;
// the create methods exist for the admin endpoints that set schedules up.
type ScheduleRepo struct {
	db *sql.DB
}

// NewScheduleRepo returns a ScheduleRepo bound to the given database.
func NewScheduleRepo(db *sql.DB) *ScheduleRepo { return &ScheduleRepo{db: db} }

// DB exposes the underlying sql.DB for transactions spanning repositories.
func (r *ScheduleRepo) DB() *sql.DB { return r.db }

// GetByID loads a schedule or returns ErrScheduleNotFound.
func (r *ScheduleRepo) GetByID(ctx context.Context, id uint64) (*model.Schedule, error) {
	const q = `SELECT id, event_id, show_at, sale_open_at, created_at, updated_at FROM schedules WHERE id = ?`
	var s model.Schedule
	err := r.db.QueryRowContext(ctx, q, id).Scan(
		&s.ID, &s.EventID, &s.ShowAt, &s.SaleOpenAt, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrScheduleNotFound
		}
		return nil, err
	}
	return &s, nil
}

// GetEventByIDTx loads the event a schedule belongs to inside a
// transaction, used during ticket generation to find the venue.
func (r *ScheduleRepo) GetEventByIDTx(ctx context.Context, tx *sql.Tx, eventID uint64) (*model.Event, error) {
	const q = `SELECT id, venue_id, title, category, created_at, updated_at FROM events WHERE id = ?`
	var e model.Event
	err := tx.QueryRowContext(ctx, q, eventID).Scan(
		&e.ID, &e.VenueID, &e.Title, &e.Category, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// CreateEvent inserts an event and populates its id.
func (r *ScheduleRepo) CreateEvent(ctx context.Context, e *model.Event) error {
	const q = `INSERT INTO events (venue_id, title, category) VALUES (?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, e.VenueID, e.Title, e.Category)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	e.ID = uint64(id)
	return nil
}

// CreateSchedule inserts a schedule and populates its id.
func (r *ScheduleRepo) CreateSchedule(ctx context.Context, s *model.Schedule) error {
	const q = `INSERT INTO schedules (event_id, show_at, sale_open_at) VALUES (?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, s.EventID, s.ShowAt.UTC(), s.SaleOpenAt.UTC())
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	s.ID = uint64(id)
	return nil
}

// CreatePricesBulk inserts the grade price list for a schedule in one
// statement.
func (r *ScheduleRepo) CreatePricesBulk(ctx context.Context, scheduleID uint64, prices []model.TicketPrice) error {
	if len(prices) == 0 {
		return nil
	}
	query := `INSERT INTO ticket_prices (schedule_id, grade, price_cents) VALUES `
	args := make([]interface{}, 0, len(prices)*3)
	for i, p := range prices {
		if i > 0 {
			query += ","
		}
		query += "(?, ?, ?)"
		args = append(args, scheduleID, p.Grade, p.PriceCents)
	}
	_, err := r.db.ExecContext(ctx, query, args...)
	return err
}

// PricesByScheduleTx returns the grade -> price mapping for a schedule.
// Consulted once at ticket generation; later edits to the price list do
// not touch already-generated tickets.
func (r *ScheduleRepo) PricesByScheduleTx(ctx context.Context, tx *sql.Tx, scheduleID uint64) (map[string]uint32, error) {
	const q = `SELECT grade, price_cents FROM ticket_prices WHERE schedule_id = ?`
	rows, err := tx.QueryContext(ctx, q, scheduleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	prices := make(map[string]uint32)
	for rows.Next() {
		var grade string
		var cents uint32
		if err := rows.Scan(&grade, &cents); err != nil {
			return nil, err
		}
		prices[grade] = cents
	}
	return prices, rows.Err()
}
