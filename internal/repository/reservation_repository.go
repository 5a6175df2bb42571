package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/minsu-hwang/event-ticket-reservation/internal/model"
)

// ReservationRepo provides persistence for reservations.  A reservation
// groups the tickets held or sold under one purchase intent; its status
// must only ever change in the same transaction that moves its tickets,
// which is why every mutating method here takes a *sql.Tx.
type ReservationRepo struct {
	db *sql.DB
}

// NewReservationRepo returns a ReservationRepo bound to the given database.
func NewReservationRepo(db *sql.DB) *ReservationRepo { return &ReservationRepo{db: db} }

const reservationColumns = `id, owner_id, schedule_id, status, total_price_cents, expires_at, created_at, updated_at`

func scanReservation(row interface{ Scan(...interface{}) error }) (*model.Reservation, error) {
	var res model.Reservation
	err := row.Scan(
		&res.ID, &res.OwnerID, &res.ScheduleID, &res.Status,
		&res.TotalPriceCents, &res.ExpiresAt, &res.CreatedAt, &res.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// CreateTx inserts a new reservation within the provided transaction and
// populates the generated id and DB-default timestamps on the passed model.
func (r *ReservationRepo) CreateTx(ctx context.Context, tx *sql.Tx, res *model.Reservation) error {
	const q = `INSERT INTO reservations (owner_id, schedule_id, status, total_price_cents, expires_at) VALUES (?, ?, ?, ?, ?)`
	result, err := tx.ExecContext(ctx, q, res.OwnerID, res.ScheduleID, res.Status, res.TotalPriceCents, res.ExpiresAt.UTC())
	if err != nil {
		return err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	res.ID = uint64(id)
	const sel = `SELECT ` + reservationColumns + ` FROM reservations WHERE id = ?`
	got, err := scanReservation(tx.QueryRowContext(ctx, sel, res.ID))
	if err != nil {
		return err
	}
	*res = *got
	return nil
}

// GetForUpdateTx loads a reservation with an exclusive row lock.  Every
// state transition (confirm, cancel, expire) starts here, so concurrent
// resolvers of the same reservation serialize and the loser re-reads the
// winner's final state instead of acting on a stale snapshot.
func (r *ReservationRepo) GetForUpdateTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Reservation, error) {
	const q = `SELECT ` + reservationColumns + ` FROM reservations WHERE id = ? FOR UPDATE`
	res, err := scanReservation(tx.QueryRowContext(ctx, q, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrReservationNotFound
		}
		return nil, err
	}
	return res, nil
}

// UpdateStatusTx moves a reservation from one status to another.  The
// WHERE clause carries the expected current status; zero rows affected
// means the reservation moved concurrently and surfaces as ErrStaleRow.
func (r *ReservationRepo) UpdateStatusTx(ctx context.Context, tx *sql.Tx, id uint64, from, to model.ReservationStatus) error {
	const q = `UPDATE reservations SET status = ?, updated_at = ? WHERE id = ? AND status = ?`
	res, err := tx.ExecContext(ctx, q, to, time.Now().UTC(), id, from)
	if err != nil {
		return err
	}
	return requireOneRow(res)
}

// GetByID loads a reservation without locking, for read-only snapshots.
func (r *ReservationRepo) GetByID(ctx context.Context, id uint64) (*model.Reservation, error) {
	const q = `SELECT ` + reservationColumns + ` FROM reservations WHERE id = ?`
	res, err := scanReservation(r.db.QueryRowContext(ctx, q, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrReservationNotFound
		}
		return nil, err
	}
	return res, nil
}

// FindExpiredPending returns ids of PENDING_PAYMENT reservations whose
// hold deadline lies before now, oldest first, capped at limit.  This is
// the sweeper's selection query; it deliberately takes no locks, because
// each candidate is re-checked under a row lock before being mutated.
func (r *ReservationRepo) FindExpiredPending(ctx context.Context, now time.Time, limit int) ([]uint64, error) {
	const q = `SELECT id FROM reservations WHERE status = ? AND expires_at < ? ORDER BY expires_at LIMIT ?`
	rows, err := r.db.QueryContext(ctx, q, model.ReservationPendingPayment, now.UTC(), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []uint64
	for rows.Next() {
		var id uint64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ReservedSeat carries the seat coordinates and price of one ticket inside
// a reservation detail.
type ReservedSeat struct {
	VenueSeatID uint64 `json:"venue_seat_id"`
	Section     string `json:"section"`
	SeatRow     string `json:"seat_row"`
	SeatNumber  string `json:"seat_number"`
	PriceCents  uint32 `json:"price_cents"`
}

// ReservationDetail is the read model returned to clients: the reservation
// header plus event/schedule context and the seats it covers.
type ReservationDetail struct {
	ID              uint64                  `json:"id"`
	OwnerID         uint64                  `json:"owner_id"`
	ScheduleID      uint64                  `json:"schedule_id"`
	EventTitle      string                  `json:"event_title"`
	ShowAt          time.Time               `json:"show_at"`
	Status          model.ReservationStatus `json:"status"`
	TotalPriceCents uint32                  `json:"total_price_cents"`
	ExpiresAt       time.Time               `json:"expires_at"`
	CreatedAt       time.Time               `json:"created_at"`
	Seats           []ReservedSeat          `json:"seats"`
}

// GetDetail loads a reservation snapshot with its event context and seats.
// Returns ErrReservationNotFound when the id matches no row.
func (r *ReservationRepo) GetDetail(ctx context.Context, id uint64) (*ReservationDetail, error) {
	const q = `SELECT r.id, r.owner_id, r.schedule_id, e.title, s.show_at,
	                  r.status, r.total_price_cents, r.expires_at, r.created_at
	           FROM reservations r
	           JOIN schedules s ON s.id = r.schedule_id
	           JOIN events e ON e.id = s.event_id
	           WHERE r.id = ?`
	var det ReservationDetail
	err := r.db.QueryRowContext(ctx, q, id).Scan(
		&det.ID, &det.OwnerID, &det.ScheduleID, &det.EventTitle, &det.ShowAt,
		&det.Status, &det.TotalPriceCents, &det.ExpiresAt, &det.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrReservationNotFound
		}
		return nil, err
	}
	seats, err := r.listSeats(ctx, id)
	if err != nil {
		return nil, err
	}
	det.Seats = seats
	return &det, nil
}

// ListByOwner returns all reservation details belonging to one owner,
// newest first.
func (r *ReservationRepo) ListByOwner(ctx context.Context, ownerID uint64) ([]ReservationDetail, error) {
	const q = `SELECT r.id, r.owner_id, r.schedule_id, e.title, s.show_at,
	                  r.status, r.total_price_cents, r.expires_at, r.created_at
	           FROM reservations r
	           JOIN schedules s ON s.id = r.schedule_id
	           JOIN events e ON e.id = s.event_id
	           WHERE r.owner_id = ?
	           ORDER BY r.created_at DESC`
	rows, err := r.db.QueryContext(ctx, q, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []ReservationDetail
	for rows.Next() {
		var det ReservationDetail
		if err := rows.Scan(
			&det.ID, &det.OwnerID, &det.ScheduleID, &det.EventTitle, &det.ShowAt,
			&det.Status, &det.TotalPriceCents, &det.ExpiresAt, &det.CreatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, det)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range out {
		seats, err := r.listSeats(ctx, out[i].ID)
		if err != nil {
			return nil, err
		}
		out[i].Seats = seats
	}
	return out, nil
}

func (r *ReservationRepo) listSeats(ctx context.Context, reservationID uint64) ([]ReservedSeat, error) {
	const q = `SELECT t.venue_seat_id, vs.section, vs.seat_row, vs.seat_number, t.price_cents
	           FROM tickets t
	           JOIN venue_seats vs ON vs.id = t.venue_seat_id
	           WHERE t.reservation_id = ?
	           ORDER BY t.id`
	rows, err := r.db.QueryContext(ctx, q, reservationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var seats []ReservedSeat
	for rows.Next() {
		var s ReservedSeat
		if err := rows.Scan(&s.VenueSeatID, &s.Section, &s.SeatRow, &s.SeatNumber, &s.PriceCents); err != nil {
			return nil, err
		}
		seats = append(seats, s)
	}
	return seats, rows.Err()
}
