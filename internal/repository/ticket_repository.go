// Package repository contains the data access layer.  This file implements
// the seat ledger: one tickets row per (schedule, venue seat) whose status
// moves AVAILABLE -> RESERVED -> {SOLD | AVAILABLE} and SOLD -> CANCELLED.
// All transitions are single-row atomic check-and-set statements executed
// under an InnoDB row lock taken by the caller's transaction, with the
// version column bumped on every write as a protocol tripwire.
package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/minsu-hwang/event-ticket-reservation/internal/model"
)

// ticketColumns is the shared select list used by every ticket query so
// scans stay in one place.
const ticketColumns = `id, schedule_id, venue_seat_id, reservation_id, price_cents, status, reserved_at, expires_at, version, created_at, updated_at`

// TicketRepo provides access to the tickets table.  Mutating methods are
// transaction-scoped (suffixed Tx); the caller owns commit/rollback so a
// multi-seat operation either lands completely or not at all.
type TicketRepo struct {
	db *sql.DB
}

// NewTicketRepo returns a TicketRepo bound to the given database.
func NewTicketRepo(db *sql.DB) *TicketRepo { return &TicketRepo{db: db} }

// DB exposes the underlying sql.DB so services can begin transactions
// spanning multiple repositories.
func (r *TicketRepo) DB() *sql.DB { return r.db }

func scanTicket(row interface{ Scan(...interface{}) error }) (*model.Ticket, error) {
	var t model.Ticket
	var reservationID sql.NullInt64
	var reservedAt, expiresAt sql.NullTime
	err := row.Scan(
		&t.ID, &t.ScheduleID, &t.VenueSeatID, &reservationID, &t.PriceCents,
		&t.Status, &reservedAt, &expiresAt, &t.Version, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if reservationID.Valid {
		id := uint64(reservationID.Int64)
		t.ReservationID = &id
	}
	if reservedAt.Valid {
		v := reservedAt.Time
		t.ReservedAt = &v
	}
	if expiresAt.Valid {
		v := expiresAt.Time
		t.ExpiresAt = &v
	}
	return &t, nil
}

// placeholders returns a "(?,?,...)" group with n markers.
func placeholders(n int) string {
	if n <= 0 {
		return "()"
	}
	return "(" + strings.Repeat("?,", n-1) + "?)"
}

// LockBySeatsTx loads the ticket rows for the given schedule and venue
// seats with an exclusive row lock (SELECT ... FOR UPDATE), ordered by
// ascending ticket id.  Every caller acquiring multiple seats goes through
// this method, so all writers take row locks in the same global order and
// circular wait between two multi-seat requests is impossible.  The
// returned slice preserves the lock order.
func (r *TicketRepo) LockBySeatsTx(ctx context.Context, tx *sql.Tx, scheduleID uint64, venueSeatIDs []uint64) ([]*model.Ticket, error) {
	if len(venueSeatIDs) == 0 {
		return nil, nil
	}
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE schedule_id = ? AND venue_seat_id IN ` +
		placeholders(len(venueSeatIDs)) + ` ORDER BY id FOR UPDATE`
	args := make([]interface{}, 0, len(venueSeatIDs)+1)
	args = append(args, scheduleID)
	for _, id := range venueSeatIDs {
		args = append(args, id)
	}
	rows, err := tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var tickets []*model.Ticket
	for rows.Next() {
		t, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		tickets = append(tickets, t)
	}
	return tickets, rows.Err()
}

// LockByReservationTx loads all tickets bound to a reservation with an
// exclusive row lock, in ascending id order.  Used by confirm, cancel and
// expire so they serialize against competing holds on the same rows.
func (r *TicketRepo) LockByReservationTx(ctx context.Context, tx *sql.Tx, reservationID uint64) ([]*model.Ticket, error) {
	const q = `SELECT ` + ticketColumns + ` FROM tickets WHERE reservation_id = ? ORDER BY id FOR UPDATE`
	rows, err := tx.QueryContext(ctx, q, reservationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var tickets []*model.Ticket
	for rows.Next() {
		t, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		tickets = append(tickets, t)
	}
	return tickets, rows.Err()
}

// HoldTx transitions one ticket AVAILABLE -> RESERVED, binding it to the
// reservation and stamping the hold window.  The status and version guards
// make the write a check-and-set: after a LockBySeatsTx read they can only
// fail if the protocol was bypassed, which surfaces as ErrStaleRow.
func (r *TicketRepo) HoldTx(ctx context.Context, tx *sql.Tx, ticketID, reservationID, version uint64, reservedAt, expiresAt time.Time) error {
	const q = `UPDATE tickets
	           SET status = ?, reservation_id = ?, reserved_at = ?, expires_at = ?, version = version + 1
	           WHERE id = ? AND status = ? AND version = ?`
	res, err := tx.ExecContext(ctx, q,
		model.TicketReserved, reservationID, reservedAt.UTC(), expiresAt.UTC(),
		ticketID, model.TicketAvailable, version)
	if err != nil {
		return err
	}
	return requireOneRow(res)
}

// MarkSoldTx transitions one ticket RESERVED -> SOLD for the bound
// reservation, clearing the expiry deadline.
func (r *TicketRepo) MarkSoldTx(ctx context.Context, tx *sql.Tx, ticketID, reservationID, version uint64) error {
	const q = `UPDATE tickets
	           SET status = ?, expires_at = NULL, version = version + 1
	           WHERE id = ? AND status = ? AND reservation_id = ? AND version = ?`
	res, err := tx.ExecContext(ctx, q,
		model.TicketSold, ticketID, model.TicketReserved, reservationID, version)
	if err != nil {
		return err
	}
	return requireOneRow(res)
}

// ReleaseTx returns one ticket RESERVED -> AVAILABLE, clearing the
// reservation binding and timestamps.  Releasing an already-AVAILABLE
// ticket is a no-op, not an error, which makes release idempotent for the
// sweeper's re-check path.
func (r *TicketRepo) ReleaseTx(ctx context.Context, tx *sql.Tx, ticketID, version uint64) error {
	const q = `UPDATE tickets
	           SET status = ?, reservation_id = NULL, reserved_at = NULL, expires_at = NULL, version = version + 1
	           WHERE id = ? AND status = ? AND version = ?`
	res, err := tx.ExecContext(ctx, q,
		model.TicketAvailable, ticketID, model.TicketReserved, version)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		// Distinguish "already released" (fine) from a genuine guard
		// failure on a still-reserved row (protocol violation).
		var status model.TicketStatus
		if err := tx.QueryRowContext(ctx, `SELECT status FROM tickets WHERE id = ?`, ticketID).Scan(&status); err != nil {
			if err == sql.ErrNoRows {
				return ErrTicketNotFound
			}
			return err
		}
		if status == model.TicketAvailable {
			return nil
		}
		return ErrStaleRow
	}
	return nil
}

// CancelSoldTx transitions one ticket SOLD -> CANCELLED, detaching the
// reservation binding.  Irreversible; the seat is withdrawn from sale for
// this schedule.
func (r *TicketRepo) CancelSoldTx(ctx context.Context, tx *sql.Tx, ticketID, reservationID, version uint64) error {
	const q = `UPDATE tickets
	           SET status = ?, reservation_id = NULL, reserved_at = NULL, expires_at = NULL, version = version + 1
	           WHERE id = ? AND status = ? AND reservation_id = ? AND version = ?`
	res, err := tx.ExecContext(ctx, q,
		model.TicketCancelled, ticketID, model.TicketSold, reservationID, version)
	if err != nil {
		return err
	}
	return requireOneRow(res)
}

// CreateBulkTx inserts the generated tickets for a schedule in one
// statement.  Only schedule_id, venue_seat_id, price_cents and status are
// provided; timestamps and version default in the DB.
func (r *TicketRepo) CreateBulkTx(ctx context.Context, tx *sql.Tx, tickets []model.Ticket) error {
	if len(tickets) == 0 {
		return nil
	}
	query := `INSERT INTO tickets (schedule_id, venue_seat_id, price_cents, status) VALUES `
	args := make([]interface{}, 0, len(tickets)*4)
	for i, t := range tickets {
		if i > 0 {
			query += ","
		}
		query += "(?, ?, ?, ?)"
		args = append(args, t.ScheduleID, t.VenueSeatID, t.PriceCents, t.Status)
	}
	_, err := tx.ExecContext(ctx, query, args...)
	return err
}

// CountByScheduleTx returns the number of tickets already generated for a
// schedule, used to make sales opening idempotent.
func (r *TicketRepo) CountByScheduleTx(ctx context.Context, tx *sql.Tx, scheduleID uint64) (int, error) {
	var n int
	err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM tickets WHERE schedule_id = ?`, scheduleID).Scan(&n)
	return n, err
}

// SeatAvailability is the read model returned for the browse endpoint: one
// entry per ticket with seat coordinates and current status.
type SeatAvailability struct {
	VenueSeatID uint64             `json:"venue_seat_id"`
	Section     string             `json:"section"`
	SeatRow     string             `json:"seat_row"`
	SeatNumber  string             `json:"seat_number"`
	Grade       string             `json:"grade"`
	PriceCents  uint32             `json:"price_cents"`
	Status      model.TicketStatus `json:"status"`
}

// ListAvailabilityBySchedule returns the seat map for a schedule ordered by
// section, row and number.  Plain read outside any transaction; staleness
// is acceptable because every mutation re-checks under its own lock.
func (r *TicketRepo) ListAvailabilityBySchedule(ctx context.Context, scheduleID uint64) ([]SeatAvailability, error) {
	const q = `SELECT t.venue_seat_id, vs.section, vs.seat_row, vs.seat_number, vs.grade, t.price_cents, t.status
	           FROM tickets t
	           JOIN venue_seats vs ON vs.id = t.venue_seat_id
	           WHERE t.schedule_id = ?
	           ORDER BY vs.section, vs.seat_row, vs.seat_number`
	rows, err := r.db.QueryContext(ctx, q, scheduleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []SeatAvailability
	for rows.Next() {
		var sa SeatAvailability
		if err := rows.Scan(&sa.VenueSeatID, &sa.Section, &sa.SeatRow, &sa.SeatNumber, &sa.Grade, &sa.PriceCents, &sa.Status); err != nil {
			return nil, err
		}
		out = append(out, sa)
	}
	return out, rows.Err()
}

// requireOneRow converts a zero-rows-affected result into ErrStaleRow.
func requireOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrStaleRow
	}
	return nil
}
