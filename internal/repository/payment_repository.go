package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/minsu-hwang/event-ticket-reservation/internal/model"
)

// PaymentRepo provides access to the payments table.  Payments are
// append-only: rows are inserted once per reservation and afterwards only
// their status and gateway reference change, preserving the audit trail.
type PaymentRepo struct {
	db *sql.DB
}

// NewPaymentRepo returns a PaymentRepo bound to the given database.
func NewPaymentRepo(db *sql.DB) *PaymentRepo { return &PaymentRepo{db: db} }

const paymentColumns = `id, reservation_id, amount_cents, method, status, pg_transaction_id, created_at, updated_at`

func scanPayment(row interface{ Scan(...interface{}) error }) (*model.Payment, error) {
	var p model.Payment
	var pgRef sql.NullString
	err := row.Scan(
		&p.ID, &p.ReservationID, &p.AmountCents, &p.Method, &p.Status,
		&pgRef, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if pgRef.Valid {
		v := pgRef.String
		p.PgTransactionID = &v
	}
	return &p, nil
}

// Create inserts a payment row and populates the generated id.  The unique
// key on reservation_id enforces the 1:1 relationship; a duplicate insert
// surfaces as ErrConflict so callers can fall back to the existing row.
func (r *PaymentRepo) Create(ctx context.Context, p *model.Payment) error {
	const q = `INSERT INTO payments (reservation_id, amount_cents, method, status) VALUES (?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, p.ReservationID, p.AmountCents, p.Method, p.Status)
	if err != nil {
		if isDuplicateKey(err) {
			return ErrConflict
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	p.ID = uint64(id)
	return nil
}

// GetByReservation loads the payment row for a reservation, or
// ErrPaymentNotFound when none exists yet.
func (r *PaymentRepo) GetByReservation(ctx context.Context, reservationID uint64) (*model.Payment, error) {
	const q = `SELECT ` + paymentColumns + ` FROM payments WHERE reservation_id = ? LIMIT 1`
	p, err := scanPayment(r.db.QueryRowContext(ctx, q, reservationID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrPaymentNotFound
		}
		return nil, err
	}
	return p, nil
}

// UpdateStatus transitions a payment from one status to another, recording
// the gateway transaction reference when provided.  The status guard makes
// the write a check-and-set; a lost race surfaces as ErrStaleRow rather
// than a silent overwrite of the audit trail.
func (r *PaymentRepo) UpdateStatus(ctx context.Context, paymentID uint64, from, to model.PaymentStatus, pgRef string) error {
	var res sql.Result
	var err error
	if pgRef != "" {
		const q = `UPDATE payments SET status = ?, pg_transaction_id = ?, updated_at = ? WHERE id = ? AND status = ?`
		res, err = r.db.ExecContext(ctx, q, to, pgRef, time.Now().UTC(), paymentID, from)
	} else {
		const q = `UPDATE payments SET status = ?, updated_at = ? WHERE id = ? AND status = ?`
		res, err = r.db.ExecContext(ctx, q, to, time.Now().UTC(), paymentID, from)
	}
	if err != nil {
		return err
	}
	return requireOneRow(res)
}
