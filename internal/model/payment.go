package model

import "time"

// PaymentStatus enumerates the states of a payment attempt.  Payment rows
// are append-only: they are created once per reservation and only ever
// transition status, never get deleted, forming an audit trail.
type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "PENDING"
	PaymentCompleted PaymentStatus = "COMPLETED"
	PaymentFailed    PaymentStatus = "FAILED"
	PaymentCancelled PaymentStatus = "CANCELLED"
)

// IsValid reports whether the status is a known enumeration value.
func (s PaymentStatus) IsValid() bool {
	switch s {
	case PaymentPending, PaymentCompleted, PaymentFailed, PaymentCancelled:
		return true
	}
	return false
}

// CanTransitionTo checks admissible payment transitions.  COMPLETED may
// still move to CANCELLED when a confirmed reservation is cancelled and
// refunded; FAILED is terminal.
func (s PaymentStatus) CanTransitionTo(target PaymentStatus) bool {
	transitions := map[PaymentStatus][]PaymentStatus{
		PaymentPending:   {PaymentCompleted, PaymentFailed, PaymentCancelled},
		PaymentCompleted: {PaymentCancelled},
		PaymentFailed:    {},
		PaymentCancelled: {},
	}
	allowed, ok := transitions[s]
	if !ok {
		return false
	}
	for _, status := range allowed {
		if status == target {
			return true
		}
	}
	return false
}

// Payment records a single payment attempt for a reservation (1:1).  It is
// created when the gateway first reports an outcome, or up front when the
// client initiates checkout, and mutated only by the payment resolution
// handler.
//
// Fields:
//  ID              – primary key identifier.
//  ReservationID   – owning reservation.
//  AmountCents     – charged amount; equals the reservation total.
//  Method          – payment method label reported by the gateway.
//  Status          – current payment status.
//  PgTransactionID – external transaction reference from the gateway.
//  CreatedAt       – creation timestamp.
//  UpdatedAt       – last update timestamp.
type Payment struct {
	ID              uint64        // payments.id
	ReservationID   uint64        // payments.reservation_id
	AmountCents     uint32        // payments.amount_cents
	Method          string        // payments.method
	Status          PaymentStatus // payments.status
	PgTransactionID *string       // payments.pg_transaction_id (nullable)
	CreatedAt       time.Time     // payments.created_at
	UpdatedAt       time.Time     // payments.updated_at
}

// IsCompleted reports whether the payment went through.
func (p *Payment) IsCompleted() bool {
	return p.Status == PaymentCompleted
}
