package model

import "time"

// ReservationStatus enumerates the lifecycle states of a reservation.
type ReservationStatus string

const (
	ReservationPendingPayment ReservationStatus = "PENDING_PAYMENT" // seats held, awaiting payment
	ReservationConfirmed      ReservationStatus = "CONFIRMED"       // paid; all seats SOLD
	ReservationCancelled      ReservationStatus = "CANCELLED"       // cancelled by owner or system
	ReservationExpired        ReservationStatus = "EXPIRED"         // hold window lapsed unpaid
)

// IsValid reports whether the status is a known enumeration value.
func (s ReservationStatus) IsValid() bool {
	switch s {
	case ReservationPendingPayment, ReservationConfirmed, ReservationCancelled, ReservationExpired:
		return true
	}
	return false
}

// CanTransitionTo checks whether the aggregate permits moving from the
// current status to the target.  EXPIRED is reachable only from
// PENDING_PAYMENT and only by the system; CANCELLED and EXPIRED are
// terminal.
func (s ReservationStatus) CanTransitionTo(target ReservationStatus) bool {
	transitions := map[ReservationStatus][]ReservationStatus{
		ReservationPendingPayment: {ReservationConfirmed, ReservationCancelled, ReservationExpired},
		ReservationConfirmed:      {ReservationCancelled},
		ReservationCancelled:      {},
		ReservationExpired:        {},
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

// IsCancellable reports whether a cancel request is admissible in this
// status.  Only pending and confirmed reservations can be cancelled; an
// expired or already-cancelled one fails with NotCancellable.
func (s ReservationStatus) IsCancellable() bool {
	return s == ReservationPendingPayment || s == ReservationConfirmed
}

// Reservation groups one or more held or sold tickets on a single schedule
// under one purchase intent.  Its status is always consistent with the
// statuses of its tickets: PENDING_PAYMENT means every ticket is RESERVED
// with the same expiry, CONFIRMED means every ticket is SOLD.
//
// Fields:
//  ID              – primary key identifier.
//  OwnerID         – the member or guest account that created it.
//  ScheduleID      – the schedule all tickets belong to.
//  Status          – aggregate status.
//  TotalPriceCents – sum of ticket prices captured at hold time.
//  ExpiresAt       – the shared hold deadline, copied to every ticket.
//  CreatedAt       – creation timestamp.
//  UpdatedAt       – last update timestamp.
type Reservation struct {
	ID              uint64            // reservations.id
	OwnerID         uint64            // reservations.owner_id
	ScheduleID      uint64            // reservations.schedule_id
	Status          ReservationStatus // reservations.status
	TotalPriceCents uint32            // reservations.total_price_cents
	ExpiresAt       time.Time         // reservations.expires_at
	CreatedAt       time.Time         // reservations.created_at
	UpdatedAt       time.Time         // reservations.updated_at
}

// IsPendingPayment reports whether the reservation is awaiting payment.
func (r *Reservation) IsPendingPayment() bool {
	return r.Status == ReservationPendingPayment
}

// IsExpiredAt reports whether the hold window has lapsed at the given
// instant.  A PENDING_PAYMENT reservation past its deadline is logically
// expired even before the sweeper has physically released its seats.
func (r *Reservation) IsExpiredAt(now time.Time) bool {
	return r.Status == ReservationPendingPayment && r.ExpiresAt.Before(now)
}
