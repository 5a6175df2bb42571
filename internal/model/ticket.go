package model

import "time"

// TicketStatus enumerates the lifecycle states of a single sellable seat
// for one schedule.  AVAILABLE and CANCELLED are the only states a ticket
// can be in without a reservation binding.
type TicketStatus string

const (
	TicketAvailable TicketStatus = "AVAILABLE" // open for sale
	TicketReserved  TicketStatus = "RESERVED"  // held by a pending reservation
	TicketSold      TicketStatus = "SOLD"      // paid for and confirmed
	TicketCancelled TicketStatus = "CANCELLED" // sold then cancelled; terminal
)

// IsValid reports whether the status is one of the known enumeration values.
func (s TicketStatus) IsValid() bool {
	switch s {
	case TicketAvailable, TicketReserved, TicketSold, TicketCancelled:
		return true
	}
	return false
}

// CanTransitionTo checks whether the ledger permits moving from the current
// status to the target.  RESERVED returning to AVAILABLE covers both an
// explicit release and an expiry reclaim; CANCELLED is terminal.
func (s TicketStatus) CanTransitionTo(target TicketStatus) bool {
	transitions := map[TicketStatus][]TicketStatus{
		TicketAvailable: {TicketReserved},
		TicketReserved:  {TicketSold, TicketAvailable},
		TicketSold:      {TicketCancelled},
		TicketCancelled: {},
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

// Ticket is one sellable seat unit: the combination of a schedule and a
// physical venue seat.  One row exists per seat per schedule, created when
// sales open for the schedule.  The price is fixed at generation time from
// the schedule's grade price list.
//
// Fields:
//  ID            – primary key identifier.
//  ScheduleID    – the schedule this seat is sold for.
//  VenueSeatID   – the physical seat being sold.
//  ReservationID – binding to the reservation currently holding or owning
//                  the seat; nil in AVAILABLE and CANCELLED.
//  PriceCents    – price in cents, set from the grade price list.
//  Status        – current ledger status.
//  ReservedAt    – when the current hold was taken (RESERVED only).
//  ExpiresAt     – when the current hold lapses; set iff status is RESERVED.
//  Version       – monotonically increasing revision counter, bumped on
//                  every update as a conflict tripwire.
//  CreatedAt     – timestamp when the row was created.
//  UpdatedAt     – timestamp when the row was last updated.
type Ticket struct {
	ID            uint64       // tickets.id
	ScheduleID    uint64       // tickets.schedule_id
	VenueSeatID   uint64       // tickets.venue_seat_id
	ReservationID *uint64      // tickets.reservation_id (nullable)
	PriceCents    uint32       // tickets.price_cents
	Status        TicketStatus // tickets.status
	ReservedAt    *time.Time   // tickets.reserved_at (nullable)
	ExpiresAt     *time.Time   // tickets.expires_at (nullable)
	Version       uint64       // tickets.version
	CreatedAt     time.Time    // tickets.created_at
	UpdatedAt     time.Time    // tickets.updated_at
}

// IsAvailable reports whether the ticket can accept a new hold.
func (t *Ticket) IsAvailable() bool {
	return t.Status == TicketAvailable
}

// IsReserved reports whether the ticket is currently held.
func (t *Ticket) IsReserved() bool {
	return t.Status == TicketReserved
}

// IsSold reports whether the ticket has been sold.
func (t *Ticket) IsSold() bool {
	return t.Status == TicketSold
}

// HeldBy reports whether the ticket is reserved under the given reservation.
func (t *Ticket) HeldBy(reservationID uint64) bool {
	return t.Status == TicketReserved && t.ReservationID != nil && *t.ReservationID == reservationID
}

// IsExpiredAt reports whether a hold on this ticket has lapsed at the given
// instant.  Expiry is a pure function of the recorded deadline and the
// supplied clock; no in-process timer is involved, so the answer is correct
// across restarts and regardless of whether the sweeper has run yet.
func (t *Ticket) IsExpiredAt(now time.Time) bool {
	return t.Status == TicketReserved && t.ExpiresAt != nil && t.ExpiresAt.Before(now)
}
