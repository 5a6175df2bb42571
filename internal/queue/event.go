// Package queue defines message payloads exchanged over the message broker
// and the background consumer that turns them into an audit trail.
package queue

// Routing keys for reservation lifecycle events.  Each key doubles as the
// durable queue name on the default exchange.
const (
	ReservationConfirmedQueue = "reservation.confirmed"
	ReservationCancelledQueue = "reservation.cancelled"
	ReservationExpiredQueue   = "reservation.expired"
	RefundRequestedQueue      = "payment.refund-requested"
)

// ReservationEvent is published whenever a reservation reaches a terminal
// or confirmed state.  It carries enough information for downstream
// consumers to log, notify, or trigger analytics without querying the
// primary database.
type ReservationEvent struct {
	EventID         string   `json:"event_id"`
	ReservationID   uint64   `json:"reservation_id"`
	OwnerID         uint64   `json:"owner_id"`
	ScheduleID      uint64   `json:"schedule_id"`
	EventTitle      string   `json:"event_title,omitempty"`
	SeatLabels      []string `json:"seats,omitempty"`
	TotalPriceCents uint32   `json:"total_price_cents"`
	OccurredAt      string   `json:"occurred_at"`
}

// RefundRequestedEvent is published when a payment completed at the gateway
// but the reservation could no longer be confirmed, typically because the
// hold expired while the payment was in flight.  A downstream worker calls
// the gateway's refund API using the transaction reference.
type RefundRequestedEvent struct {
	EventID         string `json:"event_id"`
	ReservationID   uint64 `json:"reservation_id"`
	PaymentID       uint64 `json:"payment_id"`
	AmountCents     uint32 `json:"amount_cents"`
	PgTransactionID string `json:"pg_transaction_id"`
	Reason          string `json:"reason"`
	OccurredAt      string `json:"occurred_at"`
}
