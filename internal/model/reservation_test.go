package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestReservationStatusTransitions(t *testing.T) {
	cases := []struct {
		from, to ReservationStatus
		allowed  bool
	}{
		{ReservationPendingPayment, ReservationConfirmed, true},
		{ReservationPendingPayment, ReservationCancelled, true},
		{ReservationPendingPayment, ReservationExpired, true},
		{ReservationConfirmed, ReservationCancelled, true},
		{ReservationConfirmed, ReservationExpired, false},
		{ReservationConfirmed, ReservationPendingPayment, false},
		{ReservationCancelled, ReservationConfirmed, false},
		{ReservationCancelled, ReservationPendingPayment, false},
		{ReservationExpired, ReservationConfirmed, false}, // a late payment must not resurrect
		{ReservationExpired, ReservationCancelled, false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.allowed, tc.from.CanTransitionTo(tc.to),
			"%s -> %s", tc.from, tc.to)
	}
}

func TestReservationIsCancellable(t *testing.T) {
	assert.True(t, ReservationPendingPayment.IsCancellable())
	assert.True(t, ReservationConfirmed.IsCancellable())
	assert.False(t, ReservationCancelled.IsCancellable())
	assert.False(t, ReservationExpired.IsCancellable())
}

func TestReservationIsExpiredAt(t *testing.T) {
	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	res := &Reservation{
		Status:    ReservationPendingPayment,
		ExpiresAt: created.Add(10 * time.Minute),
		CreatedAt: created,
	}

	// Queried at +11 minutes the reservation is logically expired even if
	// no sweep has physically released the seats yet.
	assert.False(t, res.IsExpiredAt(created.Add(9*time.Minute)))
	assert.True(t, res.IsExpiredAt(created.Add(11*time.Minute)))

	// Terminal states never report expired.
	res.Status = ReservationConfirmed
	assert.False(t, res.IsExpiredAt(created.Add(11*time.Minute)))
	res.Status = ReservationCancelled
	assert.False(t, res.IsExpiredAt(created.Add(11*time.Minute)))
}

func TestPaymentStatusTransitions(t *testing.T) {
	assert.True(t, PaymentPending.CanTransitionTo(PaymentCompleted))
	assert.True(t, PaymentPending.CanTransitionTo(PaymentFailed))
	assert.True(t, PaymentPending.CanTransitionTo(PaymentCancelled))
	// Refund after cancelling a confirmed reservation.
	assert.True(t, PaymentCompleted.CanTransitionTo(PaymentCancelled))
	assert.False(t, PaymentCompleted.CanTransitionTo(PaymentPending))
	assert.False(t, PaymentFailed.CanTransitionTo(PaymentCompleted))
	assert.False(t, PaymentCancelled.CanTransitionTo(PaymentCompleted))
}
