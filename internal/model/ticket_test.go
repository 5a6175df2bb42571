package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTicketStatusTransitions(t *testing.T) {
	cases := []struct {
		from, to TicketStatus
		allowed  bool
	}{
		{TicketAvailable, TicketReserved, true},
		{TicketAvailable, TicketSold, false},
		{TicketAvailable, TicketCancelled, false},
		{TicketReserved, TicketSold, true},
		{TicketReserved, TicketAvailable, true}, // release or expiry reclaim
		{TicketReserved, TicketCancelled, false},
		{TicketSold, TicketCancelled, true},
		{TicketSold, TicketAvailable, false},
		{TicketSold, TicketReserved, false},
		{TicketCancelled, TicketAvailable, false},
		{TicketCancelled, TicketReserved, false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.allowed, tc.from.CanTransitionTo(tc.to),
			"%s -> %s", tc.from, tc.to)
	}
}

func TestTicketStatusIsValid(t *testing.T) {
	assert.True(t, TicketAvailable.IsValid())
	assert.True(t, TicketReserved.IsValid())
	assert.True(t, TicketSold.IsValid())
	assert.True(t, TicketCancelled.IsValid())
	assert.False(t, TicketStatus("HELD").IsValid())
	assert.False(t, TicketStatus("").IsValid())
}

func TestTicketIsExpiredAt(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	deadline := now.Add(10 * time.Minute)
	resID := uint64(42)

	held := &Ticket{Status: TicketReserved, ReservationID: &resID, ExpiresAt: &deadline}

	// Expiry is purely a comparison against the recorded deadline.
	assert.False(t, held.IsExpiredAt(now))
	assert.False(t, held.IsExpiredAt(deadline)) // boundary: not yet past
	assert.True(t, held.IsExpiredAt(deadline.Add(time.Second)))
	assert.True(t, held.IsExpiredAt(now.Add(11*time.Minute)))

	// Only RESERVED tickets can be expired; a sold ticket keeps no deadline.
	sold := &Ticket{Status: TicketSold, ReservationID: &resID}
	assert.False(t, sold.IsExpiredAt(now.Add(time.Hour)))

	free := &Ticket{Status: TicketAvailable}
	assert.False(t, free.IsExpiredAt(now.Add(time.Hour)))
}

func TestTicketHeldBy(t *testing.T) {
	resID := uint64(7)
	tk := &Ticket{Status: TicketReserved, ReservationID: &resID}
	assert.True(t, tk.HeldBy(7))
	assert.False(t, tk.HeldBy(8))

	tk.Status = TicketSold
	assert.False(t, tk.HeldBy(7), "only RESERVED counts as held")

	unbound := &Ticket{Status: TicketReserved}
	assert.False(t, unbound.HeldBy(7))
}
