// Package service implements the reservation core: seat holds under ordered
// row locks, payment resolution, owner cancellation and the hold expiry
// sweeper.  Handlers translate the errors defined here into HTTP responses;
// the payment resolver branches on them to decide between completion and
// refund compensation.
package service

import (
	"errors"
	"fmt"
)

var (
	// ErrReservationExpired rejects confirmation of a reservation whose
	// hold window has lapsed, whether or not the sweeper has visited it yet.
	ErrReservationExpired = errors.New("reservation expired")

	// ErrNotCancellable rejects cancellation of a reservation already in a
	// terminal state.
	ErrNotCancellable = errors.New("reservation is not cancellable")

	// ErrNotOwner rejects operations on a reservation by anyone other than
	// the user who created it.
	ErrNotOwner = errors.New("reservation belongs to another user")

	// ErrInvalidState rejects a transition the reservation's current status
	// does not permit, for example confirming a cancelled reservation.
	ErrInvalidState = errors.New("invalid reservation state for this operation")

	// ErrScheduleNotSaleable rejects holds on a schedule whose sale has not
	// opened yet or whose show already finished.
	ErrScheduleNotSaleable = errors.New("schedule is not open for sale")

	// ErrNoSeats rejects a reservation request that names no valid seats.
	ErrNoSeats = errors.New("no valid seat ids provided")

	// ErrTotalOverflow rejects a reservation whose summed seat prices do
	// not fit the 32-bit cent total the schema stores.
	ErrTotalOverflow = errors.New("reservation total exceeds the supported amount")
)

// SeatNotAvailableError reports which requested seats could not be held.
// Carrying the ids lets the client render the exact seats to re-pick
// instead of guessing from a generic conflict message.
type SeatNotAvailableError struct {
	VenueSeatIDs []uint64
}

func (e *SeatNotAvailableError) Error() string {
	return fmt.Sprintf("seats not available: %v", e.VenueSeatIDs)
}

// AsSeatNotAvailable unwraps err into a SeatNotAvailableError if it is one.
func AsSeatNotAvailable(err error) (*SeatNotAvailableError, bool) {
	var snae *SeatNotAvailableError
	if errors.As(err, &snae) {
		return snae, true
	}
	return nil, false
}
