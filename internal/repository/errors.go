// Package repository defines error types that are reused across multiple
// repositories.  These sentinel values allow higher layers such as the
// services to distinguish between different failure scenarios without
// string matching.  ErrStaleRow in particular is the tripwire for the
// locking protocol: every guarded UPDATE carries the row version read
// under the lock, so a zero-rows-affected result means some writer touched
// the row outside the protocol and the transaction must abort.
package repository

import (
	"errors"

	"github.com/go-sql-driver/mysql"
)

// ErrTicketNotFound is returned when a ticket row does not exist for the
// requested schedule/seat combination.
var ErrTicketNotFound = errors.New("ticket not found")

// ErrReservationNotFound is returned when no reservation row exists for
// the given id.
var ErrReservationNotFound = errors.New("reservation not found")

// ErrScheduleNotFound is returned when a schedule lookup matches no row.
var ErrScheduleNotFound = errors.New("schedule not found")

// ErrPaymentNotFound is returned when a reservation has no payment row yet.
var ErrPaymentNotFound = errors.New("payment not found")

// ErrStaleRow signals that a guarded update matched no row: the status or
// version in the WHERE clause no longer held.  After a FOR UPDATE read this
// should never happen; callers treat it as a persisted-state inconsistency
// and abort without partial writes.
var ErrStaleRow = errors.New("stale row: status or version guard failed")

// ErrConflict is returned when an insert or delete cannot proceed because
// of dependent state, such as opening sales twice for the same schedule.
var ErrConflict = errors.New("conflict")

// isDuplicateKey detects a MySQL duplicate-key violation (error 1062).
func isDuplicateKey(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == 1062
}
