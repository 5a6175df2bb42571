package model

import "time"

// Venue is a physical location that hosts events.  Venues and their seats
// belong to the venue/schedule subsystem; the reservation core only reads
// them.
//
// Fields:
//  ID        – primary key identifier.
//  Name      – venue display name.
//  Address   – street address.
//  CreatedAt – creation timestamp.
//  UpdatedAt – last update timestamp.
type Venue struct {
	ID        uint64    // venues.id
	Name      string    // venues.name
	Address   string    // venues.address
	CreatedAt time.Time // venues.created_at
	UpdatedAt time.Time // venues.updated_at
}

// VenueSeat describes one physical seat in a venue.  Seats are uniquely
// identified by section, row and number and carry a grade that selects
// their price from a schedule's price list.
//
// Fields:
//  ID         – primary key identifier.
//  VenueID    – venue the seat belongs to.
//  Section    – seating section label.
//  SeatRow    – row label within the section.
//  SeatNumber – number within the row.
//  Grade      – price grade (VIP, R, S, A ...).
//  CreatedAt  – creation timestamp.
//  UpdatedAt  – last update timestamp.
type VenueSeat struct {
	ID         uint64    // venue_seats.id
	VenueID    uint64    // venue_seats.venue_id
	Section    string    // venue_seats.section
	SeatRow    string    // venue_seats.seat_row
	SeatNumber string    // venue_seats.seat_number
	Grade      string    // venue_seats.grade
	CreatedAt  time.Time // venue_seats.created_at
	UpdatedAt  time.Time // venue_seats.updated_at
}

// Label renders a human-readable seat name like "A 3-12" used in
// reservation listings and confirmed-booking events.
func (s *VenueSeat) Label() string {
	return s.Section + " " + s.SeatRow + "-" + s.SeatNumber
}
