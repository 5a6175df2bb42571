package model

import "time"

// Event represents a performance or show that can have one or more
// schedules at a venue.
//
// Fields:
//  ID        – primary key identifier.
//  VenueID   – venue where the event takes place.
//  Title     – event title.
//  Category  – free-form category label (CONCERT, MUSICAL, ...).
//  CreatedAt – creation timestamp.
//  UpdatedAt – last update timestamp.
type Event struct {
	ID        uint64    // events.id
	VenueID   uint64    // events.venue_id
	Title     string    // events.title
	Category  string    // events.category
	CreatedAt time.Time // events.created_at
	UpdatedAt time.Time // events.updated_at
}

// Schedule is one dated occurrence of an event.  Tickets are generated per
// schedule when sales open; sale_open_at gates when reservations may be
// created and show_at gates when they no longer make sense.
//
// Fields:
//  ID         – primary key identifier.
//  EventID    – the event this schedule belongs to.
//  ShowAt     – when the performance starts.
//  SaleOpenAt – when ticket sales open for this schedule.
//  CreatedAt  – creation timestamp.
//  UpdatedAt  – last update timestamp.
type Schedule struct {
	ID         uint64    // schedules.id
	EventID    uint64    // schedules.event_id
	ShowAt     time.Time // schedules.show_at
	SaleOpenAt time.Time // schedules.sale_open_at
	CreatedAt  time.Time // schedules.created_at
	UpdatedAt  time.Time // schedules.updated_at
}

// IsSaleOpenAt reports whether sales have opened by the given instant.
func (s *Schedule) IsSaleOpenAt(now time.Time) bool {
	return now.After(s.SaleOpenAt)
}

// IsFinishedAt reports whether the show has already started, after which
// no new reservations are accepted.
func (s *Schedule) IsFinishedAt(now time.Time) bool {
	return now.After(s.ShowAt)
}

// IsSaleableAt combines both gates: a schedule is saleable between sale
// open and showtime.
func (s *Schedule) IsSaleableAt(now time.Time) bool {
	return s.IsSaleOpenAt(now) && !s.IsFinishedAt(now)
}

// TicketPrice maps a seat grade to its price for one schedule.  The price
// list is consulted once, when tickets are generated; later price changes
// never affect already-generated tickets.
//
// Fields:
//  ID         – primary key identifier.
//  ScheduleID – schedule the price applies to.
//  Grade      – seat grade (VIP, R, S, A ...).
//  PriceCents – price in cents for that grade.
type TicketPrice struct {
	ID         uint64    // ticket_prices.id
	ScheduleID uint64    // ticket_prices.schedule_id
	Grade      string    // ticket_prices.grade
	PriceCents uint32    // ticket_prices.price_cents
	CreatedAt  time.Time // ticket_prices.created_at
}
