package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/minsu-hwang/event-ticket-reservation/internal/model"
	"github.com/minsu-hwang/event-ticket-reservation/internal/repository"
	"github.com/minsu-hwang/event-ticket-reservation/pkg/logger"
)

// ErrTicketsAlreadyOpen reports that sales were already opened for a
// schedule; ticket generation happens exactly once.
var ErrTicketsAlreadyOpen = errors.New("tickets already generated for this schedule")

// ScheduleService generates the sellable inventory for a schedule: one
// AVAILABLE ticket per venue seat, priced by the schedule's grade price
// list at generation time.
type ScheduleService struct {
	schedules *repository.ScheduleRepo
	venues    *repository.VenueRepo
	tickets   *repository.TicketRepo
	log       *zap.Logger
}

// NewScheduleService constructs a ScheduleService.
func NewScheduleService(schedules *repository.ScheduleRepo, venues *repository.VenueRepo, tickets *repository.TicketRepo) *ScheduleService {
	if schedules == nil || venues == nil || tickets == nil {
		panic("nil repository passed to NewScheduleService")
	}
	return &ScheduleService{
		schedules: schedules,
		venues:    venues,
		tickets:   tickets,
		log:       logger.WithComponent("schedule-service"),
	}
}

// OpenSales generates tickets for every seat of the schedule's venue.
// Each seat's price comes from the schedule's grade price list; a seat
// whose grade has no price entry aborts generation so a half-priced
// schedule never goes on sale.  Returns the number of tickets created, or
// ErrTicketsAlreadyOpen when a previous call already generated them.
func (s *ScheduleService) OpenSales(ctx context.Context, scheduleID uint64) (int, error) {
	sched, err := s.schedules.GetByID(ctx, scheduleID)
	if err != nil {
		return 0, err
	}

	tx, err := s.schedules.DB().BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	existing, err := s.tickets.CountByScheduleTx(ctx, tx, scheduleID)
	if err != nil {
		return 0, err
	}
	if existing > 0 {
		return 0, ErrTicketsAlreadyOpen
	}

	event, err := s.schedules.GetEventByIDTx(ctx, tx, sched.EventID)
	if err != nil {
		return 0, err
	}
	seats, err := s.venues.ListSeatsByVenueTx(ctx, tx, event.VenueID)
	if err != nil {
		return 0, err
	}
	prices, err := s.schedules.PricesByScheduleTx(ctx, tx, scheduleID)
	if err != nil {
		return 0, err
	}

	tickets := make([]model.Ticket, 0, len(seats))
	for _, seat := range seats {
		price, ok := prices[seat.Grade]
		if !ok {
			return 0, fmt.Errorf("no price configured for grade %q on schedule %d", seat.Grade, scheduleID)
		}
		tickets = append(tickets, model.Ticket{
			ScheduleID:  scheduleID,
			VenueSeatID: seat.ID,
			PriceCents:  price,
			Status:      model.TicketAvailable,
		})
	}
	if err := s.tickets.CreateBulkTx(ctx, tx, tickets); err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	committed = true
	s.log.Info("sales opened",
		zap.Uint64("schedule_id", scheduleID),
		zap.Int("tickets", len(tickets)))
	return len(tickets), nil
}
