package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/minsu-hwang/event-ticket-reservation/internal/repository"
)

// BrowseHandler serves the public read side: schedule info and the seat
// availability map.  Responses may be cached by the Redis middleware; the
// view is advisory and any mutation re-checks under row locks.
type BrowseHandler struct {
	Schedules *repository.ScheduleRepo
	Tickets   *repository.TicketRepo
}

func NewBrowseHandler(schedules *repository.ScheduleRepo, tickets *repository.TicketRepo) *BrowseHandler {
	if schedules == nil || tickets == nil {
		panic("nil repository passed to NewBrowseHandler")
	}
	return &BrowseHandler{Schedules: schedules, Tickets: tickets}
}

// GetSchedule handles GET /v1/schedules/:id.
func (h *BrowseHandler) GetSchedule(c echo.Context) error {
	scheduleID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid schedule id"})
	}
	sched, err := h.Schedules.GetByID(c.Request().Context(), scheduleID)
	if err != nil {
		return reservationError(c, err)
	}
	now := time.Now().UTC()
	return c.JSON(http.StatusOK, echo.Map{
		"id":           sched.ID,
		"event_id":     sched.EventID,
		"show_at":      sched.ShowAt.Format(time.RFC3339),
		"sale_open_at": sched.SaleOpenAt.Format(time.RFC3339),
		"on_sale":      sched.IsSaleableAt(now),
	})
}

// ListSeats handles GET /v1/schedules/:id/seats and returns one entry per
// ticket with seat coordinates, grade, price and current status.
func (h *BrowseHandler) ListSeats(c echo.Context) error {
	scheduleID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid schedule id"})
	}
	if _, err := h.Schedules.GetByID(c.Request().Context(), scheduleID); err != nil {
		return reservationError(c, err)
	}
	seats, err := h.Tickets.ListAvailabilityBySchedule(c.Request().Context(), scheduleID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load seats"})
	}
	if seats == nil {
		seats = []repository.SeatAvailability{}
	}
	return c.JSON(http.StatusOK, echo.Map{"schedule_id": scheduleID, "seats": seats})
}
