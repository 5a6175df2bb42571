package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/minsu-hwang/event-ticket-reservation/internal/model"
	"github.com/minsu-hwang/event-ticket-reservation/internal/repository"
	"github.com/minsu-hwang/event-ticket-reservation/internal/service"
)

// AdminHandler covers venue, event and schedule setup plus opening ticket
// sales.  All routes require the ADMIN role.
type AdminHandler struct {
	Venues    *repository.VenueRepo
	Schedules *repository.ScheduleRepo
	Sales     *service.ScheduleService
}

func NewAdminHandler(venues *repository.VenueRepo, schedules *repository.ScheduleRepo, sales *service.ScheduleService) *AdminHandler {
	if venues == nil || schedules == nil || sales == nil {
		panic("nil dependency passed to NewAdminHandler")
	}
	return &AdminHandler{Venues: venues, Schedules: schedules, Sales: sales}
}

type seatSpec struct {
	Section    string `json:"section"`
	SeatRow    string `json:"seat_row"`
	SeatNumber string `json:"seat_number"`
	Grade      string `json:"grade"`
}

type createVenueReq struct {
	Name    string     `json:"name"`
	Address string     `json:"address"`
	Seats   []seatSpec `json:"seats"`
}

// CreateVenue handles POST /v1/admin/venues, creating the venue and its
// seat map in one request.
func (h *AdminHandler) CreateVenue(c echo.Context) error {
	var req createVenueReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name is required"})
	}
	for i, s := range req.Seats {
		if s.Section == "" || s.SeatRow == "" || s.SeatNumber == "" || s.Grade == "" {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "seat entries need section, seat_row, seat_number and grade", "index": i})
		}
	}

	ctx := c.Request().Context()
	venue := &model.Venue{Name: req.Name, Address: req.Address}
	if err := h.Venues.CreateVenue(ctx, venue); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create venue failed"})
	}
	if len(req.Seats) > 0 {
		seats := make([]model.VenueSeat, 0, len(req.Seats))
		for _, s := range req.Seats {
			seats = append(seats, model.VenueSeat{
				VenueID:    venue.ID,
				Section:    s.Section,
				SeatRow:    s.SeatRow,
				SeatNumber: s.SeatNumber,
				Grade:      strings.ToUpper(s.Grade),
			})
		}
		if err := h.Venues.CreateSeatsBulk(ctx, seats); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create seats failed"})
		}
	}
	return c.JSON(http.StatusCreated, echo.Map{"venue_id": venue.ID, "seats": len(req.Seats)})
}

type createEventReq struct {
	VenueID  uint64 `json:"venue_id"`
	Title    string `json:"title"`
	Category string `json:"category"`
}

// CreateEvent handles POST /v1/admin/events.
func (h *AdminHandler) CreateEvent(c echo.Context) error {
	var req createEventReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.VenueID == 0 || strings.TrimSpace(req.Title) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "venue_id and title are required"})
	}
	event := &model.Event{VenueID: req.VenueID, Title: strings.TrimSpace(req.Title), Category: strings.ToUpper(req.Category)}
	if err := h.Schedules.CreateEvent(c.Request().Context(), event); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create event failed"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"event_id": event.ID})
}

type createScheduleReq struct {
	EventID    uint64            `json:"event_id"`
	ShowAt     time.Time         `json:"show_at"`
	SaleOpenAt time.Time         `json:"sale_open_at"`
	Prices     map[string]uint32 `json:"prices"` // grade -> cents
}

// CreateSchedule handles POST /v1/admin/schedules, storing the schedule and
// its grade price list.
func (h *AdminHandler) CreateSchedule(c echo.Context) error {
	var req createScheduleReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.EventID == 0 || req.ShowAt.IsZero() {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "event_id and show_at are required"})
	}
	if len(req.Prices) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "prices is required"})
	}
	if req.SaleOpenAt.IsZero() {
		req.SaleOpenAt = time.Now().UTC()
	}
	if !req.SaleOpenAt.Before(req.ShowAt) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "sale_open_at must precede show_at"})
	}

	ctx := c.Request().Context()
	sched := &model.Schedule{EventID: req.EventID, ShowAt: req.ShowAt.UTC(), SaleOpenAt: req.SaleOpenAt.UTC()}
	if err := h.Schedules.CreateSchedule(ctx, sched); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create schedule failed"})
	}
	prices := make([]model.TicketPrice, 0, len(req.Prices))
	for grade, cents := range req.Prices {
		prices = append(prices, model.TicketPrice{Grade: strings.ToUpper(grade), PriceCents: cents})
	}
	if err := h.Schedules.CreatePricesBulk(ctx, sched.ID, prices); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create prices failed"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"schedule_id": sched.ID})
}

// OpenSales handles POST /v1/admin/schedules/:id/open-sales, generating one
// AVAILABLE ticket per venue seat.  Calling it twice returns 409.
func (h *AdminHandler) OpenSales(c echo.Context) error {
	scheduleID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid schedule id"})
	}
	n, err := h.Sales.OpenSales(c.Request().Context(), scheduleID)
	if err != nil {
		if errors.Is(err, service.ErrTicketsAlreadyOpen) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "tickets already generated"})
		}
		return reservationError(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"schedule_id": scheduleID, "tickets": n})
}
