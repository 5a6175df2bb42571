package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/minsu-hwang/event-ticket-reservation/internal/repository"
	"github.com/minsu-hwang/event-ticket-reservation/internal/service"
)

// ReservationHandler exposes the reservation lifecycle to authenticated
// buyers.  All state transitions happen in the service layer; this handler
// only parses requests and shapes responses.
type ReservationHandler struct {
	Reservations *service.ReservationService
	Payments     *service.PaymentService
}

func NewReservationHandler(reservations *service.ReservationService, payments *service.PaymentService) *ReservationHandler {
	if reservations == nil || payments == nil {
		panic("nil service passed to NewReservationHandler")
	}
	return &ReservationHandler{Reservations: reservations, Payments: payments}
}

// Create handles POST /v1/schedules/:id/reservations.  The body carries a
// "seat_ids" array of venue seat ids.  On success it returns 201 with the
// reservation id, total price and the payment deadline; when any seat is
// taken it returns 409 naming the unavailable seats.
func (h *ReservationHandler) Create(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	scheduleID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid schedule id"})
	}
	var body struct {
		SeatIDs []uint64 `json:"seat_ids"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if len(body.SeatIDs) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "seat_ids is required"})
	}

	res, err := h.Reservations.Create(c.Request().Context(), userID, scheduleID, body.SeatIDs)
	if err != nil {
		return reservationError(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"reservation_id":    res.ID,
		"status":            res.Status,
		"total_price_cents": res.TotalPriceCents,
		"expires_at":        res.ExpiresAt.Format(time.RFC3339),
	})
}

// Confirm handles POST /v1/reservations/:id/confirm.  In production the
// payment webhook drives confirmation; this endpoint lets the owner settle
// a reservation directly when payment happened out of band.
func (h *ReservationHandler) Confirm(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	resID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
	}
	if err := h.Reservations.Confirm(c.Request().Context(), resID, userID); err != nil {
		return reservationError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"reservation_id": resID, "status": "CONFIRMED"})
}

// Cancel handles DELETE /v1/reservations/:id.  Pending reservations free
// their seats for resale; confirmed ones withdraw them and refund the
// captured payment, which is why the call goes through the payment service.
func (h *ReservationHandler) Cancel(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	resID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
	}
	if err := h.Payments.CancelReservation(c.Request().Context(), resID, userID); err != nil {
		return reservationError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Get handles GET /v1/reservations/:id for the owning user.
func (h *ReservationHandler) Get(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	resID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
	}
	det, err := h.Reservations.Get(c.Request().Context(), resID, userID)
	if err != nil {
		return reservationError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"item": det})
}

// List handles GET /v1/my-reservations.
func (h *ReservationHandler) List(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	items, err := h.Reservations.ListByOwner(c.Request().Context(), userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load reservations"})
	}
	if items == nil {
		items = []repository.ReservationDetail{}
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}
