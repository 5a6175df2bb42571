// Package handler defines the HTTP layer.  Handlers bind and validate
// requests, call into the service layer and translate its errors to HTTP
// responses; no business rules live here.
package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/minsu-hwang/event-ticket-reservation/internal/repository"
	"github.com/minsu-hwang/event-ticket-reservation/internal/service"
)

// getUserID extracts the user_id set by the JWT middleware and converts it
// to uint64.  Claims decode as float64, so several numeric shapes are
// accepted.
func getUserID(c echo.Context) (uint64, error) {
	v := c.Get("user_id")
	switch t := v.(type) {
	case uint64:
		return t, nil
	case int:
		return uint64(t), nil
	case int64:
		return uint64(t), nil
	case float64:
		return uint64(t), nil
	case string:
		if n, err := strconv.ParseUint(t, 10, 64); err == nil {
			return n, nil
		}
	}
	return 0, errors.New("invalid user_id in context")
}

// pathID parses a positive uint64 path parameter.
func pathID(c echo.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return id, true
}

// reservationError maps service and repository errors to HTTP responses.
// Unknown errors fall through to a generic 500 so internals never leak.
func reservationError(c echo.Context, err error) error {
	if snae, ok := service.AsSeatNotAvailable(err); ok {
		return c.JSON(http.StatusConflict, echo.Map{
			"error":       "seats not available",
			"unavailable": snae.VenueSeatIDs,
		})
	}
	switch {
	case errors.Is(err, service.ErrNoSeats):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "seat_ids is required"})
	case errors.Is(err, service.ErrTotalOverflow):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "reservation total too large"})
	case errors.Is(err, service.ErrScheduleNotSaleable):
		return c.JSON(http.StatusConflict, echo.Map{"error": "schedule is not open for sale"})
	case errors.Is(err, service.ErrReservationExpired):
		return c.JSON(http.StatusConflict, echo.Map{"error": "reservation expired"})
	case errors.Is(err, service.ErrNotCancellable):
		return c.JSON(http.StatusConflict, echo.Map{"error": "reservation is not cancellable"})
	case errors.Is(err, service.ErrInvalidState):
		return c.JSON(http.StatusConflict, echo.Map{"error": "invalid reservation state"})
	case errors.Is(err, service.ErrNotOwner):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	case errors.Is(err, repository.ErrReservationNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "reservation not found"})
	case errors.Is(err, repository.ErrScheduleNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "schedule not found"})
	case errors.Is(err, repository.ErrTicketNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "ticket not found"})
	case errors.Is(err, repository.ErrStaleRow):
		return c.JSON(http.StatusConflict, echo.Map{"error": "conflicting update, retry"})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
}
