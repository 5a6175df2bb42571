package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/minsu-hwang/event-ticket-reservation/internal/service"
)

// PaymentHandler receives payment gateway webhooks.  The gateway retries
// until it gets a 2xx, so the endpoint must be idempotent; the payment
// service guarantees that by refusing to re-resolve a settled payment.
type PaymentHandler struct {
	Payments *service.PaymentService
}

func NewPaymentHandler(payments *service.PaymentService) *PaymentHandler {
	if payments == nil {
		panic("nil service passed to NewPaymentHandler")
	}
	return &PaymentHandler{Payments: payments}
}

type paymentWebhookReq struct {
	ReservationID   uint64 `json:"reservation_id"`
	Status          string `json:"status"` // SUCCESS | FAILURE
	Method          string `json:"method"`
	AmountCents     uint32 `json:"amount_cents"`
	PgTransactionID string `json:"pg_transaction_id"`
}

// Webhook handles POST /v1/payments/webhook.  A SUCCESS confirms the
// reservation (or triggers a refund when the hold already lapsed); a
// FAILURE releases the held seats.
func (h *PaymentHandler) Webhook(c echo.Context) error {
	var req paymentWebhookReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.ReservationID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "reservation_id required"})
	}
	status := strings.ToUpper(strings.TrimSpace(req.Status))
	if status != "SUCCESS" && status != "FAILURE" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "status must be SUCCESS or FAILURE"})
	}

	err := h.Payments.OnPaymentOutcome(c.Request().Context(), req.ReservationID, service.PaymentOutcome{
		Success:         status == "SUCCESS",
		Method:          req.Method,
		AmountCents:     req.AmountCents,
		PgTransactionID: req.PgTransactionID,
	})
	if err != nil {
		// Non-2xx tells the gateway to redeliver later.
		return reservationError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"processed": true})
}
