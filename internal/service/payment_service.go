package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/minsu-hwang/event-ticket-reservation/internal/model"
	"github.com/minsu-hwang/event-ticket-reservation/internal/queue"
	"github.com/minsu-hwang/event-ticket-reservation/internal/repository"
	"github.com/minsu-hwang/event-ticket-reservation/pkg/logger"
)

// ReservationResolver is the slice of ReservationService the payment path
// needs: finalise on success, cancel on failure, and inspect state when a
// confirm is rejected.
type ReservationResolver interface {
	Confirm(ctx context.Context, reservationID, actorID uint64) error
	Cancel(ctx context.Context, reservationID, actorID uint64) error
	Get(ctx context.Context, reservationID, actorID uint64) (*repository.ReservationDetail, error)
}

// PaymentStore persists payment rows.  Implemented by repository.PaymentRepo.
type PaymentStore interface {
	Create(ctx context.Context, p *model.Payment) error
	GetByReservation(ctx context.Context, reservationID uint64) (*model.Payment, error)
	UpdateStatus(ctx context.Context, paymentID uint64, from, to model.PaymentStatus, pgRef string) error
}

// RefundNotifier asks a downstream worker to return money to the customer.
// Implemented by queue.Publisher.
type RefundNotifier interface {
	RequestRefund(ctx context.Context, ev queue.RefundRequestedEvent) error
}

// PaymentOutcome is one resolution reported by the payment gateway.
type PaymentOutcome struct {
	Success         bool
	Method          string
	AmountCents     uint32
	PgTransactionID string
}

// PaymentService applies gateway outcomes to reservations.  The tricky case
// is a SUCCESS that arrives after the hold expired: the money was captured
// but the seats are gone, so the service records the payment as FAILED for
// the reservation's purposes and emits a refund request instead of
// resurrecting the hold.
type PaymentService struct {
	reservations ReservationResolver
	payments     PaymentStore
	refunds      RefundNotifier
	log          *zap.Logger
}

// NewPaymentService constructs a PaymentService.  refunds may be nil, in
// which case late successes are logged but no refund message is emitted.
func NewPaymentService(reservations ReservationResolver, payments PaymentStore, refunds RefundNotifier) *PaymentService {
	if reservations == nil || payments == nil {
		panic("nil dependency passed to NewPaymentService")
	}
	return &PaymentService{
		reservations: reservations,
		payments:     payments,
		refunds:      refunds,
		log:          logger.WithComponent("payment-service"),
	}
}

// OnPaymentOutcome applies one gateway outcome to a reservation.  The call
// is idempotent with respect to the payment row: redelivered webhooks find
// the payment already past PENDING and return nil without touching the
// reservation again.
func (s *PaymentService) OnPaymentOutcome(ctx context.Context, reservationID uint64, outcome PaymentOutcome) error {
	pay, err := s.ensurePayment(ctx, reservationID, outcome)
	if err != nil {
		return err
	}
	if pay.Status != model.PaymentPending {
		// Already resolved by an earlier delivery of this outcome.
		s.log.Info("duplicate payment outcome ignored",
			zap.Uint64("reservation_id", reservationID),
			zap.Uint64("payment_id", pay.ID),
			zap.String("status", string(pay.Status)))
		return nil
	}
	if outcome.Success {
		return s.applySuccess(ctx, pay, outcome)
	}
	return s.applyFailure(ctx, pay, outcome)
}

// ensurePayment loads the payment row for the reservation, creating a
// PENDING one on first contact.  A concurrent creator losing the insert
// race falls back to reading the winner's row.
func (s *PaymentService) ensurePayment(ctx context.Context, reservationID uint64, outcome PaymentOutcome) (*model.Payment, error) {
	pay, err := s.payments.GetByReservation(ctx, reservationID)
	if err == nil {
		return pay, nil
	}
	if !errors.Is(err, repository.ErrPaymentNotFound) {
		return nil, err
	}
	pay = &model.Payment{
		ReservationID: reservationID,
		AmountCents:   outcome.AmountCents,
		Method:        outcome.Method,
		Status:        model.PaymentPending,
	}
	if err := s.payments.Create(ctx, pay); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return s.payments.GetByReservation(ctx, reservationID)
		}
		return nil, err
	}
	return pay, nil
}

// applySuccess confirms the reservation and completes the payment.  When
// the reservation can no longer be confirmed because its hold lapsed or it
// was cancelled, the captured money must go back: the payment is recorded
// FAILED and a refund request is published.  A reservation that is already
// CONFIRMED is not an error at all: either the completion write of an
// earlier delivery failed midway or the owner confirmed out of band, and in
// both cases the seats are delivered, so the payment simply completes.
func (s *PaymentService) applySuccess(ctx context.Context, pay *model.Payment, outcome PaymentOutcome) error {
	err := s.reservations.Confirm(ctx, pay.ReservationID, SystemActor)
	if err == nil {
		return s.completePayment(ctx, pay, outcome)
	}
	if errors.Is(err, ErrInvalidState) {
		det, derr := s.reservations.Get(ctx, pay.ReservationID, SystemActor)
		if derr != nil {
			return derr
		}
		if det.Status == model.ReservationConfirmed {
			return s.completePayment(ctx, pay, outcome)
		}
	}
	if errors.Is(err, ErrReservationExpired) || errors.Is(err, ErrInvalidState) {
		if err := s.payments.UpdateStatus(ctx, pay.ID, model.PaymentPending, model.PaymentFailed, outcome.PgTransactionID); err != nil {
			return err
		}
		s.requestRefund(ctx, pay, outcome, err.Error())
		return nil
	}
	return err
}

func (s *PaymentService) completePayment(ctx context.Context, pay *model.Payment, outcome PaymentOutcome) error {
	if err := s.payments.UpdateStatus(ctx, pay.ID, model.PaymentPending, model.PaymentCompleted, outcome.PgTransactionID); err != nil {
		return err
	}
	s.log.Info("payment completed",
		zap.Uint64("reservation_id", pay.ReservationID),
		zap.Uint64("payment_id", pay.ID),
		zap.Uint32("amount_cents", pay.AmountCents))
	return nil
}

// CancelReservation cancels a reservation on behalf of actorID and settles
// the payment side: a COMPLETED payment moves to CANCELLED and a refund
// request is published, while pending or absent payments need nothing.
// The settlement also runs when the cancel reports not-cancellable, so a
// previous attempt that withdrew the seats but died before touching the
// payment can be repaired by retrying.
func (s *PaymentService) CancelReservation(ctx context.Context, reservationID, actorID uint64) error {
	cancelErr := s.reservations.Cancel(ctx, reservationID, actorID)
	if cancelErr != nil && !errors.Is(cancelErr, ErrNotCancellable) {
		return cancelErr
	}
	if err := s.settleCancelled(ctx, reservationID); err != nil {
		return err
	}
	return cancelErr
}

// settleCancelled refunds the captured money of a cancelled reservation.
func (s *PaymentService) settleCancelled(ctx context.Context, reservationID uint64) error {
	pay, err := s.payments.GetByReservation(ctx, reservationID)
	if err != nil {
		if errors.Is(err, repository.ErrPaymentNotFound) {
			return nil
		}
		return err
	}
	if pay.Status != model.PaymentCompleted {
		return nil
	}
	ref := ""
	if pay.PgTransactionID != nil {
		ref = *pay.PgTransactionID
	}
	if err := s.payments.UpdateStatus(ctx, pay.ID, model.PaymentCompleted, model.PaymentCancelled, ref); err != nil {
		return err
	}
	s.requestRefund(ctx, pay, PaymentOutcome{PgTransactionID: ref}, "reservation cancelled after confirmation")
	return nil
}

// applyFailure marks the payment FAILED and cancels the pending hold so the
// seats free up immediately instead of waiting out the hold window.  A
// reservation already expired or cancelled needs nothing further.
func (s *PaymentService) applyFailure(ctx context.Context, pay *model.Payment, outcome PaymentOutcome) error {
	if err := s.payments.UpdateStatus(ctx, pay.ID, model.PaymentPending, model.PaymentFailed, outcome.PgTransactionID); err != nil {
		return err
	}
	err := s.reservations.Cancel(ctx, pay.ReservationID, SystemActor)
	if err != nil && !errors.Is(err, ErrNotCancellable) {
		return err
	}
	s.log.Info("payment failed, hold released",
		zap.Uint64("reservation_id", pay.ReservationID),
		zap.Uint64("payment_id", pay.ID))
	return nil
}

// requestRefund publishes a refund request for captured money the customer
// must get back.  Publish failures are logged, not returned; the payment
// row already records its terminal status and an operator can replay
// refunds from the log.
func (s *PaymentService) requestRefund(ctx context.Context, pay *model.Payment, outcome PaymentOutcome, reason string) {
	s.log.Warn("requesting refund of captured payment",
		zap.Uint64("reservation_id", pay.ReservationID),
		zap.Uint64("payment_id", pay.ID),
		zap.String("reason", reason))
	if s.refunds == nil {
		return
	}
	ev := queue.RefundRequestedEvent{
		ReservationID:   pay.ReservationID,
		PaymentID:       pay.ID,
		AmountCents:     pay.AmountCents,
		PgTransactionID: outcome.PgTransactionID,
		Reason:          reason,
		OccurredAt:      time.Now().UTC().Format(time.RFC3339),
	}
	if err := s.refunds.RequestRefund(ctx, ev); err != nil {
		s.log.Error("refund request publish failed",
			zap.Uint64("payment_id", pay.ID),
			zap.Error(err))
	}
}
