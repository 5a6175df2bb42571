package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minsu-hwang/event-ticket-reservation/internal/model"
	"github.com/minsu-hwang/event-ticket-reservation/internal/queue"
	"github.com/minsu-hwang/event-ticket-reservation/internal/repository"
)

type fakeResolver struct {
	confirmErr   error
	cancelErr    error
	status       model.ReservationStatus
	getErr       error
	confirmCalls []uint64
	cancelCalls  []uint64
	cancelActors []uint64
	getCalls     []uint64
}

func (f *fakeResolver) Confirm(_ context.Context, reservationID, _ uint64) error {
	f.confirmCalls = append(f.confirmCalls, reservationID)
	return f.confirmErr
}

func (f *fakeResolver) Cancel(_ context.Context, reservationID, actorID uint64) error {
	f.cancelCalls = append(f.cancelCalls, reservationID)
	f.cancelActors = append(f.cancelActors, actorID)
	return f.cancelErr
}

func (f *fakeResolver) Get(_ context.Context, reservationID, _ uint64) (*repository.ReservationDetail, error) {
	f.getCalls = append(f.getCalls, reservationID)
	if f.getErr != nil {
		return nil, f.getErr
	}
	return &repository.ReservationDetail{ID: reservationID, Status: f.status}, nil
}

type statusChange struct {
	paymentID uint64
	from, to  model.PaymentStatus
	pgRef     string
}

type fakePaymentStore struct {
	byReservation map[uint64]*model.Payment
	createErr     error
	nextID        uint64
	changes       []statusChange
}

func newFakePaymentStore() *fakePaymentStore {
	return &fakePaymentStore{byReservation: make(map[uint64]*model.Payment), nextID: 1}
}

func (f *fakePaymentStore) Create(_ context.Context, p *model.Payment) error {
	if f.createErr != nil {
		return f.createErr
	}
	if _, ok := f.byReservation[p.ReservationID]; ok {
		return repository.ErrConflict
	}
	p.ID = f.nextID
	f.nextID++
	cp := *p
	f.byReservation[p.ReservationID] = &cp
	return nil
}

func (f *fakePaymentStore) GetByReservation(_ context.Context, reservationID uint64) (*model.Payment, error) {
	p, ok := f.byReservation[reservationID]
	if !ok {
		return nil, repository.ErrPaymentNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakePaymentStore) UpdateStatus(_ context.Context, paymentID uint64, from, to model.PaymentStatus, pgRef string) error {
	f.changes = append(f.changes, statusChange{paymentID: paymentID, from: from, to: to, pgRef: pgRef})
	for _, p := range f.byReservation {
		if p.ID == paymentID {
			if p.Status != from {
				return repository.ErrStaleRow
			}
			p.Status = to
			if pgRef != "" {
				ref := pgRef
				p.PgTransactionID = &ref
			}
			return nil
		}
	}
	return repository.ErrPaymentNotFound
}

type fakeRefundNotifier struct {
	events []queue.RefundRequestedEvent
	err    error
}

func (f *fakeRefundNotifier) RequestRefund(_ context.Context, ev queue.RefundRequestedEvent) error {
	f.events = append(f.events, ev)
	return f.err
}

func TestOnPaymentOutcomeSuccessConfirmsAndCompletes(t *testing.T) {
	resolver := &fakeResolver{}
	store := newFakePaymentStore()
	refunds := &fakeRefundNotifier{}
	svc := NewPaymentService(resolver, store, refunds)

	err := svc.OnPaymentOutcome(context.Background(), 42, PaymentOutcome{
		Success:         true,
		Method:          "CARD",
		AmountCents:     15000,
		PgTransactionID: "pg-abc-1",
	})
	require.NoError(t, err)

	assert.Equal(t, []uint64{42}, resolver.confirmCalls)
	assert.Empty(t, resolver.cancelCalls)

	pay := store.byReservation[42]
	require.NotNil(t, pay)
	assert.Equal(t, model.PaymentCompleted, pay.Status)
	require.NotNil(t, pay.PgTransactionID)
	assert.Equal(t, "pg-abc-1", *pay.PgTransactionID)
	assert.Empty(t, refunds.events, "successful confirmation must not trigger a refund")
}

func TestOnPaymentOutcomeLateSuccessRequestsRefund(t *testing.T) {
	resolver := &fakeResolver{confirmErr: ErrReservationExpired}
	store := newFakePaymentStore()
	refunds := &fakeRefundNotifier{}
	svc := NewPaymentService(resolver, store, refunds)

	err := svc.OnPaymentOutcome(context.Background(), 7, PaymentOutcome{
		Success:         true,
		Method:          "CARD",
		AmountCents:     9900,
		PgTransactionID: "pg-late-7",
	})
	require.NoError(t, err, "late success is handled, not propagated")

	pay := store.byReservation[7]
	require.NotNil(t, pay)
	assert.Equal(t, model.PaymentFailed, pay.Status,
		"money captured but seats gone: payment records FAILED")

	require.Len(t, refunds.events, 1)
	ev := refunds.events[0]
	assert.Equal(t, uint64(7), ev.ReservationID)
	assert.Equal(t, pay.ID, ev.PaymentID)
	assert.Equal(t, uint32(9900), ev.AmountCents)
	assert.Equal(t, "pg-late-7", ev.PgTransactionID)
	assert.NotEmpty(t, ev.Reason)

	// The reservation itself stays EXPIRED: no cancel, no retry.
	assert.Empty(t, resolver.cancelCalls)
	assert.Equal(t, []uint64{7}, resolver.confirmCalls)
}

func TestOnPaymentOutcomeSuccessOnCancelledReservationRefunds(t *testing.T) {
	resolver := &fakeResolver{confirmErr: ErrInvalidState, status: model.ReservationCancelled}
	store := newFakePaymentStore()
	refunds := &fakeRefundNotifier{}
	svc := NewPaymentService(resolver, store, refunds)

	err := svc.OnPaymentOutcome(context.Background(), 11, PaymentOutcome{
		Success:         true,
		AmountCents:     5000,
		PgTransactionID: "pg-11",
	})
	require.NoError(t, err)
	assert.Equal(t, []uint64{11}, resolver.getCalls, "rejected confirm checks the reservation state")
	assert.Equal(t, model.PaymentFailed, store.byReservation[11].Status)
	require.Len(t, refunds.events, 1)
}

func TestOnPaymentOutcomeRedeliveryAfterConfirmCompletesPayment(t *testing.T) {
	// An earlier delivery confirmed the reservation but died before the
	// completion write, so the redelivery finds the payment still PENDING
	// and the confirm rejected.  The seats are delivered: the payment must
	// complete, not refund.
	resolver := &fakeResolver{confirmErr: ErrInvalidState, status: model.ReservationConfirmed}
	store := newFakePaymentStore()
	store.byReservation[42] = &model.Payment{
		ID:            5,
		ReservationID: 42,
		AmountCents:   15000,
		Status:        model.PaymentPending,
	}
	refunds := &fakeRefundNotifier{}
	svc := NewPaymentService(resolver, store, refunds)

	err := svc.OnPaymentOutcome(context.Background(), 42, PaymentOutcome{
		Success:         true,
		PgTransactionID: "pg-redeliver",
	})
	require.NoError(t, err)

	pay := store.byReservation[42]
	assert.Equal(t, model.PaymentCompleted, pay.Status)
	require.NotNil(t, pay.PgTransactionID)
	assert.Equal(t, "pg-redeliver", *pay.PgTransactionID)
	assert.Empty(t, refunds.events, "confirmed seats must not be refunded")
}

func TestOnPaymentOutcomeFailureCancelsHold(t *testing.T) {
	resolver := &fakeResolver{}
	store := newFakePaymentStore()
	svc := NewPaymentService(resolver, store, &fakeRefundNotifier{})

	err := svc.OnPaymentOutcome(context.Background(), 42, PaymentOutcome{
		Success:         false,
		Method:          "CARD",
		AmountCents:     15000,
		PgTransactionID: "pg-fail-1",
	})
	require.NoError(t, err)

	pay := store.byReservation[42]
	require.NotNil(t, pay)
	assert.Equal(t, model.PaymentFailed, pay.Status)

	require.Equal(t, []uint64{42}, resolver.cancelCalls)
	assert.Equal(t, []uint64{SystemActor}, resolver.cancelActors,
		"payment-driven cancellation acts as the system, not the user")
	assert.Empty(t, resolver.confirmCalls)
}

func TestOnPaymentOutcomeFailureToleratesResolvedReservation(t *testing.T) {
	// The sweeper got there first: cancel reports not cancellable, which
	// the failure path treats as already-done.
	resolver := &fakeResolver{cancelErr: ErrNotCancellable}
	store := newFakePaymentStore()
	svc := NewPaymentService(resolver, store, nil)

	err := svc.OnPaymentOutcome(context.Background(), 3, PaymentOutcome{Success: false})
	require.NoError(t, err)
	assert.Equal(t, model.PaymentFailed, store.byReservation[3].Status)
}

func TestOnPaymentOutcomeDuplicateDeliveryIsIgnored(t *testing.T) {
	resolver := &fakeResolver{}
	store := newFakePaymentStore()
	store.byReservation[42] = &model.Payment{
		ID:            9,
		ReservationID: 42,
		Status:        model.PaymentCompleted,
	}
	svc := NewPaymentService(resolver, store, &fakeRefundNotifier{})

	err := svc.OnPaymentOutcome(context.Background(), 42, PaymentOutcome{
		Success:         true,
		PgTransactionID: "pg-dup",
	})
	require.NoError(t, err)
	assert.Empty(t, resolver.confirmCalls, "resolved payment must not touch the reservation again")
	assert.Empty(t, store.changes)
}

func TestCancelReservationRefundsCompletedPayment(t *testing.T) {
	resolver := &fakeResolver{}
	store := newFakePaymentStore()
	ref := "pg-done"
	store.byReservation[8] = &model.Payment{
		ID:              3,
		ReservationID:   8,
		AmountCents:     30000,
		Status:          model.PaymentCompleted,
		PgTransactionID: &ref,
	}
	refunds := &fakeRefundNotifier{}
	svc := NewPaymentService(resolver, store, refunds)

	require.NoError(t, svc.CancelReservation(context.Background(), 8, 77))

	assert.Equal(t, []uint64{8}, resolver.cancelCalls)
	assert.Equal(t, []uint64{77}, resolver.cancelActors, "cancellation acts as the requesting user")
	assert.Equal(t, model.PaymentCancelled, store.byReservation[8].Status)

	require.Len(t, refunds.events, 1)
	ev := refunds.events[0]
	assert.Equal(t, uint64(8), ev.ReservationID)
	assert.Equal(t, uint32(30000), ev.AmountCents)
	assert.Equal(t, "pg-done", ev.PgTransactionID)
	assert.NotEmpty(t, ev.Reason)
}

func TestCancelReservationWithoutCompletedPaymentNeedsNoRefund(t *testing.T) {
	// A pending hold cancelled before any payment resolved: seats free up,
	// money was never captured.
	resolver := &fakeResolver{}
	store := newFakePaymentStore()
	refunds := &fakeRefundNotifier{}
	svc := NewPaymentService(resolver, store, refunds)

	require.NoError(t, svc.CancelReservation(context.Background(), 8, 77))
	assert.Equal(t, []uint64{8}, resolver.cancelCalls)
	assert.Empty(t, refunds.events)
	assert.Empty(t, store.changes)
}

func TestCancelReservationSettlesPaymentAfterPartialFailure(t *testing.T) {
	// An earlier attempt withdrew the seats but died before touching the
	// payment.  The retry reports not-cancellable yet still moves the
	// payment to CANCELLED and requests the refund.
	resolver := &fakeResolver{cancelErr: ErrNotCancellable}
	store := newFakePaymentStore()
	store.byReservation[8] = &model.Payment{
		ID:            3,
		ReservationID: 8,
		AmountCents:   30000,
		Status:        model.PaymentCompleted,
	}
	refunds := &fakeRefundNotifier{}
	svc := NewPaymentService(resolver, store, refunds)

	err := svc.CancelReservation(context.Background(), 8, 77)
	require.ErrorIs(t, err, ErrNotCancellable)
	assert.Equal(t, model.PaymentCancelled, store.byReservation[8].Status)
	require.Len(t, refunds.events, 1)
}

func TestCancelReservationPropagatesOwnershipError(t *testing.T) {
	resolver := &fakeResolver{cancelErr: ErrNotOwner}
	store := newFakePaymentStore()
	svc := NewPaymentService(resolver, store, &fakeRefundNotifier{})

	err := svc.CancelReservation(context.Background(), 8, 77)
	require.ErrorIs(t, err, ErrNotOwner)
	assert.Empty(t, store.changes, "rejected cancel must not touch the payment")
}

func TestOnPaymentOutcomePropagatesUnexpectedConfirmError(t *testing.T) {
	boom := errors.New("db down")
	resolver := &fakeResolver{confirmErr: boom}
	store := newFakePaymentStore()
	svc := NewPaymentService(resolver, store, &fakeRefundNotifier{})

	err := svc.OnPaymentOutcome(context.Background(), 42, PaymentOutcome{Success: true})
	require.ErrorIs(t, err, boom)
	assert.Equal(t, model.PaymentPending, store.byReservation[42].Status,
		"payment stays pending so the webhook can be retried")
}
