package service

import (
	"context"
	"math"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/minsu-hwang/event-ticket-reservation/internal/model"
	"github.com/minsu-hwang/event-ticket-reservation/internal/queue"
	"github.com/minsu-hwang/event-ticket-reservation/internal/repository"
	"github.com/minsu-hwang/event-ticket-reservation/pkg/logger"
)

// SystemActor marks operations performed by the system itself (sweeper,
// payment resolver) rather than a user.  It bypasses the ownership check.
const SystemActor uint64 = 0

// EventPublisher publishes reservation lifecycle events after commit.
// Publish failures must never roll back a committed transaction, so the
// service logs and swallows them.
type EventPublisher interface {
	PublishReservationConfirmed(ctx context.Context, ev queue.ReservationEvent) error
	PublishReservationCancelled(ctx context.Context, ev queue.ReservationEvent) error
	PublishReservationExpired(ctx context.Context, ev queue.ReservationEvent) error
}

// ReservationService owns every reservation state transition.  All writes
// follow one locking protocol: begin a transaction, take exclusive row
// locks on the reservation and its tickets in ascending ticket id order,
// re-check state under the lock, then mutate.  Because every writer locks
// ticket rows in the same global order, two multi-seat requests can never
// hold a lock each and wait on the other.
type ReservationService struct {
	tickets      *repository.TicketRepo
	reservations *repository.ReservationRepo
	schedules    *repository.ScheduleRepo
	publisher    EventPublisher
	holdDuration time.Duration
	log          *zap.Logger
}

// NewReservationService constructs a ReservationService.  publisher may be
// nil, in which case lifecycle events are not emitted.
func NewReservationService(
	tickets *repository.TicketRepo,
	reservations *repository.ReservationRepo,
	schedules *repository.ScheduleRepo,
	publisher EventPublisher,
	holdDuration time.Duration,
) *ReservationService {
	if tickets == nil || reservations == nil || schedules == nil {
		panic("nil repository passed to NewReservationService")
	}
	return &ReservationService{
		tickets:      tickets,
		reservations: reservations,
		schedules:    schedules,
		publisher:    publisher,
		holdDuration: holdDuration,
		log:          logger.WithComponent("reservation-service"),
	}
}

// Create holds the requested seats for ownerID on a schedule and opens a
// PENDING_PAYMENT reservation around them.  The request is all-or-nothing:
// if any requested seat is not strictly AVAILABLE the whole transaction
// rolls back and a SeatNotAvailableError names the offending seats.  Seats
// whose hold has expired but which the sweeper has not yet reclaimed count
// as unavailable; reclamation is the sweeper's job, not the buyer's.
func (s *ReservationService) Create(ctx context.Context, ownerID, scheduleID uint64, venueSeatIDs []uint64) (*model.Reservation, error) {
	seatIDs := dedupeSorted(venueSeatIDs)
	if len(seatIDs) == 0 {
		return nil, ErrNoSeats
	}

	sched, err := s.schedules.GetByID(ctx, scheduleID)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	if !sched.IsSaleableAt(now) {
		return nil, ErrScheduleNotSaleable
	}

	tx, err := s.tickets.DB().BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	// Sorted seat ids give LockBySeatsTx a deterministic IN list; the query
	// itself orders the FOR UPDATE scan by ticket id, which is the global
	// lock order shared by every writer.
	tickets, err := s.tickets.LockBySeatsTx(ctx, tx, scheduleID, seatIDs)
	if err != nil {
		return nil, err
	}
	if len(tickets) != len(seatIDs) {
		return nil, &SeatNotAvailableError{VenueSeatIDs: missingSeats(seatIDs, tickets)}
	}
	var unavailable []uint64
	for _, t := range tickets {
		if !t.IsAvailable() {
			unavailable = append(unavailable, t.VenueSeatID)
		}
	}
	if len(unavailable) > 0 {
		return nil, &SeatNotAvailableError{VenueSeatIDs: unavailable}
	}
	total, err := totalPriceCents(tickets)
	if err != nil {
		return nil, err
	}

	res := &model.Reservation{
		OwnerID:         ownerID,
		ScheduleID:      scheduleID,
		Status:          model.ReservationPendingPayment,
		TotalPriceCents: total,
		ExpiresAt:       now.Add(s.holdDuration),
	}
	if err := s.reservations.CreateTx(ctx, tx, res); err != nil {
		return nil, err
	}
	for _, t := range tickets {
		if err := s.tickets.HoldTx(ctx, tx, t.ID, res.ID, t.Version, now, res.ExpiresAt); err != nil {
			return nil, err
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true
	s.log.Info("reservation created",
		zap.Uint64("reservation_id", res.ID),
		zap.Uint64("owner_id", ownerID),
		zap.Uint64("schedule_id", scheduleID),
		zap.Int("seats", len(tickets)),
		zap.Time("expires_at", res.ExpiresAt))
	return res, nil
}

// Confirm finalises a paid reservation: PENDING_PAYMENT -> CONFIRMED with
// every held ticket moved to SOLD in the same transaction.  A reservation
// whose hold deadline has passed cannot be confirmed even if the sweeper
// has not reclaimed it yet; expiry is a property of time, not of whether
// the cleanup ran.  actorID is the requesting user, or SystemActor when the
// payment resolver drives the call.
func (s *ReservationService) Confirm(ctx context.Context, reservationID, actorID uint64) error {
	tx, err := s.tickets.DB().BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	res, err := s.reservations.GetForUpdateTx(ctx, tx, reservationID)
	if err != nil {
		return err
	}
	if actorID != SystemActor && res.OwnerID != actorID {
		return ErrNotOwner
	}
	now := time.Now().UTC()
	switch {
	case res.Status == model.ReservationExpired:
		return ErrReservationExpired
	case res.Status != model.ReservationPendingPayment:
		return ErrInvalidState
	case res.IsExpiredAt(now):
		// Still PENDING_PAYMENT in the database, but the deadline has
		// passed. Leave the rows for the sweeper and refuse the confirm.
		return ErrReservationExpired
	}

	tickets, err := s.tickets.LockByReservationTx(ctx, tx, reservationID)
	if err != nil {
		return err
	}
	for _, t := range tickets {
		if !t.HeldBy(reservationID) {
			return repository.ErrStaleRow
		}
		if err := s.tickets.MarkSoldTx(ctx, tx, t.ID, reservationID, t.Version); err != nil {
			return err
		}
	}
	if err := s.reservations.UpdateStatusTx(ctx, tx, reservationID, model.ReservationPendingPayment, model.ReservationConfirmed); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	s.log.Info("reservation confirmed",
		zap.Uint64("reservation_id", reservationID),
		zap.Int("seats", len(tickets)))
	s.emit(ctx, res, func(p EventPublisher, ev queue.ReservationEvent) error {
		return p.PublishReservationConfirmed(ctx, ev)
	})
	return nil
}

// Cancel cancels a reservation on behalf of actorID (SystemActor for the
// payment-failure path).  A pending reservation releases its seats back to
// AVAILABLE; a confirmed one withdraws its seats to CANCELLED, which keeps
// them out of resale for this schedule.  EXPIRED and CANCELLED reservations
// are not cancellable.
func (s *ReservationService) Cancel(ctx context.Context, reservationID, actorID uint64) error {
	tx, err := s.tickets.DB().BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	res, err := s.reservations.GetForUpdateTx(ctx, tx, reservationID)
	if err != nil {
		return err
	}
	if actorID != SystemActor && res.OwnerID != actorID {
		return ErrNotOwner
	}
	if !res.Status.IsCancellable() {
		return ErrNotCancellable
	}

	tickets, err := s.tickets.LockByReservationTx(ctx, tx, reservationID)
	if err != nil {
		return err
	}
	switch res.Status {
	case model.ReservationPendingPayment:
		for _, t := range tickets {
			if err := s.tickets.ReleaseTx(ctx, tx, t.ID, t.Version); err != nil {
				return err
			}
		}
	case model.ReservationConfirmed:
		for _, t := range tickets {
			if err := s.tickets.CancelSoldTx(ctx, tx, t.ID, reservationID, t.Version); err != nil {
				return err
			}
		}
	}
	if err := s.reservations.UpdateStatusTx(ctx, tx, reservationID, res.Status, model.ReservationCancelled); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	s.log.Info("reservation cancelled",
		zap.Uint64("reservation_id", reservationID),
		zap.Uint64("actor_id", actorID),
		zap.String("was", string(res.Status)))
	s.emit(ctx, res, func(p EventPublisher, ev queue.ReservationEvent) error {
		return p.PublishReservationCancelled(ctx, ev)
	})
	return nil
}

// Expire reclaims one lapsed reservation: PENDING_PAYMENT -> EXPIRED with
// every still-held ticket released back to AVAILABLE.  It re-checks both
// status and deadline under the row lock, so a reservation that was
// confirmed or cancelled between selection and locking is left untouched
// and the call reports false without error.  Safe to invoke any number of
// times for the same id.
func (s *ReservationService) Expire(ctx context.Context, reservationID uint64) (bool, error) {
	tx, err := s.tickets.DB().BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	res, err := s.reservations.GetForUpdateTx(ctx, tx, reservationID)
	if err != nil {
		if err == repository.ErrReservationNotFound {
			return false, nil
		}
		return false, err
	}
	now := time.Now().UTC()
	if !res.IsExpiredAt(now) {
		// Resolved or still inside its hold window; nothing to reclaim.
		return false, nil
	}

	tickets, err := s.tickets.LockByReservationTx(ctx, tx, reservationID)
	if err != nil {
		return false, err
	}
	for _, t := range tickets {
		if err := s.tickets.ReleaseTx(ctx, tx, t.ID, t.Version); err != nil {
			return false, err
		}
	}
	if err := s.reservations.UpdateStatusTx(ctx, tx, reservationID, model.ReservationPendingPayment, model.ReservationExpired); err != nil {
		return false, err
	}
	if err := tx.Commit(); err != nil {
		return false, err
	}
	committed = true
	s.log.Info("reservation expired",
		zap.Uint64("reservation_id", reservationID),
		zap.Int("seats_released", len(tickets)))
	s.emit(ctx, res, func(p EventPublisher, ev queue.ReservationEvent) error {
		return p.PublishReservationExpired(ctx, ev)
	})
	return true, nil
}

// Get returns the reservation detail for its owner.  actorID SystemActor
// skips the ownership check.
func (s *ReservationService) Get(ctx context.Context, reservationID, actorID uint64) (*repository.ReservationDetail, error) {
	det, err := s.reservations.GetDetail(ctx, reservationID)
	if err != nil {
		return nil, err
	}
	if actorID != SystemActor && det.OwnerID != actorID {
		return nil, ErrNotOwner
	}
	return det, nil
}

// ListByOwner returns all reservations belonging to ownerID, newest first.
func (s *ReservationService) ListByOwner(ctx context.Context, ownerID uint64) ([]repository.ReservationDetail, error) {
	return s.reservations.ListByOwner(ctx, ownerID)
}

// emit publishes one lifecycle event after commit.  Failures are logged and
// dropped; the state change already landed and must not be undone by a
// broker hiccup.
func (s *ReservationService) emit(ctx context.Context, res *model.Reservation, publish func(EventPublisher, queue.ReservationEvent) error) {
	if s.publisher == nil {
		return
	}
	ev := queue.ReservationEvent{
		ReservationID:   res.ID,
		OwnerID:         res.OwnerID,
		ScheduleID:      res.ScheduleID,
		TotalPriceCents: res.TotalPriceCents,
		OccurredAt:      time.Now().UTC().Format(time.RFC3339),
	}
	if det, err := s.reservations.GetDetail(ctx, res.ID); err == nil {
		ev.EventTitle = det.EventTitle
		for _, seat := range det.Seats {
			vs := model.VenueSeat{Section: seat.Section, SeatRow: seat.SeatRow, SeatNumber: seat.SeatNumber}
			ev.SeatLabels = append(ev.SeatLabels, vs.Label())
		}
	}
	if err := publish(s.publisher, ev); err != nil {
		s.log.Warn("event publish failed", zap.Uint64("reservation_id", res.ID), zap.Error(err))
	}
}

// dedupeSorted drops zero and duplicate ids and returns the rest in
// ascending order.
// totalPriceCents sums ticket prices in a 64-bit accumulator and guards
// the uint32 range of the stored total, so a large multi-seat request
// cannot wrap around to a small amount.
func totalPriceCents(tickets []*model.Ticket) (uint32, error) {
	var total uint64
	for _, t := range tickets {
		total += uint64(t.PriceCents)
	}
	if total > math.MaxUint32 {
		return 0, ErrTotalOverflow
	}
	return uint32(total), nil
}

func dedupeSorted(ids []uint64) []uint64 {
	seen := make(map[uint64]struct{}, len(ids))
	out := make([]uint64, 0, len(ids))
	for _, id := range ids {
		if id == 0 {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// missingSeats returns the requested venue seat ids that have no ticket row
// on this schedule.
func missingSeats(requested []uint64, tickets []*model.Ticket) []uint64 {
	present := make(map[uint64]struct{}, len(tickets))
	for _, t := range tickets {
		present[t.VenueSeatID] = struct{}{}
	}
	var missing []uint64
	for _, id := range requested {
		if _, ok := present[id]; !ok {
			missing = append(missing, id)
		}
	}
	return missing
}
