package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeExpiryStore struct {
	ids       []uint64
	err       error
	gotLimit  int
	gotNow    time.Time
	callCount int
}

func (f *fakeExpiryStore) FindExpiredPending(_ context.Context, now time.Time, limit int) ([]uint64, error) {
	f.callCount++
	f.gotLimit = limit
	f.gotNow = now
	return f.ids, f.err
}

type fakeExpirer struct {
	expired map[uint64]bool
	errs    map[uint64]error
	calls   []uint64
}

func (f *fakeExpirer) Expire(_ context.Context, reservationID uint64) (bool, error) {
	f.calls = append(f.calls, reservationID)
	if err := f.errs[reservationID]; err != nil {
		return false, err
	}
	return f.expired[reservationID], nil
}

func TestSweepOnceExpiresEveryLapsedReservation(t *testing.T) {
	store := &fakeExpiryStore{ids: []uint64{1, 2, 3}}
	expirer := &fakeExpirer{expired: map[uint64]bool{1: true, 2: true, 3: true}}
	sweeper := NewSweeper(store, expirer, time.Minute, 50)

	now := time.Now().UTC()
	n, err := sweeper.SweepOnce(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, []uint64{1, 2, 3}, expirer.calls)
	assert.Equal(t, 50, store.gotLimit)
	assert.Equal(t, now, store.gotNow)
}

func TestSweepOnceSkipsConcurrentlyResolvedReservations(t *testing.T) {
	// Reservation 2 got confirmed between selection and its turn; Expire
	// reports it untouched and the count reflects only real reclamations.
	store := &fakeExpiryStore{ids: []uint64{1, 2, 3}}
	expirer := &fakeExpirer{expired: map[uint64]bool{1: true, 2: false, 3: true}}
	sweeper := NewSweeper(store, expirer, time.Minute, 50)

	n, err := sweeper.SweepOnce(context.Background(), time.Now().UTC())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, []uint64{1, 2, 3}, expirer.calls, "every candidate is still visited")
}

func TestSweepOnceContinuesPastFailures(t *testing.T) {
	store := &fakeExpiryStore{ids: []uint64{1, 2, 3}}
	expirer := &fakeExpirer{
		expired: map[uint64]bool{1: true, 3: true},
		errs:    map[uint64]error{2: errors.New("deadlock victim")},
	}
	sweeper := NewSweeper(store, expirer, time.Minute, 50)

	n, err := sweeper.SweepOnce(context.Background(), time.Now().UTC())
	require.NoError(t, err, "a single failed expiry does not fail the pass")
	assert.Equal(t, 2, n)
	assert.Equal(t, []uint64{1, 2, 3}, expirer.calls)
}

func TestSweepOncePropagatesSelectionError(t *testing.T) {
	boom := errors.New("db down")
	store := &fakeExpiryStore{err: boom}
	sweeper := NewSweeper(store, &fakeExpirer{}, time.Minute, 50)

	_, err := sweeper.SweepOnce(context.Background(), time.Now().UTC())
	require.ErrorIs(t, err, boom)
}

func TestSweepOnceStopsOnCancelledContext(t *testing.T) {
	store := &fakeExpiryStore{ids: []uint64{1, 2, 3}}
	expirer := &fakeExpirer{expired: map[uint64]bool{1: true}}
	sweeper := NewSweeper(store, expirer, time.Minute, 50)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := sweeper.SweepOnce(ctx, time.Now().UTC())
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, expirer.calls)
}

func TestNewSweeperAppliesDefaults(t *testing.T) {
	sweeper := NewSweeper(&fakeExpiryStore{}, &fakeExpirer{}, 0, 0)
	assert.Equal(t, time.Minute, sweeper.interval)
	assert.Equal(t, 200, sweeper.batchSize)
}

func TestRunStopsWhenContextCancelled(t *testing.T) {
	store := &fakeExpiryStore{}
	sweeper := NewSweeper(store, &fakeExpirer{}, 5*time.Millisecond, 10)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		sweeper.Run(ctx)
		close(done)
	}()

	// Let at least one tick happen, then stop.
	time.Sleep(25 * time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop after context cancellation")
	}
	assert.GreaterOrEqual(t, store.callCount, 1)
}
