package queue

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMergeDeliveriesClosesWhenAllInputsClose(t *testing.T) {
	a := make(chan amqp.Delivery, 2)
	b := make(chan amqp.Delivery, 1)
	a <- amqp.Delivery{Body: []byte("1")}
	a <- amqp.Delivery{Body: []byte("2")}
	b <- amqp.Delivery{Body: []byte("3"), RoutingKey: "explicit"}
	close(a)
	close(b)

	merged := mergeDeliveries(map[string]<-chan amqp.Delivery{
		ReservationConfirmedQueue: a,
		RefundRequestedQueue:      b,
	})

	got := map[string]string{}
	done := make(chan struct{})
	go func() {
		for d := range merged {
			got[string(d.Body)] = d.RoutingKey
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("merged channel did not close after every input closed")
	}
	require.Len(t, got, 3)
	assert.Equal(t, ReservationConfirmedQueue, got["1"], "empty routing key falls back to the queue name")
	assert.Equal(t, ReservationConfirmedQueue, got["2"])
	assert.Equal(t, "explicit", got["3"])
}

func TestHandleMessageAppendsAuditLine(t *testing.T) {
	t.Chdir(t.TempDir())

	ev := ReservationEvent{
		ReservationID:   5,
		OwnerID:         2,
		ScheduleID:      9,
		TotalPriceCents: 24000,
		SeatLabels:      []string{"A 1-01", "A 1-02"},
		OccurredAt:      "2026-08-30T12:00:00Z",
	}
	body, err := json.Marshal(ev)
	require.NoError(t, err)
	require.NoError(t, handleMessage(ReservationConfirmedQueue, body))

	data, err := os.ReadFile(filepath.Join("logs", "reservation.log"))
	require.NoError(t, err)
	assert.Contains(t, string(data), ReservationConfirmedQueue)
	assert.Contains(t, string(data), "reservation_id=5")
	assert.Contains(t, string(data), "total=24000 cents")
}
