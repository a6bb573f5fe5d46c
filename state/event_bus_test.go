package state

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"testing"
)

func TestEventBus(t *testing.T) {
	t.Run("subscribing to the bus results in published events being received", func(t *testing.T) {
		listenCh := make(chan any, 1)
		expectedEvent := struct{}{}

		eb := NewEventBus()
		eb.Subscribe(listenCh)
		eb.Publish(expectedEvent)

		select {
		case actualEvent := <-listenCh:
			assert.Equal(t, expectedEvent, actualEvent)
		default:
			assert.Fail(t, "no event received")
		}
	})

	t.Run("unsubscribed channels no longer receive events", func(t *testing.T) {
		listenCh := make(chan any, 1)

		eb := NewEventBus()
		eb.Subscribe(listenCh)
		assert.Equal(t, 1, eb.Subscribers())

		eb.Unsubscribe(listenCh)
		assert.Equal(t, 0, eb.Subscribers())

		eb.Publish(struct{}{})
		assert.Len(t, listenCh, 0)
	})

	t.Run("events for a full subscriber are dropped and counted", func(t *testing.T) {
		listenCh := make(chan any)
		dropped := prometheus.NewCounter(prometheus.CounterOpts{Name: "dropped"})

		eb := NewEventBus()
		eb.WithDroppedCounter(dropped)
		eb.Subscribe(listenCh)
		eb.Publish(struct{}{})

		assert.Equal(t, 1.0, testutil.ToFloat64(dropped))
	})
}
