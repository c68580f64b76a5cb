package event

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBusDeliversToSubscribers(t *testing.T) {
	bus := NewBus()
	events, unsubscribe := bus.Subscribe()
	defer unsubscribe()

	Emit(bus, TypeRecordArchived, map[string]string{"id": "rb-1"}, "u-1")

	select {
	case e := <-events:
		assert.Equal(t, TypeRecordArchived, e.Type)
		assert.Equal(t, "u-1", e.ActorID)
		assert.NotEmpty(t, e.ID)
		assert.NotEmpty(t, e.Timestamp)
	case <-time.After(time.Second):
		t.Fatal("event not delivered")
	}
}

func TestBusUnsubscribeClosesChannel(t *testing.T) {
	bus := NewBus()
	events, unsubscribe := bus.Subscribe()
	unsubscribe()

	_, open := <-events
	require.False(t, open)

	// Publishing with no subscribers must not block.
	Emit(bus, TypeLeadChanged, nil, "")
	Emit(nil, TypeLeadChanged, nil, "")
}
