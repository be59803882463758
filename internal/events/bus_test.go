package events

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBus_DeliversInRegistrationOrder(t *testing.T) {
	bus := NewBus()

	var order []string
	bus.Subscribe(func(Event) { order = append(order, "first") }, EventRoomUpdated)
	bus.Subscribe(func(Event) { order = append(order, "second") }, EventRoomUpdated)
	bus.Subscribe(func(Event) { order = append(order, "third") })

	bus.Publish(Event{Type: EventRoomUpdated, RoomID: "r1"})

	require.Equal(t, []string{"first", "second", "third"}, order)
}

func TestBus_DeliveryCompletesBeforePublishReturns(t *testing.T) {
	bus := NewBus()

	delivered := 0
	bus.Subscribe(func(Event) { delivered++ }, EventLogout)

	bus.Publish(Event{Type: EventLogout})
	require.Equal(t, 1, delivered)
}

func TestBus_TypeFilter(t *testing.T) {
	bus := NewBus()

	var got []EventType
	bus.Subscribe(func(e Event) { got = append(got, e.Type) }, EventRoomAdded, EventRoomRemoved)

	bus.Publish(Event{Type: EventRoomAdded})
	bus.Publish(Event{Type: EventRoomUpdated})
	bus.Publish(Event{Type: EventRoomRemoved})

	require.Equal(t, []EventType{EventRoomAdded, EventRoomRemoved}, got)
}

func TestBus_PublishWithoutSubscribersIsNoOp(t *testing.T) {
	bus := NewBus()
	require.NotPanics(t, func() {
		bus.Publish(Event{Type: EventConfigUpdated})
	})
}

func TestBus_UnsubscribeRemovesExactlyThatRegistration(t *testing.T) {
	bus := NewBus()

	var calls []string
	handler := func(name string) Handler {
		return func(Event) { calls = append(calls, name) }
	}

	first := bus.Subscribe(handler("first"), EventRoomUpdated)
	bus.Subscribe(handler("second"), EventRoomUpdated)
	require.Equal(t, 2, bus.SubscriberCount())

	bus.Unsubscribe(first)
	require.Equal(t, 1, bus.SubscriberCount())

	bus.Publish(Event{Type: EventRoomUpdated})
	require.Equal(t, []string{"second"}, calls)

	// Unknown and nil handles are ignored.
	bus.Unsubscribe(first)
	bus.Unsubscribe(nil)
	require.Equal(t, 1, bus.SubscriberCount())
}

func TestBus_PanickingHandlerDoesNotBlockDelivery(t *testing.T) {
	bus := NewBus()

	var reached bool
	bus.Subscribe(func(Event) { panic("boom") }, EventRoomUpdated)
	bus.Subscribe(func(Event) { reached = true }, EventRoomUpdated)

	require.NotPanics(t, func() {
		bus.Publish(Event{Type: EventRoomUpdated})
	})
	require.True(t, reached)
}

func TestBus_NilHandlerRejected(t *testing.T) {
	bus := NewBus()
	require.Nil(t, bus.Subscribe(nil))
	require.Equal(t, 0, bus.SubscriberCount())
}
