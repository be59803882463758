// Package events provides the in-process notification bus that glues the
// chatdock controllers and stores together.
package events

import (
	"sync"

	"github.com/rs/zerolog"

	"chatdock/internal/logging"
)

// EventType is the closed set of notifications the runtime publishes.
// Components agree on which payload fields accompany each type; dispatch is
// by typed constant, never by ad-hoc string.
type EventType string

const (
	// Session lifecycle.
	EventLoginComplete EventType = "login.complete"
	EventLogout        EventType = "logout"

	// Directory changes.
	EventRoomAdded   EventType = "room.added"
	EventRoomRemoved EventType = "room.removed"
	EventRoomUpdated EventType = "room.updated"

	// Room display state.
	EventRoomBadgeChanged        EventType = "room.badge_changed"
	EventRoomActiveStatusChanged EventType = "room.active_status_changed"

	// Roster and presence.
	EventUserBlocked       EventType = "user.blocked"
	EventUserUnblocked     EventType = "user.unblocked"
	EventFriendAdded       EventType = "friend.added"
	EventFriendRemoved     EventType = "friend.removed"
	EventOnlineUserAdded   EventType = "online_user.added"
	EventOnlineUserRemoved EventType = "online_user.removed"

	// UI state.
	EventSearchQueryChanged EventType = "search.query_changed"
	EventConfigUpdated      EventType = "config.updated"
	EventScreenSizeChanged  EventType = "screen.size_changed"
)

// Event is the payload delivered to subscribers. Only the fields relevant
// to the event type are set; the rest are zero.
type Event struct {
	// Type identifies the notification.
	Type EventType

	// RoomID is the room the event concerns, if any.
	RoomID string

	// UserID is the user the event concerns, if any.
	UserID string

	// Tab is the tab identifier for search events.
	Tab string
}

// Handler is a callback invoked synchronously for each matching publish.
type Handler func(Event)

// Subscription is the handle returned by Subscribe; pass it to Unsubscribe
// to remove exactly that registration.
type Subscription struct {
	id      uint64
	types   map[EventType]struct{}
	handler Handler
}

func (s *Subscription) matches(t EventType) bool {
	if len(s.types) == 0 {
		return true
	}
	_, ok := s.types[t]
	return ok
}

// Bus delivers events synchronously to subscribers in registration order.
//
// The bus is an explicitly owned instance with the lifetime of the widget;
// there is no ambient global. All delivery for a publish completes before
// Publish returns. The mutex only guards subscriber bookkeeping against
// hosts that drive the widget from more than one goroutine; delivery itself
// runs on the publisher's goroutine.
type Bus struct {
	mu     sync.Mutex
	nextID uint64
	subs   []*Subscription
	log    zerolog.Logger
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{
		log: logging.Component("bus"),
	}
}

// Subscribe registers a handler for the given event types. With no types it
// receives every event. The returned handle identifies this registration.
func (b *Bus) Subscribe(handler Handler, types ...EventType) *Subscription {
	if handler == nil {
		return nil
	}

	sub := &Subscription{handler: handler}
	if len(types) > 0 {
		sub.types = make(map[EventType]struct{}, len(types))
		for _, t := range types {
			sub.types[t] = struct{}{}
		}
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	sub.id = b.nextID
	b.subs = append(b.subs, sub)
	return sub
}

// Unsubscribe removes exactly the given registration. Unknown or nil
// handles are ignored.
func (b *Bus) Unsubscribe(sub *Subscription) {
	if sub == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, s := range b.subs {
		if s.id == sub.id {
			b.subs = append(b.subs[:i], b.subs[i+1:]...)
			return
		}
	}
}

// Publish delivers the event to every matching subscriber, in registration
// order, before returning. Publishing with no subscribers is a no-op. A
// panicking handler is recovered and logged so later handlers still run.
func (b *Bus) Publish(event Event) {
	b.mu.Lock()
	matching := make([]*Subscription, 0, len(b.subs))
	for _, sub := range b.subs {
		if sub.matches(event.Type) {
			matching = append(matching, sub)
		}
	}
	b.mu.Unlock()

	logging.Notification(string(event.Type), "bus")
	for _, sub := range matching {
		b.deliver(sub, event)
	}
}

func (b *Bus) deliver(sub *Subscription, event Event) {
	defer func() {
		if r := recover(); r != nil {
			b.log.Error().
				Str("event", string(event.Type)).
				Interface("panic", r).
				Msg("subscriber panicked; continuing delivery")
		}
	}()
	sub.handler(event)
}

// SubscriberCount returns the number of active subscriptions.
func (b *Bus) SubscriberCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}
