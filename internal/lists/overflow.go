package lists

import (
	"sync"

	"github.com/rs/zerolog"

	"chatdock/internal/directory"
	"chatdock/internal/events"
	"chatdock/internal/logging"
	"chatdock/internal/models"
	"chatdock/internal/session"
)

// OverflowController maintains the "more chats" list: every known room not
// occupying a display slot, ordered by unread badge then online count. When
// the list empties it collapses the more-chats box again.
type OverflowController struct {
	mu      sync.RWMutex
	store   *directory.Store
	manager *session.Manager
	bus     *events.Bus
	sub     *events.Subscription
	log     zerolog.Logger
	rooms   []*models.Room
}

// NewOverflowController builds the controller and subscribes it to every
// notification that can change slot occupancy or overflow ordering.
func NewOverflowController(bus *events.Bus, store *directory.Store, manager *session.Manager) *OverflowController {
	c := &OverflowController{
		store:   store,
		manager: manager,
		bus:     bus,
		log:     logging.Component("lists.overflow"),
	}
	c.sub = bus.Subscribe(c.handle,
		events.EventLoginComplete,
		events.EventLogout,
		events.EventRoomAdded,
		events.EventRoomRemoved,
		events.EventRoomUpdated,
		events.EventRoomBadgeChanged,
		events.EventRoomActiveStatusChanged,
		events.EventScreenSizeChanged,
	)
	return c
}

func (c *OverflowController) handle(event events.Event) {
	c.log.Debug().Str("event", string(event.Type)).Msg("recomputing overflow list")

	if event.Type == events.EventLogout {
		c.mu.Lock()
		c.rooms = nil
		c.mu.Unlock()
		return
	}
	c.Recompute()
}

// Recompute rebuilds the list from the room store.
func (c *OverflowController) Recompute() {
	rooms := c.store.InactiveRooms()
	session.SortOverflow(rooms)

	c.mu.Lock()
	c.rooms = rooms
	c.mu.Unlock()

	if len(rooms) == 0 && c.manager != nil && !c.manager.MoreListMinimized() {
		c.manager.SetMoreListMinimized(true)
	}
}

// Rooms returns the displayed overflow list.
func (c *OverflowController) Rooms() []*models.Room {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.rooms
}

// Close unsubscribes the controller from the bus.
func (c *OverflowController) Close() {
	c.bus.Unsubscribe(c.sub)
}
