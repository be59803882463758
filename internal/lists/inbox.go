package lists

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"chatdock/internal/directory"
	"chatdock/internal/events"
	"chatdock/internal/logging"
	"chatdock/internal/models"
)

// InboxController maintains the inbox tab: the private rooms filtered by
// the tab's search query, most recent activity first. On login completion it
// also pulls persisted private rooms into memory before recomputing.
type InboxController struct {
	mu     sync.RWMutex
	store  *directory.Store
	search *Search
	bus    *events.Bus
	sub    *events.Subscription
	log    zerolog.Logger
	rooms  []*models.Room
}

// NewInboxController builds the controller and subscribes it to every
// notification that can change the inbox.
func NewInboxController(bus *events.Bus, store *directory.Store, search *Search) *InboxController {
	c := &InboxController{
		store:  store,
		search: search,
		bus:    bus,
		log:    logging.Component("lists.inbox"),
	}
	c.sub = bus.Subscribe(c.handle,
		events.EventLoginComplete,
		events.EventLogout,
		events.EventRoomAdded,
		events.EventRoomRemoved,
		events.EventRoomUpdated,
		events.EventRoomBadgeChanged,
		events.EventSearchQueryChanged,
	)
	return c
}

func (c *InboxController) handle(event events.Event) {
	if event.Type == events.EventSearchQueryChanged && event.Tab != string(TabInbox) {
		return
	}
	c.log.Debug().Str("event", string(event.Type)).Msg("recomputing inbox")

	switch event.Type {
	case events.EventLogout:
		c.mu.Lock()
		c.rooms = nil
		c.mu.Unlock()
		return
	case events.EventLoginComplete:
		loaded := c.store.LoadPrivateRoomsToMemory(context.Background())
		if loaded > 0 {
			c.log.Info().Int("rooms", loaded).Msg("loaded persisted private rooms")
		}
	}
	c.Recompute()
}

// Recompute rebuilds the list from the room store.
func (c *InboxController) Recompute() {
	query := c.search.Query(TabInbox)

	var rooms []*models.Room
	for _, room := range c.store.PrivateRooms() {
		if matchesQuery(room.Name, query) {
			rooms = append(rooms, room)
		}
	}
	rooms = directory.MostRecentFirst(rooms)

	c.mu.Lock()
	c.rooms = rooms
	c.mu.Unlock()
}

// Rooms returns the displayed inbox list.
func (c *InboxController) Rooms() []*models.Room {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.rooms
}

// BadgeCount totals the unread badges across private rooms.
func (c *InboxController) BadgeCount() int {
	return c.store.InboxBadgeCount()
}

// Close unsubscribes the controller from the bus.
func (c *InboxController) Close() {
	c.bus.Unsubscribe(c.sub)
}
