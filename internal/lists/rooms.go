package lists

import (
	"sort"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"chatdock/internal/directory"
	"chatdock/internal/events"
	"chatdock/internal/logging"
	"chatdock/internal/models"
)

// RoomsController maintains the public-rooms tab: public rooms filtered by
// the tab's search query, busiest first.
type RoomsController struct {
	mu     sync.RWMutex
	store  *directory.Store
	search *Search
	bus    *events.Bus
	sub    *events.Subscription
	log    zerolog.Logger
	rooms  []*models.Room
}

// NewRoomsController builds the controller and subscribes it to every
// notification that can change the public-rooms list.
func NewRoomsController(bus *events.Bus, store *directory.Store, search *Search) *RoomsController {
	c := &RoomsController{
		store:  store,
		search: search,
		bus:    bus,
		log:    logging.Component("lists.rooms"),
	}
	c.sub = bus.Subscribe(c.handle,
		events.EventLoginComplete,
		events.EventLogout,
		events.EventRoomAdded,
		events.EventRoomRemoved,
		events.EventRoomUpdated,
		events.EventSearchQueryChanged,
	)
	return c
}

func (c *RoomsController) handle(event events.Event) {
	if event.Type == events.EventSearchQueryChanged && event.Tab != string(TabRooms) {
		return
	}
	c.log.Debug().Str("event", string(event.Type)).Msg("recomputing public rooms")

	if event.Type == events.EventLogout {
		c.mu.Lock()
		c.rooms = nil
		c.mu.Unlock()
		return
	}
	c.Recompute()
}

// Recompute rebuilds the list from the room store.
func (c *RoomsController) Recompute() {
	query := c.search.Query(TabRooms)

	var rooms []*models.Room
	for _, room := range c.store.Rooms() {
		if room.Type != models.RoomTypePublic {
			continue
		}
		if matchesQuery(room.Name, query) {
			rooms = append(rooms, room)
		}
	}
	sort.SliceStable(rooms, func(i, j int) bool {
		a, b := rooms[i], rooms[j]
		if a.OnlineUserCount != b.OnlineUserCount {
			return a.OnlineUserCount > b.OnlineUserCount
		}
		return strings.ToLower(a.Name) < strings.ToLower(b.Name)
	})

	c.mu.Lock()
	c.rooms = rooms
	c.mu.Unlock()
}

// Rooms returns the displayed public-rooms list.
func (c *RoomsController) Rooms() []*models.Room {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.rooms
}

// Close unsubscribes the controller from the bus.
func (c *RoomsController) Close() {
	c.bus.Unsubscribe(c.sub)
}
