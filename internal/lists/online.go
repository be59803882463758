package lists

import (
	"sync"

	"github.com/rs/zerolog"

	"chatdock/internal/events"
	"chatdock/internal/logging"
	"chatdock/internal/models"
	"chatdock/internal/presence"
)

// OnlineUsersController maintains the online-users tab: everyone currently
// online, filtered by the tab's search query, alphabetical.
type OnlineUsersController struct {
	mu     sync.RWMutex
	online *presence.Online
	search *Search
	bus    *events.Bus
	sub    *events.Subscription
	log    zerolog.Logger
	users  []*models.User
}

// NewOnlineUsersController builds the controller and subscribes it to the
// presence notifications.
func NewOnlineUsersController(bus *events.Bus, online *presence.Online, search *Search) *OnlineUsersController {
	c := &OnlineUsersController{
		online: online,
		search: search,
		bus:    bus,
		log:    logging.Component("lists.online"),
	}
	c.sub = bus.Subscribe(c.handle,
		events.EventLoginComplete,
		events.EventLogout,
		events.EventOnlineUserAdded,
		events.EventOnlineUserRemoved,
		events.EventUserBlocked,
		events.EventUserUnblocked,
		events.EventSearchQueryChanged,
	)
	return c
}

func (c *OnlineUsersController) handle(event events.Event) {
	if event.Type == events.EventSearchQueryChanged && event.Tab != string(TabOnlineUsers) {
		return
	}
	c.log.Debug().Str("event", string(event.Type)).Msg("recomputing online users")

	if event.Type == events.EventLogout {
		c.mu.Lock()
		c.users = nil
		c.mu.Unlock()
		return
	}
	c.Recompute()
}

// Recompute rebuilds the list from the online set.
func (c *OnlineUsersController) Recompute() {
	query := c.search.Query(TabOnlineUsers)

	var users []*models.User
	for _, user := range c.online.All() {
		if matchesQuery(user.Name, query) {
			users = append(users, user)
		}
	}
	sortUsersForDisplay(users)

	c.mu.Lock()
	c.users = users
	c.mu.Unlock()
}

// Users returns the displayed online-users list.
func (c *OnlineUsersController) Users() []*models.User {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.users
}

// Close unsubscribes the controller from the bus.
func (c *OnlineUsersController) Close() {
	c.bus.Unsubscribe(c.sub)
}
