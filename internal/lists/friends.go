package lists

import (
	"sync"

	"github.com/rs/zerolog"

	"chatdock/internal/events"
	"chatdock/internal/logging"
	"chatdock/internal/models"
	"chatdock/internal/presence"
)

// FriendsController maintains the friends tab: the roster filtered by the
// tab's search query, offline users first, alphabetical within each group.
type FriendsController struct {
	mu      sync.RWMutex
	friends *presence.Friends
	search  *Search
	bus     *events.Bus
	sub     *events.Subscription
	log     zerolog.Logger
	users   []*models.User
}

// NewFriendsController builds the controller and subscribes it to every
// notification that can change the friends list.
func NewFriendsController(bus *events.Bus, friends *presence.Friends, search *Search) *FriendsController {
	c := &FriendsController{
		friends: friends,
		search:  search,
		bus:     bus,
		log:     logging.Component("lists.friends"),
	}
	c.sub = bus.Subscribe(c.handle,
		events.EventLoginComplete,
		events.EventLogout,
		events.EventFriendAdded,
		events.EventFriendRemoved,
		events.EventOnlineUserAdded,
		events.EventOnlineUserRemoved,
		events.EventUserBlocked,
		events.EventUserUnblocked,
		events.EventSearchQueryChanged,
	)
	return c
}

func (c *FriendsController) handle(event events.Event) {
	if event.Type == events.EventSearchQueryChanged && event.Tab != string(TabFriends) {
		return
	}
	c.log.Debug().Str("event", string(event.Type)).Msg("recomputing friends list")

	if event.Type == events.EventLogout {
		c.mu.Lock()
		c.users = nil
		c.mu.Unlock()
		return
	}
	c.Recompute()
}

// Recompute rebuilds the list from the roster.
func (c *FriendsController) Recompute() {
	query := c.search.Query(TabFriends)

	var users []*models.User
	for _, user := range c.friends.All() {
		if matchesQuery(user.Name, query) {
			users = append(users, user)
		}
	}
	sortUsersForDisplay(users)

	c.mu.Lock()
	c.users = users
	c.mu.Unlock()
}

// Users returns the displayed friends list.
func (c *FriendsController) Users() []*models.User {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.users
}

// Close unsubscribes the controller from the bus.
func (c *FriendsController) Close() {
	c.bus.Unsubscribe(c.sub)
}
