// Package presence tracks the friends roster and who is online. Both
// connectors are fed by the host's presence source and publish roster
// events for the list controllers.
package presence

import (
	"sync"

	"chatdock/internal/config"
	"chatdock/internal/directory"
	"chatdock/internal/events"
	"chatdock/internal/logging"
	"chatdock/internal/models"
)

// Friends is the roster of the current user's friends.
type Friends struct {
	mu      sync.RWMutex
	bus     *events.Bus
	users   *directory.Users
	friends map[string]struct{}
	order   []string
}

// NewFriends creates an empty roster.
func NewFriends(bus *events.Bus, users *directory.Users) *Friends {
	return &Friends{
		bus:     bus,
		users:   users,
		friends: make(map[string]struct{}),
	}
}

// Add registers a friend and publishes friend.added.
func (f *Friends) Add(user *models.User) error {
	if err := f.users.Add(user); err != nil {
		return err
	}

	f.mu.Lock()
	if _, exists := f.friends[user.ID]; exists {
		f.mu.Unlock()
		return nil
	}
	f.friends[user.ID] = struct{}{}
	f.order = append(f.order, user.ID)
	f.mu.Unlock()

	f.bus.Publish(events.Event{Type: events.EventFriendAdded, UserID: user.ID})
	return nil
}

// Remove drops a friend and publishes friend.removed.
func (f *Friends) Remove(id string) {
	f.mu.Lock()
	if _, exists := f.friends[id]; !exists {
		f.mu.Unlock()
		return
	}
	delete(f.friends, id)
	for i, fid := range f.order {
		if fid == id {
			f.order = append(f.order[:i], f.order[i+1:]...)
			break
		}
	}
	f.mu.Unlock()

	f.bus.Publish(events.Event{Type: events.EventFriendRemoved, UserID: id})
}

// AddFromConfig seeds the roster from the widget configuration; done once
// after login completes.
func (f *Friends) AddFromConfig(friends []config.FriendConfig) {
	log := logging.Component("friends")
	for _, fc := range friends {
		if err := f.Add(&models.User{ID: fc.ID, Name: fc.Name}); err != nil {
			log.Warn().Err(err).Str("user_id", fc.ID).Msg("skipping configured friend")
		}
	}
}

// All returns the roster in insertion order.
func (f *Friends) All() []*models.User {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make([]*models.User, 0, len(f.order))
	for _, id := range f.order {
		if user, ok := f.users.User(id); ok {
			out = append(out, user)
		}
	}
	return out
}

// Clear empties the roster. Called on logout.
func (f *Friends) Clear() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.friends = make(map[string]struct{})
	f.order = nil
}

// Online tracks which users are currently online.
type Online struct {
	mu    sync.RWMutex
	bus   *events.Bus
	users *directory.Users
	ids   map[string]struct{}
	order []string
}

// NewOnline creates an empty online set.
func NewOnline(bus *events.Bus, users *directory.Users) *Online {
	return &Online{
		bus:   bus,
		users: users,
		ids:   make(map[string]struct{}),
	}
}

// SetOnline records a presence change, updating the user record and
// publishing online_user.added or online_user.removed.
func (o *Online) SetOnline(user *models.User, online bool) error {
	if err := o.users.Add(user); err != nil {
		return err
	}
	if stored, ok := o.users.User(user.ID); ok {
		stored.Online = online
	}

	o.mu.Lock()
	_, present := o.ids[user.ID]
	if online == present {
		o.mu.Unlock()
		return nil
	}
	if online {
		o.ids[user.ID] = struct{}{}
		o.order = append(o.order, user.ID)
	} else {
		delete(o.ids, user.ID)
		for i, id := range o.order {
			if id == user.ID {
				o.order = append(o.order[:i], o.order[i+1:]...)
				break
			}
		}
	}
	o.mu.Unlock()

	eventType := events.EventOnlineUserAdded
	if !online {
		eventType = events.EventOnlineUserRemoved
	}
	o.bus.Publish(events.Event{Type: eventType, UserID: user.ID})
	return nil
}

// IsOnline reports whether a user is online.
func (o *Online) IsOnline(id string) bool {
	o.mu.RLock()
	defer o.mu.RUnlock()
	_, ok := o.ids[id]
	return ok
}

// All returns the online users in the order they came online.
func (o *Online) All() []*models.User {
	o.mu.RLock()
	defer o.mu.RUnlock()
	out := make([]*models.User, 0, len(o.order))
	for _, id := range o.order {
		if user, ok := o.users.User(id); ok {
			out = append(out, user)
		}
	}
	return out
}

// Clear empties the online set. Called on logout.
func (o *Online) Clear() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.ids = make(map[string]struct{})
	o.order = nil
}
