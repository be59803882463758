package directory

import (
	"sync"

	"chatdock/internal/events"
	"chatdock/internal/models"
)

// Users tracks the known users, the current user, and which users the
// current user has blocked.
type Users struct {
	mu      sync.RWMutex
	bus     *events.Bus
	current *models.User
	users   map[string]*models.User
	order   []string
}

// NewUsers creates an empty user store.
func NewUsers(bus *events.Bus) *Users {
	return &Users{
		bus:   bus,
		users: make(map[string]*models.User),
	}
}

// SetCurrentUser records who is logged in.
func (u *Users) SetCurrentUser(user *models.User) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.current = user
}

// CurrentUser returns the logged-in user, or nil before login.
func (u *Users) CurrentUser() *models.User {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return u.current
}

// Add registers or refreshes a user record, keeping the blocked flag of an
// existing record.
func (u *Users) Add(user *models.User) error {
	if err := models.ValidateUser(user); err != nil {
		return err
	}

	u.mu.Lock()
	defer u.mu.Unlock()
	if existing, ok := u.users[user.ID]; ok {
		user.Blocked = existing.Blocked
		u.users[user.ID] = user
		return nil
	}
	u.users[user.ID] = user
	u.order = append(u.order, user.ID)
	return nil
}

// User returns the user with the given ID, or false when unknown.
func (u *Users) User(id string) (*models.User, bool) {
	u.mu.RLock()
	defer u.mu.RUnlock()
	user, ok := u.users[id]
	return user, ok
}

// All returns every known user in insertion order.
func (u *Users) All() []*models.User {
	u.mu.RLock()
	defer u.mu.RUnlock()
	out := make([]*models.User, 0, len(u.order))
	for _, id := range u.order {
		out = append(out, u.users[id])
	}
	return out
}

// IsBlocked reports whether the current user has blocked the given user.
func (u *Users) IsBlocked(id string) bool {
	u.mu.RLock()
	defer u.mu.RUnlock()
	user, ok := u.users[id]
	return ok && user.Blocked
}

// Block marks a user blocked and publishes user.blocked.
func (u *Users) Block(id string) {
	if u.setBlocked(id, true) {
		u.bus.Publish(events.Event{Type: events.EventUserBlocked, UserID: id})
	}
}

// Unblock clears a user's blocked flag and publishes user.unblocked.
func (u *Users) Unblock(id string) {
	if u.setBlocked(id, false) {
		u.bus.Publish(events.Event{Type: events.EventUserUnblocked, UserID: id})
	}
}

func (u *Users) setBlocked(id string, blocked bool) bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	user, ok := u.users[id]
	if !ok || user.Blocked == blocked {
		return false
	}
	user.Blocked = blocked
	return true
}

// Clear drops all user state. Called on logout.
func (u *Users) Clear() {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.current = nil
	u.users = make(map[string]*models.User)
	u.order = nil
}
