// Package lists contains the per-tab list controllers. Each controller owns
// one displayed list, subscribes to the notifications that can change it,
// and recomputes the whole list from the stores on every event. Recomputes
// are idempotent; controllers never patch their lists incrementally.
package lists

import (
	"sort"
	"strings"

	"chatdock/internal/models"
)

// Tab identifies a main-box tab.
type Tab string

const (
	TabInbox       Tab = "inbox"
	TabFriends     Tab = "friends"
	TabRooms       Tab = "rooms"
	TabOnlineUsers Tab = "online_users"
)

// Controller is a recomputable list. Concrete controllers additionally
// expose their list as Rooms() or Users().
type Controller interface {
	// Recompute rebuilds the displayed list from the backing stores.
	Recompute()

	// Close unsubscribes the controller from the notification bus.
	Close()
}

var (
	_ Controller = (*FriendsController)(nil)
	_ Controller = (*InboxController)(nil)
	_ Controller = (*OnlineUsersController)(nil)
	_ Controller = (*RoomsController)(nil)
	_ Controller = (*OverflowController)(nil)
)

// matchesQuery reports whether name contains query, case-insensitively.
// Every name matches the empty query.
func matchesQuery(name, query string) bool {
	if query == "" {
		return true
	}
	return strings.Contains(strings.ToLower(name), strings.ToLower(query))
}

// sortUsersForDisplay orders a user list in place for the friends and
// online-users tabs: offline users first, then alphabetically within each
// group.
func sortUsersForDisplay(users []*models.User) {
	sort.SliceStable(users, func(i, j int) bool {
		a, b := users[i], users[j]
		if a.Online != b.Online {
			return !a.Online
		}
		return strings.ToLower(a.Name) < strings.ToLower(b.Name)
	})
}
