package lists

import (
	"sync"

	"chatdock/internal/config"
	"chatdock/internal/directory"
	"chatdock/internal/events"
)

// MainBox models the main-box header: which tabs are enabled, which is
// selected first, and the inbox unread total shown on the inbox tab.
type MainBox struct {
	mu    sync.RWMutex
	cfg   config.WidgetConfig
	store *directory.Store
	bus   *events.Bus
	sub   *events.Subscription
	badge int
}

// NewMainBox builds the model and keeps the inbox badge current.
func NewMainBox(bus *events.Bus, store *directory.Store, cfg config.WidgetConfig) *MainBox {
	m := &MainBox{
		cfg:   cfg,
		store: store,
		bus:   bus,
	}
	m.sub = bus.Subscribe(m.handle,
		events.EventLoginComplete,
		events.EventLogout,
		events.EventRoomBadgeChanged,
	)
	return m
}

func (m *MainBox) handle(event events.Event) {
	badge := 0
	if event.Type != events.EventLogout {
		badge = m.store.InboxBadgeCount()
	}
	m.mu.Lock()
	m.badge = badge
	m.mu.Unlock()
}

// Tabs returns the enabled tabs in display order. The inbox tab is always
// present.
func (m *MainBox) Tabs() []Tab {
	var tabs []Tab
	if m.cfg.FriendsEnabled {
		tabs = append(tabs, TabFriends)
	}
	if m.cfg.OnlineUsersEnabled {
		tabs = append(tabs, TabOnlineUsers)
	}
	if m.cfg.PublicRoomsEnabled {
		tabs = append(tabs, TabRooms)
	}
	return append(tabs, TabInbox)
}

// InitialTab returns the tab selected when the widget opens: online users
// when enabled, else public rooms, else the inbox.
func (m *MainBox) InitialTab() Tab {
	switch {
	case m.cfg.OnlineUsersEnabled:
		return TabOnlineUsers
	case m.cfg.PublicRoomsEnabled:
		return TabRooms
	default:
		return TabInbox
	}
}

// InboxBadge returns the unread total shown on the inbox tab.
func (m *MainBox) InboxBadge() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.badge
}

// Close unsubscribes the model from the bus.
func (m *MainBox) Close() {
	m.bus.Unsubscribe(m.sub)
}
