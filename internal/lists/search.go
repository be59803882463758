package lists

import (
	"sync"

	"chatdock/internal/events"
)

// Search holds one query per tab plus the active tab. Typing always edits
// the active tab's query; each tab keeps its own text when the user switches
// away and back.
type Search struct {
	mu      sync.RWMutex
	bus     *events.Bus
	sub     *events.Subscription
	active  Tab
	queries map[Tab]string
}

// NewSearch creates an empty search state with the given initial tab.
// Queries are dropped on logout so the next user starts unfiltered.
func NewSearch(bus *events.Bus, initial Tab) *Search {
	s := &Search{
		bus:     bus,
		active:  initial,
		queries: make(map[Tab]string),
	}
	s.sub = bus.Subscribe(func(events.Event) { s.Clear() }, events.EventLogout)
	return s
}

// ActiveTab returns the tab currently shown in the main box.
func (s *Search) ActiveTab() Tab {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active
}

// SetActiveTab switches the main-box tab. The tabs' queries are untouched.
func (s *Search) SetActiveTab(tab Tab) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active = tab
}

// Query returns the stored query for a tab, empty when none was typed.
func (s *Search) Query(tab Tab) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.queries[tab]
}

// SetQueryForActiveTab records the typed query against the active tab and
// publishes search.query_changed so that tab's controller refilters.
func (s *Search) SetQueryForActiveTab(query string) {
	s.mu.Lock()
	tab := s.active
	if s.queries[tab] == query {
		s.mu.Unlock()
		return
	}
	s.queries[tab] = query
	s.mu.Unlock()

	s.bus.Publish(events.Event{Type: events.EventSearchQueryChanged, Tab: string(tab)})
}

// Clear drops every tab's query.
func (s *Search) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queries = make(map[Tab]string)
}

// Close unsubscribes the search state from the bus.
func (s *Search) Close() {
	s.bus.Unsubscribe(s.sub)
}
