// Package directory holds the in-memory room and user records the widget
// reads from, plus the mutation entry points that keep them consistent and
// publish change notifications.
package directory

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"chatdock/internal/events"
	"chatdock/internal/logging"
	"chatdock/internal/models"
)

// Store errors.
var (
	ErrRoomExists   = errors.New("room already exists")
	ErrRoomNotFound = errors.New("room not found")
)

// Backend is the persistence boundary for private rooms (implemented by
// db.RoomRepository). Backend failures never fail the directory's callers;
// they are logged and treated as empty results.
type Backend interface {
	ListPrivate(ctx context.Context) ([]*models.Room, error)
	ListWithParticipants(ctx context.Context, userIDs ...string) ([]*models.Room, error)
}

// Store is the authoritative in-memory mapping from room ID to room.
//
// The store is single-writer: only the session manager, the creation flow
// and the message pipeline mutate it, always on the widget's event loop.
// The RWMutex exists for hosts that render from another goroutine.
type Store struct {
	mu           sync.RWMutex
	bus          *events.Bus
	backend      Backend
	historyLimit int
	rooms        map[string]*models.Room
	order        []string
	log          zerolog.Logger
}

// NewStore creates an empty room store. backend may be nil when the host
// provides no persistence.
func NewStore(bus *events.Bus, backend Backend, historyLimit int) *Store {
	return &Store{
		bus:          bus,
		backend:      backend,
		historyLimit: historyLimit,
		rooms:        make(map[string]*models.Room),
		log:          logging.Component("directory"),
	}
}

// Room returns the room with the given ID, or false when unknown.
func (s *Store) Room(id string) (*models.Room, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	room, ok := s.rooms[id]
	return room, ok
}

// Rooms returns all known rooms in insertion order.
func (s *Store) Rooms() []*models.Room {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Room, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.rooms[id])
	}
	return out
}

// AddRoom registers a new room and publishes room.added.
func (s *Store) AddRoom(room *models.Room) error {
	if err := models.ValidateRoom(room); err != nil {
		return err
	}

	s.mu.Lock()
	if _, exists := s.rooms[room.ID]; exists {
		s.mu.Unlock()
		return ErrRoomExists
	}
	s.rooms[room.ID] = room
	s.order = append(s.order, room.ID)
	s.mu.Unlock()

	s.bus.Publish(events.Event{Type: events.EventRoomAdded, RoomID: room.ID})
	return nil
}

// RemoveRoom forgets a room and publishes room.removed.
func (s *Store) RemoveRoom(id string) error {
	s.mu.Lock()
	if _, exists := s.rooms[id]; !exists {
		s.mu.Unlock()
		return ErrRoomNotFound
	}
	delete(s.rooms, id)
	for i, rid := range s.order {
		if rid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	s.mu.Unlock()

	s.bus.Publish(events.Event{Type: events.EventRoomRemoved, RoomID: id})
	return nil
}

// MarkUpdated bumps a room's last-activity timestamp and publishes
// room.updated.
func (s *Store) MarkUpdated(id string, at time.Time) error {
	s.mu.Lock()
	room, exists := s.rooms[id]
	if !exists {
		s.mu.Unlock()
		return ErrRoomNotFound
	}
	if at.IsZero() {
		at = time.Now().UTC()
	}
	room.LastActivity = at
	s.mu.Unlock()

	s.bus.Publish(events.Event{Type: events.EventRoomUpdated, RoomID: id})
	return nil
}

// SetBadge stores a room's unread count and publishes room.badge_changed.
func (s *Store) SetBadge(id string, badge int) error {
	if badge < 0 {
		badge = 0
	}

	s.mu.Lock()
	room, exists := s.rooms[id]
	if !exists {
		s.mu.Unlock()
		return ErrRoomNotFound
	}
	room.Badge = badge
	s.mu.Unlock()

	s.bus.Publish(events.Event{Type: events.EventRoomBadgeChanged, RoomID: id})
	return nil
}

// SetOnlineCount stores a room's online-participant count and publishes
// room.updated so list controllers reorder.
func (s *Store) SetOnlineCount(id string, count int) error {
	if count < 0 {
		count = 0
	}

	s.mu.Lock()
	room, exists := s.rooms[id]
	if !exists {
		s.mu.Unlock()
		return ErrRoomNotFound
	}
	room.OnlineUserCount = count
	s.mu.Unlock()

	s.bus.Publish(events.Event{Type: events.EventRoomUpdated, RoomID: id})
	return nil
}

// AppendMessage records a message: history is trimmed to the configured
// bound, last activity follows the message time, and rooms that are not the
// active slot occupant gain a badge. Publishes room.updated, plus
// room.badge_changed when the badge moved.
func (s *Store) AppendMessage(id string, msg models.Message) error {
	s.mu.Lock()
	room, exists := s.rooms[id]
	if !exists {
		s.mu.Unlock()
		return ErrRoomNotFound
	}

	if msg.Time.IsZero() {
		msg.Time = time.Now().UTC()
	}
	room.Messages = append(room.Messages, msg)
	room.TrimMessages(s.historyLimit)
	room.LastActivity = msg.Time

	badgeChanged := false
	if !room.Active {
		room.Badge++
		badgeChanged = true
	}
	s.mu.Unlock()

	s.bus.Publish(events.Event{Type: events.EventRoomUpdated, RoomID: id})
	if badgeChanged {
		s.bus.Publish(events.Event{Type: events.EventRoomBadgeChanged, RoomID: id})
	}
	return nil
}

// RoomsWithParticipants returns the in-memory one-to-one and group rooms
// whose participant set equals exactly the given IDs. Used for dedup before
// creating a new private room.
func (s *Store) RoomsWithParticipants(userIDs ...string) []*models.Room {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []*models.Room
	for _, id := range s.order {
		room := s.rooms[id]
		if room.Type != models.RoomTypeOneToOne && room.Type != models.RoomTypeGroup {
			continue
		}
		if room.HasParticipants(userIDs) {
			matched = append(matched, room)
		}
	}
	return matched
}

// PrivateRooms returns the in-memory one-to-one and group rooms in
// insertion order.
func (s *Store) PrivateRooms() []*models.Room {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var rooms []*models.Room
	for _, id := range s.order {
		room := s.rooms[id]
		if room.Type == models.RoomTypeOneToOne || room.Type == models.RoomTypeGroup {
			rooms = append(rooms, room)
		}
	}
	return rooms
}

// InactiveRooms returns all known rooms not currently occupying a slot.
func (s *Store) InactiveRooms() []*models.Room {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var rooms []*models.Room
	for _, id := range s.order {
		if room := s.rooms[id]; !room.InSlot() {
			rooms = append(rooms, room)
		}
	}
	return rooms
}

// MostRecentFirst returns a copy of rooms stably sorted by last activity,
// newest first.
func MostRecentFirst(rooms []*models.Room) []*models.Room {
	out := make([]*models.Room, len(rooms))
	copy(out, rooms)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].LastActivity.After(out[j].LastActivity)
	})
	return out
}

// InboxBadgeCount totals the unread badges across private rooms.
func (s *Store) InboxBadgeCount() int {
	total := 0
	for _, room := range s.PrivateRooms() {
		total += room.Badge
	}
	return total
}

// LoadPrivateRoomsToMemory merges persisted private rooms into the store.
// Rooms already in memory keep their in-memory state. Backend errors are
// logged and leave the store unchanged.
func (s *Store) LoadPrivateRoomsToMemory(ctx context.Context) int {
	if s.backend == nil {
		return 0
	}

	rooms, err := s.backend.ListPrivate(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to load private rooms")
		return 0
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	loaded := 0
	for _, room := range rooms {
		if _, exists := s.rooms[room.ID]; exists {
			continue
		}
		room.Slot = models.NoSlot
		s.rooms[room.ID] = room
		s.order = append(s.order, room.ID)
		loaded++
	}
	return loaded
}

// PersistedRoomsWithUsers queries the backend for private rooms between
// exactly the given users. Backend errors are logged and yield nil.
func (s *Store) PersistedRoomsWithUsers(ctx context.Context, userIDs ...string) []*models.Room {
	if s.backend == nil {
		return nil
	}

	rooms, err := s.backend.ListWithParticipants(ctx, userIDs...)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to query persisted rooms")
		return nil
	}
	return rooms
}

// Clear drops all in-memory room state. Called on logout; the logout event
// itself drives the dependent recomputations.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rooms = make(map[string]*models.Room)
	s.order = nil
}
