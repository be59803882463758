// Package session owns the bounded set of visible conversation slots and
// decides slot assignment, eviction and swap-on-full behaviour.
package session

import (
	"errors"

	"github.com/rs/zerolog"

	"chatdock/internal/config"
	"chatdock/internal/directory"
	"chatdock/internal/events"
	"chatdock/internal/logging"
	"chatdock/internal/models"
	"chatdock/internal/prefs"
)

// Session manager errors.
var (
	// ErrNoSlots reports a viewport too small for any display slot.
	// A configuration error: the open is aborted with no state change.
	ErrNoSlots = errors.New("no display slots available")

	ErrRoomNotFound = errors.New("room not found")
)

// Manager assigns rooms to display slots.
//
// The manager is the single writer of slot-bound room state (slot index,
// geometry, activation, minimized, badge-on-open). All operations run
// synchronously on the widget's event loop and publish
// room.active_status_changed when slot occupancy changes, so dependent
// views recompute together.
type Manager struct {
	bus   *events.Bus
	store *directory.Store
	prefs *prefs.Store
	dims  config.DimensionsConfig
	log   zerolog.Logger

	screenWidth int
	slotCount   int

	// seq orders slot assignments; the eviction candidate is the oldest
	// assignment that is not the focused room.
	seq        uint64
	assignedAt map[int]uint64
	occupants  map[int]string

	focused string
	flashed string
}

// NewManager creates a slot manager for the given screen width.
func NewManager(bus *events.Bus, store *directory.Store, prefStore *prefs.Store, dims config.DimensionsConfig, screenWidth int) *Manager {
	m := &Manager{
		bus:        bus,
		store:      store,
		prefs:      prefStore,
		dims:       dims,
		log:        logging.Component("session"),
		assignedAt: make(map[int]uint64),
		occupants:  make(map[int]string),
	}
	m.screenWidth = screenWidth
	m.slotCount = m.computeSlotCount(screenWidth)
	return m
}

// SlotCount returns the number of display slots for the current viewport.
func (m *Manager) SlotCount() int {
	return m.slotCount
}

// computeSlotCount derives how many chat boxes fit beside the main box and
// the room list box.
func (m *Manager) computeSlotCount(screenWidth int) int {
	usable := screenWidth - m.dims.MainBoxWidth - m.dims.RoomListBoxWidth - m.dims.ChatRoomSpacing
	per := m.dims.ChatRoomWidth + m.dims.ChatRoomSpacing
	if per <= 0 || usable < per {
		return 0
	}
	return usable / per
}

// slotGeometry returns the default display region for a slot index.
func (m *Manager) slotGeometry(index int) models.Geometry {
	return models.Geometry{
		Offset: m.dims.MainBoxWidth + m.dims.ChatRoomSpacing + index*(m.dims.ChatRoomWidth+m.dims.ChatRoomSpacing),
		Width:  m.dims.ChatRoomWidth,
		Height: m.dims.ChatRoomHeight,
	}
}

// Open makes a room visible.
//
// Already-slotted rooms are flashed and left alone. Otherwise a free slot
// is used when one exists. When all slots are full, exactly one occupant is
// evicted into the overflow list: the oldest-assigned slot whose occupant
// is not the focused room. The new room takes over that slot's geometry
// whole. Exactly one room.active_status_changed is published per
// occupancy change.
func (m *Manager) Open(roomID string) error {
	if m.slotCount == 0 {
		m.log.Error().Str("room_id", roomID).Msg("cannot open room: no display slots available")
		return ErrNoSlots
	}

	room, ok := m.store.Room(roomID)
	if !ok {
		return ErrRoomNotFound
	}

	if room.InSlot() {
		// Idempotent: no layout change, just draw attention to it.
		m.Flash(roomID)
		m.focused = roomID
		return nil
	}

	if slot, free := m.freeSlot(); free {
		m.assign(room, slot, m.slotGeometry(slot))
		m.bus.Publish(events.Event{Type: events.EventRoomActiveStatusChanged, RoomID: roomID})
		return nil
	}

	victimSlot := m.evictionCandidate()
	victimID := m.occupants[victimSlot]
	victim, _ := m.store.Room(victimID)

	// Move the whole slot record to the new room; the victim is parked in
	// the overflow list.
	geometry := m.slotGeometry(victimSlot)
	if victim != nil {
		geometry = victim.Geometry
		victim.ClearSlot()
	}
	m.assign(room, victimSlot, geometry)

	m.log.Debug().
		Str("room_id", roomID).
		Str("evicted", victimID).
		Int("slot", victimSlot).
		Msg("slot swap")

	m.bus.Publish(events.Event{Type: events.EventRoomActiveStatusChanged, RoomID: roomID})
	return nil
}

func (m *Manager) assign(room *models.Room, slot int, geometry models.Geometry) {
	room.Slot = slot
	room.Geometry = geometry
	room.Active = true
	room.Minimized = false
	room.Badge = 0

	m.seq++
	m.assignedAt[slot] = m.seq
	m.occupants[slot] = room.ID
	m.focused = room.ID
}

func (m *Manager) freeSlot() (int, bool) {
	for i := 0; i < m.slotCount; i++ {
		if _, occupied := m.occupants[i]; !occupied {
			return i, true
		}
	}
	return 0, false
}

// evictionCandidate returns the occupied slot with the oldest assignment
// whose occupant is not the focused room. With a single slot the focused
// room itself is the only choice.
func (m *Manager) evictionCandidate() int {
	best := -1
	var bestSeq uint64
	for slot, id := range m.occupants {
		if id == m.focused {
			continue
		}
		if best == -1 || m.assignedAt[slot] < bestSeq {
			best = slot
			bestSeq = m.assignedAt[slot]
		}
	}
	if best == -1 {
		for slot := range m.occupants {
			if best == -1 || m.assignedAt[slot] < bestSeq {
				best = slot
				bestSeq = m.assignedAt[slot]
			}
		}
	}
	return best
}

// CloseRoom removes a room from its slot into the overflow list.
func (m *Manager) CloseRoom(roomID string) error {
	room, ok := m.store.Room(roomID)
	if !ok {
		return ErrRoomNotFound
	}
	if !room.InSlot() {
		return nil
	}

	slot := room.Slot
	room.ClearSlot()
	delete(m.occupants, slot)
	delete(m.assignedAt, slot)
	if m.focused == roomID {
		m.focused = ""
	}

	m.bus.Publish(events.Event{Type: events.EventRoomActiveStatusChanged, RoomID: roomID})
	return nil
}

// MinimizeRoom collapses a room box without changing slot occupancy.
func (m *Manager) MinimizeRoom(roomID string) error {
	return m.setMinimized(roomID, true)
}

// MaximizeRoom restores a minimized room box.
func (m *Manager) MaximizeRoom(roomID string) error {
	return m.setMinimized(roomID, false)
}

func (m *Manager) setMinimized(roomID string, minimized bool) error {
	room, ok := m.store.Room(roomID)
	if !ok {
		return ErrRoomNotFound
	}
	room.Minimized = minimized
	m.bus.Publish(events.Event{Type: events.EventRoomUpdated, RoomID: roomID})
	return nil
}

// Flash marks a room for a transient highlight. Purely visual; views read
// and clear it.
func (m *Manager) Flash(roomID string) {
	m.flashed = roomID
}

// TakeFlashed returns and clears the room awaiting a highlight.
func (m *Manager) TakeFlashed() string {
	id := m.flashed
	m.flashed = ""
	return id
}

// FocusedRoom returns the most recently interacted-with slotted room.
func (m *Manager) FocusedRoom() string {
	return m.focused
}

// ActiveRooms returns the slotted rooms in slot order.
func (m *Manager) ActiveRooms() []*models.Room {
	var rooms []*models.Room
	for i := 0; i < m.slotCount; i++ {
		id, occupied := m.occupants[i]
		if !occupied {
			continue
		}
		if room, ok := m.store.Room(id); ok {
			rooms = append(rooms, room)
		}
	}
	return rooms
}

// SetScreenWidth recomputes the slot capacity for a resized viewport.
// Rooms in slots beyond the new capacity are pushed into the overflow
// list; one status publish covers all of them.
func (m *Manager) SetScreenWidth(width int) {
	m.screenWidth = width
	newCount := m.computeSlotCount(width)
	if newCount == m.slotCount {
		return
	}

	evicted := false
	for slot, id := range m.occupants {
		if slot < newCount {
			continue
		}
		if room, ok := m.store.Room(id); ok {
			room.ClearSlot()
		}
		delete(m.occupants, slot)
		delete(m.assignedAt, slot)
		if m.focused == id {
			m.focused = ""
		}
		evicted = true
	}
	m.slotCount = newCount

	if evicted {
		m.bus.Publish(events.Event{Type: events.EventRoomActiveStatusChanged})
	}
}

// SetMoreListMinimized persists whether the overflow list is collapsed.
func (m *Manager) SetMoreListMinimized(minimized bool) {
	if m.prefs != nil {
		m.prefs.SetBool(prefs.KeyMoreMinimized, minimized)
	}
}

// MoreListMinimized reports the persisted overflow-list preference,
// defaulting to minimized.
func (m *Manager) MoreListMinimized() bool {
	if m.prefs == nil {
		return true
	}
	minimized, ok := m.prefs.GetBool(prefs.KeyMoreMinimized)
	if !ok {
		return true
	}
	return minimized
}

// Logout clears all slot state without publishing; the logout event drives
// the dependent recomputations.
func (m *Manager) Logout() {
	m.occupants = make(map[int]string)
	m.assignedAt = make(map[int]uint64)
	m.seq = 0
	m.focused = ""
	m.flashed = ""
}
