package session

import (
	"testing"

	"github.com/stretchr/testify/require"

	"chatdock/internal/config"
	"chatdock/internal/directory"
	"chatdock/internal/events"
	"chatdock/internal/models"
	"chatdock/internal/prefs"
)

// testDims are the default box dimensions; at screen width 1024 they yield
// two slots (usable = 1024 - 250 - 230 - 15 = 529, per slot = 230 + 15).
func testDims() config.DimensionsConfig {
	return config.DefaultConfig().Dimensions
}

type fixture struct {
	bus     *events.Bus
	store   *directory.Store
	manager *Manager
}

func newFixture(t *testing.T, screenWidth int, roomIDs ...string) *fixture {
	t.Helper()
	bus := events.NewBus()
	store := directory.NewStore(bus, nil, 200)
	for _, id := range roomIDs {
		room := models.NewRoom(id, id, models.RoomTypePublic)
		require.NoError(t, store.AddRoom(room))
	}
	return &fixture{
		bus:     bus,
		store:   store,
		manager: NewManager(bus, store, nil, testDims(), screenWidth),
	}
}

func (f *fixture) room(t *testing.T, id string) *models.Room {
	t.Helper()
	room, ok := f.store.Room(id)
	require.True(t, ok)
	return room
}

func (f *fixture) countStatusChanges() *int {
	count := 0
	f.bus.Subscribe(func(events.Event) { count++ }, events.EventRoomActiveStatusChanged)
	return &count
}

func TestSlotCountFromScreenWidth(t *testing.T) {
	f := newFixture(t, 1024)
	require.Equal(t, 2, f.manager.SlotCount())

	wide := newFixture(t, 2000)
	require.Equal(t, 6, wide.manager.SlotCount())

	narrow := newFixture(t, 500)
	require.Equal(t, 0, narrow.manager.SlotCount())
}

func TestOpen_UsesFreeSlotsFirst(t *testing.T) {
	f := newFixture(t, 2000, "r1", "r2", "r3")
	statusChanges := f.countStatusChanges()

	require.NoError(t, f.manager.Open("r1"))
	require.NoError(t, f.manager.Open("r2"))

	r1, r2 := f.room(t, "r1"), f.room(t, "r2")
	require.Equal(t, 0, r1.Slot)
	require.Equal(t, 1, r2.Slot)
	require.True(t, r1.Active)
	require.True(t, r2.Active)
	require.Equal(t, 2, *statusChanges)

	// Geometry is the default for the slot index.
	dims := testDims()
	require.Equal(t, dims.MainBoxWidth+dims.ChatRoomSpacing, r1.Geometry.Offset)
	require.Equal(t, dims.ChatRoomWidth, r1.Geometry.Width)
	require.Equal(t, r1.Geometry.Offset+dims.ChatRoomWidth+dims.ChatRoomSpacing, r2.Geometry.Offset)
}

func TestOpen_IdempotentWhenAlreadySlotted(t *testing.T) {
	f := newFixture(t, 2000, "r1")
	require.NoError(t, f.manager.Open("r1"))

	statusChanges := f.countStatusChanges()
	before := *f.room(t, "r1")

	require.NoError(t, f.manager.Open("r1"))
	require.Equal(t, 0, *statusChanges, "re-open must not publish")
	require.Equal(t, before.Slot, f.room(t, "r1").Slot)
	require.Equal(t, "r1", f.manager.TakeFlashed())
}

func TestOpen_ClearsBadgeAndMinimized(t *testing.T) {
	f := newFixture(t, 2000, "r1")
	room := f.room(t, "r1")
	room.Badge = 4
	room.Minimized = true

	require.NoError(t, f.manager.Open("r1"))
	require.Equal(t, 0, room.Badge)
	require.False(t, room.Minimized)
}

func TestOpen_EvictsOldestNonFocusedSlot(t *testing.T) {
	// Width 1270 gives exactly 3 slots: usable = 1270-250-230-15 = 775.
	f := newFixture(t, 1270, "r1", "r2", "r3", "r4")
	require.Equal(t, 3, f.manager.SlotCount())

	require.NoError(t, f.manager.Open("r1"))
	require.NoError(t, f.manager.Open("r2"))
	require.NoError(t, f.manager.Open("r3"))

	statusChanges := f.countStatusChanges()
	r1Geometry := f.room(t, "r1").Geometry

	require.NoError(t, f.manager.Open("r4"))

	r1, r4 := f.room(t, "r1"), f.room(t, "r4")
	require.False(t, r1.InSlot(), "oldest non-focused room is evicted")
	require.False(t, r1.Active)
	require.Equal(t, 0, r4.Slot, "new room takes the evicted slot")
	require.Equal(t, r1Geometry, r4.Geometry, "geometry moves whole")
	require.True(t, r4.Active)
	require.Equal(t, 1, *statusChanges, "exactly one publish per eviction")

	// r2 and r3 are untouched.
	require.Equal(t, 1, f.room(t, "r2").Slot)
	require.Equal(t, 2, f.room(t, "r3").Slot)
}

func TestOpen_FocusedRoomIsNotEvicted(t *testing.T) {
	f := newFixture(t, 1270, "r1", "r2", "r3", "r4", "r5")

	require.NoError(t, f.manager.Open("r1"))
	require.NoError(t, f.manager.Open("r2"))
	require.NoError(t, f.manager.Open("r3"))

	// Interact with r1 again: it becomes focused and must survive the
	// next eviction even though its slot is the oldest assignment.
	require.NoError(t, f.manager.Open("r1"))
	require.Equal(t, "r1", f.manager.FocusedRoom())

	require.NoError(t, f.manager.Open("r4"))
	require.True(t, f.room(t, "r1").InSlot())
	require.False(t, f.room(t, "r2").InSlot(), "r2 had the oldest non-focused assignment")
}

func TestOpen_SingleSlotEvictsFocused(t *testing.T) {
	// Width 780 gives exactly 1 slot: usable = 780-250-230-15 = 285.
	f := newFixture(t, 780, "r1", "r2")
	require.Equal(t, 1, f.manager.SlotCount())

	require.NoError(t, f.manager.Open("r1"))
	require.NoError(t, f.manager.Open("r2"))

	require.False(t, f.room(t, "r1").InSlot())
	require.Equal(t, 0, f.room(t, "r2").Slot)
}

func TestOpen_NoSlotsIsConfigurationError(t *testing.T) {
	f := newFixture(t, 500, "r1")
	statusChanges := f.countStatusChanges()

	require.ErrorIs(t, f.manager.Open("r1"), ErrNoSlots)
	require.False(t, f.room(t, "r1").InSlot(), "no partial state change")
	require.Equal(t, 0, *statusChanges)
}

func TestOpen_UnknownRoom(t *testing.T) {
	f := newFixture(t, 2000)
	require.ErrorIs(t, f.manager.Open("ghost"), ErrRoomNotFound)
}

func TestSlotInvariants(t *testing.T) {
	f := newFixture(t, 1270, "r1", "r2", "r3", "r4", "r5")
	for _, id := range []string{"r1", "r2", "r3", "r4", "r5", "r2", "r1"} {
		require.NoError(t, f.manager.Open(id))

		// Each slot holds at most one room, each room at most one slot.
		seenSlots := make(map[int]string)
		for _, room := range f.store.Rooms() {
			if !room.InSlot() {
				continue
			}
			prev, taken := seenSlots[room.Slot]
			require.Falsef(t, taken, "slot %d held by %s and %s", room.Slot, prev, room.ID)
			seenSlots[room.Slot] = room.ID
		}
		require.LessOrEqual(t, len(seenSlots), f.manager.SlotCount())
	}
}

func TestCloseRoomFreesSlot(t *testing.T) {
	f := newFixture(t, 2000, "r1", "r2")
	require.NoError(t, f.manager.Open("r1"))
	require.NoError(t, f.manager.Open("r2"))

	require.NoError(t, f.manager.CloseRoom("r1"))
	require.False(t, f.room(t, "r1").InSlot())

	// The freed slot is reused before any eviction.
	require.NoError(t, f.manager.Open("r1"))
	require.Equal(t, 0, f.room(t, "r1").Slot)
	require.True(t, f.room(t, "r2").InSlot())
}

func TestMinimizeMaximizeRoom(t *testing.T) {
	f := newFixture(t, 2000, "r1")
	require.NoError(t, f.manager.Open("r1"))

	require.NoError(t, f.manager.MinimizeRoom("r1"))
	require.True(t, f.room(t, "r1").Minimized)
	require.True(t, f.room(t, "r1").InSlot(), "minimize keeps the slot")

	require.NoError(t, f.manager.MaximizeRoom("r1"))
	require.False(t, f.room(t, "r1").Minimized)
}

func TestSetScreenWidth_ShrinkPushesRoomsToOverflow(t *testing.T) {
	f := newFixture(t, 1270, "r1", "r2", "r3")
	require.NoError(t, f.manager.Open("r1"))
	require.NoError(t, f.manager.Open("r2"))
	require.NoError(t, f.manager.Open("r3"))

	statusChanges := f.countStatusChanges()
	f.manager.SetScreenWidth(1024) // down to 2 slots

	require.Equal(t, 2, f.manager.SlotCount())
	require.True(t, f.room(t, "r1").InSlot())
	require.True(t, f.room(t, "r2").InSlot())
	require.False(t, f.room(t, "r3").InSlot())
	require.Equal(t, 1, *statusChanges)
}

func TestMoreListMinimizedPreference(t *testing.T) {
	bus := events.NewBus()
	store := directory.NewStore(bus, nil, 200)
	prefStore := prefs.New("")
	m := NewManager(bus, store, prefStore, testDims(), 2000)

	require.True(t, m.MoreListMinimized(), "defaults to minimized")

	m.SetMoreListMinimized(false)
	require.False(t, m.MoreListMinimized())

	got, ok := prefStore.GetBool(prefs.KeyMoreMinimized)
	require.True(t, ok)
	require.False(t, got)
}

func TestSortOverflow(t *testing.T) {
	r1 := models.NewRoom("r1", "r1", models.RoomTypePublic)
	r1.OnlineUserCount = 1
	r2 := models.NewRoom("r2", "r2", models.RoomTypePublic)
	r2.Badge = 2
	r3 := models.NewRoom("r3", "r3", models.RoomTypePublic)
	r3.OnlineUserCount = 3

	rooms := []*models.Room{r1, r2, r3}
	SortOverflow(rooms)

	require.Equal(t, "r2", rooms[0].ID, "badge sorts first")
	require.Equal(t, "r3", rooms[1].ID, "online count breaks badge ties")
	require.Equal(t, "r1", rooms[2].ID)
}

func TestSortOverflowIsStable(t *testing.T) {
	a := models.NewRoom("a", "a", models.RoomTypePublic)
	b := models.NewRoom("b", "b", models.RoomTypePublic)
	c := models.NewRoom("c", "c", models.RoomTypePublic)

	rooms := []*models.Room{a, b, c}
	SortOverflow(rooms)
	require.Equal(t, []*models.Room{a, b, c}, rooms)
}

func TestLogoutClearsSlotState(t *testing.T) {
	f := newFixture(t, 2000, "r1")
	require.NoError(t, f.manager.Open("r1"))

	f.manager.Logout()
	f.store.Clear()

	require.Empty(t, f.manager.ActiveRooms())
	require.Equal(t, "", f.manager.FocusedRoom())
}
