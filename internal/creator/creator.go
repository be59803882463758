// Package creator implements the room creation and open flow: deduplication
// against open and persisted rooms, asynchronous creation through the
// persistence backend, and the open queue that fires each pending open
// exactly once.
package creator

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"chatdock/internal/directory"
	"chatdock/internal/events"
	"chatdock/internal/logging"
	"chatdock/internal/models"
	"chatdock/internal/session"
)

// ErrNotLoggedIn reports a one-to-one open attempted before login.
var ErrNotLoggedIn = errors.New("no current user")

// Backend persists newly created rooms (implemented by db.RoomRepository).
type Backend interface {
	Create(ctx context.Context, room *models.Room) error
}

// RoomOptions describes a room to create. A missing ID gets a generated
// one.
type RoomOptions struct {
	ID             string
	Name           string
	Description    string
	Type           models.RoomType
	Participants   []string
	InvitesEnabled bool
	Private        bool
}

// Creator drives the create-and-open flow.
//
// Creation runs asynchronously; the completion callback is handed to the
// dispatch function so the host can marshal it back onto the widget's event
// loop, where all store and slot mutations happen. A nil dispatch runs
// completions inline, which also makes the flow synchronous under test.
type Creator struct {
	bus      *events.Bus
	store    *directory.Store
	users    *directory.Users
	manager  *session.Manager
	backend  Backend
	queue    *OpenQueue
	dispatch func(func())
	sub      *events.Subscription
	log      zerolog.Logger
}

// NewCreator wires the creation flow. backend may be nil when the host
// provides no persistence; created rooms then live in memory only.
func NewCreator(bus *events.Bus, store *directory.Store, users *directory.Users, manager *session.Manager, backend Backend, dispatch func(func())) *Creator {
	if dispatch == nil {
		dispatch = func(fn func()) { fn() }
	}
	c := &Creator{
		bus:      bus,
		store:    store,
		users:    users,
		manager:  manager,
		backend:  backend,
		queue:    NewOpenQueue(),
		dispatch: dispatch,
		log:      logging.Component("creator"),
	}
	c.sub = bus.Subscribe(func(events.Event) { c.queue.Clear() }, events.EventLogout)
	return c
}

// OpenOneToOne opens a conversation with the target user, creating the room
// only when no existing one can serve.
//
// A blocked target is unblocked and nothing else happens; the user asked to
// restore contact, not to start talking. An existing in-memory room is
// opened (or flashed when already visible). A persisted room is pulled into
// memory and opened. Only when all of that misses is a new room created,
// and opened once the creation resolves, unless ctx was cancelled in the
// meantime.
func (c *Creator) OpenOneToOne(ctx context.Context, targetID string) error {
	if c.users.IsBlocked(targetID) {
		c.users.Unblock(targetID)
		return nil
	}

	current := c.users.CurrentUser()
	if current == nil {
		return ErrNotLoggedIn
	}
	participants := []string{current.ID, targetID}

	if rooms := c.store.RoomsWithParticipants(participants...); len(rooms) > 0 {
		return c.manager.Open(rooms[0].ID)
	}

	if rooms := c.store.PersistedRoomsWithUsers(ctx, participants...); len(rooms) > 0 {
		room := rooms[0]
		if err := c.store.AddRoom(room); err != nil && !errors.Is(err, directory.ErrRoomExists) {
			return err
		}
		return c.manager.Open(room.ID)
	}

	name := targetID
	if target, ok := c.users.User(targetID); ok {
		name = target.Name
	}
	room := models.NewRoom(uuid.NewString(), name, models.RoomTypeOneToOne)
	room.Participants = participants
	room.Private = true

	c.createAndOpen(ctx, room)
	return nil
}

// CreateRoom creates a room from the given options and opens it when the
// creation resolves. No deduplication; callers wanting reuse go through
// OpenOneToOne.
func (c *Creator) CreateRoom(ctx context.Context, opts RoomOptions) (string, error) {
	id := opts.ID
	if id == "" {
		id = uuid.NewString()
	}
	room := models.NewRoom(id, opts.Name, opts.Type)
	room.Description = opts.Description
	room.Participants = opts.Participants
	room.InvitesEnabled = opts.InvitesEnabled
	room.Private = opts.Private
	if err := models.ValidateRoom(room); err != nil {
		return "", err
	}

	c.createAndOpen(ctx, room)
	return room.ID, nil
}

// CreatePublicRoom creates and opens a public room.
func (c *Creator) CreatePublicRoom(ctx context.Context, name, description string) (string, error) {
	return c.CreateRoom(ctx, RoomOptions{
		Name:        name,
		Description: description,
		Type:        models.RoomTypePublic,
	})
}

// createAndOpen queues the room for opening and runs the backend creation
// off the event loop. The completion is dispatched back; a cancelled ctx or
// a failed creation drops the queued open.
func (c *Creator) createAndOpen(ctx context.Context, room *models.Room) {
	c.queue.Add(room.ID)

	if c.backend == nil {
		c.finishCreate(ctx, room, nil)
		return
	}
	go func() {
		err := c.backend.Create(ctx, room)
		c.dispatch(func() { c.finishCreate(ctx, room, err) })
	}()
}

func (c *Creator) finishCreate(ctx context.Context, room *models.Room, err error) {
	if err != nil {
		c.queue.Consume(room.ID)
		c.log.Error().Err(err).Str("room_id", room.ID).Msg("room creation failed")
		return
	}
	if ctx.Err() != nil {
		// The caller is gone; a late-resolving creation must not mutate
		// widget state.
		c.queue.Consume(room.ID)
		c.log.Debug().Str("room_id", room.ID).Msg("room creation resolved after cancellation")
		return
	}

	if err := c.store.AddRoom(room); err != nil && !errors.Is(err, directory.ErrRoomExists) {
		c.queue.Consume(room.ID)
		c.log.Error().Err(err).Str("room_id", room.ID).Msg("created room rejected by store")
		return
	}
	if c.queue.Consume(room.ID) {
		if err := c.manager.Open(room.ID); err != nil {
			c.log.Error().Err(err).Str("room_id", room.ID).Msg("failed to open created room")
		}
	}
}
