package widgettui

import (
	"fmt"
	"path/filepath"

	"chatdock/internal/auth"
	"chatdock/internal/config"
	"chatdock/internal/creator"
	"chatdock/internal/db"
	"chatdock/internal/directory"
	"chatdock/internal/events"
	"chatdock/internal/lists"
	"chatdock/internal/prefs"
	"chatdock/internal/presence"
	"chatdock/internal/session"
)

// Runtime wires the widget core: one bus, the stores, the slot manager, the
// per-tab controllers and the creation flow, all sharing the lifetime of the
// program.
type Runtime struct {
	Cfg     *config.Config
	Bus     *events.Bus
	DB      *db.DB
	Store   *directory.Store
	Users   *directory.Users
	Friends *presence.Friends
	Online  *presence.Online
	Prefs   *prefs.Store
	Manager *session.Manager
	Search  *lists.Search
	MainBox *lists.MainBox
	Creator *creator.Creator
	Auth    *auth.Controller

	FriendsList *lists.FriendsController
	InboxList   *lists.InboxController
	OnlineList  *lists.OnlineUsersController
	RoomsList   *lists.RoomsController
	Overflow    *lists.OverflowController
}

// NewRuntime opens the database and assembles the widget core for the given
// screen width. authenticator may not be nil; dispatch marshals room
// creation completions onto the program's event loop.
func NewRuntime(cfg *config.Config, authenticator auth.Authenticator, screenWidth int, dispatch func(func())) (*Runtime, error) {
	database, err := db.Open(cfg.Database.Path, cfg.Database.BusyTimeoutMs)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	repo := db.NewRoomRepository(database)

	bus := events.NewBus()
	store := directory.NewStore(bus, repo, cfg.Widget.MessageHistoryLimit)
	users := directory.NewUsers(bus)
	friends := presence.NewFriends(bus, users)
	online := presence.NewOnline(bus, users)
	prefStore := prefs.New(filepath.Join(cfg.Global.DataDir, "prefs.json"))
	// Preferences are best-effort; a fresh file is created on save.
	_ = prefStore.Load()
	manager := session.NewManager(bus, store, prefStore, cfg.Dimensions, screenWidth)

	mainBox := lists.NewMainBox(bus, store, cfg.Widget)
	search := lists.NewSearch(bus, mainBox.InitialTab())

	r := &Runtime{
		Cfg:     cfg,
		Bus:     bus,
		DB:      database,
		Store:   store,
		Users:   users,
		Friends: friends,
		Online:  online,
		Prefs:   prefStore,
		Manager: manager,
		Search:  search,
		MainBox: mainBox,
		Creator: creator.NewCreator(bus, store, users, manager, repo, dispatch),
		Auth:    auth.NewController(bus, authenticator, users, store, friends, online, manager, prefStore, cfg.Widget),

		FriendsList: lists.NewFriendsController(bus, friends, search),
		InboxList:   lists.NewInboxController(bus, store, search),
		OnlineList:  lists.NewOnlineUsersController(bus, online, search),
		RoomsList:   lists.NewRoomsController(bus, store, search),
	}
	r.Overflow = lists.NewOverflowController(bus, store, manager)
	return r, nil
}

// Close releases the runtime's resources.
func (r *Runtime) Close() error {
	r.FriendsList.Close()
	r.InboxList.Close()
	r.OnlineList.Close()
	r.RoomsList.Close()
	r.Overflow.Close()
	r.Search.Close()
	r.MainBox.Close()
	if r.Prefs != nil {
		_ = r.Prefs.Close()
	}
	if r.DB != nil {
		return r.DB.Close()
	}
	return nil
}
