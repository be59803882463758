package widgettui

import (
	"context"
	"path/filepath"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/require"

	"chatdock/internal/auth"
	"chatdock/internal/config"
	"chatdock/internal/lists"
	"chatdock/internal/models"
)

func newTestRuntime(t *testing.T) *Runtime {
	t.Helper()
	cfg := config.DefaultConfig()
	dir := t.TempDir()
	cfg.Global.DataDir = dir
	cfg.Database.Path = filepath.Join(dir, "chatdock.db")

	runtime, err := NewRuntime(cfg, localAuthenticator{}, 2000, nil)
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, runtime.Close())
	})
	return runtime
}

func loggedInModel(t *testing.T) (*Model, *Runtime) {
	t.Helper()
	runtime := newTestRuntime(t)
	model := NewModel(runtime, auth.Credentials{Email: "me@example.com"})
	msg := model.Init()()
	require.NoError(t, msg.(loginDoneMsg).err)
	model.Update(msg)
	return model, runtime
}

func key(s string) tea.KeyMsg {
	if len(s) == 1 {
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
	}
	switch s {
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	default:
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
	}
}

func TestLocalAuthenticator(t *testing.T) {
	a := localAuthenticator{}

	id, name, err := a.Login(context.Background(), auth.Credentials{Email: "anna@example.com"})
	require.NoError(t, err)
	require.Equal(t, "anna@example.com", id)
	require.Equal(t, "anna", name)

	_, _, err = a.Login(context.Background(), auth.Credentials{Email: "not-an-email"})
	require.Equal(t, "Please enter a valid email.", auth.UserMessage(err))
}

func TestModelStartsOnInitialTab(t *testing.T) {
	model, runtime := loggedInModel(t)
	require.Equal(t, runtime.MainBox.InitialTab(), model.activeTab)
	require.NotNil(t, runtime.Users.CurrentUser())
}

func TestTabSwitchFollowsSearchState(t *testing.T) {
	model, runtime := loggedInModel(t)

	model.Update(key("tab"))
	require.Equal(t, model.activeTab, runtime.Search.ActiveTab())

	// Cycling through every tab returns to the start.
	for range runtime.MainBox.Tabs() {
		model.Update(key("tab"))
	}
	model.Update(key("tab"))
	require.NotEqual(t, lists.Tab(""), model.activeTab)
}

func TestSearchKeysEditActiveTabQuery(t *testing.T) {
	model, runtime := loggedInModel(t)

	model.Update(key("/"))
	require.True(t, model.searching)
	model.Update(key("a"))
	model.Update(key("n"))
	require.Equal(t, "an", runtime.Search.Query(model.activeTab))

	model.Update(tea.KeyMsg{Type: tea.KeyBackspace})
	require.Equal(t, "a", runtime.Search.Query(model.activeTab))

	model.Update(key("esc"))
	require.False(t, model.searching)
	require.Equal(t, "a", runtime.Search.Query(model.activeTab), "leaving search keeps the query")
}

func TestSearchBackspaceRemovesWholeRune(t *testing.T) {
	model, runtime := loggedInModel(t)

	model.Update(key("/"))
	model.Update(key("a"))
	model.Update(key("ø"))
	require.Equal(t, "aø", runtime.Search.Query(model.activeTab))

	model.Update(tea.KeyMsg{Type: tea.KeyBackspace})
	require.Equal(t, "a", runtime.Search.Query(model.activeTab))
}

func TestEnterOpensSelectedRoom(t *testing.T) {
	model, runtime := loggedInModel(t)

	room := models.NewRoom("r1", "lobby", models.RoomTypePublic)
	require.NoError(t, runtime.Store.AddRoom(room))

	model.activeTab = lists.TabRooms
	runtime.Search.SetActiveTab(lists.TabRooms)
	runtime.RoomsList.Recompute()

	model.Update(key("enter"))
	require.True(t, room.InSlot())
}

func TestResizeReflowsSlots(t *testing.T) {
	model, runtime := loggedInModel(t)

	for _, id := range []string{"r1", "r2", "r3"} {
		require.NoError(t, runtime.Store.AddRoom(models.NewRoom(id, id, models.RoomTypePublic)))
		require.NoError(t, runtime.Manager.Open(id))
	}
	require.Len(t, runtime.Manager.ActiveRooms(), 3)

	// 100 columns map to 800 layout units, room for a single slot.
	model.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	require.Equal(t, 1, runtime.Manager.SlotCount())
	require.Len(t, runtime.Manager.ActiveRooms(), 1)
	require.NotEmpty(t, runtime.Overflow.Rooms())
}

func TestViewRendersWithoutRooms(t *testing.T) {
	model, _ := loggedInModel(t)
	model.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	view := model.View()
	require.Contains(t, view, "chatdock")
	require.Contains(t, view, "no open conversations")
}

func TestLogoutKeyClearsState(t *testing.T) {
	model, runtime := loggedInModel(t)
	require.NoError(t, runtime.Store.AddRoom(models.NewRoom("r1", "lobby", models.RoomTypePublic)))

	model.Update(key("L"))
	require.Nil(t, runtime.Users.CurrentUser())
	require.Empty(t, runtime.Store.Rooms())
}
