// Package widgettui hosts the chat widget core in a terminal program. The
// original runs embedded in a web page; this shell renders the same main
// box, slot strip and overflow list with bubbletea.
package widgettui

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"chatdock/internal/auth"
	"chatdock/internal/config"
	"chatdock/internal/events"
	"chatdock/internal/lists"
	"chatdock/internal/models"
)

// cellLayoutUnits converts terminal columns into the pixel-derived layout
// units the slot geometry is configured in.
const cellLayoutUnits = 8

// applyCoreMsg marshals a core mutation onto the program's event loop.
type applyCoreMsg struct {
	fn func()
}

// loginDoneMsg reports the startup login attempt.
type loginDoneMsg struct {
	err error
}

// Model is the top-level bubbletea model.
type Model struct {
	runtime *Runtime
	cred    auth.Credentials

	width  int
	height int

	activeTab lists.Tab
	selected  int
	searching bool
	status    string
}

// NewModel builds the shell around an assembled runtime. cred is used for
// the startup login.
func NewModel(runtime *Runtime, cred auth.Credentials) *Model {
	return &Model{
		runtime:   runtime,
		cred:      cred,
		activeTab: runtime.MainBox.InitialTab(),
	}
}

// Run assembles the runtime and drives the program until quit.
func Run(cfg *config.Config, authenticator auth.Authenticator, cred auth.Credentials) error {
	var program *tea.Program
	dispatch := func(fn func()) {
		if program != nil {
			program.Send(applyCoreMsg{fn: fn})
		}
	}

	runtime, err := NewRuntime(cfg, authenticator, 1024, dispatch)
	if err != nil {
		return err
	}
	defer runtime.Close()

	program = tea.NewProgram(NewModel(runtime, cred), tea.WithAltScreen())
	_, err = program.Run()
	return err
}

func (m *Model) Init() tea.Cmd {
	return func() tea.Msg {
		return loginDoneMsg{err: m.runtime.Auth.Login(context.Background(), m.cred)}
	}
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch typed := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = typed.Width
		m.height = typed.Height
		m.runtime.Manager.SetScreenWidth(typed.Width * cellLayoutUnits)
		m.runtime.Bus.Publish(events.Event{Type: events.EventScreenSizeChanged})
		return m, nil
	case applyCoreMsg:
		typed.fn()
		return m, nil
	case loginDoneMsg:
		if typed.err != nil {
			m.status = auth.UserMessage(typed.err)
		} else {
			m.status = ""
		}
		return m, nil
	case tea.KeyMsg:
		return m.handleKey(typed)
	}
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.searching {
		return m.handleSearchKey(msg)
	}

	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "tab":
		m.switchTab(1)
	case "shift+tab":
		m.switchTab(-1)
	case "up", "k":
		if m.selected > 0 {
			m.selected--
		}
	case "down", "j":
		if m.selected < m.rowCount()-1 {
			m.selected++
		}
	case "enter":
		m.openSelected()
	case "/":
		m.searching = true
	case "m":
		m.runtime.Manager.SetMoreListMinimized(!m.runtime.Manager.MoreListMinimized())
	case "x":
		if rooms := m.runtime.Manager.ActiveRooms(); len(rooms) > 0 {
			_ = m.runtime.Manager.CloseRoom(rooms[len(rooms)-1].ID)
		}
	case "L":
		m.runtime.Auth.Logout(context.Background())
		m.selected = 0
	}
	return m, nil
}

func (m *Model) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	query := m.runtime.Search.Query(m.activeTab)
	switch msg.String() {
	case "esc", "enter":
		m.searching = false
	case "backspace":
		if len(query) > 0 {
			_, size := utf8.DecodeLastRuneInString(query)
			m.runtime.Search.SetQueryForActiveTab(query[:len(query)-size])
		}
	default:
		if msg.Type == tea.KeyRunes {
			m.runtime.Search.SetQueryForActiveTab(query + string(msg.Runes))
		}
	}
	m.selected = 0
	return m, nil
}

func (m *Model) switchTab(direction int) {
	tabs := m.runtime.MainBox.Tabs()
	current := 0
	for i, tab := range tabs {
		if tab == m.activeTab {
			current = i
			break
		}
	}
	next := (current + direction + len(tabs)) % len(tabs)
	m.activeTab = tabs[next]
	m.runtime.Search.SetActiveTab(m.activeTab)
	m.selected = 0
}

func (m *Model) rowCount() int {
	switch m.activeTab {
	case lists.TabFriends:
		return len(m.runtime.FriendsList.Users())
	case lists.TabOnlineUsers:
		return len(m.runtime.OnlineList.Users())
	case lists.TabRooms:
		return len(m.runtime.RoomsList.Rooms())
	default:
		return len(m.runtime.InboxList.Rooms())
	}
}

func (m *Model) openSelected() {
	switch m.activeTab {
	case lists.TabFriends:
		if users := m.runtime.FriendsList.Users(); m.selected < len(users) {
			_ = m.runtime.Creator.OpenOneToOne(context.Background(), users[m.selected].ID)
		}
	case lists.TabOnlineUsers:
		if users := m.runtime.OnlineList.Users(); m.selected < len(users) {
			_ = m.runtime.Creator.OpenOneToOne(context.Background(), users[m.selected].ID)
		}
	case lists.TabRooms:
		if rooms := m.runtime.RoomsList.Rooms(); m.selected < len(rooms) {
			_ = m.runtime.Manager.Open(rooms[m.selected].ID)
		}
	default:
		if rooms := m.runtime.InboxList.Rooms(); m.selected < len(rooms) {
			_ = m.runtime.Manager.Open(rooms[m.selected].ID)
		}
	}
}

func (m *Model) View() string {
	header := m.renderHeader()
	tabs := m.renderTabs()
	body := m.renderList()
	slots := m.renderSlots()
	footer := m.renderFooter()
	return lipgloss.JoinVertical(lipgloss.Left, header, tabs, body, slots, footer)
}

func (m *Model) renderHeader() string {
	who := "not logged in"
	if user := m.runtime.Users.CurrentUser(); user != nil {
		who = user.Name
	}
	line := fmt.Sprintf("chatdock  %s", who)
	if m.status != "" {
		line += "  " + m.status
	}
	return headerStyle.Width(maxInt(0, m.width)).Render(line)
}

func (m *Model) renderTabs() string {
	var parts []string
	for _, tab := range m.runtime.MainBox.Tabs() {
		label := tabLabel(tab)
		if tab == lists.TabInbox {
			if badge := m.runtime.MainBox.InboxBadge(); badge > 0 {
				label = fmt.Sprintf("%s %s", label, badgeStyle.Render(fmt.Sprintf(" %d ", badge)))
			}
		}
		style := tabStyle
		if tab == m.activeTab {
			style = activeTabStyle
		}
		parts = append(parts, style.Render(label))
	}
	if query := m.runtime.Search.Query(m.activeTab); query != "" || m.searching {
		parts = append(parts, mutedStyle.Render(fmt.Sprintf("/%s", query)))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func tabLabel(tab lists.Tab) string {
	switch tab {
	case lists.TabFriends:
		return "Friends"
	case lists.TabOnlineUsers:
		return "Online"
	case lists.TabRooms:
		return "Rooms"
	default:
		return "Inbox"
	}
}

func (m *Model) renderList() string {
	var rows []string
	switch m.activeTab {
	case lists.TabFriends:
		rows = userRows(m.runtime.FriendsList.Users())
	case lists.TabOnlineUsers:
		rows = userRows(m.runtime.OnlineList.Users())
	case lists.TabRooms:
		rows = roomRows(m.runtime.RoomsList.Rooms())
	default:
		rows = roomRows(m.runtime.InboxList.Rooms())
	}
	if len(rows) == 0 {
		return mutedStyle.Render("  nothing here")
	}

	var b strings.Builder
	for i, row := range rows {
		if i == m.selected {
			row = selectedRowStyle.Render(row)
		}
		b.WriteString(row)
		if i < len(rows)-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

func userRows(users []*models.User) []string {
	rows := make([]string, 0, len(users))
	for _, user := range users {
		dot := offlineDotStyle.Render("●")
		if user.Online {
			dot = onlineDotStyle.Render("●")
		}
		rows = append(rows, fmt.Sprintf("  %s %s", dot, user.Name))
	}
	return rows
}

func roomRows(rooms []*models.Room) []string {
	rows := make([]string, 0, len(rooms))
	for _, room := range rooms {
		row := fmt.Sprintf("  %s", room.Name)
		if room.Badge > 0 {
			row += " " + badgeStyle.Render(fmt.Sprintf(" %d ", room.Badge))
		}
		if room.OnlineUserCount > 0 {
			row += mutedStyle.Render(fmt.Sprintf(" (%d online)", room.OnlineUserCount))
		}
		rows = append(rows, row)
	}
	return rows
}

func (m *Model) renderSlots() string {
	active := m.runtime.Manager.ActiveRooms()
	if len(active) == 0 {
		return mutedStyle.Render("  no open conversations")
	}
	flashed := m.runtime.Manager.TakeFlashed()

	var boxes []string
	for _, room := range active {
		style := slotBoxStyle
		if room.ID == flashed {
			style = flashedSlotStyle
		}
		title := room.Name
		if room.Minimized {
			title = "▾ " + title
		}
		boxes = append(boxes, style.Render(m.renderSlotBody(room, title)))
	}

	line := lipgloss.JoinHorizontal(lipgloss.Top, boxes...)
	if overflow := m.renderOverflow(); overflow != "" {
		line = lipgloss.JoinVertical(lipgloss.Left, line, overflow)
	}
	return line
}

func (m *Model) renderSlotBody(room *models.Room, title string) string {
	if room.Minimized {
		return title
	}
	var lines []string
	lines = append(lines, title)
	tail := room.Messages
	if len(tail) > 3 {
		tail = tail[len(tail)-3:]
	}
	for _, msg := range tail {
		lines = append(lines, mutedStyle.Render(fmt.Sprintf("%s: %s", msg.SenderName, msg.Body)))
	}
	return strings.Join(lines, "\n")
}

func (m *Model) renderOverflow() string {
	rooms := m.runtime.Overflow.Rooms()
	if len(rooms) == 0 {
		return ""
	}
	if m.runtime.Manager.MoreListMinimized() {
		return mutedStyle.Render(fmt.Sprintf("  more chats (%d) [m]", len(rooms)))
	}
	names := make([]string, 0, len(rooms))
	for _, room := range rooms {
		name := room.Name
		if room.Badge > 0 {
			name = fmt.Sprintf("%s(%d)", name, room.Badge)
		}
		names = append(names, name)
	}
	return mutedStyle.Render("  more: " + strings.Join(names, "  "))
}

func (m *Model) renderFooter() string {
	hints := "[tab] switch  [/] search  [enter] open  [x] close  [m] more  [L] logout  [q] quit"
	return footerStyle.Width(maxInt(0, m.width)).Render(hints)
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
