// Package inspector is a terminal renderer: it attaches to the bridge as a
// window, shows every host event it receives and drives a few invoke
// channels from the keyboard.
package inspector

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"

	"github.com/cristianoliveira/deskbridge/internal/ipc"
	"github.com/cristianoliveira/deskbridge/internal/search"
	"github.com/cristianoliveira/deskbridge/internal/settings"
)

const (
	maxEvents             = 200
	headerFooterLines     = 6
	defaultViewportWidth  = 80
	defaultViewportHeight = 18
	invokeTimeout         = 10 * time.Second
)

// Client is the renderer side of the bridge; *bridge.Proxy satisfies it.
type Client interface {
	Invoke(ctx context.Context, channel string, args ...any) (json.RawMessage, error)
	InvokeEnvelope(ctx context.Context, channel string, args ...any) (ipc.Envelope, error)
}

type keyMap struct {
	Refresh key.Binding
	New     key.Binding
	Theme   key.Binding
	Notify  key.Binding
	Filter  key.Binding
	Mode    key.Binding
	Quit    key.Binding
}

func defaultKeys() keyMap {
	return keyMap{
		Refresh: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
		New:     key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "new window")),
		Theme:   key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "toggle theme")),
		Notify:  key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "test notification")),
		Filter:  key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "filter")),
		Mode:    key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "filter mode")),
		Quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) help() []key.Binding {
	return []key.Binding{k.Refresh, k.New, k.Theme, k.Notify, k.Filter, k.Mode, k.Quit}
}

// EventMsg carries a host event into the program.
type EventMsg struct {
	Channel string
	Args    []json.RawMessage
	At      time.Time
}

type windowsMsg []ipc.WindowInfo

type statusMsg string

type errMsg struct{ err error }

type themeMsg string

type eventLine struct {
	at      time.Time
	channel string
	payload string
}

// Field exposes the line to the event filter.
func (e eventLine) Field(name string) string {
	switch name {
	case "channel":
		return e.channel
	case "payload":
		return e.payload
	}
	return ""
}

// Model is the inspector bubbletea model.
type Model struct {
	client Client
	window string
	keys   keyMap

	viewport viewport.Model
	width    int
	height   int

	events    []eventLine
	filter    textinput.Model
	filtering bool
	mode      string
	matcher   search.Provider

	windows []ipc.WindowInfo
	theme   string
	status  string
	failed  bool
}

// NewModel creates a model rendering for the window id.
func NewModel(client Client, window string) *Model {
	filter := textinput.New()
	filter.Prompt = "/"
	filter.Placeholder = "channel:window payload:main"
	return &Model{
		client:   client,
		window:   window,
		keys:     defaultKeys(),
		viewport: viewport.New(defaultViewportWidth, defaultViewportHeight),
		width:    defaultViewportWidth,
		filter:   filter,
		mode:     search.ModeToken,
		matcher:  search.New(search.ModeToken, search.WithCaseInsensitive(true)),
	}
}

// Init loads the window list and the current theme.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.refresh(), m.loadTheme())
}

// Update handles messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.viewport.Width = msg.Width
		m.viewport.Height = max(msg.Height-headerFooterLines-len(m.windows), 3)
		m.updateViewport()
		return m, nil
	case EventMsg:
		return m.handleEvent(msg)
	case windowsMsg:
		m.windows = msg
		return m, nil
	case themeMsg:
		m.theme = string(msg)
		return m, nil
	case statusMsg:
		m.status = string(msg)
		m.failed = false
		return m, nil
	case errMsg:
		m.status = msg.err.Error()
		m.failed = true
		return m, nil
	}
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.filtering {
		return m.handleFilterKey(msg)
	}
	switch {
	case key.Matches(msg, m.keys.Filter):
		m.filtering = true
		return m, m.filter.Focus()
	case key.Matches(msg, m.keys.Mode):
		m.cycleMode()
		return m, nil
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Refresh):
		return m, m.refresh()
	case key.Matches(msg, m.keys.New):
		return m, m.newWindow()
	case key.Matches(msg, m.keys.Theme):
		return m, m.toggleTheme()
	case key.Matches(msg, m.keys.Notify):
		return m, m.notify()
	}
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// handleFilterKey edits the filter. Enter keeps it, Esc clears it.
func (m *Model) handleFilterKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC:
		return m, tea.Quit
	case tea.KeyEnter:
		m.filtering = false
		m.filter.Blur()
		return m, nil
	case tea.KeyEsc:
		m.filtering = false
		m.filter.Blur()
		m.filter.SetValue("")
		m.updateViewport()
		return m, nil
	}
	var cmd tea.Cmd
	m.filter, cmd = m.filter.Update(msg)
	m.updateViewport()
	m.viewport.GotoBottom()
	return m, cmd
}

// cycleMode switches the filter between token, substring and regex matching.
func (m *Model) cycleMode() {
	m.mode = search.NextMode(m.mode)
	m.matcher = search.New(m.mode, search.WithCaseInsensitive(true))
	m.status, m.failed = "filter mode: "+m.mode, false
	m.updateViewport()
}

// visible returns the events matching the filter.
func (m *Model) visible() []eventLine {
	query := m.filter.Value()
	if query == "" {
		return m.events
	}
	out := make([]eventLine, 0, len(m.events))
	for _, e := range m.events {
		if m.matcher.Match(e, query) {
			out = append(out, e)
		}
	}
	return out
}

func (m *Model) handleEvent(msg EventMsg) (tea.Model, tea.Cmd) {
	parts := make([]string, 0, len(msg.Args))
	for _, a := range msg.Args {
		parts = append(parts, string(a))
	}
	m.events = append(m.events, eventLine{at: msg.At, channel: msg.Channel, payload: strings.Join(parts, " ")})
	if len(m.events) > maxEvents {
		m.events = m.events[len(m.events)-maxEvents:]
	}
	m.updateViewport()
	m.viewport.GotoBottom()

	switch msg.Channel {
	case ipc.EventSettingsChanged:
		var s settings.Settings
		if len(msg.Args) > 0 && json.Unmarshal(msg.Args[0], &s) == nil && s.Theme != "" {
			m.theme = s.Theme
		}
	case ipc.EventWindowFocus, ipc.EventWindowBlur, ipc.EventAppReady:
		return m, m.refresh()
	}
	return m, nil
}

func (m *Model) updateViewport() {
	events := m.visible()
	if len(events) == 0 && len(m.events) > 0 {
		m.viewport.SetContent(dimStyle.Render("No events match the filter"))
		return
	}
	m.viewport.SetContent(renderEvents(events, m.viewport.Width))
}

func (m *Model) invoke(fn func(ctx context.Context) tea.Msg) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), invokeTimeout)
		defer cancel()
		return fn(ctx)
	}
}

func (m *Model) refresh() tea.Cmd {
	return m.invoke(func(ctx context.Context) tea.Msg {
		raw, err := m.client.Invoke(ctx, ipc.WindowList)
		if err != nil {
			return errMsg{fmt.Errorf("list windows: %w", err)}
		}
		var list []ipc.WindowInfo
		if err := json.Unmarshal(raw, &list); err != nil {
			return errMsg{fmt.Errorf("list windows: %w", err)}
		}
		return windowsMsg(list)
	})
}

func (m *Model) loadTheme() tea.Cmd {
	return m.invoke(func(ctx context.Context) tea.Msg {
		raw, err := m.client.Invoke(ctx, ipc.SettingsGet)
		if err != nil {
			return errMsg{fmt.Errorf("load settings: %w", err)}
		}
		var s settings.Settings
		if err := json.Unmarshal(raw, &s); err != nil {
			return errMsg{fmt.Errorf("load settings: %w", err)}
		}
		return themeMsg(s.Theme)
	})
}

func (m *Model) newWindow() tea.Cmd {
	id := "inspector-" + uuid.NewString()[:8]
	return m.invoke(func(ctx context.Context) tea.Msg {
		if _, err := m.client.Invoke(ctx, ipc.WindowCreate, ipc.WindowConfig{ID: id, Title: "Inspector"}); err != nil {
			return errMsg{fmt.Errorf("create window: %w", err)}
		}
		return statusMsg("created window " + id)
	})
}

// nextTheme cycles light, dark and auto.
func nextTheme(current string) string {
	switch current {
	case settings.ThemeLight:
		return settings.ThemeDark
	case settings.ThemeDark:
		return settings.ThemeAuto
	default:
		return settings.ThemeLight
	}
}

func (m *Model) toggleTheme() tea.Cmd {
	next := nextTheme(m.theme)
	return m.invoke(func(ctx context.Context) tea.Msg {
		env, err := m.client.InvokeEnvelope(ctx, ipc.SettingsSet, settings.Patch{Theme: &next})
		if err != nil {
			return errMsg{fmt.Errorf("set theme: %w", err)}
		}
		if !env.Success {
			return errMsg{fmt.Errorf("set theme: %s", env.Error)}
		}
		return themeMsg(next)
	})
}

func (m *Model) notify() tea.Cmd {
	return m.invoke(func(ctx context.Context) tea.Msg {
		env, err := m.client.InvokeEnvelope(ctx, ipc.SystemNotification, ipc.NotificationOptions{
			Title: "deskbridge inspector",
			Body:  "Test notification from " + m.window,
		})
		if err != nil {
			return errMsg{fmt.Errorf("send notification: %w", err)}
		}
		if !env.Success {
			return errMsg{fmt.Errorf("send notification: %s", env.Error)}
		}
		return statusMsg("notification queued")
	})
}
