package inspector

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cristianoliveira/deskbridge/internal/bridge"
	"github.com/cristianoliveira/deskbridge/internal/ipc"
	"github.com/cristianoliveira/deskbridge/internal/settings"
)

type call struct {
	channel string
	args    []any
}

type fakeClient struct {
	mu      sync.Mutex
	calls   []call
	results map[string]any
	fail    map[string]error
}

func newFakeClient() *fakeClient {
	return &fakeClient{results: make(map[string]any), fail: make(map[string]error)}
}

func (f *fakeClient) Invoke(_ context.Context, channel string, args ...any) (json.RawMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call{channel: channel, args: args})
	if err := f.fail[channel]; err != nil {
		return nil, err
	}
	return json.Marshal(f.results[channel])
}

func (f *fakeClient) InvokeEnvelope(ctx context.Context, channel string, args ...any) (ipc.Envelope, error) {
	raw, err := f.Invoke(ctx, channel, args...)
	if err != nil {
		return ipc.Envelope{}, err
	}
	var env ipc.Envelope
	return env, json.Unmarshal(raw, &env)
}

func (f *fakeClient) last() call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[len(f.calls)-1]
}

func keyRune(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

func TestRefreshLoadsWindows(t *testing.T) {
	client := newFakeClient()
	client.results[ipc.WindowList] = []ipc.WindowInfo{
		{ID: "main", Title: "deskbridge", IsVisible: true, IsFocused: true},
		{ID: "notes", Title: "Notes"},
	}
	m := NewModel(client, "main")

	_, cmd := m.Update(keyRune('r'))
	require.NotNil(t, cmd)
	m.Update(cmd())

	require.Len(t, m.windows, 2)
	view := m.View()
	assert.Contains(t, view, "notes")
	assert.Contains(t, view, "hidden")
	assert.Contains(t, view, "focused")
}

func TestRefreshErrorShowsStatus(t *testing.T) {
	client := newFakeClient()
	client.fail[ipc.WindowList] = errors.New("bridge connection closed")
	m := NewModel(client, "main")

	m.Update(m.refresh()())

	assert.True(t, m.failed)
	assert.Contains(t, m.View(), "list windows: bridge connection closed")
}

func TestNewWindowCreatesUniqueID(t *testing.T) {
	client := newFakeClient()
	client.results[ipc.WindowCreate] = ipc.WindowRef{ID: "x"}
	m := NewModel(client, "main")

	_, cmd := m.Update(keyRune('n'))
	require.NotNil(t, cmd)
	m.Update(cmd())

	got := client.last()
	require.Equal(t, ipc.WindowCreate, got.channel)
	cfg := got.args[0].(ipc.WindowConfig)
	assert.True(t, strings.HasPrefix(cfg.ID, "inspector-"))
	assert.Contains(t, m.status, cfg.ID)
}

func TestToggleThemeCycles(t *testing.T) {
	assert.Equal(t, settings.ThemeDark, nextTheme(settings.ThemeLight))
	assert.Equal(t, settings.ThemeAuto, nextTheme(settings.ThemeDark))
	assert.Equal(t, settings.ThemeLight, nextTheme(settings.ThemeAuto))
	assert.Equal(t, settings.ThemeLight, nextTheme(""))

	client := newFakeClient()
	client.results[ipc.SettingsSet] = ipc.OK(true)
	m := NewModel(client, "main")
	m.theme = settings.ThemeDark

	_, cmd := m.Update(keyRune('t'))
	m.Update(cmd())

	patch := client.last().args[0].(settings.Patch)
	require.NotNil(t, patch.Theme)
	assert.Equal(t, settings.ThemeAuto, *patch.Theme)
	assert.Equal(t, settings.ThemeAuto, m.theme)
}

func TestToggleThemeFailureKeepsTheme(t *testing.T) {
	client := newFakeClient()
	client.results[ipc.SettingsSet] = ipc.Failf("invalid theme value: x")
	m := NewModel(client, "main")
	m.theme = settings.ThemeLight

	m.Update(m.toggleTheme()())

	assert.Equal(t, settings.ThemeLight, m.theme)
	assert.True(t, m.failed)
}

func TestNotifySendsNotification(t *testing.T) {
	client := newFakeClient()
	client.results[ipc.SystemNotification] = ipc.OK(true)
	m := NewModel(client, "main")

	_, cmd := m.Update(keyRune('s'))
	m.Update(cmd())

	opts := client.last().args[0].(ipc.NotificationOptions)
	assert.Equal(t, "deskbridge inspector", opts.Title)
	assert.Equal(t, "notification queued", m.status)
}

func TestQuitKey(t *testing.T) {
	m := NewModel(newFakeClient(), "main")
	_, cmd := m.Update(keyRune('q'))
	require.NotNil(t, cmd)
	assert.Equal(t, tea.QuitMsg{}, cmd())
}

func TestEventsAreLoggedAndTrackTheme(t *testing.T) {
	m := NewModel(newFakeClient(), "main")
	m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})

	raw, err := json.Marshal(settings.Settings{Theme: settings.ThemeDark})
	require.NoError(t, err)
	_, cmd := m.Update(EventMsg{Channel: ipc.EventSettingsChanged, Args: []json.RawMessage{raw}, At: time.Now()})
	assert.Nil(t, cmd)
	assert.Equal(t, settings.ThemeDark, m.theme)

	_, cmd = m.Update(EventMsg{Channel: ipc.EventWindowFocus, Args: []json.RawMessage{json.RawMessage(`{"id":"main"}`)}, At: time.Now()})
	assert.NotNil(t, cmd, "focus changes refresh the window list")

	require.Len(t, m.events, 2)
	assert.Contains(t, m.View(), ipc.EventSettingsChanged)
}

func TestEventLogIsBounded(t *testing.T) {
	m := NewModel(newFakeClient(), "main")
	for i := 0; i < maxEvents+25; i++ {
		m.Update(EventMsg{Channel: ipc.EventTrayAction, At: time.Now()})
	}
	assert.Len(t, m.events, maxEvents)
}

func TestSubscribeForwardsHostEvents(t *testing.T) {
	d := bridge.NewDispatcher(nil)
	hub := bridge.NewHub(d, nil, nil)
	hostSide, uiSide := bridge.Pipe()
	go func() { _ = hub.Serve(context.Background(), "main", hostSide) }()
	proxy := bridge.NewProxy(uiSide, nil)
	t.Cleanup(func() { _ = proxy.Close() })
	require.Eventually(t, func() bool { return hub.Attached("main") > 0 }, time.Second, 5*time.Millisecond)

	var mu sync.Mutex
	var got []EventMsg
	subs := Subscribe(proxy, func(msg tea.Msg) {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, msg.(EventMsg))
	})
	assert.Len(t, subs, len(ipc.HostEvents()))

	hub.Emit("main", ipc.EventThemeChanged, map[string]bool{"dark": true})
	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) == 1
	}, time.Second, 5*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, ipc.EventThemeChanged, got[0].Channel)
	assert.JSONEq(t, `{"dark":true}`, string(got[0].Args[0]))
}

func typeText(m *Model, text string) {
	for _, r := range text {
		m.Update(keyRune(r))
	}
}

func TestFilterNarrowsEvents(t *testing.T) {
	m := NewModel(newFakeClient(), "main")
	m.Update(EventMsg{Channel: ipc.EventWindowFocus, Args: []json.RawMessage{json.RawMessage(`{"id":"notes"}`)}, At: time.Now()})
	m.Update(EventMsg{Channel: ipc.EventTrayAction, Args: []json.RawMessage{json.RawMessage(`"show"`)}, At: time.Now()})
	m.Update(EventMsg{Channel: ipc.EventWindowBlur, Args: []json.RawMessage{json.RawMessage(`{"id":"main"}`)}, At: time.Now()})

	m.Update(keyRune('/'))
	require.True(t, m.filtering)
	typeText(m, "channel:window NOTES")

	visible := m.visible()
	require.Len(t, visible, 1)
	assert.Equal(t, ipc.EventWindowFocus, visible[0].channel)
	assert.Contains(t, m.View(), "1/3 events (token)")

	// q is filter text while editing, not quit.
	m.Update(keyRune('q'))
	assert.True(t, m.filtering)

	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.False(t, m.filtering)
	assert.Equal(t, "channel:window NOTESq", m.filter.Value())
	assert.Empty(t, m.visible())
	assert.Contains(t, m.viewport.View(), "No events match the filter")
}

func TestFilterEscClears(t *testing.T) {
	m := NewModel(newFakeClient(), "main")
	m.Update(EventMsg{Channel: ipc.EventTrayAction, At: time.Now()})
	m.Update(EventMsg{Channel: ipc.EventAppReady, At: time.Now()})

	m.Update(keyRune('/'))
	typeText(m, "tray")
	assert.Len(t, m.visible(), 1)

	m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.False(t, m.filtering)
	assert.Empty(t, m.filter.Value())
	assert.Len(t, m.visible(), 2)
	assert.NotContains(t, m.View(), "events  ")
}

func TestFilterModeCycles(t *testing.T) {
	m := NewModel(newFakeClient(), "main")
	m.Update(EventMsg{Channel: ipc.EventWindowFocus, Args: []json.RawMessage{json.RawMessage(`{"id":"notes"}`)}, At: time.Now()})
	m.Update(EventMsg{Channel: ipc.EventWindowBlur, Args: []json.RawMessage{json.RawMessage(`{"id":"main"}`)}, At: time.Now()})
	m.Update(EventMsg{Channel: ipc.EventTrayAction, Args: []json.RawMessage{json.RawMessage(`"show"`)}, At: time.Now()})

	m.Update(keyRune('/'))
	typeText(m, "focus|blur")
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Empty(t, m.visible(), "token mode reads the pipe literally")

	m.Update(keyRune('m'))
	assert.Equal(t, "filter mode: substring", m.status)
	assert.Empty(t, m.visible())

	m.Update(keyRune('m'))
	assert.Equal(t, "regex", m.matcher.Name())
	assert.Len(t, m.visible(), 2)
	assert.Contains(t, m.View(), "2/3 events (regex)")

	m.Update(keyRune('m'))
	assert.Equal(t, "token", m.matcher.Name())
}
