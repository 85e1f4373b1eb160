package tray

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cristianoliveira/deskbridge/internal/host"
	"github.com/cristianoliveira/deskbridge/internal/host/headless"
	"github.com/cristianoliveira/deskbridge/internal/ipc"
	"github.com/cristianoliveira/deskbridge/internal/window"
)

type sink struct {
	mu      sync.Mutex
	actions []string
}

func (s *sink) Emit(win, channel string, args ...any) {
	if channel != ipc.EventTrayAction {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.actions = append(s.actions, args[0].(ipc.TrayAction).Action)
}

func (s *sink) got() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.actions...)
}

type fixture struct {
	tray    *headless.Tray
	reg     *window.Registry
	sink    *sink
	quits   int
	control *Controller
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	wh := headless.NewWindowHost(host.Display{Width: 1920, Height: 1080}, nil)
	f := &fixture{tray: headless.NewTray(nil), sink: &sink{}}
	wh.SetSink(f.sink)
	f.reg = window.NewRegistry(wh, "http://localhost:3000", nil)
	f.control = New(f.tray, f.reg, func() { f.quits++ }, nil)
	f.control.Start()
	return f
}

func TestStartInstallsMenuAndTooltip(t *testing.T) {
	f := newFixture(t)
	assert.Equal(t, DefaultTooltip, f.tray.Tooltip())
	assert.Len(t, f.tray.Items(), len(Items()))
}

func TestIconClickTogglesMainWindow(t *testing.T) {
	f := newFixture(t)

	f.tray.ClickIcon()
	main, ok := f.reg.Main()
	require.True(t, ok, "click without a main window creates it")
	require.True(t, main.IsVisible())
	require.True(t, main.IsFocused())

	f.tray.ClickIcon()
	assert.False(t, main.IsVisible())

	f.tray.ClickIcon()
	assert.True(t, main.IsVisible())
}

func TestItemsSendTrayActions(t *testing.T) {
	f := newFixture(t)
	f.tray.ClickItem(ItemSettings)
	assert.Empty(t, f.sink.got(), "no main window, nothing to send")

	_, err := f.reg.CreateMain()
	require.NoError(t, err)

	for _, id := range []string{ItemSettings, ItemDataManager, ItemFileManager, ItemSystemInfo,
		ItemNotification, ItemCheckUpdates, ItemAbout, ItemNewWindow} {
		f.tray.ClickItem(id)
	}
	assert.Equal(t, []string{
		ipc.TrayOpenSettings, ipc.TrayOpenDataManager, ipc.TrayOpenFileManager, ipc.TrayShowSystemInfo,
		ipc.TraySendNotification, ipc.TrayCheckUpdates, ipc.TrayShowAbout, ipc.TrayCreateNewWindow,
	}, f.sink.got())
}

func TestHideShowAndQuit(t *testing.T) {
	f := newFixture(t)
	main, err := f.reg.CreateMain()
	require.NoError(t, err)

	f.tray.ClickItem(ItemHide)
	assert.False(t, main.IsVisible())
	main.Minimize()
	f.tray.ClickItem(ItemShow)
	assert.True(t, main.IsVisible())
	assert.False(t, main.IsMinimized())

	f.tray.ClickItem(ItemQuit)
	assert.Equal(t, 1, f.quits)
}

func TestUpdateTooltip(t *testing.T) {
	f := newFixture(t)

	env := f.control.Update(ipc.TrayUpdate{Tooltip: "  "})
	require.False(t, env.Success)
	assert.Equal(t, "tooltip is required", env.Error)

	env = f.control.Update(ipc.TrayUpdate{Tooltip: "3 unread"})
	require.True(t, env.Success)
	assert.Equal(t, "3 unread", f.tray.Tooltip())

	none := New(nil, f.reg, nil, nil)
	none.Start()
	assert.False(t, none.Available())
	assert.False(t, none.Update(ipc.TrayUpdate{Tooltip: "x"}).Success)
}
