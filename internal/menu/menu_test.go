package menu

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cristianoliveira/deskbridge/internal/errors"
	"github.com/cristianoliveira/deskbridge/internal/host"
	"github.com/cristianoliveira/deskbridge/internal/host/headless"
	"github.com/cristianoliveira/deskbridge/internal/host/hostmock"
	"github.com/cristianoliveira/deskbridge/internal/ipc"
	"github.com/cristianoliveira/deskbridge/internal/settings"
	"github.com/cristianoliveira/deskbridge/internal/window"
)

type sink struct {
	mu      sync.Mutex
	actions []ipc.MenuAction
}

func (s *sink) Emit(win, channel string, args ...any) {
	if channel != ipc.EventMenuAction {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.actions = append(s.actions, args[0].(ipc.MenuAction))
}

func (s *sink) got() []ipc.MenuAction {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]ipc.MenuAction(nil), s.actions...)
}

type fakeThemes struct {
	set []string
	err string
}

func (t *fakeThemes) Set(_ context.Context, p settings.Patch) ipc.Envelope {
	if t.err != "" {
		return ipc.Failf("%s", t.err)
	}
	t.set = append(t.set, *p.Theme)
	return ipc.OK(true)
}

type fixture struct {
	menu    *Menu
	reg     *window.Registry
	sink    *sink
	dialogs *headless.Dialogs
	shell   *hostmock.Shell
	themes  *fakeThemes
	quits   int
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	wh := headless.NewWindowHost(host.Display{Width: 1920, Height: 1080}, nil)
	f := &fixture{sink: &sink{}, dialogs: &headless.Dialogs{}, shell: new(hostmock.Shell), themes: &fakeThemes{}}
	wh.SetSink(f.sink)
	f.reg = window.NewRegistry(wh, "http://localhost:3000", nil)
	f.menu = New(Deps{
		Windows: f.reg,
		Dialogs: f.dialogs,
		Shell:   f.shell,
		Themes:  f.themes,
		Quit:    func() { f.quits++ },
	})
	return f
}

func TestForwardedItemsNeedAFocusedWindow(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	assert.False(t, f.menu.Click(ctx, FileNew))

	_, err := f.reg.CreateMain()
	require.NoError(t, err)
	assert.True(t, f.menu.Click(ctx, FileNew))
	assert.True(t, f.menu.Click(ctx, HelpUpdates))
	assert.Equal(t, []ipc.MenuAction{{Action: FileNew}, {Action: HelpUpdates}}, f.sink.got())
}

func TestOpenSendsSelectedPaths(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	_, err := f.reg.CreateMain()
	require.NoError(t, err)

	assert.False(t, f.menu.Click(ctx, FileOpen), "canceled dialog sends nothing")

	f.dialogs.Answer("/tmp/a.md")
	require.True(t, f.menu.Click(ctx, FileOpen))
	f.dialogs.Answer("/tmp/out.json")
	require.True(t, f.menu.Click(ctx, FileSaveAs))

	got := f.sink.got()
	require.Len(t, got, 2)
	assert.Equal(t, ipc.MenuAction{Action: FileOpen, FilePaths: []string{"/tmp/a.md"}, FilePath: "/tmp/a.md"}, got[0])
	assert.Equal(t, ipc.MenuAction{Action: FileSaveAs, FilePath: "/tmp/out.json"}, got[1])
}

func TestThemeItemsPersistThroughSettings(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	assert.True(t, f.menu.Click(ctx, ViewThemeDark))
	assert.True(t, f.menu.Click(ctx, ViewThemeSystem))
	assert.Equal(t, []string{settings.ThemeDark, settings.ThemeAuto}, f.themes.set)

	f.themes.err = "settings validation failed"
	assert.False(t, f.menu.Click(ctx, ViewThemeLight))
}

func TestWindowItems(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	main, err := f.reg.CreateMain()
	require.NoError(t, err)

	require.True(t, f.menu.Click(ctx, ViewFullscreen))
	assert.True(t, main.IsMaximized())

	require.True(t, f.menu.Click(ctx, WindowSettings))
	assert.True(t, f.reg.Has(window.SettingsID))
	require.True(t, f.menu.Click(ctx, HelpAbout))
	assert.True(t, f.reg.Has(window.AboutID))

	require.True(t, f.menu.Click(ctx, WindowFront))
	require.True(t, main.IsFocused())
	require.True(t, f.menu.Click(ctx, WindowMinimize))
	assert.True(t, main.IsMinimized())

	require.True(t, f.menu.Click(ctx, WindowFront))
	require.True(t, f.menu.Click(ctx, WindowClose))
	assert.False(t, f.reg.Has(window.MainID))
}

func TestHelpLinksAndQuit(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.shell.On("OpenExternal", LearnMoreURL).Return(nil)
	f.shell.On("OpenExternal", RepositoryURL).Return(errors.New("no browser"))

	assert.True(t, f.menu.Click(ctx, HelpLearnMore))
	assert.False(t, f.menu.Click(ctx, HelpRepository))
	assert.True(t, f.menu.Click(ctx, FileQuit))
	assert.Equal(t, 1, f.quits)
	assert.False(t, f.menu.Click(ctx, "no-such-item"))
	f.shell.AssertExpectations(t)
}

func TestDisabledItems(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.menu.SetEnabled(FileQuit, false)

	assert.False(t, f.menu.Click(ctx, FileQuit))
	assert.Zero(t, f.quits)

	var quit host.MenuItem
	for _, it := range f.menu.Items()[0].Children {
		if it.ID == FileQuit {
			quit = it
		}
	}
	assert.True(t, quit.Disabled)

	f.menu.SetEnabled(FileQuit, true)
	assert.True(t, f.menu.Click(ctx, FileQuit))
}
