package headless

import (
	"sync"
	"testing"

	"github.com/cristianoliveira/deskbridge/internal/host"
	"github.com/stretchr/testify/require"
)

type recordingSink struct {
	mu     sync.Mutex
	events []string
}

func (r *recordingSink) Emit(window, channel string, args ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, window+":"+channel)
}

func TestWindowLifecycle(t *testing.T) {
	h := NewWindowHost(host.Display{Width: 1920, Height: 1080}, nil)
	w, err := h.NewWindow(host.WindowOptions{Label: "main", Title: "Main", Width: 800, Height: 600})
	require.NoError(t, err)

	ready := 0
	w.OnReadyToShow(func() { ready++ })
	require.NoError(t, w.LoadURL("http://localhost:3000"))
	require.Equal(t, 1, ready)
	require.False(t, w.IsVisible())

	w.Show()
	require.True(t, w.IsVisible())
	require.True(t, w.IsFocused())

	closed := 0
	w.OnClosed(func() { closed++ })
	w.Close()
	w.Close()
	require.Equal(t, 1, closed)
	require.True(t, w.IsDestroyed())
	require.False(t, w.IsFocused())
}

func TestFocusMovesBetweenWindows(t *testing.T) {
	h := NewWindowHost(host.Display{Width: 1920, Height: 1080}, nil)
	a, _ := h.NewWindow(host.WindowOptions{Label: "a", Show: true})
	b, _ := h.NewWindow(host.WindowOptions{Label: "b"})

	var log []string
	a.OnBlur(func() { log = append(log, "a-blur") })
	b.OnFocus(func() { log = append(log, "b-focus") })

	b.Focus()
	b.Focus()

	require.Equal(t, []string{"a-blur", "b-focus"}, log)
	require.False(t, a.IsFocused())
	require.True(t, b.IsFocused())
}

func TestThemeUpdatesFireOnlyOnChange(t *testing.T) {
	h := NewWindowHost(host.Display{}, nil)
	var got []bool
	h.OnThemeUpdated(func(dark bool) { got = append(got, dark) })

	h.SetThemeSource(host.ThemeDark)
	h.SetThemeSource(host.ThemeDark)
	h.SetSystemDark(true)
	h.SetThemeSource(host.ThemeLight)
	h.SetThemeSource(host.ThemeSystem)

	require.Equal(t, []bool{true, false, true}, got)
	require.True(t, h.ShouldUseDarkColors())
}

func TestSendRoutesToSink(t *testing.T) {
	h := NewWindowHost(host.Display{}, nil)
	w, _ := h.NewWindow(host.WindowOptions{Label: "w1"})

	w.Send("theme-changed", true)
	sink := &recordingSink{}
	h.SetSink(sink)
	w.Send("theme-changed", true)
	w.Close()
	w.Send("theme-changed", false)

	require.Equal(t, []string{"w1:theme-changed"}, sink.events)
}

func TestDialogsScriptedAnswers(t *testing.T) {
	d := &Dialogs{}
	_, err := d.OpenFile(host.OpenDialogOptions{})
	require.ErrorIs(t, err, host.ErrDialogCanceled)

	d.Answer("/a", "/b")
	paths, err := d.OpenFile(host.OpenDialogOptions{})
	require.NoError(t, err)
	require.Equal(t, []string{"/a"}, paths)

	d.Answer("/out.txt")
	p, err := d.SaveFile(host.SaveDialogOptions{})
	require.NoError(t, err)
	require.Equal(t, "/out.txt", p)
}

func TestLifecycleQuitIsIdempotent(t *testing.T) {
	l := NewLifecycle(host.Paths{UserData: "/tmp"})
	l.Relaunch()
	l.Quit()

	<-l.Done()
	require.True(t, l.Relaunching())
}
