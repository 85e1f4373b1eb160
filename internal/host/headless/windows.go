// Package headless implements the host capabilities without a native
// toolkit. Windows are bookkeeping only: renderers attach to them through
// the bridge, and Send is forwarded to an EventSink.
package headless

import (
	"sync"

	"github.com/cristianoliveira/deskbridge/internal/host"
	"github.com/cristianoliveira/deskbridge/internal/logging"
)

// EventSink receives events sent to a window.
type EventSink interface {
	Emit(window, channel string, args ...any)
}

// WindowHost is an in-memory host.WindowHost.
type WindowHost struct {
	mu          sync.Mutex
	log         logging.Logger
	display     host.Display
	sink        EventSink
	themeSource host.ThemeSource
	systemDark  bool
	dark        bool
	themeFns    []func(bool)
	focused     *window
}

var _ host.WindowHost = (*WindowHost)(nil)

// NewWindowHost returns a host reporting display as the primary work area.
func NewWindowHost(display host.Display, log logging.Logger) *WindowHost {
	if log == nil {
		log = logging.Discard()
	}
	return &WindowHost{display: display, log: log, themeSource: host.ThemeSystem}
}

// SetSink routes Window.Send to sink. Events sent before a sink exists are dropped.
func (h *WindowHost) SetSink(sink EventSink) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.sink = sink
}

func (h *WindowHost) PrimaryDisplay() host.Display {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.display
}

// SetDisplay changes the reported work area.
func (h *WindowHost) SetDisplay(d host.Display) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.display = d
}

func (h *WindowHost) OnThemeUpdated(fn func(dark bool)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.themeFns = append(h.themeFns, fn)
}

func (h *WindowHost) ShouldUseDarkColors() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.dark
}

func (h *WindowHost) SetThemeSource(src host.ThemeSource) {
	h.mu.Lock()
	h.themeSource = src
	h.mu.Unlock()
	h.resolveTheme()
}

// SetSystemDark simulates the operating system switching appearance.
func (h *WindowHost) SetSystemDark(dark bool) {
	h.mu.Lock()
	h.systemDark = dark
	h.mu.Unlock()
	h.resolveTheme()
}

// resolveTheme fires the theme observers when the resolved value changed.
func (h *WindowHost) resolveTheme() {
	h.mu.Lock()
	dark := h.systemDark
	switch h.themeSource {
	case host.ThemeLight:
		dark = false
	case host.ThemeDark:
		dark = true
	}
	if dark == h.dark {
		h.mu.Unlock()
		return
	}
	h.dark = dark
	fns := append([]func(bool){}, h.themeFns...)
	h.mu.Unlock()

	h.log.Debug("theme updated", "dark", dark)
	for _, fn := range fns {
		fn(dark)
	}
}

func (h *WindowHost) NewWindow(opts host.WindowOptions) (host.Window, error) {
	w := &window{host: h, opts: opts}
	h.log.Debug("window created", "label", opts.Label, "width", opts.Width, "height", opts.Height)
	if opts.Show {
		w.Show()
	}
	return w, nil
}

func (h *WindowHost) emit(label, channel string, args []any) {
	h.mu.Lock()
	sink := h.sink
	h.mu.Unlock()
	if sink == nil {
		h.log.Debug("event dropped, no sink", "window", label, "channel", channel)
		return
	}
	sink.Emit(label, channel, args...)
}

// setFocused moves focus to w. It returns the window that
// lost focus and whether anything changed.
func (h *WindowHost) setFocused(w *window) (*window, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	prev := h.focused
	if prev == w {
		return nil, false
	}
	h.focused = w
	return prev, true
}

// clearFocus drops focus if w holds it and reports whether it did.
func (h *WindowHost) clearFocus(w *window) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.focused != w {
		return false
	}
	h.focused = nil
	return true
}

func (h *WindowHost) isFocused(w *window) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.focused == w
}

type window struct {
	host *WindowHost

	mu        sync.Mutex
	opts      host.WindowOptions
	url       string
	visible   bool
	minimized bool
	maximized bool
	destroyed bool
	ready     []func()
	closed    []func()
	focus     []func()
	blur      []func()
}

func (w *window) Label() string { return w.opts.Label }

func (w *window) Title() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.opts.Title
}

func (w *window) Size() (int, int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.opts.Width, w.opts.Height
}

// LoadURL records the URL and reports the window as ready to show.
func (w *window) LoadURL(url string) error {
	w.mu.Lock()
	if w.destroyed {
		w.mu.Unlock()
		return nil
	}
	w.url = url
	fns := append([]func(){}, w.ready...)
	w.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
	return nil
}

func (w *window) Show() {
	if !w.set(func() { w.visible = true; w.minimized = false }) {
		return
	}
	w.Focus()
}

func (w *window) Hide() {
	if !w.set(func() { w.visible = false }) {
		return
	}
	if w.host.clearFocus(w) {
		w.fire(&w.blur)
	}
}

func (w *window) Focus() {
	if w.IsDestroyed() {
		return
	}
	prev, changed := w.host.setFocused(w)
	if !changed {
		return
	}
	if prev != nil {
		prev.fire(&prev.blur)
	}
	w.fire(&w.focus)
}

func (w *window) Minimize() {
	if w.set(func() { w.minimized = true }) && w.host.clearFocus(w) {
		w.fire(&w.blur)
	}
}

func (w *window) Maximize()   { w.set(func() { w.maximized = true; w.minimized = false }) }
func (w *window) Unmaximize() { w.set(func() { w.maximized = false }) }
func (w *window) Restore()    { w.set(func() { w.minimized = false; w.visible = true }) }

func (w *window) IsMaximized() bool { return w.get(func() bool { return w.maximized }) }
func (w *window) IsMinimized() bool { return w.get(func() bool { return w.minimized }) }
func (w *window) IsVisible() bool   { return w.get(func() bool { return w.visible }) }
func (w *window) IsDestroyed() bool { return w.get(func() bool { return w.destroyed }) }

func (w *window) IsFocused() bool {
	return !w.IsDestroyed() && w.host.isFocused(w)
}

func (w *window) Close() {
	w.mu.Lock()
	if w.destroyed {
		w.mu.Unlock()
		return
	}
	w.destroyed = true
	w.visible = false
	fns := append([]func(){}, w.closed...)
	w.mu.Unlock()

	w.host.clearFocus(w)
	w.host.log.Debug("window closed", "label", w.opts.Label)
	for _, fn := range fns {
		fn()
	}
}

func (w *window) OnReadyToShow(fn func()) { w.add(&w.ready, fn) }
func (w *window) OnClosed(fn func())      { w.add(&w.closed, fn) }
func (w *window) OnFocus(fn func())       { w.add(&w.focus, fn) }
func (w *window) OnBlur(fn func())        { w.add(&w.blur, fn) }

func (w *window) Send(channel string, args ...any) {
	if w.IsDestroyed() {
		return
	}
	w.host.emit(w.opts.Label, channel, args)
}

// set applies fn unless the window is destroyed and reports whether it ran.
func (w *window) set(fn func()) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.destroyed {
		return false
	}
	fn()
	return true
}

func (w *window) get(fn func() bool) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return fn()
}

func (w *window) add(list *[]func(), fn func()) {
	w.mu.Lock()
	defer w.mu.Unlock()
	*list = append(*list, fn)
}

func (w *window) fire(list *[]func()) {
	w.mu.Lock()
	fns := append([]func(){}, (*list)...)
	w.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}
