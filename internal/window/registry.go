// Package window owns the mapping from window ids to host windows.
package window

import (
	"net/url"
	"strings"
	"sync"

	"github.com/cristianoliveira/deskbridge/internal/errors"
	"github.com/cristianoliveira/deskbridge/internal/host"
	"github.com/cristianoliveira/deskbridge/internal/ipc"
	"github.com/cristianoliveira/deskbridge/internal/logging"
)

// Well-known window ids.
const (
	MainID     = "main"
	SettingsID = "settings"
	AboutID    = "about"
)

// Main window sizing.
const (
	PreferredWidth  = 1200
	PreferredHeight = 800
	DisplayMargin   = 100
	MainMinWidth    = 800
	MainMinHeight   = 600
	defaultWidth    = 800
	defaultHeight   = 600
)

const titlePrefix = "deskbridge"

// Registry is the only owner of id to window handles. An id in the
// registry always denotes a live window: close notifications remove it
// before Close returns.
type Registry struct {
	host        host.WindowHost
	log         logging.Logger
	rendererURL string

	mu         sync.Mutex
	windows    map[string]host.Window
	order      []string
	mainID     string
	allClosed  []func()
	closed     []func(id string)
	hiddenMain bool
}

// NewRegistry creates a registry and subscribes to host theme updates once.
func NewRegistry(h host.WindowHost, rendererURL string, log logging.Logger) *Registry {
	if log == nil {
		log = logging.Discard()
	}
	r := &Registry{
		host:        h,
		log:         log,
		rendererURL: strings.TrimRight(rendererURL, "/"),
		windows:     make(map[string]host.Window),
	}
	h.OnThemeUpdated(func(dark bool) {
		r.Broadcast(ipc.EventThemeChanged, dark)
	})
	return r
}

// StartHidden keeps the main window hidden after ready-to-show, for
// launches at login.
func (r *Registry) StartHidden(hidden bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hiddenMain = hidden
}

// MainSize returns the main window size for a display work area.
func MainSize(d host.Display) (width, height int) {
	return min(PreferredWidth, d.Width-DisplayMargin), min(PreferredHeight, d.Height-DisplayMargin)
}

// CreateMain creates the main window hidden and shows it once ready.
// An existing main window is focused and returned.
func (r *Registry) CreateMain() (host.Window, error) {
	w, h := MainSize(r.host.PrimaryDisplay())
	hidden := false
	win, created, err := r.create(ipc.WindowConfig{
		ID:        MainID,
		Title:     titlePrefix,
		Width:     w,
		Height:    h,
		MinWidth:  MainMinWidth,
		MinHeight: MainMinHeight,
		Show:      &hidden,
	}, func() bool {
		r.mu.Lock()
		defer r.mu.Unlock()
		return !r.hiddenMain
	})
	if err != nil || !created {
		return win, err
	}
	r.mu.Lock()
	r.mainID = MainID
	r.mu.Unlock()
	r.log.Info("main window created", "width", w, "height", h)
	return win, r.load(win, MainID, "")
}

// CreateSettings opens the settings window.
func (r *Registry) CreateSettings() (host.Window, error) {
	hidden, notMax := false, false
	return r.createRoute(ipc.WindowConfig{
		ID: SettingsID, Title: titlePrefix + " - Settings",
		Width: 600, Height: 500, MinWidth: 500, MinHeight: 400,
		Maximizable: &notMax, Show: &hidden,
	})
}

// CreateAbout opens the about window.
func (r *Registry) CreateAbout() (host.Window, error) {
	hidden, fixed := false, false
	return r.createRoute(ipc.WindowConfig{
		ID: AboutID, Title: titlePrefix + " - About",
		Width: 400, Height: 300, MinWidth: 400, MinHeight: 300,
		Resizable: &fixed, Maximizable: &fixed, Show: &hidden,
	})
}

func (r *Registry) createRoute(cfg ipc.WindowConfig) (host.Window, error) {
	win, created, err := r.create(cfg, func() bool { return true })
	if err != nil || !created {
		return win, err
	}
	return win, r.load(win, cfg.ID, "")
}

// Create creates a window, or focuses and returns the live window already
// registered under cfg.ID.
func (r *Registry) Create(cfg ipc.WindowConfig) (host.Window, error) {
	if strings.TrimSpace(cfg.ID) == "" {
		return nil, errors.Validation("window.create", "window id is required")
	}
	if cfg.URL != "" && !r.allowedURL(cfg.URL) {
		return nil, errors.Validation("window.create", "navigation to %q is not allowed", cfg.URL)
	}
	win, created, err := r.create(cfg, func() bool { return true })
	if err != nil || !created {
		return win, err
	}
	return win, r.load(win, cfg.ID, cfg.URL)
}

// create registers a new window. showOnReady decides at ready-to-show time
// whether a window created hidden is shown.
func (r *Registry) create(cfg ipc.WindowConfig, showOnReady func() bool) (host.Window, bool, error) {
	r.mu.Lock()
	if existing, ok := r.windows[cfg.ID]; ok && !existing.IsDestroyed() {
		r.mu.Unlock()
		existing.Focus()
		r.log.Debug("window already open, focused", "id", cfg.ID)
		return existing, false, nil
	}

	opts := host.WindowOptions{
		Label:       cfg.ID,
		Title:       cfg.Title,
		Width:       orDefault(cfg.Width, defaultWidth),
		Height:      orDefault(cfg.Height, defaultHeight),
		MinWidth:    cfg.MinWidth,
		MinHeight:   cfg.MinHeight,
		Resizable:   boolOr(cfg.Resizable, true),
		Maximizable: boolOr(cfg.Maximizable, true),
		Minimizable: boolOr(cfg.Minimizable, true),
		Show:        boolOr(cfg.Show, true),
	}
	if opts.Title == "" {
		opts.Title = titlePrefix + " - " + cfg.ID
	}
	win, err := r.host.NewWindow(opts)
	if err != nil {
		r.mu.Unlock()
		return nil, false, errors.HostIO("window.create", err)
	}
	// A destroyed entry whose close was never reported keeps its slot.
	if _, replacing := r.windows[cfg.ID]; !replacing {
		r.order = append(r.order, cfg.ID)
	}
	r.windows[cfg.ID] = win
	r.mu.Unlock()

	id := cfg.ID
	if !opts.Show {
		win.OnReadyToShow(func() {
			if showOnReady() {
				win.Show()
			}
		})
	}
	win.OnClosed(func() { r.forget(id, win) })
	win.OnFocus(func() { win.Send(ipc.EventWindowFocus, ipc.WindowRef{ID: id}) })
	win.OnBlur(func() { win.Send(ipc.EventWindowBlur, ipc.WindowRef{ID: id}) })

	r.log.Info("window created", "id", id, "width", opts.Width, "height", opts.Height)
	return win, true, nil
}

func (r *Registry) load(win host.Window, id, target string) error {
	if target == "" {
		target = r.routeURL(id)
	}
	if err := win.LoadURL(target); err != nil {
		return errors.HostIO("window.load", err)
	}
	return nil
}

func (r *Registry) routeURL(id string) string {
	if id == MainID {
		return r.rendererURL
	}
	return r.rendererURL + "#/" + id
}

// allowedURL accepts the renderer origin, localhost and file URLs.
func (r *Registry) allowedURL(raw string) bool {
	if strings.HasPrefix(raw, "file://") || strings.HasPrefix(raw, "http://localhost") {
		return true
	}
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	base, err := url.Parse(r.rendererURL)
	return err == nil && u.Scheme == base.Scheme && u.Host == base.Host
}

// forget runs synchronously with the host close notification.
func (r *Registry) forget(id string, win host.Window) {
	r.mu.Lock()
	if r.windows[id] != win {
		r.mu.Unlock()
		return
	}
	delete(r.windows, id)
	for i, v := range r.order {
		if v == id {
			r.order = append(r.order[:i:i], r.order[i+1:]...)
			break
		}
	}
	if r.mainID == id {
		r.mainID = ""
	}
	empty := len(r.windows) == 0
	fns := append([]func(){}, r.allClosed...)
	closed := append([]func(string){}, r.closed...)
	r.mu.Unlock()

	r.log.Info("window closed", "id", id)
	for _, fn := range closed {
		fn(id)
	}
	if empty {
		for _, fn := range fns {
			fn()
		}
	}
}

// OnClosed registers fn to run after window id left the registry.
func (r *Registry) OnClosed(fn func(id string)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = append(r.closed, fn)
}

// OnAllClosed registers fn to run when the last window closes.
func (r *Registry) OnAllClosed(fn func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.allClosed = append(r.allClosed, fn)
}

// Get returns the live window registered under id.
func (r *Registry) Get(id string) (host.Window, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.windows[id]
	if !ok || w.IsDestroyed() {
		return nil, false
	}
	return w, true
}

// Has reports whether id is a live window.
func (r *Registry) Has(id string) bool {
	_, ok := r.Get(id)
	return ok
}

// Main returns the main window, if open.
func (r *Registry) Main() (host.Window, bool) {
	r.mu.Lock()
	id := r.mainID
	r.mu.Unlock()
	if id == "" {
		return nil, false
	}
	return r.Get(id)
}

// Focused returns the focused live window.
func (r *Registry) Focused() (host.Window, bool) {
	for _, w := range r.live() {
		if w.IsFocused() {
			return w, true
		}
	}
	return nil, false
}

// Close closes the window. Closing an absent window returns false.
func (r *Registry) Close(id string) bool { return r.with(id, host.Window.Close) }

func (r *Registry) Minimize(id string) bool { return r.with(id, host.Window.Minimize) }

// Maximize toggles between maximized and normal.
func (r *Registry) Maximize(id string) bool {
	return r.with(id, func(w host.Window) {
		if w.IsMaximized() {
			w.Unmaximize()
		} else {
			w.Maximize()
		}
	})
}

func (r *Registry) Restore(id string) bool { return r.with(id, host.Window.Restore) }
func (r *Registry) Focus(id string) bool   { return r.with(id, host.Window.Focus) }

func (r *Registry) with(id string, fn func(host.Window)) bool {
	w, ok := r.Get(id)
	if !ok {
		return false
	}
	fn(w)
	return true
}

// live returns the live windows in insertion order.
func (r *Registry) live() []host.Window {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]host.Window, 0, len(r.order))
	for _, id := range r.order {
		if w := r.windows[id]; w != nil && !w.IsDestroyed() {
			out = append(out, w)
		}
	}
	return out
}

// HideAll hides every live window.
func (r *Registry) HideAll() {
	for _, w := range r.live() {
		w.Hide()
	}
}

// ShowAll shows every live window.
func (r *Registry) ShowAll() {
	for _, w := range r.live() {
		w.Show()
	}
}

// AnyVisible reports whether a live window is visible.
func (r *Registry) AnyVisible() bool {
	for _, w := range r.live() {
		if w.IsVisible() {
			return true
		}
	}
	return false
}

// AllInfo returns a fresh snapshot of the live windows in insertion order.
func (r *Registry) AllInfo() []ipc.WindowInfo {
	wins := r.live()
	out := make([]ipc.WindowInfo, 0, len(wins))
	for _, w := range wins {
		out = append(out, ipc.WindowInfo{
			ID:        w.Label(),
			Title:     w.Title(),
			IsVisible: w.IsVisible(),
			IsFocused: w.IsFocused(),
		})
	}
	return out
}

// Count returns the number of live windows.
func (r *Registry) Count() int { return len(r.live()) }

// Broadcast sends an event to every live window in insertion order.
func (r *Registry) Broadcast(channel string, args ...any) {
	for _, w := range r.live() {
		w.Send(channel, args...)
	}
}

// SendTo sends an event to one window and reports whether it exists.
func (r *Registry) SendTo(id, channel string, args ...any) bool {
	return r.with(id, func(w host.Window) { w.Send(channel, args...) })
}

// CloseAll closes every window, used at shutdown.
func (r *Registry) CloseAll() {
	for _, w := range r.live() {
		w.Close()
	}
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

func boolOr(v *bool, def bool) bool {
	if v == nil {
		return def
	}
	return *v
}
