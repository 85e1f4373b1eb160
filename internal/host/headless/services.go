package headless

import (
	"sync"

	"github.com/cristianoliveira/deskbridge/internal/host"
	"github.com/cristianoliveira/deskbridge/internal/logging"
)

// Dialogs answers dialogs from a scripted queue. With nothing queued every
// dialog is canceled.
type Dialogs struct {
	mu      sync.Mutex
	answers [][]string
}

var _ host.Dialogs = (*Dialogs)(nil)

// Answer queues the selection returned by the next dialog.
func (d *Dialogs) Answer(paths ...string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.answers = append(d.answers, paths)
}

func (d *Dialogs) next() ([]string, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.answers) == 0 {
		return nil, false
	}
	a := d.answers[0]
	d.answers = d.answers[1:]
	return a, len(a) > 0
}

func (d *Dialogs) OpenFile(opts host.OpenDialogOptions) ([]string, error) {
	paths, ok := d.next()
	if !ok {
		return nil, host.ErrDialogCanceled
	}
	if !opts.Multiple {
		paths = paths[:1]
	}
	return paths, nil
}

func (d *Dialogs) SaveFile(host.SaveDialogOptions) (string, error) {
	paths, ok := d.next()
	if !ok {
		return "", host.ErrDialogCanceled
	}
	return paths[0], nil
}

// Notifier logs notifications instead of presenting them.
type Notifier struct {
	mu          sync.Mutex
	log         logging.Logger
	unsupported bool
	shown       []host.Notification
	clickFns    []func(host.Notification)
}

var _ host.Notifier = (*Notifier)(nil)

func NewNotifier(log logging.Logger) *Notifier {
	if log == nil {
		log = logging.Discard()
	}
	return &Notifier{log: log}
}

// SetSupported toggles whether the host claims notification support.
func (n *Notifier) SetSupported(ok bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.unsupported = !ok
}

func (n *Notifier) Supported() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return !n.unsupported
}

func (n *Notifier) Show(note host.Notification) error {
	n.mu.Lock()
	if n.unsupported {
		n.mu.Unlock()
		return host.ErrNotificationsUnsupported
	}
	n.shown = append(n.shown, note)
	n.mu.Unlock()
	n.log.Info("notification", "title", note.Title, "body", note.Body, "urgency", note.Urgency, "silent", note.Silent)
	return nil
}

func (n *Notifier) OnClick(fn func(host.Notification)) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.clickFns = append(n.clickFns, fn)
}

// Click simulates the user clicking a presented notification.
func (n *Notifier) Click(note host.Notification) {
	n.mu.Lock()
	fns := append([]func(host.Notification){}, n.clickFns...)
	n.mu.Unlock()
	for _, fn := range fns {
		fn(note)
	}
}

// Shown returns the notifications presented so far.
func (n *Notifier) Shown() []host.Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]host.Notification(nil), n.shown...)
}

// LoginItems records the login item registration.
type LoginItems struct {
	mu           sync.Mutex
	openAtLogin  bool
	openAsHidden bool
}

var _ host.LoginItems = (*LoginItems)(nil)

func (l *LoginItems) SetLoginItem(openAtLogin, openAsHidden bool) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.openAtLogin, l.openAsHidden = openAtLogin, openAsHidden
	return nil
}

// State returns the last registration.
func (l *LoginItems) State() (openAtLogin, openAsHidden bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.openAtLogin, l.openAsHidden
}

// Shell logs every request.
type Shell struct {
	log logging.Logger
}

var _ host.Shell = Shell{}

func NewShell(log logging.Logger) Shell {
	if log == nil {
		log = logging.Discard()
	}
	return Shell{log: log}
}

func (s Shell) ShowItemInFolder(path string) error {
	s.log.Info("show item in folder", "path", path)
	return nil
}

func (s Shell) OpenPath(path string) error {
	s.log.Info("open path", "path", path)
	return nil
}

func (s Shell) OpenExternal(url string) error {
	s.log.Info("open external", "url", url)
	return nil
}

// Tray keeps the menu in memory.
type Tray struct {
	mu        sync.Mutex
	log       logging.Logger
	items     []host.MenuItem
	tooltip   string
	onItem    func(id string)
	onIcon    []func()
	destroyed bool
}

var _ host.Tray = (*Tray)(nil)

func NewTray(log logging.Logger) *Tray {
	if log == nil {
		log = logging.Discard()
	}
	return &Tray{log: log}
}

func (t *Tray) SetMenu(items []host.MenuItem, onClick func(id string)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.items, t.onItem = items, onClick
}

func (t *Tray) SetTooltip(tooltip string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.tooltip = tooltip
	t.log.Debug("tray tooltip", "tooltip", tooltip)
}

func (t *Tray) OnClick(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onIcon = append(t.onIcon, fn)
}

func (t *Tray) Destroy() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.destroyed = true
	t.items, t.onItem, t.onIcon = nil, nil, nil
}

// Items returns the current menu.
func (t *Tray) Items() []host.MenuItem {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.items
}

// Tooltip returns the current tooltip.
func (t *Tray) Tooltip() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.tooltip
}

// ClickItem simulates choosing a menu entry.
func (t *Tray) ClickItem(id string) {
	t.mu.Lock()
	fn := t.onItem
	t.mu.Unlock()
	if fn != nil {
		fn(id)
	}
}

// ClickIcon simulates clicking the tray icon.
func (t *Tray) ClickIcon() {
	t.mu.Lock()
	fns := append([]func(){}, t.onIcon...)
	t.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

// Lifecycle signals quit requests through Done.
type Lifecycle struct {
	paths    host.Paths
	once     sync.Once
	done     chan struct{}
	mu       sync.Mutex
	relaunch bool
}

var _ host.Lifecycle = (*Lifecycle)(nil)

func NewLifecycle(paths host.Paths) *Lifecycle {
	return &Lifecycle{paths: paths, done: make(chan struct{})}
}

func (l *Lifecycle) Quit() { l.once.Do(func() { close(l.done) }) }

func (l *Lifecycle) Relaunch() {
	l.mu.Lock()
	l.relaunch = true
	l.mu.Unlock()
	l.Quit()
}

func (l *Lifecycle) Relaunching() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.relaunch
}

func (l *Lifecycle) Paths() host.Paths     { return l.paths }
func (l *Lifecycle) Done() <-chan struct{} { return l.done }

// Host is the full headless capability set, keeping the concrete types
// reachable for tests and the native overlay.
type Host struct {
	Windows   *WindowHost
	Dialogs   *Dialogs
	Notifier  *Notifier
	Login     *LoginItems
	Shell     Shell
	Tray      *Tray
	Lifecycle *Lifecycle
}

// New builds a headless host.
func New(display host.Display, paths host.Paths, log logging.Logger) *Host {
	return &Host{
		Windows:   NewWindowHost(display, log),
		Dialogs:   &Dialogs{},
		Notifier:  NewNotifier(log),
		Login:     &LoginItems{},
		Shell:     NewShell(log),
		Tray:      NewTray(log),
		Lifecycle: NewLifecycle(paths),
	}
}

// Host returns the capabilities as interfaces.
func (h *Host) Host() host.Host {
	return host.Host{
		Windows:   h.Windows,
		Dialogs:   h.Dialogs,
		Notifier:  h.Notifier,
		Login:     h.Login,
		Shell:     h.Shell,
		Tray:      h.Tray,
		Lifecycle: h.Lifecycle,
	}
}
