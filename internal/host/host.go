// Package host declares the privileged capabilities the managers are
// written against. Implementations live in the headless, native and
// hostmock subpackages.
package host

import "errors"

// ErrDialogCanceled is returned by Dialogs when the user dismisses a dialog.
var ErrDialogCanceled = errors.New("dialog canceled")

// ErrNotificationsUnsupported is returned by Notifier.Show on hosts without
// a notification service.
var ErrNotificationsUnsupported = errors.New("notifications are not supported on this system")

// Display is the usable work area of a screen.
type Display struct {
	Width  int
	Height int
}

// WindowOptions configures a new host window.
type WindowOptions struct {
	Label       string
	Title       string
	URL         string
	Width       int
	Height      int
	MinWidth    int
	MinHeight   int
	Resizable   bool
	Maximizable bool
	Minimizable bool
	Show        bool
}

// ThemeSource is the host's tri-state theme setting.
type ThemeSource string

const (
	ThemeLight  ThemeSource = "light"
	ThemeDark   ThemeSource = "dark"
	ThemeSystem ThemeSource = "system"
)

// WindowHost creates windows and reports screen and theme state.
type WindowHost interface {
	NewWindow(opts WindowOptions) (Window, error)
	PrimaryDisplay() Display
	// OnThemeUpdated registers fn for host theme changes; fn receives the
	// resolved dark flag.
	OnThemeUpdated(fn func(dark bool))
	ShouldUseDarkColors() bool
	SetThemeSource(src ThemeSource)
}

// Window is a host window handle. Methods on a destroyed window are no-ops.
type Window interface {
	Label() string
	Title() string
	Size() (width, height int)
	LoadURL(url string) error
	Show()
	Hide()
	Focus()
	Minimize()
	Maximize()
	Unmaximize()
	Restore()
	IsMaximized() bool
	IsMinimized() bool
	IsVisible() bool
	IsFocused() bool
	IsDestroyed() bool
	// Close asks the window to close; OnClosed observers run before it returns.
	Close()
	OnReadyToShow(fn func())
	OnClosed(fn func())
	OnFocus(fn func())
	OnBlur(fn func())
	// Send pushes an event to the renderers attached to this window.
	Send(channel string, args ...any)
}

// FileFilter restricts dialog selections by extension.
type FileFilter struct {
	Name       string   `json:"name"`
	Extensions []string `json:"extensions"`
}

// OpenDialogOptions configures an open dialog.
type OpenDialogOptions struct {
	Title       string       `json:"title,omitempty"`
	DefaultPath string       `json:"defaultPath,omitempty"`
	Filters     []FileFilter `json:"filters,omitempty"`
	Multiple    bool         `json:"multiple,omitempty"`
	Directory   bool         `json:"directory,omitempty"`
}

// SaveDialogOptions configures a save dialog.
type SaveDialogOptions struct {
	Title       string       `json:"title,omitempty"`
	DefaultPath string       `json:"defaultPath,omitempty"`
	Filters     []FileFilter `json:"filters,omitempty"`
}

// Dialogs shows native file dialogs.
type Dialogs interface {
	OpenFile(opts OpenDialogOptions) ([]string, error)
	SaveFile(opts SaveDialogOptions) (string, error)
}

// Notification is what the host presents.
type Notification struct {
	Title   string
	Body    string
	Icon    string
	Silent  bool
	Urgency string
}

// Notifier presents desktop notifications.
type Notifier interface {
	Supported() bool
	Show(n Notification) error
	// OnClick registers fn for clicks on presented notifications.
	OnClick(fn func(n Notification))
}

// LoginItems registers the app to start at login.
type LoginItems interface {
	SetLoginItem(openAtLogin, openAsHidden bool) error
}

// Shell opens paths and URLs with the desktop environment.
type Shell interface {
	ShowItemInFolder(path string) error
	OpenPath(path string) error
	OpenExternal(url string) error
}

// MenuItem is one entry of a tray or application menu. Items with
// Children are submenus; Separator items ignore every other field.
type MenuItem struct {
	ID        string
	Label     string
	Tooltip   string
	Separator bool
	Disabled  bool
	Checked   bool
	Children  []MenuItem
}

// Tray is the system tray icon.
type Tray interface {
	SetMenu(items []MenuItem, onClick func(id string))
	SetTooltip(tooltip string)
	// OnClick registers fn for clicks on the icon itself.
	OnClick(fn func())
	Destroy()
}

// Paths are the well-known directories.
type Paths struct {
	Documents string
	UserData  string
	Temp      string
}

// Lifecycle controls the process.
type Lifecycle interface {
	Quit()
	Relaunch()
	Paths() Paths
	// Done is closed once Quit or Relaunch was requested.
	Done() <-chan struct{}
	// Relaunching reports whether the requested exit should restart the process.
	Relaunching() bool
}

// Host bundles every capability. Tray may be nil on hosts without one.
type Host struct {
	Windows   WindowHost
	Dialogs   Dialogs
	Notifier  Notifier
	Login     LoginItems
	Shell     Shell
	Tray      Tray
	Lifecycle Lifecycle
}
