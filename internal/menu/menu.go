// Package menu defines the application menu and resolves its items to
// host operations or menu-action events for the focused window.
package menu

import (
	"context"
	"sync"

	"github.com/cristianoliveira/deskbridge/internal/host"
	"github.com/cristianoliveira/deskbridge/internal/ipc"
	"github.com/cristianoliveira/deskbridge/internal/logging"
	"github.com/cristianoliveira/deskbridge/internal/settings"
)

// Help links.
const (
	LearnMoreURL  = "https://github.com/cristianoliveira/deskbridge#readme"
	RepositoryURL = "https://github.com/cristianoliveira/deskbridge"
)

// Item ids. Ids that are also menu-action names are sent as-is.
const (
	FileNew         = "new-document"
	FileOpen        = "open-file"
	FileSave        = "save-file"
	FileSaveAs      = "save-file-as"
	FileImport      = "import-data"
	FileExport      = "export-data"
	FilePreferences = "open-settings"
	FileQuit        = "quit"

	EditUndo      = "undo"
	EditRedo      = "redo"
	EditCut       = "cut"
	EditCopy      = "copy"
	EditPaste     = "paste"
	EditSelectAll = "select-all"
	EditFind      = "show-find"
	EditReplace   = "show-replace"

	ViewReload      = "reload"
	ViewForceReload = "force-reload"
	ViewDevTools    = "toggle-devtools"
	ViewZoomReset   = "zoom-reset"
	ViewZoomIn      = "zoom-in"
	ViewZoomOut     = "zoom-out"
	ViewFullscreen  = "toggle-fullscreen"
	ViewThemeLight  = "theme-light"
	ViewThemeDark   = "theme-dark"
	ViewThemeSystem = "theme-system"

	WindowMinimize = "minimize"
	WindowClose    = "close"
	WindowNew      = "create-new-window"
	WindowSettings = "settings-window"
	WindowFront    = "bring-to-front"

	HelpLearnMore  = "learn-more"
	HelpRepository = "repository"
	HelpShortcuts  = "show-keyboard-shortcuts"
	HelpUpdates    = "check-updates"
	HelpAbout      = "about"
)

// Windows is the part of the window registry the menu drives.
type Windows interface {
	Main() (host.Window, bool)
	Focused() (host.Window, bool)
	CreateSettings() (host.Window, error)
	CreateAbout() (host.Window, error)
}

// Themes persists a theme choice; *settings.Manager satisfies it.
type Themes interface {
	Set(ctx context.Context, p settings.Patch) ipc.Envelope
}

// Deps are the collaborators of the menu.
type Deps struct {
	Windows Windows
	Dialogs host.Dialogs
	Shell   host.Shell
	Themes  Themes
	Quit    func()
	Log     logging.Logger
}

type Menu struct {
	deps Deps
	log  logging.Logger

	mu       sync.Mutex
	disabled map[string]bool
}

func New(deps Deps) *Menu {
	log := deps.Log
	if log == nil {
		log = logging.Discard()
	}
	return &Menu{deps: deps, log: log.With("component", "menu"), disabled: make(map[string]bool)}
}

// SetEnabled toggles an item; disabled items ignore clicks.
func (m *Menu) SetEnabled(id string, enabled bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.disabled[id] = !enabled
}

func (m *Menu) isDisabled(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.disabled[id]
}

// Items returns the menu tree with the current enabled state.
func (m *Menu) Items() []host.MenuItem {
	return m.mark(template())
}

func (m *Menu) mark(items []host.MenuItem) []host.MenuItem {
	out := make([]host.MenuItem, len(items))
	for i, it := range items {
		it.Disabled = m.isDisabled(it.ID)
		if len(it.Children) > 0 {
			it.Children = m.mark(it.Children)
		}
		out[i] = it
	}
	return out
}

func template() []host.MenuItem {
	sep := host.MenuItem{Separator: true}
	return []host.MenuItem{
		{Label: "File", Children: []host.MenuItem{
			{ID: FileNew, Label: "New", Tooltip: "CmdOrCtrl+N"},
			{ID: FileOpen, Label: "Open...", Tooltip: "CmdOrCtrl+O"},
			sep,
			{ID: FileSave, Label: "Save", Tooltip: "CmdOrCtrl+S"},
			{ID: FileSaveAs, Label: "Save As...", Tooltip: "CmdOrCtrl+Shift+S"},
			sep,
			{ID: FileImport, Label: "Import data"},
			{ID: FileExport, Label: "Export data"},
			sep,
			{ID: FilePreferences, Label: "Preferences", Tooltip: "CmdOrCtrl+,"},
			sep,
			{ID: FileQuit, Label: "Quit", Tooltip: "CmdOrCtrl+Q"},
		}},
		{Label: "Edit", Children: []host.MenuItem{
			{ID: EditUndo, Label: "Undo", Tooltip: "CmdOrCtrl+Z"},
			{ID: EditRedo, Label: "Redo", Tooltip: "Shift+CmdOrCtrl+Z"},
			sep,
			{ID: EditCut, Label: "Cut", Tooltip: "CmdOrCtrl+X"},
			{ID: EditCopy, Label: "Copy", Tooltip: "CmdOrCtrl+C"},
			{ID: EditPaste, Label: "Paste", Tooltip: "CmdOrCtrl+V"},
			{ID: EditSelectAll, Label: "Select All", Tooltip: "CmdOrCtrl+A"},
			sep,
			{ID: EditFind, Label: "Find", Tooltip: "CmdOrCtrl+F"},
			{ID: EditReplace, Label: "Replace", Tooltip: "CmdOrCtrl+H"},
		}},
		{Label: "View", Children: []host.MenuItem{
			{ID: ViewReload, Label: "Reload", Tooltip: "CmdOrCtrl+R"},
			{ID: ViewForceReload, Label: "Force Reload", Tooltip: "CmdOrCtrl+Shift+R"},
			{ID: ViewDevTools, Label: "Toggle Developer Tools", Tooltip: "CmdOrCtrl+Shift+I"},
			sep,
			{ID: ViewZoomReset, Label: "Actual Size", Tooltip: "CmdOrCtrl+0"},
			{ID: ViewZoomIn, Label: "Zoom In", Tooltip: "CmdOrCtrl+Plus"},
			{ID: ViewZoomOut, Label: "Zoom Out", Tooltip: "CmdOrCtrl+-"},
			sep,
			{ID: ViewFullscreen, Label: "Toggle Full Screen", Tooltip: "F11"},
			sep,
			{Label: "Theme", Children: []host.MenuItem{
				{ID: ViewThemeLight, Label: "Light"},
				{ID: ViewThemeDark, Label: "Dark"},
				{ID: ViewThemeSystem, Label: "Follow System"},
			}},
		}},
		{Label: "Window", Children: []host.MenuItem{
			{ID: WindowMinimize, Label: "Minimize", Tooltip: "CmdOrCtrl+M"},
			{ID: WindowClose, Label: "Close", Tooltip: "CmdOrCtrl+W"},
			sep,
			{ID: WindowNew, Label: "New Window", Tooltip: "CmdOrCtrl+Shift+N"},
			{ID: WindowSettings, Label: "Settings Window"},
			sep,
			{ID: WindowFront, Label: "Bring All to Front"},
		}},
		{Label: "Help", Children: []host.MenuItem{
			{ID: HelpLearnMore, Label: "Learn More"},
			{ID: HelpRepository, Label: "Repository"},
			sep,
			{ID: HelpShortcuts, Label: "Keyboard Shortcuts"},
			{ID: HelpUpdates, Label: "Check for Updates"},
			sep,
			{ID: HelpAbout, Label: "About deskbridge"},
		}},
	}
}

// forwarded items are handled by the renderer of the focused window.
var forwarded = map[string]bool{
	FileNew: true, FileSave: true, FileImport: true, FileExport: true, FilePreferences: true,
	EditUndo: true, EditRedo: true, EditCut: true, EditCopy: true, EditPaste: true,
	EditSelectAll: true, EditFind: true, EditReplace: true,
	ViewReload: true, ViewForceReload: true, ViewDevTools: true,
	ViewZoomReset: true, ViewZoomIn: true, ViewZoomOut: true,
	WindowNew: true, HelpShortcuts: true, HelpUpdates: true,
}

var themes = map[string]string{
	ViewThemeLight:  settings.ThemeLight,
	ViewThemeDark:   settings.ThemeDark,
	ViewThemeSystem: settings.ThemeAuto,
}

// Click runs the item id and reports whether it was handled.
func (m *Menu) Click(ctx context.Context, id string) bool {
	if m.isDisabled(id) {
		m.log.Debug("disabled menu item clicked", "id", id)
		return false
	}
	if forwarded[id] {
		return m.send(ipc.MenuAction{Action: id})
	}
	if theme, ok := themes[id]; ok {
		return m.setTheme(ctx, theme)
	}

	switch id {
	case FileOpen:
		return m.open()
	case FileSaveAs:
		return m.saveAs()
	case FileQuit:
		if m.deps.Quit != nil {
			m.deps.Quit()
		}
		return true
	case WindowMinimize:
		return m.focused(host.Window.Minimize)
	case WindowClose:
		return m.focused(host.Window.Close)
	case ViewFullscreen:
		return m.focused(func(w host.Window) {
			if w.IsMaximized() {
				w.Unmaximize()
			} else {
				w.Maximize()
			}
		})
	case WindowSettings:
		return m.create(m.deps.Windows.CreateSettings)
	case HelpAbout:
		return m.create(m.deps.Windows.CreateAbout)
	case WindowFront:
		w, ok := m.deps.Windows.Main()
		if !ok {
			return false
		}
		w.Show()
		w.Focus()
		return true
	case HelpLearnMore:
		return m.external(LearnMoreURL)
	case HelpRepository:
		return m.external(RepositoryURL)
	}
	m.log.Warn("unknown menu item", "id", id)
	return false
}

func (m *Menu) send(action ipc.MenuAction) bool {
	w, ok := m.deps.Windows.Focused()
	if !ok {
		m.log.Debug("menu action dropped, no focused window", "action", action.Action)
		return false
	}
	w.Send(ipc.EventMenuAction, action)
	return true
}

func (m *Menu) focused(fn func(host.Window)) bool {
	w, ok := m.deps.Windows.Focused()
	if !ok {
		return false
	}
	fn(w)
	return true
}

func (m *Menu) create(fn func() (host.Window, error)) bool {
	if _, err := fn(); err != nil {
		m.log.Error("open window failed", "error", err.Error())
		return false
	}
	return true
}

func (m *Menu) open() bool {
	paths, err := m.deps.Dialogs.OpenFile(host.OpenDialogOptions{
		Filters: []host.FileFilter{
			{Name: "All Files", Extensions: []string{"*"}},
			{Name: "Text", Extensions: []string{"txt", "md"}},
			{Name: "JSON", Extensions: []string{"json"}},
		},
	})
	if err != nil || len(paths) == 0 {
		return false
	}
	return m.send(ipc.MenuAction{Action: FileOpen, FilePaths: paths, FilePath: paths[0]})
}

func (m *Menu) saveAs() bool {
	path, err := m.deps.Dialogs.SaveFile(host.SaveDialogOptions{
		Filters: []host.FileFilter{
			{Name: "Text", Extensions: []string{"txt"}},
			{Name: "JSON", Extensions: []string{"json"}},
		},
	})
	if err != nil || path == "" {
		return false
	}
	return m.send(ipc.MenuAction{Action: FileSaveAs, FilePath: path})
}

func (m *Menu) setTheme(ctx context.Context, theme string) bool {
	if env := m.deps.Themes.Set(ctx, settings.Patch{Theme: &theme}); !env.Success {
		m.log.Error("set theme from menu failed", "theme", theme, "error", env.Error)
		return false
	}
	m.send(ipc.MenuAction{Action: "set-theme", Theme: theme})
	return true
}

func (m *Menu) external(url string) bool {
	if err := m.deps.Shell.OpenExternal(url); err != nil {
		m.log.Error("open external failed", "url", url, "error", err.Error())
		return false
	}
	return true
}
