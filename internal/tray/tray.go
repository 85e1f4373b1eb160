// Package tray drives the system tray icon: its context menu, icon clicks
// and the tooltip renderers update through system:tray-update.
package tray

import (
	"strings"

	"github.com/cristianoliveira/deskbridge/internal/errors"
	"github.com/cristianoliveira/deskbridge/internal/host"
	"github.com/cristianoliveira/deskbridge/internal/ipc"
	"github.com/cristianoliveira/deskbridge/internal/logging"
)

// DefaultTooltip is shown until a renderer replaces it.
const DefaultTooltip = "deskbridge"

// Menu item ids.
const (
	ItemShow         = "show"
	ItemHide         = "hide"
	ItemNewWindow    = "new-window"
	ItemSettings     = "settings"
	ItemDataManager  = "data-manager"
	ItemFileManager  = "file-manager"
	ItemSystemInfo   = "system-info"
	ItemNotification = "test-notification"
	ItemCheckUpdates = "check-updates"
	ItemAbout        = "about"
	ItemQuit         = "quit"
)

// Windows is the part of the window registry the tray drives.
type Windows interface {
	Main() (host.Window, bool)
	Focused() (host.Window, bool)
	CreateMain() (host.Window, error)
}

// Controller owns the tray icon. A nil host tray turns every call into a
// no-op so hosts without a tray need no special casing.
type Controller struct {
	tray    host.Tray
	windows Windows
	quit    func()
	log     logging.Logger
}

// New returns a controller; quit runs for the quit item.
func New(t host.Tray, windows Windows, quit func(), log logging.Logger) *Controller {
	if log == nil {
		log = logging.Discard()
	}
	return &Controller{tray: t, windows: windows, quit: quit, log: log.With("component", "tray")}
}

// Available reports whether the host has a tray.
func (c *Controller) Available() bool { return c.tray != nil }

// Start installs the tooltip, the context menu and the icon click handler.
func (c *Controller) Start() {
	if c.tray == nil {
		return
	}
	c.tray.SetTooltip(DefaultTooltip)
	c.tray.SetMenu(Items(), c.Click)
	c.tray.OnClick(c.Toggle)
	c.log.Info("tray created")
}

// Items is the tray context menu.
func Items() []host.MenuItem {
	return []host.MenuItem{
		{ID: ItemShow, Label: "Show main window"},
		{ID: ItemHide, Label: "Hide main window"},
		{Separator: true},
		{ID: ItemNewWindow, Label: "New window"},
		{ID: ItemSettings, Label: "Settings"},
		{Separator: true},
		{Label: "Features", Children: []host.MenuItem{
			{ID: ItemDataManager, Label: "Data manager"},
			{ID: ItemFileManager, Label: "File manager"},
			{ID: ItemSystemInfo, Label: "System info"},
			{Separator: true},
			{ID: ItemNotification, Label: "Send test notification"},
		}},
		{Separator: true},
		{ID: ItemCheckUpdates, Label: "Check for updates"},
		{ID: ItemAbout, Label: "About"},
		{Separator: true},
		{ID: ItemQuit, Label: "Quit"},
	}
}

// Click runs the action of the menu item id.
func (c *Controller) Click(id string) {
	c.log.Debug("tray item clicked", "id", id)
	switch id {
	case ItemShow:
		c.ShowMain()
	case ItemHide:
		if w, ok := c.windows.Main(); ok {
			w.Hide()
		}
	case ItemNewWindow:
		c.newWindow()
	case ItemSettings:
		c.sendAndShow(ipc.TrayOpenSettings)
	case ItemDataManager:
		c.sendAndShow(ipc.TrayOpenDataManager)
	case ItemFileManager:
		c.sendAndShow(ipc.TrayOpenFileManager)
	case ItemSystemInfo:
		c.sendAndShow(ipc.TrayShowSystemInfo)
	case ItemAbout:
		c.sendAndShow(ipc.TrayShowAbout)
	case ItemNotification:
		c.send(ipc.TraySendNotification)
	case ItemCheckUpdates:
		c.send(ipc.TrayCheckUpdates)
	case ItemQuit:
		if c.quit != nil {
			c.quit()
		}
	default:
		c.log.Warn("unknown tray item", "id", id)
	}
}

// Toggle hides the main window when it is visible and focused, otherwise
// shows it, creating it when none is open.
func (c *Controller) Toggle() {
	w, ok := c.windows.Main()
	if ok && w.IsVisible() && w.IsFocused() {
		w.Hide()
		return
	}
	c.ShowMain()
}

// ShowMain restores, shows and focuses the main window, creating it when
// none is open.
func (c *Controller) ShowMain() {
	w, ok := c.windows.Main()
	if !ok {
		if _, err := c.windows.CreateMain(); err != nil {
			c.log.Error("create main window failed", "error", err.Error())
		}
		return
	}
	if w.IsMinimized() {
		w.Restore()
	}
	w.Show()
	w.Focus()
}

func (c *Controller) newWindow() {
	if w, ok := c.windows.Focused(); ok {
		w.Send(ipc.EventTrayAction, ipc.TrayAction{Action: ipc.TrayCreateNewWindow})
		return
	}
	c.ShowMain()
}

func (c *Controller) send(action string) bool {
	w, ok := c.windows.Main()
	if !ok {
		c.log.Debug("tray action dropped, no main window", "action", action)
		return false
	}
	w.Send(ipc.EventTrayAction, ipc.TrayAction{Action: action})
	return true
}

func (c *Controller) sendAndShow(action string) {
	if c.send(action) {
		c.ShowMain()
	}
}

// Update applies a system:tray-update request.
func (c *Controller) Update(req ipc.TrayUpdate) ipc.Envelope {
	tooltip := strings.TrimSpace(req.Tooltip)
	if tooltip == "" {
		return ipc.Fail(errors.Validation("system:tray-update", "tooltip is required"))
	}
	if c.tray == nil {
		return ipc.Fail(errors.NotFound("system:tray-update", "tray is not available"))
	}
	c.tray.SetTooltip(tooltip)
	return ipc.OKMessage(true, "tray updated")
}

// Destroy removes the icon.
func (c *Controller) Destroy() {
	if c.tray == nil {
		return
	}
	c.tray.Destroy()
	c.log.Info("tray destroyed")
}
