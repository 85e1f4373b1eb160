//go:build native

// Package native overlays desktop dialogs, a system tray and the desktop
// shell on the headless host. Windows stay headless: renderer processes
// draw them and attach through the bridge.
package native

import (
	"github.com/cristianoliveira/deskbridge/internal/host"
	"github.com/cristianoliveira/deskbridge/internal/host/headless"
	"github.com/cristianoliveira/deskbridge/internal/logging"
)

// New returns a host whose dialogs, tray and shell are native.
func New(display host.Display, paths host.Paths, log logging.Logger) (*headless.Host, host.Host) {
	base := headless.New(display, paths, log)
	h := base.Host()
	h.Dialogs = Dialogs{}
	h.Shell = Shell{log: log}
	h.Tray = NewTray("deskbridge", log)
	h.Login = LoginItems{log: log}
	return base, h
}
