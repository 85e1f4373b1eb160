package app

import (
	"context"
	"encoding/json"

	"github.com/cristianoliveira/deskbridge/internal/bridge"
	"github.com/cristianoliveira/deskbridge/internal/ipc"
)

// WindowAction is the payload of a window-action event.
type WindowAction struct {
	Action string `json:"action"`
}

// Window actions a renderer may request for its own window.
const (
	ActionMinimize = "minimize"
	ActionMaximize = "maximize"
	ActionRestore  = "restore"
	ActionClose    = "close"
	ActionHide     = "hide"
	ActionQuit     = "quit"
)

// AppEvent is the payload of an app-event event.
type AppEvent struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// EventActivate asks the host to bring a main window back.
const EventActivate = "activate"

// Quit ends the process. It is the explicit quit path: windows are not
// kept around for the tray.
func (a *App) Quit() {
	if a.quitting.Swap(true) {
		return
	}
	a.log.Info("quit requested")
	a.host.Lifecycle.Quit()
}

// Restart quits and asks the host to start the process again.
func (a *App) Restart() {
	a.quitting.Store(true)
	a.log.Info("restart requested")
	a.host.Lifecycle.Relaunch()
}

// Quitting reports whether an explicit quit is in progress.
func (a *App) Quitting() bool { return a.quitting.Load() }

// RequestQuit is a quit that did not come from an explicit quit action,
// such as a window asking to close the app. With minimize-to-tray on and a
// tray present, it hides every window and reports false.
func (a *App) RequestQuit() bool {
	if !a.quitting.Load() && a.keepInTray() {
		a.log.Info("quit deferred, hiding windows to tray")
		a.windows.HideAll()
		return false
	}
	a.Quit()
	return true
}

// Activate recreates the main window when no window is open, otherwise
// brings the main window forward.
func (a *App) Activate() {
	if a.windows.Count() == 0 {
		if _, err := a.windows.CreateMain(); err != nil {
			a.log.Error("recreate main window failed", "error", err.Error())
		}
		return
	}
	a.tray.ShowMain()
}

func (a *App) keepInTray() bool {
	return a.tray.Available() && a.settings.Get().MinimizeToTray
}

func (a *App) windowAllClosed() {
	if a.quitting.Load() {
		return
	}
	if a.keepInTray() {
		a.log.Debug("all windows closed, staying in tray")
		return
	}
	a.log.Info("all windows closed")
	a.Quit()
}

func (a *App) bindSends() {
	d := a.dispatcher
	d.OnSend(ipc.SendRendererReady, func(ctx context.Context, _ []json.RawMessage) {
		win := bridge.WindowFrom(ctx)
		a.log.Info("renderer ready", "window", win)
		a.windows.SendTo(win, ipc.EventAppReady, readyPayload())
		a.windows.SendTo(win, ipc.EventSettingsChanged, a.settings.Get())
	})
	d.OnSend(ipc.SendWindowAction, func(ctx context.Context, args []json.RawMessage) {
		var act WindowAction
		if !decodeFirst(args, &act) {
			a.log.Warn("malformed window action", "window", bridge.WindowFrom(ctx))
			return
		}
		a.windowAction(bridge.WindowFrom(ctx), act.Action)
	})
	d.OnSend(ipc.SendUserAction, func(ctx context.Context, args []json.RawMessage) {
		var data any
		decodeFirst(args, &data)
		a.log.Info("user action", "window", bridge.WindowFrom(ctx))
		a.db.Log(ctx, "info", "user action", data)
	})
	d.OnSend(ipc.SendAppEvent, func(ctx context.Context, args []json.RawMessage) {
		var ev AppEvent
		if !decodeFirst(args, &ev) {
			return
		}
		a.log.Debug("app event", "event", ev.Event, "window", bridge.WindowFrom(ctx))
		if ev.Event == EventActivate {
			a.Activate()
		}
	})
}

func (a *App) windowAction(win, action string) {
	switch action {
	case ActionMinimize:
		a.windows.Minimize(win)
	case ActionMaximize:
		a.windows.Maximize(win)
	case ActionRestore:
		a.windows.Restore(win)
	case ActionClose:
		a.windows.Close(win)
	case ActionHide:
		if w, ok := a.windows.Get(win); ok {
			w.Hide()
		}
	case ActionQuit:
		a.RequestQuit()
	default:
		a.log.Warn("unknown window action", "window", win, "action", action)
	}
}

func decodeFirst(args []json.RawMessage, v any) bool {
	if len(args) == 0 {
		return false
	}
	return json.Unmarshal(args[0], v) == nil
}
