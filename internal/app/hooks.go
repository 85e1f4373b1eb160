package app

import (
	"context"
	"strconv"

	"github.com/cristianoliveira/deskbridge/internal/settings"
)

// fire runs the hook scripts for point. Failures are logged by the runner;
// an abort-mode failure is logged here and never stops the host.
func (a *App) fire(point string, env map[string]string) {
	if err := a.hooks.Run(context.Background(), point, env); err != nil {
		a.log.Warn("hook aborted", "point", point, "error", err.Error())
	}
}

func settingsEnv(s settings.Settings) map[string]string {
	return map[string]string{
		"theme":            s.Theme,
		"language":         s.Language,
		"auto_start":       strconv.FormatBool(s.AutoStart),
		"minimize_to_tray": strconv.FormatBool(s.MinimizeToTray),
		"notifications":    strconv.FormatBool(s.Notifications),
		"auto_update":      strconv.FormatBool(s.AutoUpdate),
	}
}
