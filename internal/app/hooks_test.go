package app

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cristianoliveira/deskbridge/internal/hooks"
	"github.com/cristianoliveira/deskbridge/internal/ipc"
	"github.com/cristianoliveira/deskbridge/internal/settings"
)

func hookScript(t *testing.T, dir, point, body string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, point), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, point, "10-record.sh"), []byte("#!/bin/sh\n"+body+"\n"), 0o755))
}

func TestHooksRunOnLifecycleEvents(t *testing.T) {
	hooksDir := t.TempDir()
	out := filepath.Join(t.TempDir(), "hooks.log")
	hookScript(t, hooksDir, hooks.SettingsChanged, `echo "settings $DESKBRIDGE_THEME $DESKBRIDGE_NOTIFICATIONS" >> `+out)
	hookScript(t, hooksDir, hooks.WindowClosed, `echo "closed $DESKBRIDGE_WINDOW" >> `+out)

	f := newFixtureWith(t, func(o *Options) {
		o.HooksDir = hooksDir
		o.HooksAsync = false
	})
	t.Cleanup(func() { _ = f.app.Close() })

	theme := settings.ThemeDark
	env := f.app.Settings().Set(context.Background(), settings.Patch{Theme: &theme})
	require.True(t, env.Success)

	_, err := f.app.Windows().Create(ipc.WindowConfig{ID: "notes"})
	require.NoError(t, err)
	require.True(t, f.app.Windows().Close("notes"))

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, []string{"settings dark true", "closed notes"}, strings.Split(strings.TrimSpace(string(data)), "\n"))
}

func TestSettingsEnv(t *testing.T) {
	env := settingsEnv(settings.DefaultSettings())
	assert.Equal(t, settings.ThemeAuto, env["theme"])
	assert.Equal(t, "true", env["minimize_to_tray"])
	assert.Equal(t, "false", env["auto_start"])
}
