/*
Copyright © 2026 Cristian Oliveira <license@cristianoliveira.dev>
*/
package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/cristianoliveira/deskbridge/cmd"
	"github.com/cristianoliveira/deskbridge/internal/app"
	"github.com/cristianoliveira/deskbridge/internal/config"
	"github.com/cristianoliveira/deskbridge/internal/logging"
	"github.com/cristianoliveira/deskbridge/internal/settings"
	"github.com/cristianoliveira/deskbridge/internal/storage/sqlite"
	"github.com/spf13/cobra"
)

// settingsOpener returns a settings client and a func releasing it.
type settingsOpener func(ctx context.Context) (app.SettingsClient, func() error, error)

const (
	settingsCommandLong = `Manage persisted application settings.

Changes made while the host is running are not picked up by it until the
next start.

USAGE:
    deskbridge settings <subcommand>

SUBCOMMANDS:
    show     Display current settings
    set      Update one or more settings
    reset    Reset settings to defaults

EXAMPLES:
    # Show current settings
    deskbridge settings show

    # Switch to the dark theme and disable notifications
    deskbridge settings set theme=dark notifications=false

    # Reset settings without confirmation
    deskbridge settings reset --force`
	resetCommandLong = `Reset persisted settings to their defaults.

USAGE:
    deskbridge settings reset [OPTIONS]

OPTIONS:
    --force    Reset without confirmation
    -h, --help Show this help`
	setCommandLong = `Update settings with key=value pairs. All pairs are applied together;
nothing is written when any of them is invalid.

KEYS:
    theme            light | dark | auto
    language         zh-CN | en-US
    autoStart        true | false
    minimizeToTray   true | false
    notifications    true | false
    autoUpdate       true | false

USAGE:
    deskbridge settings set <key=value>...`
	showCommandLong = `Display current settings in JSON format.

USAGE:
    deskbridge settings show`
)

// NewSettingsCmd creates the settings command with explicit dependencies.
func NewSettingsCmd(open settingsOpener) *cobra.Command {
	if open == nil {
		panic("NewSettingsCmd: open dependency cannot be nil")
	}

	settingsCmd := &cobra.Command{
		Use:   "settings",
		Short: "Manage persisted settings",
		Long:  settingsCommandLong,
	}

	settingsCmd.AddCommand(newShowCmd(open))
	settingsCmd.AddCommand(newSetCmd(open))
	settingsCmd.AddCommand(newResetCmd(open))

	return settingsCmd
}

func newShowCmd(open settingsOpener) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Display current settings",
		Long:  showCommandLong,
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, args []string) error {
			return withSettings(c.Context(), open, func(u *app.SettingsUseCase) error {
				return u.Show()
			})
		},
	}
}

func newSetCmd(open settingsOpener) *cobra.Command {
	return &cobra.Command{
		Use:   "set",
		Short: "Update settings",
		Long:  setCommandLong,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			return withSettings(c.Context(), open, func(u *app.SettingsUseCase) error {
				return u.Set(c.Context(), args)
			})
		},
	}
}

func newResetCmd(open settingsOpener) *cobra.Command {
	var force bool
	resetCmd := &cobra.Command{
		Use:   "reset",
		Short: "Reset settings to defaults",
		Long:  resetCommandLong,
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, args []string) error {
			return withSettings(c.Context(), open, func(u *app.SettingsUseCase) error {
				return u.Reset(c.Context(), app.ResetSettingsInput{
					Force:  force,
					GetEnv: os.Getenv,
					ConfirmFn: func() bool {
						return confirmReset(c.InOrStdin(), c.OutOrStdout())
					},
				})
			})
		},
	}
	resetCmd.Flags().BoolVar(&force, "force", false, "Reset without confirmation")
	return resetCmd
}

func withSettings(ctx context.Context, open settingsOpener, fn func(*app.SettingsUseCase) error) error {
	client, release, err := open(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = release() }()
	return fn(app.NewSettingsUseCase(client))
}

// confirmReset asks the user for confirmation before resetting settings.
func confirmReset(in io.Reader, out io.Writer) bool {
	fmt.Fprint(out, "Are you sure you want to reset all settings to defaults? (y/N): ")
	answer, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && answer == "" {
		return false
	}
	answer = strings.TrimSpace(strings.ToLower(answer))
	return answer == "y" || answer == "yes"
}

// openSettings opens the settings table of the configured database. No
// theme or login item is applied: those belong to the running host.
func openSettings(ctx context.Context) (app.SettingsClient, func() error, error) {
	dir := config.Get("data_dir", "")
	if dir == "" {
		return nil, nil, fmt.Errorf("data_dir is not configured")
	}
	store, err := sqlite.Open(filepath.Join(dir, app.DatabaseName))
	if err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}
	m, err := settings.NewManager(ctx, store, nil, nil, logging.GetGlobal())
	if err != nil {
		_ = store.Close()
		return nil, nil, err
	}
	return m, store.Close, nil
}

func init() {
	cmd.RootCmd.AddCommand(NewSettingsCmd(openSettings))
}
