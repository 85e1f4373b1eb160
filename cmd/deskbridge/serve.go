/*
Copyright © 2026 Cristian Oliveira <license@cristianoliveira.dev>
*/
package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/cristianoliveira/deskbridge/cmd"
	"github.com/cristianoliveira/deskbridge/internal/app"
	"github.com/cristianoliveira/deskbridge/internal/config"
	"github.com/cristianoliveira/deskbridge/internal/host"
	"github.com/cristianoliveira/deskbridge/internal/logging"
	"github.com/spf13/cobra"
)

func init() {
	var hidden bool
	cmd.RootCmd.Flags().BoolVar(&hidden, "hidden", false, "Start with the main window hidden")

	cmd.RootCmd.PersistentPreRunE = func(c *cobra.Command, args []string) error {
		config.Load()
		if err := logging.InitGlobal(); err != nil {
			return fmt.Errorf("init logging: %w", err)
		}
		return nil
	}
	cmd.RootCmd.RunE = func(c *cobra.Command, args []string) error {
		return serve(c.Context(), hidden || config.GetBool("start_hidden", false))
	}
}

// serve runs the host process until a quit, SIGINT or SIGTERM.
func serve(parent context.Context, hidden bool) error {
	log := logging.GetGlobal()
	defer func() { _ = logging.ShutdownGlobal() }()

	dataDir := config.Get("data_dir", "")
	paths := host.Paths{
		Documents: documentsDir(),
		UserData:  dataDir,
		Temp:      os.TempDir(),
	}
	display := host.Display{
		Width:  config.GetInt("display_width", 1920),
		Height: config.GetInt("display_height", 1080),
	}
	windows, h := newHost(display, paths, log)

	opts := app.OptionsFromConfig(h)
	opts.StartHidden = hidden
	opts.Log = log

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, opts)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()
	windows.SetSink(a.Hub())

	if err := a.Run(ctx); err != nil {
		return err
	}
	if h.Lifecycle.Relaunching() {
		return relaunch()
	}
	return nil
}

func documentsDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return os.TempDir()
	}
	return filepath.Join(home, "Documents")
}

// relaunch starts a fresh copy of the process with the same arguments.
func relaunch() error {
	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("relaunch: %w", err)
	}
	c := exec.Command(exe, os.Args[1:]...)
	c.Stdout, c.Stderr = os.Stdout, os.Stderr
	if err := c.Start(); err != nil {
		return fmt.Errorf("relaunch: %w", err)
	}
	return c.Process.Release()
}
