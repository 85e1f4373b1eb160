/*
Copyright © 2026 Cristian Oliveira <license@cristianoliveira.dev>
*/
package main

import (
	"context"
	"fmt"

	"github.com/cristianoliveira/deskbridge/cmd"
	"github.com/cristianoliveira/deskbridge/internal/app"
	"github.com/cristianoliveira/deskbridge/internal/bridge"
	"github.com/cristianoliveira/deskbridge/internal/config"
	"github.com/cristianoliveira/deskbridge/internal/inspector"
	"github.com/cristianoliveira/deskbridge/internal/logging"
	"github.com/spf13/cobra"
)

const inspectCommandLong = `Attach a terminal renderer to a running host.

The inspector connects to the bridge as the given window, lists the open
windows and shows every host event as it arrives.

USAGE:
    deskbridge inspect [OPTIONS]

OPTIONS:
    --addr ADDR      Host bridge address (default: listen_addr from config)
    --window ID      Window to attach as (default: main)
    -h, --help       Show this help

KEYS:
    r  refresh windows    n  new window    t  cycle theme
    s  send notification  /  filter events (Enter keeps, Esc clears)
    m  filter mode (token, substring, regex)
    q  quit`

type inspectDeps struct {
	dial func(ctx context.Context, url, window string) (*bridge.Proxy, error)
	run  func(ctx context.Context, src inspector.Source, window string) error
}

// NewInspectCmd creates the inspect command with explicit dependencies.
func NewInspectCmd(deps inspectDeps) *cobra.Command {
	if deps.dial == nil || deps.run == nil {
		panic("NewInspectCmd: dial and run dependencies cannot be nil")
	}

	var addr, window string
	inspectCmd := &cobra.Command{
		Use:   "inspect",
		Short: "Attach a terminal renderer",
		Long:  inspectCommandLong,
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, args []string) error {
			if addr == "" {
				addr = config.Get("listen_addr", "127.0.0.1:7450")
			}
			url := bridgeURL(addr)
			proxy, err := deps.dial(c.Context(), url, window)
			if err != nil {
				return fmt.Errorf("connect to %s: %w", url, err)
			}
			defer func() { _ = proxy.Close() }()
			return deps.run(c.Context(), proxy, window)
		},
	}
	inspectCmd.Flags().StringVar(&addr, "addr", "", "Host bridge address")
	inspectCmd.Flags().StringVar(&window, "window", "main", "Window to attach as")
	return inspectCmd
}

// bridgeURL is the websocket endpoint; the proxy appends the window query.
func bridgeURL(addr string) string {
	return "ws://" + addr + app.BridgePath
}

func init() {
	cmd.RootCmd.AddCommand(NewInspectCmd(inspectDeps{
		dial: func(ctx context.Context, url, window string) (*bridge.Proxy, error) {
			return bridge.Dial(ctx, url, window, logging.GetGlobal().With("component", "inspector"))
		},
		run: func(ctx context.Context, src inspector.Source, window string) error {
			return inspector.Run(ctx, src, window)
		},
	}))
}
