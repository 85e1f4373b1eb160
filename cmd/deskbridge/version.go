/*
Copyright © 2026 Cristian Oliveira <license@cristianoliveira.dev>
*/
package main

import (
	"fmt"

	"github.com/cristianoliveira/deskbridge/cmd"
	"github.com/cristianoliveira/deskbridge/internal/version"
	"github.com/spf13/cobra"
)

// NewVersionCmd creates the version command. current supplies the version
// string.
func NewVersionCmd(current func() string) *cobra.Command {
	if current == nil {
		panic("NewVersionCmd: current dependency cannot be nil")
	}

	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  `Show the current version of deskbridge.`,
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, args []string) error {
			fmt.Fprintf(c.OutOrStdout(), "deskbridge version %s\n", current())
			return nil
		},
	}
}

func init() {
	cmd.RootCmd.AddCommand(NewVersionCmd(version.String))
}
