/*
Copyright © 2026 Cristian Oliveira <license@cristianoliveira.dev>
*/
package main

import (
	"os"

	"github.com/cristianoliveira/deskbridge/cmd"
	"github.com/cristianoliveira/deskbridge/internal/colors"
	"github.com/cristianoliveira/deskbridge/internal/errors"
)

func main() {
	os.Exit(run(os.Args[1:], cmd.Execute))
}

// run executes the CLI and maps the outcome to an exit code. The inspector
// owns the terminal, so startup lines are not printed for it. Validation
// errors print as warnings.
func run(args []string, execute func() error) int {
	interactive := len(args) > 0 && args[0] == "inspect"
	if !interactive {
		colors.Debug("startup: started")
	}
	if err := execute(); err != nil {
		errors.NewDefaultCLIHandler().Report(err)
		return 1
	}
	if !interactive {
		colors.Debug("startup: completed")
	}
	return 0
}
