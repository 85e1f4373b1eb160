/*
Copyright © 2026 Cristian Oliveira <license@cristianoliveira.dev>
*/
package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/cristianoliveira/deskbridge/internal/version"
	"github.com/spf13/cobra"
)

const description = "Desktop host process bridging privileged capabilities to sandboxed UI processes."

// RootCmd represents the base command. Without a subcommand it runs the
// host process; cmd/deskbridge attaches that behavior.
var RootCmd = &cobra.Command{
	Use:           "deskbridge",
	Short:         description,
	Long:          description,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// outputWriter overrides where help is printed; nil means stdout.
var outputWriter io.Writer

// Execute runs the root command.
func Execute() error {
	return RootCmd.Execute()
}

func init() {
	RootCmd.Version = version.String()

	// Hide the completion command
	RootCmd.CompletionOptions.HiddenDefaultCmd = true

	RootCmd.SetHelpFunc(func(cmd *cobra.Command, args []string) {
		if cmd != cmd.Root() {
			fmt.Fprint(helpOut(), cmd.Long+"\n")
			return
		}
		PrintHelp(cmd)
	})
}

func helpOut() io.Writer {
	if outputWriter != nil {
		return outputWriter
	}
	return os.Stdout
}

// PrintHelp prints the top-level help text.
func PrintHelp(cmd *cobra.Command) {
	commandOrder := []string{
		"settings",
		"inspect",
		"version",
		"help",
	}

	var cmdLines []string
	for _, name := range commandOrder {
		var found *cobra.Command
		for _, c := range cmd.Commands() {
			if c.Name() == name {
				found = c
				break
			}
		}
		if found == nil {
			continue
		}
		cmdLines = append(cmdLines, fmt.Sprintf("    %-16s %s", found.Use, found.Short))
	}

	helpText := fmt.Sprintf(`deskbridge v%s

%s

USAGE:
    deskbridge [OPTIONS]            Run the host process
    deskbridge [COMMAND] [OPTIONS]

COMMANDS:
%s

OPTIONS:
    --hidden        Start with the main window hidden
    -h, --help      Show help message
`, cmd.Version, description, strings.Join(cmdLines, "\n"))
	fmt.Fprint(helpOut(), helpText)
}
