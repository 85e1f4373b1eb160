package cmd

import (
	"bytes"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
)

func TestPrintHelp(t *testing.T) {
	root := &cobra.Command{
		Use:     "deskbridge",
		Version: "0.1.0",
	}
	root.AddCommand(
		&cobra.Command{Use: "settings", Short: "Manage persisted settings"},
		&cobra.Command{Use: "inspect", Short: "Attach a terminal renderer"},
		&cobra.Command{Use: "version", Short: "Show version information"},
		&cobra.Command{Use: "help", Short: "Show this help message"},
	)

	var buf bytes.Buffer
	outputWriter = &buf
	defer func() { outputWriter = nil }()

	PrintHelp(root)
	output := buf.String()

	assert.Contains(t, output, "deskbridge v0.1.0")
	assert.Contains(t, output, description)
	for _, section := range []string{"USAGE:", "COMMANDS:", "OPTIONS:"} {
		assert.Contains(t, output, section)
	}
	order := []string{"settings", "inspect", "version", "help"}
	last := -1
	for _, name := range order {
		idx := strings.Index(output, "    "+name)
		assert.Greater(t, idx, last, "command %q out of order", name)
		last = idx
	}
}

func TestPrintHelpSkipsMissingCommands(t *testing.T) {
	root := &cobra.Command{Use: "deskbridge", Version: "0.1.0"}
	root.AddCommand(&cobra.Command{Use: "version", Short: "Show version information"})

	var buf bytes.Buffer
	outputWriter = &buf
	defer func() { outputWriter = nil }()

	PrintHelp(root)
	assert.Contains(t, buf.String(), "Show version information")
	assert.NotContains(t, buf.String(), "    inspect")
}
