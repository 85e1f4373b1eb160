package main

import (
	"bytes"
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cristianoliveira/deskbridge/internal/colors"
	apperrors "github.com/cristianoliveira/deskbridge/internal/errors"
)

func captureRun(t *testing.T, args []string, execute func() error) (int, string) {
	t.Helper()
	var errOut bytes.Buffer
	colors.SetOutput(&bytes.Buffer{}, &errOut)
	colors.SetDebug(true)
	t.Cleanup(func() {
		colors.SetDebug(false)
		colors.SetOutput(os.Stdout, os.Stderr)
	})
	code := run(args, execute)
	return code, errOut.String()
}

func TestRunLogsStartupAndCompletion(t *testing.T) {
	code, out := captureRun(t, []string{"settings", "show"}, func() error { return nil })

	assert.Equal(t, 0, code)
	assert.Contains(t, out, "startup: started")
	assert.Contains(t, out, "startup: completed")
}

func TestRunReportsFailure(t *testing.T) {
	code, out := captureRun(t, nil, func() error { return errors.New("boom") })

	assert.Equal(t, 1, code)
	assert.Contains(t, out, "boom")
	assert.NotContains(t, out, "startup: completed")
}

func TestRunInspectSkipsStartupLines(t *testing.T) {
	code, out := captureRun(t, []string{"inspect"}, func() error { return nil })

	assert.Equal(t, 0, code)
	assert.Empty(t, out)
}

func TestRunReportsValidationAsWarning(t *testing.T) {
	code, out := captureRun(t, []string{"settings", "set"}, func() error {
		return apperrors.Validation("settings.set", "invalid theme value: %s", "neon")
	})

	assert.Equal(t, 1, code)
	assert.Contains(t, out, "Warning:")
	assert.Contains(t, out, "invalid theme value: neon")
}
