package colors

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

type recordingLogger struct {
	levels []string
	msgs   []string
}

func (r *recordingLogger) Debug(msg string, args ...any) { r.add("debug", msg) }
func (r *recordingLogger) Info(msg string, args ...any)  { r.add("info", msg) }
func (r *recordingLogger) Warn(msg string, args ...any)  { r.add("warn", msg) }
func (r *recordingLogger) Error(msg string, args ...any) { r.add("error", msg) }

func (r *recordingLogger) add(level, msg string) {
	r.levels = append(r.levels, level)
	r.msgs = append(r.msgs, msg)
}

func captureOutput(t *testing.T) (*bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	var out, errOut bytes.Buffer
	SetOutput(&out, &errOut)
	t.Cleanup(func() {
		SetOutput(&bytes.Buffer{}, &bytes.Buffer{})
		SetLogger(nil)
		SetDebug(false)
	})
	return &out, &errOut
}

func TestError(t *testing.T) {
	_, errOut := captureOutput(t)

	Error("something went wrong")

	require.Contains(t, errOut.String(), "Error:")
	require.Contains(t, errOut.String(), "something went wrong")
	require.Contains(t, errOut.String(), Red)
}

func TestSuccess(t *testing.T) {
	out, _ := captureOutput(t)

	Success("operation completed")

	require.Contains(t, out.String(), checkmark)
	require.Contains(t, out.String(), "operation completed")
	require.Contains(t, out.String(), Green)
}

func TestWarningAndInfo(t *testing.T) {
	out, errOut := captureOutput(t)

	Warning("careful", "now")
	Info("hello")

	require.Contains(t, errOut.String(), "Warning:")
	require.Contains(t, errOut.String(), "careful now")
	require.Contains(t, out.String(), "hello")
}

func TestDebugRespectsFlag(t *testing.T) {
	_, errOut := captureOutput(t)

	SetDebug(false)
	Debug("hidden")
	require.Empty(t, errOut.String())

	SetDebug(true)
	Debug("shown")
	require.Contains(t, errOut.String(), "shown")
}

func TestMirrorsToLogger(t *testing.T) {
	captureOutput(t)
	rec := &recordingLogger{}
	SetLogger(rec)

	Error("e")
	Warning("w")
	Info("i")
	Success("s")

	require.Equal(t, []string{"error", "warn", "info", "info"}, rec.levels)
	require.Equal(t, []string{"e", "w", "i", "s"}, rec.msgs)
}

func TestPlain(t *testing.T) {
	out, _ := captureOutput(t)

	Plain(`{"a":1}`)

	require.Equal(t, "{\"a\":1}\n", out.String())
}
