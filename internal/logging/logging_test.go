package logging

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	clog "github.com/charmbracelet/log"
	"github.com/cristianoliveira/deskbridge/internal/config"
	"github.com/stretchr/testify/require"
)

func setupTest(t *testing.T) string {
	t.Helper()
	tmp := t.TempDir()
	t.Setenv("XDG_STATE_HOME", tmp)
	t.Setenv("XDG_CONFIG_HOME", tmp)
	t.Setenv("HOME", tmp)
	config.Load()
	return tmp
}

func readLastLine(t *testing.T) string {
	t.Helper()
	logDir := filepath.Join(config.Get("state_dir", ""), "logs")
	entries, err := os.ReadDir(logDir)
	require.NoError(t, err)
	require.NotEmpty(t, entries)
	data, err := os.ReadFile(filepath.Join(logDir, entries[len(entries)-1].Name()))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	return lines[len(lines)-1]
}

func TestConfigFromGlobal(t *testing.T) {
	setupTest(t)
	t.Setenv("DESKBRIDGE_LOGGING_ENABLED", "true")
	t.Setenv("DESKBRIDGE_LOGGING_LEVEL", "debug")
	t.Setenv("DESKBRIDGE_LOGGING_MAX_FILES", "5")
	config.Load()

	cfg := FromGlobalConfig()
	require.True(t, cfg.Enabled)
	require.Equal(t, "debug", cfg.Level)
	require.Equal(t, 5, cfg.MaxFiles)
	require.Equal(t, os.Getpid(), cfg.PID)
}

func TestLogLevelMapping(t *testing.T) {
	setupTest(t)

	t.Setenv("DESKBRIDGE_DEBUG", "true")
	t.Setenv("DESKBRIDGE_QUIET", "true")
	config.Load()
	require.Equal(t, "debug", FromGlobalConfig().Level)

	t.Setenv("DESKBRIDGE_DEBUG", "")
	config.Load()
	require.Equal(t, "error", FromGlobalConfig().Level)

	t.Setenv("DESKBRIDGE_QUIET", "")
	t.Setenv("DESKBRIDGE_LOGGING_LEVEL", "warn")
	config.Load()
	require.Equal(t, "warn", FromGlobalConfig().Level)
}

func TestLogDir(t *testing.T) {
	tmp := setupTest(t)

	stateDir := config.Get("state_dir", "")
	require.True(t, strings.HasPrefix(stateDir, tmp))

	logDir, err := LogDir()
	require.NoError(t, err)
	require.Equal(t, filepath.Join(stateDir, "logs"), logDir)
	info, err := os.Stat(logDir)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0700), info.Mode().Perm())
}

func TestInitDisabled(t *testing.T) {
	logger, err := Init(Config{Enabled: false})
	require.NoError(t, err)
	require.IsType(t, noopLogger{}, logger)
	logger.Info("test")
	require.NoError(t, logger.Shutdown())
}

func TestInitEnabledWritesJSON(t *testing.T) {
	setupTest(t)
	t.Setenv("DESKBRIDGE_LOGGING_ENABLED", "true")
	config.Load()

	cfg := FromGlobalConfig()
	cfg.Command = "serve"
	logger, err := Init(cfg)
	require.NoError(t, err)

	logger.Info("window created", "id", "main", "width", 1100)
	require.NoError(t, logger.Shutdown())

	logDir := filepath.Join(config.Get("state_dir", ""), "logs")
	entries, err := os.ReadDir(logDir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	name := entries[0].Name()
	require.True(t, strings.HasPrefix(name, "deskbridge_"))
	require.Contains(t, name, fmt.Sprintf("_PID%d_", os.Getpid()))
	require.True(t, strings.HasSuffix(name, "_serve.log"))

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(readLastLine(t)), &entry))
	require.Equal(t, "info", entry["level"])
	require.Equal(t, "window created", entry["msg"])
	require.Equal(t, "main", entry["id"])
	require.Equal(t, float64(os.Getpid()), entry["pid"])
}

func TestNewWriterRedactsAndFilters(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWriter(&buf, "info")

	logger.Debug("hidden")
	logger.With("window", "main").Info("request", "authorization", "Bearer abc", "headers", map[string]string{"Cookie": "x", "Accept": "json"})

	out := buf.String()
	require.NotContains(t, out, "hidden")
	require.NotContains(t, out, "Bearer abc")
	require.Contains(t, out, `"authorization":"[REDACTED]"`)
	require.Contains(t, out, `"window":"main"`)
	require.NotContains(t, out, `"x"`)
}

func TestRedactionEdgeCases(t *testing.T) {
	r := newRedactor()

	require.Equal(t, []any{"PASSWORD", redacted}, r.redact([]any{"PASSWORD", "secret"}))
	require.Equal(t, []any{"api_token", redacted}, r.redact([]any{"api_token", "xyz"}))
	require.Equal(t, []any{"set-cookie", redacted}, r.redact([]any{"set-cookie", "xyz"}))
	require.Equal(t, []any{"apitoken", "xyz"}, r.redact([]any{"apitoken", "xyz"}))
	require.Equal(t, []any{"secretary", "value"}, r.redact([]any{"secretary", "value"}))
	require.Equal(t, []any{"key", "theme"}, r.redact([]any{"key", "theme"}))
	require.Equal(t, []any{"password", redacted, "extra"}, r.redact([]any{"password", "hidden", "extra"}))
	require.Empty(t, r.redact([]any{}))
}

func TestRotation(t *testing.T) {
	setupTest(t)
	t.Setenv("DESKBRIDGE_LOGGING_ENABLED", "true")
	t.Setenv("DESKBRIDGE_LOGGING_MAX_FILES", "2")
	config.Load()

	logDir, err := LogDir()
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		path := filepath.Join(logDir, fmt.Sprintf("deskbridge_20250101_12000%d_PID999_test.log", i))
		require.NoError(t, os.WriteFile(path, nil, 0600))
		old := time.Now().Add(-time.Duration(i) * time.Hour)
		require.NoError(t, os.Chtimes(path, old, old))
	}
	// Files from other programs are never touched.
	require.NoError(t, os.WriteFile(filepath.Join(logDir, "other.log"), nil, 0600))

	logger, err := Init(FromGlobalConfig())
	require.NoError(t, err)
	require.NoError(t, logger.Shutdown())

	// The new run's file counts towards the limit, so the two oldest go.
	for _, gone := range []string{"deskbridge_20250101_120002_PID999_test.log", "deskbridge_20250101_120001_PID999_test.log"} {
		_, err = os.Stat(filepath.Join(logDir, gone))
		require.True(t, os.IsNotExist(err), gone)
	}
	require.FileExists(t, filepath.Join(logDir, "deskbridge_20250101_120000_PID999_test.log"))
	require.FileExists(t, filepath.Join(logDir, "other.log"))

	logs, err := filepath.Glob(filepath.Join(logDir, filePrefix+"*.log"))
	require.NoError(t, err)
	require.Len(t, logs, 2)
}

func TestGlobalLogger(t *testing.T) {
	setupTest(t)
	t.Setenv("DESKBRIDGE_LOGGING_ENABLED", "true")
	config.Load()

	require.NoError(t, InitGlobal())
	t.Cleanup(func() { _ = ShutdownGlobal() })

	GetGlobal().Warn("global warning", "count", 1)
	require.NotEmpty(t, CurrentLogFile())
	require.Contains(t, readLastLine(t), "global warning")
}

func TestLevelParsing(t *testing.T) {
	require.Equal(t, clog.DebugLevel, parseLevel("debug"))
	require.Equal(t, clog.InfoLevel, parseLevel("info"))
	require.Equal(t, clog.WarnLevel, parseLevel("warning"))
	require.Equal(t, clog.ErrorLevel, parseLevel("error"))
	require.Equal(t, clog.InfoLevel, parseLevel("unknown"))
}
