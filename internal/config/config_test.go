package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("DESKBRIDGE_CONFIG_DIR", dir)
	t.Setenv("DESKBRIDGE_CONFIG_PATH", "")
	return dir
}

func TestLoadDefaults(t *testing.T) {
	dir := isolate(t)

	Load()

	require.Equal(t, "default", Get("missing", "default"))
	require.Equal(t, "127.0.0.1:7450", Get("listen_addr", ""))
	require.Equal(t, 10, GetInt("notification_queue_size", 0))
	require.Equal(t, 500*time.Millisecond, GetDuration("notification_delay_ms", 0))
	require.Equal(t, 10*time.Second, GetDuration("api_timeout_ms", 0))
	require.Equal(t, filepath.Join(dir, "state"), Get("state_dir", ""))
	require.Equal(t, filepath.Join(dir, "data"), Get("data_dir", ""))
	require.Equal(t, filepath.Join(dir, "hooks"), Get("hooks_dir", ""))
	require.True(t, GetBool("hooks_async", false))
	require.Equal(t, 30*time.Second, GetDuration("hooks_timeout_ms", 0))
	require.False(t, GetBool("start_hidden", true))
	require.Equal(t, []string{"http://localhost", "http://127.0.0.1"}, GetList("allowed_origins"))
	require.FileExists(t, filepath.Join(dir, "config.toml"))
}

func TestLoadFromFileThenEnvWins(t *testing.T) {
	dir := isolate(t)
	content := "notification_queue_size = 25\nrecent_files_max = 4\nallowed_origins = [\"app://local\", \"http://localhost\"]\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte(content), 0o644))
	t.Setenv("DESKBRIDGE_RECENT_FILES_MAX", "7")

	Load()

	require.Equal(t, 25, GetInt("notification_queue_size", 0))
	require.Equal(t, 7, GetInt("recent_files_max", 0))
	require.Equal(t, []string{"app://local", "http://localhost"}, GetList("allowed_origins"))
}

func TestInvalidValuesFallBackToDefaults(t *testing.T) {
	isolate(t)
	t.Setenv("DESKBRIDGE_NOTIFICATION_QUEUE_SIZE", "-3")
	t.Setenv("DESKBRIDGE_LOGGING_LEVEL", "LOUD")
	t.Setenv("DESKBRIDGE_DEBUG", "maybe")
	t.Setenv("DESKBRIDGE_API_BASE_URL", "ftp://example.com")
	t.Setenv("DESKBRIDGE_LISTEN_ADDR", "nope")
	t.Setenv("DESKBRIDGE_HOOKS_FAILURE_MODE", "explode")

	Load()

	require.Equal(t, 10, GetInt("notification_queue_size", 0))
	require.Equal(t, "info", Get("logging_level", ""))
	require.False(t, GetBool("debug", true))
	require.Equal(t, "https://jsonplaceholder.typicode.com", Get("api_base_url", ""))
	require.Equal(t, "127.0.0.1:7450", Get("listen_addr", ""))
	require.Equal(t, "warn", Get("hooks_failure_mode", ""))
}

func TestValidatorsNormalize(t *testing.T) {
	require.Equal(t, "true", mustValidate(t, BoolValidator(), "yes", "false"))
	require.Equal(t, "warn", mustValidate(t, EnumValidator(map[string]bool{"warn": true}), "WARN", "info"))
	require.Equal(t, "", mustValidate(t, URLValidator(true), "", "x"))
	require.Equal(t, "https://feed.example.com", mustValidate(t, URLValidator(true), "https://feed.example.com/", ""))
}

func mustValidate(t *testing.T, v Validator, value, def string) string {
	t.Helper()
	got, err := v("key", value, def)
	require.NoError(t, err)
	return got
}

func TestSetOverrides(t *testing.T) {
	isolate(t)
	Load()

	Set("quiet", "true")

	require.True(t, GetBool("quiet", false))
	require.Equal(t, "true", All()["quiet"])
}
