package settings

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/cristianoliveira/deskbridge/internal/host"
	"github.com/cristianoliveira/deskbridge/internal/host/hostmock"
	"github.com/cristianoliveira/deskbridge/internal/storage/sqlite"
)

func newTestStore(t *testing.T) *sqlite.SQLiteStorage {
	t.Helper()
	store, err := sqlite.Open(filepath.Join(t.TempDir(), "deskbridge.db"))
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, store.Close()) })
	return store
}

func newTestManager(t *testing.T, store Store, theme ThemeApplier, login host.LoginItems) *Manager {
	t.Helper()
	m, err := NewManager(context.Background(), store, theme, login, nil)
	require.NoError(t, err)
	return m
}

func storedTheme(t *testing.T, store *sqlite.SQLiteStorage) string {
	t.Helper()
	v, ok, err := store.GetSetting(context.Background(), KeyTheme)
	require.NoError(t, err)
	require.True(t, ok)
	return v.Raw
}

func TestFirstRunSeedsDefaults(t *testing.T) {
	store := newTestStore(t)
	m := newTestManager(t, store, nil, nil)

	assert.Equal(t, DefaultSettings(), m.Get())
	assert.Equal(t, ThemeAuto, storedTheme(t, store))

	info, err := m.Info(context.Background())
	require.NoError(t, err)
	assert.True(t, info.Initialized)
	assert.Equal(t, store.Path(), info.StorePath)
	assert.Equal(t, len(Keys)+1, info.StoreSize)
}

func TestInvalidThemeWritesNothingAndAppliesNothing(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	theme := new(hostmock.ThemeApplier)
	login := new(hostmock.LoginItems)
	m := newTestManager(t, store, theme, login)

	var changes int
	m.OnChange(func(Settings, Settings) { changes++ })

	env := m.Set(ctx, Patch{Theme: strPtr("neon"), AutoStart: boolPtr(true)})
	require.False(t, env.Success)
	assert.Equal(t, "settings validation failed: invalid theme value: neon", env.Error)

	assert.Equal(t, ThemeAuto, storedTheme(t, store))
	v, _, err := store.GetSetting(ctx, KeyAutoStart)
	require.NoError(t, err)
	assert.Equal(t, "false", v.Raw)
	assert.Equal(t, DefaultSettings(), m.Get())
	assert.Zero(t, changes)
	theme.AssertNotCalled(t, "SetThemeSource", mock.Anything)
	login.AssertNotCalled(t, "SetLoginItem", mock.Anything, mock.Anything)
}

func TestSetPersistsAndApplies(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	theme := new(hostmock.ThemeApplier)
	theme.On("SetThemeSource", host.ThemeDark).Return()
	login := new(hostmock.LoginItems)
	login.On("SetLoginItem", true, true).Return(nil)
	m := newTestManager(t, store, theme, login)

	var got []Settings
	m.OnChange(func(cur, prev Settings) {
		got = append(got, cur, prev)
	})

	env := m.Set(ctx, Patch{Theme: strPtr(ThemeDark), AutoStart: boolPtr(true)})
	require.True(t, env.Success, env.Error)
	assert.Equal(t, "settings saved", env.Message)

	var saved Settings
	require.NoError(t, env.Decode(&saved))
	assert.Equal(t, ThemeDark, saved.Theme)
	assert.Equal(t, ThemeDark, storedTheme(t, store))

	require.Len(t, got, 2)
	assert.Equal(t, ThemeDark, got[0].Theme)
	assert.Equal(t, ThemeAuto, got[1].Theme)
	theme.AssertExpectations(t)
	login.AssertExpectations(t)

	reloaded := newTestManager(t, store, nil, nil)
	assert.Equal(t, saved, reloaded.Get())
}

func TestSingleFieldOperations(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t, newTestStore(t), nil, nil)

	env := m.SetSetting(ctx, KeyLanguage, json.RawMessage(`"en-US"`))
	require.True(t, env.Success, env.Error)

	env = m.GetSetting(KeyLanguage)
	require.True(t, env.Success)
	assert.JSONEq(t, `"en-US"`, string(env.Data))

	env = m.SetSetting(ctx, KeyLanguage, json.RawMessage(`"de-DE"`))
	require.False(t, env.Success)

	env = m.GetSetting("nope")
	require.False(t, env.Success)
	assert.Equal(t, "unknown setting: nope", env.Error)
}

func TestExportImportRoundTrip(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t, newTestStore(t), nil, nil)
	require.True(t, m.Set(ctx, Patch{Theme: strPtr(ThemeLight), Notifications: boolPtr(false)}).Success)

	env := m.Export()
	require.True(t, env.Success)
	var document string
	require.NoError(t, env.Decode(&document))

	var doc Export
	require.NoError(t, json.Unmarshal([]byte(document), &doc))
	assert.Equal(t, ThemeLight, doc.Settings.Theme)
	assert.NotEmpty(t, doc.Version)
	assert.NotEmpty(t, doc.Timestamp)

	require.True(t, m.Reset(ctx).Success)
	assert.Equal(t, DefaultSettings(), m.Get())

	env = m.Import(ctx, document)
	require.True(t, env.Success, env.Error)
	assert.Equal(t, ThemeLight, m.Get().Theme)
	assert.False(t, m.Get().Notifications)
}

func TestImportRejectsBadDocuments(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t, newTestStore(t), nil, nil)

	tests := []struct {
		name     string
		document string
		want     string
	}{
		{"not json", "{", "invalid settings file format"},
		{"no settings", `{"version":"1"}`, "invalid settings file format"},
		{"wrong type", `{"settings":{"autoStart":"yes"}}`, "invalid settings file format"},
		{"invalid value", `{"settings":{"theme":"neon"}}`, "imported settings validation failed: invalid theme value: neon"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := m.Import(ctx, tt.document)
			require.False(t, env.Success)
			assert.Equal(t, tt.want, env.Error)
			assert.Equal(t, DefaultSettings(), m.Get())
		})
	}
}

func TestBackupRestoreAndClearAll(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	m := newTestManager(t, store, nil, nil)
	require.True(t, m.Set(ctx, Patch{Language: strPtr(LanguageEnglish)}).Success)

	env := m.Backup(ctx)
	require.True(t, env.Success)
	var b Backup
	require.NoError(t, env.Decode(&b))
	assert.Equal(t, LanguageEnglish, b.Settings.Language)
	assert.True(t, b.StoreInfo.Initialized)

	env = m.ClearAll(ctx)
	require.True(t, env.Success, env.Error)
	assert.Equal(t, DefaultSettings(), m.Get())

	env = m.Restore(ctx, b)
	require.True(t, env.Success, env.Error)
	assert.Equal(t, LanguageEnglish, m.Get().Language)

	b.Settings.Theme = "neon"
	env = m.Restore(ctx, b)
	require.False(t, env.Success)
}

func TestCorruptStoredFieldFallsBackToDefault(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	_ = newTestManager(t, store, nil, nil)

	require.NoError(t, store.SetSettings(ctx, map[string]sqlite.Value{
		KeyTheme:     sqlite.StringValue("neon"),
		KeyAutoStart: sqlite.BoolValue(true),
	}))

	m := newTestManager(t, store, nil, nil)
	assert.Equal(t, ThemeAuto, m.Get().Theme)
	assert.True(t, m.Get().AutoStart)
}

// staleStore serves a snapshot taken before another process seeded.
type staleStore struct {
	*sqlite.SQLiteStorage
	snapshot map[string]sqlite.Value
}

func (s *staleStore) AllSettings(ctx context.Context) (map[string]sqlite.Value, error) {
	if s.snapshot != nil {
		snap := s.snapshot
		s.snapshot = nil
		return snap, nil
	}
	return s.SQLiteStorage.AllSettings(ctx)
}

func TestConcurrentFirstRunKeepsSavedSettings(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	before, err := store.AllSettings(ctx)
	require.NoError(t, err)
	require.Empty(t, before)

	first := newTestManager(t, store, nil, nil)
	require.True(t, first.Set(ctx, Patch{Theme: strPtr(ThemeDark)}).Success)

	second := newTestManager(t, &staleStore{SQLiteStorage: store, snapshot: before}, nil, nil)

	assert.Equal(t, ThemeDark, storedTheme(t, store))
	assert.Equal(t, ThemeDark, second.Get().Theme)
}

func TestThemeSourceMapping(t *testing.T) {
	assert.Equal(t, host.ThemeLight, ThemeSource(ThemeLight))
	assert.Equal(t, host.ThemeDark, ThemeSource(ThemeDark))
	assert.Equal(t, host.ThemeSystem, ThemeSource(ThemeAuto))
}
