package settings

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/cristianoliveira/deskbridge/internal/errors"
	"github.com/cristianoliveira/deskbridge/internal/host"
	"github.com/cristianoliveira/deskbridge/internal/ipc"
	"github.com/cristianoliveira/deskbridge/internal/logging"
	"github.com/cristianoliveira/deskbridge/internal/storage/sqlite"
	"github.com/cristianoliveira/deskbridge/internal/version"
)

// Store persists the record as typed key/value pairs.
type Store interface {
	AllSettings(ctx context.Context) (map[string]sqlite.Value, error)
	SetSettings(ctx context.Context, values map[string]sqlite.Value) error
	SeedSettings(ctx context.Context, values map[string]sqlite.Value) (int, error)
	ClearSettings(ctx context.Context) error
	Path() string
}

// ThemeApplier receives the resolved theme source.
type ThemeApplier interface {
	SetThemeSource(src host.ThemeSource)
}

// ChangeFunc observes a successful change.
type ChangeFunc func(current, previous Settings)

// Export is the document produced by Export and accepted by Import.
type Export struct {
	Version   string   `json:"version"`
	Timestamp string   `json:"timestamp"`
	Settings  Settings `json:"settings"`
}

// Backup is Export plus store details.
type Backup struct {
	Export
	StoreInfo Info `json:"storeInfo"`
}

// Info describes the settings store.
type Info struct {
	StorePath            string `json:"storePath"`
	StoreSize            int    `json:"storeSize"`
	Initialized          bool   `json:"initialized"`
	SettingsCount        int    `json:"settingsCount"`
	DefaultSettingsCount int    `json:"defaultSettingsCount"`
}

// Manager is the single owner of the persisted record.
type Manager struct {
	store Store
	theme ThemeApplier
	login host.LoginItems
	log   logging.Logger

	mu        sync.Mutex
	current   Settings
	observers []ChangeFunc
}

// NewManager loads the persisted record, seeding defaults on first run.
// theme and login may be nil when nothing should be applied.
func NewManager(ctx context.Context, store Store, theme ThemeApplier, login host.LoginItems, log logging.Logger) (*Manager, error) {
	if log == nil {
		log = logging.Discard()
	}
	m := &Manager{
		store:   store,
		theme:   theme,
		login:   login,
		log:     log.With("component", "settings"),
		current: DefaultSettings(),
	}
	if err := m.load(ctx); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Manager) load(ctx context.Context) error {
	stored, err := m.store.AllSettings(ctx)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}

	initialized := false
	if v, ok := stored[keyInitialized]; ok {
		initialized, _ = v.Bool()
	}
	if !initialized {
		values := encode(DefaultSettings())
		values[keyInitialized] = sqlite.BoolValue(true)
		seeded, err := m.store.SeedSettings(ctx, values)
		if err != nil {
			return fmt.Errorf("seed default settings: %w", err)
		}
		if seeded > 0 {
			m.log.Info("default settings initialized", "seeded", seeded)
		}
		// Another process may have seeded and saved changes meanwhile.
		if stored, err = m.store.AllSettings(ctx); err != nil {
			return fmt.Errorf("load settings: %w", err)
		}
	}

	m.current = m.decode(stored)
	return nil
}

// decode rebuilds the record from stored values. Missing or corrupt fields
// fall back to their default.
func (m *Manager) decode(stored map[string]sqlite.Value) Settings {
	s := DefaultSettings()
	for _, key := range Keys {
		v, ok := stored[key]
		if !ok {
			continue
		}
		raw, err := valueJSON(v)
		if err == nil {
			var p Patch
			p, err = PatchFor(key, raw)
			if err == nil {
				next := s.Merge(p)
				if err = Validate(next); err == nil {
					s = next
					continue
				}
			}
		}
		m.log.Warn("ignoring stored setting", "key", key, "error", err.Error())
	}
	return s
}

// Get returns the current record.
func (m *Manager) Get() Settings {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// OnChange registers fn to run after every successful change.
func (m *Manager) OnChange(fn ChangeFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.observers = append(m.observers, fn)
}

// Set merges p into the current record, validates the result, persists
// every field and applies the host side effects. A validation failure
// writes nothing.
func (m *Manager) Set(ctx context.Context, p Patch) ipc.Envelope {
	s, err := m.update(ctx, func(cur Settings) Settings { return cur.Merge(p) })
	if err != nil {
		return ipc.Fail(err)
	}
	return ipc.OKMessage(s, "settings saved")
}

// GetSetting returns a single field.
func (m *Manager) GetSetting(key string) ipc.Envelope {
	v, ok := m.Get().Field(key)
	if !ok {
		return ipc.Fail(errors.NotFound("settings:get", "unknown setting: %s", key))
	}
	return ipc.OK(v)
}

// SetSetting updates a single field from its JSON value.
func (m *Manager) SetSetting(ctx context.Context, key string, raw json.RawMessage) ipc.Envelope {
	p, err := PatchFor(key, raw)
	if err != nil {
		return ipc.Fail(errors.Validation("settings:set", "%v", err))
	}
	if _, err := m.update(ctx, func(cur Settings) Settings { return cur.Merge(p) }); err != nil {
		return ipc.Fail(err)
	}
	return ipc.OKMessage(true, "settings saved")
}

// Reset restores the defaults.
func (m *Manager) Reset(ctx context.Context) ipc.Envelope {
	s, err := m.update(ctx, func(Settings) Settings { return DefaultSettings() })
	if err != nil {
		return ipc.Fail(err)
	}
	m.log.Info("settings reset to defaults")
	return ipc.OKMessage(s, "settings reset to defaults")
}

// Export renders the record as a JSON document string.
func (m *Manager) Export() ipc.Envelope {
	doc := Export{
		Version:   version.Version,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Settings:  m.Get(),
	}
	raw, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return ipc.Fail(errors.Internal("settings:export", err))
	}
	return ipc.OKMessage(string(raw), "settings exported")
}

// Import replaces the record with the settings of an exported document.
// Missing fields take their default value.
func (m *Manager) Import(ctx context.Context, document string) ipc.Envelope {
	var doc struct {
		Settings *json.RawMessage `json:"settings"`
	}
	if err := json.Unmarshal([]byte(document), &doc); err != nil || doc.Settings == nil {
		return ipc.Fail(errors.Validation("settings:import", "invalid settings file format"))
	}
	imported := DefaultSettings()
	if err := json.Unmarshal(*doc.Settings, &imported); err != nil {
		return ipc.Fail(errors.Validation("settings:import", "invalid settings file format"))
	}
	if err := Validate(imported); err != nil {
		return ipc.Fail(errors.Validation("settings:import", "imported %v", err))
	}
	s, err := m.update(ctx, func(Settings) Settings { return imported })
	if err != nil {
		return ipc.Fail(err)
	}
	m.log.Info("settings imported")
	return ipc.OKMessage(s, "settings imported")
}

// Backup snapshots the record with store details.
func (m *Manager) Backup(ctx context.Context) ipc.Envelope {
	info, err := m.Info(ctx)
	if err != nil {
		return ipc.Fail(errors.HostIO("settings:backup", err))
	}
	b := Backup{
		Export: Export{
			Version:   version.Version,
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			Settings:  m.Get(),
		},
		StoreInfo: info,
	}
	return ipc.OKMessage(b, "settings backed up")
}

// Restore applies the settings of a backup.
func (m *Manager) Restore(ctx context.Context, b Backup) ipc.Envelope {
	if err := Validate(b.Settings); err != nil {
		return ipc.Fail(errors.Validation("settings:restore", "backup %v", err))
	}
	s, err := m.update(ctx, func(Settings) Settings { return b.Settings })
	if err != nil {
		return ipc.Fail(err)
	}
	m.log.Info("settings restored")
	return ipc.OKMessage(s, "settings restored")
}

// ClearAll empties the store and writes the defaults back.
func (m *Manager) ClearAll(ctx context.Context) ipc.Envelope {
	if err := m.store.ClearSettings(ctx); err != nil {
		return ipc.Fail(errors.HostIO("settings:clear", err))
	}
	if err := m.store.SetSettings(ctx, map[string]sqlite.Value{keyInitialized: sqlite.BoolValue(true)}); err != nil {
		return ipc.Fail(errors.HostIO("settings:clear", err))
	}
	if env := m.Reset(ctx); !env.Success {
		return env
	}
	return ipc.OKMessage(true, "all settings cleared and reset to defaults")
}

// Info reports where and how much is stored.
func (m *Manager) Info(ctx context.Context) (Info, error) {
	stored, err := m.store.AllSettings(ctx)
	if err != nil {
		return Info{}, err
	}
	initialized := false
	if v, ok := stored[keyInitialized]; ok {
		initialized, _ = v.Bool()
	}
	return Info{
		StorePath:            m.store.Path(),
		StoreSize:            len(stored),
		Initialized:          initialized,
		SettingsCount:        len(Keys),
		DefaultSettingsCount: len(Keys),
	}, nil
}

// Apply pushes the current theme and auto-start state to the host.
func (m *Manager) Apply() {
	m.apply(m.Get())
}

func (m *Manager) update(ctx context.Context, next func(Settings) Settings) (Settings, error) {
	m.mu.Lock()
	previous := m.current
	candidate := next(previous)
	if err := Validate(candidate); err != nil {
		m.mu.Unlock()
		m.log.Warn("settings rejected", "error", err.Error())
		return previous, errors.Validation("settings:set", "%v", err)
	}
	if err := m.store.SetSettings(ctx, encode(candidate)); err != nil {
		m.mu.Unlock()
		m.log.Error("persist settings failed", "error", err.Error())
		return previous, errors.HostIO("settings:set", err)
	}
	m.current = candidate
	observers := append([]ChangeFunc(nil), m.observers...)
	m.mu.Unlock()

	m.apply(candidate)
	m.log.Debug("settings updated", "theme", candidate.Theme, "language", candidate.Language)
	if candidate != previous {
		for _, fn := range observers {
			fn(candidate, previous)
		}
	}
	return candidate, nil
}

func (m *Manager) apply(s Settings) {
	if m.theme != nil {
		m.theme.SetThemeSource(ThemeSource(s.Theme))
	}
	if m.login != nil {
		if err := m.login.SetLoginItem(s.AutoStart, true); err != nil {
			m.log.Error("apply auto start failed", "error", err.Error())
		}
	}
}

// ThemeSource maps a theme setting to the host's tri-state source.
func ThemeSource(theme string) host.ThemeSource {
	switch theme {
	case ThemeLight:
		return host.ThemeLight
	case ThemeDark:
		return host.ThemeDark
	default:
		return host.ThemeSystem
	}
}

func encode(s Settings) map[string]sqlite.Value {
	return map[string]sqlite.Value{
		KeyTheme:          sqlite.StringValue(s.Theme),
		KeyLanguage:       sqlite.StringValue(s.Language),
		KeyAutoStart:      sqlite.BoolValue(s.AutoStart),
		KeyMinimizeToTray: sqlite.BoolValue(s.MinimizeToTray),
		KeyNotifications:  sqlite.BoolValue(s.Notifications),
		KeyAutoUpdate:     sqlite.BoolValue(s.AutoUpdate),
	}
}

func valueJSON(v sqlite.Value) (json.RawMessage, error) {
	decoded, err := v.Any()
	if err != nil {
		return nil, err
	}
	return json.Marshal(decoded)
}
