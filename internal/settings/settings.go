// Package settings owns the persisted application preferences: load,
// validate, persist and apply them to the host.
package settings

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Theme values.
const (
	ThemeLight = "light"
	ThemeDark  = "dark"
	ThemeAuto  = "auto"
)

// Language values.
const (
	LanguageChinese = "zh-CN"
	LanguageEnglish = "en-US"
)

// Persisted keys.
const (
	KeyTheme          = "theme"
	KeyLanguage       = "language"
	KeyAutoStart      = "autoStart"
	KeyMinimizeToTray = "minimizeToTray"
	KeyNotifications  = "notifications"
	KeyAutoUpdate     = "autoUpdate"

	keyInitialized = "initialized"
)

// Keys lists the record fields in display order.
var Keys = []string{
	KeyTheme,
	KeyLanguage,
	KeyAutoStart,
	KeyMinimizeToTray,
	KeyNotifications,
	KeyAutoUpdate,
}

// Settings is the application preferences record.
//
// JSON shape:
//
//	{
//	  "theme": "auto",
//	  "language": "zh-CN",
//	  "autoStart": false,
//	  "minimizeToTray": true,
//	  "notifications": true,
//	  "autoUpdate": true
//	}
type Settings struct {
	// Theme is one of "light", "dark", "auto".
	Theme string `json:"theme"`
	// Language is one of "zh-CN", "en-US".
	Language       string `json:"language"`
	AutoStart      bool   `json:"autoStart"`
	MinimizeToTray bool   `json:"minimizeToTray"`
	Notifications  bool   `json:"notifications"`
	AutoUpdate     bool   `json:"autoUpdate"`
}

// DefaultSettings returns the record used on first run and after a reset.
func DefaultSettings() Settings {
	return Settings{
		Theme:          ThemeAuto,
		Language:       LanguageChinese,
		AutoStart:      false,
		MinimizeToTray: true,
		Notifications:  true,
		AutoUpdate:     true,
	}
}

// Patch is a partial update. Nil fields keep their current value.
type Patch struct {
	Theme          *string `json:"theme,omitempty"`
	Language       *string `json:"language,omitempty"`
	AutoStart      *bool   `json:"autoStart,omitempty"`
	MinimizeToTray *bool   `json:"minimizeToTray,omitempty"`
	Notifications  *bool   `json:"notifications,omitempty"`
	AutoUpdate     *bool   `json:"autoUpdate,omitempty"`
}

// Empty reports whether the patch changes nothing.
func (p Patch) Empty() bool {
	return p == Patch{}
}

// Merge returns s with the non-nil fields of p applied.
func (s Settings) Merge(p Patch) Settings {
	if p.Theme != nil {
		s.Theme = *p.Theme
	}
	if p.Language != nil {
		s.Language = *p.Language
	}
	if p.AutoStart != nil {
		s.AutoStart = *p.AutoStart
	}
	if p.MinimizeToTray != nil {
		s.MinimizeToTray = *p.MinimizeToTray
	}
	if p.Notifications != nil {
		s.Notifications = *p.Notifications
	}
	if p.AutoUpdate != nil {
		s.AutoUpdate = *p.AutoUpdate
	}
	return s
}

// Field returns the value of key, or false for an unknown key.
func (s Settings) Field(key string) (any, bool) {
	switch key {
	case KeyTheme:
		return s.Theme, true
	case KeyLanguage:
		return s.Language, true
	case KeyAutoStart:
		return s.AutoStart, true
	case KeyMinimizeToTray:
		return s.MinimizeToTray, true
	case KeyNotifications:
		return s.Notifications, true
	case KeyAutoUpdate:
		return s.AutoUpdate, true
	default:
		return nil, false
	}
}

// PatchFor builds a single-field patch from a JSON encoded value.
func PatchFor(key string, raw json.RawMessage) (Patch, error) {
	var p Patch
	var target any
	switch key {
	case KeyTheme:
		target = &p.Theme
	case KeyLanguage:
		target = &p.Language
	case KeyAutoStart:
		target = &p.AutoStart
	case KeyMinimizeToTray:
		target = &p.MinimizeToTray
	case KeyNotifications:
		target = &p.Notifications
	case KeyAutoUpdate:
		target = &p.AutoUpdate
	default:
		return Patch{}, fmt.Errorf("unknown setting: %s", key)
	}
	if len(raw) == 0 || string(raw) == "null" {
		return Patch{}, fmt.Errorf("%s requires a value", key)
	}
	if err := json.Unmarshal(raw, target); err != nil {
		return Patch{}, fmt.Errorf("invalid %s value: %s", key, string(raw))
	}
	return p, nil
}

// ParseAssignment parses a command line "key=value" pair into a patch.
func ParseAssignment(assignment string) (Patch, error) {
	key, value, ok := strings.Cut(assignment, "=")
	key = strings.TrimSpace(key)
	if !ok || key == "" {
		return Patch{}, fmt.Errorf("expected key=value, got %q", assignment)
	}
	value = strings.TrimSpace(value)

	var raw []byte
	switch key {
	case KeyTheme, KeyLanguage:
		raw, _ = json.Marshal(value)
	default:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return Patch{}, fmt.Errorf("invalid %s value: %s", key, value)
		}
		raw = []byte(strconv.FormatBool(b))
	}
	return PatchFor(key, raw)
}

// Combine merges patches left to right.
func Combine(patches ...Patch) Patch {
	var out Patch
	for _, p := range patches {
		if p.Theme != nil {
			out.Theme = p.Theme
		}
		if p.Language != nil {
			out.Language = p.Language
		}
		if p.AutoStart != nil {
			out.AutoStart = p.AutoStart
		}
		if p.MinimizeToTray != nil {
			out.MinimizeToTray = p.MinimizeToTray
		}
		if p.Notifications != nil {
			out.Notifications = p.Notifications
		}
		if p.AutoUpdate != nil {
			out.AutoUpdate = p.AutoUpdate
		}
	}
	return out
}
