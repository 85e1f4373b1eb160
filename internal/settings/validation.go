package settings

import (
	"fmt"
	"strings"
)

// Validate checks the full record and reports every invalid field.
func Validate(s Settings) error {
	var problems []string
	if err := validateTheme(s.Theme); err != nil {
		problems = append(problems, err.Error())
	}
	if err := validateLanguage(s.Language); err != nil {
		problems = append(problems, err.Error())
	}
	if len(problems) == 0 {
		return nil
	}
	return fmt.Errorf("settings validation failed: %s", strings.Join(problems, ", "))
}

func validateTheme(theme string) error {
	switch theme {
	case ThemeLight, ThemeDark, ThemeAuto:
		return nil
	default:
		return fmt.Errorf("invalid theme value: %s", theme)
	}
}

func validateLanguage(lang string) error {
	switch lang {
	case LanguageChinese, LanguageEnglish:
		return nil
	default:
		return fmt.Errorf("invalid language value: %s", lang)
	}
}
