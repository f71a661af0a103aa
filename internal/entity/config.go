// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package entity

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/ini.v1"
)

// DefaultLanguage is used when the [nlp] section has no lang key.
const DefaultLanguage = "en"

// ErrInvalidConfig is returned for configuration files that cannot be used.
var ErrInvalidConfig = errors.New("invalid entity configuration")

// Config is the [nlp] section of the ruler configuration file.
type Config struct {
	Language string
}

// LoadConfig reads an INI file with an [nlp] section:
//
//	[nlp]
//	lang = pt
//
// The language is unquoted and lowercased. An empty value is an error.
func LoadConfig(path string) (Config, error) {
	if _, err := os.Stat(path); err != nil {
		return Config{}, fmt.Errorf("configuration file not found: %s: %w", path, err)
	}

	f, err := ini.LoadSources(ini.LoadOptions{InsensitiveKeys: true}, path)
	if err != nil {
		return Config{}, fmt.Errorf("reading configuration %s: %w: %v", path, ErrInvalidConfig, err)
	}

	sec, err := f.GetSection("nlp")
	if err != nil {
		return Config{}, fmt.Errorf("configuration %s has no [nlp] section: %w", path, ErrInvalidConfig)
	}

	lang := DefaultLanguage
	if sec.HasKey("lang") {
		lang = sec.Key("lang").String()
	}
	lang, err = normaliseLanguage(lang)
	if err != nil {
		return Config{}, fmt.Errorf("configuration %s: %w", path, err)
	}
	return Config{Language: lang}, nil
}

func normaliseLanguage(lang string) (string, error) {
	lang = strings.ToLower(strings.Trim(strings.TrimSpace(lang), `"'`))
	lang = strings.TrimSpace(lang)
	if lang == "" {
		return "", fmt.Errorf("%w: language must not be empty", ErrInvalidConfig)
	}
	return lang, nil
}
