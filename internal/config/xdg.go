package config

import (
	"path/filepath"
	"strings"

	"gopkg.in/ini.v1"
)

// documentsDir resolves XDG_DOCUMENTS_DIR from user-dirs.dirs, falling back
// to ~/Documents.
func documentsDir(home, xdgConfig string) string {
	fallback := filepath.Join(home, "Documents")

	cfg, err := ini.LoadSources(ini.LoadOptions{
		Loose:               true,
		IgnoreInlineComment: true,
	}, filepath.Join(xdgConfig, "user-dirs.dirs"))
	if err != nil {
		return fallback
	}

	value := strings.TrimSpace(cfg.Section(ini.DefaultSection).Key("XDG_DOCUMENTS_DIR").String())
	value = strings.Trim(value, `"`)
	if value == "" {
		return fallback
	}

	value = strings.ReplaceAll(value, "${HOME}", home)
	value = strings.ReplaceAll(value, "$HOME", home)
	if !filepath.IsAbs(value) {
		return fallback
	}
	return filepath.Clean(value)
}
