// Package config resolves sift's configuration from viper into explicit
// values that are passed to the pipeline at call time.
package config

import (
	"os"
	"path/filepath"
	"strings"
)

// ExpandPath expands ~ and $VAR references in a file path.
func ExpandPath(path string) string {
	if path == "" {
		return path
	}

	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, strings.TrimPrefix(path[1:], "/"))
		}
	}

	return os.ExpandEnv(path)
}

// ConfigDir is where the config file lives, honouring XDG_CONFIG_HOME.
func ConfigDir() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "sift")
	}
	return ExpandPath("~/.config/sift")
}

// DataDir is where the ledger lives, honouring XDG_DATA_HOME.
func DataDir() string {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return filepath.Join(dir, "sift")
	}
	return ExpandPath("~/.local/share/sift")
}

// DefaultDatabasePath is the ledger location used when none is configured.
func DefaultDatabasePath() string {
	return filepath.Join(DataDir(), "sift.db")
}
