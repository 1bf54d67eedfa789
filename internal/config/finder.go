package config

import (
	"os"
	"path/filepath"
)

// configExtensions are the formats viper reads, in lookup order.
var configExtensions = []string{"yml", "yaml", "json", "toml"}

// FindLocalConfig finds local config file by walking up directories
func FindLocalConfig(dir string) string {
	for {
		if path := findConfigFile(dir, ".lessbuild"); path != "" {
			return path
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}

		dir = parent
	}

	return ""
}

// FindGlobalConfig returns the per-user config file, or an empty string if
// there is none.
func FindGlobalConfig() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}

	return findConfigFile(filepath.Join(dir, "lessbuild"), "config")
}

func findConfigFile(dir, name string) string {
	for _, ext := range configExtensions {
		path := filepath.Join(dir, name+"."+ext)

		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path
		}
	}

	return ""
}
