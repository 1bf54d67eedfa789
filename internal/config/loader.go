package config

import (
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// flagKeys maps command-line flag names to configuration keys.
var flagKeys = map[string]string{
	"lessc":              "lessc_path",
	"cache-dir":          "cache_dir",
	"cache-backend":      "cache_backend",
	"interval":           "interval",
	"encoding":           "encoding",
	"include-path":       "include_path",
	"custom-js":          "custom_js",
	"parallelism":        "parallelism",
	"silent":             "silent",
	"verbose":            "verbose",
	"log-format":         "log_format",
	"compress":           "compress",
	"minify":             "minify",
	"optimization-level": "optimization_level",
	"strict-imports":     "strict_imports",
	"strict-math":        "strict_math",
	"strict-units":       "strict_units",
	"rootpath":           "rootpath",
	"relative-urls":      "relative_urls",
	"line-numbers":       "line_numbers",
	"global-var":         "global_var",
	"modify-var":         "modify_var",
}

// Loader handles configuration loading from various sources
type Loader struct{}

// NewLoader creates a new configuration loader
func NewLoader() *Loader {
	return &Loader{}
}

// LoadForBuild loads configuration specifically for build operations. args
// are the positional sources; the first one selects the local config.
func (l *Loader) LoadForBuild(cmd *cobra.Command, args []string) (*Config, error) {
	l.setupViperDefaults()
	l.loadGlobalConfig()
	l.loadLocalConfig(args)
	l.bindCommandFlags(cmd)

	return Load()
}

// setupViperDefaults sets up default values for viper
func (l *Loader) setupViperDefaults() {
	viper.SetDefault("lessc_path", DefaultLesscPath)
	viper.SetDefault("cache_dir", DefaultCacheDir())
	viper.SetDefault("cache_backend", DefaultCacheBackend)
	viper.SetDefault("interval", DefaultInterval)
	viper.SetDefault("parallelism", DefaultParallelism)
	viper.SetDefault("log_format", DefaultLogFormat)
	viper.SetDefault("silent", DefaultSilent)
	viper.SetDefault("verbose", DefaultVerbose)
}

// loadGlobalConfig loads the per-user configuration
func (l *Loader) loadGlobalConfig() {
	if globalPath := FindGlobalConfig(); globalPath != "" {
		viper.SetConfigFile(globalPath)
		_ = viper.ReadInConfig()
	}
}

// loadLocalConfig merges the nearest project configuration over the global
// one
func (l *Loader) loadLocalConfig(args []string) {
	if len(args) > 0 {
		absFirstFile, err := filepath.Abs(args[0])
		if err != nil {
			return // silently ignore, config.Load() will handle validation
		}

		dir := filepath.Dir(absFirstFile)
		localPath := FindLocalConfig(dir)
		if localPath != "" {
			viper.SetConfigFile(localPath)
			_ = viper.MergeInConfig()
		}
	}
}

// bindCommandFlags binds command flags to viper
func (l *Loader) bindCommandFlags(cmd *cobra.Command) {
	if cmd == nil {
		return
	}

	for name, key := range flagKeys {
		if flag := cmd.Flags().Lookup(name); flag != nil {
			_ = viper.BindPFlag(key, flag)
		}
	}
}
