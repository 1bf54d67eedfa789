package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"go.trai.ch/zerr"

	"github.com/Norgate-AV/lessbuild/internal/cache"
	"github.com/Norgate-AV/lessbuild/internal/compiler"
	"github.com/Norgate-AV/lessbuild/internal/logger"
	"github.com/Norgate-AV/lessbuild/internal/resource"
	"github.com/Norgate-AV/lessbuild/internal/utils"
)

// Default configuration values
const (
	DefaultLesscPath    = compiler.DefaultExecutable
	DefaultCacheBackend = cache.BackendFile
	DefaultInterval     = 500 * time.Millisecond
	DefaultParallelism  = 1
	DefaultLogFormat    = logger.FormatAuto
	DefaultVerbose      = false
	DefaultSilent       = false
)

// Holds the configuration options for lessbuild
type Config struct {
	// Path to the lessc executable
	LesscPath string

	// Directory holding the dependency cache
	CacheDir string
	// Cache backend, "file" or "bolt"
	CacheBackend string

	// Daemon polling interval
	Interval time.Duration

	// Character encoding of sources and destinations
	Encoding string

	// Directories searched for imports
	IncludePaths []string

	// Plugin script loaded into the compiler
	CustomJS string

	// Number of units compiled at once
	Parallelism int

	// Suppress compilation error output
	Silent bool

	// Enable verbose output
	Verbose bool

	// Log output format: auto, console or json
	LogFormat string

	// Compiler options
	Options compiler.Options
}

// DefaultCacheDir returns the per-user cache directory, or a directory in
// the working directory when the user cache location is unknown.
func DefaultCacheDir() string {
	if dir, err := os.UserCacheDir(); err == nil {
		return filepath.Join(dir, "lessbuild")
	}

	return ".lessbuild-cache"
}

func Load() (*Config, error) {
	defaults := compiler.DefaultOptions()

	cfg := &Config{
		LesscPath:    viper.GetString("lessc_path"),
		CacheDir:     viper.GetString("cache_dir"),
		CacheBackend: viper.GetString("cache_backend"),
		Interval:     viper.GetDuration("interval"),
		Encoding:     viper.GetString("encoding"),
		IncludePaths: utils.ParseIncludePaths(viper.GetStringSlice("include_path")...),
		CustomJS:     viper.GetString("custom_js"),
		Parallelism:  viper.GetInt("parallelism"),
		Silent:       viper.GetBool("silent"),
		Verbose:      viper.GetBool("verbose"),
		LogFormat:    viper.GetString("log_format"),
		Options: compiler.Options{
			Compress:          viper.GetBool("compress"),
			Minify:            viper.GetBool("minify"),
			OptimizationLevel: defaults.OptimizationLevel,
			StrictImports:     viper.GetBool("strict_imports"),
			StrictMath:        viper.GetBool("strict_math"),
			StrictUnits:       viper.GetBool("strict_units"),
			RootPath:          viper.GetString("rootpath"),
			RelativeURLs:      defaults.RelativeURLs,
			GlobalVars:        parseVars(viper.GetStringSlice("global_var")),
			ModifyVars:        parseVars(viper.GetStringSlice("modify_var")),
		},
	}

	if viper.IsSet("optimization_level") {
		cfg.Options.OptimizationLevel = viper.GetInt("optimization_level")
	}

	if viper.IsSet("relative_urls") {
		cfg.Options.RelativeURLs = viper.GetBool("relative_urls")
	}

	lineNumbers, err := compiler.ParseLineNumbers(viper.GetString("line_numbers"))
	if err != nil {
		return nil, err
	}

	cfg.Options.LineNumbers = lineNumbers

	// Apply defaults if not set
	if cfg.LesscPath == "" {
		cfg.LesscPath = DefaultLesscPath
	}

	if cfg.CacheDir == "" {
		cfg.CacheDir = DefaultCacheDir()
	}

	if cfg.CacheBackend == "" {
		cfg.CacheBackend = DefaultCacheBackend
	}

	if cfg.LogFormat == "" {
		cfg.LogFormat = DefaultLogFormat
	}

	if cfg.Parallelism == 0 {
		cfg.Parallelism = DefaultParallelism
	}

	if !viper.IsSet("interval") {
		cfg.Interval = DefaultInterval
	}

	// Validate required fields
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	// A bare executable name is looked up on PATH
	if strings.ContainsRune(c.LesscPath, filepath.Separator) || strings.ContainsRune(c.LesscPath, '/') {
		if abs, err := filepath.Abs(c.LesscPath); err == nil {
			c.LesscPath = abs
		}
	}

	abs, err := filepath.Abs(c.CacheDir)
	if err != nil {
		return zerr.With(zerr.Wrap(err, "invalid cache directory"), "cache_dir", c.CacheDir)
	}

	c.CacheDir = abs

	if c.CacheBackend != cache.BackendFile && c.CacheBackend != cache.BackendBolt {
		return zerr.With(zerr.New("invalid cache backend"), "cache_backend", c.CacheBackend)
	}

	if c.Interval <= 0 {
		return zerr.With(zerr.New("invalid daemon interval"), "interval", c.Interval.String())
	}

	if c.Parallelism < 1 {
		return zerr.With(zerr.New("invalid parallelism"), "parallelism", c.Parallelism)
	}

	switch c.LogFormat {
	case logger.FormatAuto, logger.FormatConsole, logger.FormatJSON:
	default:
		return zerr.With(zerr.New("invalid log format"), "log_format", c.LogFormat)
	}

	if err := resource.ValidateEncoding(c.Encoding); err != nil {
		return err
	}

	// Resolve include paths
	paths, err := utils.AbsPaths(c.IncludePaths)
	if err != nil {
		return zerr.Wrap(err, "invalid include path")
	}

	c.IncludePaths = paths

	if c.CustomJS != "" {
		abs, err := filepath.Abs(c.CustomJS)
		if err != nil {
			return zerr.With(zerr.Wrap(err, "invalid custom script path"), "custom_js", c.CustomJS)
		}

		c.CustomJS = abs
	}

	return nil
}

// parseVars turns NAME=VALUE pairs into a map. A pair without a value maps
// to an empty string.
func parseVars(pairs []string) map[string]string {
	if len(pairs) == 0 {
		return nil
	}

	vars := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		name, value, _ := strings.Cut(pair, "=")
		if name = strings.TrimSpace(name); name != "" {
			vars[name] = strings.TrimSpace(value)
		}
	}

	return vars
}
