package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/jamesainslie/filer/pkg/filer/logging"
	"github.com/jamesainslie/filer/pkg/filer/types"
	"github.com/spf13/viper"
)

// RotationConfig configures log file rotation.
type RotationConfig struct {
	MaxSize    string `mapstructure:"max_size" yaml:"max_size" json:"max_size"`
	MaxAge     int    `mapstructure:"max_age" yaml:"max_age" json:"max_age"`
	MaxBackups int    `mapstructure:"max_backups" yaml:"max_backups" json:"max_backups"`
}

// LoggingConfig configures application logging.
type LoggingConfig struct {
	Level      string            `mapstructure:"level" yaml:"level" json:"level"`
	Path       string            `mapstructure:"path" yaml:"path" json:"path"`
	Rotation   RotationConfig    `mapstructure:"rotation" yaml:"rotation" json:"rotation"`
	Components map[string]string `mapstructure:"components" yaml:"components" json:"components"`
}

// CacheConfig configures the directory-size cache.
type CacheConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled" json:"enabled"`
	Path    string `mapstructure:"path" yaml:"path" json:"path"`
}

// HistoryConfig configures the operation journal.
type HistoryConfig struct {
	Enabled       bool   `mapstructure:"enabled" yaml:"enabled" json:"enabled"`
	Path          string `mapstructure:"path" yaml:"path" json:"path"`
	RetentionDays int    `mapstructure:"retention_days" yaml:"retention_days" json:"retention_days"`
}

// Config represents the application configuration.
type Config struct {
	DefaultPath  string        `mapstructure:"default_path" yaml:"default_path" json:"default_path"`
	ShowHidden   bool          `mapstructure:"show_hidden" yaml:"show_hidden" json:"show_hidden"`
	UseTrash     bool          `mapstructure:"use_trash" yaml:"use_trash" json:"use_trash"`
	Workers      int           `mapstructure:"workers" yaml:"workers" json:"workers"`
	MaxDepth     int           `mapstructure:"max_depth" yaml:"max_depth" json:"max_depth"`
	TimeLayout   string        `mapstructure:"time_layout" yaml:"time_layout" json:"time_layout"`
	RelativeTime bool          `mapstructure:"relative_time" yaml:"relative_time" json:"relative_time"`
	Clipboard    string        `mapstructure:"clipboard" yaml:"clipboard" json:"clipboard"`
	Watch        bool          `mapstructure:"watch" yaml:"watch" json:"watch"`
	Cache        CacheConfig   `mapstructure:"cache" yaml:"cache" json:"cache"`
	History      HistoryConfig `mapstructure:"history" yaml:"history" json:"history"`
	Logging      LoggingConfig `mapstructure:"logging" yaml:"logging" json:"logging"`

	// File is the config file that was read, or "" when defaults were used.
	File string `mapstructure:"-" yaml:"-" json:"file,omitempty"`
}

// Load reads configuration from file, or from the first config.yaml found in
// $XDG_CONFIG_HOME/filer and ~/.config/filer when file is empty. A missing
// config file is not an error. Environment variables are prefixed with
// FILER_ (FILER_SHOW_HIDDEN, FILER_CACHE_ENABLED, ...).
func Load(file string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("config")
		for _, dir := range searchDirs() {
			v.AddConfigPath(dir)
		}
	}

	v.SetEnvPrefix("FILER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.File = v.ConfigFileUsed()

	for _, p := range []*string{&cfg.DefaultPath, &cfg.Cache.Path, &cfg.History.Path, &cfg.Logging.Path} {
		expanded, err := ExpandPath(*p)
		if err != nil {
			return nil, err
		}
		*p = expanded
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("default_path", DefaultPath)
	v.SetDefault("show_hidden", false)
	v.SetDefault("use_trash", false)
	v.SetDefault("workers", 0)
	v.SetDefault("max_depth", DefaultMaxDepth)
	v.SetDefault("time_layout", DefaultTimeLayout)
	v.SetDefault("relative_time", false)
	v.SetDefault("clipboard", DefaultClipboard)
	v.SetDefault("watch", true)

	v.SetDefault("cache.enabled", false)
	v.SetDefault("cache.path", "")

	v.SetDefault("history.enabled", true)
	v.SetDefault("history.path", "")
	v.SetDefault("history.retention_days", DefaultRetentionDays)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.path", "")
	v.SetDefault("logging.rotation.max_size", DefaultLogMaxSize)
	v.SetDefault("logging.rotation.max_age", 30)
	v.SetDefault("logging.rotation.max_backups", 5)
	v.SetDefault("logging.components", map[string]string{})
}

// Validate checks values that cannot be defaulted silently.
func (c *Config) Validate() error {
	if c.Workers < 0 {
		return fmt.Errorf("workers must not be negative, got %d", c.Workers)
	}
	if c.MaxDepth < 0 {
		return fmt.Errorf("max_depth must not be negative, got %d", c.MaxDepth)
	}
	if _, err := logging.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("logging.level: %w", err)
	}
	if c.Logging.Rotation.MaxSize != "" {
		if _, err := types.ParseSize(c.Logging.Rotation.MaxSize); err != nil {
			return fmt.Errorf("logging.rotation.max_size: %w", err)
		}
	}
	switch strings.ToLower(c.Clipboard) {
	case "", "file", "memory", "system":
	default:
		return fmt.Errorf("clipboard must be file, memory or system, got %q", c.Clipboard)
	}
	return nil
}

// LoggingConfig converts the logging section for logging.Init.
func (c *Config) LoggingConfig(tuiMode bool) logging.Config {
	maxSize, _ := types.ParseSize(c.Logging.Rotation.MaxSize)
	return logging.Config{
		Level: c.Logging.Level,
		Path:  c.Logging.Path,
		Rotation: logging.RotationConfig{
			MaxSize:    maxSize,
			MaxAge:     c.Logging.Rotation.MaxAge,
			MaxBackups: c.Logging.Rotation.MaxBackups,
		},
		Components: c.Logging.Components,
		TUIMode:    tuiMode,
	}
}

// CachePath returns the configured cache directory or the default.
func (c *Config) CachePath() string {
	if c.Cache.Path != "" {
		return c.Cache.Path
	}
	return filepath.Join(CacheDir(), "sizes")
}

// HistoryPath returns the configured history directory or the default.
func (c *Config) HistoryPath() string {
	if c.History.Path != "" {
		return c.History.Path
	}
	return filepath.Join(StateDir(), "history")
}

func searchDirs() []string {
	var dirs []string
	if xdgConfigHome := os.Getenv("XDG_CONFIG_HOME"); xdgConfigHome != "" {
		dirs = append(dirs, filepath.Join(xdgConfigHome, "filer"))
	}
	if home, err := os.UserHomeDir(); err == nil {
		dirs = append(dirs, filepath.Join(home, ".config", "filer"))
	}
	return dirs
}

// ConfigDir returns the directory WriteDefault writes to.
func ConfigDir() (string, error) {
	if xdgConfigHome := os.Getenv("XDG_CONFIG_HOME"); xdgConfigHome != "" {
		return filepath.Join(xdgConfigHome, "filer"), nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(home, ".config", "filer"), nil
}

// ConfigPath returns the default config file path.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// StateDir returns $XDG_STATE_HOME/filer for logs, history and the clipboard.
func StateDir() string {
	return filepath.Join(xdg.StateHome, "filer")
}

// CacheDir returns $XDG_CACHE_HOME/filer.
func CacheDir() string {
	return filepath.Join(xdg.CacheHome, "filer")
}

// ExpandPath expands a leading ~ to the user's home directory.
func ExpandPath(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(home, path[1:]), nil
}

// WriteDefault writes a commented default config file and returns its path.
// An existing file is left alone and reported with created=false.
func WriteDefault() (path string, created bool, err error) {
	path, err = ConfigPath()
	if err != nil {
		return "", false, err
	}

	if _, err := os.Stat(path); err == nil {
		return path, false, nil
	} else if !os.IsNotExist(err) {
		return "", false, fmt.Errorf("failed to check config file: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", false, fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, []byte(defaultTemplate()), 0o644); err != nil {
		return "", false, fmt.Errorf("failed to write default config: %w", err)
	}
	return path, true, nil
}

func defaultTemplate() string {
	var components strings.Builder
	for _, name := range []string{"inventory", "engine", "watcher", "cache", "tui"} {
		fmt.Fprintf(&components, "    %s: %s\n", name, DefaultComponentLevels[name])
	}

	return fmt.Sprintf(`# filer configuration

# Directory opened when no path is given
default_path: %q

# Show dot-files
show_hidden: false

# Move deleted entries to the system trash instead of removing them
use_trash: false

# Concurrent metadata computations (0 = number of CPUs)
workers: 0

# Directory levels a recursive size descends
max_depth: %d

# Last-modified label layout (Go time layout) and relative labels
time_layout: %q
relative_time: false

# Clipboard used by yank and paste: file, system or memory
clipboard: %s

# Refresh the listing when the directory changes
watch: true

# Persistent directory-size cache
cache:
  enabled: false
  # Empty means $XDG_CACHE_HOME/filer/sizes
  path: ""

# Journal of completed operations
history:
  enabled: true
  # Empty means $XDG_STATE_HOME/filer/history
  path: ""
  retention_days: %d

logging:
  # debug, info, warn, error
  level: info
  # Empty means $XDG_STATE_HOME/filer/filer.log
  path: ""
  rotation:
    max_size: %s
    max_age: 30       # days
    max_backups: 5
  components:
%s`, DefaultPath, DefaultMaxDepth, DefaultTimeLayout, DefaultClipboard, DefaultRetentionDays, DefaultLogMaxSize, components.String())
}
