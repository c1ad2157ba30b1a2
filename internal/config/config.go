// Package config loads focusring settings from focusring.yaml and
// FOCUSRING_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/sadopc/focusring/internal/store"
)

const (
	// FileName is the config file name without extension.
	FileName = "focusring"
	// EnvPrefix prefixes environment overrides, e.g. FOCUSRING_BACKEND.
	EnvPrefix = "FOCUSRING"
	// AppDir is the directory under the user config dir.
	AppDir = "focusring"
)

// Backends accepted by the backend key.
const (
	BackendSQLite = "sqlite"
	BackendLocal  = "local"
	BackendRemote = "remote"
)

// Config is the complete focusring configuration.
type Config struct {
	// Backend selects where blocks live: sqlite, local or remote.
	Backend string `yaml:"backend" mapstructure:"backend"`
	// DBPath is the sqlite database file.
	DBPath string `yaml:"db_path" mapstructure:"db_path"`
	// DataDir holds one file per block for the local backend, and the
	// recent list for the remote backend.
	DataDir   string       `yaml:"data_dir" mapstructure:"data_dir"`
	Namespace string       `yaml:"namespace" mapstructure:"namespace"`
	Remote    RemoteConfig `yaml:"remote" mapstructure:"remote"`
	// Listen is the address for `focusring serve`.
	Listen string    `yaml:"listen" mapstructure:"listen"`
	Log    LogConfig `yaml:"log" mapstructure:"log"`
}

// RemoteConfig configures the HTTP backend.
type RemoteConfig struct {
	// URL is the API root, e.g. http://localhost:8080/api
	URL     string        `yaml:"url" mapstructure:"url"`
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

type LogConfig struct {
	Level string `yaml:"level" mapstructure:"level"`
	// File receives logs while the TUI owns the terminal.
	File string `yaml:"file" mapstructure:"file"`
}

// Dir returns ~/.config/focusring or its platform equivalent.
func Dir() (string, error) {
	cfg, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(cfg, AppDir), nil
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	c := &Config{
		Backend:   BackendSQLite,
		Namespace: store.DefaultNamespace,
		Remote: RemoteConfig{
			URL:     "",
			Timeout: 10 * time.Second,
		},
		Listen: "127.0.0.1:8080",
		Log: LogConfig{
			Level: "info",
		},
	}
	if path, err := store.DefaultDBPath(); err == nil {
		c.DBPath = path
	}
	if dir, err := Dir(); err == nil {
		c.DataDir = filepath.Join(dir, "data")
		c.Log.File = filepath.Join(dir, "focusring.log")
	}
	return c
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	switch c.Backend {
	case BackendSQLite:
		if c.DBPath == "" {
			return fmt.Errorf("db_path is required for the sqlite backend")
		}
	case BackendLocal:
		if c.DataDir == "" {
			return fmt.Errorf("data_dir is required for the local backend")
		}
	case BackendRemote:
		if c.Remote.URL == "" {
			return fmt.Errorf("remote.url is required for the remote backend")
		}
		if c.Remote.Timeout <= 0 {
			return fmt.Errorf("remote.timeout must be positive")
		}
	default:
		return fmt.Errorf("unknown backend %q (want sqlite, local or remote)", c.Backend)
	}
	if c.Namespace == "" {
		return fmt.Errorf("namespace is required")
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log.level %q", c.Log.Level)
	}
	return nil
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("backend", d.Backend)
	v.SetDefault("db_path", d.DBPath)
	v.SetDefault("data_dir", d.DataDir)
	v.SetDefault("namespace", d.Namespace)
	v.SetDefault("remote.url", d.Remote.URL)
	v.SetDefault("remote.timeout", d.Remote.Timeout)
	v.SetDefault("listen", d.Listen)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.file", d.Log.File)
}

// Load reads configuration. An explicit path must exist; otherwise the
// working directory and the user config dir are searched and a missing
// file means defaults. Environment variables override both.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v, DefaultConfig())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		expanded, err := homedir.Expand(path)
		if err != nil {
			return nil, fmt.Errorf("expand config path: %w", err)
		}
		v.SetConfigFile(expanded)
	} else {
		v.SetConfigName(FileName) // .yaml is implicit
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if dir, err := Dir(); err == nil {
			v.AddConfigPath(dir)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := c.expandPaths(); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &c, nil
}

func (c *Config) expandPaths() error {
	for _, p := range []*string{&c.DBPath, &c.DataDir, &c.Log.File} {
		if *p == "" {
			continue
		}
		expanded, err := homedir.Expand(*p)
		if err != nil {
			return fmt.Errorf("expand %q: %w", *p, err)
		}
		*p = expanded
	}
	return nil
}

// WriteDefault writes the default configuration as YAML to path. An
// existing file is left alone unless force is set.
func WriteDefault(path string, force bool) error {
	expanded, err := homedir.Expand(path)
	if err != nil {
		return fmt.Errorf("expand config path: %w", err)
	}
	if !force {
		if _, err := os.Stat(expanded); err == nil {
			return fmt.Errorf("%s already exists", expanded)
		}
	}
	data, err := yaml.Marshal(DefaultConfig())
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(expanded), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	return os.WriteFile(expanded, data, 0o644)
}
