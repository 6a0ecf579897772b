// Package config handles configuration loading for kyr.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	embeddedconfig "github.com/knowyourrights/kyr/config"
)

// EnvConfigPath overrides the configuration file location.
const EnvConfigPath = "KYRRC"

// ServerConfig describes the assistant backend.
type ServerConfig struct {
	// URL is the backend base URL, without the API prefix.
	URL string
	// APIPrefix is prepended to every endpoint path.
	APIPrefix string
	// Token is sent as a bearer token when non-empty.
	Token string
	// ListTimeout bounds session list and transcript requests.
	ListTimeout time.Duration
	// RateLimitPerMinute throttles chat turns; 0 disables throttling.
	RateLimitPerMinute int
}

// ChatConfig holds conversation defaults.
type ChatConfig struct {
	Category       string
	StaleResponses string
}

// LogConfig controls console and file logging.
type LogConfig struct {
	Level     string
	File      string
	FileLevel string
	MaxSizeMB int
	// MaxBackups is the number of rotated files kept.
	MaxBackups int
}

// FileDisabled as LogConfig.File turns off the log file.
const FileDisabled = "-"

// Config represents the complete kyr configuration.
type Config struct {
	Server ServerConfig
	Chat   ChatConfig
	Log    LogConfig
}

// Source says where a configuration came from.
type Source string

const (
	SourceEmbedded Source = "embedded defaults"
	SourceFile     Source = "file"
)

// LoadResult is a configuration plus where it was loaded from.
type LoadResult struct {
	Config     *Config
	Source     Source
	SourcePath string
}

// rawConfig mirrors the YAML layout. Pointers distinguish unset from zero.
type rawConfig struct {
	Server struct {
		URL                string `yaml:"url"`
		APIPrefix          string `yaml:"api_prefix"`
		Token              string `yaml:"token"`
		ListTimeout        string `yaml:"list_timeout"`
		RateLimitPerMinute *int   `yaml:"rate_limit_per_minute"`
	} `yaml:"server"`
	Chat struct {
		Category       string `yaml:"category"`
		StaleResponses string `yaml:"stale_responses"`
	} `yaml:"chat"`
	Log struct {
		Level      string `yaml:"level"`
		File       string `yaml:"file"`
		FileLevel  string `yaml:"file_level"`
		MaxSizeMB  *int   `yaml:"max_size_mb"`
		MaxBackups *int   `yaml:"max_backups"`
	} `yaml:"log"`
}

// Default returns the built-in configuration values.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			URL:                "http://localhost:8000",
			APIPrefix:          "/api",
			ListTimeout:        15 * time.Second,
			RateLimitPerMinute: 20,
		},
		Chat: ChatConfig{
			Category:       "general",
			StaleResponses: "append",
		},
		Log: LogConfig{
			Level:      "warn",
			FileLevel:  "debug",
			MaxSizeMB:  5,
			MaxBackups: 3,
		},
	}
}

// DefaultPath returns the default configuration file path for the current platform.
func DefaultPath() string {
	if envPath := os.Getenv(EnvConfigPath); envPath != "" {
		return envPath
	}

	switch runtime.GOOS {
	case "windows":
		dir := os.Getenv("APPDATA")
		if dir == "" {
			dir = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		return filepath.Join(dir, "kyr", "config.yaml")
	case "darwin":
		home, _ := os.UserHomeDir()
		return filepath.Join(home, embeddedconfig.FileName)
	default:
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return filepath.Join(xdg, "kyr", "config.yaml")
		}
		home, _ := os.UserHomeDir()
		return filepath.Join(home, embeddedconfig.FileName)
	}
}

// Load reads and parses the configuration file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// LoadWithFallback loads DefaultPath, or the embedded defaults when that
// file does not exist.
func LoadWithFallback() (*LoadResult, error) {
	path := DefaultPath()
	cfg, err := Load(path)
	if err == nil {
		return &LoadResult{Config: cfg, Source: SourceFile, SourcePath: path}, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}

	cfg, err = Parse(embeddedconfig.DefaultConfigYAML)
	if err != nil {
		return nil, fmt.Errorf("embedded config: %w", err)
	}
	return &LoadResult{Config: cfg, Source: SourceEmbedded}, nil
}

// Parse parses YAML configuration data. Unset keys keep their Default values.
func Parse(data []byte) (*Config, error) {
	var raw rawConfig
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg := Default()

	if raw.Server.URL != "" {
		cfg.Server.URL = raw.Server.URL
	}
	if raw.Server.APIPrefix != "" {
		cfg.Server.APIPrefix = raw.Server.APIPrefix
	}
	cfg.Server.Token = raw.Server.Token
	if raw.Server.ListTimeout != "" {
		d, err := time.ParseDuration(raw.Server.ListTimeout)
		if err != nil {
			return nil, fmt.Errorf("server.list_timeout: %w", err)
		}
		cfg.Server.ListTimeout = d
	}
	if raw.Server.RateLimitPerMinute != nil {
		cfg.Server.RateLimitPerMinute = *raw.Server.RateLimitPerMinute
	}

	if raw.Chat.Category != "" {
		cfg.Chat.Category = strings.ToLower(raw.Chat.Category)
	}
	if raw.Chat.StaleResponses != "" {
		cfg.Chat.StaleResponses = strings.ToLower(raw.Chat.StaleResponses)
	}

	if raw.Log.Level != "" {
		cfg.Log.Level = raw.Log.Level
	}
	cfg.Log.File = raw.Log.File
	if raw.Log.FileLevel != "" {
		cfg.Log.FileLevel = raw.Log.FileLevel
	}
	if raw.Log.MaxSizeMB != nil {
		cfg.Log.MaxSizeMB = *raw.Log.MaxSizeMB
	}
	if raw.Log.MaxBackups != nil {
		cfg.Log.MaxBackups = *raw.Log.MaxBackups
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values that cannot be defaulted.
func (c *Config) Validate() error {
	u, err := url.Parse(c.Server.URL)
	if err != nil {
		return fmt.Errorf("server.url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" || u.Host == "" {
		return fmt.Errorf("server.url: %q is not an http(s) URL", c.Server.URL)
	}
	if c.Server.ListTimeout < 0 {
		return fmt.Errorf("server.list_timeout: must not be negative")
	}
	if c.Server.RateLimitPerMinute < 0 {
		return fmt.Errorf("server.rate_limit_per_minute: must not be negative")
	}
	switch c.Chat.StaleResponses {
	case "append", "discard":
	default:
		return fmt.Errorf("chat.stale_responses: %q is not one of append, discard", c.Chat.StaleResponses)
	}
	if c.Log.MaxSizeMB < 0 || c.Log.MaxBackups < 0 {
		return fmt.Errorf("log: max_size_mb and max_backups must not be negative")
	}
	return nil
}

// Redacted returns a copy of c safe for printing.
func (c *Config) Redacted() *Config {
	out := *c
	if out.Server.Token != "" {
		out.Server.Token = "********"
	}
	return &out
}

// YAML encodes c in the configuration file layout.
func (c *Config) YAML() ([]byte, error) {
	var raw rawConfig
	raw.Server.URL = c.Server.URL
	raw.Server.APIPrefix = c.Server.APIPrefix
	raw.Server.Token = c.Server.Token
	raw.Server.ListTimeout = c.Server.ListTimeout.String()
	raw.Server.RateLimitPerMinute = &c.Server.RateLimitPerMinute
	raw.Chat.Category = c.Chat.Category
	raw.Chat.StaleResponses = c.Chat.StaleResponses
	raw.Log.Level = c.Log.Level
	raw.Log.File = c.Log.File
	raw.Log.FileLevel = c.Log.FileLevel
	raw.Log.MaxSizeMB = &c.Log.MaxSizeMB
	raw.Log.MaxBackups = &c.Log.MaxBackups
	return yaml.Marshal(&raw)
}
