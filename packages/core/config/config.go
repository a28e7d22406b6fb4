package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Config represents the colrun configuration
type Config struct {
	Collection  string `yaml:"collection,omitempty" json:"collection,omitempty" toml:"collection,omitempty"`
	Environment string `yaml:"environment,omitempty" json:"environment,omitempty" toml:"environment,omitempty"`
	EnvFile     string `yaml:"envFile,omitempty" json:"envFile,omitempty" toml:"envFile,omitempty"`
	// milliseconds
	Timeout         int    `yaml:"timeout,omitempty" json:"timeout,omitempty" toml:"timeout,omitempty"`
	FollowRedirects *bool  `yaml:"followRedirects,omitempty" json:"followRedirects,omitempty" toml:"followRedirects,omitempty"`
	MaxRedirects    int    `yaml:"maxRedirects,omitempty" json:"maxRedirects,omitempty" toml:"maxRedirects,omitempty"`
	ValidateSSL     *bool  `yaml:"validateSSL,omitempty" json:"validateSSL,omitempty" toml:"validateSSL,omitempty"`
	Proxy           string `yaml:"proxy,omitempty" json:"proxy,omitempty" toml:"proxy,omitempty"`
	// Default headers for all requests
	Headers map[string]string `yaml:"headers,omitempty" json:"headers,omitempty" toml:"headers,omitempty"`
	// milliseconds between items
	Delay         int          `yaml:"delay,omitempty" json:"delay,omitempty" toml:"delay,omitempty"`
	ScriptTimeout int          `yaml:"scriptTimeout,omitempty" json:"scriptTimeout,omitempty" toml:"scriptTimeout,omitempty"`
	Output        string       `yaml:"output,omitempty" json:"output,omitempty" toml:"output,omitempty"`
	Verbose       *bool        `yaml:"verbose,omitempty" json:"verbose,omitempty" toml:"verbose,omitempty"`
	NoColor       *bool        `yaml:"noColor,omitempty" json:"noColor,omitempty" toml:"noColor,omitempty"`
	LogLevel      string       `yaml:"logLevel,omitempty" json:"logLevel,omitempty" toml:"logLevel,omitempty"`
	Store         string       `yaml:"store,omitempty" json:"store,omitempty" toml:"store,omitempty"`
	Server        ServerConfig `yaml:"server,omitempty" json:"server,omitempty" toml:"server,omitempty"`
}

// ServerConfig configures `colrun serve`
type ServerConfig struct {
	Addr        string   `yaml:"addr,omitempty" json:"addr,omitempty" toml:"addr,omitempty"`
	CORSOrigins []string `yaml:"corsOrigins,omitempty" json:"corsOrigins,omitempty" toml:"corsOrigins,omitempty"`
}

// BoolPtr returns a pointer to b
func BoolPtr(b bool) *bool {
	return &b
}

// getBool returns the value of a bool pointer, or the default if nil
func getBool(b *bool, defaultVal bool) bool {
	if b == nil {
		return defaultVal
	}
	return *b
}

// GetFollowRedirects returns the follow redirects setting, defaulting to true
func (c *Config) GetFollowRedirects() bool {
	return getBool(c.FollowRedirects, true)
}

// GetValidateSSL returns the validate SSL setting, defaulting to true
func (c *Config) GetValidateSSL() bool {
	return getBool(c.ValidateSSL, true)
}

func (c *Config) GetVerbose() bool {
	return getBool(c.Verbose, false)
}

func (c *Config) GetNoColor() bool {
	return getBool(c.NoColor, false)
}

func (c *Config) TimeoutDuration() time.Duration {
	return time.Duration(c.Timeout) * time.Millisecond
}

func (c *Config) DelayDuration() time.Duration {
	return time.Duration(c.Delay) * time.Millisecond
}

func (c *Config) ScriptTimeoutDuration() time.Duration {
	return time.Duration(c.ScriptTimeout) * time.Millisecond
}

// ConfigFilenames contains the possible config file names, in lookup order
var ConfigFilenames = []string{
	".colrun.yaml",
	"colrun.yaml",
	".colrun.json",
	"colrun.json",
	".colrun.toml",
	"colrun.toml",
}

// LoadConfig loads configuration from the specified path or searches for config files
func LoadConfig(path string) (*Config, error) {
	if path != "" {
		return loadConfigFromFile(path)
	}

	return FindAndLoadConfig(".")
}

// FindAndLoadConfig searches for a config file in the given directory
func FindAndLoadConfig(dir string) (*Config, error) {
	for _, filename := range ConfigFilenames {
		configPath := filepath.Join(dir, filename)
		if _, err := os.Stat(configPath); err == nil {
			return loadConfigFromFile(configPath)
		}
	}

	return DefaultConfig(), nil
}

// loadConfigFromFile decodes path over the defaults. JSON files are read by
// the YAML decoder as well.
func loadConfigFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	loaded := &Config{}
	if isTOML(path) {
		err = toml.Unmarshal(data, loaded)
	} else {
		err = yaml.Unmarshal(data, loaded)
	}
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	cfg := DefaultConfig().Merge(loaded)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Validate rejects values that cannot be honoured
func (c *Config) Validate() error {
	if c.Timeout < 0 || c.Delay < 0 || c.ScriptTimeout < 0 {
		return fmt.Errorf("timeout, delay and scriptTimeout must not be negative")
	}
	if c.MaxRedirects < 0 {
		return fmt.Errorf("maxRedirects must not be negative")
	}
	switch c.Output {
	case "", "console", "json", "junit", "tap":
	default:
		return fmt.Errorf("unknown output format %q", c.Output)
	}
	return nil
}

// Merge merges another config into this one, with other taking precedence
func (c *Config) Merge(other *Config) *Config {
	if other == nil {
		return c
	}

	result := *c // Copy

	if other.Collection != "" {
		result.Collection = other.Collection
	}
	if other.Environment != "" {
		result.Environment = other.Environment
	}
	if other.EnvFile != "" {
		result.EnvFile = other.EnvFile
	}
	if other.Timeout > 0 {
		result.Timeout = other.Timeout
	}
	if other.MaxRedirects > 0 {
		result.MaxRedirects = other.MaxRedirects
	}
	if other.Proxy != "" {
		result.Proxy = other.Proxy
	}
	if other.Delay > 0 {
		result.Delay = other.Delay
	}
	if other.ScriptTimeout > 0 {
		result.ScriptTimeout = other.ScriptTimeout
	}
	if other.Output != "" {
		result.Output = other.Output
	}
	if other.LogLevel != "" {
		result.LogLevel = other.LogLevel
	}
	if other.Store != "" {
		result.Store = other.Store
	}
	if other.Server.Addr != "" {
		result.Server.Addr = other.Server.Addr
	}
	if len(other.Server.CORSOrigins) > 0 {
		result.Server.CORSOrigins = other.Server.CORSOrigins
	}

	// Boolean flags - only override if explicitly set in other config
	if other.FollowRedirects != nil {
		result.FollowRedirects = other.FollowRedirects
	}
	if other.ValidateSSL != nil {
		result.ValidateSSL = other.ValidateSSL
	}
	if other.Verbose != nil {
		result.Verbose = other.Verbose
	}
	if other.NoColor != nil {
		result.NoColor = other.NoColor
	}

	if len(other.Headers) > 0 {
		headers := make(map[string]string, len(result.Headers)+len(other.Headers))
		for k, v := range result.Headers {
			headers[k] = v
		}
		for k, v := range other.Headers {
			headers[k] = v
		}
		result.Headers = headers
	}

	return &result
}

// SaveConfig writes the configuration as TOML for .toml paths and YAML otherwise
func (c *Config) SaveConfig(path string) error {
	var data []byte
	var err error
	if isTOML(path) {
		data, err = toml.Marshal(c)
	} else {
		data, err = yaml.Marshal(c)
	}
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

func isTOML(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".toml")
}
