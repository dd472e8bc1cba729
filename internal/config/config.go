// Package config loads the corepanel configuration: YAML file, then
// environment overrides. Command line flags are applied by the caller.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	EnvConfig   = "COREPANEL_CONFIG"
	EnvAddress  = "COREPANEL_ADDRESS"
	EnvLogLevel = "COREPANEL_LOG_LEVEL"
)

// Duration decodes Go duration strings such as "1s" or "250ms".
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return fmt.Errorf("config: duration: %w", err)
	}
	parsed, err := time.ParseDuration(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("config: duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

type Log struct {
	Level   string `yaml:"level"`
	Format  string `yaml:"format"`
	NoColor bool   `yaml:"no_color"`
	File    string `yaml:"file"`
}

type Core struct {
	// ConfigPath points at the configuration content sent on connect.
	ConfigPath string `yaml:"config_path"`
	// SettingsPath points at an optional settings JSON document.
	SettingsPath string `yaml:"settings_path"`
}

type DevCore struct {
	Listen     string   `yaml:"listen"`
	StartDelay Duration `yaml:"start_delay"`
}

// Config is the full configuration.
type Config struct {
	Address        string   `yaml:"address"`
	ReconnectDelay Duration `yaml:"reconnect_delay"`
	Renderer       string   `yaml:"renderer"`
	Log            Log      `yaml:"log"`
	Core           Core     `yaml:"core"`
	DevCore        DevCore  `yaml:"devcore"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Address:        "127.0.0.1:17078",
		ReconnectDelay: Duration(time.Second),
		Renderer:       "text",
		Log: Log{
			Level:  "info",
			Format: "text",
		},
		DevCore: DevCore{
			Listen:     "127.0.0.1:17078",
			StartDelay: Duration(500 * time.Millisecond),
		},
	}
}

// DefaultPath returns $COREPANEL_CONFIG or ~/.corepanel/config.yaml.
func DefaultPath() string {
	if p := os.Getenv(EnvConfig); p != "" {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".corepanel", "config.yaml")
}

// Load reads path over the defaults and applies environment overrides. An
// empty path falls back to DefaultPath, which may be missing.
func Load(path string) (Config, error) {
	return load(path, os.LookupEnv)
}

func load(path string, lookup func(string) (string, bool)) (Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
			}
		case errors.Is(err, fs.ErrNotExist) && !explicit:
		default:
			return Config{}, fmt.Errorf("config: read %s: %w", path, err)
		}
	}

	if v, ok := lookup(EnvAddress); ok && strings.TrimSpace(v) != "" {
		cfg.Address = strings.TrimSpace(v)
	}
	if v, ok := lookup(EnvLogLevel); ok && strings.TrimSpace(v) != "" {
		cfg.Log.Level = strings.TrimSpace(v)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the values flags and files can get wrong.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Address) == "" {
		return fmt.Errorf("config: address is required")
	}
	if c.ReconnectDelay <= 0 {
		return fmt.Errorf("config: reconnect_delay must be positive")
	}
	switch strings.ToLower(c.Log.Format) {
	case "", "text", "json":
	default:
		return fmt.Errorf("config: log.format must be text or json, got %q", c.Log.Format)
	}
	switch c.Renderer {
	case "text", "html":
	default:
		return fmt.Errorf("config: renderer must be text or html, got %q", c.Renderer)
	}
	return nil
}
