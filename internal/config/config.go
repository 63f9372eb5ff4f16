// Package config defines the necessary types to configure the application.
// An example config file config.yaml is provided in the repository.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/creasty/defaults"
	"github.com/goccy/go-yaml"
)

// EnvConfigPath overrides the config file search path when set.
const EnvConfigPath = "DAYPLAN_CONFIG"

type Config struct {
	Server   Server   `yaml:"server"`
	Storage  Storage  `yaml:"storage"`
	Logger   Logger   `yaml:"logger"`
	Cache    Cache    `yaml:"cache"`
	Request  Request  `yaml:"request"`
	Telegram Telegram `yaml:"telegram"`
}

type Server struct {
	BaseURL string        `yaml:"baseURL" default:"https://api.dayplan.app"`
	Timeout time.Duration `yaml:"timeout" default:"15s"`
}

type Storage struct {
	// Dir holds the durable client state, currently a single refresh token
	// slot. Empty means $HOME/.dayplan.
	Dir string `yaml:"dir"`
}

type Logger struct {
	Level  string `yaml:"level" default:"info"`
	Format string `yaml:"format" default:"text"`
}

type Cache struct {
	AgendaTTL time.Duration `yaml:"agendaTTL" default:"2m"`
}

type Request struct {
	// RefreshSkew is how close to expiry the access token may get before the
	// request layer refreshes it ahead of use.
	RefreshSkew   time.Duration `yaml:"refreshSkew" default:"30s"`
	RetryAttempts uint64        `yaml:"retryAttempts" default:"3"`
}

type Telegram struct {
	// FallbackWait is how long to give the deep link before opening the web
	// URL instead.
	FallbackWait time.Duration `yaml:"fallbackWait" default:"3s"`
}

// Load reads the configuration from path. An empty path walks the usual
// candidates ($DAYPLAN_CONFIG, $HOME/.dayplan/config.yaml, ./config.yaml); a
// missing file yields the built-in defaults.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	if path == "" {
		path = findConfigFile()
	}

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := defaults.Set(cfg); err != nil {
		return nil, fmt.Errorf("applying config defaults: %w", err)
	}

	if cfg.Storage.Dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolving home directory: %w", err)
		}
		cfg.Storage.Dir = filepath.Join(home, ".dayplan")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// Validate checks the fields that would otherwise fail deep inside a request.
func (c *Config) Validate() error {
	u, err := url.Parse(c.Server.BaseURL)
	if err != nil {
		return fmt.Errorf("parsing server baseURL: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return errors.New("server baseURL must be absolute")
	}
	if c.Server.Timeout <= 0 {
		return errors.New("server timeout must be positive")
	}
	return nil
}

func findConfigFile() string {
	if p := os.Getenv(EnvConfigPath); p != "" {
		return p
	}
	if home, err := os.UserHomeDir(); err == nil {
		p := filepath.Join(home, ".dayplan", "config.yaml")
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	if _, err := os.Stat("config.yaml"); err == nil {
		return "config.yaml"
	}
	return ""
}
