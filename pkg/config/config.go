// Package config loads daemon configuration from a YAML file with
// environment variable overrides (PRERENDER_* prefix).
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"github.com/entrhq/prerender/pkg/browser"
)

// DefaultListenAddr is where the render API listens when unconfigured.
const DefaultListenAddr = ":8050"

// Config is the full daemon configuration.
type Config struct {
	// Browser selects the browser family: "chromium", "firefox" or
	// "webkit".
	Browser string `yaml:"browser" envconfig:"BROWSER"`

	// DriverPath points at an existing driver installation. Setting it
	// switches provisioning to local mode.
	DriverPath string `yaml:"driver_path" envconfig:"DRIVER_PATH"`

	// BrowserPath overrides the browser binary location.
	BrowserPath string `yaml:"browser_path" envconfig:"BROWSER_PATH"`

	// RemoteEndpoint is the websocket endpoint of a running driver.
	// Setting it switches provisioning to remote mode unless DriverPath
	// is also set.
	RemoteEndpoint string `yaml:"remote_endpoint" envconfig:"REMOTE_ENDPOINT"`

	// Args are extra browser launch flags.
	Args []string `yaml:"args" envconfig:"ARGS"`

	// Headless controls whether sessions run without a visible window.
	Headless bool `yaml:"headless" envconfig:"HEADLESS"`

	// PoolSize is the number of browser sessions kept warm.
	PoolSize int `yaml:"pool_size" envconfig:"POOL_SIZE"`

	// AcquireTimeout bounds how long a fetch waits for a free session.
	AcquireTimeout time.Duration `yaml:"acquire_timeout" envconfig:"ACQUIRE_TIMEOUT"`

	// RenderPatterns are URL globs that select requests for rendering
	// even when the request itself is not flagged.
	RenderPatterns []string `yaml:"render_patterns" envconfig:"RENDER_PATTERNS"`

	// ListenAddr is the render API listen address.
	ListenAddr string `yaml:"listen_addr" envconfig:"LISTEN_ADDR"`
}

// DefaultConfig returns the configuration used when no file or overrides
// are present.
func DefaultConfig() *Config {
	return &Config{
		Browser:        "chromium",
		Headless:       true,
		PoolSize:       browser.DefaultPoolSize,
		AcquireTimeout: browser.DefaultAcquireTimeout,
		ListenAddr:     DefaultListenAddr,
	}
}

// Load reads configuration in three layers: defaults, then the YAML file
// at path (skipped when path is empty or the file does not exist), then
// PRERENDER_* environment variables.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("read config %s: %w", path, err)
			}
		} else if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := envconfig.Process("prerender", cfg); err != nil {
		return nil, fmt.Errorf("apply environment overrides: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for values the daemon cannot start
// with.
func (c *Config) Validate() error {
	if c.Browser == "" {
		return fmt.Errorf("browser kind must be set")
	}
	if c.PoolSize < 1 {
		return fmt.Errorf("pool_size must be at least 1, got %d", c.PoolSize)
	}
	if c.AcquireTimeout < 0 {
		return fmt.Errorf("acquire_timeout must not be negative, got %s", c.AcquireTimeout)
	}
	if c.ListenAddr == "" {
		c.ListenAddr = DefaultListenAddr
	}
	return nil
}

// Mode resolves the provisioning mode. A local driver path wins over a
// remote endpoint when both are set.
func (c *Config) Mode() browser.ProvisionMode {
	switch {
	case c.DriverPath != "":
		return browser.ModeLocal
	case c.RemoteEndpoint != "":
		return browser.ModeRemote
	default:
		return browser.ModeManaged
	}
}

// FactoryOptions translates the configuration into session provisioning
// options.
func (c *Config) FactoryOptions() browser.FactoryOptions {
	return browser.FactoryOptions{
		Kind:           c.Browser,
		Mode:           c.Mode(),
		DriverDir:      c.DriverPath,
		BrowserPath:    c.BrowserPath,
		RemoteEndpoint: c.RemoteEndpoint,
		Args:           c.Args,
		Headless:       c.Headless,
	}
}
