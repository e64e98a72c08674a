// Package config holds the explicit configuration for pilot. Defaults
// live in Default() rather than in mutable package state, and every
// value can be overridden from a YAML file.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration for a pilot run.
type Config struct {
	Browser BrowserConfig `yaml:"browser"`
	Planner PlannerConfig `yaml:"planner"`
	Bridge  BridgeConfig  `yaml:"bridge"`
}

// BrowserConfig configures the browser controller.
type BrowserConfig struct {
	// ExecutablePath is the Chrome/Chromium binary to launch.
	ExecutablePath string `yaml:"executable_path"`

	// Host is the debugging endpoint host.
	Host string `yaml:"host"`

	// Port is the remote debugging port.
	Port int `yaml:"port"`

	// Headless launches the browser without a visible window.
	Headless bool `yaml:"headless"`

	// UserDataDir is the optional profile directory.
	UserDataDir string `yaml:"user_data_dir"`

	// ExtraArgs are appended verbatim to the launch command.
	ExtraArgs []string `yaml:"extra_args"`

	// StartupTimeout is the total readiness budget after spawn.
	StartupTimeout time.Duration `yaml:"startup_timeout"`

	// PollInterval is the fixed sleep between readiness probes.
	PollInterval time.Duration `yaml:"poll_interval"`

	// RequestTimeout bounds each individual endpoint request.
	RequestTimeout time.Duration `yaml:"request_timeout"`

	// TerminateGrace is how long terminate waits for process exit.
	TerminateGrace time.Duration `yaml:"terminate_grace"`

	// TerminateOnFailure terminates the spawned process when a launch
	// attempt times out waiting for readiness.
	TerminateOnFailure bool `yaml:"terminate_on_failure"`
}

// PlannerConfig selects and configures the planner.
type PlannerConfig struct {
	// Provider is "rules" or "openai".
	Provider string `yaml:"provider"`

	// Model is the chat model for the openai provider.
	Model string `yaml:"model"`

	// BaseURL points the openai provider at a compatible API.
	BaseURL string `yaml:"base_url"`

	// SearchEngine is the query template for the rules provider. It
	// must contain a single %s verb.
	SearchEngine string `yaml:"search_engine"`
}

// BridgeConfig configures the local command bridge.
type BridgeConfig struct {
	// Commands maps command names to executable plus base arguments.
	Commands map[string][]string `yaml:"commands"`

	// DeniedPatterns are glob patterns that block extra arguments.
	DeniedPatterns []string `yaml:"denied_patterns"`

	// Timeout bounds a single bridge command execution.
	Timeout time.Duration `yaml:"timeout"`
}

// Planner provider names.
const (
	PlannerRules  = "rules"
	PlannerOpenAI = "openai"
)

// Default returns the recommended configuration.
func Default() *Config {
	return &Config{
		Browser: BrowserConfig{
			ExecutablePath: "google-chrome",
			Host:           "127.0.0.1",
			Port:           9222,
			StartupTimeout: 15 * time.Second,
			PollInterval:   500 * time.Millisecond,
			RequestTimeout: 5 * time.Second,
			TerminateGrace: 5 * time.Second,
		},
		Planner: PlannerConfig{
			Provider: PlannerRules,
			Model:    "gpt-4o",
		},
		Bridge: BridgeConfig{
			DeniedPatterns: []string{"--unsafe*"},
			Timeout:        30 * time.Second,
		},
	}
}

// Load reads a YAML file over the defaults, so a partial file only
// overrides what it names.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the configuration for values that would make the
// controller misbehave at runtime.
func (c *Config) Validate() error {
	if c.Browser.ExecutablePath == "" {
		return fmt.Errorf("browser.executable_path is required")
	}
	if c.Browser.Host == "" {
		return fmt.Errorf("browser.host is required")
	}
	if c.Browser.Port <= 0 || c.Browser.Port > 65535 {
		return fmt.Errorf("browser.port must be between 1 and 65535, got %d", c.Browser.Port)
	}
	if c.Browser.StartupTimeout <= 0 {
		return fmt.Errorf("browser.startup_timeout must be positive")
	}
	if c.Browser.PollInterval <= 0 {
		return fmt.Errorf("browser.poll_interval must be positive")
	}
	if c.Browser.RequestTimeout <= 0 {
		return fmt.Errorf("browser.request_timeout must be positive")
	}
	if c.Browser.RequestTimeout >= c.Browser.StartupTimeout {
		return fmt.Errorf("browser.request_timeout must be shorter than browser.startup_timeout")
	}

	switch c.Planner.Provider {
	case PlannerRules, PlannerOpenAI:
	default:
		return fmt.Errorf("planner.provider must be %q or %q, got %q", PlannerRules, PlannerOpenAI, c.Planner.Provider)
	}
	if engine := c.Planner.SearchEngine; engine != "" && strings.Count(engine, "%s") != 1 {
		return fmt.Errorf("planner.search_engine must contain exactly one %%s verb, got %q", engine)
	}

	for name, command := range c.Bridge.Commands {
		if len(command) == 0 {
			return fmt.Errorf("bridge.commands.%s must have an executable", name)
		}
	}
	return nil
}
