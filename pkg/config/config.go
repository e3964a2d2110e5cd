// Package config loads camofleet configuration from the environment and an
// optional YAML tuning file. Every instance shares one target URL; per-instance
// differences (cookie sources) are resolved separately by pkg/cookies.
package config

import (
	"fmt"
	"strings"

	"github.com/kelseyhightower/envconfig"
)

// HeadlessMode selects how the browser window is realized.
type HeadlessMode string

const (
	// HeadlessOn runs the browser fully headless.
	HeadlessOn HeadlessMode = "true"

	// HeadlessOff runs the browser with a visible window.
	HeadlessOff HeadlessMode = "false"

	// HeadlessVirtual runs a headed browser intended for a virtual display
	// (Xvfb or equivalent). Default, and the fallback for unrecognized values.
	HeadlessVirtual HeadlessMode = "virtual"
)

// Run modes for the process as a whole.
const (
	RunModeStandalone = "standalone"
	RunModeServer     = "server"
)

// Config holds all environment-driven configuration.
type Config struct {
	// TargetURL is the shared URL every worker drives. Required.
	TargetURL string `envconfig:"CAMOFLEET_URL"`

	// Headless is the raw headless setting: true, false, or virtual.
	Headless string `envconfig:"CAMOFLEET_HEADLESS" default:"virtual"`

	// Proxy is an optional proxy server URL applied to every browser.
	Proxy string `envconfig:"CAMOFLEET_PROXY"`

	// RunMode selects standalone (no HTTP surface) or server mode.
	RunMode string `envconfig:"CAMOFLEET_RUN_MODE" default:"standalone"`

	// Port is the health server port in server mode.
	Port int `envconfig:"CAMOFLEET_PORT" default:"7860"`

	// CookiesDir is the directory scanned for cookie JSON files.
	CookiesDir string `envconfig:"CAMOFLEET_COOKIES_DIR" default:"cookies"`

	// TuningFile optionally points at a YAML file overriding timing defaults.
	TuningFile string `envconfig:"CAMOFLEET_TUNING"`
}

// Load reads configuration from environment variables and validates it.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment: %w", err)
	}

	// Whitespace-only values are treated as absent.
	cfg.TargetURL = CleanValue(cfg.TargetURL)
	cfg.Headless = CleanValue(cfg.Headless)
	cfg.Proxy = CleanValue(cfg.Proxy)
	cfg.RunMode = CleanValue(cfg.RunMode)
	cfg.CookiesDir = CleanValue(cfg.CookiesDir)
	cfg.TuningFile = CleanValue(cfg.TuningFile)

	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func validate(cfg *Config) error {
	if cfg.TargetURL == "" {
		return fmt.Errorf("CAMOFLEET_URL is required: all instances share one target URL")
	}
	if cfg.RunMode == "" {
		cfg.RunMode = RunModeStandalone
	}
	if cfg.RunMode != RunModeStandalone && cfg.RunMode != RunModeServer {
		return fmt.Errorf("CAMOFLEET_RUN_MODE must be %q or %q, got %q",
			RunModeStandalone, RunModeServer, cfg.RunMode)
	}
	if cfg.Port <= 0 || cfg.Port > 65535 {
		return fmt.Errorf("CAMOFLEET_PORT must be a valid port, got %d", cfg.Port)
	}
	return nil
}

// HeadlessMode parses the raw headless setting. Unrecognized values fall back
// to virtual, matching the permissive handling operators expect from env vars.
func (c *Config) HeadlessMode() HeadlessMode {
	return ParseHeadlessMode(c.Headless)
}

// ParseHeadlessMode maps a raw string to a HeadlessMode.
func ParseHeadlessMode(value string) HeadlessMode {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "true":
		return HeadlessOn
	case "false":
		return HeadlessOff
	default:
		return HeadlessVirtual
	}
}

// CleanValue trims surrounding whitespace; a blank result is returned as "".
func CleanValue(value string) string {
	return strings.TrimSpace(value)
}
