package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Tuning collects the timing knobs that shape worker and orchestrator
// behavior. Operators rarely touch these; the defaults mirror the values the
// fleet has run with in production.
type Tuning struct {
	// TickInterval is the pause between keep-alive iterations in a worker.
	TickInterval Duration `yaml:"tick_interval"`

	// DisconnectedGrace is how long a worker tolerates a non-connected
	// status before forcing a reconnect cycle.
	DisconnectedGrace Duration `yaml:"disconnected_grace"`

	// LaunchStagger is the fixed pause between successive instance launches,
	// avoiding simultaneous-startup CPU and memory spikes.
	LaunchStagger Duration `yaml:"launch_stagger"`

	// ShutdownGrace is how long the orchestrator waits for a worker to exit
	// gracefully before force-closing its browser.
	ShutdownGrace Duration `yaml:"shutdown_grace"`
}

// DefaultTuning returns the production defaults.
func DefaultTuning() Tuning {
	return Tuning{
		TickInterval:      Duration(10 * time.Second),
		DisconnectedGrace: Duration(30 * time.Second),
		LaunchStagger:     Duration(30 * time.Second),
		ShutdownGrace:     Duration(5 * time.Second),
	}
}

// LoadTuning reads a YAML tuning file and merges it over the defaults.
// Fields left zero in the file keep their default values. An empty path
// returns the defaults unchanged.
func LoadTuning(path string) (Tuning, error) {
	tuning := DefaultTuning()
	if path == "" {
		return tuning, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return tuning, fmt.Errorf("failed to read tuning file: %w", err)
	}

	var overrides Tuning
	if err := yaml.Unmarshal(data, &overrides); err != nil {
		return tuning, fmt.Errorf("failed to parse tuning file: %w", err)
	}

	if overrides.TickInterval > 0 {
		tuning.TickInterval = overrides.TickInterval
	}
	if overrides.DisconnectedGrace > 0 {
		tuning.DisconnectedGrace = overrides.DisconnectedGrace
	}
	if overrides.LaunchStagger > 0 {
		tuning.LaunchStagger = overrides.LaunchStagger
	}
	if overrides.ShutdownGrace > 0 {
		tuning.ShutdownGrace = overrides.ShutdownGrace
	}

	return tuning, nil
}

// Duration wraps time.Duration so tuning files can say "30s" or "2m".
type Duration time.Duration

// UnmarshalYAML parses a duration string such as "500ms" or "1m30s".
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var raw string
	if err := node.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML renders the duration in time.Duration string form.
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}
