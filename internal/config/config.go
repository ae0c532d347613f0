// Package config loads the bridge's YAML config file. Every value is
// optional; command-line flags override what the file says.
package config

import (
	"fmt"
	"os"
	"regexp"
	"time"

	"github.com/leandrodaf/trackerbridge/sdk/contracts"
	"gopkg.in/yaml.v3"
)

// Config represents a trackerbridge.yaml file.
type Config struct {
	Log       LogConfig    `yaml:"log"`
	Dialog    DialogConfig `yaml:"dialog"`
	MIDI      MIDIConfig   `yaml:"midi"`
	QueueSize int          `yaml:"queue_size"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// DialogConfig holds picker settings.
type DialogConfig struct {
	CancelPolicy string `yaml:"cancel_policy"`
	// Notify also surfaces picked documents to the user.
	Notify bool `yaml:"notify"`
}

// MIDIConfig holds MIDI backend settings.
type MIDIConfig struct {
	ClientName  string   `yaml:"client_name"`
	OpenTimeout Duration `yaml:"open_timeout"`
}

// Duration wraps time.Duration for YAML string parsing (e.g. "10s", "5m").
type Duration struct {
	time.Duration
}

// UnmarshalYAML parses a duration string like "10s" or "500ms".
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	if s == "" {
		return nil
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	if parsed < 0 {
		return fmt.Errorf("negative duration %q", s)
	}
	d.Duration = parsed
	return nil
}

// Load reads a YAML config file, expands environment variables, and
// unmarshals into a Config struct.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found: %s", path)
		}
		return nil, fmt.Errorf("cannot read config file %q: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal([]byte(ExpandEnv(string(data))), &cfg); err != nil {
		return nil, fmt.Errorf("invalid YAML in %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &cfg, nil
}

// Validate checks enumerated and numeric fields.
func (c *Config) Validate() error {
	if _, ok := contracts.ParseLogLevel(c.Log.Level); !ok {
		return fmt.Errorf("unknown log level %q", c.Log.Level)
	}
	if _, err := contracts.ParseCancelPolicy(c.Dialog.CancelPolicy); err != nil {
		return err
	}
	if c.QueueSize < 0 {
		return fmt.Errorf("queue_size must not be negative, got %d", c.QueueSize)
	}
	return nil
}

// Options converts the file into bridge options. Unset values produce no
// option so the bridge defaults apply.
func (c *Config) Options() []contracts.Option {
	var opts []contracts.Option
	if c.Log.Level != "" {
		level, _ := contracts.ParseLogLevel(c.Log.Level)
		opts = append(opts, contracts.WithLogLevel(level))
	}
	if c.Log.File != "" {
		opts = append(opts, contracts.WithLogFile(c.Log.File))
	}
	if c.Dialog.CancelPolicy != "" {
		policy, _ := contracts.ParseCancelPolicy(c.Dialog.CancelPolicy)
		opts = append(opts, contracts.WithCancelPolicy(policy))
	}
	if c.MIDI.ClientName != "" {
		opts = append(opts, contracts.WithCoreMIDIConfig(contracts.CoreMIDIConfig{ClientName: c.MIDI.ClientName}))
	}
	if c.MIDI.OpenTimeout.Duration > 0 {
		opts = append(opts, contracts.WithOpenTimeout(c.MIDI.OpenTimeout.Duration))
	}
	if c.QueueSize > 0 {
		opts = append(opts, contracts.WithQueueSize(c.QueueSize))
	}
	return opts
}

// envVarPattern matches ${VAR} and ${VAR:-default}.
var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(?::-([^}]*))?\}`)

// ExpandEnv replaces ${VAR} and ${VAR:-default} with environment values.
// Unset variables without a default expand to the empty string.
func ExpandEnv(input string) string {
	return envVarPattern.ReplaceAllStringFunc(input, func(match string) string {
		groups := envVarPattern.FindStringSubmatch(match)
		if value, ok := os.LookupEnv(groups[1]); ok && value != "" {
			return value
		}
		return groups[2]
	})
}
