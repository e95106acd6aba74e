package config

import (
	"time"

	"github.com/invopop/jsonschema"
)

// Config is the root configuration structure
type Config struct {
	Version      int                `yaml:"version"`
	Posture      Posture            `yaml:"posture" jsonschema:"enum=stealth,enum=cautious,enum=balanced,enum=aggressive"`
	Probe        *ProbeOverride     `yaml:"probe,omitempty"`
	Policy       PolicyConfig       `yaml:"policy"`
	DNS          DNSConfig          `yaml:"dns"`
	History      HistoryConfig      `yaml:"history"`
	Output       OutputConfig       `yaml:"output"`
	Capabilities CapabilitiesConfig `yaml:"capabilities"`
}

// ProbeOverride allows overriding posture defaults
type ProbeOverride struct {
	Timeout      *Duration `yaml:"timeout,omitempty"`
	GreetingWait *Duration `yaml:"greeting_wait,omitempty"`
	Parallel     *bool     `yaml:"parallel,omitempty"`
	TLSVerify    *bool     `yaml:"tls_verify,omitempty"`
}

// PolicyConfig controls the VPN exit-node guard
type PolicyConfig struct {
	// Enabled queries the VPN client before probing the relay port.
	// The client binary is configured under capabilities.plugins.vpn_status.
	Enabled bool `yaml:"enabled"`
}

// DNSConfig selects the resolver
type DNSConfig struct {
	// Server is an optional "host:port" nameserver; empty uses the system resolver
	Server string `yaml:"server,omitempty"`
}

// HistoryConfig controls the run history store
type HistoryConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path,omitempty"`
}

// OutputConfig controls report rendering
type OutputConfig struct {
	Format string `yaml:"format,omitempty" jsonschema:"enum=text,enum=json,enum=yaml"`
	// Color is "auto", "always" or "never"
	Color string `yaml:"color,omitempty" jsonschema:"enum=auto,enum=always,enum=never"`
}

// Duration wraps time.Duration for YAML unmarshaling
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler
func (d *Duration) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Duration returns the underlying time.Duration
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// JSONSchema describes durations as Go duration strings
func (Duration) JSONSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type:    "string",
		Pattern: `^([0-9]+(\.[0-9]+)?(ns|us|µs|ms|s|m|h))+$`,
	}
}

// DurationPtr is a helper for building overrides in code
func DurationPtr(d time.Duration) *Duration {
	v := Duration(d)
	return &v
}
