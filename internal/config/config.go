// Package config provides configuration management for checksmtp.
//
// The config file is optional; a missing file yields defaults that reproduce
// the plain "checksmtp <host>" behavior. Flags override file values.
//
// Config file locations (priority order):
//  1. $CHECKSMTP_CONFIG
//  2. ./checksmtp.yaml
//  3. ~/.config/checksmtp/config.yaml
//  4. /etc/checksmtp/config.yaml
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Load finds and loads the config file, or returns defaults if none found
func Load() (*Config, string, error) {
	path := FindConfigPath()

	if path == "" {
		return DefaultConfig(), "", nil
	}

	return LoadFromPath(path)
}

// LoadFromPath loads config from a specific path.
// The document is validated against the config schema before decoding.
func LoadFromPath(path string) (*Config, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, path, fmt.Errorf("read config: %w", err)
	}

	if err := Validate(data); err != nil {
		return nil, path, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, path, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyDefaults()

	return &cfg, path, nil
}

// DefaultConfig returns sensible defaults for a new installation
func DefaultConfig() *Config {
	return &Config{
		Version:      1,
		Posture:      PostureBalanced,
		Policy:       PolicyConfig{Enabled: true},
		History:      HistoryConfig{Path: DefaultHistoryPath()},
		Output:       OutputConfig{Format: "text", Color: "auto"},
		Capabilities: DefaultCapabilities(),
	}
}

// applyDefaults fills in missing values with defaults
func (c *Config) applyDefaults() {
	if c.Version == 0 {
		c.Version = 1
	}
	if c.Posture == "" {
		c.Posture = PostureBalanced
	}
	if c.History.Path == "" {
		c.History.Path = DefaultHistoryPath()
	}
	if c.Output.Format == "" {
		c.Output.Format = "text"
	}
	if c.Output.Color == "" {
		c.Output.Color = "auto"
	}

	// Core capabilities are compiled in and always needed
	c.Capabilities.Core = DefaultCapabilities().Core
}

// EffectiveProbe returns the probe profile with overrides applied
func (c *Config) EffectiveProbe() ProbeProfile {
	base := c.Posture.GetProfile()

	if c.Probe == nil {
		return base
	}

	if c.Probe.Timeout != nil {
		base.Timeout = c.Probe.Timeout.Duration()
	}
	if c.Probe.GreetingWait != nil {
		base.GreetingWait = c.Probe.GreetingWait.Duration()
	}
	if c.Probe.Parallel != nil {
		base.Parallel = *c.Probe.Parallel
	}
	if c.Probe.TLSVerify != nil {
		base.TLSVerify = *c.Probe.TLSVerify
	}

	return base
}

// VPNClient returns the VPN client binary to query
func (c *Config) VPNClient() string {
	return binaryOr(c.Capabilities.Plugins.VPNStatus.BinaryPath, "tailscale")
}

// GetEnabledCapabilities returns the list of enabled capabilities
func (c *Config) GetEnabledCapabilities() []CapabilityInfo {
	var enabled []CapabilityInfo

	for _, cap := range c.Capabilities.ListCapabilities() {
		if cap.Enabled {
			enabled = append(enabled, cap)
		}
	}

	return enabled
}

// Summary returns a human-readable config summary
func (c *Config) Summary() string {
	probe := c.EffectiveProbe()
	caps := c.GetEnabledCapabilities()

	summary := fmt.Sprintf("Posture: %s, Policy: %v\n", c.Posture, c.Policy.Enabled)
	summary += fmt.Sprintf("Timeout: %s, Greeting wait: %s, Parallel: %v\n",
		probe.Timeout, probe.GreetingWait, probe.Parallel)
	summary += fmt.Sprintf("Enabled capabilities (%d):", len(caps))
	for _, cap := range caps {
		summary += fmt.Sprintf(" %s", cap.Name)
	}

	return summary
}
