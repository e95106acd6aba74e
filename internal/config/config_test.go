package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestPostureGetProfile(t *testing.T) {
	// Verify each posture has a profile
	postures := []Posture{PostureStealth, PostureCautious, PostureBalanced, PostureAggressive}

	for _, p := range postures {
		profile := p.GetProfile()
		if profile.Timeout == 0 {
			t.Errorf("Posture(%s).GetProfile().Timeout should not be 0", p)
		}
		if profile.GreetingWait == 0 {
			t.Errorf("Posture(%s).GetProfile().GreetingWait should not be 0", p)
		}
	}

	// Stealth should be the most patient, aggressive the least
	stealth := PostureStealth.GetProfile()
	aggressive := PostureAggressive.GetProfile()

	if stealth.Timeout <= aggressive.Timeout {
		t.Error("Stealth should have longer timeout than aggressive")
	}
	if stealth.Parallel {
		t.Error("Stealth should probe one port at a time")
	}
	if !aggressive.Parallel {
		t.Error("Aggressive should probe in parallel")
	}

	// Unknown posture falls back to balanced
	if got := Posture("bogus").GetProfile(); got != PostureBalanced.GetProfile() {
		t.Errorf("unknown posture profile = %+v, want balanced", got)
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Version != 1 {
		t.Errorf("Version = %d, want 1", cfg.Version)
	}
	if cfg.Posture != PostureBalanced {
		t.Errorf("Posture = %s, want %s", cfg.Posture, PostureBalanced)
	}
	if !cfg.Policy.Enabled {
		t.Error("Policy should be enabled by default")
	}
	if cfg.History.Enabled {
		t.Error("History should be disabled by default")
	}
	if cfg.History.Path == "" {
		t.Error("History.Path should not be empty")
	}
	if cfg.Output.Format != "text" {
		t.Errorf("Output.Format = %s, want text", cfg.Output.Format)
	}

	// Default probe timing matches the balanced profile
	probe := cfg.EffectiveProbe()
	if probe.Timeout != 5*time.Second {
		t.Errorf("Timeout = %s, want 5s", probe.Timeout)
	}
	if probe.Parallel {
		t.Error("Default run should be sequential")
	}

	// Core capabilities should be enabled
	if !cfg.Capabilities.Core.TCPConnect.Enabled {
		t.Error("Core.TCPConnect should be enabled")
	}
	if !cfg.Capabilities.Core.TLSHandshake.Enabled {
		t.Error("Core.TLSHandshake should be enabled")
	}
}

func TestEffectiveProbe(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Posture = PostureBalanced

	// Without overrides, should match posture profile
	probe := cfg.EffectiveProbe()
	expected := PostureBalanced.GetProfile()

	if probe != expected {
		t.Errorf("EffectiveProbe() = %+v, want %+v", probe, expected)
	}

	// With override
	parallel := true
	cfg.Probe = &ProbeOverride{
		Timeout:  DurationPtr(1500 * time.Millisecond),
		Parallel: &parallel,
	}
	probe = cfg.EffectiveProbe()

	if probe.Timeout != 1500*time.Millisecond {
		t.Errorf("Timeout = %s, want 1.5s (override)", probe.Timeout)
	}
	if !probe.Parallel {
		t.Error("Parallel should be overridden to true")
	}
	// Other fields should still be from posture
	if probe.GreetingWait != expected.GreetingWait {
		t.Errorf("GreetingWait = %s, want %s (posture default)",
			probe.GreetingWait, expected.GreetingWait)
	}
}

func TestCapabilitiesIsEnabled(t *testing.T) {
	cfg := DefaultConfig()
	caps := &cfg.Capabilities

	if !caps.IsEnabled("tcp_connect") {
		t.Error("tcp_connect should be enabled")
	}
	if !caps.IsEnabled("vpn_status") {
		t.Error("vpn_status should be enabled by default")
	}
	if caps.IsEnabled("nmap") {
		t.Error("nmap should not be enabled (disabled by default)")
	}
	if caps.IsEnabled("unknown") {
		t.Error("unknown capability should not be enabled")
	}
}

func TestBinaryPaths(t *testing.T) {
	cfg := DefaultConfig()

	if got := cfg.VPNClient(); got != "tailscale" {
		t.Errorf("VPNClient() = %q, want tailscale", got)
	}

	client := "/opt/ts/tailscale"
	cfg.Capabilities.Plugins.VPNStatus.BinaryPath = &client

	if got := cfg.VPNClient(); got != client {
		t.Errorf("VPNClient() = %q, want %q", got, client)
	}
}

func TestLoadFromPath(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	doc := `posture: aggressive
dns:
  server: 9.9.9.9:53
history:
  enabled: true
probe:
  greeting_wait: 7s
`
	if err := os.WriteFile(configPath, []byte(doc), 0644); err != nil {
		t.Fatal(err)
	}

	loaded, path, err := LoadFromPath(configPath)
	if err != nil {
		t.Fatalf("LoadFromPath() error: %v", err)
	}
	if path != configPath {
		t.Errorf("path = %s, want %s", path, configPath)
	}

	if loaded.Posture != PostureAggressive {
		t.Errorf("Posture = %s, want %s", loaded.Posture, PostureAggressive)
	}
	if loaded.DNS.Server != "9.9.9.9:53" {
		t.Errorf("DNS.Server = %q, want 9.9.9.9:53", loaded.DNS.Server)
	}
	if !loaded.History.Enabled {
		t.Error("History should be enabled")
	}
	if got := loaded.EffectiveProbe().GreetingWait; got != 7*time.Second {
		t.Errorf("GreetingWait = %s, want 7s", got)
	}
}

func TestLoadFromPathDefaults(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	if err := os.WriteFile(configPath, []byte("posture: stealth\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, _, err := LoadFromPath(configPath)
	if err != nil {
		t.Fatalf("LoadFromPath() error: %v", err)
	}
	if cfg.Version != 1 {
		t.Errorf("Version = %d, want 1", cfg.Version)
	}
	if cfg.Output.Format != "text" {
		t.Errorf("Output.Format = %q, want text", cfg.Output.Format)
	}
	if !cfg.Capabilities.Core.BoundedWait.Enabled {
		t.Error("core capabilities should be forced on")
	}
}

func TestLoadFromPathEmptyFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	if err := os.WriteFile(configPath, nil, 0644); err != nil {
		t.Fatal(err)
	}

	cfg, _, err := LoadFromPath(configPath)
	if err != nil {
		t.Fatalf("LoadFromPath() error: %v", err)
	}
	if cfg.Posture != PostureBalanced {
		t.Errorf("Posture = %s, want balanced", cfg.Posture)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		wantErr bool
	}{
		{"empty", "", false},
		{"posture only", "posture: cautious\n", false},
		{"duration override", "probe:\n  timeout: 3s\n  greeting_wait: 500ms\n", false},
		{"dns server", "dns:\n  server: 1.1.1.1:53\n", false},
		{"bad posture", "posture: reckless\n", true},
		{"bad format", "output:\n  format: xml\n", true},
		{"bad duration", "probe:\n  timeout: soon\n", true},
		{"unknown key", "colour: always\n", true},
		{"wrong type", "policy:\n  enabled: [1, 2]\n", true},
		{"malformed yaml", "posture: [\n", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate([]byte(tt.doc))
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestSchema(t *testing.T) {
	raw, err := Schema()
	if err != nil {
		t.Fatalf("Schema() error: %v", err)
	}
	for _, want := range []string{"posture", "greeting_wait", "vpn_status"} {
		if !strings.Contains(string(raw), want) {
			t.Errorf("schema missing %q", want)
		}
	}
}

func TestFindConfigPath(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, ConfigFileName)

	if err := os.WriteFile(configPath, []byte("posture: balanced\n"), 0644); err != nil {
		t.Fatal(err)
	}

	// Explicit env var wins when the file exists
	t.Setenv(EnvConfigPath, configPath)
	if found := FindConfigPath(); found != configPath {
		t.Errorf("FindConfigPath() = %q, want %q", found, configPath)
	}

	// Set working directory to temp
	oldWd, _ := os.Getwd()
	os.Chdir(tmpDir)
	defer os.Chdir(oldWd)

	// Explicit path doesn't exist, should fall back to working directory
	t.Setenv(EnvConfigPath, "/nonexistent/path.yaml")
	if found := FindConfigPath(); found == "" {
		t.Error("FindConfigPath() should fall back when env path doesn't exist")
	}
}

func TestSummary(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Capabilities.Plugins.Nmap.Enabled = true

	summary := cfg.Summary()
	for _, want := range []string{"Posture: balanced", "Timeout: 5s", "vpn_status", "nmap"} {
		if !strings.Contains(summary, want) {
			t.Errorf("Summary() missing %q:\n%s", want, summary)
		}
	}

	cfg.Capabilities.Plugins.Nmap.Enabled = false
	for _, c := range cfg.GetEnabledCapabilities() {
		if c.Name == "nmap" {
			t.Error("disabled nmap listed as enabled")
		}
	}
}

func TestDefaultHistoryPath(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", "/tmp/xdg-data")
	if got := DefaultHistoryPath(); got != "/tmp/xdg-data/checksmtp/history.db" {
		t.Errorf("DefaultHistoryPath() = %q", got)
	}
}

func TestDuration(t *testing.T) {
	d := Duration(5 * time.Minute)

	if d.Duration() != 5*time.Minute {
		t.Errorf("Duration() = %s, want 5m", d.Duration())
	}

	// Test YAML marshaling
	marshaled, err := d.MarshalYAML()
	if err != nil {
		t.Fatalf("MarshalYAML() error: %v", err)
	}
	if marshaled != "5m0s" {
		t.Errorf("MarshalYAML() = %v, want 5m0s", marshaled)
	}
}
