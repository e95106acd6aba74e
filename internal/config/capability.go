package config

// CapabilityType distinguishes built-in from optional capabilities
type CapabilityType string

const (
	CapabilityTypeCore   CapabilityType = "core"   // Compiled in, always available
	CapabilityTypePlugin CapabilityType = "plugin" // Optional, may need external deps
)

// CapabilityConfig defines settings for a single capability
type CapabilityConfig struct {
	Enabled    bool    `yaml:"enabled"`
	Required   bool    `yaml:"required,omitempty"`    // Missing deps abort startup
	BinaryPath *string `yaml:"binary_path,omitempty"` // Path to external binary (plugins)
}

// CoreCapabilities defines the built-in capabilities every run needs
type CoreCapabilities struct {
	TCPConnect   CapabilityConfig `yaml:"tcp_connect"`
	TLSHandshake CapabilityConfig `yaml:"tls_handshake"`
	StatusJSON   CapabilityConfig `yaml:"status_json"`
	BoundedWait  CapabilityConfig `yaml:"bounded_wait"`
}

// PluginCapabilities defines optional capabilities
type PluginCapabilities struct {
	VPNStatus CapabilityConfig `yaml:"vpn_status"`
	Nmap      CapabilityConfig `yaml:"nmap"`
}

// CapabilitiesConfig holds all capability settings
type CapabilitiesConfig struct {
	Core    CoreCapabilities   `yaml:"core"`
	Plugins PluginCapabilities `yaml:"plugins"`
}

// DefaultCapabilities returns the default capability configuration
func DefaultCapabilities() CapabilitiesConfig {
	return CapabilitiesConfig{
		Core: CoreCapabilities{
			TCPConnect:   CapabilityConfig{Enabled: true, Required: true},
			TLSHandshake: CapabilityConfig{Enabled: true, Required: true},
			StatusJSON:   CapabilityConfig{Enabled: true, Required: true},
			BoundedWait:  CapabilityConfig{Enabled: true, Required: true},
		},
		Plugins: PluginCapabilities{
			VPNStatus: CapabilityConfig{
				Enabled: true, // Absent client degrades to "allowed"
			},
			Nmap: CapabilityConfig{
				Enabled: false, // Requires nmap binary
			},
		},
	}
}

// CapabilityInfo provides runtime info about a capability
type CapabilityInfo struct {
	Name        string         `json:"name"`
	Type        CapabilityType `json:"type"`
	Enabled     bool           `json:"enabled"`
	Required    bool           `json:"required"`
	Binary      string         `json:"binary,omitempty"` // External binary to look up, if any
	Description string         `json:"description"`
}

// ListCapabilities returns info about all capabilities
func (c *CapabilitiesConfig) ListCapabilities() []CapabilityInfo {
	return []CapabilityInfo{
		// Core capabilities
		{
			Name:        "tcp_connect",
			Type:        CapabilityTypeCore,
			Enabled:     c.Core.TCPConnect.Enabled,
			Required:    c.Core.TCPConnect.Required,
			Description: "Raw TCP connect with timeout",
		},
		{
			Name:        "tls_handshake",
			Type:        CapabilityTypeCore,
			Enabled:     c.Core.TLSHandshake.Enabled,
			Required:    c.Core.TLSHandshake.Required,
			Description: "TLS client for implicit-TLS ports",
		},
		{
			Name:        "status_json",
			Type:        CapabilityTypeCore,
			Enabled:     c.Core.StatusJSON.Enabled,
			Required:    c.Core.StatusJSON.Required,
			Description: "JSON decoding of VPN client status",
		},
		{
			Name:        "bounded_wait",
			Type:        CapabilityTypeCore,
			Enabled:     c.Core.BoundedWait.Enabled,
			Required:    c.Core.BoundedWait.Required,
			Description: "Deadlines on blocking network operations",
		},
		// Plugin capabilities
		{
			Name:        "vpn_status",
			Type:        CapabilityTypePlugin,
			Enabled:     c.Plugins.VPNStatus.Enabled,
			Required:    c.Plugins.VPNStatus.Required,
			Binary:      binaryOr(c.Plugins.VPNStatus.BinaryPath, "tailscale"),
			Description: "VPN exit-node detection via tailscale status",
		},
		{
			Name:        "nmap",
			Type:        CapabilityTypePlugin,
			Enabled:     c.Plugins.Nmap.Enabled,
			Required:    c.Plugins.Nmap.Required,
			Binary:      binaryOr(c.Plugins.Nmap.BinaryPath, "nmap"),
			Description: "Service fingerprinting of open ports via nmap",
		},
	}
}

// IsEnabled checks if a capability is enabled
func (c *CapabilitiesConfig) IsEnabled(name string) bool {
	for _, cap := range c.ListCapabilities() {
		if cap.Name == name {
			return cap.Enabled
		}
	}
	return false
}

func binaryOr(path *string, fallback string) string {
	if path != nil && *path != "" {
		return *path
	}
	return fallback
}
