package config

import "time"

// Posture defines how patient and how noisy a check is
type Posture string

const (
	PostureStealth    Posture = "stealth"    // Long waits, one port at a time
	PostureCautious   Posture = "cautious"   // Conservative timeouts
	PostureBalanced   Posture = "balanced"   // Default interactive behavior
	PostureAggressive Posture = "aggressive" // Short timeouts, parallel probes
)

// ProbeProfile defines timing and concurrency settings for one run
type ProbeProfile struct {
	// Timeout bounds every connection attempt; no retries
	Timeout time.Duration `yaml:"timeout"`
	// GreetingWait bounds the wait for a greeting line after connect/handshake
	GreetingWait time.Duration `yaml:"greeting_wait"`
	// Parallel probes the ports concurrently
	Parallel bool `yaml:"parallel"`
	// TLSVerify enables certificate verification on implicit-TLS ports
	TLSVerify bool `yaml:"tls_verify"`
}

// PostureProfiles maps postures to their default probe profiles
var PostureProfiles = map[Posture]ProbeProfile{
	PostureStealth: {
		Timeout:      10 * time.Second,
		GreetingWait: 10 * time.Second,
		Parallel:     false,
	},
	PostureCautious: {
		Timeout:      8 * time.Second,
		GreetingWait: 8 * time.Second,
		Parallel:     false,
	},
	PostureBalanced: {
		Timeout:      5 * time.Second,
		GreetingWait: 5 * time.Second,
		Parallel:     false,
	},
	PostureAggressive: {
		Timeout:      2 * time.Second,
		GreetingWait: 3 * time.Second,
		Parallel:     true,
	},
}

// GetProfile returns the probe profile for a posture
func (p Posture) GetProfile() ProbeProfile {
	if profile, ok := PostureProfiles[p]; ok {
		return profile
	}
	return PostureProfiles[PostureBalanced]
}
