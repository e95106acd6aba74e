package bootstrap

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"checksmtp/internal/config"
)

// MissingCapabilityError reports required capabilities that are unavailable
type MissingCapabilityError struct {
	Missing []CapabilityStatus
}

func (e *MissingCapabilityError) Error() string {
	parts := make([]string, len(e.Missing))
	for i, m := range e.Missing {
		parts[i] = m.Name
		if m.Reason != "" {
			parts[i] += " (" + m.Reason + ")"
		}
	}
	return "required capability unavailable: " + strings.Join(parts, ", ")
}

// Options configures a preflight run
type Options struct {
	Capabilities []config.CapabilityInfo
	// ResolvConf defaults to DefaultResolvConf
	ResolvConf string
	// Prober defaults to SystemProber
	Prober *Prober
}

// Result contains all bootstrap findings
type Result struct {
	Timestamp    time.Time
	Duration     time.Duration
	Evidence     *EvidenceSet
	Capabilities []CapabilityStatus
	Warnings     []string
}

// Capability returns the status of a named capability
func (r *Result) Capability(name string) (CapabilityStatus, bool) {
	for _, c := range r.Capabilities {
		if c.Name == name {
			return c, true
		}
	}
	return CapabilityStatus{}, false
}

// DNSServers returns the nameservers found in the resolver configuration
func (r *Result) DNSServers() []string {
	v, _, ok := r.Evidence.BestValue(CategoryNetwork, "dns_servers")
	if !ok {
		return nil
	}
	servers, _ := v.([]string)
	return servers
}

// Run executes the preflight. The result is returned even when a required
// capability is missing, together with a *MissingCapabilityError.
func Run(ctx context.Context, opts Options, logger zerolog.Logger) (*Result, error) {
	log := logger.With().Str("component", "bootstrap").Logger()
	start := time.Now()

	prober := SystemProber()
	if opts.Prober != nil {
		prober = *opts.Prober
	}
	resolvConf := opts.ResolvConf
	if resolvConf == "" {
		resolvConf = DefaultResolvConf
	}

	evidence := NewEvidenceSet()

	// Phase 1: capabilities
	statuses, capEvidence := DetectCapabilities(ctx, opts.Capabilities, prober)
	evidence.AddAll(capEvidence)
	logPhaseStats(log, "capabilities", capEvidence)

	// Phase 2: network
	netEvidence := DetectNetwork(resolvConf)
	evidence.AddAll(netEvidence)
	logPhaseStats(log, "network", netEvidence)

	result := &Result{
		Timestamp:    time.Now(),
		Duration:     time.Since(start),
		Evidence:     evidence,
		Capabilities: statuses,
	}

	var missing []CapabilityStatus
	for _, st := range statuses {
		if st.Available {
			log.Debug().Str("capability", st.Name).Str("path", st.Path).Str("version", st.Version).Msg("capability available")
			continue
		}
		if st.Required {
			missing = append(missing, st)
			continue
		}
		warning := fmt.Sprintf("%s unavailable: %s", st.Name, st.Reason)
		result.Warnings = append(result.Warnings, warning)
		log.Info().Str("capability", st.Name).Str("reason", st.Reason).Msg("optional capability unavailable")
	}

	if servers := result.DNSServers(); len(servers) > 0 {
		log.Debug().Strs("nameservers", servers).Msg("system resolver")
	}
	if evidence.HasProperty(CategoryNetwork, "overlay_interfaces") {
		log.Debug().Msg("overlay network interface present")
	}
	if evidence.HasProperty(CategoryNetwork, "overlay_dns") {
		log.Debug().Msg("resolver points at an overlay nameserver")
	}

	log.Debug().
		Dur("duration", result.Duration).
		Int("evidence", evidence.Count()).
		Int("capability_evidence", len(evidence.ByCategory(CategoryCapability))).
		Int("network_evidence", len(evidence.ByCategory(CategoryNetwork))).
		Msg("preflight complete")

	if len(missing) > 0 {
		return result, &MissingCapabilityError{Missing: missing}
	}
	return result, nil
}

func logPhaseStats(log zerolog.Logger, phase string, evidence []Evidence) {
	if len(evidence) == 0 {
		log.Debug().Str("phase", phase).Msg("no evidence gathered")
		return
	}
	log.Debug().Str("phase", phase).Int("count", len(evidence)).Msg("evidence gathered")
}
