package domain

// PolicyVerdict is the outcome of the VPN policy check
type PolicyVerdict string

const (
	PolicyAllowed    PolicyVerdict = "allowed"
	PolicySuppressed PolicyVerdict = "suppressed"
)

// PolicyDecision is computed once per run, before any port is probed
type PolicyDecision struct {
	Verdict PolicyVerdict `json:"verdict" yaml:"verdict"`
	// Reason is a short explanation suitable for reports
	Reason string `json:"reason" yaml:"reason"`
	// BackendState is the VPN client state when it could be queried
	BackendState string `json:"backend_state,omitempty" yaml:"backend_state,omitempty"`
	// ExitNode identifies the exit node that caused suppression
	ExitNode string `json:"exit_node,omitempty" yaml:"exit_node,omitempty"`
}

// Allowed builds an Allowed decision
func Allowed(reason string) PolicyDecision {
	return PolicyDecision{Verdict: PolicyAllowed, Reason: reason}
}

// Suppressed builds a Suppressed decision for the given exit node
func Suppressed(exitNode, reason string) PolicyDecision {
	return PolicyDecision{
		Verdict:      PolicySuppressed,
		Reason:       reason,
		BackendState: "Running",
		ExitNode:     exitNode,
	}
}

// Skips reports whether the decision excludes a port from probing.
// Only ports flagged for policy checks can be skipped.
func (d PolicyDecision) Skips(spec PortSpec) bool {
	return d.Verdict == PolicySuppressed && spec.RequiresPolicyCheck
}
