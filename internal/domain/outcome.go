package domain

// PortOutcome classifies the result of probing one port
type PortOutcome string

const (
	OutcomeOpenBanner   PortOutcome = "open"           // Reachable and sent a greeting
	OutcomeOpenNoBanner PortOutcome = "open-no-banner" // Reachable, no greeting in time
	OutcomeClosed       PortOutcome = "closed"         // Refused or unreachable
	OutcomeSkipped      PortOutcome = "skipped"        // Suppressed by policy, never dialed
	OutcomeTimeout      PortOutcome = "timeout"        // No answer before the deadline
)

// Reachable reports whether a TCP session was established
func (o PortOutcome) Reachable() bool {
	return o == OutcomeOpenBanner || o == OutcomeOpenNoBanner
}

// Label returns the human-readable form used in reports
func (o PortOutcome) Label() string {
	switch o {
	case OutcomeOpenBanner:
		return "OPEN"
	case OutcomeOpenNoBanner:
		return "OPEN (no banner)"
	case OutcomeClosed:
		return "CLOSED"
	case OutcomeSkipped:
		return "SKIPPED"
	case OutcomeTimeout:
		return "TIMEOUT"
	default:
		return string(o)
	}
}
