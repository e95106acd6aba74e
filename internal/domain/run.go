package domain

import (
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/google/uuid"
)

// ErrAlreadyRecorded is returned when a port result is recorded twice in a run
var ErrAlreadyRecorded = errors.New("port already recorded for this run")

// ResolvedHost is the canonical host used for every operation of a run
type ResolvedHost struct {
	// Hostname is the canonical name (alias-expanded) or the literal address
	Hostname string `json:"hostname" yaml:"hostname"`
	// Addresses returned by DNS, in resolver order
	Addresses []string `json:"addresses" yaml:"addresses"`
}

// DialAddress returns the address used for connection attempts
func (h *ResolvedHost) DialAddress() string {
	if len(h.Addresses) == 0 {
		return h.Hostname
	}
	return h.Addresses[0]
}

// HostPort joins the dial address with a port
func (h *ResolvedHost) HostPort(port int) string {
	return net.JoinHostPort(h.DialAddress(), fmt.Sprint(port))
}

// ResolutionError reports a DNS failure that aborts a run
type ResolutionError struct {
	Hostname string
	NotFound bool // Name does not exist or has no addresses
	Err      error
}

func (e *ResolutionError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("resolve %s: no addresses found", e.Hostname)
	}
	return fmt.Sprintf("resolve %s: %v", e.Hostname, e.Err)
}

func (e *ResolutionError) Unwrap() error {
	return e.Err
}

// TLSDetails describes the handshake on an implicit-TLS port
type TLSDetails struct {
	Version      string     `json:"version" yaml:"version"`
	CipherSuite  string     `json:"cipher_suite" yaml:"cipher_suite"`
	ServerName   string     `json:"server_name,omitempty" yaml:"server_name,omitempty"`
	CertSubject  string     `json:"cert_subject,omitempty" yaml:"cert_subject,omitempty"`
	CertIssuer   string     `json:"cert_issuer,omitempty" yaml:"cert_issuer,omitempty"`
	CertNotAfter *time.Time `json:"cert_not_after,omitempty" yaml:"cert_not_after,omitempty"`
	// OCSPStatus is "good", "revoked" or "unknown" when the server stapled a response
	OCSPStatus string `json:"ocsp_status,omitempty" yaml:"ocsp_status,omitempty"`
}

// Fingerprint is optional service information from nmap
type Fingerprint struct {
	Service string `json:"service,omitempty" yaml:"service,omitempty"`
	Product string `json:"product,omitempty" yaml:"product,omitempty"`
	Version string `json:"version,omitempty" yaml:"version,omitempty"`
}

// String returns "product version (service)" trimmed to what is known
func (f Fingerprint) String() string {
	s := f.Product
	if f.Version != "" {
		s += " " + f.Version
	}
	if f.Service != "" {
		if s == "" {
			return f.Service
		}
		s += " (" + f.Service + ")"
	}
	return s
}

// PortResult is the recorded outcome for one port
type PortResult struct {
	Spec        PortSpec      `json:"spec" yaml:"spec"`
	Outcome     PortOutcome   `json:"outcome" yaml:"outcome"`
	Banner      string        `json:"banner,omitempty" yaml:"banner,omitempty"`
	TLS         *TLSDetails   `json:"tls,omitempty" yaml:"tls,omitempty"`
	Fingerprint *Fingerprint  `json:"fingerprint,omitempty" yaml:"fingerprint,omitempty"`
	Elapsed     time.Duration `json:"elapsed" yaml:"elapsed"`
	// Detail carries the low-level reason for closed/timeout outcomes
	Detail string `json:"detail,omitempty" yaml:"detail,omitempty"`
}

// RunResult aggregates port results for a single target check.
// Results are stored by report position, so completion order never matters.
type RunResult struct {
	ID         string
	Target     string
	Host       *ResolvedHost
	Policy     PolicyDecision
	StartedAt  time.Time
	FinishedAt time.Time
	// ResolutionErr is set when DNS failed and no port was probed
	ResolutionErr *ResolutionError

	results  [PortCount]PortResult
	recorded [PortCount]bool
}

// NewRunResult starts a run for a raw target
func NewRunResult(target string) *RunResult {
	return &RunResult{
		ID:        uuid.NewString(),
		Target:    target,
		StartedAt: time.Now(),
	}
}

// Record stores the result for its port. Each port can be recorded once.
func (r *RunResult) Record(res PortResult) error {
	i, ok := PortIndex(res.Spec.Port)
	if !ok {
		return fmt.Errorf("record port %d: not a probed port", res.Spec.Port)
	}
	if r.recorded[i] {
		return fmt.Errorf("record port %d: %w", res.Spec.Port, ErrAlreadyRecorded)
	}
	r.results[i] = res
	r.recorded[i] = true
	return nil
}

// Result returns the result at a report position
func (r *RunResult) Result(i int) (PortResult, bool) {
	if i < 0 || i >= PortCount || !r.recorded[i] {
		return PortResult{}, false
	}
	return r.results[i], true
}

// Results returns the recorded results in report order
func (r *RunResult) Results() []PortResult {
	var out []PortResult
	for i := range r.results {
		if r.recorded[i] {
			out = append(out, r.results[i])
		}
	}
	return out
}

// Failed reports whether the run ended on a resolution failure
func (r *RunResult) Failed() bool {
	return r.ResolutionErr != nil
}

// Finish stamps the end time
func (r *RunResult) Finish() {
	r.FinishedAt = time.Now()
}

// Duration returns how long the run took
func (r *RunResult) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// Count returns how many recorded ports have the given outcome
func (r *RunResult) Count(outcome PortOutcome) int {
	n := 0
	for i := range r.results {
		if r.recorded[i] && r.results[i].Outcome == outcome {
			n++
		}
	}
	return n
}
