package domain

import "fmt"

// Protocol distinguishes how a port expects the session to start
type Protocol string

const (
	// ProtocolPlaintext - greeting is sent in clear text right after connect
	ProtocolPlaintext Protocol = "plaintext"
	// ProtocolImplicitTLS - TLS handshake happens before any greeting
	ProtocolImplicitTLS Protocol = "implicit-tls"
)

// PortSpec describes one probed SMTP port
type PortSpec struct {
	Port     int      `json:"port" yaml:"port"`
	Name     string   `json:"name" yaml:"name"`
	Protocol Protocol `json:"protocol" yaml:"protocol"`
	// RequiresPolicyCheck marks ports that the VPN policy guard may suppress
	RequiresPolicyCheck bool `json:"requires_policy_check" yaml:"requires_policy_check"`
}

// String returns "587/submission" style labels
func (p PortSpec) String() string {
	return fmt.Sprintf("%d/%s", p.Port, p.Name)
}

// PortCount is the size of the fixed port list
const PortCount = 4

// smtpPorts is ordered: submission, implicit TLS, alternate, legacy relay.
// Reports always follow this order.
var smtpPorts = [PortCount]PortSpec{
	{Port: 587, Name: "submission", Protocol: ProtocolPlaintext},
	{Port: 465, Name: "smtps", Protocol: ProtocolImplicitTLS},
	{Port: 2525, Name: "alternate", Protocol: ProtocolPlaintext},
	{Port: 25, Name: "relay", Protocol: ProtocolPlaintext, RequiresPolicyCheck: true},
}

// Ports returns a copy of the fixed port list in report order
func Ports() []PortSpec {
	ports := make([]PortSpec, PortCount)
	copy(ports, smtpPorts[:])
	return ports
}

// PortAt returns the spec at a report position
func PortAt(i int) PortSpec {
	return smtpPorts[i]
}

// PortIndex returns the report position of a port number
func PortIndex(port int) (int, bool) {
	for i, spec := range smtpPorts {
		if spec.Port == port {
			return i, true
		}
	}
	return -1, false
}
