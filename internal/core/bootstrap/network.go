package bootstrap

import (
	"net"
	"os"
	"strings"
)

// DefaultResolvConf is where the system resolver configuration lives
const DefaultResolvConf = "/etc/resolv.conf"

// overlayPrefixes name interfaces created by VPN and overlay clients
var overlayPrefixes = []string{"tailscale", "utun", "wg", "tun", "zt"}

// DetectNetwork gathers evidence about local name resolution and overlay links
func DetectNetwork(resolvConf string) []Evidence {
	var evidence []Evidence

	evidence = append(evidence, detectHostname()...)
	evidence = append(evidence, detectOverlayInterfaces()...)

	if data, err := os.ReadFile(resolvConf); err == nil {
		evidence = append(evidence, parseResolvConf(string(data), resolvConf)...)
	}

	return evidence
}

func detectHostname() []Evidence {
	hostname, err := os.Hostname()
	if err != nil {
		return nil
	}

	return []Evidence{NewEvidence(
		CategoryNetwork,
		"hostname",
		hostname,
		0.99,
		"syscall",
		"os.Hostname()",
	)}
}

// detectOverlayInterfaces reports up interfaces that look like VPN links
func detectOverlayInterfaces() []Evidence {
	ifaces, err := net.Interfaces()
	if err != nil {
		return nil
	}

	var names []string
	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagLoopback != 0 {
			continue
		}
		if isOverlayInterface(iface.Name) {
			names = append(names, iface.Name)
		}
	}

	if len(names) == 0 {
		return nil
	}

	return []Evidence{NewEvidence(
		CategoryNetwork,
		"overlay_interfaces",
		names,
		0.70,
		"syscall",
		"interface name matches a VPN client prefix",
	)}
}

func isOverlayInterface(name string) bool {
	for _, prefix := range overlayPrefixes {
		if strings.HasPrefix(name, prefix) {
			return true
		}
	}
	return false
}

// parseResolvConf extracts nameservers and search domains
func parseResolvConf(data, source string) []Evidence {
	var evidence []Evidence
	var nameservers []string
	var searchDomains []string

	for _, line := range strings.Split(data, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, ";") {
			continue
		}

		fields := strings.Fields(line)
		switch fields[0] {
		case "nameserver":
			if len(fields) > 1 {
				nameservers = append(nameservers, fields[1])
			}
		case "search", "domain":
			searchDomains = append(searchDomains, fields[1:]...)
		}
	}

	if len(nameservers) > 0 {
		evidence = append(evidence, NewEvidence(
			CategoryNetwork,
			"dns_servers",
			nameservers,
			0.95,
			"filesystem",
			source+" nameserver entries",
		))

		// Tailscale MagicDNS answers on 100.100.100.100
		for _, ns := range nameservers {
			if ns == "100.100.100.100" {
				evidence = append(evidence, NewEvidence(
					CategoryNetwork,
					"overlay_dns",
					ns,
					0.90,
					"inference",
					"nameserver is the tailscale MagicDNS address",
				))
			}
		}
	}

	if len(searchDomains) > 0 {
		evidence = append(evidence, NewEvidence(
			CategoryNetwork,
			"search_domains",
			searchDomains,
			0.95,
			"filesystem",
			source+" search domains",
		))
	}

	return evidence
}
