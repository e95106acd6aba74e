// Package adapter implements the network-facing collaborators of a check.
//
// Each adapter wraps one external system behind a small interface so the
// check service can be tested with fakes.
//
// # Resolvers
//
// SystemResolver uses the host's resolver configuration. NameserverResolver
// queries a chosen nameserver directly (A, then AAAA). Both return a
// *domain.ResolutionError when a name cannot be turned into addresses.
//
// # VPN status
//
// TailscaleSource runs "tailscale status --json" and reduces the answer to
// the backend state and the exit node in effect. A missing client binary is
// reported as ErrClientNotFound.
//
// # SMTP prober
//
// SMTPProber classifies one port as open (with or without a greeting),
// closed or timed out. Plaintext ports are read after sending QUIT; the
// implicit-TLS port completes a handshake first and then waits for a line
// that looks like an SMTP greeting.
//
// # Nmap fingerprinter
//
// NmapFingerprinter runs nmap service detection against open ports. It is
// optional and only used when requested.
package adapter
