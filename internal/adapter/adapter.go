package adapter

import (
	"context"

	"checksmtp/internal/domain"
)

// Resolver turns a canonical hostname into dialable addresses
type Resolver interface {
	// Resolve returns a *domain.ResolutionError on failure
	Resolve(ctx context.Context, hostname string) (*domain.ResolvedHost, error)
}

// StatusSource reports the local VPN client state
type StatusSource interface {
	// Status returns ErrClientNotFound when the client is not installed
	Status(ctx context.Context) (*VPNStatus, error)
}

// PortProber checks a single port of a resolved host.
// Per-port failures are part of the result, never returned as errors.
type PortProber interface {
	Probe(ctx context.Context, host *domain.ResolvedHost, spec domain.PortSpec) domain.PortResult
}

// Fingerprinter adds service information to open ports
type Fingerprinter interface {
	Fingerprint(ctx context.Context, host *domain.ResolvedHost, ports []int) (map[int]domain.Fingerprint, error)
}
