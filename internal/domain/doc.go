// Package domain defines the core types for the checksmtp reachability diagnostic.
//
// This package contains the value objects that describe one target check:
// the fixed SMTP port list, the per-port outcomes, the VPN policy decision and
// the run result that aggregates them.
//
// # Ports
//
// PortSpec describes one of the four probed ports (587, 465, 2525, 25) with its
// protocol label. The list is closed and read-only for the process lifetime.
//
// # Outcomes
//
// PortOutcome classifies what happened on a port: open with a greeting, open
// without one, closed, skipped by policy, or an ambiguous timeout. Outcomes are
// data, not errors.
//
// # Runs
//
// RunResult is an indexed, append-only record of port results for a single
// resolved host. It is created fresh for every target and never mutated once a
// port has been recorded.
//
// # Design Principles
//
// - Immutable value objects where possible
// - No network, database or presentation dependencies
package domain
