// Package service implements the check workflow for checksmtp.
//
// A Checker runs one target check end to end: alias expansion, DNS
// resolution, the VPN policy decision, probing of the fixed port list and,
// when configured, nmap fingerprinting and history storage.
//
// # Failure handling
//
// Only two things stop a run early: a resolution failure, which is recorded
// on the RunResult and returned without error, and cancellation of the
// context. Per-port failures are outcomes. Fingerprint and history errors
// are logged and never change the report.
//
// # Event System
//
// Checker publishes progress events via EventBus. The CLI subscribes to them
// in verbose mode.
package service
