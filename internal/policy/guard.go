// Package policy decides whether the relay port may be probed.
//
// Port 25 traffic leaving through a VPN exit node is routinely blocked or
// flagged by the exit provider, so a check run behind an exit node skips it.
// The decision never fails a run: any ambiguity degrades to Allowed.
package policy

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"checksmtp/internal/adapter"
	"checksmtp/internal/domain"
)

// Decision reasons
const (
	ReasonDisabled      = "policy check disabled"
	ReasonNoVPNPlugin   = "vpn_status plugin disabled"
	ReasonNoClient      = "vpn client not detected"
	ReasonStatusFailed  = "vpn status unavailable"
	ReasonNotRunning    = "vpn not running"
	ReasonNoExitNode    = "no exit node in use"
	ReasonExitNodeInUse = "exit node in use"
)

// Guard computes the policy decision for a run
type Guard struct {
	source  adapter.StatusSource
	enabled bool
	logger  zerolog.Logger
}

// NewGuard creates a guard over a VPN status source.
// A nil source or enabled=false always allows; a nil source means the
// vpn_status plugin is switched off.
func NewGuard(source adapter.StatusSource, enabled bool, logger zerolog.Logger) *Guard {
	return &Guard{
		source:  source,
		enabled: enabled,
		logger:  logger.With().Str("component", "policy").Logger(),
	}
}

// Decide queries the VPN client once and returns the decision
func (g *Guard) Decide(ctx context.Context) domain.PolicyDecision {
	if !g.enabled {
		return domain.Allowed(ReasonDisabled)
	}
	if g.source == nil {
		return domain.Allowed(ReasonNoVPNPlugin)
	}

	status, err := g.source.Status(ctx)
	if errors.Is(err, adapter.ErrClientNotFound) {
		g.logger.Info().Msg("vpn client not detected, all ports allowed")
		return domain.Allowed(ReasonNoClient)
	}
	if err != nil {
		g.logger.Warn().Err(err).Msg("vpn status query failed, all ports allowed")
		return domain.Allowed(ReasonStatusFailed)
	}

	if !status.Running() {
		g.logger.Info().Str("backend_state", status.BackendState).Msg("vpn not running")
		d := domain.Allowed(ReasonNotRunning)
		d.BackendState = status.BackendState
		return d
	}

	exitNode := status.ExitNode()
	if exitNode == "" {
		g.logger.Debug().Msg("vpn running without exit node")
		d := domain.Allowed(ReasonNoExitNode)
		d.BackendState = status.BackendState
		return d
	}

	g.logger.Warn().Str("exit_node", exitNode).Msg("exit node in use, skipping relay port")
	return domain.Suppressed(exitNode, ReasonExitNodeInUse)
}
