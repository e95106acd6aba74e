package policy

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"checksmtp/internal/adapter"
	"checksmtp/internal/domain"
)

type fakeSource struct {
	status *adapter.VPNStatus
	err    error
	calls  int
}

func (f *fakeSource) Status(context.Context) (*adapter.VPNStatus, error) {
	f.calls++
	return f.status, f.err
}

func TestGuardDecide(t *testing.T) {
	tests := []struct {
		name        string
		source      *fakeSource
		wantVerdict domain.PolicyVerdict
		wantReason  string
		wantExit    string
	}{
		{
			name:        "client not installed",
			source:      &fakeSource{err: fmt.Errorf("tailscale: %w", adapter.ErrClientNotFound)},
			wantVerdict: domain.PolicyAllowed,
			wantReason:  ReasonNoClient,
		},
		{
			name:        "status query failed",
			source:      &fakeSource{err: errors.New("parse tailscale status: unexpected end of JSON input")},
			wantVerdict: domain.PolicyAllowed,
			wantReason:  ReasonStatusFailed,
		},
		{
			name:        "backend stopped",
			source:      &fakeSource{status: &adapter.VPNStatus{BackendState: "Stopped", ActiveExitNode: "nodeXYZ"}},
			wantVerdict: domain.PolicyAllowed,
			wantReason:  ReasonNotRunning,
		},
		{
			name:        "running without exit node",
			source:      &fakeSource{status: &adapter.VPNStatus{BackendState: "Running"}},
			wantVerdict: domain.PolicyAllowed,
			wantReason:  ReasonNoExitNode,
		},
		{
			name:        "active exit node",
			source:      &fakeSource{status: &adapter.VPNStatus{BackendState: "Running", ActiveExitNode: "nodeXYZ"}},
			wantVerdict: domain.PolicySuppressed,
			wantReason:  ReasonExitNodeInUse,
			wantExit:    "nodeXYZ",
		},
		{
			name:        "configured exit node",
			source:      &fakeSource{status: &adapter.VPNStatus{BackendState: "Running", ConfiguredExitNode: "nodeC"}},
			wantVerdict: domain.PolicySuppressed,
			wantReason:  ReasonExitNodeInUse,
			wantExit:    "nodeC",
		},
		{
			name: "active wins over configured",
			source: &fakeSource{status: &adapter.VPNStatus{
				BackendState: "Running", ActiveExitNode: "nodeXYZ", ConfiguredExitNode: "nodeC",
			}},
			wantVerdict: domain.PolicySuppressed,
			wantReason:  ReasonExitNodeInUse,
			wantExit:    "nodeXYZ",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewGuard(tt.source, true, zerolog.Nop())
			d := g.Decide(context.Background())

			assert.Equal(t, tt.wantVerdict, d.Verdict)
			assert.Equal(t, tt.wantReason, d.Reason)
			assert.Equal(t, tt.wantExit, d.ExitNode)
			assert.Equal(t, 1, tt.source.calls, "status must be queried exactly once")
		})
	}
}

func TestGuardSuppressesOnlyRelayPort(t *testing.T) {
	src := &fakeSource{status: &adapter.VPNStatus{BackendState: "Running", ActiveExitNode: "nodeXYZ"}}
	d := NewGuard(src, true, zerolog.Nop()).Decide(context.Background())

	for _, spec := range domain.Ports() {
		assert.Equal(t, spec.Port == 25, d.Skips(spec), "port %d", spec.Port)
	}
}

func TestGuardDisabled(t *testing.T) {
	src := &fakeSource{status: &adapter.VPNStatus{BackendState: "Running", ActiveExitNode: "nodeXYZ"}}

	d := NewGuard(src, false, zerolog.Nop()).Decide(context.Background())
	assert.Equal(t, domain.PolicyAllowed, d.Verdict)
	assert.Equal(t, ReasonDisabled, d.Reason)
	assert.Zero(t, src.calls, "disabled guard must not query the client")

	d = NewGuard(nil, true, zerolog.Nop()).Decide(context.Background())
	assert.Equal(t, domain.PolicyAllowed, d.Verdict)
	assert.Equal(t, ReasonNoVPNPlugin, d.Reason)
}
