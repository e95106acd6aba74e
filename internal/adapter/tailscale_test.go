package adapter

import (
	"context"
	"errors"
	"os/exec"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	statusActiveExitNode = `{
  "Version": "1.76.1",
  "BackendState": "Running",
  "ExitNodeStatus": {"ID": "nodeXYZ", "Online": true, "TailscaleIPs": ["100.64.0.7/32"]},
  "Peer": {
    "nodekey:abc": {"ID": "nodeXYZ", "HostName": "exit-1", "ExitNode": true, "ExitNodeOption": true}
  }
}`
	statusConfiguredPeer = `{
  "BackendState": "Running",
  "Peer": {
    "nodekey:b": {"ID": "nodeB", "HostName": "laptop", "ExitNode": false},
    "nodekey:c": {"ID": "nodeC", "HostName": "exit-2", "ExitNode": true}
  }
}`
	statusNoExitNode = `{"BackendState": "Running", "Peer": {"nodekey:b": {"ID": "nodeB"}}}`
	statusStopped    = `{"BackendState": "Stopped"}`
)

func TestParseTailscaleStatus(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		wantState  string
		wantExit   string
		wantActive string
		wantErr    bool
	}{
		{"active exit node", statusActiveExitNode, "Running", "nodeXYZ", "nodeXYZ", false},
		{"configured peer", statusConfiguredPeer, "Running", "nodeC", "", false},
		{"no exit node", statusNoExitNode, "Running", "", "", false},
		{"stopped", statusStopped, "Stopped", "", "", false},
		{"malformed", `{"BackendState":`, "", "", "", true},
		{"missing state", `{"Peer": {}}`, "", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, err := ParseTailscaleStatus([]byte(tt.input))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantState, status.BackendState)
			assert.Equal(t, tt.wantExit, status.ExitNode())
			assert.Equal(t, tt.wantActive, status.ActiveExitNode)
		})
	}
}

func TestVPNStatusExitNodePrefersActive(t *testing.T) {
	s := &VPNStatus{BackendState: BackendRunning, ActiveExitNode: "nodeA", ConfiguredExitNode: "nodeB"}
	assert.Equal(t, "nodeA", s.ExitNode())
	assert.True(t, s.Running())
}

func TestTailscaleSourceStatus(t *testing.T) {
	t.Run("client missing", func(t *testing.T) {
		src := NewTailscaleSource("tailscale", 0)
		src.lookPath = func(string) (string, error) { return "", exec.ErrNotFound }

		_, err := src.Status(context.Background())
		assert.ErrorIs(t, err, ErrClientNotFound)
	})

	t.Run("status parsed", func(t *testing.T) {
		src := NewTailscaleSource("", 0)
		src.lookPath = func(file string) (string, error) { return "/usr/bin/" + file, nil }
		var gotArgs []string
		src.run = func(_ context.Context, path string, args ...string) ([]byte, error) {
			assert.Equal(t, "/usr/bin/tailscale", path)
			gotArgs = args
			return []byte(statusActiveExitNode), nil
		}

		status, err := src.Status(context.Background())
		require.NoError(t, err)
		assert.Equal(t, []string{"status", "--json"}, gotArgs)
		assert.Equal(t, "nodeXYZ", status.ExitNode())
	})

	t.Run("non-zero exit with output", func(t *testing.T) {
		src := NewTailscaleSource("tailscale", 0)
		src.lookPath = func(file string) (string, error) { return file, nil }
		src.run = func(context.Context, string, ...string) ([]byte, error) {
			return []byte(statusStopped), errors.New("exit status 1")
		}

		status, err := src.Status(context.Background())
		require.NoError(t, err)
		assert.False(t, status.Running())
	})

	t.Run("command failed", func(t *testing.T) {
		src := NewTailscaleSource("tailscale", 0)
		src.lookPath = func(file string) (string, error) { return file, nil }
		src.run = func(context.Context, string, ...string) ([]byte, error) {
			return nil, errors.New("exit status 1")
		}

		_, err := src.Status(context.Background())
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrClientNotFound)
	})
}
