package adapter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"sort"
	"time"
)

// ErrClientNotFound is returned when the VPN client binary is not installed
var ErrClientNotFound = errors.New("vpn client not found")

// BackendRunning is the backend state of a connected client
const BackendRunning = "Running"

// VPNStatus is the part of the client status the policy guard needs
type VPNStatus struct {
	BackendState string
	// ActiveExitNode is the exit node currently routing traffic
	ActiveExitNode string
	// ConfiguredExitNode is a peer selected as exit node
	ConfiguredExitNode string
}

// ExitNode returns the exit node in effect, preferring the active one
func (s *VPNStatus) ExitNode() string {
	if s.ActiveExitNode != "" {
		return s.ActiveExitNode
	}
	return s.ConfiguredExitNode
}

// Running reports whether the client backend is up
func (s *VPNStatus) Running() bool {
	return s.BackendState == BackendRunning
}

// tailscaleStatus mirrors the fields of "tailscale status --json" we read
type tailscaleStatus struct {
	BackendState   string `json:"BackendState"`
	ExitNodeStatus *struct {
		ID     string `json:"ID"`
		Online bool   `json:"Online"`
	} `json:"ExitNodeStatus"`
	Peer map[string]tailscalePeer `json:"Peer"`
}

type tailscalePeer struct {
	ID       string `json:"ID"`
	HostName string `json:"HostName"`
	ExitNode bool   `json:"ExitNode"`
}

// TailscaleSource queries the tailscale CLI
type TailscaleSource struct {
	binary  string
	timeout time.Duration

	lookPath func(file string) (string, error)
	run      func(ctx context.Context, path string, args ...string) ([]byte, error)
}

// NewTailscaleSource creates a status source for the given client binary
func NewTailscaleSource(binary string, timeout time.Duration) *TailscaleSource {
	if binary == "" {
		binary = "tailscale"
	}
	return &TailscaleSource{
		binary:   binary,
		timeout:  timeout,
		lookPath: exec.LookPath,
		run:      runCommand,
	}
}

// Status runs "status --json" and parses the answer
func (s *TailscaleSource) Status(ctx context.Context) (*VPNStatus, error) {
	path, err := s.lookPath(s.binary)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", s.binary, ErrClientNotFound)
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	out, err := s.run(ctx, path, "status", "--json")
	if err != nil && len(out) == 0 {
		return nil, fmt.Errorf("tailscale status: %w", err)
	}

	// A stopped client may exit non-zero but still print its status
	return ParseTailscaleStatus(out)
}

// ParseTailscaleStatus decodes "tailscale status --json" output
func ParseTailscaleStatus(data []byte) (*VPNStatus, error) {
	var raw tailscaleStatus
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse tailscale status: %w", err)
	}
	if raw.BackendState == "" {
		return nil, fmt.Errorf("parse tailscale status: missing BackendState")
	}

	status := &VPNStatus{BackendState: raw.BackendState}
	if raw.ExitNodeStatus != nil {
		status.ActiveExitNode = raw.ExitNodeStatus.ID
	}

	// Map order is random; pick the first selected peer by key
	keys := make([]string, 0, len(raw.Peer))
	for k := range raw.Peer {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		peer := raw.Peer[k]
		if !peer.ExitNode {
			continue
		}
		status.ConfiguredExitNode = peer.ID
		if status.ConfiguredExitNode == "" {
			status.ConfiguredExitNode = peer.HostName
		}
		break
	}

	return status, nil
}

func runCommand(ctx context.Context, path string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, path, args...).Output()
}
