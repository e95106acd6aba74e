package bootstrap

import (
	"context"
	"os/exec"
	"strings"
	"time"

	"checksmtp/internal/config"
)

// versionTimeout bounds the version check of an external binary
const versionTimeout = 2 * time.Second

// versionArgs is how each plugin binary reports its version
var versionArgs = map[string][]string{
	"vpn_status": {"version"},
	"nmap":       {"--version"},
}

// CapabilityStatus is the preflight verdict for one capability
type CapabilityStatus struct {
	config.CapabilityInfo
	Available bool   `json:"available"`
	Path      string `json:"path,omitempty"`
	Version   string `json:"version,omitempty"`
	Reason    string `json:"reason,omitempty"`
}

// Prober looks up and runs external binaries
type Prober struct {
	LookPath func(file string) (string, error)
	Output   func(ctx context.Context, name string, args ...string) ([]byte, error)
}

// SystemProber uses PATH and os/exec
func SystemProber() Prober {
	return Prober{
		LookPath: exec.LookPath,
		Output: func(ctx context.Context, name string, args ...string) ([]byte, error) {
			return exec.CommandContext(ctx, name, args...).Output()
		},
	}
}

// DetectCapabilities checks every enabled capability.
// Core capabilities are compiled in and always available.
func DetectCapabilities(ctx context.Context, caps []config.CapabilityInfo, p Prober) ([]CapabilityStatus, []Evidence) {
	var statuses []CapabilityStatus
	var evidence []Evidence

	for _, c := range caps {
		if !c.Enabled {
			continue
		}

		st := CapabilityStatus{CapabilityInfo: c}

		if c.Type == config.CapabilityTypeCore {
			st.Available = true
			statuses = append(statuses, st)
			evidence = append(evidence, NewEvidence(CategoryCapability, c.Name, true, 1.0, "builtin", "compiled in"))
			continue
		}

		st, ev := probeBinary(ctx, st, p)
		statuses = append(statuses, st)
		evidence = append(evidence, ev)
	}

	return statuses, evidence
}

func probeBinary(ctx context.Context, st CapabilityStatus, p Prober) (CapabilityStatus, Evidence) {
	path, err := p.LookPath(st.Binary)
	if err != nil {
		st.Reason = st.Binary + " not found"
		return st, NewEvidence(CategoryCapability, st.Name, false, 0.95, "probe", st.Binary+" not in PATH")
	}
	st.Path = path

	args, ok := versionArgs[st.Name]
	if !ok {
		st.Available = true
		return st, NewEvidence(CategoryCapability, st.Name, true, 0.90, "probe", "found "+path).
			WithRaw(map[string]any{"path": path})
	}

	ctx, cancel := context.WithTimeout(ctx, versionTimeout)
	defer cancel()

	output, err := p.Output(ctx, path, args...)
	if err != nil {
		// A binary that cannot report its version is unusable
		st.Reason = st.Binary + " exists but version check failed: " + err.Error()
		return st, NewEvidence(CategoryCapability, st.Name, false, 0.85, "probe", st.Reason).
			WithRaw(map[string]any{"path": path})
	}

	st.Available = true
	st.Version = strings.TrimSpace(strings.SplitN(string(output), "\n", 2)[0])

	method := st.Binary + " " + strings.Join(args, " ") + " succeeded"
	return st, NewEvidence(CategoryCapability, st.Name, true, 0.99, "probe", method).
		WithRaw(map[string]any{"path": path, "version": st.Version})
}
