package domain

import "time"

// RunRecord is a self-contained snapshot of a finished run.
// It is what gets exported and stored in history.
type RunRecord struct {
	ID              string         `json:"id" yaml:"id"`
	Target          string         `json:"target" yaml:"target"`
	Hostname        string         `json:"hostname,omitempty" yaml:"hostname,omitempty"`
	Addresses       []string       `json:"addresses,omitempty" yaml:"addresses,omitempty"`
	Policy          PolicyDecision `json:"policy" yaml:"policy"`
	ResolutionError string         `json:"resolution_error,omitempty" yaml:"resolution_error,omitempty"`
	StartedAt       time.Time      `json:"started_at" yaml:"started_at"`
	FinishedAt      time.Time      `json:"finished_at" yaml:"finished_at"`
	Results         []PortResult   `json:"results" yaml:"results"`
}

// Snapshot copies the run into a RunRecord
func (r *RunResult) Snapshot() RunRecord {
	rec := RunRecord{
		ID:         r.ID,
		Target:     r.Target,
		Policy:     r.Policy,
		StartedAt:  r.StartedAt,
		FinishedAt: r.FinishedAt,
		Results:    r.Results(),
	}
	if r.Host != nil {
		rec.Hostname = r.Host.Hostname
		rec.Addresses = append([]string(nil), r.Host.Addresses...)
	}
	if r.ResolutionErr != nil {
		rec.Hostname = r.ResolutionErr.Hostname
		rec.ResolutionError = r.ResolutionErr.Error()
	}
	if rec.Results == nil {
		rec.Results = []PortResult{}
	}
	return rec
}

// Failed reports whether the run ended on a resolution failure
func (r *RunRecord) Failed() bool {
	return r.ResolutionError != ""
}

// Duration returns how long the run took
func (r *RunRecord) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// Count returns how many ports have the given outcome
func (r *RunRecord) Count(outcome PortOutcome) int {
	n := 0
	for _, res := range r.Results {
		if res.Outcome == outcome {
			n++
		}
	}
	return n
}

// Reachable returns how many ports accepted a TCP session
func (r *RunRecord) Reachable() int {
	return r.Count(OutcomeOpenBanner) + r.Count(OutcomeOpenNoBanner)
}
