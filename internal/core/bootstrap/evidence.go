// Package bootstrap runs the startup preflight for checksmtp.
// It gathers evidence about the capabilities a run depends on (built-in
// network primitives, the VPN client, nmap) and the local network setup,
// and fails fast when a required capability is missing.
package bootstrap

import (
	"time"

	"github.com/google/uuid"
)

// Category groups evidence by what it describes
type Category string

const (
	CategoryNetwork    Category = "network"
	CategoryCapability Category = "capability"
)

// Evidence is one preflight observation with a confidence score
type Evidence struct {
	ID         string         `json:"id"`
	Category   Category       `json:"category"`
	Property   string         `json:"property"`
	Value      any            `json:"value"`
	Confidence float64        `json:"confidence"` // 0.0-1.0
	Source     string         `json:"source"`     // builtin, probe, filesystem, syscall, inference
	Method     string         `json:"method"`     // How it was observed, e.g. "nmap --version succeeded"
	Timestamp  time.Time      `json:"timestamp"`
	Raw        map[string]any `json:"raw,omitempty"`
}

// NewEvidence records an observation made now
func NewEvidence(cat Category, prop string, value any, conf float64, source, method string) Evidence {
	return Evidence{
		ID:         uuid.NewString(),
		Category:   cat,
		Property:   prop,
		Value:      value,
		Confidence: conf,
		Source:     source,
		Method:     method,
		Timestamp:  time.Now(),
	}
}

// WithRaw attaches extra data, for chaining
func (e Evidence) WithRaw(raw map[string]any) Evidence {
	e.Raw = raw
	return e
}

func (e Evidence) is(cat Category, prop string) bool {
	return e.Category == cat && e.Property == prop
}

// EvidenceSet collects the observations of one preflight run
type EvidenceSet struct {
	items []Evidence
}

// NewEvidenceSet creates an empty evidence set
func NewEvidenceSet() *EvidenceSet {
	return &EvidenceSet{}
}

// Add appends one observation
func (es *EvidenceSet) Add(e Evidence) {
	es.items = append(es.items, e)
}

// AddAll appends several observations
func (es *EvidenceSet) AddAll(items []Evidence) {
	for _, e := range items {
		es.Add(e)
	}
}

// Count returns the number of observations
func (es *EvidenceSet) Count() int {
	return len(es.items)
}

func (es *EvidenceSet) filter(keep func(Evidence) bool) []Evidence {
	var out []Evidence
	for _, e := range es.items {
		if keep(e) {
			out = append(out, e)
		}
	}
	return out
}

// ByCategory returns the observations in one category
func (es *EvidenceSet) ByCategory(cat Category) []Evidence {
	return es.filter(func(e Evidence) bool { return e.Category == cat })
}

// ByProperty returns every observation of one property
func (es *EvidenceSet) ByProperty(cat Category, prop string) []Evidence {
	return es.filter(func(e Evidence) bool { return e.is(cat, prop) })
}

// HasProperty reports whether a property was observed at all
func (es *EvidenceSet) HasProperty(cat Category, prop string) bool {
	return len(es.ByProperty(cat, prop)) > 0
}

// BestValue returns the most confident value of a property.
// Ties keep the earliest observation.
func (es *EvidenceSet) BestValue(cat Category, prop string) (any, float64, bool) {
	matches := es.ByProperty(cat, prop)
	if len(matches) == 0 {
		return nil, 0, false
	}

	best := matches[0]
	for _, e := range matches[1:] {
		if e.Confidence > best.Confidence {
			best = e
		}
	}
	return best.Value, best.Confidence, true
}
