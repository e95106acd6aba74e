package sqlite

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"checksmtp/internal/domain"
)

// ============================================================================
// Null Type Conversion Helpers
// ============================================================================

// nullToString safely converts sql.NullString to string
func nullToString(ns sql.NullString) string {
	if ns.Valid {
		return ns.String
	}
	return ""
}

// stringToNull safely converts string to sql.NullString
func stringToNull(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// timeLayout is fixed-width UTC so text order matches time order
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// formatTime stores times as fixed-width UTC text
func formatTime(t time.Time) sql.NullString {
	if t.IsZero() {
		return sql.NullString{}
	}
	return sql.NullString{String: t.UTC().Format(timeLayout), Valid: true}
}

// parseTime reads a time written by formatTime
func parseTime(ns sql.NullString) (time.Time, error) {
	if !ns.Valid || ns.String == "" {
		return time.Time{}, nil
	}
	return time.Parse(timeLayout, ns.String)
}

// ============================================================================
// JSON Marshaling Helpers
// ============================================================================

// unmarshalJSONField safely unmarshals JSON from nullable string into target
func unmarshalJSONField(ns sql.NullString, target interface{}) error {
	if !ns.Valid || ns.String == "" {
		return nil
	}
	return json.Unmarshal([]byte(ns.String), target)
}

// marshalToNull marshals interface to nullable JSON string
// Returns empty NullString for nil pointers and empty slices
func marshalToNull(v interface{}) (sql.NullString, error) {
	switch t := v.(type) {
	case nil:
		return sql.NullString{}, nil
	case *domain.TLSDetails:
		if t == nil {
			return sql.NullString{}, nil
		}
	case *domain.Fingerprint:
		if t == nil {
			return sql.NullString{}, nil
		}
	case []string:
		if len(t) == 0 {
			return sql.NullString{}, nil
		}
	}

	data, err := json.Marshal(v)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}

// ============================================================================
// Schema Evolution Guide
// ============================================================================
//
// To add a new column to runs:
// 1. Add field to runRow struct (below)
// 2. Update scanArgs() - APPEND to end to match column order
// 3. Update runColumns constant - APPEND to end
// 4. Update toDomain() to map new field to domain.RunRecord
// 5. Update the INSERT in SaveRun
// 6. Add migration in sqlite.go migrate()
//
// CRITICAL: Column order must match between:
// - runColumns constant
// - scanArgs() return slice
// - All SELECT queries using runColumns
//
// Same pattern applies to port_results.

// ============================================================================
// Run Row Scanner
// ============================================================================

// runRow holds all columns from a runs query for scanning
type runRow struct {
	ID              string
	Target          string
	Hostname        sql.NullString
	AddressesJSON   sql.NullString
	Verdict         string
	Reason          sql.NullString
	BackendState    sql.NullString
	ExitNode        sql.NullString
	ResolutionError sql.NullString
	StartedAt       sql.NullString
	FinishedAt      sql.NullString
}

// scanArgs returns pointers to all fields for sql.Scan()
// MUST match runColumns order exactly
func (r *runRow) scanArgs() []interface{} {
	return []interface{}{
		&r.ID,              // 1
		&r.Target,          // 2
		&r.Hostname,        // 3
		&r.AddressesJSON,   // 4
		&r.Verdict,         // 5
		&r.Reason,          // 6
		&r.BackendState,    // 7
		&r.ExitNode,        // 8
		&r.ResolutionError, // 9
		&r.StartedAt,       // 10
		&r.FinishedAt,      // 11
	}
}

// toDomain converts the scanned row to a domain.RunRecord without results
func (r *runRow) toDomain() (*domain.RunRecord, error) {
	rec := &domain.RunRecord{
		ID:       r.ID,
		Target:   r.Target,
		Hostname: nullToString(r.Hostname),
		Policy: domain.PolicyDecision{
			Verdict:      domain.PolicyVerdict(r.Verdict),
			Reason:       nullToString(r.Reason),
			BackendState: nullToString(r.BackendState),
			ExitNode:     nullToString(r.ExitNode),
		},
		ResolutionError: nullToString(r.ResolutionError),
		Results:         []domain.PortResult{},
	}

	var err error
	if rec.StartedAt, err = parseTime(r.StartedAt); err != nil {
		return nil, fmt.Errorf("parse started_at: %w", err)
	}
	if rec.FinishedAt, err = parseTime(r.FinishedAt); err != nil {
		return nil, fmt.Errorf("parse finished_at: %w", err)
	}

	if err := unmarshalJSONField(r.AddressesJSON, &rec.Addresses); err != nil {
		return nil, fmt.Errorf("unmarshal addresses: %w", err)
	}

	return rec, nil
}

// runColumns returns the SELECT column list for run queries
const runColumns = `id, target, hostname, addresses, verdict, reason,
	backend_state, exit_node, resolution_error, started_at, finished_at`

// ============================================================================
// Port Result Row Scanner
// ============================================================================

// portRow holds all columns from a port_results query for scanning
type portRow struct {
	RunID           string
	Port            int
	Outcome         string
	Banner          sql.NullString
	Detail          sql.NullString
	TLSJSON         sql.NullString
	FingerprintJSON sql.NullString
	ElapsedMicros   int64
}

// scanArgs returns pointers to all fields for sql.Scan()
// MUST match portColumns order exactly
func (r *portRow) scanArgs() []interface{} {
	return []interface{}{
		&r.RunID,           // 1
		&r.Port,            // 2
		&r.Outcome,         // 3
		&r.Banner,          // 4
		&r.Detail,          // 5
		&r.TLSJSON,         // 6
		&r.FingerprintJSON, // 7
		&r.ElapsedMicros,   // 8
	}
}

// toDomain converts the scanned row to a domain.PortResult
func (r *portRow) toDomain() (domain.PortResult, error) {
	i, ok := domain.PortIndex(r.Port)
	if !ok {
		return domain.PortResult{}, fmt.Errorf("unknown port %d", r.Port)
	}

	res := domain.PortResult{
		Spec:    domain.PortAt(i),
		Outcome: domain.PortOutcome(r.Outcome),
		Banner:  nullToString(r.Banner),
		Detail:  nullToString(r.Detail),
		Elapsed: time.Duration(r.ElapsedMicros) * time.Microsecond,
	}

	if r.TLSJSON.Valid && r.TLSJSON.String != "" {
		res.TLS = &domain.TLSDetails{}
		if err := json.Unmarshal([]byte(r.TLSJSON.String), res.TLS); err != nil {
			return domain.PortResult{}, fmt.Errorf("unmarshal tls: %w", err)
		}
	}

	if r.FingerprintJSON.Valid && r.FingerprintJSON.String != "" {
		res.Fingerprint = &domain.Fingerprint{}
		if err := json.Unmarshal([]byte(r.FingerprintJSON.String), res.Fingerprint); err != nil {
			return domain.PortResult{}, fmt.Errorf("unmarshal fingerprint: %w", err)
		}
	}

	return res, nil
}

// portColumns returns the SELECT column list for port result queries
const portColumns = `run_id, port, outcome, banner, detail, tls, fingerprint, elapsed_us`
