package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"

	"checksmtp/internal/domain"
)

// Store implements repository.RunStore using SQLite
type Store struct {
	db *sql.DB
}

// New opens (and creates if needed) the history database at dbPath.
// ":memory:" gives a private in-memory database.
func New(dbPath string) (*Store, error) {
	dsn := dbPath
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
		dsn = "file:" + dbPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// One connection keeps in-memory databases alive and serializes writers
	db.SetMaxOpenConns(1)

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		target TEXT NOT NULL,
		hostname TEXT,
		addresses JSON,
		verdict TEXT NOT NULL,
		reason TEXT,
		backend_state TEXT,
		exit_node TEXT,
		resolution_error TEXT,
		started_at TEXT NOT NULL,
		finished_at TEXT
	);

	CREATE TABLE IF NOT EXISTS port_results (
		run_id TEXT NOT NULL,
		port INTEGER NOT NULL,
		outcome TEXT NOT NULL,
		banner TEXT,
		detail TEXT,
		tls JSON,
		fingerprint JSON,
		elapsed_us INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (run_id, port),
		FOREIGN KEY (run_id) REFERENCES runs(id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveRun stores a finished run and its port results in one transaction
func (s *Store) SaveRun(ctx context.Context, run *domain.RunResult) error {
	rec := run.Snapshot()

	addresses, err := marshalToNull(rec.Addresses)
	if err != nil {
		return fmt.Errorf("marshal addresses: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// Replace any earlier copy of this run
	if _, err := tx.ExecContext(ctx, `DELETE FROM port_results WHERE run_id = ?`, rec.ID); err != nil {
		return fmt.Errorf("failed to clear port results: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT OR REPLACE INTO runs (`+runColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		rec.ID,
		rec.Target,
		stringToNull(rec.Hostname),
		addresses,
		string(rec.Policy.Verdict),
		stringToNull(rec.Policy.Reason),
		stringToNull(rec.Policy.BackendState),
		stringToNull(rec.Policy.ExitNode),
		stringToNull(rec.ResolutionError),
		formatTime(rec.StartedAt),
		formatTime(rec.FinishedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	for _, res := range rec.Results {
		tlsJSON, err := marshalToNull(res.TLS)
		if err != nil {
			return fmt.Errorf("marshal tls: %w", err)
		}
		fpJSON, err := marshalToNull(res.Fingerprint)
		if err != nil {
			return fmt.Errorf("marshal fingerprint: %w", err)
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO port_results (`+portColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`,
			rec.ID,
			res.Spec.Port,
			string(res.Outcome),
			stringToNull(res.Banner),
			stringToNull(res.Detail),
			tlsJSON,
			fpJSON,
			res.Elapsed.Microseconds(),
		)
		if err != nil {
			return fmt.Errorf("failed to insert port %d: %w", res.Spec.Port, err)
		}
	}

	return tx.Commit()
}

// GetRun retrieves a single run by ID
func (s *Store) GetRun(ctx context.Context, id string) (*domain.RunRecord, error) {
	var row runRow
	err := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id).
		Scan(row.scanArgs()...)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query run: %w", err)
	}

	rec, err := row.toDomain()
	if err != nil {
		return nil, err
	}

	if err := s.loadResults(ctx, []*domain.RunRecord{rec}); err != nil {
		return nil, err
	}
	return rec, nil
}

// RecentRuns returns up to limit runs, newest first
func (s *Store) RecentRuns(ctx context.Context, limit int) ([]domain.RunRecord, error) {
	if limit <= 0 {
		return []domain.RunRecord{}, nil
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+runColumns+` FROM runs
		ORDER BY started_at DESC, id
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var recs []*domain.RunRecord
	for rows.Next() {
		var row runRow
		if err := rows.Scan(row.scanArgs()...); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		rec, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating runs: %w", err)
	}
	rows.Close()

	if err := s.loadResults(ctx, recs); err != nil {
		return nil, err
	}

	out := make([]domain.RunRecord, len(recs))
	for i, rec := range recs {
		out[i] = *rec
	}
	return out, nil
}

// CountRuns returns the number of stored runs
func (s *Store) CountRuns(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM runs`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count runs: %w", err)
	}
	return n, nil
}

// loadResults attaches port results to each record, in report order
func (s *Store) loadResults(ctx context.Context, recs []*domain.RunRecord) error {
	if len(recs) == 0 {
		return nil
	}

	byID := make(map[string]*domain.RunRecord, len(recs))
	placeholders := make([]string, len(recs))
	args := make([]interface{}, len(recs))
	for i, rec := range recs {
		byID[rec.ID] = rec
		placeholders[i] = "?"
		args[i] = rec.ID
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+portColumns+` FROM port_results
		WHERE run_id IN (`+strings.Join(placeholders, ",")+`)
	`, args...)
	if err != nil {
		return fmt.Errorf("failed to query port results: %w", err)
	}
	defer rows.Close()

	type indexed struct {
		pos int
		res domain.PortResult
	}
	collected := make(map[string][]indexed)

	for rows.Next() {
		var row portRow
		if err := rows.Scan(row.scanArgs()...); err != nil {
			return fmt.Errorf("failed to scan port result: %w", err)
		}
		res, err := row.toDomain()
		if err != nil {
			return err
		}
		pos, _ := domain.PortIndex(res.Spec.Port)
		collected[row.RunID] = append(collected[row.RunID], indexed{pos: pos, res: res})
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating port results: %w", err)
	}

	for id, items := range collected {
		var ordered [domain.PortCount]*domain.PortResult
		for i := range items {
			ordered[items[i].pos] = &items[i].res
		}
		rec := byID[id]
		rec.Results = rec.Results[:0]
		for _, res := range ordered {
			if res != nil {
				rec.Results = append(rec.Results, *res)
			}
		}
	}

	return nil
}
