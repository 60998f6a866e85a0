// Package ledger records conversion runs and the artifacts they produced in
// a SQLite database, so operators can answer "what did this run cover" and
// re-drive uploads without re-scanning output directories.
package ledger

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	sqlitemigrate "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Store provides persistence for conversion runs.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the ledger database at path and applies
// any pending schema migrations.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open ledger: %w", err)
	}
	if err := migrateUp(db); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func migrateUp(db *sql.DB) error {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("load migrations: %w", err)
	}
	driver, err := sqlitemigrate.WithInstance(db, &sqlitemigrate.Config{})
	if err != nil {
		return fmt.Errorf("prepare migrations: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("prepare migrations: %w", err)
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrate ledger: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (s *Store) Close() error { return s.db.Close() }

// Run is one conversion run.
type Run struct {
	RunID     string
	Location  string
	Interval  time.Duration
	StartedAt time.Time
	Windows   int
	Warnings  int
}

// Artifact is one emitted output file.
type Artifact struct {
	ArtifactID    string
	RunID         string
	Kind          string
	MeasurementID string
	Wavelength    int
	Path          string
	Start         time.Time
	End           time.Time
}

// InsertRun persists a run record, generating a UUID when RunID is empty.
func (s *Store) InsertRun(r *Run) error {
	if r.RunID == "" {
		r.RunID = uuid.New().String()
	}
	if r.StartedAt.IsZero() {
		r.StartedAt = time.Now().UTC()
	}
	_, err := s.db.Exec(`
		INSERT INTO runs (run_id, location, interval_seconds, started_at, window_count, warning_count)
		VALUES (?, ?, ?, ?, ?, ?)`,
		r.RunID, r.Location, int64(r.Interval.Seconds()), r.StartedAt.Unix(), r.Windows, r.Warnings,
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// UpdateRunCounts records the final window and warning counts for a run.
func (s *Store) UpdateRunCounts(runID string, windows, warnings int) error {
	_, err := s.db.Exec(`UPDATE runs SET window_count = ?, warning_count = ? WHERE run_id = ?`,
		windows, warnings, runID)
	if err != nil {
		return fmt.Errorf("update run counts: %w", err)
	}
	return nil
}

// InsertArtifact persists an artifact record, generating a UUID when
// ArtifactID is empty.
func (s *Store) InsertArtifact(a *Artifact) error {
	if a.ArtifactID == "" {
		a.ArtifactID = uuid.New().String()
	}
	_, err := s.db.Exec(`
		INSERT INTO artifacts (artifact_id, run_id, kind, measurement_id, wavelength, path, start_time, end_time)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ArtifactID, a.RunID, a.Kind, a.MeasurementID, a.Wavelength, a.Path, a.Start.Unix(), a.End.Unix(),
	)
	if err != nil {
		return fmt.Errorf("insert artifact: %w", err)
	}
	return nil
}

// InsertWarning persists one per-window warning for a run.
func (s *Store) InsertWarning(runID string, windowIndex int, message string) error {
	_, err := s.db.Exec(`
		INSERT INTO warnings (run_id, window_index, message, created_at)
		VALUES (?, ?, ?, ?)`,
		runID, windowIndex, message, time.Now().UTC().Unix(),
	)
	if err != nil {
		return fmt.Errorf("insert warning: %w", err)
	}
	return nil
}

// ListArtifacts returns the artifacts of a run ordered by start time.
func (s *Store) ListArtifacts(runID string) ([]*Artifact, error) {
	rows, err := s.db.Query(`
		SELECT artifact_id, run_id, kind, measurement_id, wavelength, path, start_time, end_time
		FROM artifacts WHERE run_id = ? ORDER BY start_time, kind`, runID)
	if err != nil {
		return nil, fmt.Errorf("query artifacts: %w", err)
	}
	defer rows.Close()

	var out []*Artifact
	for rows.Next() {
		a := &Artifact{}
		var start, end int64
		if err := rows.Scan(&a.ArtifactID, &a.RunID, &a.Kind, &a.MeasurementID, &a.Wavelength, &a.Path, &start, &end); err != nil {
			return nil, fmt.Errorf("scan artifact: %w", err)
		}
		a.Start = time.Unix(start, 0).UTC()
		a.End = time.Unix(end, 0).UTC()
		out = append(out, a)
	}
	return out, rows.Err()
}

// RunSpan returns the total data span covered by a run's artifacts. ok is
// false when the run produced no artifacts.
func (s *Store) RunSpan(runID string) (start, end time.Time, ok bool, err error) {
	var minStart, maxEnd sql.NullInt64
	row := s.db.QueryRow(`SELECT MIN(start_time), MAX(end_time) FROM artifacts WHERE run_id = ?`, runID)
	if err := row.Scan(&minStart, &maxEnd); err != nil {
		return time.Time{}, time.Time{}, false, fmt.Errorf("query run span: %w", err)
	}
	if !minStart.Valid || !maxEnd.Valid {
		return time.Time{}, time.Time{}, false, nil
	}
	return time.Unix(minStart.Int64, 0).UTC(), time.Unix(maxEnd.Int64, 0).UTC(), true, nil
}

// ListWarnings returns the warnings of a run in window order.
func (s *Store) ListWarnings(runID string) ([]string, error) {
	rows, err := s.db.Query(`
		SELECT window_index, message FROM warnings WHERE run_id = ? ORDER BY window_index, id`, runID)
	if err != nil {
		return nil, fmt.Errorf("query warnings: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var idx int
		var msg string
		if err := rows.Scan(&idx, &msg); err != nil {
			return nil, fmt.Errorf("scan warning: %w", err)
		}
		out = append(out, fmt.Sprintf("window %d: %s", idx, msg))
	}
	return out, rows.Err()
}
