// Package resultdb persists correction runs to a sqlite database so batches
// can be inspected and compared after the fact.
package resultdb

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "modernc.org/sqlite"

	"github.com/isotrace-data/nacorrect/internal/workflow"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// DB wraps the sqlite handle for run storage.
type DB struct {
	*sql.DB
}

// Open opens (creating if needed) the database at path and applies pending
// migrations.
func Open(path string) (*DB, error) {
	sqlDB, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db := &DB{sqlDB}
	if err := db.migrateUp(); err != nil {
		sqlDB.Close()
		return nil, err
	}
	return db, nil
}

// migrateUp applies all pending migrations from the embedded filesystem.
func (db *DB) migrateUp() error {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("load migrations: %w", err)
	}
	driver, err := migratesqlite.WithInstance(db.DB, &migratesqlite.Config{})
	if err != nil {
		return fmt.Errorf("init migration driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("init migrations: %w", err)
	}
	// Note: we don't close m here because it would close the underlying DB
	// connection.
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration up failed: %w", err)
	}
	return nil
}

// SaveRun writes a run and its successful groups' corrected rows in one
// transaction. Failed groups contribute to failed_count but store no rows.
func (db *DB) SaveRun(run workflow.Run) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`INSERT INTO runs (run_id, tracer, started_at, finished_at, group_count, failed_count)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		run.ID, run.Tracer, run.Started, run.Finished, len(run.Results), run.Failed(),
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	stmt, err := tx.Prepare(
		`INSERT INTO corrected_rows (run_id, metabolite, formula, sample, label, corrected, pool_total, enrichment)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, gr := range run.Results {
		if gr.Err != nil {
			continue
		}
		for i, corrected := range gr.Result.Corrected {
			if _, err := stmt.Exec(
				run.ID, gr.Group.Metabolite, gr.Group.Formula, gr.Group.Sample,
				i, corrected, gr.Result.PoolTotal, gr.Result.Enrichment[i],
			); err != nil {
				return fmt.Errorf("insert row for %s/%s: %w", gr.Group.Metabolite, gr.Group.Sample, err)
			}
		}
	}

	return tx.Commit()
}

// RunSummary is the stored header of one run.
type RunSummary struct {
	ID         string
	Tracer     string
	GroupCount int
	Failed     int
}

// ListRuns returns stored run headers, most recent first.
func (db *DB) ListRuns() ([]RunSummary, error) {
	rows, err := db.Query(
		`SELECT run_id, tracer, group_count, failed_count FROM runs ORDER BY started_at DESC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RunSummary
	for rows.Next() {
		var s RunSummary
		if err := rows.Scan(&s.ID, &s.Tracer, &s.GroupCount, &s.Failed); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// CorrectedRow is one stored (metabolite, label, sample) measurement.
type CorrectedRow struct {
	Metabolite string
	Formula    string
	Sample     string
	Label      int
	Corrected  float64
	PoolTotal  float64
	Enrichment float64
}

// CorrectedRows returns the stored rows for one run ordered by metabolite,
// sample and label.
func (db *DB) CorrectedRows(runID string) ([]CorrectedRow, error) {
	rows, err := db.Query(
		`SELECT metabolite, formula, sample, label, corrected, pool_total, enrichment
		 FROM corrected_rows WHERE run_id = ?
		 ORDER BY metabolite, sample, label`,
		runID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []CorrectedRow
	for rows.Next() {
		var r CorrectedRow
		if err := rows.Scan(&r.Metabolite, &r.Formula, &r.Sample, &r.Label,
			&r.Corrected, &r.PoolTotal, &r.Enrichment); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
