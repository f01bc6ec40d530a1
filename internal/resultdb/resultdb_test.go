package resultdb

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/isotrace-data/nacorrect/internal/monitoring"
	"github.com/isotrace-data/nacorrect/internal/workflow"
)

func TestMain(m *testing.M) {
	monitoring.SetLogger(nil)
	m.Run()
}

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "results.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func testRun(t *testing.T) workflow.Run {
	t.Helper()
	groups := []workflow.Group{
		{Metabolite: "pyruvate", Formula: "C3H7O2", Tracer: "C", Sample: "s1", Observed: []float64{100, 20, 5, 1}},
		{Metabolite: "pyruvate", Formula: "C3H7O2", Tracer: "C", Sample: "s2", Observed: []float64{80, 40, 10, 2}},
		{Metabolite: "broken", Formula: "Xx2", Tracer: "Xx", Sample: "s1", Observed: []float64{1, 1, 1}},
	}
	return workflow.NewRunner(workflow.Config{Workers: 2}).Run(context.Background(), "C", groups)
}

func TestOpenAppliesMigrations(t *testing.T) {
	t.Parallel()

	db := openTestDB(t)

	// Reopening an existing database is a no-op migration, not an error.
	runs, err := db.ListRuns()
	require.NoError(t, err)
	assert.Empty(t, runs)
}

func TestSaveRunAndReadBack(t *testing.T) {
	t.Parallel()

	db := openTestDB(t)
	run := testRun(t)
	require.NoError(t, db.SaveRun(run))

	runs, err := db.ListRuns()
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, run.ID, runs[0].ID)
	assert.Equal(t, "C", runs[0].Tracer)
	assert.Equal(t, 3, runs[0].GroupCount)
	assert.Equal(t, 1, runs[0].Failed)

	rows, err := db.CorrectedRows(run.ID)
	require.NoError(t, err)
	// Two successful pyruvate groups with four label states each; the failed
	// group stores nothing.
	require.Len(t, rows, 8)
	for _, r := range rows {
		assert.Equal(t, "pyruvate", r.Metabolite)
		assert.Equal(t, "C3H7O2", r.Formula)
		assert.GreaterOrEqual(t, r.Corrected, 0.0)
		assert.GreaterOrEqual(t, r.Enrichment, 0.0)
		assert.LessOrEqual(t, r.Enrichment, 1.0)
	}
	assert.Equal(t, "s1", rows[0].Sample)
	assert.Equal(t, 0, rows[0].Label)
	assert.Equal(t, 3, rows[3].Label)
}

func TestSaveRunDuplicateID(t *testing.T) {
	t.Parallel()

	db := openTestDB(t)
	run := testRun(t)
	require.NoError(t, db.SaveRun(run))
	assert.Error(t, db.SaveRun(run), "duplicate run_id should violate the primary key")
}
