package db

import (
	"io/fs"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArtifactStepConstants(t *testing.T) {
	steps := []string{
		StepResumeDocument,
		StepJDDocument,
		StepNotesDocument,
		StepCombinedDocument,
		StepResearchReport,
		StepQASet,
		StepPackPDF,
		StepRunResult,
	}

	seen := make(map[string]bool)
	for _, step := range steps {
		assert.NotEmpty(t, step, "step constant should not be empty")
		assert.False(t, seen[step], "duplicate step %s", step)
		seen[step] = true
	}
}

func TestRunType(t *testing.T) {
	run := Run{
		RunKey:  "20250101_120000",
		Company: "Acme Corp",
		Status:  RunStatusRunning,
	}

	assert.Equal(t, "Acme Corp", run.Company)
	assert.Equal(t, RunStatusRunning, run.Status)
	assert.Nil(t, run.CompletedAt)
}

func TestEmbeddedMigrations(t *testing.T) {
	entries, err := fs.ReadDir(migrationFiles, "migrations")
	require.NoError(t, err)
	require.Len(t, entries, 3)

	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
		data, err := fs.ReadFile(migrationFiles, "migrations/"+e.Name())
		require.NoError(t, err)
		assert.Contains(t, string(data), "-- +goose Up", e.Name())
		assert.Contains(t, string(data), "-- +goose Down", e.Name())
	}
	assert.True(t, strings.HasPrefix(names[0], "00001_"))

	all, _ := fs.ReadFile(migrationFiles, "migrations/"+names[2])
	assert.Contains(t, string(all), "vector(768)")
}

func TestRunMigrations_NilDatabase(t *testing.T) {
	assert.NoError(t, RunMigrations(t.Context(), nil))
}
