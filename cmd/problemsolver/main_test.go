package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/problemsolver/internal/learning"
	"github.com/fyrsmithlabs/problemsolver/internal/session"
	"github.com/fyrsmithlabs/problemsolver/internal/solver"
)

const revenueText = "Maximize revenue subject to a budget of $10000 and staff availability."

// setupCLI isolates HOME so no user config is read.
func setupCLI(t *testing.T) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	t.Setenv("PROBLEMSOLVER_LOGGING_LEVEL", "error")
}

// useBadger points storage at a fresh badger directory.
func useBadger(t *testing.T) {
	t.Helper()
	t.Setenv("PROBLEMSOLVER_STORAGE_BACKEND", "badger")
	t.Setenv("PROBLEMSOLVER_STORAGE_PATH", t.TempDir())
	t.Setenv("PROBLEMSOLVER_STORAGE_SYNC_WRITES", "false")
}

func run(t *testing.T, args ...string) ([]byte, error) {
	t.Helper()
	var out bytes.Buffer
	root, c := newRootCmd(prometheus.NewRegistry())
	root.SetOut(&out)
	root.SetErr(&bytes.Buffer{})
	root.SetArgs(args)
	err := execute(context.Background(), root, c)
	return out.Bytes(), err
}

func TestSolve_MemoryBackend(t *testing.T) {
	setupCLI(t)

	out, err := run(t, "solve", "--session", "sess_cli", revenueText)
	require.NoError(t, err)

	var rec session.Record
	require.NoError(t, json.Unmarshal(out, &rec))
	assert.Equal(t, "sess_cli", rec.SessionID)
	assert.Equal(t, session.StatusCompleted, rec.Status)
	assert.NotEmpty(t, rec.Solutions)
	assert.Equal(t, "business", rec.Problem.Domain)
}

func TestSolve_RequiresText(t *testing.T) {
	setupCLI(t)
	_, err := run(t, "solve")
	assert.Error(t, err)
}

func TestBadgerBackend_FullFlow(t *testing.T) {
	setupCLI(t)
	useBadger(t)

	out, err := run(t, "solve", "--session", "sess_flow", revenueText)
	require.NoError(t, err)
	var rec session.Record
	require.NoError(t, json.Unmarshal(out, &rec))
	require.NotEmpty(t, rec.Solutions)
	approach := rec.Solutions[0].ApproachID

	out, err = run(t, "details", "sess_flow", approach)
	require.NoError(t, err)
	var guide solver.ImplementationGuide
	require.NoError(t, json.Unmarshal(out, &guide))
	assert.Equal(t, approach, guide.ApproachID)
	assert.NotEmpty(t, guide.Phases)

	out, err = run(t, "feedback", "sess_flow", approach, "--rating", "0.9", "--success", "--challenge", "late data")
	require.NoError(t, err)
	var fb learning.FeedbackRecord
	require.NoError(t, json.Unmarshal(out, &fb))
	assert.Equal(t, approach, fb.ApproachID)
	assert.InDelta(t, 0.9, fb.Rating, 1e-9)
	assert.Equal(t, []string{"late data"}, fb.Challenges)

	out, err = run(t, "insights", "sess_flow")
	require.NoError(t, err)
	var insights learning.Insights
	require.NoError(t, json.Unmarshal(out, &insights))
	assert.Equal(t, 1, insights.Total)

	out, err = run(t, "stats")
	require.NoError(t, err)
	var stats solver.Statistics
	require.NoError(t, json.Unmarshal(out, &stats))
	assert.Equal(t, 1, stats.TotalSessions)
	assert.Equal(t, 1, stats.ProblemsAnalyzed)
}

func TestDetails_UnknownSession(t *testing.T) {
	setupCLI(t)
	_, err := run(t, "details", "sess_missing", "analytical_prob_0")
	require.Error(t, err)
	assert.ErrorIs(t, err, solver.ErrSessionNotFound)
}

func TestFeedback_RatingRequired(t *testing.T) {
	setupCLI(t)
	_, err := run(t, "feedback", "sess_x", "analytical_prob_0")
	assert.Error(t, err)
}

func TestInvalidConfig(t *testing.T) {
	setupCLI(t)
	t.Setenv("PROBLEMSOLVER_STORAGE_BACKEND", "postgres")
	_, err := run(t, "stats")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "storage backend")
}

func TestSolve_WritesMetricsFile(t *testing.T) {
	setupCLI(t)
	path := filepath.Join(t.TempDir(), "solver.prom")

	_, err := run(t, "--metrics-file", path, "solve", "--session", "sess_metrics", revenueText)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `problemsolver_solver_sessions_total{status="completed"} 1`)
}

func TestMetricsFile_SkippedOnFailure(t *testing.T) {
	setupCLI(t)
	path := filepath.Join(t.TempDir(), "solver.prom")

	_, err := run(t, "--metrics-file", path, "feedback", "sess_missing", "approach_1")
	require.Error(t, err)
	assert.NoFileExists(t, path)
}
