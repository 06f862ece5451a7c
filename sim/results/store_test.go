package results

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nestsim/nestsim/sim"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := OpenStore(context.Background(), filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestStore_SaveAndReloadRun(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	res := sampleResults()

	runID, err := store.SaveRun(ctx, RunInfo{
		Name:         "pre_1",
		Seed:         42,
		Discipline:   "infinite",
		DurationDays: 2,
	}, res)
	require.NoError(t, err)
	require.NotEmpty(t, runID)

	n, err := store.CountRuns(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	metrics, err := store.LoadMetrics(ctx, runID)
	require.NoError(t, err)
	assert.Equal(t, res.Metrics, metrics)
}

func TestStore_RunsAreAppendOnly(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	id1, err := store.SaveRun(ctx, RunInfo{Name: "a", Seed: 1, Discipline: "fifo", DurationDays: 1}, sampleResults())
	require.NoError(t, err)
	id2, err := store.SaveRun(ctx, RunInfo{Name: "a", Seed: 1, Discipline: "fifo", DurationDays: 1}, sampleResults())
	require.NoError(t, err)
	assert.NotEqual(t, id1, id2)

	n, err := store.CountRuns(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestStore_LoadMetricsForUnknownRun(t *testing.T) {
	store := openTestStore(t)

	metrics, err := store.LoadMetrics(context.Background(), "no-such-run")
	require.NoError(t, err)
	assert.Empty(t, metrics)
}

func TestStore_EmptyResults(t *testing.T) {
	store := openTestStore(t)

	runID, err := store.SaveRun(context.Background(), RunInfo{Name: "empty", Seed: 7, Discipline: "siro", DurationDays: 1}, &sim.Results{})
	require.NoError(t, err)
	assert.NotEmpty(t, runID)
}
