package cooldown

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"launchradar/ingest/internal/database"
	"launchradar/ingest/internal/models"
	"launchradar/ingest/internal/runlog"
)

func testGate(t *testing.T, gap time.Duration) (*Gate, *runlog.Recorder) {
	t.Helper()
	db, err := database.NewMemoryDB()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	recorder := runlog.New(db)
	return New(recorder, gap), recorder
}

func TestGateBoundary(t *testing.T) {
	t.Parallel()
	gate, recorder := testGate(t, 6*time.Hour)
	ctx := context.Background()
	started := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)

	require.NoError(t, recorder.Record(ctx, models.RunLog{
		JobName: "airdrops", Source: "airdrops.io", Status: models.RunSuccess,
		StartedAt: started, FinishedAt: started.Add(time.Minute),
	}))

	// Inside the gap: blocked, with the resume time reported.
	d, err := gate.Check(ctx, "airdrops", "airdrops.io", 40, false, started.Add(5*time.Hour+59*time.Minute))
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.Equal(t, "cooldown", d.Reason)
	assert.Equal(t, started.Add(6*time.Hour), d.NextAllowedAt)

	// Past the gap: allowed.
	d, err = gate.Check(ctx, "airdrops", "airdrops.io", 40, false, started.Add(6*time.Hour+time.Minute))
	require.NoError(t, err)
	assert.True(t, d.Allowed)
}

func TestGateForceBypasses(t *testing.T) {
	t.Parallel()
	gate, recorder := testGate(t, 6*time.Hour)
	ctx := context.Background()
	started := time.Now().UTC()

	require.NoError(t, recorder.Record(ctx, models.RunLog{
		JobName: "airdrops", Source: "airdrops.io", Status: models.RunSuccess,
		StartedAt: started, FinishedAt: started,
	}))

	d, err := gate.Check(ctx, "airdrops", "airdrops.io", 40, true, started.Add(time.Minute))
	require.NoError(t, err)
	assert.True(t, d.Allowed)
	assert.Equal(t, "forced", d.Reason)
}

func TestGateEmptyCollectionBypasses(t *testing.T) {
	t.Parallel()
	gate, recorder := testGate(t, 6*time.Hour)
	ctx := context.Background()
	started := time.Now().UTC()

	require.NoError(t, recorder.Record(ctx, models.RunLog{
		JobName: "airdrops", Source: "airdrops.io", Status: models.RunSuccess,
		StartedAt: started, FinishedAt: started,
	}))

	d, err := gate.Check(ctx, "airdrops", "airdrops.io", 0, false, started.Add(time.Minute))
	require.NoError(t, err)
	assert.True(t, d.Allowed)
	assert.Equal(t, "empty collection", d.Reason)
}

func TestGateNoHistory(t *testing.T) {
	t.Parallel()
	gate, _ := testGate(t, 6*time.Hour)

	d, err := gate.Check(context.Background(), "airdrops", "airdrops.io", 40, false, time.Now().UTC())
	require.NoError(t, err)
	assert.True(t, d.Allowed)
	assert.Equal(t, "no prior runs", d.Reason)
}

func TestGateFailedRunStillCounts(t *testing.T) {
	t.Parallel()
	gate, recorder := testGate(t, 6*time.Hour)
	ctx := context.Background()
	started := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)

	require.NoError(t, recorder.Record(ctx, models.RunLog{
		JobName: "airdrops", Source: "airdrops.io", Status: models.RunError,
		StartedAt: started, FinishedAt: started, ErrorMessage: "all mirrors unreachable",
	}))

	d, err := gate.Check(ctx, "airdrops", "airdrops.io", 40, false, started.Add(time.Hour))
	require.NoError(t, err)
	assert.False(t, d.Allowed)
}
