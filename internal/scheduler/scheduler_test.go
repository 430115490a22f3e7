package scheduler

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterValidation(t *testing.T) {
	t.Parallel()
	s := New()

	noop := func(ctx context.Context) error { return nil }

	assert.Error(t, s.Register(&Job{Name: "", Run: noop, Every: time.Minute}))
	assert.Error(t, s.Register(&Job{Name: "no-schedule", Run: noop}))
	assert.Error(t, s.Register(&Job{Name: "bad-clock", Run: noop, At: "25:99"}))

	require.NoError(t, s.Register(&Job{Name: "ok", Run: noop, Every: time.Minute}))
	assert.Error(t, s.Register(&Job{Name: "ok", Run: noop, Every: time.Minute}))
}

func TestTriggerSingleFlight(t *testing.T) {
	t.Parallel()
	s := New()

	release := make(chan struct{})
	started := make(chan struct{})
	var startedOnce sync.Once
	require.NoError(t, s.Register(&Job{
		Name:  "slow",
		Every: time.Hour,
		Run: func(ctx context.Context) error {
			startedOnce.Do(func() { close(started) })
			<-release
			return nil
		},
	}))

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		assert.NoError(t, s.Trigger(context.Background(), "slow"))
	}()

	<-started
	// Second trigger while the first run holds the flag.
	err := s.Trigger(context.Background(), "slow")
	assert.ErrorIs(t, err, ErrAlreadyRunning)

	close(release)
	wg.Wait()

	// After the run drains the job is triggerable again.
	assert.NoError(t, s.Trigger(context.Background(), "slow"))
}

func TestTriggerUnknownJob(t *testing.T) {
	t.Parallel()
	s := New()

	err := s.Trigger(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrUnknownJob)
}

func TestIntervalJobRunsAndStops(t *testing.T) {
	t.Parallel()
	s := New()

	runs := make(chan struct{}, 10)
	require.NoError(t, s.Register(&Job{
		Name:      "fast",
		Every:     10 * time.Millisecond,
		Immediate: true,
		Run: func(ctx context.Context) error {
			select {
			case runs <- struct{}{}:
			default:
			}
			return nil
		},
	}))

	s.Start(context.Background())

	// Immediate run plus at least one tick.
	for i := 0; i < 2; i++ {
		select {
		case <-runs:
		case <-time.After(2 * time.Second):
			t.Fatal("job did not run in time")
		}
	}

	s.Stop()
}

func TestUntilNextDaily(t *testing.T) {
	t.Parallel()

	// Monday 2025-06-02, 00:20 UTC.
	now := time.Date(2025, 6, 2, 0, 20, 0, 0, time.UTC)

	assert.Equal(t, 5*time.Minute, untilNext(now, "00:25", nil))
	// Time already passed today rolls to tomorrow.
	assert.Equal(t, 23*time.Hour+45*time.Minute, untilNext(now, "00:05", nil))
}

func TestUntilNextWeekly(t *testing.T) {
	t.Parallel()

	// Monday 2025-06-02, 01:00 UTC.
	now := time.Date(2025, 6, 2, 1, 0, 0, 0, time.UTC)
	sunday := time.Sunday

	// Next Sunday 00:05 is six days minus 55 minutes away.
	want := time.Date(2025, 6, 8, 0, 5, 0, 0, time.UTC).Sub(now)
	assert.Equal(t, want, untilNext(now, "00:05", &sunday))

	// On Sunday after the slot, it rolls a full week.
	onSunday := time.Date(2025, 6, 8, 0, 10, 0, 0, time.UTC)
	want = time.Date(2025, 6, 15, 0, 5, 0, 0, time.UTC).Sub(onSunday)
	assert.Equal(t, want, untilNext(onSunday, "00:05", &sunday))
}
