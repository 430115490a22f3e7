// Package cooldown gates expensive scrape runs on the run history so
// upstream sites are not hammered by restarts or manual triggers.
package cooldown

import (
	"context"
	"errors"
	"fmt"
	"time"

	"launchradar/ingest/internal/runlog"
)

// Decision is the outcome of a gate check.
type Decision struct {
	Allowed       bool      `json:"allowed"`
	Reason        string    `json:"reason,omitempty"`
	LastRunAt     time.Time `json:"last_run_at,omitempty"`
	NextAllowedAt time.Time `json:"next_allowed_at,omitempty"`
}

// Gate decides whether a job may run based on when it last ran.
type Gate struct {
	recorder *runlog.Recorder
	minGap   time.Duration
}

// New builds a gate with the given minimum gap between runs.
func New(recorder *runlog.Recorder, minGap time.Duration) *Gate {
	return &Gate{recorder: recorder, minGap: minGap}
}

// Check returns whether a run may proceed now. force bypasses the gap, and a
// run with nothing stored yet (collectionCount zero) always proceeds so a
// fresh deployment seeds itself immediately. The clock is the previous run's
// start time, so a failed run still counts against the gap.
func (g *Gate) Check(ctx context.Context, jobName, source string, collectionCount int, force bool, now time.Time) (Decision, error) {
	if force {
		return Decision{Allowed: true, Reason: "forced"}, nil
	}
	if collectionCount == 0 {
		return Decision{Allowed: true, Reason: "empty collection"}, nil
	}

	last, err := g.recorder.Latest(ctx, jobName, source)
	if errors.Is(err, runlog.ErrNoRuns) {
		return Decision{Allowed: true, Reason: "no prior runs"}, nil
	}
	if err != nil {
		return Decision{}, fmt.Errorf("cooldown check for %s: %w", jobName, err)
	}

	elapsed := now.Sub(last.StartedAt)
	if elapsed < g.minGap {
		return Decision{
			Allowed:       false,
			Reason:        "cooldown",
			LastRunAt:     last.StartedAt.UTC(),
			NextAllowedAt: last.StartedAt.Add(g.minGap).UTC(),
		}, nil
	}
	return Decision{Allowed: true, LastRunAt: last.StartedAt.UTC()}, nil
}
