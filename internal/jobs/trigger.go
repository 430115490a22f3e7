package jobs

import (
	"context"
	"errors"

	"launchradar/ingest/internal/models"
	"launchradar/ingest/internal/scheduler"
)

// ManualTrigger lets the HTTP API start jobs out of schedule while keeping
// the scheduler's single-flight guarantee.
type ManualTrigger struct {
	sched  *scheduler.Scheduler
	runner *Runner
}

// NewManualTrigger wires the trigger over a scheduler with registered jobs.
func NewManualTrigger(sched *scheduler.Scheduler, runner *Runner) *ManualTrigger {
	return &ManualTrigger{sched: sched, runner: runner}
}

// Run starts the named job inline and returns the run row it recorded, so
// callers see the summary counts. force only changes behavior for jobs with
// a cooldown gate.
func (t *ManualTrigger) Run(ctx context.Context, job string, force bool) (models.RunLog, error) {
	var runErr error
	if job == JobAirdrops && force {
		runErr = t.sched.TriggerWith(ctx, job, func(ctx context.Context) error {
			return t.runner.RunAirdrops(ctx, true)
		})
	} else {
		runErr = t.sched.Trigger(ctx, job)
	}
	if errors.Is(runErr, scheduler.ErrUnknownJob) || errors.Is(runErr, scheduler.ErrAlreadyRunning) {
		return models.RunLog{}, runErr
	}

	entry, err := t.runner.recorder.Latest(ctx, job, "")
	if err != nil {
		return models.RunLog{}, runErr
	}
	return entry, runErr
}

// Jobs lists the triggerable job names.
func (t *ManualTrigger) Jobs() []string {
	return t.sched.JobNames()
}
