// Package scheduler drives the ingestion jobs: fixed-interval tickers for
// the frequent syncs and wall-clock UTC timers for the daily and weekly
// ones. Each job is single-flight, so a slow run swallows its next tick
// instead of stacking.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
)

// ErrAlreadyRunning is returned when a trigger lands while the same job is
// still in flight.
var ErrAlreadyRunning = errors.New("job already running")

// ErrUnknownJob is returned for a trigger naming no registered job.
var ErrUnknownJob = errors.New("unknown job")

// RunFunc executes one run of a job.
type RunFunc func(ctx context.Context) error

// Job is one registered unit of scheduled work.
type Job struct {
	Name string
	Run  RunFunc

	// Every runs the job on a fixed interval; immediate runs it once at
	// startup before the first tick.
	Every     time.Duration
	Immediate bool

	// At runs the job at a fixed UTC wall-clock time ("15:04"). When Weekday
	// is set the job fires weekly on that day, otherwise daily.
	At      string
	Weekday *time.Weekday

	running atomic.Bool
}

// Scheduler owns the job set and their timer goroutines.
type Scheduler struct {
	jobs   map[string]*Job
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New builds an empty scheduler.
func New() *Scheduler {
	return &Scheduler{jobs: make(map[string]*Job)}
}

// Register adds a job. Must be called before Start.
func (s *Scheduler) Register(job *Job) error {
	if job.Name == "" || job.Run == nil {
		return fmt.Errorf("job needs a name and a run function")
	}
	if job.Every <= 0 && job.At == "" {
		return fmt.Errorf("job %s has no schedule", job.Name)
	}
	if job.At != "" {
		if _, err := time.Parse("15:04", job.At); err != nil {
			return fmt.Errorf("job %s has invalid at-time %q: %w", job.Name, job.At, err)
		}
	}
	if _, dup := s.jobs[job.Name]; dup {
		return fmt.Errorf("job %s registered twice", job.Name)
	}
	s.jobs[job.Name] = job
	return nil
}

// Start launches one goroutine per job. It returns immediately; Stop blocks
// until all in-flight runs finish.
func (s *Scheduler) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)

	for _, job := range s.jobs {
		s.wg.Add(1)
		go func(job *Job) {
			defer s.wg.Done()
			if job.Every > 0 {
				s.runInterval(ctx, job)
			} else {
				s.runAtClock(ctx, job)
			}
		}(job)
	}
	log.Info().Int("jobs", len(s.jobs)).Msg("Scheduler started")
}

// Stop cancels all timers and waits for running jobs to drain.
func (s *Scheduler) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
	log.Info().Msg("Scheduler stopped")
}

// Trigger runs a job out of schedule, still honoring single-flight.
func (s *Scheduler) Trigger(ctx context.Context, name string) error {
	return s.TriggerWith(ctx, name, nil)
}

// TriggerWith runs a job out of schedule with a replacement run function,
// holding the job's single-flight flag for the duration. A nil fn runs the
// registered function.
func (s *Scheduler) TriggerWith(ctx context.Context, name string, fn RunFunc) error {
	job, ok := s.jobs[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownJob, name)
	}
	if fn == nil {
		return s.execute(ctx, job)
	}

	if !job.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer job.running.Store(false)
	return fn(ctx)
}

// JobNames lists the registered jobs in no particular order.
func (s *Scheduler) JobNames() []string {
	names := make([]string, 0, len(s.jobs))
	for name := range s.jobs {
		names = append(names, name)
	}
	return names
}

func (s *Scheduler) runInterval(ctx context.Context, job *Job) {
	if job.Immediate {
		s.executeLogged(ctx, job)
	}

	ticker := time.NewTicker(job.Every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.executeLogged(ctx, job)
		}
	}
}

func (s *Scheduler) runAtClock(ctx context.Context, job *Job) {
	for {
		wait := untilNext(time.Now().UTC(), job.At, job.Weekday)
		log.Debug().Str("job", job.Name).Dur("wait", wait).Msg("Waiting for scheduled time")

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
			s.executeLogged(ctx, job)
		}
	}
}

func (s *Scheduler) executeLogged(ctx context.Context, job *Job) {
	if err := s.execute(ctx, job); err != nil {
		if errors.Is(err, ErrAlreadyRunning) {
			log.Warn().Str("job", job.Name).Msg("Previous run still in flight, skipping tick")
			return
		}
		if errors.Is(err, context.Canceled) {
			return
		}
		log.Error().Err(err).Str("job", job.Name).Msg("Job run failed")
	}
}

func (s *Scheduler) execute(ctx context.Context, job *Job) error {
	if !job.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer job.running.Store(false)

	start := time.Now()
	err := job.Run(ctx)
	log.Debug().Str("job", job.Name).Dur("took", time.Since(start)).Msg("Job run finished")
	return err
}

// untilNext computes the wait until the next occurrence of the "15:04" UTC
// wall-clock time, optionally pinned to a weekday. A moment exactly on the
// boundary schedules the following occurrence.
func untilNext(now time.Time, at string, weekday *time.Weekday) time.Duration {
	clock, _ := time.Parse("15:04", at)

	next := time.Date(now.Year(), now.Month(), now.Day(), clock.Hour(), clock.Minute(), 0, 0, time.UTC)
	if weekday != nil {
		days := (int(*weekday) - int(now.Weekday()) + 7) % 7
		next = next.AddDate(0, 0, days)
	}
	if !next.After(now) {
		if weekday != nil {
			next = next.AddDate(0, 0, 7)
		} else {
			next = next.AddDate(0, 0, 1)
		}
	}
	return next.Sub(now)
}
