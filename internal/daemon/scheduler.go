package daemon

import (
	"context"
	"time"

	"github.com/go-co-op/gocron/v2"

	ferrors "git.home.luguber.info/inful/mdpage/internal/foundation/errors"
)

// Scheduler wraps gocron for the daemon's periodic jobs.
type Scheduler struct {
	scheduler gocron.Scheduler
}

// NewScheduler creates an idle scheduler; Start begins execution.
func NewScheduler() (*Scheduler, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, ferrors.DaemonError("failed to create gocron scheduler").
			WithCause(err).
			Build()
	}
	return &Scheduler{scheduler: s}, nil
}

// ScheduleCron registers a task under a standard five-field cron
// expression (descriptors like "@hourly" work too) and returns the job
// id.
func (s *Scheduler) ScheduleCron(name, crontab string, task func()) (string, error) {
	job, err := s.scheduler.NewJob(
		gocron.CronJob(crontab, false),
		gocron.NewTask(task),
		gocron.WithName(name),
	)
	if err != nil {
		return "", ferrors.ValidationError("invalid cron expression").
			WithCause(err).
			WithContext("schedule", crontab).
			Build()
	}
	return job.ID().String(), nil
}

// ScheduleEvery registers a task at a fixed interval and returns the
// job id.
func (s *Scheduler) ScheduleEvery(name string, every time.Duration, task func()) (string, error) {
	if every <= 0 {
		return "", ferrors.ValidationError("schedule interval must be positive").
			WithContext("interval", every.String()).
			Build()
	}
	job, err := s.scheduler.NewJob(
		gocron.DurationJob(every),
		gocron.NewTask(task),
		gocron.WithName(name),
	)
	if err != nil {
		return "", ferrors.DaemonError("failed to create interval job").
			WithCause(err).
			WithContext("name", name).
			Build()
	}
	return job.ID().String(), nil
}

// Start begins executing registered jobs.
func (s *Scheduler) Start() {
	s.scheduler.Start()
}

// Stop shuts the scheduler down, waiting for running jobs or the
// context, whichever ends first.
func (s *Scheduler) Stop(ctx context.Context) error {
	done := make(chan error, 1)
	go func() {
		done <- s.scheduler.Shutdown()
	}()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
