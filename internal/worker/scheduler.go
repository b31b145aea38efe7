package worker

import (
	"context"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/rs/zerolog"
)

// DefaultInterval is used when the configured interval is under a minute.
const DefaultInterval = 30 * time.Minute

// Scheduler runs the snapshot job on a fixed interval.
type Scheduler struct {
	scheduler *gocron.Scheduler
	job       *SnapshotJob
	interval  time.Duration
	logger    zerolog.Logger
}

// NewScheduler creates a scheduler for job.
func NewScheduler(job *SnapshotJob, interval time.Duration, logger zerolog.Logger) *Scheduler {
	if interval < time.Minute {
		interval = DefaultInterval
	}
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		job:       job,
		interval:  interval,
		logger:    logger,
	}
}

// Start schedules the job and starts the scheduler in the background. The
// first run happens immediately. Runs never overlap.
func (s *Scheduler) Start(ctx context.Context) error {
	if len(s.job.Locations()) == 0 {
		s.logger.Warn().Msg("no tracked locations configured; nothing to schedule")
		return nil
	}

	minutes := int(s.interval.Minutes())
	_, err := s.scheduler.Every(minutes).Minutes().SingletonMode().Do(func() {
		s.job.Run(ctx)
	})
	if err != nil {
		return err
	}

	s.logger.Info().
		Dur("interval", s.interval).
		Int("locations", len(s.job.Locations())).
		Msg("snapshot scheduler started")

	s.scheduler.StartAsync()
	return nil
}

// Stop stops the scheduler and cancels any future runs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}

// Running reports whether the scheduler is active.
func (s *Scheduler) Running() bool {
	return s.scheduler.IsRunning()
}
