// -----------------------------------------------------------------------
// Scheduler - periodic maintenance; sweeps jobs that stopped updating
// into a terminal error state
// -----------------------------------------------------------------------

package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/promoparse/internal/common"
	"github.com/ternarybob/promoparse/internal/interfaces"
	"github.com/ternarybob/promoparse/internal/models"
)

// Service runs cron-scheduled maintenance. The only job today is the
// stale sweep: a job whose state has not been updated past the deadline
// has lost its worker (crash, kill) and is marked failed so the
// dashboard does not show it running forever.
type Service struct {
	config   *common.SchedulerConfig
	deadline time.Duration
	index    interfaces.JobIndex
	sink     func(jobID string) interfaces.StateSink
	cron     *cron.Cron
	logger   arbor.ILogger
}

// NewService creates the scheduler. sinkFor resolves the state sink for
// a job so swept jobs get their state file rewritten too, not just the
// index entry.
func NewService(config *common.SchedulerConfig, index interfaces.JobIndex, sinkFor func(jobID string) interfaces.StateSink, logger arbor.ILogger) (*Service, error) {
	deadline, err := time.ParseDuration(config.StaleDeadline)
	if err != nil {
		return nil, fmt.Errorf("invalid stale deadline '%s': %w", config.StaleDeadline, err)
	}

	return &Service{
		config:   config,
		deadline: deadline,
		index:    index,
		sink:     sinkFor,
		cron:     cron.New(cron.WithSeconds()),
		logger:   logger,
	}, nil
}

// Start registers the sweep schedule and starts the cron runner.
func (s *Service) Start() error {
	if !s.config.Enabled {
		s.logger.Info().Msg("Scheduler disabled")
		return nil
	}

	if _, err := s.cron.AddFunc(s.config.Schedule, func() {
		if err := s.SweepStale(context.Background()); err != nil {
			s.logger.Warn().Err(err).Msg("Stale job sweep failed")
		}
	}); err != nil {
		return fmt.Errorf("invalid schedule '%s': %w", s.config.Schedule, err)
	}

	s.cron.Start()
	s.logger.Info().
		Str("schedule", s.config.Schedule).
		Str("deadline", s.deadline.String()).
		Msg("Scheduler started")
	return nil
}

// Stop stops the cron runner and waits for a running sweep to finish.
func (s *Service) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info().Msg("Scheduler stopped")
}

// SweepStale marks non-terminal jobs with no update past the deadline
// as failed.
func (s *Service) SweepStale(ctx context.Context) error {
	jobs, err := s.index.List(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to list jobs: %w", err)
	}

	cutoff := time.Now().UTC().Add(-s.deadline)
	swept := 0

	for _, job := range jobs {
		if job.IsTerminal() || job.UpdatedAt.After(cutoff) {
			continue
		}

		stalledFor := time.Since(job.UpdatedAt).Round(time.Second)
		lastStatus := string(job.Status)
		job.Errors = append(job.Errors, models.JobError{
			Step:        lastStatus,
			Message:     fmt.Sprintf("job stalled: no update for %s", stalledFor),
			Recoverable: false,
		})
		job.Status = models.StatusError
		job.UpdatedAt = time.Now().UTC()

		if err := s.index.Upsert(ctx, job); err != nil {
			s.logger.Warn().Err(err).Str("job_id", job.JobID).Msg("Failed to update swept job in index")
			continue
		}
		if s.sink != nil {
			if sink := s.sink(job.JobID); sink != nil {
				if err := sink.Write(job); err != nil {
					s.logger.Warn().Err(err).Str("job_id", job.JobID).Msg("Failed to rewrite swept job state file")
				}
			}
		}

		s.logger.Warn().
			Str("job_id", job.JobID).
			Str("last_status", lastStatus).
			Msg("Marked stale job as failed")
		swept++
	}

	if swept > 0 {
		s.logger.Info().Int("swept", swept).Msg("Stale job sweep completed")
	}
	return nil
}
