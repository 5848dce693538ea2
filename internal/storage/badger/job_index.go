// -----------------------------------------------------------------------
// Job Index - queryable mirror of job state snapshots for the dashboard
// -----------------------------------------------------------------------

package badger

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/timshannon/badgerhold/v4"

	"github.com/ternarybob/promoparse/internal/interfaces"
	"github.com/ternarybob/promoparse/internal/models"
)

// JobIndex implements interfaces.JobIndex on badgerhold. Per-job state
// files remain authoritative; the index exists so the job list survives
// restarts without scanning the output directory.
type JobIndex struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewJobIndex creates a job index backed by the given connection.
func NewJobIndex(db *BadgerDB, logger arbor.ILogger) interfaces.JobIndex {
	return &JobIndex{
		db:     db,
		logger: logger,
	}
}

// Upsert writes the state snapshot keyed by job ID.
func (s *JobIndex) Upsert(ctx context.Context, state *models.JobState) error {
	if state == nil || state.JobID == "" {
		return fmt.Errorf("job ID is required")
	}

	if err := s.db.Store().Upsert(state.JobID, state); err != nil {
		return fmt.Errorf("failed to save job state: %w", err)
	}
	return nil
}

// Get returns the indexed state for a job ID.
func (s *JobIndex) Get(ctx context.Context, jobID string) (*models.JobState, error) {
	var state models.JobState
	if err := s.db.Store().Get(jobID, &state); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, fmt.Errorf("job not found: %s", jobID)
		}
		return nil, fmt.Errorf("failed to get job state: %w", err)
	}
	return &state, nil
}

// List returns job states newest-first, filtered and paged per opts.
func (s *JobIndex) List(ctx context.Context, opts *interfaces.JobIndexOptions) ([]*models.JobState, error) {
	query := badgerhold.Where("JobID").Ne("")

	if opts != nil {
		if opts.Status != "" {
			query = query.And("Status").Eq(opts.Status)
		}
		if opts.Platform != "" {
			query = query.And("Platform").Eq(opts.Platform)
		}
	}

	query = query.SortBy("UpdatedAt").Reverse()

	if opts != nil {
		if opts.Offset > 0 {
			query = query.Skip(opts.Offset)
		}
		if opts.Limit > 0 {
			query = query.Limit(opts.Limit)
		}
	}

	var states []models.JobState
	if err := s.db.Store().Find(&states, query); err != nil {
		return nil, fmt.Errorf("failed to list job states: %w", err)
	}

	result := make([]*models.JobState, len(states))
	for i := range states {
		result[i] = &states[i]
	}
	return result, nil
}

// Delete removes a job from the index. Missing entries are not an error.
func (s *JobIndex) Delete(ctx context.Context, jobID string) error {
	if err := s.db.Store().Delete(jobID, &models.JobState{}); err != nil && err != badgerhold.ErrNotFound {
		return fmt.Errorf("failed to delete job state: %w", err)
	}
	return nil
}
