package interfaces

import (
	"context"

	"github.com/ternarybob/promoparse/internal/models"
)

// StateSink persists the full JobState on every mutation. Writes are
// synchronous and atomic per call; a failed write must surface to the
// caller, never be swallowed.
type StateSink interface {
	// Write overwrites the persisted state with the given snapshot.
	Write(state *models.JobState) error

	// Location returns a human-readable locator for the persisted
	// state (file path or URL) for logging and links.
	Location() string
}

// ThoughtLog is an append-only event log for fine-grained observability.
// Records are immutable once appended; this core never reads them back.
type ThoughtLog interface {
	Append(event models.ThoughtEvent) error
}

// JobIndexOptions filters and pages job index listings.
type JobIndexOptions struct {
	Status   models.WorkflowStatus
	Platform string
	Limit    int
	Offset   int
}

// JobIndex mirrors job state snapshots into a queryable store so the
// dashboard can list jobs across restarts. The per-job state file stays
// authoritative; the index is a convenience view.
type JobIndex interface {
	Upsert(ctx context.Context, state *models.JobState) error
	Get(ctx context.Context, jobID string) (*models.JobState, error)
	List(ctx context.Context, opts *JobIndexOptions) ([]*models.JobState, error)
	Delete(ctx context.Context, jobID string) error
}
