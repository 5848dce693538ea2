// -----------------------------------------------------------------------
// Job State Manager - single-writer state tracking for dashboard polling
// -----------------------------------------------------------------------

package state

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/promoparse/internal/common"
	"github.com/ternarybob/promoparse/internal/interfaces"
	"github.com/ternarybob/promoparse/internal/models"
)

// InitializationError indicates the job's state sink could not be
// created. It is fatal: a job whose state cannot be observed must not run.
type InitializationError struct {
	Err error
}

func (e *InitializationError) Error() string {
	return fmt.Sprintf("job state initialization failed: %v", e.Err)
}

func (e *InitializationError) Unwrap() error {
	return e.Err
}

// Update carries optional fields for Manager.Update. Nil means "not
// provided": progress is then recomputed from the stage table, and the
// item fields keep their previous values.
type Update struct {
	Progress        *int
	CurrentItem     *int
	TotalItems      *int
	CurrentItemName *string
}

// Manager owns one job's state for the job's lifetime. It is the sole
// writer to that job's state file and thought log; every mutation
// recomputes progress, refreshes updated_at and persists the full state
// synchronously before returning. Persistence failures propagate to the
// caller: a dashboard reading stale state is worse than a crashed job.
//
// Managers are not safe for concurrent use; the single-writer-per-job
// model makes locking unnecessary.
type Manager struct {
	state       *models.JobState
	model       *ProgressModel
	totalWeight int
	sink        interfaces.StateSink
	thoughts    interfaces.ThoughtLog
	index       interfaces.JobIndex
	events      interfaces.EventService
	logger      arbor.ILogger
}

// ManagerConfig configures a new Manager. OutputDir is required; Index,
// Events and Logger are optional.
type ManagerConfig struct {
	JobID     string
	OutputDir string
	Platform  string
	Features  models.JobFeatures
	SourceURL string
	Index     interfaces.JobIndex
	Events    interfaces.EventService
	Logger    arbor.ILogger
}

// NewManager initializes a queued job at zero progress and persists the
// initial state immediately. Returns *InitializationError when the
// output location cannot be created or the first write fails.
func NewManager(cfg ManagerConfig) (*Manager, error) {
	if cfg.JobID == "" {
		return nil, &InitializationError{Err: fmt.Errorf("job ID is required")}
	}

	sink, err := NewFileSink(cfg.OutputDir, cfg.JobID)
	if err != nil {
		return nil, &InitializationError{Err: err}
	}
	thoughts, err := NewFileThoughtLog(cfg.OutputDir, cfg.JobID)
	if err != nil {
		return nil, &InitializationError{Err: err}
	}

	logger := cfg.Logger
	if logger == nil {
		logger = common.GetLogger()
	}

	jobState := models.NewJobState(cfg.JobID, cfg.Platform, cfg.Features)
	jobState.SourceURL = cfg.SourceURL

	model := NewProgressModel()
	m := &Manager{
		state:       jobState,
		model:       model,
		totalWeight: model.TotalWeight(cfg.Platform, cfg.Features),
		sink:        sink,
		thoughts:    thoughts,
		index:       cfg.Index,
		events:      cfg.Events,
		logger:      logger,
	}

	if err := m.persist(); err != nil {
		return nil, &InitializationError{Err: err}
	}

	m.logger.Debug().
		Str("job_id", cfg.JobID).
		Str("platform", cfg.Platform).
		Int("total_weight", m.totalWeight).
		Str("state_file", sink.Location()).
		Msg("Job state initialized")

	return m, nil
}

// JobID returns the managed job's ID.
func (m *Manager) JobID() string {
	return m.state.JobID
}

// Snapshot returns a copy of the current job state.
func (m *Manager) Snapshot() models.JobState {
	snapshot := *m.state
	snapshot.Errors = append([]models.JobError(nil), m.state.Errors...)
	return snapshot
}

// StateFile returns the path of the persisted state file.
func (m *Manager) StateFile() string {
	return m.sink.Location()
}

// Update transitions the job to a new status, recomputes progress unless
// an explicit value is supplied, and persists the full state.
//
// Recomputed progress is clamped to the maximum seen so far, so a stage
// revisited after a retry never walks the dashboard backwards.
func (m *Manager) Update(status models.WorkflowStatus, upd *Update) error {
	if upd == nil {
		upd = &Update{}
	}

	m.state.Status = status

	if upd.Progress != nil {
		m.state.Progress = *upd.Progress
	} else {
		computed := m.model.Progress(status, m.state.Platform, m.state.Features, upd.CurrentItem, upd.TotalItems, m.state.Progress)
		if computed < m.state.Progress && !status.IsTerminal() {
			computed = m.state.Progress
		}
		m.state.Progress = computed
	}

	if upd.CurrentItem != nil {
		m.state.CurrentItem = upd.CurrentItem
	}
	if upd.TotalItems != nil {
		m.state.TotalItems = upd.TotalItems
	}
	if upd.CurrentItemName != nil {
		m.state.CurrentItemName = upd.CurrentItemName
	}

	if err := m.persist(); err != nil {
		return err
	}

	m.publish(interfaces.EventJobUpdated)
	return nil
}

// SetPlatform records the detected platform and recomputes the progress
// denominator used by all subsequent Update calls.
func (m *Manager) SetPlatform(platform string) error {
	m.state.Platform = platform
	m.totalWeight = m.model.TotalWeight(platform, m.state.Features)

	m.logger.Debug().
		Str("job_id", m.state.JobID).
		Str("platform", platform).
		Int("total_weight", m.totalWeight).
		Msg("Platform set")

	if err := m.persist(); err != nil {
		return err
	}
	m.publish(interfaces.EventJobUpdated)
	return nil
}

// AddError appends an error record without changing status.
func (m *Manager) AddError(step, message string, productID *string, recoverable bool) error {
	m.state.Errors = append(m.state.Errors, models.JobError{
		Step:        step,
		Message:     message,
		ProductID:   productID,
		Recoverable: recoverable,
	})
	return m.persist()
}

// SetLink sets a result link by its logical name. Unknown link types are
// silently ignored.
func (m *Manager) SetLink(linkType, url string) error {
	if !m.state.SetLink(linkType, url) {
		m.logger.Warn().
			Str("job_id", m.state.JobID).
			Str("link_type", linkType).
			Msg("Ignoring unknown link type")
		return nil
	}
	return m.persist()
}

// Complete moves the job to a terminal status. Progress is forced to 100
// only for completed; error and partial_success keep their last value.
func (m *Manager) Complete(status models.WorkflowStatus) error {
	m.state.Status = status
	if status == models.StatusCompleted {
		m.state.Progress = 100
	}
	if err := m.persist(); err != nil {
		return err
	}

	switch status {
	case models.StatusError:
		m.publish(interfaces.EventJobFailed)
	default:
		m.publish(interfaces.EventJobCompleted)
	}
	return nil
}

// Fail records a non-recoverable error when step is non-empty, then
// moves the job to the error status with progress frozen.
func (m *Manager) Fail(message, step string) error {
	if step != "" {
		m.state.Errors = append(m.state.Errors, models.JobError{
			Step:        step,
			Message:     message,
			Recoverable: false,
		})
	}
	return m.Complete(models.StatusError)
}

// EmitEvent appends one immutable record to the job's thought log and
// broadcasts it to live viewers. The log is write-only: nothing in this
// core reads it back.
func (m *Manager) EmitEvent(agent, eventType, content string, details, metadata map[string]interface{}) error {
	event := models.ThoughtEvent{
		ID:        common.NewThoughtID(),
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		JobID:     m.state.JobID,
		Agent:     agent,
		EventType: eventType,
		Content:   content,
		Details:   details,
		Metadata:  metadata,
	}

	if err := m.thoughts.Append(event); err != nil {
		return err
	}

	if m.events != nil {
		if err := m.events.Publish(context.Background(), interfaces.Event{
			Type:    interfaces.EventThoughtEmitted,
			Payload: event,
		}); err != nil {
			m.logger.Warn().Err(err).Str("job_id", m.state.JobID).Msg("Failed to publish thought event")
		}
	}
	return nil
}

// persist rewrites the full state. The state file is authoritative; the
// job index is a convenience mirror, so index failures are logged rather
// than propagated.
func (m *Manager) persist() error {
	m.state.UpdatedAt = time.Now().UTC()

	if err := m.sink.Write(m.state); err != nil {
		return err
	}

	if m.index != nil {
		if err := m.index.Upsert(context.Background(), m.state); err != nil {
			m.logger.Warn().Err(err).Str("job_id", m.state.JobID).Msg("Failed to mirror job state to index")
		}
	}
	return nil
}

// publish broadcasts a lifecycle event carrying a state snapshot.
func (m *Manager) publish(eventType interfaces.EventType) {
	if m.events == nil {
		return
	}
	snapshot := m.Snapshot()
	if err := m.events.Publish(context.Background(), interfaces.Event{
		Type:    eventType,
		Payload: &snapshot,
	}); err != nil {
		m.logger.Warn().Err(err).Str("job_id", m.state.JobID).Msg("Failed to publish job event")
	}
}
