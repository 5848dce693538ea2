// -----------------------------------------------------------------------
// Job State - per-job dashboard state persisted as a JSON document
// -----------------------------------------------------------------------

package models

import "time"

// JobFeatures toggles the optional pipeline extensions. Set once at job
// creation and immutable afterward; each flag adds its phase's weight to
// the progress denominator.
type JobFeatures struct {
	CRMUpload  bool `json:"crm_upload"`
	CRMQuote   bool `json:"crm_quote"`
	Calculator bool `json:"calculator"`
}

// JobError records one failure encountered while processing a job.
// Errors are append-only: once recorded they are never mutated or removed.
type JobError struct {
	Step        string  `json:"step"`
	Message     string  `json:"message"`
	ProductID   *string `json:"product_id,omitempty"`
	Recoverable bool    `json:"recoverable"`
}

// ResultLinks holds artifact URLs populated as the pipeline produces them.
type ResultLinks struct {
	PresentationPDF *string `json:"presentation_pdf"`
	OutputJSON      *string `json:"output_json"`
	CRMItem         *string `json:"crm_item"`
	CRMQuote        *string `json:"crm_quote"`
	Calculator      *string `json:"calculator"`
}

// Logical link names accepted by JobStateManager.SetLink.
const (
	LinkPresentationPDF = "presentation_pdf"
	LinkOutputJSON      = "output_json"
	LinkCRMItem         = "crm_item"
	LinkCRMQuote        = "crm_quote"
	LinkCalculator      = "calculator"
)

// JobState is the complete dashboard-visible state of one job. It is
// exclusively owned by a single JobStateManager for the job's lifetime
// and rewritten in full on every mutation.
type JobState struct {
	JobID    string         `json:"job_id"`
	Status   WorkflowStatus `json:"status"`
	Platform string         `json:"platform"`
	Progress int            `json:"progress"`

	// Sub-progress for multi-item stages ("item 3 of 10")
	CurrentItem     *int    `json:"current_item"`
	TotalItems      *int    `json:"total_items"`
	CurrentItemName *string `json:"current_item_name"`

	Features JobFeatures `json:"features"`

	StartedAt time.Time `json:"started_at"`
	UpdatedAt time.Time `json:"updated_at"`

	ResultLinks ResultLinks `json:"result_links"`

	Errors []JobError `json:"errors"`

	// Source presentation URL, recorded for the dashboard job list.
	SourceURL string `json:"source_url,omitempty"`
}

// NewJobState initializes a queued job with zero progress.
func NewJobState(jobID, platform string, features JobFeatures) *JobState {
	now := time.Now().UTC()
	return &JobState{
		JobID:     jobID,
		Status:    StatusQueued,
		Platform:  platform,
		Progress:  0,
		Features:  features,
		StartedAt: now,
		UpdatedAt: now,
		Errors:    []JobError{},
	}
}

// SetLink resolves a logical link name to its field and sets it.
// Unknown link types are ignored and false is returned.
func (s *JobState) SetLink(linkType, url string) bool {
	switch linkType {
	case LinkPresentationPDF:
		s.ResultLinks.PresentationPDF = &url
	case LinkOutputJSON:
		s.ResultLinks.OutputJSON = &url
	case LinkCRMItem:
		s.ResultLinks.CRMItem = &url
	case LinkCRMQuote:
		s.ResultLinks.CRMQuote = &url
	case LinkCalculator:
		s.ResultLinks.Calculator = &url
	default:
		return false
	}
	return true
}

// IsTerminal reports whether the job has reached a terminal status.
func (s *JobState) IsTerminal() bool {
	return s.Status.IsTerminal()
}
