package models

// ThoughtEvent is one immutable record in a job's append-only event log.
// The log streams fine-grained agent activity (reasoning, tool use,
// checkpoints) to live dashboard viewers; it is write-only from the
// pipeline's perspective and never read back.
type ThoughtEvent struct {
	ID        string                 `json:"id"`
	Timestamp string                 `json:"timestamp"`
	JobID     string                 `json:"job_id"`
	Agent     string                 `json:"agent"`
	EventType string                 `json:"event_type"`
	Content   string                 `json:"content"`
	Details   map[string]interface{} `json:"details,omitempty"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// Well-known agent identifiers used in thought events.
const (
	AgentOrchestrator = "orchestrator"
	AgentBrowser      = "browser"
	AgentExtractor    = "extractor"
	AgentSAGEAPI      = "sage_api"
	AgentNormalizer   = "normalizer"
	AgentCRMItem      = "crm_item_agent"
	AgentCRMQuote     = "crm_quote_agent"
	AgentCalculator   = "calculator_agent"
)

// Well-known event types for thought events.
const (
	EventThought     = "thought"
	EventAction      = "action"
	EventObservation = "observation"
	EventCheckpoint  = "checkpoint"
	EventToolUse     = "tool_use"
	EventError       = "error"
	EventSuccess     = "success"
)
