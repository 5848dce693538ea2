// -----------------------------------------------------------------------
// Workflow Status - observable pipeline stages and progress weights
// -----------------------------------------------------------------------

package models

// WorkflowStatus identifies one observable stage of a presentation job.
// The dashboard polls the job state file and renders these directly, so
// the string values are part of the external contract.
type WorkflowStatus string

const (
	// Initialization
	StatusQueued          WorkflowStatus = "queued"
	StatusDetectingSource WorkflowStatus = "detecting_source"

	// ESP pipeline (portal scrape + browser download + LLM parse)
	StatusESPDownloadingPresentation WorkflowStatus = "esp_downloading_presentation"
	StatusESPUploadingTransfer       WorkflowStatus = "esp_uploading_transfer"
	StatusESPParsingPresentation     WorkflowStatus = "esp_parsing_presentation"
	StatusESPLookingUpProducts       WorkflowStatus = "esp_looking_up_products"
	StatusESPDownloadingProducts     WorkflowStatus = "esp_downloading_products"
	StatusESPParsingProducts         WorkflowStatus = "esp_parsing_products"
	StatusESPMergingData             WorkflowStatus = "esp_merging_data"

	// SAGE pipeline (REST API)
	StatusSAGECallingAPI        WorkflowStatus = "sage_calling_api"
	StatusSAGEParsingResponse   WorkflowStatus = "sage_parsing_response"
	StatusSAGEEnrichingProducts WorkflowStatus = "sage_enriching_products"

	// Shared tail
	StatusNormalizing  WorkflowStatus = "normalizing"
	StatusSavingOutput WorkflowStatus = "saving_output"

	// CRM integration (optional)
	StatusCRMSearchingCustomer WorkflowStatus = "crm_searching_customer"
	StatusCRMDiscoveringFields WorkflowStatus = "crm_discovering_fields"
	StatusCRMUploadingItems    WorkflowStatus = "crm_uploading_items"
	StatusCRMUploadingImages   WorkflowStatus = "crm_uploading_images"
	StatusCRMCreatingQuote     WorkflowStatus = "crm_creating_quote"

	// Calculator (optional)
	StatusCalcGenerating WorkflowStatus = "calc_generating"
	StatusCalcUploading  WorkflowStatus = "calc_uploading"

	// Review & terminal
	StatusAwaitingQA     WorkflowStatus = "awaiting_qa"
	StatusCompleted      WorkflowStatus = "completed"
	StatusError          WorkflowStatus = "error"
	StatusPartialSuccess WorkflowStatus = "partial_success"
)

// IsTerminal returns true for statuses from which no further stage
// transition is valid.
func (s WorkflowStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusError || s == StatusPartialSuccess
}

// Phase groups stages by the pipeline branch they belong to. A job's
// platform and feature flags determine which phases count toward its
// progress denominator.
type Phase string

const (
	PhaseInit       Phase = "init"
	PhaseESP        Phase = "esp"
	PhaseSAGE       Phase = "sage"
	PhaseShared     Phase = "shared"
	PhaseCRMUpload  Phase = "crm_upload"
	PhaseCRMQuote   Phase = "crm_quote"
	PhaseCalculator Phase = "calculator"
	PhaseReview     Phase = "review"
)

// StageWeight binds a status to its phase and its share of the overall
// progress bar.
type StageWeight struct {
	Status WorkflowStatus
	Phase  Phase
	Weight int
}

// Stages is the canonical stage ordering. Cumulative progress is summed
// by iterating this slice in order, so the ordering here is load-bearing:
// it must match the order the orchestrator visits stages in.
var Stages = []StageWeight{
	{StatusQueued, PhaseInit, 0},
	{StatusDetectingSource, PhaseInit, 2},

	{StatusESPDownloadingPresentation, PhaseESP, 8},
	{StatusESPUploadingTransfer, PhaseESP, 2},
	{StatusESPParsingPresentation, PhaseESP, 10},
	{StatusESPLookingUpProducts, PhaseESP, 15},
	{StatusESPDownloadingProducts, PhaseESP, 10},
	{StatusESPParsingProducts, PhaseESP, 10},
	{StatusESPMergingData, PhaseESP, 5},

	{StatusSAGECallingAPI, PhaseSAGE, 10},
	{StatusSAGEParsingResponse, PhaseSAGE, 10},
	{StatusSAGEEnrichingProducts, PhaseSAGE, 15},

	{StatusNormalizing, PhaseShared, 5},
	{StatusSavingOutput, PhaseShared, 3},

	{StatusCRMSearchingCustomer, PhaseCRMUpload, 3},
	{StatusCRMDiscoveringFields, PhaseCRMUpload, 2},
	{StatusCRMUploadingItems, PhaseCRMUpload, 12},
	{StatusCRMUploadingImages, PhaseCRMUpload, 5},

	{StatusCRMCreatingQuote, PhaseCRMQuote, 8},

	{StatusCalcGenerating, PhaseCalculator, 5},
	{StatusCalcUploading, PhaseCalculator, 3},

	{StatusAwaitingQA, PhaseReview, 0},
}

// Platform values for JobState.Platform. Empty means not yet detected.
const (
	PlatformESP  = "ESP"
	PlatformSAGE = "SAGE"
)
