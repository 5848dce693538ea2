// -----------------------------------------------------------------------
// Pipeline Orchestrator - drives a presentation job through its stages
// -----------------------------------------------------------------------

package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/promoparse/internal/common"
	"github.com/ternarybob/promoparse/internal/interfaces"
	"github.com/ternarybob/promoparse/internal/models"
	"github.com/ternarybob/promoparse/internal/services/normalizer"
	"github.com/ternarybob/promoparse/internal/services/pdf"
	"github.com/ternarybob/promoparse/internal/services/state"
)

// DocumentChecker validates and reads downloaded documents.
type DocumentChecker interface {
	Read(path string) ([]byte, *pdf.DocumentInfo, error)
}

// CalculatorGenerator renders the quote calculator artifact.
type CalculatorGenerator interface {
	Generate(output *models.UnifiedOutput) (string, error)
}

// Dependencies carries the collaborators the orchestrator drives.
// Scraper, Transfer, Extractor and Checker serve the ESP pipeline; SAGE
// serves the SAGE pipeline; CRM and Calculator serve the optional
// extensions. A collaborator may be nil when no submitted job can reach
// it (for example CRM when uploads are never enabled).
type Dependencies struct {
	Scraper    interfaces.Scraper
	Transfer   interfaces.FileTransfer
	Extractor  interfaces.DocumentExtractor
	SAGE       interfaces.SAGEClient
	CRM        interfaces.CRMClient
	Checker    DocumentChecker
	Calculator CalculatorGenerator
	Index      interfaces.JobIndex
	Events     interfaces.EventService
}

// Service owns job execution: it detects the source platform, walks the
// canonical stage sequence through the job state manager, normalizes the
// raw result and runs the optional CRM and calculator extensions.
type Service struct {
	config    *common.PipelineConfig
	outputDir string
	deps      Dependencies
	logger    arbor.ILogger

	wg sync.WaitGroup
}

// NewService creates the orchestrator.
func NewService(config *common.PipelineConfig, outputDir string, deps Dependencies, logger arbor.ILogger) (*Service, error) {
	if outputDir == "" {
		return nil, fmt.Errorf("output directory is required")
	}

	return &Service{
		config:    config,
		outputDir: outputDir,
		deps:      deps,
		logger:    logger,
	}, nil
}

// Submit creates a job for the given presentation URL and starts it in
// the background. A nil features value applies the configured defaults.
// Returns the job ID; creation fails only when the job's state cannot
// be initialized.
func (s *Service) Submit(ctx context.Context, sourceURL string, features *models.JobFeatures, requestedBy string) (string, error) {
	if sourceURL == "" {
		return "", fmt.Errorf("presentation URL is required")
	}

	resolved := s.defaultFeatures()
	if features != nil {
		resolved = *features
	}

	jobID := common.NewJobID()
	mgr, err := state.NewManager(state.ManagerConfig{
		JobID:     jobID,
		OutputDir: s.outputDir,
		Features:  resolved,
		SourceURL: sourceURL,
		Index:     s.deps.Index,
		Events:    s.deps.Events,
		Logger:    s.logger,
	})
	if err != nil {
		return "", err
	}

	s.logger.Info().
		Str("job_id", jobID).
		Str("url", sourceURL).
		Str("requested_by", requestedBy).
		Msg("Job submitted")

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.Run(context.Background(), mgr, sourceURL)
	}()

	return jobID, nil
}

// Wait blocks until all in-flight jobs finish. Used on shutdown.
func (s *Service) Wait() {
	s.wg.Wait()
}

func (s *Service) defaultFeatures() models.JobFeatures {
	if s.config == nil {
		return models.JobFeatures{}
	}
	return models.JobFeatures{
		CRMUpload:  s.config.CRMUpload,
		CRMQuote:   s.config.CRMQuote,
		Calculator: s.config.Calculator,
	}
}

// Run executes the full pipeline for one job. Stage failures terminate
// the job in the error status with progress frozen; per-item failures
// are recorded and the job ends partial_success.
func (s *Service) Run(ctx context.Context, mgr *state.Manager, sourceURL string) {
	if err := s.process(ctx, mgr, sourceURL); err != nil {
		s.logger.Error().Err(err).Str("job_id", mgr.JobID()).Msg("Job failed")
		return
	}

	snapshot := mgr.Snapshot()
	final := models.StatusCompleted
	if len(snapshot.Errors) > 0 {
		final = models.StatusPartialSuccess
	}
	if err := mgr.Complete(final); err != nil {
		s.logger.Error().Err(err).Str("job_id", mgr.JobID()).Msg("Failed to finalize job state")
		return
	}

	s.logger.Info().
		Str("job_id", mgr.JobID()).
		Str("status", string(final)).
		Int("errors", len(snapshot.Errors)).
		Msg("Job finished")
}

// process runs every stage; the returned error means the job already
// terminated in the error status.
func (s *Service) process(ctx context.Context, mgr *state.Manager, sourceURL string) error {
	if err := mgr.Update(models.StatusDetectingSource, nil); err != nil {
		return err
	}

	platform, err := DetectSource(sourceURL)
	if err != nil {
		return s.fail(mgr, models.StatusDetectingSource, err)
	}
	if err := mgr.SetPlatform(platform); err != nil {
		return err
	}
	mgr.EmitEvent(models.AgentOrchestrator, models.EventThought, fmt.Sprintf("Detected %s presentation", platform), nil, nil)

	var unified *models.UnifiedOutput
	switch platform {
	case models.PlatformESP:
		raw, err := s.runESP(ctx, mgr, sourceURL)
		if err != nil {
			return err
		}
		if err := mgr.Update(models.StatusNormalizing, nil); err != nil {
			return err
		}
		unified = normalizer.NormalizeESP(raw)
	case models.PlatformSAGE:
		raw, err := s.runSAGE(ctx, mgr, sourceURL)
		if err != nil {
			return err
		}
		if err := mgr.Update(models.StatusNormalizing, nil); err != nil {
			return err
		}
		unified = normalizer.NormalizeSAGE(raw)
	}

	if err := mgr.Update(models.StatusSavingOutput, nil); err != nil {
		return err
	}
	outputPath, err := s.saveOutput(mgr.JobID(), unified)
	if err != nil {
		return s.fail(mgr, models.StatusSavingOutput, err)
	}
	if err := mgr.SetLink(models.LinkOutputJSON, outputPath); err != nil {
		return err
	}

	features := mgr.Snapshot().Features
	var customerID string
	if features.CRMUpload {
		customerID = s.runCRM(ctx, mgr, unified, features.CRMQuote)
	}
	if features.Calculator {
		s.runCalculator(ctx, mgr, unified, customerID)
	}

	return mgr.Update(models.StatusAwaitingQA, nil)
}

// fail terminates the job and returns a sentinel error for process.
func (s *Service) fail(mgr *state.Manager, step models.WorkflowStatus, err error) error {
	if ferr := mgr.Fail(err.Error(), string(step)); ferr != nil {
		s.logger.Error().Err(ferr).Str("job_id", mgr.JobID()).Msg("Failed to record job failure")
	}
	return fmt.Errorf("%s: %w", step, err)
}

// saveOutput writes the unified result next to the job's state file.
func (s *Service) saveOutput(jobID string, output *models.UnifiedOutput) (string, error) {
	dir := filepath.Join(s.outputDir, jobID)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	data, err := json.MarshalIndent(output, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal unified output: %w", err)
	}

	path := filepath.Join(dir, "output.json")
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write unified output: %w", err)
	}
	return path, nil
}

// runCRM executes the optional CRM extension. CRM failures never fail
// the job: the unified output is already saved, so every problem here is
// recorded as a recoverable error and the job ends partial_success.
func (s *Service) runCRM(ctx context.Context, mgr *state.Manager, output *models.UnifiedOutput, withQuote bool) string {
	if s.deps.CRM == nil {
		s.recordError(mgr, models.StatusCRMSearchingCustomer, "CRM integration is not configured", nil)
		return ""
	}

	if err := mgr.Update(models.StatusCRMSearchingCustomer, nil); err != nil {
		return ""
	}
	company := clientCompany(output)
	if company == "" {
		s.recordError(mgr, models.StatusCRMSearchingCustomer, "presentation carries no client company to match", nil)
		return ""
	}
	customerID, err := s.deps.CRM.SearchCustomer(ctx, company)
	if err != nil {
		s.recordError(mgr, models.StatusCRMSearchingCustomer, fmt.Sprintf("customer lookup for '%s' failed: %v", company, err), nil)
		return ""
	}

	if err := mgr.Update(models.StatusCRMDiscoveringFields, nil); err != nil {
		return customerID
	}
	if _, err := s.deps.CRM.DiscoverFields(ctx); err != nil {
		// Items still upload without custom fields
		s.recordError(mgr, models.StatusCRMDiscoveringFields, fmt.Sprintf("custom field discovery failed: %v", err), nil)
	}

	itemLinks := s.uploadItems(ctx, mgr, customerID, output)
	s.uploadImages(ctx, mgr, output, itemLinks)

	if withQuote {
		if err := mgr.Update(models.StatusCRMCreatingQuote, nil); err != nil {
			return customerID
		}
		quoteLink, err := s.deps.CRM.CreateQuote(ctx, customerID, output)
		if err != nil {
			s.recordError(mgr, models.StatusCRMCreatingQuote, fmt.Sprintf("quote creation failed: %v", err), nil)
		} else if err := mgr.SetLink(models.LinkCRMQuote, quoteLink); err != nil {
			return customerID
		}
	}

	return customerID
}

// uploadItems upserts every product, returning the item link per product
// index for the image stage.
func (s *Service) uploadItems(ctx context.Context, mgr *state.Manager, customerID string, output *models.UnifiedOutput) map[int]string {
	links := make(map[int]string)
	total := len(output.Products)

	for i := range output.Products {
		product := &output.Products[i]
		item := i + 1
		name := product.Item.Name
		if err := mgr.Update(models.StatusCRMUploadingItems, &state.Update{
			CurrentItem:     &item,
			TotalItems:      &total,
			CurrentItemName: &name,
		}); err != nil {
			return links
		}

		link, err := s.deps.CRM.UpsertItem(ctx, customerID, product)
		if err != nil {
			s.recordError(mgr, models.StatusCRMUploadingItems, fmt.Sprintf("item upload failed: %v", err), productID(product))
			continue
		}
		links[i] = link
		if err := mgr.SetLink(models.LinkCRMItem, link); err != nil {
			return links
		}
	}
	return links
}

// uploadImages attaches the first image of each uploaded product.
func (s *Service) uploadImages(ctx context.Context, mgr *state.Manager, output *models.UnifiedOutput, itemLinks map[int]string) {
	if err := mgr.Update(models.StatusCRMUploadingImages, nil); err != nil {
		return
	}

	for i := range output.Products {
		product := &output.Products[i]
		link, ok := itemLinks[i]
		if !ok || len(product.Images) == 0 {
			continue
		}

		if err := s.deps.CRM.UploadImage(ctx, lastPathSegment(link), product.Images[0]); err != nil {
			s.recordError(mgr, models.StatusCRMUploadingImages, fmt.Sprintf("image upload failed: %v", err), productID(product))
		}
	}
}

// runCalculator generates the quote calculator and, when a CRM customer
// was resolved, attaches it to the customer record. Failures are
// recoverable for the same reason as the CRM extension.
func (s *Service) runCalculator(ctx context.Context, mgr *state.Manager, output *models.UnifiedOutput, customerID string) {
	if s.deps.Calculator == nil {
		s.recordError(mgr, models.StatusCalcGenerating, "calculator generator is not configured", nil)
		return
	}

	if err := mgr.Update(models.StatusCalcGenerating, nil); err != nil {
		return
	}
	localPath, err := s.deps.Calculator.Generate(output)
	if err != nil {
		s.recordError(mgr, models.StatusCalcGenerating, fmt.Sprintf("calculator generation failed: %v", err), nil)
		return
	}
	link := localPath

	if customerID != "" && s.deps.CRM != nil {
		if err := mgr.Update(models.StatusCalcUploading, nil); err != nil {
			return
		}
		uploaded, err := s.deps.CRM.UploadFile(ctx, customerID, localPath)
		if err != nil {
			s.recordError(mgr, models.StatusCalcUploading, fmt.Sprintf("calculator upload failed: %v", err), nil)
		} else {
			link = uploaded
		}
	}

	if err := mgr.SetLink(models.LinkCalculator, link); err != nil {
		s.logger.Warn().Err(err).Str("job_id", mgr.JobID()).Msg("Failed to record calculator link")
	}
}

// recordError appends a recoverable error and logs it.
func (s *Service) recordError(mgr *state.Manager, step models.WorkflowStatus, message string, productID *string) {
	s.logger.Warn().
		Str("job_id", mgr.JobID()).
		Str("step", string(step)).
		Str("error", message).
		Msg("Recoverable pipeline error")
	if err := mgr.AddError(string(step), message, productID, true); err != nil {
		s.logger.Error().Err(err).Str("job_id", mgr.JobID()).Msg("Failed to record pipeline error")
	}
}

func clientCompany(output *models.UnifiedOutput) string {
	if output.Client.Company != nil && *output.Client.Company != "" {
		return *output.Client.Company
	}
	if output.Client.Name != nil {
		return *output.Client.Name
	}
	return ""
}

func productID(product *models.UnifiedProduct) *string {
	for _, id := range []*string{
		product.Identifiers.CPN,
		product.Identifiers.SPC,
		product.Identifiers.MPN,
		product.Identifiers.VendorSKU,
	} {
		if id != nil && *id != "" {
			return id
		}
	}
	return nil
}

func lastPathSegment(link string) string {
	trimmed := strings.TrimRight(link, "/")
	if idx := strings.LastIndex(trimmed, "/"); idx >= 0 {
		return trimmed[idx+1:]
	}
	return trimmed
}
