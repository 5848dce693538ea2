// -----------------------------------------------------------------------
// App - wires configuration, storage, collaborators and handlers
// -----------------------------------------------------------------------

package app

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/promoparse/internal/common"
	"github.com/ternarybob/promoparse/internal/handlers"
	"github.com/ternarybob/promoparse/internal/interfaces"
	"github.com/ternarybob/promoparse/internal/services/calculator"
	"github.com/ternarybob/promoparse/internal/services/crm"
	"github.com/ternarybob/promoparse/internal/services/events"
	"github.com/ternarybob/promoparse/internal/services/extract"
	"github.com/ternarybob/promoparse/internal/services/imap"
	"github.com/ternarybob/promoparse/internal/services/pdf"
	"github.com/ternarybob/promoparse/internal/services/pipeline"
	"github.com/ternarybob/promoparse/internal/services/sage"
	"github.com/ternarybob/promoparse/internal/services/scheduler"
	"github.com/ternarybob/promoparse/internal/services/scrape"
	"github.com/ternarybob/promoparse/internal/services/state"
	"github.com/ternarybob/promoparse/internal/services/transfer"
	badgerstore "github.com/ternarybob/promoparse/internal/storage/badger"
)

// App holds every initialized component for the server's lifetime.
type App struct {
	Config *common.Config
	Logger arbor.ILogger

	DB           *badgerstore.BadgerDB
	JobIndex     interfaces.JobIndex
	EventService interfaces.EventService

	Pipeline  *pipeline.Service
	Scheduler *scheduler.Service
	Watcher   *imap.Watcher

	JobHandler    *handlers.JobHandler
	StatusHandler *handlers.StatusHandler
	WSHandler     *handlers.WebSocketHandler

	watcherCancel context.CancelFunc
}

// New initializes storage, collaborators, the pipeline and handlers.
// Optional integrations (SAGE, CRM, extraction, transfer) are only
// constructed when their config sections carry credentials; jobs that
// need an unconfigured collaborator fail at the stage that requires it.
func New(cfg *common.Config, logger arbor.ILogger) (*App, error) {
	a := &App{
		Config: cfg,
		Logger: logger,
	}

	db, err := badgerstore.NewBadgerDB(logger, &cfg.Storage.Badger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	a.DB = db
	a.JobIndex = badgerstore.NewJobIndex(db, logger)
	a.EventService = events.NewService(logger)
	if err := events.SubscribeLoggerToAllEvents(a.EventService, logger); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to subscribe event logger: %w", err)
	}

	deps, err := a.buildDependencies()
	if err != nil {
		db.Close()
		return nil, err
	}

	a.Pipeline, err = pipeline.NewService(&cfg.Pipeline, cfg.Storage.OutputDir, deps, logger)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize pipeline: %w", err)
	}

	a.Scheduler, err = scheduler.NewService(&cfg.Scheduler, a.JobIndex, a.sinkFor, logger)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize scheduler: %w", err)
	}

	if cfg.IMAP.Enabled {
		a.Watcher, err = imap.NewWatcher(&cfg.IMAP, a.submitFromEmail, logger)
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to initialize email trigger: %w", err)
		}
	}

	a.JobHandler = handlers.NewJobHandler(a.Pipeline, a.JobIndex, cfg.Storage.OutputDir, logger)
	a.StatusHandler = handlers.NewStatusHandler()
	a.WSHandler = handlers.NewWebSocketHandler(a.EventService, logger, &cfg.WebSocket)

	return a, nil
}

// buildDependencies constructs the pipeline collaborators the config
// enables.
func (a *App) buildDependencies() (pipeline.Dependencies, error) {
	cfg := a.Config
	deps := pipeline.Dependencies{
		Index:   a.JobIndex,
		Events:  a.EventService,
		Checker: pdf.NewChecker(a.Logger),
	}

	scraper, err := scrape.NewService(&cfg.Scrape, a.Logger)
	if err != nil {
		return deps, fmt.Errorf("failed to initialize scraper: %w", err)
	}
	deps.Scraper = scraper

	workDir := cfg.Pipeline.WorkDir
	if workDir == "" {
		workDir = cfg.Storage.OutputDir
	}
	if cfg.Transfer.BaseURL != "" {
		transferSvc, err := transfer.NewService(&cfg.Transfer, workDir, a.Logger)
		if err != nil {
			return deps, fmt.Errorf("failed to initialize file transfer: %w", err)
		}
		deps.Transfer = transferSvc
	} else {
		a.Logger.Warn().Msg("File transfer not configured; ESP jobs will fail")
	}

	if cfg.LLM.Claude.APIKey != "" || cfg.LLM.Gemini.APIKey != "" {
		extractor, err := extract.NewExtractor(&cfg.LLM, a.Logger)
		if err != nil {
			return deps, fmt.Errorf("failed to initialize document extractor: %w", err)
		}
		deps.Extractor = extractor
	} else {
		a.Logger.Warn().Msg("Document extraction not configured; ESP jobs will fail")
	}

	if cfg.SAGE.AcctID != 0 {
		sageClient, err := sage.NewClient(&cfg.SAGE, a.Logger)
		if err != nil {
			return deps, fmt.Errorf("failed to initialize SAGE client: %w", err)
		}
		deps.SAGE = sageClient
	} else {
		a.Logger.Warn().Msg("SAGE credentials not configured; SAGE jobs will fail")
	}

	if cfg.CRM.BaseURL != "" {
		crmClient, err := crm.NewClient(&cfg.CRM, a.Logger)
		if err != nil {
			return deps, fmt.Errorf("failed to initialize CRM client: %w", err)
		}
		deps.CRM = crmClient
	}

	calcService, err := calculator.NewService(cfg.Storage.OutputDir, a.Logger)
	if err != nil {
		return deps, fmt.Errorf("failed to initialize calculator: %w", err)
	}
	deps.Calculator = calcService

	return deps, nil
}

// sinkFor resolves a job's state sink for the stale sweeper so swept
// jobs get their state files rewritten alongside the index.
func (a *App) sinkFor(jobID string) interfaces.StateSink {
	sink, err := state.NewFileSink(a.Config.Storage.OutputDir, jobID)
	if err != nil {
		a.Logger.Warn().Err(err).Str("job_id", jobID).Msg("Failed to open state sink for sweep")
		return nil
	}
	return sink
}

// submitFromEmail adapts the pipeline submission for the email trigger.
func (a *App) submitFromEmail(ctx context.Context, url, requestedBy string) error {
	_, err := a.Pipeline.Submit(ctx, url, nil, requestedBy)
	return err
}

// Start launches the background services.
func (a *App) Start() error {
	if err := a.Scheduler.Start(); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}

	if a.Watcher != nil {
		ctx, cancel := context.WithCancel(context.Background())
		a.watcherCancel = cancel
		common.SafeGoWithContext(ctx, a.Logger, "imapWatcher", func() {
			a.Watcher.Run(ctx)
		})
	}

	return nil
}

// Close stops background services, waits for in-flight jobs and closes
// storage.
func (a *App) Close() error {
	if a.watcherCancel != nil {
		a.watcherCancel()
	}
	if a.Scheduler != nil {
		a.Scheduler.Stop()
	}
	if a.Pipeline != nil {
		a.Pipeline.Wait()
	}
	if a.DB != nil {
		return a.DB.Close()
	}
	return nil
}
