package app

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/parlascope/parlascope/internal/browser"
	"github.com/parlascope/parlascope/internal/common"
	"github.com/parlascope/parlascope/internal/index"
	"github.com/parlascope/parlascope/internal/interfaces"
	"github.com/parlascope/parlascope/internal/media"
	"github.com/parlascope/parlascope/internal/models"
	"github.com/parlascope/parlascope/internal/pipeline"
	"github.com/parlascope/parlascope/internal/queue"
	"github.com/parlascope/parlascope/internal/scraper"
	"github.com/parlascope/parlascope/internal/services/llm"
	"github.com/parlascope/parlascope/internal/services/qa"
	"github.com/parlascope/parlascope/internal/services/summary"
	"github.com/parlascope/parlascope/internal/storage/badger"
	"github.com/parlascope/parlascope/internal/transcribe"
	"github.com/parlascope/parlascope/internal/youtube"
)

// App holds all application components and dependencies
type App struct {
	Config         *common.Config
	Logger         arbor.ILogger
	Location       *time.Location
	StorageManager interfaces.StorageManager

	// Extraction pipeline
	Browsers     interfaces.BrowserFactory
	Crawlers     scraper.Registry
	Resolver     *media.StrategyResolver
	Indexer      *index.Indexer
	VectorIndex  interfaces.VectorIndex
	TaskQueue    interfaces.TaskQueue
	Orchestrator *pipeline.Orchestrator
	Scheduler    *pipeline.Scheduler

	// Report generation, constructed on demand via InitProcessing
	LLM     interfaces.LLMService
	Summary *summary.Service
	QA      *qa.Service
}

// New wires the extraction pipeline from configuration. The report
// generation services are left unconstructed until InitProcessing, so
// extraction-only deployments need no LLM credentials.
func New(ctx context.Context, config *common.Config, logger arbor.ILogger) (*App, error) {
	loc, err := common.LoadTimezone(config.Extraction.Timezone)
	if err != nil {
		return nil, fmt.Errorf("failed to load timezone: %w", err)
	}

	storageManager, err := badger.NewManager(logger, &config.Storage.Badger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	catalog, err := scraper.LoadKeywordCatalog(config.Extraction.KeywordsFile)
	if err != nil {
		storageManager.Close()
		return nil, fmt.Errorf("failed to load keyword catalog: %w", err)
	}

	browsers := browser.NewFactory(config.Browser, logger)

	senate := scraper.NewSenateCrawler(browsers, catalog, loc, logger)
	deputies := scraper.NewDeputiesCrawler(browsers, catalog, loc, logger)
	crawlers := scraper.Registry{
		models.ChamberSenate:   senate,
		models.ChamberDeputies: deputies,
	}

	platform := youtube.NewClient(config.YouTube.APIKey,
		youtube.WithLogger(logger),
		youtube.WithRateLimit(config.YouTube.RateLimit),
		youtube.WithLanguage(config.YouTube.Language),
	)
	captions := media.NewCaptionResolver(platform, config.YouTube.Channels, loc, logger)

	whisperTimeout, err := time.ParseDuration(config.Whisper.Timeout)
	if err != nil {
		storageManager.Close()
		return nil, fmt.Errorf("invalid whisper timeout '%s': %w", config.Whisper.Timeout, err)
	}
	transcriber := transcribe.NewClient(config.Whisper.APIKey,
		transcribe.WithModel(config.Whisper.Model),
		transcribe.WithLanguage(config.Whisper.Language),
		transcribe.WithTimeout(whisperTimeout),
		transcribe.WithLogger(logger),
	)
	download := media.NewDownloadResolver(browsers, transcriber, config.Media, loc, logger)

	resolver := media.NewStrategyResolver(captions, download, config.Media.Strategy)

	chunker, err := index.NewChunker(config.Index.ChunkSize, config.Index.Overlap)
	if err != nil {
		storageManager.Close()
		return nil, fmt.Errorf("failed to build chunker: %w", err)
	}
	vectorIndex := index.NewPineconeIndex(config.Index.Host, config.Index.APIKey, index.WithLogger(logger))
	indexer := index.NewIndexer(chunker, vectorIndex, config.Index.Namespace, config.Index.BatchSize, logger)

	taskQueue, err := queue.New(ctx, config.Queue, logger)
	if err != nil {
		storageManager.Close()
		return nil, fmt.Errorf("failed to initialize task queue: %w", err)
	}

	var fallback interfaces.MediaResolver
	if config.Media.DownloadFallback {
		fallback = resolver.DownloadPath()
	}

	orchestrator := pipeline.NewOrchestrator(
		crawlers,
		resolver,
		fallback,
		indexer,
		storageManager,
		taskQueue,
		config.Extraction.WatermarkDelay,
		logger,
	)

	app := &App{
		Config:         config,
		Logger:         logger,
		Location:       loc,
		StorageManager: storageManager,
		Browsers:       browsers,
		Crawlers:       crawlers,
		Resolver:       resolver,
		Indexer:        indexer,
		VectorIndex:    vectorIndex,
		TaskQueue:      taskQueue,
		Orchestrator:   orchestrator,
		Scheduler:      pipeline.NewScheduler(orchestrator, logger),
	}

	logger.Info().
		Str("environment", config.Environment).
		Str("timezone", loc.String()).
		Msg("Application initialized")

	return app, nil
}

// InitProcessing constructs the LLM-backed report and question-answering
// services.
func (a *App) InitProcessing() error {
	service, err := llm.NewLLMService(a.Config, a.Logger)
	if err != nil {
		return err
	}

	a.LLM = service
	a.Summary = summary.NewService(service, a.Location, a.Logger)
	a.QA = qa.NewService(a.VectorIndex, service, a.Config.Index.Namespace, a.Logger)
	return nil
}

// Bootstrap populates the commission catalog from both chambers' directory
// pages. Existing commissions are upserted, preserving nothing but identity;
// run it once per deployment or after the chambers restructure committees.
func (a *App) Bootstrap(ctx context.Context) (int, error) {
	total := 0
	for _, chamber := range []models.Chamber{models.ChamberSenate, models.ChamberDeputies} {
		crawler, err := a.Crawlers.For(chamber)
		if err != nil {
			return total, err
		}

		commissions, err := crawler.Commissions(ctx)
		if err != nil {
			return total, fmt.Errorf("failed to list %s commissions: %w", chamber, err)
		}

		for i := range commissions {
			if err := a.StorageManager.CommissionStorage().SaveCommission(ctx, &commissions[i]); err != nil {
				return total, err
			}
			total++
		}

		a.Logger.Info().
			Str("chamber", string(chamber)).
			Int("commissions", len(commissions)).
			Msg("Commission catalog updated")
	}
	return total, nil
}

// Close releases all held resources.
func (a *App) Close() error {
	if a.LLM != nil {
		if err := a.LLM.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close LLM service")
		}
	}
	if a.TaskQueue != nil {
		if err := a.TaskQueue.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close task queue")
		}
	}
	if a.StorageManager != nil {
		return a.StorageManager.Close()
	}
	return nil
}
