// -----------------------------------------------------------------------
// Last Modified: Wednesday, 19th August 2026 2:31:09 pm
// Modified By: Bob McAllan
// -----------------------------------------------------------------------

package app

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/colligo/internal/accounts"
	"github.com/ternarybob/colligo/internal/common"
	"github.com/ternarybob/colligo/internal/handlers"
	"github.com/ternarybob/colligo/internal/interfaces"
	"github.com/ternarybob/colligo/internal/scrape"
	"github.com/ternarybob/colligo/internal/services/events"
	"github.com/ternarybob/colligo/internal/services/scheduler"
	"github.com/ternarybob/colligo/internal/storage/badger"
	"github.com/ternarybob/colligo/internal/upstream"
)

// Maintenance job names registered with the scheduler
const (
	jobUsageReset    = "usage_reset"
	jobRegistrySweep = "registry_sweep"
)

// App holds all application components and dependencies
type App struct {
	Config    *common.Config
	Logger    arbor.ILogger
	ctx       context.Context
	cancelCtx context.CancelFunc

	// Run registry storage
	StorageManager interfaces.StorageManager

	// Event-driven services
	EventService     interfaces.EventService
	SchedulerService interfaces.SchedulerService

	// Scrape coordination
	AccountStore interfaces.AccountStore
	ScrapeClient interfaces.ScrapeClient
	Orchestrator *scrape.Orchestrator

	// HTTP handlers
	APIHandler       *handlers.APIHandler
	ScrapeHandler    *handlers.ScrapeHandler
	RunsHandler      *handlers.RunsHandler
	AccountsHandler  *handlers.AccountsHandler
	SchedulerHandler *handlers.SchedulerHandler
	WSHandler        *handlers.WebSocketHandler
}

// New initializes the application with all dependencies
func New(cfg *common.Config, logger arbor.ILogger) (*App, error) {
	ctx, cancel := context.WithCancel(context.Background())

	app := &App{
		Config:    cfg,
		Logger:    logger,
		ctx:       ctx,
		cancelCtx: cancel,
	}

	// Initialize storage (run registry)
	if err := app.initDatabase(); err != nil {
		cancel()
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	// Event service must exist before anything that publishes or relays.
	// The WebSocket handler is created early so it can subscribe before the
	// first run fires events.
	app.EventService = events.NewService(app.Logger)
	app.WSHandler = handlers.NewWebSocketHandler(app.EventService, app.Logger, &app.Config.WebSocket)
	app.WSHandler.SubscribeToRunEvents()

	// Initialize services
	if err := app.initServices(); err != nil {
		cancel()
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	// Initialize handlers
	if err := app.initHandlers(); err != nil {
		cancel()
		return nil, fmt.Errorf("failed to initialize handlers: %w", err)
	}

	// Start maintenance scheduler AFTER everything it touches exists
	if err := app.startScheduler(); err != nil {
		cancel()
		return nil, fmt.Errorf("failed to start scheduler: %w", err)
	}

	logger.Info().
		Str("accounts_file", cfg.Accounts.File).
		Str("upstream", cfg.Upstream.BaseURL).
		Int("chunk_size", cfg.Scrape.ChunkSize).
		Int("max_concurrent", cfg.Scrape.MaxConcurrent).
		Msg("Application initialization complete")

	return app, nil
}

// initDatabase initializes the storage layer (Badger)
func (a *App) initDatabase() error {
	storageManager, err := badger.NewManager(a.Logger, &a.Config.Storage.Badger)
	if err != nil {
		return fmt.Errorf("failed to create storage manager: %w", err)
	}

	a.StorageManager = storageManager
	a.Logger.Debug().
		Str("storage", "badger").
		Str("path", a.Config.Storage.Badger.Path).
		Msg("Storage layer initialized")

	return nil
}

// initServices initializes all business services in dependency order:
// account store, upstream client, then the orchestrator that composes them.
func (a *App) initServices() error {
	a.AccountStore = accounts.NewCSVStore(a.Config.Accounts.File, a.Logger)
	a.Logger.Debug().
		Str("file", a.Config.Accounts.File).
		Int("daily_limit", a.Config.Accounts.DailyLimit).
		Msg("Account store initialized")

	a.ScrapeClient = upstream.NewClient(
		a.Config.Upstream.BaseURL,
		upstream.WithTimeout(a.Config.Upstream.TimeoutDuration()),
		upstream.WithRateLimit(a.Config.Upstream.RateLimitPerSecond),
		upstream.WithLogger(a.Logger),
	)
	a.Logger.Debug().
		Str("base_url", a.Config.Upstream.BaseURL).
		Msg("Upstream client initialized")

	a.Orchestrator = scrape.NewOrchestrator(
		a.Config,
		a.AccountStore,
		a.ScrapeClient,
		a.EventService,
		a.Logger,
	)

	a.SchedulerService = scheduler.NewService(a.Logger)

	return nil
}

// initHandlers initializes all HTTP handlers
func (a *App) initHandlers() error {
	a.APIHandler = handlers.NewAPIHandler()

	a.ScrapeHandler = handlers.NewScrapeHandler(
		a.Config,
		a.Orchestrator,
		a.StorageManager.RunStorage(),
		a.AccountStore,
		a.Logger,
	)

	a.RunsHandler = handlers.NewRunsHandler(a.StorageManager.RunStorage(), a.Logger)
	a.AccountsHandler = handlers.NewAccountsHandler(a.Config, a.AccountStore, a.Logger)
	a.SchedulerHandler = handlers.NewSchedulerHandler(a.SchedulerService)

	a.Logger.Debug().Msg("HTTP handlers initialized")

	return nil
}

// startScheduler registers the maintenance jobs and starts the cron loop.
// Disabled scheduler leaves the jobs unregistered; the endpoints and stores
// they maintain still work, they just never run automatically.
func (a *App) startScheduler() error {
	if !a.Config.Scheduler.Enabled {
		a.Logger.Info().Msg("Maintenance scheduler disabled by configuration")
		return nil
	}

	// Daily usage reset: zero every account's counter so quota windows roll
	err := a.SchedulerService.RegisterJob(jobUsageReset, a.Config.Scheduler.UsageResetCron, func() error {
		return a.AccountStore.ResetAllUsage(a.ctx)
	})
	if err != nil {
		return fmt.Errorf("failed to register usage reset job: %w", err)
	}

	// Registry sweep: evict runs past their TTL so the registry stays bounded
	sweepSchedule := fmt.Sprintf("@every %s", a.Config.Scheduler.SweepIntervalDuration())
	err = a.SchedulerService.RegisterJob(jobRegistrySweep, sweepSchedule, func() error {
		deleted, err := a.StorageManager.RunStorage().DeleteExpired(a.ctx, time.Now())
		if err != nil {
			return err
		}
		if deleted > 0 {
			a.Logger.Info().Int("deleted", deleted).Msg("Swept expired runs from registry")
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to register registry sweep job: %w", err)
	}

	if err := a.SchedulerService.Start(); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}

	return nil
}

// Close shuts down all application components
func (a *App) Close() error {
	if a.cancelCtx != nil {
		a.Logger.Info().Msg("Cancelling background goroutines")
		a.cancelCtx()
		// Allow in-flight pipelines to observe the cancellation
		time.Sleep(100 * time.Millisecond)
	}

	// Stop scheduler service
	if a.SchedulerService != nil {
		if err := a.SchedulerService.Stop(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to stop scheduler service")
		}
	}

	// Close event service
	if a.EventService != nil {
		if err := a.EventService.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close event service")
		}
	}

	// Close storage
	if a.StorageManager != nil {
		if err := a.StorageManager.Close(); err != nil {
			return fmt.Errorf("failed to close storage: %w", err)
		}
		a.Logger.Info().Msg("Storage closed")
	}

	return nil
}
