package app

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/refero/internal/common"
	"github.com/ternarybob/refero/internal/handlers"
	"github.com/ternarybob/refero/internal/interfaces"
	"github.com/ternarybob/refero/internal/services/auth"
	"github.com/ternarybob/refero/internal/services/events"
	"github.com/ternarybob/refero/internal/services/exporter"
	"github.com/ternarybob/refero/internal/services/notify"
	"github.com/ternarybob/refero/internal/services/pipeline"
	"github.com/ternarybob/refero/internal/services/schedules"
	badgerstore "github.com/ternarybob/refero/internal/storage/badger"
)

// App holds all application components and dependencies
type App struct {
	Config  *common.Config
	Logger  arbor.ILogger
	Version string

	StorageManager interfaces.StorageManager
	EventService   interfaces.EventService

	Pipeline   *pipeline.Service
	Supervisor *pipeline.Supervisor

	AuthService     *auth.Service
	ScheduleService *schedules.Service
	ExportService   *exporter.Service
	Mailer          *notify.Mailer
	Fanout          *notify.Fanout

	// HTTP handlers
	ReportHandler   *handlers.ReportHandler
	AdminHandler    *handlers.AdminHandler
	ScheduleHandler *handlers.ScheduleHandler
	AuthHandler     *handlers.AuthHandler
	WSHandler       *handlers.WebSocketHandler
}

// New initializes the application with all dependencies
func New(cfg *common.Config, version string, logger arbor.ILogger) (*App, error) {
	app := &App{
		Config:  cfg,
		Logger:  logger,
		Version: version,
	}

	storageManager, err := badgerstore.NewManager(logger, &cfg.Storage.Badger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	app.StorageManager = storageManager

	app.EventService = events.NewService(logger)

	if err := app.initServices(); err != nil {
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	if err := app.initHandlers(); err != nil {
		return nil, fmt.Errorf("failed to initialize handlers: %w", err)
	}

	if err := app.seedData(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to seed data: %w", err)
	}

	app.Supervisor.Start()

	logger.Info().
		Str("queue_delay", cfg.QueueDelayDuration().String()).
		Str("tick_interval", cfg.TickIntervalDuration().String()).
		Float64("fault_rate", cfg.Reports.FaultRate).
		Msg("Application initialization complete")

	return app, nil
}

func (a *App) initServices() error {
	a.Pipeline = pipeline.NewService(
		a.StorageManager.Jobs(),
		a.StorageManager.Transactions(),
		a.EventService,
		pipeline.NewRandomFaults(a.Config.Reports.FaultRate),
		pipeline.Config{
			QueueDelay:   a.Config.QueueDelayDuration(),
			TickInterval: a.Config.TickIntervalDuration(),
		},
		a.Logger,
	)

	a.Supervisor = pipeline.NewSupervisor(
		a.Pipeline,
		a.Config.StuckThresholdDuration(),
		a.Config.RecoveryIntervalDuration(),
		a.Logger,
	)

	a.AuthService = auth.NewService(a.StorageManager.Users(), a.Config.SessionTTLDuration(), a.Logger)
	a.ScheduleService = schedules.NewService(a.StorageManager.Schedules(), a.Logger)
	a.ExportService = exporter.NewService(a.Logger)

	a.Mailer = notify.NewMailer(a.Config.Mail, a.Logger)
	a.Fanout = notify.NewFanout(a.Mailer, a.StorageManager.Jobs(), a.Logger)
	if err := a.Fanout.Register(a.EventService); err != nil {
		return fmt.Errorf("failed to register notification fanout: %w", err)
	}

	return nil
}

func (a *App) initHandlers() error {
	a.AuthHandler = handlers.NewAuthHandler(
		a.AuthService,
		a.Config.Auth.CookieName,
		a.Config.SessionTTLDuration(),
		a.Logger,
	)

	a.WSHandler = handlers.NewWebSocketHandler(
		a.EventService,
		a.AuthHandler,
		a.Config.ThrottleIntervalDuration(),
		a.Config.Reports.ProgressTopic,
		a.Logger,
	)

	a.ReportHandler = handlers.NewReportHandler(
		a.Pipeline,
		a.StorageManager.Jobs(),
		a.StorageManager.Transactions(),
		a.ExportService,
		a.Config.Reports.ExportMaxRows,
		a.Logger,
	)

	a.AdminHandler = handlers.NewAdminHandler(a.Pipeline, a.Supervisor, a.StorageManager.Jobs(), a.Logger)
	a.ScheduleHandler = handlers.NewScheduleHandler(a.ScheduleService, a.Logger)

	return nil
}

// seedData provisions the default accounts and the demo dataset on first start
func (a *App) seedData(ctx context.Context) error {
	if err := a.AuthService.EnsureDefaultUsers(ctx); err != nil {
		return fmt.Errorf("failed to seed users: %w", err)
	}

	if a.Config.Reports.SeedTransactions > 0 {
		if err := badgerstore.SeedTransactions(ctx, a.StorageManager.Transactions(), a.Config.Reports.SeedTransactions, a.Logger); err != nil {
			return fmt.Errorf("failed to seed transactions: %w", err)
		}
	}

	return nil
}

// Close shuts down application components in dependency order
func (a *App) Close() error {
	if a.Supervisor != nil {
		a.Supervisor.Stop()
		a.Logger.Info().Msg("Recovery supervisor stopped")
	}

	if a.Pipeline != nil {
		a.Pipeline.Stop()
		a.Logger.Info().Msg("Export pipeline stopped")
	}

	if a.EventService != nil {
		if err := a.EventService.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close event service")
		}
	}

	if a.StorageManager != nil {
		if err := a.StorageManager.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close storage")
			return err
		}
		a.Logger.Info().Msg("Storage closed")
	}

	return nil
}
