package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	daemoninadapter "lockin/internal/modules/daemon/adapter/in"
	daemonoutadapter "lockin/internal/modules/daemon/adapter/out"
	daemonin "lockin/internal/modules/daemon/port/in"
	daemonout "lockin/internal/modules/daemon/port/out"
	daemonservice "lockin/internal/modules/daemon/service"
	daemonusecase "lockin/internal/modules/daemon/usecase"
	enforcementinadapter "lockin/internal/modules/enforcement/adapter/in"
	enforcementoutadapter "lockin/internal/modules/enforcement/adapter/out"
	enforcementdomain "lockin/internal/modules/enforcement/domain"
	enforcementdto "lockin/internal/modules/enforcement/dto"
	enforcementin "lockin/internal/modules/enforcement/port/in"
	enforcementservice "lockin/internal/modules/enforcement/service"
	enforcementusecase "lockin/internal/modules/enforcement/usecase"
	listsoutadapter "lockin/internal/modules/lists/adapter/out"
	listsservice "lockin/internal/modules/lists/service"
	listsusecase "lockin/internal/modules/lists/usecase"
	navigationoutadapter "lockin/internal/modules/navigation/adapter/out"
	navigationin "lockin/internal/modules/navigation/port/in"
	navigationservice "lockin/internal/modules/navigation/service"
	navigationusecase "lockin/internal/modules/navigation/usecase"
	relevanceoutadapter "lockin/internal/modules/relevance/adapter/out"
	relevanceservice "lockin/internal/modules/relevance/service"
	relevanceusecase "lockin/internal/modules/relevance/usecase"
	sessioninadapter "lockin/internal/modules/session/adapter/in"
	sessionoutadapter "lockin/internal/modules/session/adapter/out"
	sessionout "lockin/internal/modules/session/port/out"
	sessionservice "lockin/internal/modules/session/service"
	sessionusecase "lockin/internal/modules/session/usecase"
	"lockin/internal/platform/clock"
	"lockin/internal/platform/config"
	"lockin/internal/platform/id"
	"lockin/internal/platform/kv"
	"lockin/internal/platform/logging"
	"lockin/internal/platform/telemetry"
	uiapp "lockin/internal/ui/app"
)

type App struct {
	DaemonCLI      daemoninadapter.CLIHandler
	EnforcementCLI enforcementinadapter.CLIHandler
	// Daemon backs the MCP server, which speaks the message API directly.
	Daemon daemonin.Usecase
	Config config.Config
	Logger *zap.Logger

	closers []func(context.Context) error
}

// New wires every module against cfg. Nothing is served until the daemon
// runs; short-lived commands dispatch through the same graph.
func New(cfg config.Config) (*App, error) {
	logger, err := logging.New(cfg.Log)
	if err != nil {
		return nil, err
	}
	app := &App{Config: cfg, Logger: logger}

	shutdownTracing, err := telemetry.Setup(context.Background(), cfg.OTLPEndpoint)
	if err != nil {
		logger.Warn("tracing disabled", zap.Error(err))
	}
	app.closers = append(app.closers, shutdownTracing)

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		_ = app.Close()
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	store, err := kv.Open(cfg.DBPath)
	if err != nil {
		_ = app.Close()
		return nil, fmt.Errorf("open store: %w", err)
	}
	app.closers = append(app.closers, func(context.Context) error { return store.Close() })

	clk := clock.SystemClock{}

	embedder, err := relevanceoutadapter.NewConfiguredEmbedder(cfg.Embedder)
	if err != nil {
		_ = app.Close()
		return nil, fmt.Errorf("new embedder: %w", err)
	}
	relevanceUC := relevanceusecase.NewInteractor(relevanceservice.NewRelevanceService(embedder, logger), embedder)
	app.closers = append(app.closers, func(context.Context) error { return relevanceUC.Close() })

	scheduler := sessionoutadapter.NewWallClockScheduler(clk, cfg.Scheduler.PollInterval, logger)
	relevanceAdapter := sessionoutadapter.NewRelevanceAdapter(relevanceUC)
	var journal sessionout.Journal
	if cfg.JournalDir != "" {
		journal = sessionoutadapter.NewMarkdownJournal(cfg.JournalDir)
	}
	sessionUC := sessionusecase.NewInteractor(sessionservice.NewSessionService(sessionservice.Deps{
		Clock:     clk,
		IDs:       id.UUID{},
		Sessions:  sessionoutadapter.NewKVSessionStore(store),
		History:   sessionoutadapter.NewKVHistoryStore(store),
		Scheduler: scheduler,
		Topics:    relevanceAdapter,
		Analytics: relevanceAdapter,
		Notifier:  sessionoutadapter.NewCommandNotifier(cfg.NotifyCommand, logger),
		Journal:   journal,
		Logger:    logger,
	}))
	app.closers = append(app.closers, func(context.Context) error { return sessionUC.Close() })

	listsUC := listsusecase.NewInteractor(listsservice.NewListService(listsoutadapter.NewKVListStore(store), logger))

	enforcementSvc, err := enforcementservice.NewEnforcementService(enforcementservice.Deps{
		Sessions:  enforcementoutadapter.NewSessionBridge(sessionUC),
		Lists:     enforcementoutadapter.NewListBridge(listsUC),
		Relevance: enforcementoutadapter.NewRelevanceBridge(relevanceUC),
		Clock:     clk,
		Logger:    logger,
		Thresholds: enforcementdomain.Thresholds{
			Low:  cfg.Enforcement.LowThreshold,
			High: cfg.Enforcement.HighThreshold,
		},
		MaxRunes: cfg.Enforcement.MaxContentRunes,
	})
	if err != nil {
		_ = app.Close()
		return nil, fmt.Errorf("new enforcement: %w", err)
	}
	enforcementUC := enforcementusecase.NewInteractor(enforcementSvc, enforcementoutadapter.NewHTMLFetcher(nil))

	navigationUC := navigationusecase.NewInteractor(navigationservice.NewWatcher(
		navigationoutadapter.NewEnforcementEvaluator(enforcementUC),
		navigationoutadapter.NewLogSink(logger),
		cfg.Enforcement.Debounce,
		logger,
	))
	app.closers = append(app.closers, func(context.Context) error { return navigationUC.Close() })

	wake := sessioninadapter.NewWakeHandler(sessionUC, logger)
	daemonUC := daemonusecase.NewInteractor(daemonservice.NewDaemonService(daemonservice.Deps{
		Sessions:    sessionUC,
		Lists:       listsUC,
		Enforcement: enforcementUC,
		Navigation:  navigationUC,
		Relevance:   relevanceUC,
		Store:       daemonoutadapter.NewFileDaemonStore(cfg.DataDir, cfg.SocketPath),
		IPCServer:   daemonoutadapter.NewJSONRPCServer(logger),
		IPCClient:   daemonoutadapter.NewJSONRPCClient(),
		Gateway:     daemonoutadapter.NewHTTPGateway(logger, cfg.AllowedOrigins),
		Workers: []daemonout.Worker{
			daemonout.WorkerFunc(func(ctx context.Context) error {
				scheduler.Run(ctx, wake.Fire)
				return nil
			}),
			configReloader(cfg.Path, enforcementUC, navigationUC, logger),
		},
		HTTPAddr: cfg.HTTPAddr,
		RunArgs:  runArgs(cfg),
		Clock:    clk,
		Logger:   logger,
	}))

	app.Daemon = daemonUC
	app.DaemonCLI = daemoninadapter.NewCLIHandler(daemonUC)
	app.EnforcementCLI = enforcementinadapter.NewCLIHandler(enforcementUC)
	return app, nil
}

// Close releases resources in reverse construction order.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](context.Background()); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	_ = a.Logger.Sync()
	return errors.Join(errs...)
}

func RunTUI(app *App) error {
	model := uiapp.NewModel(app.DaemonCLI)
	program := tea.NewProgram(model, tea.WithAltScreen())
	_, err := program.Run()
	return err
}

// configReloader applies threshold and debounce edits to the running daemon.
// Other settings take effect on restart.
func configReloader(path string, enforcement enforcementin.Usecase, navigation navigationin.Usecase, logger *zap.Logger) daemonout.Worker {
	return daemonout.WorkerFunc(func(ctx context.Context) error {
		err := config.Watch(ctx, path,
			func(next config.Config) {
				thresholds := enforcementdto.Thresholds{Low: next.Enforcement.LowThreshold, High: next.Enforcement.HighThreshold}
				if err := enforcement.SetThresholds(thresholds); err != nil {
					logger.Warn("config reload rejected", zap.Error(err))
					return
				}
				navigation.SetDebounce(next.Enforcement.Debounce)
				logger.Info("config reloaded",
					zap.Float64("low", thresholds.Low),
					zap.Float64("high", thresholds.High),
					zap.Duration("debounce", next.Enforcement.Debounce),
				)
			},
			func(err error) {
				logger.Warn("config reload failed", zap.Error(err))
			},
		)
		if err != nil {
			return err
		}
		<-ctx.Done()
		return nil
	})
}

func runArgs(cfg config.Config) []string {
	args := []string{"daemon", "__run", "--data-dir", cfg.DataDir}
	if cfg.Path != "" {
		args = append(args, "--config", cfg.Path)
	}
	return args
}
