package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/phrazzld/slide-explainer/internal/config"
	"github.com/phrazzld/slide-explainer/internal/document"
	"github.com/phrazzld/slide-explainer/internal/events"
	"github.com/phrazzld/slide-explainer/internal/fanout"
	"github.com/phrazzld/slide-explainer/internal/platform/filestore"
	"github.com/phrazzld/slide-explainer/internal/service"
	"github.com/phrazzld/slide-explainer/internal/task"
)

// application holds the shared dependencies of the serve and worker commands
// so they can be cleaned up together on shutdown.
type application struct {
	config *config.Config
	logger *slog.Logger

	registry *registry
	uploads  *filestore.Store
	outputs  *filestore.Store

	eventEmitter *events.InMemoryEventEmitter
	jobService   service.JobService
	poller       *task.Poller
}

// newApplication wires the registry, file stores, explanation pipeline,
// poller and intake service. The caller owns the returned application and
// must call cleanup.
func newApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*application, error) {
	app := &application{
		config: cfg,
		logger: logger,
	}

	var err error
	app.registry, err = openRegistry(ctx, cfg.Database, logger)
	if err != nil {
		return nil, err
	}

	if err := app.init(ctx); err != nil {
		app.cleanup()
		return nil, err
	}

	logger.Info("application initialized",
		"driver", cfg.Database.Driver,
		"provider", cfg.LLM.Provider,
		"job_concurrency", cfg.Poller.JobConcurrency)
	return app, nil
}

func (app *application) init(ctx context.Context) error {
	cfg := app.config

	var err error
	app.uploads, err = filestore.New(cfg.Storage.UploadDir)
	if err != nil {
		return fmt.Errorf("failed to open upload directory: %w", err)
	}
	app.outputs, err = filestore.New(cfg.Storage.OutputDir)
	if err != nil {
		return fmt.Errorf("failed to open output directory: %w", err)
	}

	explainer, err := newExplainer(ctx, cfg.LLM, app.logger)
	if err != nil {
		return err
	}

	engine := fanout.NewEngine(explainer,
		fanout.WithLogger(app.logger),
		fanout.WithMaxConcurrency(cfg.Poller.FanoutLimit))
	pipeline := task.NewPipeline(explainer, engine)

	factory := task.NewExplanationTaskFactory(
		document.NewSource(app.uploads),
		pipeline,
		app.outputs,
		app.registry.jobs,
		app.logger,
	)

	app.poller = task.NewPoller(app.registry.jobs, factory, task.PollerConfig{
		Interval:    cfg.Poller.Interval,
		WorkerCount: cfg.Poller.JobConcurrency,
	}, app.logger)

	app.eventEmitter = events.NewInMemoryEventEmitter(app.logger)
	app.eventEmitter.RegisterHandler(app.poller)

	app.jobService, err = service.NewJobService(
		app.registry.jobs,
		app.uploads,
		app.eventEmitter,
		service.JobServiceConfig{MaxUploadBytes: app.maxUploadBytes()},
		app.logger,
	)
	if err != nil {
		return fmt.Errorf("failed to create job service: %w", err)
	}

	return nil
}

func (app *application) maxUploadBytes() int64 {
	return int64(app.config.Storage.MaxUploadMB) << 20
}

// cleanup stops the poller and closes the database connection.
func (app *application) cleanup() {
	if app.poller != nil {
		app.poller.Stop()
	}

	if app.registry != nil {
		if err := app.registry.Close(); err != nil {
			app.logger.Error("error closing database connection", "error", err)
		}
	}

	app.logger.Info("application shutdown completed")
}
