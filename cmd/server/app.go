package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/phrazzld/sciencepath/internal/catalog"
	"github.com/phrazzld/sciencepath/internal/config"
	"github.com/phrazzld/sciencepath/internal/domain/curriculum"
	"github.com/phrazzld/sciencepath/internal/events"
	"github.com/phrazzld/sciencepath/internal/generation"
	"github.com/phrazzld/sciencepath/internal/platform/gemini"
	"github.com/phrazzld/sciencepath/internal/platform/lessonfile"
	"github.com/phrazzld/sciencepath/internal/platform/memory"
	"github.com/phrazzld/sciencepath/internal/platform/rediskv"
	"github.com/phrazzld/sciencepath/internal/platform/sqlkv"
	"github.com/phrazzld/sciencepath/internal/redact"
	"github.com/phrazzld/sciencepath/internal/service"
	"github.com/phrazzld/sciencepath/internal/store"
	"github.com/phrazzld/sciencepath/internal/task"
)

// application holds the shared dependencies of the server so they can be
// released together on shutdown.
type application struct {
	config *config.Config
	logger *slog.Logger

	backend    store.Backend
	curriculum *curriculum.Curriculum
	content    *generation.Cache
	emitter    *events.InMemoryEmitter
	engine     *service.Engine

	taskQueue  *task.TaskQueue
	workerPool *task.WorkerPool
}

// newApplication wires every component from cfg. The engine is reloaded
// from storage before it returns.
func newApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*application, error) {
	app := &application{config: cfg, logger: logger}

	var err error
	app.curriculum, err = catalog.Load(cfg.Curriculum.Path, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to load curriculum: %w", err)
	}

	source, err := newContentSource(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	app.content = generation.NewCache(source, cfg.Content.CacheSize, logger)

	app.backend, err = openBackend(ctx, cfg.Storage, logger)
	if err != nil {
		return nil, err
	}
	logger.Info("progress store opened", slog.String("driver", cfg.Storage.Driver))

	adapter := store.NewAdapter(app.backend, cfg.Storage.Namespace, logger)
	app.emitter = events.NewInMemoryEmitter(logger)

	registry := service.NewRegistry(adapter, app.emitter, nil, logger)
	ledger := service.NewLedgerService(adapter, logger)
	app.emitter.RegisterHandler(ledger)

	app.taskQueue = task.NewTaskQueue(cfg.Tasks.QueueSize, logger)
	app.workerPool = task.NewWorkerPool(app.taskQueue, task.WorkerPoolConfig{WorkerCount: cfg.Tasks.WorkerCount}, logger)
	app.workerPool.SetErrorHandler(func(t task.Task, err error) {
		logger.Warn("background task failed",
			slog.String("task_id", t.ID().String()),
			slog.String("task_type", t.Type()),
			slog.String("error", redact.Error(err)))
	})
	if cfg.Tasks.PrefetchNext {
		app.emitter.RegisterHandler(task.NewPrefetchEventHandler(app.curriculum, app.taskQueue, app.content, logger))
	}

	app.engine, err = service.NewEngine(service.EngineConfig{
		Registry:     registry,
		Ledger:       ledger,
		Lessons:      service.NewLessonService(app.curriculum, app.content, logger),
		Transfer:     service.NewTransfer(adapter, app.emitter, nil, logger),
		Curriculum:   app.curriculum,
		Emitter:      app.emitter,
		AdvanceDelay: cfg.Session.AdvanceDelay,
		Logger:       logger,
	})
	if err != nil {
		app.cleanup()
		return nil, fmt.Errorf("failed to create engine: %w", err)
	}
	app.engine.Reload(ctx)
	app.workerPool.Start()

	return app, nil
}

// newContentSource returns the configured lesson generator.
func newContentSource(ctx context.Context, cfg *config.Config, logger *slog.Logger) (generation.Generator, error) {
	switch cfg.Content.Source {
	case config.SourceGemini:
		g, err := gemini.NewGenerator(ctx, logger.With("component", "llm_generator"), cfg.LLM)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize LLM generator: %w", err)
		}
		logger.Info("LLM generator initialized", slog.String("model", cfg.LLM.ModelName))
		return g, nil
	case config.SourceFile:
		return lessonfile.NewDir(cfg.Content.Dir, logger), nil
	default:
		return nil, fmt.Errorf("unknown content source %q", cfg.Content.Source)
	}
}

// openBackend opens the configured key-value store.
func openBackend(ctx context.Context, cfg config.StorageConfig, logger *slog.Logger) (store.Backend, error) {
	switch cfg.Driver {
	case config.DriverMemory:
		return memory.New(cfg.QuotaBytes), nil
	case config.DriverSQLite, config.DriverPostgres:
		b, err := sqlkv.Open(ctx, sqlkv.Dialect(cfg.Driver), cfg.DSN, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to open %s store: %s", cfg.Driver, redact.Error(err))
		}
		return b, nil
	case config.DriverRedis:
		b, err := rediskv.Open(ctx, cfg.DSN, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to open redis store: %s", redact.Error(err))
		}
		return b, nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

// cleanup stops background work and closes the store.
func (app *application) cleanup() {
	if app.engine != nil {
		app.engine.Close()
	}
	if app.taskQueue != nil {
		app.taskQueue.Close()
	}
	if app.workerPool != nil {
		app.workerPool.Stop()
	}
	if app.backend != nil {
		if err := app.backend.Close(); err != nil {
			app.logger.Error("failed to close progress store", slog.String("error", redact.Error(err)))
		}
	}
}
