package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"

	"github.com/kotoba-learn/kotoba-api/internal/config"
	"github.com/kotoba-learn/kotoba-api/internal/events"
	"github.com/kotoba-learn/kotoba-api/internal/fanout"
	"github.com/kotoba-learn/kotoba-api/internal/generation"
	"github.com/kotoba-learn/kotoba-api/internal/metrics"
	"github.com/kotoba-learn/kotoba-api/internal/platform/gemini"
	"github.com/kotoba-learn/kotoba-api/internal/platform/openai"
	"github.com/kotoba-learn/kotoba-api/internal/platform/postgres"
	"github.com/kotoba-learn/kotoba-api/internal/platform/rabbitmq"
	"github.com/kotoba-learn/kotoba-api/internal/service"
	"github.com/kotoba-learn/kotoba-api/internal/store"
	"github.com/kotoba-learn/kotoba-api/internal/task"
)

// application holds all the shared application dependencies to simplify management
// and ensure proper cleanup on shutdown.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB

	metrics *metrics.Metrics

	textbookStore store.TextbookStore
	chapterStore  store.ChapterStore
	audioQueue    store.AudioQueueStore

	generator       generation.Generator
	textbookService *service.TextbookService
	statusService   *service.StatusService

	eventEmitter *events.InMemoryEventEmitter
	taskRunner   *task.TaskRunner

	// closers are released in reverse order during cleanup.
	closers []io.Closer

	// Background generation and finalization retries stop when this is cancelled.
	lifetimeCancel context.CancelFunc
}

// newApplication creates a new application instance with all dependencies initialized.
// The database connection must already be established; it is owned by the
// application from here on and closed by cleanup.
func newApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger, db *sql.DB) (*application, error) {
	app := &application{
		config:  cfg,
		logger:  logger,
		db:      db,
		metrics: metrics.New(),
	}

	// Stores
	app.textbookStore = postgres.NewPostgresTextbookStore(db, logger)
	app.chapterStore = postgres.NewPostgresChapterStore(db, logger)
	progressStore := postgres.NewPostgresProgressStore(db, logger)

	var err error
	app.audioQueue, err = app.newAudioQueue()
	if err != nil {
		app.cleanup()
		return nil, err
	}

	app.generator, err = newGenerator(ctx, cfg.LLM, logger)
	if err != nil {
		app.cleanup()
		return nil, fmt.Errorf("failed to initialize LLM generator: %w", err)
	}
	logger.Info("LLM generator initialized", "provider", cfg.LLM.Provider, "model", cfg.LLM.ModelName)

	// Background work must outlive the request that started it.
	lifetime, cancel := context.WithCancel(context.WithoutCancel(ctx))
	app.lifetimeCancel = cancel

	// Textbooks queued or running here are never swept, however long they
	// wait for a worker.
	inFlight := task.NewInFlightTextbooks()
	sweeper := task.NewStuckTextbookSweeper(
		app.textbookStore,
		app.chapterStore,
		inFlight,
		cfg.Task.StuckJobAge,
		app.metrics,
		logger,
	)
	app.taskRunner = task.NewTaskRunner(sweeper, inFlight, task.TaskRunnerConfig{
		WorkerCount:        cfg.Task.WorkerCount,
		QueueSize:          cfg.Task.QueueSize,
		StuckCheckInterval: cfg.Task.StuckCheckInterval,
	}, logger)

	app.eventEmitter = events.NewInMemoryEventEmitter(logger)

	app.textbookService, err = service.NewTextbookService(service.TextbookServiceDeps{
		Textbooks: app.textbookStore,
		Chapters:  app.chapterStore,
		Generator: app.generator,
		Fanout:    fanout.NewProducer(app.audioQueue, cfg.Fanout.MaxItems, app.metrics, logger),
		Emitter:   app.eventEmitter,
		Metrics:   app.metrics,
		Lifetime:  lifetime,
	}, service.TextbookServiceConfig{
		UnitTimeout:       cfg.Generation.UnitTimeout,
		FinalizeBaseDelay: cfg.Generation.FinalizeBaseDelay,
		FinalizeMaxDelay:  cfg.Generation.FinalizeMaxDelay,
	}, logger)
	if err != nil {
		app.cleanup()
		return nil, fmt.Errorf("failed to create textbook service: %w", err)
	}

	app.statusService, err = service.NewStatusService(progressStore, app.textbookStore, app.chapterStore, logger)
	if err != nil {
		app.cleanup()
		return nil, fmt.Errorf("failed to create status service: %w", err)
	}

	// Generation events become tasks that call back into the textbook service.
	taskFactory := task.NewTextbookGenerationTaskFactory(app.textbookService, logger)
	app.eventEmitter.RegisterHandler(task.NewTaskFactoryEventHandler(taskFactory, app.taskRunner, logger))

	if err := app.taskRunner.Start(); err != nil {
		app.cleanup()
		return nil, fmt.Errorf("failed to start task runner: %w", err)
	}

	logger.Info("Application initialized successfully")
	return app, nil
}

// newAudioQueue selects the audio work item backend.
func (app *application) newAudioQueue() (store.AudioQueueStore, error) {
	switch app.config.Fanout.Backend {
	case config.FanoutBackendRabbitMQ:
		publisher, err := rabbitmq.Dial(app.config.Fanout.AMQPURL, app.config.Fanout.QueueName, app.logger)
		if err != nil {
			return nil, fmt.Errorf("failed to connect audio publisher: %w", err)
		}
		app.closers = append(app.closers, publisher)
		app.logger.Info("Audio work items published to RabbitMQ", "queue", app.config.Fanout.QueueName)
		return publisher, nil
	default:
		app.logger.Info("Audio work items stored in PostgreSQL")
		return postgres.NewPostgresAudioQueueStore(app.db, app.logger), nil
	}
}

// newGenerator creates the chapter generator for the configured provider.
func newGenerator(ctx context.Context, cfg config.LLMConfig, logger *slog.Logger) (generation.Generator, error) {
	logger = logger.With("component", "llm_generator")

	switch cfg.Provider {
	case config.ProviderOpenAI:
		g, err := openai.NewGenerator(logger, cfg)
		if err != nil {
			return nil, err
		}
		return g, nil
	case config.ProviderGemini:
		g, err := gemini.NewGeminiGenerator(ctx, logger, cfg)
		if err != nil {
			return nil, err
		}
		return g, nil
	default:
		return nil, fmt.Errorf("%w: unknown provider %q", generation.ErrInvalidConfig, cfg.Provider)
	}
}

// Run starts the application server, handling lifecycle and cleanup.
// It returns an error if the server fails to start or encounters problems.
func (app *application) Run(ctx context.Context) error {
	router := app.setupRouter()

	if err := app.startHTTPServer(ctx, router); err != nil {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}

// cleanup handles graceful shutdown of application resources. Running tasks
// are cancelled first so that they record their failure while the database
// is still open.
func (app *application) cleanup() {
	if app.taskRunner != nil {
		app.taskRunner.Stop()
	}

	if app.lifetimeCancel != nil {
		app.lifetimeCancel()
	}

	for i := len(app.closers) - 1; i >= 0; i-- {
		if err := app.closers[i].Close(); err != nil {
			app.logger.Error("Error closing resource", "error", err)
		}
	}

	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("Error closing database connection", "error", err)
		}
	}

	app.logger.Info("Application shutdown completed")
}
