package app

import (
	"context"
	"fmt"
	"log/slog"

	"NewsRelay/internal/config"
	"NewsRelay/internal/filter"
	"NewsRelay/internal/infrastructure/llm"
	"NewsRelay/internal/infrastructure/parser"
	"NewsRelay/internal/infrastructure/scheduler"
	"NewsRelay/internal/infrastructure/storage"
	"NewsRelay/internal/infrastructure/telegram"
	"NewsRelay/internal/logging"
	"NewsRelay/internal/scanner"
	"NewsRelay/internal/usecase"
)

// Application wires configuration to the pipeline and its collaborators.
type Application struct {
	cfg      config.Config
	logger   *slog.Logger
	repo     *storage.SQLiteRepository
	pipeline *usecase.Pipeline
}

// New builds a runnable application instance, opening the item store.
func New(cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}

	repo, err := storage.Open(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("open item store: %w", err)
	}

	registry := scanner.NewRegistry()
	registry.Register(parser.NewHeadlinesScanner(nil))
	registry.Register(parser.NewChartsScanner(nil))

	source := parser.NewStrategySource(registry, cfg.Sites, baseLogger.With("component", "source"))
	llmClient := llm.NewClient(cfg.LLM)

	pipeline := usecase.NewPipeline(usecase.PipelineDeps{
		Source:              source,
		Repository:          repo,
		Reviewer:            llmClient,
		Translator:          llmClient,
		Publisher:           telegram.NewPublisher(cfg.Publisher.Telegram),
		Filter:              filter.New(cfg.Filter.BlockedKeywords),
		Logger:              baseLogger.With("component", "pipeline"),
		PublishDelay:        cfg.Publisher.Delay(),
		ReviewBatchLimit:    cfg.Review.BatchLimit,
		ReviewContextLimit:  cfg.Review.ContextLimit,
		ReviewContextWindow: cfg.Review.ContextWindow(),
		RetentionCap:        cfg.Retention.MaxRecords,
	})

	return &Application{cfg: cfg, logger: baseLogger, repo: repo, pipeline: pipeline}, nil
}

// Pipeline exposes the stage controller to the CLI commands.
func (a *Application) Pipeline() *usecase.Pipeline {
	return a.pipeline
}

// RunForever drives full pipeline cycles from the configured cron schedule
// until the context is cancelled.
func (a *Application) RunForever(ctx context.Context) error {
	driver := scheduler.NewCronScheduler(a.cfg.Scheduler.CronExpression, a.cfg.Scheduler.Location())
	sched := usecase.NewScheduler(driver, a.pipeline)

	if err := sched.Start(ctx); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}
	a.logger.Info("scheduler started", "cron", a.cfg.Scheduler.CronExpression)

	<-ctx.Done()
	return sched.Stop(context.Background())
}

// Close releases the item store.
func (a *Application) Close() error {
	return a.repo.Close()
}
