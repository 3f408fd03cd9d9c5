package bootstrap

import (
	"context"
	"fmt"

	"github.com/kirillkom/report-etl/internal/config"
	"github.com/kirillkom/report-etl/internal/core/ports"
	"github.com/kirillkom/report-etl/internal/core/usecase"
	"github.com/kirillkom/report-etl/internal/infrastructure/notifier/slack"
	"github.com/kirillkom/report-etl/internal/infrastructure/queue/nats"
	"github.com/kirillkom/report-etl/internal/infrastructure/reader/tabular"
	"github.com/kirillkom/report-etl/internal/infrastructure/repository/postgres"
	"github.com/kirillkom/report-etl/internal/infrastructure/resilience"
	sinkfs "github.com/kirillkom/report-etl/internal/infrastructure/sink/localfs"
	"github.com/kirillkom/report-etl/internal/infrastructure/source/localdir"
	storagefs "github.com/kirillkom/report-etl/internal/infrastructure/storage/localfs"
)

type App struct {
	Config config.Config

	Queue  ports.RunQueue
	Runner ports.PipelineRunner

	closeFn func()
}

// New wires the full application, including the NATS run queue. Services
// that only need the pipeline itself use NewPipeline instead.
func New(ctx context.Context, cfg config.Config) (*App, error) {
	app, err := NewPipeline(ctx, cfg)
	if err != nil {
		return nil, err
	}

	executor := resilience.NewExecutor(resilience.DefaultConfig())
	queue, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, nats.Options{
		ResilienceExecutor: executor,
	})
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("init run queue: %w", err)
	}

	app.Queue = queue
	closePipeline := app.closeFn
	app.closeFn = func() {
		queue.Close()
		if closePipeline != nil {
			closePipeline()
		}
	}
	return app, nil
}

// NewPipeline wires everything a pipeline run needs: the postgres ingest
// ledger, payload storage, the inbox source, the tabular reader, the export
// sink and the Slack notifier.
func NewPipeline(ctx context.Context, cfg config.Config) (*App, error) {
	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	ledger := postgres.NewLedgerRepository(db)
	if err := ledger.EnsureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	storage, err := storagefs.New(cfg.StoragePath)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init object storage: %w", err)
	}
	source, err := localdir.New(cfg.InboxDir)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init payload source: %w", err)
	}
	sink, err := sinkfs.New(cfg.ProcessedDir)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init export sink: %w", err)
	}

	notifier := slack.New(cfg.SlackWebhookURL, resilience.NewExecutor(resilience.DefaultConfig()))
	reader := tabular.New()

	runner := usecase.NewRunPipelineUseCase(source, ledger, storage, reader, sink, notifier, cfg.PipelineWorkers)

	return &App{
		Config: cfg,
		Runner: runner,
		closeFn: func() {
			_ = db.Close()
		},
	}, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}
