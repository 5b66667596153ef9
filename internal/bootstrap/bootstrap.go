package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/finvetra/fund-recommender/internal/config"
	"github.com/finvetra/fund-recommender/internal/core/domain"
	"github.com/finvetra/fund-recommender/internal/core/ports"
	"github.com/finvetra/fund-recommender/internal/core/usecase"
	"github.com/finvetra/fund-recommender/internal/infrastructure/cache"
	"github.com/finvetra/fund-recommender/internal/infrastructure/queue/nats"
	"github.com/finvetra/fund-recommender/internal/infrastructure/report"
	"github.com/finvetra/fund-recommender/internal/infrastructure/repository/postgres"
	"github.com/finvetra/fund-recommender/internal/infrastructure/resilience"
)

type App struct {
	Config config.Config
	Logger *slog.Logger

	Queue    ports.EmbedQueue
	Executor *resilience.Executor

	Questionnaire *usecase.QuestionnaireService
	Intake        *usecase.ResponseIntake
	Completion    *usecase.CompletionTracker
	Recommender   *usecase.Recommender
	UserEmbedder  ports.UserEmbedService
	FundEmbedder  ports.SchemeEmbedService
	Maintenance   *usecase.Maintenance
	FilterCache   ports.FilterOptionCache
	Report        *report.EmbeddingReport

	closeFn func()
}

func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*App, error) {
	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := postgres.EnsureSchema(ctx, db); err != nil {
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	questionnaireRepo := postgres.NewQuestionnaireRepository(db)
	responseRepo := postgres.NewResponseRepository(db)
	markerRepo := postgres.NewMarkerRepository(db)
	schemeRepo := postgres.NewSchemeRepository(db)
	vectorRepo := postgres.NewVectorRepository(db)

	executor := resilience.NewExecutor(resilience.DefaultConfig())
	queue, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, nats.Options{
		ResilienceExecutor: executor,
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init embed queue: %w", err)
	}

	filterCache := cache.NewFilterOptionCache(schemeRepo, time.Duration(cfg.FilterCacheTTLSec)*time.Second)

	questionnaire := usecase.NewQuestionnaireService(questionnaireRepo, responseRepo)
	intake := usecase.NewResponseIntake(questionnaireRepo, responseRepo, queue, logger)
	completion := usecase.NewCompletionTracker(questionnaireRepo, responseRepo, questionnaire)
	recommender := usecase.NewRecommender(schemeRepo, vectorRepo, logger,
		time.Duration(cfg.RecommendDeadlineMS)*time.Millisecond)
	userEmbedder := usecase.NewUserEmbedder(questionnaireRepo, responseRepo, vectorRepo, logger)
	fundEmbedder := usecase.NewFundEmbedder(questionnaireRepo, markerRepo, schemeRepo, vectorRepo, logger, cfg.EmbedWorkers)
	assigner := usecase.NewWeightAssigner(questionnaireRepo, markerRepo)
	discretizer := usecase.NewOptionDiscretizer(markerRepo, schemeRepo, filterCache, logger)
	maintenance := usecase.NewMaintenance(assigner, discretizer, queue, logger)
	embeddingReport := report.NewEmbeddingReport(questionnaireRepo, markerRepo, vectorRepo)

	return &App{
		Config: cfg,
		Logger: logger,

		Queue:    queue,
		Executor: executor,

		Questionnaire: questionnaire,
		Intake:        intake,
		Completion:    completion,
		Recommender:   recommender,
		UserEmbedder:  userEmbedder,
		FundEmbedder:  fundEmbedder,
		Maintenance:   maintenance,
		FilterCache:   filterCache,
		Report:        embeddingReport,

		closeFn: func() {
			queue.Close()
			_ = db.Close()
		},
	}, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}

// RunEmbedJob dispatches one embedding job under the retry and circuit
// breaker policy. Transient database faults (deadlocks, serialization
// failures, connection drops) are retried before the job is surfaced to
// the queue as failed.
func (a *App) RunEmbedJob(ctx context.Context, job domain.EmbedJob) error {
	run := func(ctx context.Context) error {
		switch job.Kind {
		case domain.EmbedJobUser:
			return a.UserEmbedder.EmbedUser(ctx, job.UserID)
		case domain.EmbedJobScheme:
			return a.FundEmbedder.EmbedScheme(ctx, job.SchemeCode)
		case domain.EmbedJobAll:
			return a.FundEmbedder.EmbedAll(ctx)
		default:
			return fmt.Errorf("unknown embed job kind %q", job.Kind)
		}
	}
	if a.Executor == nil {
		return run(ctx)
	}
	return a.Executor.Execute(ctx, "embed."+string(job.Kind), run, resilience.ClassifyDatabaseError)
}
