package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/civic-issue-service/internal/ai"
	httptransport "github.com/spec-kit/civic-issue-service/internal/api/http"
	"github.com/spec-kit/civic-issue-service/internal/api/http/handlers"
	"github.com/spec-kit/civic-issue-service/internal/auth"
	"github.com/spec-kit/civic-issue-service/internal/config"
	"github.com/spec-kit/civic-issue-service/internal/events"
	"github.com/spec-kit/civic-issue-service/internal/observability"
	"github.com/spec-kit/civic-issue-service/internal/persistence"
	"github.com/spec-kit/civic-issue-service/internal/repository"
	"github.com/spec-kit/civic-issue-service/internal/service"
	"github.com/spec-kit/civic-issue-service/internal/storage"
	"github.com/spec-kit/civic-issue-service/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher()

	pool := pg.PoolHandle()
	issueRepo := repository.NewIssueRepository(pool)
	voteRepo := repository.NewVoteRepository(pool)
	departmentRepo := repository.NewDepartmentRepository(pool)
	profileRepo := repository.NewProfileRepository(pool)
	feedbackRepo := repository.NewFeedbackRepository(pool)
	timelineRepo := repository.NewTimelineRepository(pool)

	var backend ai.Backend
	if gemini, err := ai.NewGeminiBackend(ctx, cfg.Gemini); err != nil {
		logger.Fatal("failed to init gemini backend", zap.Error(err))
	} else if gemini != nil {
		backend = gemini
		logger.Info("gemini backend enabled", zap.String("model", cfg.Gemini.Model))
	} else {
		logger.Info("gemini backend disabled, classification uses defaults")
	}

	photos, err := storage.NewPhotoStore(ctx, cfg.Storage, logger)
	if err != nil {
		logger.Fatal("failed to init photo store", zap.Error(err))
	}

	authService := service.NewAuthService(*cfg, profileRepo)
	authMiddleware := auth.NewAuthMiddleware(authService.TokenManager(), profileRepo)

	issueService := service.NewIssueService(service.IssueDependencies{
		IssueRepo:    issueRepo,
		VoteRepo:     voteRepo,
		FeedbackRepo: feedbackRepo,
		TimelineRepo: timelineRepo,
		ProfileRepo:  profileRepo,
		Photos:       photos,
		Dispatcher:   dispatcher,
		Logger:       logger,
	})
	voteService := service.NewVoteService(issueRepo, voteRepo, dispatcher, logger)
	classificationService := service.NewClassificationService(service.ClassificationDependencies{
		IssueRepo:      issueRepo,
		VoteRepo:       voteRepo,
		DepartmentRepo: departmentRepo,
		Backend:        backend,
		Dispatcher:     dispatcher,
		Metrics:        metrics,
		Logger:         logger,
	})
	transparencyService := service.NewTransparencyService(issueRepo, departmentRepo, feedbackRepo, redis.Client, logger)
	notificationService := service.NewNotificationService(dispatcher, logger, cfg.Notification)

	worker.StartNotificationWorker(notificationService)
	escalationWorker := worker.NewEscalationWorker(issueRepo, issueService, cfg.Escalation, logger)
	go escalationWorker.Run(ctx)

	app := fiber.New(fiber.Config{
		AppName:   cfg.App.Name,
		BodyLimit: 10 * 1024 * 1024,
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout(), cfg.App.CORSAllowOrigins)

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Profiles:       handlers.NewProfilesHandler(authService),
		Issues:         handlers.NewIssuesHandler(issueService, voteService),
		Classification: handlers.NewClassificationHandler(classificationService),
		Officer:        handlers.NewOfficerHandler(issueService),
		Transparency:   handlers.NewTransparencyHandler(transparencyService, departmentRepo),
		AuthMiddleware: authMiddleware,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)
	cancel()

	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
