package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/complaint-service/internal/api/http"
	"github.com/spec-kit/complaint-service/internal/api/http/handlers"
	"github.com/spec-kit/complaint-service/internal/auth"
	"github.com/spec-kit/complaint-service/internal/config"
	"github.com/spec-kit/complaint-service/internal/events"
	"github.com/spec-kit/complaint-service/internal/observability"
	"github.com/spec-kit/complaint-service/internal/persistence"
	"github.com/spec-kit/complaint-service/internal/repository"
	"github.com/spec-kit/complaint-service/internal/scoring"
	"github.com/spec-kit/complaint-service/internal/service"
	"github.com/spec-kit/complaint-service/internal/worker"
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

	pool := pg.PoolHandle()
	txRunner := persistence.NewTxRunner(pool)
	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher()

	userRepo := repository.NewUserRepository(pool)
	complaintRepo := repository.NewComplaintRepository(pool)
	requestRepo := repository.NewAssignmentRequestRepository(pool)
	timelineRepo := repository.NewTimelineRepository(pool)
	commentRepo := repository.NewCommentRepository(pool)
	attachmentRepo := repository.NewAttachmentRepository(pool)
	feedbackRepo := repository.NewFeedbackRepository(pool)
	triageRuleRepo := repository.NewTriageRuleRepository(pool)
	escalationRuleRepo := repository.NewEscalationRuleRepository(pool)

	triageService := service.NewTriageService(triageRuleRepo, userRepo, logger)
	recommendationService := service.NewRecommendationService(
		complaintRepo,
		userRepo,
		timelineRepo,
		scoring.NewWeightedScorer(),
		txRunner,
		dispatcher,
		logger,
		cfg.Assignment.AutoAssignThreshold,
	)
	complaintService := service.NewComplaintService(service.ComplaintDependencies{
		ComplaintRepo:   complaintRepo,
		UserRepo:        userRepo,
		TimelineRepo:    timelineRepo,
		CommentRepo:     commentRepo,
		AttachmentRepo:  attachmentRepo,
		FeedbackRepo:    feedbackRepo,
		Triage:          triageService,
		Recommendations: recommendationService,
		Tx:              txRunner,
		Dispatcher:      dispatcher,
		Logger:          logger,
		Config:          cfg.Complaint,
	})
	assignmentService := service.NewAssignmentService(service.AssignmentDependencies{
		ComplaintRepo: complaintRepo,
		UserRepo:      userRepo,
		RequestRepo:   requestRepo,
		TimelineRepo:  timelineRepo,
		Tx:            txRunner,
		Dispatcher:    dispatcher,
		Logger:        logger,
		Config:        cfg.Assignment,
	})
	sweeperService := service.NewSweeperService(service.SweeperDependencies{
		ComplaintRepo: complaintRepo,
		RuleRepo:      escalationRuleRepo,
		RequestRepo:   requestRepo,
		TimelineRepo:  timelineRepo,
		Tx:            txRunner,
		Dispatcher:    dispatcher,
		Metrics:       metrics,
		Logger:        logger,
	})
	notificationService := service.NewNotificationService(dispatcher, logger, cfg.Notification)
	authService := service.NewAuthService(cfg.Auth, userRepo)
	adminService := service.NewAdminService(userRepo, complaintRepo, requestRepo, triageRuleRepo, escalationRuleRepo)

	worker.StartNotificationWorker(notificationService)
	sweeperWorker := worker.NewSweeperWorker(sweeperService, redis, logger, cfg.Sweeper)
	sweeperWorker.Start()

	authMiddleware := auth.NewAuthMiddleware(authService.TokenManager(), userRepo)

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Auth:           handlers.NewAuthHandler(authService),
		Complaints:     handlers.NewComplaintsHandler(complaintService),
		Assignments:    handlers.NewAssignmentsHandler(assignmentService, complaintService, recommendationService),
		Admin:          handlers.NewAdminHandler(adminService),
		AuthMiddleware: authMiddleware,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
	sweeperWorker.Stop()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
