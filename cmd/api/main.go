package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"thinkhub/config"
	"thinkhub/internal/cache"
	"thinkhub/internal/handler"
	"thinkhub/internal/httpserver"
	"thinkhub/internal/repository"
	"thinkhub/internal/service"
	"thinkhub/pkg/circuitbreaker"
	"thinkhub/pkg/db"
	"thinkhub/pkg/logger"
	"thinkhub/pkg/mq"
	"thinkhub/pkg/outbox"
	"thinkhub/pkg/redis"
)

func configDir() string {
	if dir := os.Getenv("CONFIG_DIR"); dir != "" {
		return dir
	}
	return "config"
}

func main() {
	cfg, err := config.Load(configDir())
	if err != nil {
		panic(err)
	}

	log := logger.NewLogger(cfg.Server.LogLevel)
	defer log.Sync()

	log.Info("Starting thinkhub API...")

	// DB
	dbConn, err := db.NewConnection(cfg.DB, log)
	if err != nil {
		log.Fatal("DB initialization failed", zap.Error(err))
	}
	defer dbConn.Close()

	migrateCtx, migrateCancel := context.WithTimeout(context.Background(), time.Minute)
	if err := db.ApplyMigrations(migrateCtx, dbConn, cfg.DB.MigrationsDir, log); err != nil {
		migrateCancel()
		log.Fatal("Failed to apply migrations", zap.Error(err))
	}
	migrateCancel()

	// Redis
	rdb := redis.NewRedisClient(cfg.Redis)
	defer rdb.Close()
	if err := redis.Ping(rdb); err != nil {
		// 缓存不可用时仍可服务，只是每次都回源
		log.Warn("Redis unavailable, caches will miss", zap.Error(err))
	}

	// Repositories
	outboxRepo := outbox.NewRepository(dbConn)
	userRepo := repository.NewUserRepository(dbConn, log)
	projectRepo := repository.NewProjectRepository(dbConn, log)
	memberRepo := repository.NewMemberRepository(dbConn, log)
	documentRepo := repository.NewDocumentRepository(dbConn, log)
	milestoneRepo := repository.NewMilestoneRepository(dbConn, log)
	taskRepo := repository.NewTaskRepository(dbConn, log)
	statsRepo := repository.NewStatsRepository(dbConn, log)

	var activityOutbox *outbox.Repository
	if cfg.Outbox.Enabled {
		activityOutbox = outboxRepo
	}
	activityRepo := repository.NewActivityRepository(dbConn, activityOutbox, log)

	// Caches
	statsCache := cache.NewStatsCache(rdb, cfg.DashboardCacheTTL())
	userDirectory := cache.NewUserDirectory(rdb, userRepo, cfg.UserCacheTTL(), log)

	// Services
	scope := service.NewScopeResolver(projectRepo)
	access := service.NewAccess(projectRepo, memberRepo)
	activity := service.NewActivityLogger(activityRepo, log)

	authService := service.NewAuthService(userRepo, cfg.JWT.Secret, cfg.TokenTTL())
	projectService := service.NewProjectService(access, projectRepo, memberRepo, documentRepo, userRepo, activity, log)
	milestoneService := service.NewMilestoneService(access, milestoneRepo, activity, log)
	taskService := service.NewTaskService(access, milestoneRepo, taskRepo, activity, log)
	feedService := service.NewFeedService(scope, activityRepo, userDirectory, projectRepo, log).
		WithLimits(cfg.Activity.FeedLimit, cfg.Activity.MaxFeedLimit)
	dashboardService := service.NewDashboardService(scope, statsRepo, statsCache, log)

	// Outbox dispatcher
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var publisher *mq.Publisher
	if cfg.Outbox.Enabled {
		publisher, err = mq.NewPublisher(cfg.MQ.URL)
		if err != nil {
			log.Fatal("Failed to init MQ publisher", zap.Error(err))
		}
		defer publisher.Close()

		guarded := circuitbreaker.NewGuardedPublisher(publisher, circuitbreaker.New(circuitbreaker.DefaultConfig()))
		dispatcher := outbox.NewDispatcher(outboxRepo, guarded, outbox.DispatcherConfig{
			Interval:   cfg.OutboxInterval(),
			BatchSize:  cfg.Outbox.BatchSize,
			MaxRetries: cfg.Outbox.MaxRetries,
		}, log)
		go dispatcher.Start(ctx)
	}

	// Router
	handlers := httpserver.Handlers{
		Auth:     handler.NewAuthHandler(authService, log),
		Activity: handler.NewActivityHandler(feedService, dashboardService, log),
		Projects: handler.NewProjectHandler(projectService, log),
		Tasks:    handler.NewTaskHandler(milestoneService, taskService, log),
	}
	var readiness httpserver.ConnChecker
	if publisher != nil {
		readiness = publisher
	}
	router := httpserver.NewRouter(handlers, cfg.JWT.Secret, log, dbConn, readiness)

	srv := &http.Server{
		Addr:              cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("HTTP server starting", zap.String("addr", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	// 优雅退出处理
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down thinkhub API gracefully...")

	// 停止 outbox 分发
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown error", zap.Error(err))
	} else {
		log.Info("HTTP server stopped")
	}

	log.Info("thinkhub API shutdown complete")
}
