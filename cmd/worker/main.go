package main

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"thinkhub/config"
	contractmq "thinkhub/contracts/mq"
	"thinkhub/internal/cache"
	"thinkhub/internal/mqhandler"
	"thinkhub/internal/repository"
	"thinkhub/internal/service"
	"thinkhub/pkg/db"
	"thinkhub/pkg/logger"
	"thinkhub/pkg/mq"
	"thinkhub/pkg/redis"
	"thinkhub/pkg/util"
)

const dashboardQueue = "activity.recorded.dashboard.q"

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

	log.Info("Starting thinkhub worker...")

	// Redis
	rdb := redis.NewRedisClient(cfg.Redis)
	defer rdb.Close()
	if err := redis.Ping(rdb); err != nil {
		log.Fatal("Redis connection failed", zap.Error(err))
	}

	deduper := util.NewDeduper(rdb, time.Hour, log)

	// DB
	dbConn, err := db.NewConnection(cfg.DB, log)
	if err != nil {
		log.Fatal("DB connection failed", zap.Error(err))
	}
	defer dbConn.Close()

	log.Info("DB ready")

	memberRepo := repository.NewMemberRepository(dbConn, log)
	statsRepo := repository.NewStatsRepository(dbConn, log)
	projectRepo := repository.NewProjectRepository(dbConn, log)

	statsCache := cache.NewStatsCache(rdb, cfg.DashboardCacheTTL())
	dashboard := service.NewDashboardService(service.NewScopeResolver(projectRepo), statsRepo, statsCache, log)

	activityHandler := mqhandler.NewActivityRecordedHandler(memberRepo, dashboard, deduper, log)

	// -------------------------
	// Dashboard invalidation consumer
	// -------------------------
	log.Info("Init consumer",
		zap.String("queue", dashboardQueue),
		zap.String("routing_key", contractmq.RoutingKeyActivityRecorded),
	)
	consumer, err := mq.NewConsumer(cfg.MQ.URL, mq.Subscription{
		Queue:      dashboardQueue,
		RoutingKey: contractmq.RoutingKeyActivityRecorded,
		Prefetch:   cfg.MQ.Prefetch,
	}, log)
	if err != nil {
		log.Fatal("Dashboard consumer init failed", zap.Error(err))
	}
	defer consumer.Close()
	consumer.SetHandler(activityHandler.HandleActivityRecorded)

	go func() {
		if err := consumer.StartConsuming(); err != nil {
			log.Fatal("Dashboard consumer crashed", zap.Error(err))
		}
	}()

	log.Info("Worker running")

	// 优雅退出处理
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down worker...")
	consumer.Stop()
	log.Info("Worker shutdown complete")
}
