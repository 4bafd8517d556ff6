package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	sharedCore "github.com/Xushengqwer/go-common/core"
	sharedTracing "github.com/Xushengqwer/go-common/core/tracing"
	"go.uber.org/zap"

	appConfig "github.com/Xushengqwer/discussion_service/config"
	"github.com/Xushengqwer/discussion_service/constant"
	"github.com/Xushengqwer/discussion_service/controller"
	"github.com/Xushengqwer/discussion_service/dependencies"
	_ "github.com/Xushengqwer/discussion_service/docs"
	"github.com/Xushengqwer/discussion_service/mq/consumer"
	"github.com/Xushengqwer/discussion_service/mq/producer"
	"github.com/Xushengqwer/discussion_service/repo/mysql"
	redisrepo "github.com/Xushengqwer/discussion_service/repo/redis"
	"github.com/Xushengqwer/discussion_service/router"
	"github.com/Xushengqwer/discussion_service/service"
	"github.com/Xushengqwer/discussion_service/tasks"
)

// @title           Discussion Service API
// @version         1.0
// @description     课程问答讨论区服务：帖子、嵌套回复、投票与答案采纳。

// @host      localhost:8083
// @schemes http https
func main() {
	var configFile string
	flag.StringVar(&configFile, "config", "config/config.development.yaml", "Path to configuration file")
	flag.Parse()

	// 1. 配置与日志
	var cfg appConfig.DiscussionConfig
	if err := sharedCore.LoadConfig(configFile, &cfg); err != nil {
		log.Fatalf("FATAL: 加载配置失败 (%s): %v", configFile, err)
	}

	logger, loggerErr := sharedCore.NewZapLogger(cfg.ZapConfig)
	if loggerErr != nil {
		log.Fatalf("FATAL: 初始化 ZapLogger 失败: %v", loggerErr)
	}
	defer func() {
		if err := logger.Logger().Sync(); err != nil {
			log.Printf("WARN: ZapLogger Sync 失败: %v\n", err)
		}
	}()

	// 2. 分布式追踪
	if cfg.TracerConfig.Enabled {
		tracerShutdown, err := sharedTracing.InitTracerProvider(constant.ServiceName, constant.ServiceVersion, cfg.TracerConfig)
		if err != nil {
			logger.Fatal("初始化 TracerProvider 失败", zap.Error(err))
		}
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := tracerShutdown(ctx); err != nil {
				logger.Error("关闭 TracerProvider 失败", zap.Error(err))
			}
		}()
		logger.Info("分布式追踪已初始化")
	} else {
		logger.Info("分布式追踪已禁用")
	}

	// 3. 基础设施：MySQL 必需，Redis / 对象存储 / Kafka 可选
	initCtx, initCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer initCancel()

	db, err := dependencies.InitMySQL(&cfg, logger)
	if err != nil {
		logger.Fatal("初始化 MySQL 数据库失败", zap.Error(err))
	}

	rdb, err := dependencies.InitRedis(initCtx, cfg.RedisConfig, logger)
	if err != nil {
		logger.Fatal("初始化 Redis 失败", zap.Error(err))
	}

	mediaStore, err := dependencies.InitMediaStore(initCtx, cfg.MediaConfig, logger)
	if err != nil {
		logger.Fatal("初始化附件存储失败", zap.Error(err))
	}

	var publisher producer.EventPublisher
	var kafkaProducer *producer.KafkaProducer
	if len(cfg.KafkaConfig.Brokers) > 0 {
		kafkaProducer = producer.NewKafkaProducer(cfg.KafkaConfig, logger)
		publisher = kafkaProducer
		logger.Info("Kafka 生产者已初始化")
	} else {
		logger.Warn("未配置 Kafka brokers，领域事件不会发送")
	}

	// 4. 仓库层
	postRepo := mysql.NewPostRepository(db, logger)
	replyRepo := mysql.NewReplyRepository(db, logger)
	voteRepo := mysql.NewVoteRepository(db, logger)
	postBatchRepo := mysql.NewPostBatchOperationsRepository(db, logger, cfg.ViewSyncConfig)

	var (
		postViewRepo redisrepo.PostViewRepository
		cacheRepo    redisrepo.Cache
		taskRepo     redisrepo.PostTaskCache
	)
	if rdb != nil {
		postViewRepo = redisrepo.NewPostViewRepository(rdb, logger, cfg.ViewSyncConfig)
		cacheRepo = redisrepo.NewCache(rdb, logger)
		taskRepo = redisrepo.NewPostTaskCacheImpl(rdb, logger, postBatchRepo)
	} else {
		logger.Warn("未配置 Redis，浏览量直接写 MySQL，热榜不可用")
	}

	// 5. 服务层
	policy := cfg.DiscussionPolicy.Normalize()
	voteService := service.NewVoteService(db, voteRepo, postRepo, policy, logger)
	treeService := service.NewReplyTreeService(postRepo, replyRepo, policy, logger)
	replyService := service.NewReplyService(db, postRepo, replyRepo, voteService, publisher, policy, logger)
	acceptanceService := service.NewAcceptanceService(db, postRepo, replyRepo, publisher, policy, logger)
	postService := service.NewPostService(service.PostServiceDeps{
		DB:           db,
		PostRepo:     postRepo,
		ReplyRepo:    replyRepo,
		VoteRepo:     voteRepo,
		Tree:         treeService,
		Votes:        voteService,
		MediaStore:   mediaStore,
		PostViewRepo: postViewRepo,
		Publisher:    publisher,
		Policy:       policy,
		Logger:       logger,
	})
	postListService := service.NewPostListService(logger, postRepo)
	hotPostService := service.NewHotPostService(cacheRepo, logger)

	// 6. 控制器与路由
	postController := controller.NewPostController(postService, postListService, acceptanceService)
	hotPostController := controller.NewHotPostController(hotPostService)
	replyController := controller.NewReplyController(replyService, acceptanceService)
	ginRouter := router.SetupRouter(logger, &cfg, postController, hotPostController, replyController)

	// 7. Kafka 消费者
	var consumers []*consumer.Consumer
	var consumerWg sync.WaitGroup
	consumerCtx, consumerCancel := context.WithCancel(context.Background())
	defer consumerCancel()

	if topic := cfg.KafkaConfig.Topics.ReplyModeration; len(cfg.KafkaConfig.Brokers) > 0 && topic != "" {
		groupID := cfg.KafkaConfig.ConsumerGroupID
		if groupID == "" {
			groupID = constant.ServiceName + "_group"
		}
		handler := consumer.NewReplyModerationHandler(logger, replyService)
		moderationConsumer, err := consumer.NewConsumer(&cfg.KafkaConfig, groupID, topic, handler, logger)
		if err != nil {
			logger.Fatal("初始化回复下架消费者失败", zap.Error(err))
		}
		consumers = append(consumers, moderationConsumer)
	}
	for _, c := range consumers {
		consumerWg.Add(1)
		go func(cons *consumer.Consumer) {
			defer consumerWg.Done()
			cons.Start(consumerCtx)
		}(c)
	}

	// 8. 定时任务，依赖 Redis
	var syncTask *tasks.ViewCountSyncTask
	var cacheTask *tasks.HotPostsCacheTask
	if rdb != nil {
		syncTask = tasks.NewViewCountSyncTask(postViewRepo, postBatchRepo, logger)
		if err := syncTask.Start(); err != nil {
			logger.Fatal("启动浏览量同步任务失败", zap.Error(err))
		}
		cacheTask = tasks.NewHotPostsCacheTask(taskRepo, logger)
		if err := cacheTask.Start(); err != nil {
			logger.Fatal("启动热榜刷新任务失败", zap.Error(err))
		}
	}

	// 9. HTTP 服务器
	serverAddr := fmt.Sprintf(":%s", cfg.ServerConfig.Port)
	httpServer := &http.Server{
		Addr:    serverAddr,
		Handler: ginRouter,
	}
	go func() {
		logger.Info("HTTP 服务器开始监听", zap.String("address", serverAddr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP 服务器启动失败", zap.Error(err))
		}
	}()

	// 10. 优雅关停
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	receivedSignal := <-quit
	logger.Info("收到关停信号，开始优雅退出...", zap.String("signal", receivedSignal.String()))

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("关闭 HTTP 服务器失败", zap.Error(err))
	}

	consumerCancel()
	consumerWg.Wait()
	for _, c := range consumers {
		_ = c.Close()
	}

	if syncTask != nil {
		waitTask(shutdownCtx, logger, "浏览量同步任务", syncTask.Stop())
	}
	if cacheTask != nil {
		waitTask(shutdownCtx, logger, "热榜刷新任务", cacheTask.Stop())
	}

	if kafkaProducer != nil {
		if err := kafkaProducer.Close(); err != nil {
			logger.Error("关闭 Kafka 生产者失败", zap.Error(err))
		}
	}

	logger.Info("服务已成功关闭")
}

// waitTask 等待 cron 中正在执行的作业结束，超过关停期限则放弃等待。
func waitTask(ctx context.Context, logger *sharedCore.ZapLogger, name string, done context.Context) {
	select {
	case <-done.Done():
		logger.Info(name + "已停止")
	case <-ctx.Done():
		logger.Error("等待"+name+"停止超时", zap.Error(ctx.Err()))
	}
}
